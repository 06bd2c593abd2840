package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Xausdorf/vietqr-gateway/internal/domain/entity"
	"github.com/Xausdorf/vietqr-gateway/internal/domain/repository"
)

var errTxClosed = errors.New("transaction already closed")

// Store keeps issuances in process memory. Transactions are serialized, so
// Lock has nothing left to do.
type Store struct {
	txMu sync.Mutex

	mu          sync.RWMutex
	issuances   map[uuid.UUID]*entity.Issuance
	idempotency map[string]*entity.IdempotencyRecord
}

func NewStore() *Store {
	return &Store{
		issuances:   make(map[uuid.UUID]*entity.Issuance),
		idempotency: make(map[string]*entity.IdempotencyRecord),
	}
}

type txState struct {
	issuances []*entity.Issuance
	records   []*entity.IdempotencyRecord
	closed    bool
}

type UnitOfWork struct {
	store *Store
	tx    *txState
}

func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

func (u *UnitOfWork) Begin(ctx context.Context) (repository.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u.store.txMu.Lock()
	return &UnitOfWork{store: u.store, tx: &txState{}}, nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if u.tx == nil {
		return nil
	}
	if u.tx.closed {
		return errTxClosed
	}

	u.store.mu.Lock()
	for _, iss := range u.tx.issuances {
		u.store.issuances[iss.ID()] = iss
	}
	for _, rec := range u.tx.records {
		if _, ok := u.store.idempotency[rec.Key()]; !ok {
			u.store.idempotency[rec.Key()] = rec
		}
	}
	u.store.mu.Unlock()

	u.tx.closed = true
	u.store.txMu.Unlock()
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if u.tx == nil || u.tx.closed {
		return nil
	}
	u.tx.closed = true
	u.store.txMu.Unlock()
	return nil
}

func (u *UnitOfWork) Issuances() repository.IssuanceRepository {
	return &IssuanceRepo{store: u.store, tx: u.tx}
}

func (u *UnitOfWork) Idempotency() repository.IdempotencyRepository {
	return &IdempotencyRepo{store: u.store, tx: u.tx}
}

type IssuanceRepo struct {
	store *Store
	tx    *txState
}

func (r *IssuanceRepo) Create(_ context.Context, iss *entity.Issuance) error {
	if r.tx != nil {
		r.tx.issuances = append(r.tx.issuances, iss)
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.issuances[iss.ID()] = iss
	return nil
}

func (r *IssuanceRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Issuance, error) {
	if r.tx != nil {
		for _, iss := range r.tx.issuances {
			if iss.ID() == id {
				return iss, nil
			}
		}
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	iss, ok := r.store.issuances[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return iss, nil
}

type IdempotencyRepo struct {
	store *Store
	tx    *txState
}

func (r *IdempotencyRepo) Find(_ context.Context, key string) (*entity.IdempotencyRecord, error) {
	if r.tx != nil {
		for _, rec := range r.tx.records {
			if rec.Key() == key {
				return rec, nil
			}
		}
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.idempotency[key], nil
}

func (r *IdempotencyRepo) Save(_ context.Context, record *entity.IdempotencyRecord) error {
	if r.tx != nil {
		r.tx.records = append(r.tx.records, record)
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.idempotency[record.Key()]; !ok {
		r.store.idempotency[record.Key()] = record
	}
	return nil
}

func (r *IdempotencyRepo) Lock(ctx context.Context, _ string) error {
	return ctx.Err()
}
