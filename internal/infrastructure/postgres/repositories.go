package postgres

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Xausdorf/vietqr-gateway/internal/domain/entity"
	"github.com/Xausdorf/vietqr-gateway/internal/domain/repository"
	"github.com/Xausdorf/vietqr-gateway/internal/domain/vietqr"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UnitOfWork struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

func (u *UnitOfWork) Begin(ctx context.Context) (repository.UnitOfWork, error) {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &UnitOfWork{pool: u.pool, tx: tx}, nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Commit(ctx)
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Rollback(ctx)
}

func (u *UnitOfWork) Issuances() repository.IssuanceRepository {
	return &IssuanceRepo{q: u.querier()}
}

func (u *UnitOfWork) Idempotency() repository.IdempotencyRepository {
	return &IdempotencyRepo{q: u.querier(), tx: u.tx}
}

func (u *UnitOfWork) querier() querier {
	if u.tx != nil {
		return u.tx
	}
	return u.pool
}

type IssuanceRepo struct {
	q querier
}

func (r *IssuanceRepo) Create(ctx context.Context, iss *entity.Issuance) error {
	cfg := iss.Config()
	_, err := r.q.Exec(ctx,
		`INSERT INTO issuances
		   (id, bill_number, acquirer_bin, beneficiary_id, initiation_mode, account_target, amount, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		iss.ID(), iss.BillNumber(), cfg.AcquirerBIN, cfg.BeneficiaryID, cfg.Mode.String(),
		cfg.AccountTarget, cfg.Amount, iss.Payload(), iss.CreatedAt(),
	)
	return err
}

func (r *IssuanceRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Issuance, error) {
	var (
		cfg        vietqr.Config
		mode       string
		billNumber string
		payload    string
		createdAt  time.Time
	)
	err := r.q.QueryRow(ctx,
		`SELECT bill_number, acquirer_bin, beneficiary_id, initiation_mode, account_target, amount, payload, created_at
		 FROM issuances WHERE id = $1`,
		id,
	).Scan(&billNumber, &cfg.AcquirerBIN, &cfg.BeneficiaryID, &mode, &cfg.AccountTarget, &cfg.Amount, &payload, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	cfg.Mode = vietqr.ParseInitiationMode(mode)
	return entity.ReconstructIssuance(id, cfg, billNumber, payload, createdAt), nil
}

type IdempotencyRepo struct {
	q  querier
	tx pgx.Tx
}

func (r *IdempotencyRepo) Find(ctx context.Context, key string) (*entity.IdempotencyRecord, error) {
	var (
		issuanceID uuid.UUID
		createdAt  time.Time
	)
	err := r.q.QueryRow(ctx,
		`SELECT issuance_id, created_at FROM idempotency_keys WHERE key = $1`,
		key,
	).Scan(&issuanceID, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity.ReconstructIdempotencyRecord(key, issuanceID, createdAt), nil
}

func (r *IdempotencyRepo) Save(ctx context.Context, record *entity.IdempotencyRecord) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO idempotency_keys (key, issuance_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO NOTHING`,
		record.Key(), record.IssuanceID(), record.CreatedAt(),
	)
	return err
}

// Lock takes a transaction-scoped advisory lock on the key. Outside a
// transaction it is a no-op.
func (r *IdempotencyRepo) Lock(ctx context.Context, key string) error {
	if r.tx == nil {
		return nil
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	_, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(h.Sum64()))
	return err
}
