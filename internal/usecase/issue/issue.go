package issue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Xausdorf/vietqr-gateway/internal/domain/entity"
	"github.com/Xausdorf/vietqr-gateway/internal/domain/repository"
	"github.com/Xausdorf/vietqr-gateway/internal/domain/vietqr"
)

var (
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrInvalidAmount          = errors.New("invalid amount")
)

// EMV caps the transaction amount field at 13 characters.
const maxAmountLength = 13

const (
	reasonInvalidAmount    = "invalid_amount"
	reasonLengthOutOfRange = "length_out_of_range"
	reasonInternal         = "internal"
)

type Request struct {
	IdempotencyKey string
	AcquirerBIN    string
	BeneficiaryID  string
	InitiationMode string
	AccountTarget  bool
	Amount         string
}

type Response struct {
	IssuanceID uuid.UUID
	Payload    string
	BillNumber string
	Mode       vietqr.InitiationMode
	Components vietqr.Components
	CreatedAt  time.Time
	Replayed   bool
}

type Recorder interface {
	PayloadIssued(mode string)
	IssueFailed(reason string)
}

type UseCase struct {
	uow      repository.UnitOfWork
	recorder Recorder
}

func NewUseCase(uow repository.UnitOfWork, recorder Recorder) *UseCase {
	return &UseCase{uow: uow, recorder: recorder}
}

func (uc *UseCase) Execute(ctx context.Context, req Request) (*Response, error) {
	if req.IdempotencyKey == "" {
		return nil, ErrIdempotencyKeyRequired
	}

	cfg := vietqr.Config{
		AcquirerBIN:   req.AcquirerBIN,
		BeneficiaryID: req.BeneficiaryID,
		Mode:          vietqr.ParseInitiationMode(req.InitiationMode),
		AccountTarget: req.AccountTarget,
		Amount:        req.Amount,
	}
	if cfg.Mode == vietqr.Dynamic {
		if err := ValidateAmount(cfg.Amount); err != nil {
			uc.recorder.IssueFailed(reasonInvalidAmount)
			return nil, err
		}
	}

	cached, err := uc.uow.Idempotency().Find(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return uc.replay(ctx, uc.uow, cached)
	}

	tx, err := uc.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.Idempotency().Lock(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	}

	cached, err = tx.Idempotency().Find(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return uc.replay(ctx, tx, cached)
	}

	enc, err := vietqr.NewEncoder(cfg)
	if err != nil {
		uc.recorder.IssueFailed(reasonInternal)
		return nil, err
	}
	payload, err := enc.Produce()
	if err != nil {
		uc.recorder.IssueFailed(reasonLengthOutOfRange)
		return nil, err
	}

	issuance := entity.NewIssuance(cfg, enc.BillNumber(), payload)
	if err := tx.Issuances().Create(ctx, issuance); err != nil {
		return nil, err
	}

	record := entity.NewIdempotencyRecord(req.IdempotencyKey, issuance.ID())
	if err := tx.Idempotency().Save(ctx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.recorder.PayloadIssued(cfg.Mode.String())
	return respond(issuance, false)
}

// Get returns a previously issued payload with its components.
func (uc *UseCase) Get(ctx context.Context, id uuid.UUID) (*Response, error) {
	issuance, err := uc.uow.Issuances().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return respond(issuance, false)
}

func (uc *UseCase) replay(
	ctx context.Context,
	repo repository.UnitOfWork,
	record *entity.IdempotencyRecord,
) (*Response, error) {
	issuance, err := repo.Issuances().FindByID(ctx, record.IssuanceID())
	if err != nil {
		return nil, err
	}
	return respond(issuance, true)
}

func respond(issuance *entity.Issuance, replayed bool) (*Response, error) {
	enc, err := issuance.Encoder()
	if err != nil {
		return nil, err
	}
	components, err := enc.Components()
	if err != nil {
		return nil, err
	}

	return &Response{
		IssuanceID: issuance.ID(),
		Payload:    issuance.Payload(),
		BillNumber: issuance.BillNumber(),
		Mode:       issuance.Config().Mode,
		Components: components,
		CreatedAt:  issuance.CreatedAt(),
		Replayed:   replayed,
	}, nil
}

// ValidateAmount accepts an empty amount or a positive whole number of VND
// written in canonical form, so that the verbatim TLV value is unambiguous.
func ValidateAmount(amount string) error {
	if amount == "" {
		return nil
	}
	if len(amount) > maxAmountLength {
		return fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidAmount, amount, maxAmountLength)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAmount, amount, err)
	}
	if !d.IsPositive() {
		return fmt.Errorf("%w: %q must be positive", ErrInvalidAmount, amount)
	}
	if !d.IsInteger() {
		return fmt.Errorf("%w: %q has a fractional part", ErrInvalidAmount, amount)
	}
	if d.String() != amount {
		return fmt.Errorf("%w: %q is not canonical, use %q", ErrInvalidAmount, amount, d.String())
	}
	return nil
}
