package repository

import "context"

//go:generate mockgen -destination=../../usecase/issue/mocks/mocks.go -package=mocks github.com/Xausdorf/vietqr-gateway/internal/domain/repository UnitOfWork,IssuanceRepository,IdempotencyRepository

type UnitOfWork interface {
	Begin(ctx context.Context) (UnitOfWork, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	Issuances() IssuanceRepository
	Idempotency() IdempotencyRepository
}
