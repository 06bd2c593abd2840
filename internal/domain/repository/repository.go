package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Xausdorf/vietqr-gateway/internal/domain/entity"
)

var ErrNotFound = errors.New("not found")

type IssuanceRepository interface {
	Create(ctx context.Context, issuance *entity.Issuance) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Issuance, error)
}

type IdempotencyRepository interface {
	Find(ctx context.Context, key string) (*entity.IdempotencyRecord, error)
	Save(ctx context.Context, record *entity.IdempotencyRecord) error
	Lock(ctx context.Context, key string) error
}
