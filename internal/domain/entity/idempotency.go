package entity

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord binds a client-chosen key to the issuance it produced.
type IdempotencyRecord struct {
	key        string
	issuanceID uuid.UUID
	createdAt  time.Time
}

func NewIdempotencyRecord(key string, issuanceID uuid.UUID) *IdempotencyRecord {
	return &IdempotencyRecord{
		key:        key,
		issuanceID: issuanceID,
		createdAt:  time.Now(),
	}
}

func ReconstructIdempotencyRecord(key string, issuanceID uuid.UUID, createdAt time.Time) *IdempotencyRecord {
	return &IdempotencyRecord{
		key:        key,
		issuanceID: issuanceID,
		createdAt:  createdAt,
	}
}

func (r *IdempotencyRecord) Key() string {
	return r.key
}

func (r *IdempotencyRecord) IssuanceID() uuid.UUID {
	return r.issuanceID
}

func (r *IdempotencyRecord) CreatedAt() time.Time {
	return r.createdAt
}
