package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/Xausdorf/vietqr-gateway/internal/domain/vietqr"
)

// Issuance is a payload handed out to a caller together with the input it
// was produced from.
type Issuance struct {
	id            uuid.UUID
	billNumber    string
	acquirerBIN   string
	beneficiaryID string
	mode          vietqr.InitiationMode
	accountTarget bool
	amount        string
	payload       string
	createdAt     time.Time
}

func NewIssuance(cfg vietqr.Config, billNumber, payload string) *Issuance {
	return &Issuance{
		id:            uuid.New(),
		billNumber:    billNumber,
		acquirerBIN:   cfg.AcquirerBIN,
		beneficiaryID: cfg.BeneficiaryID,
		mode:          cfg.Mode,
		accountTarget: cfg.AccountTarget,
		amount:        cfg.Amount,
		payload:       payload,
		createdAt:     time.Now(),
	}
}

func ReconstructIssuance(
	id uuid.UUID,
	cfg vietqr.Config,
	billNumber, payload string,
	createdAt time.Time,
) *Issuance {
	return &Issuance{
		id:            id,
		billNumber:    billNumber,
		acquirerBIN:   cfg.AcquirerBIN,
		beneficiaryID: cfg.BeneficiaryID,
		mode:          cfg.Mode,
		accountTarget: cfg.AccountTarget,
		amount:        cfg.Amount,
		payload:       payload,
		createdAt:     createdAt,
	}
}

func (i *Issuance) ID() uuid.UUID {
	return i.id
}

func (i *Issuance) BillNumber() string {
	return i.billNumber
}

func (i *Issuance) Payload() string {
	return i.payload
}

func (i *Issuance) CreatedAt() time.Time {
	return i.createdAt
}

// Config returns the encoder input the payload was produced from.
func (i *Issuance) Config() vietqr.Config {
	return vietqr.Config{
		AcquirerBIN:   i.acquirerBIN,
		BeneficiaryID: i.beneficiaryID,
		Mode:          i.mode,
		AccountTarget: i.accountTarget,
		Amount:        i.amount,
	}
}

// Encoder rebuilds the encoder with the stored bill number, which makes
// the stored payload reproducible for introspection.
func (i *Issuance) Encoder() (*vietqr.Encoder, error) {
	return vietqr.NewEncoder(i.Config(), vietqr.WithBillNumber(i.billNumber))
}
