// Package vietqr builds NAPAS VietQR payloads: EMV merchant-presented TLV
// strings terminated by a CRC16 checksum.
package vietqr

import (
	"crypto/rand"
	"io"
	"strings"
)

const (
	payloadFormat = "000201"
	pimStatic     = "010211"
	pimDynamic    = "010212"
	currencyVND   = "5303704"
	countryVN     = "5802VN"
	crcTag        = "6304"

	guid           = "0010A000000727"
	acquirerPrefix = "0006"
	serviceAccount = "0208QRIBFTTA"
	serviceCard    = "0208QRIBFTTC"

	merchantAccountTag = "38"
	beneficiaryOrgTag  = "01"
	beneficiaryTag     = "01"
	amountTag          = "54"
	additionalDataTag  = "62"
	billNumberTag      = "01"
	purposeTag         = "08"

	purposeText = "Thank you"
)

// InitiationMode tells a terminal whether the payload is reusable or bound
// to a single transaction.
type InitiationMode int

const (
	Static InitiationMode = iota
	Dynamic
)

// ParseInitiationMode matches "DYNAMIC" case-insensitively. Every other
// value, including the empty string, falls back to Static on purpose.
func ParseInitiationMode(s string) InitiationMode {
	if strings.EqualFold(s, "DYNAMIC") {
		return Dynamic
	}
	return Static
}

func (m InitiationMode) String() string {
	if m == Dynamic {
		return "DYNAMIC"
	}
	return "STATIC"
}

// Config is the caller-supplied input of one encode operation.
type Config struct {
	AcquirerBIN   string
	BeneficiaryID string
	Mode          InitiationMode
	// AccountTarget selects the account-number service profile; false means card number.
	AccountTarget bool
	// Amount is embedded verbatim, and only in Dynamic mode.
	Amount string
}

// Components holds every top-level segment that Produce concatenates.
// Omitted segments are empty strings.
type Components struct {
	PayloadFormat     string `json:"payload_format"`
	PointOfInitiation string `json:"point_of_initiation"`
	MerchantAccount   string `json:"merchant_account"`
	Currency          string `json:"currency"`
	Amount            string `json:"amount"`
	Country           string `json:"country"`
	AdditionalData    string `json:"additional_data"`
	BillNumber        string `json:"bill_number"`
}

// body is the checksum input: all segments followed by the CRC tag.
func (c Components) body() string {
	var b strings.Builder
	b.WriteString(c.PayloadFormat)
	b.WriteString(c.PointOfInitiation)
	b.WriteString(c.MerchantAccount)
	b.WriteString(c.Currency)
	b.WriteString(c.Amount)
	b.WriteString(c.Country)
	b.WriteString(c.AdditionalData)
	b.WriteString(crcTag)
	return b.String()
}

type options struct {
	random     io.Reader
	billNumber string
}

// Option customizes encoder construction.
type Option func(*options)

// WithRandom replaces crypto/rand.Reader as the bill number source.
func WithRandom(r io.Reader) Option {
	return func(o *options) {
		o.random = r
	}
}

// WithBillNumber pins the bill number instead of generating one.
func WithBillNumber(billNumber string) Option {
	return func(o *options) {
		o.billNumber = billNumber
	}
}

// Encoder produces the payload for one Config. The bill number is fixed at
// construction, so repeated calls to Produce return the same string.
type Encoder struct {
	cfg        Config
	billNumber string
}

func NewEncoder(cfg Config, opts ...Option) (*Encoder, error) {
	o := options{random: rand.Reader}
	for _, opt := range opts {
		opt(&o)
	}

	billNumber := o.billNumber
	if billNumber == "" {
		var err error
		billNumber, err = GenerateBillNumber(o.random)
		if err != nil {
			return nil, err
		}
	}

	return &Encoder{cfg: cfg, billNumber: billNumber}, nil
}

func (e *Encoder) Config() Config {
	return e.cfg
}

func (e *Encoder) BillNumber() string {
	return e.billNumber
}

// Produce returns the complete payload including its checksum. A field that
// violates the length bounds aborts the whole payload.
func (e *Encoder) Produce() (string, error) {
	c, err := e.Components()
	if err != nil {
		return "", err
	}
	data := c.body()
	return data + Checksum(data), nil
}

// Components returns the encoded segments Produce is built from.
func (e *Encoder) Components() (Components, error) {
	merchant, err := e.merchantAccount()
	if err != nil {
		return Components{}, err
	}
	amount, err := e.amount()
	if err != nil {
		return Components{}, err
	}
	additional, err := e.additionalData()
	if err != nil {
		return Components{}, err
	}

	return Components{
		PayloadFormat:     payloadFormat,
		PointOfInitiation: e.pointOfInitiation(),
		MerchantAccount:   merchant,
		Currency:          currencyVND,
		Amount:            amount,
		Country:           countryVN,
		AdditionalData:    additional,
		BillNumber:        e.billNumber,
	}, nil
}

func (e *Encoder) pointOfInitiation() string {
	if e.cfg.Mode == Dynamic {
		return pimDynamic
	}
	return pimStatic
}

func (e *Encoder) serviceCode() string {
	if e.cfg.AccountTarget {
		return serviceAccount
	}
	return serviceCard
}

func (e *Encoder) merchantAccount() (string, error) {
	beneficiary, err := BuildTLV(beneficiaryTag, e.cfg.BeneficiaryID)
	if err != nil {
		return "", err
	}
	org, err := BuildTLV(beneficiaryOrgTag, acquirerPrefix+e.cfg.AcquirerBIN+beneficiary)
	if err != nil {
		return "", err
	}
	return BuildTLV(merchantAccountTag, guid+org+e.serviceCode())
}

func (e *Encoder) amount() (string, error) {
	if e.cfg.Mode != Dynamic || e.cfg.Amount == "" {
		return "", nil
	}
	return BuildTLV(amountTag, e.cfg.Amount)
}

func (e *Encoder) additionalData() (string, error) {
	if e.cfg.Mode != Dynamic {
		return "", nil
	}
	bill, err := BuildTLV(billNumberTag, e.billNumber)
	if err != nil {
		return "", err
	}
	purpose, err := BuildTLV(purposeTag, purposeText)
	if err != nil {
		return "", err
	}
	return BuildTLV(additionalDataTag, bill+purpose)
}
