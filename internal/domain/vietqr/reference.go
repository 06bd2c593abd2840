package vietqr

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	billNumberPrefix = "NAPAS"
	billNumberSpace  = 10000
)

// GenerateBillNumber draws a reference of the form NAPAS0000-NAPAS9999 from r.
// Passing crypto/rand.Reader makes it safe for concurrent use.
// Uniqueness is not tracked here.
func GenerateBillNumber(r io.Reader) (string, error) {
	n, err := rand.Int(r, big.NewInt(billNumberSpace))
	if err != nil {
		return "", fmt.Errorf("generate bill number: %w", err)
	}
	return fmt.Sprintf("%s%04d", billNumberPrefix, n.Int64()), nil
}
