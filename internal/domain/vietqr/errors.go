package vietqr

import (
	"errors"
	"fmt"
)

// ErrLengthOutOfRange is returned when a TLV value is empty or longer than
// a 2-digit length prefix can describe.
var ErrLengthOutOfRange = errors.New("length out of range")

// FieldError names the TLV field whose value could not be encoded.
type FieldError struct {
	Tag    string
	Length int
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("tag %s: value length %d out of range (%d-%d)", e.Tag, e.Length, minValueLength, maxValueLength)
}

func (e *FieldError) Unwrap() error {
	return ErrLengthOutOfRange
}
