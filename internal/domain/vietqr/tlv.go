package vietqr

import "fmt"

const (
	minValueLength = 1
	maxValueLength = 99
)

// FormatLength returns the 2-digit decimal length prefix for value.
// Lengths are counted in bytes.
func FormatLength(value string) (string, error) {
	n := len(value)
	if n < minValueLength || n > maxValueLength {
		return "", fmt.Errorf("%w: %d not in %d-%d", ErrLengthOutOfRange, n, minValueLength, maxValueLength)
	}
	return fmt.Sprintf("%02d", n), nil
}

// BuildTLV encodes tag + length + value. A value that does not fit the
// length prefix yields a *FieldError wrapping ErrLengthOutOfRange.
func BuildTLV(tag, value string) (string, error) {
	length, err := FormatLength(value)
	if err != nil {
		return "", &FieldError{Tag: tag, Length: len(value)}
	}
	return tag + length + value, nil
}
