package model

import (
	"errors"
	"strings"
)

// ZIPCode errors.
var (
	// ErrEmptyZIPCode is returned when the ZIP code is empty.
	ErrEmptyZIPCode = errors.New("zip code cannot be empty")
	// ErrInvalidZIPCode is returned when the ZIP code is not exactly five digits.
	ErrInvalidZIPCode = errors.New("zip code must be exactly 5 digits")
)

// zipCodeLength is the length of a standard 5-digit ZIP code.
const zipCodeLength = 5

// ZIPCode is an immutable value object representing a 5-digit USPS ZIP code.
// The USPS city-state API only accepts the 5-digit form, so ZIP+4 input
// is accepted and truncated to its 5-digit prefix during construction.
type ZIPCode struct {
	code string
}

// NewZIPCode creates a new ZIPCode from a string.
// Leading and trailing whitespace is trimmed, and a ZIP+4 suffix
// ("90210-1234") is dropped. Returns an error if the remaining value
// is not exactly five ASCII digits.
func NewZIPCode(code string) (ZIPCode, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ZIPCode{}, ErrEmptyZIPCode
	}

	// Accept ZIP+4 input but keep only the 5-digit prefix.
	if idx := strings.IndexByte(trimmed, '-'); idx != -1 {
		trimmed = trimmed[:idx]
	}

	if len(trimmed) != zipCodeLength || !isDigits(trimmed) {
		return ZIPCode{}, ErrInvalidZIPCode
	}

	return ZIPCode{code: trimmed}, nil
}

// MustNewZIPCode creates a new ZIPCode or panics if invalid.
// Use only for known-valid codes in tests or initialization.
func MustNewZIPCode(code string) ZIPCode {
	z, err := NewZIPCode(code)
	if err != nil {
		panic(err)
	}
	return z
}

// ValidZIPCode reports whether the string is a well-formed 5-digit ZIP code.
// This is the offline check used by the "validate" CLI command and the
// /api/validate-zip endpoint; it does not confirm the ZIP code exists.
func ValidZIPCode(code string) bool {
	_, err := NewZIPCode(code)
	return err == nil
}

// isDigits reports whether s contains only ASCII digits.
func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// String returns the 5-digit ZIP code.
func (z ZIPCode) String() string {
	return z.code
}

// IsZero returns true if this is a zero value (empty) ZIPCode.
func (z ZIPCode) IsZero() bool {
	return z.code == ""
}

// Equals returns true if two ZIPCode values are equal.
func (z ZIPCode) Equals(other ZIPCode) bool {
	return z.code == other.code
}
