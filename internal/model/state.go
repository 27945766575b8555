package model

import (
	"errors"
	"strings"
)

// StateCode errors.
var (
	// ErrEmptyStateCode is returned when the state abbreviation is empty.
	ErrEmptyStateCode = errors.New("state cannot be empty")
	// ErrInvalidStateCode is returned when the state is not a two-letter abbreviation.
	ErrInvalidStateCode = errors.New("state must be a 2-letter abbreviation")
)

// stateCodeLength is the length of a USPS state abbreviation.
const stateCodeLength = 2

// StateCode is an immutable value object representing a two-letter USPS
// state or territory abbreviation, normalized to upper case.
//
// We validate shape only (two ASCII letters) rather than checking against
// a list of known abbreviations: USPS occasionally adds territory and
// military codes, and the API itself rejects unknown values with a clear
// error. Shape validation catches the common mistakes (full state names,
// swapped arguments) before any network call.
type StateCode struct {
	code string
}

// NewStateCode creates a new StateCode from a string.
// The value is trimmed and upper-cased. Returns an error if the result
// is not exactly two ASCII letters.
func NewStateCode(code string) (StateCode, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return StateCode{}, ErrEmptyStateCode
	}

	upper := strings.ToUpper(trimmed)
	if len(upper) != stateCodeLength || !isLetters(upper) {
		return StateCode{}, ErrInvalidStateCode
	}

	return StateCode{code: upper}, nil
}

// MustNewStateCode creates a new StateCode or panics if invalid.
// Use only for known-valid codes in tests or initialization.
func MustNewStateCode(code string) StateCode {
	s, err := NewStateCode(code)
	if err != nil {
		panic(err)
	}
	return s
}

// isLetters reports whether s contains only ASCII upper-case letters.
func isLetters(s string) bool {
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// String returns the upper-case two-letter abbreviation.
func (s StateCode) String() string {
	return s.code
}

// IsZero returns true if this is a zero value (empty) StateCode.
func (s StateCode) IsZero() bool {
	return s.code == ""
}

// Equals returns true if two StateCode values are equal.
func (s StateCode) Equals(other StateCode) bool {
	return s.code == other.code
}
