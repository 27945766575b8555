package model

import (
	"errors"
	"testing"
)

// TestNewStateCode exercises construction and normalization rules.
func TestNewStateCode(t *testing.T) {
	t.Parallel()

	t.Run("valid upper-case abbreviation", func(t *testing.T) {
		t.Parallel()
		s, err := NewStateCode("CA")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.String() != "CA" {
			t.Errorf("expected 'CA', got %q", s.String())
		}
	})

	t.Run("lower case is normalized", func(t *testing.T) {
		t.Parallel()
		s, err := NewStateCode("ny")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.String() != "NY" {
			t.Errorf("expected 'NY', got %q", s.String())
		}
	})

	t.Run("whitespace is trimmed", func(t *testing.T) {
		t.Parallel()
		s, err := NewStateCode(" dc ")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.String() != "DC" {
			t.Errorf("expected 'DC', got %q", s.String())
		}
	})

	t.Run("empty returns ErrEmptyStateCode", func(t *testing.T) {
		t.Parallel()
		_, err := NewStateCode("")
		if !errors.Is(err, ErrEmptyStateCode) {
			t.Errorf("expected ErrEmptyStateCode, got %v", err)
		}
	})

	t.Run("full state name returns ErrInvalidStateCode", func(t *testing.T) {
		t.Parallel()
		_, err := NewStateCode("California")
		if !errors.Is(err, ErrInvalidStateCode) {
			t.Errorf("expected ErrInvalidStateCode, got %v", err)
		}
	})

	t.Run("digits return ErrInvalidStateCode", func(t *testing.T) {
		t.Parallel()
		_, err := NewStateCode("C1")
		if !errors.Is(err, ErrInvalidStateCode) {
			t.Errorf("expected ErrInvalidStateCode, got %v", err)
		}
	})
}

// TestStateCodeZeroValue verifies zero-value behavior.
func TestStateCodeZeroValue(t *testing.T) {
	t.Parallel()

	var s StateCode
	if !s.IsZero() {
		t.Error("expected zero value to report IsZero")
	}
	if !MustNewStateCode("tx").Equals(MustNewStateCode("TX")) {
		t.Error("expected normalized codes to compare equal")
	}
}
