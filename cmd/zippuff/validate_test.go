package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// TestRunValidateCmd tests the validate command execution.
func TestRunValidateCmd(t *testing.T) {
	t.Parallel()

	t.Run("valid zip", func(t *testing.T) {
		t.Parallel()

		cmd := NewValidateCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"90210"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "90210: valid") {
			t.Errorf("unexpected output: %s", out.String())
		}
	})

	t.Run("zip+4 reports the 5-digit prefix", func(t *testing.T) {
		t.Parallel()

		cmd := NewValidateCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"90210-1234"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "valid (ZIP code 90210)") {
			t.Errorf("unexpected output: %s", out.String())
		}
	})

	t.Run("invalid zip fails", func(t *testing.T) {
		t.Parallel()

		cmd := NewValidateCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"abcde"})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for invalid ZIP code")
		}
		if !strings.Contains(out.String(), "abcde: invalid") {
			t.Errorf("unexpected output: %s", out.String())
		}
	})

	t.Run("mixed arguments still print every result", func(t *testing.T) {
		t.Parallel()

		cmd := NewValidateCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"90210", "nope", "20012"})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error when any ZIP code is invalid")
		}
		for _, want := range []string{"90210: valid", "nope: invalid", "20012: valid"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out.String())
			}
		}
	})

	t.Run("json output", func(t *testing.T) {
		t.Parallel()

		cmd := NewValidateCmd()
		// The root command sets SilenceUsage; mirror that here so the
		// usage text is not appended to the captured JSON output.
		cmd.SilenceUsage = true
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--json", "90210", "bad"})

		// Non-zero exit for "bad", but the JSON must still be complete.
		_ = cmd.Execute()

		var results []validation
		if err := json.Unmarshal(out.Bytes(), &results); err != nil {
			t.Fatalf("output is not valid JSON: %v\n%s", err, out.String())
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if !results[0].Valid || results[0].ZIPCode != "90210" {
			t.Errorf("unexpected first result %+v", results[0])
		}
		if results[1].Valid {
			t.Errorf("expected second result invalid, got %+v", results[1])
		}
	})

	t.Run("no arguments is an error", func(t *testing.T) {
		t.Parallel()

		cmd := NewValidateCmd()
		cmd.SetArgs([]string{})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for missing arguments")
		}
	})
}
