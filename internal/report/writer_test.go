package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/zippuff/zippuff/internal/model"
)

func sampleResult() *model.LookupResult {
	return &model.LookupResult{
		Query:     "zip:20012",
		ZIPCode:   "20012",
		City:      "WASHINGTON",
		State:     "DC",
		Source:    model.SourceAPI,
		QueriedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Elapsed:   120 * time.Millisecond,
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("single result", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		n, err := w.Write(sampleResult())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		out := buf.String()
		for _, want := range []string{"City:     Washington", "State:    DC", "ZIP Code: 20012"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
		if strings.Contains(out, "Source:") {
			t.Error("source line should only appear in verbose mode")
		}
	})

	t.Run("verbose adds source and elapsed", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(sampleResult()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "Source:   api") {
			t.Errorf("expected source line, got:\n%s", out)
		}
		if !strings.Contains(out, "Elapsed:") {
			t.Errorf("expected elapsed line, got:\n%s", out)
		}
	})

	t.Run("batch separates results with blank lines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.WriteAll([]*model.LookupResult{sampleResult(), sampleResult()}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := strings.Count(buf.String(), "ZIP Code: 20012"); got != 2 {
			t.Errorf("expected 2 results, found %d", got)
		}
		if !strings.Contains(buf.String(), "\n\n") {
			t.Error("expected a blank line between results")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("single result is a JSON object", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(sampleResult()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got["city"] != "WASHINGTON" {
			t.Errorf("expected city 'WASHINGTON', got %v", got["city"])
		}
		if got["zipcode"] != "20012" {
			t.Errorf("expected zipcode '20012', got %v", got["zipcode"])
		}
	})

	t.Run("batch is a JSON array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.WriteAll([]*model.LookupResult{sampleResult(), sampleResult()}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var got []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 elements, got %d", len(got))
		}
	})

	t.Run("empty batch is an empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.WriteAll(nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := strings.TrimSpace(buf.String()); got != "[]" {
			t.Errorf("expected '[]', got %q", got)
		}
	})

	t.Run("pretty print indents output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(sampleResult()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewMarkdownWriter(&buf)

	if _, err := w.Write(sampleResult()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "# USPS Lookup Results") {
		t.Errorf("expected H1 header, got:\n%s", out)
	}
	if !strings.Contains(out, "Washington") {
		t.Errorf("expected city in table, got:\n%s", out)
	}
	if !strings.Contains(out, "`20012`") {
		t.Errorf("expected ZIP code in table, got:\n%s", out)
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, jsonBuf bytes.Buffer
	w := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&jsonBuf))

	n, err := w.Write(sampleResult())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != text.Len()+jsonBuf.Len() {
		t.Errorf("reported %d bytes, wrote %d", n, text.Len()+jsonBuf.Len())
	}
	if text.Len() == 0 || jsonBuf.Len() == 0 {
		t.Error("expected both writers to receive output")
	}
}
