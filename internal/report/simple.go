package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/zippuff/zippuff/internal/model"
)

// SimpleWriter outputs human-readable text.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose adds the source and timing lines to each result.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs a single result in human-readable format.
func (w *SimpleWriter) Write(result *model.LookupResult) (int, error) {
	var sb strings.Builder

	w.writeResult(&sb, result)

	return io.WriteString(w.output, sb.String())
}

// WriteAll outputs results one after another, separated by blank lines.
func (w *SimpleWriter) WriteAll(results []*model.LookupResult) (int, error) {
	var sb strings.Builder

	for i, result := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		w.writeResult(&sb, result)
	}

	return io.WriteString(w.output, sb.String())
}

// writeResult appends one formatted result.
func (w *SimpleWriter) writeResult(sb *strings.Builder, result *model.LookupResult) {
	fmt.Fprintf(sb, "City:     %s\n", result.DisplayCity())
	fmt.Fprintf(sb, "State:    %s\n", result.State)
	fmt.Fprintf(sb, "ZIP Code: %s\n", result.ZIPCode)

	if w.verbose {
		fmt.Fprintf(sb, "Source:   %s\n", result.Source)
		if result.Elapsed > 0 {
			fmt.Fprintf(sb, "Elapsed:  %s\n", result.Elapsed)
		}
	}
}
