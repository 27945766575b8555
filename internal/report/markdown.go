package report

import (
	"io"

	"github.com/nao1215/markdown"

	"github.com/zippuff/zippuff/internal/model"
)

// MarkdownWriter outputs results in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs a single result as a Markdown document.
func (w *MarkdownWriter) Write(result *model.LookupResult) (int, error) {
	return w.WriteAll([]*model.LookupResult{result})
}

// WriteAll outputs the batch as a single Markdown table.
func (w *MarkdownWriter) WriteAll(results []*model.LookupResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("USPS Lookup Results")
	md.PlainText("")

	rows := make([][]string, 0, len(results))
	for _, result := range results {
		rows = append(rows, []string{
			result.DisplayCity(),
			result.State,
			"`" + result.ZIPCode + "`",
			string(result.Source),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"City", "State", "ZIP Code", "Source"},
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}
