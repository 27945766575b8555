// Package report provides output formatting for lookup results.
//
// Three formats are supported: human-readable text for the terminal,
// JSON for tool integration, and Markdown for documentation. All
// writers implement the Writer interface, so command code selects a
// format once and writes results without caring which one is active.
package report
