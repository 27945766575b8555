// Package log provides structured logging with automatic credential
// redaction. All zippuff components log through a slog handler that
// masks USPS consumer keys, consumer secrets, and OAuth tokens before
// they can reach any log sink.
package log
