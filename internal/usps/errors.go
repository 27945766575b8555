package usps

import (
	"errors"
	"fmt"
)

// USPS client errors.
// These errors are returned when a lookup cannot be completed.
//
// Design decision: We define specific error types rather than wrapping all
// failures generically. This allows callers to handle different failure
// modes appropriately (e.g., report a 404 as "not found" to the user, but
// a connection failure as a service problem).
var (
	// ErrNoCredentials is returned by the constructors when the required
	// credential (consumer key/secret pair, or legacy USERID) is empty.
	ErrNoCredentials = errors.New("usps: credentials not configured")

	// ErrTokenRequest is returned when the OAuth token exchange fails
	// with both credential placements (Basic auth header and form body).
	ErrTokenRequest = errors.New("usps: oauth token request failed")

	// ErrEmptyCity is returned when a ZIP code lookup is attempted
	// without a city.
	ErrEmptyCity = errors.New("usps: city is required")

	// ErrNotFound is returned when USPS has no record matching the query.
	// A lookup returns at most one result; "no data" is an error, never a
	// zero-value result.
	ErrNotFound = errors.New("usps: no matching record found")

	// ErrRequestTimeout is returned when a request to the USPS API times out.
	ErrRequestTimeout = errors.New("usps: request timed out")

	// ErrConnection is returned when the USPS API cannot be reached.
	ErrConnection = errors.New("usps: failed to connect")
)

// APIError represents an error response returned by the USPS API itself.
// It preserves the upstream status code and the machine-readable code so
// the REST server can map it back onto an appropriate HTTP status.
type APIError struct {
	// StatusCode is the HTTP status returned by USPS.
	StatusCode int

	// Code is the machine-readable error code from the response body,
	// when present (e.g. "040001").
	Code string

	// Message is the human-readable error description.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("usps: api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("usps: api error %d: %s", e.StatusCode, e.Message)
}

// IsClientError reports whether the upstream rejected the request as
// malformed or unauthorized (4xx), as opposed to failing internally.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
