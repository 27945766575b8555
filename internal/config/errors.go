package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and Config.RequireCredentials()
// and provide specific information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances at each call site. This allows callers to
// use errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrMissingCredentials is returned when neither OAuth credentials
	// (consumer key and secret) nor a legacy Web Tools USERID is configured.
	// Set USPS_CONSUMER_KEY and USPS_CONSUMER_SECRET, or add them to the
	// configuration file.
	ErrMissingCredentials = errors.New("USPS credentials not configured: set USPS_CONSUMER_KEY and USPS_CONSUMER_SECRET")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	// A zero or negative timeout would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidPort is returned when the server port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrInvalidConcurrency is returned when the lookup concurrency is not
	// positive. Zero concurrency would mean no lookups run at all.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidCacheTTL is returned when the cache TTL is negative.
	// Use 0 to keep cached entries forever.
	ErrInvalidCacheTTL = errors.New("invalid cache TTL: must be non-negative")

	// ErrConflictingOutputFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingOutputFormats = errors.New("conflicting output formats: --json and --markdown cannot be used together")

	// ErrInvalidRateLimit is returned when a rate limit or burst is negative.
	// Use 0 to disable rate limiting.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidMaxConnections is returned when the connection cap is not positive.
	ErrInvalidMaxConnections = errors.New("invalid max connections: must be positive")
)
