package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These match the behavior of the USPS consumer-app onboarding flow and
// the defaults the REST API shipped with historically.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "zippuff"

	// DefaultTimeout is the per-request timeout for USPS API calls.
	// The USPS API normally answers in well under a second; 30 seconds
	// leaves room for token exchange on a cold start plus a slow upstream.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies zippuff in HTTP requests to USPS.
	// A descriptive User-Agent lets USPS attribute traffic to the
	// registered consumer application.
	DefaultUserAgent = "zippuff/2.0 (+https://github.com/zippuff/zippuff)"

	// DefaultHost is the listen address for the REST server.
	// 0.0.0.0 because the server is normally fronted by a reverse proxy.
	DefaultHost = "0.0.0.0"

	// DefaultPort is the listen port for the REST server.
	DefaultPort = 8080

	// DefaultConcurrency is the number of concurrent lookups when the CLI
	// is given multiple ZIP codes. USPS rate-limits consumer apps, so this
	// stays modest; the client-side limiter provides the hard ceiling.
	DefaultConcurrency = 4

	// DefaultRateLimitRPS is the request rate allowed by the REST server.
	DefaultRateLimitRPS = 25

	// DefaultRateLimitBurst is the burst capacity of the server limiter.
	DefaultRateLimitBurst = 50

	// DefaultClientRateLimitRPS caps outbound calls to the USPS API.
	// USPS enforces per-app quotas; staying under 10 req/s avoids 429s
	// on the shared test environment.
	DefaultClientRateLimitRPS = 10

	// DefaultMaxConnections caps concurrent connections accepted by the
	// REST server listener.
	DefaultMaxConnections = 256

	// DefaultShutdownGracePeriod is how long in-flight requests get to
	// finish during graceful shutdown.
	DefaultShutdownGracePeriod = 10 * time.Second

	// DefaultCacheTTL is how long cached lookup results stay valid.
	// ZIP ⇄ city/state assignments change rarely; a day is conservative.
	DefaultCacheTTL = 24 * time.Hour
)

// Config holds all configuration options for zippuff.
// It is populated in layers (defaults, config file, environment, CLI
// flags) and passed through the application via dependency injection
// rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ServerConfig, CacheConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit. The YAML file format is nested for readability; the loader
// flattens it into this struct.
type Config struct {
	// ConsumerKey is the OAuth client ID issued by the USPS developer portal.
	ConsumerKey string

	// ConsumerSecret is the OAuth client secret paired with ConsumerKey.
	ConsumerSecret string

	// LegacyUserID is the Web Tools USERID for the legacy XML API.
	// Only used when no OAuth credentials are configured.
	LegacyUserID string

	// TestMode selects the USPS test environment (apis-tem.usps.com)
	// instead of production. Defaults to true so that a fresh install
	// never hits the production quota by accident.
	TestMode bool

	// Timeout is the per-request timeout for USPS API calls, including
	// the OAuth token exchange.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with USPS API requests.
	UserAgent string

	// Host is the listen address for the REST server.
	Host string

	// Port is the listen port for the REST server.
	Port int

	// Debug enables debug-level logging on the REST server.
	Debug bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// RateLimitRPS is the request rate allowed by the REST server.
	// Zero disables server-side rate limiting.
	RateLimitRPS float64

	// RateLimitBurst is the burst capacity of the server limiter.
	RateLimitBurst int

	// MaxConnections caps concurrent connections on the server listener.
	MaxConnections int

	// ShutdownGracePeriod bounds graceful shutdown of the REST server.
	ShutdownGracePeriod time.Duration

	// CacheEnabled turns on the local SQLite lookup cache.
	// Off by default: each lookup is an independent, stateless request
	// unless the operator opts in.
	CacheEnabled bool

	// CacheDir is the directory holding the cache database.
	// Defaults to the XDG data directory.
	CacheDir string

	// CacheTTL is how long cached lookup results stay valid.
	// Zero keeps entries forever.
	CacheTTL time.Duration

	// ConfigFilePath is the path to the configuration file.
	// If empty, the loader searches .zippuff in the current directory,
	// the XDG config directory, and the user's home directory.
	ConfigFilePath string

	// Concurrency is the number of concurrent lookups for batch CLI use.
	Concurrency int

	// JSONOutput selects JSON output for CLI lookup results.
	// Mutually exclusive with MarkdownOutput.
	JSONOutput bool

	// MarkdownOutput selects Markdown output for CLI lookup results.
	// Mutually exclusive with JSONOutput.
	MarkdownOutput bool

	// OutputFile is where CLI results are written. Empty means stdout.
	OutputFile string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (timeout, port, rate
// limits). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		TestMode:            true,
		Timeout:             DefaultTimeout,
		UserAgent:           DefaultUserAgent,
		Host:                DefaultHost,
		Port:                DefaultPort,
		RateLimitRPS:        DefaultRateLimitRPS,
		RateLimitBurst:      DefaultRateLimitBurst,
		MaxConnections:      DefaultMaxConnections,
		ShutdownGracePeriod: DefaultShutdownGracePeriod,
		CacheDir:            XDGDataDir(),
		CacheTTL:            DefaultCacheTTL,
		Concurrency:         DefaultConcurrency,
	}
}

// XDGDataDir returns the XDG data directory for zippuff.
// On Linux: ~/.local/share/zippuff
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for zippuff.
// On Linux: ~/.config/zippuff
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// HasOAuthCredentials reports whether both OAuth credentials are set.
func (c *Config) HasOAuthCredentials() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != ""
}

// HasLegacyCredentials reports whether a legacy Web Tools USERID is set.
func (c *Config) HasLegacyCredentials() bool {
	return c.LegacyUserID != ""
}

// RequireCredentials returns ErrMissingCredentials when no usable
// credentials are configured. Called by commands that reach the network;
// offline commands (validate, init, version) never call it.
func (c *Config) RequireCredentials() error {
	if !c.HasOAuthCredentials() && !c.HasLegacyCredentials() {
		return ErrMissingCredentials
	}
	return nil
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after flag parsing, before any work begins.
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.CacheTTL < 0 {
		return ErrInvalidCacheTTL
	}

	if c.JSONOutput && c.MarkdownOutput {
		return ErrConflictingOutputFormats
	}

	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return ErrInvalidRateLimit
	}

	if c.MaxConnections <= 0 {
		return ErrInvalidMaxConnections
	}

	return nil
}
