package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".zippuff"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File mirrors the YAML configuration file layout. All fields are
// pointers (or strings parsed later) so that absent keys do not clobber
// defaults or environment values.
type File struct {
	USPS   USPSSection   `yaml:"usps"`
	Server ServerSection `yaml:"server"`
	Cache  CacheSection  `yaml:"cache"`
}

// USPSSection holds USPS API settings from the config file.
type USPSSection struct {
	ConsumerKey    *string `yaml:"consumer_key"`
	ConsumerSecret *string `yaml:"consumer_secret"`
	UserID         *string `yaml:"userid"`
	TestMode       *bool   `yaml:"test_mode"`
	Timeout        *string `yaml:"timeout"`
	UserAgent      *string `yaml:"user_agent"`
}

// ServerSection holds REST server settings from the config file.
type ServerSection struct {
	Host                *string  `yaml:"host"`
	Port                *int     `yaml:"port"`
	Debug               *bool    `yaml:"debug"`
	RateLimitRPS        *float64 `yaml:"rate_limit_rps"`
	RateLimitBurst      *int     `yaml:"rate_limit_burst"`
	MaxConnections      *int     `yaml:"max_connections"`
	ShutdownGracePeriod *string  `yaml:"shutdown_grace_period"`
}

// CacheSection holds lookup-cache settings from the config file.
type CacheSection struct {
	Enabled *bool   `yaml:"enabled"`
	Dir     *string `yaml:"dir"`
	TTL     *string `yaml:"ttl"`
}

// Load builds a Config by layering defaults, the configuration file, and
// environment variables (in increasing precedence). CLI flags are applied
// on top by the caller.
//
// If path is non-empty and the file does not exist, Load fails: an
// explicitly requested config file that is missing is a user error.
// A missing discovered file is not.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	cfg.ConfigFilePath = path

	found := FindConfigFile(path)
	if found == "" && path != "" {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}

	if found != "" {
		file, err := LoadFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		if err := file.apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", found, err)
		}
		cfg.ConfigFilePath = found
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile loads the configuration from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	return &f, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. If configPath is specified, use it directly
//  2. .zippuff in the current directory
//  3. config.yaml in the XDG config directory
//  4. .zippuff in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if
// not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	xdgCandidate := filepath.Join(XDGConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgCandidate); err == nil {
		return xdgCandidate
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// apply copies the file's values onto cfg. Only keys present in the file
// are applied.
func (f *File) apply(cfg *Config) error {
	if f.USPS.ConsumerKey != nil {
		cfg.ConsumerKey = *f.USPS.ConsumerKey
	}
	if f.USPS.ConsumerSecret != nil {
		cfg.ConsumerSecret = *f.USPS.ConsumerSecret
	}
	if f.USPS.UserID != nil {
		cfg.LegacyUserID = *f.USPS.UserID
	}
	if f.USPS.TestMode != nil {
		cfg.TestMode = *f.USPS.TestMode
	}
	if f.USPS.Timeout != nil {
		d, err := time.ParseDuration(*f.USPS.Timeout)
		if err != nil {
			return fmt.Errorf("usps.timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if f.USPS.UserAgent != nil {
		cfg.UserAgent = *f.USPS.UserAgent
	}

	if f.Server.Host != nil {
		cfg.Host = *f.Server.Host
	}
	if f.Server.Port != nil {
		cfg.Port = *f.Server.Port
	}
	if f.Server.Debug != nil {
		cfg.Debug = *f.Server.Debug
	}
	if f.Server.RateLimitRPS != nil {
		cfg.RateLimitRPS = *f.Server.RateLimitRPS
	}
	if f.Server.RateLimitBurst != nil {
		cfg.RateLimitBurst = *f.Server.RateLimitBurst
	}
	if f.Server.MaxConnections != nil {
		cfg.MaxConnections = *f.Server.MaxConnections
	}
	if f.Server.ShutdownGracePeriod != nil {
		d, err := time.ParseDuration(*f.Server.ShutdownGracePeriod)
		if err != nil {
			return fmt.Errorf("server.shutdown_grace_period: %w", err)
		}
		cfg.ShutdownGracePeriod = d
	}

	if f.Cache.Enabled != nil {
		cfg.CacheEnabled = *f.Cache.Enabled
	}
	if f.Cache.Dir != nil {
		cfg.CacheDir = *f.Cache.Dir
	}
	if f.Cache.TTL != nil {
		d, err := time.ParseDuration(*f.Cache.TTL)
		if err != nil {
			return fmt.Errorf("cache.ttl: %w", err)
		}
		cfg.CacheTTL = d
	}

	return nil
}

// Environment variable names. These match the names the deployment
// scripts have always exported.
const (
	EnvConsumerKey    = "USPS_CONSUMER_KEY"
	EnvConsumerSecret = "USPS_CONSUMER_SECRET"
	EnvLegacyUserID   = "USPS_USERID"
	EnvTestMode       = "USPS_TEST_MODE"
	EnvHost           = "APP_HOST"
	EnvPort           = "APP_PORT"
	EnvAPIPort        = "API_PORT"
	EnvDebug          = "APP_DEBUG"
)

// applyEnv overrides cfg with environment variables. Environment values
// take precedence over the config file so that credentials never need to
// be written to disk.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvConsumerKey); v != "" {
		cfg.ConsumerKey = v
	}
	if v := os.Getenv(EnvConsumerSecret); v != "" {
		cfg.ConsumerSecret = v
	}
	if v := os.Getenv(EnvLegacyUserID); v != "" {
		cfg.LegacyUserID = v
	}
	if v := os.Getenv(EnvTestMode); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTestMode, err)
		}
		cfg.TestMode = b
	}
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		cfg.Port = p
	}
	// API_PORT wins over APP_PORT; deployments that run the web frontend
	// and the API side by side use it to separate the two listeners.
	if v := os.Getenv(EnvAPIPort); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAPIPort, err)
		}
		cfg.Port = p
	}
	if v := os.Getenv(EnvDebug); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebug, err)
		}
		cfg.Debug = b
	}

	return nil
}
