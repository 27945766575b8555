package config

import (
	"errors"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected
// default values. This serves as living documentation of the defaults:
// changes to them must be intentional.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default TestMode is true", func(t *testing.T) {
		t.Parallel()
		if !cfg.TestMode {
			t.Error("expected TestMode to default to true")
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default Host is 0.0.0.0", func(t *testing.T) {
		t.Parallel()
		if cfg.Host != "0.0.0.0" {
			t.Errorf("expected Host to be '0.0.0.0', got %q", cfg.Host)
		}
	})

	t.Run("default Port is 8080", func(t *testing.T) {
		t.Parallel()
		if cfg.Port != 8080 {
			t.Errorf("expected Port to be 8080, got %d", cfg.Port)
		}
	})

	t.Run("default cache is disabled", func(t *testing.T) {
		t.Parallel()
		if cfg.CacheEnabled {
			t.Error("expected CacheEnabled to default to false")
		}
	})

	t.Run("default CacheTTL is 24 hours", func(t *testing.T) {
		t.Parallel()
		if cfg.CacheTTL != 24*time.Hour {
			t.Errorf("expected CacheTTL to be 24h, got %v", cfg.CacheTTL)
		}
	})

	t.Run("default Concurrency is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 4 {
			t.Errorf("expected Concurrency to be 4, got %d", cfg.Concurrency)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case targets one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		if err := NewConfig().Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("zero timeout returns ErrInvalidTimeout", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Timeout = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("expected ErrInvalidTimeout, got %v", err)
		}
	})

	t.Run("port zero returns ErrInvalidPort", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Port = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidPort) {
			t.Errorf("expected ErrInvalidPort, got %v", err)
		}
	})

	t.Run("port above 65535 returns ErrInvalidPort", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Port = 70000
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidPort) {
			t.Errorf("expected ErrInvalidPort, got %v", err)
		}
	})

	t.Run("zero concurrency returns ErrInvalidConcurrency", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Concurrency = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConcurrency) {
			t.Errorf("expected ErrInvalidConcurrency, got %v", err)
		}
	})

	t.Run("negative cache TTL returns ErrInvalidCacheTTL", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.CacheTTL = -time.Hour
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidCacheTTL) {
			t.Errorf("expected ErrInvalidCacheTTL, got %v", err)
		}
	})

	t.Run("json and markdown together return ErrConflictingOutputFormats", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.JSONOutput = true
		cfg.MarkdownOutput = true
		if err := cfg.Validate(); !errors.Is(err, ErrConflictingOutputFormats) {
			t.Errorf("expected ErrConflictingOutputFormats, got %v", err)
		}
	})

	t.Run("negative rate limit returns ErrInvalidRateLimit", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.RateLimitRPS = -1
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidRateLimit) {
			t.Errorf("expected ErrInvalidRateLimit, got %v", err)
		}
	})

	t.Run("zero max connections returns ErrInvalidMaxConnections", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.MaxConnections = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidMaxConnections) {
			t.Errorf("expected ErrInvalidMaxConnections, got %v", err)
		}
	})
}

// TestRequireCredentials verifies credential presence checks.
func TestRequireCredentials(t *testing.T) {
	t.Parallel()

	t.Run("no credentials returns ErrMissingCredentials", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		if err := cfg.RequireCredentials(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("oauth pair satisfies", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.ConsumerKey = "key"
		cfg.ConsumerSecret = "secret"
		if err := cfg.RequireCredentials(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if !cfg.HasOAuthCredentials() {
			t.Error("expected HasOAuthCredentials to be true")
		}
	})

	t.Run("key without secret is not enough", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.ConsumerKey = "key"
		if err := cfg.RequireCredentials(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("legacy userid satisfies", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.LegacyUserID = "XXXCOMPANY0"
		if err := cfg.RequireCredentials(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if !cfg.HasLegacyCredentials() {
			t.Error("expected HasLegacyCredentials to be true")
		}
	})
}
