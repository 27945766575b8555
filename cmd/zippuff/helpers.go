package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zippuff/zippuff/internal/cache"
	"github.com/zippuff/zippuff/internal/config"
	"github.com/zippuff/zippuff/internal/log"
	"github.com/zippuff/zippuff/internal/report"
	"github.com/zippuff/zippuff/internal/usps"
)

// addConfigFlags registers the flags shared by every command that loads
// configuration.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .zippuff in current or home directory)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each USPS API request")
	cmd.Flags().Bool("test-mode", true,
		"Use the USPS test environment instead of production")
	cmd.Flags().Bool("cache", false,
		"Cache lookup results locally and serve repeats from the cache")
}

// addOutputFlags registers the result formatting flags.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output results as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output results as Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write results to specified file path (creates directories if needed)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig loads the layered configuration (defaults, file,
// environment) and applies command flags on top. Flags only override
// when the user actually set them, so an untouched flag never clobbers
// a config file or environment value.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("timeout") {
		if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("test-mode") {
		if cfg.TestMode, err = cmd.Flags().GetBool("test-mode"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("cache") {
		if cfg.CacheEnabled, err = cmd.Flags().GetBool("cache"); err != nil {
			return nil, err
		}
	}

	if f := cmd.Flags().Lookup("json"); f != nil {
		if cfg.JSONOutput, err = cmd.Flags().GetBool("json"); err != nil {
			return nil, err
		}
	}
	if f := cmd.Flags().Lookup("markdown"); f != nil {
		if cfg.MarkdownOutput, err = cmd.Flags().GetBool("markdown"); err != nil {
			return nil, err
		}
	}
	if f := cmd.Flags().Lookup("output"); f != nil {
		if cfg.OutputFile, err = cmd.Flags().GetString("output"); err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// setupLogger creates a credential-redacting structured logger.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// newService builds the lookup service from the configuration: the v3
// OAuth client when consumer credentials are set, otherwise the legacy
// Web Tools client. When the cache is enabled the service is wrapped
// with read-through caching; the returned closer releases the cache
// database and is a no-op otherwise.
func newService(cfg *config.Config, logger *slog.Logger) (usps.Service, func() error, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, nil, err
	}

	var svc usps.Service
	if cfg.HasOAuthCredentials() {
		client, err := usps.NewClient(cfg.ConsumerKey, cfg.ConsumerSecret,
			usps.WithTestMode(cfg.TestMode),
			usps.WithTimeout(cfg.Timeout),
			usps.WithUserAgent(cfg.UserAgent),
			usps.WithLogger(logger),
			usps.WithRateLimit(config.DefaultClientRateLimitRPS, config.DefaultClientRateLimitRPS),
		)
		if err != nil {
			return nil, nil, err
		}
		svc = client
	} else {
		client, err := usps.NewLegacyClient(cfg.LegacyUserID,
			usps.WithLegacyUserAgent(cfg.UserAgent),
			usps.WithLegacyLogger(logger),
			usps.WithLegacyRateLimit(config.DefaultClientRateLimitRPS, config.DefaultClientRateLimitRPS),
		)
		if err != nil {
			return nil, nil, err
		}
		svc = client
	}

	closer := func() error { return nil }

	if cfg.CacheEnabled {
		opts := cache.DefaultOptions()
		opts.TTL = cfg.CacheTTL
		lc, err := cache.Open(cfg.CacheDir, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open lookup cache: %w", err)
		}
		logger.Debug("lookup cache enabled", "dir", cfg.CacheDir, "ttl", cfg.CacheTTL)
		svc = usps.NewCachedService(svc, lc, logger)
		closer = lc.Close
	}

	return svc, closer, nil
}

// newWriter selects the result writer from the output flags. The
// returned closer flushes the output file when one was requested.
func newWriter(cfg *config.Config) (report.Writer, func() error, error) {
	var output io.Writer = os.Stdout
	closer := func() error { return nil }

	if cfg.OutputFile != "" {
		dir := filepath.Dir(cfg.OutputFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		output = f
		closer = f.Close
	}

	switch {
	case cfg.JSONOutput:
		return report.NewJSONWriter(output, report.WithPrettyPrint()), closer, nil
	case cfg.MarkdownOutput:
		return report.NewMarkdownWriter(output), closer, nil
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose)), closer, nil
	}
}
