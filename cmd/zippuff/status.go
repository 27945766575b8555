package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zippuff/zippuff/internal/cache"
	"github.com/zippuff/zippuff/internal/config"
	"github.com/zippuff/zippuff/internal/usps"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the resolved configuration and client state",
		Long: `Show which API client the current configuration selects, which
environment it targets, and the state of the lookup cache.

No lookups are performed and no credentials are printed.

Examples:
  zippuff status
  zippuff status --json`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	addConfigFlags(cmd)
	cmd.Flags().BoolP("json", "j", false, "Output status as JSON")

	return cmd
}

// statusReport is the full status output.
type statusReport struct {
	Client     *usps.Status `json:"client,omitempty"`
	ConfigFile string       `json:"configFile,omitempty"`
	TestMode   bool         `json:"testMode"`
	Timeout    string       `json:"timeout"`
	Cache      *cache.Stats `json:"cache,omitempty"`
	Version    string       `json:"version"`
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)

	rep := statusReport{
		ConfigFile: config.FindConfigFile(cfg.ConfigFilePath),
		TestMode:   cfg.TestMode,
		Timeout:    cfg.Timeout.String(),
		Version:    getVersion(),
	}

	// Status is offline: build the client for its snapshot but skip the
	// cache wrapper so no database is created as a side effect.
	if cfg.HasOAuthCredentials() || cfg.HasLegacyCredentials() {
		offline := statusConfig(cfg)
		svc, closeSvc, err := newService(&offline, logger)
		if err != nil {
			return err
		}
		defer closeSvc() //nolint:errcheck // Best effort cleanup

		st := svc.Status()
		rep.Client = &st
	}

	if cfg.CacheEnabled {
		opts := cache.DefaultOptions()
		opts.CreateIfNotExists = false
		opts.TTL = cfg.CacheTTL

		lc, err := cache.Open(cfg.CacheDir, opts)
		if err == nil {
			defer lc.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			if stats, err := lc.Stats(ctx); err == nil {
				rep.Cache = &stats
			}
		}
	}

	out := cmd.OutOrStdout()

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	if rep.Client != nil {
		fmt.Fprintf(out, "Client:      %s\n", rep.Client.Service)
		fmt.Fprintf(out, "Endpoint:    %s\n", rep.Client.BaseURL)
		fmt.Fprintf(out, "OAuth:       %t\n", rep.Client.OAuthConfigured)
	} else {
		fmt.Fprintln(out, "Client:      not configured (no credentials)")
	}
	fmt.Fprintf(out, "Test mode:   %t\n", rep.TestMode)
	fmt.Fprintf(out, "Timeout:     %s\n", rep.Timeout)
	if rep.ConfigFile != "" {
		fmt.Fprintf(out, "Config file: %s\n", rep.ConfigFile)
	} else {
		fmt.Fprintln(out, "Config file: none (defaults and environment only)")
	}
	if rep.Cache != nil {
		fmt.Fprintf(out, "Cache:       %d entries (%d fresh) at %s\n",
			rep.Cache.Entries, rep.Cache.Fresh, rep.Cache.Path)
	} else if cfg.CacheEnabled {
		fmt.Fprintln(out, "Cache:       enabled, no database yet")
	} else {
		fmt.Fprintln(out, "Cache:       disabled")
	}
	fmt.Fprintf(out, "Version:     %s\n", rep.Version)

	return nil
}

// statusConfig copies cfg with the cache disabled.
func statusConfig(cfg *config.Config) config.Config {
	c := *cfg
	c.CacheEnabled = false
	return c
}
