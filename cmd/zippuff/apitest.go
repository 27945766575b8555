package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zippuff/zippuff/internal/model"
)

// testZIPCode is a well-known ZIP code (Beverly Hills, CA) used to
// verify connectivity and credentials.
const testZIPCode = "90210"

// NewTestCmd creates the test command.
func NewTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test connectivity and credentials against the USPS API",
		Long: `Test connectivity and credentials with a lookup of a known ZIP code.

On success the command prints the round-trip time and the result. On
failure the error distinguishes credential problems from network ones.

Examples:
  zippuff test
  zippuff test --test-mode=false`,
		Args: cobra.NoArgs,
		RunE: runTestCmd,
	}

	addConfigFlags(cmd)

	return cmd
}

// runTestCmd executes the test command.
func runTestCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// The cache would hide connectivity problems, so the probe always
	// goes to the network.
	cfg.CacheEnabled = false

	svc, closeSvc, err := newService(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSvc() //nolint:errcheck // Best effort cleanup

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	st := svc.Status()
	fmt.Fprintf(out, "Testing %s against %s...\n", st.Service, st.BaseURL)

	start := time.Now()
	res, err := svc.CityState(ctx, model.MustNewZIPCode(testZIPCode))
	elapsed := time.Since(start)

	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	fmt.Fprintf(out, "OK: %s -> %s, %s (%s)\n",
		testZIPCode, res.DisplayCity(), res.State, elapsed.Round(time.Millisecond))

	return nil
}
