package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zippuff/zippuff/internal/config"
	"github.com/zippuff/zippuff/internal/model"
	"github.com/zippuff/zippuff/internal/usps"
)

// NewZipToCityCmd creates the zip-to-city command.
func NewZipToCityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zip-to-city <zip> [zip...]",
		Short: "Look up the city and state for one or more ZIP codes",
		Long: `Look up the city and state for ZIP codes using the USPS API.

ZIP codes must be 5 digits; a ZIP+4 code is accepted and truncated to
its first five digits. Multiple ZIP codes are looked up concurrently.

Examples:
  # Look up a single ZIP code
  zippuff zip-to-city 90210

  # Look up several at once
  zippuff zip-to-city 90210 20012 10001

  # JSON output, written to a file
  zippuff zip-to-city --json -o results.json 90210 20012`,
		Args: cobra.MinimumNArgs(1),
		RunE: runZipToCityCmd,
	}

	addConfigFlags(cmd)
	addOutputFlags(cmd)

	return cmd
}

// runZipToCityCmd executes the zip-to-city command.
func runZipToCityCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Reject bad ZIP codes before any network traffic.
	zips := make([]model.ZIPCode, 0, len(args))
	for _, arg := range args {
		zip, err := model.NewZIPCode(arg)
		if err != nil {
			return fmt.Errorf("invalid ZIP code %q: %w", arg, err)
		}
		zips = append(zips, zip)
	}

	svc, closeSvc, err := newService(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSvc() //nolint:errcheck // Best effort cleanup

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, lookupErr := lookupZips(ctx, svc, zips, cfg.Concurrency, logger)

	if len(results) > 0 {
		writer, closeOut, err := newWriter(cfg)
		if err != nil {
			return err
		}
		defer closeOut() //nolint:errcheck // Best effort cleanup

		if len(results) == 1 {
			if _, err := writer.Write(results[0]); err != nil {
				return err
			}
		} else if _, err := writer.WriteAll(results); err != nil {
			return err
		}
	}

	return lookupErr
}

// lookupZips resolves the given ZIP codes with bounded concurrency and
// returns the successful results in input order. Failed lookups are
// reported on stderr; the returned error is non-nil when any failed.
func lookupZips(ctx context.Context, svc usps.Service, zips []model.ZIPCode, concurrency int, logger *slog.Logger) ([]*model.LookupResult, error) {
	if concurrency <= 0 {
		concurrency = config.DefaultConcurrency
	}

	results := make([]*model.LookupResult, len(zips))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var failed atomic.Bool
	for i, zip := range zips {
		g.Go(func() error {
			res, err := svc.CityState(ctx, zip)
			if err != nil {
				// Context errors abort the whole batch; lookup errors
				// only fail their own slot.
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				logger.Error("lookup failed", "zip", zip, "error", err)
				fmt.Fprintf(os.Stderr, "Lookup failed for %s: %v\n", zip, err)
				failed.Store(true)
				return nil
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ordered := make([]*model.LookupResult, 0, len(results))
	for _, res := range results {
		if res != nil {
			ordered = append(ordered, res)
		}
	}

	if failed.Load() {
		return ordered, fmt.Errorf("%d of %d lookups failed", len(zips)-len(ordered), len(zips))
	}
	return ordered, nil
}
