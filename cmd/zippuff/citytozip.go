package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zippuff/zippuff/internal/model"
	"github.com/zippuff/zippuff/internal/usps"
)

// NewCityToZipCmd creates the city-to-zip command.
func NewCityToZipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "city-to-zip <city> <state>",
		Short: "Look up the ZIP code for a city and state",
		Long: `Look up the ZIP code for a city and state using the USPS API.

The state is a two-letter abbreviation (case-insensitive). A city can
span many ZIP codes; USPS returns its primary one. Add --street to get
the exact ZIP code for a delivery address.

Examples:
  # Look up the primary ZIP code for a city
  zippuff city-to-zip "Beverly Hills" CA

  # Exact ZIP code for a street address
  zippuff city-to-zip Washington DC --street "1600 Pennsylvania Ave NW"

  # Markdown output
  zippuff city-to-zip --markdown Denver CO`,
		Args: cobra.ExactArgs(2),
		RunE: runCityToZipCmd,
	}

	addConfigFlags(cmd)
	addOutputFlags(cmd)

	cmd.Flags().String("street", "",
		"Street address to narrow the lookup to a delivery point")
	cmd.Flags().String("secondary", "",
		"Unit designator such as a suite or apartment (requires --street)")
	cmd.Flags().String("zip", "",
		"ZIP code hint; USPS corrects it if it does not match")

	return cmd
}

// runCityToZipCmd executes the city-to-zip command.
func runCityToZipCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	state, err := model.NewStateCode(args[1])
	if err != nil {
		return fmt.Errorf("invalid state %q: %w", args[1], err)
	}

	query := usps.AddressQuery{City: args[0], State: state}

	if query.StreetAddress, err = cmd.Flags().GetString("street"); err != nil {
		return err
	}
	if query.SecondaryAddress, err = cmd.Flags().GetString("secondary"); err != nil {
		return err
	}
	zipHint, err := cmd.Flags().GetString("zip")
	if err != nil {
		return err
	}
	if zipHint != "" {
		if query.ZIPCode, err = model.NewZIPCode(zipHint); err != nil {
			return fmt.Errorf("invalid ZIP code %q: %w", zipHint, err)
		}
	}

	svc, closeSvc, err := newService(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSvc() //nolint:errcheck // Best effort cleanup

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := svc.ZIPCode(ctx, query)
	if err != nil {
		return err
	}

	writer, closeOut, err := newWriter(cfg)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck // Best effort cleanup

	_, err = writer.Write(res)
	return err
}
