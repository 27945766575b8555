package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for zippuff.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zippuff",
		Short: "USPS ZIP code and city/state lookup tool",
		Long: `zippuff looks up USPS address data: ZIP code to city/state,
city/state to ZIP code, and local ZIP code validation.

Lookups use the USPS developer-portal API (OAuth credentials) or the
legacy Web Tools XML API (USERID). Credentials come from environment
variables, a .zippuff configuration file, or command-line flags.

By default zippuff talks to the USPS test environment; set
test_mode: false (or USPS_TEST_MODE=false) for production.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewZipToCityCmd())
	cmd.AddCommand(NewCityToZipCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewTestCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
