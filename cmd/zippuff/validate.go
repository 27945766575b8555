package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zippuff/zippuff/internal/model"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <zip> [zip...]",
		Short: "Check whether ZIP codes are well-formed",
		Long: `Check whether ZIP codes are well-formed 5-digit codes.

This is a local format check only; it does not verify that the ZIP code
is actually assigned by USPS and needs no credentials or network access.
A ZIP+4 code passes and is reported with its 5-digit prefix.

The exit status is non-zero when any argument is invalid.

Examples:
  zippuff validate 90210
  zippuff validate 90210-1234 20012 abcde`,
		Args: cobra.MinimumNArgs(1),
		RunE: runValidateCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output results as JSON")

	return cmd
}

// validation is one validate result for JSON output.
type validation struct {
	Input   string `json:"input"`
	Valid   bool   `json:"valid"`
	ZIPCode string `json:"zipcode,omitempty"`
}

// runValidateCmd executes the validate command.
func runValidateCmd(cmd *cobra.Command, args []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	results := make([]validation, 0, len(args))
	invalid := 0
	for _, arg := range args {
		v := validation{Input: arg, Valid: model.ValidZIPCode(arg)}
		if v.Valid {
			v.ZIPCode = model.MustNewZIPCode(arg).String()
		} else {
			invalid++
		}
		results = append(results, v)
	}

	out := cmd.OutOrStdout()

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, v := range results {
			if v.Valid {
				if v.ZIPCode != v.Input {
					fmt.Fprintf(out, "%s: valid (ZIP code %s)\n", v.Input, v.ZIPCode)
				} else {
					fmt.Fprintf(out, "%s: valid\n", v.Input)
				}
			} else {
				fmt.Fprintf(out, "%s: invalid\n", v.Input)
			}
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d ZIP codes invalid", invalid, len(args))
	}
	return nil
}
