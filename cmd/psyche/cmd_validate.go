package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/codec"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [brain.yaml]",
		Short: "Validate a brain document for consistency issues",
		Long: `Validate a brain document without loading it.

This command checks for:
  - Dangling references (synapses or arrivals naming missing neurons)
  - Self-loops and duplicate connections
  - Delays below one tick
  - Synapses feeding a sensor or leaving an effector
  - Fewer sensors or effectors than the config asks for

Examples:
  psyche validate brain.yaml
  psyche validate --snapshot baseline --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			name, _ := cmd.Flags().GetString("snapshot")

			var (
				r      io.Reader
				source string
			)
			switch {
			case name != "" && len(args) > 0:
				return fmt.Errorf("use either a brain file or --snapshot, not both")
			case name != "":
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				s, err := openStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer s.Close()
				rec, err := s.Load(cmd.Context(), name)
				if err != nil {
					return err
				}
				r, source = bytes.NewReader(rec.Document), "snapshot "+name
			case len(args) == 1:
				in, closeFn, err := openInput(cmd, args[0])
				if err != nil {
					return err
				}
				defer closeFn()
				r, source = in, args[0]
			default:
				return fmt.Errorf("a brain file or --snapshot is required")
			}

			snap, err := codec.DecodeSnapshot(r, false)
			if err != nil {
				return fmt.Errorf("read %s: %w", source, err)
			}
			issues := snap.Validate()
			if err := outputValidationResults(cmd, source, issues, jsonOut); err != nil {
				return err
			}
			if len(issues) > 0 {
				return fmt.Errorf("%s: %d validation error(s)", source, len(issues))
			}
			return nil
		},
	}

	cmd.Flags().String("snapshot", "", "Validate a stored snapshot instead of a file")

	return cmd
}

// outputValidationResults formats and outputs validation results.
func outputValidationResults(cmd *cobra.Command, source string, issues []brain.ValidationError, jsonOut bool) error {
	valid := len(issues) == 0
	if jsonOut {
		output := map[string]any{
			"source":      source,
			"valid":       valid,
			"error_count": len(issues),
		}
		if !valid {
			output["errors"] = issues
		}
		return printJSON(cmd, output)
	}

	w := cmd.OutOrStdout()
	if valid {
		fmt.Fprintf(w, "✓ %s is valid - no issues found.\n", source)
		return nil
	}
	fmt.Fprintf(w, "✗ Found %d validation error(s) in %s:\n\n", len(issues), source)
	for i, ve := range issues {
		fmt.Fprintf(w, "%d. [%s] %s %s\n", i+1, ve.Issue, ve.Entity, ve.ID)
		if ve.RefID != "" {
			fmt.Fprintf(w, "   References: %s\n", ve.RefID)
		}
	}
	return nil
}
