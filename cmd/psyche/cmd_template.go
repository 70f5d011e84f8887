package main

import (
	"fmt"

	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/timeline"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template <builder|timeline>",
		Short: "Print a default builder config or timeline as YAML",
		Long: `Print a starting point to edit.

  builder   the default brain generation parameters (the "builder" section
            of config.yaml)
  timeline  the default stimulus timeline (ignite every synapse once)`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"builder", "timeline"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "builder":
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(brain.DefaultBuilderConfig()); err != nil {
					return fmt.Errorf("encode builder config: %w", err)
				}
				return enc.Close()
			case "timeline":
				return timeline.Default().Encode(w)
			default:
				return fmt.Errorf("unknown template %q (use 'builder' or 'timeline')", args[0])
			}
		},
	}
}
