package main

import (
	"fmt"

	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/store"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate a new brain",
		Long: `Generate a brain from the builder config and write it as YAML.

Flags override the builder section of the config. Without --out or --save
the document is written to stdout.`,
		Example: `  psyche build --neurons 500 --connections 2000 --seed 1 -o brain.yaml
  psyche build --save baseline --tag experiment-1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			builder := cfg.Builder
			applyBuildOverrides(cmd, &builder)

			b, err := brain.Build(builder)
			if err != nil {
				return fmt.Errorf("build brain: %w", err)
			}

			out, _ := cmd.Flags().GetString("output")
			name, _ := cmd.Flags().GetString("save")
			if out == "" && name == "" {
				return writeBrain(cmd, b, "")
			}
			if out != "" {
				if err := writeBrain(cmd, b, out); err != nil {
					return err
				}
			}
			if name != "" {
				tags, _ := cmd.Flags().GetStringSlice("tag")
				s, err := openStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer s.Close()
				if err := store.SaveBrain(cmd.Context(), s, name, b, tags...); err != nil {
					return fmt.Errorf("save snapshot: %w", err)
				}
			}

			summary := buildSummary{
				Neurons:   b.NeuronCount(),
				Synapses:  b.SynapseCount(),
				Sensors:   len(b.Sensors()),
				Effectors: len(b.Effectors()),
				Output:    out,
				Snapshot:  name,
			}
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return printJSON(cmd, summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Built brain: %d neurons, %d synapses (%d sensors, %d effectors)\n",
				summary.Neurons, summary.Synapses, summary.Sensors, summary.Effectors)
			if out != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  Written to %s\n", out)
			}
			if name != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  Saved as snapshot %q\n", name)
			}
			return nil
		},
	}

	cmd.Flags().Int("neurons", 0, "Number of neurons")
	cmd.Flags().Int("connections", 0, "Number of synapses")
	cmd.Flags().Int("sensors", 0, "Number of sensor neurons")
	cmd.Flags().Int("effectors", 0, "Number of effector neurons")
	cmd.Flags().Float64("radius", 0, "Radius of the sphere neurons are placed in")
	cmd.Flags().Uint64("seed", 0, "Seed for reproducible generation")
	cmd.Flags().StringP("output", "o", "", "Write the brain to this file")
	cmd.Flags().String("save", "", "Save the brain to the snapshot store under this name")
	cmd.Flags().StringSlice("tag", nil, "Tags for the saved snapshot (repeatable)")

	return cmd
}

type buildSummary struct {
	Neurons   int    `json:"neurons"`
	Synapses  int    `json:"synapses"`
	Sensors   int    `json:"sensors"`
	Effectors int    `json:"effectors"`
	Output    string `json:"output,omitempty"`
	Snapshot  string `json:"snapshot,omitempty"`
}

// applyBuildOverrides copies explicitly set flags onto builder.
func applyBuildOverrides(cmd *cobra.Command, builder *brain.BuilderConfig) {
	flags := cmd.Flags()
	if flags.Changed("neurons") {
		builder.Neurons, _ = flags.GetInt("neurons")
	}
	if flags.Changed("connections") {
		builder.Connections, _ = flags.GetInt("connections")
	}
	if flags.Changed("sensors") {
		builder.Sensors, _ = flags.GetInt("sensors")
	}
	if flags.Changed("effectors") {
		builder.Effectors, _ = flags.GetInt("effectors")
	}
	if flags.Changed("radius") {
		builder.Radius, _ = flags.GetFloat64("radius")
	}
	if flags.Changed("seed") {
		seed, _ := flags.GetUint64("seed")
		builder.Seed = &seed
	}
}
