package main

import (
	"fmt"

	"github.com/nvandessel/psyche/internal/visualization"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [brain.yaml]",
		Short: "Show activity statistics for a brain",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			b, err := readBrain(cmd, cfg, args, newLogger(cmd, cfg))
			if err != nil {
				return err
			}

			st := b.Stats()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return printJSON(cmd, st)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Brain at step %d\n", st.Step)
			fmt.Fprintf(w, "  Neurons:   %d (%d sensors, %d effectors)\n", st.Neurons, st.Sensors, st.Effectors)
			fmt.Fprintf(w, "  Synapses:  %d\n", st.Synapses)
			fmt.Fprintf(w, "  Active:    %d (fired last tick: %d)\n", st.ActiveNeurons, st.FiredLastTick)
			fmt.Fprintf(w, "  Pending:   %d arrivals carrying %.6g\n", st.PendingArrivals, st.PendingPotential)
			fmt.Fprintf(w, "  Potential: total %.6g, mean %.6g, stddev %.6g, min %.6g, max %.6g\n",
				st.TotalPotential, st.MeanPotential, st.StdDevPotential, st.MinPotential, st.MaxPotential)
			return nil
		},
	}
	addBrainSourceFlags(cmd)
	return cmd
}

func newDotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dot [brain.yaml]",
		Short: "Render a brain as a Graphviz graph",
		Long: `Render a brain in DOT (Graphviz) or as a JSON activity map.

The activity map lists every connection, every impulse in flight with its
progress along the synapse, and the currently active neurons.`,
		Example: `  psyche dot brain.yaml | neato -n -Tsvg > brain.svg
  psyche dot --snapshot baseline --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			b, err := readBrain(cmd, cfg, args, newLogger(cmd, cfg))
			if err != nil {
				return err
			}

			switch visualization.Format(format) {
			case visualization.FormatDOT:
				fmt.Fprint(cmd.OutOrStdout(), visualization.RenderDOT(b))
				return nil
			case visualization.FormatJSON:
				return printJSON(cmd, visualization.BuildActivityMap(b))
			default:
				return fmt.Errorf("unsupported format %q (use 'dot' or 'json')", format)
			}
		},
	}
	addBrainSourceFlags(cmd)
	cmd.Flags().String("format", "dot", "Output format: dot or json")
	return cmd
}
