package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "psyche",
		Short: "Psyche - spiking neural tissue simulator",
		Long: `psyche builds spatially embedded spiking neural networks, drives them
with stimulus timelines, and reads out their effectors.

Brains are plain YAML documents. They can be kept as files, stored by name
in a snapshot store, or served to agents over MCP.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.psyche/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: error, warn, info, debug, trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newTemplateCmd(),
		newBuildCmd(),
		newSimulateCmd(),
		newStatsCmd(),
		newDotCmd(),
		newValidateCmd(),
		newSnapshotCmd(),
		newCheckpointCmd(),
		newServeCmd(),
		newViewCmd(),
	)
	return rootCmd
}
