package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/nvandessel/psyche/internal/backup"
	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/codec"
	"github.com/nvandessel/psyche/internal/config"
	"github.com/nvandessel/psyche/internal/logging"
	"github.com/nvandessel/psyche/internal/store"
	"github.com/spf13/cobra"
)

// loadConfig resolves --config and --log-level on top of the config file and
// environment.
func loadConfig(cmd *cobra.Command) (*config.PsycheConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.PsycheConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

func openStore(ctx context.Context, cfg *config.PsycheConfig) (store.SnapshotStore, error) {
	s, err := store.NewStore(ctx, cfg.Store.Backend, cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

// addBrainSourceFlags registers the flags readBrain understands.
func addBrainSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("snapshot", "", "Load the brain from the snapshot store instead of a file")
	cmd.Flags().Bool("strict", false, "Reject unknown keys and malformed entries instead of repairing them")
	cmd.Flags().Bool("drop-in-flight", false, "Discard pending arrivals when loading")
}

// readBrain loads the brain named by --snapshot, or the file in args[0]
// ("-" reads stdin, checkpoint archives are recognized by extension). Repairs are logged as warnings.
func readBrain(cmd *cobra.Command, cfg *config.PsycheConfig, args []string, logger *slog.Logger) (*brain.Brain, error) {
	name, _ := cmd.Flags().GetString("snapshot")
	strict, _ := cmd.Flags().GetBool("strict")
	dropInFlight, _ := cmd.Flags().GetBool("drop-in-flight")
	opts := codec.DecodeOptions{Strict: strict, DropInFlight: dropInFlight, Logger: logger}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case name != "" && len(args) > 0:
		return nil, fmt.Errorf("use either a brain file or --snapshot, not both")
	case name != "":
		s, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		b, _, err := store.LoadBrain(ctx, s, name, opts)
		return b, err
	case len(args) == 0:
		return nil, fmt.Errorf("a brain file or --snapshot is required")
	}

	if strings.HasSuffix(args[0], backup.Ext) {
		b, _, err := backup.Read(args[0], opts)
		return b, err
	}
	r, closeFn, err := openInput(cmd, args[0])
	if err != nil {
		return nil, err
	}
	defer closeFn()
	b, _, err := codec.Decode(r, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return b, nil
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open brain file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// writeBrain writes b as YAML to path, or to stdout when path is "" or "-".
func writeBrain(cmd *cobra.Command, b *brain.Brain, path string) error {
	if path == "" || path == "-" {
		return codec.Encode(cmd.OutOrStdout(), b)
	}
	doc, err := codec.Marshal(b)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("write brain file: %w", err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
