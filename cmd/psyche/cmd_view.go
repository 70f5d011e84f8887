package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/simulation"
	"github.com/nvandessel/psyche/internal/visualization"
	"github.com/spf13/cobra"
)

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [brain.yaml]",
		Short: "Watch a brain run in the browser",
		Long: `Start a local server that shows the brain's activity map live while
a timeline drives it, one tick per --interval.

The brain comes from a file, from --snapshot, or is generated from the
builder config. Besides the page, the server answers /api/activity (JSON),
/api/dot (Graphviz), /api/stats and the /api/stream WebSocket.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)
			addr, _ := cmd.Flags().GetString("addr")
			interval, _ := cmd.Flags().GetDuration("interval")
			noOpen, _ := cmd.Flags().GetBool("no-open")
			seed := cfg.Simulation.Seed
			if cmd.Flags().Changed("seed") {
				seed, _ = cmd.Flags().GetUint64("seed")
			}
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %s", interval)
			}

			b, err := simulationBrain(cmd, cfg, args)
			if err != nil {
				return err
			}
			tl, err := simulationTimeline(cmd, cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			lb := visualization.NewLockedBrain(b)
			runner := simulation.NewRunner(b, tl, simulation.Options{Seed: seed, Logger: logger})
			srv := visualization.NewServer(lb, interval)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe(ctx, addr) }()

			// Wait for server to start
			deadline := time.Now().Add(3 * time.Second)
			for time.Now().Before(deadline) && srv.Addr() == "" {
				time.Sleep(10 * time.Millisecond)
			}
			if srv.Addr() == "" {
				cancel()
				if err := <-errCh; err != nil {
					return err
				}
				return fmt.Errorf("server failed to start")
			}

			url := "http://" + srv.Addr()
			fmt.Fprintf(cmd.OutOrStdout(), "Viewer running at %s\n", url)
			fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")
			if !noOpen {
				if err := visualization.OpenBrowser(url); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
				}
			}

			go func() {
				if err := stepLoop(ctx, lb, runner, interval); err != nil {
					logger.Error("simulation stopped", "error", err)
				}
			}()

			if err := <-errCh; err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	addBrainSourceFlags(cmd)
	cmd.Flags().String("timeline", "", "Timeline YAML file (default: ignite every synapse once)")
	cmd.Flags().Uint64("seed", 0, "Seed for the timeline's random choices")
	cmd.Flags().String("addr", "localhost:0", "Listen address")
	cmd.Flags().Duration("interval", 200*time.Millisecond, "Time between ticks")
	cmd.Flags().Bool("no-open", false, "Don't open the browser")
	return cmd
}

// stepLoop advances the brain one tick per interval until ctx is done. Once
// a once-mode timeline has finished the brain keeps ticking without stimulus.
func stepLoop(ctx context.Context, lb *visualization.LockedBrain, runner *simulation.Runner, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	finished := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		err := lb.With(func(b *brain.Brain) error {
			if finished {
				return b.Process(1)
			}
			res, err := runner.Run(ctx, 1)
			if err != nil {
				return err
			}
			if res.Finished {
				finished = true
				return b.Process(1)
			}
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
