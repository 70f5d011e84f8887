package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/nvandessel/psyche/internal/backup"
	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/config"
	"github.com/nvandessel/psyche/internal/logging"
	"github.com/nvandessel/psyche/internal/simulation"
	"github.com/nvandessel/psyche/internal/timeline"
	"github.com/spf13/cobra"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate [brain.yaml]",
		Short: "Run a stimulus timeline against a brain",
		Long: `Drive a brain through a timeline and report what happened tick by tick.

The brain comes from a file, from --snapshot, or is generated from the
builder config when neither is given. With --runs N the brain is cloned N
times and each clone runs with its own timeline seed (seed, seed+1, ...).

At debug or trace log level every tick is also appended to
~/.psyche/trace.jsonl.`,
		Example: `  psyche simulate brain.yaml --timeline stimulus.yaml --steps 500 --csv > frames.csv
  psyche simulate --snapshot baseline --runs 8 --workers 4 --frames-dir out/`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			b, err := simulationBrain(cmd, cfg, args)
			if err != nil {
				return err
			}
			tl, err := simulationTimeline(cmd, cfg)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			steps := cfg.Simulation.Steps
			if flags.Changed("steps") {
				steps, _ = flags.GetInt("steps")
			}
			seed := cfg.Simulation.Seed
			if flags.Changed("seed") {
				seed, _ = flags.GetUint64("seed")
			}
			workers := cfg.Simulation.Workers
			if flags.Changed("workers") {
				workers, _ = flags.GetInt("workers")
			}
			runs, _ := flags.GetInt("runs")
			release, _ := flags.GetBool("release")
			failFast, _ := flags.GetBool("fail-on-action-error")
			csvOut, _ := flags.GetBool("csv")
			framesDir, _ := flags.GetString("frames-dir")
			saveBrain, _ := flags.GetString("save-brain")
			jsonOut, _ := flags.GetBool("json")

			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1, got %d", runs)
			}
			if runs > 1 && (csvOut || saveBrain != "") {
				return fmt.Errorf("--csv and --save-brain need a single run")
			}

			trace := logging.NewTraceLogger(cfg.TraceDir(), cfg.Logging.Level)
			defer trace.Close()

			policy, err := retentionPolicy(cmd, "checkpoint-")
			if err != nil {
				return err
			}
			checkpointDir, _ := flags.GetString("checkpoint-dir")
			checkpointEvery, _ := flags.GetInt64("checkpoint-every")
			if checkpointEvery > 0 && checkpointDir == "" {
				return fmt.Errorf("--checkpoint-every needs --checkpoint-dir")
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			jobs := make([]simulation.Job, runs)
			for i := range jobs {
				jb := b
				if runs > 1 {
					jb = b.Clone()
				}
				var checkpoints *backup.Checkpointer
				if checkpointEvery > 0 {
					dir := checkpointDir
					if runs > 1 {
						dir = filepath.Join(checkpointDir, fmt.Sprintf("run-%03d", i))
					}
					checkpoints = &backup.Checkpointer{
						Dir:      dir,
						Every:    checkpointEvery,
						Policy:   policy,
						Metadata: map[string]string{"run": strconv.Itoa(i), "seed": strconv.FormatUint(seed+uint64(i), 10)},
					}
				}
				jobs[i] = simulation.Job{
					Name:     fmt.Sprintf("run-%03d", i),
					Brain:    jb,
					Timeline: tl,
					Steps:    steps,
					Options: simulation.Options{
						Seed:              seed + uint64(i),
						Release:           release,
						FailOnActionError: failFast,
						Logger:            logger.With("run", i),
						Trace:             trace,
						AfterTick: func(b *brain.Brain, _ simulation.Frame) error {
							_, err := checkpoints.Checkpoint(b)
							return err
						},
					},
				}
			}

			results, err := simulation.RunBatch(ctx, jobs, workers)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return fmt.Errorf("simulation interrupted")
				}
				return err
			}

			if framesDir != "" {
				if err := writeFrames(framesDir, results); err != nil {
					return err
				}
			}
			if saveBrain != "" {
				if err := writeBrain(cmd, jobs[0].Brain, saveBrain); err != nil {
					return err
				}
			}

			if csvOut {
				return simulation.WriteCSV(cmd.OutOrStdout(), results[0].Result.Frames)
			}
			summaries := make([]runSummary, len(results))
			for i, r := range results {
				summaries[i] = summarize(r)
			}
			if jsonOut {
				if runs == 1 {
					return printJSON(cmd, summaries[0])
				}
				return printJSON(cmd, summaries)
			}
			printRunSummaries(cmd.OutOrStdout(), summaries)
			return nil
		},
	}

	addBrainSourceFlags(cmd)
	cmd.Flags().String("timeline", "", "Timeline YAML file (default: ignite every synapse once)")
	cmd.Flags().Int("steps", 0, "Maximum ticks to run; 0 runs a once-mode timeline to its end")
	cmd.Flags().Uint64("seed", 0, "Seed for the timeline's random choices")
	cmd.Flags().Bool("release", false, "Drain effectors after every tick")
	cmd.Flags().Bool("fail-on-action-error", false, "Abort when a timeline action fails")
	cmd.Flags().Int("runs", 1, "Number of independent runs on clones of the brain")
	cmd.Flags().Int("workers", 0, "Maximum runs in parallel")
	cmd.Flags().Bool("csv", false, "Write per-tick frames as CSV to stdout")
	cmd.Flags().String("frames-dir", "", "Write frames.csv per run under this directory")
	cmd.Flags().String("save-brain", "", "Write the brain after the run to this file")
	cmd.Flags().String("checkpoint-dir", "", "Archive the brain into this directory while running")
	cmd.Flags().Int64("checkpoint-every", 0, "Ticks between checkpoints; 0 disables checkpointing")
	addRetentionFlags(cmd, "checkpoint-")

	return cmd
}

// simulationBrain reads the brain from a file or snapshot, or builds one from
// the config when neither is named.
func simulationBrain(cmd *cobra.Command, cfg *config.PsycheConfig, args []string) (*brain.Brain, error) {
	if name, _ := cmd.Flags().GetString("snapshot"); name == "" && len(args) == 0 {
		b, err := brain.Build(cfg.Builder)
		if err != nil {
			return nil, fmt.Errorf("build brain: %w", err)
		}
		return b, nil
	}
	return readBrain(cmd, cfg, args, newLogger(cmd, cfg))
}

func simulationTimeline(cmd *cobra.Command, cfg *config.PsycheConfig) (timeline.Timeline, error) {
	path, _ := cmd.Flags().GetString("timeline")
	if path == "" {
		path = cfg.Simulation.Timeline
	}
	if path == "" {
		return timeline.Default(), nil
	}
	tl, err := timeline.LoadFile(path)
	if err != nil {
		return timeline.Timeline{}, fmt.Errorf("load timeline: %w", err)
	}
	return tl, nil
}

// writeFrames writes dir/frames.csv for a single run and dir/<run>/frames.csv
// for a batch.
func writeFrames(dir string, results []simulation.BatchResult) error {
	for _, r := range results {
		target := dir
		if len(results) > 1 {
			target = filepath.Join(dir, r.Name)
		}
		fw, err := simulation.NewFrameWriter(target)
		if err != nil {
			return err
		}
		if err := fw.Write(r.Result.Frames); err != nil {
			fw.Close()
			return err
		}
		if err := fw.Close(); err != nil {
			return fmt.Errorf("close frames: %w", err)
		}
	}
	return nil
}

type runSummary struct {
	Name           string              `json:"name"`
	Steps          int                 `json:"steps"`
	Finished       bool                `json:"finished"`
	ActionErrors   int                 `json:"action_errors"`
	PeakFired      int                 `json:"peak_fired"`
	EffectorOutput float64             `json:"effector_output"`
	Final          brain.ActivityStats `json:"final"`
}

func summarize(r simulation.BatchResult) runSummary {
	s := runSummary{
		Name:     r.Name,
		Steps:    len(r.Result.Frames),
		Finished: r.Result.Finished,
		Final:    r.Result.Final,
	}
	for _, f := range r.Result.Frames {
		s.ActionErrors += f.ActionErrors
		s.PeakFired = max(s.PeakFired, f.Fired)
		s.EffectorOutput += f.EffectorOutput
	}
	return s
}

func printRunSummaries(w io.Writer, summaries []runSummary) {
	for _, s := range summaries {
		state := "stopped at step limit"
		if s.Finished {
			state = "timeline finished"
		}
		fmt.Fprintf(w, "%s: %d steps (%s)\n", s.Name, s.Steps, state)
		fmt.Fprintf(w, "  Peak fired:      %d\n", s.PeakFired)
		fmt.Fprintf(w, "  Effector output: %.6g\n", s.EffectorOutput)
		fmt.Fprintf(w, "  Active neurons:  %d/%d\n", s.Final.ActiveNeurons, s.Final.Neurons)
		fmt.Fprintf(w, "  Pending:         %d\n", s.Final.PendingArrivals)
		if s.ActionErrors > 0 {
			fmt.Fprintf(w, "  Action errors:   %d\n", s.ActionErrors)
		}
	}
}
