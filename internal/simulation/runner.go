package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/logging"
	"github.com/nvandessel/psyche/internal/timeline"
)

// Options configures a Runner.
type Options struct {
	// Seed drives the timeline's random choices. The brain keeps its own
	// random state.
	Seed uint64

	// Release drains effectors after every tick, as a consumer reading the
	// output would. Otherwise effector potentials are only observed.
	Release bool

	// FailOnActionError aborts the run when an action fails. Otherwise the
	// error is logged and counted in the frame.
	FailOnActionError bool

	// AfterTick runs after every recorded frame. An error stops the run.
	AfterTick func(b *brain.Brain, f Frame) error

	Logger *slog.Logger
	Trace  *logging.TraceLogger
}

// Frame records one tick.
type Frame struct {
	Step           int64   `json:"step" csv:"step"`
	Actions        int     `json:"actions" csv:"actions"`
	ActionErrors   int     `json:"action_errors" csv:"action_errors"`
	Fired          int     `json:"fired" csv:"fired"`
	ActiveNeurons  int     `json:"active_neurons" csv:"active_neurons"`
	Neurons        int     `json:"neurons" csv:"neurons"`
	Synapses       int     `json:"synapses" csv:"synapses"`
	Pending        int     `json:"pending" csv:"pending"`
	TotalPotential float64 `json:"total_potential" csv:"total_potential"`
	MeanPotential  float64 `json:"mean_potential" csv:"mean_potential"`
	MaxPotential   float64 `json:"max_potential" csv:"max_potential"`
	EffectorOutput float64 `json:"effector_output" csv:"effector_output"`

	// Effectors holds per-effector output in Brain.Effectors order.
	Effectors []float64 `json:"effectors" csv:"-"`
}

// Result is the outcome of a run.
type Result struct {
	Frames []Frame `json:"frames"`

	// Finished is true when a once-mode timeline ran out of actions before
	// the step limit.
	Finished bool `json:"finished"`

	Final brain.ActivityStats `json:"final"`
}

// Runner orchestrates a timeline against one brain.
type Runner struct {
	brain    *brain.Brain
	timeline timeline.Timeline
	rng      *rand.Rand
	opts     Options
	logger   *slog.Logger
	step     int64 // timeline clock, starts at 0 regardless of brain step
}

// NewRunner creates a runner. The timeline clock starts at zero.
func NewRunner(b *brain.Brain, tl timeline.Timeline, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{
		brain:    b,
		timeline: tl,
		rng:      rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x5851f42d4c957f2d)),
		opts:     opts,
		logger:   logger,
	}
}

// Brain returns the brain being driven.
func (r *Runner) Brain() *brain.Brain { return r.brain }

// Run steps the brain up to maxSteps ticks, applying due actions before each
// tick. maxSteps 0 means until a once-mode timeline finishes. The context is
// checked between ticks; a cancelled run returns the frames so far with the
// context's error.
func (r *Runner) Run(ctx context.Context, maxSteps int) (Result, error) {
	if maxSteps < 0 {
		return Result{}, fmt.Errorf("%w: negative step limit %d", brain.ErrRange, maxSteps)
	}
	if maxSteps == 0 && r.timeline.Mode != timeline.ModeOnce {
		return Result{}, fmt.Errorf("%w: %s timeline needs a step limit", brain.ErrRange, r.timeline.Mode)
	}
	if err := r.timeline.Validate(); err != nil {
		return Result{}, err
	}

	var res Result
	effectors := r.brain.Effectors()
	r.logger.Debug("simulation started",
		"mode", r.timeline.Mode, "max_steps", maxSteps,
		"neurons", r.brain.NeuronCount(), "synapses", r.brain.SynapseCount())

	for maxSteps == 0 || len(res.Frames) < maxSteps {
		if err := ctx.Err(); err != nil {
			res.Final = r.brain.Stats()
			return res, err
		}
		actions, ok := r.timeline.Perform(r.step)
		if !ok {
			res.Finished = true
			break
		}

		frame := Frame{Actions: len(actions)}
		for _, a := range actions {
			if err := timeline.Apply(r.brain, a, r.rng); err != nil {
				if r.opts.FailOnActionError {
					res.Final = r.brain.Stats()
					return res, fmt.Errorf("step %d: %s: %w", r.step, a.Type, err)
				}
				frame.ActionErrors++
				r.logger.Warn("timeline action failed", "step", r.step, "type", a.Type, "error", err)
			}
		}

		if err := r.brain.Process(1); err != nil {
			res.Final = r.brain.Stats()
			return res, fmt.Errorf("%w: step %d", err, r.step)
		}

		frame.Effectors = make([]float64, len(effectors))
		for i, id := range effectors {
			var v float64
			if r.opts.Release {
				v, _ = r.brain.EffectorPotentialRelease(id)
			} else {
				v, _ = r.brain.EffectorPotential(id)
			}
			frame.Effectors[i] = v
			frame.EffectorOutput += v
		}

		st := r.brain.Stats()
		frame.Step = st.Step
		frame.Fired = st.FiredLastTick
		frame.ActiveNeurons = st.ActiveNeurons
		frame.Neurons = st.Neurons
		frame.Synapses = st.Synapses
		frame.Pending = st.PendingArrivals
		frame.TotalPotential = st.TotalPotential
		frame.MeanPotential = st.MeanPotential
		frame.MaxPotential = st.MaxPotential
		res.Frames = append(res.Frames, frame)
		if r.opts.AfterTick != nil {
			if err := r.opts.AfterTick(r.brain, frame); err != nil {
				res.Final = r.brain.Stats()
				return res, fmt.Errorf("step %d: %w", frame.Step, err)
			}
		}

		r.opts.Trace.Log(map[string]any{
			"event":           "tick",
			"step":            frame.Step,
			"actions":         frame.Actions,
			"fired":           frame.Fired,
			"pending":         frame.Pending,
			"total_potential": frame.TotalPotential,
			"effector_output": frame.EffectorOutput,
		})
		r.logger.Log(ctx, logging.LevelTrace, "tick", "step", frame.Step, "fired", frame.Fired, "pending", frame.Pending)
		r.step++
	}

	res.Final = r.brain.Stats()
	r.logger.Debug("simulation finished", "frames", len(res.Frames), "finished", res.Finished)
	return res, nil
}
