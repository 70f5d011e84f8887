// Package timeline schedules stimulus actions against a brain's step counter.
package timeline

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/nvandessel/psyche/internal/brain"
	"gopkg.in/yaml.v3"
)

// Mode controls what happens after the last action.
type Mode string

const (
	// ModeOnce ends the run after the step of the last action.
	ModeOnce Mode = "once"
	// ModeLoop replays the actions with a period of last action step + 1.
	ModeLoop Mode = "loop"
	// ModeInfinite keeps stepping with no further actions.
	ModeInfinite Mode = "infinite"
)

// ActionType names what an action does.
type ActionType string

const (
	TriggerSensorByID              ActionType = "trigger_sensor_by_id"
	TriggerSensorByIndex           ActionType = "trigger_sensor_by_index"
	TriggerRandomSensorsByFraction ActionType = "trigger_random_sensors_by_fraction"
	TriggerRandomSensorsByAmount   ActionType = "trigger_random_sensors_by_amount"
	IgniteRandomSynapsesByFraction ActionType = "ignite_random_synapses_by_fraction"
	IgniteRandomSynapsesByAmount   ActionType = "ignite_random_synapses_by_amount"
)

// Range is an inclusive potential range. Min == Max yields exactly Max.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Action is one scheduled stimulus. Which selector field applies depends on Type.
type Action struct {
	Step int64      `json:"step" yaml:"step"`
	Type ActionType `json:"type" yaml:"type"`

	Sensor   string  `json:"sensor,omitempty" yaml:"sensor,omitempty"`     // trigger_sensor_by_id
	Index    int     `json:"index,omitempty" yaml:"index,omitempty"`       // trigger_sensor_by_index
	Fraction float64 `json:"fraction,omitempty" yaml:"fraction,omitempty"` // *_by_fraction, in [0, 1]
	Amount   int     `json:"amount,omitempty" yaml:"amount,omitempty"`     // *_by_amount

	Potential Range `json:"potential" yaml:"potential"`
}

// Timeline is an ordered set of actions plus a playing mode.
type Timeline struct {
	Mode    Mode     `json:"mode" yaml:"mode"`
	Actions []Action `json:"actions" yaml:"actions"`
}

// Default ignites every synapse once with potential 1 at step 0.
func Default() Timeline {
	return Timeline{
		Mode: ModeOnce,
		Actions: []Action{{
			Step:      0,
			Type:      IgniteRandomSynapsesByFraction,
			Fraction:  1,
			Potential: Range{Min: 1, Max: 1},
		}},
	}
}

// Duration is the step of the last action, or -1 without actions.
func (t Timeline) Duration() int64 {
	d := int64(-1)
	for _, a := range t.Actions {
		d = max(d, a.Step)
	}
	return d
}

// Perform returns the actions due at step, in declaration order. ok is false
// once a ModeOnce timeline has finished.
func (t Timeline) Perform(step int64) (actions []Action, ok bool) {
	duration := t.Duration()
	switch t.Mode {
	case ModeLoop:
		if duration < 0 {
			return nil, true
		}
		step %= duration + 1
	case ModeInfinite:
		if step > duration {
			return nil, true
		}
	default:
		if step > duration {
			return nil, false
		}
	}
	for _, a := range t.Actions {
		if a.Step == step {
			actions = append(actions, a)
		}
	}
	return actions, true
}

// Validate checks modes, selectors and ranges.
func (t Timeline) Validate() error {
	if !slices.Contains([]Mode{ModeOnce, ModeLoop, ModeInfinite}, t.Mode) {
		return fmt.Errorf("%w: unknown timeline mode %q", brain.ErrConfig, t.Mode)
	}
	for i, a := range t.Actions {
		if err := a.validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

func (a Action) validate() error {
	if a.Step < 0 {
		return fmt.Errorf("%w: negative step %d", brain.ErrConfig, a.Step)
	}
	r := a.Potential
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) || r.Min > r.Max {
		return fmt.Errorf("%w: potential range [%v, %v]", brain.ErrConfig, r.Min, r.Max)
	}
	switch a.Type {
	case TriggerSensorByID:
		if _, err := brain.ParseUID(a.Sensor); err != nil {
			return fmt.Errorf("%w: sensor id %q", brain.ErrConfig, a.Sensor)
		}
	case TriggerSensorByIndex:
		if a.Index < 0 {
			return fmt.Errorf("%w: negative sensor index %d", brain.ErrConfig, a.Index)
		}
	case TriggerRandomSensorsByFraction, IgniteRandomSynapsesByFraction:
		if !(a.Fraction >= 0 && a.Fraction <= 1) {
			return fmt.Errorf("%w: fraction %v outside [0, 1]", brain.ErrConfig, a.Fraction)
		}
	case TriggerRandomSensorsByAmount, IgniteRandomSynapsesByAmount:
		if a.Amount < 0 {
			return fmt.Errorf("%w: negative amount %d", brain.ErrConfig, a.Amount)
		}
	default:
		return fmt.Errorf("%w: unknown action type %q", brain.ErrConfig, a.Type)
	}
	return nil
}

// Parse reads a timeline from YAML and validates it. Unknown keys are errors.
func Parse(r io.Reader) (Timeline, error) {
	var t Timeline
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return Timeline{}, fmt.Errorf("%w: parsing timeline: %v", brain.ErrConfig, err)
	}
	if t.Mode == "" {
		t.Mode = ModeOnce
	}
	return t, t.Validate()
}

// LoadFile parses the timeline at path.
func LoadFile(path string) (Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Timeline{}, fmt.Errorf("reading timeline: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Encode writes t as a YAML document.
func (t Timeline) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return err
	}
	return enc.Close()
}
