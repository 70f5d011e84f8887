package timeline

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/nvandessel/psyche/internal/brain"
)

func sample() Timeline {
	return Timeline{
		Mode: ModeOnce,
		Actions: []Action{
			{Step: 0, Type: TriggerSensorByIndex, Index: 0, Potential: Range{1, 1}},
			{Step: 2, Type: TriggerRandomSensorsByAmount, Amount: 2, Potential: Range{0.5, 1.5}},
			{Step: 2, Type: IgniteRandomSynapsesByAmount, Amount: 3, Potential: Range{1, 2}},
		},
	}
}

func TestPerform_Once(t *testing.T) {
	tl := sample()
	tests := []struct {
		step  int64
		count int
		ok    bool
	}{
		{0, 1, true},
		{1, 0, true},
		{2, 2, true},
		{3, 0, false},
	}
	for _, tt := range tests {
		actions, ok := tl.Perform(tt.step)
		if ok != tt.ok || len(actions) != tt.count {
			t.Errorf("Perform(%d) = %d actions, %v; want %d, %v", tt.step, len(actions), ok, tt.count, tt.ok)
		}
	}
	if actions, _ := tl.Perform(2); actions[0].Type != TriggerRandomSensorsByAmount {
		t.Errorf("declaration order lost: %v", actions)
	}
}

func TestPerform_Loop(t *testing.T) {
	tl := sample()
	tl.Mode = ModeLoop
	for _, step := range []int64{3, 6, 300} {
		actions, ok := tl.Perform(step)
		if !ok || len(actions) != 1 {
			t.Errorf("Perform(%d) = %d actions, %v; want 1, true", step, len(actions), ok)
		}
	}
	if actions, _ := tl.Perform(5); len(actions) != 2 {
		t.Errorf("Perform(5) = %d actions, want 2", len(actions))
	}
}

func TestPerform_Infinite(t *testing.T) {
	tl := sample()
	tl.Mode = ModeInfinite
	actions, ok := tl.Perform(1000)
	if !ok || len(actions) != 0 {
		t.Errorf("Perform(1000) = %d actions, %v; want 0, true", len(actions), ok)
	}
}

func TestPerform_Empty(t *testing.T) {
	if _, ok := (Timeline{Mode: ModeOnce}).Perform(0); ok {
		t.Error("empty once timeline should be finished")
	}
	if _, ok := (Timeline{Mode: ModeLoop}).Perform(10); !ok {
		t.Error("empty loop timeline should keep running")
	}
}

func TestValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default timeline invalid: %v", err)
	}
	bad := []Action{
		{Type: "explode"},
		{Type: TriggerSensorByID, Sensor: "not-a-uid"},
		{Type: TriggerSensorByIndex, Index: -1},
		{Type: IgniteRandomSynapsesByFraction, Fraction: 1.5},
		{Type: TriggerRandomSensorsByAmount, Amount: -2},
		{Type: IgniteRandomSynapsesByAmount, Potential: Range{2, 1}},
		{Step: -1, Type: IgniteRandomSynapsesByAmount},
	}
	for _, a := range bad {
		tl := Timeline{Mode: ModeOnce, Actions: []Action{a}}
		if err := tl.Validate(); !errors.Is(err, brain.ErrConfig) {
			t.Errorf("%+v: got %v want ErrConfig", a, err)
		}
	}
	if err := (Timeline{Mode: "sometimes"}).Validate(); !errors.Is(err, brain.ErrConfig) {
		t.Errorf("bad mode: got %v want ErrConfig", err)
	}
}

func TestParseEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := sample().Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Mode != ModeOnce || len(got.Actions) != 3 || got.Actions[1].Amount != 2 {
		t.Errorf("round trip lost data: %+v", got)
	}
}

func TestParse_DefaultsModeAndRejectsUnknownKeys(t *testing.T) {
	tl, err := Parse(strings.NewReader("actions:\n  - step: 1\n    type: ignite_random_synapses_by_fraction\n    fraction: 0.5\n    potential: {min: 1, max: 2}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tl.Mode != ModeOnce {
		t.Errorf("mode = %q, want once", tl.Mode)
	}
	if _, err := Parse(strings.NewReader("mode: once\nspeed: 3\n")); !errors.Is(err, brain.ErrConfig) {
		t.Errorf("unknown key: got %v want ErrConfig", err)
	}
}

func testBrain(t *testing.T) *brain.Brain {
	t.Helper()
	seed := uint64(3)
	cfg := brain.DefaultBuilderConfig()
	cfg.Neurons = 40
	cfg.Connections = 80
	cfg.Sensors = 4
	cfg.Effectors = 2
	cfg.MaxNeurogenesisRange = 5
	cfg.Seed = &seed
	b, err := brain.Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return b
}

func TestApply(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))

	t.Run("by index", func(t *testing.T) {
		b := testBrain(t)
		if err := Apply(b, Action{Type: TriggerSensorByIndex, Index: 1, Potential: Range{2, 2}}, rng); err != nil {
			t.Fatal(err)
		}
		if n, _ := b.Neuron(b.Sensors()[1]); n.Potential != 2 {
			t.Errorf("potential = %v, want 2", n.Potential)
		}
		if err := Apply(b, Action{Type: TriggerSensorByIndex, Index: 99}, rng); err != nil {
			t.Errorf("out of range index should be skipped, got %v", err)
		}
	})

	t.Run("by id", func(t *testing.T) {
		b := testBrain(t)
		id := b.Sensors()[2]
		if err := Apply(b, Action{Type: TriggerSensorByID, Sensor: id.String(), Potential: Range{3, 3}}, rng); err != nil {
			t.Fatal(err)
		}
		if n, _ := b.Neuron(id); n.Potential != 3 {
			t.Errorf("potential = %v, want 3", n.Potential)
		}
		unknown := Action{Type: TriggerSensorByID, Sensor: b.Effectors()[0].String(), Potential: Range{1, 1}}
		if err := Apply(b, unknown, rng); !errors.Is(err, brain.ErrNotFound) {
			t.Errorf("effector id: got %v want ErrNotFound", err)
		}
	})

	t.Run("random sensors", func(t *testing.T) {
		b := testBrain(t)
		if err := Apply(b, Action{Type: TriggerRandomSensorsByAmount, Amount: 5, Potential: Range{1, 1}}, rng); err != nil {
			t.Fatal(err)
		}
		if total := b.Stats().TotalPotential; total != 5 {
			t.Errorf("total potential = %v, want 5", total)
		}
	})

	t.Run("ignite", func(t *testing.T) {
		b := testBrain(t)
		if err := Apply(b, Action{Type: IgniteRandomSynapsesByFraction, Fraction: 0.5, Potential: Range{1, 2}}, rng); err != nil {
			t.Fatal(err)
		}
		if n := len(b.PendingArrivals()); n != 40 {
			t.Errorf("pending = %d, want 40", n)
		}
		err := Apply(b, Action{Type: IgniteRandomSynapsesByAmount, Amount: 1000, Potential: Range{1, 2}}, rng)
		if !errors.Is(err, brain.ErrRange) {
			t.Errorf("too many: got %v want ErrRange", err)
		}
	})
}
