package brain

import (
	"encoding/base64"
	"fmt"
	"math/rand/v2"
	"reflect"
	"testing"
)

func seeded(seed uint64) *uint64 { return &seed }

func floatPtr(f float64) *float64 { return &f }

// nid returns a fixed, parseable UID string for hand-built brains.
func nid(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

func mustUID(t *testing.T, s string) UID {
	t.Helper()
	id, err := ParseUID(s)
	if err != nil {
		t.Fatalf("ParseUID(%s): %v", s, err)
	}
	return id
}

// smallConfig is a seeded config small enough for exhaustive checks.
func smallConfig() BuilderConfig {
	cfg := DefaultBuilderConfig()
	cfg.Neurons = 60
	cfg.Connections = 150
	cfg.Sensors = 5
	cfg.Effectors = 3
	cfg.Radius = 10
	cfg.MaxNeurogenesisRange = 4
	cfg.NeuronPotentialDecay = 0.9
	cfg.Seed = seeded(42)
	return cfg
}

func mustBuild(t *testing.T, cfg BuilderConfig) *Brain {
	t.Helper()
	b, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return b
}

// handBrain restores a brain with exactly the given neurons and synapses.
func handBrain(t *testing.T, cfg BuilderConfig, neurons []NeuronRecord, synapses []SynapseRecord) *Brain {
	t.Helper()
	state, err := rand.NewPCG(1, 2).MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	b, warnings, err := FromSnapshot(Snapshot{
		Version:  SnapshotVersion,
		RNG:      base64.StdEncoding.EncodeToString(state),
		Config:   cfg,
		Neurons:  neurons,
		Synapses: synapses,
	}, RestoreOptions{Strict: true})
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	return b
}

func neuronRec(n int, x float64, role Role) NeuronRecord {
	return NeuronRecord{ID: nid(n), Position: Position{X: x}, Decay: 1, Role: role.String()}
}

func synapseRec(n, from, to, receptors int, decay float64, delay int64) SynapseRecord {
	return SynapseRecord{
		ID:        nid(1000 + n),
		Source:    nid(from),
		Target:    nid(to),
		Receptors: receptors,
		Decay:     decay,
		Distance:  float64(delay),
		Delay:     delay,
	}
}

func assertSameState(t *testing.T, got, want *Brain) {
	t.Helper()
	if !reflect.DeepEqual(got.Snapshot(), want.Snapshot()) {
		t.Errorf("brain states differ")
	}
}
