package brain

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestTriggerImpulse_Errors(t *testing.T) {
	b := mustBuild(t, smallConfig())
	internal := UID{}
	for _, n := range b.Neurons() {
		if n.Role == RoleInternal {
			internal = n.ID
			break
		}
	}

	tests := []struct {
		name   string
		id     UID
		amount float64
		want   error
	}{
		{"unknown", uuid.New(), 1, ErrNotFound},
		{"internal", internal, 1, ErrNotFound},
		{"effector", b.Effectors()[0], 1, ErrNotFound},
		{"nan", b.Sensors()[0], math.NaN(), ErrRange},
		{"inf", b.Sensors()[0], math.Inf(-1), ErrRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := b.TriggerImpulse(tt.id, tt.amount); !errors.Is(err, tt.want) {
				t.Errorf("got %v want %v", err, tt.want)
			}
		})
	}
}

func TestTriggerImpulse_Accumulates(t *testing.T) {
	b := mustBuild(t, smallConfig())
	s := b.Sensors()[0]
	for range 3 {
		if err := b.TriggerImpulse(s, 1.5); err != nil {
			t.Fatalf("TriggerImpulse: %v", err)
		}
	}
	if n, _ := b.Neuron(s); n.Potential != 4.5 {
		t.Errorf("potential: got %v want 4.5", n.Potential)
	}
}

func TestEffectorRelease_UnknownOrWrongRole(t *testing.T) {
	b := mustBuild(t, smallConfig())
	if _, found := b.EffectorPotentialRelease(uuid.New()); found {
		t.Error("unknown UID reported found")
	}
	if _, found := b.EffectorPotentialRelease(b.Sensors()[0]); found {
		t.Error("sensor UID reported found")
	}
	if p, found := b.EffectorPotentialRelease(b.Effectors()[0]); !found || p != 0 {
		t.Errorf("fresh effector: got %v %v want 0 true", p, found)
	}
}

func TestSensorsAndEffectors_StableOrder(t *testing.T) {
	b := mustBuild(t, smallConfig())
	first, second := b.Sensors(), b.Sensors()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sensor order changed at %d", i)
		}
	}
	if err := b.Process(5); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i, id := range b.Effectors() {
		if id != b.Effectors()[i] {
			t.Fatalf("effector order changed at %d", i)
		}
	}
}

func TestStats(t *testing.T) {
	b := handBrain(t, DefaultBuilderConfig(),
		[]NeuronRecord{
			neuronRec(1, 0, RoleSensor),
			neuronRec(2, 1, RoleInternal),
			neuronRec(3, 2, RoleEffector),
		},
		[]SynapseRecord{synapseRec(1, 1, 2, 1, 0, 1), synapseRec(2, 2, 3, 1, 0, 1)},
	)
	if err := b.TriggerImpulse(mustUID(t, nid(1)), 3); err != nil {
		t.Fatalf("TriggerImpulse: %v", err)
	}
	st := b.Stats()
	if st.Neurons != 3 || st.Synapses != 2 || st.Sensors != 1 || st.Effectors != 1 {
		t.Errorf("counts: %+v", st)
	}
	if st.ActiveNeurons != 1 || st.TotalPotential != 3 || st.MaxPotential != 3 || st.MinPotential != 0 {
		t.Errorf("potentials: %+v", st)
	}
	if st.MeanPotential != 1 {
		t.Errorf("mean: got %v want 1", st.MeanPotential)
	}

	if err := b.Process(1); err != nil {
		t.Fatalf("Process: %v", err)
	}
	st = b.Stats()
	if st.FiredLastTick != 1 || st.PendingArrivals != 1 || st.PendingPotential != 1.5 {
		t.Errorf("after tick: %+v", st)
	}
}
