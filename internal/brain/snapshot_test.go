package brain

import (
	"errors"
	"testing"
)

func TestSnapshot_RoundTripBehavesIdentically(t *testing.T) {
	cfg := smallConfig()
	cfg.SynapseReconnectionRange = floatPtr(4)
	cfg.SynapseInactivityTime = 5
	original := mustBuild(t, cfg)
	if err := original.IgniteRandomSynapses(40, 0.5, 2); err != nil {
		t.Fatalf("IgniteRandomSynapses: %v", err)
	}
	if err := original.Process(10); err != nil {
		t.Fatalf("Process: %v", err)
	}

	restored, warnings, err := FromSnapshot(original.Snapshot(), RestoreOptions{Strict: true})
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings: %v", warnings)
	}

	sensors := original.Sensors()
	effectors := original.Effectors()
	for tick := range 100 {
		if tick%7 == 0 {
			s := sensors[tick%len(sensors)]
			if err := original.TriggerImpulse(s, 4); err != nil {
				t.Fatalf("TriggerImpulse: %v", err)
			}
			if err := restored.TriggerImpulse(s, 4); err != nil {
				t.Fatalf("TriggerImpulse: %v", err)
			}
		}
		if err := original.Process(1); err != nil {
			t.Fatalf("Process: %v", err)
		}
		if err := restored.Process(1); err != nil {
			t.Fatalf("Process: %v", err)
		}
		for _, e := range effectors {
			want, _ := original.EffectorPotentialRelease(e)
			got, found := restored.EffectorPotentialRelease(e)
			if !found || got != want {
				t.Fatalf("tick %d effector %s: got %v want %v", tick, e, got, want)
			}
		}
	}
}

func TestFromSnapshot_DropInFlight(t *testing.T) {
	b := mustBuild(t, smallConfig())
	if err := b.IgniteRandomSynapses(10, 1, 1); err != nil {
		t.Fatalf("IgniteRandomSynapses: %v", err)
	}
	restored, _, err := FromSnapshot(b.Snapshot(), RestoreOptions{Strict: true, DropInFlight: true})
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if n := len(restored.PendingArrivals()); n != 0 {
		t.Errorf("pending: got %d want 0", n)
	}
	if restored.SynapseCount() != b.SynapseCount() {
		t.Errorf("topology changed")
	}
}

func corrupted(t *testing.T) Snapshot {
	t.Helper()
	b := handBrain(t, DefaultBuilderConfig(),
		[]NeuronRecord{neuronRec(1, 0, RoleSensor), neuronRec(2, 1, RoleInternal), neuronRec(3, 2, RoleEffector)},
		[]SynapseRecord{synapseRec(1, 1, 2, 1, 0, 1), synapseRec(2, 2, 3, 1, 0, 1)},
	)
	s := b.Snapshot()
	s.Neurons[1].Role = "glial"
	s.Neurons[2].Decay = 7
	s.Synapses = append(s.Synapses, SynapseRecord{ID: nid(2001), Source: nid(1), Target: nid(99), Delay: 1})
	s.Synapses[1].Delay = 0
	s.Arrivals = append(s.Arrivals, ArrivalRecord{Due: 0, Target: nid(99), Potential: 1})
	return s
}

func TestFromSnapshot_Strict(t *testing.T) {
	_, _, err := FromSnapshot(corrupted(t), RestoreOptions{Strict: true})
	if !errors.Is(err, ErrParse) {
		t.Errorf("got %v want ErrParse", err)
	}

	s := corrupted(t)
	s.RNG = ""
	if _, _, err := FromSnapshot(s, RestoreOptions{Strict: true}); !errors.Is(err, ErrParse) {
		t.Errorf("missing rng: got %v want ErrParse", err)
	}
}

func TestFromSnapshot_Lenient(t *testing.T) {
	b, warnings, err := FromSnapshot(corrupted(t), RestoreOptions{})
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	// role, decay, dangling synapse, delay, dangling arrival
	if len(warnings) != 5 {
		t.Errorf("warnings: got %d want 5: %v", len(warnings), warnings)
	}
	if b.SynapseCount() != 2 {
		t.Errorf("synapses: got %d want 2", b.SynapseCount())
	}
	n, _ := b.Neuron(mustUID(t, nid(2)))
	if n.Role != RoleInternal {
		t.Errorf("repaired role: got %v want internal", n.Role)
	}
	n, _ = b.Neuron(mustUID(t, nid(3)))
	if n.Decay != 1 {
		t.Errorf("repaired decay: got %v want 1", n.Decay)
	}
	for _, s := range b.Synapses() {
		if s.Delay < 1 {
			t.Errorf("delay not recomputed: %d", s.Delay)
		}
	}
}

func TestFromSnapshot_LenientRepairsConfig(t *testing.T) {
	s := mustBuild(t, smallConfig()).Snapshot()
	s.Config.PropagationSpeed = -1
	b, warnings, err := FromSnapshot(s, RestoreOptions{})
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if len(warnings) != 1 || b.Config().PropagationSpeed != 1 {
		t.Errorf("got speed %v with warnings %v", b.Config().PropagationSpeed, warnings)
	}
	if _, _, err := FromSnapshot(s, RestoreOptions{Strict: true}); !errors.Is(err, ErrParse) {
		t.Errorf("strict: got %v want ErrParse", err)
	}
}

func TestSnapshot_Validate(t *testing.T) {
	if errs := mustBuild(t, smallConfig()).Snapshot().Validate(); len(errs) != 0 {
		t.Errorf("built brain reported issues: %v", errs)
	}

	s := corrupted(t)
	s.Synapses = append(s.Synapses, SynapseRecord{ID: nid(2002), Source: nid(2), Target: nid(2), Delay: 1})
	issues := map[string]int{}
	for _, e := range s.Validate() {
		issues[e.Issue]++
	}
	for _, want := range []string{"dangling", "delay", "self-reference"} {
		if issues[want] == 0 {
			t.Errorf("missing %q issue in %v", want, issues)
		}
	}
}

func TestFromSnapshot_DuplicateSynapseID(t *testing.T) {
	s := mustBuild(t, smallConfig()).Snapshot()
	s.Synapses[1].ID = s.Synapses[0].ID

	if _, _, err := FromSnapshot(s, RestoreOptions{Strict: true}); !errors.Is(err, ErrParse) {
		t.Fatalf("strict: got %v want ErrParse", err)
	}

	b, warnings, err := FromSnapshot(s, RestoreOptions{})
	if err != nil {
		t.Fatalf("lenient: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Entity != "synapse" || warnings[0].Index != 1 {
		t.Errorf("warnings: %v", warnings)
	}
	if got, want := b.SynapseCount(), len(s.Synapses)-1; got != want {
		t.Errorf("synapses: got %d want %d", got, want)
	}
	ids := map[UID]bool{}
	for _, sy := range b.Synapses() {
		if ids[sy.ID] {
			t.Fatalf("synapse id %s restored twice", sy.ID)
		}
		ids[sy.ID] = true
	}
}

func TestSnapshot_ValidateSynapseIDs(t *testing.T) {
	s := mustBuild(t, smallConfig()).Snapshot()
	s.Synapses[1].ID = s.Synapses[0].ID
	s.Synapses[2].ID = "not-a-uid"

	got := map[string]string{}
	for _, e := range s.Validate() {
		if e.Entity == "synapse" {
			got[e.Issue] = e.ID
		}
	}
	if got["duplicate"] != s.Synapses[0].ID {
		t.Errorf("duplicate id not reported: %v", got)
	}
	if got["bad-id"] != "not-a-uid" {
		t.Errorf("bad id not reported: %v", got)
	}
	if len(got) != 2 {
		t.Errorf("unexpected issues: %v", got)
	}
}
