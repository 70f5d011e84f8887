package brain

import (
	"encoding/base64"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// SnapshotVersion is the current snapshot document version.
const SnapshotVersion = 1

// Snapshot is the complete serializable state of a brain. Slices keep
// creation order so a restored brain iterates exactly like the original.
type Snapshot struct {
	Version   int             `json:"version" yaml:"version"`
	Step      int64           `json:"step" yaml:"step"`
	RNG       string          `json:"rng" yaml:"rng"`
	LastFired int             `json:"last_fired" yaml:"last_fired"`
	Config    BuilderConfig   `json:"config" yaml:"config"`
	Neurons   []NeuronRecord  `json:"neurons" yaml:"neurons"`
	Synapses  []SynapseRecord `json:"synapses" yaml:"synapses"`
	Arrivals  []ArrivalRecord `json:"arrivals" yaml:"arrivals"`
}

// Position is a serializable point.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// NeuronRecord is the serialized form of a neuron. Role is "internal",
// "sensor" or "effector".
type NeuronRecord struct {
	ID        string   `json:"id" yaml:"id"`
	Position  Position `json:"position" yaml:"position"`
	Potential float64  `json:"potential" yaml:"potential"`
	Decay     float64  `json:"decay" yaml:"decay"`
	Role      string   `json:"role" yaml:"role"`
}

// SynapseRecord is the serialized form of a synapse. Source and Target are
// neuron IDs.
type SynapseRecord struct {
	ID         string  `json:"id" yaml:"id"`
	Source     string  `json:"source" yaml:"source"`
	Target     string  `json:"target" yaml:"target"`
	Receptors  int     `json:"receptors" yaml:"receptors"`
	Decay      float64 `json:"decay" yaml:"decay"`
	Distance   float64 `json:"distance" yaml:"distance"`
	Delay      int64   `json:"delay" yaml:"delay"`
	Inactivity int64   `json:"inactivity" yaml:"inactivity"`
}

// ArrivalRecord is one in-flight signal, delivered to Target at the start of
// tick Due. Source is empty for stimuli that did not travel a synapse.
type ArrivalRecord struct {
	Due       int64   `json:"due" yaml:"due"`
	Sent      int64   `json:"sent" yaml:"sent"`
	Source    string  `json:"source,omitempty" yaml:"source,omitempty"`
	Target    string  `json:"target" yaml:"target"`
	Potential float64 `json:"potential" yaml:"potential"`
}

// Snapshot captures the brain's full state.
func (b *Brain) Snapshot() Snapshot {
	state, _ := b.src.MarshalBinary()
	s := Snapshot{
		Version:   SnapshotVersion,
		Step:      b.step,
		RNG:       base64.StdEncoding.EncodeToString(state),
		LastFired: b.lastFired,
		Config:    b.config,
		Neurons:   make([]NeuronRecord, len(b.neurons)),
		Synapses:  make([]SynapseRecord, len(b.synapses)),
		Arrivals:  []ArrivalRecord{},
	}
	for i, n := range b.neurons {
		s.Neurons[i] = NeuronRecord{
			ID:        n.id.String(),
			Position:  Position{X: n.pos.X, Y: n.pos.Y, Z: n.pos.Z},
			Potential: n.potential,
			Decay:     n.decay,
			Role:      n.role.String(),
		}
	}
	for i, sy := range b.synapses {
		s.Synapses[i] = SynapseRecord{
			ID:         sy.id.String(),
			Source:     b.neurons[sy.source].id.String(),
			Target:     b.neurons[sy.target].id.String(),
			Receptors:  sy.receptors,
			Decay:      sy.decay,
			Distance:   sy.distance,
			Delay:      sy.delay,
			Inactivity: sy.inactivity,
		}
	}
	for _, a := range b.PendingArrivals() {
		rec := ArrivalRecord{Due: a.Due, Sent: a.Sent, Target: a.Target.String(), Potential: a.Potential}
		if a.Source != uuid.Nil {
			rec.Source = a.Source.String()
		}
		s.Arrivals = append(s.Arrivals, rec)
	}
	return s
}

// RestoreOptions controls FromSnapshot.
type RestoreOptions struct {
	// Strict rejects any malformed entry. Otherwise repairable values are
	// defaulted, the rest dropped, and each change reported as a Warning.
	Strict bool

	// DropInFlight discards pending arrivals.
	DropInFlight bool
}

// FromSnapshot rebuilds a brain. In lenient mode the returned warnings list
// every repair and drop.
func FromSnapshot(s Snapshot, opts RestoreOptions) (*Brain, []Warning, error) {
	r := restorer{strict: opts.Strict}

	if s.Version != SnapshotVersion {
		if err := r.issue("config", -1, fmt.Sprintf("unsupported version %d", s.Version)); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := r.config(s.Config)
	if err != nil {
		return nil, nil, err
	}
	b := newBrain(cfg)
	if err := r.rng(b, s.RNG); err != nil {
		return nil, nil, err
	}
	if s.Step < 0 {
		if err := r.issue("config", -1, fmt.Sprintf("negative step %d reset to 0", s.Step)); err != nil {
			return nil, nil, err
		}
		s.Step = 0
	}
	b.step = s.Step
	b.lastFired = max(0, s.LastFired)

	for i, rec := range s.Neurons {
		if err := r.neuron(b, i, rec); err != nil {
			return nil, nil, err
		}
	}
	for i, rec := range s.Synapses {
		if err := r.synapse(b, i, rec); err != nil {
			return nil, nil, err
		}
	}
	if !opts.DropInFlight {
		for i, rec := range s.Arrivals {
			if err := r.arrival(b, i, rec); err != nil {
				return nil, nil, err
			}
		}
	}
	return b, r.warnings, nil
}

type restorer struct {
	strict     bool
	warnings   []Warning
	synapseIDs map[UID]struct{}
}

// issue records a problem: an error in strict mode, a warning otherwise.
func (r *restorer) issue(entity string, index int, reason string) error {
	if r.strict {
		if index < 0 {
			return fmt.Errorf("%w: %s: %s", ErrParse, entity, reason)
		}
		return fmt.Errorf("%w: %s[%d]: %s", ErrParse, entity, index, reason)
	}
	r.warnings = append(r.warnings, Warning{Entity: entity, Index: index, Reason: reason})
	return nil
}

func (r *restorer) config(c BuilderConfig) (BuilderConfig, error) {
	err := c.validateDynamics()
	if err == nil {
		return c, nil
	}
	if r.strict {
		return c, fmt.Errorf("%w: config: %v", ErrParse, err)
	}
	def := DefaultBuilderConfig()
	fix := func(field string, ok bool, apply func()) {
		if !ok {
			apply()
			r.warnings = append(r.warnings, Warning{Entity: "config", Index: -1, Reason: field + " invalid, using default"})
		}
	}
	fix("radius", c.Radius > 0 && !math.IsInf(c.Radius, 0), func() { c.Radius = def.Radius })
	fix("propagation_speed", c.PropagationSpeed > 0 && !math.IsInf(c.PropagationSpeed, 0), func() { c.PropagationSpeed = def.PropagationSpeed })
	fix("neuron_potential_decay", validNeuronDecay(c.NeuronPotentialDecay), func() { c.NeuronPotentialDecay = def.NeuronPotentialDecay })
	fix("synapse_propagation_decay", validSynapseDecay(c.SynapsePropagationDecay), func() { c.SynapsePropagationDecay = def.SynapsePropagationDecay })
	fix("neurogenesis range", c.MinNeurogenesisRange >= 0 && c.MaxNeurogenesisRange >= c.MinNeurogenesisRange && !math.IsInf(c.MaxNeurogenesisRange, 0), func() {
		c.MinNeurogenesisRange, c.MaxNeurogenesisRange = def.MinNeurogenesisRange, def.MaxNeurogenesisRange
	})
	fix("synapse_reconnection_range", c.SynapseReconnectionRange == nil || (*c.SynapseReconnectionRange > 0 && !math.IsInf(*c.SynapseReconnectionRange, 0)), func() { c.SynapseReconnectionRange = nil })
	fix("default_receptors", c.DefaultReceptors >= 0, func() { c.DefaultReceptors = def.DefaultReceptors })
	fix("synapse_new_connection_receptors", c.SynapseNewConnectionReceptors == nil || *c.SynapseNewConnectionReceptors >= 0, func() { c.SynapseNewConnectionReceptors = nil })
	fix("action_potential_threshold", !math.IsNaN(c.ActionPotentialThreshold) && !math.IsInf(c.ActionPotentialThreshold, 0), func() { c.ActionPotentialThreshold = def.ActionPotentialThreshold })
	fix("max_connecting_tries", c.MaxConnectingTries >= 0, func() { c.MaxConnectingTries = def.MaxConnectingTries })
	fix("synapse_inactivity_time", c.SynapseInactivityTime >= 0, func() { c.SynapseInactivityTime = def.SynapseInactivityTime })
	fix("neurogenesis_interval", c.NeurogenesisInterval >= 0, func() { c.NeurogenesisInterval = 0 })
	fix("neurogenesis sizes", c.NeurogenesisNeurons >= 0 && c.NeurogenesisConnections >= 0, func() {
		c.NeurogenesisNeurons, c.NeurogenesisConnections = def.NeurogenesisNeurons, def.NeurogenesisConnections
	})
	return c, nil
}

func (r *restorer) rng(b *Brain, encoded string) error {
	state, err := base64.StdEncoding.DecodeString(encoded)
	if err == nil && encoded != "" {
		var src rand.PCG
		if err = src.UnmarshalBinary(state); err == nil {
			*b.src = src
			return nil
		}
	}
	if encoded == "" {
		err = fmt.Errorf("missing")
	}
	return r.issue("rng", -1, fmt.Sprintf("random state %v, reseeded", err))
}

func (r *restorer) neuron(b *Brain, i int, rec NeuronRecord) error {
	id, err := ParseUID(rec.ID)
	if err != nil {
		return r.issue("neuron", i, fmt.Sprintf("bad id %q, dropped", rec.ID))
	}
	if _, dup := b.index[id]; dup {
		return r.issue("neuron", i, fmt.Sprintf("duplicate id %s, dropped", id))
	}
	pos := r3.Vec{X: rec.Position.X, Y: rec.Position.Y, Z: rec.Position.Z}
	if !finite(pos.X) || !finite(pos.Y) || !finite(pos.Z) {
		return r.issue("neuron", i, "non-finite position, dropped")
	}
	role, err := ParseRole(rec.Role)
	if err != nil {
		if err := r.issue("neuron", i, fmt.Sprintf("unknown role %q, using internal", rec.Role)); err != nil {
			return err
		}
	}
	decay := rec.Decay
	if !validNeuronDecay(decay) {
		if err := r.issue("neuron", i, fmt.Sprintf("decay %v out of (0, 1], using %v", decay, b.config.NeuronPotentialDecay)); err != nil {
			return err
		}
		decay = b.config.NeuronPotentialDecay
	}
	potential := rec.Potential
	if !finite(potential) {
		if err := r.issue("neuron", i, "non-finite potential, reset to 0"); err != nil {
			return err
		}
		potential = 0
	}
	ni := len(b.neurons)
	b.neurons = append(b.neurons, neuron{id: id, pos: pos, potential: potential, decay: decay, role: role})
	b.outgoing = append(b.outgoing, nil)
	b.index[id] = ni
	return nil
}

func (r *restorer) synapse(b *Brain, i int, rec SynapseRecord) error {
	id, err := ParseUID(rec.ID)
	if err != nil {
		return r.issue("synapse", i, fmt.Sprintf("bad id %q, dropped", rec.ID))
	}
	if _, dup := r.synapseIDs[id]; dup {
		return r.issue("synapse", i, fmt.Sprintf("duplicate id %s, dropped", id))
	}
	from, okFrom := r.lookup(b, rec.Source)
	to, okTo := r.lookup(b, rec.Target)
	if !okFrom || !okTo {
		return r.issue("synapse", i, "dangling endpoint, dropped")
	}
	if from == to {
		return r.issue("synapse", i, "self-loop, dropped")
	}
	if b.neurons[from].role == RoleEffector || b.neurons[to].role == RoleSensor {
		return r.issue("synapse", i, "endpoint role violates direction, dropped")
	}
	if _, dup := b.pairs[pair{from, to}]; dup {
		return r.issue("synapse", i, "duplicate connection, dropped")
	}
	if rec.Receptors < 0 {
		if err := r.issue("synapse", i, "negative receptors, using default"); err != nil {
			return err
		}
		rec.Receptors = b.config.newConnectionReceptors()
	}
	if !validSynapseDecay(rec.Decay) {
		if err := r.issue("synapse", i, fmt.Sprintf("decay %v out of [0, 1), using default", rec.Decay)); err != nil {
			return err
		}
		rec.Decay = b.config.SynapsePropagationDecay
	}
	if !finite(rec.Distance) || rec.Distance < 0 || rec.Delay < 1 {
		if err := r.issue("synapse", i, "bad distance or delay, recomputed"); err != nil {
			return err
		}
		rec.Distance = r3.Norm(r3.Sub(b.neurons[to].pos, b.neurons[from].pos))
		rec.Delay = b.delayFor(rec.Distance)
	}
	if rec.Inactivity < 0 {
		rec.Inactivity = 0
	}
	si := len(b.synapses)
	b.synapses = append(b.synapses, synapse{
		id:         id,
		source:     from,
		target:     to,
		receptors:  rec.Receptors,
		decay:      rec.Decay,
		distance:   rec.Distance,
		delay:      rec.Delay,
		inactivity: rec.Inactivity,
	})
	b.outgoing[from] = append(b.outgoing[from], si)
	b.pairs[pair{from, to}] = struct{}{}
	if r.synapseIDs == nil {
		r.synapseIDs = make(map[UID]struct{})
	}
	r.synapseIDs[id] = struct{}{}
	return nil
}

func (r *restorer) arrival(b *Brain, i int, rec ArrivalRecord) error {
	to, ok := r.lookup(b, rec.Target)
	if !ok {
		return r.issue("arrival", i, "dangling target, dropped")
	}
	if !finite(rec.Potential) {
		return r.issue("arrival", i, "non-finite potential, dropped")
	}
	if rec.Due < b.step {
		return r.issue("arrival", i, fmt.Sprintf("due step %d already passed, dropped", rec.Due))
	}
	from := -1
	if rec.Source != "" {
		if from, ok = r.lookup(b, rec.Source); !ok {
			if err := r.issue("arrival", i, "dangling source, cleared"); err != nil {
				return err
			}
			from = -1
		}
	}
	sent := rec.Sent
	if sent > rec.Due {
		if err := r.issue("arrival", i, fmt.Sprintf("sent step %d after due step %d, clamped", sent, rec.Due)); err != nil {
			return err
		}
		sent = rec.Due
	}
	b.schedule(rec.Due, arrival{source: from, target: to, sent: sent, potential: rec.Potential})
	return nil
}

func (r *restorer) lookup(b *Brain, s string) (int, bool) {
	id, err := ParseUID(s)
	if err != nil {
		return 0, false
	}
	i, ok := b.index[id]
	return i, ok
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
