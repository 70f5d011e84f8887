package brain

import (
	"maps"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Brain owns neurons, synapses, the step counter and the in-flight arrival
// queue, plus the random source every stochastic choice draws from.
type Brain struct {
	config BuilderConfig
	step   int64

	neurons []neuron
	index   map[UID]int

	synapses []synapse
	outgoing [][]int // synapse indices per source neuron
	pairs    map[pair]struct{}

	// pending arrivals keyed by due step, in insertion order
	pending map[int64][]arrival

	lastFired int
	spiked    []bool // neurons that fired during the latest tick
	scratch   []float64

	src *rand.PCG
	rng *rand.Rand
}

func newBrain(cfg BuilderConfig) *Brain {
	var seed uint64
	if cfg.Seed != nil {
		seed = *cfg.Seed
	} else {
		seed = rand.Uint64()
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Brain{
		config:  cfg,
		index:   make(map[UID]int),
		pairs:   make(map[pair]struct{}),
		pending: make(map[int64][]arrival),
		src:     src,
		rng:     rand.New(src),
	}
}

// Clone returns an independent deep copy, random state included. The copy
// evolves exactly like the original under the same calls.
func (b *Brain) Clone() *Brain {
	src := *b.src
	c := &Brain{
		config:    b.config,
		step:      b.step,
		neurons:   slices.Clone(b.neurons),
		index:     maps.Clone(b.index),
		synapses:  slices.Clone(b.synapses),
		outgoing:  make([][]int, len(b.outgoing)),
		pairs:     maps.Clone(b.pairs),
		pending:   make(map[int64][]arrival, len(b.pending)),
		lastFired: b.lastFired,
		spiked:    slices.Clone(b.spiked),
		src:       &src,
	}
	c.rng = rand.New(c.src)
	for i, out := range b.outgoing {
		c.outgoing[i] = slices.Clone(out)
	}
	for due, q := range b.pending {
		c.pending[due] = slices.Clone(q)
	}
	return c
}

// firedLastTick reports whether neuron i fired during the latest tick.
func (b *Brain) firedLastTick(i int) bool {
	return i < len(b.spiked) && b.spiked[i]
}

// restore rolls b back to a checkpoint taken with Clone.
func (b *Brain) restore(cp *Brain) { *b = *cp }

// Config returns the configuration the brain was built or restored with.
func (b *Brain) Config() BuilderConfig { return b.config }

// Step returns the number of ticks processed so far.
func (b *Brain) Step() int64 { return b.step }

// NeuronCount returns the number of neurons.
func (b *Brain) NeuronCount() int { return len(b.neurons) }

// SynapseCount returns the number of synapses.
func (b *Brain) SynapseCount() int { return len(b.synapses) }

// FiredLastTick returns how many neurons fired during the most recent tick.
func (b *Brain) FiredLastTick() int { return b.lastFired }

// Sensors returns sensor UIDs in creation order.
func (b *Brain) Sensors() []UID { return b.withRole(RoleSensor) }

// Effectors returns effector UIDs in creation order.
func (b *Brain) Effectors() []UID { return b.withRole(RoleEffector) }

func (b *Brain) withRole(role Role) []UID {
	ids := []UID{}
	for i := range b.neurons {
		if b.neurons[i].role == role {
			ids = append(ids, b.neurons[i].id)
		}
	}
	return ids
}

// Neuron returns a copy of the neuron with the given UID.
func (b *Brain) Neuron(id UID) (Neuron, bool) {
	i, ok := b.index[id]
	if !ok {
		return Neuron{}, false
	}
	return b.exportNeuron(i), true
}

// Neurons returns copies of all neurons in creation order.
func (b *Brain) Neurons() []Neuron {
	out := make([]Neuron, len(b.neurons))
	for i := range b.neurons {
		out[i] = b.exportNeuron(i)
	}
	return out
}

// Synapses returns copies of all synapses in creation order.
func (b *Brain) Synapses() []Synapse {
	out := make([]Synapse, len(b.synapses))
	for i := range b.synapses {
		out[i] = b.exportSynapse(i)
	}
	return out
}

// PendingArrivals returns the in-flight queue ordered by due step, preserving
// insertion order within a step.
func (b *Brain) PendingArrivals() []Arrival {
	dues := slices.Sorted(maps.Keys(b.pending))
	var out []Arrival
	for _, due := range dues {
		for _, a := range b.pending[due] {
			out = append(out, b.exportArrival(due, a))
		}
	}
	return out
}

func (b *Brain) exportArrival(due int64, a arrival) Arrival {
	out := Arrival{Due: due, Sent: a.sent, Target: b.neurons[a.target].id, Potential: a.potential}
	if a.source >= 0 {
		out.Source = b.neurons[a.source].id
	}
	return out
}

func (b *Brain) exportNeuron(i int) Neuron {
	n := &b.neurons[i]
	return Neuron{ID: n.id, Position: n.pos, Potential: n.potential, Decay: n.decay, Role: n.role}
}

func (b *Brain) exportSynapse(i int) Synapse {
	s := &b.synapses[i]
	return Synapse{
		ID:         s.id,
		Source:     b.neurons[s.source].id,
		Target:     b.neurons[s.target].id,
		Receptors:  s.receptors,
		Decay:      s.decay,
		Distance:   s.distance,
		Delay:      s.delay,
		Inactivity: s.inactivity,
	}
}

// newUID draws a version 4 UUID from the brain's random source so that a
// seeded build is reproducible down to identifiers.
func (b *Brain) newUID() UID {
	for {
		id, err := uuid.NewRandomFromReader(rngReader{b.rng})
		if err == nil {
			if _, taken := b.index[id]; !taken {
				return id
			}
		}
	}
}

type rngReader struct{ r *rand.Rand }

func (x rngReader) Read(p []byte) (int, error) {
	for i := 0; i < len(p); i += 8 {
		v := x.r.Uint64()
		for j := 0; j < 8 && i+j < len(p); j++ {
			p[i+j] = byte(v >> (8 * j))
		}
	}
	return len(p), nil
}

func (b *Brain) addNeuron(pos r3.Vec, role Role, decay float64) int {
	i := len(b.neurons)
	id := b.newUID()
	b.neurons = append(b.neurons, neuron{id: id, pos: pos, decay: decay, role: role})
	b.outgoing = append(b.outgoing, nil)
	b.index[id] = i
	return i
}

// canConnect reports whether a new synapse from -> to respects the role,
// self-loop, duplicate and loop constraints.
func (b *Brain) canConnect(from, to int) bool {
	if from == to {
		return false
	}
	if b.neurons[from].role == RoleEffector || b.neurons[to].role == RoleSensor {
		return false
	}
	if _, dup := b.pairs[pair{from, to}]; dup {
		return false
	}
	if b.config.NoLoopConnections {
		if _, rev := b.pairs[pair{to, from}]; rev {
			return false
		}
	}
	return true
}

// bind creates a synapse. The caller has checked canConnect.
func (b *Brain) bind(from, to int) int {
	dist := r3.Norm(r3.Sub(b.neurons[to].pos, b.neurons[from].pos))
	si := len(b.synapses)
	b.synapses = append(b.synapses, synapse{
		id:        b.newSynapseUID(),
		source:    from,
		target:    to,
		receptors: b.config.newConnectionReceptors(),
		decay:     b.config.SynapsePropagationDecay,
		distance:  dist,
		delay:     b.delayFor(dist),
	})
	b.outgoing[from] = append(b.outgoing[from], si)
	b.pairs[pair{from, to}] = struct{}{}
	return si
}

func (b *Brain) newSynapseUID() UID {
	// Synapse and neuron UIDs share one space; collisions are astronomically
	// unlikely and only neurons are indexed by UID.
	id, _ := uuid.NewRandomFromReader(rngReader{b.rng})
	return id
}

func (b *Brain) delayFor(dist float64) int64 {
	d := int64(math.Round(dist / b.config.PropagationSpeed))
	if d < 1 {
		return 1
	}
	return d
}

func (b *Brain) schedule(due int64, a arrival) {
	b.pending[due] = append(b.pending[due], a)
}

func (b *Brain) pendingCount() int {
	n := 0
	for _, q := range b.pending {
		n += len(q)
	}
	return n
}

// randomDirection returns a unit vector uniform on the sphere.
func (b *Brain) randomDirection() r3.Vec {
	z := 2*b.rng.Float64() - 1
	phi := 2 * math.Pi * b.rng.Float64()
	r := math.Sqrt(1 - z*z)
	return r3.Vec{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}

// clampToRadius pulls p back onto the bounding sphere when it lies outside.
func (b *Brain) clampToRadius(p r3.Vec) r3.Vec {
	if n := r3.Norm(p); n > b.config.Radius {
		return r3.Scale(b.config.Radius/n, p)
	}
	return p
}
