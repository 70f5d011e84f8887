package brain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// GrowthOptions sizes one neurogenesis event.
type GrowthOptions struct {
	// Neurons is the number of new internal neurons, each placed near a
	// random existing neuron and wired to it.
	Neurons int

	// Connections is the number of extra synapses wired between existing
	// neurons, biased toward nearby pairs.
	Connections int

	// Sensors and Effectors add peripheral neurons with that role, each on
	// the bounding sphere and wired to its nearest eligible neighbor.
	Sensors   int
	Effectors int
}

// GrowthResult reports what a growth event created.
type GrowthResult struct {
	NeuronIDs   []UID
	SensorIDs   []UID
	EffectorIDs []UID
	Synapses    int
}

// Grow performs explicit neurogenesis. Connections that cannot be placed
// because the feasible pair space is exhausted are skipped.
func (b *Brain) Grow(opts GrowthOptions) (GrowthResult, error) {
	cp := b.Clone()
	res, err := b.grow(opts)
	if err != nil {
		b.restore(cp)
		return GrowthResult{}, err
	}
	return res, nil
}

func (b *Brain) grow(opts GrowthOptions) (GrowthResult, error) {
	if opts.Neurons < 0 || opts.Connections < 0 || opts.Sensors < 0 || opts.Effectors < 0 {
		return GrowthResult{}, fmt.Errorf("%w: growth sizes must be non-negative (neurons=%d connections=%d sensors=%d effectors=%d)",
			ErrRange, opts.Neurons, opts.Connections, opts.Sensors, opts.Effectors)
	}
	var res GrowthResult
	lo, hi := b.config.MinNeurogenesisRange, b.config.MaxNeurogenesisRange

	for range opts.Neurons {
		if len(b.neurons) == 0 {
			ni := b.addNeuron(r3.Vec{}, RoleInternal, b.config.NeuronPotentialDecay)
			res.NeuronIDs = append(res.NeuronIDs, b.neurons[ni].id)
			continue
		}
		origin := b.rng.IntN(len(b.neurons))
		dist := lo + b.rng.Float64()*(hi-lo)
		pos := b.clampToRadius(r3.Add(b.neurons[origin].pos, r3.Scale(dist, b.randomDirection())))
		ni := b.addNeuron(pos, RoleInternal, b.config.NeuronPotentialDecay)
		if b.neurons[origin].role == RoleEffector {
			b.bind(ni, origin)
		} else {
			b.bind(origin, ni)
		}
		res.NeuronIDs = append(res.NeuronIDs, b.neurons[ni].id)
		res.Synapses++
	}

	if opts.Connections > 0 {
		sources, targets := b.endpointPools()
		if len(sources) > 0 && len(targets) > 0 {
			tries := max(1, b.config.MaxConnectingTries)
			for range opts.Connections {
				if b.connectRandom(sources, targets, tries) {
					res.Synapses++
				}
			}
		}
	}

	for range opts.Sensors {
		id, wired := b.growPeripheral(RoleSensor)
		res.SensorIDs = append(res.SensorIDs, id)
		if wired {
			res.Synapses++
		}
	}
	for range opts.Effectors {
		id, wired := b.growPeripheral(RoleEffector)
		res.EffectorIDs = append(res.EffectorIDs, id)
		if wired {
			res.Synapses++
		}
	}
	return res, nil
}

// growPeripheral adds a neuron with role at a random point on the bounding
// sphere. A sensor feeds its nearest connectable neuron and an effector is
// fed by its nearest one. wired is false when no neuron qualifies.
func (b *Brain) growPeripheral(role Role) (id UID, wired bool) {
	pos := r3.Scale(b.config.Radius, b.randomDirection())
	ni := b.addNeuron(pos, role, b.config.NeuronPotentialDecay)
	best, bestDist := -1, math.Inf(1)
	for i := range ni {
		from, to := ni, i
		if role == RoleEffector {
			from, to = i, ni
		}
		if !b.canConnect(from, to) {
			continue
		}
		if d := r3.Norm(r3.Sub(b.neurons[i].pos, pos)); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return b.neurons[ni].id, false
	}
	if role == RoleEffector {
		b.bind(best, ni)
	} else {
		b.bind(ni, best)
	}
	return b.neurons[ni].id, true
}

// Reconnect runs one reconnection pass over every synapse regardless of
// inactivity or target activity, and reports how many synapses moved. It
// requires SynapseReconnectionRange.
func (b *Brain) Reconnect() (int, error) {
	if b.config.SynapseReconnectionRange == nil {
		return 0, fmt.Errorf("%w: synapse_reconnection_range is not set", ErrConfig)
	}
	return b.reconnect(true), nil
}

// reconnect redirects synapse targets to other neurons within the
// reconnection range of the current target. The automatic pass only touches
// synapses idle for SynapseInactivityTime ticks and only picks active
// targets: neurons that fired during the latest tick or whose potential
// exceeds the firing threshold.
func (b *Brain) reconnect(onDemand bool) int {
	reach := *b.config.SynapseReconnectionRange
	threshold := b.config.ActionPotentialThreshold
	moved := 0
	for si := range b.synapses {
		s := &b.synapses[si]
		if !onDemand {
			if s.inactivity < b.config.SynapseInactivityTime {
				continue
			}
			s.inactivity = 0
		}
		center := b.neurons[s.target].pos
		var candidates []int
		for i := range b.neurons {
			if i == s.target || !b.canConnect(s.source, i) {
				continue
			}
			if !onDemand && !b.firedLastTick(i) && !(b.neurons[i].potential > threshold) {
				continue
			}
			if r3.Norm(r3.Sub(b.neurons[i].pos, center)) <= reach {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		to := candidates[b.rng.IntN(len(candidates))]
		delete(b.pairs, pair{s.source, s.target})
		b.pairs[pair{s.source, to}] = struct{}{}
		s.target = to
		s.distance = r3.Norm(r3.Sub(b.neurons[to].pos, b.neurons[s.source].pos))
		s.delay = b.delayFor(s.distance)
		moved++
	}
	return moved
}

// IgniteRandomSynapses picks count distinct synapses uniformly at random and
// schedules, at each one's target, an arrival due at the current step with a
// potential drawn uniformly from [min, max]. Topology is untouched.
func (b *Brain) IgniteRandomSynapses(count int, min, max float64) error {
	if count < 0 || count > len(b.synapses) {
		return fmt.Errorf("%w: cannot ignite %d of %d synapses", ErrRange, count, len(b.synapses))
	}
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return fmt.Errorf("%w: ignition bounds must be finite, got [%v, %v]", ErrRange, min, max)
	}
	if min > max {
		return fmt.Errorf("%w: ignition min %v exceeds max %v", ErrRange, min, max)
	}
	order := make([]int, len(b.synapses))
	for i := range order {
		order[i] = i
	}
	for k := range count {
		j := k + b.rng.IntN(len(order)-k)
		order[k], order[j] = order[j], order[k]
		v := min + b.rng.Float64()*(max-min)
		syn := &b.synapses[order[k]]
		b.schedule(b.step, arrival{source: syn.source, target: syn.target, sent: b.step, potential: v})
	}
	return nil
}
