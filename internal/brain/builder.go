package brain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Build generates a brain from cfg. With cfg.Seed set the result, UIDs
// included, is a pure function of cfg.
func Build(cfg BuilderConfig) (*Brain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := newBrain(cfg)

	for range cfg.Neurons {
		r := cfg.Radius * math.Cbrt(b.rng.Float64())
		b.addNeuron(r3.Scale(r, b.randomDirection()), RoleInternal, cfg.NeuronPotentialDecay)
	}
	b.tagPeripheral(RoleSensor, cfg.Sensors)
	b.tagPeripheral(RoleEffector, cfg.Effectors)

	if err := b.connectInitial(cfg.Connections); err != nil {
		return nil, err
	}
	return b, nil
}

// tagPeripheral assigns role to count untagged neurons, each the one nearest
// a random point on the bounding sphere.
func (b *Brain) tagPeripheral(role Role, count int) {
	for range count {
		p := r3.Scale(b.config.Radius, b.randomDirection())
		best, bestDist := -1, math.Inf(1)
		for i := range b.neurons {
			if b.neurons[i].role != RoleInternal {
				continue
			}
			if d := r3.Norm(r3.Sub(b.neurons[i].pos, p)); d < bestDist {
				best, bestDist = i, d
			}
		}
		if best < 0 {
			return
		}
		b.neurons[best].role = role
	}
}

// connectInitial wires count synapses: spatially biased draws first, then
// uniform draws, then a shuffled enumeration of whatever pairs remain.
func (b *Brain) connectInitial(count int) error {
	if count == 0 {
		return nil
	}
	sources, targets := b.endpointPools()
	if len(sources) == 0 || len(targets) == 0 {
		return fmt.Errorf("%w: no eligible endpoints for %d connections", ErrConfig, count)
	}
	tries := max(1, b.config.MaxConnectingTries)

	created := 0
	for created < count {
		if !b.connectRandom(sources, targets, tries) {
			break
		}
		created++
	}
	if created == count {
		return nil
	}

	remaining := b.feasiblePairs(sources, targets)
	b.rng.Shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })
	for _, p := range remaining {
		if created == count {
			return nil
		}
		if b.canConnect(p.from, p.to) {
			b.bind(p.from, p.to)
			created++
		}
	}
	if created < count {
		return fmt.Errorf("%w: only %d of %d connections could be wired", ErrConfig, created, count)
	}
	return nil
}

// connectRandom makes one synapse with up to tries spatially biased draws
// followed by up to tries uniform draws.
func (b *Brain) connectRandom(sources, targets []int, tries int) bool {
	if reach := b.config.MaxNeurogenesisRange; reach > 0 {
		for range tries {
			from := sources[b.rng.IntN(len(sources))]
			if to, ok := b.nearbyTarget(from, b.neurons[from].pos, reach); ok {
				b.bind(from, to)
				return true
			}
		}
	}
	for range tries {
		from := sources[b.rng.IntN(len(sources))]
		to := targets[b.rng.IntN(len(targets))]
		if b.canConnect(from, to) {
			b.bind(from, to)
			return true
		}
	}
	return false
}

// nearbyTarget picks a random connectable target within reach of center.
func (b *Brain) nearbyTarget(from int, center r3.Vec, reach float64) (int, bool) {
	var candidates []int
	for i := range b.neurons {
		if r3.Norm(r3.Sub(b.neurons[i].pos, center)) <= reach && b.canConnect(from, i) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[b.rng.IntN(len(candidates))], true
}

// endpointPools returns the indices of neurons that may act as synapse
// sources and targets.
func (b *Brain) endpointPools() (sources, targets []int) {
	for i := range b.neurons {
		if b.neurons[i].role != RoleEffector {
			sources = append(sources, i)
		}
		if b.neurons[i].role != RoleSensor {
			targets = append(targets, i)
		}
	}
	return sources, targets
}

func (b *Brain) feasiblePairs(sources, targets []int) []pair {
	var out []pair
	for _, from := range sources {
		for _, to := range targets {
			if b.canConnect(from, to) {
				out = append(out, pair{from, to})
			}
		}
	}
	return out
}
