package brain

import (
	"fmt"
	"math"
)

// Process advances the brain by steps ticks. Process(0) is a no-op. On
// error the brain is rolled back to its state before the call.
func (b *Brain) Process(steps int) error {
	if steps < 0 {
		return fmt.Errorf("%w: negative step count %d", ErrRange, steps)
	}
	if steps == 0 {
		return nil
	}
	// A failed tick leaves the brain untouched, so only earlier ticks of the
	// same call need undoing.
	var cp *Brain
	if steps > 1 {
		cp = b.Clone()
	}
	for range steps {
		if err := b.tick(); err != nil {
			if cp != nil {
				b.restore(cp)
			}
			return err
		}
		b.betweenTicks()
	}
	return nil
}

// tick runs one simulation step: deliver, decay, fire, advance. The new
// potentials are computed into a scratch buffer and committed only once all
// of them are finite.
func (b *Brain) tick() error {
	next := b.scratch[:0]
	for i := range b.neurons {
		next = append(next, b.neurons[i].potential)
	}
	b.scratch = next
	for _, a := range b.pending[b.step] {
		next[a.target] += a.potential
	}
	for i := range next {
		next[i] *= b.neurons[i].decay
		if math.IsNaN(next[i]) || math.IsInf(next[i], 0) {
			return fmt.Errorf("%w: step %d: neuron %s potential is %v", ErrSimulation, b.step, b.neurons[i].id, next[i])
		}
	}

	delete(b.pending, b.step)
	for i := range b.synapses {
		b.synapses[i].inactivity++
	}
	if len(b.spiked) == len(b.neurons) {
		clear(b.spiked)
	} else {
		b.spiked = make([]bool, len(b.neurons))
	}

	threshold := b.config.ActionPotentialThreshold
	fired := 0
	for i := range b.neurons {
		n := &b.neurons[i]
		n.potential = next[i]
		if n.role == RoleEffector || !(n.potential > threshold) {
			continue
		}
		out := b.outgoing[i]
		if len(out) == 0 {
			continue
		}
		// share is finite and every factor below is in [0, 1].
		share := n.potential / float64(len(out))
		for _, si := range out {
			s := &b.synapses[si]
			s.inactivity = 0
			amount := share * transmission(s.receptors) * math.Pow(1-s.decay, float64(s.delay))
			if amount == 0 {
				continue
			}
			b.schedule(b.step+s.delay, arrival{source: s.source, target: s.target, sent: b.step, potential: amount})
		}
		n.potential = 0
		b.spiked[i] = true
		fired++
	}

	b.lastFired = fired
	b.step++
	return nil
}

// betweenTicks runs the structural phase that follows each tick. The config
// has been validated, so growth sizes are non-negative and growth cannot fail.
func (b *Brain) betweenTicks() {
	if b.config.SynapseReconnectionRange != nil {
		b.reconnect(false)
	}
	if iv := b.config.NeurogenesisInterval; iv > 0 && b.step%iv == 0 {
		b.grow(GrowthOptions{
			Neurons:     b.config.NeurogenesisNeurons,
			Connections: b.config.NeurogenesisConnections,
		})
	}
}
