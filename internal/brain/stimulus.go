package brain

import (
	"fmt"
	"math"
)

// TriggerImpulse adds amount to a sensor's potential immediately.
func (b *Brain) TriggerImpulse(id UID, amount float64) error {
	i, ok := b.index[id]
	if !ok || b.neurons[i].role != RoleSensor {
		return fmt.Errorf("%w: sensor %s", ErrNotFound, id)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: impulse amount must be finite, got %v", ErrRange, amount)
	}
	sum := b.neurons[i].potential + amount
	if math.IsInf(sum, 0) {
		return fmt.Errorf("%w: impulse overflows sensor %s potential", ErrRange, id)
	}
	b.neurons[i].potential = sum
	return nil
}

// EffectorPotentialRelease returns an effector's accumulated potential and
// resets it to zero. found is false for unknown or non-effector UIDs.
func (b *Brain) EffectorPotentialRelease(id UID) (potential float64, found bool) {
	i, ok := b.index[id]
	if !ok || b.neurons[i].role != RoleEffector {
		return 0, false
	}
	potential = b.neurons[i].potential
	b.neurons[i].potential = 0
	return potential, true
}

// EffectorPotential reads an effector's potential without draining it.
func (b *Brain) EffectorPotential(id UID) (float64, bool) {
	i, ok := b.index[id]
	if !ok || b.neurons[i].role != RoleEffector {
		return 0, false
	}
	return b.neurons[i].potential, true
}
