package timeline

import (
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/psyche/internal/brain"
)

// Apply performs a on b, drawing potentials and random sensors from rng.
// A sensor index past the end is skipped.
func Apply(b *brain.Brain, a Action, rng *rand.Rand) error {
	switch a.Type {
	case TriggerSensorByID:
		id, err := brain.ParseUID(a.Sensor)
		if err != nil {
			return err
		}
		return b.TriggerImpulse(id, a.Potential.sample(rng))

	case TriggerSensorByIndex:
		sensors := b.Sensors()
		if a.Index >= len(sensors) {
			return nil
		}
		return b.TriggerImpulse(sensors[a.Index], a.Potential.sample(rng))

	case TriggerRandomSensorsByFraction:
		sensors := b.Sensors()
		return triggerRandom(b, sensors, int(float64(len(sensors))*a.Fraction), a.Potential, rng)

	case TriggerRandomSensorsByAmount:
		return triggerRandom(b, b.Sensors(), a.Amount, a.Potential, rng)

	case IgniteRandomSynapsesByFraction:
		count := int(float64(b.SynapseCount()) * a.Fraction)
		return b.IgniteRandomSynapses(count, a.Potential.Min, a.Potential.Max)

	case IgniteRandomSynapsesByAmount:
		return b.IgniteRandomSynapses(a.Amount, a.Potential.Min, a.Potential.Max)
	}
	return fmt.Errorf("%w: unknown action type %q", brain.ErrConfig, a.Type)
}

// triggerRandom stimulates count sensors picked with replacement.
func triggerRandom(b *brain.Brain, sensors []brain.UID, count int, r Range, rng *rand.Rand) error {
	if len(sensors) == 0 {
		return nil
	}
	for range count {
		if err := b.TriggerImpulse(sensors[rng.IntN(len(sensors))], r.sample(rng)); err != nil {
			return err
		}
	}
	return nil
}

func (r Range) sample(rng *rand.Rand) float64 {
	if r.Min < r.Max {
		return r.Min + rng.Float64()*(r.Max-r.Min)
	}
	return r.Max
}
