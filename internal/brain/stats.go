package brain

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ActivityStats is a read-only aggregate of brain state, recomputed on demand.
type ActivityStats struct {
	Step             int64   `json:"step" yaml:"step" csv:"step"`
	Neurons          int     `json:"neurons" yaml:"neurons" csv:"neurons"`
	Synapses         int     `json:"synapses" yaml:"synapses" csv:"synapses"`
	Sensors          int     `json:"sensors" yaml:"sensors" csv:"sensors"`
	Effectors        int     `json:"effectors" yaml:"effectors" csv:"effectors"`
	ActiveNeurons    int     `json:"active_neurons" yaml:"active_neurons" csv:"active_neurons"`
	FiredLastTick    int     `json:"fired_last_tick" yaml:"fired_last_tick" csv:"fired_last_tick"`
	PendingArrivals  int     `json:"pending_arrivals" yaml:"pending_arrivals" csv:"pending_arrivals"`
	PendingPotential float64 `json:"pending_potential" yaml:"pending_potential" csv:"pending_potential"`
	TotalPotential   float64 `json:"total_potential" yaml:"total_potential" csv:"total_potential"`
	MeanPotential    float64 `json:"mean_potential" yaml:"mean_potential" csv:"mean_potential"`
	StdDevPotential  float64 `json:"stddev_potential" yaml:"stddev_potential" csv:"stddev_potential"`
	MinPotential     float64 `json:"min_potential" yaml:"min_potential" csv:"min_potential"`
	MaxPotential     float64 `json:"max_potential" yaml:"max_potential" csv:"max_potential"`
}

// Stats computes ActivityStats. A neuron is active when its potential
// exceeds the firing threshold.
func (b *Brain) Stats() ActivityStats {
	st := ActivityStats{
		Step:            b.step,
		Neurons:         len(b.neurons),
		Synapses:        len(b.synapses),
		FiredLastTick:   b.lastFired,
		PendingArrivals: b.pendingCount(),
	}
	potentials := make([]float64, len(b.neurons))
	for i := range b.neurons {
		n := &b.neurons[i]
		potentials[i] = n.potential
		switch n.role {
		case RoleSensor:
			st.Sensors++
		case RoleEffector:
			st.Effectors++
		}
		if n.potential > b.config.ActionPotentialThreshold {
			st.ActiveNeurons++
		}
	}
	for _, due := range slices.Sorted(maps.Keys(b.pending)) {
		for _, a := range b.pending[due] {
			st.PendingPotential += a.potential
		}
	}
	if len(potentials) == 0 {
		return st
	}
	st.TotalPotential = floats.Sum(potentials)
	st.MeanPotential = stat.Mean(potentials, nil)
	if len(potentials) > 1 {
		st.StdDevPotential = stat.PopStdDev(potentials, nil)
	}
	st.MinPotential = floats.Min(potentials)
	st.MaxPotential = floats.Max(potentials)
	return st
}
