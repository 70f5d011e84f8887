package brain

import (
	"fmt"
	"math"
)

// BuilderConfig holds the generation and runtime parameters of a brain.
// It is stored with the brain and serialized alongside it.
type BuilderConfig struct {
	// Neurons is the number of neurons placed by Build.
	Neurons int `json:"neurons" yaml:"neurons"`

	// Connections is the number of synapses wired by Build.
	Connections int `json:"connections" yaml:"connections"`

	// Sensors and Effectors are the numbers of neurons tagged with those roles.
	Sensors   int `json:"sensors" yaml:"sensors"`
	Effectors int `json:"effectors" yaml:"effectors"`

	// Radius bounds neuron positions to a ball centered at the origin.
	Radius float64 `json:"radius" yaml:"radius"`

	// PropagationSpeed converts synapse length into a delay in ticks:
	// delay = max(1, round(distance / speed)).
	PropagationSpeed float64 `json:"propagation_speed" yaml:"propagation_speed"`

	// NeuronPotentialDecay multiplies every neuron's potential once per tick.
	// Range (0, 1]; 1 keeps potential indefinitely.
	NeuronPotentialDecay float64 `json:"neuron_potential_decay" yaml:"neuron_potential_decay"`

	// SynapsePropagationDecay is the fraction of a signal lost per tick in
	// flight. Range [0, 1).
	SynapsePropagationDecay float64 `json:"synapse_propagation_decay" yaml:"synapse_propagation_decay"`

	// MinNeurogenesisRange and MaxNeurogenesisRange bound the distance of a
	// grown neuron from its origin. MaxNeurogenesisRange also biases initial
	// wiring toward nearby targets when positive.
	MinNeurogenesisRange float64 `json:"min_neurogenesis_range" yaml:"min_neurogenesis_range"`
	MaxNeurogenesisRange float64 `json:"max_neurogenesis_range" yaml:"max_neurogenesis_range"`

	// SynapseReconnectionRange enables reconnection when set.
	SynapseReconnectionRange *float64 `json:"synapse_reconnection_range,omitempty" yaml:"synapse_reconnection_range,omitempty"`

	// SynapseNewConnectionReceptors overrides DefaultReceptors for new synapses.
	SynapseNewConnectionReceptors *int `json:"synapse_new_connection_receptors,omitempty" yaml:"synapse_new_connection_receptors,omitempty"`

	// DefaultReceptors is the receptor count given to new synapses.
	DefaultReceptors int `json:"default_receptors" yaml:"default_receptors"`

	// ActionPotentialThreshold is the potential a neuron must exceed to fire.
	ActionPotentialThreshold float64 `json:"action_potential_threshold" yaml:"action_potential_threshold"`

	// NoLoopConnections forbids wiring a pair that is already connected in
	// the reverse direction.
	NoLoopConnections bool `json:"no_loop_connections" yaml:"no_loop_connections"`

	// MaxConnectingTries bounds the random draws per synapse before falling
	// back to a cheaper selection.
	MaxConnectingTries int `json:"max_connecting_tries" yaml:"max_connecting_tries"`

	// SynapseInactivityTime is the number of silent ticks after which a
	// synapse becomes eligible for reconnection.
	SynapseInactivityTime int64 `json:"synapse_inactivity_time" yaml:"synapse_inactivity_time"`

	// NeurogenesisInterval enables automatic growth every N ticks. 0 disables.
	NeurogenesisInterval int64 `json:"neurogenesis_interval" yaml:"neurogenesis_interval"`

	// NeurogenesisNeurons and NeurogenesisConnections size each automatic
	// growth event.
	NeurogenesisNeurons     int `json:"neurogenesis_neurons" yaml:"neurogenesis_neurons"`
	NeurogenesisConnections int `json:"neurogenesis_connections" yaml:"neurogenesis_connections"`

	// Seed makes generation and every later random choice reproducible.
	// Nil draws a fresh seed.
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// DefaultBuilderConfig returns the default generation parameters.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		Neurons:                 100,
		Connections:             0,
		Sensors:                 1,
		Effectors:               1,
		Radius:                  10,
		PropagationSpeed:        1,
		NeuronPotentialDecay:    1,
		SynapsePropagationDecay: 0,
		MinNeurogenesisRange:    0.1,
		MaxNeurogenesisRange:    1,
		DefaultReceptors:        1,
		NoLoopConnections:       true,
		MaxConnectingTries:      10,
		SynapseInactivityTime:   50,
		NeurogenesisNeurons:     1,
		NeurogenesisConnections: 1,
	}
}

// Validate checks the whole configuration, including the population counts
// Build depends on.
func (c BuilderConfig) Validate() error {
	if c.Neurons < 0 || c.Connections < 0 || c.Sensors < 0 || c.Effectors < 0 {
		return fmt.Errorf("%w: counts must be non-negative (neurons=%d connections=%d sensors=%d effectors=%d)",
			ErrConfig, c.Neurons, c.Connections, c.Sensors, c.Effectors)
	}
	if c.Sensors+c.Effectors > c.Neurons {
		return fmt.Errorf("%w: sensors (%d) + effectors (%d) exceed neurons (%d)",
			ErrConfig, c.Sensors, c.Effectors, c.Neurons)
	}
	if err := c.validateDynamics(); err != nil {
		return err
	}
	if limit := maxConnections(c.Neurons-c.Sensors-c.Effectors, c.Sensors, c.Effectors, c.NoLoopConnections); c.Connections > limit {
		return fmt.Errorf("%w: %d connections requested but only %d are possible", ErrConfig, c.Connections, limit)
	}
	return nil
}

// validateDynamics checks the parameters that still matter after a brain
// exists: everything except the population counts.
func (c BuilderConfig) validateDynamics() error {
	if !(c.Radius > 0) || math.IsInf(c.Radius, 0) {
		return fmt.Errorf("%w: radius must be positive and finite, got %v", ErrConfig, c.Radius)
	}
	if !(c.PropagationSpeed > 0) || math.IsInf(c.PropagationSpeed, 0) {
		return fmt.Errorf("%w: propagation_speed must be positive and finite, got %v", ErrConfig, c.PropagationSpeed)
	}
	if !validNeuronDecay(c.NeuronPotentialDecay) {
		return fmt.Errorf("%w: neuron_potential_decay must be in (0, 1], got %v", ErrConfig, c.NeuronPotentialDecay)
	}
	if !validSynapseDecay(c.SynapsePropagationDecay) {
		return fmt.Errorf("%w: synapse_propagation_decay must be in [0, 1), got %v", ErrConfig, c.SynapsePropagationDecay)
	}
	if !(c.MinNeurogenesisRange >= 0) || !(c.MaxNeurogenesisRange >= c.MinNeurogenesisRange) || math.IsInf(c.MaxNeurogenesisRange, 0) {
		return fmt.Errorf("%w: neurogenesis range must satisfy 0 <= min <= max, got [%v, %v]",
			ErrConfig, c.MinNeurogenesisRange, c.MaxNeurogenesisRange)
	}
	if r := c.SynapseReconnectionRange; r != nil && (!(*r > 0) || math.IsInf(*r, 0)) {
		return fmt.Errorf("%w: synapse_reconnection_range must be positive and finite, got %v", ErrConfig, *r)
	}
	if c.DefaultReceptors < 0 {
		return fmt.Errorf("%w: default_receptors must be non-negative, got %d", ErrConfig, c.DefaultReceptors)
	}
	if r := c.SynapseNewConnectionReceptors; r != nil && *r < 0 {
		return fmt.Errorf("%w: synapse_new_connection_receptors must be non-negative, got %d", ErrConfig, *r)
	}
	if math.IsNaN(c.ActionPotentialThreshold) || math.IsInf(c.ActionPotentialThreshold, 0) {
		return fmt.Errorf("%w: action_potential_threshold must be finite", ErrConfig)
	}
	if c.MaxConnectingTries < 0 || c.SynapseInactivityTime < 0 || c.NeurogenesisInterval < 0 {
		return fmt.Errorf("%w: max_connecting_tries, synapse_inactivity_time and neurogenesis_interval must be non-negative", ErrConfig)
	}
	if c.NeurogenesisNeurons < 0 || c.NeurogenesisConnections < 0 {
		return fmt.Errorf("%w: neurogenesis sizes must be non-negative", ErrConfig)
	}
	return nil
}

// newConnectionReceptors is the receptor count for a freshly wired synapse.
func (c BuilderConfig) newConnectionReceptors() int {
	if c.SynapseNewConnectionReceptors != nil {
		return *c.SynapseNewConnectionReceptors
	}
	return c.DefaultReceptors
}

// maxConnections is the number of distinct synapses the role constraints
// allow among internal, sensor and effector neurons. Sensors are never
// targets and effectors are never sources.
func maxConnections(internal, sensors, effectors int, noLoop bool) int {
	if internal < 0 {
		return 0
	}
	pairs := internal * (internal - 1)
	if noLoop {
		pairs /= 2
	}
	return pairs + internal*sensors + internal*effectors + sensors*effectors
}

func validNeuronDecay(d float64) bool { return d > 0 && d <= 1 }

func validSynapseDecay(d float64) bool { return d >= 0 && d < 1 }
