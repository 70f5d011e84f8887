package brain

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// UID is the stable opaque handle of a neuron or synapse. It survives
// serialization.
type UID = uuid.UUID

// ParseUID parses the canonical textual form of a UID.
func ParseUID(s string) (UID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UID{}, fmt.Errorf("%w: uid %q: %v", ErrParse, s, err)
	}
	return id, nil
}

// Role tags a neuron as an input, an output, or neither. It is fixed when the
// neuron is created.
type Role int

const (
	RoleInternal Role = iota
	RoleSensor
	RoleEffector
)

func (r Role) String() string {
	switch r {
	case RoleSensor:
		return "sensor"
	case RoleEffector:
		return "effector"
	default:
		return "internal"
	}
}

// ParseRole is the inverse of Role.String.
func ParseRole(s string) (Role, error) {
	switch s {
	case "internal":
		return RoleInternal, nil
	case "sensor":
		return RoleSensor, nil
	case "effector":
		return RoleEffector, nil
	}
	return RoleInternal, fmt.Errorf("%w: unknown role %q", ErrParse, s)
}

// Neuron is a copy of one neuron's state.
type Neuron struct {
	ID        UID
	Position  r3.Vec
	Potential float64
	Decay     float64
	Role      Role
}

// Synapse is a copy of one synapse's state.
type Synapse struct {
	ID     UID
	Source UID
	Target UID

	// Receptors sets transmission strength: a signal keeps receptors/(receptors+1)
	// of its charge.
	Receptors int

	// Decay is the fraction of the signal lost per tick in flight.
	Decay float64

	Distance float64
	Delay    int64

	// Inactivity counts ticks since the synapse last carried a signal.
	Inactivity int64
}

// Arrival is a scheduled potential delivery. Source is uuid.Nil when the
// arrival did not come through a synapse.
type Arrival struct {
	Due       int64
	Sent      int64
	Source    UID
	Target    UID
	Potential float64
}

// Warning describes a lenient-restore repair or drop.
type Warning struct {
	Entity string // "neuron", "synapse", "arrival", "config" or "rng"
	Index  int
	Reason string
}

func (w Warning) String() string {
	if w.Index < 0 {
		return fmt.Sprintf("%s: %s", w.Entity, w.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", w.Entity, w.Index, w.Reason)
}

// neuron is the engine's internal record; synapses and arrivals reference
// neurons by slice index, which never changes because neurons are never removed.
type neuron struct {
	id        UID
	pos       r3.Vec
	potential float64
	decay     float64
	role      Role
}

type synapse struct {
	id         UID
	source     int
	target     int
	receptors  int
	decay      float64
	distance   float64
	delay      int64
	inactivity int64
}

type arrival struct {
	source    int // -1 when injected directly
	target    int
	sent      int64
	potential float64
}

type pair struct{ from, to int }

// transmission is the fraction of charge a synapse with r receptors passes on.
func transmission(r int) float64 {
	return float64(r) / float64(r+1)
}
