package visualization

import (
	"github.com/nvandessel/psyche/internal/brain"
	"gonum.org/v1/gonum/spatial/r3"
)

// Connection is one synapse drawn between its endpoint positions.
type Connection struct {
	From      brain.Position `json:"from"`
	To        brain.Position `json:"to"`
	Receptors int            `json:"receptors"`
}

// Impulse is an in-flight signal. Progress runs from 0 when sent to 1 on
// arrival.
type Impulse struct {
	From     brain.Position `json:"from"`
	To       brain.Position `json:"to"`
	Progress float64        `json:"progress"`
}

// ActivityMap is a positional picture of a brain at one step.
type ActivityMap struct {
	Step        int64            `json:"step"`
	Radius      float64          `json:"radius"`
	Connections []Connection     `json:"connections"`
	Impulses    []Impulse        `json:"impulses"`
	Active      []brain.Position `json:"active"`
	Sensors     []brain.Position `json:"sensors"`
	Effectors   []brain.Position `json:"effectors"`
}

// BuildActivityMap collects positions for every synapse, in-flight arrival,
// active neuron and peripheral neuron. Arrivals injected without a synapse are
// drawn as stationary at their target.
func BuildActivityMap(b *brain.Brain) ActivityMap {
	cfg := b.Config()
	m := ActivityMap{
		Step:        b.Step(),
		Radius:      cfg.Radius,
		Connections: []Connection{},
		Impulses:    []Impulse{},
		Active:      []brain.Position{},
		Sensors:     []brain.Position{},
		Effectors:   []brain.Position{},
	}

	neurons := b.Neurons()
	pos := make(map[brain.UID]r3.Vec, len(neurons))
	for _, n := range neurons {
		pos[n.ID] = n.Position
		switch n.Role {
		case brain.RoleSensor:
			m.Sensors = append(m.Sensors, point(n.Position))
		case brain.RoleEffector:
			m.Effectors = append(m.Effectors, point(n.Position))
		}
		if n.Potential > cfg.ActionPotentialThreshold {
			m.Active = append(m.Active, point(n.Position))
		}
	}

	for _, s := range b.Synapses() {
		m.Connections = append(m.Connections, Connection{
			From:      point(pos[s.Source]),
			To:        point(pos[s.Target]),
			Receptors: s.Receptors,
		})
	}

	for _, a := range b.PendingArrivals() {
		to := pos[a.Target]
		from, ok := pos[a.Source]
		if !ok {
			from = to
		}
		m.Impulses = append(m.Impulses, Impulse{
			From:     point(from),
			To:       point(to),
			Progress: progress(m.Step, a.Sent, a.Due),
		})
	}
	return m
}

func progress(now, sent, due int64) float64 {
	if due <= sent {
		return 1
	}
	p := float64(now-sent) / float64(due-sent)
	return min(max(p, 0), 1)
}

func point(v r3.Vec) brain.Position {
	return brain.Position{X: v.X, Y: v.Y, Z: v.Z}
}
