package brain

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError describes one consistency problem in a snapshot.
type ValidationError struct {
	Entity string `json:"entity"` // "neuron", "synapse", "arrival"
	ID     string `json:"id"`
	RefID  string `json:"ref_id,omitempty"`
	Issue  string `json:"issue"` // "dangling", "self-reference", "duplicate", "delay", "direction", "role-count", "bad-id"
}

func (e ValidationError) String() string {
	if e.RefID == "" {
		return fmt.Sprintf("%s: %s %s", e.Issue, e.Entity, e.ID)
	}
	return fmt.Sprintf("%s: %s %s references %s", e.Issue, e.Entity, e.ID, e.RefID)
}

// Validate checks a snapshot's graph for consistency without restoring it:
// malformed or repeated IDs, dangling references, self-loops, duplicate
// connections, delays below one tick, synapses that feed a sensor or leave an
// effector, and role counts lower than the config asks for.
func (s Snapshot) Validate() []ValidationError {
	var errs []ValidationError
	roles := make(map[string]Role, len(s.Neurons))
	var sensors, effectors int

	for _, n := range s.Neurons {
		if _, err := uuid.Parse(n.ID); err != nil {
			errs = append(errs, ValidationError{Entity: "neuron", ID: n.ID, Issue: "bad-id"})
			continue
		}
		if _, dup := roles[n.ID]; dup {
			errs = append(errs, ValidationError{Entity: "neuron", ID: n.ID, Issue: "duplicate"})
			continue
		}
		role, _ := ParseRole(n.Role)
		roles[n.ID] = role
		switch role {
		case RoleSensor:
			sensors++
		case RoleEffector:
			effectors++
		}
	}

	seen := make(map[[2]string]bool, len(s.Synapses))
	ids := make(map[string]bool, len(s.Synapses))
	for _, sy := range s.Synapses {
		if _, err := uuid.Parse(sy.ID); err != nil {
			errs = append(errs, ValidationError{Entity: "synapse", ID: sy.ID, Issue: "bad-id"})
		} else if ids[sy.ID] {
			errs = append(errs, ValidationError{Entity: "synapse", ID: sy.ID, Issue: "duplicate"})
		}
		ids[sy.ID] = true
		src, okSrc := roles[sy.Source]
		dst, okDst := roles[sy.Target]
		if !okSrc {
			errs = append(errs, ValidationError{Entity: "synapse", ID: sy.ID, RefID: sy.Source, Issue: "dangling"})
		}
		if !okDst {
			errs = append(errs, ValidationError{Entity: "synapse", ID: sy.ID, RefID: sy.Target, Issue: "dangling"})
		}
		if sy.Source == sy.Target {
			errs = append(errs, ValidationError{Entity: "synapse", ID: sy.ID, RefID: sy.Source, Issue: "self-reference"})
		}
		key := [2]string{sy.Source, sy.Target}
		if seen[key] {
			errs = append(errs, ValidationError{Entity: "synapse", ID: sy.ID, Issue: "duplicate"})
		}
		seen[key] = true
		if sy.Delay < 1 {
			errs = append(errs, ValidationError{Entity: "synapse", ID: sy.ID, Issue: "delay"})
		}
		if (okSrc && src == RoleEffector) || (okDst && dst == RoleSensor) {
			errs = append(errs, ValidationError{Entity: "synapse", ID: sy.ID, Issue: "direction"})
		}
	}

	for i, a := range s.Arrivals {
		if _, ok := roles[a.Target]; !ok {
			errs = append(errs, ValidationError{Entity: "arrival", ID: fmt.Sprint(i), RefID: a.Target, Issue: "dangling"})
		}
		if _, ok := roles[a.Source]; a.Source != "" && !ok {
			errs = append(errs, ValidationError{Entity: "arrival", ID: fmt.Sprint(i), RefID: a.Source, Issue: "dangling"})
		}
	}

	if sensors < s.Config.Sensors {
		errs = append(errs, ValidationError{Entity: "neuron", ID: "sensors", Issue: "role-count"})
	}
	if effectors < s.Config.Effectors {
		errs = append(errs, ValidationError{Entity: "neuron", ID: "effectors", Issue: "role-count"})
	}
	return errs
}
