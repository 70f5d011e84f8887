// Package visualization renders brains as Graphviz DOT, JSON activity maps
// and a live HTML view.
package visualization

import (
	"fmt"
	"strings"

	"github.com/nvandessel/psyche/internal/brain"
)

// Format specifies the output format for brain rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// roleColors maps neuron roles to DOT colors.
var roleColors = map[brain.Role]string{
	brain.RoleSensor:   "gold",
	brain.RoleEffector: "tomato",
	brain.RoleInternal: "steelblue",
}

// RenderDOT produces a Graphviz DOT representation of the brain. Neurons are
// labelled with a short ID and their potential, synapses with their delay.
// Positions are emitted as pos attributes (x,y) for neato -n.
func RenderDOT(b *brain.Brain) string {
	var sb strings.Builder
	sb.WriteString("digraph psyche {\n")
	sb.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\", fontsize=8];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\", fontsize=7, arrowsize=0.5];\n\n")

	threshold := b.Config().ActionPotentialThreshold
	for _, n := range b.Neurons() {
		color := roleColors[n.Role]
		pen := 1
		if n.Potential > threshold {
			pen = 3
		}
		fmt.Fprintf(&sb, "  %q [label=%q, fillcolor=%q, penwidth=%d, pos=\"%.3f,%.3f\", tooltip=\"%s potential=%.4g\"];\n",
			n.ID.String(), shortID(n.ID), color, pen, n.Position.X, n.Position.Y, n.Role, n.Potential)
	}
	sb.WriteString("\n")

	for _, s := range b.Synapses() {
		fmt.Fprintf(&sb, "  %q -> %q [label=\"%d\", penwidth=%d];\n",
			s.Source.String(), s.Target.String(), s.Delay, max(1, s.Receptors))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// shortID is the first UID group, enough to tell neurons apart in a drawing.
func shortID(id brain.UID) string {
	return id.String()[:8]
}
