// Package mcp exposes brains as MCP (Model Context Protocol) tools.
package mcp

import (
	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/visualization"
)

// BrainInput names a registered brain.
type BrainInput struct {
	Brain string `json:"brain" jsonschema:"Handle returned by brain_build or brain_deserialize"`
}

// BuildInput defines the input for brain_build. Explicit counts override
// config_yaml, which overrides the server's defaults.
type BuildInput struct {
	ConfigYAML  string   `json:"config_yaml,omitempty" jsonschema:"Builder config as YAML, applied over the server defaults"`
	Neurons     *int     `json:"neurons,omitempty" jsonschema:"Total neuron count including sensors and effectors"`
	Connections *int     `json:"connections,omitempty" jsonschema:"Initial synapse count"`
	Sensors     *int     `json:"sensors,omitempty" jsonschema:"Sensor count"`
	Effectors   *int     `json:"effectors,omitempty" jsonschema:"Effector count"`
	Radius      *float64 `json:"radius,omitempty" jsonschema:"Radius of the bounding ball"`
	Seed        *uint64  `json:"seed,omitempty" jsonschema:"Seed for a reproducible brain"`
}

// BuildOutput defines the output for brain_build and brain_deserialize.
type BuildOutput struct {
	Brain     string   `json:"brain" jsonschema:"Handle for subsequent calls"`
	Neurons   int      `json:"neurons"`
	Synapses  int      `json:"synapses"`
	Sensors   []string `json:"sensors"`
	Effectors []string `json:"effectors"`
	Warnings  []string `json:"warnings,omitempty" jsonschema:"Repairs made by a lenient restore"`
}

// IDsOutput lists neuron UIDs.
type IDsOutput struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

// TriggerInput defines the input for brain_trigger_impulse.
type TriggerInput struct {
	Brain     string  `json:"brain" jsonschema:"Brain handle"`
	Sensor    string  `json:"sensor" jsonschema:"Sensor UID"`
	Potential float64 `json:"potential" jsonschema:"Amount added to the sensor's potential"`
}

// TriggerOutput defines the output for brain_trigger_impulse.
type TriggerOutput struct {
	Potential float64 `json:"potential" jsonschema:"Sensor potential after the impulse"`
}

// ProcessInput defines the input for brain_process.
type ProcessInput struct {
	Brain string `json:"brain" jsonschema:"Brain handle"`
	Steps int    `json:"steps" jsonschema:"Number of ticks to advance"`
}

// ProcessOutput defines the output for brain_process.
type ProcessOutput struct {
	Step    int64 `json:"step"`
	Fired   int   `json:"fired" jsonschema:"Neurons that fired on the last tick"`
	Pending int   `json:"pending" jsonschema:"Signals still in flight"`
}

// ReleaseInput defines the input for brain_effector_release.
type ReleaseInput struct {
	Brain    string `json:"brain" jsonschema:"Brain handle"`
	Effector string `json:"effector" jsonschema:"Effector UID"`
	Peek     bool   `json:"peek,omitempty" jsonschema:"Read without draining"`
}

// ReleaseOutput defines the output for brain_effector_release.
type ReleaseOutput struct {
	Potential float64 `json:"potential"`
}

// CountOutput defines the output for brain_synapse_count.
type CountOutput struct {
	Synapses int `json:"synapses"`
	Neurons  int `json:"neurons"`
}

// IgniteInput defines the input for brain_ignite. Count wins over fraction.
type IgniteInput struct {
	Brain    string   `json:"brain" jsonschema:"Brain handle"`
	Count    *int     `json:"count,omitempty" jsonschema:"Number of distinct synapses to ignite"`
	Fraction *float64 `json:"fraction,omitempty" jsonschema:"Fraction of synapses to ignite, 0 to 1"`
	Min      float64  `json:"min" jsonschema:"Lower potential bound"`
	Max      float64  `json:"max" jsonschema:"Upper potential bound"`
}

// IgniteOutput defines the output for brain_ignite.
type IgniteOutput struct {
	Ignited int `json:"ignited"`
}

// SerializeOutput defines the output for brain_serialize.
type SerializeOutput struct {
	Document string `json:"document" jsonschema:"YAML snapshot"`
}

// DeserializeInput defines the input for brain_deserialize.
type DeserializeInput struct {
	Document     string `json:"document" jsonschema:"YAML snapshot from brain_serialize"`
	Strict       bool   `json:"strict,omitempty" jsonschema:"Fail on unknown keys or invalid entries instead of repairing them"`
	DropInFlight bool   `json:"drop_in_flight,omitempty" jsonschema:"Discard signals that were in flight"`
}

// StatsOutput defines the output for brain_stats.
type StatsOutput struct {
	Stats brain.ActivityStats `json:"stats"`
}

// GrowInput defines the input for brain_grow.
type GrowInput struct {
	Brain       string `json:"brain" jsonschema:"Brain handle"`
	Neurons     int    `json:"neurons" jsonschema:"Neurons to add"`
	Connections int    `json:"connections,omitempty" jsonschema:"Extra synapses between existing neurons"`
	Sensors     int    `json:"sensors,omitempty" jsonschema:"Peripheral sensors to add"`
	Effectors   int    `json:"effectors,omitempty" jsonschema:"Peripheral effectors to add"`
}

// GrowOutput defines the output for brain_grow.
type GrowOutput struct {
	NeuronIDs   []string `json:"neuron_ids"`
	SensorIDs   []string `json:"sensor_ids,omitempty"`
	EffectorIDs []string `json:"effector_ids,omitempty"`
	Synapses    int      `json:"synapses" jsonschema:"Synapses created"`
}

// ReconnectOutput defines the output for brain_reconnect.
type ReconnectOutput struct {
	Moved int `json:"moved" jsonschema:"Synapses whose target changed"`
}

// RenderInput defines the input for brain_render.
type RenderInput struct {
	Brain  string `json:"brain" jsonschema:"Brain handle"`
	Format string `json:"format,omitempty" jsonschema:"Output format: dot or json (default: json)"`
}

// RenderOutput defines the output for brain_render.
type RenderOutput struct {
	Format   string                     `json:"format"`
	DOT      string                     `json:"dot,omitempty"`
	Activity *visualization.ActivityMap `json:"activity,omitempty"`
}

// ListInput defines the input for brain_list.
type ListInput struct{}

// ListOutput defines the output for brain_list.
type ListOutput struct {
	Brains []string `json:"brains"`
	Count  int      `json:"count"`
}

// SaveInput defines the input for brain_save.
type SaveInput struct {
	Brain string   `json:"brain" jsonschema:"Brain handle"`
	Name  string   `json:"name" jsonschema:"Snapshot name in the store"`
	Tags  []string `json:"tags,omitempty" jsonschema:"Labels for filtering"`
}

// SaveOutput defines the output for brain_save.
type SaveOutput struct {
	Name     string `json:"name"`
	Step     int64  `json:"step"`
	Neurons  int    `json:"neurons"`
	Synapses int    `json:"synapses"`
}

// LoadInput defines the input for brain_load.
type LoadInput struct {
	Name         string `json:"name" jsonschema:"Snapshot name in the store"`
	Strict       bool   `json:"strict,omitempty" jsonschema:"Fail instead of repairing"`
	DropInFlight bool   `json:"drop_in_flight,omitempty" jsonschema:"Discard signals that were in flight"`
}

// DestroyOutput defines the output for brain_destroy.
type DestroyOutput struct {
	Destroyed bool `json:"destroyed"`
}
