package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/codec"
	"github.com/nvandessel/psyche/internal/ratelimit"
	"github.com/nvandessel/psyche/internal/store"
	"github.com/nvandessel/psyche/internal/visualization"
	"gopkg.in/yaml.v3"
)

// registerTools registers the brain tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_build",
		Description: "Generate a new brain from the server's builder config with optional overrides; returns its handle",
	}, s.handleBrainBuild)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_sensors",
		Description: "List sensor neuron UIDs in creation order",
	}, s.handleBrainSensors)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_effectors",
		Description: "List effector neuron UIDs in creation order",
	}, s.handleBrainEffectors)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_trigger_impulse",
		Description: "Add potential to a sensor neuron",
	}, s.handleBrainTriggerImpulse)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_process",
		Description: "Advance the simulation by a number of ticks; all or nothing",
	}, s.handleBrainProcess)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_effector_release",
		Description: "Read and drain an effector's accumulated potential (or peek without draining)",
	}, s.handleBrainEffectorRelease)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_synapse_count",
		Description: "Count synapses and neurons",
	}, s.handleBrainSynapseCount)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_ignite",
		Description: "Inject random potentials into distinct random synapses, delivered on the next tick",
	}, s.handleBrainIgnite)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_serialize",
		Description: "Export the complete brain state as a YAML document",
	}, s.handleBrainSerialize)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_deserialize",
		Description: "Restore a brain from a YAML document; returns a new handle",
	}, s.handleBrainDeserialize)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_stats",
		Description: "Aggregate activity statistics: potentials, firing, in-flight signals",
	}, s.handleBrainStats)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_destroy",
		Description: "Release a brain and its handle",
	}, s.handleBrainDestroy)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_grow",
		Description: "Add neurons near existing ones (neurogenesis)",
	}, s.handleBrainGrow)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_reconnect",
		Description: "Run one synapse reconnection pass; requires synapse_reconnection_range",
	}, s.handleBrainReconnect)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_render",
		Description: "Render the brain as a Graphviz DOT graph or a JSON activity map",
	}, s.handleBrainRender)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "brain_list",
		Description: "List live brain handles",
	}, s.handleBrainList)

	if s.store != nil {
		sdk.AddTool(s.server, &sdk.Tool{
			Name:        "brain_save",
			Description: "Persist a brain snapshot under a name in the snapshot store",
		}, s.handleBrainSave)

		sdk.AddTool(s.server, &sdk.Tool{
			Name:        "brain_load",
			Description: "Restore a named snapshot from the store; returns a new handle",
		}, s.handleBrainLoad)
	}
}

// registerResources exposes live brains as readable resources.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         "psyche://brains",
		Name:        "psyche-brains",
		Description: "Live brains with their current activity statistics.",
		MIMEType:    "application/json",
	}, s.handleBrainsResource)

	s.server.AddResourceTemplate(&sdk.ResourceTemplate{
		URITemplate: "psyche://brains/{handle}/activity",
		Name:        "psyche-brain-activity",
		Description: "Positional activity map of one brain: connections, in-flight impulses, sensors, effectors.",
		MIMEType:    "application/json",
	}, s.handleActivityResource)
}

func (s *Server) handleBrainsResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	type brainSummary struct {
		Brain string              `json:"brain"`
		Stats brain.ActivityStats `json:"stats"`
	}
	summaries := []brainSummary{}
	for _, h := range s.brains.Handles() {
		err := s.brains.With(h, func(b *brain.Brain) error {
			summaries = append(summaries, brainSummary{Brain: h, Stats: b.Stats()})
			return nil
		})
		if err != nil {
			continue // destroyed meanwhile
		}
	}
	return jsonResource("psyche://brains", summaries)
}

func (s *Server) handleActivityResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	uri := req.Params.URI
	handle, ok := strings.CutPrefix(uri, "psyche://brains/")
	handle, found := strings.CutSuffix(handle, "/activity")
	if !ok || !found || handle == "" {
		return nil, fmt.Errorf("invalid URI format: %s", uri)
	}
	var m visualization.ActivityMap
	if err := s.brains.With(handle, func(b *brain.Brain) error {
		m = visualization.BuildActivityMap(b)
		return nil
	}); err != nil {
		return nil, err
	}
	return jsonResource(uri, m)
}

func jsonResource(uri string, v any) (*sdk.ReadResourceResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}

// handleBrainBuild implements the brain_build tool.
func (s *Server) handleBrainBuild(ctx context.Context, req *sdk.CallToolRequest, args BuildInput) (_ *sdk.CallToolResult, out BuildOutput, retErr error) {
	start := time.Now()
	defer func() {
		params := map[string]any{"config_yaml": args.ConfigYAML}
		setIf(params, "neurons", args.Neurons)
		setIf(params, "connections", args.Connections)
		setIf(params, "sensors", args.Sensors)
		setIf(params, "effectors", args.Effectors)
		setIf(params, "seed", args.Seed)
		s.auditTool("brain_build", out.Brain, start, retErr, sanitizeToolParams(params))
	}()

	if err := ratelimit.CheckLimit(s.limiters, "brain_build"); err != nil {
		return nil, BuildOutput{}, err
	}

	cfg, err := s.builderConfig(args)
	if err != nil {
		return nil, BuildOutput{}, err
	}
	b, err := brain.Build(cfg)
	if err != nil {
		return nil, BuildOutput{}, err
	}
	out, err = s.register(b, nil)
	return nil, out, err
}

// builderConfig layers config_yaml and explicit fields over the defaults.
func (s *Server) builderConfig(args BuildInput) (brain.BuilderConfig, error) {
	cfg := s.builder
	// fresh pointers so decoding never writes through to the defaults
	cfg.SynapseReconnectionRange = clonePtr(cfg.SynapseReconnectionRange)
	cfg.SynapseNewConnectionReceptors = clonePtr(cfg.SynapseNewConnectionReceptors)
	cfg.Seed = clonePtr(cfg.Seed)

	if args.ConfigYAML != "" {
		dec := yaml.NewDecoder(strings.NewReader(args.ConfigYAML))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("%w: config_yaml: %v", brain.ErrConfig, err)
		}
	}
	if args.Neurons != nil {
		cfg.Neurons = *args.Neurons
	}
	if args.Connections != nil {
		cfg.Connections = *args.Connections
	}
	if args.Sensors != nil {
		cfg.Sensors = *args.Sensors
	}
	if args.Effectors != nil {
		cfg.Effectors = *args.Effectors
	}
	if args.Radius != nil {
		cfg.Radius = *args.Radius
	}
	if args.Seed != nil {
		cfg.Seed = clonePtr(args.Seed)
	}
	return cfg, nil
}

// register adds b to the registry and describes it.
func (s *Server) register(b *brain.Brain, warnings []brain.Warning) (BuildOutput, error) {
	out := BuildOutput{
		Neurons:   b.NeuronCount(),
		Synapses:  b.SynapseCount(),
		Sensors:   uidStrings(b.Sensors()),
		Effectors: uidStrings(b.Effectors()),
	}
	for _, w := range warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	handle, err := s.brains.Add(b)
	if err != nil {
		return BuildOutput{}, err
	}
	out.Brain = handle
	s.logger.Debug("brain registered", "brain", handle, "neurons", out.Neurons, "synapses", out.Synapses)
	return out, nil
}

// handleBrainSensors implements the brain_sensors tool.
func (s *Server) handleBrainSensors(ctx context.Context, req *sdk.CallToolRequest, args BrainInput) (_ *sdk.CallToolResult, _ IDsOutput, retErr error) {
	return s.listRole(args.Brain, "brain_sensors", (*brain.Brain).Sensors)
}

// handleBrainEffectors implements the brain_effectors tool.
func (s *Server) handleBrainEffectors(ctx context.Context, req *sdk.CallToolRequest, args BrainInput) (_ *sdk.CallToolResult, _ IDsOutput, retErr error) {
	return s.listRole(args.Brain, "brain_effectors", (*brain.Brain).Effectors)
}

func (s *Server) listRole(handle, tool string, ids func(*brain.Brain) []brain.UID) (_ *sdk.CallToolResult, out IDsOutput, retErr error) {
	start := time.Now()
	defer func() { s.auditTool(tool, handle, start, retErr, nil) }()

	if err := ratelimit.CheckLimit(s.limiters, tool); err != nil {
		return nil, IDsOutput{}, err
	}
	err := s.brains.With(handle, func(b *brain.Brain) error {
		out.IDs = uidStrings(ids(b))
		out.Count = len(out.IDs)
		return nil
	})
	return nil, out, err
}

// handleBrainTriggerImpulse implements the brain_trigger_impulse tool.
func (s *Server) handleBrainTriggerImpulse(ctx context.Context, req *sdk.CallToolRequest, args TriggerInput) (_ *sdk.CallToolResult, out TriggerOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("brain_trigger_impulse", args.Brain, start, retErr, sanitizeToolParams(map[string]any{
			"sensor": args.Sensor, "potential": args.Potential,
		}))
	}()

	if err := ratelimit.CheckLimit(s.limiters, "brain_trigger_impulse"); err != nil {
		return nil, TriggerOutput{}, err
	}
	id, err := brain.ParseUID(args.Sensor)
	if err != nil {
		return nil, TriggerOutput{}, err
	}
	err = s.brains.With(args.Brain, func(b *brain.Brain) error {
		if err := b.TriggerImpulse(id, args.Potential); err != nil {
			return err
		}
		n, _ := b.Neuron(id)
		out.Potential = n.Potential
		return nil
	})
	return nil, out, err
}

// handleBrainProcess implements the brain_process tool.
func (s *Server) handleBrainProcess(ctx context.Context, req *sdk.CallToolRequest, args ProcessInput) (_ *sdk.CallToolResult, out ProcessOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("brain_process", args.Brain, start, retErr, sanitizeToolParams(map[string]any{"steps": args.Steps}))
	}()

	if err := ratelimit.CheckLimit(s.limiters, "brain_process"); err != nil {
		return nil, ProcessOutput{}, err
	}
	err := s.brains.With(args.Brain, func(b *brain.Brain) error {
		if err := b.Process(args.Steps); err != nil {
			return err
		}
		out = ProcessOutput{Step: b.Step(), Fired: b.FiredLastTick(), Pending: len(b.PendingArrivals())}
		return nil
	})
	return nil, out, err
}

// handleBrainEffectorRelease implements the brain_effector_release tool.
func (s *Server) handleBrainEffectorRelease(ctx context.Context, req *sdk.CallToolRequest, args ReleaseInput) (_ *sdk.CallToolResult, out ReleaseOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("brain_effector_release", args.Brain, start, retErr, sanitizeToolParams(map[string]any{
			"effector": args.Effector, "peek": args.Peek,
		}))
	}()

	if err := ratelimit.CheckLimit(s.limiters, "brain_effector_release"); err != nil {
		return nil, ReleaseOutput{}, err
	}
	id, err := brain.ParseUID(args.Effector)
	if err != nil {
		return nil, ReleaseOutput{}, err
	}
	err = s.brains.With(args.Brain, func(b *brain.Brain) error {
		var found bool
		if args.Peek {
			out.Potential, found = b.EffectorPotential(id)
		} else {
			out.Potential, found = b.EffectorPotentialRelease(id)
		}
		if !found {
			return fmt.Errorf("%w: effector %s", brain.ErrNotFound, id)
		}
		return nil
	})
	return nil, out, err
}

// handleBrainSynapseCount implements the brain_synapse_count tool.
func (s *Server) handleBrainSynapseCount(ctx context.Context, req *sdk.CallToolRequest, args BrainInput) (_ *sdk.CallToolResult, out CountOutput, retErr error) {
	start := time.Now()
	defer func() { s.auditTool("brain_synapse_count", args.Brain, start, retErr, nil) }()

	if err := ratelimit.CheckLimit(s.limiters, "brain_synapse_count"); err != nil {
		return nil, CountOutput{}, err
	}
	err := s.brains.With(args.Brain, func(b *brain.Brain) error {
		out = CountOutput{Synapses: b.SynapseCount(), Neurons: b.NeuronCount()}
		return nil
	})
	return nil, out, err
}

// handleBrainIgnite implements the brain_ignite tool.
func (s *Server) handleBrainIgnite(ctx context.Context, req *sdk.CallToolRequest, args IgniteInput) (_ *sdk.CallToolResult, out IgniteOutput, retErr error) {
	start := time.Now()
	defer func() {
		params := map[string]any{"min": args.Min, "max": args.Max}
		setIf(params, "count", args.Count)
		setIf(params, "fraction", args.Fraction)
		s.auditTool("brain_ignite", args.Brain, start, retErr, sanitizeToolParams(params))
	}()

	if err := ratelimit.CheckLimit(s.limiters, "brain_ignite"); err != nil {
		return nil, IgniteOutput{}, err
	}
	if f := args.Fraction; args.Count == nil && f != nil && (*f < 0 || *f > 1) {
		return nil, IgniteOutput{}, fmt.Errorf("%w: fraction must be in [0, 1], got %v", brain.ErrRange, *f)
	}
	err := s.brains.With(args.Brain, func(b *brain.Brain) error {
		count := b.SynapseCount()
		switch {
		case args.Count != nil:
			count = *args.Count
		case args.Fraction != nil:
			count = int(float64(count) * *args.Fraction)
		}
		if err := b.IgniteRandomSynapses(count, args.Min, args.Max); err != nil {
			return err
		}
		out.Ignited = count
		return nil
	})
	return nil, out, err
}

// handleBrainSerialize implements the brain_serialize tool.
func (s *Server) handleBrainSerialize(ctx context.Context, req *sdk.CallToolRequest, args BrainInput) (_ *sdk.CallToolResult, out SerializeOutput, retErr error) {
	start := time.Now()
	defer func() { s.auditTool("brain_serialize", args.Brain, start, retErr, nil) }()

	if err := ratelimit.CheckLimit(s.limiters, "brain_serialize"); err != nil {
		return nil, SerializeOutput{}, err
	}
	err := s.brains.With(args.Brain, func(b *brain.Brain) error {
		doc, err := codec.Marshal(b)
		if err != nil {
			return err
		}
		out.Document = string(doc)
		return nil
	})
	return nil, out, err
}

// handleBrainDeserialize implements the brain_deserialize tool.
func (s *Server) handleBrainDeserialize(ctx context.Context, req *sdk.CallToolRequest, args DeserializeInput) (_ *sdk.CallToolResult, out BuildOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("brain_deserialize", out.Brain, start, retErr, sanitizeToolParams(map[string]any{
			"document": len(args.Document), "strict": args.Strict, "drop_in_flight": args.DropInFlight,
		}))
	}()

	if err := ratelimit.CheckLimit(s.limiters, "brain_deserialize"); err != nil {
		return nil, BuildOutput{}, err
	}
	b, warnings, err := codec.Unmarshal([]byte(args.Document), codec.DecodeOptions{
		Strict:       args.Strict,
		DropInFlight: args.DropInFlight,
		Logger:       s.logger,
	})
	if err != nil {
		return nil, BuildOutput{}, err
	}
	out, err = s.register(b, warnings)
	return nil, out, err
}

// handleBrainStats implements the brain_stats tool.
func (s *Server) handleBrainStats(ctx context.Context, req *sdk.CallToolRequest, args BrainInput) (_ *sdk.CallToolResult, out StatsOutput, retErr error) {
	start := time.Now()
	defer func() { s.auditTool("brain_stats", args.Brain, start, retErr, nil) }()

	if err := ratelimit.CheckLimit(s.limiters, "brain_stats"); err != nil {
		return nil, StatsOutput{}, err
	}
	err := s.brains.With(args.Brain, func(b *brain.Brain) error {
		out.Stats = b.Stats()
		return nil
	})
	return nil, out, err
}

// handleBrainDestroy implements the brain_destroy tool.
func (s *Server) handleBrainDestroy(ctx context.Context, req *sdk.CallToolRequest, args BrainInput) (_ *sdk.CallToolResult, _ DestroyOutput, retErr error) {
	start := time.Now()
	defer func() { s.auditTool("brain_destroy", args.Brain, start, retErr, nil) }()

	if err := ratelimit.CheckLimit(s.limiters, "brain_destroy"); err != nil {
		return nil, DestroyOutput{}, err
	}
	if err := s.brains.Remove(args.Brain); err != nil {
		return nil, DestroyOutput{}, err
	}
	return nil, DestroyOutput{Destroyed: true}, nil
}

// handleBrainGrow implements the brain_grow tool.
func (s *Server) handleBrainGrow(ctx context.Context, req *sdk.CallToolRequest, args GrowInput) (_ *sdk.CallToolResult, out GrowOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("brain_grow", args.Brain, start, retErr, sanitizeToolParams(map[string]any{
			"neurons": args.Neurons, "connections": args.Connections,
		}))
	}()

	if err := ratelimit.CheckLimit(s.limiters, "brain_grow"); err != nil {
		return nil, GrowOutput{}, err
	}
	err := s.brains.With(args.Brain, func(b *brain.Brain) error {
		res, err := b.Grow(brain.GrowthOptions{
			Neurons:     args.Neurons,
			Connections: args.Connections,
			Sensors:     args.Sensors,
			Effectors:   args.Effectors,
		})
		if err != nil {
			return err
		}
		out = GrowOutput{
			NeuronIDs:   uidStrings(res.NeuronIDs),
			SensorIDs:   uidStrings(res.SensorIDs),
			EffectorIDs: uidStrings(res.EffectorIDs),
			Synapses:    res.Synapses,
		}
		return nil
	})
	return nil, out, err
}

// handleBrainReconnect implements the brain_reconnect tool.
func (s *Server) handleBrainReconnect(ctx context.Context, req *sdk.CallToolRequest, args BrainInput) (_ *sdk.CallToolResult, out ReconnectOutput, retErr error) {
	start := time.Now()
	defer func() { s.auditTool("brain_reconnect", args.Brain, start, retErr, nil) }()

	if err := ratelimit.CheckLimit(s.limiters, "brain_reconnect"); err != nil {
		return nil, ReconnectOutput{}, err
	}
	err := s.brains.With(args.Brain, func(b *brain.Brain) error {
		moved, err := b.Reconnect()
		out.Moved = moved
		return err
	})
	return nil, out, err
}

// handleBrainRender implements the brain_render tool.
func (s *Server) handleBrainRender(ctx context.Context, req *sdk.CallToolRequest, args RenderInput) (_ *sdk.CallToolResult, out RenderOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("brain_render", args.Brain, start, retErr, sanitizeToolParams(map[string]any{"format": args.Format}))
	}()

	if err := ratelimit.CheckLimit(s.limiters, "brain_render"); err != nil {
		return nil, RenderOutput{}, err
	}
	format := visualization.Format(args.Format)
	if format == "" {
		format = visualization.FormatJSON
	}
	if format != visualization.FormatJSON && format != visualization.FormatDOT {
		return nil, RenderOutput{}, fmt.Errorf("%w: unsupported format %q (use dot or json)", brain.ErrConfig, args.Format)
	}
	out.Format = string(format)
	err := s.brains.With(args.Brain, func(b *brain.Brain) error {
		if format == visualization.FormatDOT {
			out.DOT = visualization.RenderDOT(b)
			return nil
		}
		m := visualization.BuildActivityMap(b)
		out.Activity = &m
		return nil
	})
	return nil, out, err
}

// handleBrainList implements the brain_list tool.
func (s *Server) handleBrainList(ctx context.Context, req *sdk.CallToolRequest, args ListInput) (_ *sdk.CallToolResult, _ ListOutput, retErr error) {
	start := time.Now()
	defer func() { s.auditTool("brain_list", "", start, retErr, nil) }()

	if err := ratelimit.CheckLimit(s.limiters, "brain_list"); err != nil {
		return nil, ListOutput{}, err
	}
	handles := s.brains.Handles()
	return nil, ListOutput{Brains: handles, Count: len(handles)}, nil
}

// handleBrainSave implements the brain_save tool.
func (s *Server) handleBrainSave(ctx context.Context, req *sdk.CallToolRequest, args SaveInput) (_ *sdk.CallToolResult, out SaveOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("brain_save", args.Brain, start, retErr, sanitizeToolParams(map[string]any{
			"name": args.Name, "tag": strings.Join(args.Tags, ","),
		}))
	}()

	if err := ratelimit.CheckLimit(s.limiters, "brain_save"); err != nil {
		return nil, SaveOutput{}, err
	}
	err := s.brains.With(args.Brain, func(b *brain.Brain) error {
		if err := store.SaveBrain(ctx, s.store, args.Name, b, args.Tags...); err != nil {
			return err
		}
		out = SaveOutput{Name: args.Name, Step: b.Step(), Neurons: b.NeuronCount(), Synapses: b.SynapseCount()}
		return nil
	})
	return nil, out, err
}

// handleBrainLoad implements the brain_load tool.
func (s *Server) handleBrainLoad(ctx context.Context, req *sdk.CallToolRequest, args LoadInput) (_ *sdk.CallToolResult, out BuildOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("brain_load", out.Brain, start, retErr, sanitizeToolParams(map[string]any{
			"name": args.Name, "strict": args.Strict, "drop_in_flight": args.DropInFlight,
		}))
	}()

	if err := ratelimit.CheckLimit(s.limiters, "brain_load"); err != nil {
		return nil, BuildOutput{}, err
	}
	b, warnings, err := store.LoadBrain(ctx, s.store, args.Name, codec.DecodeOptions{
		Strict:       args.Strict,
		DropInFlight: args.DropInFlight,
		Logger:       s.logger,
	})
	if err != nil {
		return nil, BuildOutput{}, err
	}
	out, err = s.register(b, warnings)
	return nil, out, err
}

func uidStrings(ids []brain.UID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// setIf records an optional parameter for auditing.
func setIf[T any](params map[string]any, key string, p *T) {
	if p != nil {
		params[key] = *p
	}
}
