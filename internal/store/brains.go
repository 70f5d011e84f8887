package store

import (
	"context"
	"fmt"

	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/codec"
)

// SaveBrain serializes b and stores it under name.
func SaveBrain(ctx context.Context, s SnapshotStore, name string, b *brain.Brain, tags ...string) error {
	doc, err := codec.Marshal(b)
	if err != nil {
		return err
	}
	return s.Save(ctx, Record{
		Name:     name,
		Document: doc,
		Tags:     tags,
		Step:     b.Step(),
		Neurons:  b.NeuronCount(),
		Synapses: b.SynapseCount(),
	})
}

// LoadBrain restores the brain stored under name.
func LoadBrain(ctx context.Context, s SnapshotStore, name string, opts codec.DecodeOptions) (*brain.Brain, []brain.Warning, error) {
	rec, err := s.Load(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	b, warnings, err := codec.Unmarshal(rec.Document, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %q: %w", name, err)
	}
	return b, warnings, nil
}
