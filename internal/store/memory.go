package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/nvandessel/psyche/internal/brain"
)

// InMemoryStore implements SnapshotStore for testing and ephemeral sessions.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// Save stores a copy of rec.
func (s *InMemoryStore) Save(ctx context.Context, rec Record) error {
	if err := validName(rec.Name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	rec.Document = slices.Clone(rec.Document)
	rec.Tags = normalizeTags(rec.Tags)
	rec.ContentHash = contentHash(rec.Document)
	rec.CreatedAt = now
	if old, ok := s.records[rec.Name]; ok {
		rec.CreatedAt = old.CreatedAt
	}
	rec.UpdatedAt = now
	s.records[rec.Name] = rec
	return nil
}

// Load retrieves a record by name.
func (s *InMemoryStore) Load(ctx context.Context, name string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: snapshot %q", brain.ErrNotFound, name)
	}
	rec.Document = slices.Clone(rec.Document)
	rec.Tags = slices.Clone(rec.Tags)
	return &rec, nil
}

// List returns record summaries ordered by name.
func (s *InMemoryStore) List(ctx context.Context, tag string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Record{}
	for _, name := range slices.Sorted(maps.Keys(s.records)) {
		rec := s.records[name]
		if tag != "" && !slices.Contains(rec.Tags, tag) {
			continue
		}
		rec.Document = nil
		rec.Tags = slices.Clone(rec.Tags)
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes a record by name.
func (s *InMemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[name]; !ok {
		return fmt.Errorf("%w: snapshot %q", brain.ErrNotFound, name)
	}
	delete(s.records, name)
	return nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error { return nil }
