package mcp

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/nvandessel/psyche/internal/brain"
)

// Registry owns the brains a server hands out. Each brain sits behind its own
// mutex so calls on different brains run concurrently while calls on one
// brain are serialized.
type Registry struct {
	mu     sync.Mutex
	brains map[string]*entry
	limit  int
}

type entry struct {
	mu sync.Mutex
	b  *brain.Brain
}

// NewRegistry creates a registry holding at most limit brains.
func NewRegistry(limit int) *Registry {
	return &Registry{brains: make(map[string]*entry), limit: limit}
}

// Add registers b and returns its handle.
func (r *Registry) Add(b *brain.Brain) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.brains) >= r.limit {
		return "", fmt.Errorf("%w: registry is full (%d brains), destroy one first", brain.ErrRange, r.limit)
	}
	handle := uuid.NewString()
	r.brains[handle] = &entry{b: b}
	return handle, nil
}

// With runs fn on the brain behind handle while holding that brain's lock.
func (r *Registry) With(handle string, fn func(b *brain.Brain) error) error {
	r.mu.Lock()
	e, ok := r.brains[handle]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: brain %q", brain.ErrNotFound, handle)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.b == nil {
		return fmt.Errorf("%w: brain %q was destroyed", brain.ErrNotFound, handle)
	}
	return fn(e.b)
}

// Remove drops handle. Calls already holding the brain finish first.
func (r *Registry) Remove(handle string) error {
	r.mu.Lock()
	e, ok := r.brains[handle]
	delete(r.brains, handle)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: brain %q", brain.ErrNotFound, handle)
	}
	e.mu.Lock()
	e.b = nil
	e.mu.Unlock()
	return nil
}

// Handles lists registered handles in sorted order.
func (r *Registry) Handles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.brains))
}

// Len returns the number of registered brains.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.brains)
}
