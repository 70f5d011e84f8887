package mcp

import (
	"errors"
	"sync"
	"testing"

	"github.com/nvandessel/psyche/internal/brain"
)

func tinyBrain(t *testing.T) *brain.Brain {
	t.Helper()
	cfg := brain.DefaultBuilderConfig()
	cfg.Neurons = 10
	cfg.Connections = 12
	cfg.Sensors = 2
	cfg.Effectors = 2
	seed := uint64(3)
	cfg.Seed = &seed
	b, err := brain.Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return b
}

func TestRegistry_AddWithRemove(t *testing.T) {
	r := NewRegistry(2)
	b := tinyBrain(t)

	h, err := r.Add(b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	var got *brain.Brain
	if err := r.With(h, func(x *brain.Brain) error { got = x; return nil }); err != nil {
		t.Fatalf("With: %v", err)
	}
	if got != b {
		t.Error("With did not hand back the registered brain")
	}
	if r.Len() != 1 || r.Handles()[0] != h {
		t.Errorf("handles = %v", r.Handles())
	}

	if err := r.Remove(h); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := r.With(h, func(*brain.Brain) error { return nil }); !errors.Is(err, brain.ErrNotFound) {
		t.Errorf("With after Remove: got %v want ErrNotFound", err)
	}
	if err := r.Remove(h); !errors.Is(err, brain.ErrNotFound) {
		t.Errorf("second Remove: got %v want ErrNotFound", err)
	}
}

func TestRegistry_Full(t *testing.T) {
	r := NewRegistry(1)
	if _, err := r.Add(tinyBrain(t)); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Add(tinyBrain(t)); !errors.Is(err, brain.ErrRange) {
		t.Errorf("got %v want ErrRange", err)
	}
}

func TestRegistry_PropagatesError(t *testing.T) {
	r := NewRegistry(1)
	h, _ := r.Add(tinyBrain(t))
	want := errors.New("boom")
	if err := r.With(h, func(*brain.Brain) error { return want }); !errors.Is(err, want) {
		t.Errorf("got %v want %v", err, want)
	}
}

func TestRegistry_SerializesPerBrain(t *testing.T) {
	r := NewRegistry(1)
	h, _ := r.Add(tinyBrain(t))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.With(h, func(b *brain.Brain) error { return b.Process(1) })
		}()
	}
	wg.Wait()

	r.With(h, func(b *brain.Brain) error {
		if b.Step() != 20 {
			t.Errorf("step = %d, want 20", b.Step())
		}
		return nil
	})
}
