package mcp

import (
	"errors"
	"testing"

	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/store"
)

func testConfig() *Config {
	cfg := brain.DefaultBuilderConfig()
	cfg.Neurons = 40
	cfg.Connections = 80
	cfg.Sensors = 4
	cfg.Effectors = 2
	cfg.Radius = 6
	cfg.MaxNeurogenesisRange = 3
	seed := uint64(11)
	cfg.Seed = &seed
	return &Config{
		Name:      "psyche-test",
		Version:   "v0.0.0",
		Builder:   cfg,
		MaxBrains: 4,
	}
}

func newTestServer(t *testing.T, mutate ...func(*Config)) *Server {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t)
	if s.server == nil {
		t.Error("Server.server is nil")
	}
	if s.brains == nil || s.brains.limit != 4 {
		t.Error("registry not configured")
	}
	if s.limiters != nil {
		t.Error("rate limiting should be off with RateLimit 0")
	}
}

func TestNewServer_Invalid(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBrains = 0
	if _, err := NewServer(cfg); !errors.Is(err, brain.ErrConfig) {
		t.Errorf("MaxBrains 0: got %v want ErrConfig", err)
	}

	cfg = testConfig()
	cfg.Builder.Radius = -1
	if _, err := NewServer(cfg); !errors.Is(err, brain.ErrConfig) {
		t.Errorf("bad builder: got %v want ErrConfig", err)
	}
}

func TestNewServer_RateLimits(t *testing.T) {
	s := newTestServer(t, func(c *Config) {
		c.RateLimit = 1
		c.Burst = 1
	})
	if len(s.limiters) != len(toolNames) {
		t.Errorf("limiters = %d, want %d", len(s.limiters), len(toolNames))
	}
}

func TestNewServer_WithStore(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.Store = store.NewInMemoryStore() })
	if s.store == nil {
		t.Error("store not set")
	}
}
