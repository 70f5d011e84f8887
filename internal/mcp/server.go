package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/logging"
	"github.com/nvandessel/psyche/internal/ratelimit"
	"github.com/nvandessel/psyche/internal/store"
)

// Server wraps the MCP SDK server and the brains it owns.
type Server struct {
	server   *sdk.Server
	brains   *Registry
	builder  brain.BuilderConfig
	store    store.SnapshotStore
	limiters ratelimit.ToolLimiters
	audit    *AuditLogger
	logger   *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "psyche")
	Version string // Server version

	// Builder is the base config for brain_build.
	Builder brain.BuilderConfig

	// MaxBrains caps live brains.
	MaxBrains int

	// RateLimit is calls per second per tool; 0 disables limiting.
	RateLimit float64
	Burst     int

	// Store enables brain_save and brain_load when set. The server does not
	// close it.
	Store store.SnapshotStore

	// AuditDir receives audit.jsonl when set.
	AuditDir string

	Logger *slog.Logger
}

// toolNames lists every tool the server can register.
var toolNames = []string{
	"brain_build", "brain_sensors", "brain_effectors", "brain_trigger_impulse",
	"brain_process", "brain_effector_release", "brain_synapse_count", "brain_ignite",
	"brain_serialize", "brain_deserialize", "brain_stats", "brain_destroy",
	"brain_grow", "brain_reconnect", "brain_render", "brain_list",
	"brain_save", "brain_load",
}

// NewServer creates a new MCP server with the brain tools registered.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.MaxBrains < 1 {
		return nil, fmt.Errorf("%w: max brains must be at least 1, got %d", brain.ErrConfig, cfg.MaxBrains)
	}
	if err := cfg.Builder.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:  mcpServer,
		brains:  NewRegistry(cfg.MaxBrains),
		builder: cfg.Builder,
		store:   cfg.Store,
		audit:   NewAuditLogger(cfg.AuditDir),
		logger:  logger,
	}
	if cfg.RateLimit > 0 {
		s.limiters = ratelimit.NewToolLimiters(cfg.RateLimit, cfg.Burst, toolNames...)
	}

	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until the client disconnects, the context is
// cancelled, or the process receives an interrupt.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info("mcp server started", "max_brains", s.brains.limit)
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.Close()
	return err
}

// Close releases the audit log. Registered brains are dropped with the server.
func (s *Server) Close() error {
	return s.audit.Close()
}
