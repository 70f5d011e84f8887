// Package config provides unified configuration loading for psyche.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/logging"
	"gopkg.in/yaml.v3"
)

// Dir is the per-user directory holding config.yaml and the default store.
const Dir = ".psyche"

// PsycheConfig contains all psyche configuration settings.
type PsycheConfig struct {
	// Builder holds the default brain generation parameters.
	Builder brain.BuilderConfig `json:"builder" yaml:"builder"`

	// Simulation configures the timeline runner.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Store selects where brain snapshots are kept.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Server configures the MCP tool server.
	Server ServerConfig `json:"server" yaml:"server"`
}

// SimulationConfig configures `psyche simulate`.
type SimulationConfig struct {
	// Steps is the number of ticks to run when none is given.
	Steps int `json:"steps" yaml:"steps"`

	// Workers bounds parallel runs in a batch.
	Workers int `json:"workers" yaml:"workers"`

	// Seed drives the timeline's random sensor and synapse choices.
	Seed uint64 `json:"seed" yaml:"seed"`

	// Timeline is an optional path to a timeline YAML file.
	Timeline string `json:"timeline,omitempty" yaml:"timeline,omitempty"`
}

// StoreConfig selects the snapshot store backend.
type StoreConfig struct {
	// Backend is "sqlite" (default) or "memory".
	Backend string `json:"backend" yaml:"backend"`

	// Path is the SQLite database file. Empty means ~/.psyche/psyche.db.
	// Supports ${VAR} expansion.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig configures psyche's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "error", "warn", "info" (default), "debug" or "trace".
	// "debug" and "trace" also write a per-tick trace to TraceDir.
	Level string `json:"level" yaml:"level"`

	// TraceDir is where trace.jsonl is written. Empty means ~/.psyche.
	TraceDir string `json:"trace_dir,omitempty" yaml:"trace_dir,omitempty"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// MaxBrains caps the number of live brains in the registry.
	MaxBrains int `json:"max_brains" yaml:"max_brains"`

	// RateLimit is the sustained tool calls per second; 0 disables limiting.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// Burst is the rate limiter's bucket size.
	Burst int `json:"burst" yaml:"burst"`
}

// Default returns a PsycheConfig with sensible defaults.
func Default() *PsycheConfig {
	return &PsycheConfig{
		Builder: brain.DefaultBuilderConfig(),
		Simulation: SimulationConfig{
			Steps:   100,
			Workers: 4,
		},
		Store: StoreConfig{
			Backend: "sqlite",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			MaxBrains: 64,
			RateLimit: 50,
			Burst:     100,
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.psyche/config.yaml -> environment variables
func Load() (*PsycheConfig, error) {
	config := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, Dir, "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadPath loads path when it is set and the default locations otherwise.
// Environment variables override both.
func LoadPath(path string) (*PsycheConfig, error) {
	if path == "" {
		return Load()
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys absent
// from the file keep their defaults.
func LoadFromFile(path string) (*PsycheConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: parsing config file: %v", brain.ErrConfig, err)
	}

	config.Store.Path = expandEnvVars(config.Store.Path)
	config.Logging.TraceDir = expandEnvVars(config.Logging.TraceDir)
	return config, nil
}

// Validate checks that the configuration is valid.
func (c *PsycheConfig) Validate() error {
	if err := c.Builder.Validate(); err != nil {
		return fmt.Errorf("builder: %w", err)
	}
	if c.Simulation.Steps < 0 {
		return fmt.Errorf("%w: simulation.steps must be non-negative, got %d", brain.ErrConfig, c.Simulation.Steps)
	}
	if c.Simulation.Workers < 1 {
		return fmt.Errorf("%w: simulation.workers must be at least 1, got %d", brain.ErrConfig, c.Simulation.Workers)
	}
	switch c.Store.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("%w: invalid store backend: %s (valid: sqlite, memory)", brain.ErrConfig, c.Store.Backend)
	}
	if c.Logging.Level != "" && !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: invalid log level: %s (valid: error, warn, info, debug, trace, or empty for default)",
			brain.ErrConfig, c.Logging.Level)
	}
	if c.Server.MaxBrains < 1 {
		return fmt.Errorf("%w: server.max_brains must be at least 1, got %d", brain.ErrConfig, c.Server.MaxBrains)
	}
	if c.Server.RateLimit < 0 || (c.Server.RateLimit > 0 && c.Server.Burst < 1) {
		return fmt.Errorf("%w: server.rate_limit must be non-negative with burst >= 1", brain.ErrConfig)
	}
	return nil
}

// DefaultDir returns ~/.psyche, falling back to ./.psyche without a home directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return Dir
	}
	return filepath.Join(home, Dir)
}

// StorePath resolves the SQLite database path.
func (c *PsycheConfig) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(DefaultDir(), "psyche.db")
}

// TraceDir resolves the trace output directory.
func (c *PsycheConfig) TraceDir() string {
	if c.Logging.TraceDir != "" {
		return c.Logging.TraceDir
	}
	return DefaultDir()
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *PsycheConfig) error {
	if v := os.Getenv("PSYCHE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("PSYCHE_STORE_BACKEND"); v != "" {
		config.Store.Backend = v
	}
	if v := os.Getenv("PSYCHE_STORE_PATH"); v != "" {
		config.Store.Path = v
	}
	if v := os.Getenv("PSYCHE_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: PSYCHE_SEED: %v", brain.ErrConfig, err)
		}
		config.Builder.Seed = &seed
	}
	if v := os.Getenv("PSYCHE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PSYCHE_WORKERS: %v", brain.ErrConfig, err)
		}
		config.Simulation.Workers = n
	}
	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
