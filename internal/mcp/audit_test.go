package mcp

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAuditLogger_NilSafety(t *testing.T) {
	t.Run("nil logger Log is no-op", func(t *testing.T) {
		var logger *AuditLogger
		logger.Log(AuditEntry{Tool: "test"})
	})

	t.Run("nil logger Close is no-op", func(t *testing.T) {
		var logger *AuditLogger
		if err := logger.Close(); err != nil {
			t.Errorf("Close() on nil logger returned error: %v", err)
		}
	})

	t.Run("empty dir disables logging", func(t *testing.T) {
		if logger := NewAuditLogger(""); logger != nil {
			t.Error("expected nil logger for empty dir")
		}
	})
}

func readAudit(t *testing.T, dir string) []AuditEntry {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatalf("reading audit log: %v", err)
	}
	var entries []AuditEntry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var e AuditEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("parsing audit entry %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestAuditLogger_WritesJSONL(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}

	logger.Log(AuditEntry{
		Timestamp:  time.Now(),
		Tool:       "brain_process",
		Brain:      "h1",
		DurationMs: 42,
		Status:     "success",
		Params:     map[string]string{"steps": "10"},
	})
	logger.Log(AuditEntry{Timestamp: time.Now(), Tool: "brain_stats", Status: "error", Error: "not found"})
	logger.Close()

	entries := readAudit(t, dir)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if e := entries[0]; e.Tool != "brain_process" || e.Brain != "h1" || e.DurationMs != 42 || e.Params["steps"] != "10" {
		t.Errorf("first entry = %+v", e)
	}
	if e := entries[1]; e.Status != "error" || e.Error != "not found" {
		t.Errorf("second entry = %+v", e)
	}
}

func TestAuditLogger_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	defer logger.Close()

	info, err := os.Stat(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
}

func TestAuditLogger_ConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Log(AuditEntry{Timestamp: time.Now(), Tool: "brain_stats", Status: "success"})
		}()
	}
	wg.Wait()
	logger.Close()

	if n := len(readAudit(t, dir)); n != 50 {
		t.Errorf("entries = %d, want 50", n)
	}
}

func TestAuditLogger_NonFatalOnBadPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if logger := NewAuditLogger(filepath.Join(file, "sub")); logger != nil {
		t.Error("expected nil logger for unusable directory")
	}
}

func TestSanitizeToolParams(t *testing.T) {
	got := sanitizeToolParams(map[string]any{
		"steps":    25,
		"document": "version: 1\n...",
		"sensor":   "00000000-0000-4000-8000-000000000001",
		"unknown":  "secret",
	})

	if got["steps"] != "25" {
		t.Errorf("steps = %q, want 25", got["steps"])
	}
	if got["document"] != "(set)" || got["sensor"] != "(set)" {
		t.Errorf("presence-only params leaked: %v", got)
	}
	if _, ok := got["unknown"]; ok {
		t.Error("unknown param logged")
	}
	if got["_param_count"] != "4" {
		t.Errorf("_param_count = %q, want 4", got["_param_count"])
	}
	if sanitizeToolParams(nil) != nil {
		t.Error("nil params should give nil")
	}
}

func TestAuditTool(t *testing.T) {
	dir := t.TempDir()
	s := &Server{audit: NewAuditLogger(dir)}

	start := time.Now()
	s.auditTool("brain_process", "h1", start, nil, map[string]string{"steps": "1"})
	s.auditTool("brain_process", "h1", start, errors.New("boom"), nil)
	s.audit.Close()

	entries := readAudit(t, dir)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Status != "success" || entries[1].Status != "error" || entries[1].Error != "boom" {
		t.Errorf("entries = %+v", entries)
	}
}
