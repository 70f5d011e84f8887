package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/psyche/internal/codec"
	"gopkg.in/yaml.v3"
)

func TestValidateCmd_Valid(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	configPath := writeTestConfig(t, tmpDir)
	brainPath := buildBrainFile(t, tmpDir, configPath)

	out, err := runCmd(t, newValidateCmd(), "validate", brainPath)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "is valid") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestValidateCmd_SelfLoop(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	configPath := writeTestConfig(t, tmpDir)
	brainPath := buildBrainFile(t, tmpDir, configPath)

	f, err := os.Open(brainPath)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := codec.DecodeSnapshot(f, true)
	f.Close()
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	snap.Synapses[0].Target = snap.Synapses[0].Source
	data, err := yaml.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(tmpDir, "broken.yaml")
	if err := os.WriteFile(broken, data, 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, newValidateCmd(), "validate", broken, "--json")
	if err == nil {
		t.Fatal("expected error for invalid brain")
	}
	var result struct {
		Valid      bool `json:"valid"`
		ErrorCount int  `json:"error_count"`
		Errors     []struct {
			Issue string `json:"issue"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if result.Valid || result.ErrorCount == 0 {
		t.Fatalf("expected errors, got %+v", result)
	}
	found := false
	for _, e := range result.Errors {
		if e.Issue == "self-reference" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a self-reference issue, got %+v", result.Errors)
	}
}
