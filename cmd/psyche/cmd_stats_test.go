package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/visualization"
)

func TestStatsCmd(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	configPath := writeTestConfig(t, tmpDir)
	brainPath := buildBrainFile(t, tmpDir, configPath)

	out, err := runCmd(t, newStatsCmd(), "stats", brainPath, "--config", configPath, "--json")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	var st brain.ActivityStats
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if st.Neurons != 30 || st.Synapses != 60 || st.Sensors != 3 || st.Effectors != 2 {
		t.Errorf("unexpected stats %+v", st)
	}

	out, err = runCmd(t, newStatsCmd(), "stats", brainPath, "--config", configPath)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !strings.Contains(out, "Neurons:   30 (3 sensors, 2 effectors)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestStatsCmd_Source(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	configPath := writeTestConfig(t, tmpDir)
	brainPath := buildBrainFile(t, tmpDir, configPath)

	if _, err := runCmd(t, newStatsCmd(), "stats", "--config", configPath); err == nil {
		t.Error("expected error without a brain")
	}
	if _, err := runCmd(t, newStatsCmd(), "stats", brainPath, "--snapshot", "x", "--config", configPath); err == nil {
		t.Error("expected error for file and snapshot together")
	}
	if _, err := runCmd(t, newStatsCmd(), "stats", "--snapshot", "missing", "--config", configPath); err == nil {
		t.Error("expected error for unknown snapshot")
	}
}

func TestDotCmd(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	configPath := writeTestConfig(t, tmpDir)
	brainPath := buildBrainFile(t, tmpDir, configPath)

	out, err := runCmd(t, newDotCmd(), "dot", brainPath, "--config", configPath)
	if err != nil {
		t.Fatalf("dot failed: %v", err)
	}
	if !strings.HasPrefix(out, "digraph psyche {") {
		t.Errorf("unexpected DOT output:\n%s", out)
	}
	if got := strings.Count(out, "->"); got != 60 {
		t.Errorf("expected 60 edges, got %d", got)
	}

	out, err = runCmd(t, newDotCmd(), "dot", brainPath, "--config", configPath, "--format", "json")
	if err != nil {
		t.Fatalf("dot --format json failed: %v", err)
	}
	var am visualization.ActivityMap
	if err := json.Unmarshal([]byte(out), &am); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(am.Connections) != 60 || len(am.Sensors) != 3 {
		t.Errorf("unexpected activity map: %d connections, %d sensors", len(am.Connections), len(am.Sensors))
	}

	if _, err := runCmd(t, newDotCmd(), "dot", brainPath, "--config", configPath, "--format", "svg"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
