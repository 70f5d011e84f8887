package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/codec"
)

func TestSnapshotCmd_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	configPath := writeTestConfig(t, tmpDir)
	brainPath := buildBrainFile(t, tmpDir, configPath)

	out, err := runCmd(t, newSnapshotCmd(), "snapshot", "save", "first", brainPath, "--config", configPath, "--tag", "a")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.Contains(out, `Saved snapshot "first"`) {
		t.Errorf("unexpected save output %q", out)
	}
	if _, err := runCmd(t, newSnapshotCmd(), "snapshot", "save", "second", brainPath, "--config", configPath); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	out, err = runCmd(t, newSnapshotCmd(), "snapshot", "list", "--config", configPath, "--json")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var listing struct {
		Count     int `json:"count"`
		Snapshots []struct {
			Name    string   `json:"name"`
			Neurons int      `json:"neurons"`
			Tags    []string `json:"tags"`
		} `json:"snapshots"`
	}
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if listing.Count != 2 || listing.Snapshots[0].Name != "first" || listing.Snapshots[0].Neurons != 30 {
		t.Errorf("unexpected listing %+v", listing)
	}

	loaded := filepath.Join(tmpDir, "loaded.yaml")
	if _, err := runCmd(t, newSnapshotCmd(), "snapshot", "load", "first", "-o", loaded, "--config", configPath); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	original, _ := os.ReadFile(brainPath)
	restored, err := os.ReadFile(loaded)
	if err != nil {
		t.Fatalf("loaded file missing: %v", err)
	}
	if string(original) != string(restored) {
		t.Error("loaded document differs from the saved one")
	}

	if _, err := runCmd(t, newSnapshotCmd(), "snapshot", "delete", "first", "--config", configPath); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	_, err = runCmd(t, newSnapshotCmd(), "snapshot", "load", "first", "--config", configPath)
	if !errors.Is(err, brain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := runCmd(t, newSnapshotCmd(), "snapshot", "delete", "first", "--config", configPath); !errors.Is(err, brain.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestSnapshotCmd_LoadToStdout(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	configPath := writeTestConfig(t, tmpDir)
	if _, err := runCmd(t, newBuildCmd(), "build", "--config", configPath, "--save", "net"); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	out, err := runCmd(t, newSnapshotCmd(), "snapshot", "load", "net", "--config", configPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	b, _, err := codec.Unmarshal([]byte(out), codec.DecodeOptions{Strict: true})
	if err != nil {
		t.Fatalf("stdout is not a brain: %v", err)
	}
	if b.SynapseCount() != 60 {
		t.Errorf("expected 60 synapses, got %d", b.SynapseCount())
	}
}

func TestSnapshotCmd_EmptyList(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	configPath := writeTestConfig(t, tmpDir)

	out, err := runCmd(t, newSnapshotCmd(), "snapshot", "list", "--config", configPath)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "No snapshots stored.") {
		t.Errorf("unexpected output %q", out)
	}
}
