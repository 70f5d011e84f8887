package backup

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/codec"
)

func testBrain(t *testing.T) *brain.Brain {
	t.Helper()
	cfg := brain.DefaultBuilderConfig()
	cfg.Neurons, cfg.Connections, cfg.Sensors, cfg.Effectors, cfg.Radius = 25, 40, 2, 2, 5
	seed := uint64(13)
	cfg.Seed = &seed
	b, err := brain.Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return b
}

func TestWriteRead_RoundTrip(t *testing.T) {
	b := testBrain(t)
	if err := b.IgniteRandomSynapses(10, 1, 2); err != nil {
		t.Fatalf("IgniteRandomSynapses: %v", err)
	}
	if err := b.Process(2); err != nil {
		t.Fatalf("Process: %v", err)
	}

	path := filepath.Join(t.TempDir(), "nested", "b"+Ext)
	header, err := Write(path, b, map[string]string{"run": "a"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if header.Step != 2 || header.Neurons != 25 || header.Synapses != 40 {
		t.Errorf("unexpected header %+v", header)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("archive permissions = %o, want 600", perm)
	}

	restored, readHeader, err := Read(path, codec.DecodeOptions{Strict: true})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if readHeader.Checksum != header.Checksum || readHeader.Metadata["run"] != "a" {
		t.Errorf("header changed: %+v vs %+v", readHeader, header)
	}

	want, _ := codec.Marshal(b)
	got, _ := codec.Marshal(restored)
	if !bytes.Equal(want, got) {
		t.Error("restored brain differs from the archived one")
	}
}

func TestVerifyChecksum_Tampered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "b"+Ext)
	if _, err := Write(path, testBrain(t), nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := VerifyChecksum(path); err != nil {
		t.Fatalf("fresh archive failed verification: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-5] ^= 0xff
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := VerifyChecksum(path); !errors.Is(err, brain.ErrParse) {
		t.Errorf("expected ErrParse for tampered archive, got %v", err)
	}
	if _, _, err := Read(path, codec.DecodeOptions{}); !errors.Is(err, brain.ErrParse) {
		t.Errorf("expected ErrParse reading tampered archive, got %v", err)
	}
}

func TestReadHeader_NotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brain.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nstep: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadHeader(path); !errors.Is(err, brain.ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}
