// Package codec reads and writes brains as YAML documents.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nvandessel/psyche/internal/brain"
	"gopkg.in/yaml.v3"
)

// DecodeOptions controls how a document is turned back into a brain.
type DecodeOptions struct {
	// Strict rejects unknown keys and any malformed entry with brain.ErrParse.
	// Otherwise unknown keys are ignored and entries are repaired or dropped
	// with a warning.
	Strict bool

	// DropInFlight discards pending arrivals.
	DropInFlight bool

	// Logger receives one Warn record per repair. Nil discards them.
	Logger *slog.Logger
}

// Marshal serializes b.
func Marshal(b *brain.Brain) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes b to w as a single YAML document.
func Encode(w io.Writer, b *brain.Brain) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	snap := b.Snapshot()
	if err := enc.Encode(&snap); err != nil {
		return fmt.Errorf("encoding brain: %w", err)
	}
	return enc.Close()
}

// Unmarshal parses data into a brain.
func Unmarshal(data []byte, opts DecodeOptions) (*brain.Brain, []brain.Warning, error) {
	return Decode(bytes.NewReader(data), opts)
}

// Decode reads one YAML document from r and restores the brain it describes.
func Decode(r io.Reader, opts DecodeOptions) (*brain.Brain, []brain.Warning, error) {
	snap, err := DecodeSnapshot(r, opts.Strict)
	if err != nil {
		return nil, nil, err
	}
	b, warnings, err := brain.FromSnapshot(snap, brain.RestoreOptions{
		Strict:       opts.Strict,
		DropInFlight: opts.DropInFlight,
	})
	if err != nil {
		return nil, nil, err
	}
	if opts.Logger != nil {
		for _, w := range warnings {
			opts.Logger.Warn("repaired brain snapshot", "entity", w.Entity, "index", w.Index, "reason", w.Reason)
		}
	}
	return b, warnings, nil
}

// DecodeSnapshot parses the document without restoring it.
func DecodeSnapshot(r io.Reader, strict bool) (brain.Snapshot, error) {
	var snap brain.Snapshot
	dec := yaml.NewDecoder(r)
	dec.KnownFields(strict)
	if err := dec.Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return snap, fmt.Errorf("%w: empty document", brain.ErrParse)
		}
		return snap, fmt.Errorf("%w: %v", brain.ErrParse, err)
	}
	return snap, nil
}
