// Package store persists named brain snapshots.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nvandessel/psyche/internal/brain"
)

// Record is a stored snapshot document with its summary.
type Record struct {
	Name     string   `json:"name"`
	Document []byte   `json:"-"` // YAML as written by codec
	Tags     []string `json:"tags,omitempty"`

	Step     int64 `json:"step"`
	Neurons  int   `json:"neurons"`
	Synapses int   `json:"synapses"`

	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SnapshotStore defines the interface for storing brain snapshots by name.
type SnapshotStore interface {
	// Save inserts or replaces the record with rec.Name. CreatedAt is kept
	// on replacement.
	Save(ctx context.Context, rec Record) error

	// Load returns the record, or an error wrapping brain.ErrNotFound.
	Load(ctx context.Context, name string) (*Record, error)

	// List returns summaries (without documents) ordered by name. A
	// non-empty tag filters to records carrying it.
	List(ctx context.Context, tag string) ([]Record, error)

	// Delete removes the record, or returns an error wrapping brain.ErrNotFound.
	Delete(ctx context.Context, name string) error

	Close() error
}

// validName rejects names that would be awkward on the command line.
func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: snapshot name is required", brain.ErrRange)
	}
	if len(name) > 128 {
		return fmt.Errorf("%w: snapshot name longer than 128 bytes", brain.ErrRange)
	}
	return nil
}

func contentHash(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		// commas separate tags in the SQLite listing
		if t = strings.ReplaceAll(strings.TrimSpace(t), ",", "_"); t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
