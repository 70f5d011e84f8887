package store

import (
	"context"
	"fmt"
)

// NewStore opens a store of the given kind. sqlitePath is ignored for memory.
func NewStore(ctx context.Context, kind, sqlitePath string) (SnapshotStore, error) {
	switch kind {
	case "", "memory":
		return NewInMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(ctx, sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}
