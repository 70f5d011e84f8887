package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvandessel/psyche/internal/brain"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements SnapshotStore on a single SQLite file.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.dbPath }

// Save inserts or replaces a snapshot and its tags in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	if err := validName(rec.Name); err != nil {
		return err
	}
	if rec.Document == nil {
		rec.Document = []byte{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (name, document, content_hash, step, neurons, synapses, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			document = excluded.document,
			content_hash = excluded.content_hash,
			step = excluded.step,
			neurons = excluded.neurons,
			synapses = excluded.synapses,
			updated_at = excluded.updated_at`,
		rec.Name, rec.Document, contentHash(rec.Document), rec.Step, rec.Neurons, rec.Synapses, now, now)
	if err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", rec.Name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_tags WHERE snapshot_name = ?`, rec.Name); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	for _, tag := range normalizeTags(rec.Tags) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_tags (snapshot_name, tag) VALUES (?, ?)`, rec.Name, tag); err != nil {
			return fmt.Errorf("failed to save tag %q: %w", tag, err)
		}
	}
	return tx.Commit()
}

// Load retrieves a snapshot by name.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT s.name, s.document, s.content_hash, s.step, s.neurons, s.synapses, s.created_at, s.updated_at,
		       COALESCE((SELECT group_concat(tag, ',') FROM (SELECT tag FROM snapshot_tags WHERE snapshot_name = s.name ORDER BY tag)), '')
		FROM snapshots s WHERE s.name = ?`, name)
	rec, err := scanRecord(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: snapshot %q", brain.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %q: %w", name, err)
	}
	return rec, nil
}

// List returns summaries ordered by name.
func (s *SQLiteStore) List(ctx context.Context, tag string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT s.name, s.content_hash, s.step, s.neurons, s.synapses, s.created_at, s.updated_at,
		       COALESCE((SELECT group_concat(tag, ',') FROM (SELECT tag FROM snapshot_tags WHERE snapshot_name = s.name ORDER BY tag)), '')
		FROM snapshots s`
	var args []any
	if tag != "" {
		query += ` WHERE EXISTS (SELECT 1 FROM snapshot_tags t WHERE t.snapshot_name = s.name AND t.tag = ?)`
		args = append(args, tag)
	}
	query += ` ORDER BY s.name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Delete removes a snapshot; its tags cascade.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: snapshot %q", brain.ErrNotFound, name)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner, withDocument bool) (*Record, error) {
	var (
		rec              Record
		created, updated string
		tags             string
	)
	dest := []any{&rec.Name}
	if withDocument {
		dest = append(dest, &rec.Document)
	}
	dest = append(dest, &rec.ContentHash, &rec.Step, &rec.Neurons, &rec.Synapses, &created, &updated, &tags)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	if tags != "" {
		rec.Tags = strings.Split(tags, ",")
	}
	return &rec, nil
}
