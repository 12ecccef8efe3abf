// SPDX-License-Identifier: Apache-2.0
// Package sqlite persists memory entries via modernc.org/sqlite so a
// Memory Adapter's entries survive process restarts. The runtime still
// treats memory as an in-process capability; durability is entirely
// this backend's decision.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/loomkit/loom/pkg/core"

	_ "modernc.org/sqlite"
)

// Store is a durable row store for core.MemoryEntry values.
type Store struct {
	db *sql.DB
}

// Open opens (and, if needed, creates) the sqlite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS memory_entries (
	key          TEXT PRIMARY KEY,
	value        TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	accessed_at  INTEGER NOT NULL,
	access_count INTEGER NOT NULL DEFAULT 0
);
`

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load replays every persisted entry, in key order.
func (s *Store) Load(ctx context.Context) ([]core.MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, created_at, accessed_at, access_count FROM memory_entries ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []core.MemoryEntry
	for rows.Next() {
		var e core.MemoryEntry
		var createdAt, accessedAt int64
		if err := rows.Scan(&e.Key, &e.Value, &createdAt, &accessedAt, &e.AccessCount); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		e.AccessedAt = time.Unix(accessedAt, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Save upserts a single entry by key.
func (s *Store) Save(ctx context.Context, entry core.MemoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_entries (key, value, created_at, accessed_at, access_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			accessed_at = excluded.accessed_at,
			access_count = excluded.access_count
	`, entry.Key, entry.Value, entry.CreatedAt.Unix(), entry.AccessedAt.Unix(), entry.AccessCount)
	return err
}

// Delete removes an entry by key. A no-op if the key is absent.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM memory_entries WHERE key = ?`, key)
	return err
}
