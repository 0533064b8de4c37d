// Package sqlite implements storage.CollectionStore on SQLite via
// modernc.org/sqlite (pure Go, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/recall/internal/storage"
)

// Schema creates the collections table. Kept as a single idempotent
// statement; there is no migration history to manage for a keyed store.
const Schema = `
CREATE TABLE IF NOT EXISTS collections (
	key TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// CollectionStore implements storage.CollectionStore using SQLite.
type CollectionStore struct {
	db *sql.DB
}

// NewCollectionStore opens a SQLite database, configures WAL mode, and
// creates the schema. Use ":memory:" for an ephemeral store.
func NewCollectionStore(dsn string) (*CollectionStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode lets readers proceed without blocking the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &CollectionStore{db: db}, nil
}

// Load retrieves the document stored under key.
func (s *CollectionStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM collections WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load collection %q: %w", key, err)
	}
	return []byte(data), nil
}

// Save writes the document under key using upsert semantics.
func (s *CollectionStore) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (key, data)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, key, string(data))
	if err != nil {
		return fmt.Errorf("sqlite: failed to save collection %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *CollectionStore) Close() error {
	return s.db.Close()
}

// GetDB exposes the underlying connection for maintenance tooling.
func (s *CollectionStore) GetDB() *sql.DB {
	return s.db
}
