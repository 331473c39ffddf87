// Package settings persists named option records as JSON documents.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/TheLab-ms/dashnotes/engine/db"
)

const migration = `
CREATE TABLE IF NOT EXISTS options (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated INTEGER NOT NULL DEFAULT (unixepoch())
) STRICT;
`

// Store is a key/value store of JSON records.
// Every write replaces the whole record: the last writer wins.
type Store struct {
	db *sql.DB
}

// New creates a settings store, applying its schema to the database.
func New(d *sql.DB) *Store {
	db.MustMigrate(d, migration)
	return &Store{db: d}
}

// Get decodes the record stored under key into dest.
// It returns false without touching dest when the record doesn't exist.
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM options WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading option %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(value), dest); err != nil {
		return true, fmt.Errorf("decoding option %q: %w", key, err)
	}
	return true, nil
}

// Set replaces the record stored under key.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	js, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding option %q: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO options (key, value, updated) VALUES (?, ?, unixepoch())
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated = excluded.updated
	`, key, string(js))
	if err != nil {
		return fmt.Errorf("writing option %q: %w", key, err)
	}

	slog.Info("setting updated", "key", key)
	return nil
}

// Delete removes the record stored under key, if any.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM options WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("deleting option %q: %w", key, err)
	}
	return nil
}
