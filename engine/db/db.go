// Package db provides database utilities for dashnotes.
// This package contains generic database infrastructure only.
// Schema definitions belong in the packages that use them.
package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database at the given path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// OpenTest creates a test database in a temporary directory.
func OpenTest(t *testing.T) *sql.DB {
	path := filepath.Join(t.TempDir(), "db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// MustMigrate applies migrations to the database in order, panicking on error.
// Migrations must be idempotent since they run on every startup.
func MustMigrate(db *sql.DB, migrations ...string) {
	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			panic(fmt.Errorf("error while migrating database: %s", err))
		}
	}
}
