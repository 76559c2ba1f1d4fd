// Package testutil provides shared helpers for tests that need a real
// database: an in-memory SQLite instance carrying the server schema. The SQL
// used by the repositories sticks to the subset both PostgreSQL and SQLite
// understand, so the same queries run against either engine.
package testutil

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	_ "modernc.org/sqlite"
)

var dbSeq atomic.Int64

const schema = `
CREATE TABLE folders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    year INTEGER,
    theme TEXT,
    sector TEXT,
    description TEXT,
    visibility TEXT NOT NULL DEFAULT 'private',
    owner_id INTEGER NOT NULL,
    parent_id INTEGER REFERENCES folders(id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    storage_path TEXT NOT NULL,
    size_bytes INTEGER,
    mime_type TEXT,
    folder_id INTEGER NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
    uploaded_by INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE shares (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    folder_id INTEGER NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
    user_id INTEGER NOT NULL,
    permission TEXT NOT NULL DEFAULT 'read',
    shared_by INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (folder_id, user_id)
);

CREATE TABLE audit_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    action TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id INTEGER NOT NULL,
    details TEXT,
    timestamp TIMESTAMP NOT NULL
);
`

// NewSQLiteDB opens a fresh in-memory SQLite database with the server schema
// applied and foreign keys (including cascading deletes) enabled.
func NewSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:archivekeeper_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// cache=shared keeps the in-memory database alive across pooled
	// connections; a single connection avoids table-lock flakiness.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}
