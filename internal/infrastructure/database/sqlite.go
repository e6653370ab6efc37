package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS estimates (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  project_name TEXT NOT NULL DEFAULT '',
  source       TEXT NOT NULL DEFAULT '',
  status       TEXT NOT NULL CHECK (status IN ('draft','needs_clarification','final')),
  subtotal     REAL NOT NULL DEFAULT 0,
  currency     TEXT NOT NULL DEFAULT 'USD',
  assumptions  TEXT NOT NULL DEFAULT '[]',
  questions    TEXT NOT NULL DEFAULT '[]',
  created_at   TEXT NOT NULL,
  updated_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS estimate_items (
  estimate_id INTEGER NOT NULL REFERENCES estimates(id) ON DELETE CASCADE,
  ordinal     INTEGER NOT NULL,
  name        TEXT NOT NULL,
  scope       TEXT NOT NULL DEFAULT '',
  qty         REAL NOT NULL DEFAULT 0,
  unit        TEXT NOT NULL DEFAULT '',
  finish      TEXT NOT NULL DEFAULT '',
  unit_cost   REAL NOT NULL DEFAULT 0,
  total_cost  REAL NOT NULL DEFAULT 0,
  notes       TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (estimate_id, ordinal)
);
CREATE TABLE IF NOT EXISTS estimate_changes (
  id          TEXT PRIMARY KEY,
  estimate_id INTEGER NOT NULL REFERENCES estimates(id),
  change_text TEXT NOT NULL,
  snapshot    TEXT NOT NULL,
  created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_changes_estimate ON estimate_changes(estimate_id, created_at);
`

// OpenSQLite opens (creating if needed) the estimates database at path and
// ensures the schema exists.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
