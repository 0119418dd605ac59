// Package store is the SQLite persistence layer: the symbols table, its
// FTS5 full-text mirror, and the symbol_references table.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the symbol index.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the tables, the FTS5 mirror with its sync triggers, and
// all secondary indexes. Idempotent; safe to call on every startup.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS symbols (
  id              TEXT PRIMARY KEY,
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  file_path       TEXT NOT NULL,
  start_line      INTEGER NOT NULL,
  start_col       INTEGER NOT NULL,
  end_line        INTEGER NOT NULL,
  end_col         INTEGER NOT NULL,
  parent_id       TEXT REFERENCES symbols(id) ON DELETE CASCADE,
  signature       TEXT,
  documentation   TEXT,
  visibility      TEXT,
  type_info       TEXT,
  complexity      INTEGER NOT NULL DEFAULT 1,
  quality_score   REAL NOT NULL DEFAULT 0.0,
  reference_count INTEGER NOT NULL DEFAULT 0,
  is_exported     INTEGER NOT NULL DEFAULT 0,
  created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- External-content FTS5 mirror over the searchable symbol columns.
CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
  id UNINDEXED,
  name,
  documentation,
  signature,
  file_path,
  content=symbols,
  content_rowid=rowid
);

-- Keep the mirror in sync. External-content tables require the FTS5
-- 'delete' command on row removal; a plain DELETE corrupts the index.
CREATE TRIGGER IF NOT EXISTS symbols_fts_insert
AFTER INSERT ON symbols BEGIN
  INSERT INTO symbols_fts(rowid, id, name, documentation, signature, file_path)
  VALUES (new.rowid, new.id, new.name, new.documentation, new.signature, new.file_path);
END;

CREATE TRIGGER IF NOT EXISTS symbols_fts_delete
AFTER DELETE ON symbols BEGIN
  INSERT INTO symbols_fts(symbols_fts, rowid, id, name, documentation, signature, file_path)
  VALUES ('delete', old.rowid, old.id, old.name, old.documentation, old.signature, old.file_path);
END;

CREATE TABLE IF NOT EXISTS symbol_references (
  id              INTEGER PRIMARY KEY,
  from_symbol_id  TEXT NOT NULL,
  to_symbol_id    TEXT NOT NULL,
  reference_kind  TEXT NOT NULL,
  file_path       TEXT NOT NULL,
  line            INTEGER NOT NULL,
  col             INTEGER NOT NULL,
  context         TEXT
);

CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_path);
CREATE INDEX IF NOT EXISTS idx_references_from ON symbol_references(from_symbol_id);
CREATE INDEX IF NOT EXISTS idx_references_to ON symbol_references(to_symbol_id);
CREATE INDEX IF NOT EXISTS idx_references_file ON symbol_references(file_path);
`
