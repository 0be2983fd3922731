package store

import "fmt"

// migrate creates all tables and indexes if they don't exist.
// Every statement is idempotent; reopening an existing database is a no-op.
func (s *SQLiteStore) migrate() error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS nodes (
			id          TEXT PRIMARY KEY,
			type        TEXT NOT NULL,
			title       TEXT NOT NULL DEFAULT '',
			content     TEXT,
			created_at  INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL,
			depth       INTEGER NOT NULL DEFAULT 0,
			is_item     INTEGER NOT NULL DEFAULT 0,
			is_universe INTEGER NOT NULL DEFAULT 0,
			parent_id   TEXT REFERENCES nodes(id) ON DELETE SET NULL,
			child_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS edges (
			id         TEXT PRIMARY KEY,
			source_id  TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
			target_id  TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
			edge_type  TEXT NOT NULL,
			label      TEXT,
			weight     REAL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_depth ON nodes(depth)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_type ON edges(edge_type)`,
	}

	for _, stmt := range ddl {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}
	return nil
}
