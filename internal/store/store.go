// Package store provides the SQLite storage layer for the knowledge graph.
//
// All graph data lives in a single SQLite database file:
// - Nodes (items, regions, the universe root) with hierarchy columns
// - Edges (semantic, summarizes, bridge) with weights
//
// The hierarchy rebuild writes through ApplyHierarchy, which commits the
// entire new generation in one transaction or none of it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.mycelica/mycelica.db"

// Node represents a row in the nodes table. Timestamps are unix millis.
type Node struct {
	ID         string  `json:"id"`
	NodeType   string  `json:"type"` // "thought", "page", "region", ...
	Title      string  `json:"title"`
	Content    *string `json:"content"`
	CreatedAt  int64   `json:"created_at"`
	UpdatedAt  int64   `json:"updated_at"`
	Depth      int     `json:"depth"`
	IsItem     bool    `json:"is_item"`
	IsUniverse bool    `json:"is_universe"`
	ParentID   *string `json:"parent_id"`
	ChildCount int     `json:"child_count"`
}

// Edge represents a row in the edges table.
type Edge struct {
	ID        string   `json:"id"`
	SourceID  string   `json:"source_id"`
	TargetID  string   `json:"target_id"`
	EdgeType  string   `json:"edge_type"` // lowercase: "similar", "summarizes", "bridge"
	Label     *string  `json:"label"`
	Weight    *float64 `json:"weight"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt *int64   `json:"updated_at"`
}

// NodeAssignment moves one node to a new parent at a new depth.
type NodeAssignment struct {
	NodeID   string
	ParentID string
	Depth    int
}

// HierarchyBatch is one complete hierarchy generation, applied atomically.
// Previous region nodes and bridge edges are replaced, not patched.
type HierarchyBatch struct {
	Universe    *Node
	RegionNodes []*Node
	Assignments []NodeAssignment
	ChildCounts map[string]int
	BridgeEdges []*Edge
}

// StoreStats holds observability statistics about the store.
type StoreStats struct {
	NodeCount   int64 `json:"node_count"`
	EdgeCount   int64 `json:"edge_count"`
	RegionCount int64 `json:"region_count"`
	DBSizeBytes int64 `json:"db_size_bytes"`
}

// StoreConfig holds configuration for NewStore.
type StoreConfig struct {
	DBPath string
}

// Store defines the graph storage interface.
type Store interface {
	// Reads
	AllNodes(ctx context.Context) ([]*Node, error)
	AllEdges(ctx context.Context) ([]*Edge, error)
	GetNode(ctx context.Context, id string) (*Node, error)

	// Writes
	InsertNode(ctx context.Context, n *Node) error
	InsertEdge(ctx context.Context, e *Edge) error
	ApplyHierarchy(ctx context.Context, batch *HierarchyBatch) error

	// Observability
	Stats(ctx context.Context) (*StoreStats, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new SQLite-backed Store.
// Pass ":memory:" for in-memory databases (testing).
func NewStore(cfg StoreConfig) (Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Enable WAL mode and foreign keys
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: cfg.DBPath}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Stats returns row counts and the database size on disk.
func (s *SQLiteStore) Stats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{}
	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM nodes", &stats.NodeCount},
		{"SELECT COUNT(*) FROM edges", &stats.EdgeCount},
		{"SELECT COUNT(*) FROM nodes WHERE type = 'region'", &stats.RegionCount},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("querying stats: %w", err)
		}
	}

	var pageCount, pageSize int64
	s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats.DBSizeBytes = pageCount * pageSize

	return stats, nil
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
