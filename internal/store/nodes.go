package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const nodeColumns = `id, type, title, content, created_at, updated_at,
	depth, is_item, is_universe, parent_id, child_count`

// scanNode scans a row into a Node. The row must select nodeColumns in order.
func scanNode(scanner interface{ Scan(dest ...any) error }) (*Node, error) {
	var n Node
	err := scanner.Scan(
		&n.ID, &n.NodeType, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt,
		&n.Depth, &n.IsItem, &n.IsUniverse, &n.ParentID, &n.ChildCount,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// AllNodes returns all nodes ordered by created_at descending.
func (s *SQLiteStore) AllNodes(ctx context.Context) ([]*Node, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// GetNode returns a single node by ID, or nil if not found.
func (s *SQLiteStore) GetNode(ctx context.Context, id string) (*Node, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting node %s: %w", id, err)
	}
	return n, nil
}

// InsertNode inserts a node row.
func (s *SQLiteStore) InsertNode(ctx context.Context, n *Node) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nodes (id, type, title, content, created_at, updated_at,
			depth, is_item, is_universe, parent_id, child_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.NodeType, n.Title, n.Content, n.CreatedAt, n.UpdatedAt,
		n.Depth, n.IsItem, n.IsUniverse, n.ParentID, n.ChildCount,
	)
	if err != nil {
		return fmt.Errorf("inserting node %s: %w", n.ID, err)
	}
	return nil
}
