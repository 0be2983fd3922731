package store

import (
	"context"
	"fmt"
)

const edgeColumns = `id, source_id, target_id, edge_type, label, weight,
	created_at, updated_at`

func scanEdge(scanner interface{ Scan(dest ...any) error }) (*Edge, error) {
	var e Edge
	err := scanner.Scan(
		&e.ID, &e.SourceID, &e.TargetID, &e.EdgeType, &e.Label, &e.Weight,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// AllEdges returns all edges ordered by created_at descending.
func (s *SQLiteStore) AllEdges(ctx context.Context) ([]*Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+edgeColumns+` FROM edges ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var edges []*Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// InsertEdge inserts an edge row.
func (s *SQLiteStore) InsertEdge(ctx context.Context, e *Edge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edges (id, source_id, target_id, edge_type, label, weight,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SourceID, e.TargetID, e.EdgeType, e.Label, e.Weight,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting edge %s: %w", e.ID, err)
	}
	return nil
}
