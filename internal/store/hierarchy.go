package store

import (
	"context"
	"fmt"
)

// ApplyHierarchy replaces the stored hierarchy generation in one
// transaction. Order matters: old bridge edges and region nodes go first
// (item parent_id references are released by ON DELETE SET NULL), then the
// universe root is ensured, new regions inserted, assignments applied, and
// bridge edges written last so both endpoints already exist.
func (s *SQLiteStore) ApplyHierarchy(ctx context.Context, batch *HierarchyBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning hierarchy transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM edges WHERE edge_type = 'bridge'`); err != nil {
		return fmt.Errorf("clearing bridge edges: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM nodes WHERE type = 'region' AND is_universe = 0`); err != nil {
		return fmt.Errorf("clearing region nodes: %w", err)
	}

	if batch.Universe != nil {
		u := batch.Universe
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO nodes (id, type, title, content, created_at, updated_at,
				depth, is_item, is_universe, parent_id, child_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
			u.ID, u.NodeType, u.Title, u.Content, u.CreatedAt, u.UpdatedAt,
			u.Depth, u.IsItem, u.IsUniverse, u.ParentID, u.ChildCount,
		); err != nil {
			return fmt.Errorf("upserting universe root: %w", err)
		}
	}

	insertNode, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (id, type, title, content, created_at, updated_at,
			depth, is_item, is_universe, parent_id, child_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing region insert: %w", err)
	}
	defer insertNode.Close()

	for _, n := range batch.RegionNodes {
		if _, err := insertNode.ExecContext(ctx,
			n.ID, n.NodeType, n.Title, n.Content, n.CreatedAt, n.UpdatedAt,
			n.Depth, n.IsItem, n.IsUniverse, n.ParentID, n.ChildCount,
		); err != nil {
			return fmt.Errorf("inserting region node %s: %w", n.ID, err)
		}
	}

	assign, err := tx.PrepareContext(ctx,
		`UPDATE nodes SET parent_id = ?, depth = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing assignment update: %w", err)
	}
	defer assign.Close()

	for _, a := range batch.Assignments {
		if _, err := assign.ExecContext(ctx, a.ParentID, a.Depth, a.NodeID); err != nil {
			return fmt.Errorf("assigning node %s: %w", a.NodeID, err)
		}
	}

	for id, count := range batch.ChildCounts {
		if _, err := tx.ExecContext(ctx,
			`UPDATE nodes SET child_count = ? WHERE id = ?`, count, id); err != nil {
			return fmt.Errorf("updating child count for %s: %w", id, err)
		}
	}

	for _, e := range batch.BridgeEdges {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO edges (id, source_id, target_id, edge_type, label, weight,
				created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.SourceID, e.TargetID, e.EdgeType, e.Label, e.Weight,
			e.CreatedAt, e.UpdatedAt,
		); err != nil {
			return fmt.Errorf("inserting bridge edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing hierarchy transaction: %w", err)
	}
	return nil
}
