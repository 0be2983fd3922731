package store

import (
	"context"
	"fmt"

	"github.com/Ekats/Mycelica-sub001/internal/graph"
)

// LoadSnapshot reads all nodes and edges and materializes them as an
// immutable analysis snapshot. Edges with no weight carry weight 0.
func LoadSnapshot(ctx context.Context, s Store) (*graph.Snapshot, error) {
	nodes, err := s.AllNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading nodes: %w", err)
	}
	edges, err := s.AllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading edges: %w", err)
	}

	infos := make([]*graph.NodeInfo, 0, len(nodes))
	for _, n := range nodes {
		infos = append(infos, &graph.NodeInfo{
			ID:         n.ID,
			Title:      n.Title,
			NodeType:   n.NodeType,
			CreatedAt:  n.CreatedAt,
			UpdatedAt:  n.UpdatedAt,
			ParentID:   n.ParentID,
			Depth:      n.Depth,
			ChildCount: n.ChildCount,
			IsItem:     n.IsItem,
			IsUniverse: n.IsUniverse,
		})
	}

	edgeInfos := make([]graph.EdgeInfo, 0, len(edges))
	for _, e := range edges {
		weight := 0.0
		if e.Weight != nil {
			weight = *e.Weight
		}
		edgeInfos = append(edgeInfos, graph.EdgeInfo{
			ID:        e.ID,
			Source:    e.SourceID,
			Target:    e.TargetID,
			EdgeType:  e.EdgeType,
			Weight:    weight,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		})
	}

	return graph.NewSnapshot(infos, edgeInfos), nil
}
