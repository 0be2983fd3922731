// Package observe provides structural health diagnosis for the knowledge
// graph.
//
// Four analyzers over one immutable snapshot:
// - Topology: connected components, orphans, degree distribution, hubs
// - Staleness: old-but-referenced nodes and desynchronized summaries
// - Fragility: articulation points, bridge edges, fragile region pairs
// - Health: one composite [0,1] score with an explainable breakdown
//
// This package answers the question: "How healthy is my graph's structure?"
package observe

import (
	"sort"

	"github.com/Ekats/Mycelica-sub001/internal/graph"
)

// HubNode is a node with high connectivity. Degree counts both directions.
type HubNode struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Degree    int    `json:"degree"`
	InDegree  int    `json:"in_degree"`
	OutDegree int    `json:"out_degree"`
}

// DegreeBucket is one bucket of the degree histogram.
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopologyReport holds connectivity analysis results.
type TopologyReport struct {
	TotalNodes        int            `json:"total_nodes"`
	TotalEdges        int            `json:"total_edges"`
	NumComponents     int            `json:"num_components"`
	LargestComponent  int            `json:"largest_component"`
	SmallestComponent int            `json:"smallest_component"`
	OrphanCount       int            `json:"orphan_count"`
	OrphanIDs         []string       `json:"orphan_ids"`
	DegreeHistogram   []DegreeBucket `json:"degree_histogram"`
	Hubs              []HubNode      `json:"hubs"`
}

// ComputeTopology analyzes raw connectivity over all edges, with no weight
// floor: whether the graph hangs together is a different question from
// hierarchy quality. Multiple disjoint components are expected output, not
// an error. OrphanIDs and Hubs are capped at topN; the counts are not.
func ComputeTopology(snap *graph.Snapshot, hubThreshold, topN int) *TopologyReport {
	totalNodes := len(snap.Nodes)
	if totalNodes == 0 {
		return &TopologyReport{DegreeHistogram: emptyHistogram()}
	}

	nodeIDs := snap.NodeIDs()
	uf := graph.NewUnionFind(nodeIDs)
	for _, e := range snap.Edges {
		if snap.Nodes[e.Source] == nil || snap.Nodes[e.Target] == nil {
			continue
		}
		uf.Union(e.Source, e.Target)
	}

	components := uf.Components()
	largest, smallest := 0, totalNodes
	for _, c := range components {
		if len(c) > largest {
			largest = len(c)
		}
		if len(c) < smallest {
			smallest = len(c)
		}
	}

	var orphans []string
	for _, id := range nodeIDs {
		if len(snap.Adj[id]) == 0 {
			orphans = append(orphans, id)
		}
	}
	orphanCount := len(orphans)
	if len(orphans) > topN {
		orphans = orphans[:topN]
	}

	histogram := emptyHistogram()
	for _, id := range nodeIDs {
		histogram[degreeBucket(len(snap.Adj[id]))].Count++
	}

	// Hubs: degree strictly above the threshold.
	var hubs []HubNode
	for _, id := range nodeIDs {
		degree := len(snap.Adj[id])
		if degree > hubThreshold {
			hubs = append(hubs, HubNode{
				ID:        id,
				Title:     snap.Nodes[id].Title,
				Degree:    degree,
				InDegree:  len(snap.InAdj[id]),
				OutDegree: len(snap.OutAdj[id]),
			})
		}
	}
	sort.Slice(hubs, func(i, j int) bool {
		if hubs[i].Degree != hubs[j].Degree {
			return hubs[i].Degree > hubs[j].Degree
		}
		return hubs[i].ID < hubs[j].ID
	})
	if len(hubs) > topN {
		hubs = hubs[:topN]
	}

	return &TopologyReport{
		TotalNodes:        totalNodes,
		TotalEdges:        len(snap.Edges),
		NumComponents:     len(components),
		LargestComponent:  largest,
		SmallestComponent: smallest,
		OrphanCount:       orphanCount,
		OrphanIDs:         orphans,
		DegreeHistogram:   histogram,
		Hubs:              hubs,
	}
}

// Log-scale degree buckets.
func emptyHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"},
		{Label: "4-7"}, {Label: "8-15"}, {Label: "16-31"}, {Label: "32+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree == 0:
		return 0
	case degree == 1:
		return 1
	case degree <= 3:
		return 2
	case degree <= 7:
		return 3
	case degree <= 15:
		return 4
	case degree <= 31:
		return 5
	default:
		return 6
	}
}
