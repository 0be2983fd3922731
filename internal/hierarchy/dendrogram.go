// Package hierarchy derives a multi-level navigable tree directly from edge
// weights. A single-linkage dendrogram records the order in which components
// join as the similarity threshold relaxes; the adaptive tree builder then
// cuts that dendrogram per-region, accepting only statistically validated
// splits. The dendrogram IS the hierarchy: there is no separate clustering
// pass.
package hierarchy

import (
	"fmt"
	"sort"

	"github.com/Ekats/Mycelica-sub001/internal/graph"
)

// WeightedEdge is an undirected similarity edge, weight in [0,1].
type WeightedEdge struct {
	Source string
	Target string
	Weight float64
}

// MergeEvent records the weight at which two components joined.
// Left and Right are node IDs or IDs of earlier (higher-weight) merges.
type MergeEvent struct {
	ID     string
	Left   string
	Right  string
	Weight float64
	Size   int
}

// Dendrogram is the complete merge tree over the edge-filtered graph.
// For n leaves and k connected components there are exactly n-k merges.
type Dendrogram struct {
	// Merges ordered by weight descending (tightest clusters first).
	Merges []MergeEvent
	// Leaves are all node IDs, sorted.
	Leaves []string
	// LeafIndex maps node ID to its index in Leaves.
	LeafIndex map[string]int
	// Root is the ID of the final merge when the filtered graph is a single
	// connected component; empty for a forest or when no merges occurred.
	Root string
	// Components are the connected components of the filtered graph,
	// largest first, members sorted. Singleton leaves appear as
	// single-member components.
	Components [][]string
}

// SortEdges orders edges by weight descending with a stable secondary key
// (lexicographic normalized node-ID pair), making merge order reproducible
// across runs on identical input.
func SortEdges(edges []WeightedEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Weight != edges[j].Weight {
			return edges[i].Weight > edges[j].Weight
		}
		ai, bi := orderPair(edges[i].Source, edges[i].Target)
		aj, bj := orderPair(edges[j].Source, edges[j].Target)
		if ai != aj {
			return ai < aj
		}
		return bi < bj
	})
}

func orderPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// BuildDendrogram builds the merge tree from edges with weight >= floor.
// Pure function over a possibly-disconnected graph: nodes with no surviving
// edges stay singleton leaves and never appear in a MergeEvent; an empty
// node set yields an empty dendrogram.
func BuildDendrogram(nodeIDs []string, edges []WeightedEdge, floor float64) *Dendrogram {
	leaves := append([]string(nil), nodeIDs...)
	sort.Strings(leaves)

	leafIndex := make(map[string]int, len(leaves))
	for i, id := range leaves {
		leafIndex[id] = i
	}

	surviving := make([]WeightedEdge, 0, len(edges))
	for _, e := range edges {
		if e.Weight < floor || e.Source == e.Target {
			continue
		}
		if _, ok := leafIndex[e.Source]; !ok {
			continue
		}
		if _, ok := leafIndex[e.Target]; !ok {
			continue
		}
		surviving = append(surviving, e)
	}
	SortEdges(surviving)

	uf := graph.NewUnionFind(leaves)
	merges := make([]MergeEvent, 0, len(leaves))

	// Each component's current representative: a node ID before its first
	// merge, thereafter the ID of the merge that formed it.
	repr := make(map[string]string, len(leaves))
	for _, id := range leaves {
		repr[id] = id
	}

	for _, e := range surviving {
		rootA := uf.Find(e.Source)
		rootB := uf.Find(e.Target)
		if rootA == rootB {
			continue
		}

		sizeA := uf.Size(rootA)
		sizeB := uf.Size(rootB)
		reprA := repr[rootA]
		reprB := repr[rootB]

		uf.Union(e.Source, e.Target)
		mergeID := fmt.Sprintf("merge-%d", len(merges))
		merges = append(merges, MergeEvent{
			ID:     mergeID,
			Left:   reprA,
			Right:  reprB,
			Weight: e.Weight,
			Size:   sizeA + sizeB,
		})
		repr[uf.Find(e.Source)] = mergeID
	}

	components := uf.Components()
	for _, c := range components {
		sort.Strings(c)
	}
	sort.Slice(components, func(i, j int) bool {
		if len(components[i]) != len(components[j]) {
			return len(components[i]) > len(components[j])
		}
		return components[i][0] < components[j][0]
	})

	root := ""
	if len(merges) > 0 && len(components) == 1 {
		root = merges[len(merges)-1].ID
	}

	return &Dendrogram{
		Merges:     merges,
		Leaves:     leaves,
		LeafIndex:  leafIndex,
		Root:       root,
		Components: components,
	}
}
