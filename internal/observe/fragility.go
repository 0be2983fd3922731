package observe

import (
	"sort"

	"github.com/Ekats/Mycelica-sub001/internal/graph"
)

// ArticulationPoint is a node whose removal splits its component.
type ArticulationPoint struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	ComponentsIfRemoved int    `json:"components_if_removed"`
}

// BridgeEdge is an edge whose removal splits its component. Removing a
// bridge always increases the component count by exactly one.
type BridgeEdge struct {
	SourceID    string `json:"source_id"`
	TargetID    string `json:"target_id"`
	SourceTitle string `json:"source_title"`
	TargetTitle string `json:"target_title"`
}

// FragileConnection is a pair of top-level regions held together by at most
// two crossing edges.
type FragileConnection struct {
	RegionA    string `json:"region_a"`
	RegionB    string `json:"region_b"`
	CrossEdges int    `json:"cross_edges"`
}

// FragilityReport holds bi-connectivity analysis results.
type FragilityReport struct {
	ArticulationPoints []ArticulationPoint `json:"articulation_points"`
	BridgeEdges        []BridgeEdge        `json:"bridge_edges"`
	FragileConnections []FragileConnection `json:"fragile_connections"`
	APCount            int                 `json:"ap_count"`
	BridgeCount        int                 `json:"bridge_count"`
}

// maxCrossEdgesFragile: region pairs joined by this many edges or fewer are
// one or two deletions away from disconnecting.
const maxCrossEdgesFragile = 2

// ComputeFragility finds articulation points and bridge edges with a single
// iterative low-link traversal per component, then scans region pairs for
// fragile inter-region connections. The region check is independent of the
// articulation pass: it operates on region pairs, not individual nodes.
func ComputeFragility(snap *graph.Snapshot) *FragilityReport {
	if len(snap.Nodes) == 0 {
		return &FragilityReport{}
	}

	nodeIDs := snap.NodeIDs()
	idToIdx := make(map[string]int, len(nodeIDs))
	for i, id := range nodeIDs {
		idToIdx[id] = i
	}
	n := len(nodeIDs)

	// Deduplicated undirected adjacency as indices. Parallel edges between
	// the same pair can never be bridges, so they collapse to one.
	adjIdx := make([][]int, n)
	type edgePair struct{ u, v int }
	seen := make(map[edgePair]bool, len(snap.Edges))
	for _, e := range snap.Edges {
		u, okU := idToIdx[e.Source]
		v, okV := idToIdx[e.Target]
		if !okU || !okV || u == v {
			continue
		}
		key := edgePair{u, v}
		if u > v {
			key = edgePair{v, u}
		}
		if !seen[key] {
			seen[key] = true
			adjIdx[u] = append(adjIdx[u], v)
			adjIdx[v] = append(adjIdx[v], u)
		}
	}

	disc := make([]int, n)
	low := make([]int, n)
	visited := make([]bool, n)
	// apSplits[v] counts DFS children of v whose subtree cannot reach
	// above v; removing v leaves those subtrees plus the rest.
	apSplits := make([]int, n)
	var bridgePairs [][2]int
	counter := 1

	const noParent = -1
	type frame struct{ node, parent, ni int }

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		visited[start] = true
		disc[start] = counter
		low[start] = counter
		counter++

		stack := []frame{{start, noParent, 0}}
		rootChildren := 0

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			node := top.node

			if top.ni < len(adjIdx[node]) {
				child := adjIdx[node][top.ni]
				top.ni++

				if child == top.parent {
					continue
				}
				if visited[child] {
					// Back edge.
					if disc[child] < low[node] {
						low[node] = disc[child]
					}
					continue
				}
				visited[child] = true
				disc[child] = counter
				low[child] = counter
				counter++
				if node == start {
					rootChildren++
				}
				stack = append(stack, frame{child, node, 0})
				continue
			}

			// Done with node: pop and propagate low-link to parent.
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				continue
			}
			pn := stack[len(stack)-1].node

			if low[node] < low[pn] {
				low[pn] = low[node]
			}
			if low[node] > disc[pn] {
				bridgePairs = append(bridgePairs, [2]int{pn, node})
			}
			if pn != start && low[node] >= disc[pn] {
				apSplits[pn]++
			}
		}

		// The DFS root is an articulation point iff it has 2+ tree children.
		if rootChildren >= 2 {
			apSplits[start] = rootChildren - 1
		}
	}

	var aps []ArticulationPoint
	for i := 0; i < n; i++ {
		if apSplits[i] == 0 {
			continue
		}
		id := nodeIDs[i]
		aps = append(aps, ArticulationPoint{
			ID:    id,
			Title: snap.Nodes[id].Title,
			// Each trapped subtree separates, plus the remainder.
			ComponentsIfRemoved: apSplits[i] + 1,
		})
	}

	bridges := make([]BridgeEdge, 0, len(bridgePairs))
	for _, pair := range bridgePairs {
		uid := nodeIDs[pair[0]]
		vid := nodeIDs[pair[1]]
		bridges = append(bridges, BridgeEdge{
			SourceID:    uid,
			TargetID:    vid,
			SourceTitle: snap.Nodes[uid].Title,
			TargetTitle: snap.Nodes[vid].Title,
		})
	}
	sort.Slice(bridges, func(i, j int) bool {
		if bridges[i].SourceID != bridges[j].SourceID {
			return bridges[i].SourceID < bridges[j].SourceID
		}
		return bridges[i].TargetID < bridges[j].TargetID
	})

	return &FragilityReport{
		ArticulationPoints: aps,
		BridgeEdges:        bridges,
		FragileConnections: fragileConnections(snap),
		APCount:            len(aps),
		BridgeCount:        len(bridges),
	}
}

// fragileConnections counts edges crossing each pair of top-level regions.
func fragileConnections(snap *graph.Snapshot) []FragileConnection {
	type regionPair struct{ a, b string }
	pairCounts := make(map[regionPair]int)
	for _, e := range snap.Edges {
		ra := snap.Regions[e.Source]
		rb := snap.Regions[e.Target]
		if ra == "" {
			ra = "unassigned"
		}
		if rb == "" {
			rb = "unassigned"
		}
		if ra == rb {
			continue
		}
		key := regionPair{ra, rb}
		if ra > rb {
			key = regionPair{rb, ra}
		}
		pairCounts[key]++
	}

	var fragile []FragileConnection
	for pair, count := range pairCounts {
		if count <= maxCrossEdgesFragile {
			fragile = append(fragile, FragileConnection{
				RegionA:    pair.a,
				RegionB:    pair.b,
				CrossEdges: count,
			})
		}
	}
	sort.Slice(fragile, func(i, j int) bool {
		if fragile[i].CrossEdges != fragile[j].CrossEdges {
			return fragile[i].CrossEdges < fragile[j].CrossEdges
		}
		if fragile[i].RegionA != fragile[j].RegionA {
			return fragile[i].RegionA < fragile[j].RegionA
		}
		return fragile[i].RegionB < fragile[j].RegionB
	})
	return fragile
}
