// Package graph holds the shared data model for hierarchy building and
// structural analysis: an immutable point-in-time snapshot of the knowledge
// graph with precomputed adjacency, plus the union-find primitive both
// engines are built on.
//
// A Snapshot is taken once per analysis or rebuild invocation and never
// mutated afterwards. Everything downstream is a pure function of it.
package graph

import (
	"errors"
	"sort"
)

// Sentinel input errors surfaced by the orchestration entry points.
// A snapshot that trips one of these is reported to the caller as-is;
// no partial report is produced.
var (
	ErrEmptyGraph     = errors.New("graph is empty")
	ErrSingleNode     = errors.New("graph has a single node")
	ErrRegionNotFound = errors.New("region node not found")
)

// NodeInfo is a lightweight node view decoupled from storage types.
// Timestamps are unix milliseconds.
type NodeInfo struct {
	ID         string
	Title      string
	NodeType   string
	CreatedAt  int64
	UpdatedAt  int64
	ParentID   *string
	Depth      int
	ChildCount int
	IsItem     bool
	IsUniverse bool
}

// EdgeInfo is a lightweight directed edge view. Weight is in [0,1].
type EdgeInfo struct {
	ID        string
	Source    string
	Target    string
	EdgeType  string // lowercase: "similar", "summarizes", "bridge", ...
	Weight    float64
	CreatedAt int64
	UpdatedAt *int64
}

// Snapshot is a read-only materialization of the graph at one point in time.
type Snapshot struct {
	Nodes   map[string]*NodeInfo
	Edges   []EdgeInfo
	Adj     map[string][]string // undirected
	OutAdj  map[string][]string // directed: source -> targets
	InAdj   map[string][]string // directed: target -> sources
	Regions map[string]string   // node_id -> depth-1 ancestor ("unassigned" if none)
}

// NewSnapshot builds a Snapshot from raw nodes and edges. Edges whose
// endpoints are not in the node set are dropped from adjacency but kept in
// the edge list they came from.
func NewSnapshot(nodes []*NodeInfo, edges []EdgeInfo) *Snapshot {
	nodeMap := make(map[string]*NodeInfo, len(nodes))
	adj := make(map[string][]string, len(nodes))
	outAdj := make(map[string][]string, len(nodes))
	inAdj := make(map[string][]string, len(nodes))

	for _, n := range nodes {
		nodeMap[n.ID] = n
		adj[n.ID] = nil
		outAdj[n.ID] = nil
		inAdj[n.ID] = nil
	}

	kept := make([]EdgeInfo, 0, len(edges))
	for _, e := range edges {
		if _, ok := nodeMap[e.Source]; !ok {
			continue
		}
		if _, ok := nodeMap[e.Target]; !ok {
			continue
		}
		kept = append(kept, e)
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
		outAdj[e.Source] = append(outAdj[e.Source], e.Target)
		inAdj[e.Target] = append(inAdj[e.Target], e.Source)
	}

	return &Snapshot{
		Nodes:   nodeMap,
		Edges:   kept,
		Adj:     adj,
		OutAdj:  outAdj,
		InAdj:   inAdj,
		Regions: computeRegions(nodeMap),
	}
}

// FilterToRegion returns a new snapshot restricted to regionID and its
// descendants. Unknown region IDs are an input error, not an empty result.
func (s *Snapshot) FilterToRegion(regionID string) (*Snapshot, error) {
	if _, ok := s.Nodes[regionID]; !ok {
		return nil, ErrRegionNotFound
	}

	included := make(map[string]bool, len(s.Nodes))
	for id := range s.Nodes {
		isDescendantOf(id, regionID, s.Nodes, included)
	}

	var nodes []*NodeInfo
	for id, in := range included {
		if in {
			nodes = append(nodes, s.Nodes[id])
		}
	}

	var edges []EdgeInfo
	for _, e := range s.Edges {
		if included[e.Source] && included[e.Target] {
			edges = append(edges, e)
		}
	}

	return NewSnapshot(nodes, edges), nil
}

// ItemIDs returns the sorted IDs of content (is_item) nodes.
func (s *Snapshot) ItemIDs() []string {
	ids := make([]string, 0, len(s.Nodes))
	for id, n := range s.Nodes {
		if n.IsItem {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// NodeIDs returns all node IDs sorted, for deterministic iteration.
func (s *Snapshot) NodeIDs() []string {
	ids := make([]string, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func isDescendantOf(nodeID, ancestorID string, nodes map[string]*NodeInfo, cache map[string]bool) bool {
	if nodeID == ancestorID {
		cache[nodeID] = true
		return true
	}
	if cached, ok := cache[nodeID]; ok {
		return cached
	}
	node, ok := nodes[nodeID]
	if !ok || node.ParentID == nil {
		cache[nodeID] = false
		return false
	}
	// Mark before recursing so a parent cycle terminates as "not a descendant".
	cache[nodeID] = false
	result := isDescendantOf(*node.ParentID, ancestorID, nodes, cache)
	cache[nodeID] = result
	return result
}

func computeRegions(nodes map[string]*NodeInfo) map[string]string {
	regions := make(map[string]string, len(nodes))
	for id, node := range nodes {
		if node.Depth <= 1 {
			regions[id] = id
		} else {
			regions[id] = depth1Ancestor(id, nodes)
		}
	}
	return regions
}

func depth1Ancestor(nodeID string, nodes map[string]*NodeInfo) string {
	current := nodeID
	visited := make(map[string]bool)
	for {
		if visited[current] {
			return "unassigned" // parent cycle
		}
		visited[current] = true
		node, ok := nodes[current]
		if !ok {
			return "unassigned"
		}
		if node.Depth <= 1 {
			return current
		}
		if node.ParentID == nil {
			return "unassigned"
		}
		current = *node.ParentID
	}
}
