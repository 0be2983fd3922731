package hierarchy

import (
	"fmt"
	"math"
	"sort"

	"github.com/Ekats/Mycelica-sub001/internal/graph"
)

// Component is one group in the adaptive hierarchy. Components live in the
// Tree arena and reference each other by integer ID, never by pointer.
type Component struct {
	ID int `json:"id"`
	// Parent is -1 for top-level regions.
	Parent   int   `json:"parent"`
	Children []int `json:"children"`
	// Members is the full (sorted) member set, including members of
	// descendant components.
	Members []string `json:"members"`
	// CutWeight is the threshold of the split that created this component;
	// top-level regions form from whole connected components at the edge
	// floor.
	CutWeight float64 `json:"cut_weight"`
	// Depth is 0 for top-level regions.
	Depth int    `json:"depth"`
	Name  string `json:"name"`
}

// Bridge is an advisory secondary membership: NodeID belongs structurally to
// a sibling of ComponentID but connects into ComponentID nearly as strongly.
// Bridges never alter the primary parent or child counts.
type Bridge struct {
	NodeID      string  `json:"node_id"`
	ComponentID int     `json:"secondary_component_id"`
	Strength    float64 `json:"strength"`
}

// Tree is the bounded-depth hierarchy produced by BuildTree.
type Tree struct {
	// Components is the arena; a component's ID is its index here.
	Components []Component `json:"components"`
	// Roots are the IDs of top-level regions.
	Roots []int `json:"roots"`
	// Bridges are the advisory cross-links collected during splitting.
	Bridges []Bridge `json:"bridges"`
	// Unassigned are nodes whose filtered component was too small to form
	// a region. They are rescued later by the rebuild orchestrator.
	Unassigned []string `json:"unassigned"`
}

// Component returns the arena entry for id, or nil if out of range.
func (t *Tree) Component(id int) *Component {
	if id < 0 || id >= len(t.Components) {
		return nil
	}
	return &t.Components[id]
}

// MaxDepth returns the deepest component level, or -1 for an empty tree.
func (t *Tree) MaxDepth() int {
	max := -1
	for i := range t.Components {
		if t.Components[i].Depth > max {
			max = t.Components[i].Depth
		}
	}
	return max
}

// BuildTree cuts the dendrogram into validated hierarchy levels. Each
// top-level connected component gets its own recursive threshold search, so
// a dense region and a sparse region of the same graph can cut at different
// weights. Returns a configuration error before any computation if cfg is
// out of range.
func BuildTree(d *Dendrogram, edges []WeightedEdge, cfg Config) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating tree config: %w", err)
	}

	b := &treeBuilder{cfg: cfg, tree: &Tree{}}

	filtered := make([]WeightedEdge, 0, len(edges))
	for _, e := range edges {
		if e.Weight < cfg.EdgeFloor || e.Source == e.Target {
			continue
		}
		if _, ok := d.LeafIndex[e.Source]; !ok {
			continue
		}
		if _, ok := d.LeafIndex[e.Target]; !ok {
			continue
		}
		filtered = append(filtered, e)
	}
	SortEdges(filtered)
	b.edges = filtered

	for _, members := range d.Components {
		if len(members) < cfg.MinSize {
			b.tree.Unassigned = append(b.tree.Unassigned, members...)
			continue
		}
		rootID := b.addComponent(members, -1, cfg.EdgeFloor, 0)
		b.tree.Roots = append(b.tree.Roots, rootID)
		b.split(rootID, cfg.EdgeFloor, 0)
	}
	sort.Strings(b.tree.Unassigned)

	return b.tree, nil
}

type treeBuilder struct {
	cfg   Config
	tree  *Tree
	edges []WeightedEdge
}

func (b *treeBuilder) addComponent(members []string, parent int, cut float64, depth int) int {
	id := len(b.tree.Components)
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	b.tree.Components = append(b.tree.Components, Component{
		ID:        id,
		Parent:    parent,
		Members:   sorted,
		CutWeight: cut,
		Depth:     depth,
	})
	return id
}

// split recursively searches for a validated cut of component compID.
// parentCut is the threshold of the split that created it (the edge floor
// for top-level regions). Child cuts refine parent cuts, so they sit at
// strictly higher weights.
func (b *treeBuilder) split(compID int, parentCut float64, depth int) {
	members := b.tree.Components[compID].Members
	n := len(members)

	// Two subgroups of MinSize each is the smallest legal split.
	if n < 2*b.cfg.MinSize {
		return
	}
	oversized := n > b.cfg.MaxComponentSize
	if depth+1 >= b.cfg.TargetLevels && !oversized {
		return
	}

	internal := b.internalEdges(members)
	if len(internal) == 0 {
		return
	}
	if weightVariance(internal) < b.cfg.TightThreshold && !oversized {
		// Already cohesive; skip the search. The split search stays the
		// authority for everything this shortcut does not catch.
		return
	}

	best, ok := b.searchCut(members, internal, parentCut)
	if !ok {
		return
	}

	childIDs := make([]int, 0, len(best.groups))
	for _, g := range best.groups {
		childIDs = append(childIDs, b.addComponent(g, compID, best.threshold, depth+1))
	}
	b.tree.Components[compID].Children = childIDs

	b.collectBridges(childIDs, best.threshold)

	for _, childID := range childIDs {
		b.split(childID, best.threshold, depth+1)
	}
}

type candidateCut struct {
	threshold float64
	groups    [][]string
	balance   float64
}

// searchCut evaluates every distinct internal merge weight as a candidate
// threshold and returns the survivor that best balances subgroup sizes.
// MinSize, CohesionThreshold and DeltaMin are hard gates.
func (b *treeBuilder) searchCut(members []string, internal []WeightedEdge, parentCut float64) (candidateCut, bool) {
	var best candidateCut
	found := false

	for _, threshold := range distinctWeights(internal) {
		// Hard gate: a refining cut must clear the parent's cut by
		// DeltaMin, or the two levels would be near-duplicates.
		if threshold < parentCut+b.cfg.DeltaMin {
			continue
		}

		groups := groupsAtThreshold(members, internal, threshold)
		qualifying := make([][]string, 0, len(groups))
		for _, g := range groups {
			if len(g) >= b.cfg.MinSize {
				qualifying = append(qualifying, g)
			}
		}
		if len(qualifying) < 2 {
			continue
		}

		ratio := cohesionRatio(qualifying, internal)
		if ratio <= b.cfg.CohesionThreshold {
			continue
		}

		// Prefer the most balanced split; on a tie take the lower
		// threshold, the coarser cut, so deeper levels keep room to
		// refine.
		bal := sizeBalance(qualifying)
		if !found || bal < best.balance || (bal == best.balance && threshold < best.threshold) {
			best = candidateCut{threshold: threshold, groups: qualifying, balance: bal}
			found = true
		}
	}

	return best, found
}

// collectBridges records advisory secondary memberships between the freshly
// split siblings: a member whose mean edge weight into a sibling comes
// within BridgeMargin of the cut that formed its own group.
func (b *treeBuilder) collectBridges(childIDs []int, threshold float64) {
	for _, homeID := range childIDs {
		home := b.tree.Components[homeID]
		for _, siblingID := range childIDs {
			if siblingID == homeID {
				continue
			}
			sibling := b.tree.Components[siblingID]
			sibSet := memberSet(sibling.Members)
			for _, nodeID := range home.Members {
				mean, count := b.meanWeightInto(nodeID, sibSet)
				if count == 0 {
					continue
				}
				if mean >= threshold-b.cfg.BridgeMargin {
					b.tree.Bridges = append(b.tree.Bridges, Bridge{
						NodeID:      nodeID,
						ComponentID: siblingID,
						Strength:    mean,
					})
				}
			}
		}
	}
}

func (b *treeBuilder) meanWeightInto(nodeID string, group map[string]struct{}) (float64, int) {
	sum := 0.0
	count := 0
	for _, e := range b.edges {
		other := ""
		switch nodeID {
		case e.Source:
			other = e.Target
		case e.Target:
			other = e.Source
		default:
			continue
		}
		if _, ok := group[other]; ok {
			sum += e.Weight
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	return sum / float64(count), count
}

func (b *treeBuilder) internalEdges(members []string) []WeightedEdge {
	set := memberSet(members)
	internal := make([]WeightedEdge, 0, len(b.edges))
	for _, e := range b.edges {
		if _, ok := set[e.Source]; !ok {
			continue
		}
		if _, ok := set[e.Target]; !ok {
			continue
		}
		internal = append(internal, e)
	}
	return internal
}

// groupsAtThreshold returns connected components of the members under edges
// with weight >= threshold, largest first, members sorted.
func groupsAtThreshold(members []string, internal []WeightedEdge, threshold float64) [][]string {
	uf := graph.NewUnionFind(members)
	for _, e := range internal {
		if e.Weight >= threshold {
			uf.Union(e.Source, e.Target)
		}
	}
	groups := uf.Components()
	for _, g := range groups {
		sort.Strings(g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i]) != len(groups[j]) {
			return len(groups[i]) > len(groups[j])
		}
		return groups[i][0] < groups[j][0]
	})
	return groups
}

// cohesionRatio is mean intra-subgroup edge weight over mean weight of
// edges crossing between subgroups. +Inf when nothing crosses.
func cohesionRatio(groups [][]string, internal []WeightedEdge) float64 {
	groupOf := make(map[string]int)
	for gi, g := range groups {
		for _, id := range g {
			groupOf[id] = gi
		}
	}

	intraSum, interSum := 0.0, 0.0
	intraN, interN := 0, 0
	for _, e := range internal {
		gs, okS := groupOf[e.Source]
		gt, okT := groupOf[e.Target]
		if !okS || !okT {
			continue // endpoint absorbed upward, neither side of the boundary
		}
		if gs == gt {
			intraSum += e.Weight
			intraN++
		} else {
			interSum += e.Weight
			interN++
		}
	}

	if intraN == 0 {
		return 0
	}
	intra := intraSum / float64(intraN)
	if interN == 0 {
		return math.Inf(1)
	}
	return intra / (interSum / float64(interN))
}

// sizeBalance is largest/smallest group size; lower is better.
func sizeBalance(groups [][]string) float64 {
	largest, smallest := 0, math.MaxInt
	for _, g := range groups {
		if len(g) > largest {
			largest = len(g)
		}
		if len(g) < smallest {
			smallest = len(g)
		}
	}
	if smallest == 0 {
		return math.Inf(1)
	}
	return float64(largest) / float64(smallest)
}

func distinctWeights(edges []WeightedEdge) []float64 {
	seen := make(map[float64]struct{}, len(edges))
	weights := make([]float64, 0, len(edges))
	for _, e := range edges {
		if _, ok := seen[e.Weight]; ok {
			continue
		}
		seen[e.Weight] = struct{}{}
		weights = append(weights, e.Weight)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(weights)))
	return weights
}

func weightVariance(edges []WeightedEdge) float64 {
	if len(edges) < 2 {
		return 0
	}
	mean := 0.0
	for _, e := range edges {
		mean += e.Weight
	}
	mean /= float64(len(edges))

	variance := 0.0
	for _, e := range edges {
		d := e.Weight - mean
		variance += d * d
	}
	return variance / float64(len(edges))
}

func memberSet(members []string) map[string]struct{} {
	set := make(map[string]struct{}, len(members))
	for _, id := range members {
		set[id] = struct{}{}
	}
	return set
}
