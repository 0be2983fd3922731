// Package rebuild orchestrates the full adaptive hierarchy rebuild: load a
// snapshot, build the dendrogram, cut it into a validated tree, and commit
// the new generation of region nodes in one transaction.
//
// The pipeline distinguishes computation failure (nothing written) from
// store-write failure (transaction rolled back); either way the previous
// hierarchy survives intact.
package rebuild

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Ekats/Mycelica-sub001/internal/graph"
	"github.com/Ekats/Mycelica-sub001/internal/hierarchy"
	"github.com/Ekats/Mycelica-sub001/internal/store"
)

// UniverseID is the fixed ID of the hierarchy root node.
const UniverseID = "universe"

// keywordTitleLimit caps how many member titles feed keyword naming.
const keywordTitleLimit = 15

// Config holds rebuild options.
type Config struct {
	// Tree holds the adaptive tree tunables.
	Tree hierarchy.Config `json:"tree" yaml:"tree"`
	// KeywordTopN is how many keywords make up a region title.
	KeywordTopN int `json:"keyword_top_n" yaml:"keyword_top_n"`
	// DryRun computes everything and writes nothing.
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}

// DefaultConfig returns the default rebuild options.
func DefaultConfig() Config {
	return Config{
		Tree:        hierarchy.DefaultConfig(),
		KeywordTopN: 3,
	}
}

// Report summarizes what a rebuild did (or, for a dry run, would do).
type Report struct {
	DryRun            bool  `json:"dry_run"`
	TotalItems        int   `json:"total_items"`
	Regions           int   `json:"regions"`
	ItemsAssigned     int   `json:"items_assigned"`
	RescuedByWeight   int   `json:"rescued_by_weight"`
	RescuedToUniverse int   `json:"rescued_to_universe"`
	BridgeEdges       int   `json:"bridge_edges"`
	MaxDepth          int   `json:"max_depth"`
	DurationMs        int64 `json:"duration_ms"`
}

// Orchestrator runs rebuilds against a store.
type Orchestrator struct {
	store store.Store
	log   *slog.Logger
}

// NewOrchestrator creates an Orchestrator. A nil logger disables progress
// logging.
func NewOrchestrator(s store.Store, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{store: s, log: log}
}

// Run executes the rebuild pipeline. Input errors (empty graph, single
// node) surface as the graph package sentinels before anything is written.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) (*Report, error) {
	start := time.Now()
	if err := cfg.Tree.Validate(); err != nil {
		return nil, fmt.Errorf("validating tree config: %w", err)
	}
	if cfg.KeywordTopN <= 0 {
		cfg.KeywordTopN = 3
	}

	snap, err := store.LoadSnapshot(ctx, o.store)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	switch len(snap.Nodes) {
	case 0:
		return nil, graph.ErrEmptyGraph
	case 1:
		return nil, graph.ErrSingleNode
	}

	items := snap.ItemIDs()
	wedges := clusteringEdges(snap)
	o.log.Info("rebuild: snapshot loaded",
		"items", len(items), "edges", len(wedges))

	dendro := hierarchy.BuildDendrogram(items, wedges, cfg.Tree.EdgeFloor)
	o.log.Info("rebuild: dendrogram built",
		"merges", len(dendro.Merges), "components", len(dendro.Components))

	tree, err := hierarchy.BuildTree(dendro, wedges, cfg.Tree)
	if err != nil {
		return nil, fmt.Errorf("building adaptive tree: %w", err)
	}
	o.log.Info("rebuild: tree built",
		"regions", len(tree.Components), "unassigned", len(tree.Unassigned))

	batch, report := o.flatten(snap, tree, cfg)
	report.TotalItems = len(items)
	report.DryRun = cfg.DryRun
	report.DurationMs = time.Since(start).Milliseconds()

	if cfg.DryRun {
		o.log.Info("rebuild: dry run, nothing written",
			"regions", report.Regions, "bridges", report.BridgeEdges)
		return report, nil
	}

	if err := o.store.ApplyHierarchy(ctx, batch); err != nil {
		return nil, fmt.Errorf("applying hierarchy: %w", err)
	}
	report.DurationMs = time.Since(start).Milliseconds()
	o.log.Info("rebuild: committed",
		"regions", report.Regions,
		"items", report.ItemsAssigned,
		"bridges", report.BridgeEdges,
		"duration_ms", report.DurationMs)
	return report, nil
}

// clusteringEdges extracts item-to-item weighted edges from the snapshot.
// Bridge edges from previous generations are artifacts of the hierarchy
// itself and never feed back into clustering.
func clusteringEdges(snap *graph.Snapshot) []hierarchy.WeightedEdge {
	var edges []hierarchy.WeightedEdge
	for _, e := range snap.Edges {
		if e.EdgeType == "bridge" {
			continue
		}
		src, okS := snap.Nodes[e.Source]
		tgt, okT := snap.Nodes[e.Target]
		if !okS || !okT || !src.IsItem || !tgt.IsItem {
			continue
		}
		edges = append(edges, hierarchy.WeightedEdge{
			Source: e.Source,
			Target: e.Target,
			Weight: e.Weight,
		})
	}
	return edges
}

// flatten converts the component arena into a store batch: one region node
// per component, item assignments under the deepest containing region,
// orphan rescue, child counts, and persisted bridge edges.
func (o *Orchestrator) flatten(snap *graph.Snapshot, tree *hierarchy.Tree, cfg Config) (*store.HierarchyBatch, *Report) {
	now := time.Now().UnixMilli()
	report := &Report{MaxDepth: tree.MaxDepth()}

	universeID := UniverseID
	batch := &store.HierarchyBatch{
		Universe: &store.Node{
			ID: universeID, NodeType: "universe", Title: "Universe",
			CreatedAt: now, UpdatedAt: now, Depth: 0, IsUniverse: true,
		},
		ChildCounts: map[string]int{},
	}

	// Region node per component, arena order. Component depth 0 sits at
	// node depth 1, directly under the universe.
	regionIDs := make([]string, len(tree.Components))
	for i := range tree.Components {
		regionIDs[i] = uuid.NewString()
	}
	for i := range tree.Components {
		comp := &tree.Components[i]
		parentID := universeID
		if comp.Parent >= 0 {
			parentID = regionIDs[comp.Parent]
		}
		pid := parentID
		batch.RegionNodes = append(batch.RegionNodes, &store.Node{
			ID:        regionIDs[i],
			NodeType:  "region",
			Title:     o.regionTitle(snap, comp, cfg.KeywordTopN),
			CreatedAt: now,
			UpdatedAt: now,
			Depth:     comp.Depth + 1,
			ParentID:  &pid,
		})
	}

	// Items parent to the deepest component that holds them directly.
	for i := range tree.Components {
		comp := &tree.Components[i]
		for _, member := range directMembers(tree, comp) {
			batch.Assignments = append(batch.Assignments, store.NodeAssignment{
				NodeID:   member,
				ParentID: regionIDs[i],
				Depth:    comp.Depth + 2,
			})
			batch.ChildCounts[regionIDs[i]]++
			report.ItemsAssigned++
		}
		batch.ChildCounts[regionIDs[i]] += len(comp.Children)
	}

	// Orphan rescue: strongest mean raw edge weight into a top-level
	// region wins; items with no edges at all parent to the universe.
	idx := graph.NewEdgeIndex(rawItemEdges(snap))
	for _, orphan := range tree.Unassigned {
		compID, ok := bestRegionFor(orphan, tree, idx)
		if ok {
			comp := tree.Component(compID)
			batch.Assignments = append(batch.Assignments, store.NodeAssignment{
				NodeID:   orphan,
				ParentID: regionIDs[compID],
				Depth:    comp.Depth + 2,
			})
			batch.ChildCounts[regionIDs[compID]]++
			report.RescuedByWeight++
		} else {
			batch.Assignments = append(batch.Assignments, store.NodeAssignment{
				NodeID:   orphan,
				ParentID: universeID,
				Depth:    1,
			})
			report.RescuedToUniverse++
		}
		report.ItemsAssigned++
	}

	// Bridge tuples persist as advisory edges into the secondary region.
	for _, b := range tree.Bridges {
		weight := b.Strength
		batch.BridgeEdges = append(batch.BridgeEdges, &store.Edge{
			ID:        fmt.Sprintf("bridge-%s-%s", b.NodeID, regionIDs[b.ComponentID]),
			SourceID:  b.NodeID,
			TargetID:  regionIDs[b.ComponentID],
			EdgeType:  "bridge",
			Weight:    &weight,
			CreatedAt: now,
		})
	}

	rootRegions := 0
	for i := range tree.Components {
		if tree.Components[i].Parent < 0 {
			rootRegions++
		}
	}
	batch.ChildCounts[universeID] = rootRegions + report.RescuedToUniverse

	report.Regions = len(tree.Components)
	report.BridgeEdges = len(batch.BridgeEdges)
	return batch, report
}

// regionTitle names a region from its member titles; keyword extraction
// with a positional fallback when no usable words exist.
func (o *Orchestrator) regionTitle(snap *graph.Snapshot, comp *hierarchy.Component, topN int) string {
	titles := make([]string, 0, keywordTitleLimit)
	for _, member := range comp.Members {
		node, ok := snap.Nodes[member]
		if !ok || node.Title == "" {
			continue
		}
		titles = append(titles, node.Title)
		if len(titles) == keywordTitleLimit {
			break
		}
	}
	if name := hierarchy.KeywordName(titles, topN); name != "" {
		return name
	}
	return fmt.Sprintf("Region %d", comp.ID+1)
}

// directMembers returns members of comp not claimed by any child component.
func directMembers(tree *hierarchy.Tree, comp *hierarchy.Component) []string {
	if len(comp.Children) == 0 {
		return comp.Members
	}
	claimed := make(map[string]struct{})
	for _, childID := range comp.Children {
		for _, m := range tree.Components[childID].Members {
			claimed[m] = struct{}{}
		}
	}
	var direct []string
	for _, m := range comp.Members {
		if _, ok := claimed[m]; !ok {
			direct = append(direct, m)
		}
	}
	return direct
}

// rawItemEdges returns all item-to-item edges with no weight floor; orphan
// rescue deliberately sees the weak edges clustering ignored.
func rawItemEdges(snap *graph.Snapshot) []graph.EdgeInfo {
	var edges []graph.EdgeInfo
	for _, e := range snap.Edges {
		if e.EdgeType == "bridge" {
			continue
		}
		src, okS := snap.Nodes[e.Source]
		tgt, okT := snap.Nodes[e.Target]
		if !okS || !okT || !src.IsItem || !tgt.IsItem {
			continue
		}
		edges = append(edges, e)
	}
	return edges
}

// bestRegionFor picks the top-level region whose members the orphan
// connects to most strongly by mean edge weight. Ties break toward the
// lower component ID for determinism. Returns false when the orphan has no
// edges into any region.
func bestRegionFor(orphan string, tree *hierarchy.Tree, idx *graph.EdgeIndex) (int, bool) {
	bestID := -1
	bestMean := 0.0
	bestCount := 0

	rootIDs := append([]int(nil), tree.Roots...)
	sort.Ints(rootIDs)
	for _, rootID := range rootIDs {
		comp := tree.Component(rootID)
		sum := 0.0
		count := 0
		for _, member := range comp.Members {
			if w, ok := idx.Weight(orphan, member); ok {
				sum += w
				count++
			}
		}
		if count == 0 {
			continue
		}
		mean := sum / float64(count)
		if mean > bestMean || (mean == bestMean && count > bestCount) {
			bestID = rootID
			bestMean = mean
			bestCount = count
		}
	}
	if bestID < 0 {
		return 0, false
	}
	return bestID, true
}
