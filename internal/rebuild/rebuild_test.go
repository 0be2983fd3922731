package rebuild

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/Ekats/Mycelica-sub001/internal/graph"
	"github.com/Ekats/Mycelica-sub001/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewStore(store.StoreConfig{
		DBPath: filepath.Join(t.TempDir(), "rebuild.db"),
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertItem(t *testing.T, s store.Store, id, title string) {
	t.Helper()
	err := s.InsertNode(context.Background(), &store.Node{
		ID: id, NodeType: "thought", Title: title,
		CreatedAt: 100, UpdatedAt: 100, Depth: 1, IsItem: true,
	})
	if err != nil {
		t.Fatalf("InsertNode(%s): %v", id, err)
	}
}

func insertSimilar(t *testing.T, s store.Store, source, target string, w float64) {
	t.Helper()
	err := s.InsertEdge(context.Background(), &store.Edge{
		ID: source + "-" + target, SourceID: source, TargetID: target,
		EdgeType: "similar", Weight: &w, CreatedAt: 100,
	})
	if err != nil {
		t.Fatalf("InsertEdge(%s-%s): %v", source, target, err)
	}
}

// seedTwoClusters inserts two 5-cliques at 0.9, one weakly-linked orphan,
// and one fully isolated item.
func seedTwoClusters(t *testing.T, s store.Store) {
	t.Helper()
	for _, prefix := range []string{"a", "b"} {
		ids := make([]string, 5)
		for i := range ids {
			ids[i] = fmt.Sprintf("%s%d", prefix, i)
			insertItem(t, s, ids[i], fmt.Sprintf("Topic %s paper %d", prefix, i))
		}
		for i := 0; i < 4; i++ {
			for j := i + 1; j < 5; j++ {
				insertSimilar(t, s, ids[i], ids[j], 0.9)
			}
		}
	}
	insertItem(t, s, "loner", "Loner note")
	insertSimilar(t, s, "loner", "a0", 0.2) // below the edge floor
	insertItem(t, s, "island", "Island note")
}

func TestRunBuildsAndCommitsHierarchy(t *testing.T) {
	s := newTestStore(t)
	seedTwoClusters(t, s)
	ctx := context.Background()

	report, err := NewOrchestrator(s, nil).Run(ctx, DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Regions != 2 {
		t.Errorf("regions = %d, want 2", report.Regions)
	}
	if report.TotalItems != 12 {
		t.Errorf("total items = %d, want 12", report.TotalItems)
	}
	if report.ItemsAssigned != 12 {
		t.Errorf("items assigned = %d, want 12", report.ItemsAssigned)
	}
	if report.RescuedByWeight != 1 {
		t.Errorf("rescued by weight = %d, want 1 (the loner)", report.RescuedByWeight)
	}
	if report.RescuedToUniverse != 1 {
		t.Errorf("rescued to universe = %d, want 1 (the island)", report.RescuedToUniverse)
	}

	universe, err := s.GetNode(ctx, UniverseID)
	if err != nil {
		t.Fatalf("GetNode universe: %v", err)
	}
	if universe == nil || !universe.IsUniverse || universe.Depth != 0 {
		t.Fatalf("universe = %+v, want depth-0 root", universe)
	}
	// Two root regions plus the island item.
	if universe.ChildCount != 3 {
		t.Errorf("universe child count = %d, want 3", universe.ChildCount)
	}

	a0, err := s.GetNode(ctx, "a0")
	if err != nil {
		t.Fatalf("GetNode a0: %v", err)
	}
	if a0.ParentID == nil || a0.Depth != 2 {
		t.Fatalf("a0 = %+v, want a region parent at depth 2", a0)
	}

	// The loner connects only into the a-cluster; it must land there.
	loner, err := s.GetNode(ctx, "loner")
	if err != nil {
		t.Fatalf("GetNode loner: %v", err)
	}
	if loner.ParentID == nil || *loner.ParentID != *a0.ParentID {
		t.Errorf("loner parent = %v, want a0's region %v", loner.ParentID, a0.ParentID)
	}

	island, err := s.GetNode(ctx, "island")
	if err != nil {
		t.Fatalf("GetNode island: %v", err)
	}
	if island.ParentID == nil || *island.ParentID != UniverseID || island.Depth != 1 {
		t.Errorf("island = %+v, want universe parent at depth 1", island)
	}

	region, err := s.GetNode(ctx, *a0.ParentID)
	if err != nil {
		t.Fatalf("GetNode region: %v", err)
	}
	if region.NodeType != "region" || region.Title == "" {
		t.Errorf("region = %+v, want named region node", region)
	}
	// Five clique members plus the rescued loner.
	if region.ChildCount != 6 {
		t.Errorf("region child count = %d, want 6", region.ChildCount)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	s := newTestStore(t)
	seedTwoClusters(t, s)
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.DryRun = true
	report, err := NewOrchestrator(s, nil).Run(ctx, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.DryRun || report.Regions != 2 {
		t.Errorf("report = %+v, want dry-run with 2 regions", report)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.RegionCount != 0 {
		t.Errorf("region count = %d after dry run, want 0", stats.RegionCount)
	}
	if u, _ := s.GetNode(ctx, UniverseID); u != nil {
		t.Errorf("dry run created the universe node: %+v", u)
	}
}

func TestRunSecondRebuildReplacesRegions(t *testing.T) {
	s := newTestStore(t)
	seedTwoClusters(t, s)
	ctx := context.Background()
	orch := NewOrchestrator(s, nil)

	if _, err := orch.Run(ctx, DefaultConfig()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := orch.Run(ctx, DefaultConfig()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.RegionCount != 2 {
		t.Errorf("region count = %d after two rebuilds, want 2", stats.RegionCount)
	}
}

func TestRunEmptyGraph(t *testing.T) {
	s := newTestStore(t)
	_, err := NewOrchestrator(s, nil).Run(context.Background(), DefaultConfig())
	if !errors.Is(err, graph.ErrEmptyGraph) {
		t.Fatalf("err = %v, want ErrEmptyGraph", err)
	}
}

func TestRunSingleNode(t *testing.T) {
	s := newTestStore(t)
	insertItem(t, s, "only", "The only note")
	_, err := NewOrchestrator(s, nil).Run(context.Background(), DefaultConfig())
	if !errors.Is(err, graph.ErrSingleNode) {
		t.Fatalf("err = %v, want ErrSingleNode", err)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	s := newTestStore(t)
	seedTwoClusters(t, s)

	cfg := DefaultConfig()
	cfg.Tree.MinSize = 0
	if _, err := NewOrchestrator(s, nil).Run(context.Background(), cfg); err == nil {
		t.Fatal("expected validation error for MinSize=0")
	}
}
