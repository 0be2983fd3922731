package observe

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Ekats/Mycelica-sub001/internal/graph"
)

func TestAnalyzeEmptyGraph(t *testing.T) {
	_, err := Analyze(context.Background(), graph.NewSnapshot(nil, nil), DefaultAnalyzerConfig())
	if !errors.Is(err, graph.ErrEmptyGraph) {
		t.Fatalf("err = %v, want ErrEmptyGraph", err)
	}
}

func TestAnalyzeSingleNode(t *testing.T) {
	snap := graph.NewSnapshot([]*graph.NodeInfo{itemNode("only")}, nil)
	_, err := Analyze(context.Background(), snap, DefaultAnalyzerConfig())
	if !errors.Is(err, graph.ErrSingleNode) {
		t.Fatalf("err = %v, want ErrSingleNode", err)
	}
}

func TestAnalyzeRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultAnalyzerConfig()
	cfg.TopN = 0
	_, err := Analyze(context.Background(), twoClusterSnapshot(), cfg)
	if err == nil {
		t.Fatal("expected validation error for TopN=0")
	}
}

func TestAnalyzeTwoClusterBreakdown(t *testing.T) {
	report, err := Analyze(context.Background(), twoClusterSnapshot(), DefaultAnalyzerConfig())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	b := report.HealthBreakdown
	if b.Connectivity != 1.0 {
		t.Errorf("connectivity = %v, want 1.0 (no orphans)", b.Connectivity)
	}
	if b.Components != 0.5 {
		t.Errorf("components = %v, want 0.5 (two components)", b.Components)
	}
	if b.Staleness != 1.0 || b.Fragility != 1.0 {
		t.Errorf("staleness/fragility = %v/%v, want 1.0/1.0", b.Staleness, b.Fragility)
	}

	want := 0.30*1.0 + 0.25*0.5 + 0.25*1.0 + 0.20*1.0
	if math.Abs(report.HealthScore-want) > 1e-9 {
		t.Errorf("health score = %v, want %v", report.HealthScore, want)
	}
}

func TestAnalyzeScoreInUnitRange(t *testing.T) {
	report, err := Analyze(context.Background(), starSnapshot(20), DefaultAnalyzerConfig())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.HealthScore < 0 || report.HealthScore > 1 {
		t.Fatalf("health score = %v, want within [0,1]", report.HealthScore)
	}
}

func TestAnalyzeOrphansNeverRaiseScore(t *testing.T) {
	base, err := Analyze(context.Background(), twoClusterSnapshot(), DefaultAnalyzerConfig())
	if err != nil {
		t.Fatalf("Analyze base: %v", err)
	}

	snap := twoClusterSnapshot()
	var nodes []*graph.NodeInfo
	for _, n := range snap.Nodes {
		nodes = append(nodes, n)
	}
	nodes = append(nodes, itemNode("orphan1"), itemNode("orphan2"))
	withOrphans := graph.NewSnapshot(nodes, snap.Edges)

	degraded, err := Analyze(context.Background(), withOrphans, DefaultAnalyzerConfig())
	if err != nil {
		t.Fatalf("Analyze degraded: %v", err)
	}
	if degraded.HealthScore >= base.HealthScore {
		t.Fatalf("adding orphans raised score: %v -> %v", base.HealthScore, degraded.HealthScore)
	}
}

func TestAnalyzeArticulationPointsLowerScore(t *testing.T) {
	// A 20-spoke star is maximally fragile for its size: one articulation
	// point whose removal shatters the graph.
	report, err := Analyze(context.Background(), starSnapshot(20), DefaultAnalyzerConfig())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.HealthBreakdown.Fragility >= 1.0 {
		t.Fatalf("fragility = %v, want below 1.0 with an articulation point present",
			report.HealthBreakdown.Fragility)
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(-0.5, 0, 1); got != 0 {
		t.Errorf("clamp(-0.5) = %v", got)
	}
	if got := clamp(1.5, 0, 1); got != 1 {
		t.Errorf("clamp(1.5) = %v", got)
	}
	if got := clamp(0.42, 0, 1); got != 0.42 {
		t.Errorf("clamp(0.42) = %v", got)
	}
}
