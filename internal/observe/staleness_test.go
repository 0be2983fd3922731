package observe

import (
	"testing"

	"github.com/Ekats/Mycelica-sub001/internal/graph"
)

const testNow = int64(2_000) * millisPerDay

func timedNode(id string, updatedDaysAgo int64) *graph.NodeInfo {
	ts := testNow - updatedDaysAgo*millisPerDay
	return &graph.NodeInfo{
		ID: id, Title: "node " + id, NodeType: "thought",
		CreatedAt: ts, UpdatedAt: ts, Depth: 1, IsItem: true,
	}
}

func timedEdge(source, target string, createdDaysAgo int64) graph.EdgeInfo {
	return graph.EdgeInfo{
		ID: source + "-" + target, Source: source, Target: target,
		EdgeType: "similar", Weight: 0.8,
		CreatedAt: testNow - createdDaysAgo*millisPerDay,
	}
}

func TestStaleNodeDetection(t *testing.T) {
	nodes := []*graph.NodeInfo{
		timedNode("old", 100),    // stale: old, with a newer incoming ref
		timedNode("fresh", 1),    // not stale: recently updated
		timedNode("lonely", 200), // not stale: old but no newer refs
		timedNode("other", 5),
	}
	edges := []graph.EdgeInfo{
		timedEdge("other", "old", 5),
		timedEdge("other", "fresh", 2),
	}
	snap := graph.NewSnapshot(nodes, edges)

	report := computeStalenessAt(snap, 30, 50, testNow)

	if report.StaleNodeCount != 1 {
		t.Fatalf("stale nodes = %+v, want only old", report.StaleNodes)
	}
	stale := report.StaleNodes[0]
	if stale.ID != "old" || stale.DaysSinceUpdate != 100 || stale.RecentRefCount != 1 {
		t.Errorf("stale node = %+v, want old at 100 days with 1 recent ref", stale)
	}
}

func TestStaleNodeRefMustBeNewer(t *testing.T) {
	// Reference older than the node's own update does not make it stale.
	nodes := []*graph.NodeInfo{timedNode("old", 100), timedNode("other", 100)}
	edges := []graph.EdgeInfo{timedEdge("other", "old", 150)}
	report := computeStalenessAt(graph.NewSnapshot(nodes, edges), 30, 50, testNow)

	if report.StaleNodeCount != 0 {
		t.Fatalf("stale nodes = %+v, want none", report.StaleNodes)
	}
}

func TestStaleNodeNonItemsExcluded(t *testing.T) {
	category := timedNode("cat", 100)
	category.IsItem = false
	category.NodeType = "category"
	nodes := []*graph.NodeInfo{category, timedNode("other", 5)}
	edges := []graph.EdgeInfo{timedEdge("other", "cat", 5)}
	report := computeStalenessAt(graph.NewSnapshot(nodes, edges), 30, 50, testNow)

	if report.StaleNodeCount != 0 {
		t.Fatalf("non-item nodes must not be reported stale, got %+v", report.StaleNodes)
	}
}

func TestStaleSummaryDrift(t *testing.T) {
	summary := timedNode("sum", 50)
	target := timedNode("target", 40) // moved on 10 days after the summary
	nodes := []*graph.NodeInfo{summary, target}
	edges := []graph.EdgeInfo{{
		ID: "s", Source: "sum", Target: "target", EdgeType: "summarizes",
		Weight: 1.0, CreatedAt: summary.CreatedAt,
	}}
	report := computeStalenessAt(graph.NewSnapshot(nodes, edges), 30, 50, testNow)

	if report.StaleSummaryCount != 1 {
		t.Fatalf("stale summaries = %+v, want one", report.StaleSummaries)
	}
	drift := report.StaleSummaries[0]
	if drift.SummaryNodeID != "sum" || drift.TargetNodeID != "target" || drift.DriftDays != 10 {
		t.Errorf("stale summary = %+v, want sum->target with 10 drift days", drift)
	}
}

func TestStaleSummaryInSyncNotReported(t *testing.T) {
	summary := timedNode("sum", 40)
	target := timedNode("target", 50) // summary is newer than the target
	edges := []graph.EdgeInfo{{
		ID: "s", Source: "sum", Target: "target", EdgeType: "summarizes", Weight: 1.0,
	}}
	report := computeStalenessAt(graph.NewSnapshot([]*graph.NodeInfo{summary, target}, edges), 30, 50, testNow)

	if report.StaleSummaryCount != 0 {
		t.Fatalf("in-sync summary reported stale: %+v", report.StaleSummaries)
	}
}

func TestStalenessSampleCapKeepsFullCount(t *testing.T) {
	nodes := []*graph.NodeInfo{
		timedNode("older", 200),
		timedNode("old", 100),
		timedNode("other", 1),
	}
	edges := []graph.EdgeInfo{
		timedEdge("other", "older", 5),
		timedEdge("other", "old", 5),
	}
	report := computeStalenessAt(graph.NewSnapshot(nodes, edges), 30, 1, testNow)

	if report.StaleNodeCount != 2 {
		t.Fatalf("stale count = %d, want 2 regardless of cap", report.StaleNodeCount)
	}
	if len(report.StaleNodes) != 1 || report.StaleNodes[0].ID != "older" {
		t.Errorf("capped sample = %+v, want just the stalest node", report.StaleNodes)
	}
}
