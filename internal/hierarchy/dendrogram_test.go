package hierarchy

import (
	"fmt"
	"reflect"
	"testing"
)

// clique returns all pairwise edges among ids at the given weight.
func clique(ids []string, weight float64) []WeightedEdge {
	var edges []WeightedEdge
	for i := 0; i < len(ids)-1; i++ {
		for j := i + 1; j < len(ids); j++ {
			edges = append(edges, WeightedEdge{Source: ids[i], Target: ids[j], Weight: weight})
		}
	}
	return edges
}

func idRange(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%02d", prefix, i)
	}
	return ids
}

func TestBuildDendrogramSimpleChain(t *testing.T) {
	nodes := []string{"p1", "p2", "p3"}
	edges := []WeightedEdge{
		{Source: "p1", Target: "p2", Weight: 0.9},
		{Source: "p2", Target: "p3", Weight: 0.7},
		{Source: "p1", Target: "p3", Weight: 0.6}, // redundant, no merge
	}

	d := BuildDendrogram(nodes, edges, 0.3)

	if len(d.Merges) != 2 {
		t.Fatalf("expected 2 merges for 3 connected nodes, got %d", len(d.Merges))
	}
	if d.Merges[0].Weight != 0.9 || d.Merges[1].Weight != 0.7 {
		t.Errorf("merges out of order: %+v", d.Merges)
	}
	if d.Merges[1].Size != 3 {
		t.Errorf("final merge size = %d, want 3", d.Merges[1].Size)
	}
	if d.Root != d.Merges[1].ID {
		t.Errorf("root = %q, want final merge %q", d.Root, d.Merges[1].ID)
	}
}

func TestDendrogramForestInvariant(t *testing.T) {
	// merges == leaves - components, for a mix of clusters and singletons.
	a := idRange("a", 5)
	b := idRange("b", 4)
	nodes := append(append(append([]string{}, a...), b...), "lone1", "lone2")

	edges := append(clique(a, 0.9), clique(b, 0.8)...)
	edges = append(edges, WeightedEdge{Source: "a00", Target: "lone1", Weight: 0.1}) // below floor

	d := BuildDendrogram(nodes, edges, 0.3)

	// Components: a (5), b (4), lone1, lone2.
	if len(d.Components) != 4 {
		t.Fatalf("components = %d, want 4", len(d.Components))
	}
	wantMerges := len(nodes) - len(d.Components)
	if len(d.Merges) != wantMerges {
		t.Fatalf("merges = %d, want leaves-components = %d", len(d.Merges), wantMerges)
	}
	if d.Root != "" {
		t.Errorf("disconnected forest must have no root, got %q", d.Root)
	}
}

func TestDendrogramNoConsumedIDReferenced(t *testing.T) {
	a := idRange("a", 6)
	d := BuildDendrogram(a, clique(a, 0.9), 0.3)

	consumed := make(map[string]bool)
	for _, m := range d.Merges {
		if consumed[m.Left] {
			t.Fatalf("merge %s references consumed id %s", m.ID, m.Left)
		}
		if consumed[m.Right] {
			t.Fatalf("merge %s references consumed id %s", m.ID, m.Right)
		}
		consumed[m.Left] = true
		consumed[m.Right] = true
	}
}

func TestDendrogramTwoClustersBelowFloorLink(t *testing.T) {
	// Two tight 5-node clusters joined only by a 0.2 edge, which is below
	// the floor: the dendrogram must keep them as two separate components
	// with no merge across the gap.
	a := idRange("a", 5)
	b := idRange("b", 5)
	nodes := append(append([]string{}, a...), b...)

	edges := append(clique(a, 0.9), clique(b, 0.85)...)
	edges = append(edges, WeightedEdge{Source: "a00", Target: "b00", Weight: 0.2})

	d := BuildDendrogram(nodes, edges, 0.3)

	if len(d.Components) != 2 {
		t.Fatalf("components = %d, want 2", len(d.Components))
	}
	for _, c := range d.Components {
		if len(c) != 5 {
			t.Errorf("component size = %d, want 5", len(c))
		}
	}
	if len(d.Merges) != 8 {
		t.Errorf("merges = %d, want 8 (4 per cluster)", len(d.Merges))
	}
	if d.Root != "" {
		t.Errorf("no single root merge expected, got %q", d.Root)
	}
	for _, m := range d.Merges {
		if m.Weight < 0.3 {
			t.Errorf("below-floor weight %v leaked into merges", m.Weight)
		}
	}
}

func TestDendrogramSingleNode(t *testing.T) {
	d := BuildDendrogram([]string{"only"}, nil, 0.3)

	if len(d.Merges) != 0 {
		t.Fatalf("expected no merges, got %d", len(d.Merges))
	}
	if d.Root != "" {
		t.Fatalf("expected empty root, got %q", d.Root)
	}
	if len(d.Components) != 1 || len(d.Components[0]) != 1 {
		t.Fatalf("expected a single singleton component, got %v", d.Components)
	}
}

func TestDendrogramEmpty(t *testing.T) {
	d := BuildDendrogram(nil, nil, 0.3)
	if len(d.Merges) != 0 || d.Root != "" || len(d.Components) != 0 {
		t.Fatalf("empty input must give empty dendrogram, got %+v", d)
	}
}

func TestDendrogramDeterministicUnderTies(t *testing.T) {
	nodes := []string{"n1", "n2", "n3", "n4"}
	// All weights tie; order of input edges differs between runs.
	edgesA := []WeightedEdge{
		{Source: "n3", Target: "n4", Weight: 0.8},
		{Source: "n1", Target: "n2", Weight: 0.8},
		{Source: "n2", Target: "n3", Weight: 0.8},
	}
	edgesB := []WeightedEdge{
		{Source: "n2", Target: "n3", Weight: 0.8},
		{Source: "n3", Target: "n4", Weight: 0.8},
		{Source: "n1", Target: "n2", Weight: 0.8},
	}

	dA := BuildDendrogram(nodes, edgesA, 0.3)
	dB := BuildDendrogram(nodes, edgesB, 0.3)

	if !reflect.DeepEqual(dA.Merges, dB.Merges) {
		t.Fatalf("merge order not deterministic:\n%+v\n%+v", dA.Merges, dB.Merges)
	}
}
