package graph

// EdgeIndex provides O(1) undirected weight lookups between node pairs.
// When the same pair appears more than once the strongest weight wins.
type EdgeIndex struct {
	weights map[[2]string]float64
}

// NewEdgeIndex builds an index over the given edges.
func NewEdgeIndex(edges []EdgeInfo) *EdgeIndex {
	idx := &EdgeIndex{weights: make(map[[2]string]float64, len(edges))}
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		key := pairKey(e.Source, e.Target)
		if w, ok := idx.weights[key]; !ok || e.Weight > w {
			idx.weights[key] = e.Weight
		}
	}
	return idx
}

// Weight returns the weight between a and b, if any edge connects them.
func (x *EdgeIndex) Weight(a, b string) (float64, bool) {
	w, ok := x.weights[pairKey(a, b)]
	return w, ok
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
