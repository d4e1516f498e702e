package ocr

// CrossingWorkspace provides a reusable Fenwick tree for sweep counting.
// Create with [NewCrossingWorkspace] and reuse across calls to avoid
// allocating per ordering.
//
// The workspace is not safe for concurrent use - each goroutine should have its own.
type CrossingWorkspace struct {
	ft []int64 // Fenwick tree over fixed indices, 1-based
}

// NewCrossingWorkspace creates a workspace for graphs with at most
// fixedCount fixed vertices. A workspace that is too small is grown on use.
func NewCrossingWorkspace(fixedCount int) *CrossingWorkspace {
	return &CrossingWorkspace{ft: make([]int64, fixedCount+1)}
}

// CountCrossingsSweep counts crossings with a Fenwick tree in O(E log V)
// where V is the fixed-layer size. It always equals [CountCrossings].
func CountCrossingsSweep(g *Graph, order Ordering) int64 {
	return NewCrossingWorkspace(g.fixedCount).Count(g, order)
}

// WeightedCrossingsSweep is the Fenwick counterpart of [WeightedCrossings].
func WeightedCrossingsSweep(g *Graph, order Ordering) int64 {
	return NewCrossingWorkspace(g.fixedCount).Weighted(g, order)
}

// Count sweeps the free layer in order. Before inserting the edges of a free
// vertex, each of its edges (a, x) crosses every earlier edge whose fixed
// endpoint is greater than a:
//
//	crossings += inserted - prefix(a)
//
// where prefix(a) counts earlier edges with fixed endpoint <= a. Edges of the
// same free vertex are queried before any of them is inserted, so they never
// count against each other.
func (ws *CrossingWorkspace) Count(g *Graph, order Ordering) int64 {
	ft := ws.reset(g.fixedCount)
	var crossings, inserted int64
	for _, x := range order {
		adj := g.freeAdj[x]
		for _, a := range adj {
			lessOrEqual := int64(0)
			for q := a + 1; q > 0; q -= q & (-q) {
				lessOrEqual += ft[q]
			}
			crossings += inserted - lessOrEqual
		}
		for _, a := range adj {
			inserted++
			for idx := a + 1; idx < len(ft); idx += idx & (-idx) {
				ft[idx]++
			}
		}
	}
	return crossings
}

// Weighted is [CrossingWorkspace.Count] with the tree holding weight sums.
func (ws *CrossingWorkspace) Weighted(g *Graph, order Ordering) int64 {
	ft := ws.reset(g.fixedCount)
	var cost, inserted int64
	for _, x := range order {
		adj, weights := g.freeAdj[x], g.freeW[x]
		for k, a := range adj {
			lessOrEqual := int64(0)
			for q := a + 1; q > 0; q -= q & (-q) {
				lessOrEqual += ft[q]
			}
			cost += weights[k] * (inserted - lessOrEqual)
		}
		for k, a := range adj {
			inserted += weights[k]
			for idx := a + 1; idx < len(ft); idx += idx & (-idx) {
				ft[idx] += weights[k]
			}
		}
	}
	return cost
}

func (ws *CrossingWorkspace) reset(fixedCount int) []int64 {
	limit := fixedCount + 1
	if len(ws.ft) < limit {
		ws.ft = make([]int64, limit)
	}
	ft := ws.ft[:limit]
	clear(ft)
	return ft
}
