package ocr

import (
	"slices"
	"strings"
)

// Edge is one fixed–free edge in 0-based layer indices.
type Edge struct {
	Fixed  int   // Fixed-layer index in [0, FixedCount)
	Free   int   // Free-layer index in [0, FreeCount)
	Weight int64 // Always >= 1; 1 for unweighted instances
}

// Ordering is a placement of the free layer: Ordering[p] is the 0-based free
// index placed at position p. Orderings handed to the counters must be
// permutations of [0, FreeCount); package solution produces validated ones.
type Ordering []int

// Graph is an immutable two-layer bipartite graph.
//
// The zero value is an empty graph with no vertices. Use [Parse] or [NewGraph]
// to build one.
type Graph struct {
	fixedCount int
	freeCount  int
	edgeCount  int
	weighted   bool

	fixedAdj [][]int   // fixed -> ascending free indices
	fixedW   [][]int64 // parallel to fixedAdj
	freeAdj  [][]int   // free -> ascending fixed indices
	freeW    [][]int64 // parallel to freeAdj
}

// NewGraph builds a graph from 0-based edges. Edges are expected to be in
// range; [Parse] is the checked entry point for external input. Edges with a
// weight below 1 get weight 1. Duplicate edges are kept as parallel edges.
// The graph is weighted when any edge has a weight other than 1.
func NewGraph(fixedCount, freeCount int, edges []Edge) *Graph {
	b := newBuilder(fixedCount, freeCount)
	for _, e := range edges {
		w := e.Weight
		if w < 1 {
			w = 1
		}
		if w != 1 {
			b.weighted = true
		}
		b.add(e.Fixed, e.Free, w)
	}
	g, _ := b.build(true)
	return g
}

// FixedCount returns the number of fixed-layer vertices.
func (g *Graph) FixedCount() int { return g.fixedCount }

// FreeCount returns the number of free-layer vertices.
func (g *Graph) FreeCount() int { return g.freeCount }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// Weighted reports whether the instance carried a weight column.
func (g *Graph) Weighted() bool { return g.weighted }

// NeighborsOfFixed returns the ascending free indices adjacent to fixed vertex i.
// The returned slice must not be modified.
func (g *Graph) NeighborsOfFixed(i int) []int { return g.fixedAdj[i] }

// NeighborsOfFree returns the ascending fixed indices adjacent to free vertex j.
// The returned slice must not be modified.
func (g *Graph) NeighborsOfFree(j int) []int { return g.freeAdj[j] }

// WeightsOfFree returns the edge weights parallel to [Graph.NeighborsOfFree].
// The returned slice must not be modified.
func (g *Graph) WeightsOfFree(j int) []int64 { return g.freeW[j] }

// Degree returns the degree of free vertex j.
func (g *Graph) Degree(j int) int { return len(g.freeAdj[j]) }

// IsolatedFree returns how many free vertices have no edges.
func (g *Graph) IsolatedFree() int {
	n := 0
	for _, adj := range g.freeAdj {
		if len(adj) == 0 {
			n++
		}
	}
	return n
}

// Edges returns all edges ordered by fixed index, then free index.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edgeCount)
	for i, adj := range g.fixedAdj {
		for k, j := range adj {
			edges = append(edges, Edge{Fixed: i, Free: j, Weight: g.fixedW[i][k]})
		}
	}
	return edges
}

// FreeID converts a 0-based free index into the 1-based combined id used in
// instance and solution files.
func (g *Graph) FreeID(j int) int { return g.fixedCount + j + 1 }

// FreeIndex converts a 1-based combined id back into a 0-based free index.
// ok is false when id does not name a free vertex.
func (g *Graph) FreeIndex(id int) (j int, ok bool) {
	j = id - g.fixedCount - 1
	return j, j >= 0 && j < g.freeCount
}

// Equal reports whether g and o describe the same graph, weights included.
func (g *Graph) Equal(o *Graph) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.fixedCount != o.fixedCount || g.freeCount != o.freeCount ||
		g.edgeCount != o.edgeCount || g.weighted != o.weighted {
		return false
	}
	for i := range g.fixedAdj {
		if !slices.Equal(g.fixedAdj[i], o.fixedAdj[i]) || !slices.Equal(g.fixedW[i], o.fixedW[i]) {
			return false
		}
	}
	return true
}

// String returns the graph in instance file format.
func (g *Graph) String() string {
	var sb strings.Builder
	_, _ = g.WriteTo(&sb)
	return sb.String()
}

// builder collects edges per fixed vertex and derives both sorted views.
type builder struct {
	fixedCount, freeCount int
	weighted              bool
	half                  [][]halfEdge
}

type halfEdge struct {
	free   int
	weight int64
}

func newBuilder(fixedCount, freeCount int) *builder {
	return &builder{
		fixedCount: fixedCount,
		freeCount:  freeCount,
		half:       make([][]halfEdge, fixedCount),
	}
}

func (b *builder) add(fixed, free int, w int64) {
	b.half[fixed] = append(b.half[fixed], halfEdge{free: free, weight: w})
}

// build sorts the per-fixed lists and emits both adjacency views. Walking the
// fixed vertices in ascending order makes every free list ascending without a
// second sort. When keepDuplicates is false, the first repeated edge found is
// returned as dup (and the graph is nil).
func (b *builder) build(keepDuplicates bool) (g *Graph, dup *Edge) {
	g = &Graph{
		fixedCount: b.fixedCount,
		freeCount:  b.freeCount,
		weighted:   b.weighted,
		fixedAdj:   make([][]int, b.fixedCount),
		fixedW:     make([][]int64, b.fixedCount),
		freeAdj:    make([][]int, b.freeCount),
		freeW:      make([][]int64, b.freeCount),
	}
	for i, hs := range b.half {
		slices.SortStableFunc(hs, func(x, y halfEdge) int { return x.free - y.free })
		adj := make([]int, 0, len(hs))
		ws := make([]int64, 0, len(hs))
		for k, h := range hs {
			if k > 0 && hs[k-1].free == h.free && !keepDuplicates {
				return nil, &Edge{Fixed: i, Free: h.free, Weight: h.weight}
			}
			adj = append(adj, h.free)
			ws = append(ws, h.weight)
			g.freeAdj[h.free] = append(g.freeAdj[h.free], i)
			g.freeW[h.free] = append(g.freeW[h.free], h.weight)
		}
		g.fixedAdj[i] = adj
		g.fixedW[i] = ws
		g.edgeCount += len(adj)
	}
	return g, nil
}

// dedupe drops repeated (fixed, free) pairs, keeping the first occurrence.
func (b *builder) dedupe() {
	for i, hs := range b.half {
		slices.SortStableFunc(hs, func(x, y halfEdge) int { return x.free - y.free })
		b.half[i] = slices.CompactFunc(hs, func(x, y halfEdge) bool { return x.free == y.free })
	}
}
