package ocr

import "github.com/matzehuels/ocrbench/pkg/errors"

// MaxLowerBoundFree is the largest free layer [LowerBound] accepts. The bound
// looks at every free pair, so larger instances take too long to be useful
// as a per-row diagnostic.
const MaxLowerBoundFree = 20000

// PairCrossings returns the crossings contributed by free vertices x and y:
// uv when x is placed before y, vu when y is placed before x.
func (g *Graph) PairCrossings(x, y int) (uv, vu int64) {
	return pairCrossings(g.freeAdj[x], g.freeAdj[y])
}

// LowerBound returns Σ over free pairs {x, y} of min(c(x,y), c(y,x)). Every
// ordering places each pair one way or the other, so no ordering has fewer
// crossings. Weighted graphs get the bound on the weighted cost.
//
// Free vertices without edges are skipped. Instances with more than
// [MaxLowerBoundFree] free vertices are refused with ErrCodeUnsupported.
func LowerBound(g *Graph) (int64, error) {
	if g.freeCount > MaxLowerBoundFree {
		return 0, errors.New(errors.ErrCodeUnsupported,
			"lower bound needs at most %d free vertices, instance has %d", MaxLowerBoundFree, g.freeCount)
	}
	active := make([]int, 0, g.freeCount)
	for j, adj := range g.freeAdj {
		if len(adj) > 0 {
			active = append(active, j)
		}
	}

	var lb int64
	for i, x := range active {
		for _, y := range active[i+1:] {
			var uv, vu int64
			if g.weighted {
				uv, vu = pairWeighted(g.freeAdj[x], g.freeW[x], g.freeAdj[y], g.freeW[y])
			} else {
				uv, vu = pairCrossings(g.freeAdj[x], g.freeAdj[y])
			}
			lb += min(uv, vu)
		}
	}
	return lb, nil
}

// MaxMatrixFree is the largest free layer [NewCrossingMatrix] accepts.
const MaxMatrixFree = 4096

// CrossingMatrix holds c(u, v), the crossings between free vertices u and v
// when u is placed before v, for every ordered pair.
type CrossingMatrix struct {
	n int
	c []int64
}

// NewCrossingMatrix computes the full matrix in O(F²·d) for average degree d.
// Weighted graphs get weighted entries.
func NewCrossingMatrix(g *Graph) (*CrossingMatrix, error) {
	if g.freeCount > MaxMatrixFree {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"crossing matrix needs at most %d free vertices, instance has %d", MaxMatrixFree, g.freeCount)
	}
	n := g.freeCount
	m := &CrossingMatrix{n: n, c: make([]int64, n*n)}
	for x := 0; x < n; x++ {
		if len(g.freeAdj[x]) == 0 {
			continue
		}
		for y := x + 1; y < n; y++ {
			var uv, vu int64
			if g.weighted {
				uv, vu = pairWeighted(g.freeAdj[x], g.freeW[x], g.freeAdj[y], g.freeW[y])
			} else {
				uv, vu = pairCrossings(g.freeAdj[x], g.freeAdj[y])
			}
			m.c[x*n+y] = uv
			m.c[y*n+x] = vu
		}
	}
	return m, nil
}

// Size returns the number of free vertices covered.
func (m *CrossingMatrix) Size() int { return m.n }

// At returns c(u, v).
func (m *CrossingMatrix) At(u, v int) int64 { return m.c[u*m.n+v] }

// Cost sums c(order[p], order[q]) over p < q. It equals the weighted
// crossing cost of order.
func (m *CrossingMatrix) Cost(order Ordering) int64 {
	var total int64
	for p, u := range order {
		for _, v := range order[p+1:] {
			total += m.At(u, v)
		}
	}
	return total
}
