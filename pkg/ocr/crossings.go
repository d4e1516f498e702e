package ocr

// CountCrossings returns the number of crossing edge pairs under order.
//
// This is the reference definition and the oracle for every faster counter:
// for each pair of positions p < q it counts the pairs (a, b) with a in
// NeighborsOfFree(order[p]), b in NeighborsOfFree(order[q]) and a > b. Both
// neighbor lists are sorted, so each pair is a linear merge and the whole
// count is O(F² + F·E) for F free vertices.
//
// order must be a permutation of the free layer.
func CountCrossings(g *Graph, order Ordering) int64 {
	var total int64
	for p := 0; p < len(order); p++ {
		np := g.freeAdj[order[p]]
		if len(np) == 0 {
			continue
		}
		for q := p + 1; q < len(order); q++ {
			uv, _ := pairCrossings(np, g.freeAdj[order[q]])
			total += uv
		}
	}
	return total
}

// WeightedCrossings returns the weighted crossing cost under order: every
// crossing pair of edges contributes the product of their weights. For
// unweighted graphs it equals [CountCrossings].
func WeightedCrossings(g *Graph, order Ordering) int64 {
	var total int64
	for p := 0; p < len(order); p++ {
		x := order[p]
		if len(g.freeAdj[x]) == 0 {
			continue
		}
		for q := p + 1; q < len(order); q++ {
			y := order[q]
			uv, _ := pairWeighted(g.freeAdj[x], g.freeW[x], g.freeAdj[y], g.freeW[y])
			total += uv
		}
	}
	return total
}

// pairCrossings returns the crossings between two free vertices with sorted
// neighbor lists nx and ny: uv when x is placed before y, vu when y is placed
// before x.
func pairCrossings(nx, ny []int) (uv, vu int64) {
	// lt counts entries of ny strictly below a, le those at or below a.
	lt, le := 0, 0
	for _, a := range nx {
		for lt < len(ny) && ny[lt] < a {
			lt++
		}
		if le < lt {
			le = lt
		}
		for le < len(ny) && ny[le] <= a {
			le++
		}
		uv += int64(lt)
		vu += int64(len(ny) - le)
	}
	return uv, vu
}

// pairWeighted is pairCrossings with edge weights.
func pairWeighted(nx []int, wx []int64, ny []int, wy []int64) (uv, vu int64) {
	var total int64
	for _, w := range wy {
		total += w
	}
	lt, le := 0, 0
	var sumLt, sumLe int64
	for k, a := range nx {
		for lt < len(ny) && ny[lt] < a {
			sumLt += wy[lt]
			lt++
		}
		if le < lt {
			le, sumLe = lt, sumLt
		}
		for le < len(ny) && ny[le] <= a {
			sumLe += wy[le]
			le++
		}
		uv += wx[k] * sumLt
		vu += wx[k] * (total - sumLe)
	}
	return uv, vu
}
