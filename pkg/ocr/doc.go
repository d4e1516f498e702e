// Package ocr models two-layer bipartite graphs for one-sided crossing
// reduction and measures the crossings of a free-layer ordering.
//
// # Graph Model
//
// A [Graph] has a fixed layer of FixedCount vertices, whose left-to-right order
// is their index order, and a free layer of FreeCount vertices whose order is
// chosen by a solver. Internally both layers are 0-based. Every edge joins one
// fixed and one free vertex. The graph keeps two adjacency views:
//
//   - NeighborsOfFixed(i): free indices adjacent to fixed vertex i, ascending
//   - NeighborsOfFree(j): fixed indices adjacent to free vertex j, ascending
//
// Sortedness of both views is an invariant; the crossing counters rely on it.
// A Graph is immutable once parsed and safe for concurrent readers.
//
// # File Format
//
// Instances use the PACE "ocr" text format:
//
//	c optional comment
//	p ocr <fixedCount> <freeCount> <edgeCount>
//	<fixedId> <combinedFreeId> [weight]
//	...
//
// Ids are 1-based; free ids continue after the fixed ids, so free vertex j
// (0-based) is written as fixedCount+j+1. The optional integer weight column
// turns the instance into a weighted one. [Parse] rejects malformed headers,
// non-integer ids, endpoints outside the declared ranges, edges inside one
// layer, duplicate edges and a wrong number of edge lines, each with its own
// error code from package errors. [Graph.WriteTo] writes the same format back;
// parsing the output yields an identical graph.
//
// # Crossings
//
// Two edges (a, x) and (b, y) with x placed before y cross iff a > b.
// [CountCrossings] is the quadratic reference definition. [CountCrossingsSweep]
// and [CrossingWorkspace] compute the same number with a Fenwick tree in
// O(E log FixedCount). Weighted variants multiply the weights of the two crossing edges.
// [LowerBound] sums, over every free pair, the cheaper of its two relative
// orders; no ordering can do better. [CrossingMatrix] keeps every pair cost.
package ocr
