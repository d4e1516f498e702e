// Package perm provides helpers for orderings of 0-based index sets.
//
// Orderings in ocrbench are plain []int slices: position i holds the index
// of the element placed i-th. These helpers build, enumerate and invert such
// slices; they never validate solver output (see package solution for that).
package perm

import "slices"

// Seq returns a slice containing the sequence [0, 1, 2, ..., n-1].
// For n <= 0, Seq returns an empty slice.
func Seq(n int) []int {
	if n <= 0 {
		return []int{}
	}
	result := make([]int, n)
	for i := range result {
		result[i] = i
	}
	return result
}

// Factorial returns n! (n factorial), the product 1 × 2 × ... × n.
// For n <= 1, Factorial returns 1. 13! already exceeds 32 bits.
func Factorial(n int) int {
	result := 1
	for i := 2; i <= n; i++ {
		result *= i
	}
	return result
}

// Generate returns permutations of [0, 1, ..., n-1] using Heap's algorithm.
//
// If limit > 0, Generate returns at most limit permutations.
// If limit <= 0, Generate returns all n! permutations.
//
// Each returned slice is a separate allocation. For n = 0 the result is one
// empty permutation. Exhaustive enumeration is only sensible for small n; the
// crossing counter tests use it to compare implementations on every ordering
// of a fixture.
func Generate(n, limit int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	if n == 1 {
		return [][]int{{0}}
	}

	p := Seq(n)
	state := make([]int, n)

	capacity := limit
	if capacity <= 0 || n <= 12 {
		capacity = Factorial(min(n, 12))
		if limit > 0 {
			capacity = min(capacity, limit)
		}
	}
	result := make([][]int, 0, capacity)
	result = append(result, slices.Clone(p))

	for i := 0; i < n && (limit <= 0 || len(result) < limit); {
		if state[i] < i {
			if i&1 == 0 {
				p[0], p[i] = p[i], p[0]
			} else {
				p[state[i]], p[i] = p[i], p[state[i]]
			}
			result = append(result, slices.Clone(p))
			state[i]++
			i = 0
		} else {
			state[i] = 0
			i++
		}
	}
	return result
}

// Reverse returns a reversed copy of order.
func Reverse(order []int) []int {
	out := slices.Clone(order)
	slices.Reverse(out)
	return out
}

// Positions returns the inverse of order: pos[v] is the position of v.
// order must be a permutation of [0, len(order)).
func Positions(order []int) []int {
	pos := make([]int, len(order))
	for i, v := range order {
		pos[v] = i
	}
	return pos
}

// IsPermutation reports whether order contains every value of [0, n) exactly once.
func IsPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range order {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
