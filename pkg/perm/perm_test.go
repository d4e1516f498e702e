package perm

import (
	"fmt"
	"slices"
	"testing"
)

func TestSeq(t *testing.T) {
	if got := Seq(0); len(got) != 0 {
		t.Errorf("Seq(0) = %v, want empty", got)
	}
	if got := Seq(-3); len(got) != 0 {
		t.Errorf("Seq(-3) = %v, want empty", got)
	}
	if got := Seq(4); !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("Seq(4) = %v", got)
	}
}

func TestGenerateUnique(t *testing.T) {
	for n := 0; n <= 6; n++ {
		perms := Generate(n, 0)
		if len(perms) != Factorial(n) {
			t.Fatalf("Generate(%d) produced %d permutations, want %d", n, len(perms), Factorial(n))
		}
		seen := make(map[string]bool)
		for _, p := range perms {
			if !IsPermutation(p, n) {
				t.Fatalf("Generate(%d) produced non-permutation %v", n, p)
			}
			key := fmt.Sprint(p)
			if seen[key] {
				t.Fatalf("Generate(%d) produced duplicate %v", n, p)
			}
			seen[key] = true
		}
	}
}

func TestIsPermutation(t *testing.T) {
	tests := []struct {
		name  string
		order []int
		n     int
		want  bool
	}{
		{"identity", []int{0, 1, 2}, 3, true},
		{"shuffled", []int{2, 0, 1}, 3, true},
		{"empty", []int{}, 0, true},
		{"too short", []int{0, 1}, 3, false},
		{"duplicate", []int{0, 0, 2}, 3, false},
		{"out of range", []int{0, 1, 3}, 3, false},
		{"negative", []int{-1, 0, 1}, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermutation(tt.order, tt.n); got != tt.want {
				t.Errorf("IsPermutation(%v, %d) = %v, want %v", tt.order, tt.n, got, tt.want)
			}
		})
	}
}

func TestPositionsInvertsOrder(t *testing.T) {
	for _, order := range Generate(5, 0) {
		pos := Positions(order)
		for i, v := range order {
			if pos[v] != i {
				t.Fatalf("Positions(%v)[%d] = %d, want %d", order, v, pos[v], i)
			}
		}
	}
}

func TestReverseDoesNotMutate(t *testing.T) {
	order := []int{0, 1, 2}
	rev := Reverse(order)
	if !slices.Equal(order, []int{0, 1, 2}) {
		t.Errorf("Reverse mutated its input: %v", order)
	}
	if !slices.Equal(rev, []int{2, 1, 0}) {
		t.Errorf("Reverse = %v", rev)
	}
}
