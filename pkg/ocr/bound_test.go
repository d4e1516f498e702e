package ocr

import (
	"testing"

	"github.com/matzehuels/ocrbench/pkg/errors"
	"github.com/matzehuels/ocrbench/pkg/perm"
)

func TestLowerBoundCompleteBipartite(t *testing.T) {
	// K(2,2): whichever free vertex goes first, exactly one pair crosses.
	g := mustParse(t, "p ocr 2 2 4\n1 3\n1 4\n2 3\n2 4\n")
	lb, err := LowerBound(g)
	if err != nil {
		t.Fatalf("LowerBound: %v", err)
	}
	if lb != 1 {
		t.Errorf("LowerBound = %d, want 1", lb)
	}
}

func TestLowerBoundNeverExceedsCount(t *testing.T) {
	for seed := uint64(1); seed <= 25; seed++ {
		g := randomGraph(5, 5, seed, 0.5, seed%3 == 0)
		lb, err := LowerBound(g)
		if err != nil {
			t.Fatalf("LowerBound: %v", err)
		}
		best := int64(-1)
		for _, p := range perm.Generate(g.FreeCount(), 0) {
			c := WeightedCrossings(g, Ordering(p))
			if c < lb {
				t.Fatalf("seed %d order %v: cost %d below lower bound %d", seed, p, c, lb)
			}
			if best < 0 || c < best {
				best = c
			}
		}
		if lb < 0 || best < lb {
			t.Fatalf("seed %d: bound %d, optimum %d", seed, lb, best)
		}
	}
}

func TestPairCrossings(t *testing.T) {
	g := mustParse(t, smallInstance)
	uv, vu := g.PairCrossings(0, 1)
	if uv != 2 || vu != 0 {
		t.Errorf("PairCrossings(0, 1) = (%d, %d), want (2, 0)", uv, vu)
	}
}

func TestLowerBoundTooLarge(t *testing.T) {
	g := NewGraph(1, MaxLowerBoundFree+1, nil)
	if _, err := LowerBound(g); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("LowerBound error = %v, want %s", err, errors.ErrCodeUnsupported)
	}
}

func TestCrossingMatrixMatchesCounters(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		g := randomGraph(6, 5, seed, 0.5, seed%2 == 1)
		m, err := NewCrossingMatrix(g)
		if err != nil {
			t.Fatalf("NewCrossingMatrix: %v", err)
		}
		if m.Size() != g.FreeCount() {
			t.Fatalf("Size = %d, want %d", m.Size(), g.FreeCount())
		}
		var lb int64
		for u := 0; u < m.Size(); u++ {
			for v := u + 1; v < m.Size(); v++ {
				lb += min(m.At(u, v), m.At(v, u))
			}
		}
		if want, _ := LowerBound(g); lb != want {
			t.Errorf("seed %d: matrix bound %d, LowerBound %d", seed, lb, want)
		}
		for _, p := range perm.Generate(g.FreeCount(), 0) {
			o := Ordering(p)
			if got, want := m.Cost(o), WeightedCrossings(g, o); got != want {
				t.Fatalf("seed %d order %v: matrix cost %d, counter %d", seed, p, got, want)
			}
		}
	}
}
