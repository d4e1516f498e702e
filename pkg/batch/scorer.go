package batch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/ocrbench/pkg/errors"
	"github.com/matzehuels/ocrbench/pkg/ocr"
	"github.com/matzehuels/ocrbench/pkg/solution"
)

// Scorer turns the output of an Ok run into score fields.
type Scorer interface {
	// Name identifies the strategy in logs and the --strategy flag.
	Name() string
	// Score evaluates stdout of an Ok run on inst.
	Score(ctx context.Context, inst Instance, stdout []byte) Score
}

// Score is what a [Scorer] adds to a row.
type Score struct {
	Verdict           Verdict
	Crossings         *int64
	WeightedCrossings *int64
	Reference         *int64
	Value             *float64
	Detail            string
	// Graph is the parsed instance when the scorer parsed it.
	Graph *ocr.Graph
}

// Counter selects the crossing-counting algorithm.
type Counter int

const (
	// CounterSweep is the Fenwick-tree sweep.
	CounterSweep Counter = iota
	// CounterReference is the quadratic definition.
	CounterReference
)

func (c Counter) String() string {
	if c == CounterReference {
		return "reference"
	}
	return "sweep"
}

// ParseCounter parses "sweep" or "reference".
func ParseCounter(s string) (Counter, error) {
	switch strings.ToLower(s) {
	case "", "sweep", "fenwick":
		return CounterSweep, nil
	case "reference", "naive":
		return CounterReference, nil
	}
	return CounterSweep, errors.New(errors.ErrCodeInvalidConfig, "unknown counter %q (want sweep or reference)", s)
}

func (c Counter) count(g *ocr.Graph, order ocr.Ordering) (plain, weighted int64) {
	if c == CounterReference {
		plain = ocr.CountCrossings(g, order)
		if g.Weighted() {
			weighted = ocr.WeightedCrossings(g, order)
		}
		return plain, weighted
	}
	ws := ocr.NewCrossingWorkspace(g.FixedCount())
	plain = ws.Count(g, order)
	if g.Weighted() {
		weighted = ws.Weighted(g, order)
	}
	return plain, weighted
}

// CrossingScorer validates the output as an ordering and counts crossings.
type CrossingScorer struct {
	Counter Counter
	Parse   ocr.ParseOptions
}

// Name implements [Scorer].
func (CrossingScorer) Name() string { return "crossings" }

// Score implements [Scorer].
func (s CrossingScorer) Score(_ context.Context, inst Instance, stdout []byte) Score {
	g, err := ocr.ParseFile(inst.Path, s.Parse)
	if err != nil {
		return Score{Verdict: InstanceError, Detail: err.Error()}
	}
	return s.scoreGraph(g, stdout)
}

func (s CrossingScorer) scoreGraph(g *ocr.Graph, stdout []byte) Score {
	order, err := solution.Validate(g, stdout)
	if err != nil {
		return Score{Verdict: InvalidSolution, Detail: err.Error(), Graph: g}
	}
	plain, weighted := s.Counter.count(g, order)
	sc := Score{Verdict: Scored, Crossings: ptr(plain), Graph: g}
	if g.Weighted() {
		sc.WeightedCrossings = ptr(weighted)
	}
	return sc
}

// RawScorer accepts any output without looking at it. Combine it with
// Config.SolutionDir to collect the outputs for external evaluation.
type RawScorer struct{}

// Name implements [Scorer].
func (RawScorer) Name() string { return "raw" }

// Score implements [Scorer].
func (RawScorer) Score(context.Context, Instance, []byte) Score {
	return Score{Verdict: Raw}
}

// BoundScorer accepts solvers that print a single integer, such as a lower
// bound on the crossing number, instead of an ordering. The value lands in
// the crossings column with verdict [Bound]; the instance is not parsed.
type BoundScorer struct{}

// Name implements [Scorer].
func (BoundScorer) Name() string { return "bound" }

// Score implements [Scorer].
func (BoundScorer) Score(_ context.Context, _ Instance, stdout []byte) Score {
	v, err := ParseBoundValue(stdout)
	if err != nil {
		return Score{Verdict: InvalidSolution, Detail: err.Error()}
	}
	return Score{Verdict: Bound, Crossings: ptr(v)}
}

// ParseBoundValue reads the one data line of a bound solver's output as a
// non-negative integer. Diagnostic '#' lines are ignored.
func ParseBoundValue(stdout []byte) (int64, error) {
	data := solution.Split(stdout).Data
	switch len(data) {
	case 0:
		return 0, errors.New(errors.ErrCodeInvalidBoundValue, "output holds no bound value")
	case 1:
	default:
		return 0, errors.New(errors.ErrCodeInvalidBoundValue,
			"output holds %d data lines, want one bound value (line %d)", len(data), data[1].Number)
	}
	line := data[0]
	v, err := strconv.ParseInt(line.Text, 10, 64)
	if err != nil || v < 0 {
		return 0, errors.New(errors.ErrCodeInvalidBoundValue,
			"line %d: %q is not a non-negative integer", line.Number, line.Text)
	}
	return v, nil
}

// ReferenceScorer scores against known reference values, such as optima:
// score = 1 - reference/crossings, and 0 when crossings is 0. The weighted
// cost is compared on weighted instances. Instances without a reference
// are scored like [CrossingScorer].
type ReferenceScorer struct {
	CrossingScorer
	Values map[string]int64
}

// Name implements [Scorer].
func (ReferenceScorer) Name() string { return "reference" }

// Score implements [Scorer].
func (s ReferenceScorer) Score(ctx context.Context, inst Instance, stdout []byte) Score {
	sc := s.CrossingScorer.Score(ctx, inst, stdout)
	ref, ok := s.Values[inst.ID]
	if !ok {
		return sc
	}
	sc.Reference = ptr(ref)
	if sc.Verdict != Scored {
		return sc
	}
	cost := *sc.Crossings
	if sc.WeightedCrossings != nil {
		cost = *sc.WeightedCrossings
	}
	sc.Value = ptr(relativeScore(ref, cost))
	if cost < ref {
		sc.Detail = fmt.Sprintf("cost %d below reference %d", cost, ref)
	}
	return sc
}

func relativeScore(ref, cost int64) float64 {
	if cost == 0 {
		return 0
	}
	return 1 - float64(ref)/float64(cost)
}

// referenceFile is the TOML layout of a reference-value file:
//
//	[values]
//	"1" = 17
//	"tiny_test" = 0
type referenceFile struct {
	Values map[string]int64 `toml:"values"`
}

// LoadReference reads reference values keyed by instance id.
func LoadReference(path string) (map[string]int64, error) {
	var f referenceFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read reference values %s", path)
	}
	for id, v := range f.Values {
		if v < 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "reference for %q is negative (%d)", id, v)
		}
	}
	if f.Values == nil {
		f.Values = map[string]int64{}
	}
	return f.Values, nil
}

// NewScorer builds a scorer by strategy name: "crossings", "raw", "bound"
// or "reference". referencePath is required for "reference".
func NewScorer(strategy string, counter Counter, parse ocr.ParseOptions, referencePath string) (Scorer, error) {
	crossings := CrossingScorer{Counter: counter, Parse: parse}
	switch strings.ToLower(strategy) {
	case "", "crossings":
		return crossings, nil
	case "raw":
		return RawScorer{}, nil
	case "bound", "lb", "lower-bound":
		return BoundScorer{}, nil
	case "reference":
		if referencePath == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "strategy reference needs a reference file")
		}
		values, err := LoadReference(referencePath)
		if err != nil {
			return nil, err
		}
		return ReferenceScorer{CrossingScorer: crossings, Values: values}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown strategy %q (want crossings, raw, bound or reference)", strategy)
}
