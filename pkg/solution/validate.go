package solution

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/ocrbench/pkg/errors"
	"github.com/matzehuels/ocrbench/pkg/ocr"
)

// ValidationError names the rule a solution broke. It unwraps to an
// *errors.Error carrying Rule as its code, so errors.Is(err, rule) works.
type ValidationError struct {
	Rule     errors.Code
	Line     int    // 1-based stream line, 0 when not tied to a line
	Token    string // offending data token
	Vertex   int    // offending combined id
	Position int    // 0-based position among data lines
	Deficit  int    // missing vertices for ErrCodeIncompleteOrdering
}

func (e *ValidationError) Error() string {
	return e.Unwrap().Error()
}

// Unwrap returns the coded error describing the violation.
func (e *ValidationError) Unwrap() error {
	switch e.Rule {
	case errors.ErrCodeInvalidVertexID:
		return errors.New(e.Rule, "line %d: %q is not a vertex id", e.Line, e.Token)
	case errors.ErrCodeOutOfRangeVertex:
		return errors.New(e.Rule, "line %d: vertex %d at position %d is not a free vertex", e.Line, e.Vertex, e.Position)
	case errors.ErrCodeDuplicateVertex:
		return errors.New(e.Rule, "line %d: vertex %d repeated at position %d", e.Line, e.Vertex, e.Position)
	case errors.ErrCodeIncompleteOrdering:
		return errors.New(e.Rule, "ordering is missing %d free vertices", e.Deficit)
	default:
		return errors.New(e.Rule, "invalid solution")
	}
}

// Validate checks raw solver output against g and returns the 0-based free
// ordering in encounter order. The first violation found is returned as a
// *ValidationError. Nothing is corrected: a solution is either a permutation
// of the free layer or rejected.
func Validate(g *ocr.Graph, raw []byte) (ocr.Ordering, error) {
	return ValidateStream(g, Split(raw))
}

// ValidateStream is [Validate] for an already split stream.
func ValidateStream(g *ocr.Graph, s *Stream) (ocr.Ordering, error) {
	seen := make([]bool, g.FreeCount())
	order := make(ocr.Ordering, 0, g.FreeCount())
	for pos, line := range s.Data {
		id, err := strconv.Atoi(line.Text)
		if err != nil {
			return nil, &ValidationError{Rule: errors.ErrCodeInvalidVertexID, Line: line.Number, Token: line.Text, Position: pos}
		}
		j, ok := g.FreeIndex(id)
		if !ok {
			return nil, &ValidationError{Rule: errors.ErrCodeOutOfRangeVertex, Line: line.Number, Token: line.Text, Vertex: id, Position: pos}
		}
		if seen[j] {
			return nil, &ValidationError{Rule: errors.ErrCodeDuplicateVertex, Line: line.Number, Token: line.Text, Vertex: id, Position: pos}
		}
		seen[j] = true
		order = append(order, j)
	}
	if deficit := g.FreeCount() - len(order); deficit > 0 {
		return nil, &ValidationError{Rule: errors.ErrCodeIncompleteOrdering, Deficit: deficit}
	}
	return order, nil
}

// Format writes order as a solution stream in combined ids, one per line.
func Format(g *ocr.Graph, order ocr.Ordering) []byte {
	buf := make([]byte, 0, len(order)*8)
	for _, j := range order {
		buf = fmt.Appendf(buf, "%d\n", g.FreeID(j))
	}
	return buf
}
