package ocr

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/ocrbench/pkg/errors"
)

// maxLineSize bounds a single instance line. Edge lines are short; the limit
// only guards against binary garbage.
const maxLineSize = 1 << 20

// MaxVertices caps fixed + free declared by a p-line. Adjacency is allocated
// from the header counts, so larger headers are rejected before allocation.
const MaxVertices = 1 << 26

// ParseOptions controls lenient parsing behavior.
type ParseOptions struct {
	// MergeDuplicates drops repeated edges instead of rejecting the instance.
	MergeDuplicates bool
}

// Parse reads an instance in PACE ocr format. See the package documentation
// for the format and the rejected inputs.
func Parse(r io.Reader) (*Graph, error) {
	return ParseWithOptions(r, ParseOptions{})
}

// ParseBytes parses an instance held in memory.
func ParseBytes(data []byte) (*Graph, error) {
	return Parse(bytes.NewReader(data))
}

// ParseFile opens and parses the instance at path.
func ParseFile(path string, opts ParseOptions) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open instance %s", path)
	}
	defer f.Close()
	return ParseWithOptions(f, opts)
}

type header struct {
	fixed, free, edges int
}

// ParseWithOptions is [Parse] with explicit options.
func ParseWithOptions(r io.Reader, opts ParseOptions) (*Graph, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		h      *header
		b      *builder
		lineNo int
		seen   int
	)
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "c") {
			continue
		}
		if fields[0] == "p" {
			if h != nil {
				return nil, errors.New(errors.ErrCodeMalformedHeader, "line %d: second p-line", lineNo)
			}
			parsed, err := parseHeader(fields, lineNo)
			if err != nil {
				return nil, err
			}
			h = parsed
			b = newBuilder(h.fixed, h.free)
			continue
		}
		if h == nil {
			return nil, errors.New(errors.ErrCodeMissingHeader, "line %d: edge before p-line", lineNo)
		}
		if err := parseEdge(b, h, fields, lineNo); err != nil {
			return nil, err
		}
		seen++
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedEdge, err, "line %d", lineNo+1)
	}
	if h == nil {
		return nil, errors.New(errors.ErrCodeMissingHeader, "no p-line found")
	}
	if seen != h.edges {
		return nil, errors.New(errors.ErrCodeEdgeCountMismatch, "header declares %d edges, found %d", h.edges, seen)
	}

	if opts.MergeDuplicates {
		b.dedupe()
	}
	g, dup := b.build(false)
	if dup != nil {
		return nil, errors.New(errors.ErrCodeDuplicateEdge, "edge %d %d appears more than once",
			dup.Fixed+1, h.fixed+dup.Free+1)
	}
	return g, nil
}

// parseHeader accepts exactly "p ocr <fixed> <free> <edges>".
func parseHeader(fields []string, lineNo int) (*header, error) {
	if len(fields) != 5 {
		return nil, errors.New(errors.ErrCodeMalformedHeader,
			"line %d: p-line has %d fields, want 5 (p ocr <fixed> <free> <edges>)", lineNo, len(fields))
	}
	if fields[1] != "ocr" {
		return nil, errors.New(errors.ErrCodeMalformedHeader, "line %d: problem tag %q, want \"ocr\"", lineNo, fields[1])
	}
	var vals [3]int
	for k, name := range []string{"fixed count", "free count", "edge count"} {
		v, err := strconv.Atoi(fields[2+k])
		if err != nil || v < 0 {
			return nil, errors.New(errors.ErrCodeMalformedHeader, "line %d: %s %q is not a non-negative integer",
				lineNo, name, fields[2+k])
		}
		vals[k] = v
	}
	if vals[0] > MaxVertices || vals[1] > MaxVertices-vals[0] {
		return nil, errors.New(errors.ErrCodeMalformedHeader, "line %d: %d fixed and %d free vertices exceed the limit of %d",
			lineNo, vals[0], vals[1], MaxVertices)
	}
	return &header{fixed: vals[0], free: vals[1], edges: vals[2]}, nil
}

// parseEdge validates one "u v [w]" line and adds it to b. An edge written
// free-first is accepted and stored in fixed–free orientation.
func parseEdge(b *builder, h *header, fields []string, lineNo int) error {
	if len(fields) != 2 && len(fields) != 3 {
		return errors.New(errors.ErrCodeMalformedEdge, "line %d: edge has %d fields, want 2 or 3", lineNo, len(fields))
	}
	u, err := strconv.Atoi(fields[0])
	if err != nil {
		return errors.New(errors.ErrCodeInvalidID, "line %d: vertex id %q is not an integer", lineNo, fields[0])
	}
	v, err := strconv.Atoi(fields[1])
	if err != nil {
		return errors.New(errors.ErrCodeInvalidID, "line %d: vertex id %q is not an integer", lineNo, fields[1])
	}
	total := h.fixed + h.free
	for _, id := range []int{u, v} {
		if id < 1 || id > total {
			return errors.New(errors.ErrCodeEndpointRange, "line %d: vertex %d outside [1, %d]", lineNo, id, total)
		}
	}
	uFixed, vFixed := u <= h.fixed, v <= h.fixed
	if uFixed == vFixed {
		layer := "free"
		if uFixed {
			layer = "fixed"
		}
		return errors.New(errors.ErrCodeSameLayerEdge, "line %d: edge %d %d joins two %s vertices", lineNo, u, v, layer)
	}
	if !uFixed {
		u, v = v, u
	}

	w := int64(1)
	if len(fields) == 3 {
		w, err = strconv.ParseInt(fields[2], 10, 64)
		if err != nil || w < 1 {
			return errors.New(errors.ErrCodeMalformedEdge, "line %d: weight %q is not a positive integer", lineNo, fields[2])
		}
		b.weighted = true
	}
	b.add(u-1, v-h.fixed-1, w)
	return nil
}

// WriteTo writes g in instance file format. Weighted graphs get the weight
// column on every edge line.
func (g *Graph) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	c, err := fmt.Fprintf(bw, "p ocr %d %d %d\n", g.fixedCount, g.freeCount, g.edgeCount)
	n += int64(c)
	if err != nil {
		return n, err
	}
	for i, adj := range g.fixedAdj {
		for k, j := range adj {
			if g.weighted {
				c, err = fmt.Fprintf(bw, "%d %d %d\n", i+1, g.FreeID(j), g.fixedW[i][k])
			} else {
				c, err = fmt.Fprintf(bw, "%d %d\n", i+1, g.FreeID(j))
			}
			n += int64(c)
			if err != nil {
				return n, err
			}
		}
	}
	return n, bw.Flush()
}
