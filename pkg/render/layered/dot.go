package layered

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/ocrbench/pkg/ocr"
	"github.com/matzehuels/ocrbench/pkg/perm"
	"github.com/matzehuels/ocrbench/pkg/render"
)

// Options configures the drawing.
type Options struct {
	// Crossings colors edges that cross at least one other edge.
	Crossings bool
	// Weights labels edges with their weight on weighted instances.
	Weights bool
	// Detailed adds the degree to every vertex label.
	Detailed bool
}

// ToDOT converts g drawn under order to Graphviz DOT. A nil order draws the
// free layer in index order.
func ToDOT(g *ocr.Graph, order ocr.Ordering, opts Options) string {
	if order == nil {
		order = ocr.Ordering(perm.Seq(g.FreeCount()))
	}
	var hot map[ocr.Edge]bool
	if opts.Crossings {
		hot = crossingEdges(g, order)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  node [shape=circle, style=filled, fontsize=14, width=0.4, fixedsize=true];\n")
	buf.WriteString("  edge [arrowhead=none, color=\"#555555\"];\n")
	buf.WriteString("  ranksep=1.5;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	fixedDeg := make([]int, g.FixedCount())
	for i := range fixedDeg {
		fixedDeg[i] = len(g.NeighborsOfFixed(i))
	}

	buf.WriteString("  { rank=same;\n")
	for i := 0; i < g.FixedCount(); i++ {
		fmt.Fprintf(&buf, "    %s [%s];\n", fixedNode(i), nodeAttrs(i+1, fixedDeg[i], "#dbe9f6", opts.Detailed))
	}
	writeChain(&buf, g.FixedCount(), func(k int) string { return fixedNode(k) })
	buf.WriteString("  }\n")

	buf.WriteString("  { rank=same;\n")
	for _, j := range order {
		fmt.Fprintf(&buf, "    %s [%s];\n", freeNode(j), nodeAttrs(g.FreeID(j), g.Degree(j), "#fde8c8", opts.Detailed))
	}
	writeChain(&buf, len(order), func(k int) string { return freeNode(order[k]) })
	buf.WriteString("  }\n\n")

	for _, e := range g.Edges() {
		var attrs []string
		if hot[ocr.Edge{Fixed: e.Fixed, Free: e.Free}] {
			attrs = append(attrs, "color=\"#d62728\"", "penwidth=2")
		}
		if opts.Weights && g.Weighted() {
			attrs = append(attrs, fmt.Sprintf("label=%q", strconv.FormatInt(e.Weight, 10)))
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %s -> %s;\n", fixedNode(e.Fixed), freeNode(e.Free))
		} else {
			fmt.Fprintf(&buf, "  %s -> %s [%s];\n", fixedNode(e.Fixed), freeNode(e.Free), strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fixedNode(i int) string { return "f" + strconv.Itoa(i) }
func freeNode(j int) string  { return "v" + strconv.Itoa(j) }

func nodeAttrs(id, degree int, fill string, detailed bool) string {
	label := strconv.Itoa(id)
	if detailed {
		label += "\\nd=" + strconv.Itoa(degree)
	}
	return fmt.Sprintf("label=\"%s\", fillcolor=%q", label, fill)
}

// writeChain links consecutive rank members with invisible edges.
func writeChain(buf *bytes.Buffer, n int, name func(int) string) {
	for k := 1; k < n; k++ {
		fmt.Fprintf(buf, "    %s -> %s [style=invis];\n", name(k-1), name(k))
	}
}

// crossingEdges returns the edges (weight ignored) that cross at least one
// other edge under order. Edges (a, x) and (b, y) cross iff x and y are
// placed in the opposite relative order of a and b.
func crossingEdges(g *ocr.Graph, order ocr.Ordering) map[ocr.Edge]bool {
	pos := perm.Positions(order)
	edges := g.Edges()
	hot := make(map[ocr.Edge]bool)
	for k, e := range edges {
		for _, f := range edges[k+1:] {
			if e.Fixed == f.Fixed || e.Free == f.Free {
				continue
			}
			if (e.Fixed < f.Fixed) != (pos[e.Free] < pos[f.Free]) {
				hot[ocr.Edge{Fixed: e.Fixed, Free: e.Free}] = true
				hot[ocr.Edge{Fixed: f.Fixed, Free: f.Free}] = true
			}
		}
	}
	return hot
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one
// whose size equals its viewBox, so the SVG scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
