// Package layered renders a two-layer drawing of an OCR instance.
//
// # Usage
//
// Convert a graph and a free-layer ordering to DOT, then render to SVG:
//
//	dot := layered.ToDOT(g, order, layered.Options{Crossings: true})
//	svg, err := layered.RenderSVG(dot)
//
// For PDF or PNG output:
//
//	pdf, err := layered.RenderPDF(dot)
//	png, err := layered.RenderPNG(dot, 2.0)  // 2x scale
//
// # Drawing
//
// Fixed vertices form the top rank in index order; free vertices form the
// bottom rank in the given order. Invisible edges chain each rank so
// Graphviz keeps the left-to-right order. Vertices are labeled with their
// 1-based ids from the instance file. With [Options.Crossings] every edge
// that takes part in at least one crossing is drawn in red.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package layered
