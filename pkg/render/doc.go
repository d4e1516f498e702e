// Package render draws OCR instances and orderings.
//
// # Overview
//
// The [layered] subpackage turns a graph and an ordering of its free layer
// into Graphviz DOT, with the fixed layer on top and the free layer below in
// the chosen order, and renders it to SVG in-process. This package holds
// the format conversion shared by renderers.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg):
//
//	svg, err := layered.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [layered]: github.com/matzehuels/ocrbench/pkg/render/layered
package render
