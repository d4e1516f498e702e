package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ocrbench/pkg/errors"
	"github.com/matzehuels/ocrbench/pkg/ocr"
	"github.com/matzehuels/ocrbench/pkg/render/layered"
	"github.com/matzehuels/ocrbench/pkg/solution"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPDF = "pdf"
	formatPNG = "png"
)

// visualizeOpts holds the flags of the visualize command.
type visualizeOpts struct {
	output  string
	format  string
	scale   float64
	dedupe  bool
	drawing layered.Options
}

// visualizeCommand creates the visualize command that draws an instance.
func (c *CLI) visualizeCommand() *cobra.Command {
	opts := visualizeOpts{
		format:  formatSVG,
		scale:   2,
		drawing: layered.Options{Crossings: true, Weights: true},
	}

	cmd := &cobra.Command{
		Use:   "visualize <instance> [solution]",
		Short: "Draw an instance as a two-layer graph",
		Long: `Draw an instance as a two-layer graph.

The fixed layer is drawn on top in id order and the free layer below, in the
order of the solution file when one is given. Edges involved in a crossing
are highlighted.

PDF and PNG output need rsvg-convert (librsvg).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.format = strings.ToLower(opts.format)
			switch opts.format {
			case formatDOT, formatSVG, formatPDF, formatPNG:
			default:
				return errors.New(errors.ErrCodeInvalidConfig, "unknown format %q (want svg, dot, pdf or png)", opts.format)
			}
			solutionPath := ""
			if len(args) == 2 {
				solutionPath = args[1]
			}
			return c.runVisualize(cmd.Context(), args[0], solutionPath, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <instance>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, dot, pdf, png")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.drawing.Crossings, "crossings", opts.drawing.Crossings, "highlight crossing edges")
	cmd.Flags().BoolVar(&opts.drawing.Weights, "weights", opts.drawing.Weights, "label edges with their weight")
	cmd.Flags().BoolVar(&opts.drawing.Detailed, "detailed", false, "show vertex degrees")
	cmd.Flags().BoolVar(&opts.dedupe, "dedupe", false, "merge duplicate edges instead of rejecting the instance")

	return cmd
}

func (c *CLI) runVisualize(ctx context.Context, instancePath, solutionPath string, opts visualizeOpts) error {
	g, err := c.loadInstance(instancePath, opts.dedupe)
	if err != nil {
		return err
	}

	var order ocr.Ordering
	if solutionPath != "" {
		raw, err := os.ReadFile(solutionPath)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "read solution")
		}
		if order, err = solution.Validate(g, raw); err != nil {
			printError("Invalid solution")
			return err
		}
		printInfo("Drawing with %d crossings", ocr.CountCrossingsSweep(g, order))
	}

	dot := layered.ToDOT(g, order, opts.drawing)

	spinner := newSpinnerWithContext(ctx, "Rendering "+opts.format+"...")
	spinner.Start()
	data, err := renderDrawing(dot, opts.format, opts.scale)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return err
	}
	spinner.Stop()

	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(instancePath, filepath.Ext(instancePath)) + "." + opts.format
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", output)
	}
	printSuccess("Rendered %s", opts.format)
	printFile(output)
	return nil
}

func renderDrawing(dot, format string, scale float64) ([]byte, error) {
	switch format {
	case formatDOT:
		return []byte(dot), nil
	case formatPDF:
		return layered.RenderPDF(dot)
	case formatPNG:
		return layered.RenderPNG(dot, scale)
	}
	return layered.RenderSVG(dot)
}
