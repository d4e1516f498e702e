package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ocrbench/pkg/batch"
	"github.com/matzehuels/ocrbench/pkg/errors"
	"github.com/matzehuels/ocrbench/pkg/ocr"
	"github.com/matzehuels/ocrbench/pkg/solution"
)

// scoreCommand creates the score command for an existing solution file.
func (c *CLI) scoreCommand() *cobra.Command {
	var (
		counter string
		dedupe  bool
		bound   bool
	)

	cmd := &cobra.Command{
		Use:   "score <instance> <solution>",
		Short: "Validate a solution file and count its crossings",
		Long: `Validate a solution file against an instance and count its crossings.

The solution uses the solver output format: one free vertex id per line,
'#' comments and blank lines ignored. Invalid solutions are reported with
the offending line and the command fails.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctr, err := batch.ParseCounter(counter)
			if err != nil {
				return err
			}
			return c.runScore(args[0], args[1], ctr, dedupe, bound)
		},
	}

	cmd.Flags().StringVar(&counter, "counter", batch.CounterSweep.String(), "crossing counter: sweep, reference")
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "merge duplicate edges instead of rejecting the instance")
	cmd.Flags().BoolVar(&bound, "lower-bound", false, "also print the pairwise lower bound")

	return cmd
}

func (c *CLI) runScore(instancePath, solutionPath string, counter batch.Counter, dedupe, bound bool) error {
	g, err := c.loadInstance(instancePath, dedupe)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(solutionPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read solution")
	}

	stream := solution.Split(raw)
	order, err := solution.ValidateStream(g, stream)
	if err != nil {
		printError("Invalid solution")
		return err
	}

	var crossings int64
	if counter == batch.CounterReference {
		crossings = ocr.CountCrossings(g, order)
	} else {
		crossings = ocr.CountCrossingsSweep(g, order)
	}

	printSuccess("Valid ordering of %d free vertices", len(order))
	printKeyValue("Crossings", strconv.FormatInt(crossings, 10))
	if g.Weighted() {
		printKeyValue("Weighted", strconv.FormatInt(ocr.WeightedCrossingsSweep(g, order), 10))
	}
	if n, ok := stream.Iterations(); ok {
		printKeyValue("Iterations", strconv.FormatInt(n, 10))
	}
	if bound {
		lb, err := ocr.LowerBound(g)
		if err != nil {
			return err
		}
		printKeyValue("Lower bound", strconv.FormatInt(lb, 10))
	}
	return nil
}
