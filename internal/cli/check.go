package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ocrbench/pkg/errors"
	"github.com/matzehuels/ocrbench/pkg/ocr"
)

// checkCommand creates the check command that parses and describes an instance.
func (c *CLI) checkCommand() *cobra.Command {
	var (
		normalize bool
		output    string
		dedupe    bool
	)

	cmd := &cobra.Command{
		Use:   "check <instance>",
		Short: "Parse an instance and print its statistics",
		Long: `Parse an instance and print its statistics.

With --normalize the instance is written back in canonical form: header,
then edges sorted by fixed and free endpoint, without comments.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.loadInstance(args[0], dedupe)
			if err != nil {
				printError("Invalid instance %s", args[0])
				return err
			}
			if normalize {
				return writeNormalized(g, output)
			}
			printInstanceStats(g)
			return nil
		},
	}

	cmd.Flags().BoolVar(&normalize, "normalize", false, "write the canonical form instead of statistics")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file for --normalize (default stdout)")
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "merge duplicate edges instead of rejecting the instance")

	return cmd
}

func printInstanceStats(g *ocr.Graph) {
	maxDeg := 0
	for j := 0; j < g.FreeCount(); j++ {
		maxDeg = max(maxDeg, g.Degree(j))
	}
	printSuccess("Valid instance")
	printKeyValue("Fixed", strconv.Itoa(g.FixedCount()))
	printKeyValue("Free", strconv.Itoa(g.FreeCount()))
	printKeyValue("Edges", strconv.Itoa(g.EdgeCount()))
	printKeyValue("Isolated free", strconv.Itoa(g.IsolatedFree()))
	printKeyValue("Max degree", strconv.Itoa(maxDeg))
	printKeyValue("Weighted", strconv.FormatBool(g.Weighted()))
}

func writeNormalized(g *ocr.Graph, output string) error {
	if output == "" || output == "-" {
		_, err := g.WriteTo(os.Stdout)
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", output)
	}
	if _, err := g.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	printFile(output)
	return nil
}
