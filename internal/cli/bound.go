package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ocrbench/pkg/cache"
	"github.com/matzehuels/ocrbench/pkg/ocr"
)

// boundCommand creates the bound command.
func (c *CLI) boundCommand() *cobra.Command {
	var (
		noCache bool
		dedupe  bool
	)

	cmd := &cobra.Command{
		Use:   "bound <instance>",
		Short: "Print the pairwise crossing lower bound of an instance",
		Long: `Print the pairwise crossing lower bound of an instance.

For every pair of free vertices, any ordering pays at least the smaller of
the two pair costs. The sum over all pairs is a lower bound on the crossings
of every ordering. Results are cached by instance content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBound(cmd.Context(), args[0], noCache, dedupe)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "merge duplicate edges instead of rejecting the instance")

	return cmd
}

func (c *CLI) runBound(ctx context.Context, path string, noCache, dedupe bool) error {
	hash, err := cache.HashFile(path)
	if err != nil {
		return err
	}
	cc := c.newCache(noCache)
	defer cc.Close()
	key := newKeyer().LowerBoundKey(hash, cache.BoundKeyOpts{MergeDuplicates: dedupe})

	prog := newProgress(c.Logger)
	computed := false
	lb, err := cache.Fetch(ctx, cc, key, "lower_bound", 0, func() (int64, error) {
		computed = true
		g, err := c.loadInstance(path, dedupe)
		if err != nil {
			return 0, err
		}
		spinner := newSpinnerWithContext(ctx, "Computing lower bound...")
		spinner.Start()
		defer spinner.Stop()
		return ocr.LowerBound(g)
	})
	if err != nil {
		return err
	}
	if computed {
		prog.done("Lower bound computed")
	}
	printBound(lb, !computed)
	return nil
}
