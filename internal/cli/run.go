package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ocrbench/pkg/batch"
	"github.com/matzehuels/ocrbench/pkg/errors"
	"github.com/matzehuels/ocrbench/pkg/observability"
	"github.com/matzehuels/ocrbench/pkg/ocr"
	"github.com/matzehuels/ocrbench/pkg/runner"
)

const (
	formatCSV   = "csv"
	formatJSONL = "jsonl"
)

// runOpts holds the flags of the run command.
type runOpts struct {
	config        string
	timeLimit     time.Duration
	memoryLimit   ByteSize
	memoryPolicy  string
	grace         time.Duration
	jobs          int
	ext           string
	output        string
	format        string
	strategy      string
	reference     string
	counter       string
	lowerBound    bool
	keepSolutions string
	noCache       bool
	dedupe        bool
	progress      bool
	solver        string
	args          []string
}

// runCommand creates the run command that evaluates a solver on a directory.
func (c *CLI) runCommand() *cobra.Command {
	defaultLimit, _ := time.ParseDuration(defaultTimeLimit)
	opts := runOpts{
		timeLimit:    defaultLimit,
		memoryPolicy: runner.MemoryAuto.String(),
		grace:        runner.DefaultGrace,
		jobs:         1,
		ext:          batch.DefaultExt,
		strategy:     "crossings",
		counter:      batch.CounterSweep.String(),
	}

	cmd := &cobra.Command{
		Use:   "run <instance-dir> [-- <solver> [args...]]",
		Short: "Run a solver on every instance of a directory and score it",
		Long: `Run a solver on every instance of a directory and score it.

Each instance is fed to the solver on stdin. The solver must print the free
vertices, one id per line, in the order it chose. Every run is bounded by a
wall-clock limit and an optional memory ceiling; whatever happens to the
solver, the instance gets exactly one result row.

Rows are written in instance order as CSV or JSON Lines, to stdout or to
--output. Settings can also come from a TOML file (--config); flags given
on the command line win over the file.

Examples:
  ocrbench run instances/ -- ./solver --seed 1
  ocrbench run instances/ -t 60s -m 4GiB -j 4 -o results.csv -- ./solver
  ocrbench run instances/ --config bench.toml --progress`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				opts.solver, opts.args = args[1], args[2:]
			}
			if opts.config != "" {
				cfg, err := loadConfig(opts.config)
				if err != nil {
					return err
				}
				opts.apply(cfg.Run, cmd.Flags().Changed)
			}
			return c.runBatch(cmd.Context(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "TOML config file")
	f.DurationVarP(&opts.timeLimit, "time-limit", "t", opts.timeLimit, "wall-clock limit per instance")
	f.VarP(&opts.memoryLimit, "memory-limit", "m", "memory ceiling per instance, e.g. 8GiB (0 = none)")
	f.StringVar(&opts.memoryPolicy, "memory-policy", opts.memoryPolicy, "memory enforcement: auto, rlimit, poll, none")
	f.DurationVar(&opts.grace, "grace", opts.grace, "time between SIGTERM and SIGKILL")
	f.IntVarP(&opts.jobs, "jobs", "j", opts.jobs, "solvers running at once")
	f.StringVar(&opts.ext, "ext", opts.ext, "instance file extension")
	f.StringVarP(&opts.output, "output", "o", "", "result file (default stdout)")
	f.StringVarP(&opts.format, "format", "f", "", "result format: csv, jsonl (default from --output, else csv)")
	f.StringVar(&opts.strategy, "strategy", opts.strategy, "scoring: crossings, raw, bound, reference")
	f.StringVar(&opts.reference, "reference", "", "TOML file with reference values (strategy reference)")
	f.StringVar(&opts.counter, "counter", opts.counter, "crossing counter: sweep, reference")
	f.BoolVar(&opts.lowerBound, "lower-bound", false, "add the pairwise lower bound to every row")
	f.StringVar(&opts.keepSolutions, "keep-solutions", "", "directory receiving every solver output as <id>.sol")
	f.BoolVar(&opts.noCache, "no-cache", false, "do not cache lower bounds")
	f.BoolVar(&opts.dedupe, "dedupe", false, "merge duplicate edges instead of rejecting the instance")
	f.BoolVar(&opts.progress, "progress", false, "show a live progress view (terminal only)")

	return cmd
}

// apply copies file values into opts for every flag not set explicitly.
func (o *runOpts) apply(fc runFileConfig, changed func(string) bool) {
	setString := func(flag string, dst *string, v string) {
		if v != "" && !changed(flag) {
			*dst = v
		}
	}
	setString("memory-policy", &o.memoryPolicy, fc.MemoryPolicy)
	setString("ext", &o.ext, fc.Ext)
	setString("output", &o.output, fc.Output)
	setString("format", &o.format, fc.Format)
	setString("strategy", &o.strategy, fc.Strategy)
	setString("reference", &o.reference, fc.Reference)
	setString("counter", &o.counter, fc.Counter)
	setString("keep-solutions", &o.keepSolutions, fc.KeepSolutions)

	if fc.TimeLimit.Duration > 0 && !changed("time-limit") {
		o.timeLimit = fc.TimeLimit.Duration
	}
	if fc.Grace.Duration > 0 && !changed("grace") {
		o.grace = fc.Grace.Duration
	}
	if fc.MemoryLimit > 0 && !changed("memory-limit") {
		o.memoryLimit = fc.MemoryLimit
	}
	if fc.Jobs > 0 && !changed("jobs") {
		o.jobs = fc.Jobs
	}
	if fc.LowerBound && !changed("lower-bound") {
		o.lowerBound = true
	}
	if fc.NoCache && !changed("no-cache") {
		o.noCache = true
	}
	if fc.Dedupe && !changed("dedupe") {
		o.dedupe = true
	}
	// The solver command line is positional; the file only fills it in
	// when none was given.
	if o.solver == "" {
		o.solver, o.args = fc.Solver, fc.Args
	}
}

// resultFormat picks the row format from --format or the output extension.
func (o *runOpts) resultFormat() (string, error) {
	format := strings.ToLower(o.format)
	if format == "" {
		switch strings.ToLower(filepath.Ext(o.output)) {
		case ".jsonl", ".json", ".ndjson":
			format = formatJSONL
		default:
			format = formatCSV
		}
	}
	if format != formatCSV && format != formatJSONL {
		return "", errors.New(errors.ErrCodeInvalidConfig, "unknown format %q (want csv or jsonl)", o.format)
	}
	return format, nil
}

// newBatch turns the options into a configured batch. Every configuration
// error surfaces here, before any solver runs.
func (c *CLI) newBatch(dir string, opts runOpts) (*batch.Batch, error) {
	if opts.solver == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no solver given: use run <dir> -- <solver> or set run.solver in the config")
	}
	policy, err := runner.ParseMemoryPolicy(opts.memoryPolicy)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "memory policy")
	}
	counter, err := batch.ParseCounter(opts.counter)
	if err != nil {
		return nil, err
	}
	scorer, err := batch.NewScorer(opts.strategy, counter, ocr.ParseOptions{MergeDuplicates: opts.dedupe}, opts.reference)
	if err != nil {
		return nil, err
	}

	return batch.New(batch.Config{
		Dir:         dir,
		Ext:         opts.ext,
		Solver:      opts.solver,
		Args:        opts.args,
		TimeLimit:   opts.timeLimit,
		MemoryLimit: uint64(opts.memoryLimit),
		Jobs:        opts.jobs,
		Scorer:      scorer,
		LowerBound:  opts.lowerBound,
		Cache:       c.newCache(opts.noCache),
		Keyer:       newKeyer(),
		SolutionDir: opts.keepSolutions,
		Runner: runner.New(runner.Options{
			Grace:        opts.grace,
			MemoryPolicy: policy,
			Logger:       c.Logger,
		}),
		Logger: c.Logger,
	})
}

// openRows opens the row writer and returns it with a function closing the
// underlying file.
func openRows(output, format string) (batch.RowWriter, func() error, error) {
	var w io.Writer = os.Stdout
	closeFile := func() error { return nil }
	if output != "" && output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", output)
		}
		w, closeFile = f, f.Close
	}
	if format == formatJSONL {
		return batch.NewJSONLWriter(w), closeFile, nil
	}
	return batch.NewCSVWriter(w), closeFile, nil
}

// runBatch evaluates the solver on dir and writes the rows.
func (c *CLI) runBatch(ctx context.Context, dir string, opts runOpts) (err error) {
	format, err := opts.resultFormat()
	if err != nil {
		return err
	}
	b, err := c.newBatch(dir, opts)
	if err != nil {
		return err
	}
	if len(b.Instances()) == 0 {
		printWarning("No *%s instances in %s", opts.ext, dir)
	}

	rows, closeFile, err := openRows(opts.output, format)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); err == nil {
			err = cerr
		}
		if cerr := closeFile(); err == nil {
			err = cerr
		}
	}()

	var sum batch.Summary
	if opts.progress && isatty.IsTerminal(os.Stderr.Fd()) {
		sum, err = c.runWithProgress(ctx, b, rows)
	} else {
		sum, err = b.Run(ctx, rows)
	}

	printSummary(sum)
	if opts.output != "" && opts.output != "-" {
		printFile(opts.output)
	}
	return err
}

// runWithProgress runs the batch under the live progress view. Per-row log
// lines are silenced; failing rows are printed by the view instead.
func (c *CLI) runWithProgress(ctx context.Context, b *batch.Batch, rows batch.RowWriter) (batch.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	level := c.Logger.GetLevel()
	c.Logger.SetLevel(LogError)
	defer c.Logger.SetLevel(level)

	p := tea.NewProgram(NewProgressModel(len(b.Instances()), cancel), tea.WithOutput(uiOut), tea.WithContext(ctx))
	observability.SetBatchHooks(progressHooks{program: p})
	defer observability.SetBatchHooks(observability.NoopBatchHooks{})

	var sum batch.Summary
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		sum, runErr = b.Run(ctx, rows)
		p.Send(batchDoneMsg{})
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		c.Logger.Debug("progress view stopped", "err", err)
	}
	<-done
	return sum, runErr
}
