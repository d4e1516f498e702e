package batch

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/ocrbench/pkg/cache"
	"github.com/matzehuels/ocrbench/pkg/errors"
	"github.com/matzehuels/ocrbench/pkg/observability"
	"github.com/matzehuels/ocrbench/pkg/ocr"
	"github.com/matzehuels/ocrbench/pkg/runner"
	"github.com/matzehuels/ocrbench/pkg/solution"
)

// lookahead bounds how many finished rows, per job, may wait for an
// earlier instance to finish.
const lookahead = 4

// Config describes a batch.
type Config struct {
	// Dir and Ext select the instances through [Discover]. Instances, when
	// non-empty, is used as is instead.
	Dir       string
	Ext       string
	Instances []Instance

	Solver      string
	Args        []string
	TimeLimit   time.Duration
	MemoryLimit uint64 // bytes; 0 means none

	// Jobs is the number of solvers running at once; 0 means 1.
	Jobs int

	// Scorer evaluates Ok runs; nil means a sweep [CrossingScorer].
	Scorer Scorer

	// LowerBound adds the pairwise lower bound to every row whose instance
	// parses, whatever the run's status. The bound describes the instance,
	// not the solver's result.
	LowerBound bool
	// Cache stores lower bounds by instance content; nil disables caching.
	Cache cache.Cache
	Keyer cache.Keyer

	// SolutionDir, if set, keeps every solver output as <id>.sol.
	SolutionDir string

	Runner *runner.Runner
	Logger *log.Logger
}

// Batch is a configured, discovered batch. Create with [New].
type Batch struct {
	cfg       Config
	id        string
	instances []Instance
	runner    *runner.Runner
	scorer    Scorer
	cache     cache.Cache
	keyer     cache.Keyer
	logger    *log.Logger
}

// New validates cfg and discovers the instances. Configuration problems
// are reported here, before any solver runs.
func New(cfg Config) (*Batch, error) {
	if cfg.TimeLimit <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "time limit must be positive, got %s", cfg.TimeLimit)
	}
	if cfg.Jobs < 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "jobs must not be negative, got %d", cfg.Jobs)
	}
	if cfg.Jobs == 0 {
		cfg.Jobs = 1
	}
	solver, err := errors.ValidateExecutable(cfg.Solver)
	if err != nil {
		return nil, err
	}
	cfg.Solver = solver

	instances := cfg.Instances
	if len(instances) == 0 {
		if err := errors.ValidateInstanceDir(cfg.Dir); err != nil {
			return nil, err
		}
		if cfg.Ext == "" {
			cfg.Ext = DefaultExt
		}
		ext, err := errors.ValidateExtension(cfg.Ext)
		if err != nil {
			return nil, err
		}
		instances, err = Discover(cfg.Dir, ext)
		if err != nil {
			return nil, err
		}
	}
	if cfg.SolutionDir != "" {
		if err := os.MkdirAll(cfg.SolutionDir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create solution directory")
		}
	}

	b := &Batch{
		cfg:       cfg,
		id:        uuid.NewString(),
		instances: instances,
		runner:    cfg.Runner,
		scorer:    cfg.Scorer,
		cache:     cfg.Cache,
		keyer:     cfg.Keyer,
		logger:    cfg.Logger,
	}
	if b.logger == nil {
		b.logger = log.Default()
	}
	if b.runner == nil {
		b.runner = runner.New(runner.Options{Logger: b.logger})
	}
	if b.scorer == nil {
		b.scorer = CrossingScorer{}
	}
	if b.cache == nil {
		b.cache = cache.NewNullCache()
	}
	if b.keyer == nil {
		b.keyer = cache.NewDefaultKeyer()
	}
	return b, nil
}

// ID returns the batch id.
func (b *Batch) ID() string { return b.id }

// Instances returns the instances in discovery order.
func (b *Batch) Instances() []Instance { return b.instances }

// Rows runs the batch lazily and yields one row per instance in discovery
// order. Iteration ends early when ctx is cancelled; rows of unfinished
// instances are not yielded then.
func (b *Batch) Rows(ctx context.Context) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		jobs := int64(b.cfg.Jobs)
		running := semaphore.NewWeighted(jobs)
		window := semaphore.NewWeighted(jobs * lookahead)
		results := make([]chan Row, len(b.instances))
		for i := range results {
			results[i] = make(chan Row, 1)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			for i, inst := range b.instances {
				if err := window.Acquire(gctx, 1); err != nil {
					closeFrom(results, i)
					return err
				}
				if err := running.Acquire(gctx, 1); err != nil {
					closeFrom(results, i)
					return err
				}
				ch := results[i]
				g.Go(func() error {
					defer close(ch)
					defer running.Release(1)
					if row, ok := b.evaluate(gctx, inst); ok {
						ch <- row
					}
					return nil
				})
			}
			return nil
		})

		for _, ch := range results {
			row, ok := <-ch
			if !ok {
				break
			}
			window.Release(1)
			observability.Batch().OnRow(ctx, row.Instance, row.Status.String(), string(row.Verdict),
				time.Duration(row.ElapsedSeconds*float64(time.Second)))
			if !yield(row) {
				break
			}
		}
		cancel()
		_ = g.Wait()
	}
}

func closeFrom(results []chan Row, i int) {
	for _, ch := range results[i:] {
		close(ch)
	}
}

// Summary aggregates a finished batch.
type Summary struct {
	BatchID   string
	Rows      int
	Total     int // discovered instances
	Statuses  map[runner.Status]int
	Verdicts  map[Verdict]int
	Crossings int64 // sum over scored rows
	Duration  time.Duration
}

func (s *Summary) add(r Row) {
	s.Rows++
	s.Statuses[r.Status]++
	if r.Verdict != VerdictNone {
		s.Verdicts[r.Verdict]++
	}
	if r.Verdict == Scored && r.Crossings != nil {
		s.Crossings += *r.Crossings
	}
}

// Run writes every row to w and returns the summary. It returns ctx.Err()
// when cancelled before all rows were written, and the first write error.
// w is not closed.
func (b *Batch) Run(ctx context.Context, w RowWriter) (Summary, error) {
	start := time.Now()
	sum := Summary{
		BatchID:  b.id,
		Total:    len(b.instances),
		Statuses: make(map[runner.Status]int),
		Verdicts: make(map[Verdict]int),
	}
	observability.Batch().OnBatchStart(ctx, b.id, len(b.instances))
	b.logger.Info("batch started", "instances", len(b.instances), "jobs", b.cfg.Jobs,
		"strategy", b.scorer.Name(), "limit", b.cfg.TimeLimit)

	var err error
	for row := range b.Rows(ctx) {
		if err = w.WriteRow(row); err != nil {
			err = errors.Wrap(errors.ErrCodeInternal, err, "write row %s", row.Instance)
			break
		}
		sum.add(row)
	}
	if err == nil && sum.Rows < sum.Total {
		err = ctx.Err()
	}
	sum.Duration = time.Since(start)
	observability.Batch().OnBatchComplete(ctx, b.id, sum.Rows, sum.Duration, err)
	return sum, err
}

// evaluate runs and scores one instance. ok is false only when ctx was
// cancelled before the row was complete.
func (b *Batch) evaluate(ctx context.Context, inst Instance) (Row, bool) {
	observability.Batch().OnInstanceStart(ctx, inst.ID)
	req := runner.Request{
		Executable:  b.cfg.Solver,
		Args:        b.cfg.Args,
		InputPath:   inst.Path,
		TimeLimit:   b.cfg.TimeLimit,
		MemoryLimit: b.cfg.MemoryLimit,
	}
	if b.cfg.SolutionDir != "" {
		req.SolutionPath = filepath.Join(b.cfg.SolutionDir, inst.ID+".sol")
	}

	out, err := b.runner.Run(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return Row{}, false
		}
		out = &runner.Outcome{Status: runner.LaunchFailure, ExitCode: -1, Err: err}
	}

	row := newRow(inst, out)
	if n, ok := iterations(out); ok {
		row.Iterations = ptr(n)
	}

	var g *ocr.Graph
	if out.Status == runner.Ok {
		sc := b.scorer.Score(ctx, inst, out.Stdout)
		row.Verdict = sc.Verdict
		row.Crossings = sc.Crossings
		row.WeightedCrossings = sc.WeightedCrossings
		row.Reference = sc.Reference
		row.Score = sc.Value
		row.Detail = sc.Detail
		g = sc.Graph
	}
	if b.cfg.LowerBound {
		b.attachLowerBound(ctx, inst, g, &row)
	}

	b.log(row)
	return row, true
}

// iterations reads the last "# Iterations: N" diagnostic, from stdout first
// and then from the captured stderr tail.
func iterations(out *runner.Outcome) (int64, bool) {
	if out.Stdout != nil {
		if n, ok := solution.Split(out.Stdout).Iterations(); ok {
			return n, true
		}
	}
	if len(out.Stderr) > 0 {
		return solution.Split(out.Stderr).Iterations()
	}
	return 0, false
}

// attachLowerBound fills row.LowerBound from the cache or by computing it.
// g may be nil, in which case the instance is parsed on a cache miss.
func (b *Batch) attachLowerBound(ctx context.Context, inst Instance, g *ocr.Graph, row *Row) {
	if row.Verdict == InstanceError {
		return
	}
	hash, err := cache.HashFile(inst.Path)
	if err != nil {
		b.logger.Debug("hash instance", "instance", inst.ID, "err", err)
		return
	}
	opts := b.parseOptions()
	key := b.keyer.LowerBoundKey(hash, cache.BoundKeyOpts{MergeDuplicates: opts.MergeDuplicates})
	lb, err := cache.Fetch(ctx, b.cache, key, "lower_bound", 0, func() (int64, error) {
		if g == nil {
			parsed, err := ocr.ParseFile(inst.Path, opts)
			if err != nil {
				return 0, err
			}
			g = parsed
		}
		return ocr.LowerBound(g)
	})
	if err != nil {
		b.logger.Debug("lower bound unavailable", "instance", inst.ID, "err", err)
		return
	}
	row.LowerBound = ptr(lb)
}

func (b *Batch) parseOptions() ocr.ParseOptions {
	switch s := b.scorer.(type) {
	case CrossingScorer:
		return s.Parse
	case ReferenceScorer:
		return s.Parse
	}
	return ocr.ParseOptions{}
}

func (b *Batch) log(r Row) {
	kv := []any{"instance", r.Instance, "status", r.Status, "elapsed", time.Duration(r.ElapsedSeconds * float64(time.Second)).Round(time.Millisecond)}
	if r.Verdict != VerdictNone {
		kv = append(kv, "verdict", r.Verdict)
	}
	if r.Crossings != nil {
		kv = append(kv, "crossings", *r.Crossings)
	}
	switch {
	case r.Status != runner.Ok:
		b.logger.Warn("instance failed", append(kv, "detail", r.Detail)...)
	case r.Verdict == InvalidSolution || r.Verdict == InstanceError:
		b.logger.Warn("instance not scored", append(kv, "detail", r.Detail)...)
	default:
		b.logger.Info("instance done", kv...)
	}
}
