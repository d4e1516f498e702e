package batch

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ocrbench/pkg/cache"
	"github.com/matzehuels/ocrbench/pkg/errors"
	"github.com/matzehuels/ocrbench/pkg/observability"
	"github.com/matzehuels/ocrbench/pkg/ocr"
	"github.com/matzehuels/ocrbench/pkg/runner"
)

func TestMain(m *testing.M) {
	runner.Init()
	os.Exit(m.Run())
}

// twoCrossings has free ids 4 and 5; the identity ordering has 2 crossings.
const twoCrossings = "p ocr 3 2 3\n2 4\n3 4\n1 5\n"

// identitySolver prints the free ids in index order.
const identitySolver = `read p tag a b m
i=$((a+1))
while [ $i -le $((a+b)) ]; do echo $i; i=$((i+1)); done`

func quietLogger() *log.Logger {
	l := log.New(os.Stderr)
	l.SetLevel(log.FatalLevel)
	return l
}

func writeSolver(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("solver scripts need /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "solver.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeInstances(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newBatch(t *testing.T, cfg Config) *Batch {
	t.Helper()
	cfg.Logger = quietLogger()
	if cfg.Runner == nil {
		cfg.Runner = runner.New(runner.Options{Grace: 200 * time.Millisecond, Logger: cfg.Logger})
	}
	if cfg.TimeLimit == 0 {
		cfg.TimeLimit = 10 * time.Second
	}
	b, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func collect(t *testing.T, b *Batch) []Row {
	t.Helper()
	var rows []Row
	for r := range b.Rows(context.Background()) {
		rows = append(rows, r)
	}
	if len(rows) != len(b.Instances()) {
		t.Fatalf("got %d rows for %d instances", len(rows), len(b.Instances()))
	}
	return rows
}

func TestBatchScoresOkRun(t *testing.T) {
	dir := writeInstances(t, map[string]string{"1.gr": twoCrossings})
	b := newBatch(t, Config{Dir: dir, Solver: writeSolver(t, identitySolver+"\necho '# Iterations: 7'")})

	row := collect(t, b)[0]
	if row.Status != runner.Ok || row.Verdict != Scored {
		t.Fatalf("row = %+v, want Ok/Scored", row)
	}
	if row.Crossings == nil || *row.Crossings != 2 {
		t.Errorf("Crossings = %v, want 2", row.Crossings)
	}
	if row.WeightedCrossings != nil {
		t.Errorf("WeightedCrossings = %d on an unweighted instance", *row.WeightedCrossings)
	}
	if row.Iterations == nil || *row.Iterations != 7 {
		t.Errorf("Iterations = %v, want 7", row.Iterations)
	}
	if row.ExitCode == nil || *row.ExitCode != 0 {
		t.Errorf("ExitCode = %v, want 0", row.ExitCode)
	}
}

func TestBatchClassifiesFailures(t *testing.T) {
	tests := []struct {
		name     string
		instance string
		solver   string
		limit    time.Duration
		status   runner.Status
		verdict  Verdict
		detail   string
	}{
		{
			name:     "missing id is an invalid solution",
			instance: twoCrossings,
			solver:   "cat >/dev/null\necho 4",
			status:   runner.Ok,
			verdict:  InvalidSolution,
			detail:   string(errors.ErrCodeIncompleteOrdering),
		},
		{
			name:     "duplicate id",
			instance: twoCrossings,
			solver:   "cat >/dev/null\necho 4\necho 4",
			status:   runner.Ok,
			verdict:  InvalidSolution,
			detail:   string(errors.ErrCodeDuplicateVertex),
		},
		{
			name:     "infinite loop times out",
			instance: twoCrossings,
			solver:   "while :; do :; done",
			limit:    300 * time.Millisecond,
			status:   runner.Timeout,
			detail:   "wall-clock",
		},
		{
			name:     "nonzero exit is never scored",
			instance: twoCrossings,
			solver:   identitySolver + "\necho oops >&2\nexit 2",
			status:   runner.NonZeroExit,
			detail:   "exit code 2: oops",
		},
		{
			name:     "absurd header counts",
			instance: "p ocr 1000000000000 1 0\n",
			solver:   "cat >/dev/null\necho 2",
			status:   runner.Ok,
			verdict:  InstanceError,
			detail:   string(errors.ErrCodeMalformedHeader),
		},
		{
			name:     "broken instance",
			instance: "p ocr 1 1 5\n1 2\n",
			solver:   "cat >/dev/null\necho 2",
			status:   runner.Ok,
			verdict:  InstanceError,
			detail:   string(errors.ErrCodeEdgeCountMismatch),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeInstances(t, map[string]string{"1.gr": tt.instance})
			b := newBatch(t, Config{Dir: dir, Solver: writeSolver(t, tt.solver), TimeLimit: tt.limit})
			row := collect(t, b)[0]
			if row.Status != tt.status || row.Verdict != tt.verdict {
				t.Errorf("row = %s/%q, want %s/%q (detail %q)", row.Status, row.Verdict, tt.status, tt.verdict, row.Detail)
			}
			if row.Crossings != nil || row.Score != nil {
				t.Errorf("failed row carries score fields: %+v", row)
			}
			if !strings.Contains(row.Detail, tt.detail) {
				t.Errorf("Detail = %q, want it to mention %q", row.Detail, tt.detail)
			}
		})
	}
}

func TestBatchReadsIterations(t *testing.T) {
	tests := []struct {
		name   string
		solver string
		want   int64
	}{
		{"stdout", identitySolver + "\necho '# Iterations: 7'", 7},
		{"stderr", identitySolver + "\necho '# Iterations: 11' >&2", 11},
		{"stdout wins over stderr", identitySolver + "\necho '# Iterations: 3'\necho '# Iterations: 9' >&2", 3},
		{"last stderr value", identitySolver + "\necho '# Iterations: 1' >&2\necho 'progress' >&2\necho '# iterations: 5' >&2", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeInstances(t, map[string]string{"1.gr": twoCrossings})
			b := newBatch(t, Config{Dir: dir, Solver: writeSolver(t, tt.solver)})
			row := collect(t, b)[0]
			if row.Verdict != Scored {
				t.Fatalf("Verdict = %q, want Scored (detail %q)", row.Verdict, row.Detail)
			}
			if row.Iterations == nil || *row.Iterations != tt.want {
				t.Errorf("Iterations = %v, want %d", row.Iterations, tt.want)
			}
		})
	}
}

func TestBatchTimeoutIsPrompt(t *testing.T) {
	dir := writeInstances(t, map[string]string{"1.gr": twoCrossings})
	b := newBatch(t, Config{Dir: dir, Solver: writeSolver(t, "while :; do :; done"), TimeLimit: 300 * time.Millisecond})
	start := time.Now()
	row := collect(t, b)[0]
	if row.Status != runner.Timeout {
		t.Fatalf("Status = %s, want Timeout", row.Status)
	}
	if row.ElapsedSeconds < 0.3 || time.Since(start) > 5*time.Second {
		t.Errorf("elapsed %.3fs (wall %s), want close to the 0.3s limit", row.ElapsedSeconds, time.Since(start))
	}
}

// Running the same deterministic solver twice gives identical counts.
func TestBatchDeterministic(t *testing.T) {
	files := map[string]string{
		"1.gr": twoCrossings,
		"2.gr": "p ocr 3 3 3\n1 4\n1 5\n2 6\n",
		"3.gr": "p ocr 2 2 4\n1 3\n1 4\n2 3\n2 4\n",
	}
	dir := writeInstances(t, files)
	solver := writeSolver(t, identitySolver)

	var first []int64
	for run := 0; run < 2; run++ {
		b := newBatch(t, Config{Dir: dir, Solver: solver, Jobs: 3})
		var counts []int64
		for _, r := range collect(t, b) {
			if r.Crossings == nil {
				t.Fatalf("run %d: %s not scored: %+v", run, r.Instance, r)
			}
			counts = append(counts, *r.Crossings)
		}
		if run == 0 {
			first = counts
			continue
		}
		for i := range counts {
			if counts[i] != first[i] {
				t.Errorf("instance %d: %d then %d", i+1, first[i], counts[i])
			}
		}
	}
	if want := []int64{2, 0, 1}; first[0] != want[0] || first[1] != want[1] || first[2] != want[2] {
		t.Errorf("counts = %v, want %v", first, want)
	}
}

func TestRowsKeepDiscoveryOrder(t *testing.T) {
	files := map[string]string{}
	for i := 1; i <= 8; i++ {
		files[strconv.Itoa(i)+".gr"] = "p ocr " + strconv.Itoa(i) + " 1 0\n"
	}
	dir := writeInstances(t, files)
	// Later instances finish first.
	solver := writeSolver(t, "read p tag a b m\nsleep 0.0$((9 - a))\necho $((a+1))")
	b := newBatch(t, Config{Dir: dir, Solver: solver, Jobs: 4})

	rows := collect(t, b)
	for i, r := range rows {
		if r.Instance != strconv.Itoa(i+1) {
			t.Fatalf("row %d is instance %s, want %d", i, r.Instance, i+1)
		}
		if r.Verdict != Scored {
			t.Errorf("instance %s: %s/%s %s", r.Instance, r.Status, r.Verdict, r.Detail)
		}
	}
}

func TestRowsStopEarly(t *testing.T) {
	files := map[string]string{"1.gr": "p ocr 1 1 0\n", "2.gr": "p ocr 2 1 0\n", "3.gr": "p ocr 3 1 0\n"}
	dir := writeInstances(t, files)
	solver := writeSolver(t, "read p tag a b m\nif [ $a -gt 1 ]; then sleep 30; fi\necho $((a+1))")
	b := newBatch(t, Config{Dir: dir, Solver: solver, Jobs: 3, TimeLimit: time.Minute})

	start := time.Now()
	n := 0
	for range b.Rows(context.Background()) {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("yielded %d rows", n)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("stopping the iteration did not stop the running solvers")
	}
}

// sliceWriter collects rows and calls onRow after each one.
type sliceWriter struct {
	rows  []Row
	onRow func()
}

func (w *sliceWriter) WriteRow(r Row) error {
	w.rows = append(w.rows, r)
	if w.onRow != nil {
		w.onRow()
	}
	return nil
}

func (w *sliceWriter) Close() error { return nil }

func TestRunCancelledLeavesPrefix(t *testing.T) {
	files := map[string]string{"1.gr": "p ocr 1 1 0\n", "2.gr": "p ocr 2 1 0\n", "3.gr": "p ocr 3 1 0\n"}
	dir := writeInstances(t, files)
	solver := writeSolver(t, "read p tag a b m\nif [ $a -gt 1 ]; then sleep 30; fi\necho $((a+1))")
	b := newBatch(t, Config{Dir: dir, Solver: solver, TimeLimit: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &sliceWriter{onRow: cancel}
	sum, err := b.Run(ctx, w)
	if err != context.Canceled {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if len(w.rows) != 1 || w.rows[0].Instance != "1" || sum.Rows != 1 {
		t.Errorf("wrote %d rows (summary %d), want only instance 1", len(w.rows), sum.Rows)
	}
}

func TestRunSummary(t *testing.T) {
	dir := writeInstances(t, map[string]string{"1.gr": twoCrossings, "2.gr": "p ocr 3 3 3\n1 4\n1 5\n2 6\n"})
	b := newBatch(t, Config{Dir: dir, Solver: writeSolver(t, identitySolver)})
	var w sliceWriter
	sum, err := b.Run(context.Background(), &w)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Rows != 2 || sum.Total != 2 || sum.Statuses[runner.Ok] != 2 || sum.Verdicts[Scored] != 2 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.Crossings != 2 {
		t.Errorf("Crossings = %d, want 2", sum.Crossings)
	}
	if sum.BatchID != b.ID() {
		t.Errorf("BatchID = %q, want %q", sum.BatchID, b.ID())
	}
}

func TestReferenceScoring(t *testing.T) {
	dir := writeInstances(t, map[string]string{
		"1.gr": twoCrossings,
		"2.gr": "p ocr 3 3 3\n1 4\n1 5\n2 6\n",
		"3.gr": "p ocr 2 2 4\n1 3\n1 4\n2 3\n2 4\n",
	})
	refPath := filepath.Join(t.TempDir(), "ref.toml")
	if err := os.WriteFile(refPath, []byte("[values]\n\"1\" = 1\n\"2\" = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	scorer, err := NewScorer("reference", CounterSweep, ocr.ParseOptions{}, refPath)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	b := newBatch(t, Config{Dir: dir, Solver: writeSolver(t, identitySolver), Scorer: scorer})
	rows := collect(t, b)

	if r := rows[0]; r.Score == nil || *r.Score != 0.5 || r.Reference == nil || *r.Reference != 1 {
		t.Errorf("instance 1: %+v, want reference 1 and score 0.5", r)
	}
	if r := rows[1]; r.Score == nil || *r.Score != 0 {
		t.Errorf("instance 2: %+v, want score 0 for a crossing-free ordering", r)
	}
	if r := rows[2]; r.Score != nil || r.Reference != nil || r.Crossings == nil {
		t.Errorf("instance 3 has no reference: %+v", r)
	}
}

func TestBoundStrategy(t *testing.T) {
	dir := writeInstances(t, map[string]string{
		"1.gr": twoCrossings,
		"2.gr": "p ocr 3 3 3\n1 4\n1 5\n2 6\n",
	})
	scorer, err := NewScorer("bound", CounterSweep, ocr.ParseOptions{}, "")
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	// Prints the fixed count as its bound, except on instance 2, which gets an ordering.
	solver := `read p tag a b m
if [ "$b" -eq 3 ]; then echo 4; echo 5; echo 6; exit 0; fi
echo "# Iterations: 2" >&2
echo $a`
	b := newBatch(t, Config{Dir: dir, Solver: writeSolver(t, solver), Scorer: scorer})
	rows := collect(t, b)

	if r := rows[0]; r.Verdict != Bound || r.Crossings == nil || *r.Crossings != 3 {
		t.Errorf("instance 1: %+v, want Bound with value 3", r)
	}
	if r := rows[0]; r.Iterations == nil || *r.Iterations != 2 {
		t.Errorf("instance 1: Iterations = %v, want 2", r.Iterations)
	}
	if r := rows[1]; r.Verdict != InvalidSolution || r.Crossings != nil ||
		!strings.Contains(r.Detail, string(errors.ErrCodeInvalidBoundValue)) {
		t.Errorf("instance 2: %+v, want InvalidSolution with %s", r, errors.ErrCodeInvalidBoundValue)
	}
}

func TestRawScorerKeepsOutput(t *testing.T) {
	dir := writeInstances(t, map[string]string{"1.gr": twoCrossings})
	keep := filepath.Join(t.TempDir(), "solutions")
	b := newBatch(t, Config{
		Dir:         dir,
		Solver:      writeSolver(t, "cat >/dev/null\necho not an ordering"),
		Scorer:      RawScorer{},
		SolutionDir: keep,
	})
	row := collect(t, b)[0]
	if row.Verdict != Raw || row.Crossings != nil {
		t.Errorf("row = %+v, want Raw without crossings", row)
	}
	data, err := os.ReadFile(filepath.Join(keep, "1.sol"))
	if err != nil || string(data) != "not an ordering\n" {
		t.Errorf("kept output = %q, %v", data, err)
	}
}

type countingCacheHooks struct {
	observability.NoopCacheHooks
	hits, misses atomic.Int32
}

func (h *countingCacheHooks) OnCacheHit(context.Context, string)  { h.hits.Add(1) }
func (h *countingCacheHooks) OnCacheMiss(context.Context, string) { h.misses.Add(1) }

func TestLowerBoundIsCached(t *testing.T) {
	hooks := &countingCacheHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	dir := writeInstances(t, map[string]string{"1.gr": "p ocr 2 2 4\n1 3\n1 4\n2 3\n2 4\n"})
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	solver := writeSolver(t, identitySolver)
	for run := 0; run < 2; run++ {
		b := newBatch(t, Config{Dir: dir, Solver: solver, LowerBound: true, Cache: fc})
		row := collect(t, b)[0]
		if row.LowerBound == nil || *row.LowerBound != 1 {
			t.Fatalf("run %d: LowerBound = %v, want 1", run, row.LowerBound)
		}
	}
	if hooks.misses.Load() != 1 || hooks.hits.Load() != 1 {
		t.Errorf("misses %d, hits %d, want 1 and 1", hooks.misses.Load(), hooks.hits.Load())
	}
}

func TestLowerBoundDescribesInstance(t *testing.T) {
	dir := writeInstances(t, map[string]string{"1.gr": "p ocr 2 2 4\n1 3\n1 4\n2 3\n2 4\n"})
	b := newBatch(t, Config{
		Dir:        dir,
		Solver:     writeSolver(t, "while :; do :; done"),
		TimeLimit:  200 * time.Millisecond,
		LowerBound: true,
		Cache:      cache.NewNullCache(),
	})
	row := collect(t, b)[0]
	if row.Status != runner.Timeout {
		t.Fatalf("Status = %s, want Timeout", row.Status)
	}
	if row.LowerBound == nil || *row.LowerBound != 1 {
		t.Errorf("LowerBound = %v, want 1 on a timed out row", row.LowerBound)
	}
	if row.Crossings != nil || row.Verdict != VerdictNone {
		t.Errorf("timed out row carries score fields: %+v", row)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	dir := writeInstances(t, map[string]string{"1.gr": twoCrossings})
	solver := writeSolver(t, identitySolver)
	tests := []struct {
		name string
		cfg  Config
		code errors.Code
	}{
		{"no time limit", Config{Dir: dir, Solver: solver, TimeLimit: -1}, errors.ErrCodeInvalidConfig},
		{"negative jobs", Config{Dir: dir, Solver: solver, Jobs: -2}, errors.ErrCodeInvalidConfig},
		{"missing solver", Config{Dir: dir, Solver: filepath.Join(dir, "nope")}, errors.ErrCodeExecutableNotFound},
		{"missing dir", Config{Dir: filepath.Join(dir, "nope"), Solver: solver}, errors.ErrCodeInvalidPath},
		{"bad extension", Config{Dir: dir, Ext: "*.gr", Solver: solver}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cfg.TimeLimit == 0 {
				tt.cfg.TimeLimit = time.Second
			}
			if _, err := New(tt.cfg); !errors.Is(err, tt.code) {
				t.Errorf("New error = %v, want %s", err, tt.code)
			}
		})
	}
}
