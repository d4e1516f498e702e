package runner

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/ocrbench/pkg/errors"
	"github.com/matzehuels/ocrbench/pkg/observability"
)

const (
	// DefaultGrace is the time between SIGTERM and SIGKILL.
	DefaultGrace = 2 * time.Second
	// DefaultPollInterval is the memory sampling period.
	DefaultPollInterval = 50 * time.Millisecond
	// DefaultStderrTail is how much of the end of stderr an Outcome keeps.
	DefaultStderrTail = 64 << 10
)

// Options configures a [Runner]. The zero value is usable.
type Options struct {
	Grace        time.Duration
	MemoryPolicy MemoryPolicy
	PollInterval time.Duration
	TempDir      string // defaults to os.TempDir()
	StderrTail   int
	Logger       *log.Logger
}

// Request describes one solver run.
type Request struct {
	Executable  string   // path or name looked up in PATH
	Args        []string // arguments after the executable
	InputPath   string   // instance file fed on stdin
	TimeLimit   time.Duration
	MemoryLimit uint64 // bytes; 0 means no ceiling

	// SolutionPath, if set, receives the child's stdout. Otherwise stdout
	// goes to a temporary file that is removed after the run.
	SolutionPath string
}

func (r Request) validate() error {
	switch {
	case r.Executable == "":
		return errors.New(errors.ErrCodeInvalidConfig, "no solver executable")
	case r.InputPath == "":
		return errors.New(errors.ErrCodeInvalidConfig, "no instance path")
	case r.TimeLimit <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "time limit must be positive, got %s", r.TimeLimit)
	}
	return nil
}

// Outcome is the classified result of one run.
type Outcome struct {
	RunID      string
	Status     Status
	ExitCode   int    // -1 when the child was killed or never started
	Signal     string // signal that ended the child, if any
	Elapsed    time.Duration
	PeakMemory uint64 // bytes; 0 when unknown

	// Stdout holds the complete output of a child that exited on its own.
	// It is nil for Timeout, OutOfMemory and LaunchFailure.
	Stdout []byte
	// Stderr holds the last StderrTail bytes of the child's stderr.
	Stderr []byte
	// SolutionPath is Request.SolutionPath when stdout was kept there.
	SolutionPath string
	// Policy is the memory policy that was in effect.
	Policy MemoryPolicy
	// Err explains a LaunchFailure or an unexpected wait error.
	Err error
}

// Runner executes solver requests. It is safe for concurrent use.
type Runner struct {
	opts   Options
	logger *log.Logger
}

// New creates a Runner, filling unset options with defaults.
func New(opts Options) *Runner {
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.StderrTail <= 0 {
		opts.StderrTail = DefaultStderrTail
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{opts: opts, logger: logger}
}

// Run executes req and blocks until the child is gone.
func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Outcome{RunID: uuid.NewString(), ExitCode: -1, Policy: MemoryNone}
	logger := r.logger.With("run", out.RunID[:8])

	exe, err := exec.LookPath(req.Executable)
	if err != nil {
		return r.launchFailure(ctx, out, errors.Wrap(errors.ErrCodeExecutableNotFound, err, "solver %s", req.Executable)), nil
	}
	stdin, err := os.Open(req.InputPath)
	if err != nil {
		return r.launchFailure(ctx, out, errors.Wrap(errors.ErrCodeInvalidPath, err, "open instance")), nil
	}
	defer stdin.Close()

	capt, err := newCapture(r.opts.TempDir, out.RunID, req.SolutionPath)
	if err != nil {
		return r.launchFailure(ctx, out, errors.Wrap(errors.ErrCodeInternal, err, "create capture files")), nil
	}
	defer capt.cleanup()

	policy := MemoryNone
	if req.MemoryLimit > 0 {
		policy = r.opts.MemoryPolicy.resolve()
	}
	cmd, policy := command(exe, req, policy)
	out.Policy = policy
	cmd.Stdin = stdin
	cmd.Stdout = capt.stdout
	cmd.Stderr = capt.stderr
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		capt.close()
		return r.launchFailure(ctx, out, errors.Wrap(errors.ErrCodeInternal, err, "start %s", exe)), nil
	}
	proc := cmd.Process
	observability.Runner().OnLaunch(ctx, out.RunID, exe)
	logger.Debug("launched", "exe", filepath.Base(exe), "pid", proc.Pid, "memory", policy)

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	mon := startMonitor(proc.Pid, req.MemoryLimit, policy == MemoryPoll, r.opts.PollInterval, func() {
		r.signal(ctx, out.RunID, proc, sigKill)
	})

	timer := time.NewTimer(req.TimeLimit)
	defer timer.Stop()

	var (
		waitErr   error
		timedOut  bool
		cancelled bool
	)
	select {
	case waitErr = <-waitCh:
		// A deadline that fired while the child was exiting still counts.
		select {
		case <-timer.C:
			timedOut = true
		default:
		}
	case <-timer.C:
		timedOut = true
		logger.Warn("deadline reached, terminating", "limit", req.TimeLimit)
		waitErr = r.terminate(ctx, out.RunID, proc, waitCh)
	case <-ctx.Done():
		cancelled = true
		waitErr = r.terminate(ctx, out.RunID, proc, waitCh)
	}
	out.Elapsed = time.Since(start)
	mon.stop()
	signalGroup(proc, sigKill)
	capt.close()

	if cancelled {
		return nil, ctx.Err()
	}

	ps := cmd.ProcessState
	out.ExitCode = ps.ExitCode()
	sig, signaled := exitSignal(ps)
	if signaled {
		out.Signal = sig
	}
	out.PeakMemory = max(mon.peak(), peakFromState(ps))
	var exitErr *exec.ExitError
	if waitErr != nil && !stderrors.As(waitErr, &exitErr) {
		out.Err = waitErr
	}
	out.Stderr = capt.stderrTail(r.opts.StderrTail)

	switch {
	case timedOut:
		out.Status = Timeout
	case mon.exceeded():
		out.Status = OutOfMemory
		logger.Warn("memory ceiling exceeded", "limit", req.MemoryLimit, "peak", out.PeakMemory)
	case ps.Success():
		out.Status = Ok
	case policy == MemoryRlimit && trampolineFailed(out.ExitCode, out.Stderr):
		out.Status = LaunchFailure
		out.Err = errors.New(errors.ErrCodeInternal, "apply memory limit: %s", trampolineMessage(out.Stderr))
	case policy == MemoryRlimit && signaled && memorySignal(sig):
		out.Status = OutOfMemory
	default:
		out.Status = NonZeroExit
	}

	if out.Status == Ok || out.Status == NonZeroExit {
		out.Stdout, err = capt.keep()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "read captured stdout")
		}
		out.SolutionPath = req.SolutionPath
	}

	observability.Runner().OnExit(ctx, out.RunID, out.Status.String(), out.Elapsed)
	logger.Debug("finished", "status", out.Status, "exit", out.ExitCode, "elapsed", out.Elapsed.Round(time.Millisecond))
	return out, nil
}

// terminate sends SIGTERM to the group, waits up to the grace period and
// then sends SIGKILL. It returns the child's wait error.
func (r *Runner) terminate(ctx context.Context, runID string, proc *os.Process, waitCh <-chan error) error {
	r.signal(ctx, runID, proc, sigTerm)
	grace := time.NewTimer(r.opts.Grace)
	defer grace.Stop()
	select {
	case err := <-waitCh:
		return err
	case <-grace.C:
	}
	r.signal(ctx, runID, proc, sigKill)
	return <-waitCh
}

func (r *Runner) signal(ctx context.Context, runID string, proc *os.Process, sig groupSignal) {
	observability.Runner().OnSignal(ctx, runID, sig.String())
	if err := signalGroup(proc, sig); err != nil {
		r.logger.Debug("signal failed", "run", runID[:8], "signal", sig, "err", err)
	}
}

func (r *Runner) launchFailure(ctx context.Context, out *Outcome, err error) *Outcome {
	out.Status = LaunchFailure
	out.Err = err
	r.logger.Warn("launch failed", "run", out.RunID[:8], "err", err)
	observability.Runner().OnExit(ctx, out.RunID, out.Status.String(), 0)
	return out
}

// command builds the child command, wrapping it in the rlimit trampoline
// when that policy applies. It reports the policy actually used.
func command(exe string, req Request, policy MemoryPolicy) (*exec.Cmd, MemoryPolicy) {
	if policy == MemoryRlimit {
		if cmd, ok := rlimitCommand(exe, req.Args, req.MemoryLimit); ok {
			return cmd, MemoryRlimit
		}
		policy = MemoryPoll.resolve()
	}
	return exec.Command(exe, req.Args...), policy
}

// capture owns the per-run stdout and stderr files.
type capture struct {
	stdout, stderr *os.File
	dest           string // final stdout path, empty for a temporary capture
	closed         bool
}

func newCapture(tempDir, runID, dest string) (*capture, error) {
	c := &capture{dest: dest}
	var err error
	if dest != "" {
		c.stdout, err = os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.partial")
	} else {
		c.stdout, err = os.CreateTemp(tempDir, "ocrbench-"+runID+"-*.stdout")
	}
	if err != nil {
		return nil, err
	}
	c.stderr, err = os.CreateTemp(tempDir, "ocrbench-"+runID+"-*.stderr")
	if err != nil {
		c.stdout.Close()
		os.Remove(c.stdout.Name())
		return nil, err
	}
	return c, nil
}

func (c *capture) close() {
	if c.closed {
		return
	}
	c.closed = true
	c.stdout.Close()
	c.stderr.Close()
}

// keep reads the complete stdout and moves it to its destination.
func (c *capture) keep() ([]byte, error) {
	data, err := os.ReadFile(c.stdout.Name())
	if err != nil {
		return nil, err
	}
	if c.dest != "" {
		if err := os.Rename(c.stdout.Name(), c.dest); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (c *capture) stderrTail(n int) []byte {
	f, err := os.Open(c.stderr.Name())
	if err != nil {
		return nil
	}
	defer f.Close()
	if st, err := f.Stat(); err == nil && st.Size() > int64(n) {
		if _, err := f.Seek(-int64(n), io.SeekEnd); err != nil {
			return nil
		}
	}
	data, _ := io.ReadAll(f)
	return data
}

func (c *capture) cleanup() {
	c.close()
	os.Remove(c.stdout.Name())
	os.Remove(c.stderr.Name())
}
