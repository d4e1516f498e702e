// Package runner executes an external solver once under a wall-clock deadline
// and an optional memory ceiling, and classifies how the run ended.
//
// # Execution
//
// The instance file is the child's stdin. Stdout and stderr go to per-run
// files rather than pipes, so a child that writes a lot and never exits
// cannot block on a full pipe, and capture is complete once the child has
// been reaped. Every run gets a fresh id (a UUID) that names its artifacts.
// When [Request.SolutionPath] is set, stdout is written to a sibling
// temporary file and renamed into place only after the child exited on its
// own; a run that was killed never leaves a torn file at that path.
//
// The child runs in its own process group. When the deadline passes the
// whole group gets SIGTERM, then SIGKILL after [Options.Grace]. Stragglers
// left behind by a child that exited are killed too.
//
// # Memory Ceiling
//
// [MemoryRlimit] sets a hard RLIMIT_AS between fork and exec. Go cannot run
// code in that window, so the runner re-executes its own binary with a
// marker in the environment; [Init], called first thing in main, applies the
// limit and execs the solver. Binaries (and test binaries) that start runs
// with this policy must call [Init]. [MemoryPoll] sums the resident
// sets of the child's process group from /proc and kills the group once the
// sum exceeds the ceiling, so solvers behind wrapper scripts are covered.
//
// # Classification
//
//   - [Ok]: exit code 0 before the deadline
//   - [NonZeroExit]: any other exit the harness did not cause
//   - [Timeout]: the deadline fired, even if the child exited in the race
//   - [OutOfMemory]: killed by the poller, or, under the rlimit, killed by
//     SIGABRT, SIGSEGV or SIGBUS
//   - [LaunchFailure]: the executable or instance could not be opened, or
//     the child could not be started
//
// [Runner.Run] returns an error only for an invalid request or when ctx is
// cancelled; every other condition is reported in [Outcome].
package runner
