//go:build linux

package runner

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	envRlimit = "OCRBENCH_RLIMIT_AS"
	envExec   = "OCRBENCH_EXEC"

	trampolineMarker = "ocrbench: trampoline:"
	trampolineExit   = 127
)

func rlimitSupported() bool { return true }

// Init turns the current process into the rlimit trampoline when the
// runner started it as one: it applies the address-space limit and execs
// the solver, and never returns. Otherwise it returns immediately. Call it
// at the top of main, and of TestMain in tests that run solvers.
func Init() {
	limit, ok := os.LookupEnv(envRlimit)
	if !ok {
		return
	}
	exe := os.Getenv(envExec)
	env := make([]string, 0, len(os.Environ()))
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, envRlimit+"=") || strings.HasPrefix(kv, envExec+"=") {
			continue
		}
		env = append(env, kv)
	}

	n, err := strconv.ParseUint(limit, 10, 64)
	if err == nil {
		err = unix.Setrlimit(unix.RLIMIT_AS, &unix.Rlimit{Cur: n, Max: n})
	}
	if err == nil {
		err = unix.Exec(exe, append([]string{exe}, os.Args[1:]...), env)
	}
	fmt.Fprintf(os.Stderr, "%s %s: %v\n", trampolineMarker, exe, err)
	os.Exit(trampolineExit)
}

// rlimitCommand re-executes the current binary as a trampoline for exe.
func rlimitCommand(exe string, args []string, limit uint64) (*exec.Cmd, bool) {
	self, err := os.Executable()
	if err != nil {
		return nil, false
	}
	cmd := exec.Command(self, args...)
	cmd.Args[0] = exe
	cmd.Env = append(os.Environ(),
		envRlimit+"="+strconv.FormatUint(limit, 10),
		envExec+"="+exe,
	)
	return cmd, true
}

func trampolineFailed(exitCode int, stderr []byte) bool {
	return exitCode == trampolineExit && bytes.Contains(stderr, []byte(trampolineMarker))
}

func trampolineMessage(stderr []byte) string {
	i := bytes.LastIndex(stderr, []byte(trampolineMarker))
	if i < 0 {
		return "unknown error"
	}
	line, _, _ := bytes.Cut(stderr[i+len(trampolineMarker):], []byte("\n"))
	return strings.TrimSpace(string(line))
}
