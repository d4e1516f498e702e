//go:build unix

package runner

import (
	stderrors "errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

type groupSignal int

const (
	sigTerm groupSignal = iota
	sigKill
)

func (s groupSignal) String() string {
	return s.unix().String()
}

func (s groupSignal) unix() syscall.Signal {
	if s == sigKill {
		return unix.SIGKILL
	}
	return unix.SIGTERM
}

// setProcessGroup makes the child the leader of a new process group so the
// harness can signal everything it spawns.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup signals the child's process group. A group that is already
// gone is not an error.
func signalGroup(proc *os.Process, sig groupSignal) error {
	err := unix.Kill(-proc.Pid, sig.unix())
	if stderrors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

func exitSignal(ps *os.ProcessState) (string, bool) {
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return "", false
	}
	return unix.SignalName(ws.Signal()), true
}

// memorySignal reports whether a child dying from sig most likely failed an
// allocation under the address-space limit.
func memorySignal(name string) bool {
	switch name {
	case unix.SignalName(unix.SIGABRT), unix.SignalName(unix.SIGSEGV), unix.SignalName(unix.SIGBUS):
		return true
	}
	return false
}
