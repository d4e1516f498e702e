//go:build !unix

package runner

import (
	"os"
	"os/exec"
)

type groupSignal int

const (
	sigTerm groupSignal = iota
	sigKill
)

func (s groupSignal) String() string {
	if s == sigKill {
		return "kill"
	}
	return "terminate"
}

func setProcessGroup(*exec.Cmd) {}

// signalGroup can only kill the direct child on this platform.
func signalGroup(proc *os.Process, _ groupSignal) error {
	return proc.Kill()
}

func exitSignal(*os.ProcessState) (string, bool) { return "", false }

func memorySignal(string) bool { return false }
