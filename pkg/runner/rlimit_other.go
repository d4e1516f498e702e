//go:build !linux

package runner

import "os/exec"

func rlimitSupported() bool { return false }

// Init is a no-op on platforms without the rlimit trampoline.
func Init() {}

func rlimitCommand(string, []string, uint64) (*exec.Cmd, bool) { return nil, false }

func trampolineFailed(int, []byte) bool { return false }

func trampolineMessage([]byte) string { return "" }
