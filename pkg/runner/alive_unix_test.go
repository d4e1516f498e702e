//go:build unix

package runner

import (
	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

func processAlive(pid int) bool {
	if pollSupported() {
		p, err := procfs.NewProc(pid)
		if err != nil {
			return false
		}
		st, err := p.Stat()
		return err == nil && st.State != "Z" && st.State != "X"
	}
	return unix.Kill(pid, 0) == nil
}
