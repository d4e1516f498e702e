//go:build linux

package runner

import (
	"os"
	"syscall"

	"github.com/prometheus/procfs"
)

func pollSupported() bool {
	_, err := os.Stat(procfs.DefaultMountPoint + "/self/stat")
	return err == nil
}

// groupResidentMemory sums the resident set sizes of every process in the
// process group pgid. Processes that exit during the scan are skipped.
func groupResidentMemory(pgid int) (uint64, error) {
	procs, err := procfs.AllProcs()
	if err != nil {
		return 0, err
	}
	var (
		total uint64
		found bool
	)
	for _, p := range procs {
		st, err := p.Stat()
		if err != nil || st.PGRP != pgid {
			continue
		}
		found = true
		total += uint64(st.ResidentMemory())
	}
	if !found {
		return 0, os.ErrProcessDone
	}
	return total, nil
}

// peakFromState returns the child's maximum resident set reported by wait4.
// Linux reports ru_maxrss in kilobytes.
func peakFromState(ps *os.ProcessState) uint64 {
	if ru, ok := ps.SysUsage().(*syscall.Rusage); ok && ru != nil && ru.Maxrss > 0 {
		return uint64(ru.Maxrss) * 1024
	}
	return 0
}
