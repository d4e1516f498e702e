//go:build !linux

package runner

import (
	"os"

	"github.com/matzehuels/ocrbench/pkg/errors"
)

func pollSupported() bool { return false }

func groupResidentMemory(int) (uint64, error) {
	return 0, errors.New(errors.ErrCodeUnsupported, "memory sampling needs /proc")
}

func peakFromState(*os.ProcessState) uint64 { return 0 }
