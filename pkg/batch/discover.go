package batch

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/ocrbench/pkg/errors"
)

// DefaultExt is the extension of PACE instance files.
const DefaultExt = ".gr"

// Instance is one instance file.
type Instance struct {
	ID   string // file name without the extension
	Path string
}

// Discover lists the files in dir ending in ext. Hidden files and
// directories are ignored. An empty ext matches every file.
func Discover(dir, ext string) ([]Instance, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "list instances in %s", dir)
	}

	var out []Instance
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		id := strings.TrimSuffix(name, ext)
		if id == "" {
			continue
		}
		out = append(out, Instance{ID: id, Path: filepath.Join(dir, name)})
	}
	sortInstances(out)
	return out, nil
}

// sortInstances orders numerically when every id is a plain number and
// lexicographically otherwise.
func sortInstances(insts []Instance) {
	nums := make(map[string]uint64, len(insts))
	for _, in := range insts {
		n, err := strconv.ParseUint(in.ID, 10, 64)
		if err != nil {
			slices.SortFunc(insts, func(a, b Instance) int { return strings.Compare(a.ID, b.ID) })
			return
		}
		nums[in.ID] = n
	}
	slices.SortFunc(insts, func(a, b Instance) int {
		if c := cmp.Compare(nums[a.ID], nums[b.ID]); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
