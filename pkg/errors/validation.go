package errors

import (
	"os"
	"os/exec"
	"strings"
	"unicode"
)

// ValidateInstanceDir checks that dir exists and is a readable directory.
// It is used as a pre-flight check: a bad directory aborts a batch before
// any solver is started.
func ValidateInstanceDir(dir string) error {
	if dir == "" {
		return New(ErrCodeInvalidPath, "instance directory cannot be empty")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return Wrap(ErrCodeInvalidPath, err, "instance directory %q", dir)
	}
	if !info.IsDir() {
		return New(ErrCodeInvalidPath, "%q is not a directory", dir)
	}
	f, err := os.Open(dir)
	if err != nil {
		return Wrap(ErrCodeInvalidPath, err, "instance directory %q is not readable", dir)
	}
	return f.Close()
}

// ValidateExecutable resolves path the way exec.Command would and returns the
// resolved path. Paths containing a separator are used as-is; bare names are
// looked up in PATH.
func ValidateExecutable(path string) (string, error) {
	if path == "" {
		return "", New(ErrCodeExecutableNotFound, "solver executable cannot be empty")
	}
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return "", New(ErrCodeExecutableNotFound, "solver path contains invalid characters")
		}
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", Wrap(ErrCodeExecutableNotFound, err, "solver %q", path)
	}
	return resolved, nil
}

// ValidateExtension normalizes an instance file extension filter.
// "gr" and ".gr" are both accepted; the result always has a leading dot.
func ValidateExtension(ext string) (string, error) {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return "", New(ErrCodeInvalidConfig, "instance extension cannot be empty")
	}
	if strings.ContainsAny(ext, "/\\*?") {
		return "", New(ErrCodeInvalidConfig, "invalid instance extension %q", ext)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext, nil
}
