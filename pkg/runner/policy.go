package runner

import (
	"fmt"
	"strings"
)

// MemoryPolicy selects how a memory ceiling is enforced.
type MemoryPolicy int

const (
	// MemoryAuto uses MemoryRlimit where supported, else MemoryPoll, else
	// runs without a ceiling.
	MemoryAuto MemoryPolicy = iota
	// MemoryRlimit sets a hard RLIMIT_AS on the child before it executes.
	// Allocations past the limit fail inside the child.
	MemoryRlimit
	// MemoryPoll samples the summed resident set of the child's process group
	// and kills the group once it exceeds the ceiling.
	MemoryPoll
	// MemoryNone ignores the ceiling.
	MemoryNone
)

func (p MemoryPolicy) String() string {
	switch p {
	case MemoryAuto:
		return "auto"
	case MemoryRlimit:
		return "rlimit"
	case MemoryPoll:
		return "poll"
	case MemoryNone:
		return "none"
	}
	return fmt.Sprintf("MemoryPolicy(%d)", int(p))
}

// ParseMemoryPolicy parses the names printed by [MemoryPolicy.String].
func ParseMemoryPolicy(s string) (MemoryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return MemoryAuto, nil
	case "rlimit":
		return MemoryRlimit, nil
	case "poll":
		return MemoryPoll, nil
	case "none":
		return MemoryNone, nil
	}
	return MemoryAuto, fmt.Errorf("unknown memory policy %q (want auto, rlimit, poll or none)", s)
}

// resolve picks the concrete policy for this platform.
func (p MemoryPolicy) resolve() MemoryPolicy {
	switch p {
	case MemoryAuto:
		if rlimitSupported() {
			return MemoryRlimit
		}
		if pollSupported() {
			return MemoryPoll
		}
		return MemoryNone
	case MemoryRlimit:
		if !rlimitSupported() {
			return MemoryPoll.resolve()
		}
	case MemoryPoll:
		if !pollSupported() {
			return MemoryNone
		}
	}
	return p
}
