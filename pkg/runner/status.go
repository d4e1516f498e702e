package runner

import "fmt"

// Status classifies how a run ended.
type Status int

const (
	// Ok: the child exited with code 0 before the deadline.
	Ok Status = iota
	// NonZeroExit: the child exited nonzero or died from a signal the harness
	// did not send.
	NonZeroExit
	// Timeout: the wall-clock deadline passed.
	Timeout
	// OutOfMemory: the child hit the memory ceiling.
	OutOfMemory
	// LaunchFailure: the child never started.
	LaunchFailure
)

var statusNames = [...]string{
	Ok:            "Ok",
	NonZeroExit:   "NonZeroExit",
	Timeout:       "Timeout",
	OutOfMemory:   "OutOfMemory",
	LaunchFailure: "LaunchFailure",
}

// Statuses lists every status in declaration order.
var Statuses = []Status{Ok, NonZeroExit, Timeout, OutOfMemory, LaunchFailure}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(statusNames) {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}
