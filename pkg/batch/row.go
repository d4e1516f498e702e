package batch

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/ocrbench/pkg/runner"
)

// Verdict says what scoring made of an Ok run. It is empty for other runs.
type Verdict string

const (
	VerdictNone     Verdict = ""
	Scored          Verdict = "Scored"
	InvalidSolution Verdict = "InvalidSolution"
	InstanceError   Verdict = "InstanceError"
	Raw             Verdict = "Raw"
	// Bound marks a row whose crossings column holds a bound the solver
	// printed rather than a counted ordering.
	Bound Verdict = "Bound"
)

// Verdicts lists the non-empty verdicts.
var Verdicts = []Verdict{Scored, InvalidSolution, InstanceError, Raw, Bound}

// Columns is the output schema shared by the CSV header and the JSONL keys.
var Columns = []string{
	"instance", "status", "exit_code", "elapsed_seconds", "peak_memory_bytes",
	"verdict", "crossings", "weighted_crossings", "lower_bound", "reference",
	"score", "iterations", "detail",
}

// Row is the result for one instance. Nil pointers are absent values.
// LowerBound is a property of the instance and is filled on rows of any
// status; the other score fields are set only for Ok runs.
type Row struct {
	Instance          string        `json:"instance"`
	Status            runner.Status `json:"status"`
	ExitCode          *int          `json:"exit_code"`
	ElapsedSeconds    float64       `json:"elapsed_seconds"`
	PeakMemoryBytes   *uint64       `json:"peak_memory_bytes"`
	Verdict           Verdict       `json:"verdict"`
	Crossings         *int64        `json:"crossings"`
	WeightedCrossings *int64        `json:"weighted_crossings"`
	LowerBound        *int64        `json:"lower_bound"`
	Reference         *int64        `json:"reference"`
	Score             *float64      `json:"score"`
	Iterations        *int64        `json:"iterations"`
	Detail            string        `json:"detail"`
}

// Record returns the row as CSV cells in [Columns] order.
func (r Row) Record() []string {
	return []string{
		r.Instance,
		r.Status.String(),
		optInt(r.ExitCode),
		strconv.FormatFloat(r.ElapsedSeconds, 'f', 3, 64),
		optUint(r.PeakMemoryBytes),
		string(r.Verdict),
		optInt64(r.Crossings),
		optInt64(r.WeightedCrossings),
		optInt64(r.LowerBound),
		optInt64(r.Reference),
		optFloat(r.Score),
		optInt64(r.Iterations),
		r.Detail,
	}
}

// newRow fills the identity, status and timing of a row from an outcome.
func newRow(inst Instance, out *runner.Outcome) Row {
	row := Row{
		Instance:       inst.ID,
		Status:         out.Status,
		ElapsedSeconds: out.Elapsed.Seconds(),
	}
	if out.Status != runner.LaunchFailure && out.ExitCode >= 0 {
		row.ExitCode = ptr(out.ExitCode)
	}
	if out.PeakMemory > 0 {
		row.PeakMemoryBytes = ptr(out.PeakMemory)
	}
	row.Detail = outcomeDetail(out)
	return row
}

// outcomeDetail explains a run that did not end Ok.
func outcomeDetail(out *runner.Outcome) string {
	switch out.Status {
	case runner.Ok:
		return ""
	case runner.LaunchFailure:
		if out.Err != nil {
			return out.Err.Error()
		}
		return "launch failed"
	case runner.Timeout:
		return "wall-clock limit reached"
	case runner.OutOfMemory:
		if out.Signal != "" {
			return "memory limit reached (" + out.Signal + ")"
		}
		return "memory limit reached"
	}
	var parts []string
	if out.Signal != "" {
		parts = append(parts, "killed by "+out.Signal)
	} else {
		parts = append(parts, fmt.Sprintf("exit code %d", out.ExitCode))
	}
	if line := lastLine(out.Stderr); line != "" {
		parts = append(parts, line)
	}
	return strings.Join(parts, ": ")
}

const maxDetail = 200

func lastLine(b []byte) string {
	b = bytes.TrimSpace(b)
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		b = b[i+1:]
	}
	s := strings.TrimSpace(string(b))
	if len(s) > maxDetail {
		s = s[:maxDetail] + "..."
	}
	return s
}

func ptr[T any](v T) *T { return &v }

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func optInt64(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

func optUint(p *uint64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatUint(*p, 10)
}

func optFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 6, 64)
}
