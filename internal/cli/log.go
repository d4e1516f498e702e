// Package cli implements the ocrbench command-line interface.
//
// The CLI is built on cobra. Every command shares one charmbracelet/log
// logger owned by [CLI]; --verbose (-v) lowers it to debug level.
//
// # Commands
//
//   - run: evaluate a solver on every instance of a directory
//   - score: score an existing solution file
//   - check: parse an instance and print its statistics
//   - bound: print the pairwise crossing lower bound of an instance
//   - visualize: draw an instance, optionally under an ordering
//   - cache: manage the lower-bound cache
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at level, with timestamps
// formatted as "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Bound computed (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
