// Package solution reads the free-layer orderings solvers print and checks
// them against an instance.
//
// A solution stream is line oriented. Every line is one of:
//
//   - blank: only whitespace, ignored
//   - comment: first non-space character is '#'; kept as a diagnostic
//   - data: one free-vertex id, optionally followed by a trailing "# ..."
//
// Ids use the combined 1-based numbering of the instance file, so for an
// instance with fixedCount fixed vertices the valid ids are
// fixedCount+1 … fixedCount+freeCount. The diagnostic "# Iterations: N" is
// recognized and reported by [Stream.Iterations].
package solution

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// Kind classifies one line of a solution stream.
type Kind int

const (
	KindBlank Kind = iota
	KindComment
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindComment:
		return "comment"
	case KindData:
		return "data"
	default:
		return "blank"
	}
}

// Line is a classified line. Text is the data token for data lines and the
// comment body, without the leading '#', for comment lines.
type Line struct {
	Number int // 1-based line number in the stream
	Kind   Kind
	Text   string
}

// Stream is a solution split into data and diagnostic lines.
type Stream struct {
	Data     []Line
	Comments []Line
}

// Split classifies every line of text. It never fails: deciding whether a
// data line holds a valid id is left to [Validate].
func Split(text []byte) *Stream {
	s := &Stream{}
	sc := bufio.NewScanner(bytes.NewReader(text))
	sc.Buffer(make([]byte, 0, 4096), len(text)+1)
	n := 0
	for sc.Scan() {
		n++
		line := classify(n, sc.Text())
		switch line.Kind {
		case KindData:
			s.Data = append(s.Data, line)
		case KindComment:
			s.Comments = append(s.Comments, line)
		}
	}
	return s
}

func classify(n int, raw string) Line {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Line{Number: n, Kind: KindBlank}
	}
	if body, ok := strings.CutPrefix(trimmed, "#"); ok {
		return Line{Number: n, Kind: KindComment, Text: strings.TrimSpace(body)}
	}
	if data, _, found := strings.Cut(trimmed, "#"); found {
		trimmed = strings.TrimSpace(data)
	}
	return Line{Number: n, Kind: KindData, Text: trimmed}
}

// Iterations returns the value of the last "# Iterations: N" diagnostic.
// The key is matched case-insensitively and the space after '#' is optional.
func (s *Stream) Iterations() (int64, bool) {
	var (
		val   int64
		found bool
	)
	for _, c := range s.Comments {
		key, rest, ok := strings.Cut(c.Text, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "iterations") {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
		if err != nil {
			continue
		}
		val, found = v, true
	}
	return val, found
}
