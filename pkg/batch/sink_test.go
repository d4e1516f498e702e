package batch

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/ocrbench/pkg/runner"
)

func sampleRows() []Row {
	return []Row{
		{
			Instance:        "1",
			Status:          runner.Ok,
			ExitCode:        ptr(0),
			ElapsedSeconds:  0.25,
			PeakMemoryBytes: ptr(uint64(4096)),
			Verdict:         Scored,
			Crossings:       ptr(int64(2)),
			Score:           ptr(0.5),
		},
		{
			Instance:       "2",
			Status:         runner.Timeout,
			ElapsedSeconds: 1,
			Detail:         "wall-clock limit reached",
		},
	}
}

func TestRecord(t *testing.T) {
	got := sampleRows()[0].Record()
	want := []string{"1", "Ok", "0", "0.250", "4096", "Scored", "2", "", "", "", "0.500000", "", ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Record mismatch (-want +got):\n%s", diff)
	}
	if len(got) != len(Columns) {
		t.Errorf("Record has %d cells for %d columns", len(got), len(Columns))
	}
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	for _, r := range sampleRows() {
		if err := w.WriteRow(r); err != nil {
			t.Fatalf("WriteRow: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header and 2 rows", len(records))
	}
	if diff := cmp.Diff(Columns, records[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if records[2][1] != "Timeout" || records[2][2] != "" || records[2][6] != "" {
		t.Errorf("timeout row = %v, want empty exit code and crossings", records[2])
	}
}

func TestCSVWriterEmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVWriter(&buf).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if want := strings.Join(Columns, ",") + "\n"; buf.String() != want {
		t.Errorf("empty batch = %q, want header only", buf.String())
	}
}

func TestCSVWriterFlushesEachRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := NewCSVWriter(f)
	if err := w.WriteRow(sampleRows()[0]); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	// Without Close the row must already be on disk.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 2 {
		t.Errorf("file has %d lines before Close, want 2", lines)
	}
}

func TestJSONLWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)
	for _, r := range sampleRows() {
		if err := w.WriteRow(r); err != nil {
			t.Fatalf("WriteRow: %v", err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, col := range Columns {
		if _, ok := m[col]; !ok {
			t.Errorf("key %q missing", col)
		}
	}
	if m["status"] != "Timeout" || m["crossings"] != nil || m["exit_code"] != nil {
		t.Errorf("timeout row = %v, want null crossings and exit code", m)
	}

	var back Row
	if err := json.Unmarshal([]byte(lines[0]), &back); err != nil {
		t.Fatalf("decode row: %v", err)
	}
	if diff := cmp.Diff(sampleRows()[0], back); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer
	m := MultiWriter{NewCSVWriter(&a), NewJSONLWriter(&b)}
	if err := m.WriteRow(sampleRows()[0]); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if a.Len() == 0 || b.Len() == 0 {
		t.Error("every writer should receive the row")
	}
}
