package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/matzehuels/ocrbench/pkg/runner"
)

func TestMain(m *testing.M) {
	runner.Init()
	os.Exit(m.Run())
}

// captureUI redirects status output to a buffer for the test.
func captureUI(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := uiOut
	uiOut = &buf
	t.Cleanup(func() { uiOut = old })
	return &buf
}

// execute runs the root command with args and a quiet logger.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	var logs bytes.Buffer
	root := New(&logs, LogError).RootCommand()
	root.SetArgs(args)
	root.SetOut(&logs)
	root.SetErr(&logs)
	return root.Execute()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("solver scripts need /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "solver.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// twoCrossings has free ids 4 and 5; "4 5" has 2 crossings, "5 4" none.
const twoCrossings = "c hand-built\np ocr 3 2 3\n2 4\n3 4\n1 5\n"

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(os.Stderr, LogInfo).RootCommand()
	want := []string{"run", "score", "check", "bound", "visualize", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.Version == "" {
		t.Error("root command has no version")
	}
}

func TestCheckCommand(t *testing.T) {
	ui := captureUI(t)
	path := writeFile(t, t.TempDir(), "1.gr", twoCrossings)
	if err := execute(t, "check", path); err != nil {
		t.Fatalf("check: %v", err)
	}
	out := ui.String()
	for _, want := range []string{"Valid instance", "Fixed", "Free", "Edges", "3"} {
		if !strings.Contains(out, want) {
			t.Errorf("check output is missing %q:\n%s", want, out)
		}
	}
}

func TestCheckNormalize(t *testing.T) {
	captureUI(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "1.gr", twoCrossings)
	out := filepath.Join(dir, "norm.gr")
	if err := execute(t, "check", in, "--normalize", "-o", out); err != nil {
		t.Fatalf("check --normalize: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if want := "p ocr 3 2 3\n1 5\n2 4\n3 4\n"; string(data) != want {
		t.Errorf("normalized = %q, want %q", data, want)
	}
}

func TestCheckRejectsBrokenInstance(t *testing.T) {
	captureUI(t)
	path := writeFile(t, t.TempDir(), "bad.gr", "p ocr 1 1 2\n1 2\n")
	if err := execute(t, "check", path); err == nil {
		t.Error("check accepted an instance with too few edges")
	}
}

func TestScoreCommand(t *testing.T) {
	dir := t.TempDir()
	inst := writeFile(t, dir, "1.gr", twoCrossings)

	tests := []struct {
		name     string
		solution string
		args     []string
		want     []string
		wantErr  bool
	}{
		{"crossing order", "4\n5\n", nil, []string{"Crossings", "2"}, false},
		{"crossing-free order", "5\n4\n# Iterations: 9\n", []string{"--counter", "reference"}, []string{"Crossings", "0", "Iterations", "9"}, false},
		{"with bound", "5\n4\n", []string{"--lower-bound"}, []string{"Lower bound", "0"}, false},
		{"missing vertex", "4\n", nil, []string{"Invalid solution"}, true},
		{"bad counter", "4\n5\n", []string{"--counter", "magic"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ui := captureUI(t)
			sol := writeFile(t, dir, "sol.txt", tt.solution)
			err := execute(t, append([]string{"score", inst, sol}, tt.args...)...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("score error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, want := range tt.want {
				if !strings.Contains(ui.String(), want) {
					t.Errorf("output is missing %q:\n%s", want, ui.String())
				}
			}
		})
	}
}

func TestBoundCommandCaches(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	path := writeFile(t, t.TempDir(), "k22.gr", "p ocr 2 2 4\n1 3\n1 4\n2 3\n2 4\n")

	ui := captureUI(t)
	if err := execute(t, "bound", path); err != nil {
		t.Fatalf("bound: %v", err)
	}
	if out := ui.String(); !strings.Contains(out, "1") || !strings.Contains(out, iconFresh) {
		t.Errorf("first bound = %q, want 1 computed fresh", out)
	}

	ui.Reset()
	if err := execute(t, "bound", path); err != nil {
		t.Fatalf("bound: %v", err)
	}
	if out := ui.String(); !strings.Contains(out, iconCached) {
		t.Errorf("second bound = %q, want a cache hit", out)
	}

	ui.Reset()
	if err := execute(t, "bound", path, "--no-cache"); err != nil {
		t.Fatalf("bound --no-cache: %v", err)
	}
	if out := ui.String(); !strings.Contains(out, iconFresh) {
		t.Errorf("--no-cache bound = %q, want fresh", out)
	}
}

func TestVisualizeDOT(t *testing.T) {
	captureUI(t)
	dir := t.TempDir()
	inst := writeFile(t, dir, "1.gr", twoCrossings)
	sol := writeFile(t, dir, "1.sol", "4\n5\n")
	out := filepath.Join(dir, "drawing.dot")

	if err := execute(t, "visualize", inst, sol, "-f", "dot", "-o", out); err != nil {
		t.Fatalf("visualize: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph G {") {
		t.Errorf("output is not DOT:\n%s", data)
	}
}

func TestVisualizeRejectsFormat(t *testing.T) {
	captureUI(t)
	inst := writeFile(t, t.TempDir(), "1.gr", twoCrossings)
	if err := execute(t, "visualize", inst, "-f", "gif"); err == nil {
		t.Error("visualize accepted an unknown format")
	}
}
