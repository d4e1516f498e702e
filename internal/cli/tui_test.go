package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func update(t *testing.T, m ProgressModel, msg tea.Msg) (ProgressModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(ProgressModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return pm, cmd
}

func TestProgressModelCounts(t *testing.T) {
	m := NewProgressModel(3, nil)
	start := m.Start

	m, _ = update(t, m, instanceStartMsg{id: "1", at: start})
	m, _ = update(t, m, instanceStartMsg{id: "2", at: start.Add(time.Second)})
	if len(m.Running) != 2 {
		t.Fatalf("running = %d, want 2", len(m.Running))
	}

	m, cmd := update(t, m, rowMsg{id: "1", status: "Ok", verdict: "Scored"})
	if cmd != nil {
		t.Error("a scored row should not print a line")
	}
	m, cmd = update(t, m, rowMsg{id: "2", status: "Timeout", elapsed: 2 * time.Second})
	if cmd == nil {
		t.Error("a failed row should print a line")
	}
	if m.Done != 2 || len(m.Running) != 0 {
		t.Errorf("done %d running %d, want 2 and 0", m.Done, len(m.Running))
	}

	m, _ = update(t, m, tickMsg(start.Add(5*time.Second)))
	view := m.View()
	for _, want := range []string{"2/3", "Ok 1", "Timeout 1", "5s"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q:\n%s", want, view)
		}
	}
}

func TestProgressModelShowsRunning(t *testing.T) {
	m := NewProgressModel(10, nil)
	for i, id := range []string{"a", "b", "c", "d", "e", "f"} {
		m, _ = update(t, m, instanceStartMsg{id: id, at: m.Start.Add(time.Duration(i) * time.Second)})
	}
	m, _ = update(t, m, tickMsg(m.Start.Add(10*time.Second)))
	view := m.View()
	if !strings.Contains(view, "running: a 10s") {
		t.Errorf("longest-running instance should come first:\n%s", view)
	}
	if !strings.Contains(view, "+2") {
		t.Errorf("view should count the hidden instances:\n%s", view)
	}
}

func TestProgressModelQuit(t *testing.T) {
	cancelled := false
	m := NewProgressModel(1, func() { cancelled = true })
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if !cancelled {
		t.Error("quitting should cancel the batch")
	}
	if cmd == nil || m.View() != "" {
		t.Error("quitting should end the program and clear the view")
	}

	m = NewProgressModel(1, nil)
	m, cmd = update(t, m, batchDoneMsg{})
	if cmd == nil || !m.quitting {
		t.Error("a finished batch should end the program")
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct{ done, total, full int }{
		{0, 10, 0},
		{5, 10, 5},
		{10, 10, 10},
		{12, 10, 10},
		{0, 0, 0},
	}
	for _, tt := range tests {
		bar := progressBar(tt.done, tt.total, 10)
		if got := strings.Count(bar, "█"); got != tt.full {
			t.Errorf("progressBar(%d, %d) has %d full cells, want %d", tt.done, tt.total, got, tt.full)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != 10 {
			t.Errorf("progressBar(%d, %d) is %d cells wide", tt.done, tt.total, got)
		}
	}
}
