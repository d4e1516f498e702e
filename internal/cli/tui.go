package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/ocrbench/pkg/observability"
	"github.com/matzehuels/ocrbench/pkg/runner"
)

const (
	progressWidth  = 32
	progressTick   = 200 * time.Millisecond
	maxRunningShow = 4
)

var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Messages
// =============================================================================

type instanceStartMsg struct {
	id string
	at time.Time
}

type rowMsg struct {
	id      string
	status  string
	verdict string
	elapsed time.Duration
}

type batchDoneMsg struct{}

type tickMsg time.Time

// =============================================================================
// ProgressModel - live view of a running batch
// =============================================================================

// ProgressModel is the bubbletea model behind run --progress.
type ProgressModel struct {
	Total    int
	Done     int
	Statuses map[string]int
	Running  map[string]time.Time
	Start    time.Time
	Now      time.Time

	// cancel stops the batch when the user quits.
	cancel   context.CancelFunc
	quitting bool
}

// NewProgressModel creates a model for a batch of total instances.
func NewProgressModel(total int, cancel context.CancelFunc) ProgressModel {
	now := time.Now()
	return ProgressModel{
		Total:    total,
		Statuses: make(map[string]int),
		Running:  make(map[string]time.Time),
		Start:    now,
		Now:      now,
		cancel:   cancel,
	}
}

func tick() tea.Cmd {
	return tea.Tick(progressTick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m ProgressModel) Init() tea.Cmd {
	return tick()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		m.Now = time.Time(msg)
		return m, tick()
	case instanceStartMsg:
		m.Running[msg.id] = msg.at
	case rowMsg:
		delete(m.Running, msg.id)
		m.Done++
		m.Statuses[msg.status]++
		if line := rowLine(msg); line != "" {
			return m, tea.Println(line)
		}
	case batchDoneMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// rowLine prints rows that need attention above the live view.
func rowLine(msg rowMsg) string {
	switch {
	case msg.status != runner.Ok.String():
		return styleIconError.Render(iconError) + " " + msg.id + " " + StyleWarning.Render(msg.status) +
			StyleDim.Render(fmt.Sprintf(" (%s)", msg.elapsed.Round(time.Millisecond)))
	case msg.verdict == "InvalidSolution" || msg.verdict == "InstanceError":
		return styleIconWarning.Render(iconWarning) + " " + msg.id + " " + StyleWarning.Render(msg.verdict)
	}
	return ""
}

func (m ProgressModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Evaluating"))
	fmt.Fprintf(&b, "  %s/%d  %s  %s\n",
		StyleNumber.Render(fmt.Sprint(m.Done)), m.Total,
		progressBar(m.Done, m.Total, progressWidth),
		StyleDim.Render(m.Now.Sub(m.Start).Round(time.Second).String()))

	if len(m.Running) > 0 {
		ids := make([]string, 0, len(m.Running))
		for id := range m.Running {
			ids = append(ids, id)
		}
		// Longest-running first.
		slices.SortFunc(ids, func(a, c string) int { return m.Running[a].Compare(m.Running[c]) })
		var parts []string
		for _, id := range ids[:min(len(ids), maxRunningShow)] {
			parts = append(parts, fmt.Sprintf("%s %s", id, m.Now.Sub(m.Running[id]).Round(100*time.Millisecond)))
		}
		if extra := len(ids) - maxRunningShow; extra > 0 {
			parts = append(parts, fmt.Sprintf("+%d", extra))
		}
		b.WriteString(StyleDim.Render("running: " + strings.Join(parts, " · ")))
		b.WriteString("\n")
	}

	var counts []string
	for _, st := range runner.Statuses {
		if n := m.Statuses[st.String()]; n > 0 {
			counts = append(counts, statusStyle(st).Render(fmt.Sprintf("%s %d", st, n)))
		}
	}
	if len(counts) > 0 {
		b.WriteString(strings.Join(counts, StyleDim.Render(" · ")))
		b.WriteString("\n")
	}
	b.WriteString(StyleDim.Render("q quit"))
	return b.String()
}

func progressBar(done, total, width int) string {
	filled := 0
	if total > 0 {
		filled = min(done*width/total, width)
	}
	return barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// =============================================================================
// Hooks
// =============================================================================

// progressHooks forwards batch events to a running program.
type progressHooks struct {
	observability.NoopBatchHooks
	program *tea.Program
}

func (h progressHooks) OnInstanceStart(_ context.Context, instance string) {
	h.program.Send(instanceStartMsg{id: instance, at: time.Now()})
}

func (h progressHooks) OnRow(_ context.Context, instance, status, verdict string, elapsed time.Duration) {
	h.program.Send(rowMsg{id: instance, status: status, verdict: verdict, elapsed: elapsed})
}
