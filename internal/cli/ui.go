package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/ocrbench/pkg/batch"
	"github.com/matzehuels/ocrbench/pkg/runner"
)

// uiOut receives every status line. Rows may be streamed to stdout, so the
// human-readable output stays on stderr.
var uiOut io.Writer = os.Stderr

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failures.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Fprintln(uiOut, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printBound prints a lower bound and whether it came from the cache.
func printBound(lb int64, cached bool) {
	status, style := iconFresh, styleComputed
	if cached {
		status, style = iconCached, styleCached
	}
	fmt.Fprintln(uiOut, StyleNumber.Render(strconv.FormatInt(lb, 10))+StyleDim.Render(" · ")+style.Render(status))
}

// =============================================================================
// Batch Summary
// =============================================================================

// statusStyle colors a status by how bad it is.
func statusStyle(s runner.Status) lipgloss.Style {
	switch s {
	case runner.Ok:
		return StyleSuccess
	case runner.NonZeroExit, runner.Timeout:
		return StyleWarning
	}
	return StyleError
}

// summaryTable renders per-status and per-verdict counts of a batch.
func summaryTable(sum batch.Summary) string {
	var rows [][]string
	var styles []lipgloss.Style
	for _, st := range runner.Statuses {
		if n := sum.Statuses[st]; n > 0 {
			rows = append(rows, []string{"status", st.String(), strconv.Itoa(n)})
			styles = append(styles, statusStyle(st))
		}
	}
	for _, v := range batch.Verdicts {
		if n := sum.Verdicts[v]; n > 0 {
			style := StyleValue
			if v == batch.InvalidSolution || v == batch.InstanceError {
				style = StyleError
			}
			rows = append(rows, []string{"verdict", string(v), strconv.Itoa(n)})
			styles = append(styles, style)
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Outcome", "Rows").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == -1:
				return styleHeader.Padding(0, 1)
			case col == 0:
				return base.Foreground(colorDim)
			case col == 1 && row >= 0 && row < len(styles):
				return styles[row].Padding(0, 1)
			}
			return base
		})
	return t.Render()
}

// printSummary prints the end-of-batch report.
func printSummary(sum batch.Summary) {
	fmt.Fprintln(uiOut, StyleTitle.Render("Batch "+sum.BatchID))
	fmt.Fprintln(uiOut, summaryTable(sum))
	printKeyValue("Rows", fmt.Sprintf("%d of %d", sum.Rows, sum.Total))
	if n := sum.Verdicts[batch.Scored]; n > 0 {
		printKeyValue("Crossings", fmt.Sprintf("%d over %d scored rows", sum.Crossings, n))
	}
	printKeyValue("Duration", sum.Duration.Round(time.Millisecond).String())
}
