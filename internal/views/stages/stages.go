// Package stages renders the pipeline stage list: one line per ledger
// record with a status glyph, label, message, and elapsed time, plus an
// overall progress bar.
package stages

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/runner-pulse/pulse/internal/provision"
	"github.com/runner-pulse/pulse/internal/theme"
)

// totalPhases is the number of stages a fully successful run records,
// used to scale the progress bar.
const totalPhases = 10

type Model struct {
	Width    int
	Spinner  spinner.Model
	Progress progress.Model
}

func New() Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorInProgress)

	pr := progress.New(progress.WithDefaultGradient())
	pr.ShowPercentage = false

	return Model{Spinner: sp, Progress: pr}
}

// View renders the stage list for one session snapshot.
func (m Model) View(records []provision.Record, summary string) string {
	var lines []string
	lines = append(lines, theme.StyleHeader.Render("PROVISIONING"))

	if len(records) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  Waiting for pipeline events..."))
	}

	for _, rec := range records {
		lines = append(lines, m.renderRecord(rec))
	}

	closed := 0
	for _, rec := range records {
		if rec.Status == provision.StatusSucceeded {
			closed++
		}
	}
	pct := float64(closed) / float64(totalPhases)
	if pct > 1 {
		pct = 1
	}
	lines = append(lines, "", "  "+m.Progress.ViewAs(pct))

	if summary != "" {
		lines = append(lines, "", "  "+theme.StyleSummary.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderRecord(rec provision.Record) string {
	var glyph string
	if rec.Status == provision.StatusInProgress {
		glyph = m.Spinner.View()
	} else {
		glyph = lipgloss.NewStyle().
			Foreground(theme.StatusColor(rec.Status.String())).
			Render(theme.StatusGlyph(rec.Status.String()))
	}

	label := lipgloss.NewStyle().
		Foreground(theme.StatusColor(rec.Status.String())).
		Render(padRight(rec.Label, 26))

	elapsed := theme.StyleDimmed.Render(fmt.Sprintf("%6s", rec.Elapsed))

	line := fmt.Sprintf("  %s %s %s", glyph, label, elapsed)
	if rec.Message != "" {
		line += "  " + theme.StyleDimmed.Render(rec.Message)
	}
	return line
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
