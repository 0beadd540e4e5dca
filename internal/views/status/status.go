// Package status renders the top status bar of the pulse TUI.
package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/runner-pulse/pulse/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected bool
	URL       string
	Pool      string
	Width     int

	Active int
	Done   int
	Failed int
}

func New(url string) Model {
	return Model{URL: url}
}

// SetCounts updates the stage counts.
func (m *Model) SetCounts(active, done, failed int) {
	m.Active = active
	m.Done = done
	m.Failed = failed
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Disconnected")
	}

	counts := fmt.Sprintf("%d active  %d done  %d failed", m.Active, m.Done, m.Failed)

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + theme.StyleDimmed.Render(m.URL) + sep + counts
	if m.Pool != "" {
		content += sep + "pool: " + m.Pool
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
