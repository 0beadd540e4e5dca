// Package theme provides the Lip Gloss color palette and reusable styles
// for the pulse TUI. It is a leaf package with no internal imports to
// avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Stage status colors.
var (
	ColorInProgress = lipgloss.Color("#2563eb")
	ColorSucceeded  = lipgloss.Color("#16a34a")
	ColorFailed     = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorAccent  = lipgloss.Color("#a855f7")
)

// StatusColor returns the color for a stage status string.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "in_progress":
		return ColorInProgress
	case "succeeded":
		return ColorSucceeded
	case "failed":
		return ColorFailed
	default:
		return ColorDimmed
	}
}

// StatusGlyph returns a glyph for a closed stage status. The in-progress
// glyph comes from the spinner instead.
func StatusGlyph(status string) string {
	switch status {
	case "succeeded":
		return "✓"
	case "failed":
		return "✗"
	default:
		return "·"
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)

	StyleSummary = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorAccent)
)
