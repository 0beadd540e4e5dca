// Package help renders the markdown help overlay.
package help

import (
	"github.com/charmbracelet/glamour"

	"github.com/runner-pulse/pulse/internal/theme"
)

const helpMarkdown = `# pulse

Watches a remote runner-provisioning pipeline and reports the outcome.

## Keys

| Key | Action |
|-----|--------|
| ?   | toggle this help |
| x   | restart the session view |
| r   | reconnect after a disconnect |
| q   | quit |

## Stages

Each pipeline phase appears as it starts. A phase without an explicit
result is closed automatically when the next one begins. The session ends
when the runner's connection details arrive, or on the first failure.
`

// Render produces the help text, word-wrapped to width. Falls back to the
// raw markdown if the renderer cannot be built.
func Render(width int) string {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return theme.StyleBorder.Render(out)
}
