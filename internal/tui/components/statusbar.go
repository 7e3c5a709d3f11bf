package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/sgp/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar. notice replaces the key
// hints when set; dataAge is right-aligned.
func RenderStatusBar(width int, notice, dataAge string, failed bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width)

	left := " [?]help  [r]efresh  [q]uit"
	if notice != "" {
		color := t.Green
		if failed {
			color = t.Red
		}
		left = " " + lipgloss.NewStyle().Foreground(color).Render(notice)
	}
	right := ""
	if dataAge != "" {
		right = fmt.Sprintf("Data: %s ", dataAge)
	}

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return style.Render(left + strings.Repeat(" ", padding) + right)
}
