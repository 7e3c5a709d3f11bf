package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/sgp/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name (-1 if not in name)
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Dashboard", Key: 'd', KeyPos: 0},
	{Name: "Goals", Key: 'g', KeyPos: 0},
	{Name: "Analytics", Key: 'a', KeyPos: 0},
	{Name: "Settings", Key: 'x', KeyPos: -1},
}

const tabGap = 2

// TabVisualWidth is the rendered width of tab i when it is not active.
// Inactive tabs wrap the shortcut in brackets; active tabs render the bare name.
func TabVisualWidth(i int, active bool) int {
	tab := Tabs[i]
	if active {
		return len(tab.Name)
	}
	if tab.KeyPos >= 0 {
		return len(tab.Name) + 2
	}
	return len(tab.Name) + 3
}

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true).
		Underline(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	dimKeyStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	parts := make([]string, 0, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts = append(parts, activeStyle.Render(tab.Name))
			continue
		}
		if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
			parts = append(parts, inactiveStyle.Render(tab.Name[:tab.KeyPos])+
				dimKeyStyle.Render("[")+keyStyle.Render(string(tab.Name[tab.KeyPos]))+dimKeyStyle.Render("]")+
				inactiveStyle.Render(tab.Name[tab.KeyPos+1:]))
			continue
		}
		parts = append(parts, inactiveStyle.Render(tab.Name)+
			dimKeyStyle.Render("[")+keyStyle.Render(string(tab.Key))+dimKeyStyle.Render("]"))
	}

	row := " " + strings.Join(parts, strings.Repeat(" ", tabGap))
	if width > 0 && lipgloss.Width(row) > width {
		row = lipgloss.NewStyle().MaxWidth(width).Render(row)
	}
	return row
}

// TabAtX maps a click column on the tab bar to a tab index, or -1.
func TabAtX(x, activeIdx int) int {
	pos := 1
	for i := range Tabs {
		w := TabVisualWidth(i, i == activeIdx)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + tabGap
	}
	return -1
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
