package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/sgp/internal/tui/theme"
)

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := len(blocks) / 2
		if span > 0 {
			idx = int((v - lo) / span * float64(len(blocks)-1))
		}
		idx = min(len(blocks)-1, max(0, idx))
		buf.WriteRune(blocks[idx])
	}

	return lipgloss.NewStyle().Foreground(color).Render(buf.String())
}

// BarItem is one row of a horizontal bar chart.
type BarItem struct {
	Label string
	Value float64
	Color lipgloss.Color // zero uses the theme accent
}

// HBarChart renders labeled horizontal bars scaled to the largest value.
func HBarChart(items []BarItem, width int) string {
	if len(items) == 0 {
		return ""
	}
	t := theme.Active

	labelW := 0
	peak := 0.0
	for _, it := range items {
		labelW = max(labelW, lipgloss.Width(it.Label))
		peak = max(peak, it.Value)
	}
	if peak == 0 {
		peak = 1
	}
	valueW := len(fmt.Sprintf("%.0f", peak))
	barW := max(4, width-labelW-valueW-2)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	trackStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	lines := make([]string, 0, len(items))
	for _, it := range items {
		color := it.Color
		if color == "" {
			color = t.Accent
		}
		filled := int(it.Value / peak * float64(barW))
		if it.Value > 0 && filled == 0 {
			filled = 1
		}
		filled = min(barW, filled)

		lines = append(lines,
			labelStyle.Render(fmt.Sprintf("%-*s", labelW, it.Label))+" "+
				lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))+
				trackStyle.Render(strings.Repeat("░", barW-filled))+" "+
				valueStyle.Render(fmt.Sprintf("%*.0f", valueW, it.Value)))
	}
	return strings.Join(lines, "\n")
}

// StackedBar renders one bar split proportionally between segments.
func StackedBar(segments []BarItem, width int) string {
	total := 0.0
	for _, s := range segments {
		total += max(0, s.Value)
	}
	if total == 0 || width <= 0 {
		return lipgloss.NewStyle().Foreground(theme.Active.TextDim).Render(strings.Repeat("░", max(0, width)))
	}

	widths := make([]int, len(segments))
	used := 0
	for i, s := range segments {
		widths[i] = int(max(0, s.Value) / total * float64(width))
		used += widths[i]
	}
	// Hand the rounding remainder to the largest segment.
	if rem := width - used; rem > 0 {
		largest := 0
		for i, s := range segments {
			if s.Value > segments[largest].Value {
				largest = i
			}
		}
		widths[largest] += rem
	}

	var b strings.Builder
	for i, s := range segments {
		if widths[i] == 0 {
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(s.Color).Render(strings.Repeat("█", widths[i])))
	}
	return b.String()
}
