package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/sgp/internal/model"
	"github.com/theirongolddev/sgp/internal/tui/theme"
)

// GoalBar renders a goal's progress bar colored by band. The bar is filled
// from the clamped percent while the label shows the unclamped one.
func GoalBar(p model.Progress, width int) string {
	t := theme.Active
	color := t.BandColor(p.Band)

	barW := max(4, width-5)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	return bar.ViewAs(p.PercentForBar/100) + " " + pctStyle.Render(fmt.Sprintf("%3d%%", p.PercentDisplay))
}

// RatioBar renders a labeled bar for a value in [0,1], used for overall
// progress and completion rate.
func RatioBar(label string, ratio float64, labelW, barWidth int, color lipgloss.Color) string {
	t := theme.Active
	ratio = min(1, max(0, ratio))

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(max(4, barWidth)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) + " " +
		bar.ViewAs(ratio) + " " +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", ratio*100))
}
