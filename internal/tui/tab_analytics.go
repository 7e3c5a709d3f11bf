package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/sgp/internal/cli"
	"github.com/theirongolddev/sgp/internal/tui/components"
	"github.com/theirongolddev/sgp/internal/tui/theme"
)

func (a App) renderAnalyticsTab(cw int) string {
	t := theme.Active
	s := a.summary
	var b strings.Builder

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)
	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-20s", label)) + valueStyle.Render(value)
	}

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Total Goals", Value: cli.FormatNumber(int64(s.TotalGoals))},
		{Label: "Completed", Value: cli.FormatNumber(int64(s.CompletedGoals))},
		{Label: "Active", Value: cli.FormatNumber(int64(s.ActiveGoals))},
		{Label: "Overall", Value: cli.FormatPercent(s.OverallPercent)},
	}, cw))
	b.WriteString("\n")

	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		halves = []int{cw, cw}
	}

	// Money and progress facts
	facts := strings.Join([]string{
		row("Total saved", cli.FormatMoney(s.TotalSaved)),
		row("Total target", cli.FormatMoney(s.TotalTarget)),
		row("Highest target", cli.FormatMoney(s.HighestTarget)),
		row("Lowest saved", cli.FormatMoney(s.LowestSaved)),
		row("Average progress", cli.FormatPercent(s.AverageProgressPercent)),
		row("Most common", s.MostCommonCategory),
		row("Completion rate", cli.FormatRate(s.CompletionRate())),
	}, "\n")
	factsCard := components.ContentCard("Statistics", facts, halves[0])

	// Status bands
	inner := components.CardInnerWidth(halves[1])
	bands := s.Bands
	bandBody := components.StackedBar([]components.BarItem{
		{Value: float64(bands.Danger), Color: t.Red},
		{Value: float64(bands.Warning), Color: t.Yellow},
		{Value: float64(bands.Complete), Color: t.Green},
	}, inner) + "\n\n" + components.HBarChart([]components.BarItem{
		{Label: "Behind", Value: float64(bands.Danger), Color: t.Red},
		{Label: "Close", Value: float64(bands.Warning), Color: t.Yellow},
		{Label: "Complete", Value: float64(bands.Complete), Color: t.Green},
	}, inner)
	bandCard := components.ContentCard("Status", bandBody, halves[1])

	if a.isCompactLayout() {
		b.WriteString(factsCard + "\n" + bandCard)
	} else {
		b.WriteString(components.CardRow([]string{factsCard, bandCard}))
	}
	b.WriteString("\n")

	// Category distribution in first-seen order
	if len(s.Categories) > 0 {
		items := make([]components.BarItem, len(s.Categories))
		for i, c := range s.Categories {
			items[i] = components.BarItem{Label: c.Category.Label(), Value: float64(c.Count)}
		}
		b.WriteString(components.ContentCard("Goals by Category",
			components.HBarChart(items, components.CardInnerWidth(cw)), cw))
		b.WriteString("\n")
	}

	// History trend, oldest to newest
	if len(a.trend) > 1 {
		saved := make([]float64, len(a.trend))
		pct := make([]float64, len(a.trend))
		for i, snap := range a.trend {
			j := len(a.trend) - 1 - i
			saved[j] = snap.Summary.TotalSaved
			pct[j] = float64(snap.Summary.OverallPercent)
		}
		trendBody := row("Total saved", "") + components.Sparkline(saved, t.Green) + "\n" +
			row("Overall progress", "") + components.Sparkline(pct, t.Accent) + "\n" +
			labelStyle.Render(fmt.Sprintf("%d snapshots since %s", len(a.trend),
				cli.FormatTimestamp(a.trend[len(a.trend)-1].TakenAt)))
		b.WriteString(components.ContentCard("History", trendBody, cw))
	}

	return b.String()
}
