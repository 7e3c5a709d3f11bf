package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/sgp/internal/cli"
	"github.com/theirongolddev/sgp/internal/model"
	"github.com/theirongolddev/sgp/internal/pipeline"
	"github.com/theirongolddev/sgp/internal/store"
	"github.com/theirongolddev/sgp/internal/tui/components"
	"github.com/theirongolddev/sgp/internal/tui/theme"
)

// previousSnapshot returns the snapshot before the newest one, used for deltas.
func (a App) previousSnapshot() (model.Snapshot, bool) {
	if len(a.trend) < 2 {
		return model.Snapshot{}, false
	}
	return a.trend[1], true
}

func (a App) renderDashboardTab(cw int) string {
	t := theme.Active
	s := a.summary
	var b strings.Builder

	// Row 1: headline metrics
	metrics := []components.Metric{
		{Label: "Total Goals", Value: cli.FormatNumber(int64(s.TotalGoals))},
		{Label: "Completed", Value: fmt.Sprintf("%d / %d", s.CompletedGoals, s.TotalGoals)},
		{Label: "Total Saved", Value: cli.FormatMoney(s.TotalSaved)},
		{Label: "Overall", Value: cli.FormatPercent(s.OverallPercent)},
	}
	if prev, ok := a.previousSnapshot(); ok {
		d := store.Diff(prev.Summary, s)
		metrics[0].Delta = cli.FormatIntDelta(d.Goals)
		metrics[1].Delta = cli.FormatIntDelta(d.Completed)
		metrics[2].Delta = cli.FormatMoneyDelta(d.Saved)
		metrics[3].Delta = cli.FormatIntDelta(d.OverallPercent) + "pp"
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	// Row 2: overall progress toward the combined target
	inner := components.CardInnerWidth(cw)
	overall := pipeline.Evaluate(s.TotalSaved, s.TotalTarget)
	progressBody := components.RatioBar("Saved/Target", overall.PercentForBar/100, 12, inner-18, t.BandColor(overall.Band)) +
		"\n" + lipgloss.NewStyle().Foreground(t.TextMuted).Render(
		fmt.Sprintf("%s of %s", cli.FormatMoney(s.TotalSaved), cli.FormatMoney(s.TotalTarget)))
	b.WriteString(components.ContentCard("Progress", progressBody, cw))
	b.WriteString("\n")

	// Row 3: goal cards
	if len(a.list) == 0 {
		b.WriteString(components.ContentCard("Goals",
			lipgloss.NewStyle().Foreground(t.TextMuted).Render(cli.EmptyGoalsMessage), cw))
		return b.String()
	}

	cols := 3
	if a.isCompactLayout() {
		cols = 2
	}
	widths := components.LayoutRow(cw, cols)
	for start := 0; start < len(a.list); start += cols {
		end := min(start+cols, len(a.list))
		cards := make([]string, 0, cols)
		for i := start; i < end; i++ {
			w := widths[i-start]
			g := a.list[i]
			cards = append(cards, components.ContentCard(cli.Truncate(g.Name, w-6), a.goalCardBody(g, w), w))
		}
		b.WriteString(components.CardRow(cards))
		b.WriteString("\n")
	}
	return b.String()
}

// goalCardBody renders the original card lines: percent, bar, saved,
// category with target, and deadline.
func (a App) goalCardBody(g model.Goal, w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)
	p := pipeline.EvaluateGoal(g)

	muted := lipgloss.NewStyle().Foreground(t.TextMuted)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary)

	return strings.Join([]string{
		lipgloss.NewStyle().Foreground(t.BandColor(p.Band)).Render(fmt.Sprintf("%d%% complete", p.PercentDisplay)),
		components.GoalBar(p, inner),
		value.Render("Saved: " + cli.FormatMoney(g.Saved())),
		muted.Render(cli.Truncate(fmt.Sprintf("%s · Target: %s", g.Category.Label(), cli.FormatMoney(g.Target())), inner)),
		muted.Render(cli.Truncate(cli.DeadlineLine(g, a.now()), inner)),
	}, "\n")
}
