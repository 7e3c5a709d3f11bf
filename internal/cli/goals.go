package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/sgp/internal/model"
	"github.com/theirongolddev/sgp/internal/pipeline"
)

// EmptyGoalsMessage is shown when there are no goals to list.
const EmptyGoalsMessage = "No goals yet. Create one with `sgp add` to get started!"

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder).
	Padding(0, 1)

// RenderGoalCard renders one goal the way the dashboard lists it.
func RenderGoalCard(g model.Goal, now time.Time, width int) string {
	p := pipeline.EvaluateGoal(g)
	inner := max(width-4, 20)

	name := lipgloss.NewStyle().Bold(true).Foreground(ColorText).Render(Truncate(g.Name, inner-12))
	pct := lipgloss.NewStyle().Foreground(BandColor(p.Band)).
		Render(fmt.Sprintf("%d%% complete", p.PercentDisplay))
	gap := max(inner-lipgloss.Width(name)-lipgloss.Width(pct), 1)

	lines := []string{
		name + strings.Repeat(" ", gap) + pct,
		RenderProgressBar(p.PercentForBar, p.Band, inner),
		valueStyle.Render("Saved: " + FormatMoney(g.Saved())),
		mutedStyle.Render(fmt.Sprintf("%s · Target: %s", g.Category.Label(), FormatMoney(g.Target()))),
		mutedStyle.Render(DeadlineLine(g, now)),
	}
	return cardStyle.Width(inner + 2).Render(strings.Join(lines, "\n"))
}

// DeadlineLine renders "Deadline: D", with days left when the date parses.
func DeadlineLine(g model.Goal, now time.Time) string {
	d := strings.TrimSpace(g.Deadline)
	if d == "" {
		return "Deadline: -"
	}
	if days, ok := pipeline.DaysLeft(g, now); ok {
		return fmt.Sprintf("Deadline: %s (%s)", d, FormatDaysLeft(days))
	}
	return "Deadline: " + d
}

// GoalRow returns the table cells for one goal in list views.
func GoalRow(g model.Goal) []string {
	p := pipeline.EvaluateGoal(g)
	return []string{
		g.ID.String(),
		Truncate(g.Name, 28),
		g.Category.Label(),
		FormatMoney(g.Saved()),
		FormatMoney(g.Target()),
		FormatPercent(p.PercentDisplay),
		p.Band.String(),
		g.Deadline,
	}
}

// GoalHeaders are the column headers matching GoalRow.
var GoalHeaders = []string{"ID", "Name", "Category", "Saved", "Target", "Progress", "Status", "Deadline"}
