package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/sgp/internal/cli"
	"github.com/theirongolddev/sgp/internal/model"
	"github.com/theirongolddev/sgp/internal/pipeline"
	"github.com/theirongolddev/sgp/internal/tui/components"
	"github.com/theirongolddev/sgp/internal/tui/theme"
)

// goalsState holds the goals tab state.
type goalsState struct {
	cursor    int
	offset    int // scroll offset for the list
	sortIdx   int // index into pipeline.SortKeys
	search    textinput.Model
	searching bool
	query     string
}

func newGoalsState() goalsState {
	return goalsState{search: searchInput()}
}

func (s *goalsState) move(delta, n int) {
	s.cursor += delta
	s.clamp(n)
}

func (s *goalsState) clamp(n int) {
	s.cursor = min(max(s.cursor, 0), max(n-1, 0))
	s.offset = min(s.offset, s.cursor)
}

// visibleGoals is the filtered list after search and sort.
func (a App) visibleGoals() []model.Goal {
	goals := a.list
	if a.goalsTab.query != "" {
		goals = pipeline.FilterByName(goals, a.goalsTab.query)
	}
	sorted, err := pipeline.SortGoals(goals, pipeline.SortKeys[a.goalsTab.sortIdx])
	if err != nil {
		return goals
	}
	return sorted
}

func (a App) selectedGoal() (model.Goal, bool) {
	goals := a.visibleGoals()
	if a.goalsTab.cursor < 0 || a.goalsTab.cursor >= len(goals) {
		return model.Goal{}, false
	}
	return goals[a.goalsTab.cursor], true
}

func (a App) updateGoalsKey(key string) (tea.Model, tea.Cmd) {
	n := len(a.visibleGoals())

	switch key {
	case "j", "down":
		a.goalsTab.move(1, n)
	case "k", "up":
		a.goalsTab.move(-1, n)
	case "home":
		a.goalsTab.cursor = 0
		a.goalsTab.offset = 0
	case "G", "end":
		a.goalsTab.move(n, n)
	case "s":
		a.goalsTab.sortIdx = (a.goalsTab.sortIdx + 1) % len(pipeline.SortKeys)
		a.goalsTab.cursor = 0
		a.goalsTab.offset = 0
	case "/":
		a.goalsTab.searching = true
		a.goalsTab.search.SetValue(a.goalsTab.query)
		a.goalsTab.search.Focus()
		return a, textinput.Blink
	case "esc":
		a.goalsTab.query = ""
		a.goalsTab.clamp(len(a.visibleGoals()))
	case "e", "enter":
		if g, ok := a.selectedGoal(); ok && !a.busy {
			cmd := a.openGoalForm(formEdit, g)
			return a, cmd
		}
	case "D", "delete":
		if g, ok := a.selectedGoal(); ok && !a.busy {
			cmd := a.openDeleteConfirm(g)
			return a, cmd
		}
	}
	return a, nil
}

// updateGoalsSearch handles key events while in search mode.
func (a App) updateGoalsSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.goalsTab.query = strings.TrimSpace(a.goalsTab.search.Value())
		a.goalsTab.searching = false
		a.goalsTab.search.Blur()
		a.goalsTab.cursor = 0
		a.goalsTab.offset = 0
		return a, nil
	case "esc":
		a.goalsTab.searching = false
		a.goalsTab.search.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.goalsTab.search, cmd = a.goalsTab.search.Update(msg)
	return a, cmd
}

func (a App) renderGoalsTab(cw, h int) string {
	t := theme.Active
	goals := a.visibleGoals()
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)

	var top string
	if a.goalsTab.searching {
		top = a.goalsTab.search.View() + "\n"
	}

	if len(goals) == 0 {
		msg := cli.EmptyGoalsMessage
		if len(a.list) > 0 {
			msg = "No goals match the current search."
		}
		return top + components.ContentCard("Goals", muted.Render(msg), cw)
	}

	if a.isCompactLayout() {
		return top + a.renderGoalList(goals, cw, h-lipgloss.Height(top))
	}

	leftW := max(cw*2/5, 36)
	rightW := cw - leftW
	list := a.renderGoalList(goals, leftW, h-lipgloss.Height(top))

	sel := goals[min(a.goalsTab.cursor, len(goals)-1)]
	detail := components.FocusedCard(cli.Truncate(sel.Name, rightW-6), a.renderGoalDetail(sel, rightW), rightW)

	return top + components.CardRow([]string{list, detail})
}

func (a App) renderGoalList(goals []model.Goal, w, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	selectedStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	visible := max(h-5, 3) // border (2) + title (1) + footer hint (2)
	offset := a.goalsTab.offset
	cursor := a.goalsTab.cursor
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+visible {
		offset = cursor - visible + 1
	}
	end := min(offset+visible, len(goals))

	var body strings.Builder
	for i := offset; i < end; i++ {
		g := goals[i]
		p := pipeline.EvaluateGoal(g)
		pct := lipgloss.NewStyle().Foreground(t.BandColor(p.Band)).Render(fmt.Sprintf("%4d%%", p.PercentDisplay))
		marker := "  "
		style := rowStyle
		if i == cursor {
			marker = "▸ "
			style = selectedStyle
		}
		name := cli.Truncate(g.Name, inner-lipgloss.Width(pct)-3)
		gap := max(inner-2-lipgloss.Width(name)-lipgloss.Width(pct), 1)
		body.WriteString(style.Render(marker+name) + strings.Repeat(" ", gap) + pct)
		body.WriteString("\n")
	}
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render("[n]ew [e]dit [D]elete [/]search [s]ort"))

	title := fmt.Sprintf("Goals (%d) · sort: %s", len(goals), pipeline.SortKeys[a.goalsTab.sortIdx])
	return components.ContentCard(title, body.String(), w)
}

func (a App) renderGoalDetail(g model.Goal, w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)
	p := pipeline.EvaluateGoal(g)

	label := lipgloss.NewStyle().Foreground(t.TextMuted)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary)
	band := lipgloss.NewStyle().Foreground(t.BandColor(p.Band)).Bold(true)

	remaining := max(g.Target()-g.Saved(), 0)

	lines := []string{
		band.Render(fmt.Sprintf("%d%% complete", p.PercentDisplay)),
		components.GoalBar(p, inner),
		"",
		label.Render("Saved:     ") + value.Render(cli.FormatMoney(g.Saved())),
		label.Render("Target:    ") + value.Render(cli.FormatMoney(g.Target())),
		label.Render("Remaining: ") + value.Render(cli.FormatMoney(remaining)),
		label.Render("Category:  ") + value.Render(g.Category.Label()),
		label.Render(cli.DeadlineLine(g, a.now())),
	}
	if g.CreatedAt != "" {
		lines = append(lines, label.Render("Created:   ")+value.Render(g.CreatedAt))
	}
	lines = append(lines, label.Render("Status:    ")+band.Render(p.Band.String()))
	return strings.Join(lines, "\n")
}
