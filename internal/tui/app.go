// Package tui provides the interactive Bubble Tea dashboard for sgp.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/theirongolddev/sgp/internal/config"
	"github.com/theirongolddev/sgp/internal/goalapi"
	"github.com/theirongolddev/sgp/internal/logger"
	"github.com/theirongolddev/sgp/internal/model"
	"github.com/theirongolddev/sgp/internal/pipeline"
	"github.com/theirongolddev/sgp/internal/store"
	"github.com/theirongolddev/sgp/internal/tui/components"
	"github.com/theirongolddev/sgp/internal/tui/theme"
)

// GoalService is the part of the goals API the dashboard uses.
type GoalService interface {
	List(ctx context.Context) ([]model.Goal, error)
	Create(ctx context.Context, d model.Draft) (model.Goal, error)
	Update(ctx context.Context, orig model.Goal, p model.Patch) (model.Goal, error)
	Delete(ctx context.Context, id model.ID) error
}

// HistoryStore persists analytics snapshots between runs.
type HistoryStore interface {
	Latest() (model.Snapshot, bool, error)
	Record(source string, s model.Summary, at time.Time) (model.Snapshot, error)
	Recent(n int) ([]model.Snapshot, error)
}

// Options configures NewApp.
type Options struct {
	Context  context.Context
	Goals    GoalService
	History  HistoryStore // nil disables snapshot recording
	Config   config.Config
	Category string // fixed category filter from the command line

	// NeedSetup shows the first-run form before loading.
	NeedSetup bool
	// Connect builds a new GoalService after the base URL changes.
	Connect func(baseURL string) (GoalService, error)
	// SaveConfig persists settings; defaults to config.Save.
	SaveConfig func(config.Config) error
	Now        func() time.Time
}

// goalsLoadedMsg carries the result of fetch number seq.
type goalsLoadedMsg struct {
	seq   int
	state goalapi.LoadState
	trend []model.Snapshot // newest first
}

// goalSavedMsg reports a create or update.
type goalSavedMsg struct {
	goal    model.Goal
	created bool
	err     error
}

// goalDeletedMsg reports a delete.
type goalDeletedMsg struct {
	id   model.ID
	name string
	err  error
}

type tickMsg time.Time

// App is the root Bubble Tea model.
type App struct {
	ctx      context.Context
	goals    GoalService
	history  HistoryStore
	connect  func(string) (GoalService, error)
	saveCfg  func(config.Config) error
	now      func() time.Time
	cfg      config.Config
	category string

	// Data
	state   goalapi.LoadState
	list    []model.Goal // category-filtered goals
	summary model.Summary
	trend   []model.Snapshot
	seq     int

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	spinner   spinner.Model

	goalsTab goalsState
	settings settingsState

	// Modal huh form: setup, create, edit or delete confirm
	form     *huh.Form
	formKind formKind
	formVals *formValues
	busy     bool // a mutation is in flight

	notice    string
	noticeErr bool
}

const (
	minTerminalWidth = 80
	compactWidth     = 110
	maxContentWidth  = 160

	minContentHeight = 5
	trendLen         = 30
	minRefreshSec    = 10
)

// Tab indices, matching components.Tabs.
const (
	tabDashboard = iota
	tabGoals
	tabAnalytics
	tabSettings
)

// NewApp creates the root model.
func NewApp(opts Options) App {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	save := opts.SaveConfig
	if save == nil {
		save = config.Save
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	interval := time.Duration(opts.Config.TUI.RefreshIntervalSec) * time.Second
	if interval < minRefreshSec*time.Second {
		interval = 30 * time.Second
	}

	a := App{
		ctx:             ctx,
		goals:           opts.Goals,
		history:         opts.History,
		connect:         opts.Connect,
		saveCfg:         save,
		now:             now,
		cfg:             opts.Config,
		category:        opts.Category,
		state:           goalapi.LoadState{Status: goalapi.StatusIdle},
		autoRefresh:     opts.Config.TUI.AutoRefresh,
		refreshInterval: interval,
		spinner:         sp,
		goalsTab:        newGoalsState(),
		summary:         pipeline.Aggregate(nil),
	}
	if opts.NeedSetup {
		a.openSetupForm()
	} else {
		a.seq = 1
		a.state = goalapi.Loading()
		a.lastRefresh = now()
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion, a.spinner.Tick, tickCmd(a.refreshInterval)}
	if a.form != nil {
		cmds = append(cmds, a.form.Init())
	} else {
		cmds = append(cmds, a.loadCmd(a.seq))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(min(msg.Width, 80)).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if a.form != nil || a.showHelp {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.form != nil {
			return a.updateForm(msg)
		}
		return a.updateKey(msg)

	case goalsLoadedMsg:
		if msg.seq != a.seq {
			// A newer fetch was started; this result is stale.
			return a, nil
		}
		a.applyLoad(msg)
		return a, nil

	case goalSavedMsg:
		a.busy = false
		if msg.err != nil {
			a.setNotice("Failed to save goal", true)
			return a, nil
		}
		// A fetch started before the change would bring back the old list.
		a.seq++
		if msg.created {
			a.state.Goals = pipeline.WithCreated(a.state.Goals, msg.goal)
			a.setNotice(fmt.Sprintf("Created %q", msg.goal.Name), false)
		} else {
			a.state.Goals = pipeline.WithUpdated(a.state.Goals, msg.goal)
			a.setNotice(fmt.Sprintf("Updated %q", msg.goal.Name), false)
		}
		a.recompute()
		return a, nil

	case goalDeletedMsg:
		a.busy = false
		if msg.err != nil {
			a.setNotice("Failed to delete goal", true)
			return a, nil
		}
		a.seq++
		a.state.Goals = pipeline.WithoutGoal(a.state.Goals, msg.id)
		a.recompute()
		a.setNotice(fmt.Sprintf("Deleted %q", msg.name), false)
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tickMsg:
		next := tickCmd(a.refreshInterval)
		if a.autoRefresh && a.form == nil && a.state.Status != goalapi.StatusLoading &&
			a.now().Sub(a.lastRefresh) >= a.refreshInterval {
			load := a.refresh()
			return a, tea.Batch(next, load)
		}
		return a, next
	}

	// Cursor blinks and other internal messages for the open form or inputs.
	if a.form != nil {
		return a.updateForm(msg)
	}
	if a.goalsTab.searching {
		var cmd tea.Cmd
		a.goalsTab.search, cmd = a.goalsTab.search.Update(msg)
		return a, cmd
	}
	if a.settings.editing {
		var cmd tea.Cmd
		a.settings.input, cmd = a.settings.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.activeTab == tabGoals && a.goalsTab.searching {
		return a.updateGoalsSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		load := a.refresh()
		return a, load
	case "R":
		a.autoRefresh = !a.autoRefresh
		if a.autoRefresh {
			a.setNotice("Auto-refresh on", false)
		} else {
			a.setNotice("Auto-refresh off", false)
		}
		return a, nil
	case "left", "h":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "l":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	case "n":
		if a.busy {
			return a, nil
		}
		cmd := a.openGoalForm(formCreate, model.Goal{})
		return a, cmd
	}

	if len(key) == 1 {
		if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
			a.activeTab = idx
			return a, nil
		}
	}

	switch a.activeTab {
	case tabGoals:
		return a.updateGoalsKey(key)
	case tabSettings:
		return a.updateSettingsKey(key)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabGoals {
			a.goalsTab.move(-1, len(a.visibleGoals()))
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == tabGoals {
			a.goalsTab.move(1, len(a.visibleGoals()))
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

// refresh starts a new fetch, superseding any in flight.
func (a *App) refresh() tea.Cmd {
	a.seq++
	a.lastRefresh = a.now()
	if !a.state.Ready() {
		a.state = goalapi.Loading()
	}
	return a.loadCmd(a.seq)
}

func (a *App) applyLoad(msg goalsLoadedMsg) {
	if msg.state.Status == goalapi.StatusFailed {
		logger.Get().Warn("goal fetch failed", zap.Error(msg.state.Err))
		// Keep showing the last good list; the status bar carries the failure.
		if a.state.Ready() {
			a.setNotice(goalapi.FailedMessage, true)
			return
		}
	}
	a.state = msg.state
	if msg.trend != nil {
		a.trend = msg.trend
	}
	if msg.state.Ready() && a.noticeErr {
		a.notice = ""
		a.noticeErr = false
	}
	a.recompute()
}

// recompute refreshes the derived list and summary after the goal set changes.
func (a *App) recompute() {
	a.list = a.state.Goals
	if a.category != "" {
		a.list = pipeline.FilterByCategory(a.list, a.category)
	}
	a.summary = pipeline.Aggregate(a.list)
	a.goalsTab.clamp(len(a.visibleGoals()))
}

func (a *App) setNotice(msg string, failed bool) {
	a.notice = msg
	a.noticeErr = failed
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.form != nil {
		return a.viewForm()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	if !a.state.Ready() && a.state.Status != goalapi.StatusFailed {
		return a.viewLoading()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  sgp needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ sgp"))
	b.WriteString(subtitleStyle.Render(" · Savings Goals"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" " + a.state.Message()))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

func (a App) viewForm() string {
	t := theme.Active
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)

	body := titleStyle.Render("◈ "+a.formKind.title()) + "\n\n" + a.form.View()
	return lipgloss.NewStyle().Padding(1, 2).Render(body)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	section := func(b *strings.Builder, name string, binds []struct{ key, desc string }) {
		b.WriteString(sectionStyle.Render(name))
		b.WriteString("\n")
		for _, bind := range binds {
			fmt.Fprintf(b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	section(&b, "Navigation", []struct{ key, desc string }{
		{"d g a x", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Move selection"},
		{"s", "Cycle sort (Goals)"},
	})
	b.WriteString("\n")
	section(&b, "Actions", []struct{ key, desc string }{
		{"n", "New goal"},
		{"e Enter", "Edit selected goal"},
		{"D", "Delete selected goal"},
		{"/", "Search goals by name"},
		{"r", "Refresh"},
		{"R", "Toggle auto-refresh"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	})
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)

	filter := pillStyle.Render(" ") + accentStyle.Render(fmt.Sprintf("%d goals", len(a.list)))
	if a.category != "" {
		filter += pillStyle.Render(" │ ") + accentStyle.Render(a.category)
	}
	if a.goalsTab.query != "" {
		filter += pillStyle.Render(" │ ") + accentStyle.Render("/"+a.goalsTab.query)
	}
	if a.autoRefresh {
		filter += pillStyle.Render(" │ auto")
	}
	header := components.RenderTabBar(a.activeTab, w) + "\n" + filter

	dataAge := ""
	if !a.state.FetchedAt.IsZero() {
		dataAge = a.now().Sub(a.state.FetchedAt).Truncate(time.Second).String()
	}
	notice, failed := a.notice, a.noticeErr
	if a.state.Status == goalapi.StatusFailed {
		notice, failed = a.state.Message(), true
	}
	if a.busy {
		notice, failed = a.spinner.View()+" Saving...", false
	}
	statusBar := components.RenderStatusBar(w, notice, dataAge, failed)

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.state.Status == goalapi.StatusFailed && a.activeTab != tabSettings:
		content = components.ContentCard("", lipgloss.NewStyle().Foreground(t.Red).Render(a.state.Message()), cw)
	default:
		switch a.activeTab {
		case tabDashboard:
			content = a.renderDashboardTab(cw)
		case tabGoals:
			content = a.renderGoalsTab(cw, contentH)
		case tabAnalytics:
			content = a.renderAnalyticsTab(cw)
		case tabSettings:
			content = a.renderSettingsTab(cw)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// ─── Commands ───────────────────────────────────────────────────

func tickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(min(every, time.Second), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// loadCmd fetches the goal list and records a history snapshot when the
// summary changed since the last one.
func (a App) loadCmd(seq int) tea.Cmd {
	ctx, goals, history, category, now := a.ctx, a.goals, a.history, a.category, a.now
	return func() tea.Msg {
		if goals == nil {
			return goalsLoadedMsg{seq: seq, state: goalapi.Failed(goalapi.ErrFetchFailed, now())}
		}
		list, err := goals.List(ctx)
		if err != nil {
			return goalsLoadedMsg{seq: seq, state: goalapi.Failed(err, now())}
		}
		msg := goalsLoadedMsg{seq: seq, state: goalapi.Loaded(list, now())}
		if history != nil {
			msg.trend = recordSnapshot(history, category, list, now())
		}
		return msg
	}
}

func recordSnapshot(history HistoryStore, category string, goals []model.Goal, at time.Time) []model.Snapshot {
	log := logger.Get()
	if category != "" {
		goals = pipeline.FilterByCategory(goals, category)
	}
	sum := pipeline.Aggregate(goals)

	latest, ok, err := history.Latest()
	if err != nil {
		log.Warn("read latest snapshot", zap.Error(err))
		return nil
	}
	if !ok || !store.Diff(latest.Summary, sum).IsZero() {
		if _, err := history.Record("tui", sum, at); err != nil {
			log.Warn("record snapshot", zap.Error(err))
		}
	}
	recent, err := history.Recent(trendLen)
	if err != nil {
		log.Warn("read snapshots", zap.Error(err))
		return nil
	}
	return recent
}

func (a App) createCmd(d model.Draft) tea.Cmd {
	ctx, goals := a.ctx, a.goals
	return func() tea.Msg {
		g, err := goals.Create(ctx, d)
		return goalSavedMsg{goal: g, created: true, err: err}
	}
}

func (a App) updateCmd(orig model.Goal, in model.GoalInput) tea.Cmd {
	ctx, goals := a.ctx, a.goals
	patch := model.PatchFrom(in.Apply(orig))
	return func() tea.Msg {
		g, err := goals.Update(ctx, orig, patch)
		return goalSavedMsg{goal: g, err: err}
	}
}

func (a App) deleteCmd(g model.Goal) tea.Cmd {
	ctx, goals := a.ctx, a.goals
	return func() tea.Msg {
		return goalDeletedMsg{id: g.ID, name: g.Name, err: goals.Delete(ctx, g.ID)}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
func (a App) tabAtX(x int) int {
	return components.TabAtX(x, a.activeTab)
}

// searchInput builds the goal search box.
func searchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "goal name..."
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Width = 30
	return ti
}
