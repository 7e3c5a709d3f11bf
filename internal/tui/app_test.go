package tui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/sgp/internal/config"
	"github.com/theirongolddev/sgp/internal/goalapi"
	"github.com/theirongolddev/sgp/internal/model"
	"github.com/theirongolddev/sgp/internal/pipeline"
	"github.com/theirongolddev/sgp/internal/tui/components"
)

func init() {
	lipgloss.SetColorProfile(termenv.TrueColor)
}

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeGoals struct {
	mu      sync.Mutex
	goals   []model.Goal
	err     error
	patches []model.Patch
}

func (f *fakeGoals) List(context.Context) ([]model.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.goals, f.err
}

func (f *fakeGoals) Create(_ context.Context, d model.Draft) (model.Goal, error) {
	return model.Goal{ID: "new", Name: d.Name, TargetAmount: d.TargetAmount, Category: d.Category}, f.err
}

func (f *fakeGoals) Update(_ context.Context, orig model.Goal, p model.Patch) (model.Goal, error) {
	f.mu.Lock()
	f.patches = append(f.patches, p)
	f.mu.Unlock()
	return p.Apply(orig), f.err
}

func (f *fakeGoals) Delete(context.Context, model.ID) error { return f.err }

type fakeHistory struct {
	snaps []model.Snapshot // newest first
}

func (h *fakeHistory) Latest() (model.Snapshot, bool, error) {
	if len(h.snaps) == 0 {
		return model.Snapshot{}, false, nil
	}
	return h.snaps[0], true, nil
}

func (h *fakeHistory) Record(source string, s model.Summary, at time.Time) (model.Snapshot, error) {
	snap := model.Snapshot{ID: int64(len(h.snaps) + 1), TakenAt: at, Source: source, Summary: s}
	h.snaps = append([]model.Snapshot{snap}, h.snaps...)
	return snap, nil
}

func (h *fakeHistory) Recent(n int) ([]model.Snapshot, error) {
	return h.snaps[:min(n, len(h.snaps))], nil
}

func sampleGoals() []model.Goal {
	return []model.Goal{
		{ID: "1", Name: "Japan trip", Category: model.CategoryTravel, TargetAmount: 2000, SavedAmount: 2000, Deadline: "2026-09-01"},
		{ID: "2", Name: "Laptop", Category: model.CategoryElectronics, TargetAmount: 1000, SavedAmount: 800, Deadline: "2026-07-01"},
		{ID: "3", Name: "Emergency", Category: model.CategoryEmergency, TargetAmount: 500, SavedAmount: 100},
	}
}

func newTestApp(svc GoalService) App {
	return NewApp(Options{
		Goals:      svc,
		Config:     config.DefaultConfig(),
		SaveConfig: func(config.Config) error { return nil },
		Now:        func() time.Time { return fixedNow },
	})
}

func send(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, _ := a.Update(msg)
	app, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", m)
	}
	return app
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func loaded(t *testing.T, goals []model.Goal) App {
	t.Helper()
	a := newTestApp(&fakeGoals{goals: goals})
	return send(t, a, goalsLoadedMsg{seq: a.seq, state: goalapi.Loaded(goals, fixedNow)})
}

func TestNewAppStartsLoading(t *testing.T) {
	a := newTestApp(&fakeGoals{})
	if a.state.Status != goalapi.StatusLoading {
		t.Fatalf("status = %v, want loading", a.state.Status)
	}
	if a.summary.MostCommonCategory != model.NoCategory {
		t.Fatalf("MostCommonCategory = %q, want N/A before load", a.summary.MostCommonCategory)
	}
}

func TestStaleLoadIsDropped(t *testing.T) {
	a := newTestApp(&fakeGoals{})
	load := a.refresh() // seq 2 supersedes the initial fetch
	if load == nil {
		t.Fatal("refresh returned nil cmd")
	}

	a = send(t, a, goalsLoadedMsg{seq: 1, state: goalapi.Loaded(sampleGoals(), fixedNow)})
	if a.state.Ready() {
		t.Fatal("stale fetch result was applied")
	}

	a = send(t, a, goalsLoadedMsg{seq: 2, state: goalapi.Loaded(sampleGoals(), fixedNow)})
	if !a.state.Ready() || a.summary.TotalGoals != 3 {
		t.Fatalf("state = %v, total = %d, want loaded with 3", a.state.Status, a.summary.TotalGoals)
	}
}

func TestLoadedSummary(t *testing.T) {
	a := loaded(t, sampleGoals())
	s := a.summary
	if s.CompletedGoals != 1 || s.ActiveGoals != 2 {
		t.Fatalf("completed/active = %d/%d, want 1/2", s.CompletedGoals, s.ActiveGoals)
	}
	if s.MostCommonCategory != "Travel" {
		t.Fatalf("MostCommonCategory = %q, want Travel (first seen)", s.MostCommonCategory)
	}
}

func TestFailedLoadShowsMessage(t *testing.T) {
	a := newTestApp(&fakeGoals{})
	a = send(t, a, tea.WindowSizeMsg{Width: 100, Height: 30})
	a = send(t, a, goalsLoadedMsg{seq: a.seq, state: goalapi.Failed(goalapi.ErrFetchFailed, fixedNow)})

	if a.state.Status != goalapi.StatusFailed {
		t.Fatalf("status = %v, want failed", a.state.Status)
	}
	if view := a.View(); !strings.Contains(view, "Failed to fetch goals") {
		t.Fatalf("View() missing failure message:\n%s", view)
	}
}

func TestFailedRefreshKeepsLastGoodList(t *testing.T) {
	a := loaded(t, sampleGoals())
	_ = a.refresh()
	a = send(t, a, goalsLoadedMsg{seq: a.seq, state: goalapi.Failed(goalapi.ErrFetchFailed, fixedNow)})

	if !a.state.Ready() || len(a.list) != 3 {
		t.Fatalf("state = %v with %d goals, want last good list", a.state.Status, len(a.list))
	}
	if a.notice != goalapi.FailedMessage || !a.noticeErr {
		t.Fatalf("notice = %q (err=%v), want failure notice", a.notice, a.noticeErr)
	}
}

func TestFailedMutationsLeaveListUntouched(t *testing.T) {
	a := loaded(t, sampleGoals())

	a = send(t, a, goalSavedMsg{goal: model.Goal{ID: "9", Name: "x"}, created: true, err: goalapi.ErrFetchFailed})
	if len(a.list) != 3 || a.notice != "Failed to save goal" {
		t.Fatalf("after failed create: %d goals, notice %q", len(a.list), a.notice)
	}

	a = send(t, a, goalDeletedMsg{id: "1", name: "Japan trip", err: goalapi.ErrFetchFailed})
	if len(a.list) != 3 || a.notice != "Failed to delete goal" {
		t.Fatalf("after failed delete: %d goals, notice %q", len(a.list), a.notice)
	}
}

func TestSuccessfulMutationsUpdateList(t *testing.T) {
	a := loaded(t, sampleGoals())

	a = send(t, a, goalSavedMsg{goal: model.Goal{ID: "4", Name: "Bike", Category: model.CategoryVehicle, TargetAmount: 300}, created: true})
	if a.summary.TotalGoals != 4 {
		t.Fatalf("TotalGoals after create = %d, want 4", a.summary.TotalGoals)
	}

	a = send(t, a, goalSavedMsg{goal: model.Goal{ID: "3", Name: "Emergency", Category: model.CategoryEmergency, TargetAmount: 500, SavedAmount: 500}})
	if a.summary.CompletedGoals != 2 {
		t.Fatalf("CompletedGoals after update = %d, want 2", a.summary.CompletedGoals)
	}

	a = send(t, a, goalDeletedMsg{id: "1", name: "Japan trip"})
	if a.summary.TotalGoals != 3 {
		t.Fatalf("TotalGoals after delete = %d, want 3", a.summary.TotalGoals)
	}
	if _, ok := a.selectedGoal(); !ok {
		t.Fatal("selection lost after delete")
	}
}

func TestMutationSupersedesInflightLoad(t *testing.T) {
	a := loaded(t, sampleGoals())
	_ = a.refresh()
	inflight := a.seq

	a = send(t, a, goalSavedMsg{goal: model.Goal{ID: "4", Name: "Bike", Category: model.CategoryVehicle, TargetAmount: 300}, created: true})
	a = send(t, a, goalsLoadedMsg{seq: inflight, state: goalapi.Loaded(sampleGoals(), fixedNow)})
	if len(a.list) != 4 {
		t.Fatalf("after load started before create: %d goals, want 4", len(a.list))
	}

	_ = a.refresh()
	inflight = a.seq
	a = send(t, a, goalDeletedMsg{id: "1", name: "Japan trip"})
	a = send(t, a, goalsLoadedMsg{seq: inflight, state: goalapi.Loaded(sampleGoals(), fixedNow)})
	if len(a.list) != 3 {
		t.Fatalf("after load started before delete: %d goals, want 3", len(a.list))
	}
	if _, ok := pipeline.FindGoal(a.list, "1"); ok {
		t.Fatal("deleted goal restored by a superseded load")
	}

	// A load started after the mutation still applies.
	a = send(t, a, goalsLoadedMsg{seq: a.seq, state: goalapi.Loaded(sampleGoals()[:1], fixedNow)})
	if len(a.list) != 1 {
		t.Fatalf("after fresh load: %d goals, want 1", len(a.list))
	}
}

func TestCategoryFilter(t *testing.T) {
	a := NewApp(Options{Goals: &fakeGoals{}, Config: config.DefaultConfig(), Category: "travel", Now: func() time.Time { return fixedNow }})
	a = send(t, a, goalsLoadedMsg{seq: a.seq, state: goalapi.Loaded(sampleGoals(), fixedNow)})
	if a.summary.TotalGoals != 1 || len(a.state.Goals) != 3 {
		t.Fatalf("filtered total = %d of %d, want 1 of 3", a.summary.TotalGoals, len(a.state.Goals))
	}
}

func TestTabKeys(t *testing.T) {
	a := loaded(t, sampleGoals())

	a = send(t, a, keyMsg("g"))
	if a.activeTab != tabGoals {
		t.Fatalf("activeTab after g = %d, want %d", a.activeTab, tabGoals)
	}
	a = send(t, a, keyMsg("right"))
	if a.activeTab != tabAnalytics {
		t.Fatalf("activeTab after right = %d, want %d", a.activeTab, tabAnalytics)
	}
	a = send(t, a, keyMsg("x"))
	a = send(t, a, keyMsg("right"))
	if a.activeTab != tabDashboard {
		t.Fatalf("activeTab should wrap to dashboard, got %d", a.activeTab)
	}
}

func TestGoalsTabSortAndSearch(t *testing.T) {
	a := loaded(t, sampleGoals())
	a = send(t, a, keyMsg("g"))

	// Default sort is by name.
	if g, _ := a.selectedGoal(); g.Name != "Emergency" {
		t.Fatalf("first goal = %q, want Emergency", g.Name)
	}
	a = send(t, a, keyMsg("s")) // progress
	if g, _ := a.selectedGoal(); g.Name != "Japan trip" {
		t.Fatalf("first by progress = %q, want Japan trip", g.Name)
	}

	a = send(t, a, keyMsg("/"))
	if !a.goalsTab.searching {
		t.Fatal("search did not open")
	}
	for _, r := range "lap" {
		a = send(t, a, keyMsg(string(r)))
	}
	a = send(t, a, keyMsg("enter"))
	goals := a.visibleGoals()
	if len(goals) != 1 || goals[0].Name != "Laptop" {
		t.Fatalf("search results = %v, want Laptop", goals)
	}
}

func TestDeleteOpensConfirm(t *testing.T) {
	a := loaded(t, sampleGoals())
	a = send(t, a, keyMsg("g"))
	a = send(t, a, keyMsg("D"))
	if a.form == nil || a.formKind != formDelete {
		t.Fatalf("form = %v kind %v, want delete confirm", a.form, a.formKind)
	}
	a = send(t, a, keyMsg("esc"))
	if a.form != nil {
		t.Fatal("esc did not close the form")
	}
}

func TestLoadCmdRecordsChangedSnapshots(t *testing.T) {
	svc := &fakeGoals{goals: sampleGoals()}
	hist := &fakeHistory{}
	a := NewApp(Options{Goals: svc, History: hist, Config: config.DefaultConfig(), Now: func() time.Time { return fixedNow }})

	msg := a.loadCmd(1)().(goalsLoadedMsg)
	if !msg.state.Ready() || len(msg.trend) != 1 {
		t.Fatalf("first load: status %v, trend %d, want loaded with 1 snapshot", msg.state.Status, len(msg.trend))
	}

	a.loadCmd(2)()
	if len(hist.snaps) != 1 {
		t.Fatalf("unchanged summary recorded again: %d snapshots", len(hist.snaps))
	}

	svc.goals = sampleGoals()[:2]
	msg = a.loadCmd(3)().(goalsLoadedMsg)
	if len(msg.trend) != 2 {
		t.Fatalf("trend after change = %d, want 2", len(msg.trend))
	}

	a = send(t, a, goalsLoadedMsg{seq: a.seq, state: msg.state, trend: msg.trend})
	if prev, ok := a.previousSnapshot(); !ok || prev.Summary.TotalGoals != 3 {
		t.Fatalf("previousSnapshot = %+v (%v), want the 3-goal snapshot", prev, ok)
	}
}

func TestLoadCmdFailure(t *testing.T) {
	a := newTestApp(&fakeGoals{err: errors.Join(goalapi.ErrFetchFailed, errors.New("boom"))})
	msg := a.loadCmd(1)().(goalsLoadedMsg)
	if msg.state.Status != goalapi.StatusFailed || !errors.Is(msg.state.Err, goalapi.ErrFetchFailed) {
		t.Fatalf("state = %+v, want failed", msg.state)
	}
}

func TestUpdateCmdSendsPatchWithoutIdentity(t *testing.T) {
	svc := &fakeGoals{}
	a := newTestApp(svc)
	orig := model.Goal{ID: "2", Name: "Laptop", Category: model.CategoryElectronics, TargetAmount: 1000, SavedAmount: 800, Deadline: "2026-07-01", CreatedAt: "2026-01-01T00:00:00.000Z"}
	in := model.InputFromGoal(orig)
	in.Saved = "1000"

	msg := a.updateCmd(orig, in)().(goalSavedMsg)
	if msg.err != nil || msg.goal.Saved() != 1000 {
		t.Fatalf("updateCmd = %+v, want saved 1000", msg)
	}
	if msg.goal.ID != "2" || msg.goal.CreatedAt != orig.CreatedAt {
		t.Fatalf("updated goal lost identity: %+v", msg.goal)
	}
	raw, err := json.Marshal(svc.patches[0])
	if err != nil {
		t.Fatalf("marshal patch: %v", err)
	}
	if s := string(raw); strings.Contains(s, `"id"`) || strings.Contains(s, `"createdAt"`) {
		t.Fatalf("patch carries identity fields: %s", s)
	}
}

func TestFieldValidatorMessages(t *testing.T) {
	in := &model.GoalInput{Name: "x", Target: "10", Category: "Travel", Deadline: "2026-01-01"}
	if err := fieldValidator(in, model.FieldTarget)("0"); err == nil || err.Error() != "Target amount must be a positive number." {
		t.Fatalf("target validator = %v", err)
	}
	if err := fieldValidator(in, model.FieldName)("Car"); err != nil {
		t.Fatalf("name validator = %v, want nil", err)
	}
	if err := fieldValidator(in, model.FieldDeadline)("tomorrow"); err == nil {
		t.Fatal("deadline validator accepted a non-date")
	}
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 1
		for i := range components.Tabs {
			w := components.TabVisualWidth(i, i == active)
			if got := a.tabAtX(pos + w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 2
		}
	}
}

func TestViewsRender(t *testing.T) {
	a := loaded(t, sampleGoals())
	a = send(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})
	for _, key := range []string{"d", "g", "a", "x"} {
		a = send(t, a, keyMsg(key))
		view := a.View()
		if view == "" {
			t.Fatalf("empty view for tab %s", key)
		}
		if h := lipgloss.Height(view); h > 40 {
			t.Fatalf("tab %s renders %d lines, want <= 40", key, h)
		}
	}
	a = send(t, a, keyMsg("d"))
	if !strings.Contains(a.View(), "100% complete") {
		t.Fatal("dashboard missing goal card percent")
	}

	narrow := send(t, a, tea.WindowSizeMsg{Width: 60, Height: 20})
	if !strings.Contains(narrow.View(), "too narrow") {
		t.Fatal("narrow view missing warning")
	}
}

func TestEmptyStateMessage(t *testing.T) {
	a := loaded(t, nil)
	a = send(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})
	if !strings.Contains(a.View(), "No goals yet") {
		t.Fatal("dashboard missing empty state")
	}
}
