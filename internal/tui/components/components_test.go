package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/sgp/internal/model"
	"github.com/theirongolddev/sgp/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	got := LayoutRow(10, 3)
	want := []int{4, 3, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("LayoutRow(10,3) = %v, want %v", got, want)
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Fatal("LayoutRow(10,0) should be nil")
	}
}

func TestCardRowMatchesTallestCard(t *testing.T) {
	theme.SetActive("flexoki-dark")

	short := ContentCard("Short", "Content", 22)
	tall := FocusedCard("Tall", "1\n2\n3\n4\n5", 22)
	tallLines := len(strings.Split(tall, "\n"))

	joined := CardRow([]string{tall, short})
	if got := len(strings.Split(joined, "\n")); got != tallLines {
		t.Fatalf("joined height = %d, want %d", got, tallLines)
	}
	if w := lipgloss.Width(joined); w != 44 {
		t.Fatalf("joined width = %d, want 44", w)
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Goals", Value: "3"},
		{Label: "Saved", Value: "$3,100", Delta: "+$100"},
		{Label: "Target", Value: "$3,500", Delta: "+$0"},
	}, 61)
	if w := lipgloss.Width(row); w != 61 {
		t.Fatalf("row width = %d, want 61", w)
	}
	if !strings.Contains(row, "$3,100") {
		t.Fatal("row missing metric value")
	}
}

func TestGoalBarShowsUnclampedPercent(t *testing.T) {
	p := model.Progress{Ratio: 1.5, PercentDisplay: 150, PercentForBar: 100, Band: model.BandComplete}
	bar := GoalBar(p, 30)
	if !strings.Contains(bar, "150%") {
		t.Fatalf("GoalBar = %q, want 150%% label", bar)
	}
	if w := lipgloss.Width(bar); w != 30 {
		t.Fatalf("GoalBar width = %d, want 30", w)
	}
}

func TestTabAtX(t *testing.T) {
	// " Dashboard  G[g]... " with Dashboard active.
	if got := TabAtX(1, 0); got != 0 {
		t.Fatalf("TabAtX(1) = %d, want 0", got)
	}
	goalsStart := 1 + TabVisualWidth(0, true) + tabGap
	if got := TabAtX(goalsStart, 0); got != 1 {
		t.Fatalf("TabAtX(%d) = %d, want 1", goalsStart, got)
	}
	if got := TabAtX(goalsStart-1, 0); got != -1 {
		t.Fatalf("TabAtX(gap) = %d, want -1", got)
	}
	if got := TabAtX(0, 0); got != -1 {
		t.Fatalf("TabAtX(0) = %d, want -1", got)
	}
}

func TestTabBarWidthMatchesLayout(t *testing.T) {
	for active := range Tabs {
		want := 1
		for i := range Tabs {
			want += TabVisualWidth(i, i == active)
		}
		want += tabGap * (len(Tabs) - 1)
		if got := lipgloss.Width(RenderTabBar(active, 0)); got != want {
			t.Fatalf("RenderTabBar(%d) width = %d, want %d", active, got, want)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('x'); got != 3 {
		t.Fatalf("TabIdxByKey('x') = %d, want 3", got)
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Fatalf("TabIdxByKey('z') = %d, want -1", got)
	}
}

func TestHBarChart(t *testing.T) {
	out := HBarChart([]BarItem{{Label: "Travel", Value: 2}, {Label: "Home", Value: 1}}, 30)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("HBarChart lines = %d, want 2", len(lines))
	}
	for _, l := range lines {
		if w := lipgloss.Width(l); w != 30 {
			t.Fatalf("line width = %d, want 30: %q", w, l)
		}
	}
}

func TestStackedBarFillsWidth(t *testing.T) {
	th := theme.Active
	out := StackedBar([]BarItem{
		{Value: 1, Color: th.Red},
		{Value: 1, Color: th.Yellow},
		{Value: 1, Color: th.Green},
	}, 20)
	if w := lipgloss.Width(out); w != 20 {
		t.Fatalf("StackedBar width = %d, want 20", w)
	}
	if w := lipgloss.Width(StackedBar(nil, 12)); w != 12 {
		t.Fatalf("empty StackedBar width = %d, want 12", w)
	}
}

func TestSparklineFlatSeries(t *testing.T) {
	out := Sparkline([]float64{5, 5, 5}, theme.Active.Accent)
	if lipgloss.Width(out) != 3 {
		t.Fatalf("Sparkline width = %d, want 3", lipgloss.Width(out))
	}
}
