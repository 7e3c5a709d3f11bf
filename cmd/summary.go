package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/sgp/internal/cli"
	"github.com/theirongolddev/sgp/internal/model"
	"github.com/theirongolddev/sgp/internal/pipeline"
	"github.com/theirongolddev/sgp/internal/store"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Dashboard: totals, overall progress and every goal card",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	goals, err := fetchGoals(ctx)
	if err != nil {
		return err
	}

	s := pipeline.Aggregate(goals)

	history := openHistory()
	if history != nil {
		defer func() { _ = history.Close() }()
	}
	prev, hasPrev := recordSnapshot(history, "summary", s)

	fmt.Println()
	fmt.Println(cli.RenderTitle(pageTitle("SAVINGS GOALS")))
	fmt.Println()

	if len(goals) == 0 {
		fmt.Print(cli.RenderMessage(cli.EmptyGoalsMessage))
		return nil
	}

	fmt.Print(cli.RenderTable(summaryTable(s, prev, hasPrev)))
	fmt.Println()

	overall := pipeline.Evaluate(s.TotalSaved, s.TotalTarget)
	fmt.Printf("  %s %s\n\n",
		cli.RenderProgressBar(overall.PercentForBar, overall.Band, 40),
		cli.FormatPercent(overall.PercentDisplay))

	now := time.Now()
	for _, g := range goals {
		fmt.Println(cli.RenderGoalCard(g, now, 59))
	}
	return nil
}

// summaryTable builds the headline table. With a previous snapshot each
// row carries its change since that run.
func summaryTable(s model.Summary, prev model.Snapshot, hasPrev bool) cli.Table {
	var d store.Delta
	if hasPrev {
		d = store.Diff(prev.Summary, s)
	}
	t := cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Goals", cli.FormatNumber(int64(s.TotalGoals))},
			{"Completed", fmt.Sprintf("%d / %d", s.CompletedGoals, s.TotalGoals)},
			{"Active", cli.FormatNumber(int64(s.ActiveGoals))},
			{"---"},
			{"Total Saved", cli.FormatMoney(s.TotalSaved)},
			{"Total Target", cli.FormatMoney(s.TotalTarget)},
			{"Overall", cli.FormatPercent(s.OverallPercent)},
		},
	}
	if hasPrev {
		t.Headers = append(t.Headers, "Change")
		t.Rows[0] = append(t.Rows[0], cli.FormatIntDelta(d.Goals))
		t.Rows[1] = append(t.Rows[1], cli.FormatIntDelta(d.Completed))
		t.Rows[2] = append(t.Rows[2], "")
		t.Rows[4] = append(t.Rows[4], cli.FormatMoneyDelta(d.Saved))
		t.Rows[5] = append(t.Rows[5], cli.FormatMoneyDelta(d.Target))
		t.Rows[6] = append(t.Rows[6], cli.FormatIntDelta(d.OverallPercent)+"pp")
		t.Title = "since " + cli.FormatTimestamp(prev.TakenAt)
	}
	return t
}

// pageTitle appends the category filter, if any.
func pageTitle(title string) string {
	if flagCategory == "" {
		return title
	}
	return title + "  " + flagCategory
}
