package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/sgp/internal/cli"
	"github.com/theirongolddev/sgp/internal/model"
	"github.com/theirongolddev/sgp/internal/pipeline"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Goal statistics, category distribution and status bands",
	RunE:  runAnalytics,
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
}

func runAnalytics(_ *cobra.Command, _ []string) error {
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
	recordSnapshot(history, "analytics", s)

	fmt.Println()
	fmt.Println(cli.RenderTitle(pageTitle("GOAL ANALYTICS")))
	fmt.Println()

	fmt.Print(cli.RenderTable(analyticsTable(s)))

	if len(s.Categories) > 0 {
		fmt.Println()
		fmt.Print(renderDistribution("Goals by Category", categoryBars(s.Categories)))
	}

	fmt.Println()
	fmt.Print(renderDistribution("Status", []bar{
		{model.BandDanger.String(), float64(s.Bands.Danger)},
		{model.BandWarning.String(), float64(s.Bands.Warning)},
		{model.BandComplete.String(), float64(s.Bands.Complete)},
	}))
	return nil
}

func analyticsTable(s model.Summary) cli.Table {
	return cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Goals", cli.FormatNumber(int64(s.TotalGoals))},
			{"Completed Goals", cli.FormatNumber(int64(s.CompletedGoals))},
			{"Active Goals", cli.FormatNumber(int64(s.ActiveGoals))},
			{"Completion Rate", cli.FormatRate(s.CompletionRate())},
			{"---"},
			{"Total Saved", cli.FormatMoney(s.TotalSaved)},
			{"Total Target", cli.FormatMoney(s.TotalTarget)},
			{"Overall Progress", cli.FormatPercent(s.OverallPercent)},
			{"Average Progress", cli.FormatPercent(s.AverageProgressPercent)},
			{"---"},
			{"Most Common Category", s.MostCommonCategory},
			{"Highest Target", cli.FormatMoney(s.HighestTarget)},
			{"Lowest Saved", cli.FormatMoney(s.LowestSaved)},
		},
	}
}

type bar struct {
	label string
	value float64
}

func categoryBars(counts []model.CategoryCount) []bar {
	bars := make([]bar, len(counts))
	for i, c := range counts {
		bars[i] = bar{c.Category.Label(), float64(c.Count)}
	}
	return bars
}

func renderDistribution(title string, bars []bar) string {
	labelW := 0
	hi := 0.0
	for _, b := range bars {
		labelW = max(labelW, len(b.label))
		hi = max(hi, b.value)
	}

	out := "  " + title + "\n"
	for _, b := range bars {
		out += cli.RenderHorizontalBar(b.label, labelW, b.value, hi, 30) + "\n"
	}
	return out
}
