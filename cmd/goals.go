package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/sgp/internal/cli"
	"github.com/theirongolddev/sgp/internal/pipeline"
)

var (
	flagGoalsSort   string
	flagGoalsSearch string
)

var goalsCmd = &cobra.Command{
	Use:     "goals",
	Aliases: []string{"ls", "list"},
	Short:   "List goals with progress and status",
	RunE:    runGoals,
}

func init() {
	goalsCmd.Flags().StringVarP(&flagGoalsSort, "sort", "s", pipeline.SortName,
		"Sort by: "+strings.Join(pipeline.SortKeys, ", "))
	goalsCmd.Flags().StringVar(&flagGoalsSearch, "search", "", "Filter by name (substring match)")
	rootCmd.AddCommand(goalsCmd)
}

func runGoals(_ *cobra.Command, _ []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	goals, err := fetchGoals(ctx)
	if err != nil {
		return err
	}

	goals = pipeline.FilterByName(goals, strings.TrimSpace(flagGoalsSearch))
	goals, err = pipeline.SortGoals(goals, flagGoalsSort)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(pageTitle("GOALS")))
	fmt.Println()

	if len(goals) == 0 {
		if flagGoalsSearch != "" {
			fmt.Print(cli.RenderMessage(fmt.Sprintf("No goals match %q.", flagGoalsSearch)))
			return nil
		}
		fmt.Print(cli.RenderMessage(cli.EmptyGoalsMessage))
		return nil
	}

	rows := make([][]string, 0, len(goals))
	for _, g := range goals {
		rows = append(rows, cli.GoalRow(g))
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:    fmt.Sprintf("%d goals, sorted by %s", len(goals), flagGoalsSort),
		Headers:  cli.GoalHeaders,
		Rows:     rows,
		LeftCols: 3,
	}))
	return nil
}
