package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/sgp/internal/cli"
	"github.com/theirongolddev/sgp/internal/store"
)

var (
	flagHistoryLimit int
	flagHistoryPrune int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded summary snapshots",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Number of snapshots to show (0 for all)")
	historyCmd.Flags().IntVar(&flagHistoryPrune, "prune", -1, "Keep only the newest N snapshots")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	if !appCfg.History.Enabled {
		return errors.New("history is disabled ([history] enabled = false or --no-history)")
	}

	h, err := store.Open(appCfg.HistoryPath())
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer func() { _ = h.Close() }()

	if flagHistoryPrune >= 0 {
		n, err := h.Prune(flagHistoryPrune)
		if err != nil {
			return err
		}
		fmt.Print(cli.RenderMessage(fmt.Sprintf("Pruned %d snapshots", n)))
	}

	snaps, err := h.Recent(flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("HISTORY"))
	fmt.Println()

	if len(snaps) == 0 {
		fmt.Print(cli.RenderMessage("No snapshots yet. Run `sgp summary` to record one."))
		return nil
	}

	rows := make([][]string, 0, len(snaps))
	saved := make([]float64, len(snaps))
	for i, sn := range snaps {
		s := sn.Summary
		rows = append(rows, []string{
			cli.FormatTimestamp(sn.TakenAt),
			sn.Source,
			cli.FormatNumber(int64(s.TotalGoals)),
			cli.FormatNumber(int64(s.CompletedGoals)),
			cli.FormatMoney(s.TotalSaved),
			cli.FormatMoney(s.TotalTarget),
			cli.FormatPercent(s.OverallPercent),
		})
		saved[len(snaps)-1-i] = s.TotalSaved
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:    appCfg.HistoryPath(),
		Headers:  []string{"Taken", "Source", "Goals", "Done", "Saved", "Target", "Overall"},
		Rows:     rows,
		LeftCols: 2,
	}))

	if len(saved) > 1 {
		fmt.Printf("\n  Total saved  %s\n", cli.RenderSparkline(saved))
	}
	return nil
}
