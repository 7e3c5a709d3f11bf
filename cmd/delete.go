package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/sgp/internal/cli"
	"github.com/theirongolddev/sgp/internal/tui"
)

var flagDeleteYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a goal",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&flagDeleteYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(_ *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newClient(appCfg.API.BaseURL)
	if err != nil {
		return err
	}
	g, err := findGoal(ctx, client, args[0])
	if err != nil {
		return err
	}

	if !flagDeleteYes {
		confirmed := false
		if err := tui.NewDeleteConfirm(g.Name, &confirmed).Run(); err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if !confirmed {
			fmt.Print(cli.RenderMessage("Cancelled."))
			return nil
		}
	}

	if err := client.Delete(ctx, g.ID); err != nil {
		return mutationFailed("Failed to delete goal", err)
	}
	fmt.Print(cli.RenderMessage(fmt.Sprintf("Deleted %q", g.Name)))
	return nil
}
