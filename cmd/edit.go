package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/sgp/internal/cli"
	"github.com/theirongolddev/sgp/internal/model"
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Update a goal (interactive form when no field flags are given)",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

func init() {
	bindGoalFlags(editCmd, &flagEdit)
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newClient(appCfg.API.BaseURL)
	if err != nil {
		return err
	}
	orig, err := findGoal(ctx, client, args[0])
	if err != nil {
		return err
	}

	in := model.InputFromGoal(orig)
	if anyGoalFlag(cmd) {
		if err := applyGoalFlags(cmd, flagEdit, &in); err != nil {
			return err
		}
	} else {
		ok, err := runGoalForm(&in)
		if err != nil || !ok {
			return err
		}
	}

	if errs := in.Validate(); errs != nil {
		return errs
	}

	g, err := client.Update(ctx, orig, model.PatchFrom(in.Apply(orig)))
	if err != nil {
		return mutationFailed("Failed to save goal", err)
	}

	fmt.Println()
	fmt.Print(cli.RenderMessage("Updated goal " + g.ID.String()))
	fmt.Println(cli.RenderGoalCard(g, time.Now(), 59))
	return nil
}
