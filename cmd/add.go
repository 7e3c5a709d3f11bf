package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/sgp/internal/cli"
	"github.com/theirongolddev/sgp/internal/goalapi"
	"github.com/theirongolddev/sgp/internal/logger"
	"github.com/theirongolddev/sgp/internal/model"
	"github.com/theirongolddev/sgp/internal/pipeline"
	"github.com/theirongolddev/sgp/internal/tui"
)

// goalFlags are the field flags shared by add and edit.
type goalFlags struct {
	name, target, saved, category, deadline string
}

var flagAdd, flagEdit goalFlags

var goalFlagNames = []string{"name", "target", "saved", "category", "deadline"}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a goal (interactive form when no field flags are given)",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

func init() {
	bindGoalFlags(addCmd, &flagAdd)
	rootCmd.AddCommand(addCmd)
}

// bindGoalFlags adds the field flags. The local --category names the goal's
// category and shadows the root filter flag.
func bindGoalFlags(cmd *cobra.Command, f *goalFlags) {
	cmd.Flags().StringVar(&f.name, "name", "", "Goal name")
	cmd.Flags().StringVar(&f.target, "target", "", "Target amount")
	cmd.Flags().StringVar(&f.saved, "saved", "", "Amount saved so far")
	cmd.Flags().StringVar(&f.category, "category", "", "Goal category")
	cmd.Flags().StringVar(&f.deadline, "deadline", "", "Deadline (YYYY-MM-DD)")
}

// anyGoalFlag reports whether a field flag was given.
func anyGoalFlag(cmd *cobra.Command) bool {
	for _, name := range goalFlagNames {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// applyGoalFlags overlays the given field flags onto in. Category names are
// matched case-insensitively, with a suggestion on a near miss.
func applyGoalFlags(cmd *cobra.Command, f goalFlags, in *model.GoalInput) error {
	set := cmd.Flags().Changed
	if set("name") {
		in.Name = f.name
	}
	if set("target") {
		in.Target = f.target
	}
	if set("saved") {
		in.Saved = f.saved
	}
	if set("category") {
		c, err := model.ParseCategory(f.category)
		if err != nil {
			return err
		}
		in.Category = string(c)
	}
	if set("deadline") {
		in.Deadline = f.deadline
	}
	return nil
}

// runGoalForm shows the create/edit form. It returns false if the user aborted.
func runGoalForm(in *model.GoalInput) (bool, error) {
	if err := tui.NewGoalForm(in).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func runAdd(cmd *cobra.Command, _ []string) error {
	in := model.GoalInput{Saved: "0"}
	if anyGoalFlag(cmd) {
		if err := applyGoalFlags(cmd, flagAdd, &in); err != nil {
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

	ctx, cancel := commandContext()
	defer cancel()

	client, err := newClient(appCfg.API.BaseURL)
	if err != nil {
		return err
	}
	g, err := client.Create(ctx, in.Draft())
	if err != nil {
		return mutationFailed("Failed to save goal", err)
	}

	fmt.Println()
	fmt.Print(cli.RenderMessage("Created goal " + g.ID.String()))
	fmt.Println(cli.RenderGoalCard(g, time.Now(), 59))
	return nil
}

// mutationFailed prints the page's flat failure message and logs the cause.
func mutationFailed(msg string, err error) error {
	logger.Get().Warn(msg, zap.Error(err))
	fmt.Print(cli.RenderError(msg))
	return errPageFailed
}

// findGoal resolves an id against the current goal list.
func findGoal(ctx context.Context, client *goalapi.Client, id string) (model.Goal, error) {
	st := client.Load(ctx)
	if !st.Ready() {
		logger.Get().Warn("fetching goals failed", zap.Error(st.Err))
		fmt.Print(cli.RenderError(st.Message()))
		return model.Goal{}, errPageFailed
	}
	g, ok := pipeline.FindGoal(st.Goals, model.ID(id))
	if !ok {
		return model.Goal{}, fmt.Errorf("no goal with id %q", id)
	}
	return g, nil
}
