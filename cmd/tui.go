package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/sgp/internal/config"
	"github.com/theirongolddev/sgp/internal/tui"
	"github.com/theirongolddev/sgp/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(appCfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	client, err := newClient(appCfg.API.BaseURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := tui.Options{
		Context:   ctx,
		Goals:     client,
		Config:    appCfg,
		Category:  flagCategory,
		NeedSetup: !config.Exists(),
		Connect: func(baseURL string) (tui.GoalService, error) {
			return newClient(baseURL)
		},
		SaveConfig: config.Save,
	}
	// A nil *store.History must not become a non-nil interface.
	if h := openHistory(); h != nil {
		defer func() { _ = h.Close() }()
		opts.History = h
	}

	p := tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
