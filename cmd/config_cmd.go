package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/sgp/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [API]")
	fmt.Printf("    Base URL: %s\n", cfg.API.BaseURL)
	fmt.Printf("    Timeout:  %ds\n", cfg.API.TimeoutSec)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [History]")
	if cfg.History.Enabled {
		fmt.Printf("    Path: %s\n", cfg.HistoryPath())
	} else {
		fmt.Println("    Disabled")
	}
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	fmt.Printf("    File:  %s (tui and daemon)\n", cfg.LogFile())
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh: %v\n", cfg.TUI.AutoRefresh)
	fmt.Printf("    Interval:     %ds\n", cfg.TUI.RefreshIntervalSec)
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		fmt.Printf("  %v\n\n", err)
	}

	fmt.Println("  Run `sgp setup` to reconfigure.")
	return nil
}
