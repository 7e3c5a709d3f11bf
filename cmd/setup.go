package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/sgp/internal/config"
	"github.com/theirongolddev/sgp/internal/goalapi"
	"github.com/theirongolddev/sgp/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Start from the file, not appCfg, so env and flag overrides are not persisted.
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("  Existing config is unreadable, starting from defaults (%v)\n", err)
		cfg = config.DefaultConfig()
	}

	baseURL := cfg.API.BaseURL
	themeName := cfg.Appearance.Theme

	if err := tui.NewSetupForm(&baseURL, &themeName).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	if strings.TrimSpace(baseURL) == "" {
		baseURL = config.DefaultAPIURL
	}
	base, err := goalapi.NormalizeBaseURL(baseURL)
	if err != nil {
		return err
	}
	cfg.API.BaseURL = base
	cfg.Appearance.Theme = themeName

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println()
	fmt.Println("  Try:")
	fmt.Println("    sgp              Dashboard")
	fmt.Println("    sgp goals        List goals")
	fmt.Println("    sgp add          Create a goal")
	fmt.Println("    sgp tui          Interactive dashboard")
	fmt.Println()
	return nil
}
