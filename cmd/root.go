// Package cmd implements the sgp CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/sgp/internal/cli"
	"github.com/theirongolddev/sgp/internal/config"
	"github.com/theirongolddev/sgp/internal/goalapi"
	"github.com/theirongolddev/sgp/internal/logger"
	"github.com/theirongolddev/sgp/internal/model"
	"github.com/theirongolddev/sgp/internal/pipeline"
	"github.com/theirongolddev/sgp/internal/store"
)

var (
	flagAPIURL    string
	flagTimeout   int
	flagQuiet     bool
	flagNoHistory bool
	flagCategory  string
	flagLogLevel  string
)

// appCfg is the resolved configuration: file, then env, then flags.
var appCfg = config.DefaultConfig()

// errPageFailed marks a page that already printed its failure message.
var errPageFailed = errors.New("page failed")

var rootCmd = &cobra.Command{
	Use:               "sgp",
	Short:             "Savings goal planner",
	Long:              "Track savings goals against a goals API: progress, totals, and history.",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setupRun,
	PersistentPostRun: func(_ *cobra.Command, _ []string) { _ = logger.Sync() },
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errPageFailed) {
			fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Goals API base URL (overrides config and "+config.EnvAPIURL+")")
	rootCmd.PersistentFlags().IntVar(&flagTimeout, "timeout", 0, "Request timeout in seconds (0 uses config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Do not read or record history snapshots")
	rootCmd.PersistentFlags().StringVarP(&flagCategory, "category", "c", "", "Filter to one category")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// setupRun resolves configuration and logging before any command runs.
func setupRun(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := resolveConfig()
	if err != nil && !lenientConfig(cmd) {
		return err
	}
	appCfg = cfg

	if flagCategory != "" {
		c, err := model.ParseCategory(flagCategory)
		if err != nil {
			return err
		}
		flagCategory = string(c)
	}

	opts := logger.Options{Level: cfg.Log.Level}
	if logsToFile(cmd) {
		opts.File = cfg.LogFile()
	}
	if err := logger.Init(opts); err != nil {
		return err
	}
	logger.Get().Debug("config resolved",
		zap.String("command", cmd.Name()),
		zap.String("api_url", cfg.API.BaseURL),
		zap.Bool("history", cfg.History.Enabled),
	)
	return nil
}

func resolveConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	config.ApplyEnv(&cfg)

	if flagAPIURL != "" {
		cfg.API.BaseURL = flagAPIURL
	}
	if flagTimeout > 0 {
		cfg.API.TimeoutSec = flagTimeout
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagNoHistory {
		cfg.History.Enabled = false
	}
	return cfg, cfg.Validate()
}

// lenientConfig lists the commands that must run with a broken config so
// the user can inspect or repair it.
func lenientConfig(cmd *cobra.Command) bool {
	return cmd == configCmd || cmd == setupCmd
}

// logsToFile reports whether cmd owns the terminal or runs unattended.
func logsToFile(cmd *cobra.Command) bool {
	return cmd == tuiCmd || cmd == daemonCmd
}

// commandContext is cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newClient(baseURL string) (*goalapi.Client, error) {
	return goalapi.New(baseURL, goalapi.WithTimeout(time.Duration(appCfg.API.TimeoutSec)*time.Second))
}

// openHistory opens the snapshot store. It returns nil when history is
// disabled or unavailable; history problems never fail a page.
func openHistory() *store.History {
	if !appCfg.History.Enabled {
		return nil
	}
	h, err := store.Open(appCfg.HistoryPath())
	if err != nil {
		logger.Get().Warn("history unavailable", zap.String("path", appCfg.HistoryPath()), zap.Error(err))
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  History unavailable, continuing without it\n")
		}
		return nil
	}
	return h
}

// fetchGoals is the shared load path used by every page. On failure it
// prints the page's flat message and returns errPageFailed.
func fetchGoals(ctx context.Context) ([]model.Goal, error) {
	client, err := newClient(appCfg.API.BaseURL)
	if err != nil {
		return nil, err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Fetching goals from %s...\n", client.BaseURL())
	}

	st := client.Load(ctx)
	if !st.Ready() {
		logger.Get().Warn("fetching goals failed", zap.Error(st.Err))
		fmt.Print(cli.RenderError(st.Message()))
		return nil, errPageFailed
	}

	goals := pipeline.FilterByCategory(st.Goals, flagCategory)
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Loaded %s goals\n", cli.FormatNumber(int64(len(goals))))
	}
	return goals, nil
}

// recordSnapshot stores s and returns the snapshot taken before it, if any.
// Nothing is written when the summary has not changed since the last run.
func recordSnapshot(h *store.History, source string, s model.Summary) (model.Snapshot, bool) {
	if h == nil {
		return model.Snapshot{}, false
	}
	log := logger.Get()

	prev, ok, err := h.Latest()
	if err != nil {
		log.Warn("reading latest snapshot", zap.Error(err))
		return model.Snapshot{}, false
	}
	if ok && store.Diff(prev.Summary, s).IsZero() {
		recent, err := h.Recent(2)
		if err != nil || len(recent) < 2 {
			return model.Snapshot{}, false
		}
		return recent[1], true
	}
	if _, err := h.Record(source, s, time.Now()); err != nil {
		log.Warn("recording snapshot", zap.Error(err))
	}
	return prev, ok
}
