package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/sgp/internal/cli"
	"github.com/theirongolddev/sgp/internal/config"
	"github.com/theirongolddev/sgp/internal/daemon"
	"github.com/theirongolddev/sgp/internal/logger"
)

// daemonRuntimeState is written next to the pid file so status can find
// the listen address of a daemon started with other flags.
type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	APIURL    string    `json:"api_url"`
}

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
	flagDaemonOrigins      []string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Poll the goals API and serve summaries over HTTP/SSE",
	Long: "Poll the goals API on an interval and serve the latest summary at /v1/status,\n" +
		"recent change events at /v1/events and a live stream at /v1/stream.",
	RunE: runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "127.0.0.1:8787", "HTTP listen address")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", filepath.Join(config.CacheDir(), "sgpd.pid"), "PID file path")

	daemonCmd.Flags().DurationVar(&flagDaemonInterval, "interval", 30*time.Second, "Polling interval")
	daemonCmd.Flags().StringVar(&flagDaemonLogFile, "log-file", filepath.Join(config.CacheDir(), "sgpd.log"), "Output file for detached mode")
	daemonCmd.Flags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory events retained")
	daemonCmd.Flags().StringSliceVar(&flagDaemonOrigins, "allowed-origin", nil, "CORS origin allowed to call the API (repeatable, default *)")
	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	files := runFiles{pid: flagDaemonPIDFile}
	switch {
	case flagDaemonDetach && flagDaemonChild:
		return errors.New("invalid daemon launch mode")
	case flagDaemonDetach:
		return startDaemonDetached(files)
	default:
		return runDaemonForeground(files)
	}
}

func startDaemonDetached(files runFiles) error {
	if err := files.ensureStopped(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	//nolint:gosec // daemon log path is configured by the local user
	out, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = out.Close() }()

	child := exec.Command(exe, childArgs(os.Args[1:])...) //nolint:gosec // exe/args come from current process invocation
	child.Stdout = out
	child.Stderr = out
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  Status: http://%s/v1/status\n", flagDaemonAddr)
	fmt.Printf("  PID file: %s\n", files.pid)
	fmt.Printf("  Output: %s\n", flagDaemonLogFile)
	fmt.Printf("  Log: %s\n", appCfg.LogFile())
	return nil
}

func runDaemonForeground(files runFiles) error {
	if err := files.ensureStopped(); err != nil {
		return err
	}

	client, err := newClient(appCfg.API.BaseURL)
	if err != nil {
		return err
	}

	state := daemonRuntimeState{
		PID:       os.Getpid(),
		Addr:      flagDaemonAddr,
		StartedAt: time.Now(),
		APIURL:    client.BaseURL(),
	}
	if err := files.write(state); err != nil {
		return err
	}
	defer files.remove()

	var recorder daemon.Recorder
	if h := openHistory(); h != nil {
		defer func() { _ = h.Close() }()
		recorder = h
	}

	svc := daemon.New(daemon.Config{
		APIURL:         state.APIURL,
		Category:       flagCategory,
		Interval:       flagDaemonInterval,
		Addr:           flagDaemonAddr,
		EventsBuffer:   flagDaemonEventsBuffer,
		AllowedOrigins: flagDaemonOrigins,
	}, client, recorder)

	logger.Get().Info("daemon starting",
		zap.Int("pid", state.PID),
		zap.String("addr", state.Addr),
		zap.String("api_url", state.APIURL),
		zap.Duration("interval", flagDaemonInterval),
	)
	fmt.Printf("  sgp daemon listening on http://%s\n", state.Addr)
	fmt.Printf("  Polling %s every %s\n", state.APIURL, flagDaemonInterval)
	fmt.Printf("  Stop with: sgp daemon stop --pid-file %s\n", files.pid)

	ctx, cancel := commandContext()
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	files := runFiles{pid: flagDaemonPIDFile}
	state, err := files.read()
	if err != nil {
		fmt.Printf("  Daemon: not running (%v)\n", err)
		return nil
	}
	if !processAlive(state.PID) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", state.PID)
		return nil
	}

	addr := state.Addr
	if addr == "" {
		addr = flagDaemonAddr
	}
	fmt.Printf("  Daemon PID: %d\n", state.PID)
	fmt.Printf("  Address: http://%s\n", addr)
	if !state.StartedAt.IsZero() {
		fmt.Printf("  Started: %s\n", cli.FormatTimestamp(state.StartedAt))
	}

	ctx, cancel := commandContext()
	defer cancel()

	st, err := daemon.FetchStatus(ctx, addr)
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}

	lastPoll := "pending"
	if !st.LastPollAt.IsZero() {
		lastPoll = cli.FormatTimestamp(st.LastPollAt)
	}
	fmt.Printf("  Last poll: %s (#%d, every %ds)\n", lastPoll, st.PollCount, st.PollIntervalSec)
	fmt.Printf("  Goals API: %s\n", st.APIURL)
	if st.Category != "" {
		fmt.Printf("  Category: %s\n", st.Category)
	}
	fmt.Printf("  Goals: %d (%d completed)\n", st.Summary.TotalGoals, st.Summary.CompletedGoals)
	fmt.Printf("  Saved: %s of %s (%s)\n",
		cli.FormatMoney(st.Summary.TotalSaved),
		cli.FormatMoney(st.Summary.TotalTarget),
		cli.FormatPercent(st.Summary.OverallPercent))
	fmt.Printf("  Events: %d buffered, %d subscribers\n", st.EventCount, st.SubscriberCount)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	files := runFiles{pid: flagDaemonPIDFile}
	state, err := files.read()
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(state.PID)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	for deadline := time.Now().Add(8 * time.Second); time.Now().Before(deadline); {
		if !processAlive(state.PID) {
			files.remove()
			fmt.Printf("  Stopped daemon (pid %d)\n", state.PID)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", state.PID)
}

// childArgs rewrites the current invocation for the detached child.
func childArgs(args []string) []string {
	out := slices.DeleteFunc(slices.Clone(args), func(a string) bool {
		return a == "--detach" || strings.HasPrefix(a, "--detach=")
	})
	return append(out, "--child")
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// runFiles is the pid file plus its JSON state sidecar.
type runFiles struct {
	pid string
}

func (f runFiles) statePath() string {
	return f.pid + ".json"
}

func (f runFiles) write(st daemonRuntimeState) error {
	if err := os.MkdirAll(filepath.Dir(f.pid), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(f.pid, []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.statePath(), append(data, '\n'), 0o600)
}

// read returns the recorded state. The pid file is authoritative; the
// sidecar only fills in the rest and may be missing.
func (f runFiles) read() (daemonRuntimeState, error) {
	var st daemonRuntimeState

	//nolint:gosec // daemon pid path is configured by the local user
	data, err := os.ReadFile(f.pid)
	if err != nil {
		return st, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return st, fmt.Errorf("invalid pid in %s", f.pid)
	}

	//nolint:gosec // daemon state path is configured by the local user
	if raw, err := os.ReadFile(f.statePath()); err == nil {
		_ = json.Unmarshal(raw, &st)
	}
	st.PID = pid
	return st, nil
}

func (f runFiles) remove() {
	_ = os.Remove(f.pid)
	_ = os.Remove(f.statePath())
}

// ensureStopped fails if a live daemon owns the pid file and clears a
// stale one.
func (f runFiles) ensureStopped() error {
	st, err := f.read()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err == nil && processAlive(st.PID) {
		return fmt.Errorf("daemon already running (pid %d)", st.PID)
	}
	f.remove()
	return nil
}
