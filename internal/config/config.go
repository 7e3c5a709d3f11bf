// Package config handles sgp configuration loading, saving, and defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment overrides.
const (
	EnvAPIURL   = "SGP_API_URL"
	EnvLogLevel = "SGP_LOG_LEVEL"
)

// DefaultAPIURL is the base URL used when nothing else is configured.
const DefaultAPIURL = "http://localhost:5000/api"

// Themes lists the accepted [appearance] theme names.
var Themes = []string{"flexoki-dark", "catppuccin-mocha", "tokyo-night", "terminal"}

// Config holds all sgp configuration.
type Config struct {
	API        APIConfig        `toml:"api"`
	Appearance AppearanceConfig `toml:"appearance"`
	History    HistoryConfig    `toml:"history"`
	Log        LogConfig        `toml:"log"`
	TUI        TUIConfig        `toml:"tui"`
}

// APIConfig holds the goals API settings.
type APIConfig struct {
	BaseURL    string `toml:"base_url"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// HistoryConfig controls the local snapshot history.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file,omitempty"`
}

// TUIConfig holds dashboard preferences.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:    DefaultAPIURL,
			TimeoutSec: 10,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "warn",
		},
		TUI: TUIConfig{
			AutoRefresh:        false,
			RefreshIntervalSec: 60,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sgp")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sgp")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory for logs and history.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "sgp")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "sgp")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path, creating its directory.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// ApplyEnv overlays environment overrides onto cfg.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
}

// HistoryPath returns the sqlite history file path.
func (c Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(CacheDir(), "history.db")
}

// LogFile returns the file the TUI and daemon log to.
func (c Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(CacheDir(), "sgp.log")
}

// Validate reports every problem found in the configuration.
func (c Config) Validate() error {
	var problems []string

	if u, err := url.Parse(strings.TrimSpace(c.API.BaseURL)); err != nil {
		problems = append(problems, fmt.Sprintf("invalid api.base_url %q: %v", c.API.BaseURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		problems = append(problems, fmt.Sprintf("invalid api.base_url scheme %q: must be http or https", u.Scheme))
	} else if u.Host == "" {
		problems = append(problems, fmt.Sprintf("invalid api.base_url %q: missing host", c.API.BaseURL))
	}

	if c.API.TimeoutSec <= 0 {
		problems = append(problems, fmt.Sprintf("invalid api.timeout_sec %d: must be positive", c.API.TimeoutSec))
	}

	if !validTheme(c.Appearance.Theme) {
		problems = append(problems, fmt.Sprintf("unknown appearance.theme %q: must be one of %s",
			c.Appearance.Theme, strings.Join(Themes, ", ")))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log.level %q: must be debug, info, warn or error", c.Log.Level))
	}

	if c.TUI.AutoRefresh && c.TUI.RefreshIntervalSec < 5 {
		problems = append(problems, fmt.Sprintf("invalid tui.refresh_interval_sec %d: must be at least 5", c.TUI.RefreshIntervalSec))
	}

	if len(problems) > 0 {
		return errors.New("config validation failed:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}

func validTheme(name string) bool {
	for _, t := range Themes {
		if t == name {
			return true
		}
	}
	return false
}
