package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFrom_MissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.API.BaseURL != DefaultAPIURL {
		t.Fatalf("BaseURL = %q, want %q", cfg.API.BaseURL, DefaultAPIURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://goals.example.com/api"
	cfg.Appearance.Theme = "tokyo-night"
	cfg.History.Enabled = false

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got != cfg {
		t.Fatalf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestLoadFrom_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nbase_url = \"http://10.0.0.2:8080\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.API.BaseURL != "http://10.0.0.2:8080" {
		t.Fatalf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSec != 10 || cfg.Appearance.Theme != "flexoki-dark" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadFrom_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom accepted malformed toml")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAPIURL, " http://env.example:9000/api ")
	t.Setenv(EnvLogLevel, "debug")

	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	if cfg.API.BaseURL != "http://env.example:9000/api" {
		t.Fatalf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.BaseURL = "ftp://files"
	cfg.API.TimeoutSec = 0
	cfg.Appearance.Theme = "neon"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted bad config")
	}
	for _, want := range []string{"scheme", "timeout_sec", "neon"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("Validate() = %v, want mention of %q", err, want)
		}
	}
}

func TestPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")

	if got := Path(); got != filepath.Join("/tmp/cfg", "sgp", "config.toml") {
		t.Fatalf("Path() = %q", got)
	}
	cfg := DefaultConfig()
	if got := cfg.HistoryPath(); got != filepath.Join("/tmp/cache", "sgp", "history.db") {
		t.Fatalf("HistoryPath() = %q", got)
	}
	if got := cfg.LogFile(); got != filepath.Join("/tmp/cache", "sgp", "sgp.log") {
		t.Fatalf("LogFile() = %q", got)
	}
}
