package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{" INFO ", zapcore.InfoLevel},
		{"error", zapcore.ErrorLevel},
		{"warn", zapcore.WarnLevel},
		{"", zapcore.WarnLevel},
		{"verbose", zapcore.WarnLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGetBeforeInit(t *testing.T) {
	if Get() == nil {
		t.Fatal("Get() = nil before Init")
	}
}

func TestInitFile(t *testing.T) {
	old := log
	defer func() { log = old }()

	path := filepath.Join(t.TempDir(), "nested", "sgp.log")
	if err := Init(Options{Level: "info", File: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Get().Debug("hidden")
	Get().Info("goals loaded", zap.Int("count", 3))
	_ = Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry written at info level:\n%s", out)
	}
	if !strings.Contains(out, `"msg":"goals loaded"`) || !strings.Contains(out, `"count":3`) {
		t.Errorf("log missing JSON entry:\n%s", out)
	}
}
