package slogutil

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"

	"vmcp/internal/config"
	"vmcp/internal/paths"
)

func TestLoggerFactory_Level(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "info"

	f := NewLoggerFactory("", cfg, &bytes.Buffer{})
	if f.Level() != slog.LevelInfo {
		t.Errorf("Level() = %v, want config level info", f.Level())
	}
	f.SetCLILevel(slog.LevelDebug)
	if f.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v, want CLI level debug", f.Level())
	}
}

func TestLoggerFactory_Console(t *testing.T) {
	var stderr bytes.Buffer
	f := NewLoggerFactory("", nil, &stderr)
	defer f.Close()

	logger := f.CommandLogger()
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(stderr.String(), "hidden") {
		t.Error("default level should filter info")
	}
	if !strings.Contains(stderr.String(), "[warn] shown") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestLoggerFactory_File(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Logging.File = true

	var stderr bytes.Buffer
	f := NewLoggerFactory(root, cfg, &stderr)
	f.SetFormat("json")

	logger := f.CommandLogger()
	logger.Debug("planned", "slots", 9)
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if stderr.Len() != 0 {
		t.Errorf("debug record reached the console: %q", stderr.String())
	}
	data, err := os.ReadFile(paths.GetLogPath(root))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "planned | slots=9") {
		t.Errorf("log file = %q", data)
	}
}
