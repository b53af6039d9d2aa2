package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sydlexius/cadence/internal/config"
)

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.Default().Logging)
	if cfg.Level != "info" || cfg.Format != "json" {
		t.Errorf("got level=%s format=%s, want info/json", cfg.Level, cfg.Format)
	}
	if cfg.FileMaxFiles != 3 {
		t.Errorf("FileMaxFiles = %d, want 3", cfg.FileMaxFiles)
	}
}

func TestManager_LevelSwap(t *testing.T) {
	mgr, logger := NewManager(Config{Level: "info", Format: "json"})
	defer mgr.Close() //nolint:errcheck

	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info to be enabled")
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug to be disabled")
	}

	mgr.Reconfigure(Config{Level: "debug", Format: "json"})
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug to be enabled after reconfigure")
	}

	// Component loggers share the level.
	comp := mgr.Component("importer")
	mgr.Reconfigure(Config{Level: "error", Format: "json"})
	if comp.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info to be disabled on component logger when level is error")
	}
}

func TestManager_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "cadence.log")

	mgr, logger := NewManager(Config{Level: "info", Format: "text", FilePath: logFile})
	logger.Info("release imported", slog.String("slug", "album-x"))
	if err := mgr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "slug=album-x") {
		t.Errorf("log file missing record, got %q", data)
	}
}

func TestManager_CloseWithoutFile(t *testing.T) {
	mgr, _ := NewManager(Config{Level: "info", Format: "json"})
	if err := mgr.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		cfg     Config
		wantErr bool
	}{
		{Config{Level: "debug", Format: "text"}, false},
		{Config{Level: "warn", Format: "json"}, false},
		{Config{Level: "verbose", Format: "json"}, true},
		{Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
		}
	}
}
