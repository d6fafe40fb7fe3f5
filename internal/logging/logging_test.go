package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/mackeh/ncwatchdog/internal/config"
	"github.com/mackeh/ncwatchdog/internal/security/redactor"
)

func TestNew_FileOutputRedacts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ncwatchdog.log")
	cfg := config.LoggingConfig{Level: "debug", Encoding: "json", Output: path}

	log, closeLog, err := New(cfg, redactor.New("123456:secret-token"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Debug("sending", zap.String("url", "https://api.telegram.org/bot123456:secret-token/sendMessage"))
	log.Sync()
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "secret-token") {
		t.Errorf("token leaked into log: %s", out)
	}
	if !strings.Contains(out, redactor.Mask) {
		t.Errorf("expected mask in log: %s", out)
	}
	if !strings.Contains(out, `"L":"DEBUG"`) {
		t.Errorf("expected json level field: %s", out)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ncwatchdog.log")
	log, closeLog, err := New(config.LoggingConfig{Level: "warn", Output: path}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Info("hidden")
	log.Warn("shown")
	log.Sync()
	closeLog()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") || !strings.Contains(string(data), "shown") {
		t.Errorf("unexpected log content: %s", data)
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	if _, _, err := New(config.LoggingConfig{Level: "loud"}, nil); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, _, err := New(config.LoggingConfig{Encoding: "xml"}, nil); err == nil {
		t.Error("expected error for invalid encoding")
	}
}
