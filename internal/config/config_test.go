package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mackeh/ncwatchdog/internal/disk"
	"github.com/mackeh/ncwatchdog/internal/logfile"
	"github.com/mackeh/ncwatchdog/internal/notifications"
)

func TestDefaultConfigDir(t *testing.T) {
	dir, err := DefaultConfigDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(dir) != ".ncwatchdog" {
		t.Errorf("expected dir ending in .ncwatchdog, got %s", dir)
	}
}

func TestLoadSave(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")

	errPath := "/var/log/backup.err.log"
	maxAge := uint64(3600)
	cfg := &Config{
		Telegram: TelegramConfig{APIToken: "123:abc", ChatID: "42"},
		MonitoredDisks: []disk.Monitored{
			{MountPoint: "/", FreeSpaceLimitMB: 10},
		},
		LogFiles: []logfile.Spec{
			{Path: "/var/log/backup.log", ErrorPath: &errPath, MaxAgeSeconds: &maxAge},
			{Path: "/var/log/server.log"},
		},
		Notifications: []notifications.NotifierConfig{
			{Type: "webhook", URL: "https://hook.example.com", Secret: "s"},
		},
		Logging:   LoggingConfig{Level: "debug", Encoding: "json", Output: "stderr"},
		Telemetry: TelemetryConfig{Enabled: true, MetricsFile: "/tmp/x.prom"},
	}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("save error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if loaded.Telegram.ChatID != "42" {
		t.Errorf("expected chat id '42', got '%s'", loaded.Telegram.ChatID)
	}
	if len(loaded.MonitoredDisks) != 1 || loaded.MonitoredDisks[0].FreeSpaceLimitMB != 10 {
		t.Errorf("unexpected monitored disks %+v", loaded.MonitoredDisks)
	}
	if len(loaded.LogFiles) != 2 {
		t.Fatalf("expected 2 log files, got %d", len(loaded.LogFiles))
	}
	if loaded.LogFiles[0].ErrorPath == nil || *loaded.LogFiles[0].ErrorPath != errPath {
		t.Errorf("error path not preserved: %+v", loaded.LogFiles[0])
	}
	if loaded.LogFiles[1].ErrorPath != nil || loaded.LogFiles[1].MaxAgeSeconds != nil {
		t.Errorf("unset optional fields should stay nil: %+v", loaded.LogFiles[1])
	}
	if loaded.Notifications[0].Type != "webhook" {
		t.Errorf("expected webhook notifier, got %s", loaded.Notifications[0].Type)
	}
	if loaded.Logging.Encoding != "json" {
		t.Errorf("expected json encoding, got %s", loaded.Logging.Encoding)
	}
}

func TestLoad_YAMLKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `telegram:
  api_token: "1:x"
  chat_id: "-100"
monitored_disks:
  - mount_point: /
    free_space_limit_mb: 500
log_files:
  - path: /var/log/app.log
    error_path: /var/log/app.err.log
    max_age_seconds: 7200
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.MonitoredDisks[0].FreeSpaceLimitMB != 500 {
		t.Errorf("limit = %d", cfg.MonitoredDisks[0].FreeSpaceLimitMB)
	}
	if got := *cfg.LogFiles[0].MaxAgeSeconds; got != 7200 {
		t.Errorf("max age = %d", got)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("{\t\x00invalid}"), 0600)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestSave_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := &Config{}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat error: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected file mode 0600, got %o", perm)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvAPIToken, "env-token")
	t.Setenv(EnvChatID, "")

	cfg := &Config{Telegram: TelegramConfig{APIToken: "file-token", ChatID: "file-chat"}}
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}

	if cfg.Telegram.APIToken != "env-token" {
		t.Errorf("expected env token to win, got %s", cfg.Telegram.APIToken)
	}
	if cfg.Telegram.ChatID != "file-chat" {
		t.Errorf("empty env var should not override, got %s", cfg.Telegram.ChatID)
	}
}

func TestApplyEnv_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvChatID, "")
	os.Unsetenv(EnvChatID)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvChatID+"=from-dotenv\n"), 0600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg := &Config{}
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Telegram.ChatID != "from-dotenv" {
		t.Errorf("expected chat id from .env, got %q", cfg.Telegram.ChatID)
	}
}

func TestApplyEnv_MalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BAD-KEY=1\n"), 0600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := (&Config{}).ApplyEnv(); err == nil {
		t.Fatal("expected an error for a malformed .env")
	}
}

func TestRequireChatID(t *testing.T) {
	_, err := (&Config{}).RequireChatID()
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
	id, err := (&Config{Telegram: TelegramConfig{ChatID: "7"}}).RequireChatID()
	if err != nil || id != "7" {
		t.Errorf("got %q, %v", id, err)
	}
}

func TestWithMissingValues(t *testing.T) {
	cfg := (&Config{Telegram: TelegramConfig{ChatID: "42"}}).WithMissingValues()

	if cfg.Telegram.ChatID != "42" {
		t.Errorf("existing value overwritten: %s", cfg.Telegram.ChatID)
	}
	if !IsPlaceholder(cfg.Telegram.APIToken) {
		t.Errorf("expected token placeholder, got %s", cfg.Telegram.APIToken)
	}
	if len(cfg.MonitoredDisks) != 2 || cfg.MonitoredDisks[0].MountPoint != "/" {
		t.Errorf("unexpected default disks %+v", cfg.MonitoredDisks)
	}
	if len(cfg.LogFiles) != 2 || *cfg.LogFiles[0].MaxAgeSeconds != 172800 {
		t.Errorf("unexpected default log files %+v", cfg.LogFiles)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected info level, got %s", cfg.Logging.Level)
	}
}

func TestWithMissingValues_KeepsExplicitEmptyLists(t *testing.T) {
	cfg := (&Config{MonitoredDisks: []disk.Monitored{}}).WithMissingValues()
	if len(cfg.MonitoredDisks) != 0 {
		t.Errorf("explicit empty list should be kept, got %+v", cfg.MonitoredDisks)
	}
}

func TestWithMissingValues_SecretNameSkipsTokenPlaceholder(t *testing.T) {
	cfg := (&Config{Telegram: TelegramConfig{APITokenSecret: "TELEGRAM_TOKEN"}}).WithMissingValues()
	if cfg.Telegram.APIToken != "" {
		t.Errorf("expected no token placeholder, got %s", cfg.Telegram.APIToken)
	}
}
