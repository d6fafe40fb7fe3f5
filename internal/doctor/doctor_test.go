package doctor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mackeh/ncwatchdog/internal/config"
	"github.com/mackeh/ncwatchdog/internal/disk"
	"github.com/mackeh/ncwatchdog/internal/logfile"
	"github.com/mackeh/ncwatchdog/internal/secrets"
	"github.com/mackeh/ncwatchdog/internal/telegram"
)

func TestCheckConfigDir_Missing(t *testing.T) {
	result := checkConfigDir("/nonexistent/path")
	if result.Status != StatusFail {
		t.Errorf("expected StatusFail for missing dir, got %d", result.Status)
	}
}

func TestCheckConfigDir_Exists(t *testing.T) {
	dir := t.TempDir()
	result := checkConfigDir(dir)
	if result.Status != StatusPass {
		t.Errorf("expected StatusPass for existing dir, got %d", result.Status)
	}
}

func TestCheckConfig_Missing(t *testing.T) {
	result, cfg := checkConfig(filepath.Join(t.TempDir(), "config.yaml"))
	if result.Status != StatusFail || cfg != nil {
		t.Errorf("expected StatusFail and no config, got %d", result.Status)
	}
}

func TestCheckConfig_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := (&config.Config{}).WithMissingValues().Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	result, cfg := checkConfig(path)
	if result.Status != StatusPass || cfg == nil {
		t.Fatalf("expected StatusPass, got %d (%s)", result.Status, result.Detail)
	}
	if len(cfg.MonitoredDisks) != 2 {
		t.Errorf("expected default disks, got %v", cfg.MonitoredDisks)
	}
}

func TestCheckConfig_MalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BAD-KEY=1\n"), 0600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := (&config.Config{}).WithMissingValues().Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	result, _ := checkConfig(path)
	if result.Status != StatusFail || !strings.Contains(result.Detail, ".env") {
		t.Errorf("expected StatusFail naming .env, got %d (%s)", result.Status, result.Detail)
	}
}

func TestCheckSecrets_NotInitialized(t *testing.T) {
	result := checkSecrets(secrets.NewManager(t.TempDir()))
	if result.Status != StatusWarn {
		t.Errorf("expected StatusWarn for uninitialized secrets, got %d", result.Status)
	}
}

func TestCheckSecrets_Initialized(t *testing.T) {
	mgr := secrets.NewManager(t.TempDir())
	if _, err := mgr.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := mgr.Set("TELEGRAM_TOKEN", "123456:abcdefgh"); err != nil {
		t.Fatalf("set: %v", err)
	}
	result := checkSecrets(mgr)
	if result.Status != StatusPass {
		t.Fatalf("expected StatusPass, got %d (%s)", result.Status, result.Detail)
	}
	if result.Detail != "initialized (1 secrets)" {
		t.Errorf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckTelegram(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "badtoken") {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"wd","username":"wd_bot"}}`))
	}))
	defer server.Close()

	tests := []struct {
		name  string
		token string
		want  Status
	}{
		{"valid", "123456:goodtoken", StatusPass},
		{"rejected", "123456:badtoken", StatusFail},
		{"placeholder", config.PlaceholderAPIToken, StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Telegram: config.TelegramConfig{APIToken: tt.token, APIURL: server.URL}}
			result := checkTelegram(context.Background(), cfg, secrets.NewManager(t.TempDir()))
			if result.Status != tt.want {
				t.Fatalf("expected %d, got %d (%s)", tt.want, result.Status, result.Detail)
			}
			if strings.Contains(result.Detail, tt.token) && tt.token != config.PlaceholderAPIToken {
				t.Errorf("token leaked into detail: %s", result.Detail)
			}
		})
	}
}

func TestCheckTelegram_TokenFromSecretStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/bot123456:fromsecrets/getMe") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"wd","username":"wd_bot"}}`))
	}))
	defer server.Close()

	mgr := secrets.NewManager(t.TempDir())
	if _, err := mgr.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := mgr.Set("TELEGRAM_TOKEN", "123456:fromsecrets"); err != nil {
		t.Fatalf("set: %v", err)
	}

	cfg := &config.Config{Telegram: config.TelegramConfig{APITokenSecret: "TELEGRAM_TOKEN"}}
	result := checkTelegram(context.Background(), cfg, mgr, telegram.WithBaseURL(server.URL))
	if result.Status != StatusPass || result.Detail != "@wd_bot" {
		t.Fatalf("expected StatusPass, got %d (%s)", result.Status, result.Detail)
	}
}

func TestCheckChatID(t *testing.T) {
	for id, want := range map[string]Status{
		"":                        StatusFail,
		config.PlaceholderChatID: StatusFail,
		"-100123":                 StatusPass,
	} {
		cfg := &config.Config{Telegram: config.TelegramConfig{ChatID: id}}
		if got := checkChatID(cfg).Status; got != want {
			t.Errorf("chat id %q: expected %d, got %d", id, want, got)
		}
	}
}

type errProbe struct{}

func (errProbe) ListVolumes(context.Context) ([]disk.VolumeSnapshot, error) {
	return nil, errors.New("boom")
}

func TestCheckMonitoredDisks(t *testing.T) {
	probe := disk.StaticProbe{
		{DisplayName: "sda1", MountPoint: "/", AvailableBytes: 50_000_000_000},
		{DisplayName: "sdb1", MountPoint: "/backup", AvailableBytes: 1_000_000},
	}

	tests := []struct {
		name  string
		probe disk.Probe
		disks []disk.Monitored
		want  Status
	}{
		{"none configured", probe, nil, StatusWarn},
		{"all healthy", probe, []disk.Monitored{{MountPoint: "/", FreeSpaceLimitMB: 10}}, StatusPass},
		{"below limit", probe, []disk.Monitored{{MountPoint: "/backup", FreeSpaceLimitMB: 10}}, StatusWarn},
		{"missing mount", probe, []disk.Monitored{{MountPoint: "/srv", FreeSpaceLimitMB: 10}}, StatusFail},
		{"probe error", errProbe{}, []disk.Monitored{{MountPoint: "/", FreeSpaceLimitMB: 10}}, StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{MonitoredDisks: tt.disks}
			result := checkMonitoredDisks(context.Background(), tt.probe, cfg)
			if result.Status != tt.want {
				t.Errorf("expected %d, got %d (%s)", tt.want, result.Status, result.Detail)
			}
		})
	}
}

func TestCheckLogFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.log")
	if err := os.WriteFile(present, []byte("ok\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if got := checkLogFiles(&config.Config{}).Status; got != StatusWarn {
		t.Errorf("no log files: expected StatusWarn, got %d", got)
	}

	cfg := &config.Config{LogFiles: []logfile.Spec{{Path: present}}}
	if got := checkLogFiles(cfg).Status; got != StatusPass {
		t.Errorf("present file: expected StatusPass, got %d", got)
	}

	cfg.LogFiles = append(cfg.LogFiles, logfile.Spec{Path: filepath.Join(dir, "absent.log")})
	result := checkLogFiles(cfg)
	if result.Status != StatusWarn || result.Detail != "1 of 2 not readable" {
		t.Errorf("absent file: got %d (%s)", result.Status, result.Detail)
	}
}

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()
	result := checkDiskSpace(dir)
	// Should pass or warn on any real filesystem
	if result.Status == StatusFail {
		t.Logf("disk space check failed (may be expected in constrained env): %s", result.Detail)
	}
}

func TestRunAll_NoConfig(t *testing.T) {
	dir := t.TempDir()
	results := RunAll(context.Background(), Env{ConfigDir: dir, Probe: disk.StaticProbe{}})

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	want := []string{"Config directory", "Configuration", "Secret store", "Disk space"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("checks = %v, want %v", names, want)
	}
	if results[1].Status != StatusFail {
		t.Errorf("expected configuration failure, got %d", results[1].Status)
	}
}
