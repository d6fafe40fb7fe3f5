// Package doctor provides health checks for the ncwatchdog environment.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	gopsdisk "github.com/shirou/gopsutil/v4/disk"

	"github.com/mackeh/ncwatchdog/internal/config"
	"github.com/mackeh/ncwatchdog/internal/disk"
	"github.com/mackeh/ncwatchdog/internal/logfile"
	"github.com/mackeh/ncwatchdog/internal/secrets"
	"github.com/mackeh/ncwatchdog/internal/telegram"
)

// Status represents the result of a health check.
type Status int

const (
	StatusPass Status = iota
	StatusWarn
	StatusFail
)

// Result holds the outcome of a single health check.
type Result struct {
	Name   string
	Status Status
	Detail string
	Fix    string // suggested remediation
}

// Env describes where the checks look.
type Env struct {
	ConfigDir  string
	ConfigPath string
	Probe      disk.Probe
	// TelegramOptions are passed to the bot client, mainly for tests.
	TelegramOptions []telegram.Option
}

// RunAll executes all health checks and returns the results.
func RunAll(ctx context.Context, env Env) []Result {
	if env.ConfigPath == "" {
		env.ConfigPath = filepath.Join(env.ConfigDir, "config.yaml")
	}

	results := []Result{checkConfigDir(env.ConfigDir)}

	cfgResult, cfg := checkConfig(env.ConfigPath)
	results = append(results, cfgResult)

	store := secrets.NewManager(filepath.Join(env.ConfigDir, "secrets"))
	results = append(results, checkSecrets(store))

	if cfg != nil {
		results = append(results,
			checkTelegram(ctx, cfg, store, env.TelegramOptions...),
			checkChatID(cfg),
			checkMonitoredDisks(ctx, env.Probe, cfg),
			checkLogFiles(cfg),
		)
	}

	results = append(results, checkDiskSpace(env.ConfigDir))
	return results
}

func checkConfigDir(cfgDir string) Result {
	info, err := os.Stat(cfgDir)
	if err != nil {
		return Result{
			Name:   "Config directory",
			Status: StatusFail,
			Detail: cfgDir + " not found",
			Fix:    "Run: ncwatchdog init",
		}
	}
	if !info.IsDir() {
		return Result{
			Name:   "Config directory",
			Status: StatusFail,
			Detail: cfgDir + " exists but is not a directory",
			Fix:    "Remove the file and run: ncwatchdog init",
		}
	}
	return Result{
		Name:   "Config directory",
		Status: StatusPass,
		Detail: cfgDir,
	}
}

func checkConfig(configPath string) (Result, *config.Config) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return Result{
			Name:   "Configuration",
			Status: StatusFail,
			Detail: err.Error(),
			Fix:    "Run: ncwatchdog init",
		}, nil
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Result{
			Name:   "Configuration",
			Status: StatusFail,
			Detail: err.Error(),
			Fix:    "Fix or remove the .env file in the working directory",
		}, cfg
	}
	return Result{
		Name:   "Configuration",
		Status: StatusPass,
		Detail: configPath,
	}, cfg
}

func checkSecrets(store *secrets.Manager) Result {
	if !store.Initialized() {
		return Result{
			Name:   "Secret store",
			Status: StatusWarn,
			Detail: "not initialized (optional)",
			Fix:    "Run: ncwatchdog secrets init",
		}
	}

	keys, err := store.List()
	if err != nil {
		return Result{
			Name:   "Secret store",
			Status: StatusFail,
			Detail: fmt.Sprintf("failed to read: %s", err),
			Fix:    "Check permissions on the secrets directory",
		}
	}
	return Result{
		Name:   "Secret store",
		Status: StatusPass,
		Detail: fmt.Sprintf("initialized (%d secrets)", len(keys)),
	}
}

func checkTelegram(ctx context.Context, cfg *config.Config, store *secrets.Manager, opts ...telegram.Option) Result {
	var source config.SecretSource
	if store.Initialized() {
		source = store
	}
	token, err := cfg.ResolveAPIToken(source)
	if err != nil {
		return Result{
			Name:   "Telegram bot",
			Status: StatusFail,
			Detail: err.Error(),
			Fix:    "Set telegram.api_token in the config or " + config.EnvAPIToken,
		}
	}

	opts = append([]telegram.Option{telegram.WithBaseURL(cfg.Telegram.APIURL)}, opts...)
	client, err := telegram.New(token, opts...)
	if err != nil {
		return Result{Name: "Telegram bot", Status: StatusFail, Detail: err.Error()}
	}

	me, err := client.GetMe(ctx)
	if err != nil {
		fix := "Check network access to the Bot API"
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			fix = "Check the bot token with @BotFather"
		}
		return Result{
			Name:   "Telegram bot",
			Status: StatusFail,
			Detail: err.Error(),
			Fix:    fix,
		}
	}
	return Result{
		Name:   "Telegram bot",
		Status: StatusPass,
		Detail: "@" + me.UserName,
	}
}

func checkChatID(cfg *config.Config) Result {
	id := cfg.Telegram.ChatID
	if id == "" || config.IsPlaceholder(id) {
		return Result{
			Name:   "Telegram chat",
			Status: StatusFail,
			Detail: "chat_id not set",
			Fix:    "Message the bot, then run: ncwatchdog list-updates",
		}
	}
	return Result{
		Name:   "Telegram chat",
		Status: StatusPass,
		Detail: id,
	}
}

func checkMonitoredDisks(ctx context.Context, probe disk.Probe, cfg *config.Config) Result {
	if len(cfg.MonitoredDisks) == 0 {
		return Result{
			Name:   "Monitored disks",
			Status: StatusWarn,
			Detail: "none configured",
			Fix:    "Add entries under monitored_disks",
		}
	}
	if probe == nil {
		return Result{Name: "Monitored disks", Status: StatusWarn, Detail: "no disk probe available"}
	}

	volumes, err := probe.ListVolumes(ctx)
	if err != nil {
		return Result{
			Name:   "Monitored disks",
			Status: StatusFail,
			Detail: err.Error(),
		}
	}

	var missing, low int
	for _, e := range disk.Evaluate(volumes, cfg.MonitoredDisks) {
		switch e.Status.State {
		case disk.StateNotFound:
			missing++
		case disk.StateBelowThreshold:
			low++
		}
	}
	switch {
	case missing > 0:
		return Result{
			Name:   "Monitored disks",
			Status: StatusFail,
			Detail: fmt.Sprintf("%d of %d mount points not found", missing, len(cfg.MonitoredDisks)),
			Fix:    "Check mount_point values against the output of 'df'",
		}
	case low > 0:
		return Result{
			Name:   "Monitored disks",
			Status: StatusWarn,
			Detail: fmt.Sprintf("%d of %d below their limit", low, len(cfg.MonitoredDisks)),
		}
	}
	return Result{
		Name:   "Monitored disks",
		Status: StatusPass,
		Detail: fmt.Sprintf("%d mounted", len(cfg.MonitoredDisks)),
	}
}

func checkLogFiles(cfg *config.Config) Result {
	if len(cfg.LogFiles) == 0 {
		return Result{
			Name:   "Log files",
			Status: StatusWarn,
			Detail: "none configured",
			Fix:    "Add entries under log_files",
		}
	}

	var fs logfile.OSFileSystem
	var missing int
	for _, spec := range cfg.LogFiles {
		ok, err := fs.Exists(spec.Path)
		if spec.Path == "" || err != nil || !ok {
			missing++
		}
	}
	if missing > 0 {
		return Result{
			Name:   "Log files",
			Status: StatusWarn,
			Detail: fmt.Sprintf("%d of %d not readable", missing, len(cfg.LogFiles)),
			Fix:    "Check log_files paths and permissions",
		}
	}
	return Result{
		Name:   "Log files",
		Status: StatusPass,
		Detail: fmt.Sprintf("%d found", len(cfg.LogFiles)),
	}
}

func checkDiskSpace(cfgDir string) Result {
	usage, err := gopsdisk.Usage(cfgDir)
	if err != nil {
		return Result{
			Name:   "Disk space",
			Status: StatusWarn,
			Detail: "unable to check",
		}
	}

	free := humanize.Bytes(usage.Free)
	switch {
	case usage.Free < 100*disk.BytesPerMB:
		return Result{
			Name:   "Disk space",
			Status: StatusFail,
			Detail: free + " free",
			Fix:    "Free up space for the config directory",
		}
	case usage.Free < 500*disk.BytesPerMB:
		return Result{
			Name:   "Disk space",
			Status: StatusWarn,
			Detail: free + " free (low)",
			Fix:    "Consider freeing disk space",
		}
	}
	return Result{
		Name:   "Disk space",
		Status: StatusPass,
		Detail: free + " free",
	}
}
