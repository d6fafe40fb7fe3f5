package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mackeh/ncwatchdog/internal/config"
	"github.com/mackeh/ncwatchdog/internal/disk"
	"github.com/mackeh/ncwatchdog/internal/doctor"
	"github.com/mackeh/ncwatchdog/internal/hypertext"
	"github.com/mackeh/ncwatchdog/internal/logging"
	"github.com/mackeh/ncwatchdog/internal/notifications"
	"github.com/mackeh/ncwatchdog/internal/report"
	"github.com/mackeh/ncwatchdog/internal/secrets"
	"github.com/mackeh/ncwatchdog/internal/security/redactor"
	"github.com/mackeh/ncwatchdog/internal/telegram"
	"github.com/mackeh/ncwatchdog/internal/telemetry"
)

var version = "0.1.0"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "ncwatchdog",
		Short: "Disk and log file health reports over Telegram",
		Long: `ncwatchdog checks free space on monitored mount points and the
freshness and error state of log files, then prints the result or
delivers it to a Telegram chat.`,
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.ncwatchdog/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log encoding (console, json)")

	rootCmd.AddCommand(reportCmd(flags))
	rootCmd.AddCommand(initCmd(flags))
	rootCmd.AddCommand(doctorCmd(flags))
	rootCmd.AddCommand(listUpdatesCmd(flags))
	rootCmd.AddCommand(secretsCmd(flags))
	rootCmd.AddCommand(completionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (f *globalFlags) path() (string, error) {
	if f.configPath != "" {
		return f.configPath, nil
	}
	return config.DefaultPath()
}

func (f *globalFlags) configDir() (string, error) {
	path, err := f.path()
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

func (f *globalFlags) secretStore() (*secrets.Manager, error) {
	dir, err := f.configDir()
	if err != nil {
		return nil, err
	}
	return secrets.NewManager(filepath.Join(dir, "secrets")), nil
}

// app holds what a command needs for one run.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	redactor *redactor.Redactor
	secrets  *secrets.Manager
	cleanup  []func()
}

func (f *globalFlags) load(ctx context.Context) (*app, error) {
	path, err := f.path()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'ncwatchdog init' to create one)", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Logging.Encoding = f.logFormat
	}

	a := &app{
		cfg:      cfg,
		redactor: redactor.New(),
		secrets:  secrets.NewManager(filepath.Join(filepath.Dir(path), "secrets")),
	}
	if t := cfg.Telegram.APIToken; !config.IsPlaceholder(t) {
		a.redactor.Add(t)
	}

	log, closeLog, err := logging.New(cfg.Logging, a.redactor)
	if err != nil {
		return nil, err
	}
	a.log = log
	a.cleanup = append(a.cleanup, func() {
		_ = log.Sync()
		closeLog()
	})

	shutdown, err := setupTelemetry(ctx, cfg.Telemetry, filepath.Dir(path))
	if err != nil {
		a.log.Warn("telemetry disabled", zap.Error(err))
	} else {
		a.cleanup = append(a.cleanup, func() {
			if err := shutdown(context.Background()); err != nil {
				a.log.Warn("telemetry shutdown failed", zap.Error(err))
			}
		})
	}
	return a, nil
}

func (a *app) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

func setupTelemetry(ctx context.Context, cfg config.TelemetryConfig, cfgDir string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return telemetry.Setup(ctx, "ncwatchdog", version, false, nil)
	}
	tracePath := cfg.TraceFile
	if tracePath == "" {
		tracePath = filepath.Join(cfgDir, "traces.json")
	}
	f, err := os.OpenFile(tracePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	shutdown, err := telemetry.Setup(ctx, "ncwatchdog", version, true, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return func(ctx context.Context) error {
		defer f.Close()
		return shutdown(ctx)
	}, nil
}

// telegramClient resolves the bot token and builds a client for it.
func (a *app) telegramClient() (*telegram.Client, error) {
	var source config.SecretSource
	if a.secrets.Initialized() {
		source = a.secrets
	}
	token, err := a.cfg.ResolveAPIToken(source)
	if err != nil {
		return nil, err
	}
	a.redactor.Add(token)
	return telegram.New(token, telegram.WithBaseURL(a.cfg.Telegram.APIURL))
}

// dispatcher builds the configured channels. Telegram is added whenever it
// is configured and is required when nothing else is.
func (a *app) dispatcher() (*notifications.Dispatcher, error) {
	d, err := notifications.NewDispatcher(a.cfg.Notifications, a.log.Named("notify"))
	if err != nil {
		return nil, err
	}

	err = a.addTelegram(d)
	switch {
	case err == nil:
	case errors.Is(err, config.ErrMissing) && d.Len() > 0:
		a.log.Warn("telegram not configured, delivering to other channels only", zap.Error(err))
	default:
		return nil, err
	}
	return d, nil
}

func (a *app) addTelegram(d *notifications.Dispatcher) error {
	chatID, err := a.cfg.RequireChatID()
	if err != nil {
		return err
	}
	if config.IsPlaceholder(chatID) {
		return fmt.Errorf("%w: telegram.chat_id", config.ErrMissing)
	}
	client, err := a.telegramClient()
	if err != nil {
		return err
	}
	d.Add(notifications.NewTelegramNotifier(client, chatID))
	return nil
}

func reportCmd(flags *globalFlags) *cobra.Command {
	var (
		send        bool
		plain       bool
		metricsFile string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Check disks and log files and print or send the report",
		Long: `Evaluates every monitored disk and log file once. The report is
printed to stdout, or delivered to Telegram and any configured
notification channels with --send.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := flags.load(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if metricsFile == "" {
				metricsFile = a.cfg.Telemetry.MetricsFile
			}
			if metricsFile != "" {
				defer func() {
					if err := telemetry.WriteTextfile(metricsFile); err != nil {
						a.log.Warn("failed to write metrics", zap.String("path", metricsFile), zap.Error(err))
					}
				}()
			}

			engine := report.NewEngine(disk.NewSystemProbe(a.log.Named("disk")), a.log.Named("report"))
			msg, err := engine.GenerateReport(ctx, a.cfg)
			if err != nil {
				return err
			}

			if !send {
				out := cmd.OutOrStdout()
				if plain {
					fmt.Fprint(out, msg.Body)
				} else {
					fmt.Fprint(out, hypertext.Terminal(msg))
				}
				return nil
			}

			d, err := a.dispatcher()
			if err != nil {
				return err
			}
			if err := d.Deliver(ctx, msg); err != nil {
				return errors.New(a.redactor.Redact(err.Error()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📨 Report sent to %d channel(s)\n", d.Len())
			return nil
		},
	}
	cmd.Flags().BoolVar(&send, "send", false, "deliver the report instead of printing it")
	cmd.Flags().BoolVar(&plain, "plain", false, "print without terminal styling")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	return cmd
}

func listUpdatesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list-updates",
		Short: "Show messages received by the bot",
		Long:  "Lists pending bot updates with their chat ids. Send the bot a message first to discover the chat id for the config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := flags.load(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			client, err := a.telegramClient()
			if err != nil {
				return err
			}
			updates, err := client.GetUpdates(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(updates) == 0 {
				fmt.Fprintln(out, "📭 No updates. Send the bot a message and try again.")
				return nil
			}
			for _, u := range updates {
				m := telegram.UpdateMessage(u)
				if m == nil || m.Chat == nil {
					continue
				}
				name := m.Chat.Title
				if name == "" {
					name = m.Chat.UserName
				}
				fmt.Fprintf(out, "💬 chat %d (%s %s)", m.Chat.ID, m.Chat.Type, name)
				if m.From != nil {
					fmt.Fprintf(out, " from user %d", m.From.ID)
				}
				fmt.Fprintf(out, ": %s\n", m.Text)
			}
			return nil
		},
	}
}

func secretsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage encrypted secrets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Initialize secrets encryption keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := flags.secretStore()
			if err != nil {
				return err
			}
			pubKey, err := mgr.Init()
			if err != nil {
				return err
			}

			fmt.Println("🔐 Secrets initialized!")
			fmt.Printf("🔑 Public Key: %s\n", pubKey)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [KEY] [VALUE]",
		Short: "Set an encrypted secret",
		Long:  "Stores a secret such as the bot token. Reference it from the config with telegram.api_token_secret.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := flags.secretStore()
			if err != nil {
				return err
			}
			if err := mgr.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("🔐 Secret '%s' encrypted and saved.\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored secrets (names only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := flags.secretStore()
			if err != nil {
				return err
			}
			keys, err := mgr.List()
			if err != nil {
				return err
			}

			if len(keys) == 0 {
				fmt.Println("🔐 No secrets stored.")
				return nil
			}
			fmt.Println("🔐 Stored Secrets:")
			for _, k := range keys {
				fmt.Printf("  • %s\n", k)
			}
			return nil
		},
	})

	return cmd
}

func doctorCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose ncwatchdog setup and environment",
		Long:  "Runs health checks on the configuration, bot credentials, secret store, monitored disks and log files.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := flags.path()
			if err != nil {
				return err
			}

			fmt.Println("🩺  ncwatchdog Health Check")
			fmt.Println()

			results := doctor.RunAll(cmd.Context(), doctor.Env{
				ConfigDir:  filepath.Dir(path),
				ConfigPath: path,
				Probe:      disk.NewSystemProbe(zap.NewNop()),
			})

			passed, warned, failed := 0, 0, 0
			for _, r := range results {
				var icon string
				switch r.Status {
				case doctor.StatusPass:
					icon = "✅"
					passed++
				case doctor.StatusWarn:
					icon = "⚠️ "
					warned++
				case doctor.StatusFail:
					icon = "❌"
					failed++
				}

				// Pad name to align output
				dots := strings.Repeat(".", max(2, 25-len(r.Name)))
				fmt.Printf("%s %s %s %s\n", icon, r.Name, dots, r.Detail)

				if r.Fix != "" && r.Status != doctor.StatusPass {
					fmt.Printf("   → %s\n", r.Fix)
				}
			}

			fmt.Printf("\n%d/%d checks passed", passed, len(results))
			if warned > 0 {
				fmt.Printf(" (%d warning", warned)
				if warned > 1 {
					fmt.Print("s")
				}
				fmt.Print(")")
			}
			if failed > 0 {
				fmt.Printf(" (%d failure", failed)
				if failed > 1 {
					fmt.Print("s")
				}
				fmt.Print(")")
			}
			fmt.Println()

			if failed > 0 {
				os.Exit(1)
			}
			return nil
		},
	}
}

func completionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for ncwatchdog.

To load completions:

Bash:
  $ source <(ncwatchdog completion bash)

Zsh:
  $ ncwatchdog completion zsh > "${fpath[1]}/_ncwatchdog"

Fish:
  $ ncwatchdog completion fish | source

PowerShell:
  PS> ncwatchdog completion powershell | Out-String | Invoke-Expression
`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
