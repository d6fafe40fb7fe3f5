package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mackeh/ncwatchdog/internal/config"
	"github.com/mackeh/ncwatchdog/internal/secrets"
)

// tokenSecretName is the secret the bot token is stored under when the
// user opts for encryption.
const tokenSecretName = "TELEGRAM_API_TOKEN"

// initAnswers are the values collected by the setup form.
type initAnswers struct {
	APIToken     string
	ChatID       string
	EncryptToken bool
}

func initCmd(flags *globalFlags) *cobra.Command {
	var defaults bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize ncwatchdog configuration",
		Long: `Creates the config file with example disks and log files. Values
already present in an existing config are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := flags.path()
			if err != nil {
				return err
			}
			store, err := flags.secretStore()
			if err != nil {
				return err
			}
			return runInit(path, store, defaults)
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, "write placeholders without prompting")
	return cmd
}

func runInit(path string, store *secrets.Manager, defaults bool) error {
	fmt.Println("🐕 ncwatchdog Setup")
	fmt.Println()

	cfg, err := config.Load(path)
	switch {
	case err == nil:
		fmt.Printf("  ✓ Found existing config at %s\n", path)
	case errors.Is(err, fs.ErrNotExist):
		cfg = &config.Config{}
	default:
		return err
	}

	if !defaults {
		answers, err := askInit(cfg)
		if err != nil {
			// Aborted form (ctrl+c): keep what is already configured.
			fmt.Println("  - Setup form skipped, writing placeholders")
		} else if err := applyInitAnswers(cfg, answers, store); err != nil {
			return err
		}
	}

	cfg = cfg.WithMissingValues()
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("✅ Wrote %s\n", path)

	fmt.Println()
	fmt.Println("Next steps:")
	step := 1
	if config.IsPlaceholder(cfg.Telegram.APIToken) {
		fmt.Printf("  %d. Set telegram.api_token (or %s)\n", step, config.EnvAPIToken)
		step++
	}
	if config.IsPlaceholder(cfg.Telegram.ChatID) {
		fmt.Printf("  %d. Message the bot and run 'ncwatchdog list-updates' to find the chat id\n", step)
		step++
	}
	fmt.Printf("  %d. Edit monitored_disks and log_files in %s\n", step, path)
	fmt.Printf("  %d. Run 'ncwatchdog doctor' to verify your setup\n", step+1)
	fmt.Printf("  %d. Run 'ncwatchdog report --send' from cron\n", step+2)
	return nil
}

func askInit(cfg *config.Config) (initAnswers, error) {
	answers := initAnswers{EncryptToken: true}
	if !config.IsPlaceholder(cfg.Telegram.ChatID) {
		answers.ChatID = cfg.Telegram.ChatID
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram bot token").
				Description("From @BotFather. Leave empty to keep the current value.").
				EchoMode(huh.EchoModePassword).
				Value(&answers.APIToken),

			huh.NewInput().
				Title("Chat id").
				Description("Leave empty and use 'ncwatchdog list-updates' later.").
				Value(&answers.ChatID),

			huh.NewConfirm().
				Title("Store the token in the encrypted secret store?").
				Affirmative("Yes (recommended)").
				Negative("No, write it to the config").
				Value(&answers.EncryptToken),
		),
	)
	if err := form.Run(); err != nil {
		return initAnswers{}, err
	}
	return answers, nil
}

// applyInitAnswers copies the form answers into cfg, moving the token into
// store when encryption was chosen.
func applyInitAnswers(cfg *config.Config, answers initAnswers, store *secrets.Manager) error {
	if id := strings.TrimSpace(answers.ChatID); id != "" {
		cfg.Telegram.ChatID = id
	}

	token := strings.TrimSpace(answers.APIToken)
	if token == "" {
		return nil
	}
	if !answers.EncryptToken {
		cfg.Telegram.APIToken = token
		cfg.Telegram.APITokenSecret = ""
		return nil
	}

	if !store.Initialized() {
		if _, err := store.Init(); err != nil {
			return fmt.Errorf("failed to initialize secret store: %w", err)
		}
		fmt.Println("  ✓ Initialized secret store")
	}
	if err := store.Set(tokenSecretName, token); err != nil {
		return err
	}
	cfg.Telegram.APIToken = ""
	cfg.Telegram.APITokenSecret = tokenSecretName
	fmt.Printf("  ✓ Bot token stored as secret %s\n", tokenSecretName)
	return nil
}
