// Package config provides configuration loading and management for ncwatchdog.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mackeh/ncwatchdog/internal/disk"
	"github.com/mackeh/ncwatchdog/internal/logfile"
	"github.com/mackeh/ncwatchdog/internal/notifications"
)

// Environment variables that override file values.
const (
	EnvAPIToken = "NCWATCHDOG_API_TOKEN"
	EnvChatID   = "NCWATCHDOG_CHAT_ID"
)

// ErrMissing is returned when a value needed for the requested action is
// not configured.
var ErrMissing = errors.New("missing configuration")

// Config represents the main ncwatchdog configuration
type Config struct {
	Telegram       TelegramConfig                 `yaml:"telegram"`
	MonitoredDisks []disk.Monitored               `yaml:"monitored_disks,omitempty"`
	LogFiles       []logfile.Spec                 `yaml:"log_files,omitempty"`
	Notifications  []notifications.NotifierConfig `yaml:"notifications,omitempty"`
	Logging        LoggingConfig                  `yaml:"logging"`
	Telemetry      TelemetryConfig                `yaml:"telemetry"`
}

// TelegramConfig holds the bot credentials and the chat reports go to.
type TelegramConfig struct {
	APIToken string `yaml:"api_token,omitempty"`
	// APITokenSecret names an entry in the encrypted secret store holding
	// the token, used when APIToken is empty.
	APITokenSecret string `yaml:"api_token_secret,omitempty"`
	ChatID         string `yaml:"chat_id,omitempty"`
	UserID         string `yaml:"user_id,omitempty"`
	APIURL         string `yaml:"api_url,omitempty"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"` // "console" or "json"
	Output   string `yaml:"output"`   // "stderr", "stdout" or a file path
}

// TelemetryConfig contains observability settings
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	TraceFile   string `yaml:"trace_file,omitempty"`
	MetricsFile string `yaml:"metrics_file,omitempty"`
}

// DefaultConfigDir returns the default configuration directory path
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".ncwatchdog"), nil
}

// DefaultPath returns the default configuration file path
func DefaultPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the configuration from the specified path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration from the default path
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Save writes the configuration to the specified path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// ApplyEnv loads a .env file from the working directory if present and lets
// NCWATCHDOG_* variables override the file values. A .env that exists but
// cannot be read or parsed is an error.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if v := os.Getenv(EnvAPIToken); v != "" {
		c.Telegram.APIToken = v
	}
	if v := os.Getenv(EnvChatID); v != "" {
		c.Telegram.ChatID = v
	}
	return nil
}

// RequireChatID returns the chat id or ErrMissing.
func (c *Config) RequireChatID() (string, error) {
	if c.Telegram.ChatID == "" {
		return "", fmt.Errorf("%w: telegram.chat_id", ErrMissing)
	}
	return c.Telegram.ChatID, nil
}
