package config

import (
	"github.com/mackeh/ncwatchdog/internal/disk"
	"github.com/mackeh/ncwatchdog/internal/logfile"
)

// Placeholders written by WithMissingValues for values the user must fill in.
const (
	PlaceholderAPIToken = "<API-Token>"
	PlaceholderChatID   = "<Chat-ID>"
	PlaceholderUserID   = "<User-ID>"
)

const twoDays = uint64(60 * 60 * 24 * 2)

// WithMissingValues returns a copy of c where every unset value is replaced
// by a placeholder or an example entry. It is used to seed a new config file.
func (c *Config) WithMissingValues() *Config {
	out := *c

	if out.Telegram.APIToken == "" && out.Telegram.APITokenSecret == "" {
		out.Telegram.APIToken = PlaceholderAPIToken
	}
	if out.Telegram.ChatID == "" {
		out.Telegram.ChatID = PlaceholderChatID
	}
	if out.Telegram.UserID == "" {
		out.Telegram.UserID = PlaceholderUserID
	}

	if out.MonitoredDisks == nil {
		out.MonitoredDisks = []disk.Monitored{
			{MountPoint: "/", FreeSpaceLimitMB: 10},
			{MountPoint: "/media/backup", FreeSpaceLimitMB: 10},
		}
	}

	if out.LogFiles == nil {
		maxAge := twoDays
		backupErr := "/var/log/backup.err.log"
		serverErr := "/var/log/server.err.log"
		out.LogFiles = []logfile.Spec{
			{Path: "/var/log/backup.log", ErrorPath: &backupErr, MaxAgeSeconds: &maxAge},
			{Path: "/var/log/server.log", ErrorPath: &serverErr, MaxAgeSeconds: &maxAge},
		}
	}

	if out.Logging.Level == "" {
		out.Logging.Level = "info"
	}
	if out.Logging.Encoding == "" {
		out.Logging.Encoding = "console"
	}
	if out.Logging.Output == "" {
		out.Logging.Output = "stderr"
	}

	return &out
}

// IsPlaceholder reports whether v is one of the values written by
// WithMissingValues.
func IsPlaceholder(v string) bool {
	switch v {
	case PlaceholderAPIToken, PlaceholderChatID, PlaceholderUserID:
		return true
	}
	return false
}
