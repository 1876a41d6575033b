package config

// Config is the on-disk configuration. Every secret can also come from the
// environment (see Overlay); the file is optional.
type Config struct {
	Practicum PracticumConfig `json:"practicum"`
	Poll      PollConfig      `json:"poll"`
	Notifier  NotifierConfig  `json:"notifier"`
	Telegram  TelegramConfig  `json:"telegram"`
	Slack     SlackConfig     `json:"slack"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
	Systemd   SystemdConfig   `json:"systemd"`
}

type PracticumConfig struct {
	Token    string `json:"token"`
	Endpoint string `json:"endpoint"`
	// Timeout is a Go duration string. "0s" disables the request timeout.
	Timeout string `json:"timeout"`
}

// PollConfig controls the tick schedule and query window.
type PollConfig struct {
	// Interval accepts a duration ("10m"), seconds ("600"), HH:MM or a cron expression.
	Interval                 string `json:"interval"`
	LookbackDays             int    `json:"lookback_days"`
	SuppressRepeatedFailures bool   `json:"suppress_repeated_failures"`
}

type NotifierConfig struct {
	// Channel selects the outbound transport: "telegram" (default) or "slack".
	Channel        string `json:"channel"`
	RatePerSec     int    `json:"rate_per_sec"`
	SendTimeout    string `json:"send_timeout"`
	DisablePreview bool   `json:"disable_preview"`
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID string `json:"chat_id"`
	// APIURL overrides the Bot API base URL.
	APIURL   string `json:"api_url,omitempty"`
	ThreadID int    `json:"thread_id,omitempty"`
}

type SlackConfig struct {
	Token     string `json:"token"`
	ChannelID string `json:"channel_id"`
	APIURL    string `json:"api_url,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console *bool       `json:"console,omitempty"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled    *bool  `json:"enabled,omitempty"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
}

// StorageConfig controls the optional journal.
//
// Example:
//
//	storage: { driver: sqlite, path: ./hwbot.sqlite }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// SystemdConfig toggles sd_notify integration (no-op outside systemd).
type SystemdConfig struct {
	Notify *bool `json:"notify,omitempty"`
}

const (
	ChannelTelegram = "telegram"
	ChannelSlack    = "slack"

	DefaultPath         = "./config.yaml"
	DefaultEnvFile      = ".env"
	DefaultEndpoint     = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultTimeout      = "30s"
	DefaultInterval     = "10m"
	DefaultLookbackDays = 10
	DefaultLogLevel     = "debug"
	DefaultLogFile      = "./bot.log"
)

// Bool reports *b, or def when unset.
func Bool(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
