package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/subosito/gotenv"
)

// Environment variables that override file values.
const (
	EnvPracticumToken    = "PRACTICUM_TOKEN"
	EnvPracticumEndpoint = "PRACTICUM_ENDPOINT"
	EnvTelegramToken     = "TELEGRAM_TOKEN"
	EnvTelegramChatID    = "TELEGRAM_CHAT_ID"
	EnvSlackToken        = "SLACK_BOT_TOKEN"
	EnvSlackChannelID    = "SLACK_CHANNEL_ID"
	EnvChannel           = "HWBOT_CHANNEL"
	EnvPollInterval      = "HWBOT_POLL_INTERVAL"
	EnvLookbackDays      = "HWBOT_LOOKBACK_DAYS"
	EnvLogLevel          = "HWBOT_LOG_LEVEL"
)

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	err := gotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("env file %s: %w", path, err)
	}
	return nil
}

// ParseFile decodes a JSON or YAML config file strictly.
// A missing file yields an empty config when optional is true.
func ParseFile(path string, optional bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	return parse(path, b)
}

func parse(path string, b []byte) (*Config, error) {
	jb, err := toJSON(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if len(bytes.TrimSpace(jb)) == 0 {
		return &cfg, nil
	}
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("config %s: trailing data", path)
		}
		return nil, err
	}
	return &cfg, nil
}

// Overlay applies environment overrides on top of the file values.
func (c *Config) Overlay(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(&c.Practicum.Token, EnvPracticumToken)
	str(&c.Practicum.Endpoint, EnvPracticumEndpoint)
	str(&c.Telegram.Token, EnvTelegramToken)
	str(&c.Telegram.ChatID, EnvTelegramChatID)
	str(&c.Slack.Token, EnvSlackToken)
	str(&c.Slack.ChannelID, EnvSlackChannelID)
	str(&c.Notifier.Channel, EnvChannel)
	str(&c.Poll.Interval, EnvPollInterval)
	str(&c.Logging.Level, EnvLogLevel)

	if v, ok := lookup(EnvLookbackDays); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLookbackDays, err)
		}
		c.Poll.LookbackDays = n
	}
	return nil
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Practicum.Endpoint) == "" {
		c.Practicum.Endpoint = DefaultEndpoint
	}
	if strings.TrimSpace(c.Practicum.Timeout) == "" {
		c.Practicum.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(c.Poll.Interval) == "" {
		c.Poll.Interval = DefaultInterval
	}
	if c.Poll.LookbackDays == 0 {
		c.Poll.LookbackDays = DefaultLookbackDays
	}
	c.Notifier.Channel = strings.ToLower(strings.TrimSpace(c.Notifier.Channel))
	if c.Notifier.Channel == "" {
		c.Notifier.Channel = ChannelTelegram
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File.Path) == "" {
		c.Logging.File.Path = DefaultLogFile
	}
}

// Load reads the file (optional when it is the default path), overlays the
// environment and fills defaults. It does not validate required values.
func Load(path string, lookup func(string) (string, bool)) (*Config, error) {
	optional := path == "" || path == DefaultPath
	if path == "" {
		path = DefaultPath
	}
	cfg, err := ParseFile(path, optional)
	if err != nil {
		return nil, err
	}
	if err := cfg.Overlay(lookup); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
