package app

import (
	"fmt"
	"strings"
	"time"

	"hwbot/internal/config"
	"hwbot/internal/notifier"
	"hwbot/internal/poller"
	"hwbot/internal/practicum"
	"hwbot/internal/storage"
	kit "hwbot/internal/transport"
	slackad "hwbot/internal/transport/slack"
	telegram "hwbot/internal/transport/telegram/adapter"
	logx "hwbot/pkg/logx"
)

// LogConfig maps the logging section onto the logging service.
func LogConfig(cfg *config.Config) logx.Config {
	lc := cfg.Logging
	return logx.Config{
		Level:   lc.Level,
		Console: config.Bool(lc.Console, true),
		File: logx.FileConfig{
			Enabled:    config.Bool(lc.File.Enabled, true),
			Path:       lc.File.Path,
			MaxSizeMB:  lc.File.MaxSizeMB,
			MaxBackups: lc.File.MaxBackups,
			MaxAgeDays: lc.File.MaxAgeDays,
			Compress:   lc.File.Compress,
		},
	}
}

func mapPracticumConfig(cfg *config.Config) (practicum.Config, error) {
	timeout, err := config.ParseDurationField("practicum.timeout", cfg.Practicum.Timeout)
	if err != nil {
		return practicum.Config{}, err
	}
	return practicum.Config{
		Endpoint: cfg.Practicum.Endpoint,
		Token:    cfg.Practicum.Token,
		Timeout:  timeout,
	}, nil
}

func mapPollerConfig(cfg *config.Config) (poller.Config, error) {
	sched, err := poller.ParseSchedule(cfg.Poll.Interval)
	if err != nil {
		return poller.Config{}, fmt.Errorf("poll.interval: %w", err)
	}
	return poller.Config{
		Schedule:                 sched,
		LookbackDays:             cfg.Poll.LookbackDays,
		SuppressRepeatedFailures: cfg.Poll.SuppressRepeatedFailures,
	}, nil
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	timeout, err := config.ParseDurationOrDefault("notifier.send_timeout", cfg.Notifier.SendTimeout, notifier.DefaultSendTimeout)
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		RatePerSec:     cfg.Notifier.RatePerSec,
		SendTimeout:    timeout,
		DisablePreview: cfg.Notifier.DisablePreview,
	}, nil
}

// newAdapter builds the outbound transport and the recipient for the
// configured channel. sendTimeout bounds each API request.
func newAdapter(cfg *config.Config, sendTimeout time.Duration, log logx.Logger) (kit.Adapter, kit.ChatTarget, error) {
	switch cfg.Notifier.Channel {
	case config.ChannelSlack:
		ad, err := slackad.New(slackad.Config{Token: cfg.Slack.Token, APIURL: cfg.Slack.APIURL}, log.With(logx.String("comp", "slack")))
		if err != nil {
			return nil, kit.ChatTarget{}, err
		}
		return ad, kit.ChatTarget{ID: cfg.Slack.ChannelID}, nil
	case config.ChannelTelegram, "":
		if _, err := telegram.ParseChatID(cfg.Telegram.ChatID); err != nil {
			return nil, kit.ChatTarget{}, fmt.Errorf("telegram.chat_id: %w", err)
		}
		ad, err := telegram.New(telegram.Config{
			Token:   cfg.Telegram.Token,
			URL:     cfg.Telegram.APIURL,
			Timeout: sendTimeout,
		}, log.With(logx.String("comp", "telegram")))
		if err != nil {
			return nil, kit.ChatTarget{}, err
		}
		return ad, kit.ChatTarget{ID: cfg.Telegram.ChatID, ThreadID: cfg.Telegram.ThreadID}, nil
	default:
		return nil, kit.ChatTarget{}, fmt.Errorf("unknown notifier channel: %s", cfg.Notifier.Channel)
	}
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(sc.Path)

	switch driver {
	case "file":
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}
