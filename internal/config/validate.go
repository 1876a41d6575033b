package config

import (
	"fmt"
	"strings"

	logx "hwbot/pkg/logx"
)

// MissingError lists required settings that are not set.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return "required settings are missing: " + strings.Join(e.Names, ", ")
}

// Validate checks required credentials and the recipient, then value ranges.
// Missing values are all reported at once as *MissingError.
func (c *Config) Validate() error {
	var missing []string
	need := func(v, name string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}

	need(c.Practicum.Token, EnvPracticumToken)
	switch c.Notifier.Channel {
	case ChannelTelegram, "":
		need(c.Telegram.Token, EnvTelegramToken)
		need(c.Telegram.ChatID, EnvTelegramChatID)
	case ChannelSlack:
		need(c.Slack.Token, EnvSlackToken)
		need(c.Slack.ChannelID, EnvSlackChannelID)
	default:
		return fmt.Errorf("notifier.channel: unknown channel %q (use %q or %q)", c.Notifier.Channel, ChannelTelegram, ChannelSlack)
	}
	if len(missing) > 0 {
		return &MissingError{Names: missing}
	}

	if c.Poll.LookbackDays < 0 {
		return fmt.Errorf("poll.lookback_days must be >= 0")
	}
	if _, err := ParseDurationField("practicum.timeout", c.Practicum.Timeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("notifier.send_timeout", c.Notifier.SendTimeout); err != nil {
		return err
	}
	if lvl := c.Logging.Level; lvl != "" {
		if _, ok := logx.ParseLevel(lvl); !ok {
			return fmt.Errorf("logging.level: unknown level %q", lvl)
		}
	}
	if c.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}
