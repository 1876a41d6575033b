package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaultsFromEnvOnly(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), envMap(nil))
	require.Error(t, err, "explicit path must exist")
	assert.Nil(t, cfg)

	// default path is optional
	cfg, err = Load("", envMap(map[string]string{
		EnvPracticumToken: "p",
		EnvTelegramToken:  "t",
		EnvTelegramChatID: "42",
	}))
	if errors.Is(err, os.ErrNotExist) {
		t.Fatalf("default config path must be optional: %v", err)
	}
	if err != nil {
		// a config.yaml next to the test binary would be unexpected
		t.Fatalf("Load: %v", err)
	}
	assert.Equal(t, DefaultEndpoint, cfg.Practicum.Endpoint)
	assert.Equal(t, DefaultTimeout, cfg.Practicum.Timeout)
	assert.Equal(t, DefaultInterval, cfg.Poll.Interval)
	assert.Equal(t, DefaultLookbackDays, cfg.Poll.LookbackDays)
	assert.Equal(t, ChannelTelegram, cfg.Notifier.Channel)
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, DefaultLogFile, cfg.Logging.File.Path)
	require.NoError(t, cfg.Validate())
}

func TestYAMLFileWithEnvOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := writeFile(t, dir, "hwbot.yaml", `
practicum:
  token: from-file
  timeout: 5s
poll:
  interval: "*/5 * * * *"
  lookback_days: 3
telegram:
  token: tg-file
  chat_id: "1"
logging:
  level: info
  file:
    path: ./x.log
    max_backups: 7
`)
	cfg, err := Load(p, envMap(map[string]string{
		EnvPracticumToken:    "from-env",
		EnvTelegramChatID:    " 99 ",
		EnvLookbackDays:      "14",
		EnvPracticumEndpoint: "",
	}))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Practicum.Token)
	assert.Equal(t, "5s", cfg.Practicum.Timeout)
	assert.Equal(t, "*/5 * * * *", cfg.Poll.Interval)
	assert.Equal(t, 14, cfg.Poll.LookbackDays)
	assert.Equal(t, "tg-file", cfg.Telegram.Token)
	assert.Equal(t, "99", cfg.Telegram.ChatID)
	assert.Equal(t, DefaultEndpoint, cfg.Practicum.Endpoint)
	assert.Equal(t, 7, cfg.Logging.File.MaxBackups)
	require.NoError(t, cfg.Validate())
}

func TestStrictDecodeRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := writeFile(t, dir, "c.yaml", "practicum:\n  tokn: typo\n")
	_, err := Load(p, envMap(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tokn")

	j := writeFile(t, dir, "c.json", `{"poll":{"interval":"1m"}} {"x":1}`)
	_, err = Load(j, envMap(nil))
	require.Error(t, err)
}

func TestBadLookbackEnv(t *testing.T) {
	t.Parallel()

	_, err := Load("", envMap(map[string]string{EnvLookbackDays: "ten"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvLookbackDays)
}

func TestValidateReportsAllMissing(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	cfg.ApplyDefaults()
	err := cfg.Validate()

	var me *MissingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{EnvPracticumToken, EnvTelegramToken, EnvTelegramChatID}, me.Names)
	assert.Contains(t, err.Error(), "PRACTICUM_TOKEN, TELEGRAM_TOKEN, TELEGRAM_CHAT_ID")
}

func TestValidateSlackChannel(t *testing.T) {
	t.Parallel()

	cfg := &Config{Practicum: PracticumConfig{Token: "p"}, Notifier: NotifierConfig{Channel: "Slack"}}
	cfg.ApplyDefaults()

	var me *MissingError
	require.ErrorAs(t, cfg.Validate(), &me)
	assert.Equal(t, []string{EnvSlackToken, EnvSlackChannelID}, me.Names)

	cfg.Slack = SlackConfig{Token: "xoxb", ChannelID: "C1"}
	require.NoError(t, cfg.Validate())

	cfg.Notifier.Channel = "pigeon"
	err := cfg.Validate()
	require.Error(t, err)
	assert.False(t, errors.As(err, &me))
}

func TestValidateDurations(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Practicum: PracticumConfig{Token: "p", Timeout: "soon"},
		Telegram:  TelegramConfig{Token: "t", ChatID: "1"},
	}
	cfg.ApplyDefaults()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "practicum.timeout")
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Practicum: PracticumConfig{Token: "p"},
		Telegram:  TelegramConfig{Token: "t", ChatID: "1"},
		Logging:   LoggingConfig{Level: "loud"},
	}
	cfg.ApplyDefaults()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")

	cfg.Logging.Level = "warning"
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, ".env", "HWBOT_TEST_A=file\nHWBOT_TEST_B=file\n")
	t.Setenv("HWBOT_TEST_A", "process")

	require.NoError(t, LoadEnvFile(p))
	t.Cleanup(func() { _ = os.Unsetenv("HWBOT_TEST_B") })

	assert.Equal(t, "process", os.Getenv("HWBOT_TEST_A"))
	assert.Equal(t, "file", os.Getenv("HWBOT_TEST_B"))

	require.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env")))
	require.NoError(t, LoadEnvFile(""))
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()

	d, err := ParseDurationOrDefault("x", "", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)

	d, err = ParseDurationOrDefault("x", "250ms", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)

	_, err = ParseDurationField("x", "-1s")
	require.Error(t, err)
}

func TestManagerReloadPublishesChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	body := "practicum: {token: p}\ntelegram: {token: t, chat_id: \"1\"}\nlogging: {level: info}\n"
	p := writeFile(t, dir, "config.yaml", body)

	m := NewManager(p, envMap(nil))
	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)

	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	assert.False(t, m.Reload(), "unchanged content must not publish")

	writeFile(t, dir, "config.yaml", "practicum: {token: p}\ntelegram: {token: t, chat_id: \"1\"}\nlogging: {level: warn}\n")
	require.True(t, m.Reload())
	got := <-ch
	assert.Equal(t, "warn", got.Logging.Level)
	assert.Equal(t, "warn", m.Get().Logging.Level)

	// invalid config is rejected and the committed one stays
	writeFile(t, dir, "config.yaml", "logging: {level: error}\n")
	assert.False(t, m.Reload())
	assert.Equal(t, "warn", m.Get().Logging.Level)
}

func TestManagerWatchPicksUpWrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := writeFile(t, dir, "config.yaml", "practicum: {token: p}\ntelegram: {token: t, chat_id: \"1\"}\n")
	m := NewManager(p, envMap(nil))
	_, err := m.Load()
	require.NoError(t, err)
	ch := m.Subscribe(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	require.Eventually(t, func() bool {
		writeFile(t, dir, "config.yaml", "practicum: {token: p}\ntelegram: {token: t, chat_id: \"1\"}\nlogging: {level: error}\n")
		select {
		case got := <-ch:
			return got.Logging.Level == "error"
		case <-time.After(2 * ReloadDebounce):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
