package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwbot/internal/config"
)

var managedEnv = []string{
	config.EnvPracticumToken, config.EnvPracticumEndpoint,
	config.EnvTelegramToken, config.EnvTelegramChatID,
	config.EnvSlackToken, config.EnvSlackChannelID,
	config.EnvChannel, config.EnvPollInterval, config.EnvLookbackDays, config.EnvLogLevel,
}

// isolateEnv clears every variable the bot reads; t.Setenv restores them.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedEnv {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

const quietLogging = "logging:\n  level: info\n  file:\n    enabled: false\n"

func executeCLI(t *testing.T, ctx context.Context, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(ctx, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func countingServer(t *testing.T, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestMissingSettingsExitOneWithoutNetwork(t *testing.T) {
	isolateEnv(t)
	srv, hits := countingServer(t, `{"homeworks":[]}`)
	t.Setenv(config.EnvPracticumEndpoint, srv.URL)

	cfg := writeConfig(t, quietLogging)
	for _, cmd := range []string{"run", "once", ""} {
		args := []string{"--config", cfg, "--env-file", filepath.Join(t.TempDir(), "none.env")}
		if cmd != "" {
			args = append(args, cmd)
		}
		code, _, stderr := executeCLI(t, context.Background(), args...)
		assert.Equal(t, 1, code, cmd)
		assert.Contains(t, stderr, config.EnvPracticumToken)
		assert.Contains(t, stderr, config.EnvTelegramChatID)
	}
	assert.Zero(t, hits.Load())
}

func TestOnceDryRunPrintsMessages(t *testing.T) {
	isolateEnv(t)
	srv, hits := countingServer(t, `{"homeworks":[{"homework_name":"hw2","status":"rejected"},{"homework_name":"hw1","status":"approved"}]}`)
	t.Setenv(config.EnvPracticumEndpoint, srv.URL)
	t.Setenv(config.EnvPracticumToken, "p")
	t.Setenv(config.EnvTelegramToken, "123:abc")
	t.Setenv(config.EnvTelegramChatID, "42")

	code, stdout, _ := executeCLI(t, context.Background(),
		"--config", writeConfig(t, quietLogging), "--env-file", "", "once", "--dry-run")
	require.Equal(t, 0, code)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t,
		"Изменился статус проверки работы \"hw2\". Работа проверена: у ревьюера есть замечания.\n"+
			"Изменился статус проверки работы \"hw1\". Работа проверена: ревьюеру всё понравилось. Ура!\n",
		stdout)
}

func TestOnceDryRunFetchFailure(t *testing.T) {
	isolateEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	t.Setenv(config.EnvPracticumEndpoint, srv.URL)
	t.Setenv(config.EnvPracticumToken, "p")
	t.Setenv(config.EnvTelegramToken, "123:abc")
	t.Setenv(config.EnvTelegramChatID, "42")

	code, stdout, _ := executeCLI(t, context.Background(),
		"--config", writeConfig(t, quietLogging), "--env-file", "", "once", "--dry-run")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(stdout, "Сбой в работе программы: "), stdout)
}

func TestConfigCheckReadsEnvFile(t *testing.T) {
	isolateEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"PRACTICUM_TOKEN=practicum-secret\nTELEGRAM_TOKEN=123:abc\nTELEGRAM_CHAT_ID=42\n"), 0o600))

	code, stdout, stderr := executeCLI(t, context.Background(),
		"--config", writeConfig(t, quietLogging), "--env-file", envFile, "config", "check")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "config OK")
	assert.Contains(t, stdout, "lookback days: 10")
	assert.Contains(t, stdout, "************cret")
	assert.NotContains(t, stdout, "practicum-secret")
}

func TestConfigCheckRejectsBadFile(t *testing.T) {
	isolateEnv(t)

	code, _, stderr := executeCLI(t, context.Background(),
		"--config", writeConfig(t, "poll:\n  intervl: 5m\n"), "--env-file", "", "config", "check")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "intervl")

	code, _, _ = executeCLI(t, context.Background(),
		"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--env-file", "", "config", "check")
	assert.Equal(t, 1, code)
}

func TestConfigCheckRejectsBadInterval(t *testing.T) {
	isolateEnv(t)
	t.Setenv(config.EnvPracticumToken, "p")
	t.Setenv(config.EnvTelegramToken, "123:abc")
	t.Setenv(config.EnvTelegramChatID, "42")
	t.Setenv(config.EnvPollInterval, "whenever")

	code, _, stderr := executeCLI(t, context.Background(),
		"--config", writeConfig(t, quietLogging), "--env-file", "", "config", "check")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "poll.interval")
}

func TestVersion(t *testing.T) {
	code, stdout, _ := executeCLI(t, context.Background(), "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, Version+"\n", stdout)
}

func TestRunSendsThroughTelegramUntilCanceled(t *testing.T) {
	isolateEnv(t)

	var (
		mu   sync.Mutex
		sent []string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/statuses/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"homeworks":[{"homework_name":"hw1","status":"reviewing"}]}`))
	})
	mux.HandleFunc("/bot123:abc/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		sent = append(sent, r.URL.Path)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":42,"type":"private"},"date":0,"text":"x"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	t.Setenv(config.EnvPracticumEndpoint, srv.URL+"/statuses/")
	t.Setenv(config.EnvPracticumToken, "p")
	t.Setenv(config.EnvTelegramToken, "123:abc")
	t.Setenv(config.EnvTelegramChatID, "42")

	cfg := writeConfig(t, quietLogging+"telegram:\n  api_url: "+srv.URL+"\npoll:\n  interval: 1h\nsystemd:\n  notify: false\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() {
		code, _, _ := executeCLI(t, ctx, "--config", cfg, "--env-file", "", "run")
		done <- code
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sent) == 2
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
