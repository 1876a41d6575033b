package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

func TestSplitTelegramText(t *testing.T) {
	short := "hello"
	if got := splitTelegramText(short, 10); len(got) != 1 || got[0] != short {
		t.Fatalf("short text split: %q", got)
	}

	long := strings.Repeat("a", 25)
	got := splitTelegramText(long, 10)
	if len(got) != 3 {
		t.Fatalf("chunks = %d, want 3", len(got))
	}
	if strings.Join(got, "") != long {
		t.Fatalf("chunks lost data")
	}

	lines := "aaaa\nbbbbbbbb\ncc"
	got = splitTelegramText(lines, 10)
	if got[0] != "aaaa" {
		t.Fatalf("expected newline split, got %q", got)
	}
}

func TestParseChatID(t *testing.T) {
	if id, err := ParseChatID(" -100123 "); err != nil || id != -100123 {
		t.Fatalf("ParseChatID = %d, %v", id, err)
	}
	if _, err := ParseChatID("@channel"); err == nil {
		t.Fatalf("expected error for non numeric chat id")
	}
}

func TestSendTextPostsToBotAPI(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		sent = append(sent, body)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":42,"chat":{"id":123,"type":"private"},"date":0,"text":"x"}}`))
	}))
	defer srv.Close()

	a, err := New(Config{Token: "123:abc", URL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ref, err := a.SendText(context.Background(), kit.ChatTarget{ID: "123"}, "Бот запущен", nil)
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if ref.MessageID != "42" {
		t.Fatalf("message id = %q", ref.MessageID)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(sent) != 1 || sent[0]["text"] != "Бот запущен" {
		t.Fatalf("unexpected requests: %v", sent)
	}
}

// slowBotAPI answers nothing until release is closed or the client gives up.
func slowBotAPI(t *testing.T) string {
	t.Helper()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	return srv.URL
}

func TestSendTextClientTimeout(t *testing.T) {
	var logs bytes.Buffer
	a, err := New(Config{Token: "123:abc", URL: slowBotAPI(t), Timeout: 100 * time.Millisecond}, logx.NewWriter(&logs, "debug"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	started := time.Now()
	_, err = a.SendText(context.Background(), kit.ChatTarget{ID: "123"}, "hello", nil)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if took := time.Since(started); took > 2*time.Second {
		t.Fatalf("SendText took %v with a 100ms timeout", took)
	}
	if out := logs.String(); !strings.Contains(out, "telegram send failed") || !strings.Contains(out, `"chat_id":"123"`) {
		t.Fatalf("failure not logged: %s", out)
	}
}

func TestSendTextAbandonsOnContextDone(t *testing.T) {
	a, err := New(Config{Token: "123:abc", URL: slowBotAPI(t), Timeout: 5 * time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err = a.SendText(ctx, kit.ChatTarget{ID: "123"}, "hello", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("SendText err = %v, want deadline exceeded", err)
	}
	if took := time.Since(started); took > 2*time.Second {
		t.Fatalf("SendText took %v after the context expired", took)
	}
}
