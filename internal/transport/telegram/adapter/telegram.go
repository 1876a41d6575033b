package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

type Config struct {
	Token string
	// URL overrides the Bot API base URL (tests, local Bot API servers).
	URL string
	// Timeout bounds one Bot API request. 0 means DefaultTimeout.
	Timeout time.Duration
}

const DefaultTimeout = 10 * time.Second

// Adapter sends messages through the Telegram Bot API.
//
// The bot never polls for updates; it is an outbound-only channel.
type Adapter struct {
	log logx.Logger
	bot *tele.Bot
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		URL:     cfg.URL,
		Offline: true,
		// telebot calls take no context; the client timeout is the only bound.
		Client: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Adapter{log: log, bot: b}, nil
}

func (a *Adapter) Name() string { return "telegram" }

const telegramTextLimit = 4000

// splitTelegramText splits long messages into chunks that are safe to send to Telegram.
// It prefers newline boundaries.
func splitTelegramText(s string, limit int) []string {
	if limit <= 0 {
		limit = telegramTextLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}

		// Prefer splitting on a newline near the end of the window.
		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
		}

		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))

		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

// SendText sends text, split into several messages when it exceeds the
// Telegram limit. ctx cancellation abandons the in-flight request; the
// request itself still ends within the client timeout.
func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	chatID, err := ParseChatID(to.ID)
	if err != nil {
		return kit.MessageRef{}, err
	}
	chat := &tele.Chat{ID: chatID}
	sendOpt := &tele.SendOptions{
		DisableWebPagePreview: opt.DisablePreview,
		ThreadID:              to.ThreadID,
	}

	chunks := splitTelegramText(text, telegramTextLimit)
	if len(chunks) > 1 {
		a.log.Debug("message split", logx.Int("chunks", len(chunks)), logx.String("chat_id", to.ID))
	}

	var first kit.MessageRef
	for i, chunk := range chunks {
		msg, err := a.send(ctx, chat, chunk, sendOpt)
		if err != nil {
			a.log.Warn("telegram send failed",
				logx.String("chat_id", to.ID),
				logx.Int("chunk", i+1),
				logx.Int("chunks", len(chunks)),
				logx.Err(err))
			return first, err
		}
		if i == 0 {
			first = kit.MessageRef{ChatID: to.ID, MessageID: strconv.Itoa(msg.ID)}
		}
	}
	return first, nil
}

type sendResult struct {
	msg *tele.Message
	err error
}

func (a *Adapter) send(ctx context.Context, chat *tele.Chat, text string, opt *tele.SendOptions) (*tele.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := make(chan sendResult, 1)
	go func() {
		msg, err := a.bot.Send(chat, text, opt)
		done <- sendResult{msg: msg, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.msg, r.err
	}
}

// ParseChatID parses a Telegram chat id ("123", "-100123").
func ParseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram chat id %q: %w", s, err)
	}
	return id, nil
}
