package transport

import "context"

// ChatTarget addresses a single recipient.
//
// ID is platform specific: a numeric chat id for Telegram, a channel id for Slack.
type ChatTarget struct {
	ID       string
	ThreadID int
}

type MessageRef struct {
	ChatID    string
	MessageID string
}

type SendOptions struct {
	DisablePreview bool
}

// Adapter is an outbound messaging channel.
type Adapter interface {
	Name() string
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}
