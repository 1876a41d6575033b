// Package slack sends notifications to a Slack channel.
package slack

import (
	"context"
	"errors"
	"strings"

	"github.com/slack-go/slack"

	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

type Config struct {
	Token string
	// APIURL overrides the Web API base URL (tests).
	APIURL string
}

type Adapter struct {
	api *slack.Client
	log logx.Logger
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("slack token is empty")
	}
	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Adapter{api: slack.New(cfg.Token, opts...), log: log}, nil
}

func (a *Adapter) Name() string { return "slack" }

func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if strings.TrimSpace(to.ID) == "" {
		return kit.MessageRef{}, errors.New("slack channel id is empty")
	}
	msgOpts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if opt != nil && opt.DisablePreview {
		msgOpts = append(msgOpts, slack.MsgOptionDisableLinkUnfurl(), slack.MsgOptionDisableMediaUnfurl())
	}
	channel, ts, err := a.api.PostMessageContext(ctx, to.ID, msgOpts...)
	if err != nil {
		a.log.Warn("slack post failed", logx.String("channel", to.ID), logx.Err(err))
		return kit.MessageRef{}, err
	}
	a.log.Debug("slack message posted", logx.String("channel", channel), logx.String("ts", ts))
	return kit.MessageRef{ChatID: channel, MessageID: ts}, nil
}
