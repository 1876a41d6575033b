package notifier

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"hwbot/internal/eventbus"
	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

var ErrEmptyMessage = errors.New("notification text is empty")

// Service sends notifications to one fixed recipient.
//
// Calls are expected from a single poll loop; the limiter is the only shared state.
type Service struct {
	log     logx.Logger
	adapter kit.Adapter
	target  kit.ChatTarget
	bus     eventbus.Bus

	cfg     Config
	limiter *rate.Limiter
}

func New(cfg Config, adapter kit.Adapter, target kit.ChatTarget, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = DefaultRatePerSec
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	return &Service{
		log:     log,
		adapter: adapter,
		target:  target,
		bus:     bus,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}
}

// Channel names the underlying transport.
func (s *Service) Channel() string {
	if s.adapter == nil {
		return ""
	}
	return s.adapter.Name()
}

// Send delivers message to the configured recipient.
//
// On failure it logs at error level and returns a *DeliveryError.
func (s *Service) Send(ctx context.Context, message string) error {
	if message == "" {
		return ErrEmptyMessage
	}
	channel := s.Channel()
	log := s.log.With(logx.String("channel", channel), logx.String("target", s.target.ID))
	log.Debug("sending notification", logx.String("text", message))

	if err := s.limiter.Wait(ctx); err != nil {
		return s.failed(log, channel, message, 0, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	started := time.Now()
	_, err := s.adapter.SendText(callCtx, s.target, message, &kit.SendOptions{DisablePreview: s.cfg.DisablePreview})
	took := time.Since(started)
	if err != nil {
		return s.failed(log, channel, message, took, err)
	}

	log.Debug("notification sent", logx.String("text", message), logx.Duration("took", took))
	s.publish(eventbus.TypeNotifySent, NotificationEvent{
		Channel: channel, Target: s.target.ID, Text: message, At: started, Took: took,
	})
	return nil
}

func (s *Service) failed(log logx.Logger, channel, message string, took time.Duration, err error) error {
	log.Error("notification not sent", logx.String("text", message), logx.Err(err))
	s.publish(eventbus.TypeNotifyFailed, NotificationEvent{
		Channel: channel, Target: s.target.ID, Text: message, At: time.Now(), Took: took, Error: err.Error(),
	})
	return &DeliveryError{Channel: channel, Err: err}
}

func (s *Service) publish(typ string, ev NotificationEvent) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: ev.At, Data: ev})
}
