package poller

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tidwall/gjson"

	"hwbot/internal/eventbus"
	"hwbot/internal/homework"
	logx "hwbot/pkg/logx"
)

// Fetcher returns the remote response for statuses changed since from.
type Fetcher interface {
	Fetch(ctx context.Context, from time.Time) (gjson.Result, error)
}

// Sender delivers one notification.
type Sender interface {
	Send(ctx context.Context, message string) error
}

type Config struct {
	Schedule     cron.Schedule
	LookbackDays int
	// SuppressRepeatedFailures skips a failure notification identical to the
	// previous one until a tick succeeds.
	SuppressRepeatedFailures bool
}

const DefaultLookbackDays = 10

// TickReport summarizes one tick.
type TickReport struct {
	Seq       uint64
	At        time.Time
	Window    time.Time
	Records   int
	Changes   int
	Unchanged int
	Skipped   int
	Delivered int
	Failed    int
	Err       error
	Took      time.Duration
}

type Poller struct {
	cfg   Config
	fetch Fetcher
	send  Sender
	log   logx.Logger
	bus   eventbus.Bus
	now   func() time.Time

	onStart []func(seq uint64)
	onTick  []func(TickReport)

	history     *homework.History
	window      time.Time
	seq         uint64
	lastFailure string
}

type Option func(*Poller)

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		if now != nil {
			p.now = now
		}
	}
}

// WithTickHook registers fn to run after every tick.
func WithTickHook(fn func(TickReport)) Option {
	return func(p *Poller) {
		if fn != nil {
			p.onTick = append(p.onTick, fn)
		}
	}
}

// WithTickStartHook registers fn to run before every tick.
func WithTickStartHook(fn func(seq uint64)) Option {
	return func(p *Poller) {
		if fn != nil {
			p.onStart = append(p.onStart, fn)
		}
	}
}

func WithBus(bus eventbus.Bus) Option {
	return func(p *Poller) { p.bus = bus }
}

// New creates a poller with empty history. The query window is fixed here
// to now minus the lookback and is never advanced.
func New(cfg Config, fetch Fetcher, send Sender, log logx.Logger, opts ...Option) *Poller {
	if cfg.Schedule == nil {
		cfg.Schedule = cron.Every(DefaultInterval)
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	p := &Poller{
		cfg:     cfg,
		fetch:   fetch,
		send:    send,
		log:     log,
		now:     time.Now,
		history: homework.NewHistory(),
	}
	for _, o := range opts {
		o(p)
	}
	p.window = p.now().Add(-time.Duration(cfg.LookbackDays) * 24 * time.Hour)
	return p
}

// Window returns the lower bound of every remote query.
func (p *Poller) Window() time.Time { return p.window }

// History exposes the review history (read-mostly; tests and diagnostics).
func (p *Poller) History() *homework.History { return p.history }

// Announce sends the startup notification.
func (p *Poller) Announce(ctx context.Context) error {
	msg := StartupMessage(p.cfg.LookbackDays)
	if err := p.send.Send(ctx, msg); err != nil {
		p.log.Error("startup notification not sent", logx.Err(err))
		return err
	}
	p.log.Info("poller started",
		logx.Int("lookback_days", p.cfg.LookbackDays),
		logx.Int64("from_date", p.window.Unix()))
	return nil
}

// Run ticks until ctx is canceled, waiting for the next scheduled time after
// each tick completes.
func (p *Poller) Run(ctx context.Context) error {
	for {
		p.Tick(ctx)

		next := p.cfg.Schedule.Next(p.now())
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		p.log.Debug("waiting for next tick", logx.Duration("wait", wait))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Tick runs one fetch, validate, diff and notify pass. It never panics.
func (p *Poller) Tick(ctx context.Context) (rep TickReport) {
	p.seq++
	for _, fn := range p.onStart {
		fn(p.seq)
	}
	rep = TickReport{Seq: p.seq, At: p.now(), Window: p.window}
	log := p.log.With(logx.Int64("tick", int64(rep.Seq)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("tick panicked", logx.Any("panic", r), logx.Stack(string(debug.Stack())))
			p.fault(ctx, log, &rep, fmt.Errorf("panic: %v", r))
		}
		rep.Took = time.Since(rep.At)
		p.finish(rep)
	}()

	payload, err := p.fetch.Fetch(ctx, p.window)
	if err != nil {
		p.fault(ctx, log, &rep, err)
		return rep
	}

	records, err := homework.Records(payload)
	if err != nil {
		p.fault(ctx, log, &rep, err)
		return rep
	}
	rep.Records = len(records)
	if len(records) == 0 {
		log.Info("no homeworks found")
	} else {
		log.Info("homeworks found", logx.Int("count", len(records)))
	}

	diff := homework.Compare(records, p.history)
	rep.Changes = len(diff.Changes)
	rep.Unchanged = len(diff.Unchanged)
	rep.Skipped = len(diff.Skipped)

	for _, s := range diff.Skipped {
		log.Error("homework skipped", logx.Int("index", s.Index), logx.Err(s.Err))
	}
	for _, u := range diff.Unchanged {
		log.Debug("homework status unchanged", logx.String("homework", u.Item.ID), logx.String("status", string(u.Item.Status)))
	}
	for _, c := range diff.Changes {
		if err := p.send.Send(ctx, c.Message); err != nil {
			// The old verdict stays in history; the next tick retries.
			rep.Failed++
			continue
		}
		p.history.Record(c.Item.ID, c.Item.Verdict)
		rep.Delivered++
		log.Info("homework status changed", logx.String("homework", c.Item.ID), logx.String("status", string(c.Item.Status)))
	}

	p.lastFailure = ""
	return rep
}

func (p *Poller) fault(ctx context.Context, log logx.Logger, rep *TickReport, err error) {
	rep.Err = err
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		log.Debug("tick interrupted", logx.Err(err))
		return
	}
	log.Error("tick failed", logx.Err(err))

	msg := FailureMessage(err)
	if p.cfg.SuppressRepeatedFailures && msg == p.lastFailure {
		log.Debug("repeated failure not re-sent")
		return
	}
	if sendErr := p.send.Send(ctx, msg); sendErr != nil {
		return
	}
	p.lastFailure = msg
}

func (p *Poller) finish(rep TickReport) {
	if p.bus != nil {
		p.bus.Publish(eventbus.Event{Type: eventbus.TypeTick, Time: rep.At, Data: rep})
	}
	for _, fn := range p.onTick {
		fn(rep)
	}
}
