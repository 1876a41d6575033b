package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"hwbot/internal/config"
	"hwbot/internal/eventbus"
	"hwbot/internal/notifier"
	"hwbot/internal/poller"
	"hwbot/internal/practicum"
	"hwbot/internal/runtime/supervisor"
	"hwbot/internal/storage"
	logx "hwbot/pkg/logx"
	"hwbot/pkg/systemd"
)

// Options customizes how the app is assembled.
type Options struct {
	// Logs is the logging service to re-apply on config reload. Optional.
	Logs *logx.Service
	// Manager enables hot reload of the logging section. Optional.
	Manager *config.Manager
	// Sender replaces the notifier (dry runs). Optional.
	Sender poller.Sender
	// HTTPClient replaces the client used for the status API. Optional.
	HTTPClient *http.Client
	// Clock replaces time.Now for the poller. Optional.
	Clock func() time.Time
}

// App wires the status client, the notifier and the poll loop.
type App struct {
	cfg  *config.Config
	opts Options

	log   logx.Logger
	bus   eventbus.Bus
	store storage.Store
	sd    *systemd.Notifier

	notif  *notifier.Service
	client *practicum.Client
	poll   *poller.Poller

	sup     *supervisor.Supervisor
	journal *journal

	// tickStarted is the UnixNano start of the running tick, 0 between ticks.
	tickStarted atomic.Int64
	stalled     atomic.Bool
}

// TickStallLimit is how long one tick may run before the watchdog stops
// being fed, so systemd restarts a loop that no longer makes progress.
const TickStallLimit = 10 * time.Minute

// New builds every component from a validated config. It performs no
// network calls.
func New(cfg *config.Config, log logx.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &App{
		cfg:  cfg,
		opts: opts,
		log:  log.With(logx.String("comp", "app")),
		bus:  eventbus.New(),
		sd:   systemd.New(config.Bool(cfg.Systemd.Notify, true)),
	}

	pc, err := mapPracticumConfig(cfg)
	if err != nil {
		return nil, err
	}
	var copts []practicum.Option
	if opts.HTTPClient != nil {
		copts = append(copts, practicum.WithHTTPClient(opts.HTTPClient))
	}
	a.client, err = practicum.New(pc, log.With(logx.String("comp", "practicum")), copts...)
	if err != nil {
		return nil, err
	}

	sender := opts.Sender
	if sender == nil {
		ncfg, err := mapNotifierConfig(cfg)
		if err != nil {
			return nil, err
		}
		ad, target, err := newAdapter(cfg, ncfg.SendTimeout, log)
		if err != nil {
			return nil, err
		}
		a.notif = notifier.New(ncfg, ad, target, log.With(logx.String("comp", "notifier")), a.bus)
		sender = a.notif
	}

	pcfg, err := mapPollerConfig(cfg)
	if err != nil {
		return nil, err
	}
	popts := []poller.Option{
		poller.WithBus(a.bus),
		poller.WithTickStartHook(a.beforeTick),
		poller.WithTickHook(a.afterTick),
	}
	if opts.Clock != nil {
		popts = append(popts, poller.WithClock(opts.Clock))
	}
	a.poll = poller.New(pcfg, a.client, sender, log.With(logx.String("comp", "poller")), popts...)

	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		a.store = st
		a.log.Info("journal enabled", logx.String("driver", sc.Driver))
	}
	return a, nil
}

// Poller exposes the poll loop (once mode, tests).
func (a *App) Poller() *poller.Poller { return a.poll }

// Bus exposes the event bus.
func (a *App) Bus() eventbus.Bus { return a.bus }

// Start announces the bot and launches the poll loop, the journal and the
// config watcher under a supervisor. A failed announcement is logged and
// does not prevent startup.
func (a *App) Start(ctx context.Context) error {
	if a.sup != nil {
		return errors.New("app already started")
	}
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)

	if a.store != nil {
		a.journal = newJournal(a.bus, a.store, a.log.With(logx.String("comp", "journal")))
		a.sup.Go0("journal", a.journal.run)
	}

	_ = a.poll.Announce(a.sup.Context())

	a.sup.Go("poller", a.poll.Run)

	if m := a.opts.Manager; m != nil {
		a.watchConfig(m)
	}

	if iv := a.sd.WatchdogInterval(); iv > 0 {
		a.sup.Go0("watchdog", func(ctx context.Context) {
			t := time.NewTicker(iv / 2)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					a.feedWatchdog(time.Now())
				}
			}
		})
	}

	if ok, err := a.sd.Ready(); err != nil {
		a.log.Warn("sd_notify ready failed", logx.Err(err))
	} else if ok {
		a.log.Debug("sd_notify ready sent")
	}
	a.log.Info("bot started",
		logx.String("interval", a.cfg.Poll.Interval),
		logx.Int("lookback_days", a.cfg.Poll.LookbackDays))
	return nil
}

func (a *App) watchConfig(m *config.Manager) {
	ch := m.Subscribe(1)
	a.sup.GoRestart("config.watch", m.Watch, 250*time.Millisecond, 5*time.Second)
	a.sup.Go0("config.apply", func(ctx context.Context) {
		defer m.Unsubscribe(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case cfg, ok := <-ch:
				if !ok {
					return
				}
				if a.opts.Logs != nil {
					a.opts.Logs.Apply(LogConfig(cfg))
				}
				a.log.Info("logging config applied", logx.String("level", cfg.Logging.Level))
			}
		}
	})
}

// Done is closed when the app stops, either by Stop or on a fatal error.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// RunOnce performs a single tick without the startup announcement.
func (a *App) RunOnce(ctx context.Context) poller.TickReport {
	if a.store != nil && a.journal == nil {
		a.journal = newJournal(a.bus, a.store, a.log.With(logx.String("comp", "journal")))
		jctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() { defer close(done); a.journal.run(jctx) }()
		defer func() { cancel(); <-done }()
	}
	return a.poll.Tick(ctx)
}

// progressing reports whether the poll loop is idle between ticks or inside
// a tick younger than TickStallLimit.
func (a *App) progressing(now time.Time) bool {
	started := a.tickStarted.Load()
	return started == 0 || now.Sub(time.Unix(0, started)) < TickStallLimit
}

// feedWatchdog pets the systemd watchdog only while the loop makes progress.
func (a *App) feedWatchdog(now time.Time) bool {
	if !a.progressing(now) {
		if !a.stalled.Swap(true) {
			a.log.Error("poll tick stalled; withholding watchdog", logx.Duration("limit", TickStallLimit))
		}
		return false
	}
	_, _ = a.sd.Watchdog()
	return true
}

// Stop cancels every goroutine and waits for them, bounded by ctx.
func (a *App) Stop(ctx context.Context) error {
	if _, err := a.sd.Stopping(); err != nil {
		a.log.Debug("sd_notify stopping failed", logx.Err(err))
	}

	var err error
	if a.sup != nil {
		if werr := a.sup.Stop(ctx); werr != nil && !errors.Is(werr, context.Canceled) {
			err = werr
		}
	}
	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close journal: %w", cerr)
		}
	}
	a.log.Info("bot stopped")
	return err
}

func (a *App) beforeTick(uint64) {
	a.tickStarted.Store(time.Now().UnixNano())
}

func (a *App) afterTick(rep poller.TickReport) {
	a.tickStarted.Store(0)
	a.stalled.Store(false)
	_, _ = a.sd.Watchdog()
	if rep.Err != nil {
		_, _ = a.sd.Status("last tick failed: " + rep.Err.Error())
		return
	}
	_, _ = a.sd.Status(fmt.Sprintf("homeworks=%d delivered=%d", rep.Records, rep.Delivered))
}
