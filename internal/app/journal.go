package app

import (
	"context"
	"time"

	"hwbot/internal/eventbus"
	"hwbot/internal/notifier"
	"hwbot/internal/poller"
	"hwbot/internal/storage"
	logx "hwbot/pkg/logx"
)

// journal copies bus events into the store. The store is write-only.
type journal struct {
	store storage.Store
	log   logx.Logger
	ch    <-chan eventbus.Event
	unsub func()
}

func newJournal(bus eventbus.Bus, store storage.Store, log logx.Logger) *journal {
	ch, unsub := bus.Subscribe(64)
	return &journal{store: store, log: log, ch: ch, unsub: unsub}
}

func (j *journal) run(ctx context.Context) {
	defer j.unsub()
	for {
		select {
		case <-ctx.Done():
			j.drain()
			return
		case ev, ok := <-j.ch:
			if !ok {
				return
			}
			j.write(ev)
		}
	}
}

// drain flushes what is already buffered so the last tick is not lost.
func (j *journal) drain() {
	for {
		select {
		case ev, ok := <-j.ch:
			if !ok {
				return
			}
			j.write(ev)
		default:
			return
		}
	}
}

func (j *journal) write(ev eventbus.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var err error
	switch d := ev.Data.(type) {
	case poller.TickReport:
		e := storage.TickEntry{
			At:         d.At,
			Seq:        d.Seq,
			WindowFrom: d.Window.Unix(),
			Records:    d.Records,
			Changes:    d.Changes,
			Skipped:    d.Skipped,
			Delivered:  d.Delivered,
			TookMS:     d.Took.Milliseconds(),
		}
		if d.Err != nil {
			e.Error = d.Err.Error()
		}
		err = j.store.AppendTick(ctx, e)
	case notifier.NotificationEvent:
		err = j.store.AppendDelivery(ctx, storage.DeliveryEntry{
			At:      d.At,
			Channel: d.Channel,
			Target:  d.Target,
			Text:    d.Text,
			OK:      ev.Type == eventbus.TypeNotifySent,
			Error:   d.Error,
			TookMS:  d.Took.Milliseconds(),
		})
	default:
		return
	}
	if err != nil {
		j.log.Warn("journal write failed", logx.String("type", ev.Type), logx.Err(err))
	}
}
