package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "hwbot/pkg/logx"
)

// fileStore appends JSON Lines to two files next to Path:
//   - <prefix>.ticks.jsonl
//   - <prefix>.deliveries.jsonl
type fileStore struct {
	log logx.Logger

	mu         sync.Mutex
	ticks      *os.File
	deliveries *os.File
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	tf, err := os.OpenFile(prefix+".ticks.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	df, err := os.OpenFile(prefix+".deliveries.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		_ = tf.Close()
		return nil, err
	}
	log.Debug("file journal opened", logx.String("prefix", prefix))
	return &fileStore{log: log, ticks: tf, deliveries: df}, nil
}

func (s *fileStore) AppendTick(ctx context.Context, e TickEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	return s.appendLine(ctx, func() *os.File { return s.ticks }, e)
}

func (s *fileStore) AppendDelivery(ctx context.Context, e DeliveryEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	return s.appendLine(ctx, func() *os.File { return s.deliveries }, e)
}

func (s *fileStore) appendLine(ctx context.Context, pick func() *os.File, v any) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	f := pick()
	if f == nil {
		return ErrDisabled
	}
	_, err = f.Write(b)
	return err
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, f := range []*os.File{s.ticks, s.deliveries} {
		if f != nil {
			if err := f.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	s.ticks, s.deliveries = nil, nil
	return errors.Join(errs...)
}
