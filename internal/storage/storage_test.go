package storage

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "hwbot/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = %v, %v; want nil, nil", driver, st, err)
		}
	}
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestFileStoreAppends(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "journal.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	if err := st.AppendTick(ctx, TickEntry{Seq: 1, Records: 2, Changes: 1}); err != nil {
		t.Fatalf("AppendTick: %v", err)
	}
	if err := st.AppendDelivery(ctx, DeliveryEntry{Channel: "telegram", Target: "1", Text: "hi", OK: true}); err != nil {
		t.Fatalf("AppendDelivery: %v", err)
	}
	if err := st.AppendDelivery(ctx, DeliveryEntry{Channel: "telegram", Target: "1", Text: "boom", Error: "timeout"}); err != nil {
		t.Fatalf("AppendDelivery: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "journal.deliveries.jsonl"))
	if len(lines) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(lines))
	}
	var d DeliveryEntry
	if err := json.Unmarshal([]byte(lines[1]), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.OK || d.Error != "timeout" || d.At.IsZero() {
		t.Fatalf("unexpected entry: %+v", d)
	}
	if n := len(readLines(t, filepath.Join(dir, "journal.ticks.jsonl"))); n != 1 {
		t.Fatalf("ticks = %d, want 1", n)
	}

	if err := st.AppendTick(ctx, TickEntry{}); err != ErrDisabled {
		t.Fatalf("append after close = %v, want ErrDisabled", err)
	}
}

func TestSQLiteStoreAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hwbot.sqlite")
	st, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	if err := st.AppendTick(ctx, TickEntry{Seq: 3, WindowFrom: 100, Error: "homework api returned status 500"}); err != nil {
		t.Fatalf("AppendTick: %v", err)
	}
	if err := st.AppendDelivery(ctx, DeliveryEntry{Channel: "slack", Target: "C1", Text: "hi", OK: true}); err != nil {
		t.Fatalf("AppendDelivery: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM deliveries WHERE ok = 1`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("deliveries = %d, %v", n, err)
	}
	var msg string
	if err := db.QueryRow(`SELECT err FROM ticks WHERE seq = 3`).Scan(&msg); err != nil || msg == "" {
		t.Fatalf("tick err = %q, %v", msg, err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}
