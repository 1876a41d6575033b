package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free JSON Lines files
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// TickEntry summarizes one poll iteration.
type TickEntry struct {
	At         time.Time `json:"at"`
	Seq        uint64    `json:"seq"`
	WindowFrom int64     `json:"window_from"`
	Records    int       `json:"records"`
	Changes    int       `json:"changes"`
	Skipped    int       `json:"skipped"`
	Delivered  int       `json:"delivered"`
	Error      string    `json:"error,omitempty"`
	TookMS     int64     `json:"took_ms"`
}

// DeliveryEntry records one outbound message attempt.
type DeliveryEntry struct {
	At      time.Time `json:"at"`
	Channel string    `json:"channel"`
	Target  string    `json:"target"`
	Text    string    `json:"text"`
	OK      bool      `json:"ok"`
	Error   string    `json:"error,omitempty"`
	TookMS  int64     `json:"took_ms"`
}
