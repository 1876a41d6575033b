// Package storage provides an optional append-only journal used by the bot.
//
// It records:
//   - Poll ticks (window, counts, failure text)
//   - Notification deliveries (text, outcome)
//
// The journal is write-only from the bot's point of view; review history is
// never restored from it.
package storage
