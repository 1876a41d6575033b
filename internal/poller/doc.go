// Package poller runs the fetch, validate, diff and notify cycle.
//
// A Poller owns the review history and the query window. Ticks run strictly
// one after another; the only suspension point is the wait for the next
// scheduled tick. Any fault inside a tick is logged, turned into a best-effort
// failure notification and contained, so the loop keeps running until its
// context is canceled.
package poller
