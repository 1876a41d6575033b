// Package systemd reports service state to systemd via sd_notify.
// Every call is a no-op when the process is not started by systemd.
package systemd

import (
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends sd_notify state strings.
type Notifier struct {
	enabled bool
	// unsetEnv removes NOTIFY_SOCKET after the first call so children
	// do not inherit it. Only the final STOPPING call sets it.
	send func(unsetEnv bool, state string) (bool, error)
}

// New returns a notifier. A disabled notifier never touches the socket.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled, send: daemon.SdNotify}
}

func (n *Notifier) notify(state string, unset bool) (bool, error) {
	if n == nil || !n.enabled {
		return false, nil
	}
	return n.send(unset, state)
}

// Ready reports startup completion. The returned bool is false when no
// notify socket is present.
func (n *Notifier) Ready() (bool, error) { return n.notify(daemon.SdNotifyReady, false) }

// Watchdog pets the systemd watchdog.
func (n *Notifier) Watchdog() (bool, error) { return n.notify(daemon.SdNotifyWatchdog, false) }

// Stopping reports that shutdown has begun.
func (n *Notifier) Stopping() (bool, error) { return n.notify(daemon.SdNotifyStopping, true) }

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(s string) (bool, error) { return n.notify("STATUS="+s, false) }

// WatchdogInterval returns how often Watchdog must be called, or 0 when the
// unit has no WatchdogSec.
func (n *Notifier) WatchdogInterval() time.Duration {
	if n == nil || !n.enabled {
		return 0
	}
	d, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return 0
	}
	return d
}
