package notifier

import (
	"fmt"
	"time"
)

// Config controls delivery.
type Config struct {
	// RatePerSec caps outbound messages; bursts up to the same value.
	RatePerSec int
	// SendTimeout bounds one adapter call. 0 means DefaultSendTimeout.
	SendTimeout time.Duration
	// DisablePreview turns off link previews where the channel supports it.
	DisablePreview bool
}

const (
	DefaultRatePerSec  = 1
	DefaultSendTimeout = 10 * time.Second
)

// DeliveryError reports a message that could not be delivered.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// NotificationEvent is emitted on the event bus for each delivery attempt.
type NotificationEvent struct {
	Channel string        `json:"channel"`
	Target  string        `json:"target"`
	Text    string        `json:"text"`
	At      time.Time     `json:"at"`
	Took    time.Duration `json:"took"`
	Error   string        `json:"error,omitempty"`
}
