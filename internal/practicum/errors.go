package practicum

import "fmt"

// TransportError wraps connection-level failures (DNS, TLS, timeouts, reads).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("homework api unreachable: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is returned when the endpoint answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("homework api returned status %d", e.Code)
}

// DecodeError is returned when a 200 response does not carry valid JSON.
type DecodeError struct {
	Body string
}

func (e *DecodeError) Error() string { return "homework api returned malformed json" }
