package console

import (
	"errors"
	"fmt"
)

// ErrQuit is returned when the operator asks to leave. It is not a failure.
var ErrQuit = errors.New("quit")

// errReconnect ends a session that should be retried after the reconnect delay.
var errReconnect = errors.New("reconnect")

// TransportError is a fault on the connection itself: dial, read, write or idle timeout.
type TransportError struct {
	Kind string // "dial", "read", "write", "timeout"
	Err  error
}

func (e *TransportError) Error() string {
	return e.Kind + " - " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is an error notice sent by the panel.
type RemoteError struct {
	Text string
}

func (e *RemoteError) Error() string { return e.Text }

// ProtocolError means a frame did not have the agreed shape. Never retried.
type ProtocolError struct {
	Payload []byte
	Err     error
}

func (e *ProtocolError) Error() string {
	p := e.Payload
	if len(p) > 200 {
		p = p[:200]
	}
	return fmt.Sprintf("malformed console message %q: %v", p, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// TooManyErrorsError ends the program once the error counter passes its limit.
type TooManyErrorsError struct {
	Count int
	Cause error
}

func (e *TooManyErrorsError) Error() string {
	return fmt.Sprintf("too many console errors (%d): %v", e.Count, e.Cause)
}

func (e *TooManyErrorsError) Unwrap() error { return e.Cause }
