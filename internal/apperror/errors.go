// Package apperror defines the error taxonomy shared across the client.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when a send is attempted while the
	// connection is not open. Commands are never queued while disconnected.
	ErrNotConnected = errors.New("connection is not open")

	// ErrMalformedMessage marks an inbound message that could not be decoded.
	ErrMalformedMessage = errors.New("malformed server message")

	// ErrOutOfBounds marks a cell access outside the 8x8 board.
	ErrOutOfBounds = errors.New("cell is out of bounds")
)

// UnknownEventError reports an inbound event whose name has no registered
// handler. Unknown events are logged and discarded, never silently ignored.
type UnknownEventError struct {
	Event string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown server event %q", e.Event)
}
