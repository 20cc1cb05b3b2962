package cmon

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-shload/transport"
)

// ErrCancelled is returned, joined with the context error, when a transfer
// or pass-through is cancelled.
var ErrCancelled = errors.New("handshake cancelled")

// ErrNotHandedOff is returned by Follow before the handoff was reached.
var ErrNotHandedOff = errors.New("execution handoff not reached")

// TimeoutError reports a wait that did not complete in time.
type TimeoutError struct {
	// State is the handshake state when the wait expired
	State State

	// Waiting describes the awaited byte
	Waiting string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out in state %s waiting for %s", e.State, e.Waiting)
}

// Unwrap allows errors.Is(err, transport.ErrTimeout).
func (e *TimeoutError) Unwrap() error {
	return transport.ErrTimeout
}
