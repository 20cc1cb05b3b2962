package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportExhausted is returned when a packet could not be written
	// before the send budget ran out.
	ErrTransportExhausted = errors.New("transport exhausted")

	// ErrTimeout is returned when no terminator arrived before the receive
	// deadline.
	ErrTimeout = errors.New("timed out waiting for reply")

	// ErrTruncatedChecksum is returned when a reply was terminated but its
	// checksum bytes did not follow. The reply itself was received.
	ErrTruncatedChecksum = errors.New("reply checksum missing")

	// ErrResponseTooLarge is returned when a reply exceeds the configured
	// ceiling before its terminator.
	ErrResponseTooLarge = errors.New("reply exceeds maximum size")
)

// ProtocolError represents an error reply (Exx) from the monitor.
type ProtocolError struct {
	// Operation is the command that failed
	Operation string

	// Code is the two-digit error number reported by the monitor
	Code byte
}

func (e *ProtocolError) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("monitor error E%02x", e.Code)
	}
	return fmt.Sprintf("%s failed: monitor error E%02x", e.Operation, e.Code)
}

// IsProtocolError returns true if the error is, or wraps, a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// ChecksumError indicates a reply whose trailing checksum did not match its
// payload. Only reported when reply verification is enabled.
type ChecksumError struct {
	Expected [ChecksumSize]byte
	Actual   [ChecksumSize]byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("reply checksum mismatch: expected %s, got %s",
		string(e.Expected[:]), string(e.Actual[:]))
}

// FrameError describes a packet that does not follow the $...#cc layout.
type FrameError struct {
	Reason string
}

func (e *FrameError) Error() string {
	return "malformed packet: " + e.Reason
}
