// Package transport provides the byte-oriented duplex link between the host
// and the board.
//
// Both board protocols are strictly half-duplex and byte-granular, so the
// only primitives are a single-byte read bounded by a deadline and a write.
// Two implementations are provided: Serial for a local UART and Stream for
// any io.ReadWriter such as a TCP terminal server or an in-memory pipe.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrTimeout is returned by ReadByte when no byte arrived before the timeout.
var ErrTimeout = errors.New("read timed out")

// Transport is a duplex byte link to the board.
//
// Implementations are not safe for concurrent use by multiple protocol
// sessions; one session owns the transport at a time.
type Transport interface {
	// ReadByte blocks until one byte is available, the timeout elapses
	// (ErrTimeout) or ctx is done (ctx.Err()). A timeout <= 0 waits until
	// ctx is done.
	ReadByte(ctx context.Context, timeout time.Duration) (byte, error)

	// Write sends p and returns how many bytes the link accepted. A short
	// count with a nil error means the link would block and the caller may
	// retry the remainder.
	Write(ctx context.Context, p []byte) (int, error)
}

// Default link parameters of the SH Advanced Monitor.
const (
	DefaultPort = "/dev/cua00"
	DefaultBaud = 9600
)

// SupportedBauds lists the rates accepted by the monitor.
var SupportedBauds = []int{9600, 19200, 38400}

// ValidBaud reports whether baud is one of SupportedBauds.
func ValidBaud(baud int) bool {
	for _, b := range SupportedBauds {
		if b == baud {
			return true
		}
	}
	return false
}

// Closer is a Transport that owns an underlying resource.
type Closer interface {
	Transport
	Close() error
}

// tcpScheme selects a raw TCP terminal server instead of a local port.
const tcpScheme = "tcp://"

// Open opens the named link. Names of the form tcp://host:port dial a
// terminal server (baud is then configured on the server side); anything
// else is a local serial device.
func Open(name string, baud int) (Closer, error) {
	if strings.HasPrefix(name, tcpScheme) {
		return Dial(strings.TrimPrefix(name, tcpScheme))
	}

	s, err := OpenSerial(name, baud)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Drain discards pending input until the link has been quiet for quiet.
// Returns the number of bytes discarded.
func Drain(ctx context.Context, t Transport, quiet time.Duration) (int, error) {
	n := 0
	for {
		_, err := t.ReadByte(ctx, quiet)
		if errors.Is(err, ErrTimeout) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("drain: %w", err)
		}
		n++
	}
}
