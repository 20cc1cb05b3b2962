package cmon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-shload/transport"
)

// writeRetryInterval is the pause between attempts when the link accepts
// zero bytes.
const writeRetryInterval = time.Millisecond

// Result summarizes a transfer.
type Result struct {
	// BytesSent is the number of image bytes echoed by CMON
	BytesSent int

	// Records is the number of S-record lines acknowledged
	Records int

	// States lists every state entered, starting with Idle
	States []State

	// Elapsed is the duration of the transfer
	Elapsed time.Duration
}

// Loader downloads images to a board running CMON.
//
// Loader is not safe for concurrent use.
type Loader struct {
	link    transport.Transport
	config  Config
	machine Machine
}

// New creates a Loader on link with the given options.
func New(link transport.Transport, opts ...Option) *Loader {
	if link == nil {
		panic("link cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Loader{
		link:    link,
		config:  cfg,
		machine: NewMachine(nil),
	}
}

// State returns the current handshake state.
func (l *Loader) State() State {
	return l.machine.State
}

// Transfer runs the handshake and streams image, the raw text of an
// S-record file, returning once the loaded program has been started.
//
// Every wait is bounded: the wake byte by WakeTimeout, everything after it
// by ByteTimeout per awaited byte. An expired wait returns a *TimeoutError;
// cancellation returns an error matching both ErrCancelled and the context
// error.
func (l *Loader) Transfer(ctx context.Context, image []byte) (*Result, error) {
	startTime := time.Now()
	l.machine = NewMachine(image)

	res := &Result{States: []State{Idle}}
	finish := func() {
		res.BytesSent = l.machine.Sent()
		res.Elapsed = time.Since(startTime)
	}

	if l.config.LoadCommand != "" {
		if err := l.write(ctx, []byte(l.config.LoadCommand)); err != nil {
			finish()
			return res, err
		}
	}

	deadline := time.Now().Add(l.config.WakeTimeout)
	for !l.machine.Done() {
		b, err := l.readByte(ctx, deadline)
		if err != nil {
			finish()
			l.logError("transfer failed", "state", l.machine.State.String(), "error", err)
			return res, err
		}

		prev := l.machine
		next, out := prev.Next(b)
		l.machine = next

		if len(out) > 0 {
			if err := l.write(ctx, out); err != nil {
				finish()
				return res, err
			}
		}

		if next.State != prev.State {
			res.States = append(res.States, next.State)
			l.logDebug("handshake state", "from", prev.State.String(), "to", next.State.String())
		}

		if next.Sent() > prev.Sent() && image[prev.Sent()] == Record {
			res.Records++
			l.reportProgress(Progress{
				State:       next.State,
				Records:     res.Records,
				BytesSent:   next.Sent(),
				TotalBytes:  len(image),
				Percentage:  float64(next.Sent()) / float64(len(image)) * 100,
				ElapsedTime: time.Since(startTime),
			})
		}

		if advanced(prev, next) {
			deadline = time.Now().Add(l.config.ByteTimeout)
		}
	}

	finish()
	l.logInfo("execution handoff reached",
		"bytes", res.BytesSent,
		"records", res.Records,
		"elapsed", res.Elapsed.String(),
	)
	return res, nil
}

// Follow copies everything the running program sends to w until ctx is
// cancelled or the program is silent for IdleTimeout.
func (l *Loader) Follow(ctx context.Context, w io.Writer) error {
	if !l.machine.Done() {
		return ErrNotHandedOff
	}

	buf := []byte{0}
	for {
		b, err := l.link.ReadByte(ctx, l.config.IdleTimeout)
		if errors.Is(err, transport.ErrTimeout) {
			return &TimeoutError{State: ExecutionHandoff, Waiting: l.machine.Waiting()}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(ErrCancelled, ctxErr)
		}
		if err != nil {
			return fmt.Errorf("pass-through: %w", err)
		}

		buf[0] = b
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("pass-through: %w", err)
		}
	}
}

// Run transfers image and then follows the program's output on w.
func (l *Loader) Run(ctx context.Context, image []byte, w io.Writer) (*Result, error) {
	res, err := l.Transfer(ctx, image)
	if err != nil {
		return res, err
	}
	return res, l.Follow(ctx, w)
}

// advanced reports whether a transition made progress, which restarts the
// wait deadline. Discarded noise does not.
func advanced(prev, next Machine) bool {
	return next.State != prev.State ||
		next.pos != prev.pos ||
		next.magic != prev.magic ||
		next.step != prev.step
}

func (l *Loader) readByte(ctx context.Context, deadline time.Time) (byte, error) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0, l.timeout()
	}

	b, err := l.link.ReadByte(ctx, remaining)
	if errors.Is(err, transport.ErrTimeout) {
		return 0, l.timeout()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, errors.Join(ErrCancelled, ctxErr)
	}
	if err != nil {
		return 0, fmt.Errorf("read in state %s: %w", l.machine.State, err)
	}
	return b, nil
}

// write sends p completely. Zero-byte writes are retried for ByteTimeout.
func (l *Loader) write(ctx context.Context, p []byte) error {
	deadline := time.Now().Add(l.config.ByteTimeout)
	for len(p) > 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(ErrCancelled, ctxErr)
		}

		n, err := l.link.Write(ctx, p)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return errors.Join(ErrCancelled, ctxErr)
			}
			return fmt.Errorf("write in state %s: %w", l.machine.State, err)
		}
		p = p[n:]

		if n == 0 {
			if !time.Now().Before(deadline) {
				return &TimeoutError{State: l.machine.State, Waiting: "link to accept data"}
			}
			time.Sleep(writeRetryInterval)
		}
	}
	return nil
}

func (l *Loader) timeout() error {
	return &TimeoutError{State: l.machine.State, Waiting: l.machine.Waiting()}
}

// reportProgress calls the progress callback if configured.
func (l *Loader) reportProgress(progress Progress) {
	if l.config.ProgressCallback != nil {
		l.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (l *Loader) logDebug(msg string, keysAndValues ...interface{}) {
	if l.config.Logger != nil {
		l.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (l *Loader) logInfo(msg string, keysAndValues ...interface{}) {
	if l.config.Logger != nil {
		l.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (l *Loader) logError(msg string, keysAndValues ...interface{}) {
	if l.config.Logger != nil {
		l.config.Logger.Error(msg, keysAndValues...)
	}
}
