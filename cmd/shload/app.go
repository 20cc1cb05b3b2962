package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/moffa90/go-shload/cmon"
	"github.com/moffa90/go-shload/console"
	"github.com/moffa90/go-shload/monitor"
	"github.com/moffa90/go-shload/transport"
)

// openLink opens the configured port.
func openLink() (transport.Closer, error) {
	link, err := transport.Open(cli.settings.Port, cli.settings.Baud)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", cli.settings.Port, err)
	}
	return link, nil
}

// newSession creates a monitor session with the configured parameters.
// Loads print a dot per chunk to progress.
func newSession(link transport.Transport, progress io.Writer, extra ...monitor.Option) *monitor.Session {
	s := cli.settings
	opts := []monitor.Option{
		monitor.WithLogger(cli.logger),
		monitor.WithSendTimeout(time.Duration(s.SendTimeout)),
		monitor.WithReceiveTimeout(time.Duration(s.ReceiveTimeout)),
		monitor.WithChunkSize(s.ChunkSize),
		monitor.WithVerifyChecksum(s.VerifyChecksum),
		monitor.WithProgressCallback(func(p monitor.Progress) {
			switch p.Phase {
			case monitor.PhaseLoading:
				fmt.Fprint(progress, ".")
			case monitor.PhaseComplete:
				fmt.Fprintln(progress)
			}
		}),
	}
	return monitor.New(link, append(opts, extra...)...)
}

// newLoader creates a CMON loader with the configured parameters.
func newLoader(link transport.Transport, progress io.Writer) *cmon.Loader {
	s := cli.settings
	return cmon.New(link,
		cmon.WithLogger(cli.logger),
		cmon.WithWakeTimeout(time.Duration(s.WakeTimeout)),
		cmon.WithByteTimeout(time.Duration(s.ByteTimeout)),
		cmon.WithProgressCallback(func(cmon.Progress) {
			fmt.Fprint(progress, ".")
		}),
	)
}

// charset returns the configured console charset. Settings were validated.
func charset() console.Charset {
	c, _ := console.ParseCharset(cli.settings.Charset)
	return c
}

var (
	stdinOnce sync.Once
	stdinTTY  *console.Terminal
	stdinKeys *console.Keyboard
)

// operator returns the terminal on stdin and the keyboard reading it. The
// menu and every terminal session share the one keyboard.
func operator() (*console.Terminal, *console.Keyboard) {
	stdinOnce.Do(func() {
		stdinTTY = console.NewTerminal(os.Stdin)
		stdinKeys = console.NewKeyboard(stdinTTY)
	})
	return stdinTTY, stdinKeys
}

// terminal relays the board console to the operator until Ctrl-] or ctx
// is done.
func terminal(ctx context.Context, link transport.Transport, out io.Writer) error {
	tty, keys := operator()
	if err := tty.MakeRaw(); err != nil {
		return err
	}
	defer func() { _ = tty.Restore() }()

	w := console.NewWriter(out, charset())
	defer func() { _ = w.Close() }()

	fmt.Fprint(out, "Terminal on serial port. Press Ctrl-] to leave.\r\n")
	p := &console.Passthrough{
		Link:    link,
		In:      keys,
		Out:     w,
		Charset: charset(),
		Escape:  console.DefaultEscape,
	}
	return p.Run(ctx)
}

// resetWindow counts down while the operator resets the board.
func resetWindow(ctx context.Context, out io.Writer, window time.Duration) error {
	if window <= 0 {
		return nil
	}

	fmt.Fprintf(out, "\n\nPlease reset the board within the next %s", window)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return errors.Join(cmon.ErrCancelled, ctx.Err())
		case <-ticker.C:
			fmt.Fprint(out, ".")
		}
	}
	fmt.Fprintln(out)
	return nil
}

// cmonDownload sends the S-record file at path to a board running CMON and
// follows the program's output on out until ctx is cancelled.
func cmonDownload(ctx context.Context, link transport.Transport, path string, out io.Writer) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not open file %s: %w", path, err)
	}

	if err := resetWindow(ctx, out, time.Duration(cli.settings.ResetWindow)); err != nil {
		return err
	}

	// Stale bytes would be mistaken for the wake byte.
	if r, ok := link.(interface{ ResetInput() error }); ok {
		if err := r.ResetInput(); err != nil {
			return err
		}
	}

	loader := newLoader(link, os.Stderr)
	res, err := loader.Transfer(ctx, image)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\nDone loading %d bytes. Running...\n\n\n", res.BytesSent)

	w := console.NewWriter(out, charset())
	defer func() { _ = w.Close() }()
	return loader.Follow(ctx, w)
}
