package console

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-shload/transport"
)

// DefaultEscape is Ctrl-], which ends a pass-through session as in telnet.
const DefaultEscape byte = 0x1d

// pollInterval bounds how long a board read blocks before keystrokes are
// forwarded.
const pollInterval = 20 * time.Millisecond

// Passthrough relays the board's console to the operator.
type Passthrough struct {
	// Link is the board connection
	Link transport.Transport

	// In supplies keystrokes, typically a Keyboard over a raw Terminal
	In *Keyboard

	// Out receives board output, typically a charset Writer on stdout
	Out io.Writer

	// Charset is used to encode keystrokes for the board
	Charset Charset

	// Escape ends the session when typed. Zero disables it.
	Escape byte
}

// Run relays in both directions until the escape byte is typed, the
// keyboard reaches EOF, or ctx is done. Input following the escape byte is
// left on the keyboard for the next reader. The link is only touched from
// the calling goroutine.
func (p *Passthrough) Run(ctx context.Context) error {
	for {
		chunk, err := p.In.poll()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read keyboard: %w", err)
		}
		if len(chunk) > 0 {
			done := false
			if p.Escape != 0 {
				if i := bytes.IndexByte(chunk, p.Escape); i >= 0 {
					p.In.unread(chunk[i+1:])
					chunk, done = chunk[:i], true
				}
			}
			if err := p.send(ctx, chunk); err != nil {
				return err
			}
			if done {
				return nil
			}
			continue
		}

		b, err := p.Link.ReadByte(ctx, pollInterval)
		if errors.Is(err, transport.ErrTimeout) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read board: %w", err)
		}
		if _, err := p.Out.Write([]byte{b}); err != nil {
			return fmt.Errorf("write console: %w", err)
		}
	}
}

func (p *Passthrough) send(ctx context.Context, chunk []byte) error {
	data := chunk
	if p.Charset != "" && p.Charset != UTF8 {
		data = EncodeTo(p.Charset, string(chunk))
	}
	for len(data) > 0 {
		n, err := p.Link.Write(ctx, data)
		if err != nil {
			return fmt.Errorf("write board: %w", err)
		}
		data = data[n:]
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	return nil
}
