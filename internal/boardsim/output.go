// Package boardsim simulates the two ROM monitors found on SuperH boards:
// the GDB-style SH Advanced Monitor and CMON. Both implement
// transport.Transport, so sessions can be exercised without hardware.
//
// Time is simulated. The simulators are driven synchronously by the bytes
// written to them, and a read from an empty output queue times out at once
// instead of waiting for the deadline.
package boardsim

import (
	"context"
	"sync"
	"time"

	"github.com/moffa90/go-shload/transport"
)

// output is the queue of bytes the board has sent but the host not yet read.
type output struct {
	mu  sync.Mutex
	buf []byte
}

func (o *output) push(b ...byte) {
	o.mu.Lock()
	o.buf = append(o.buf, b...)
	o.mu.Unlock()
}

func (o *output) pushString(s string) {
	o.push([]byte(s)...)
}

func (o *output) pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.buf)
}

// readByte pops one byte. With nothing queued it returns transport.ErrTimeout
// for a positive timeout and otherwise waits for ctx.
func (o *output) readByte(ctx context.Context, timeout time.Duration) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	o.mu.Lock()
	if len(o.buf) > 0 {
		b := o.buf[0]
		o.buf = o.buf[1:]
		o.mu.Unlock()
		return b, nil
	}
	o.mu.Unlock()

	if timeout > 0 {
		return 0, transport.ErrTimeout
	}
	<-ctx.Done()
	return 0, ctx.Err()
}
