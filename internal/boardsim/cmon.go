package boardsim

import (
	"context"
	"strings"
	"sync"
	"time"
)

// CMON protocol bytes, as seen from the board.
const (
	cmonWake   byte = 0x05
	cmonAck    byte = 0x06
	cmonPrompt byte = '>'
)

// CMONBanner is sent after the trigger byte. The magic L, O and x are
// interleaved with noise the host has to skip.
const CMONBanner = "\r\nCMON v3.4 ready L O x"

type cmonPhase int

const (
	phaseCommand cmonPhase = iota // waiting for the load command line
	phaseWoken                    // wake sent, waiting for '*'
	phaseReceiving                // echoing the image
	phaseFinishing                // prompt sent, waiting for ACK
	phaseAwaitNewline             // ACK received, waiting for '\n'
	phaseCommandLine              // prompt sent, echoing the go command
	phaseRunning                  // program started
)

// CMON simulates a board running the CMON monitor in download mode.
type CMON struct {
	// Echo controls whether image bytes are echoed. A board that never
	// echoes stalls the host.
	Echo bool

	// ProgramOutput is sent once the go command has been echoed
	ProgramOutput string

	out output

	mu       sync.Mutex
	phase    cmonPhase
	line     []byte
	image    []byte
	received []byte
}

// NewCMON returns an echoing CMON that wakes when it receives a load command
// line starting with 'l'.
func NewCMON() *CMON {
	return &CMON{Echo: true}
}

// Wake sends the wake byte without waiting for a load command, as a board
// reset into download mode does.
func (c *CMON) Wake() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = phaseWoken
	c.out.push(cmonWake)
}

// ReadByte implements transport.Transport.
func (c *CMON) ReadByte(ctx context.Context, timeout time.Duration) (byte, error) {
	return c.out.readByte(ctx, timeout)
}

// Write implements transport.Transport.
func (c *CMON) Write(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range p {
		c.received = append(c.received, b)
		c.consume(b)
	}
	return len(p), nil
}

// Image returns the image bytes received during download.
func (c *CMON) Image() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.image...)
}

// Received returns every byte the host wrote, in order.
func (c *CMON) Received() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.received...)
}

// Running reports whether the downloaded program was started.
func (c *CMON) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == phaseRunning
}

func (c *CMON) consume(b byte) {
	switch c.phase {
	case phaseCommand:
		if b != '\n' {
			c.line = append(c.line, b)
			return
		}
		if strings.HasPrefix(string(c.line), "l") {
			c.phase = phaseWoken
			c.out.push(cmonWake)
		}
		c.line = c.line[:0]

	case phaseWoken:
		if b == '*' {
			c.phase = phaseReceiving
			c.out.pushString(CMONBanner)
		}

	case phaseReceiving:
		c.image = append(c.image, b)
		if c.Echo {
			c.out.push(b)
		}
		c.line = append(c.line, b)
		if b == '\n' {
			// A termination record ends input mode.
			if isTermination(c.line) {
				c.phase = phaseFinishing
				c.out.push(cmonPrompt)
			}
			c.line = c.line[:0]
		}

	case phaseFinishing:
		if b == cmonAck {
			c.phase = phaseAwaitNewline
		}

	case phaseAwaitNewline:
		if b == '\n' {
			c.phase = phaseCommandLine
			c.out.pushString("\r\n")
			c.out.push(cmonPrompt)
		}

	case phaseCommandLine:
		c.out.push(b)
		if b == '\n' {
			c.phase = phaseRunning
			c.out.pushString(c.ProgramOutput)
		}
	}
}

func isTermination(line []byte) bool {
	return len(line) >= 2 && line[0] == 'S' && (line[1] == '7' || line[1] == '8' || line[1] == '9')
}
