package monitor

import (
	"context"
	"time"

	"github.com/moffa90/go-shload/protocol"
	"github.com/moffa90/go-shload/transport"
)

// MockLink simulates the monitor end of the serial line. Every complete
// packet written to it queues the reply produced by Reply.
type MockLink struct {
	// Reply returns the bytes the board sends for a command, or nil for
	// silence. Defaults to an acknowledged OK.
	Reply func(cmd string) []byte

	// AcceptNothing makes every write accept zero bytes.
	AcceptNothing bool

	// FailPacket makes writes fail once packet number FailPacket (0-based)
	// starts. Negative disables.
	FailPacket int
	FailErr    error

	written  []byte
	commands []string
	input    []byte

	packets int
	inBody  bool
	trailer int
	body    []byte
}

func NewMockLink() *MockLink {
	return &MockLink{FailPacket: -1}
}

func okReply(string) []byte {
	return reply("OK")
}

// reply frames payload the way the monitor does: ack, packet, checksum.
func reply(payload string) []byte {
	return append([]byte("+"), protocol.BuildPacket(payload)...)
}

func (m *MockLink) ReadByte(ctx context.Context, timeout time.Duration) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(m.input) == 0 {
		return 0, transport.ErrTimeout
	}
	b := m.input[0]
	m.input = m.input[1:]
	return b, nil
}

func (m *MockLink) Write(ctx context.Context, p []byte) (int, error) {
	if m.AcceptNothing {
		return 0, nil
	}

	for i, b := range p {
		if b == protocol.StartOfPacket && !m.inBody && m.trailer == 0 {
			if m.FailPacket >= 0 && m.packets >= m.FailPacket {
				return i, m.FailErr
			}
		}
		m.written = append(m.written, b)
		m.track(b)
	}
	return len(p), nil
}

// Queue appends raw bytes to the board's output.
func (m *MockLink) Queue(b []byte) {
	m.input = append(m.input, b...)
}

func (m *MockLink) track(b byte) {
	switch {
	case m.trailer > 0:
		m.trailer--
		if m.trailer == 0 {
			cmd := string(m.body)
			m.commands = append(m.commands, cmd)
			m.packets++

			replyFn := m.Reply
			if replyFn == nil {
				replyFn = okReply
			}
			m.input = append(m.input, replyFn(cmd)...)
		}
	case m.inBody && b == protocol.EndOfPacket:
		m.inBody = false
		m.trailer = protocol.ChecksumSize
	case m.inBody:
		m.body = append(m.body, b)
	case b == protocol.StartOfPacket:
		m.inBody = true
		m.body = m.body[:0]
	}
}
