package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// streamBufferSize bounds how far the reader goroutine runs ahead.
const streamBufferSize = 4096

// Stream adapts a blocking io.ReadWriter to Transport. A background goroutine
// reads the underlying stream so that ReadByte can honor timeouts and
// cancellation.
type Stream struct {
	rw io.ReadWriter

	bytes  chan byte
	done   chan struct{}
	closed chan struct{}
	err    error

	once      sync.Once
	closeOnce sync.Once
}

// NewStream wraps rw. Reading starts on the first ReadByte.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{
		rw:    rw,
		bytes:  make(chan byte, streamBufferSize),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
}

// Dial connects to a raw TCP terminal server such as ser2net.
func Dial(addr string) (*Stream, error) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewStream(conn), nil
}

func (s *Stream) start() {
	s.once.Do(func() {
		go s.readLoop()
	})
}

func (s *Stream) readLoop() {
	defer close(s.done)

	buf := make([]byte, 256)
	for {
		n, err := s.rw.Read(buf)
		for _, b := range buf[:n] {
			select {
			case s.bytes <- b:
			case <-s.closed:
				return
			}
		}
		if err != nil {
			s.err = err
			return
		}
	}
}

// ReadByte implements Transport.
func (s *Stream) ReadByte(ctx context.Context, timeout time.Duration) (byte, error) {
	s.start()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	// Buffered bytes are delivered before a read error is reported.
	select {
	case b := <-s.bytes:
		return b, nil
	default:
	}

	select {
	case b := <-s.bytes:
		return b, nil
	case <-s.done:
		select {
		case b := <-s.bytes:
			return b, nil
		default:
		}
		if s.err == nil {
			return 0, io.EOF
		}
		return 0, s.err
	case <-expired:
		return 0, ErrTimeout
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Write implements Transport.
func (s *Stream) Write(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.rw.Write(p)
}

// Close stops the reader goroutine and closes the underlying stream if it
// is closable.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		if c, ok := s.rw.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}
