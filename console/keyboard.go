package console

import (
	"io"
	"sync"
)

// Keyboard reads operator input on a single goroutine that lives as long as
// the underlying reader. The interactive menu and every pass-through session
// share it, so input typed after a session ends reaches the next reader.
type Keyboard struct {
	chunks chan []byte
	done   chan struct{}
	err    error

	mu      sync.Mutex
	pending []byte
}

// NewKeyboard starts reading r. Create one Keyboard per input stream.
func NewKeyboard(r io.Reader) *Keyboard {
	k := &Keyboard{
		chunks: make(chan []byte),
		done:   make(chan struct{}),
	}
	go k.readLoop(r)
	return k
}

func (k *Keyboard) readLoop(r io.Reader) {
	defer close(k.done)

	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			k.chunks <- append([]byte(nil), buf[:n]...)
		}
		if err != nil {
			k.err = err
			return
		}
	}
}

// Read implements io.Reader. It blocks until input is available.
func (k *Keyboard) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	chunk, err := k.receive(true)
	if err != nil {
		return 0, err
	}
	n := copy(p, chunk)
	k.unread(chunk[n:])
	return n, nil
}

// poll returns pending input without blocking. Both results are nil when
// nothing was typed.
func (k *Keyboard) poll() ([]byte, error) {
	return k.receive(false)
}

// unread puts p back in front of the pending input.
func (k *Keyboard) unread(p []byte) {
	if len(p) == 0 {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pending = append(append([]byte(nil), p...), k.pending...)
}

func (k *Keyboard) receive(wait bool) ([]byte, error) {
	k.mu.Lock()
	if len(k.pending) > 0 {
		chunk := k.pending
		k.pending = nil
		k.mu.Unlock()
		return chunk, nil
	}
	k.mu.Unlock()

	if !wait {
		select {
		case chunk := <-k.chunks:
			return chunk, nil
		case <-k.done:
			return nil, k.closedErr()
		default:
			return nil, nil
		}
	}

	select {
	case chunk := <-k.chunks:
		return chunk, nil
	case <-k.done:
		return nil, k.closedErr()
	}
}

// closedErr is valid once done is closed.
func (k *Keyboard) closedErr() error {
	if k.err == nil {
		return io.EOF
	}
	return k.err
}
