package console

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Terminal is the operator's terminal. Raw mode is only entered when the
// file is an interactive terminal; otherwise MakeRaw and Restore do nothing.
type Terminal struct {
	file  *os.File
	state *term.State
}

// NewTerminal wraps f, usually os.Stdin.
func NewTerminal(f *os.File) *Terminal {
	return &Terminal{file: f}
}

// IsTerminal reports whether the file is an interactive terminal.
func (t *Terminal) IsTerminal() bool {
	return term.IsTerminal(int(t.file.Fd()))
}

// MakeRaw puts the terminal into raw mode so every keystroke, including
// control characters, reaches the board unmodified.
func (t *Terminal) MakeRaw() error {
	if t.state != nil || !t.IsTerminal() {
		return nil
	}
	state, err := term.MakeRaw(int(t.file.Fd()))
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	t.state = state
	return nil
}

// Restore leaves raw mode.
func (t *Terminal) Restore() error {
	if t.state == nil {
		return nil
	}
	err := term.Restore(int(t.file.Fd()), t.state)
	t.state = nil
	return err
}

// Read implements io.Reader.
func (t *Terminal) Read(p []byte) (int, error) {
	return t.file.Read(p)
}
