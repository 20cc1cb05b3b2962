package cmon

import "fmt"

// Handshake bytes.
const (
	Wake    byte = 0x05 // ENQ sent by CMON when it is ready to receive
	Trigger byte = '*'
	Prompt  byte = '>'
	Ack     byte = 0x06
	Go      byte = 'g'
	Newline byte = '\n'
	Record  byte = 'S' // start of an S-record line in the streamed image
)

// Magic is the sequence CMON sends after the trigger. Each byte is scanned
// for independently, discarding everything in between.
var Magic = [3]byte{'L', 'O', 'x'}

// State is a stage of the CMON download handshake.
type State int

const (
	// Idle waits for the wake byte.
	Idle State = iota

	// WokenByPeer has sent the trigger and scans for the magic bytes.
	WokenByPeer

	// MagicAcknowledged has sent the first image byte and waits for its echo.
	MagicAcknowledged

	// Streaming sends the image one byte per echo.
	Streaming

	// CompletionPromptSeen runs the go sequence after CMON's prompt.
	CompletionPromptSeen

	// ExecutionHandoff is terminal: the loaded program is running.
	ExecutionHandoff
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case WokenByPeer:
		return "woken-by-peer"
	case MagicAcknowledged:
		return "magic-acknowledged"
	case Streaming:
		return "streaming"
	case CompletionPromptSeen:
		return "completion-prompt-seen"
	case ExecutionHandoff:
		return "execution-handoff"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Steps of CompletionPromptSeen, each waiting for one byte.
const (
	awaitPrompt = iota
	awaitGoEcho
	awaitNewlineEcho
)

// Machine is the handshake state. It is a value: Next returns the successor
// and never modifies its receiver, so a transition depends only on the
// current state and the byte received.
type Machine struct {
	State State

	image []byte
	pos   int // index of the image byte awaiting its echo
	magic int // next Magic byte to scan for
	step  int // step within CompletionPromptSeen
}

// NewMachine returns a machine in Idle that will stream image.
func NewMachine(image []byte) Machine {
	return Machine{State: Idle, image: image}
}

// Sent returns the number of image bytes echoed so far.
func (m Machine) Sent() int {
	return m.pos
}

// Done reports whether the handoff was reached.
func (m Machine) Done() bool {
	return m.State == ExecutionHandoff
}

// Next consumes one received byte and returns the successor machine and the
// bytes to write before the next read.
func (m Machine) Next(b byte) (Machine, []byte) {
	switch m.State {
	case Idle:
		if b == Wake {
			m.State = WokenByPeer
			return m, []byte{Trigger}
		}

	case WokenByPeer:
		if b == Magic[m.magic] {
			m.magic++
		}
		if m.magic == len(Magic) {
			m.State = MagicAcknowledged
			if len(m.image) > 0 {
				return m, []byte{m.image[0]}
			}
		}

	case MagicAcknowledged, Streaming:
		// An echo takes precedence over the prompt so that '>' inside the
		// image is streamed normally.
		if m.pos < len(m.image) && b == m.image[m.pos] {
			m.pos++
			m.State = Streaming
			if m.pos < len(m.image) {
				return m, []byte{m.image[m.pos]}
			}
			return m, nil
		}
		if b == Prompt {
			m.State = CompletionPromptSeen
			m.step = awaitPrompt
			return m, []byte{Ack, Newline}
		}

	case CompletionPromptSeen:
		switch {
		case m.step == awaitPrompt && b == Prompt:
			m.step = awaitGoEcho
			return m, []byte{Go}
		case m.step == awaitGoEcho && b == Go:
			m.step = awaitNewlineEcho
			return m, []byte{Newline}
		case m.step == awaitNewlineEcho && b == Newline:
			m.State = ExecutionHandoff
		}
	}

	return m, nil
}

// Waiting describes the byte the machine is waiting for.
func (m Machine) Waiting() string {
	switch m.State {
	case Idle:
		return "wake byte 0x05"
	case WokenByPeer:
		return fmt.Sprintf("magic byte %q", Magic[m.magic])
	case MagicAcknowledged, Streaming:
		if m.pos < len(m.image) {
			return fmt.Sprintf("echo of image byte %d (%q)", m.pos, m.image[m.pos])
		}
		return "completion prompt '>'"
	case CompletionPromptSeen:
		switch m.step {
		case awaitPrompt:
			return "prompt '>'"
		case awaitGoEcho:
			return "echo of 'g'"
		default:
			return "echo of newline"
		}
	default:
		return "program output"
	}
}
