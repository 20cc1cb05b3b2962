package cmon

import (
	"bytes"
	"testing"
)

// feed runs input through m and returns the final machine and all output.
func feed(m Machine, input []byte) (Machine, []byte) {
	var written []byte
	for _, b := range input {
		var out []byte
		m, out = m.Next(b)
		written = append(written, out...)
	}
	return m, written
}

func TestMachineHandshake(t *testing.T) {
	image := []byte("S1\n")

	steps := []struct {
		in    byte
		state State
		out   []byte
	}{
		{'?', Idle, nil},
		{Wake, WokenByPeer, []byte{Trigger}},
		{'O', WokenByPeer, nil}, // out of order, discarded
		{'L', WokenByPeer, nil},
		{'L', WokenByPeer, nil},
		{'O', WokenByPeer, nil},
		{'x', MagicAcknowledged, []byte{'S'}},
		{'z', MagicAcknowledged, nil}, // noise while waiting for the echo
		{'S', Streaming, []byte{'1'}},
		{'1', Streaming, []byte{'\n'}},
		{'\n', Streaming, nil},
		{Prompt, CompletionPromptSeen, []byte{Ack, Newline}},
		{'\r', CompletionPromptSeen, nil},
		{Prompt, CompletionPromptSeen, []byte{Go}},
		{Go, CompletionPromptSeen, []byte{Newline}},
		{Newline, ExecutionHandoff, nil},
		{'h', ExecutionHandoff, nil},
	}

	m := NewMachine(image)
	for i, step := range steps {
		var out []byte
		m, out = m.Next(step.in)
		if m.State != step.state {
			t.Fatalf("step %d (%q): state = %v, want %v", i, step.in, m.State, step.state)
		}
		if !bytes.Equal(out, step.out) {
			t.Fatalf("step %d (%q): out = %q, want %q", i, step.in, out, step.out)
		}
	}

	if m.Sent() != len(image) {
		t.Errorf("Sent() = %d, want %d", m.Sent(), len(image))
	}
	if !m.Done() {
		t.Error("Done() = false, want true")
	}
}

func TestMachineIsPure(t *testing.T) {
	m := NewMachine([]byte("S"))
	m, _ = feed(m, []byte{Wake, 'L', 'O', 'x'})

	before := m
	next1, out1 := m.Next('S')
	next2, out2 := m.Next('S')

	if m.State != before.State || m.Sent() != before.Sent() {
		t.Error("Next modified its receiver")
	}
	if next1.State != next2.State || next1.Sent() != next2.Sent() || !bytes.Equal(out1, out2) {
		t.Error("Next is not deterministic")
	}
}

func TestMachineEchoBeatsPrompt(t *testing.T) {
	image := []byte(">x")
	m, _ := feed(NewMachine(image), []byte{Wake, 'L', 'O', 'x'})

	m, out := m.Next('>')
	if m.State != Streaming || !bytes.Equal(out, []byte{'x'}) {
		t.Fatalf("state = %v out = %q; echo of '>' was taken as the prompt", m.State, out)
	}
}

func TestMachineEarlyPrompt(t *testing.T) {
	image := []byte("S1234\n")
	m, _ := feed(NewMachine(image), []byte{Wake, 'L', 'O', 'x', 'S', '1'})

	m, out := m.Next(Prompt)
	if m.State != CompletionPromptSeen {
		t.Fatalf("state = %v, want %v", m.State, CompletionPromptSeen)
	}
	if !bytes.Equal(out, []byte{Ack, Newline}) {
		t.Errorf("out = %q", out)
	}
	if m.Sent() != 2 {
		t.Errorf("Sent() = %d, want 2", m.Sent())
	}
}

func TestMachineEmptyImage(t *testing.T) {
	m, written := feed(NewMachine(nil), []byte{Wake, 'L', 'O', 'x', Prompt, Prompt, Go, Newline})
	if !m.Done() {
		t.Fatalf("state = %v, want %v", m.State, ExecutionHandoff)
	}
	want := []byte{Trigger, Ack, Newline, Go, Newline}
	if !bytes.Equal(written, want) {
		t.Errorf("written = %q, want %q", written, want)
	}
}

func TestMachineWaiting(t *testing.T) {
	tests := []struct {
		input []byte
		want  string
	}{
		{nil, "wake byte 0x05"},
		{[]byte{Wake}, "magic byte 'L'"},
		{[]byte{Wake, 'L'}, "magic byte 'O'"},
		{[]byte{Wake, 'L', 'O', 'x'}, "echo of image byte 0 ('A')"},
		{[]byte{Wake, 'L', 'O', 'x', 'A'}, "completion prompt '>'"},
		{[]byte{Wake, 'L', 'O', 'x', 'A', Prompt}, "prompt '>'"},
		{[]byte{Wake, 'L', 'O', 'x', 'A', Prompt, Prompt}, "echo of 'g'"},
		{[]byte{Wake, 'L', 'O', 'x', 'A', Prompt, Prompt, Go}, "echo of newline"},
	}

	for _, tt := range tests {
		m, _ := feed(NewMachine([]byte("A")), tt.input)
		if got := m.Waiting(); got != tt.want {
			t.Errorf("after %q: Waiting() = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		Idle:                 "idle",
		WokenByPeer:          "woken-by-peer",
		MagicAcknowledged:    "magic-acknowledged",
		Streaming:            "streaming",
		CompletionPromptSeen: "completion-prompt-seen",
		ExecutionHandoff:     "execution-handoff",
		State(99):            "State(99)",
	}
	for s, want := range states {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
