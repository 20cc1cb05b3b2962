package cmon_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moffa90/go-shload/cmon"
	"github.com/moffa90/go-shload/internal/boardsim"
	"github.com/moffa90/go-shload/transport"
)

const image = "S00600004844521B\r\n" +
	"S1070000AABBCCDD00\r\n" +
	"S1070004EEFF001100\r\n" +
	"S9030000FC\r\n"

func TestTransferEchoingPeer(t *testing.T) {
	board := boardsim.NewCMON()
	board.Wake()

	loader := cmon.New(board, cmon.WithLoadCommand(""))
	res, err := loader.Transfer(context.Background(), []byte(image))
	if err != nil {
		t.Fatalf("Transfer() unexpected error: %v", err)
	}

	if loader.State() != cmon.ExecutionHandoff {
		t.Errorf("State() = %v, want %v", loader.State(), cmon.ExecutionHandoff)
	}
	if res.BytesSent != len(image) {
		t.Errorf("BytesSent = %d, want %d", res.BytesSent, len(image))
	}

	// Trigger, the image exactly once, then ACK, '\n', 'g', '\n' in order.
	want := append([]byte{cmon.Trigger}, image...)
	want = append(want, cmon.Ack, '\n', 'g', '\n')
	if got := board.Received(); !bytes.Equal(got, want) {
		t.Errorf("board received %q, want %q", got, want)
	}

	wantStates := []cmon.State{
		cmon.Idle,
		cmon.WokenByPeer,
		cmon.MagicAcknowledged,
		cmon.Streaming,
		cmon.CompletionPromptSeen,
		cmon.ExecutionHandoff,
	}
	if len(res.States) != len(wantStates) {
		t.Fatalf("States = %v, want %v", res.States, wantStates)
	}
	for i := range wantStates {
		if res.States[i] != wantStates[i] {
			t.Errorf("States[%d] = %v, want %v", i, res.States[i], wantStates[i])
		}
	}

	if !board.Running() {
		t.Error("board is not running the program")
	}
}

func TestTransferSendsLoadCommand(t *testing.T) {
	board := boardsim.NewCMON()

	loader := cmon.New(board)
	if _, err := loader.Transfer(context.Background(), []byte(image)); err != nil {
		t.Fatalf("Transfer() unexpected error: %v", err)
	}

	if got := board.Received(); !bytes.HasPrefix(got, []byte(cmon.DefaultLoadCommand+"*")) {
		t.Errorf("board received %q, want load command then trigger", got)
	}
	if !bytes.Equal(board.Image(), []byte(image)) {
		t.Errorf("board image = %q", board.Image())
	}
}

func TestTransferNonEchoingPeerTimesOut(t *testing.T) {
	board := boardsim.NewCMON()
	board.Echo = false
	board.Wake()

	loader := cmon.New(board, cmon.WithLoadCommand(""), cmon.WithByteTimeout(50*time.Millisecond))

	start := time.Now()
	res, err := loader.Transfer(context.Background(), []byte(image))
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Transfer() took %v", elapsed)
	}

	var te *cmon.TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TimeoutError", err)
	}
	if te.State != cmon.MagicAcknowledged {
		t.Errorf("State = %v, want %v", te.State, cmon.MagicAcknowledged)
	}
	if !errors.Is(err, transport.ErrTimeout) {
		t.Error("TimeoutError does not unwrap to transport.ErrTimeout")
	}
	if res.BytesSent != 0 {
		t.Errorf("BytesSent = %d, want 0", res.BytesSent)
	}
}

func TestTransferNoWake(t *testing.T) {
	board := boardsim.NewCMON()

	loader := cmon.New(board, cmon.WithLoadCommand(""), cmon.WithWakeTimeout(20*time.Millisecond))
	_, err := loader.Transfer(context.Background(), []byte(image))

	var te *cmon.TimeoutError
	if !errors.As(err, &te) || te.State != cmon.Idle {
		t.Fatalf("error = %v, want timeout in idle", err)
	}
}

func TestTransferCancelled(t *testing.T) {
	board := boardsim.NewCMON()
	board.Wake()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := cmon.New(board, cmon.WithLoadCommand(""))
	_, err := loader.Transfer(ctx, []byte(image))
	if !errors.Is(err, cmon.ErrCancelled) {
		t.Errorf("error = %v, want ErrCancelled", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestTransferProgress(t *testing.T) {
	board := boardsim.NewCMON()
	board.Wake()

	var reports []cmon.Progress
	loader := cmon.New(board,
		cmon.WithLoadCommand(""),
		cmon.WithProgressCallback(func(p cmon.Progress) { reports = append(reports, p) }),
	)

	res, err := loader.Transfer(context.Background(), []byte(image))
	if err != nil {
		t.Fatalf("Transfer() unexpected error: %v", err)
	}

	if res.Records != 4 || len(reports) != 4 {
		t.Fatalf("Records = %d, reports = %d, want 4", res.Records, len(reports))
	}
	if reports[0].BytesSent != 1 || reports[0].TotalBytes != len(image) {
		t.Errorf("first report = %+v", reports[0])
	}
}

func TestRunFollowsProgramOutput(t *testing.T) {
	board := boardsim.NewCMON()
	board.ProgramOutput = "eEK kernel booting\r\n"
	board.Wake()

	loader := cmon.New(board, cmon.WithLoadCommand(""), cmon.WithIdleTimeout(10*time.Millisecond))

	var console bytes.Buffer
	_, err := loader.Run(context.Background(), []byte(image), &console)

	var te *cmon.TimeoutError
	if !errors.As(err, &te) || te.State != cmon.ExecutionHandoff {
		t.Fatalf("error = %v, want idle timeout after handoff", err)
	}
	if console.String() != board.ProgramOutput {
		t.Errorf("console = %q, want %q", console.String(), board.ProgramOutput)
	}
}

func TestFollowCancelled(t *testing.T) {
	board := boardsim.NewCMON()
	board.Wake()

	loader := cmon.New(board, cmon.WithLoadCommand(""))
	if _, err := loader.Transfer(context.Background(), []byte(image)); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := loader.Follow(ctx, &bytes.Buffer{})
	if !errors.Is(err, cmon.ErrCancelled) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want ErrCancelled and DeadlineExceeded", err)
	}
}

func TestFollowBeforeHandoff(t *testing.T) {
	loader := cmon.New(boardsim.NewCMON())
	if err := loader.Follow(context.Background(), &bytes.Buffer{}); !errors.Is(err, cmon.ErrNotHandedOff) {
		t.Errorf("error = %v, want ErrNotHandedOff", err)
	}
}
