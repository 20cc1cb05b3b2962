package monitor_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/moffa90/go-shload/internal/boardsim"
	"github.com/moffa90/go-shload/monitor"
	"github.com/moffa90/go-shload/protocol"
	"github.com/moffa90/go-shload/srec"
)

const kernel = "S00F000068656C6C6F202020202000003C\r\n" +
	"S11F00007C0802A6900100049421FFF07C6C1B787C8C23783C6000003863000026\r\n" +
	"S11F001C4BFFFFE5398000007D83637880010014382100107C0803A64E800020E9\r\n" +
	"S111003848656C6C6F20776F726C642E0A0042\r\n" +
	"S5030003F9\r\n" +
	"S9030000FC\r\n"

func TestBoardSession(t *testing.T) {
	board := boardsim.NewMonitor()
	board.Offsets = "Text=8c010000;Data=8c020000;Bss=8c030000"
	sess := monitor.New(board)
	ctx := context.Background()

	version, err := sess.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect() unexpected error: %v", err)
	}
	if version != boardsim.DefaultROMVersion || sess.ROMVersion() != version {
		t.Errorf("version = %q", version)
	}

	off, err := sess.QueryOffsets(ctx)
	if err != nil {
		t.Fatalf("QueryOffsets() unexpected error: %v", err)
	}
	if off.Text != 0x8c010000 || off.Data != 0x8c020000 || off.Bss != 0x8c030000 {
		t.Errorf("offsets = %+v", off)
	}

	regs, err := sess.Registers(ctx)
	if err != nil {
		t.Fatalf("Registers() unexpected error: %v", err)
	}
	if len(regs) != boardsim.NumRegisters*8 {
		t.Errorf("register dump is %d digits", len(regs))
	}

	if err := sess.Reset(ctx); err != nil {
		t.Errorf("Reset() unexpected error: %v", err)
	}

	// Every reply was acknowledged.
	if board.Acks() != len(board.Commands()) {
		t.Errorf("acks = %d, commands = %d", board.Acks(), len(board.Commands()))
	}
}

func TestBoardLoadAndDump(t *testing.T) {
	records, err := srec.ReadAll(srec.NewDecoder(strings.NewReader(kernel)))
	if err != nil {
		t.Fatalf("decode image: %v", err)
	}

	var image []byte
	for _, r := range records {
		image = append(image, r.Data...)
	}

	board := boardsim.NewMonitor()
	sess := monitor.New(board, monitor.WithChunkSize(16))
	ctx := context.Background()

	const base = 0x8c010000
	res, err := sess.LoadRecords(ctx, records, base)
	if err != nil {
		t.Fatalf("LoadRecords() unexpected error: %v", err)
	}
	if res.Bytes != len(image) || res.End != base+uint32(len(image)) {
		t.Errorf("result = %+v", res)
	}

	if got := board.Memory(base, len(image)); !bytes.Equal(got, image) {
		t.Errorf("board memory = %x, want %x", got, image)
	}

	dump, err := sess.MemoryDump(ctx, base, len(image))
	if err != nil {
		t.Fatalf("MemoryDump() unexpected error: %v", err)
	}
	if !bytes.Equal(dump, image) {
		t.Errorf("dump = %x, want %x", dump, image)
	}

	// A dump of the default size reads past the image as zeros.
	dump, err = sess.MemoryDump(ctx, base, 0)
	if err != nil {
		t.Fatalf("MemoryDump() unexpected error: %v", err)
	}
	if len(dump) != protocol.DefaultMemoryDumpSize {
		t.Errorf("default dump length = %d", len(dump))
	}

	if err := sess.Continue(ctx, base); err != nil {
		t.Fatalf("Continue() unexpected error: %v", err)
	}
	if !board.Running() || board.PC() != base {
		t.Errorf("board running = %v at %#x", board.Running(), board.PC())
	}
}

func TestBoardLoadToleratesDroppedReplies(t *testing.T) {
	records, err := srec.ReadAll(srec.NewDecoder(strings.NewReader(kernel)))
	if err != nil {
		t.Fatal(err)
	}

	board := boardsim.NewMonitor()
	dropped := 0
	board.DropReply = func(cmd string) bool {
		if cmd[0] == protocol.VerbMemoryWrite && dropped == 0 {
			dropped++
			return true
		}
		return false
	}

	sess := monitor.New(board, monitor.WithReceiveTimeout(50*time.Millisecond))
	res, err := sess.LoadRecords(context.Background(), records, 0x1000)
	if err != nil {
		t.Fatalf("LoadRecords() unexpected error: %v", err)
	}
	if res.ReceiveFailures != 1 {
		t.Errorf("ReceiveFailures = %d, want 1", res.ReceiveFailures)
	}
	if res.Chunks != len(records) {
		t.Errorf("Chunks = %d, want %d", res.Chunks, len(records))
	}
}

func TestBoardLoadAbortsOnDroppedReply(t *testing.T) {
	records, err := srec.ReadAll(srec.NewDecoder(strings.NewReader(kernel)))
	if err != nil {
		t.Fatal(err)
	}

	board := boardsim.NewMonitor()
	board.DropReply = func(string) bool { return true }

	sess := monitor.New(board, monitor.WithLoadPolicy(monitor.LoadPolicy{
		AbortOnSendFailure:    true,
		AbortOnReceiveFailure: true,
	}))
	_, err = sess.LoadRecords(context.Background(), records, 0x1000)

	var aborted *monitor.LoadAbortedError
	if !errors.As(err, &aborted) {
		t.Fatalf("error = %v, want *LoadAbortedError", err)
	}
	if aborted.Chunk != 0 || !errors.Is(err, protocol.ErrTimeout) {
		t.Errorf("aborted = %+v", aborted)
	}
	if len(board.Commands()) != 1 {
		t.Errorf("board saw %d commands after abort, want 1", len(board.Commands()))
	}
}
