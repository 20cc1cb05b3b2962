package script

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moffa90/go-shload/internal/boardsim"
	"github.com/moffa90/go-shload/monitor"
)

func newEngine(t *testing.T) (*Engine, *boardsim.Monitor, *bytes.Buffer) {
	t.Helper()
	board := boardsim.NewMonitor()
	var out bytes.Buffer
	return NewEngine(monitor.New(board), WithOutput(&out)), board, &out
}

func TestRunQueries(t *testing.T) {
	e, board, out := newEngine(t)
	board.Offsets = "Text=8c010000;Data=8c020000"

	src := `
print(board.identify())
local off = board.offsets()
print(off.text == 0x8c010000, off.data == 0x8c020000, off.bss == off.data)
print(#board.regs())
`
	if err := e.RunString(context.Background(), src, "queries.lua"); err != nil {
		t.Fatalf("RunString() unexpected error: %v", err)
	}

	want := boardsim.DefaultROMVersion + "\ntrue\ttrue\ttrue\n184\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestRunLoadAndGo(t *testing.T) {
	e, board, out := newEngine(t)

	path := filepath.Join(t.TempDir(), "tiny.srec")
	image := "S1070000DEADBEEFC0\nS9030000FC\n"
	if err := os.WriteFile(path, []byte(image), 0o644); err != nil {
		t.Fatal(err)
	}

	src := `
local n = board.load(arg_path, "0x8c010000")
print(n)
print(board.mem(0x8c010000, 4))
board.go(0x8c010000)
`
	src = strings.Replace(src, "arg_path", "'"+filepath.ToSlash(path)+"'", 1)
	if err := e.RunString(context.Background(), src, "load.lua"); err != nil {
		t.Fatalf("RunString() unexpected error: %v", err)
	}

	if out.String() != "4\ndeadbeef\n" {
		t.Errorf("output = %q", out.String())
	}
	if !board.Running() || board.PC() != 0x8c010000 {
		t.Errorf("board running = %v at %#x", board.Running(), board.PC())
	}
}

func TestRunBoardErrorStopsScript(t *testing.T) {
	e, board, out := newEngine(t)
	board.DropReply = func(cmd string) bool { return cmd == "r" }

	src := `
print("before")
board.reset()
print("after")
`
	err := e.RunString(context.Background(), src, "reset.lua")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "reset.lua") {
		t.Errorf("error %q does not name the script", err)
	}
	if out.String() != "before\n" {
		t.Errorf("output = %q, want only the first line", out.String())
	}
}

func TestRunBadAddress(t *testing.T) {
	e, _, _ := newEngine(t)

	err := e.RunString(context.Background(), `board.mem("nothex")`, "mem.lua")
	if err == nil || !strings.Contains(err.Error(), "invalid address") {
		t.Errorf("error = %v, want invalid address", err)
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := Compile(strings.NewReader("board.reset("), "broken.lua"); err == nil {
		t.Error("expected parse error, got nil")
	}
	if _, err := CompileFile(filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestRunFile(t *testing.T) {
	e, _, out := newEngine(t)

	path := filepath.Join(t.TempDir(), "hello.lua")
	if err := os.WriteFile(path, []byte(`print("hello", 1)`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := e.RunFile(context.Background(), path); err != nil {
		t.Fatalf("RunFile() unexpected error: %v", err)
	}
	if out.String() != "hello\t1\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestSleepCancelled(t *testing.T) {
	e, _, _ := newEngine(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := e.RunString(ctx, `board.sleep(10000)`, "sleep.lua"); err == nil {
		t.Fatal("expected error, got nil")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("sleep ignored cancellation")
	}
}
