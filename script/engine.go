// Package script runs Lua programs against a monitor session, so that
// repetitive bring-up sequences (load, dump, start) can be kept in a file.
//
// Scripts see a global table named board:
//
//	board.identify()            -> ROM version string
//	board.offsets()             -> {text=, data=, bss=}
//	board.regs()                -> register dump, hex
//	board.mem(addr [, len])     -> memory contents, hex
//	board.load(path [, addr])   -> bytes loaded
//	board.reset()
//	board.go(addr)
//	board.sleep(ms)
//
// print writes to the engine's output. Any failing board call raises a Lua
// error that ends the script.
package script

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/moffa90/go-shload/monitor"
	"github.com/moffa90/go-shload/protocol"
)

// Session is the part of monitor.Session that scripts drive.
type Session interface {
	Identify(ctx context.Context) (string, error)
	QueryOffsets(ctx context.Context) (protocol.Offsets, error)
	Registers(ctx context.Context) (string, error)
	MemoryDump(ctx context.Context, addr uint32, length int) ([]byte, error)
	LoadFile(ctx context.Context, path string, start uint32) (*monitor.LoadResult, error)
	Reset(ctx context.Context) error
	Continue(ctx context.Context, addr uint32) error
}

// Logger is the logging interface used by the engine.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Engine compiles and runs scripts.
type Engine struct {
	session Session
	out     io.Writer
	logger  Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithOutput sets where print writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		if w != nil {
			e.out = w
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine driving sess.
func NewEngine(sess Session, opts ...Option) *Engine {
	if sess == nil {
		panic("session cannot be nil")
	}
	e := &Engine{session: sess, out: os.Stdout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile parses and compiles Lua source read from r. name is used in
// error messages.
func Compile(r io.Reader, name string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(bufio.NewReader(r), name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return proto, nil
}

// CompileFile reads and compiles the Lua file at path.
func CompileFile(path string) (*lua.FunctionProto, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return Compile(f, path)
}

// Run executes a compiled script. Cancelling ctx stops the script and any
// board call in progress.
func (e *Engine) Run(ctx context.Context, proto *lua.FunctionProto) error {
	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	e.register(ctx, L)

	e.logDebug("running script", "source", proto.SourceName)
	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("script %s: %w", proto.SourceName, ctxErr)
		}
		return fmt.Errorf("script %s: %w", proto.SourceName, err)
	}
	return nil
}

// RunString compiles and runs src.
func (e *Engine) RunString(ctx context.Context, src, name string) error {
	proto, err := Compile(strings.NewReader(src), name)
	if err != nil {
		return err
	}
	return e.Run(ctx, proto)
}

// RunFile compiles and runs the script at path.
func (e *Engine) RunFile(ctx context.Context, path string) error {
	proto, err := CompileFile(path)
	if err != nil {
		return err
	}
	return e.Run(ctx, proto)
}

func (e *Engine) register(ctx context.Context, L *lua.LState) {
	board := L.NewTable()
	L.SetFuncs(board, map[string]lua.LGFunction{
		"identify": func(L *lua.LState) int {
			version, err := e.session.Identify(ctx)
			e.check(L, err)
			L.Push(lua.LString(version))
			return 1
		},
		"offsets": func(L *lua.LState) int {
			off, err := e.session.QueryOffsets(ctx)
			e.check(L, err)
			t := L.NewTable()
			L.SetField(t, "text", lua.LNumber(off.Text))
			L.SetField(t, "data", lua.LNumber(off.Data))
			L.SetField(t, "bss", lua.LNumber(off.Bss))
			L.Push(t)
			return 1
		},
		"regs": func(L *lua.LState) int {
			regs, err := e.session.Registers(ctx)
			e.check(L, err)
			L.Push(lua.LString(regs))
			return 1
		},
		"mem": func(L *lua.LState) int {
			addr := checkAddress(L, 1)
			length := L.OptInt(2, 0)
			data, err := e.session.MemoryDump(ctx, addr, length)
			e.check(L, err)
			L.Push(lua.LString(hex.EncodeToString(data)))
			return 1
		},
		"load": func(L *lua.LState) int {
			path := L.CheckString(1)
			var start uint32
			if L.GetTop() >= 2 {
				start = checkAddress(L, 2)
			}
			res, err := e.session.LoadFile(ctx, path, start)
			e.check(L, err)
			L.Push(lua.LNumber(res.Bytes))
			return 1
		},
		"reset": func(L *lua.LState) int {
			e.check(L, e.session.Reset(ctx))
			return 0
		},
		"go": func(L *lua.LState) int {
			e.check(L, e.session.Continue(ctx, checkAddress(L, 1)))
			return 0
		},
		"sleep": func(L *lua.LState) int {
			d := time.Duration(L.CheckInt64(1)) * time.Millisecond
			select {
			case <-time.After(d):
			case <-ctx.Done():
				L.RaiseError("%v", ctx.Err())
			}
			return 0
		},
	})
	L.SetGlobal("board", board)

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		parts := make([]string, 0, top)
		for i := 1; i <= top; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		fmt.Fprintln(e.out, strings.Join(parts, "\t"))
		return 0
	}))
}

// check raises err as a Lua error.
func (e *Engine) check(L *lua.LState, err error) {
	if err == nil {
		return
	}
	e.logError("board call failed", "error", err)
	L.RaiseError("%v", err)
}

// checkAddress reads argument n as a 32-bit address. Numbers and hex
// strings ("0x8c010000" or "8c010000") are accepted.
func checkAddress(L *lua.LState, n int) uint32 {
	switch v := L.Get(n).(type) {
	case lua.LNumber:
		if v < 0 || v > 0xFFFFFFFF {
			L.ArgError(n, "address out of range")
		}
		return uint32(v)
	case lua.LString:
		addr, err := protocol.ParseAddress(string(v))
		if err != nil {
			L.ArgError(n, err.Error())
		}
		return addr
	default:
		L.TypeError(n, lua.LTNumber)
		return 0
	}
}

// logDebug logs a debug message if a logger is configured.
func (e *Engine) logDebug(msg string, keysAndValues ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (e *Engine) logError(msg string, keysAndValues ...interface{}) {
	if e.logger != nil {
		e.logger.Error(msg, keysAndValues...)
	}
}
