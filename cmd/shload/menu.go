package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/moffa90/go-shload/cmon"
	"github.com/moffa90/go-shload/monitor"
	"github.com/moffa90/go-shload/protocol"
	"github.com/moffa90/go-shload/transport"
)

const menuText = `
Commands :
v - Print Rom Version
q - Quit
l - Load S-Record File
g - Go !
r - Read Registers
o - Query Offsets
. - Reset
m - Dump Memory
t - Start terminal on serial port
h - Download code to board w/ CMON monitor
d - Run and start terminal on serial port
shload >> `

// menu is the interactive command loop. Failures are reported and the loop
// continues; only quitting, end of input or cancellation end it.
type menu struct {
	in   *bufio.Reader
	out  io.Writer
	link transport.Transport
	sess *monitor.Session

	// terminal and download are replaced in tests
	terminal func(ctx context.Context, link transport.Transport, out io.Writer) error
	download func(ctx context.Context, link transport.Transport, path string, out io.Writer) error
}

func newMenu(in io.Reader, out io.Writer, link transport.Transport) *menu {
	return &menu{
		in:       bufio.NewReader(in),
		out:      out,
		link:     link,
		sess:     newSession(link, out),
		terminal: terminal,
		download: cmonDownload,
	}
}

// connect identifies the board.
func (m *menu) connect(ctx context.Context) {
	version, err := m.sess.Connect(ctx)
	if err != nil {
		fmt.Fprintf(m.out, "shload : ERROR - Could not get ROM version: %v\n", err)
		return
	}
	fmt.Fprintf(m.out, "ROM version : %s\n", version)
}

func (m *menu) run(ctx context.Context) error {
	for {
		fmt.Fprint(m.out, menuText)

		line, err := m.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(m.out)
				return nil
			}
			return err
		}
		if line == "" {
			continue
		}

		if line[0] == 'q' {
			return nil
		}
		if err := m.dispatch(ctx, line[0]); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(m.out, "shload : ERROR - %v\n", err)
		}
	}
}

func (m *menu) dispatch(ctx context.Context, cmd byte) error {
	switch cmd {
	case 'v':
		fmt.Fprintf(m.out, "\nBoard ROM Version : %s\n", m.sess.ROMVersion())
		return nil
	case 'l':
		return m.load(ctx)
	case 'g':
		return m.goCommand(ctx)
	case 'r':
		regs, err := m.sess.Registers(ctx)
		if err != nil {
			return fmt.Errorf("could not get reply to regdump command: %w", err)
		}
		printRegisters(m.out, regs)
		return nil
	case 'o':
		off, err := m.sess.QueryOffsets(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(m.out, "Text=%08x Data=%08x Bss=%08x\n", off.Text, off.Data, off.Bss)
		return nil
	case '.':
		if err := m.sess.Reset(ctx); err != nil {
			return fmt.Errorf("could not get reply to reset command: %w", err)
		}
		fmt.Fprintf(m.out, "Board replied with %s to reset command\n", m.sess.Status())
		return nil
	case 'm':
		return m.memDump(ctx)
	case 't':
		return m.term(ctx)
	case 'h':
		path, err := m.prompt("S-Record File: ")
		if err != nil {
			return err
		}
		err = m.download(ctx, m.link, path, m.out)
		if errors.Is(err, cmon.ErrCancelled) {
			return nil
		}
		return err
	case 'd':
		if err := m.goCommand(ctx); err != nil {
			return err
		}
		return m.term(ctx)
	}
	return nil
}

func (m *menu) load(ctx context.Context) error {
	path, err := m.prompt("S-Record File: ")
	if err != nil {
		return err
	}
	addr, err := m.promptAddress("Load Address: ")
	if err != nil {
		return err
	}

	res, err := m.sess.LoadFile(ctx, path, addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Loaded %d bytes in %d packets to 0x%08x-0x%08x (%s)\n",
		res.Bytes, res.Chunks, res.Start, res.End, res.Elapsed.Round(time.Millisecond))
	if res.ReceiveFailures > 0 {
		fmt.Fprintf(m.out, "%d packets were not acknowledged\n", res.ReceiveFailures)
	}
	return nil
}

func (m *menu) goCommand(ctx context.Context) error {
	addr, err := m.promptAddress("Begin Execution At Address: ")
	if err != nil {
		return err
	}
	if err := m.sess.Continue(ctx, addr); err != nil {
		return fmt.Errorf("could not send continue command to board: %w", err)
	}
	return nil
}

func (m *menu) memDump(ctx context.Context) error {
	addr, err := m.promptAddress("Start Memory Address: ")
	if err != nil {
		return err
	}
	data, err := m.sess.MemoryDump(ctx, addr, 0)
	if err != nil {
		return err
	}
	printDump(m.out, addr, data)
	return nil
}

func (m *menu) term(ctx context.Context) error {
	err := m.terminal(ctx, m.link, m.out)
	fmt.Fprintln(m.out)
	return err
}

func (m *menu) prompt(text string) (string, error) {
	fmt.Fprint(m.out, text)
	line, err := m.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return "", errors.New("no value entered")
	}
	return line, nil
}

func (m *menu) promptAddress(text string) (uint32, error) {
	s, err := m.prompt(text)
	if err != nil {
		return 0, err
	}
	return protocol.ParseAddress(s)
}

// readLine returns the next input line without surrounding space. A last
// line without a newline is returned before io.EOF.
func (m *menu) readLine() (string, error) {
	line, err := m.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
