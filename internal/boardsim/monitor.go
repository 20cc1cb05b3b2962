package boardsim

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/moffa90/go-shload/protocol"
)

// DefaultROMVersion is the identification returned for qID.
const DefaultROMVersion = "SH7708 Advanced Monitor 1.0"

// NumRegisters is the number of 32-bit registers in a g reply: R0-R15, PC,
// PR, GBR, VBR, MACH, MACL and SR.
const NumRegisters = 23

// pcRegister is the index of PC in the register file.
const pcRegister = 16

// Monitor simulates the SH Advanced Monitor.
type Monitor struct {
	// ROMVersion is returned for qID
	ROMVersion string

	// Offsets is returned for qOffsets
	Offsets string

	// DropReply, when set, suppresses the reply to matching commands, as the
	// real monitor sometimes does under load
	DropReply func(cmd string) bool

	// ProgramOutput is sent after a continue command, standing in for the
	// console output of the started program
	ProgramOutput string

	out output

	mu        sync.Mutex
	memory    map[uint32]byte
	registers [NumRegisters]uint32
	commands  []string
	acks      int
	naks      int
	running   bool

	inBody  bool
	trailer []byte
	body    []byte
}

// NewMonitor returns a monitor with empty memory.
func NewMonitor() *Monitor {
	return &Monitor{
		ROMVersion: DefaultROMVersion,
		Offsets:    "Text=0;Data=0;Bss=0",
		memory:     make(map[uint32]byte),
	}
}

// ReadByte implements transport.Transport.
func (m *Monitor) ReadByte(ctx context.Context, timeout time.Duration) (byte, error) {
	return m.out.readByte(ctx, timeout)
}

// Write implements transport.Transport.
func (m *Monitor) Write(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range p {
		m.consume(b)
	}
	return len(p), nil
}

// Memory returns a copy of n bytes at addr. Unwritten bytes read as zero.
func (m *Monitor) Memory(addr uint32, n int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	data := make([]byte, n)
	for i := range data {
		data[i] = m.memory[addr+uint32(i)]
	}
	return data
}

// Commands returns every command received, in order.
func (m *Monitor) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

// Acks returns the number of '+' acknowledgements received.
func (m *Monitor) Acks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acks
}

// Naks returns the number of '-' rejections received.
func (m *Monitor) Naks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.naks
}

// Running reports whether a continue command started execution.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// PC returns the program counter.
func (m *Monitor) PC() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registers[pcRegister]
}

// SetRegister sets register i.
func (m *Monitor) SetRegister(i int, v uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registers[i] = v
}

// Pending returns the number of output bytes not yet read.
func (m *Monitor) Pending() int {
	return m.out.pending()
}

// consume feeds one host byte through the packet parser.
func (m *Monitor) consume(b byte) {
	switch {
	case m.trailer != nil:
		m.trailer = append(m.trailer, b)
		if len(m.trailer) == protocol.ChecksumSize {
			var cs [protocol.ChecksumSize]byte
			copy(cs[:], m.trailer)
			m.trailer = nil
			m.packet(string(m.body), cs)
		}
	case m.inBody && b == protocol.EndOfPacket:
		m.inBody = false
		m.trailer = make([]byte, 0, protocol.ChecksumSize)
	case m.inBody:
		m.body = append(m.body, b)
	case b == protocol.StartOfPacket:
		m.inBody = true
		m.body = m.body[:0]
	case b == protocol.Ack:
		m.acks++
	case b == protocol.Nak:
		m.naks++
	}
}

func (m *Monitor) packet(cmd string, cs [protocol.ChecksumSize]byte) {
	if !protocol.VerifyChecksum([]byte(cmd), cs) {
		m.out.push(protocol.Nak)
		return
	}
	m.commands = append(m.commands, cmd)

	payload, reply := m.execute(cmd)
	if !reply || (m.DropReply != nil && m.DropReply(cmd)) {
		return
	}

	m.out.push(protocol.Ack)
	m.out.push(protocol.BuildPacket(payload)...)
}

// execute runs a command and returns the reply payload and whether the
// monitor replies at all.
func (m *Monitor) execute(cmd string) (string, bool) {
	switch cmd {
	case protocol.CmdIdentify:
		return m.ROMVersion, true
	case protocol.CmdQueryOffsets:
		return m.Offsets, true
	case protocol.CmdRegisters:
		var b strings.Builder
		for _, r := range m.registers {
			fmt.Fprintf(&b, "%08x", r)
		}
		return b.String(), true
	case protocol.CmdReset:
		m.registers = [NumRegisters]uint32{}
		m.running = false
		return "OK", true
	}

	if cmd == "" {
		return "", true
	}

	switch cmd[0] {
	case protocol.VerbMemoryRead:
		addr, n, _, err := parseMemoryArgs(cmd[1:], false)
		if err != nil {
			return "E01", true
		}
		data := make([]byte, n)
		for i := range data {
			data[i] = m.memory[addr+uint32(i)]
		}
		return hex.EncodeToString(data), true

	case protocol.VerbMemoryWrite:
		addr, n, data, err := parseMemoryArgs(cmd[1:], true)
		if err != nil || len(data) != n {
			return "E02", true
		}
		for i, v := range data {
			m.memory[addr+uint32(i)] = v
		}
		return "OK", true

	case protocol.VerbContinue:
		addr, err := strconv.ParseUint(cmd[1:], 16, 32)
		if err != nil {
			return "E03", true
		}
		m.registers[pcRegister] = uint32(addr)
		m.running = true
		// The CPU belongs to the program now; no packet is sent.
		m.out.pushString(m.ProgramOutput)
		return "", false
	}

	// Unsupported commands get an empty reply.
	return "", true
}

// parseMemoryArgs parses addr,len[:hex].
func parseMemoryArgs(args string, withData bool) (uint32, int, []byte, error) {
	var dataHex string
	if withData {
		var ok bool
		args, dataHex, ok = strings.Cut(args, ":")
		if !ok {
			return 0, 0, nil, fmt.Errorf("missing data")
		}
	}

	addrHex, lenHex, ok := strings.Cut(args, ",")
	if !ok {
		return 0, 0, nil, fmt.Errorf("missing length")
	}

	addr, err := strconv.ParseUint(addrHex, 16, 32)
	if err != nil {
		return 0, 0, nil, err
	}
	n, err := strconv.ParseUint(lenHex, 16, 16)
	if err != nil {
		return 0, 0, nil, err
	}

	var data []byte
	if withData {
		if data, err = hex.DecodeString(dataHex); err != nil {
			return 0, 0, nil, err
		}
	}
	return uint32(addr), int(n), data, nil
}
