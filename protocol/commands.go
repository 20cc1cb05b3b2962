package protocol

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// BuildPacket constructs the wire form of a command.
//
// Frame structure:
//
//	$<command>#<cc>
//
// The command is copied verbatim; the monitor does not use escaping.
func BuildPacket(command string) []byte {
	frame := make([]byte, 0, MinPacketSize+len(command))

	frame = append(frame, StartOfPacket)
	frame = append(frame, command...)
	frame = append(frame, EndOfPacket)

	cs := Checksum([]byte(command))
	frame = append(frame, cs[:]...)

	return frame
}

// MemoryRead builds an m<addr>,<len> command.
func MemoryRead(addr uint32, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive, got %d", length)
	}
	return fmt.Sprintf("%c%x,%x", VerbMemoryRead, addr, length), nil
}

// MemoryWrite builds an M<addr>,<len>:<data> command.
// The payload is rendered as lowercase hex.
func MemoryWrite(addr uint32, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("data cannot be empty")
	}
	return fmt.Sprintf("%c%x,%x:%s", VerbMemoryWrite, addr, len(data), hex.EncodeToString(data)), nil
}

// Continue builds a c<addr> command that resumes execution at addr.
func Continue(addr uint32) string {
	return fmt.Sprintf("%c%x", VerbContinue, addr)
}

// ParseAddress parses a hexadecimal address as typed by the operator, with
// or without a 0x prefix.
func ParseAddress(s string) (uint32, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint32(v), nil
}
