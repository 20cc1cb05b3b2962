package protocol

import (
	"bytes"
	"fmt"
)

// ParsePacket splits a complete packet into command and checksum.
// Validates framing only; use Packet.Valid to check the checksum.
//
// Packet structure:
//
//	$<command>#<cc>
func ParsePacket(frame []byte) (Packet, error) {
	if len(frame) < MinPacketSize {
		return Packet{}, &FrameError{
			Reason: fmt.Sprintf("too short: got %d bytes, minimum is %d", len(frame), MinPacketSize),
		}
	}

	if frame[0] != StartOfPacket {
		return Packet{}, &FrameError{
			Reason: fmt.Sprintf("invalid start of packet: got %q, expected %q", frame[0], StartOfPacket),
		}
	}

	end := len(frame) - ChecksumSize - 1
	if frame[end] != EndOfPacket {
		return Packet{}, &FrameError{
			Reason: fmt.Sprintf("missing terminator at offset %d: got %q", end, frame[end]),
		}
	}

	// The monitor protocol has no escaping, so a terminator inside the body
	// cannot be represented.
	if i := bytes.IndexByte(frame[1:end], EndOfPacket); i >= 0 {
		return Packet{}, &FrameError{
			Reason: fmt.Sprintf("terminator inside command at offset %d", i+1),
		}
	}

	pkt := Packet{Command: make([]byte, end-1)}
	copy(pkt.Command, frame[1:end])
	copy(pkt.Checksum[:], frame[end+1:])

	return pkt, nil
}

// ParseReply extracts and classifies the payload of a raw reply.
// Acknowledgement bytes before the packet, the '$' and the terminator are
// removed. Bytes before the first '$' are treated as acks and noise.
func ParseReply(raw []byte) Reply {
	body := raw
	if i := bytes.IndexByte(body, StartOfPacket); i >= 0 {
		body = body[i+1:]
	} else {
		body = bytes.TrimLeft(body, string([]byte{Ack, Nak}))
	}
	if i := bytes.IndexByte(body, EndOfPacket); i >= 0 {
		body = body[:i]
	}

	reply := Reply{Payload: body}

	switch {
	case len(body) == 0:
		reply.Kind = ReplyEmpty
	case string(body) == "OK":
		reply.Kind = ReplyOK
	case len(body) == 3 && body[0] == 'E' && isHex(body[1]) && isHex(body[2]):
		reply.Kind = ReplyError
		reply.Code = hexValue(body[1])<<4 | hexValue(body[2])
	default:
		reply.Kind = ReplyData
	}

	return reply
}

// VerifyResponse checks the trailing checksum of a response against its
// payload.
func VerifyResponse(resp *Response) error {
	payload := resp.Payload()
	if !VerifyChecksum(payload, resp.Checksum) {
		return &ChecksumError{
			Expected: Checksum(payload),
			Actual:   resp.Checksum,
		}
	}
	return nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

// Offsets is the section relocation reported by qOffsets.
type Offsets struct {
	Text uint32
	Data uint32
	Bss  uint32
}

// ParseOffsets parses a qOffsets reply of the form
// Text=xxx;Data=xxx;Bss=xxx. Bss may be omitted, in which case it equals
// Data.
func ParseOffsets(payload []byte) (Offsets, error) {
	var off Offsets
	seen := map[string]bool{}

	for _, field := range bytes.Split(payload, []byte{';'}) {
		name, value, ok := bytes.Cut(field, []byte{'='})
		if !ok || len(value) == 0 || len(value) > 8 {
			return Offsets{}, fmt.Errorf("invalid offsets field %q", field)
		}

		var v uint32
		for _, c := range value {
			if !isHex(c) {
				return Offsets{}, fmt.Errorf("invalid offsets value %q", value)
			}
			v = v<<4 | uint32(hexValue(c))
		}

		switch string(name) {
		case "Text":
			off.Text = v
		case "Data":
			off.Data = v
		case "Bss":
			off.Bss = v
		default:
			return Offsets{}, fmt.Errorf("unknown offsets section %q", name)
		}
		seen[string(name)] = true
	}

	if !seen["Text"] || !seen["Data"] {
		return Offsets{}, fmt.Errorf("offsets reply %q lacks Text or Data", payload)
	}
	if !seen["Bss"] {
		off.Bss = off.Data
	}

	return off, nil
}
