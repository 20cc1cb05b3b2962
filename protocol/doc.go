// Package protocol implements the checksummed command framing spoken by the
// SuperH Advanced Monitor boot ROM.
//
// This package only builds and parses byte sequences. Driving them over a
// serial link is the job of package monitor.
//
// # Protocol Overview
//
// Every command travels as an ASCII packet:
//
//	Command:  $<command>#<cc>
//	Reply:    [+]$<payload>#<cc>
//	Ack:      +   (or - when the host rejects the reply)
//
// Where:
//   - cc = two lowercase hex digits, the low byte of the sum of the command bytes
//   - the leading + on a reply is the board acknowledging our packet
//   - every reply that carries a checksum must be acknowledged by the host,
//     otherwise the monitor stalls
//
// # Command Builders
//
// Use the Build* functions to create packets:
//
//	pkt := protocol.BuildPacket(protocol.CmdIdentify)
//	pkt := protocol.BuildPacket(protocol.MemoryWrite(0x0c000000, data))
//
// # Reply Parsing
//
// ParseReply strips acknowledgements and framing from a raw reply and
// classifies it:
//
//	reply := protocol.ParseReply(raw)
//	switch reply.Kind {
//	case protocol.ReplyOK:
//	case protocol.ReplyError:
//	    return &protocol.ProtocolError{Operation: "write memory", Code: reply.Code}
//	}
//
// # Reference
//
// The packet layout is the GDB remote serial protocol subset implemented by
// the Hitachi SH Advanced Monitor 1.0.
package protocol
