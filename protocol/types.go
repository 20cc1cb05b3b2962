package protocol

// Packet is a command together with its checksum, as it appears on the wire.
type Packet struct {
	// Command is the packet body between '$' and '#'
	Command []byte

	// Checksum is the two hex digits following '#'
	Checksum [ChecksumSize]byte
}

// Valid reports whether the carried checksum matches the command.
func (p Packet) Valid() bool {
	return VerifyChecksum(p.Command, p.Checksum)
}

// ReplyKind classifies a monitor reply.
type ReplyKind int

const (
	// ReplyEmpty is a reply with no payload ($#00), sent for unsupported commands
	ReplyEmpty ReplyKind = iota

	// ReplyOK is the literal OK acknowledgement
	ReplyOK

	// ReplyError is an Exx error reply
	ReplyError

	// ReplyData is any other payload (hex dumps, identification strings)
	ReplyData
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyEmpty:
		return "empty"
	case ReplyOK:
		return "ok"
	case ReplyError:
		return "error"
	case ReplyData:
		return "data"
	default:
		return "unknown"
	}
}

// Reply is the parsed form of a raw reply.
type Reply struct {
	// Kind is the classification of Payload
	Kind ReplyKind

	// Payload is the reply body without acks, '$' and '#'
	Payload []byte

	// Code is the error number when Kind is ReplyError
	Code byte
}

// Response is everything read for one reply.
type Response struct {
	// Raw is every byte received up to and including the terminator
	Raw []byte

	// Checksum is the trailing checksum field read after the terminator
	Checksum [ChecksumSize]byte
}

// Reply parses and classifies the raw bytes of the response.
func (r *Response) Reply() Reply {
	return ParseReply(r.Raw)
}

// Payload returns the reply body without acks and framing.
func (r *Response) Payload() []byte {
	return ParseReply(r.Raw).Payload
}

// String returns the reply body as text.
func (r *Response) String() string {
	return string(r.Payload())
}
