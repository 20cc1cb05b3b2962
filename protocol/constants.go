package protocol

// Frame structure constants.
const (
	// StartOfPacket opens every packet ('$')
	StartOfPacket = '$'

	// EndOfPacket separates the packet body from its checksum ('#')
	EndOfPacket = '#'

	// Ack is sent after every checksummed reply that was accepted ('+')
	Ack = '+'

	// Nak rejects a checksummed reply ('-')
	Nak = '-'

	// MinPacketSize is the smallest well-formed packet: '$' '#' cc
	MinPacketSize = 2 + ChecksumSize
)

// Command verbs understood by the Advanced Monitor.
const (
	// CmdIdentify queries the ROM identification string
	CmdIdentify = "qID"

	// CmdQueryOffsets queries the section relocation offsets
	CmdQueryOffsets = "qOffsets"

	// CmdRegisters dumps the CPU register file
	CmdRegisters = "g"

	// CmdReset resets the board
	CmdReset = "r"

	// VerbMemoryRead is the prefix of m<addr>,<len>
	VerbMemoryRead = 'm'

	// VerbMemoryWrite is the prefix of M<addr>,<len>:<data>
	VerbMemoryWrite = 'M'

	// VerbContinue is the prefix of c<addr>
	VerbContinue = 'c'
)

// Receive limits.
const (
	// DefaultMaxResponseSize is the default ceiling on a reply body, in bytes
	DefaultMaxResponseSize = 1024

	// DefaultMemoryDumpSize is the default length requested by a memory dump.
	// Two hex digits per byte plus framing stays below DefaultMaxResponseSize.
	DefaultMemoryDumpSize = 0x100
)
