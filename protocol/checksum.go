package protocol

// hexDigits renders checksum nibbles. Lowercase is what the monitor emits.
const hexDigits = "0123456789abcdef"

// ChecksumSize is the number of ASCII hex digits in a packet checksum.
const ChecksumSize = 2

// Checksum computes the packet checksum for a command.
// The unsigned byte values are summed and the low byte of the sum is rendered
// as two lowercase hex digits, high nibble first.
//
// Framing characters are not part of the sum.
func Checksum(command []byte) [ChecksumSize]byte {
	var sum byte
	for _, b := range command {
		sum += b
	}
	return [ChecksumSize]byte{hexDigits[sum>>4], hexDigits[sum&0x0f]}
}

// ChecksumString is Checksum for a string command.
func ChecksumString(command string) string {
	cs := Checksum([]byte(command))
	return string(cs[:])
}

// VerifyChecksum reports whether the two received checksum characters match
// the checksum of payload. Hex digits are compared case-insensitively.
func VerifyChecksum(payload []byte, received [ChecksumSize]byte) bool {
	want := Checksum(payload)
	for i := range want {
		if want[i] != toLowerHex(received[i]) {
			return false
		}
	}
	return true
}

func toLowerHex(c byte) byte {
	if c >= 'A' && c <= 'F' {
		return c + ('a' - 'A')
	}
	return c
}
