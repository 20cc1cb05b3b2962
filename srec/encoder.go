package srec

import (
	"fmt"
	"io"
	"strings"
)

// Encoder writes records as S-record lines terminated by "\r\n", the line
// ending the monitor tooling expects.
type Encoder struct {
	w     io.Writer
	count int
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteHeader writes an S0 record carrying text.
func (e *Encoder) WriteHeader(text string) error {
	return e.writeLine(TypeHeader, 0, []byte(text))
}

// Write writes r as a data record. Records without an S1-S3 type get the
// narrowest type that holds their address.
func (e *Encoder) Write(r Record) error {
	t := r.Type
	if t < TypeData16 || t > TypeData32 {
		t = typeForAddress(r.Address)
	}
	if err := e.writeLine(t, r.Address, r.Data); err != nil {
		return err
	}
	e.count++
	return nil
}

// Close writes the S5 count record and the S7 termination record with the
// given entry address.
func (e *Encoder) Close(entry uint32) error {
	// The count lives in the 16-bit address field.
	if e.count <= 0xFFFF {
		if err := e.writeLine(TypeCount, uint32(e.count), nil); err != nil {
			return err
		}
	}
	return e.writeLine(7, entry, nil)
}

// Count returns the number of data records written.
func (e *Encoder) Count() int {
	return e.count
}

func (e *Encoder) writeLine(recordType int, address uint32, data []byte) error {
	width := lineAddressWidth(recordType)
	length := width + len(data) + 1
	if length > 0xFF {
		return fmt.Errorf("record too long: %d data bytes", len(data))
	}

	raw := make([]byte, 0, length+1)
	raw = append(raw, byte(length))
	for i := width - 1; i >= 0; i-- {
		raw = append(raw, byte(address>>(8*uint(i))))
	}
	raw = append(raw, data...)
	raw = append(raw, recordChecksum(raw))

	var b strings.Builder
	b.Grow(2 + 2*len(raw) + 2)
	b.WriteByte(RecordMark)
	b.WriteByte(byte('0' + recordType))
	for _, v := range raw {
		fmt.Fprintf(&b, "%02X", v)
	}
	b.WriteString("\r\n")

	_, err := io.WriteString(e.w, b.String())
	return err
}

// recordChecksum is the ones' complement of the low byte of the sum of the
// count, address and data bytes.
func recordChecksum(raw []byte) byte {
	var sum byte
	for _, v := range raw {
		sum += v
	}
	return ^sum
}

// lineAddressWidth includes the termination types, which mirror S3/S2/S1.
func lineAddressWidth(recordType int) int {
	switch recordType {
	case 7:
		return 4
	case 8:
		return 3
	case 9:
		return 2
	default:
		return addressWidth(recordType)
	}
}

func typeForAddress(address uint32) int {
	switch {
	case address <= 0xFFFF:
		return TypeData16
	case address <= 0xFFFFFF:
		return TypeData24
	default:
		return TypeData32
	}
}
