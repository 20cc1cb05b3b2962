package srec

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// Record types understood by the decoder.
const (
	TypeHeader  = 0
	TypeData16  = 1
	TypeData24  = 2
	TypeData32  = 3
	TypeReserve = 4
	TypeCount   = 5
)

// ErrFileNotFound is returned by Open when the image does not exist.
var ErrFileNotFound = errors.New("image file not found")

// ErrMalformedRecord is the sentinel wrapped by every MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError reports an image line that cannot be decoded.
type MalformedRecordError struct {
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("line %d: malformed record: %s", e.Line, e.Reason)
}

// Unwrap allows errors.Is(err, ErrMalformedRecord).
func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// Record is one decoded image line.
type Record struct {
	// Type is the S-record type digit (1-4).
	Type int

	// Count is the byte count field of the line: address, payload and
	// checksum bytes. It is kept as written and not checked against the
	// payload.
	Count int

	// Address is the load address written in the record. The monitor load
	// path ignores it and places records back to back from its own start
	// address.
	Address uint32

	// Data is the decoded payload without the checksum byte.
	Data []byte

	// Line is the 1-based line number in the source.
	Line int
}

// Len returns the payload length in bytes.
func (r Record) Len() int {
	return len(r.Data)
}

// Hex returns the payload as lowercase hex.
func (r Record) Hex() string {
	return hex.EncodeToString(r.Data)
}

// Source yields records one at a time and returns io.EOF when exhausted.
type Source interface {
	Next() (Record, error)
}

// SliceSource is a Source over records already in memory.
type SliceSource struct {
	records []Record
	pos     int
}

// NewSliceSource returns a Source yielding records in order.
func NewSliceSource(records []Record) *SliceSource {
	return &SliceSource{records: records}
}

// Next implements Source.
func (s *SliceSource) Next() (Record, error) {
	if s.pos >= len(s.records) {
		return Record{}, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}

// ReadAll drains src.
func ReadAll(src Source) ([]Record, error) {
	var records []Record
	for {
		r, err := src.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, r)
	}
}

// addressWidth returns the number of address bytes of a data record type.
func addressWidth(recordType int) int {
	switch recordType {
	case TypeData24:
		return 3
	case TypeData32:
		return 4
	default:
		return 2
	}
}
