package srec

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// Constants for S-record line layout.
const (
	// RecordMark is the first character of every record line.
	RecordMark = 'S'

	// PayloadBase is the payload offset before adding 2 characters per type.
	PayloadBase = 6

	// ChecksumLength is the length of the trailing checksum in characters.
	ChecksumLength = 2

	// MaxLineLength bounds a single image line.
	MaxLineLength = 64 * 1024
)

// PayloadOffset returns where the payload starts in a line of the given type.
func PayloadOffset(recordType int) int {
	return PayloadBase + 2*recordType
}

// Decoder reads records lazily from a text stream. It is not restartable:
// once it returns io.EOF or an error, every later call returns the same.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
	started bool
	err     error
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 512), MaxLineLength)
	return &Decoder{scanner: scanner}
}

// Next returns the next data record, io.EOF at the end of the sequence, or
// a *MalformedRecordError.
//
// Header lines before the first data record are skipped. The sequence ends
// at the first line that is not an S1-S4 record: an S5 count record, a
// termination record (S7-S9) or any foreign line all yield io.EOF rather
// than an error, and nothing after them is read.
func (d *Decoder) Next() (Record, error) {
	if d.err != nil {
		return Record{}, d.err
	}

	for d.scanner.Scan() {
		d.line++
		text := d.scanner.Text()
		recordType := lineType(text)

		// Skip the header and anything before the first data record.
		if !d.started {
			if recordType < TypeData16 {
				continue
			}
			d.started = true
		}

		if recordType < TypeData16 || recordType >= TypeCount || text[0] != RecordMark {
			d.err = io.EOF
			return Record{}, d.err
		}

		rec, err := DecodeLine(text, d.line)
		if err != nil {
			d.err = err
			return Record{}, err
		}
		return rec, nil
	}

	if err := d.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			d.err = &MalformedRecordError{Line: d.line + 1, Reason: "line too long"}
		} else {
			d.err = fmt.Errorf("failed to read image: %w", err)
		}
		return Record{}, d.err
	}

	d.err = io.EOF
	return Record{}, d.err
}

// Line returns the number of lines consumed so far.
func (d *Decoder) Line() int {
	return d.line
}

// lineType returns the record type digit of a line, or -1 when the line is
// too short or the second character is not a digit.
func lineType(text string) int {
	if len(text) < 2 || text[1] < '0' || text[1] > '9' {
		return -1
	}
	return int(text[1] - '0')
}

// DecodeLine decodes a single S1-S4 line. Trailing carriage returns are
// ignored. The record checksum is stripped, not verified.
func DecodeLine(text string, lineNum int) (Record, error) {
	text = strings.TrimRight(text, "\r\n")

	recordType := lineType(text)
	if recordType < TypeData16 || recordType >= TypeCount || text[0] != RecordMark {
		return Record{}, &MalformedRecordError{Line: lineNum, Reason: fmt.Sprintf("not a data record: %.8q", text)}
	}

	offset := PayloadOffset(recordType)
	if len(text) < offset+ChecksumLength {
		return Record{}, &MalformedRecordError{
			Line:   lineNum,
			Reason: fmt.Sprintf("line too short: got %d characters, need at least %d", len(text), offset+ChecksumLength),
		}
	}

	payload := text[offset : len(text)-ChecksumLength]
	if len(payload)%2 != 0 {
		return Record{}, &MalformedRecordError{Line: lineNum, Reason: "odd number of payload digits"}
	}

	data, err := hex.DecodeString(payload)
	if err != nil {
		return Record{}, &MalformedRecordError{Line: lineNum, Reason: fmt.Sprintf("invalid payload: %v", err)}
	}

	address, err := strconv.ParseUint(text[4:offset], 16, 64)
	if err != nil {
		return Record{}, &MalformedRecordError{Line: lineNum, Reason: fmt.Sprintf("invalid address %q", text[4:offset])}
	}

	count, err := strconv.ParseUint(text[2:4], 16, 8)
	if err != nil {
		return Record{}, &MalformedRecordError{Line: lineNum, Reason: fmt.Sprintf("invalid byte count %q", text[2:4])}
	}

	return Record{
		Type:    recordType,
		Count:   int(count),
		Address: uint32(address),
		Data:    data,
		Line:    lineNum,
	}, nil
}

// File is a Decoder over an opened image file.
type File struct {
	*Decoder
	Path string
	f    *os.File
}

// Open opens an S-record image. A missing file yields an error wrapping
// ErrFileNotFound.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return &File{
		Decoder: NewDecoder(f),
		Path:    path,
		f:       f,
	}, nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}
