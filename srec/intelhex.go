package srec

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/marcinbor85/gohex"
)

// DefaultChunkSize is the payload size of records cut from binary segments.
const DefaultChunkSize = 32

// Segment is a contiguous block of image data.
type Segment struct {
	Address uint32
	Data    []byte
}

// Records splits the segment into records of at most chunkSize bytes with
// consecutive addresses. chunkSize <= 0 selects DefaultChunkSize.
func (s Segment) Records(chunkSize int) []Record {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	records := make([]Record, 0, (len(s.Data)+chunkSize-1)/chunkSize)
	for off := 0; off < len(s.Data); off += chunkSize {
		end := off + chunkSize
		if end > len(s.Data) {
			end = len(s.Data)
		}
		records = append(records, Record{
			Type:    TypeData32,
			Address: s.Address + uint32(off),
			Data:    s.Data[off:end],
			Line:    len(records) + 1,
		})
	}
	return records
}

// Image is a parsed Intel HEX file.
type Image struct {
	Segments []Segment

	// Entry is the start address record, valid when HasEntry is set.
	Entry    uint32
	HasEntry bool
}

// Size returns the total number of data bytes.
func (img *Image) Size() int {
	n := 0
	for _, s := range img.Segments {
		n += len(s.Data)
	}
	return n
}

// ReadIntelHex parses an Intel HEX image.
func ReadIntelHex(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("failed to parse intel hex: %w", err)
	}

	img := &Image{}
	for _, seg := range mem.GetDataSegments() {
		img.Segments = append(img.Segments, Segment{Address: seg.Address, Data: seg.Data})
	}
	img.Entry, img.HasEntry = mem.GetStartAddress()

	if len(img.Segments) == 0 {
		return nil, fmt.Errorf("no data found in intel hex image")
	}

	return img, nil
}

// OpenIntelHex reads an Intel HEX file. A missing file yields an error
// wrapping ErrFileNotFound.
func OpenIntelHex(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadIntelHex(f)
}

// WriteIntelHex writes records as Intel HEX, placing each at its own
// address. lineLength is the number of data bytes per output line.
func WriteIntelHex(w io.Writer, records []Record, lineLength int) error {
	mem := gohex.NewMemory()
	for _, r := range records {
		if err := mem.AddBinary(r.Address, r.Data); err != nil {
			return fmt.Errorf("line %d: %w", r.Line, err)
		}
	}
	return mem.DumpIntelHex(w, byte(lineLength))
}
