package srec

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

const sampleIntelHex = ":0400000001020304F2\n" +
	":00000001FF\n"

func TestReadIntelHex(t *testing.T) {
	img, err := ReadIntelHex(strings.NewReader(sampleIntelHex))
	if err != nil {
		t.Fatalf("ReadIntelHex() unexpected error: %v", err)
	}

	if len(img.Segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(img.Segments))
	}
	seg := img.Segments[0]
	if seg.Address != 0 || !bytes.Equal(seg.Data, []byte{1, 2, 3, 4}) {
		t.Errorf("segment = %+v", seg)
	}
	if img.Size() != 4 {
		t.Errorf("Size() = %d, want 4", img.Size())
	}
	if img.HasEntry {
		t.Error("HasEntry = true, want false")
	}
}

func TestReadIntelHexErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad checksum", ":0400000001020304F3\n:00000001FF\n"},
		{"no data", ":00000001FF\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadIntelHex(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestOpenIntelHexMissing(t *testing.T) {
	_, err := OpenIntelHex(filepath.Join(t.TempDir(), "missing.hex"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("error = %v, want ErrFileNotFound", err)
	}
}

func TestSegmentRecords(t *testing.T) {
	seg := Segment{Address: 0x1000, Data: make([]byte, 70)}

	records := seg.Records(32)
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	wantLens := []int{32, 32, 6}
	addr := seg.Address
	for i, r := range records {
		if r.Address != addr {
			t.Errorf("record %d Address = 0x%x, want 0x%x", i, r.Address, addr)
		}
		if r.Len() != wantLens[i] {
			t.Errorf("record %d Len() = %d, want %d", i, r.Len(), wantLens[i])
		}
		addr += uint32(r.Len())
	}

	if got := len(seg.Records(0)); got != 3 {
		t.Errorf("default chunking gave %d records, want 3", got)
	}
}

func TestIntelHexRoundTrip(t *testing.T) {
	records := []Record{
		{Address: 0x0000, Data: []byte{0x01, 0x02, 0x03, 0x04}, Line: 1},
		{Address: 0x0100, Data: []byte{0xAA, 0xBB}, Line: 2},
	}

	var buf bytes.Buffer
	if err := WriteIntelHex(&buf, records, 16); err != nil {
		t.Fatalf("WriteIntelHex() unexpected error: %v", err)
	}

	img, err := ReadIntelHex(&buf)
	if err != nil {
		t.Fatalf("ReadIntelHex() unexpected error: %v", err)
	}
	if len(img.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(img.Segments))
	}
	if img.Segments[1].Address != 0x0100 || !bytes.Equal(img.Segments[1].Data, []byte{0xAA, 0xBB}) {
		t.Errorf("second segment = %+v", img.Segments[1])
	}
}
