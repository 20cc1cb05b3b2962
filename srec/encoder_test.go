package srec

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"
)

func TestEncoderKnownLines(t *testing.T) {
	data, _ := hex.DecodeString("285F245F2212226A000424290008237C")

	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	if err := enc.WriteHeader("HDR"); err != nil {
		t.Fatal(err)
	}
	if err := enc.Write(Record{Type: TypeData16, Address: 0, Data: data}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(0); err != nil {
		t.Fatal(err)
	}

	want := "S00600004844521B\r\n" +
		"S1130000285F245F2212226A000424290008237C2A\r\n" +
		"S5030001FB\r\n" +
		"S70500000000FA\r\n"
	if buf.String() != want {
		t.Errorf("encoded:\n%q\nwant:\n%q", buf.String(), want)
	}
	if enc.Count() != 1 {
		t.Errorf("Count() = %d, want 1", enc.Count())
	}
}

func TestEncoderPicksAddressWidth(t *testing.T) {
	tests := []struct {
		address uint32
		prefix  string
	}{
		{0x1234, "S1"},
		{0x123456, "S2"},
		{0x8c010000, "S3"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		if err := NewEncoder(&buf).Write(Record{Address: tt.address, Data: []byte{0xAA}}); err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(buf.String(), tt.prefix) {
			t.Errorf("address 0x%x encoded as %q, want prefix %s", tt.address, buf.String(), tt.prefix)
		}
	}
}

func TestEncoderRejectsOversizedRecord(t *testing.T) {
	err := NewEncoder(&bytes.Buffer{}).Write(Record{Type: TypeData32, Data: make([]byte, 300)})
	if err == nil || !strings.Contains(err.Error(), "too long") {
		t.Errorf("error = %v, want record too long", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	seg := Segment{Address: 0x8c010000, Data: bytes.Repeat([]byte{0xDE, 0xAD, 0xBE, 0xEF}, 25)}
	records := seg.Records(16)

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	_ = enc.WriteHeader("shload")
	for _, r := range records {
		if err := enc.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	_ = enc.Close(seg.Address)

	decoded, err := ReadAll(NewDecoder(&buf))
	if err != nil {
		t.Fatalf("ReadAll() unexpected error: %v", err)
	}
	if len(decoded) != len(records) {
		t.Fatalf("decoded %d records, want %d", len(decoded), len(records))
	}

	var joined []byte
	for i, r := range decoded {
		if r.Address != records[i].Address {
			t.Errorf("record %d Address = 0x%x, want 0x%x", i, r.Address, records[i].Address)
		}
		joined = append(joined, r.Data...)
	}
	if !bytes.Equal(joined, seg.Data) {
		t.Error("decoded payload does not match segment data")
	}
}
