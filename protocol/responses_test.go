package protocol

import (
	"errors"
	"testing"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantKind    ReplyKind
		wantPayload string
		wantCode    byte
	}{
		{
			name:        "ok with leading ack",
			raw:         "+$OK#",
			wantKind:    ReplyOK,
			wantPayload: "OK",
		},
		{
			name:        "error reply",
			raw:         "+$E0a#",
			wantKind:    ReplyError,
			wantPayload: "E0a",
			wantCode:    0x0a,
		},
		{
			name:        "empty reply",
			raw:         "+$#",
			wantKind:    ReplyEmpty,
			wantPayload: "",
		},
		{
			name:        "identification string",
			raw:         "$SH7708 Advanced Monitor 1.0#",
			wantKind:    ReplyData,
			wantPayload: "SH7708 Advanced Monitor 1.0",
		},
		{
			name:        "no start marker",
			raw:         "++OK#",
			wantKind:    ReplyOK,
			wantPayload: "OK",
		},
		{
			name:        "data that looks like an error",
			raw:         "$E0z#",
			wantKind:    ReplyData,
			wantPayload: "E0z",
		},
		{
			name:        "noise before packet",
			raw:         "\r\n+$0102#",
			wantKind:    ReplyData,
			wantPayload: "0102",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := ParseReply([]byte(tt.raw))
			if reply.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", reply.Kind, tt.wantKind)
			}
			if string(reply.Payload) != tt.wantPayload {
				t.Errorf("Payload = %q, want %q", reply.Payload, tt.wantPayload)
			}
			if reply.Code != tt.wantCode {
				t.Errorf("Code = 0x%02x, want 0x%02x", reply.Code, tt.wantCode)
			}
		})
	}
}

func TestVerifyResponse(t *testing.T) {
	good := &Response{Raw: []byte("+$OK#"), Checksum: [2]byte{'9', 'a'}}
	if err := VerifyResponse(good); err != nil {
		t.Errorf("VerifyResponse() unexpected error: %v", err)
	}

	bad := &Response{Raw: []byte("+$OK#"), Checksum: [2]byte{'0', '0'}}
	err := VerifyResponse(bad)
	if err == nil {
		t.Fatal("expected checksum error, got nil")
	}

	var ce *ChecksumError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want *ChecksumError", err)
	}
	if string(ce.Expected[:]) != "9a" {
		t.Errorf("Expected = %q, want %q", ce.Expected[:], "9a")
	}
}

func TestResponseString(t *testing.T) {
	resp := &Response{Raw: []byte("+$SH-ROM 1.0#")}
	if got := resp.String(); got != "SH-ROM 1.0" {
		t.Errorf("String() = %q, want %q", got, "SH-ROM 1.0")
	}
}

func TestProtocolError(t *testing.T) {
	err := &ProtocolError{Operation: "write memory", Code: 0x03}
	if got := err.Error(); got != "write memory failed: monitor error E03" {
		t.Errorf("Error() = %q", got)
	}

	if !IsProtocolError(err) {
		t.Error("IsProtocolError() = false, want true")
	}
	if IsProtocolError(ErrTimeout) {
		t.Error("IsProtocolError(ErrTimeout) = true, want false")
	}
}

func TestReplyKindString(t *testing.T) {
	kinds := map[ReplyKind]string{
		ReplyEmpty:    "empty",
		ReplyOK:       "ok",
		ReplyError:    "error",
		ReplyData:     "data",
		ReplyKind(42): "unknown",
	}
	for k, want := range kinds {
		if got := k.String(); got != want {
			t.Errorf("ReplyKind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestParseOffsets(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Offsets
		wantErr bool
	}{
		{
			name:    "all sections",
			payload: "Text=8c010000;Data=8c020000;Bss=8c030000",
			want:    Offsets{Text: 0x8c010000, Data: 0x8c020000, Bss: 0x8c030000},
		},
		{
			name:    "bss defaults to data",
			payload: "Text=0;Data=100",
			want:    Offsets{Text: 0, Data: 0x100, Bss: 0x100},
		},
		{name: "missing data", payload: "Text=0", wantErr: true},
		{name: "bad value", payload: "Text=xyz;Data=0", wantErr: true},
		{name: "unknown section", payload: "Text=0;Data=0;Heap=0", wantErr: true},
		{name: "empty", payload: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOffsets([]byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseOffsets() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
