// Package console connects the board's serial console to the operator's
// terminal: board output is decoded from the board's character set, and
// keystrokes are passed through in raw mode until an escape byte.
package console

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// Charset names the character set the board prints in.
type Charset string

const (
	UTF8    = Charset("UTF-8")
	Latin1  = Charset("ISO-8859-1")
	CP437   = Charset("CP437")
	GB18030 = Charset("GB18030")
)

// DefaultCharset passes board output through unchanged.
const DefaultCharset = UTF8

// ParseCharset looks up a charset by name, ignoring case. Common aliases
// such as "latin1" and "utf8" are accepted.
func ParseCharset(name string) (Charset, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "iso-8859-1", "latin1", "latin-1":
		return Latin1, nil
	case "cp437", "ibm437", "437":
		return CP437, nil
	case "gb18030":
		return GB18030, nil
	}
	return "", fmt.Errorf("unknown charset %q", name)
}

// encoding returns the x/text encoding for c, or nil for UTF-8.
func (c Charset) encoding() encoding.Encoding {
	switch c {
	case Latin1:
		return charmap.ISO8859_1
	case CP437:
		return charmap.CodePage437
	case GB18030:
		return simplifiedchinese.GB18030
	default:
		return nil
	}
}

// NewWriter returns a writer that decodes bytes in charset c to UTF-8 on w.
// Close flushes a partial multi-byte sequence; it does not close w.
func NewWriter(w io.Writer, c Charset) io.WriteCloser {
	enc := c.encoding()
	if enc == nil {
		return nopCloser{w}
	}
	return transform.NewWriter(w, enc.NewDecoder())
}

// EncodeTo converts UTF-8 text typed by the operator to charset c.
// Characters c cannot represent are replaced.
func EncodeTo(c Charset, s string) []byte {
	enc := c.encoding()
	if enc == nil {
		return []byte(s)
	}
	out, err := encoding.ReplaceUnsupported(enc.NewEncoder()).String(s)
	if err != nil {
		return []byte(s)
	}
	return []byte(out)
}

// DecodeFrom converts data in charset c to a UTF-8 string.
func DecodeFrom(c Charset, data []byte) string {
	enc := c.encoding()
	if enc == nil {
		return string(data)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
