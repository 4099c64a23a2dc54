package decoding

import (
	"io"
)

// Decoder is a streaming yEnc decoder. Bytes written to it are decoded
// and forwarded to the underlying writer. An escape split across two
// writes is handled.
type Decoder struct {
	w       io.Writer
	escaped bool
	buf     []byte
}

func NewDecoder(w io.Writer) *Decoder {
	return &Decoder{w: w}
}

func (d *Decoder) Write(p []byte) (int, error) {
	if cap(d.buf) < len(p) {
		d.buf = make([]byte, 0, len(p))
	}
	out := d.buf[:0]
	for _, b := range p {
		switch {
		case d.escaped:
			d.escaped = false
			out = append(out, b-64-42)
		case b == '\r' || b == '\n':
		case b == '=':
			d.escaped = true
		default:
			out = append(out, b-42)
		}
	}
	if len(out) > 0 {
		if _, err := d.w.Write(out); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Encode yEnc-encodes data into lines of at most lineLength characters.
// It is the inverse of Decoder, minus the envelope.
func Encode(data []byte, lineLength int) []byte {
	out := make([]byte, 0, len(data)+len(data)/32+2)
	col := 0
	for i, b := range data {
		c := b + 42
		escape := c == 0 || c == '\n' || c == '\r' || c == '='
		if !escape && (c == '\t' || c == ' ') && (col == 0 || col == lineLength-1) {
			escape = true
		}
		if !escape && c == '.' && col == 0 {
			escape = true
		}
		if escape {
			out = append(out, '=', c+64)
			col += 2
		} else {
			out = append(out, c)
			col++
		}
		if col >= lineLength && i < len(data)-1 {
			out = append(out, '\r', '\n')
			col = 0
		}
	}
	return append(out, '\r', '\n')
}
