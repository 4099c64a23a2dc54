// Package decoding turns raw article bodies into the decoded byte range
// requested by a caller.
package decoding

import (
	"bufio"
	"bytes"
	"io"
)

var envelopeMarkers = [][]byte{
	[]byte("=ybegin"),
	[]byte("=ypart"),
	[]byte("=yend"),
}

func isEnvelope(line []byte) bool {
	for _, m := range envelopeMarkers {
		if bytes.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

type envelopeStripper struct {
	br      *bufio.Reader
	pending []byte
	err     error
}

// NewEnvelopeStripper drops the yEnc header and trailer lines from r. Other
// lines are passed through with their terminators.
func NewEnvelopeStripper(r io.Reader) io.Reader {
	return &envelopeStripper{br: bufio.NewReaderSize(r, 16*1024)}
}

func (e *envelopeStripper) Read(p []byte) (int, error) {
	for len(e.pending) == 0 {
		if e.err != nil {
			return 0, e.err
		}
		line, err := e.br.ReadBytes('\n')
		if len(line) > 0 && !isEnvelope(line) {
			e.pending = line
		}
		e.err = err
	}
	n := copy(p, e.pending)
	e.pending = e.pending[n:]
	return n, nil
}
