package decoding

import (
	"io"
)

// Clipper forwards only the bytes of the inclusive window [start, end] of
// the stream written to it. Bytes past the window are accepted and dropped.
type Clipper struct {
	w       io.Writer
	toStart int64
	toEnd   int64
	want    int64
	written int64
}

func NewClipper(w io.Writer, start int64, end int64) *Clipper {
	return &Clipper{
		w:       w,
		toStart: start,
		toEnd:   end + 1,
		want:    end - start + 1,
	}
}

func clamp(v int64, max int64) int64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func (c *Clipper) Write(p []byte) (int, error) {
	n := int64(len(p))
	lo := clamp(c.toStart, n)
	hi := clamp(c.toEnd, n)
	c.toStart -= n
	c.toEnd -= n

	if hi > lo {
		written, err := c.w.Write(p[lo:hi])
		c.written += int64(written)
		if err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Written is the number of window bytes forwarded so far.
func (c *Clipper) Written() int64 {
	return c.written
}

// Complete reports whether the whole window has been forwarded.
func (c *Clipper) Complete() bool {
	return c.written >= c.want
}
