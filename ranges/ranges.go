// Package ranges maps a logical byte range of a file onto its segments.
package ranges

import (
	"github.com/t2bot/nzbkit/common"
	"github.com/t2bot/nzbkit/manifest"
)

// Piece is a window of one segment's decoded payload. Start and End are
// inclusive and local to the segment.
type Piece struct {
	SegmentID string
	Start     int64
	End       int64
}

func (p Piece) Len() int64 {
	return p.End - p.Start + 1
}

// Resolve returns the ordered pieces covering [start, end]. Segments must
// be in ascending number order. The range is not clamped; see Validate.
func Resolve(segments []manifest.Segment, start int64, end int64) []Piece {
	pieces := make([]Piece, 0)
	cumulative := int64(0)
	for _, seg := range segments {
		cumulative += seg.Size
		if cumulative <= start {
			continue
		}

		piece := Piece{SegmentID: seg.ID, Start: 0, End: seg.Size - 1}
		if len(pieces) == 0 {
			piece.Start = start - (cumulative - seg.Size)
		}
		done := cumulative > end
		if done {
			piece.End = seg.Size - (cumulative - end)
		}
		pieces = append(pieces, piece)
		if done {
			break
		}
	}
	return pieces
}

func Validate(start int64, end int64, size int64) error {
	if start < 0 || start > end || end >= size {
		return common.ErrRangeNotSatisfiable
	}
	return nil
}

// Length is the number of bytes the pieces cover.
func Length(pieces []Piece) int64 {
	total := int64(0)
	for _, p := range pieces {
		total += p.Len()
	}
	return total
}
