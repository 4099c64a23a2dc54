package ranges

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/t2bot/nzbkit/common"
	"github.com/t2bot/nzbkit/manifest"
)

func segments(sizes ...int64) []manifest.Segment {
	segs := make([]manifest.Segment, len(sizes))
	for i, s := range sizes {
		segs[i] = manifest.Segment{ID: fmt.Sprintf("s%d", i+1), Size: s, Number: i + 1}
	}
	return segs
}

func TestResolveScenario(t *testing.T) {
	pieces := Resolve(segments(100, 100, 100), 50, 249)
	assert.Equal(t, []Piece{
		{SegmentID: "s1", Start: 50, End: 99},
		{SegmentID: "s2", Start: 0, End: 99},
		{SegmentID: "s3", Start: 0, End: 49},
	}, pieces)
	assert.Equal(t, int64(200), Length(pieces))
}

func TestResolveWhole(t *testing.T) {
	pieces := Resolve(segments(100, 80, 30), 0, 209)
	assert.Len(t, pieces, 3)
	assert.Equal(t, int64(0), pieces[0].Start)
	assert.Equal(t, int64(29), pieces[2].End)
}

func TestResolveBoundaries(t *testing.T) {
	segs := segments(100, 100, 100)

	// exactly on a segment edge
	assert.Equal(t, []Piece{{SegmentID: "s2", Start: 0, End: 99}}, Resolve(segs, 100, 199))
	assert.Equal(t, []Piece{{SegmentID: "s1", Start: 99, End: 99}, {SegmentID: "s2", Start: 0, End: 0}}, Resolve(segs, 99, 100))

	// single byte
	assert.Equal(t, []Piece{{SegmentID: "s3", Start: 0, End: 0}}, Resolve(segs, 200, 200))
	assert.Equal(t, []Piece{{SegmentID: "s1", Start: 0, End: 0}}, Resolve(segs, 0, 0))

	assert.Empty(t, Resolve(nil, 0, 10))
}

func TestResolveCoversRange(t *testing.T) {
	segs := segments(7, 13, 1, 29, 50)
	size := int64(100)
	for start := int64(0); start < size; start++ {
		for end := start; end < size; end++ {
			pieces := Resolve(segs, start, end)
			assert.Equal(t, end-start+1, Length(pieces), "range %d-%d", start, end)
			for _, p := range pieces {
				assert.True(t, p.Start >= 0 && p.Start <= p.End, "range %d-%d piece %v", start, end, p)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(0, 99, 100))
	assert.NoError(t, Validate(5, 5, 100))
	assert.ErrorIs(t, Validate(-1, 5, 100), common.ErrRangeNotSatisfiable)
	assert.ErrorIs(t, Validate(6, 5, 100), common.ErrRangeNotSatisfiable)
	assert.ErrorIs(t, Validate(0, 100, 100), common.ErrRangeNotSatisfiable)
}
