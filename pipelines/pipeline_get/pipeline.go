package pipeline_get

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/common/rcontext"
	"github.com/t2bot/nzbkit/decoding"
	"github.com/t2bot/nzbkit/manifest"
	"github.com/t2bot/nzbkit/ranges"
)

// Execute writes bytes [start, end] of file to w.
func Execute(ctx rcontext.RequestContext, file *manifest.File, start int64, end int64, w io.Writer, source decoding.BodySource) error {
	// Step 1: Make sure the range is something we can serve
	if err := ranges.Validate(start, end, file.Size); err != nil {
		return err
	}

	// Step 2: Work out which segments we need
	pieces := ranges.Resolve(file.Segments, start, end)
	if covered := ranges.Length(pieces); covered != end-start+1 {
		ctx.Log.Warnf("Segments of %s only cover %d of the %d bytes requested", file.Name, covered, end-start+1)
	}

	// Step 3: Stream them out
	p := &decoding.Pipeline{
		Source: source,
		Log: ctx.Log.WithFields(logrus.Fields{
			"file":  file.Name,
			"start": start,
			"end":   end,
		}),
	}
	return p.Run(ctx, pieces, w)
}
