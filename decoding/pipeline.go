package decoding

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/metrics"
	"github.com/t2bot/nzbkit/nntp"
	"github.com/t2bot/nzbkit/ranges"
)

// BodySource fetches the raw body of an article by bare message-id.
type BodySource interface {
	Body(ctx context.Context, id string) (io.Reader, error)
}

type Pipeline struct {
	Source BodySource
	Log    *logrus.Entry
}

// Run writes the decoded window of every piece to w, one piece after the
// other. Output written before a failure is left in place.
func (p *Pipeline) Run(ctx context.Context, pieces []ranges.Piece, w io.Writer) error {
	for i, piece := range pieces {
		if err := ctx.Err(); err != nil {
			return err
		}

		log := p.Log.WithField("segment", piece.SegmentID)
		clip := NewClipper(w, piece.Start, piece.End)
		err := p.runPiece(ctx, piece, clip)
		metrics.BytesDecoded.Add(float64(clip.Written()))
		if err == nil {
			continue
		}

		if i == len(pieces)-1 && clip.Complete() && nntp.IsClosed(err) {
			log.Debug("Connection closed after the final piece completed: ", err)
			return nil
		}
		log.Error("Error decoding segment: ", err)
		return err
	}
	return nil
}

func (p *Pipeline) runPiece(ctx context.Context, piece ranges.Piece, clip *Clipper) error {
	body, err := p.Source.Body(ctx, piece.SegmentID)
	if err != nil {
		return errors.Wrapf(err, "fetching %s", piece.SegmentID)
	}
	if c, ok := body.(io.Closer); ok {
		defer c.Close()
	}

	// the body is drained even once the window is complete so the
	// connection can serve the next fetch
	_, err = io.Copy(NewDecoder(clip), NewEnvelopeStripper(body))
	return err
}
