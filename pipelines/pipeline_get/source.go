package pipeline_get

import (
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/t2bot/nzbkit/common"
	"github.com/t2bot/nzbkit/common/rcontext"
	"github.com/t2bot/nzbkit/errcache"
	"github.com/t2bot/nzbkit/metrics"
	"github.com/t2bot/nzbkit/nntp"
	"github.com/t2bot/nzbkit/redislib"
)

var sf = new(singleflight.Group)

// fetched is a body shared by every caller of one singleflight fetch. err
// is set when the connection dropped after the body was read, and is
// returned by the reader once body is exhausted.
type fetched struct {
	body []byte
	err  error
}

type errReader struct{ err error }

func (e errReader) Read(p []byte) (int, error) {
	return 0, e.err
}

// CachedSource fetches article bodies through a connection pool. Concurrent
// fetches of one article share a single request, known-missing articles
// fail fast, and bodies are kept in redis when it is configured.
type CachedSource struct {
	Pool   *nntp.ConnPool
	Ctx    rcontext.RequestContext
	Server string
}

func (s *CachedSource) Body(ctx context.Context, id string) (io.Reader, error) {
	// Step 1: Is it already known to be missing?
	if errcache.MissingArticles != nil {
		if err := errcache.MissingArticles.Get(id); err != nil {
			return nil, err
		}
	}

	// Step 2: Join the singleflight queue
	v, err, _ := sf.Do(id, func() (interface{}, error) {
		rctx := s.Ctx.WithContext(ctx)

		// Step 3: Try the cache
		cached, err := redislib.TryGetArticle(rctx, id)
		if err != nil {
			rctx.Log.Warn("Error reading article cache: ", err)
		}
		if cached != nil {
			return &fetched{body: cached}, nil
		}

		// Step 4: Ask the server
		conn, err := s.Pool.Get(ctx)
		if err != nil {
			return nil, err
		}
		r, err := conn.Body(id)
		if err != nil {
			if nntp.IsNotFound(err) {
				s.Pool.Put(conn, false)
				metrics.ArticlesMissing.WithLabelValues(s.Server).Inc()
				err = errors.Wrap(common.ErrArticleNotFound, nntp.MessageID(id))
				if errcache.MissingArticles != nil {
					errcache.MissingArticles.Set(id, err)
				}
				return nil, err
			}
			s.Pool.Put(conn, true)
			return nil, err
		}
		body, err := io.ReadAll(r)
		s.Pool.Put(conn, err != nil)
		if err != nil {
			if len(body) > 0 && nntp.IsClosed(err) {
				// the caller decides whether what arrived is enough
				return &fetched{body: body, err: err}, nil
			}
			return nil, err
		}

		// Step 5: Remember it for next time
		if err = redislib.StoreArticle(rctx, id, body); err != nil {
			rctx.Log.Warn("Error caching article: ", err)
		}
		return &fetched{body: body}, nil
	})
	if err != nil {
		return nil, err
	}
	f := v.(*fetched)
	if f.err != nil {
		return io.MultiReader(bytes.NewReader(f.body), errReader{f.err}), nil
	}
	return bytes.NewReader(f.body), nil
}
