package pipeline_get

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t2bot/nzbkit/common"
	"github.com/t2bot/nzbkit/common/rcontext"
	"github.com/t2bot/nzbkit/errcache"
	"github.com/t2bot/nzbkit/manifest"
	"github.com/t2bot/nzbkit/nntp"
	"github.com/t2bot/nzbkit/nntp/nntptest"
)

func setup(t *testing.T, sizes ...int) ([]byte, *manifest.File, *nntptest.Server, *CachedSource) {
	errcache.Init()
	srv := nntptest.NewServer()
	rnd := rand.New(rand.NewSource(42))
	file := &manifest.File{Name: t.Name() + ".bin"}
	all := make([]byte, 0)
	for i, size := range sizes {
		data := make([]byte, size)
		rnd.Read(data)
		id := fmt.Sprintf("%s-%d@test", t.Name(), i+1)
		srv.AddArticle(id, nil, nntptest.YencBody(file.Name, data))
		file.Segments = append(file.Segments, manifest.Segment{ID: id, Size: int64(size), Number: i + 1})
		file.Size += int64(size)
		all = append(all, data...)
	}
	source := &CachedSource{
		Pool:   nntp.NewConnPool(srv, 2),
		Ctx:    rcontext.Initial(),
		Server: "test",
	}
	return all, file, srv, source
}

func TestExecuteRange(t *testing.T) {
	all, file, _, source := setup(t, 100, 100, 100)

	buf := &bytes.Buffer{}
	require.NoError(t, Execute(rcontext.Initial(), file, 50, 249, buf, source))
	assert.Equal(t, all[50:250], buf.Bytes())

	buf.Reset()
	require.NoError(t, Execute(rcontext.Initial(), file, 0, file.Size-1, buf, source))
	assert.Equal(t, all, buf.Bytes())
}

func TestExecuteInvalidRange(t *testing.T) {
	_, file, _, source := setup(t, 100)
	err := Execute(rcontext.Initial(), file, 10, 100, &bytes.Buffer{}, source)
	assert.ErrorIs(t, err, common.ErrRangeNotSatisfiable)
	err = Execute(rcontext.Initial(), file, 10, 5, &bytes.Buffer{}, source)
	assert.ErrorIs(t, err, common.ErrRangeNotSatisfiable)
}

func TestMissingArticleIsRemembered(t *testing.T) {
	_, file, srv, source := setup(t, 100)
	file.Segments[0].ID = "gone-" + file.Segments[0].ID

	_, err := source.Body(context.Background(), file.Segments[0].ID)
	assert.ErrorIs(t, err, common.ErrArticleNotFound)
	before := len(srv.Commands)

	_, err = source.Body(context.Background(), file.Segments[0].ID)
	assert.ErrorIs(t, err, common.ErrArticleNotFound)
	assert.Equal(t, before, len(srv.Commands))
}

func TestConnectionDroppedAfterFinalSegment(t *testing.T) {
	all, file, srv, source := setup(t, 100, 100)
	srv.Truncate[file.Segments[1].ID] = true

	buf := &bytes.Buffer{}
	require.NoError(t, Execute(rcontext.Initial(), file, 0, file.Size-1, buf, source))
	assert.Equal(t, all, buf.Bytes())
}

func TestConnectionDroppedBeforeFinalSegment(t *testing.T) {
	all, file, srv, source := setup(t, 100, 100)
	srv.Truncate[file.Segments[0].ID] = true

	buf := &bytes.Buffer{}
	err := Execute(rcontext.Initial(), file, 0, file.Size-1, buf, source)
	assert.True(t, nntp.IsClosed(err))
	assert.Equal(t, all[:100], buf.Bytes())
}
