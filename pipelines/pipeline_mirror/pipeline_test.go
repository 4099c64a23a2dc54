package pipeline_mirror

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net/textproto"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t2bot/nzbkit/common"
	"github.com/t2bot/nzbkit/manifest"
	"github.com/t2bot/nzbkit/nntp/nntptest"
)

// source builds a manifest of files*parts segments and a server holding them.
func source(files int, parts int) (*manifest.Manifest, *nntptest.Server) {
	srv := nntptest.NewServer()
	m := manifest.New("src.nzb")
	m.Head["password"] = "pw"
	for f := 1; f <= files; f++ {
		name := fmt.Sprintf("file%d.bin", f)
		file := &manifest.File{
			Poster:       "poster@example.com",
			LastModified: 1600000000000,
			Subject:      fmt.Sprintf(`"%s" yEnc (1/%d)`, name, parts),
			Name:         name,
			Groups:       []string{"alt.binaries.test"},
		}
		for p := 1; p <= parts; p++ {
			id := fmt.Sprintf("f%dp%d@src", f, p)
			file.Segments = append(file.Segments, manifest.Segment{ID: id, Size: int64(100 * p), Number: p})
			file.Size += int64(100 * p)
			srv.AddArticle(id, textproto.MIMEHeader{
				"From":       {"poster@example.com"},
				"Newsgroups": {"alt.binaries.test"},
				"Subject":    {fmt.Sprintf(`"%s" yEnc (%d/%d)`, name, p, parts)},
			}, []byte(fmt.Sprintf("body %d %d\n", f, p)))
		}
		m.Files = append(m.Files, file)
		m.Size += file.Size
	}
	return m, srv
}

func engine(src *nntptest.Server, dst *nntptest.Server, opts Options) *Engine {
	return &Engine{
		Source:      src,
		Destination: dst,
		Options:     opts,
		Log:         logrus.WithField("test", true),
	}
}

func TestMirrorSingleConnection(t *testing.T) {
	m, src := source(1, 2)
	dst := nntptest.NewServer()

	out := &bytes.Buffer{}
	res, err := engine(src, dst, Options{Connections: 1}).Run(context.Background(), m, out, nil)
	require.NoError(t, err)
	assert.Equal(t, &Result{Posted: 2, Bytes: 300}, res)

	mirrored, err := manifest.Parse(out, "out.nzb")
	require.NoError(t, err)
	assert.Equal(t, "pw", mirrored.Head["password"])
	require.Len(t, mirrored.Files, 1)
	f := mirrored.Files[0]
	require.Len(t, f.Segments, 2)
	assert.Equal(t, 1, f.Segments[0].Number)
	assert.Equal(t, 2, f.Segments[1].Number)
	assert.Equal(t, "file1.bin", f.Name)
	assert.Equal(t, []string{"alt.binaries.test"}, f.Groups)

	posted := dst.PostedIDs()
	require.Len(t, posted, 2)
	assert.Equal(t, "<"+f.Segments[0].ID+">", posted[0])
	assert.Regexp(t, `^<[0-9a-f-]{36}@nntp>$`, posted[0])
	assert.Equal(t, []byte("body 1 2\n"), dst.Posted[1].Body)
	assert.Equal(t, "200", dst.Posted[1].Header.Get("Bytes"))
}

func TestMirrorKeepsOrder(t *testing.T) {
	m, src := source(3, 6)
	rnd := rand.New(rand.NewSource(7))
	for _, f := range m.Files {
		for _, s := range f.Segments {
			src.Latency[s.ID] = time.Duration(rnd.Intn(5)) * time.Millisecond
		}
	}
	dst := nntptest.NewServer()

	progress := make([]int64, 0)
	out := &bytes.Buffer{}
	res, err := engine(src, dst, Options{Connections: 4, MessageID: "{filenum}-{0part}@mirror"}).Run(context.Background(), m, out, func(n int64) {
		progress = append(progress, n)
	})
	require.NoError(t, err)
	assert.Equal(t, 18, res.Posted)
	assert.LessOrEqual(t, src.MaxActive, 4)
	assert.Equal(t, m.Size, progress[len(progress)-1])

	mirrored, err := manifest.Parse(out, "out.nzb")
	require.NoError(t, err)
	require.Len(t, mirrored.Files, 3)
	for i, f := range mirrored.Files {
		require.Len(t, f.Segments, 6)
		for j, s := range f.Segments {
			assert.Equal(t, fmt.Sprintf("%d-%d@mirror", i+1, j+1), s.ID)
			assert.Equal(t, int64(100*(j+1)), s.Size)
		}
	}
}

func TestMirrorSkipsMissing(t *testing.T) {
	m, src := source(1, 3)
	m.Files[0].Segments[1].ID = "gone@src"
	dst := nntptest.NewServer()

	out := &bytes.Buffer{}
	res, err := engine(src, dst, Options{Connections: 2, MessageID: "p{part}@mirror"}).Run(context.Background(), m, out, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Posted)
	assert.Equal(t, 1, res.Missing)

	mirrored, err := manifest.Parse(out, "out.nzb")
	require.NoError(t, err)
	require.Len(t, mirrored.Files, 1)
	assert.Equal(t, []manifest.Segment{
		{ID: "p1@mirror", Size: 100, Number: 1},
		{ID: "p3@mirror", Size: 300, Number: 3},
	}, mirrored.Files[0].Segments)
}

func TestMirrorMissingFirstPart(t *testing.T) {
	m, src := source(2, 2)
	m.Files[1].Segments[0].ID = "gone@src"
	dst := nntptest.NewServer()

	out := &bytes.Buffer{}
	res, err := engine(src, dst, Options{Connections: 1}).Run(context.Background(), m, out, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Missing)

	mirrored, err := manifest.Parse(out, "out.nzb")
	require.NoError(t, err)
	require.Len(t, mirrored.Files, 2)
	assert.Len(t, mirrored.Files[0].Segments, 2)
	require.Len(t, mirrored.Files[1].Segments, 1)
	assert.Equal(t, 2, mirrored.Files[1].Segments[0].Number)
}

func TestMirrorPostRetries(t *testing.T) {
	m, src := source(1, 1)
	dst := nntptest.NewServer()
	dst.RejectPosts = 2

	res, err := engine(src, dst, Options{Connections: 1, RequestRetries: 5}).Run(context.Background(), m, &bytes.Buffer{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Posted)

	// the retry count is the number of attempts
	dst = nntptest.NewServer()
	dst.RejectPosts = 2
	out := &bytes.Buffer{}
	res, err = engine(src, dst, Options{Connections: 1, RequestRetries: 2}).Run(context.Background(), m, out, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Posted)
	assert.Equal(t, 2, countCommands(dst, "POST"))
	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0], common.ErrPostRejected)
	assert.Contains(t, res.Failures[0].Error(), "441")

	// zero still makes one attempt
	dst = nntptest.NewServer()
	res, err = engine(src, dst, Options{Connections: 1, RequestRetries: 0}).Run(context.Background(), m, &bytes.Buffer{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Posted)
	assert.Equal(t, 1, countCommands(dst, "POST"))

	mirrored, err := manifest.Parse(out, "out.nzb")
	require.NoError(t, err)
	assert.Empty(t, mirrored.Files)
}

func TestMirrorHeaderOverrides(t *testing.T) {
	m, src := source(1, 1)
	dst := nntptest.NewServer()

	opts := Options{
		Connections: 1,
		From:        "mirror@example.com",
		Groups:      "alt.a,alt.b",
		Date:        "now",
		Subject:     "[{filenum}/{files}] {fnamebase} - {comment} ({part}/{parts})",
		Comment:     "hello",
	}
	out := &bytes.Buffer{}
	_, err := engine(src, dst, opts).Run(context.Background(), m, out, nil)
	require.NoError(t, err)

	require.Len(t, dst.Posted, 1)
	h := dst.Posted[0].Header
	assert.Equal(t, "mirror@example.com", h.Get("From"))
	assert.Equal(t, "alt.a,alt.b", h.Get("Newsgroups"))
	assert.Equal(t, "[1/1] file1 - hello (1/1)", h.Get("Subject"))
	_, err = time.Parse(manifest.DateFormat, h.Get("Date"))
	assert.NoError(t, err)

	mirrored, err := manifest.Parse(out, "out.nzb")
	require.NoError(t, err)
	require.Len(t, mirrored.Files, 1)
	assert.Equal(t, "mirror@example.com", mirrored.Files[0].Poster)
	assert.Equal(t, []string{"alt.a", "alt.b"}, mirrored.Files[0].Groups)
}

func TestExpand(t *testing.T) {
	vars := TemplateVars{
		FileNum:   3,
		Files:     12,
		FileName:  "movie.part01.rar",
		FileSize:  1500000,
		Part:      7,
		Parts:     250,
		Size:      716800,
		Comment:   "c1",
		Comment2:  "c2",
		Timestamp: 1600000000,
	}
	assert.Equal(t, "3 03 12", Expand("{filenum} {0filenum} {files}", vars))
	assert.Equal(t, "movie.part01.rar movie.part01", Expand("{filename} {fnamebase}", vars))
	assert.Equal(t, "1500000 1500.00 1.50 0.00 0.00", Expand("{filesize} {fileksize} {filemsize} {filegsize} {filetsize}", vars))
	assert.Equal(t, "1.5 MB", Expand("{fileasize}", vars))
	assert.Equal(t, "7 007 250 716800", Expand("{part} {0part} {parts} {size}", vars))
	assert.Equal(t, "c1 c2 1600000000", Expand("{comment} {comment2} {timestamp}", vars))
	assert.Equal(t, "[]", Expand("[{unknown}]", vars))

	r := Expand("${rand(8)}@x", vars)
	assert.Regexp(t, `^[0-9a-f]{8}@x$`, r)
	assert.Regexp(t, `^[0-9a-f]{40}$`, Expand("${rand(0)}", vars))
	assert.Regexp(t, `^[0-9a-f]{5}$`, Expand("${rand(5)}", vars))
}

func countCommands(srv *nntptest.Server, cmd string) int {
	n := 0
	for _, c := range srv.Commands {
		if c == cmd {
			n++
		}
	}
	return n
}
