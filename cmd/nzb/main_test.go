package main

import (
	"bytes"
	"fmt"
	"net/textproto"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t2bot/nzbkit/common/config"
	"github.com/t2bot/nzbkit/datastores"
	"github.com/t2bot/nzbkit/manifest"
	"github.com/t2bot/nzbkit/nntp"
	"github.com/t2bot/nzbkit/nntp/nntptest"
)

type harness struct {
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	servers map[string]*nntptest.Server
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
		servers: map[string]*nntptest.Server{"source": nntptest.NewServer()},
	}

	prevOut, prevErr, prevFs, prevSink, prevDialer := stdout, stderr, fsys, datastores.Stdout, dialer
	t.Cleanup(func() {
		stdout, stderr, fsys, datastores.Stdout, dialer = prevOut, prevErr, prevFs, prevSink, prevDialer
	})
	stdout = h.out
	stderr = h.errOut
	datastores.Stdout = h.out
	fsys = afero.NewMemMapFs()
	dialer = func(cfg config.ServerConfig, log *logrus.Entry) nntp.Dialer {
		srv, ok := h.servers[cfg.Hostname]
		require.True(t, ok, "unexpected server %s", cfg.Hostname)
		return srv
	}
	return h
}

// run always points at a config file that does not exist so only the
// defaults and flags apply.
func (h *harness) run(args ...string) int {
	h.out.Reset()
	h.errOut.Reset()
	args = append(args[:1:1], append([]string{"--config", "/nonexistent/nzb.yaml"}, args[1:]...)...)
	return run(args)
}

// fixture saves an NZB with one yEnc file of two segments and a text
// file to /in.nzb, backed by the source server.
func (h *harness) fixture(t *testing.T) *manifest.Manifest {
	src := h.servers["source"]
	m := manifest.New("in.nzb")
	m.Head["title"] = "Test"

	bin := &manifest.File{
		Poster:       "poster@example.com",
		LastModified: 1600000000000,
		Subject:      `"movie.bin" yEnc (1/2)`,
		Name:         "movie.bin",
		Groups:       []string{"alt.binaries.test"},
	}
	for i, chunk := range []string{"hello ", "world"} {
		id := fmt.Sprintf("movie%d@test", i+1)
		src.AddArticle(id, textproto.MIMEHeader{
			"From":       {"poster@example.com"},
			"Newsgroups": {"alt.binaries.test"},
			"Subject":    {fmt.Sprintf(`"movie.bin" yEnc (%d/2)`, i+1)},
		}, nntptest.YencBody("movie.bin", []byte(chunk)))
		bin.Segments = append(bin.Segments, manifest.Segment{ID: id, Size: int64(len(chunk)), Number: i + 1})
		bin.Size += int64(len(chunk))
	}
	txt := &manifest.File{
		Poster:       "poster@example.com",
		LastModified: 1600000000000,
		Subject:      `"notes.txt" yEnc (1/1)`,
		Name:         "notes.txt",
		Groups:       []string{"alt.binaries.test"},
		Segments:     []manifest.Segment{{ID: "notes@test", Size: 4, Number: 1}},
		Size:         4,
	}
	m.Files = []*manifest.File{bin, txt}
	m.Size = bin.Size + txt.Size
	require.NoError(t, manifest.Save(fsys, "/in.nzb", m))
	return m
}

func TestMissingInput(t *testing.T) {
	h := newHarness(t)
	for _, cmd := range []string{"combine", "extract", "get", "check", "mirror", "serve"} {
		assert.Equal(t, 0, h.run(cmd), cmd)
		assert.True(t, strings.HasPrefix(h.errOut.String(), "Missing input\n"), cmd)
		assert.Contains(t, h.errOut.String(), "Usage: nzb "+cmd, cmd)
		assert.Empty(t, h.out.String(), cmd)
	}

	assert.Equal(t, 0, h.run("search"))
	assert.True(t, strings.HasPrefix(h.errOut.String(), "Missing query\n"))

	// extract and get need two arguments
	assert.Equal(t, 0, h.run("extract", "/in.nzb"))
	assert.Contains(t, h.errOut.String(), "Missing input")
	assert.Equal(t, 0, h.run("get", "/in.nzb"))
	assert.Contains(t, h.errOut.String(), "Missing input")
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 1, run([]string{"frobnicate"}))
	assert.Contains(t, h.errOut.String(), `Unknown command "frobnicate"`)
	assert.Contains(t, h.errOut.String(), "mirror <input>")
}

func TestHelpFlag(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 0, h.run("extract", "--help"))
	assert.Contains(t, h.errOut.String(), "--out")
}

func TestCombine(t *testing.T) {
	h := newHarness(t)
	h.fixture(t)

	other := manifest.New("other.nzb")
	other.Head["password"] = "pw"
	other.Files = []*manifest.File{{
		Subject:  `"extra.bin" yEnc (1/1)`,
		Name:     "extra.bin",
		Groups:   []string{"alt.test"},
		Segments: []manifest.Segment{{ID: "extra@test", Size: 9, Number: 1}},
		Size:     9,
	}}
	require.NoError(t, manifest.Save(fsys, "/other.nzb", other))

	require.Equal(t, 0, h.run("combine", "-o", "/out/combined.nzb", "/in.nzb", "/other.nzb"), h.errOut.String())
	m, err := manifest.Open(fsys, "/out/combined.nzb")
	require.NoError(t, err)
	names := make([]string, 0)
	for _, f := range m.Files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"movie.bin", "notes.txt", "extra.bin"}, names)
	assert.Equal(t, "Test", m.Head["title"])
	assert.Equal(t, "pw", m.Head["password"])
	assert.Equal(t, int64(24), m.Size)
}

func TestCombineMissingSource(t *testing.T) {
	h := newHarness(t)
	h.fixture(t)
	assert.Equal(t, 1, h.run("combine", "/in.nzb", "/nope.nzb"))
	assert.Contains(t, h.errOut.String(), "/nope.nzb")
}

func TestExtract(t *testing.T) {
	h := newHarness(t)
	h.fixture(t)

	require.Equal(t, 0, h.run("extract", "/in.nzb", "*.txt"), h.errOut.String())
	m, err := manifest.Parse(bytes.NewReader(h.out.Bytes()), "out.nzb")
	require.NoError(t, err)
	require.Len(t, m.Files, 1)
	assert.Equal(t, "notes.txt", m.Files[0].Name)

	require.Equal(t, 0, h.run("extract", "/in.nzb", `^movie\.(bin|mkv)$`))
	m, err = manifest.Parse(bytes.NewReader(h.out.Bytes()), "out.nzb")
	require.NoError(t, err)
	require.Len(t, m.Files, 1)
	assert.Equal(t, "movie.bin", m.Files[0].Name)
}

func TestGet(t *testing.T) {
	h := newHarness(t)
	h.fixture(t)

	require.Equal(t, 0, h.run("get", "-h", "source", "/in.nzb", "movie.bin"), h.errOut.String())
	assert.Equal(t, "hello world", h.out.String())

	require.Equal(t, 0, h.run("get", "--hostname", "source", "-s", "3", "-e", "7", "/in.nzb", "movie.bin"))
	assert.Equal(t, "lo wo", h.out.String())

	require.Equal(t, 0, h.run("get", "-h", "source", "-s", "6", "-o", "/tmp/world.bin", "/in.nzb", "movie.bin"))
	b, err := afero.ReadFile(fsys, "/tmp/world.bin")
	require.NoError(t, err)
	assert.Equal(t, "world", string(b))
}

func TestGetFileNotFound(t *testing.T) {
	h := newHarness(t)
	h.fixture(t)

	assert.Equal(t, 1, h.run("get", "-h", "source", "/in.nzb", "nope.bin"))
	assert.Equal(t, "File \"nope.bin\" not found in NZB\n", h.errOut.String())
	assert.Empty(t, h.out.String())
}

func TestGetBadRange(t *testing.T) {
	h := newHarness(t)
	h.fixture(t)

	assert.Equal(t, 1, h.run("get", "-h", "source", "-s", "5", "-e", "50", "/in.nzb", "movie.bin"))
	assert.Contains(t, h.errOut.String(), "Error: ")
}

func TestCheck(t *testing.T) {
	h := newHarness(t)
	h.fixture(t)

	// notes.txt was never posted
	require.Equal(t, 0, h.run("check", "-h", "source", "/in.nzb"), h.errOut.String())
	assert.Equal(t, "Article <notes@test> of file notes.txt is missing\n", h.out.String())

	require.Equal(t, 0, h.run("check", "-h", "source", "--method", "head", "/in.nzb", "movie.bin"))
	assert.Empty(t, h.out.String())
	assert.Contains(t, h.servers["source"].Commands, "HEAD <movie1@test>")

	assert.Equal(t, 1, h.run("check", "-h", "source", "/in.nzb", "nope.bin"))
	assert.Equal(t, "File \"nope.bin\" not found in NZB\n", h.errOut.String())

	assert.Equal(t, 1, h.run("check", "-h", "source", "--method", "LIST", "/in.nzb"))
	assert.Contains(t, h.errOut.String(), "unsupported check method")
}

func TestSearch(t *testing.T) {
	h := newHarness(t)
	date := "Sun, 13 Sep 2020 12:26:40 +0000"
	h.servers["source"].AddGroup(nntp.Group{Name: "alt.test", Count: 2, Low: 1, High: 2}, []string{
		"1\t\"movie.bin\" yEnc (1/1)\tposter@example.com\t" + date + "\t<m1@x>\t\t100\t2",
		"2\t\"other.bin\" yEnc (1/1)\tposter@example.com\t" + date + "\t<o1@x>\t\t50\t1",
	})

	require.Equal(t, 0, h.run("search", "-h", "source", "--group", "alt.test", "--meta", "title=Movie", "--meta", "note=a=b", "movie"), h.errOut.String())
	m, err := manifest.Parse(bytes.NewReader(h.out.Bytes()), "out.nzb")
	require.NoError(t, err)
	require.Len(t, m.Files, 1)
	assert.Equal(t, "movie.bin", m.Files[0].Name)
	assert.Equal(t, "Movie", m.Head["title"])
	assert.Equal(t, "a=b", m.Head["note"])

	assert.Equal(t, 1, h.run("search", "-h", "source", "--group", "alt.nope", "movie"))
	assert.Equal(t, "Invalid group\n", h.errOut.String())

	assert.Equal(t, 1, h.run("search", "-h", "source", "--group", "alt.test", "--range", "5-9", "movie"))
	assert.Equal(t, "No articles found\n", h.errOut.String())
}

func TestMirror(t *testing.T) {
	h := newHarness(t)
	h.fixture(t)
	dst := nntptest.NewServer()
	h.servers["dest"] = dst

	code := h.run("mirror", "-h", "source", "--dest-hostname", "dest", "-n", "2", "-R", "0",
		"-f", "mirror@example.com", "-m", "{filenum}-${rand(6)}@mirror", "-o", "/out/mirror.nzb", "/in.nzb")
	require.Equal(t, 0, code, h.errOut.String())

	// notes.txt is missing from the source, so only the movie is copied
	posted := dst.PostedIDs()
	require.Len(t, posted, 2)
	for _, id := range posted {
		assert.Regexp(t, `^<1-[0-9a-f]{6}@mirror>$`, id)
	}
	assert.Empty(t, h.servers["source"].Posted)

	m, err := manifest.Open(fsys, "/out/mirror.nzb")
	require.NoError(t, err)
	require.Len(t, m.Files, 1)
	f := m.Files[0]
	assert.Equal(t, "movie.bin", f.Name)
	assert.Equal(t, "mirror@example.com", f.Poster)
	require.Len(t, f.Segments, 2)
	assert.Equal(t, "Test", m.Head["title"])
	for i, s := range f.Segments {
		assert.Equal(t, nntp.BareID(posted[i]), s.ID)
	}
}

func TestMirrorSameServer(t *testing.T) {
	h := newHarness(t)
	h.fixture(t)

	require.Equal(t, 0, h.run("mirror", "-h", "source", "--progress", "/in.nzb"), h.errOut.String())
	assert.Len(t, h.servers["source"].Posted, 2)

	m, err := manifest.Parse(bytes.NewReader(h.out.Bytes()), "out.nzb")
	require.NoError(t, err)
	require.Len(t, m.Files, 1)
	// the configured poster wins over the source article's From
	assert.Equal(t, config.NewDefaultMainConfig().Mirror.Poster, m.Files[0].Poster)
}

func TestSplitAddress(t *testing.T) {
	host, port, err := splitAddress("127.0.0.1:8000")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.Equal(t, 8000, port)

	host, port, err = splitAddress(":9090")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", host)
	assert.Equal(t, 9090, port)

	_, _, err = splitAddress("localhost")
	assert.Error(t, err)
	_, _, err = splitAddress("localhost:http")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 0, h.run("version"))
	assert.True(t, strings.HasPrefix(h.out.String(), "nzbkit "))
	assert.Contains(t, h.out.String(), "Commit: ")
}
