package pipeline_check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t2bot/nzbkit/common"
	"github.com/t2bot/nzbkit/common/rcontext"
	"github.com/t2bot/nzbkit/manifest"
	"github.com/t2bot/nzbkit/nntp"
	"github.com/t2bot/nzbkit/nntp/nntptest"
)

func fixture(t *testing.T) (*manifest.Manifest, *nntptest.Server, nntp.Conn) {
	srv := nntptest.NewServer()
	srv.AddArticle("a1@test", nil, nntptest.YencBody("a.bin", []byte("first")))
	srv.AddArticle("a2@test", nil, nntptest.YencBody("a.bin", []byte("second")))
	srv.AddArticle("b1@test", nil, []byte("=ybegin part=1 line=128 size=3 name=b.bin\r\n=ypart begin=1 end=3\r\nkkk\r\n=yend size=3 part=1 pcrc32=00000000 crc32=00000000\r\n"))

	m := manifest.New("test.nzb")
	m.Files = []*manifest.File{
		{Name: "a.bin", Segments: []manifest.Segment{{ID: "a1@test", Number: 1}, {ID: "a2@test", Number: 2}, {ID: "a3@test", Number: 3}}},
		{Name: "b.bin", Segments: []manifest.Segment{{ID: "b1@test", Number: 1}}},
	}

	conn, err := srv.Dial(rcontext.Initial())
	require.NoError(t, err)
	return m, srv, conn
}

func TestCheckAll(t *testing.T) {
	m, srv, conn := fixture(t)

	report, err := Execute(rcontext.Initial(), m, "", "", false, conn)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Checked)
	assert.Len(t, report.Files, 2)
	require.Len(t, report.Problems, 1)
	assert.Equal(t, "Article <a3@test> of file a.bin is missing", report.Problems[0].String())
	assert.Equal(t, 1, report.Missing())
	assert.Contains(t, srv.Commands, "STAT <a1@test>")
}

func TestCheckOneFileWithMethod(t *testing.T) {
	m, srv, conn := fixture(t)

	report, err := Execute(rcontext.Initial(), m, "b.bin", "head", false, conn)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Empty(t, report.Problems)
	assert.Equal(t, []string{"HEAD <b1@test>"}, srv.Commands)
}

func TestCheckVerify(t *testing.T) {
	m, _, conn := fixture(t)

	report, err := Execute(rcontext.Initial(), m, "b.bin", "STAT", true, conn)
	require.NoError(t, err)
	require.Len(t, report.Problems, 1)
	assert.True(t, report.Problems[0].Corrupt)
	assert.Equal(t, 0, report.Missing())
}

func TestCheckErrors(t *testing.T) {
	m, _, conn := fixture(t)

	_, err := Execute(rcontext.Initial(), m, "nope.bin", "STAT", false, conn)
	assert.ErrorIs(t, err, common.ErrFileNotFound)

	_, err = Execute(rcontext.Initial(), m, "", "LIST", false, conn)
	assert.ErrorIs(t, err, common.ErrUnsupportedMethod)
}
