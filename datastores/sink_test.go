package datastores

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t2bot/nzbkit/common/rcontext"
)

func TestFileSink(t *testing.T) {
	fs := afero.NewMemMapFs()
	w, err := OpenSink(rcontext.Initial(), fs, "/out/dir/a.nzb", "application/x-nzb")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b, err := afero.ReadFile(fs, "/out/dir/a.nzb")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestStdoutSink(t *testing.T) {
	buf := &bytes.Buffer{}
	before := Stdout
	Stdout = buf
	defer func() { Stdout = before }()

	for _, target := range []string{"", "-"} {
		w, err := OpenSink(rcontext.Initial(), afero.NewMemMapFs(), target, "")
		require.NoError(t, err)
		_, _ = w.Write([]byte(target + "x"))
		require.NoError(t, w.Close())
	}
	assert.Equal(t, "x-x", buf.String())
}

func TestParseS3Url(t *testing.T) {
	bucket, key, err := ParseS3Url("s3://nzbs/shows/a.nzb")
	require.NoError(t, err)
	assert.Equal(t, "nzbs", bucket)
	assert.Equal(t, "shows/a.nzb", key)

	for _, bad := range []string{"https://nzbs/a", "s3://nzbs", "s3://nzbs/", "s3:///a"} {
		_, _, err = ParseS3Url(bad)
		assert.Error(t, err, bad)
	}
}

func TestS3SinkNeedsEndpoint(t *testing.T) {
	ResetS3Clients()
	ctx := rcontext.Initial()
	_, err := OpenSink(ctx, afero.NewMemMapFs(), "s3://nzbs/a.nzb", "application/x-nzb")
	assert.Error(t, err)
}
