package datastores

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/t2bot/nzbkit/common/rcontext"
)

// Stdout is where "-" output goes.
var Stdout io.Writer = os.Stdout

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

// OpenSink opens target for writing. "" and "-" are standard output,
// s3://bucket/key uploads through the configured S3 endpoint, and
// anything else is a path on fs. Close must be called to finish the
// upload or file.
func OpenSink(ctx rcontext.RequestContext, fs afero.Fs, target string, contentType string) (io.WriteCloser, error) {
	switch {
	case target == "" || target == "-":
		return nopCloser{Stdout}, nil
	case IsS3Url(target):
		return uploadS3(ctx, ctx.Config.S3, target, contentType)
	}

	if dir := filepath.Dir(target); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "creating output directory")
		}
	}
	f, err := fs.Create(target)
	if err != nil {
		return nil, errors.Wrap(err, "creating output file")
	}
	return f, nil
}
