package datastores

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/t2bot/nzbkit/common/config"
	"github.com/t2bot/nzbkit/common/rcontext"
	"github.com/t2bot/nzbkit/metrics"
)

const s3Scheme = "s3://"

var s3clients = &sync.Map{}

type s3 struct {
	client       *minio.Client
	storageClass string
}

func ResetS3Clients() {
	s3clients = &sync.Map{}
}

func getS3(cfg config.S3Config) (*s3, error) {
	if val, ok := s3clients.Load(cfg.Endpoint); ok {
		return val.(*s3), nil
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("no s3 endpoint configured")
	}

	storageClass := cfg.StorageClass
	if storageClass == "" {
		storageClass = "STANDARD"
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Region: cfg.Region,
		Secure: cfg.Ssl,
		Creds:  credentials.NewStaticV4(cfg.AccessKeyId, cfg.AccessSecret, ""),
	})
	if err != nil {
		return nil, err
	}

	s3c := &s3{
		client:       client,
		storageClass: storageClass,
	}
	s3clients.Store(cfg.Endpoint, s3c)
	return s3c, nil
}

func IsS3Url(target string) bool {
	return strings.HasPrefix(target, s3Scheme)
}

// ParseS3Url splits s3://bucket/key into its bucket and object key.
func ParseS3Url(s3url string) (string, string, error) {
	if !IsS3Url(s3url) {
		return "", "", errors.New("not an s3:// url")
	}
	bucket, key, ok := strings.Cut(s3url[len(s3Scheme):], "/")
	if !ok || bucket == "" || key == "" {
		return "", "", errors.New("invalid url: expected s3://bucket/key")
	}
	return bucket, key, nil
}

// s3Writer streams into a PutObject call of unknown size.
type s3Writer struct {
	pw   *io.PipeWriter
	done chan error
}

func (w *s3Writer) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *s3Writer) Close() error {
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}

func uploadS3(ctx rcontext.RequestContext, cfg config.S3Config, target string, contentType string) (io.WriteCloser, error) {
	bucket, key, err := ParseS3Url(target)
	if err != nil {
		return nil, err
	}
	s3c, err := getS3(cfg)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	w := &s3Writer{pw: pw, done: make(chan error, 1)}
	go func() {
		metrics.S3Operations.With(prometheus.Labels{"operation": "PutObject"}).Inc()
		info, err := s3c.client.PutObject(ctx.Context, bucket, key, pr, -1, minio.PutObjectOptions{StorageClass: s3c.storageClass, ContentType: contentType})
		if err != nil {
			_ = pr.CloseWithError(err)
		} else {
			ctx.Log.WithField("bytes", info.Size).Info("Uploaded to ", target)
		}
		w.done <- err
	}()
	return w, nil
}
