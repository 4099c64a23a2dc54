package site

import (
	"hash/fnv"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/api/_responses"
	"github.com/t2bot/nzbkit/api/_routers"
	"github.com/t2bot/nzbkit/common/rcontext"
	"github.com/t2bot/nzbkit/manifest"
	"github.com/t2bot/nzbkit/pipelines/pipeline_get"
)

var rangeRegex = regexp.MustCompile(`bytes=(\d+)-(\d+)?`)

const isoMillis = "2006-01-02T15:04:05.000Z"

// ETag is a weak tag over the file's date and size, which is all that
// changes when a file is reposted.
func ETag(f *manifest.File) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(f.Date().Format(isoMillis) + strconv.FormatInt(f.Size, 10)))
	return `W/"` + strconv.FormatUint(h.Sum64(), 16) + `"`
}

func etagMatches(header string, etag string) bool {
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

func notModified(r *http.Request, f *manifest.File, etag string) bool {
	if inm := r.Header.Get("If-None-Match"); inm != "" {
		return etagMatches(inm, etag)
	}
	if ims := r.Header.Get("If-Modified-Since"); ims != "" {
		since, err := http.ParseTime(ims)
		if err != nil {
			return false
		}
		// the header only has second precision
		return f.LastModified < since.Add(time.Second).UnixMilli()
	}
	return false
}

// parseRange returns the inclusive byte range to serve and whether a Range
// header asked for it. ok is false when the range cannot be satisfied.
func parseRange(header string, size int64) (start int64, end int64, partial bool, ok bool) {
	start, end = 0, size-1
	if header == "" {
		return start, end, false, true
	}
	parsed := rangeRegex.FindStringSubmatch(header)
	if parsed == nil {
		return 0, 0, true, false
	}
	var err error
	if start, err = strconv.ParseInt(parsed[1], 10, 64); err != nil {
		return 0, 0, true, false
	}
	if parsed[2] != "" {
		if end, err = strconv.ParseInt(parsed[2], 10, 64); err != nil {
			return 0, 0, true, false
		}
	}
	if start > end || start > size-1 || end > size-1 {
		return 0, 0, true, false
	}
	return start, end, true, true
}

func (s *Site) File(r *http.Request, rctx rcontext.RequestContext) interface{} {
	name := _routers.GetParam("file", r)
	f := s.Manifest().File(name)
	if f == nil {
		return _responses.FileNotFound(name)
	}
	rctx = rctx.LogWithFields(logrus.Fields{"file": f.Name})

	headers := http.Header{}
	headers.Set("Accept-Ranges", "bytes")
	headers.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	contentType := mime.TypeByExtension(filepath.Ext(f.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if f.LastModified != 0 {
		etag := ETag(f)
		headers.Set("Last-Modified", f.Date().Format(http.TimeFormat))
		headers.Set("ETag", etag)
		if notModified(r, f, etag) {
			return &_responses.DownloadResponse{
				StatusCode: http.StatusNotModified,
				SizeBytes:  -1,
				Headers:    headers,
			}
		}
	}

	start, end, partial, ok := parseRange(r.Header.Get("Range"), f.Size)
	if !ok {
		rctx.Log.Debug("Unsatisfiable range: ", r.Header.Get("Range"))
		return _responses.RangeNotSatisfiable()
	}

	res := &_responses.DownloadResponse{
		StatusCode:  http.StatusOK,
		ContentType: contentType,
		Filename:    f.Name,
		SizeBytes:   end - start + 1,
		Headers:     headers,
	}
	if partial {
		res.StatusCode = http.StatusPartialContent
		headers.Set("Content-Range", "bytes "+strconv.FormatInt(start, 10)+"-"+strconv.FormatInt(end, 10)+"/"+strconv.FormatInt(f.Size, 10))
	}
	if res.SizeBytes > 0 {
		res.Write = func(w io.Writer) error {
			source := &pipeline_get.CachedSource{Pool: s.Pool, Ctx: rctx, Server: "source"}
			return pipeline_get.Execute(rctx, f, start, end, w, source)
		}
	}
	return res
}

type HealthzResponse struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
	Files  int    `json:"files"`
}

func (s *Site) Healthz(r *http.Request, rctx rcontext.RequestContext) interface{} {
	return &_responses.DoNotCacheResponse{
		Payload: &HealthzResponse{
			OK:     true,
			Status: "Probably not dead",
			Files:  len(s.Manifest().Files),
		},
	}
}
