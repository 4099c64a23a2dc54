package _routers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alioygur/is"
	"github.com/getsentry/sentry-go"

	"github.com/t2bot/nzbkit/api/_responses"
	"github.com/t2bot/nzbkit/common"
	"github.com/t2bot/nzbkit/common/config"
	"github.com/t2bot/nzbkit/common/rcontext"
)

type GeneratorFn = func(r *http.Request, ctx rcontext.RequestContext) interface{}

type RContextRouter struct {
	generatorFn GeneratorFn
	next        http.Handler
}

func NewRContextRouter(generatorFn GeneratorFn, next http.Handler) *RContextRouter {
	return &RContextRouter{generatorFn: generatorFn, next: next}
}

func (c *RContextRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := GetLogger(r)
	rctx := rcontext.RequestContext{
		Context: r.Context(),
		Log:     log,
		Config:  config.Get(),
		Request: r,
	}

	var res interface{}
	res = c.generatorFn(r, rctx)
	if res == nil {
		res = &_responses.EmptyResponse{}
	}

	shouldCache := true
	wrappedRes, isNoCache := res.(*_responses.DoNotCacheResponse)
	if isNoCache {
		shouldCache = false
		res = wrappedRes.Payload
	}

	headers := w.Header()
	if !shouldCache {
		headers.Set("Cache-Control", "no-store")
	}

	if htmlRes, isHtml := res.(*_responses.HtmlResponse); isHtml {
		logReply(rctx, r, "Replying with result: %T <%d chars of html>", res, len(htmlRes.HTML))
		headers.Set("Content-Type", "text/html; charset=UTF-8")
		headers.Set("Content-Length", strconv.Itoa(len(htmlRes.HTML)))
		r = writeStatusCode(w, r, http.StatusOK)
		if r.Method != http.MethodHead {
			if _, err := w.Write([]byte(htmlRes.HTML)); err != nil {
				log.Warn("Error sending HtmlResponse: ", err)
			}
		}
		c.finish(w, r)
		return
	}

	if downloadRes, isDownload := res.(*_responses.DownloadResponse); isDownload {
		logReply(rctx, r, "Replying with result: %T status=%d size=%d", res, downloadRes.StatusCode, downloadRes.SizeBytes)
		r = c.writeDownload(w, r, rctx, downloadRes)
		c.finish(w, r)
		return
	}

	proposedStatusCode := http.StatusOK
	if errRes, isError := res.(_responses.ErrorResponse); isError {
		res = &errRes
	}
	if errRes, isError := res.(*_responses.ErrorResponse); isError {
		switch errRes.InternalCode {
		case common.ErrCodeNotFound:
			proposedStatusCode = http.StatusNotFound
		case common.ErrCodeBadRequest:
			proposedStatusCode = http.StatusBadRequest
		case common.ErrCodeMethodNotAllowed:
			proposedStatusCode = http.StatusMethodNotAllowed
		case common.ErrCodeRangeNotSatisfiable:
			proposedStatusCode = http.StatusRequestedRangeNotSatisfiable
		case common.ErrCodeRateLimitExceeded:
			proposedStatusCode = http.StatusTooManyRequests
		default:
			proposedStatusCode = http.StatusInternalServerError
		}
	}

	logReply(rctx, r, "Replying with result: %T %+v", res, res)
	b, err := json.Marshal(res)
	if err != nil {
		panic(err) // blow up this request
	}
	headers.Set("Content-Type", "application/json")
	headers.Set("Content-Length", strconv.Itoa(len(b)))
	r = writeStatusCode(w, r, proposedStatusCode)
	if r.Method != http.MethodHead {
		if _, err = io.Copy(w, bytes.NewReader(b)); err != nil {
			log.Warn("Error sending response: ", err)
		}
	}
	c.finish(w, r)
}

func (c *RContextRouter) writeDownload(w http.ResponseWriter, r *http.Request, rctx rcontext.RequestContext, res *_responses.DownloadResponse) *http.Request {
	headers := w.Header()
	for k, v := range res.Headers {
		headers[k] = v
	}
	if res.ContentType != "" {
		headers.Set("Content-Type", res.ContentType)
	}
	if res.Filename != "" {
		disposition := res.TargetDisposition
		if disposition == "" {
			disposition = "inline"
		}
		if is.ASCII(res.Filename) {
			headers.Set("Content-Disposition", disposition+"; filename=\""+res.Filename+"\"")
		} else {
			headers.Set("Content-Disposition", disposition+"; filename*=utf-8''"+url.PathEscape(res.Filename))
		}
	}
	if res.SizeBytes >= 0 {
		headers.Set("Content-Length", strconv.FormatInt(res.SizeBytes, 10))
	}

	statusCode := res.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	r = writeStatusCode(w, r, statusCode)

	if r.Method == http.MethodHead || res.Write == nil {
		return r
	}
	if err := res.Write(w); err != nil {
		// Headers are gone already, so the best we can do is cut the body short
		if !errors.Is(err, context.Canceled) {
			sentry.CaptureException(err)
		}
		rctx.Log.Error("Error streaming response: ", err)
	}
	return r
}

func (c *RContextRouter) finish(w http.ResponseWriter, r *http.Request) {
	if c.next != nil {
		c.next.ServeHTTP(w, r)
	}
}

func logReply(rctx rcontext.RequestContext, r *http.Request, format string, args ...interface{}) {
	if rctx.Config != nil && rctx.Config.Serve.Verbose {
		rctx.Log.Infof(format, args...)
	} else {
		rctx.Log.Debugf(format, args...)
	}
}

func GetStatusCode(r *http.Request) int {
	x, ok := r.Context().Value(common.ContextStatusCode).(int)
	if !ok {
		return http.StatusOK
	}
	return x
}

func writeStatusCode(w http.ResponseWriter, r *http.Request, statusCode int) *http.Request {
	w.WriteHeader(statusCode)
	return r.WithContext(context.WithValue(r.Context(), common.ContextStatusCode, statusCode))
}
