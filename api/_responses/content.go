package _responses

import (
	"io"
	"net/http"
)

type EmptyResponse struct{}

type DoNotCacheResponse struct {
	Payload interface{}
}

type HtmlResponse struct {
	HTML string
}

// DownloadResponse is a body produced by a writer rather than a ready
// stream, so that decoding can happen straight into the connection.
type DownloadResponse struct {
	StatusCode        int // 0 means 200
	ContentType       string
	Filename          string
	SizeBytes         int64 // -1 when unknown
	TargetDisposition string
	Headers           http.Header
	// Write is not called for HEAD requests, or when nil.
	Write func(w io.Writer) error
}
