// Package nntp is the protocol client capability: connections to a news
// server, a dialer with retry and a circuit breaker, and a bounded pool.
package nntp

import (
	"context"
	"io"
	"net/textproto"
	"strings"
)

const (
	StatusGroupSelected  = 211
	StatusArticle        = 220
	StatusHead           = 221
	StatusBody           = 222
	StatusStat           = 223
	StatusOverview       = 224
	StatusPosted         = 240
	StatusSendArticle    = 340
	StatusNoSuchGroup    = 411
	StatusNoSuchNumber   = 423
	StatusNoSuchArticle  = 430
	StatusPostingFailed  = 441
	StatusAuthRequired   = 480
	StatusAuthRejected   = 481
	StatusCapabilityList = 101
)

type Group struct {
	Name  string
	Count int64
	Low   int64
	High  int64
}

// Article is a fully read article.
type Article struct {
	Header textproto.MIMEHeader
	Body   []byte
}

type Conn interface {
	Authenticate(user string, pass string) error
	Group(name string) (Group, error)
	Article(id string) (*Article, error)
	// Body returns the undecoded body. It must be drained before the
	// connection is used again.
	Body(id string) (io.Reader, error)
	Stat(id string) error
	Probe(method string, id string) error
	Post(a *Article) error
	Capabilities() ([]string, error)
	Over(rng string, legacy bool) ([]string, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// MessageID wraps a bare id in angle brackets.
func MessageID(id string) string {
	if strings.HasPrefix(id, "<") && strings.HasSuffix(id, ">") {
		return id
	}
	return "<" + id + ">"
}

// BareID strips angle brackets from a message-id.
func BareID(id string) string {
	return strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(id), "<"), ">")
}
