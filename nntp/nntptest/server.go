// Package nntptest provides an in-memory news server for tests.
package nntptest

import (
	"bytes"
	"context"
	"io"
	"math"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/t2bot/nzbkit/nntp"
)

// Server implements nntp.Dialer. Every connection it hands out shares the
// same article store.
type Server struct {
	lock sync.Mutex

	articles map[string]*nntp.Article
	groups   map[string]nntp.Group
	overview map[string][]string

	Capabilities []string
	// Latency delays article reads, keyed by bare message-id.
	Latency map[string]time.Duration
	// Truncate makes BODY of these articles drop the connection after the
	// last payload line, keyed by bare message-id.
	Truncate map[string]bool
	// RejectPosts makes the first N posts fail with 441.
	RejectPosts int
	DialErr     error

	Posted    []*nntp.Article
	Dials     int
	Commands  []string
	active    int
	MaxActive int
}

func NewServer() *Server {
	return &Server{
		articles:     make(map[string]*nntp.Article),
		groups:       make(map[string]nntp.Group),
		overview:     make(map[string][]string),
		Capabilities: []string{"VERSION 2", "READER", "OVER"},
		Latency:      make(map[string]time.Duration),
		Truncate:     make(map[string]bool),
		Posted:       make([]*nntp.Article, 0),
		Commands:     make([]string, 0),
	}
}

func (s *Server) AddArticle(id string, header textproto.MIMEHeader, body []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if header == nil {
		header = textproto.MIMEHeader{}
	}
	s.articles[nntp.BareID(id)] = &nntp.Article{Header: header, Body: body}
}

func (s *Server) AddGroup(g nntp.Group, overview []string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.groups[g.Name] = g
	s.overview[g.Name] = overview
}

func (s *Server) PostedIDs() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	ids := make([]string, len(s.Posted))
	for i, a := range s.Posted {
		ids[i] = a.Header.Get("Message-Id")
	}
	return ids
}

func (s *Server) record(cmd string) {
	s.lock.Lock()
	s.Commands = append(s.Commands, cmd)
	s.lock.Unlock()
}

func (s *Server) Dial(ctx context.Context) (nntp.Conn, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.Dials++
	if s.DialErr != nil {
		return nil, s.DialErr
	}
	return &conn{s: s}, nil
}

func notFound() error {
	return &textproto.Error{Code: nntp.StatusNoSuchArticle, Msg: "No such article"}
}

type conn struct {
	s      *Server
	group  string
	closed bool
}

func (c *conn) lookup(id string) (*nntp.Article, error) {
	if c.closed {
		return nil, io.ErrUnexpectedEOF
	}
	id = nntp.BareID(id)

	c.s.lock.Lock()
	c.s.active++
	if c.s.active > c.s.MaxActive {
		c.s.MaxActive = c.s.active
	}
	delay := c.s.Latency[id]
	a, ok := c.s.articles[id]
	c.s.lock.Unlock()

	time.Sleep(delay)

	c.s.lock.Lock()
	c.s.active--
	c.s.lock.Unlock()

	if !ok {
		return nil, notFound()
	}
	return a, nil
}

func (c *conn) Authenticate(user string, pass string) error {
	c.s.record("AUTHINFO USER " + user)
	return nil
}

func (c *conn) Group(name string) (nntp.Group, error) {
	c.s.record("GROUP " + name)
	c.s.lock.Lock()
	defer c.s.lock.Unlock()
	g, ok := c.s.groups[name]
	if !ok {
		return nntp.Group{}, &textproto.Error{Code: nntp.StatusNoSuchGroup, Msg: "No such group"}
	}
	c.group = name
	return g, nil
}

func (c *conn) Article(id string) (*nntp.Article, error) {
	c.s.record("ARTICLE " + nntp.MessageID(id))
	a, err := c.lookup(id)
	if err != nil {
		return nil, err
	}
	h := textproto.MIMEHeader{}
	for k, v := range a.Header {
		h[k] = append([]string(nil), v...)
	}
	return &nntp.Article{Header: h, Body: append([]byte(nil), a.Body...)}, nil
}

func (c *conn) Body(id string) (io.Reader, error) {
	c.s.record("BODY " + nntp.MessageID(id))
	a, err := c.lookup(id)
	if err != nil {
		return nil, err
	}
	c.s.lock.Lock()
	truncate := c.s.Truncate[nntp.BareID(id)]
	c.s.lock.Unlock()
	if truncate {
		c.closed = true
		return io.MultiReader(bytes.NewReader(a.Body), dropped{}), nil
	}
	return bytes.NewReader(a.Body), nil
}

type dropped struct{}

func (dropped) Read(p []byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func (c *conn) Stat(id string) error {
	c.s.record("STAT " + nntp.MessageID(id))
	_, err := c.lookup(id)
	return err
}

func (c *conn) Probe(method string, id string) error {
	if method == "" {
		method = "STAT"
	}
	c.s.record(strings.ToUpper(method) + " " + nntp.MessageID(id))
	_, err := c.lookup(id)
	return err
}

func (c *conn) Post(a *nntp.Article) error {
	c.s.record("POST")
	c.s.lock.Lock()
	defer c.s.lock.Unlock()
	if c.s.RejectPosts > 0 {
		c.s.RejectPosts--
		return &textproto.Error{Code: nntp.StatusPostingFailed, Msg: "Posting failed"}
	}
	c.s.Posted = append(c.s.Posted, a)
	c.s.articles[nntp.BareID(a.Header.Get("Message-Id"))] = a
	return nil
}

func (c *conn) Capabilities() ([]string, error) {
	c.s.record("CAPABILITIES")
	return c.s.Capabilities, nil
}

func (c *conn) Over(rng string, legacy bool) ([]string, error) {
	if legacy {
		c.s.record("XOVER " + rng)
	} else {
		c.s.record("OVER " + rng)
	}
	c.s.lock.Lock()
	defer c.s.lock.Unlock()
	first, last := int64(0), int64(math.MaxInt64)
	if lo, hi, ok := strings.Cut(rng, "-"); ok {
		first, _ = strconv.ParseInt(lo, 10, 64)
		if hi != "" {
			last, _ = strconv.ParseInt(hi, 10, 64)
		}
	}
	lines := make([]string, 0)
	for _, line := range c.s.overview[c.group] {
		num, _, _ := strings.Cut(line, "\t")
		n, err := strconv.ParseInt(num, 10, 64)
		if err == nil && n >= first && n <= last {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (c *conn) Close() error {
	c.closed = true
	return nil
}
