package nntp

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/textproto"
	"strings"
	"time"

	gonntp "github.com/dustin/go-nntp"
	nntpclient "github.com/dustin/go-nntp/client"
	"github.com/pkg/errors"

	"github.com/t2bot/nzbkit/common"
	"github.com/t2bot/nzbkit/metrics"
)

// Client is a Conn backed by go-nntp.
type Client struct {
	c       *nntpclient.Client
	netConn net.Conn
	server  string
	timeout time.Duration
}

// NewClient takes over an established connection and reads the banner.
func NewClient(conn net.Conn, server string, timeout time.Duration) (*Client, error) {
	cl := &Client{netConn: conn, server: server, timeout: timeout}
	cl.touch()
	c, err := nntpclient.NewConn(conn)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "reading banner")
	}
	cl.c = c
	metrics.ConnectionsOpen.WithLabelValues(server).Inc()
	return cl, nil
}

func (c *Client) touch() {
	if c.timeout > 0 {
		_ = c.netConn.SetDeadline(time.Now().Add(c.timeout))
	}
}

func (c *Client) Authenticate(user string, pass string) error {
	c.touch()
	_, err := c.c.Authenticate(user, pass)
	return err
}

func (c *Client) Group(name string) (Group, error) {
	c.touch()
	g, err := c.c.Group(name)
	if err != nil {
		if StatusCode(err) == StatusNoSuchGroup {
			return Group{}, errors.Wrap(common.ErrInvalidGroup, name)
		}
		return Group{}, err
	}
	return Group{Name: g.Name, Count: g.Count, Low: g.Low, High: g.High}, nil
}

func (c *Client) Article(id string) (*Article, error) {
	c.touch()
	_, _, r, err := c.c.Article(MessageID(id))
	if err != nil {
		return nil, err
	}
	metrics.ArticlesFetched.WithLabelValues(c.server, "ARTICLE").Inc()

	br := bufio.NewReader(r)
	header, err := textproto.NewReader(br).ReadMIMEHeader()
	if err != nil && err != io.EOF {
		_, _ = io.Copy(io.Discard, br)
		return nil, errors.Wrap(err, "reading article header")
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return nil, errors.Wrap(err, "reading article body")
	}
	return &Article{Header: header, Body: body}, nil
}

func (c *Client) Body(id string) (io.Reader, error) {
	c.touch()
	_, _, r, err := c.c.Body(MessageID(id))
	if err != nil {
		return nil, err
	}
	metrics.ArticlesFetched.WithLabelValues(c.server, "BODY").Inc()
	return &touchReader{r: r, c: c}, nil
}

func (c *Client) Stat(id string) error {
	c.touch()
	_, _, err := c.c.Command("STAT "+MessageID(id), StatusStat)
	return err
}

// Probe checks an article exists using the given command, discarding
// whatever the server sends back.
func (c *Client) Probe(method string, id string) error {
	var r io.Reader
	var err error
	c.touch()
	switch strings.ToUpper(method) {
	case "", "STAT":
		return c.Stat(id)
	case "HEAD":
		_, _, r, err = c.c.Head(MessageID(id))
	case "BODY":
		_, _, r, err = c.c.Body(MessageID(id))
	case "ARTICLE":
		_, _, r, err = c.c.Article(MessageID(id))
	default:
		return errors.Wrap(common.ErrUnsupportedMethod, method)
	}
	if err != nil {
		return err
	}
	_, err = io.Copy(io.Discard, r)
	return err
}

func (c *Client) Post(a *Article) error {
	c.touch()
	lines := bytes.Count(a.Body, []byte{'\n'})
	err := c.c.Post(&gonntp.Article{
		Header: a.Header,
		Body:   bytes.NewReader(a.Body),
		Bytes:  len(a.Body),
		Lines:  lines,
	})
	if err != nil {
		return err
	}
	metrics.ArticlesPosted.WithLabelValues(c.server).Inc()
	return nil
}

func (c *Client) Capabilities() ([]string, error) {
	c.touch()
	_, lines, err := c.c.MultilineCommand("CAPABILITIES", StatusCapabilityList)
	return lines, err
}

// Over lists overview lines for rng ("first-last"). legacy selects XOVER.
func (c *Client) Over(rng string, legacy bool) ([]string, error) {
	c.touch()
	cmd := "OVER "
	if legacy {
		cmd = "XOVER "
	}
	_, lines, err := c.c.MultilineCommand(cmd+rng, StatusOverview)
	return lines, err
}

func (c *Client) Close() error {
	metrics.ConnectionsOpen.WithLabelValues(c.server).Dec()
	_, _, _ = c.c.Command("QUIT", 205)
	return c.netConn.Close()
}

// touchReader extends the connection deadline while a long body streams.
type touchReader struct {
	r io.Reader
	c *Client
}

func (t *touchReader) Read(p []byte) (int, error) {
	t.c.touch()
	return t.r.Read(p)
}
