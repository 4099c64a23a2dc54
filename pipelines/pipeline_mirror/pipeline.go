package pipeline_mirror

import (
	"context"
	"io"
	"net/mail"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/common"
	"github.com/t2bot/nzbkit/manifest"
	"github.com/t2bot/nzbkit/metrics"
	"github.com/t2bot/nzbkit/nntp"
	"github.com/t2bot/nzbkit/pool"
)

type Options struct {
	Connections    int
	RequestRetries int
	PostRetryDelay time.Duration
	JoinGroup      bool

	// Header overrides. Empty means "take it from the source article".
	From   string
	Groups string
	// Date is an RFC 1123 date, or "now" for the time the run started.
	Date      string
	Subject   string
	MessageID string
	Comment   string
	Comment2  string
}

type Result struct {
	Posted  int
	Missing int
	Failed  int
	Bytes   int64

	// Failures says why each failed segment was left out, in order.
	Failures []error
}

type Engine struct {
	Source      nntp.Dialer
	Destination nntp.Dialer
	Options     Options
	Log         *logrus.Entry
}

type outcome struct {
	view    *manifest.ArticleView
	header  textproto.MIMEHeader
	missing bool
	err     error
}

// Run copies every segment of m from Source to Destination and writes the
// manifest of the copies to out. Segments that are missing or could not be
// posted are left out of the output. progress, when set, receives the
// cumulative number of segment bytes written.
func (e *Engine) Run(ctx context.Context, m *manifest.Manifest, out io.Writer, progress func(int64)) (*Result, error) {
	workers := e.Options.Connections
	if workers < 1 {
		workers = 1
	}
	started := time.Now().UTC()
	opts := e.Options
	if opts.Date == "now" {
		opts.Date = started.Format(manifest.DateFormat)
	}

	// Step 1: Set up the workers and their connections
	q, err := pool.NewQueue(workers, "mirror")
	if err != nil {
		return nil, err
	}
	defer q.Release()
	sources := nntp.NewConnPool(e.Source, workers)
	defer sources.Close()
	destinations := nntp.NewConnPool(e.Destination, workers)
	defer destinations.Close()

	// Step 2: Write the manifest as results arrive, in order
	w := manifest.NewWriter(out)
	if err = w.Prologue(m.Head); err != nil {
		return nil, err
	}
	res := &Result{}
	openFile := -1

	it := m.Articles()
	next := func() (*manifest.ArticleView, bool) {
		if it.Next() {
			return it.Article(), true
		}
		return nil, false
	}
	work := func(ctx context.Context, v *manifest.ArticleView) *outcome {
		return e.replicate(ctx, opts, m, v, sources, destinations)
	}
	yield := func(o *outcome) error {
		switch {
		case o.missing:
			res.Missing++
			return nil
		case o.err != nil:
			res.Failed++
			res.Failures = append(res.Failures, o.err)
			return nil
		}

		// a file starts at part 1, or at the first part that made it
		if o.view.Number == 1 || o.view.FileIndex != openFile {
			openFile = o.view.FileIndex
			if err := w.OpenFile(o.header.Get("From"), headerDate(o.header, started), o.header.Get("Subject"), splitGroups(o.header.Get("Newsgroups"))); err != nil {
				return err
			}
		}
		size := o.view.Segment.Size
		if err := w.Segment(manifest.Segment{ID: nntp.BareID(o.header.Get("Message-Id")), Size: size, Number: o.view.Number}); err != nil {
			return err
		}
		res.Posted++
		res.Bytes += size
		if progress != nil {
			progress(res.Bytes)
		}
		return nil
	}

	err = pool.OrderedMap(ctx, q, workers, next, work, yield)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}

	e.Log.WithFields(logrus.Fields{
		"posted":  res.Posted,
		"missing": res.Missing,
		"failed":  res.Failed,
		"bytes":   res.Bytes,
	}).Info("Mirror finished")
	return res, err
}

// retry makes up to RequestRetries attempts at op, and always at least one.
func retry(ctx context.Context, opts Options, op func() error, delay time.Duration) error {
	attempts := opts.RequestRetries
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)), ctx)
	return backoff.Retry(op, b)
}

func (e *Engine) replicate(ctx context.Context, opts Options, m *manifest.Manifest, v *manifest.ArticleView, sources *nntp.ConnPool, destinations *nntp.ConnPool) *outcome {
	log := e.Log.WithFields(logrus.Fields{
		"file":    v.File.Name,
		"segment": v.Segment.ID,
		"number":  v.Number,
	})

	// Step 1: Fetch the article in full
	var article *nntp.Article
	err := retry(ctx, opts, func() error {
		src, err := sources.Get(ctx)
		if err != nil {
			return err
		}
		if opts.JoinGroup && len(v.File.Groups) > 0 {
			if _, err = src.Group(v.File.Groups[0]); err != nil {
				log.Warn("Error joining group: ", err)
			}
		}
		article, err = src.Article(v.Segment.ID)
		if err != nil {
			if nntp.IsNotFound(err) {
				sources.Put(src, false)
				return backoff.Permanent(err)
			}
			sources.Put(src, true)
			return err
		}
		sources.Put(src, false)
		return nil
	}, 0)
	if err != nil {
		if nntp.IsNotFound(err) {
			log.Warnf("Article %s is missing", nntp.MessageID(v.Segment.ID))
			metrics.ArticlesMissing.WithLabelValues("source").Inc()
			return &outcome{view: v, missing: true}
		}
		log.Error("Error fetching article: ", err)
		return &outcome{view: v, err: errors.Wrapf(err, "fetching %s", nntp.MessageID(v.Segment.ID))}
	}

	// Step 2: Build the headers for the copy
	header := buildHeader(opts, m, v, article.Header)

	// Step 3: Post it
	err = retry(ctx, opts, func() error {
		dst, err := destinations.Get(ctx)
		if err != nil {
			return err
		}
		err = dst.Post(&nntp.Article{Header: header, Body: article.Body})
		// a rejected post leaves the connection usable
		destinations.Put(dst, err != nil && nntp.StatusCode(err) == 0)
		return err
	}, opts.PostRetryDelay)
	if err != nil {
		status := nntp.StatusCode(err)
		log.Errorf("Post failed: %s", statusText(err))
		metrics.PostFailures.WithLabelValues("destination", strconv.Itoa(status)).Inc()
		if status != 0 {
			err = errors.Wrapf(common.ErrPostRejected, "%s: %s", nntp.MessageID(v.Segment.ID), statusText(err))
		} else {
			err = errors.Wrapf(err, "posting %s", nntp.MessageID(v.Segment.ID))
		}
		return &outcome{view: v, err: err}
	}
	return &outcome{view: v, header: header}
}

func buildHeader(opts Options, m *manifest.Manifest, v *manifest.ArticleView, source textproto.MIMEHeader) textproto.MIMEHeader {
	h := textproto.MIMEHeader{}
	set := func(k string, values ...string) {
		for _, val := range values {
			if val != "" {
				h.Set(k, val)
				return
			}
		}
	}

	subject := v.Header.Get("Subject")
	messageID := ""
	if opts.Subject != "" || opts.MessageID != "" {
		vars := varsFor(m, v, opts)
		if opts.Subject != "" {
			subject = Expand(opts.Subject, vars)
		}
		if opts.MessageID != "" {
			messageID = nntp.MessageID(Expand(opts.MessageID, vars))
		}
	}

	set("Date", opts.Date, time.Now().UTC().Format(manifest.DateFormat))
	set("From", opts.From, source.Get("From"), v.Header.Get("From"))
	set("Bytes", v.Header.Get("Bytes"))
	set("Newsgroups", opts.Groups, source.Get("Newsgroups"), v.Header.Get("Newsgroups"))
	set("Subject", subject, source.Get("Subject"))
	set("Message-Id", messageID, "<"+uuid.NewString()+"@nntp>")
	return h
}

func headerDate(h textproto.MIMEHeader, fallback time.Time) int64 {
	if t, err := mail.ParseDate(h.Get("Date")); err == nil {
		return t.UnixMilli()
	}
	return fallback.UnixMilli()
}

func splitGroups(s string) []string {
	groups := make([]string, 0)
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

func statusText(err error) string {
	var te *textproto.Error
	if errors.As(err, &te) {
		return strconv.Itoa(te.Code) + " " + te.Msg
	}
	return err.Error()
}
