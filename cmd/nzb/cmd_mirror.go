package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/common/config"
	"github.com/t2bot/nzbkit/datastores"
	"github.com/t2bot/nzbkit/manifest"
	"github.com/t2bot/nzbkit/pipelines/pipeline_mirror"
	"github.com/t2bot/nzbkit/util/progress"
)

const mirrorUsage = "mirror [flags] <input>"

func runMirror(args []string) error {
	fset := newFlagSet("mirror", mirrorUsage)
	source := addServerFlags(fset)
	destination := addDestinationFlags(fset)
	connections := fset.IntP("connections", "n", 0, "Number of connections to each server (defaults to the configured count)")
	connectRetries := fset.IntP("connect-retries", "r", 0, "How many times to try connecting before giving up")
	reconnectDelay := fset.IntP("reconnect-delay", "d", 0, "Milliseconds to wait before reconnecting")
	requestRetries := fset.IntP("request-retries", "R", 0, "How many times to try each fetch and post before giving up")
	postRetryDelay := fset.Int("post-retry-delay", 0, "Milliseconds to wait before posting again")
	joinGroup := fset.Bool("join-group", false, "Select the file's first group before fetching each article")
	comment := fset.StringP("comment", "t", "", "Text prepended to the subject")
	comment2 := fset.StringP("comment2", "T", "", "Text appended to the subject")
	subject := fset.StringP("subject", "s", "", "Subject template for the copies")
	from := fset.StringP("from", "f", "", "From header for the copies")
	groups := fset.StringP("groups", "g", "", "Comma separated newsgroups to post to")
	date := fset.String("date", "", "Date header for the copies, or \"now\"")
	messageID := fset.StringP("message-id", "m", "", "Message-ID template for the copies (defaults to a random uuid)")
	out := fset.StringP("out", "o", "-", "Where to write the new NZB: a path, - for stdout, or s3://bucket/key")
	showProgress := fset.Bool("progress", false, "Show progress on stderr")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() < 1 {
		return missingInput(fset, mirrorUsage)
	}

	tune := func(s *config.ServerConfig) {
		if fset.Changed("connections") {
			s.Connections = *connections
		}
		if fset.Changed("connect-retries") {
			s.ConnectRetries = *connectRetries
		}
		if fset.Changed("reconnect-delay") {
			s.ReconnectDelayMs = *reconnectDelay
		}
		if fset.Changed("request-retries") {
			s.RequestRetries = *requestRetries
		}
		if fset.Changed("post-retry-delay") {
			s.PostRetryDelayMs = *postRetryDelay
		}
		if fset.Changed("join-group") {
			s.JoinGroup = *joinGroup
		}
	}
	s, err := setup(fset, func(c *config.MainConfig) {
		source.apply(&c.Source)
		if destination.given() && c.Destination.Hostname == "" {
			c.Destination = c.Source
		}
		destination.apply(&c.Destination)
		tune(&c.Source)
		if c.Destination.Hostname != "" {
			tune(&c.Destination)
		}
	}, true)
	if err != nil {
		return err
	}
	defer s.Close()

	m, err := manifest.Open(fsys, fset.Arg(0))
	if err != nil {
		return errors.Wrap(err, fset.Arg(0))
	}

	cfg := s.Ctx.Config
	src := cfg.Source
	dst := cfg.DestinationServer()
	opts := pipeline_mirror.Options{
		Connections:    src.Connections,
		RequestRetries: dst.RequestRetries,
		PostRetryDelay: dst.PostRetryDelay(),
		JoinGroup:      src.JoinGroup,
		From:           firstOf(*from, cfg.Mirror.Poster),
		Groups:         firstOf(*groups, cfg.Mirror.Groups),
		Date:           firstOf(*date, cfg.Mirror.Date),
		Subject:        firstOf(*subject, cfg.Mirror.Subject),
		MessageID:      firstOf(*messageID, cfg.Mirror.MessageId),
		Comment:        firstOf(*comment, cfg.Mirror.Comment),
		Comment2:       firstOf(*comment2, cfg.Mirror.Comment2),
	}
	// DestinationServer fills in zero retries, but asking for none is valid
	if fset.Changed("request-retries") {
		opts.RequestRetries = *requestRetries
	}
	log := s.Ctx.Log.WithFields(logrus.Fields{
		"source":      src.Address(),
		"destination": dst.Address(),
		"connections": opts.Connections,
	})
	engine := &pipeline_mirror.Engine{
		Source:      dialer(src, log),
		Destination: dialer(dst, log),
		Options:     opts,
		Log:         log,
	}

	w, err := datastores.OpenSink(s.Ctx, fsys, *out, "application/x-nzb")
	if err != nil {
		return err
	}

	var onProgress func(int64)
	if *showProgress {
		reporter := progress.New(stderr, m.Size)
		reporter.Start()
		defer reporter.Stop()
		onProgress = reporter.Set
	}

	log.Infof("Mirroring %d files (%d segments) using %d connections", len(m.Files), m.Segments(), opts.Connections)
	started := time.Now()
	res, err := engine.Run(s.Ctx, m, w, onProgress)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	for _, failure := range res.Failures {
		log.Debug(failure)
	}
	if res.Missing > 0 || res.Failed > 0 {
		log.Warnf("%d segments were missing and %d could not be posted - they are not in the new NZB", res.Missing, res.Failed)
	}
	log.Info("Mirrored in ", time.Since(started).Round(time.Millisecond))
	return nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
