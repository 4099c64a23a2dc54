package main

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/common/config"
	"github.com/t2bot/nzbkit/datastores"
	"github.com/t2bot/nzbkit/manifest"
	"github.com/t2bot/nzbkit/nntp"
	"github.com/t2bot/nzbkit/pipelines/pipeline_get"
)

const getUsage = "get [flags] <input> <filename>"

// dialer is swapped out by tests.
var dialer = func(cfg config.ServerConfig, log *logrus.Entry) nntp.Dialer {
	return nntp.NewServerDialer(cfg, log)
}

func runGet(args []string) error {
	fset := newFlagSet("get", getUsage)
	server := addServerFlags(fset)
	start := fset.Int64P("start", "s", 0, "The first byte of the file to fetch")
	end := fset.Int64P("end", "e", -1, "The last byte of the file to fetch (defaults to the end of the file)")
	out := fset.StringP("out", "o", "-", "Where to write the file: a path, - for stdout, or s3://bucket/key")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() < 2 {
		return missingInput(fset, getUsage)
	}

	s, err := setup(fset, func(c *config.MainConfig) {
		server.apply(&c.Source)
	}, true)
	if err != nil {
		return err
	}
	defer s.Close()

	m, err := manifest.Open(fsys, fset.Arg(0))
	if err != nil {
		return errors.Wrap(err, fset.Arg(0))
	}
	f := m.File(fset.Arg(1))
	if f == nil {
		return &fileNotFoundError{name: fset.Arg(1)}
	}
	last := *end
	if last < 0 {
		last = f.Size - 1
	}

	ctx := s.Ctx.LogWithFields(logrus.Fields{"file": f.Name})
	cfg := ctx.Config.Source
	conns := nntp.NewConnPool(dialer(cfg, ctx.Log), cfg.Connections)
	defer conns.Close()

	w, err := datastores.OpenSink(ctx, fsys, *out, "application/octet-stream")
	if err != nil {
		return err
	}
	source := &pipeline_get.CachedSource{Pool: conns, Ctx: ctx, Server: "source"}
	if err = pipeline_get.Execute(ctx, f, *start, last, w, source); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
