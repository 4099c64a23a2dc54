package main

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/datastores"
	"github.com/t2bot/nzbkit/manifest"
)

const combineUsage = "combine [flags] <target> <sources...>"

func runCombine(args []string) error {
	fset := newFlagSet("combine", combineUsage)
	out := fset.StringP("out", "o", "-", "Where to write the combined NZB: a path, - for stdout, or s3://bucket/key")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() < 1 {
		return missingInput(fset, combineUsage)
	}

	s, err := setup(fset, nil, true)
	if err != nil {
		return err
	}
	defer s.Close()

	// The first NZB is the result, the rest are added to it
	target, err := manifest.Open(fsys, fset.Arg(0))
	if err != nil {
		return errors.Wrap(err, fset.Arg(0))
	}
	sources := make([]*manifest.Manifest, 0, fset.NArg()-1)
	for _, p := range fset.Args()[1:] {
		m, err := manifest.Open(fsys, p)
		if err != nil {
			return errors.Wrap(err, p)
		}
		sources = append(sources, m)
	}
	manifest.Combine(target, sources...)
	s.Ctx.Log.WithFields(logrus.Fields{
		"sources": len(sources),
		"files":   len(target.Files),
	}).Debug("Combined NZBs")

	return writeManifest(s, *out, target)
}

func writeManifest(s *session, target string, m *manifest.Manifest) error {
	w, err := datastores.OpenSink(s.Ctx, fsys, target, "application/x-nzb")
	if err != nil {
		return err
	}
	if _, err = m.WriteTo(w); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
