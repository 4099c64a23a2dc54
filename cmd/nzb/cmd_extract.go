package main

import (
	"github.com/pkg/errors"

	"github.com/t2bot/nzbkit/manifest"
)

const extractUsage = "extract [flags] <input> <glob|regex>"

func runExtract(args []string) error {
	fset := newFlagSet("extract", extractUsage)
	out := fset.StringP("out", "o", "-", "Where to write the extracted NZB: a path, - for stdout, or s3://bucket/key")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() < 2 {
		return missingInput(fset, extractUsage)
	}

	s, err := setup(fset, nil, true)
	if err != nil {
		return err
	}
	defer s.Close()

	m, err := manifest.Open(fsys, fset.Arg(0))
	if err != nil {
		return errors.Wrap(err, fset.Arg(0))
	}
	extracted, err := manifest.Filter(m, fset.Arg(1))
	if err != nil {
		return err
	}
	s.Ctx.Log.Debugf("Extracted %d of %d files", len(extracted.Files), len(m.Files))
	return writeManifest(s, *out, extracted)
}
