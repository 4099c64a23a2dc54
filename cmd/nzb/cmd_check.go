package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/common/config"
	"github.com/t2bot/nzbkit/manifest"
	"github.com/t2bot/nzbkit/pipelines/pipeline_check"
)

const checkUsage = "check [flags] <input> [filename]"

func runCheck(args []string) error {
	fset := newFlagSet("check", checkUsage)
	server := addServerFlags(fset)
	method := fset.String("method", "STAT", "How to look for articles: STAT, HEAD, BODY or ARTICLE")
	verify := fset.Bool("verify", false, "Download every article and check its CRC")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() < 1 {
		return missingInput(fset, checkUsage)
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
	name := fset.Arg(1)
	if name != "" && m.File(name) == nil {
		return &fileNotFoundError{name: name}
	}

	conn, err := dialer(s.Ctx.Config.Source, s.Ctx.Log).Dial(s.Ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	report, err := pipeline_check.Execute(s.Ctx, m, name, *method, *verify, conn)
	if report != nil {
		for _, p := range report.Problems {
			_, _ = fmt.Fprintln(stdout, p.String())
		}
	}
	if err != nil {
		return err
	}
	s.Ctx.Log.WithFields(logrus.Fields{
		"files":    len(report.Files),
		"checked":  report.Checked,
		"problems": len(report.Problems),
	}).Info("Check finished")
	return nil
}
