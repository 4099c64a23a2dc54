package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"

	"github.com/t2bot/nzbkit/common"
	"github.com/t2bot/nzbkit/common/config"
	"github.com/t2bot/nzbkit/pipelines/pipeline_search"
)

const searchUsage = "search [flags] <query>"

func runSearch(args []string) error {
	fset := newFlagSet("search", searchUsage)
	server := addServerFlags(fset)
	group := fset.String("group", "", "The newsgroup to search")
	rng := fset.String("range", "", "Article numbers to look at, as first-last or first- (defaults to the whole group)")
	meta := fset.StringArray("meta", nil, "A key=value pair for the NZB head, may be repeated")
	out := fset.StringP("out", "o", "-", "Where to write the NZB: a path, - for stdout, or s3://bucket/key")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() < 1 {
		return missing(fset, searchUsage, "Missing query")
	}

	head := make(map[string]string, len(*meta))
	for _, kv := range *meta {
		k, v, _ := strings.Cut(kv, "=")
		head[k] = v
	}

	// Interrupting a search keeps what was found so far
	s, err := setup(fset, func(c *config.MainConfig) {
		server.apply(&c.Source)
	}, false)
	if err != nil {
		return err
	}
	defer s.Close()

	stop := make(chan struct{})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer func() {
		signal.Stop(sigs)
		close(sigs)
	}()
	go func() {
		if _, ok := <-sigs; ok {
			close(stop)
		}
	}()

	conn, err := dialer(s.Ctx.Config.Source, s.Ctx.Log).Dial(s.Ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	m, last, err := pipeline_search.Execute(s.Ctx, fset.Arg(0), *group, *rng, head, conn, stop)
	switch {
	case errors.Is(err, common.ErrInvalidGroup):
		_, _ = fmt.Fprintln(stderr, "Invalid group")
		return errReported
	case errors.Is(err, common.ErrNoArticles):
		_, _ = fmt.Fprintln(stderr, "No articles found")
		return errReported
	case err != nil:
		return err
	}
	select {
	case <-stop:
		_, _ = fmt.Fprintln(stderr, "stopped at", last)
	default:
	}

	return writeManifest(s, *out, m)
}
