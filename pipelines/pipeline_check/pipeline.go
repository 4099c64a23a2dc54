package pipeline_check

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/common"
	"github.com/t2bot/nzbkit/common/rcontext"
	"github.com/t2bot/nzbkit/decoding"
	"github.com/t2bot/nzbkit/errcache"
	"github.com/t2bot/nzbkit/manifest"
	"github.com/t2bot/nzbkit/metrics"
	"github.com/t2bot/nzbkit/nntp"
)

var methods = map[string]bool{"STAT": true, "HEAD": true, "BODY": true, "ARTICLE": true}

type Problem struct {
	File      string
	MessageID string
	// Corrupt is set when the article exists but failed its CRC check.
	Corrupt bool
}

func (p Problem) String() string {
	if p.Corrupt {
		return fmt.Sprintf("Article %s of file %s is corrupt", p.MessageID, p.File)
	}
	return fmt.Sprintf("Article %s of file %s is missing", p.MessageID, p.File)
}

type FileReport struct {
	Name     string
	Segments int
	Elapsed  time.Duration
}

type Report struct {
	Files    []FileReport
	Problems []Problem
	Checked  int
}

func (r *Report) Missing() int {
	n := 0
	for _, p := range r.Problems {
		if !p.Corrupt {
			n++
		}
	}
	return n
}

// Execute checks that every segment of the named file (or of every file,
// when name is empty) is on the server. With verify, bodies are fetched
// and CRC checked instead of using method.
func Execute(ctx rcontext.RequestContext, m *manifest.Manifest, name string, method string, verify bool, conn nntp.Conn) (*Report, error) {
	method = strings.ToUpper(method)
	if method == "" {
		method = "STAT"
	}
	if !methods[method] {
		return nil, errors.Wrap(common.ErrUnsupportedMethod, method)
	}

	// Step 1: Pick the files
	files := m.Files
	if name != "" {
		f := m.File(name)
		if f == nil {
			return nil, errors.Wrap(common.ErrFileNotFound, name)
		}
		files = []*manifest.File{f}
	}

	report := &Report{
		Files:    make([]FileReport, 0, len(files)),
		Problems: make([]Problem, 0),
	}

	// Step 2: Probe every segment
	for _, f := range files {
		started := time.Now()
		log := ctx.Log.WithField("file", f.Name)
		for _, s := range f.Segments {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			corrupt, err := probe(conn, method, verify, s.ID)
			report.Checked++
			if err != nil {
				if !nntp.IsNotFound(err) {
					return report, errors.Wrapf(err, "checking %s", nntp.MessageID(s.ID))
				}
				metrics.ArticlesMissing.WithLabelValues("check").Inc()
				if errcache.MissingArticles != nil {
					errcache.MissingArticles.Set(s.ID, errors.Wrap(common.ErrArticleNotFound, nntp.MessageID(s.ID)))
				}
				p := Problem{File: f.Name, MessageID: nntp.MessageID(s.ID)}
				log.Warn(p.String())
				report.Problems = append(report.Problems, p)
				continue
			}
			if corrupt {
				p := Problem{File: f.Name, MessageID: nntp.MessageID(s.ID), Corrupt: true}
				log.Warn(p.String())
				report.Problems = append(report.Problems, p)
			}
		}

		fr := FileReport{Name: f.Name, Segments: len(f.Segments), Elapsed: time.Since(started)}
		log.WithFields(logrus.Fields{
			"segments": fr.Segments,
			"elapsed":  fr.Elapsed.String(),
		}).Info("Checked file")
		report.Files = append(report.Files, fr)
	}
	return report, nil
}

func probe(conn nntp.Conn, method string, verify bool, id string) (bool, error) {
	if !verify {
		return false, conn.Probe(method, id)
	}
	r, err := conn.Body(id)
	if err != nil {
		return false, err
	}
	ok, err := decoding.Verify(r)
	if err != nil {
		return false, err
	}
	return !ok, nil
}
