package pipeline_search

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/t2bot/nzbkit/common"
	"github.com/t2bot/nzbkit/common/rcontext"
	"github.com/t2bot/nzbkit/manifest"
	"github.com/t2bot/nzbkit/nntp"
)

// BatchSize is how many article numbers one overview command covers.
var BatchSize int64 = 10000

var partRegex = regexp.MustCompile(`\((\d+)/(\d+)\)`)

type candidate struct {
	file  *manifest.File
	slots []*manifest.Segment
	sized bool
}

// Execute scans the overview of group for subjects containing query and
// builds a manifest from the matching articles. rng is "first-last" or
// "first-"; empty means the whole group. It returns the number of the last
// article looked at, which is where a stopped scan can resume.
func Execute(ctx rcontext.RequestContext, query string, group string, rng string, meta map[string]string, conn nntp.Conn, stop <-chan struct{}) (*manifest.Manifest, int64, error) {
	// Step 1: Find out what the server can do
	caps, err := conn.Capabilities()
	if err != nil {
		return nil, 0, errors.Wrap(err, "reading capabilities")
	}
	legacy := false
	for _, c := range caps {
		if strings.Contains(strings.ToUpper(c), "XOVER") {
			legacy = true
		}
	}

	// Step 2: Select the group and work out the range
	g, err := conn.Group(group)
	if err != nil {
		if errors.Is(err, common.ErrInvalidGroup) {
			return nil, 0, err
		}
		return nil, 0, errors.Wrap(common.ErrInvalidGroup, err.Error())
	}
	first, last, err := parseRange(rng, g)
	if err != nil {
		return nil, 0, err
	}

	m := manifest.New(group)
	for k, v := range meta {
		m.Head[k] = v
	}

	// Step 3: Walk the overview in batches
	byName := make(map[string]*candidate)
	order := make([]*candidate, 0)
	processed := first - 1
	sawAny := false
	stopped := false

scan:
	for lo := first; lo <= last; lo += BatchSize {
		hi := lo + BatchSize - 1
		if hi > last {
			hi = last
		}
		lines, err := conn.Over(fmt.Sprintf("%d-%d", lo, hi), legacy)
		if err != nil {
			if nntp.StatusCode(err) == 423 || nntp.StatusCode(err) == 420 {
				processed = hi
				continue
			}
			return nil, processed, errors.Wrap(err, "listing overview")
		}

		for _, line := range lines {
			select {
			case <-stop:
				stopped = true
				break scan
			default:
			}
			if err = ctx.Err(); err != nil {
				return nil, processed, err
			}

			fields := strings.Split(line, "\t")
			if len(fields) < 7 {
				continue
			}
			sawAny = true
			if n, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
				processed = n
			}
			subject := fields[1]
			if !strings.Contains(subject, query) {
				continue
			}
			addSegment(byName, &order, group, fields)
		}
		if len(lines) == 0 {
			processed = hi
		}
	}
	if !sawAny && !stopped {
		return nil, processed, common.ErrNoArticles
	}
	if stopped {
		ctx.Log.Infof("Search stopped at %d", processed)
	}

	// Step 4: Turn the candidates into files
	for _, c := range order {
		for _, s := range c.slots {
			if s != nil {
				c.file.Segments = append(c.file.Segments, *s)
			}
		}
		if !c.sized {
			for _, s := range c.file.Segments {
				c.file.Size += s.Size
			}
		}
		m.Files = append(m.Files, c.file)
		m.Size += c.file.Size
	}
	return m, processed, nil
}

func addSegment(byName map[string]*candidate, order *[]*candidate, group string, fields []string) {
	subject, poster, date, id := fields[1], fields[2], fields[3], fields[4]
	subj, ok := manifest.ParseSubject(subject)
	if !ok {
		return
	}
	part, total := subj.Part, subj.Total
	if total < 1 {
		part, total = 1, 1
	}
	if part < 1 || part > total {
		return
	}

	c, ok := byName[subj.Name]
	if !ok {
		lastModified := time.Now().UnixMilli()
		if t, err := mail.ParseDate(date); err == nil {
			lastModified = t.UnixMilli()
		}
		c = &candidate{
			file: &manifest.File{
				Poster:       poster,
				LastModified: lastModified,
				Subject:      firstPart(subject),
				Name:         subj.Name,
				Groups:       []string{group},
				Segments:     make([]manifest.Segment, 0, total),
				Size:         subj.Size,
			},
			slots: make([]*manifest.Segment, total),
			sized: subj.Size > 0,
		}
		byName[subj.Name] = c
		*order = append(*order, c)
	}
	if part > len(c.slots) {
		return
	}

	size := int64(0)
	if len(fields) > 6 {
		size, _ = strconv.ParseInt(fields[6], 10, 64)
	}
	c.slots[part-1] = &manifest.Segment{ID: nntp.BareID(id), Size: size, Number: part}
}

// firstPart rewrites the part counter to (1/total) so articles can be
// renumbered from it later.
func firstPart(subject string) string {
	loc := partRegex.FindStringSubmatchIndex(subject)
	if loc == nil {
		return subject
	}
	return subject[:loc[0]] + "(1/" + subject[loc[4]:loc[5]] + ")" + subject[loc[1]:]
}

func parseRange(rng string, g nntp.Group) (int64, int64, error) {
	if rng == "" {
		return g.Low, g.High, nil
	}
	lo, hi, _ := strings.Cut(rng, "-")
	first, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
	if err != nil {
		return 0, 0, errors.Errorf("invalid range %q", rng)
	}
	last := g.High
	if strings.TrimSpace(hi) != "" {
		last, err = strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
		if err != nil {
			return 0, 0, errors.Errorf("invalid range %q", rng)
		}
	}
	return first, last, nil
}
