package manifest

import (
	"net/textproto"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateFormat is used for the Date header of synthesized articles.
const DateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

var firstPartRegex = regexp.MustCompile(`\(1/(\d+)\)`)

// ArticleView is one segment presented as a postable article.
type ArticleView struct {
	FileIndex int
	File      *File
	Segment   Segment
	Number    int
	Total     int
	Header    textproto.MIMEHeader
}

// ArticleIterator walks every (file, segment) pair in order. Views are
// built on demand.
type ArticleIterator struct {
	m       *Manifest
	file    int
	segment int
	current *ArticleView
}

func (m *Manifest) Articles() *ArticleIterator {
	return &ArticleIterator{m: m, segment: -1}
}

func (it *ArticleIterator) Next() bool {
	it.current = nil
	it.segment++
	for it.file < len(it.m.Files) {
		f := it.m.Files[it.file]
		if it.segment < len(f.Segments) {
			it.current = newArticleView(it.file, f, f.Segments[it.segment])
			return true
		}
		it.file++
		it.segment = 0
	}
	return false
}

func (it *ArticleIterator) Article() *ArticleView {
	return it.current
}

func (it *ArticleIterator) Reset() {
	it.file = 0
	it.segment = -1
	it.current = nil
}

func newArticleView(index int, f *File, s Segment) *ArticleView {
	total := len(f.Segments)
	subject := f.Subject
	if loc := firstPartRegex.FindStringSubmatchIndex(subject); loc != nil {
		subject = subject[:loc[0]] + "(" + strconv.Itoa(s.Number) + "/" + subject[loc[2]:loc[3]] + ")" + subject[loc[1]:]
	}

	h := textproto.MIMEHeader{}
	h.Set("From", f.Poster)
	h.Set("Date", time.UnixMilli(f.LastModified).UTC().Format(DateFormat))
	h.Set("Subject", subject)
	h.Set("Newsgroups", strings.Join(f.Groups, ","))
	h.Set("Message-Id", "<"+s.ID+">")
	h.Set("Bytes", strconv.FormatInt(s.Size, 10))

	return &ArticleView{
		FileIndex: index,
		File:      f,
		Segment:   s,
		Number:    s.Number,
		Total:     total,
		Header:    h,
	}
}
