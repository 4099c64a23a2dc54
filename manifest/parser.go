package manifest

import (
	"encoding/xml"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/t2bot/nzbkit/common"
)

// Parse reads an NZB document one token at a time. The returned manifest is
// complete: all file sizes are final.
func Parse(r io.Reader, name string) (*Manifest, error) {
	d := xml.NewDecoder(r)
	b := &builder{m: New(name), now: time.Now().UnixMilli()}

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, structural(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			err = b.enter(t)
		case xml.EndElement:
			err = b.exit(t)
		case xml.CharData:
			if b.collecting {
				b.text.Write(t)
			}
		}
		if err != nil {
			line, _ := d.InputPos()
			return nil, structural(errors.Wrapf(err, "line %d", line))
		}
	}

	if !b.sawRoot {
		return nil, structural(errors.New("no nzb element"))
	}
	return b.m, nil
}

// MalformedError is a parse failure. It matches common.ErrMalformedManifest
// and unwraps to what went wrong.
type MalformedError struct {
	Cause error
}

func (e *MalformedError) Error() string {
	return e.Cause.Error() + ": " + common.ErrMalformedManifest.Error()
}

func (e *MalformedError) Unwrap() error {
	return e.Cause
}

func (e *MalformedError) Is(target error) bool {
	return target == common.ErrMalformedManifest
}

func structural(err error) error {
	return &MalformedError{Cause: err}
}

type builder struct {
	m     *Manifest
	stack []string
	now   int64

	sawRoot     bool
	file        *File
	sizeSubject bool
	metaType    string

	collecting bool
	text       strings.Builder
}

func (b *builder) parent() string {
	if len(b.stack) == 0 {
		return ""
	}
	return b.stack[len(b.stack)-1]
}

func (b *builder) collect() {
	b.collecting = true
	b.text.Reset()
}

func (b *builder) takeText() string {
	b.collecting = false
	s := strings.TrimSpace(b.text.String())
	b.text.Reset()
	return s
}

func (b *builder) enter(t xml.StartElement) error {
	local := t.Name.Local
	parent := b.parent()
	b.stack = append(b.stack, local)

	switch {
	case local == "nzb" && parent == "":
		b.sawRoot = true
	case local == "meta" && parent == "head":
		b.metaType = attr(t, "type")
		b.collect()
	case local == "file" && parent == "nzb":
		return b.openFile(t)
	case local == "group" && parent == "groups" && b.file != nil:
		b.collect()
	case local == "segment" && parent == "segments" && b.file != nil:
		seg := Segment{}
		if v := attr(t, "bytes"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				return errors.Errorf("invalid segment bytes %q", v)
			}
			seg.Size = n
		}
		v := attr(t, "number")
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return errors.Errorf("invalid segment number %q", v)
		}
		seg.Number = n
		b.file.Segments = append(b.file.Segments, seg)
		b.collect()
	}
	return nil
}

func (b *builder) openFile(t xml.StartElement) error {
	f := &File{
		Poster:       attr(t, "poster"),
		Subject:      attr(t, "subject"),
		LastModified: b.now,
		Groups:       make([]string, 0),
		Segments:     make([]Segment, 0),
	}
	if v := attr(t, "date"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return errors.Errorf("invalid file date %q", v)
		}
		f.LastModified = int64(math.Round(secs * 1000))
	}

	b.sizeSubject = false
	if s, ok := ParseSubject(f.Subject); ok {
		f.Name = s.Name
		if s.Size > 0 {
			f.Size = s.Size
			b.sizeSubject = true
		}
	}
	b.file = f
	return nil
}

func (b *builder) exit(t xml.EndElement) error {
	local := t.Name.Local
	if len(b.stack) > 0 {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.parent()

	switch {
	case local == "meta" && parent == "head":
		text := b.takeText()
		if b.metaType != "" {
			b.m.Head[b.metaType] = text
		}
	case local == "group" && parent == "groups" && b.file != nil:
		b.file.Groups = append(b.file.Groups, b.takeText())
	case local == "segment" && parent == "segments" && b.file != nil:
		b.file.Segments[len(b.file.Segments)-1].ID = b.takeText()
	case local == "file" && parent == "nzb" && b.file != nil:
		return b.closeFile()
	}
	return nil
}

func (b *builder) closeFile() error {
	f := b.file
	b.file = nil

	sort.SliceStable(f.Segments, func(i, j int) bool {
		return f.Segments[i].Number < f.Segments[j].Number
	})
	for i := 1; i < len(f.Segments); i++ {
		if f.Segments[i].Number == f.Segments[i-1].Number {
			return errors.Errorf("duplicate segment number %d in %q", f.Segments[i].Number, f.Subject)
		}
	}

	if !b.sizeSubject {
		f.Size = 0
		for _, s := range f.Segments {
			f.Size += s.Size
		}
	}
	b.m.Size += f.Size
	b.m.Files = append(b.m.Files, f)
	return nil
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
