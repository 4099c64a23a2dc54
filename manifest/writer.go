package manifest

import (
	"bufio"
	"encoding/xml"
	"io"
	"sort"
	"strconv"
	"strings"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="utf-8"?>`
	doctype   = `<!DOCTYPE nzb PUBLIC "-//newzBin//DTD NZB 1.1//EN" "http://www.newzbin.com/DTD/nzb/nzb-1.1.dtd">`
	Namespace = "http://www.newzbin.com/DTD/2003/nzb"
)

// Writer serializes a manifest incrementally. Errors are sticky: after the
// first failed write every call returns the same error.
type Writer struct {
	w       *bufio.Writer
	err     error
	started bool
	inFile  bool
	n       int64
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) write(parts ...string) {
	for _, p := range parts {
		if w.err != nil {
			return
		}
		n, err := w.w.WriteString(p)
		w.n += int64(n)
		w.err = err
	}
}

func escape(s string) string {
	sb := &strings.Builder{}
	_ = xml.EscapeText(sb, []byte(s))
	return sb.String()
}

// Prologue writes the document header and the head metas. Only the first
// call has any effect.
func (w *Writer) Prologue(head map[string]string) error {
	if w.started {
		return w.err
	}
	w.started = true
	w.write(xmlHeader, "\n", doctype, "\n", `<nzb xmlns="`, Namespace, `">`, "\n")

	keys := make([]string, 0, len(head))
	for k := range head {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		w.write("  <head>\n")
		for _, k := range keys {
			w.write(`    <meta type="`, escape(k), `">`, escape(head[k]), "</meta>\n")
		}
		w.write("  </head>\n")
	}
	return w.err
}

// OpenFile starts a file element, closing the previous one if needed.
// lastModified is in epoch milliseconds.
func (w *Writer) OpenFile(poster string, lastModified int64, subject string, groups []string) error {
	if !w.started {
		_ = w.Prologue(nil)
	}
	w.closeFile()

	date := strconv.FormatFloat(float64(lastModified)/1000, 'f', -1, 64)
	w.write(`  <file poster="`, escape(poster), `" date="`, date, `" subject="`, escape(subject), `">`, "\n")
	w.write("    <groups>\n")
	for _, g := range groups {
		w.write("      <group>", escape(g), "</group>\n")
	}
	w.write("    </groups>\n", "    <segments>\n")
	w.inFile = true
	return w.err
}

func (w *Writer) Segment(s Segment) error {
	w.write(`      <segment bytes="`, strconv.FormatInt(s.Size, 10), `" number="`, strconv.Itoa(s.Number), `">`, escape(s.ID), "</segment>\n")
	return w.err
}

func (w *Writer) closeFile() {
	if !w.inFile {
		return
	}
	w.inFile = false
	w.write("    </segments>\n", "  </file>\n")
	if w.err == nil {
		w.err = w.w.Flush()
	}
}

// WriteFile writes a complete file element.
func (w *Writer) WriteFile(f *File) error {
	if err := w.OpenFile(f.Poster, f.LastModified, f.Subject, f.Groups); err != nil {
		return err
	}
	for _, s := range f.Segments {
		if err := w.Segment(s); err != nil {
			return err
		}
	}
	w.closeFile()
	return w.err
}

// Close ends the open file and the document, then flushes.
func (w *Writer) Close() error {
	if !w.started {
		_ = w.Prologue(nil)
	}
	w.closeFile()
	w.write("</nzb>\n")
	if w.err == nil {
		w.err = w.w.Flush()
	}
	return w.err
}

// Written is the number of bytes produced so far.
func (w *Writer) Written() int64 {
	return w.n
}

func (m *Manifest) WriteTo(out io.Writer) (int64, error) {
	w := NewWriter(out)
	if err := w.Prologue(m.Head); err != nil {
		return w.Written(), err
	}
	for _, f := range m.Files {
		if err := w.WriteFile(f); err != nil {
			return w.Written(), err
		}
	}
	err := w.Close()
	return w.Written(), err
}
