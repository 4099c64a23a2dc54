package manifest

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t2bot/nzbkit/common"
)

const sampleNzb = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE nzb PUBLIC "-//newzBin//DTD NZB 1.1//EN" "http://www.newzbin.com/DTD/nzb/nzb-1.1.dtd">
<nzb xmlns="http://www.newzbin.com/DTD/2003/nzb">
  <head>
    <meta type="password">secret</meta>
  </head>
  <file poster="poster@example.com" date="1600000000" subject="[1/2] - &quot;clip.mkv&quot; yEnc (1/3) 1000">
    <groups>
      <group>alt.binaries.test</group>
    </groups>
    <segments>
      <segment bytes="100" number="2">seg2@example</segment>
      <segment bytes="100" number="1">seg1@example</segment>
      <segment bytes="100" number="3">seg3@example</segment>
    </segments>
  </file>
  <file poster="other" date="1600000000.5" subject="&quot;readme.nfo&quot; yEnc (1/1)">
    <groups><group>a.b.c</group><group>a.b.d</group></groups>
    <segments>
      <segment bytes="42" number="1">
        nfo@example
      </segment>
    </segments>
  </file>
</nzb>
`

func TestParseSubject(t *testing.T) {
	s, ok := ParseSubject(`"clip.mkv" 12345 yEnc bytes`)
	assert.True(t, ok)
	assert.Equal(t, Subject{Name: "clip.mkv", Size: 12345}, s)

	s, ok = ParseSubject(`[01/10] - "file.part01.rar" yEnc (1/50) 36570000`)
	assert.True(t, ok)
	assert.Equal(t, Subject{Name: "file.part01.rar", Size: 36570000, Part: 1, Total: 50}, s)

	s, ok = ParseSubject(`"a.bin" (3/7)`)
	assert.True(t, ok)
	assert.Equal(t, Subject{Name: "a.bin", Part: 3, Total: 7}, s)

	_, ok = ParseSubject("no quoted name here")
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleNzb), "sample.nzb")
	require.NoError(t, err)

	assert.Equal(t, "sample.nzb", m.Name)
	assert.Equal(t, map[string]string{"password": "secret"}, m.Head)
	require.Len(t, m.Files, 2)

	clip := m.Files[0]
	assert.Equal(t, "clip.mkv", clip.Name)
	assert.Equal(t, "poster@example.com", clip.Poster)
	assert.Equal(t, int64(1600000000000), clip.LastModified)
	assert.Equal(t, []string{"alt.binaries.test"}, clip.Groups)
	// subject size wins over the segment sum
	assert.Equal(t, int64(1000), clip.Size)
	require.Len(t, clip.Segments, 3)
	for i, s := range clip.Segments {
		assert.Equal(t, i+1, s.Number)
	}
	assert.Equal(t, "seg1@example", clip.Segments[0].ID)

	nfo := m.File("readme.nfo")
	require.NotNil(t, nfo)
	assert.Equal(t, int64(1600000000500), nfo.LastModified)
	assert.Equal(t, []string{"a.b.c", "a.b.d"}, nfo.Groups)
	assert.Equal(t, int64(42), nfo.Size)
	assert.Equal(t, "nfo@example", nfo.Segments[0].ID)

	assert.Equal(t, int64(1042), m.Size)
	assert.Equal(t, 4, m.Segments())
	assert.Nil(t, m.File("missing.bin"))
}

func TestParseChunked(t *testing.T) {
	whole, err := Parse(strings.NewReader(sampleNzb), "a")
	require.NoError(t, err)
	chunked, err := Parse(iotest.OneByteReader(strings.NewReader(sampleNzb)), "a")
	require.NoError(t, err)
	assert.Equal(t, whole.Files, chunked.Files)
}

func TestParseEmptyFile(t *testing.T) {
	doc := `<nzb><file poster="p" date="1" subject="not conforming"><groups/><segments/></file></nzb>`
	m, err := Parse(strings.NewReader(doc), "a")
	require.NoError(t, err)
	require.Len(t, m.Files, 1)
	assert.Equal(t, "", m.Files[0].Name)
	assert.Equal(t, int64(0), m.Files[0].Size)
	assert.Empty(t, m.Files[0].Segments)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unclosed":  `<nzb><file subject="x">`,
		"duplicate": `<nzb><file subject="x"><segments><segment bytes="1" number="1">a</segment><segment bytes="1" number="1">b</segment></segments></file></nzb>`,
		"bytes":     `<nzb><file subject="x"><segments><segment bytes="ten" number="1">a</segment></segments></file></nzb>`,
		"number":    `<nzb><file subject="x"><segments><segment bytes="1">a</segment></segments></file></nzb>`,
		"date":      `<nzb><file date="yesterday" subject="x"></file></nzb>`,
		"nan date":  `<nzb><file date="NaN" subject="x"></file></nzb>`,
		"inf date":  `<nzb><file date="+Inf" subject="x"></file></nzb>`,
		"empty":     ``,
	}
	for name, doc := range cases {
		_, err := Parse(strings.NewReader(doc), name)
		assert.Error(t, err, name)
		assert.True(t, errors.Is(err, common.ErrMalformedManifest), name)
	}
}

func TestRoundTrip(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleNzb), "sample.nzb")
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	n, err := m.WriteTo(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Contains(t, buf.String(), `<nzb xmlns="http://www.newzbin.com/DTD/2003/nzb">`)
	assert.Contains(t, buf.String(), `<segment bytes="100" number="1">seg1@example</segment>`)

	again, err := Parse(buf, "sample.nzb")
	require.NoError(t, err)
	assert.Equal(t, m.Head, again.Head)
	assert.Equal(t, m.Files, again.Files)
	assert.Equal(t, m.Size, again.Size)
}

func TestWriterNoHead(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	require.NoError(t, w.Prologue(nil))
	require.NoError(t, w.OpenFile("p", 1500, "s", []string{"g"}))
	require.NoError(t, w.Segment(Segment{ID: "a@b", Size: 5, Number: 1}))
	require.NoError(t, w.OpenFile("p", 2000, "t", nil))
	require.NoError(t, w.Close())

	out := buf.String()
	assert.NotContains(t, out, "<head>")
	assert.Equal(t, 2, strings.Count(out, "</file>"))
	assert.Contains(t, out, `date="1.5"`)
	assert.True(t, strings.HasSuffix(out, "</nzb>\n"))
}

func TestArticles(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleNzb), "sample.nzb")
	require.NoError(t, err)

	it := m.Articles()
	views := make([]*ArticleView, 0)
	for it.Next() {
		views = append(views, it.Article())
	}
	require.Len(t, views, 4)
	assert.False(t, it.Next())

	second := views[1]
	assert.Equal(t, 0, second.FileIndex)
	assert.Equal(t, 2, second.Number)
	assert.Equal(t, 3, second.Total)
	assert.Equal(t, `[1/2] - "clip.mkv" yEnc (2/3) 1000`, second.Header.Get("Subject"))
	assert.Equal(t, "<seg2@example>", second.Header.Get("Message-Id"))
	assert.Equal(t, "poster@example.com", second.Header.Get("From"))
	assert.Equal(t, "Sun, 13 Sep 2020 12:26:40 GMT", second.Header.Get("Date"))
	assert.Equal(t, "100", second.Header.Get("Bytes"))

	last := views[3]
	assert.Equal(t, 1, last.FileIndex)
	assert.Equal(t, "a.b.c,a.b.d", last.Header.Get("Newsgroups"))

	it.Reset()
	require.True(t, it.Next())
	assert.Equal(t, "<seg1@example>", it.Article().Header.Get("Message-Id"))
}

func TestSelection(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleNzb), "sample.nzb")
	require.NoError(t, err)

	assert.True(t, IsGlob("*.mkv"))
	assert.False(t, IsGlob(`.*\.mkv`))
	assert.False(t, IsGlob("readme"))

	f, err := Filter(m, "*.mkv")
	require.NoError(t, err)
	require.Len(t, f.Files, 1)
	assert.Equal(t, int64(1000), f.Size)
	assert.Equal(t, "secret", f.Head["password"])

	f, err = Filter(m, "^readme")
	require.NoError(t, err)
	require.Len(t, f.Files, 1)
	assert.Equal(t, "readme.nfo", f.Files[0].Name)

	_, err = Filter(m, "(")
	assert.Error(t, err)

	e := ExtractNames(m, []string{"readme.nfo", "nope"})
	require.Len(t, e.Files, 1)
	assert.Equal(t, int64(42), e.Size)
	assert.Len(t, m.Files, 2)

	target := ExtractNames(m, []string{"clip.mkv"})
	target.Head = map[string]string{}
	Combine(target, m)
	assert.Len(t, target.Files, 2)
	assert.Equal(t, int64(1042), target.Size)
	assert.Equal(t, "secret", target.Head["password"])
}

func TestOpenAndSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/sample.nzb", []byte(sampleNzb), 0644))

	m, err := Open(fs, "/in/sample.nzb")
	require.NoError(t, err)
	assert.Equal(t, "sample.nzb", m.Name)

	require.NoError(t, Save(fs, "/out.nzb", m))
	again, err := Open(fs, "/out.nzb")
	require.NoError(t, err)
	assert.Equal(t, m.Files, again.Files)

	_, err = Open(fs, "/nope.nzb")
	assert.Error(t, err)
}

func TestCombineSameSubject(t *testing.T) {
	target := New("a.nzb")
	target.Files = []*File{{
		Subject:  "",
		Name:     "one.bin",
		Segments: []Segment{{ID: "one@test", Size: 10, Number: 1}},
		Size:     10,
	}}
	src := New("b.nzb")
	src.Files = []*File{
		{Subject: "", Name: "two.bin", Segments: []Segment{{ID: "two@test", Size: 20, Number: 1}}, Size: 20},
		{Subject: "", Name: "one.bin", Segments: []Segment{{ID: "one@test", Size: 10, Number: 1}}, Size: 10},
	}

	Combine(target, src)
	require.Len(t, target.Files, 2)
	assert.Equal(t, "two.bin", target.Files[1].Name)
	assert.Equal(t, int64(30), target.Size)
}

func TestParseErrorCause(t *testing.T) {
	_, err := Parse(strings.NewReader(`<nzb><file subject="x">`), "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMalformedManifest))
	var syntax *xml.SyntaxError
	assert.True(t, errors.As(err, &syntax))
}

func TestMetaWithoutType(t *testing.T) {
	doc := `<nzb><head><meta>orphan</meta><meta type="title">T</meta></head></nzb>`
	m, err := Parse(strings.NewReader(doc), "a")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"title": "T"}, m.Head)

	m.Head[""] = "orphan"
	buf := &bytes.Buffer{}
	_, err = m.WriteTo(buf)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), `type=""`)
	assert.Contains(t, buf.String(), `<meta type="title">T</meta>`)
}
