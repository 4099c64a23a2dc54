package pipeline_mirror

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/t2bot/nzbkit/manifest"
)

var placeholderRegex = regexp.MustCompile(`\{([^{}]*)\}`)
var randRegex = regexp.MustCompile(`\$\{rand\((\d*)\)\}`)

// TemplateVars is everything a subject or message-id template can refer to.
type TemplateVars struct {
	FileNum   int
	Files     int
	FileName  string
	FileSize  int64
	Part      int
	Parts     int
	Size      int64
	Comment   string
	Comment2  string
	Timestamp int64 // seconds
}

func varsFor(m *manifest.Manifest, v *manifest.ArticleView, opts Options) TemplateVars {
	return TemplateVars{
		FileNum:   v.FileIndex + 1,
		Files:     len(m.Files),
		FileName:  v.File.Name,
		FileSize:  v.File.Size,
		Part:      v.Number,
		Parts:     v.Total,
		Size:      v.Segment.Size,
		Comment:   opts.Comment,
		Comment2:  opts.Comment2,
		Timestamp: v.File.LastModified / 1000,
	}
}

func pad(n int, width int) string {
	return fmt.Sprintf("%0*d", len(strconv.Itoa(width)), n)
}

func scaled(size int64, steps int) string {
	f := float64(size)
	for i := 0; i < steps; i++ {
		f /= 1000
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func (t TemplateVars) lookup(name string) string {
	switch name {
	case "filenum":
		return strconv.Itoa(t.FileNum)
	case "0filenum":
		return pad(t.FileNum, t.Files)
	case "files":
		return strconv.Itoa(t.Files)
	case "filename":
		return t.FileName
	case "fnamebase":
		return strings.TrimSuffix(t.FileName, filepath.Ext(t.FileName))
	case "filesize":
		return strconv.FormatInt(t.FileSize, 10)
	case "fileksize":
		return scaled(t.FileSize, 1)
	case "filemsize":
		return scaled(t.FileSize, 2)
	case "filegsize":
		return scaled(t.FileSize, 3)
	case "filetsize":
		return scaled(t.FileSize, 4)
	case "fileasize":
		return humanize.Bytes(uint64(t.FileSize))
	case "part":
		return strconv.Itoa(t.Part)
	case "0part":
		return pad(t.Part, t.Parts)
	case "parts":
		return strconv.Itoa(t.Parts)
	case "size":
		return strconv.FormatInt(t.Size, 10)
	case "comment":
		return t.Comment
	case "comment2":
		return t.Comment2
	case "timestamp":
		return strconv.FormatInt(t.Timestamp, 10)
	}
	return ""
}

// Expand fills the {name} placeholders of template and replaces every
// ${rand(N)} with N random hex characters (40 when N is 0 or empty).
func Expand(template string, vars TemplateVars) string {
	out := randRegex.ReplaceAllStringFunc(template, func(m string) string {
		n, _ := strconv.Atoi(randRegex.FindStringSubmatch(m)[1])
		return randomHex(n)
	})
	return placeholderRegex.ReplaceAllStringFunc(out, func(m string) string {
		return vars.lookup(m[1 : len(m)-1])
	})
}

func randomHex(n int) string {
	if n <= 0 {
		n = 40
	}
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)[:n]
}
