package site

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/t2bot/nzbkit/api/_responses"
	"github.com/t2bot/nzbkit/common/rcontext"
	"github.com/t2bot/nzbkit/manifest"
	"github.com/t2bot/nzbkit/templating"
)

var nzbExtRegex = regexp.MustCompile(`(?i)\.nzb(\.gz)?$`)

func (s *Site) Index(r *http.Request, rctx rcontext.RequestContext) interface{} {
	m := s.Manifest()

	tmpl, err := templating.GetTemplate(s.Template)
	if err != nil {
		rctx.Log.Error("Error getting template: ", err)
		return _responses.InternalServerError("Unable to load template")
	}

	base := strings.TrimSuffix(r.URL.Path, "/")
	model := &templating.IndexModel{
		Base:           base,
		Name:           nzbExtRegex.ReplaceAllString(m.Name, ""),
		SizeBytes:      m.Size,
		SizeBytesHuman: humanize.Bytes(uint64(m.Size)),
		Files:          make([]*templating.IndexFileModel, 0, len(m.Files)),
	}
	for _, f := range m.Files {
		model.Files = append(model.Files, &templating.IndexFileModel{
			Name:              f.Name,
			Href:              base + "/" + url.PathEscape(f.Name),
			SizeBytes:         f.Size,
			SizeBytesHuman:    humanize.Bytes(uint64(f.Size)),
			Poster:            f.Poster,
			Segments:          len(f.Segments),
			LastModified:      f.LastModified,
			LastModifiedHuman: f.Date().Format(http.TimeFormat),
		})
	}

	html := bytes.Buffer{}
	if err = tmpl.Execute(&html, model); err != nil {
		rctx.Log.Error("Error executing template: ", err)
		return _responses.InternalServerError("Unable to render template")
	}
	return &_responses.HtmlResponse{HTML: html.String()}
}

// Action handles form posts to the index. "extract" is the only action.
func (s *Site) Action(r *http.Request, rctx rcontext.RequestContext) interface{} {
	action := r.URL.Query().Get("action")
	if action != "extract" {
		return _responses.BadRequest("Unsupported action")
	}
	if err := r.ParseForm(); err != nil {
		return _responses.BadRequest("Unable to parse form")
	}
	names := r.PostForm["files"]
	if len(names) == 0 {
		return _responses.BadRequest("No files selected")
	}

	m := manifest.ExtractNames(s.Manifest(), names)
	rctx.Log.WithField("files", len(m.Files)).Info("Extracting files")

	return &_responses.DoNotCacheResponse{
		Payload: &_responses.DownloadResponse{
			ContentType:       "application/x-nzb",
			Filename:          "partial-" + m.Name,
			TargetDisposition: "attachment",
			SizeBytes:         -1,
			Write: func(w io.Writer) error {
				_, err := m.WriteTo(w)
				return err
			},
		},
	}
}
