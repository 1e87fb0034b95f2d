package template

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	"io"
	"time"

	"github.com/goliatone/go-profile/profile"
)

const (
	// TemplatePage is the interactive site shell.
	TemplatePage = "page"
	// TemplateExport is the printable document shell.
	TemplateExport = "export"
)

// Renderer renders one of a page's trees inside a document template. It is
// the html format renderer for exports and the page renderer for the site.
type Renderer struct {
	Templates    TemplateExecutor
	TemplateName string
	Mode         profile.RenderMode
	Title        string
	Styles       string
	Now          func() time.Time
}

var _ profile.FormatRenderer = Renderer{}

// TemplateData is the root value passed to templates.
type TemplateData struct {
	Title              string
	Name               string
	ShortDesc          string
	Mode               string
	Body               htmltemplate.HTML
	Styles             htmltemplate.CSS
	Order              []string
	Generated          string
	HasNotification    bool
	NotificationLines  []string
	NotificationAction string
	Snapshot           profile.Snapshot
}

// NewRenderer returns a Renderer over the embedded templates.
func NewRenderer(mode profile.RenderMode) (Renderer, error) {
	exec, err := DefaultExecutor()
	if err != nil {
		return Renderer{}, err
	}
	return Renderer{Templates: exec, Mode: mode, Styles: Styles()}, nil
}

func (r Renderer) Render(ctx context.Context, page profile.Page, w io.Writer) (profile.RenderStats, error) {
	if r.Templates == nil {
		return profile.RenderStats{}, profile.NewError(profile.KindValidation, "template renderer requires templates", nil)
	}
	if err := ctx.Err(); err != nil {
		return profile.RenderStats{}, err
	}

	data, err := r.data(page)
	if err != nil {
		return profile.RenderStats{}, err
	}

	cw := &countingWriter{w: w}
	if err := r.Templates.ExecuteTemplate(cw, r.templateName(), data); err != nil {
		return profile.RenderStats{Bytes: cw.count}, err
	}
	return profile.RenderStats{Bytes: cw.count}, nil
}

func (r Renderer) mode() profile.RenderMode {
	if r.Mode == "" {
		return profile.ModeExport
	}
	return r.Mode
}

func (r Renderer) templateName() string {
	if r.TemplateName != "" {
		return r.TemplateName
	}
	if r.mode() == profile.ModeInteractive {
		return TemplatePage
	}
	return TemplateExport
}

func (r Renderer) data(page profile.Page) (TemplateData, error) {
	header := page.Snapshot.Header()
	data := TemplateData{
		Title:     r.Title,
		Name:      header.Name,
		ShortDesc: header.ShortDesc,
		Mode:      string(r.mode()),
		Styles:    htmltemplate.CSS(r.Styles),
		Order:     page.Order,
		Generated: r.now().UTC().Format(time.RFC3339),
		Snapshot:  page.Snapshot,
	}
	if data.Title == "" {
		data.Title = header.Name
	}

	tree := page.Export
	if r.mode() == profile.ModeInteractive {
		tree = page.Interactive
		if page.Notification != nil {
			data.HasNotification = true
			data.NotificationLines = page.Notification.Lines
			data.NotificationAction = page.Notification.Action
		}
	} else if tree == nil {
		return data, profile.NewError(profile.KindValidation, "page has no export tree", nil)
	}

	if tree != nil {
		var body bytes.Buffer
		if err := tree.WriteHTML(&body); err != nil {
			return data, err
		}
		data.Body = htmltemplate.HTML(body.String())
	}
	return data, nil
}

func (r Renderer) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}
