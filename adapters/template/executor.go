package template

import (
	"embed"
	"encoding/json"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/goliatone/go-profile/profile"
)

//go:embed templates/*.html templates/*.css
var embedded embed.FS

// TemplateExecutor executes a named template with data.
type TemplateExecutor interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

// PongoExecutor holds compiled pongo2 templates keyed by file name without
// extension. Templates see their data as "page".
type PongoExecutor struct {
	templates map[string]*pongo2.Template
}

var _ TemplateExecutor = (*PongoExecutor)(nil)

var registerFilters sync.Once

// NewPongoExecutor compiles every *.html file at the root of fsys.
func NewPongoExecutor(fsys fs.FS) (*PongoExecutor, error) {
	registerFilters.Do(registerToJSON)

	files, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, err
	}
	exec := &PongoExecutor{templates: make(map[string]*pongo2.Template, len(files))}
	for _, file := range files {
		src, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		tpl, err := pongo2.FromString(string(src))
		if err != nil {
			return nil, profile.NewError(profile.KindValidation, "template "+file+" failed to compile", err)
		}
		exec.templates[strings.TrimSuffix(file, path.Ext(file))] = tpl
	}
	return exec, nil
}

// DefaultExecutor compiles the embedded page and export templates.
func DefaultExecutor() (*PongoExecutor, error) {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}
	return NewPongoExecutor(sub)
}

func (e *PongoExecutor) ExecuteTemplate(w io.Writer, name string, data any) error {
	if e == nil {
		return profile.NewError(profile.KindValidation, "pongo executor is nil", nil)
	}
	tpl, ok := e.templates[name]
	if !ok {
		return profile.NewError(profile.KindNotFound, "template not found: "+name, nil)
	}
	return tpl.ExecuteWriter(pongo2.Context{"page": data}, w)
}

// Names lists the compiled templates.
func (e *PongoExecutor) Names() []string {
	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	return names
}

// Styles returns the embedded stylesheet.
func Styles() string {
	data, err := embedded.ReadFile("templates/styles.css")
	if err != nil {
		return ""
	}
	return string(data)
}

func registerToJSON() {
	err := pongo2.RegisterFilter("to_json", func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		payload, err := json.Marshal(in.Interface())
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:to_json", OrigError: err}
		}
		return pongo2.AsSafeValue(string(payload)), nil
	})
	if err != nil && !strings.Contains(err.Error(), "already") {
		panic(err)
	}
}
