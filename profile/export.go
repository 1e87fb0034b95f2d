package profile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Format is an export output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

// NormalizeFormat coerces format values into known aliases, defaulting to PDF.
func NormalizeFormat(format Format) Format {
	normalized := strings.ToLower(strings.TrimSpace(string(format)))
	switch normalized {
	case "", string(FormatPDF):
		return FormatPDF
	case "excel", "xls":
		return FormatXLSX
	case "htm", "template":
		return FormatHTML
	default:
		return Format(normalized)
	}
}

// ContentType returns the MIME type for a format.
func ContentType(format Format) string {
	switch format {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// PDFExternalAssetsPolicy controls how external assets are handled in PDF rendering.
type PDFExternalAssetsPolicy string

const (
	PDFExternalAssetsUnspecified PDFExternalAssetsPolicy = ""
	PDFExternalAssetsAllow       PDFExternalAssetsPolicy = "allow"
	PDFExternalAssetsBlock       PDFExternalAssetsPolicy = "block"
)

// PDFOptions configures PDF output for headless engines.
type PDFOptions struct {
	PageSize             string
	Landscape            *bool
	PrintBackground      *bool
	Scale                float64
	MarginTop            string
	MarginBottom         string
	MarginLeft           string
	MarginRight          string
	PreferCSSPageSize    *bool
	BaseURL              string
	ExternalAssetsPolicy PDFExternalAssetsPolicy
}

// DefaultPDFOptions is the print layout of the export document.
func DefaultPDFOptions() PDFOptions {
	background := true
	return PDFOptions{
		PageSize:        "A4",
		PrintBackground: &background,
		Scale:           0.65,
		MarginTop:       "20mm",
		MarginBottom:    "25mm",
		MarginLeft:      "10mm",
		MarginRight:     "10mm",
	}
}

// RenderStats captures output size.
type RenderStats struct {
	Bytes int64
}

// FormatRenderer writes a composed page in one format.
type FormatRenderer interface {
	Render(ctx context.Context, page Page, w io.Writer) (RenderStats, error)
}

// FormatRendererFunc adapts a function into a FormatRenderer.
type FormatRendererFunc func(ctx context.Context, page Page, w io.Writer) (RenderStats, error)

// Render implements FormatRenderer.
func (fn FormatRendererFunc) Render(ctx context.Context, page Page, w io.Writer) (RenderStats, error) {
	return fn(ctx, page, w)
}

// ArtifactMeta describes a stored artifact.
type ArtifactMeta struct {
	ContentType string
	Size        int64
	Filename    string
	CreatedAt   time.Time
}

// ArtifactRef references a stored artifact.
type ArtifactRef struct {
	Key  string
	Meta ArtifactMeta
}

// ArtifactStore stores export artifacts.
type ArtifactStore interface {
	Put(ctx context.Context, key string, r io.Reader, meta ArtifactMeta) (ArtifactRef, error)
	Open(ctx context.Context, key string) (io.ReadCloser, ArtifactMeta, error)
	Delete(ctx context.Context, key string) error
}

// ExportRequest selects the output.
type ExportRequest struct {
	Format Format
}

// ExportResult is a finished export.
type ExportResult struct {
	ID       string
	Ref      ArtifactRef
	Filename string
	Format   Format
	Data     []byte
}

// Exporter turns the export tree into a downloadable document.
type Exporter struct {
	Renderers        map[Format]FormatRenderer
	Store            ArtifactStore
	FilenameTemplate string
	Logger           Logger
	Now              func() time.Time
	IDGenerator      func() string

	mu sync.RWMutex
}

// NewExporter creates an exporter with no renderers registered.
func NewExporter(store ArtifactStore) *Exporter {
	return &Exporter{
		Renderers:   make(map[Format]FormatRenderer),
		Store:       store,
		Logger:      NopLogger{},
		Now:         time.Now,
		IDGenerator: uuid.NewString,
	}
}

// Register adds a renderer for a format.
func (e *Exporter) Register(format Format, renderer FormatRenderer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Renderers == nil {
		e.Renderers = make(map[Format]FormatRenderer)
	}
	e.Renderers[NormalizeFormat(format)] = renderer
}

// Formats lists the registered formats.
func (e *Exporter) Formats() []Format {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Format, 0, len(e.Renderers))
	for _, f := range []Format{FormatPDF, FormatXLSX, FormatHTML} {
		if _, ok := e.Renderers[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Export renders the page export tree, stores the artifact and calls done
// exactly once with the outcome.
func (e *Exporter) Export(ctx context.Context, page Page, req ExportRequest, done func(error)) (result ExportResult, err error) {
	defer func() {
		if done != nil {
			done(err)
		}
	}()
	if e == nil {
		return ExportResult{}, NewError(KindInternal, "exporter is nil", nil)
	}
	if page.Export == nil {
		return ExportResult{}, NewError(KindValidation, "export tree is required", nil)
	}

	format := NormalizeFormat(req.Format)
	e.mu.RLock()
	renderer := e.Renderers[format]
	e.mu.RUnlock()
	if renderer == nil {
		return ExportResult{}, NewError(KindNotImpl, fmt.Sprintf("format %s not supported", format), nil)
	}

	filename, err := renderFilename(e.FilenameTemplate, page.Snapshot.Header(), format)
	if err != nil {
		return ExportResult{}, NewError(KindValidation, "render filename", err)
	}

	var buf bytes.Buffer
	if _, err := renderer.Render(ctx, page, &buf); err != nil {
		loggerOrNop(e.Logger).Errorf("export %s failed: %v", format, err)
		return ExportResult{}, err
	}

	meta := ArtifactMeta{
		ContentType: ContentType(format),
		Size:        int64(buf.Len()),
		Filename:    filename,
		CreatedAt:   e.now(),
	}
	id := e.nextID()
	result = ExportResult{
		ID:       id,
		Ref:      ArtifactRef{Meta: meta},
		Filename: filename,
		Format:   format,
		Data:     buf.Bytes(),
	}
	if e.Store != nil {
		key := id + "/" + filename
		ref, err := e.Store.Put(ctx, key, bytes.NewReader(result.Data), meta)
		if err != nil {
			return ExportResult{}, NewError(KindInternal, "store export artifact", err)
		}
		result.Ref = ref
	}
	loggerOrNop(e.Logger).Infof("exported %s (%d bytes)", filename, meta.Size)
	return result, nil
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Exporter) nextID() string {
	if e.IDGenerator != nil {
		return e.IDGenerator()
	}
	return uuid.NewString()
}
