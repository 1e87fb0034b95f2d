package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/goliatone/go-profile/profile"
)

// DefaultMaxHTMLBytes caps the export document buffered before conversion.
const DefaultMaxHTMLBytes int64 = 8 * 1024 * 1024

// RenderRequest is the document handed to an Engine.
type RenderRequest struct {
	HTML    []byte
	Options profile.PDFOptions
}

// Engine converts an HTML document into PDF bytes.
type Engine interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

// EngineFunc adapts a function to an Engine.
type EngineFunc func(ctx context.Context, req RenderRequest) ([]byte, error)

func (f EngineFunc) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	if f == nil {
		return nil, errors.New("pdf engine func is nil")
	}
	return f(ctx, req)
}

// Renderer is the profile.FormatRenderer for the pdf format. HTML produces the
// printable document from the page's export tree.
type Renderer struct {
	HTML         profile.FormatRenderer
	Engine       Engine
	Options      profile.PDFOptions
	MaxHTMLBytes int64
}

var _ profile.FormatRenderer = Renderer{}

func (r Renderer) Render(ctx context.Context, page profile.Page, w io.Writer) (profile.RenderStats, error) {
	if r.HTML == nil {
		return profile.RenderStats{}, profile.NewError(profile.KindValidation, "pdf renderer requires html renderer", nil)
	}
	if r.Engine == nil {
		return profile.RenderStats{}, profile.NewError(profile.KindNotImpl, "pdf renderer requires engine", nil)
	}

	buffer := newLimitedBuffer(r.MaxHTMLBytes)
	if _, err := r.HTML.Render(ctx, page, buffer); err != nil {
		return profile.RenderStats{}, err
	}

	out, err := r.Engine.Render(ctx, RenderRequest{
		HTML:    buffer.Bytes(),
		Options: MergeOptions(profile.DefaultPDFOptions(), r.Options),
	})
	if err != nil {
		return profile.RenderStats{}, err
	}

	n, err := w.Write(out)
	return profile.RenderStats{Bytes: int64(n)}, err
}

// WKHTMLTOPDFEngine pipes the document through wkhtmltopdf.
type WKHTMLTOPDFEngine struct {
	Command string
	Args    []string
	Env     []string
	Timeout time.Duration
}

func (e WKHTMLTOPDFEngine) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	cmdPath := strings.TrimSpace(e.Command)
	if cmdPath == "" {
		cmdPath = "wkhtmltopdf"
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := append(wkhtmltopdfFlags(req.Options), e.Args...)
	args = append(args, "-", "-")
	cmd := exec.CommandContext(ctx, cmdPath, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	cmd.Stdin = bytes.NewReader(req.HTML)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = "wkhtmltopdf failed"
		}
		return nil, profile.NewError(profile.KindInternal, message, err)
	}
	return stdout.Bytes(), nil
}

func wkhtmltopdfFlags(opts profile.PDFOptions) []string {
	args := []string{"--quiet", "--print-media-type", "--encoding", "utf-8"}
	if opts.PageSize != "" {
		args = append(args, "--page-size", strings.ToUpper(opts.PageSize))
	}
	if opts.Landscape != nil && *opts.Landscape {
		args = append(args, "--orientation", "Landscape")
	}
	if opts.PrintBackground != nil && !*opts.PrintBackground {
		args = append(args, "--no-background")
	}
	if opts.Scale > 0 {
		args = append(args, "--zoom", fmt.Sprintf("%g", opts.Scale))
	}
	for flag, value := range map[string]string{
		"--margin-top":    opts.MarginTop,
		"--margin-bottom": opts.MarginBottom,
		"--margin-left":   opts.MarginLeft,
		"--margin-right":  opts.MarginRight,
	} {
		if value != "" {
			args = append(args, flag, value)
		}
	}
	if opts.ExternalAssetsPolicy == profile.PDFExternalAssetsBlock {
		args = append(args, "--disable-external-links", "--disable-javascript")
	}
	return args
}

type limitedBuffer struct {
	buf     bytes.Buffer
	maxSize int64
}

func newLimitedBuffer(maxSize int64) *limitedBuffer {
	if maxSize <= 0 {
		maxSize = DefaultMaxHTMLBytes
	}
	return &limitedBuffer{maxSize: maxSize}
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if int64(b.buf.Len()+len(p)) > b.maxSize {
		return 0, profile.NewError(profile.KindValidation, "pdf renderer max html bytes exceeded", nil)
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}
