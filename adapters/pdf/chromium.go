package pdf

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/goliatone/go-profile/profile"
)

var lengthPattern = regexp.MustCompile(`^\s*([0-9]+(?:\.[0-9]+)?)\s*([a-zA-Z]*)\s*$`)

type paperSize struct {
	width  float64
	height float64
}

var paperSizesInches = map[string]paperSize{
	"A3":     {width: 11.69, height: 16.54},
	"A4":     {width: 8.27, height: 11.69},
	"A5":     {width: 5.83, height: 8.27},
	"LETTER": {width: 8.5, height: 11},
	"LEGAL":  {width: 8.5, height: 14},
}

var inchesPerUnit = map[string]float64{
	"in": 1,
	"cm": 1 / 2.54,
	"mm": 1 / 25.4,
	"pt": 1 / 72.0,
	"px": 1 / 96.0,
}

// ChromiumEngine prints documents with a shared headless Chromium. The browser
// starts on first use and lives until Close.
type ChromiumEngine struct {
	BrowserPath string
	Headless    bool
	Timeout     time.Duration
	Args        []string

	DefaultPDF profile.PDFOptions

	initOnce      sync.Once
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// Render prints req.HTML to PDF in a fresh tab.
func (e *ChromiumEngine) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	if e == nil {
		return nil, profile.NewError(profile.KindInternal, "chromium engine is nil", nil)
	}
	if err := e.ensureBrowser(); err != nil {
		return nil, profile.NewError(profile.KindInternal, "chromium engine init failed", err)
	}

	options := MergeOptions(e.defaults(), req.Options)
	params, err := printParams(options)
	if err != nil {
		return nil, err
	}

	runCtx, release := e.tabContext(ctx)
	defer release()

	var out []byte
	if err := chromedp.Run(runCtx, e.printActions(options, injectBaseURL(req.HTML, options.BaseURL), params, &out)...); err != nil {
		return nil, profile.NewError(profile.KindInternal, "chromium pdf render failed", err)
	}
	return out, nil
}

// tabContext opens a tab bound to the browser but cancelled with ctx or the
// engine timeout, whichever ends first.
func (e *ChromiumEngine) tabContext(ctx context.Context) (context.Context, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	tabCtx, closeTab := chromedp.NewContext(e.browserCtx)
	runCtx, cancel := context.WithCancel(tabCtx)
	stop := context.AfterFunc(ctx, cancel)

	releaseTimeout := func() {}
	if e.Timeout > 0 {
		runCtx, releaseTimeout = context.WithTimeout(runCtx, e.Timeout)
	}
	return runCtx, func() {
		releaseTimeout()
		stop()
		cancel()
		closeTab()
	}
}

func (e *ChromiumEngine) printActions(options profile.PDFOptions, document []byte, params *page.PrintToPDFParams, out *[]byte) []chromedp.Action {
	var actions []chromedp.Action
	if options.ExternalAssetsPolicy == profile.PDFExternalAssetsBlock {
		actions = append(actions,
			network.Enable(),
			network.SetBlockedURLs([]string{"http://*", "https://*"}),
		)
	}
	return append(actions,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(document)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := params.Do(ctx)
			*out = data
			return err
		}),
	)
}

// Close releases the browser.
func (e *ChromiumEngine) Close() error {
	if e == nil {
		return nil
	}
	if e.browserCancel != nil {
		e.browserCancel()
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
	return nil
}

func (e *ChromiumEngine) ensureBrowser() error {
	e.initOnce.Do(func() {
		opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		if e.BrowserPath != "" {
			opts = append(opts, chromedp.ExecPath(e.BrowserPath))
		}
		opts = append(opts, chromedp.Flag("headless", e.Headless))
		opts = append(opts, allocatorFlags(e.Args)...)

		e.allocCtx, e.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
		e.browserCtx, e.browserCancel = chromedp.NewContext(e.allocCtx)
	})
	if e.allocCtx == nil || e.browserCtx == nil {
		return errors.New("chromium allocator unavailable")
	}
	return nil
}

func (e *ChromiumEngine) defaults() profile.PDFOptions {
	return MergeOptions(profile.DefaultPDFOptions(), e.DefaultPDF)
}

// MergeOptions overlays the set fields of override on base.
func MergeOptions(base, override profile.PDFOptions) profile.PDFOptions {
	merged := base
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setBool := func(dst **bool, v *bool) {
		if v != nil {
			*dst = v
		}
	}
	setString(&merged.PageSize, override.PageSize)
	setString(&merged.MarginTop, override.MarginTop)
	setString(&merged.MarginBottom, override.MarginBottom)
	setString(&merged.MarginLeft, override.MarginLeft)
	setString(&merged.MarginRight, override.MarginRight)
	setString(&merged.BaseURL, override.BaseURL)
	setBool(&merged.Landscape, override.Landscape)
	setBool(&merged.PrintBackground, override.PrintBackground)
	setBool(&merged.PreferCSSPageSize, override.PreferCSSPageSize)
	if override.Scale != 0 {
		merged.Scale = override.Scale
	}
	if override.ExternalAssetsPolicy != "" {
		merged.ExternalAssetsPolicy = override.ExternalAssetsPolicy
	}
	return merged
}

func printParams(opts profile.PDFOptions) (*page.PrintToPDFParams, error) {
	params := page.PrintToPDF()

	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	if scale < 0.1 || scale > 2.0 {
		return nil, profile.NewError(profile.KindValidation, "pdf scale must be between 0.1 and 2.0", nil)
	}
	params = params.WithScale(scale)

	if opts.Landscape != nil {
		params = params.WithLandscape(*opts.Landscape)
	}
	if opts.PrintBackground != nil {
		params = params.WithPrintBackground(*opts.PrintBackground)
	}
	if (opts.PreferCSSPageSize != nil && *opts.PreferCSSPageSize) || (opts.PreferCSSPageSize == nil && opts.PageSize == "") {
		params = params.WithPreferCSSPageSize(true)
	}
	if opts.PageSize != "" {
		size, ok := paperSizesInches[strings.ToUpper(opts.PageSize)]
		if !ok {
			return nil, profile.NewError(profile.KindValidation, fmt.Sprintf("unsupported pdf page size: %s", opts.PageSize), nil)
		}
		params = params.WithPaperWidth(size.width).WithPaperHeight(size.height)
	}

	margins := []struct {
		value string
		apply func(float64)
	}{
		{opts.MarginTop, func(v float64) { params = params.WithMarginTop(v) }},
		{opts.MarginBottom, func(v float64) { params = params.WithMarginBottom(v) }},
		{opts.MarginLeft, func(v float64) { params = params.WithMarginLeft(v) }},
		{opts.MarginRight, func(v float64) { params = params.WithMarginRight(v) }},
	}
	for _, m := range margins {
		if m.value == "" {
			continue
		}
		inches, err := parseLengthInches(m.value)
		if err != nil {
			return nil, err
		}
		m.apply(inches)
	}
	return params, nil
}

// parseLengthInches converts a CSS-style length into inches. A bare number is
// already in inches.
func parseLengthInches(value string) (float64, error) {
	matches := lengthPattern.FindStringSubmatch(value)
	if len(matches) != 3 {
		return 0, profile.NewError(profile.KindValidation, fmt.Sprintf("invalid pdf length: %s", value), nil)
	}
	amount, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, profile.NewError(profile.KindValidation, fmt.Sprintf("invalid pdf length: %s", value), err)
	}
	unit := strings.ToLower(matches[2])
	if unit == "" {
		unit = "in"
	}
	factor, ok := inchesPerUnit[unit]
	if !ok {
		return 0, profile.NewError(profile.KindValidation, fmt.Sprintf("unsupported pdf length unit: %s", unit), nil)
	}
	return amount * factor, nil
}

func injectBaseURL(document []byte, baseURL string) []byte {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return document
	}
	lower := strings.ToLower(string(document))
	if strings.Contains(lower, "<base") {
		return document
	}

	tag := fmt.Sprintf(`<base href="%s">`, html.EscapeString(baseURL))
	if pos := afterOpenTag(lower, "<head"); pos >= 0 {
		return splice(document, pos, tag)
	}
	if pos := afterOpenTag(lower, "<html"); pos >= 0 {
		return splice(document, pos, "<head>"+tag+"</head>")
	}
	return append([]byte(tag), document...)
}

func afterOpenTag(lower, open string) int {
	start := strings.Index(lower, open)
	if start < 0 {
		return -1
	}
	end := strings.Index(lower[start:], ">")
	if end < 0 {
		return -1
	}
	return start + end + 1
}

func splice(document []byte, pos int, insert string) []byte {
	out := make([]byte, 0, len(document)+len(insert))
	out = append(out, document[:pos]...)
	out = append(out, insert...)
	return append(out, document[pos:]...)
}

func allocatorFlags(args []string) []chromedp.ExecAllocatorOption {
	flags := make([]chromedp.ExecAllocatorOption, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimPrefix(strings.TrimSpace(arg), "--")
		if arg == "" {
			continue
		}
		if name, value, ok := strings.Cut(arg, "="); ok {
			flags = append(flags, chromedp.Flag(name, value))
			continue
		}
		flags = append(flags, chromedp.Flag(arg, true))
	}
	return flags
}

func boolPtr(value bool) *bool {
	return &value
}
