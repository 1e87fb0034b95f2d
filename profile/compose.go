package profile

// ReloadAction is the only way to dismiss the load error notification.
const ReloadAction = "reload"

// Notification is a persistent page-wide message.
type Notification struct {
	Lines  []string `json:"lines"`
	Action string   `json:"action"`
}

// PageOptions configure a composition.
type PageOptions struct {
	Width             int
	HasError          bool
	Order             OrderConfig
	Anchors           *Anchors
	InstallBannerOpen bool
	DownloadStage     DownloadStage
	Copy              CopyView
	Icons             Icons
	PWA               PWAMessages
	ErrorLines        []string
}

// PageOptionsFromConfig seeds options from a config store.
func PageOptionsFromConfig(cfg ConfigStore) PageOptions {
	return PageOptions{
		Order:      cfg.Order,
		Icons:      cfg.Icons,
		PWA:        cfg.PWA,
		ErrorLines: cfg.ErrorLines,
	}
}

// Page is the result of one composition. Interactive is nil when the load
// failed; Export is always present.
type Page struct {
	Snapshot           Snapshot
	Interactive        *Node
	Export             *Node
	Notification       *Notification
	InteractiveContext RenderContext
	ExportContext      RenderContext
	Order              []string
}

// ComposePage builds the interactive and export trees from one snapshot.
func ComposePage(snapshot Snapshot, opts PageOptions) Page {
	base := ContextOptions{
		Width:             opts.Width,
		Anchors:           opts.Anchors,
		InstallBannerOpen: opts.InstallBannerOpen,
		DownloadStage:     opts.DownloadStage,
		Copy:              opts.Copy,
		Icons:             opts.Icons,
		PWA:               opts.PWA,
	}
	interactiveOpts := base
	interactiveOpts.Mode = ModeInteractive
	exportOpts := base
	exportOpts.Mode = ModeExport
	exportOpts.InstallBannerOpen = false

	page := Page{
		Snapshot:           snapshot,
		InteractiveContext: NewRenderContext(snapshot, interactiveOpts),
		ExportContext:      NewRenderContext(snapshot, exportOpts),
		Order:              Names(OrderSections(SectionEntries(), opts.Order)),
	}
	page.Export = BuildTree(page.ExportContext, opts.Order)
	if opts.HasError {
		page.Notification = &Notification{
			Lines:  append([]string(nil), opts.ErrorLines...),
			Action: ReloadAction,
		}
		return page
	}
	page.Interactive = BuildTree(page.InteractiveContext, opts.Order)
	return page
}

// BuildTree renders the whole profile for one pass.
func BuildTree(rc RenderContext, order OrderConfig) *Node {
	bannerOpen := rc.InstallBannerOpen && !rc.IsExport()
	root := El("div").
		WithClass("profile").
		WithClassIf(rc.IsExport(), "export").
		WithClassIf(bannerOpen && !rc.IsMobile(), "add-margin-top").
		WithClassIf(bannerOpen && rc.IsMobile(), "add-margin-bottom").
		WithAttr("data-mode", string(rc.Mode))

	if !rc.IsExport() {
		root.Append(renderMenuBar(rc))
		if bannerOpen {
			root.Append(renderInstallBanner(rc))
		}
	}
	root.Append(renderHeader(rc))

	sections := El("div").WithClass("sections").WithClassIf(rc.IsExport(), "export")
	for _, s := range OrderSections(SectionEntries(), order) {
		sections.Append(s.Render(rc))
	}
	return root.Append(sections)
}

func renderHeader(rc RenderContext) *Node {
	header := rc.Snapshot.Header()
	n := El("header").WithClass("page-header")
	if !rc.IsExport() && header.ShortDesc != "" {
		n.Append(El("h3").WithClass("short-desc").WithText(header.ShortDesc))
	}
	return n.Append(El("h2").WithClass("name").Append(El("span").WithText(header.Name)))
}

func renderMenuBar(rc RenderContext) *Node {
	nav := El("nav").WithClass("menu-bar").WithClassIf(rc.IsMobile(), "mobile")
	items := []struct {
		label  string
		anchor string
	}{
		{"Home", rc.Anchors.Home},
		{"Organizations", rc.Anchors.Org},
		{"Skills", rc.Anchors.Skills},
		{"Experience", rc.Anchors.Experience},
		{"Education", rc.Anchors.Education},
		{"Contact", rc.Anchors.Contact},
	}
	for _, item := range items {
		if item.anchor == "" {
			continue
		}
		nav.Append(El("a").WithClass("menu-item").WithAttr("href", "#"+item.anchor).WithText(item.label))
	}
	return nav
}

func renderInstallBanner(rc RenderContext) *Node {
	return El("div").WithClass("install-banner").WithClassIf(rc.IsMobile(), "mobile").Append(
		El("span").WithClass("install-message").WithText(rc.PWA.Install),
		El("button").WithClass("install-yes").WithAttr("data-action", "install").WithText(rc.PWA.Yes),
		El("button").WithClass("install-no").WithAttr("data-action", "dismiss").WithText(rc.PWA.No),
	)
}
