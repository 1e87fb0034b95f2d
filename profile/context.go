package profile

// RenderMode distinguishes the two render passes.
type RenderMode string

const (
	ModeInteractive RenderMode = "interactive"
	ModeExport      RenderMode = "export"
)

// MobileBreakpoint is the viewport width below which a device is mobile.
const MobileBreakpoint = 768

// Device is the viewport classification, fixed at context creation.
type Device struct {
	Width    int  `json:"width"`
	IsMobile bool `json:"isMobile"`
}

// ClassifyDevice derives the device class from a viewport width. A
// non-positive width is treated as desktop.
func ClassifyDevice(width int) Device {
	return Device{Width: width, IsMobile: width > 0 && width < MobileBreakpoint}
}

// Anchors are the element ids used for in-page navigation.
type Anchors struct {
	Home       string
	Skills     string
	Experience string
	Education  string
	Contact    string
	Org        string
}

// DefaultAnchors returns the standard anchor ids.
func DefaultAnchors() Anchors {
	return Anchors{
		Home:       "home",
		Skills:     "skills",
		Experience: "experience",
		Education:  "education",
		Contact:    "contact",
		Org:        "org",
	}
}

// ForRef resolves a section ref to an anchor id.
func (a Anchors) ForRef(ref string) string {
	switch ref {
	case "home", "homeRef":
		return a.Home
	case "skills", "skillsRef":
		return a.Skills
	case "experience", "experienceRef":
		return a.Experience
	case "education", "educationRef":
		return a.Education
	case "contact", "contactRef":
		return a.Contact
	case "org", "orgRef":
		return a.Org
	default:
		return ""
	}
}

// RenderContext is the read-only input of one render pass.
type RenderContext struct {
	Snapshot          Snapshot
	Device            Device
	Mode              RenderMode
	Anchors           Anchors
	InstallBannerOpen bool
	Downloading       bool
	DownloadStage     DownloadStage
	Copy              CopyView
	Icons             Icons
	PWA               PWAMessages
}

// ContextOptions configure a render context.
type ContextOptions struct {
	Width             int
	Mode              RenderMode
	Anchors           *Anchors
	InstallBannerOpen bool
	DownloadStage     DownloadStage
	Copy              CopyView
	Icons             Icons
	PWA               PWAMessages
}

// NewRenderContext builds a context for one pass. The device class is
// computed here and not re-evaluated.
func NewRenderContext(snapshot Snapshot, opts ContextOptions) RenderContext {
	mode := opts.Mode
	if mode == "" {
		mode = ModeInteractive
	}
	anchors := DefaultAnchors()
	if opts.Anchors != nil {
		anchors = *opts.Anchors
	}
	stage := opts.DownloadStage
	if stage == "" {
		stage = StageDownload
	}
	return RenderContext{
		Snapshot:          snapshot,
		Device:            ClassifyDevice(opts.Width),
		Mode:              mode,
		Anchors:           anchors,
		InstallBannerOpen: opts.InstallBannerOpen,
		Downloading:       stage == StageDownloading,
		DownloadStage:     stage,
		Copy:              opts.Copy,
		Icons:             opts.Icons,
		PWA:               opts.PWA,
	}
}

// IsExport reports whether this is the export pass.
func (rc RenderContext) IsExport() bool { return rc.Mode == ModeExport }

// IsMobile reports the fixed device class.
func (rc RenderContext) IsMobile() bool { return rc.Device.IsMobile }

// Icon picks the icon variant for the pass.
func (rc RenderContext) Icon(icon, pdfExportIcon string) string {
	return IconPair{Icon: icon, PDFExportIcon: pdfExportIcon}.Pick(rc.Mode)
}
