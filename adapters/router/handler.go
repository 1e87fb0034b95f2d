package profilerouter

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/goliatone/go-profile/profile"
	"github.com/goliatone/go-profile/service"
	"github.com/goliatone/go-router"
)

const (
	DefaultAPIPath    = "/api"
	DefaultCookieName = "profile_session"
	SessionHeader     = "X-Profile-Session"
)

// Config configures the go-router adapter.
type Config struct {
	Service    *service.Service
	Page       profile.FormatRenderer
	Preview    profile.FormatRenderer
	APIPath    string
	CookieName string
	Logger     profile.Logger
}

// Handler exposes the profile routes for go-router.
type Handler struct {
	cfg Config
}

// NewHandler creates a go-router handler.
func NewHandler(cfg Config) *Handler {
	if cfg.APIPath == "" {
		cfg.APIPath = DefaultAPIPath
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.Logger == nil {
		cfg.Logger = profile.NopLogger{}
	}
	return &Handler{cfg: cfg}
}

// RegisterRoutes registers routes on a compatible go-router router.
func (h *Handler) RegisterRoutes(router any) {
	r, ok := router.(routeRegistrar)
	if !ok {
		return
	}
	api := h.cfg.APIPath

	r.Get("/", h.Home)
	r.Get("/export", h.Preview)
	r.Get("/healthz", h.Health)

	r.Get(api+"/profile", h.Profile)
	r.Post(api+"/export", h.Export)
	r.Get(api+"/exports", h.History)
	r.Get(api+"/exports/:id", h.Download)

	r.Get(api+"/copy", h.CopyState)
	r.Post(api+"/copy/:label/enter", h.CopyEnter)
	r.Post(api+"/copy/:label/copy", h.CopyField)
	r.Post(api+"/copy/:label/leave", h.CopyLeave)

	r.Get(api+"/banner", h.Banner)
	r.Post(api+"/banner/install", h.Install)
	r.Post(api+"/banner/dismiss", h.Dismiss)
}

// Home renders the interactive page.
func (h *Handler) Home(c router.Context) error {
	return h.renderPage(c, h.cfg.Page)
}

// Preview renders the printable document in the browser.
func (h *Handler) Preview(c router.Context) error {
	return h.renderPage(c, h.cfg.Preview)
}

func (h *Handler) renderPage(c router.Context, renderer profile.FormatRenderer) error {
	svc, err := h.service()
	if err != nil {
		return writeError(c, err)
	}
	if renderer == nil {
		return writeError(c, profile.NewError(profile.KindNotImpl, "page renderer not configured", nil))
	}

	page, sess, err := svc.Page(c.Context(), sessionID(c, h.cfg.CookieName), c.QueryInt("width", 0))
	if err != nil {
		return writeError(c, err)
	}
	h.bindSession(c, sess)

	var buf bytes.Buffer
	if _, err := renderer.Render(c.Context(), page, &buf); err != nil {
		h.cfg.Logger.Errorf("render page: %v", err)
		return writeError(c, err)
	}
	c.SetHeader("Content-Type", "text/html; charset=utf-8")
	return c.Status(http.StatusOK).Send(buf.Bytes())
}

// Health reports whether the profile finished loading.
func (h *Handler) Health(c router.Context) error {
	svc, err := h.service()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		State:    string(svc.Aggregator.State()),
		HasError: svc.Aggregator.HasError(),
	})
}

// Profile returns the loaded snapshot.
func (h *Handler) Profile(c router.Context) error {
	svc, err := h.service()
	if err != nil {
		return writeError(c, err)
	}
	res, err := svc.Snapshot(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	order := profile.Names(profile.OrderSections(profile.SectionEntries(), svc.Config().Order))
	return c.JSON(http.StatusOK, ProfileResponse{
		Snapshot: res.Snapshot,
		HasError: res.HasError,
		Failed:   res.Failed,
		Order:    order,
		Formats:  svc.Formats(),
	})
}

// Export renders the export document and returns it as an attachment.
func (h *Handler) Export(c router.Context) error {
	svc, err := h.service()
	if err != nil {
		return writeError(c, err)
	}
	sess, err := svc.Session(c.Context(), sessionID(c, h.cfg.CookieName), c.QueryInt("width", 0))
	if err != nil {
		return writeError(c, err)
	}
	h.bindSession(c, sess)

	format := profile.Format(c.Query("format", string(profile.FormatPDF)))
	result, err := svc.Export(c.Context(), sess.ID, format)
	if err != nil {
		return writeError(c, err)
	}
	return sendArtifact(c, result, "attachment")
}

// History lists recent exports.
func (h *Handler) History(c router.Context) error {
	svc, err := h.service()
	if err != nil {
		return writeError(c, err)
	}
	records, err := svc.Exports(c.Context(), c.QueryInt("limit", service.DefaultHistoryLimit))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, HistoryResponse{Exports: records})
}

// Download serves a recent export by id.
func (h *Handler) Download(c router.Context) error {
	svc, err := h.service()
	if err != nil {
		return writeError(c, err)
	}
	result, err := svc.ExportResult(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendArtifact(c, result, "attachment")
}

// CopyState returns the visitor copy state.
func (h *Handler) CopyState(c router.Context) error {
	svc, err := h.service()
	if err != nil {
		return writeError(c, err)
	}
	sess, err := h.session(c, svc)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Copy.View())
}

// CopyEnter marks a detail hovered.
func (h *Handler) CopyEnter(c router.Context) error {
	return h.copyEvent(c, (*service.Service).CopyEnter)
}

// CopyField copies a detail.
func (h *Handler) CopyField(c router.Context) error {
	return h.copyEvent(c, (*service.Service).CopyField)
}

// CopyLeave resets the copy state.
func (h *Handler) CopyLeave(c router.Context) error {
	return h.copyEvent(c, (*service.Service).CopyLeave)
}

type copyOp func(svc *service.Service, ctx context.Context, sessionID, label string) (profile.CopyView, error)

func (h *Handler) copyEvent(c router.Context, op copyOp) error {
	svc, err := h.service()
	if err != nil {
		return writeError(c, err)
	}
	sess, err := h.session(c, svc)
	if err != nil {
		return writeError(c, err)
	}
	label := c.Param("label")
	if label == "" {
		return writeError(c, profile.NewError(profile.KindValidation, "copy label is required", nil))
	}
	view, err := op(svc, c.Context(), sess.ID, label)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Banner returns the install banner status.
func (h *Handler) Banner(c router.Context) error {
	svc, err := h.service()
	if err != nil {
		return writeError(c, err)
	}
	sess, err := h.session(c, svc)
	if err != nil {
		return writeError(c, err)
	}
	status, err := svc.BannerStatus(c.Context(), sess.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// Install records the outcome of the install prompt.
func (h *Handler) Install(c router.Context) error {
	svc, err := h.service()
	if err != nil {
		return writeError(c, err)
	}
	sess, err := h.session(c, svc)
	if err != nil {
		return writeError(c, err)
	}
	status, accepted, err := svc.Install(c.Context(), sess.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, InstallResponse{BannerStatus: status, Accepted: accepted})
}

// Dismiss closes the install banner.
func (h *Handler) Dismiss(c router.Context) error {
	svc, err := h.service()
	if err != nil {
		return writeError(c, err)
	}
	sess, err := h.session(c, svc)
	if err != nil {
		return writeError(c, err)
	}
	status, err := svc.Dismiss(c.Context(), sess.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

func (h *Handler) service() (*service.Service, error) {
	if h == nil || h.cfg.Service == nil {
		return nil, profile.NewError(profile.KindInternal, "profile service not configured", nil)
	}
	return h.cfg.Service, nil
}

func (h *Handler) session(c router.Context, svc *service.Service) (*service.Session, error) {
	sess, err := svc.Session(c.Context(), sessionID(c, h.cfg.CookieName), c.QueryInt("width", 0))
	if err != nil {
		return nil, err
	}
	h.bindSession(c, sess)
	return sess, nil
}

func (h *Handler) bindSession(c router.Context, sess *service.Session) {
	if sess == nil || sessionID(c, h.cfg.CookieName) == sess.ID {
		return
	}
	setSessionCookie(c, h.cfg.CookieName, sess.ID)
}

func sendArtifact(c router.Context, result profile.ExportResult, disposition string) error {
	c.SetHeader("Content-Type", profile.ContentType(result.Format))
	c.SetHeader("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, result.Filename))
	c.SetHeader("X-Export-ID", result.ID)
	return c.Status(http.StatusOK).Send(result.Data)
}

type routeRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}
