package command

import (
	"context"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-profile/profile"
	"github.com/goliatone/go-profile/service"
)

// Service is the profile service surface used by command handlers.
type Service interface {
	Export(ctx context.Context, sessionID string, format profile.Format) (profile.ExportResult, error)
	Install(ctx context.Context, sessionID string) (service.BannerStatus, bool, error)
	Dismiss(ctx context.Context, sessionID string) (service.BannerStatus, error)
	CopyEnter(ctx context.Context, sessionID, label string) (profile.CopyView, error)
	CopyField(ctx context.Context, sessionID, label string) (profile.CopyView, error)
	CopyLeave(ctx context.Context, sessionID, label string) (profile.CopyView, error)
}

var _ Service = (*service.Service)(nil)

func serviceRequired() error {
	return errors.New("profile service is required", errors.CategoryInternal).
		WithTextCode("SERVICE_REQUIRED")
}

// ExportProfileHandler handles export requests.
type ExportProfileHandler struct {
	Service Service
}

func NewExportProfileHandler(svc Service) *ExportProfileHandler {
	return &ExportProfileHandler{Service: svc}
}

func (h *ExportProfileHandler) Execute(ctx context.Context, msg ExportProfile) error {
	if h == nil || h.Service == nil {
		return serviceRequired()
	}
	result, err := h.Service.Export(ctx, msg.SessionID, msg.Format)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = result
	}
	if res := gcmd.ResultFromContext[profile.ExportResult](ctx); res != nil {
		res.Store(result)
	}
	return nil
}

// InstallAppHandler runs the install prompt.
type InstallAppHandler struct {
	Service Service
}

func NewInstallAppHandler(svc Service) *InstallAppHandler {
	return &InstallAppHandler{Service: svc}
}

func (h *InstallAppHandler) Execute(ctx context.Context, msg InstallApp) error {
	if h == nil || h.Service == nil {
		return serviceRequired()
	}
	status, accepted, err := h.Service.Install(ctx, msg.SessionID)
	if err != nil {
		return err
	}
	result := InstallResult{Status: status, Accepted: accepted}
	if msg.Result != nil {
		*msg.Result = result
	}
	if res := gcmd.ResultFromContext[InstallResult](ctx); res != nil {
		res.Store(result)
	}
	return nil
}

// DismissBannerHandler closes the install banner.
type DismissBannerHandler struct {
	Service Service
}

func NewDismissBannerHandler(svc Service) *DismissBannerHandler {
	return &DismissBannerHandler{Service: svc}
}

func (h *DismissBannerHandler) Execute(ctx context.Context, msg DismissBanner) error {
	if h == nil || h.Service == nil {
		return serviceRequired()
	}
	status, err := h.Service.Dismiss(ctx, msg.SessionID)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = status
	}
	return nil
}

// CopyFieldHandler drives the copy affordance.
type CopyFieldHandler struct {
	Service Service
}

func NewCopyFieldHandler(svc Service) *CopyFieldHandler {
	return &CopyFieldHandler{Service: svc}
}

func (h *CopyFieldHandler) Execute(ctx context.Context, msg CopyField) error {
	if h == nil || h.Service == nil {
		return serviceRequired()
	}

	var (
		view profile.CopyView
		err  error
	)
	switch msg.Event {
	case CopyEnter:
		view, err = h.Service.CopyEnter(ctx, msg.SessionID, msg.Label)
	case CopyWrite:
		view, err = h.Service.CopyField(ctx, msg.SessionID, msg.Label)
	case CopyLeave:
		view, err = h.Service.CopyLeave(ctx, msg.SessionID, msg.Label)
	default:
		return msg.Validate()
	}
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = view
	}
	if res := gcmd.ResultFromContext[profile.CopyView](ctx); res != nil {
		res.Store(view)
	}
	return nil
}
