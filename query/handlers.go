package query

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-profile/profile"
	"github.com/goliatone/go-profile/service"
)

// Service is the profile service surface used by query handlers.
type Service interface {
	Snapshot(ctx context.Context) (profile.Result, error)
	BannerStatus(ctx context.Context, sessionID string) (service.BannerStatus, error)
	CopyState(ctx context.Context, sessionID string) (profile.CopyView, error)
	Exports(ctx context.Context, limit int) ([]profile.ExportRecord, error)
}

var _ Service = (*service.Service)(nil)

func serviceRequired() error {
	return errors.New("profile service is required", errors.CategoryInternal).
		WithTextCode("SERVICE_REQUIRED")
}

// GetSnapshotHandler returns the loaded profile.
type GetSnapshotHandler struct {
	Service Service
}

func NewGetSnapshotHandler(svc Service) *GetSnapshotHandler {
	return &GetSnapshotHandler{Service: svc}
}

func (h *GetSnapshotHandler) Query(ctx context.Context, msg GetSnapshot) (profile.Result, error) {
	if h == nil || h.Service == nil {
		return profile.Result{}, serviceRequired()
	}
	return h.Service.Snapshot(ctx)
}

// GetBannerStatusHandler returns the banner state of a visitor.
type GetBannerStatusHandler struct {
	Service Service
}

func NewGetBannerStatusHandler(svc Service) *GetBannerStatusHandler {
	return &GetBannerStatusHandler{Service: svc}
}

func (h *GetBannerStatusHandler) Query(ctx context.Context, msg GetBannerStatus) (service.BannerStatus, error) {
	if h == nil || h.Service == nil {
		return service.BannerStatus{}, serviceRequired()
	}
	return h.Service.BannerStatus(ctx, msg.SessionID)
}

// GetCopyStateHandler returns the copy state of a visitor.
type GetCopyStateHandler struct {
	Service Service
}

func NewGetCopyStateHandler(svc Service) *GetCopyStateHandler {
	return &GetCopyStateHandler{Service: svc}
}

func (h *GetCopyStateHandler) Query(ctx context.Context, msg GetCopyState) (profile.CopyView, error) {
	if h == nil || h.Service == nil {
		return profile.CopyView{}, serviceRequired()
	}
	return h.Service.CopyState(ctx, msg.SessionID)
}

// ExportHistoryHandler returns recent export attempts.
type ExportHistoryHandler struct {
	Service Service
}

func NewExportHistoryHandler(svc Service) *ExportHistoryHandler {
	return &ExportHistoryHandler{Service: svc}
}

func (h *ExportHistoryHandler) Query(ctx context.Context, msg ExportHistory) ([]profile.ExportRecord, error) {
	if h == nil || h.Service == nil {
		return nil, serviceRequired()
	}
	return h.Service.Exports(ctx, msg.Limit)
}
