package query

import (
	"context"
	"testing"

	"github.com/goliatone/go-profile/profile"
	"github.com/goliatone/go-profile/service"
)

func newTestService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	cfg, err := profile.DefaultConfigStore()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	agg := profile.NewAggregator(profile.NewFetcher(nil), cfg)
	svc, err := service.New(agg, profile.NewExporter(nil), opts...)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc
}

func TestGetSnapshotHandler(t *testing.T) {
	handler := NewGetSnapshotHandler(newTestService(t))
	res, err := handler.Query(context.Background(), GetSnapshot{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.Snapshot.Header().Name != "Jane Doe" {
		t.Fatalf("expected default header, got %+v", res.Snapshot.Header())
	}
	if !res.HasError {
		t.Fatalf("a missing source should flag the load as failed")
	}
}

func TestGetBannerStatusHandler(t *testing.T) {
	svc := newTestService(t, service.WithPrompter(profile.StaticPrompter{Support: true}))
	handler := NewGetBannerStatusHandler(svc)

	status, err := handler.Query(context.Background(), GetBannerStatus{SessionID: "visitor"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !status.Eligible || status.State.IsOpen != nil {
		t.Fatalf("expected undecided eligible banner, got %+v", status)
	}
}

func TestGetCopyStateHandler(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.CopyEnter(context.Background(), "visitor", "Mobile"); err != nil {
		t.Fatalf("enter: %v", err)
	}
	view, err := NewGetCopyStateHandler(svc).Query(context.Background(), GetCopyState{SessionID: "visitor"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if view.Active != "Mobile" || view.Status != profile.CopyHovered {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestExportHistoryHandler(t *testing.T) {
	history := &profile.MemoryExportHistory{}
	svc := newTestService(t, service.WithHistory(history))
	if _, err := svc.Export(context.Background(), "visitor", profile.FormatXLSX); err == nil {
		t.Fatalf("expected export to fail without renderers")
	}

	records, err := NewExportHistoryHandler(svc).Query(context.Background(), ExportHistory{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 || records[0].State != profile.ExportFailed || records[0].Format != profile.FormatXLSX {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestQueryValidation(t *testing.T) {
	if err := (GetBannerStatus{}).Validate(); err == nil {
		t.Fatalf("expected session validation error")
	}
	if err := (GetCopyState{}).Validate(); err == nil {
		t.Fatalf("expected session validation error")
	}
	if err := (ExportHistory{Limit: -1}).Validate(); err == nil {
		t.Fatalf("expected limit validation error")
	}
	if _, err := (&GetSnapshotHandler{}).Query(context.Background(), GetSnapshot{}); err == nil {
		t.Fatalf("expected missing service error")
	}
}
