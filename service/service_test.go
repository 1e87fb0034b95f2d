package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/goliatone/go-profile/profile"
	profilecallback "github.com/goliatone/go-profile/sources/callback"
)

func defaultValues(t *testing.T) (profile.ConfigStore, profilecallback.Values) {
	t.Helper()
	cfg, err := profile.DefaultConfigStore()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	return cfg, profilecallback.FromConfig(cfg)
}

func htmlExporter() *profile.Exporter {
	exporter := profile.NewExporter(profile.NewMemoryArtifactStore())
	exporter.Register(profile.FormatHTML, profile.FormatRendererFunc(func(ctx context.Context, page profile.Page, w io.Writer) (profile.RenderStats, error) {
		n, err := io.WriteString(w, page.Export.String())
		return profile.RenderStats{Bytes: int64(n)}, err
	}))
	return exporter
}

func newTestService(t *testing.T, src profile.Source, opts ...Option) *Service {
	t.Helper()
	cfg, err := profile.DefaultConfigStore()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	agg := profile.NewAggregator(profile.NewFetcher(src), cfg)
	svc, err := New(agg, htmlExporter(), opts...)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, htmlExporter()); profile.KindFromError(err) != profile.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	cfg, _ := profile.DefaultConfigStore()
	agg := profile.NewAggregator(profile.NewFetcher(nil), cfg)
	if _, err := New(agg, nil); profile.KindFromError(err) != profile.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSessionReusedByID(t *testing.T) {
	_, values := defaultValues(t)
	svc := newTestService(t, values)
	ctx := context.Background()

	first, err := svc.Session(ctx, "", 400)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if first.ID == "" {
		t.Fatalf("expected generated session id")
	}
	if first.Copy.Variant != profile.CopyMobile {
		t.Fatalf("expected mobile variant, got %s", first.Copy.Variant)
	}
	again, err := svc.Session(ctx, first.ID, 1280)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if again != first {
		t.Fatalf("expected the same session")
	}
	other, _ := svc.Session(ctx, "other", 1280)
	if other == first || other.Copy.Variant != profile.CopyDesktop {
		t.Fatalf("expected a separate desktop session")
	}
}

func TestPageReflectsLoadError(t *testing.T) {
	_, values := defaultValues(t)
	delete(values, string(profile.SectionSkills))
	svc := newTestService(t, values)

	page, _, err := svc.Page(context.Background(), "visitor", 1280)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if page.Notification == nil || page.Interactive != nil {
		t.Fatalf("expected notification and no interactive tree")
	}
	if page.Export == nil {
		t.Fatalf("export tree must still be built")
	}
}

func TestPageShowsBannerUntilDismissed(t *testing.T) {
	_, values := defaultValues(t)
	state := profile.NewMemoryStateStore()
	svc := newTestService(t, values,
		WithStateStore(state),
		WithPrompter(profile.StaticPrompter{Support: true, Accept: true}),
	)
	ctx := context.Background()

	page, _, err := svc.Page(ctx, "visitor", 1280)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page.Interactive.FindByClass("install-banner")) != 1 {
		t.Fatalf("expected install banner")
	}

	status, err := svc.Dismiss(ctx, "visitor")
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if status.Eligible || status.State.IsOpen == nil || *status.State.IsOpen {
		t.Fatalf("expected closed banner, got %+v", status)
	}
	page, _, _ = svc.Page(ctx, "visitor", 1280)
	if len(page.Interactive.FindByClass("install-banner")) != 0 {
		t.Fatalf("banner should be hidden after dismiss")
	}

	raw, ok, _ := state.Get(ctx, "visitor:"+profile.KeyInstallBannerOpen)
	if !ok || raw != "false" {
		t.Fatalf("expected scoped persisted flag, got %q %v", raw, ok)
	}
	if other, _ := svc.BannerStatus(ctx, "someone-else"); !other.Eligible {
		t.Fatalf("another visitor should still see the banner")
	}
}

func TestInstallAccepted(t *testing.T) {
	_, values := defaultValues(t)
	svc := newTestService(t, values, WithPrompter(profile.StaticPrompter{Support: true, Accept: true}))

	status, accepted, err := svc.Install(context.Background(), "visitor")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if !accepted || !status.State.HasInstalled || status.Eligible {
		t.Fatalf("unexpected install status %+v accepted=%v", status, accepted)
	}
}

func TestCopyDesktopFlow(t *testing.T) {
	_, values := defaultValues(t)
	clip := &profile.MemoryClipboard{}
	svc := newTestService(t, values, WithClipboard(clip))
	ctx := context.Background()
	if _, err := svc.Session(ctx, "visitor", 1280); err != nil {
		t.Fatalf("session: %v", err)
	}

	if _, err := svc.CopyField(ctx, "visitor", "E-mail"); profile.KindFromError(err) != profile.KindValidation {
		t.Fatalf("copy before hover should fail, got %v", err)
	}
	view, err := svc.CopyEnter(ctx, "visitor", "E-mail")
	if err != nil || view.Status != profile.CopyHovered {
		t.Fatalf("enter: %+v %v", view, err)
	}
	view, err = svc.CopyField(ctx, "visitor", "E-mail")
	if err != nil || view.Status != profile.CopyCopied {
		t.Fatalf("copy: %+v %v", view, err)
	}
	if clip.Last() != "jane.doe@example.com" {
		t.Fatalf("unexpected clipboard %q", clip.Last())
	}
	view, _ = svc.CopyLeave(ctx, "visitor", "E-mail")
	if view.Status != profile.CopyIdle || view.Active != "" {
		t.Fatalf("expected idle after leave, got %+v", view)
	}
}

func TestCopyMobileTap(t *testing.T) {
	_, values := defaultValues(t)
	svc := newTestService(t, values)
	ctx := context.Background()
	sess, err := svc.Session(ctx, "phone", 375)
	if err != nil {
		t.Fatalf("session: %v", err)
	}

	view, err := svc.CopyField(ctx, "phone", "Mobile")
	if err != nil || view.Status != profile.CopyCopied {
		t.Fatalf("tap: %+v %v", view, err)
	}
	if got := sess.Clipboard.(*profile.MemoryClipboard).Last(); got != "+1-555-0100" {
		t.Fatalf("unexpected clipboard %q", got)
	}
	if _, err := svc.CopyField(ctx, "phone", "Location"); profile.KindFromError(err) != profile.KindNotFound {
		t.Fatalf("non copyable detail should be not found, got %v", err)
	}
}

func TestSessionVariantSettlesOnFirstWidth(t *testing.T) {
	_, values := defaultValues(t)
	svc := newTestService(t, values)
	ctx := context.Background()

	if _, err := svc.BannerStatus(ctx, "phone"); err != nil {
		t.Fatalf("banner: %v", err)
	}
	if _, _, err := svc.Page(ctx, "phone", 375); err != nil {
		t.Fatalf("page: %v", err)
	}
	view, err := svc.CopyField(ctx, "phone", "Mobile")
	if err != nil || view.Status != profile.CopyCopied || view.Variant != profile.CopyMobile {
		t.Fatalf("expected mobile tap after first width, got %+v %v", view, err)
	}

	if _, _, err := svc.Page(ctx, "phone", 1280); err != nil {
		t.Fatalf("page: %v", err)
	}
	if view, _ := svc.CopyState(ctx, "phone"); view.Variant != profile.CopyMobile || view.Status != profile.CopyCopied {
		t.Fatalf("variant must stay fixed once settled, got %+v", view)
	}
}

func TestExportTracksDownloadAndHistory(t *testing.T) {
	_, values := defaultValues(t)
	history := &profile.MemoryExportHistory{}
	svc := newTestService(t, values, WithHistory(history))
	ctx := context.Background()

	result, err := svc.Export(ctx, "visitor", profile.FormatHTML)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Filename != "Jane_Doe_Profile.html" {
		t.Fatalf("unexpected filename %s", result.Filename)
	}
	if !strings.Contains(string(result.Data), `data-mode="export"`) {
		t.Fatalf("expected export tree")
	}
	sess, _ := svc.Session(ctx, "visitor", 0)
	if sess.Download.Stage() != profile.StageDownloaded {
		t.Fatalf("expected downloaded stage, got %s", sess.Download.Stage())
	}
	cached, err := svc.ExportResult(result.ID)
	if err != nil || cached.Filename != result.Filename {
		t.Fatalf("expected cached export, got %+v %v", cached, err)
	}

	if _, err := svc.Export(ctx, "visitor", profile.FormatPDF); profile.KindFromError(err) != profile.KindNotImpl {
		t.Fatalf("expected not implemented, got %v", err)
	}
	if sess.Download.Stage() != profile.StageDownload {
		t.Fatalf("failed export should reset stage, got %s", sess.Download.Stage())
	}

	records, err := svc.Exports(ctx, 0)
	if err != nil {
		t.Fatalf("exports: %v", err)
	}
	if len(records) != 2 || records[0].State != profile.ExportFailed || records[1].State != profile.ExportCompleted {
		t.Fatalf("unexpected history %+v", records)
	}
}

func TestExportsWithoutHistory(t *testing.T) {
	_, values := defaultValues(t)
	svc := newTestService(t, values)
	if _, err := svc.Exports(context.Background(), 5); profile.KindFromError(err) != profile.KindNotImpl {
		t.Fatalf("expected not implemented, got %v", err)
	}
	if _, err := svc.ExportResult("missing"); profile.KindFromError(err) != profile.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
