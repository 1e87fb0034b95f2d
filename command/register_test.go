package command

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-profile/profile"
	"github.com/goliatone/go-profile/query"
	"github.com/goliatone/go-profile/service"
)

func TestRegisterHandlers_DispatchAndQuery(t *testing.T) {
	cfg, err := profile.DefaultConfigStore()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	exporter := profile.NewExporter(profile.NewMemoryArtifactStore())
	exporter.Register(profile.FormatHTML, profile.FormatRendererFunc(func(ctx context.Context, page profile.Page, w io.Writer) (profile.RenderStats, error) {
		n, err := io.WriteString(w, page.Export.String())
		return profile.RenderStats{Bytes: int64(n)}, err
	}))
	svc, err := service.New(profile.NewAggregator(profile.NewFetcher(nil), cfg), exporter)
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	reg := gcmd.NewRegistry()
	subs, err := RegisterHandlers(reg, svc, &capturePruner{})
	if err != nil {
		t.Fatalf("register handlers: %v", err)
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()
	if len(subs) != 9 {
		t.Fatalf("expected 9 subscriptions, got %d", len(subs))
	}

	result, err := dispatcher.DispatchWithResult[ExportProfile, profile.ExportResult](
		context.Background(),
		ExportProfile{SessionID: "visitor", Format: profile.FormatHTML},
	)
	if err != nil {
		t.Fatalf("dispatch export: %v", err)
	}
	if result.Filename != "Jane_Doe_Profile.html" || !strings.Contains(string(result.Data), `data-mode="export"`) {
		t.Fatalf("unexpected export result %s", result.Filename)
	}

	snapshot, err := dispatcher.Query[query.GetSnapshot, profile.Result](context.Background(), query.GetSnapshot{})
	if err != nil {
		t.Fatalf("query snapshot: %v", err)
	}
	if snapshot.Snapshot.Header().Name != "Jane Doe" {
		t.Fatalf("unexpected snapshot header %+v", snapshot.Snapshot.Header())
	}

	removed, err := dispatcher.DispatchWithResult[PruneArtifacts, []string](
		context.Background(),
		PruneArtifacts{MaxAge: time.Hour},
	)
	if err != nil {
		t.Fatalf("dispatch prune: %v", err)
	}
	if len(removed) != 1 {
		t.Fatalf("expected pruned keys, got %v", removed)
	}
}

func TestRegisterHandlers_RequiresService(t *testing.T) {
	if _, err := RegisterHandlers(nil, nil, nil); err == nil {
		t.Fatalf("expected missing service error")
	}
}
