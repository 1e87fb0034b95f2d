package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/goliatone/go-profile/config"
	"github.com/goliatone/go-profile/profile"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Export.ArtifactDir = filepath.Join(dir, "artifacts")
	cfg.Export.CleanupOnStart = false
	cfg.State.File = filepath.Join(dir, "state.json")
	return cfg
}

func writeConfig(t *testing.T, cfg config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	doc := fmt.Sprintf(`export:
  artifact_dir: %q
  cleanup_on_start: false
state:
  file: %q
`, cfg.Export.ArtifactDir, cfg.State.File)
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewApp_DefaultsWiring(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), NewConsoleLogger("test", &bytes.Buffer{}), AppOptions{})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer app.Close()

	formats := app.Service.Formats()
	if len(formats) != 3 || formats[0] != profile.FormatPDF {
		t.Fatalf("expected pdf, xlsx and html renderers, got %v", formats)
	}

	res, err := app.Service.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.HasError {
		t.Fatalf("defaults source should load cleanly, failed %v", res.Failed)
	}

	result, err := app.Service.Export(context.Background(), "visitor", profile.FormatXLSX)
	if err != nil {
		t.Fatalf("export xlsx: %v", err)
	}
	if result.Filename != "Jane_Doe_Profile.xlsx" || len(result.Data) == 0 {
		t.Fatalf("unexpected export %s (%d bytes)", result.Filename, len(result.Data))
	}
	records, err := app.Service.Exports(context.Background(), 0)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected one history record, got %v %v", records, err)
	}
}

func TestNewApp_BunStateAndSource(t *testing.T) {
	cfg := testConfig(t)
	dsn := "file:cmdprofile?mode=memory&cache=shared"
	cfg.State.DSN = dsn
	cfg.Content.Source = config.SourceBun
	cfg.Content.DSN = dsn

	app, err := NewApp(context.Background(), cfg, NewConsoleLogger("test", &bytes.Buffer{}), AppOptions{})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer app.Close()

	if len(app.dbs) != 1 {
		t.Fatalf("expected one shared database, got %d", len(app.dbs))
	}
	res, err := app.Service.Load(context.Background())
	if err != nil || res.HasError {
		t.Fatalf("expected seeded sections to load, got %v %v", res.Failed, err)
	}
	if _, err := app.Service.Dismiss(context.Background(), "visitor"); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	value, ok, err := app.Service.State.Get(context.Background(), "visitor:isInstallBannerOpen")
	if err != nil || !ok || value != "false" {
		t.Fatalf("expected persisted banner flag, got %q %v %v", value, ok, err)
	}
}

func TestNewApp_MissingProfileConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Content.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewApp(context.Background(), cfg, nil, AppOptions{}); err == nil {
		t.Fatalf("expected missing profile config error")
	}
}

func TestCLI_RenderExportDocument(t *testing.T) {
	path := writeConfig(t, testConfig(t))
	out, err := runCLI(t, "--config", path, "render", "--mode", "export")
	if err != nil {
		t.Fatalf("render: %v\n%s", err, out)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Find(`.profile[data-mode="export"]`).Length() != 1 {
		t.Fatalf("expected export document, got %s", out)
	}
	if doc.Find("title").Text() != "Jane Doe" {
		t.Fatalf("unexpected title %q", doc.Find("title").Text())
	}
}

func TestCLI_RenderUnknownMode(t *testing.T) {
	path := writeConfig(t, testConfig(t))
	if _, err := runCLI(t, "--config", path, "render", "--mode", "print"); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}

func TestCLI_ExportHTMLToDirectory(t *testing.T) {
	path := writeConfig(t, testConfig(t))
	outDir := t.TempDir()
	out, err := runCLI(t, "--config", path, "export", "--format", "html", "--out", outDir)
	if err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "Jane_Doe_Profile.html"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), `data-mode="export"`) {
		t.Fatalf("expected export document on disk")
	}
	if !strings.Contains(out, "Jane_Doe_Profile.html") {
		t.Fatalf("expected written path in output, got %q", out)
	}
}

func TestCLI_PruneAndVersion(t *testing.T) {
	path := writeConfig(t, testConfig(t))
	out, err := runCLI(t, "--config", path, "prune", "--max-age", "1h")
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if !strings.Contains(out, "removed 0 artifacts") {
		t.Fatalf("unexpected prune output %q", out)
	}

	out, err = runCLI(t, "version")
	if err != nil || !strings.Contains(out, "Version: "+Version) {
		t.Fatalf("unexpected version output %q %v", out, err)
	}
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger("test", &buf)
	logger.Debugf("hidden")
	logger.Infof("hello %s", "world")
	logger.SetDebug(true)
	logger.Debugf("shown")
	logger.Errorf("boom")

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Fatalf("debug lines should be off by default: %q", got)
	}
	for _, want := range []string{"[INFO] test: hello world", "[DEBUG] test: shown", "[ERROR] test: boom"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
}
