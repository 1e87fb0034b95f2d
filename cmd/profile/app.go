package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"
	profileclip "github.com/goliatone/go-profile/adapters/clipboard"
	"github.com/goliatone/go-profile/adapters/pdf"
	statebun "github.com/goliatone/go-profile/adapters/state/bun"
	statefs "github.com/goliatone/go-profile/adapters/state/fs"
	storefs "github.com/goliatone/go-profile/adapters/store/fs"
	"github.com/goliatone/go-profile/adapters/template"
	"github.com/goliatone/go-profile/command"
	"github.com/goliatone/go-profile/config"
	"github.com/goliatone/go-profile/profile"
	"github.com/goliatone/go-profile/service"
	profilebun "github.com/goliatone/go-profile/sources/bun"
	profilecallback "github.com/goliatone/go-profile/sources/callback"
	profilefs "github.com/goliatone/go-profile/sources/fs"
	profilehttp "github.com/goliatone/go-profile/sources/http"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// App holds the application dependencies.
type App struct {
	Config   config.Config
	Logger   *ConsoleLogger
	Profile  profile.ConfigStore
	Service  *service.Service
	Exporter *profile.Exporter
	Store    *storefs.Store
	Registry *gcmd.Registry
	Page     template.Renderer
	Preview  template.Renderer

	engine        pdf.Engine
	dbs           map[string]*bun.DB
	subscriptions []dispatcher.Subscription
}

// AppOptions tweaks NewApp for the command being run.
type AppOptions struct {
	// SystemClipboard routes copies to the host clipboard instead of the
	// per-session memory clipboard.
	SystemClipboard bool
}

// NewApp creates and initializes the application.
func NewApp(ctx context.Context, cfg config.Config, logger *ConsoleLogger, opts AppOptions) (*App, error) {
	if logger == nil {
		logger = NewConsoleLogger("go-profile", os.Stderr)
	}
	app := &App{Config: cfg, Logger: logger, dbs: map[string]*bun.DB{}}

	profileCfg, err := loadProfileConfig(cfg.Content.ConfigFile)
	if err != nil {
		return nil, err
	}
	app.Profile = profileCfg

	source, err := app.contentSource(ctx, profileCfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	fetcher := profile.NewFetcher(source)
	fetcher.Timeout = cfg.Content.FetchTimeout
	fetcher.Logger = logger
	agg := profile.NewAggregator(fetcher, profileCfg)
	agg.Logger = logger

	if err := os.MkdirAll(cfg.Export.ArtifactDir, 0o755); err != nil {
		app.Close()
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	app.Store = storefs.NewStore(cfg.Export.ArtifactDir)

	if app.Page, err = template.NewRenderer(profile.ModeInteractive); err != nil {
		app.Close()
		return nil, err
	}
	if app.Preview, err = template.NewRenderer(profile.ModeExport); err != nil {
		app.Close()
		return nil, err
	}
	app.engine = pdfEngine(cfg.PDF)

	exporter := profile.NewExporter(app.Store)
	exporter.Logger = logger
	exporter.Register(profile.FormatHTML, app.Preview)
	exporter.Register(profile.FormatXLSX, profile.XLSXRenderer{})
	exporter.Register(profile.FormatPDF, pdf.Renderer{
		HTML:    app.Preview,
		Engine:  app.engine,
		Options: pdfOptions(cfg.PDF),
	})
	app.Exporter = exporter

	svcOpts := []service.Option{
		service.WithLogger(logger),
		service.WithSessionCacheSize(cfg.Sessions.CacheSize),
		service.WithExportCacheSize(cfg.Export.CacheSize),
		service.WithPrompter(profile.StaticPrompter{Support: cfg.Install.Supported, Accept: cfg.Install.Accept}),
	}
	stateOpts, err := app.stateOptions(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	svcOpts = append(svcOpts, stateOpts...)
	if opts.SystemClipboard || cfg.Features.EnableClipboard {
		if profileclip.Available() {
			svcOpts = append(svcOpts, service.WithClipboard(profileclip.System{}))
		} else {
			logger.Errorf("system clipboard unavailable, copies stay in memory")
		}
	}

	svc, err := service.New(agg, exporter, svcOpts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Service = svc

	app.Registry = gcmd.NewRegistry()
	subs, err := command.RegisterHandlers(app.Registry, svc, app.Store)
	app.subscriptions = subs
	if err != nil {
		app.Close()
		return nil, err
	}

	if cfg.Export.CleanupOnStart {
		removed, err := dispatcher.DispatchWithResult[command.PruneArtifacts, []string](ctx, command.PruneArtifacts{MaxAge: cfg.Export.MaxAge})
		if err != nil {
			logger.Errorf("prune artifacts: %v", err)
		} else if len(removed) > 0 {
			logger.Infof("pruned %d expired artifacts", len(removed))
		}
	}
	return app, nil
}

// Close releases subscriptions, the PDF engine and open databases.
func (a *App) Close() error {
	for _, sub := range a.subscriptions {
		sub.Unsubscribe()
	}
	a.subscriptions = nil
	if closer, ok := a.engine.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.Logger.Errorf("close pdf engine: %v", err)
		}
	}
	for dsn, db := range a.dbs {
		if err := db.Close(); err != nil {
			a.Logger.Errorf("close database %s: %v", dsn, err)
		}
	}
	a.dbs = map[string]*bun.DB{}
	return nil
}

func loadProfileConfig(path string) (profile.ConfigStore, error) {
	if path == "" {
		return profile.DefaultConfigStore()
	}
	f, err := os.Open(path)
	if err != nil {
		return profile.ConfigStore{}, fmt.Errorf("open profile config: %w", err)
	}
	defer f.Close()
	return profile.LoadConfigStore(f)
}

func (a *App) contentSource(ctx context.Context, profileCfg profile.ConfigStore) (profile.Source, error) {
	content := a.Config.Content
	switch content.Source {
	case config.SourceFS:
		return profilefs.NewSource(os.DirFS(content.Dir), "."), nil
	case config.SourceHTTP:
		src := profilehttp.NewSource(content.URL)
		return src, nil
	case config.SourceBun:
		db, err := a.openDB(content.DSN)
		if err != nil {
			return nil, err
		}
		if err := profilebun.EnsureSchema(ctx, db); err != nil {
			return nil, fmt.Errorf("section schema: %w", err)
		}
		src := profilebun.NewSource(db)
		keys, err := src.Keys(ctx)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			a.Logger.Infof("seeding empty section database")
			if err := src.Seed(ctx, profileCfg); err != nil {
				return nil, fmt.Errorf("seed sections: %w", err)
			}
		}
		return src, nil
	default:
		return profilecallback.FromConfig(profileCfg), nil
	}
}

func (a *App) stateOptions(ctx context.Context) ([]service.Option, error) {
	if a.Config.State.DSN == "" {
		return []service.Option{
			service.WithStateStore(statefs.NewStore(a.Config.State.File)),
			service.WithHistory(&profile.MemoryExportHistory{}),
		}, nil
	}
	db, err := a.openDB(a.Config.State.DSN)
	if err != nil {
		return nil, err
	}
	if err := statebun.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("state schema: %w", err)
	}
	return []service.Option{
		service.WithStateStore(statebun.NewStore(db)),
		service.WithHistory(statebun.NewExportLog(db)),
	}, nil
}

// openDB opens a SQLite database once per DSN.
func (a *App) openDB(dsn string) (*bun.DB, error) {
	if db, ok := a.dbs[dsn]; ok {
		return db, nil
	}
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	a.dbs[dsn] = db
	return db, nil
}

func pdfEngine(cfg config.PDFConfig) pdf.Engine {
	if cfg.Engine == config.EngineWKHTMLTOPDF {
		return pdf.WKHTMLTOPDFEngine{
			Command: cfg.Path,
			Args:    cfg.Args,
			Timeout: cfg.Timeout,
		}
	}
	return &pdf.ChromiumEngine{
		BrowserPath: cfg.Path,
		Headless:    cfg.Headless,
		Timeout:     cfg.Timeout,
		Args:        cfg.Args,
		DefaultPDF:  pdfOptions(cfg),
	}
}

func pdfOptions(cfg config.PDFConfig) profile.PDFOptions {
	opts := profile.DefaultPDFOptions()
	if cfg.PageSize != "" {
		opts.PageSize = cfg.PageSize
	}
	opts.BaseURL = cfg.BaseURL
	return opts
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
