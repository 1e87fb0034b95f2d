package service

import (
	"context"
	"sync"

	"github.com/goliatone/go-profile/profile"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultSessionCacheSize = 1024
	DefaultExportCacheSize  = 32
	DefaultHistoryLimit     = 20
)

// Session is the per-visitor interactive state.
type Session struct {
	ID        string
	Copy      *profile.CopyState
	Banner    *profile.InstallBanner
	Download  *profile.DownloadTracker
	Clipboard profile.Clipboard

	// sized is set once a request reported the viewport width.
	sized bool
}

// BannerStatus is the install banner view for one visitor.
type BannerStatus struct {
	State    profile.BannerState `json:"state"`
	Eligible bool                `json:"eligible"`
}

// Service ties the loaded profile to visitor sessions and exports. Transports
// and commands call it; it owns no rendering of its own.
type Service struct {
	Aggregator *profile.Aggregator
	Exporter   *profile.Exporter
	History    profile.ExportHistory
	State      profile.StateStore
	Prompter   profile.Prompter
	Clipboard  profile.Clipboard
	Logger     profile.Logger

	mu       sync.Mutex
	sessions *lru.Cache[string, *Session]
	exports  *lru.Cache[string, profile.ExportResult]
}

// Option configures a Service.
type Option func(*options)

type options struct {
	sessionCacheSize int
	exportCacheSize  int
	history          profile.ExportHistory
	state            profile.StateStore
	prompter         profile.Prompter
	clipboard        profile.Clipboard
	logger           profile.Logger
}

// WithSessionCacheSize bounds the number of live visitor sessions.
func WithSessionCacheSize(n int) Option {
	return func(o *options) { o.sessionCacheSize = n }
}

// WithExportCacheSize bounds the number of recent exports kept in memory.
func WithExportCacheSize(n int) Option {
	return func(o *options) { o.exportCacheSize = n }
}

// WithHistory records every export attempt.
func WithHistory(h profile.ExportHistory) Option {
	return func(o *options) { o.history = h }
}

// WithStateStore sets where banner flags persist. Keys are scoped per session.
func WithStateStore(store profile.StateStore) Option {
	return func(o *options) { o.state = store }
}

// WithPrompter sets the platform install prompt.
func WithPrompter(p profile.Prompter) Option {
	return func(o *options) { o.prompter = p }
}

// WithClipboard shares one clipboard between sessions. Without it every
// session records its copies in its own memory clipboard.
func WithClipboard(c profile.Clipboard) Option {
	return func(o *options) { o.clipboard = c }
}

// WithLogger sets the service logger.
func WithLogger(l profile.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a Service.
func New(agg *profile.Aggregator, exporter *profile.Exporter, opts ...Option) (*Service, error) {
	if agg == nil {
		return nil, profile.NewError(profile.KindValidation, "aggregator is required", nil)
	}
	if exporter == nil {
		return nil, profile.NewError(profile.KindValidation, "exporter is required", nil)
	}

	cfg := options{
		sessionCacheSize: DefaultSessionCacheSize,
		exportCacheSize:  DefaultExportCacheSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.sessionCacheSize <= 0 {
		cfg.sessionCacheSize = DefaultSessionCacheSize
	}
	if cfg.exportCacheSize <= 0 {
		cfg.exportCacheSize = DefaultExportCacheSize
	}
	if cfg.state == nil {
		cfg.state = profile.NewMemoryStateStore()
	}
	if cfg.prompter == nil {
		cfg.prompter = profile.StaticPrompter{}
	}
	if cfg.logger == nil {
		cfg.logger = profile.NopLogger{}
	}

	sessions, err := lru.New[string, *Session](cfg.sessionCacheSize)
	if err != nil {
		return nil, profile.NewError(profile.KindInternal, "create session cache", err)
	}
	exports, err := lru.New[string, profile.ExportResult](cfg.exportCacheSize)
	if err != nil {
		return nil, profile.NewError(profile.KindInternal, "create export cache", err)
	}

	return &Service{
		Aggregator: agg,
		Exporter:   exporter,
		History:    cfg.history,
		State:      cfg.state,
		Prompter:   cfg.prompter,
		Clipboard:  cfg.clipboard,
		Logger:     cfg.logger,
		sessions:   sessions,
		exports:    exports,
	}, nil
}

// Load waits for the profile. The first caller triggers the fetch.
func (s *Service) Load(ctx context.Context) (profile.Result, error) {
	return s.Aggregator.Load(ctx)
}

// Config returns the content configuration.
func (s *Service) Config() profile.ConfigStore {
	return s.Aggregator.Config
}

// Session returns the visitor session for id, creating it when missing. An
// empty id starts a new session. The copy variant follows the first positive
// width reported for the session and stays fixed afterwards; until then the
// session is desktop.
func (s *Service) Session(ctx context.Context, id string, width int) (*Session, error) {
	res, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	variant := profile.VariantFor(profile.ClassifyDevice(width))
	if sess, ok := s.sessions.Get(id); ok {
		if !sess.sized && width > 0 {
			sess.Copy.SetVariant(variant)
			sess.sized = true
		}
		return sess, nil
	}

	clip := s.Clipboard
	if clip == nil {
		clip = &profile.MemoryClipboard{}
	}
	banner := profile.NewInstallBanner(profile.ScopedStateStore{Store: s.State, Prefix: id}, s.Prompter)
	banner.Logger = s.Logger
	if err := banner.Load(ctx); err != nil {
		return nil, err
	}
	sess := &Session{
		ID:        id,
		Copy:      s.newCopyState(clip, variant, res.Snapshot),
		Banner:    banner,
		Download:  profile.NewDownloadTracker(),
		Clipboard: clip,
		sized:     width > 0,
	}
	s.sessions.Add(id, sess)
	s.Logger.Debugf("session %s started (%s)", id, variant)
	return sess, nil
}

func (s *Service) newCopyState(clip profile.Clipboard, variant profile.CopyVariant, snap profile.Snapshot) *profile.CopyState {
	cs := profile.NewCopyState(clip, variant, profile.CopyFieldsFromSnapshot(snap))
	cs.Logger = s.Logger
	return cs
}

// Page composes both trees for a visitor at the given viewport width.
func (s *Service) Page(ctx context.Context, sessionID string, width int) (profile.Page, *Session, error) {
	sess, err := s.Session(ctx, sessionID, width)
	if err != nil {
		return profile.Page{}, nil, err
	}
	res, err := s.Load(ctx)
	if err != nil {
		return profile.Page{}, nil, err
	}
	return s.compose(res, sess, width), sess, nil
}

func (s *Service) compose(res profile.Result, sess *Session, width int) profile.Page {
	opts := profile.PageOptionsFromConfig(s.Config())
	opts.Width = width
	opts.HasError = res.HasError
	opts.InstallBannerOpen = sess.Banner.Eligible()
	opts.DownloadStage = sess.Download.Stage()
	opts.Copy = sess.Copy.View()
	return profile.ComposePage(res.Snapshot, opts)
}

// Snapshot returns the loaded profile.
func (s *Service) Snapshot(ctx context.Context) (profile.Result, error) {
	return s.Load(ctx)
}

// Export renders the export tree for a visitor. The visitor's download stage
// moves to downloading for the duration and settles when the exporter
// reports completion.
func (s *Service) Export(ctx context.Context, sessionID string, format profile.Format) (profile.ExportResult, error) {
	page, sess, err := s.Page(ctx, sessionID, 0)
	if err != nil {
		return profile.ExportResult{}, err
	}
	if err := sess.Download.Begin(); err != nil {
		return profile.ExportResult{}, err
	}

	req := profile.ExportRequest{Format: format}
	result, err := s.Exporter.Export(ctx, page, req, func(exportErr error) {
		sess.Download.Complete(exportErr == nil)
	})
	if s.History != nil {
		if _, herr := s.History.Record(ctx, req, result, err); herr != nil {
			s.Logger.Errorf("record export history: %v", herr)
		}
	}
	if err != nil {
		return profile.ExportResult{}, err
	}
	s.exports.Add(result.ID, result)
	return result, nil
}

// ExportResult returns a recent export by id.
func (s *Service) ExportResult(id string) (profile.ExportResult, error) {
	result, ok := s.exports.Get(id)
	if !ok {
		return profile.ExportResult{}, profile.NewError(profile.KindNotFound, "export "+id+" not found", nil)
	}
	return result, nil
}

// Exports lists recent export attempts, newest first.
func (s *Service) Exports(ctx context.Context, limit int) ([]profile.ExportRecord, error) {
	if s.History == nil {
		return nil, profile.NewError(profile.KindNotImpl, "export history not configured", nil)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.History.Recent(ctx, limit)
}

// Formats lists the export formats that have a renderer.
func (s *Service) Formats() []profile.Format {
	return s.Exporter.Formats()
}
