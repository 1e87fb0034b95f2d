package command

import (
	"context"
	"time"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
)

// DefaultArtifactMaxAge is how long stored exports are kept.
const DefaultArtifactMaxAge = 7 * 24 * time.Hour

// Pruner removes stored artifacts older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, maxAge time.Duration) ([]string, error)
}

// PruneArtifactsHandler removes expired export artifacts. It runs on demand,
// from cron, or from the CLI.
type PruneArtifactsHandler struct {
	Store  Pruner
	MaxAge time.Duration
	Config gcmd.HandlerConfig
}

func NewPruneArtifactsHandler(store Pruner, maxAge time.Duration) *PruneArtifactsHandler {
	return &PruneArtifactsHandler{
		Store:  store,
		MaxAge: maxAge,
		Config: gcmd.HandlerConfig{Expression: "0 * * * *"},
	}
}

func (h *PruneArtifactsHandler) Execute(ctx context.Context, msg PruneArtifacts) error {
	if h == nil || h.Store == nil {
		return errors.New("artifact store is required", errors.CategoryInternal).
			WithTextCode("STORE_REQUIRED")
	}
	maxAge := msg.MaxAge
	if maxAge == 0 {
		maxAge = h.MaxAge
	}
	if maxAge == 0 {
		maxAge = DefaultArtifactMaxAge
	}
	removed, err := h.Store.Prune(ctx, maxAge)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = removed
	}
	if res := gcmd.ResultFromContext[[]string](ctx); res != nil {
		res.Store(removed)
	}
	return nil
}

// CronHandler prunes with the configured max age.
func (h *PruneArtifactsHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), PruneArtifacts{})
	}
}

// CronOptions returns cron configuration.
func (h *PruneArtifactsHandler) CronOptions() gcmd.HandlerConfig {
	if h == nil {
		return gcmd.HandlerConfig{}
	}
	return h.Config
}

// CLIHandler exposes pruning via CLI.
func (h *PruneArtifactsHandler) CLIHandler() any {
	return &pruneCLI{handler: h}
}

// CLIOptions describes prune CLI metadata.
func (h *PruneArtifactsHandler) CLIOptions() gcmd.CLIConfig {
	return gcmd.CLIConfig{
		Path:        []string{"artifacts-prune"},
		Description: "Remove expired export artifacts",
		Group:       "profile",
	}
}

type pruneCLI struct {
	handler *PruneArtifactsHandler
	MaxAge  time.Duration `kong:"name='max-age',help='Remove artifacts older than this'"`
}

func (c *pruneCLI) Run() error {
	if c == nil || c.handler == nil {
		return errors.New("prune handler is required", errors.CategoryInternal).
			WithTextCode("PRUNE_HANDLER_REQUIRED")
	}
	return c.handler.Execute(context.Background(), PruneArtifacts{MaxAge: c.MaxAge})
}
