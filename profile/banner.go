package profile

import (
	"context"
	"encoding/json"
	"sync"
)

// Persisted banner keys.
const (
	KeyInstallBannerOpen = "isInstallBannerOpen"
	KeyPWAInstalled      = "hasPWAInstalled"
)

// StateStore persists small string values across sessions.
type StateStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Prompter is the platform install prompt.
type Prompter interface {
	Supported() bool
	Prompt(ctx context.Context) (bool, error)
}

// StaticPrompter returns a fixed answer.
type StaticPrompter struct {
	Support bool
	Accept  bool
	Err     error
}

// Supported implements Prompter.
func (p StaticPrompter) Supported() bool { return p.Support }

// Prompt implements Prompter.
func (p StaticPrompter) Prompt(ctx context.Context) (bool, error) {
	_ = ctx
	return p.Accept, p.Err
}

// BannerState is the persisted banner decision. A nil IsOpen means the
// visitor never decided.
type BannerState struct {
	IsOpen       *bool `json:"isOpen"`
	HasInstalled bool  `json:"hasInstalled"`
}

// InstallBanner decides whether to offer the install prompt.
type InstallBanner struct {
	Store    StateStore
	Prompter Prompter
	Logger   Logger

	mu        sync.Mutex
	state     BannerState
	loaded    bool
	prompting bool
}

// NewInstallBanner creates a banner controller.
func NewInstallBanner(store StateStore, prompter Prompter) *InstallBanner {
	return &InstallBanner{
		Store:    store,
		Prompter: prompter,
		Logger:   NopLogger{},
	}
}

// Load reads the persisted flags. Only the first call reads the store.
func (b *InstallBanner) Load(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		return nil
	}
	b.loaded = true
	if b.Store == nil {
		return nil
	}

	var state BannerState
	raw, ok, err := b.Store.Get(ctx, KeyInstallBannerOpen)
	if err != nil {
		return NewError(KindInternal, "read banner state", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &state.IsOpen); err != nil {
			loggerOrNop(b.Logger).Errorf("ignoring malformed %s value %q", KeyInstallBannerOpen, raw)
			state.IsOpen = nil
		}
	}
	raw, ok, err = b.Store.Get(ctx, KeyPWAInstalled)
	if err != nil {
		return NewError(KindInternal, "read install state", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &state.HasInstalled); err != nil {
			loggerOrNop(b.Logger).Errorf("ignoring malformed %s value %q", KeyPWAInstalled, raw)
			state.HasInstalled = false
		}
	}
	b.state = state
	return nil
}

// State returns a copy of the current flags.
func (b *InstallBanner) State() BannerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.copyState()
}

func (b *InstallBanner) copyState() BannerState {
	out := BannerState{HasInstalled: b.state.HasInstalled}
	if b.state.IsOpen != nil {
		open := *b.state.IsOpen
		out.IsOpen = &open
	}
	return out
}

// Eligible reports whether the banner should be shown.
func (b *InstallBanner) Eligible() bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.eligible()
}

func (b *InstallBanner) eligible() bool {
	if b.state.HasInstalled {
		return false
	}
	if b.Prompter == nil || !b.Prompter.Supported() {
		return false
	}
	return b.state.IsOpen == nil || *b.state.IsOpen
}

// Install runs the platform prompt. Prompt failure or cancellation leaves the
// state unchanged and is not returned; only persistence errors are. The lock is
// not held while the prompt is open, and a second Install during that time
// returns false.
func (b *InstallBanner) Install(ctx context.Context) (bool, error) {
	b.mu.Lock()
	if b.prompting || b.Prompter == nil || !b.Prompter.Supported() {
		b.mu.Unlock()
		return false, nil
	}
	b.prompting = true
	prompter := b.Prompter
	b.mu.Unlock()

	accepted, err := prompter.Prompt(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.prompting = false
	if err != nil {
		loggerOrNop(b.Logger).Infof("install prompt failed: %v", err)
		return false, nil
	}
	if !accepted {
		loggerOrNop(b.Logger).Debugf("install prompt dismissed")
		return false, nil
	}

	closed := false
	b.state = BannerState{IsOpen: &closed, HasInstalled: true}
	if err := b.persist(ctx, KeyInstallBannerOpen, false); err != nil {
		return true, err
	}
	if err := b.persist(ctx, KeyPWAInstalled, true); err != nil {
		return true, err
	}
	return true, nil
}

// Dismiss closes the banner and persists the decision.
func (b *InstallBanner) Dismiss(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	closed := false
	b.state.IsOpen = &closed
	return b.persist(ctx, KeyInstallBannerOpen, false)
}

func (b *InstallBanner) persist(ctx context.Context, key string, value bool) error {
	if b.Store == nil {
		return nil
	}
	raw, _ := json.Marshal(value)
	if err := b.Store.Set(ctx, key, string(raw)); err != nil {
		return NewError(KindInternal, "persist "+key, err)
	}
	return nil
}

// ScopedStateStore prefixes keys so several visitors can share one store.
type ScopedStateStore struct {
	Store  StateStore
	Prefix string
}

// Get implements StateStore.
func (s ScopedStateStore) Get(ctx context.Context, key string) (string, bool, error) {
	return s.Store.Get(ctx, s.key(key))
}

// Set implements StateStore.
func (s ScopedStateStore) Set(ctx context.Context, key, value string) error {
	return s.Store.Set(ctx, s.key(key), value)
}

func (s ScopedStateStore) key(key string) string {
	if s.Prefix == "" {
		return key
	}
	return s.Prefix + ":" + key
}
