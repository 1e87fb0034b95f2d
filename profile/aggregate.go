package profile

import (
	"context"
	"sync"
)

// LoadState is the aggregator lifecycle.
type LoadState string

const (
	StateLoading LoadState = "loading"
	StateReady   LoadState = "ready"
)

// Result is the outcome of a completed load.
type Result struct {
	Snapshot Snapshot
	HasError bool
	Failed   []string
}

// Aggregator runs the profile fetch once and gates readers until it settles.
type Aggregator struct {
	Fetcher *Fetcher
	Config  ConfigStore
	Logger  Logger

	once     sync.Once
	ready    chan struct{}
	mu       sync.Mutex
	result   Result
	isReady  bool
	watchers []func(Result)
}

// NewAggregator creates an aggregator in the loading state.
func NewAggregator(fetcher *Fetcher, cfg ConfigStore) *Aggregator {
	return &Aggregator{
		Fetcher: fetcher,
		Config:  cfg,
		Logger:  NopLogger{},
		ready:   make(chan struct{}),
	}
}

// Load starts the fetch on the first call and waits for it. The fetch runs
// detached from ctx; ctx only bounds this caller's wait. Later callers receive
// the same result; there is no retry.
func (a *Aggregator) Load(ctx context.Context) (Result, error) {
	if a == nil {
		return Result{}, NewError(KindInternal, "aggregator is nil", nil)
	}
	a.once.Do(func() {
		go a.run(context.WithoutCancel(ctx))
	})
	return a.Wait(ctx)
}

func (a *Aggregator) run(ctx context.Context) {
	report := a.Fetcher.FetchProfile(ctx, a.Config)
	res := Result{
		Snapshot: report.Snapshot(),
		HasError: report.HasError,
		Failed:   report.Failed(),
	}
	if res.HasError {
		loggerOrNop(a.Logger).Errorf("profile loaded with fallback content for %v", res.Failed)
	} else {
		loggerOrNop(a.Logger).Infof("profile loaded")
	}

	a.mu.Lock()
	a.result = res
	a.isReady = true
	watchers := a.watchers
	a.watchers = nil
	a.mu.Unlock()

	// Observers run before waiters are released.
	for _, fn := range watchers {
		fn(res)
	}
	close(a.readyChan())
}

// Wait blocks until the load completes or ctx ends.
func (a *Aggregator) Wait(ctx context.Context) (Result, error) {
	select {
	case <-a.readyChan():
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.result, nil
	case <-ctx.Done():
		return Result{}, NewError(KindFromError(ctx.Err()), "wait for profile", ctx.Err())
	}
}

// Ready is closed once the snapshot is available.
func (a *Aggregator) Ready() <-chan struct{} {
	return a.readyChan()
}

// State reports loading or ready.
func (a *Aggregator) State() LoadState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.isReady {
		return StateReady
	}
	return StateLoading
}

// Snapshot returns the snapshot once ready.
func (a *Aggregator) Snapshot() (Snapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.isReady {
		return Snapshot{}, false
	}
	return a.result.Snapshot, true
}

// HasError reports the aggregate error flag. False while loading.
func (a *Aggregator) HasError() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isReady && a.result.HasError
}

// OnReady registers fn to run once when loading completes. If the load has
// already completed fn runs immediately.
func (a *Aggregator) OnReady(fn func(Result)) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	if a.isReady {
		res := a.result
		a.mu.Unlock()
		fn(res)
		return
	}
	a.watchers = append(a.watchers, fn)
	a.mu.Unlock()
}

func (a *Aggregator) readyChan() chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ready == nil {
		a.ready = make(chan struct{})
	}
	return a.ready
}
