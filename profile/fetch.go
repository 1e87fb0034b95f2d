package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultFetchTimeout bounds a single retrieval.
const DefaultFetchTimeout = 10 * time.Second

// Source retrieves the raw JSON document stored under a key.
type Source interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// SourceFunc adapts a function into a Source.
type SourceFunc func(ctx context.Context, key string) ([]byte, error)

// Fetch implements Source.
func (fn SourceFunc) Fetch(ctx context.Context, key string) ([]byte, error) {
	return fn(ctx, key)
}

// FetchRequest pairs a source key with its fallback value.
type FetchRequest[T any] struct {
	Key     string
	Default T
}

// FetchResult is the settled outcome of one retrieval. On failure Data holds
// the default and Err the cause.
type FetchResult[T any] struct {
	Key      string
	Data     T
	HasError bool
	Err      error
}

type validator interface {
	Validate() error
}

// Fetcher issues retrievals against a Source.
type Fetcher struct {
	Source  Source
	Timeout time.Duration
	Logger  Logger
}

// NewFetcher creates a fetcher with the default timeout.
func NewFetcher(source Source) *Fetcher {
	return &Fetcher{
		Source:  source,
		Timeout: DefaultFetchTimeout,
		Logger:  NopLogger{},
	}
}

// FetchAll retrieves every request concurrently and returns results in
// request order. Failures substitute the request default and never abort the
// join.
func FetchAll[T any](ctx context.Context, f *Fetcher, reqs []FetchRequest[T]) []FetchResult[T] {
	results := make([]FetchResult[T], len(reqs))
	g, gCtx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			results[i] = retrieve(gCtx, f, req)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// AnyError reports whether any result failed.
func AnyError[T any](results []FetchResult[T]) bool {
	for _, res := range results {
		if res.HasError {
			return true
		}
	}
	return false
}

func retrieve[T any](ctx context.Context, f *Fetcher, req FetchRequest[T]) FetchResult[T] {
	data, err := f.fetchValue(ctx, req.Key, func(raw []byte) (any, error) {
		var value T
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, KeyError(KindValidation, req.Key, "decode "+req.Key, err)
		}
		if v, ok := any(value).(validator); ok {
			if err := v.Validate(); err != nil {
				return nil, err
			}
		}
		return value, nil
	})
	if err != nil {
		f.logger().Errorf("profile fetch %s failed, using default: %v", req.Key, err)
		return FetchResult[T]{Key: req.Key, Data: req.Default, HasError: true, Err: err}
	}
	return FetchResult[T]{Key: req.Key, Data: data.(T)}
}

type fetchOutcome struct {
	raw []byte
	err error
}

func (f *Fetcher) fetchValue(ctx context.Context, key string, decode func([]byte) (any, error)) (any, error) {
	if f == nil || f.Source == nil {
		return nil, NewError(KindInternal, "fetcher source is nil", nil)
	}

	rctx := ctx
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	// the source may ignore ctx, so the deadline is enforced here
	done := make(chan fetchOutcome, 1)
	go func() {
		raw, err := f.Source.Fetch(rctx, key)
		done <- fetchOutcome{raw: raw, err: err}
	}()

	var out fetchOutcome
	select {
	case out = <-done:
	case <-rctx.Done():
		return nil, KeyError(KindFromError(rctx.Err()), key, fmt.Sprintf("fetch %s", key), rctx.Err())
	}
	if out.err != nil {
		return nil, out.err
	}
	return decode(out.raw)
}

func (f *Fetcher) logger() Logger {
	if f == nil {
		return NopLogger{}
	}
	return loggerOrNop(f.Logger)
}

// FetchReport is the joined result of a full profile fetch.
type FetchReport struct {
	Header   FetchResult[Header]
	Download FetchResult[Downloads]
	Sections map[SectionKey]FetchResult[SectionInfo]
	HasError bool
}

// Snapshot assembles the snapshot from the settled results.
func (r FetchReport) Snapshot() Snapshot {
	sections := make(map[SectionKey]SectionInfo, len(r.Sections))
	for key, res := range r.Sections {
		sections[key] = res.Data
	}
	return NewSnapshot(r.Header.Data, sections, r.Download.Data)
}

// Failed lists the keys that fell back to defaults, in fetch order.
func (r FetchReport) Failed() []string {
	var keys []string
	if r.Header.HasError {
		keys = append(keys, KeyHeader)
	}
	if r.Download.HasError {
		keys = append(keys, KeyDownload)
	}
	for _, key := range RequiredSections {
		if res, ok := r.Sections[key]; ok && res.HasError {
			keys = append(keys, string(key))
		}
	}
	return keys
}

// FetchProfile retrieves the header, download messages and every required
// section in one fan-out, substituting defaults from cfg on failure.
func (f *Fetcher) FetchProfile(ctx context.Context, cfg ConfigStore) FetchReport {
	sectionReqs := make([]FetchRequest[SectionInfo], len(RequiredSections))
	for i, key := range RequiredSections {
		sectionReqs[i] = FetchRequest[SectionInfo]{Key: string(key), Default: cfg.DefaultSection(key)}
	}

	var (
		header   FetchResult[Header]
		download FetchResult[Downloads]
		sections = make([]FetchResult[SectionInfo], len(sectionReqs))
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		header = retrieve(gCtx, f, FetchRequest[Header]{Key: KeyHeader, Default: cfg.Header})
		return nil
	})
	g.Go(func() error {
		download = retrieve(gCtx, f, FetchRequest[Downloads]{Key: KeyDownload, Default: cfg.Download.clone()})
		return nil
	})
	for i, req := range sectionReqs {
		g.Go(func() error {
			sections[i] = retrieve(gCtx, f, req)
			return nil
		})
	}
	_ = g.Wait()

	report := FetchReport{
		Header:   header,
		Download: download,
		Sections: make(map[SectionKey]FetchResult[SectionInfo], len(sections)),
		HasError: header.HasError || download.HasError || AnyError(sections),
	}
	for _, res := range sections {
		report.Sections[SectionKey(res.Key)] = res
	}
	f.logger().Debugf("profile fetch settled: %d keys, failed=%v", len(sections)+2, report.Failed())
	return report
}
