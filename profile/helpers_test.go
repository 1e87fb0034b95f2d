package profile

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

func mustDefaults(t *testing.T) ConfigStore {
	t.Helper()
	cfg, err := DefaultConfigStore()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	return cfg
}

// fixtureSource serves every key from cfg, failing the keys in fail.
type fixtureSource struct {
	mu    sync.Mutex
	docs  map[string][]byte
	fail  map[string]error
	calls map[string]int
}

func newFixtureSource(t *testing.T, cfg ConfigStore) *fixtureSource {
	t.Helper()
	docs := map[string][]byte{}
	put := func(key string, v any) {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %s: %v", key, err)
		}
		docs[key] = raw
	}
	put(KeyHeader, cfg.Header)
	put(KeyDownload, cfg.Download)
	for key, info := range cfg.Sections {
		put(string(key), info)
	}
	return &fixtureSource{docs: docs, fail: map[string]error{}, calls: map[string]int{}}
}

func (s *fixtureSource) Fetch(ctx context.Context, key string) ([]byte, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[key]++
	if err := s.fail[key]; err != nil {
		return nil, err
	}
	raw, ok := s.docs[key]
	if !ok {
		return nil, errors.New("missing " + key)
	}
	return raw, nil
}

func (s *fixtureSource) set(key string, raw string) {
	s.mu.Lock()
	s.docs[key] = []byte(raw)
	s.mu.Unlock()
}

func (s *fixtureSource) failKey(key string) {
	s.mu.Lock()
	s.fail[key] = errors.New("unreachable " + key)
	s.mu.Unlock()
}

func (s *fixtureSource) callCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

func loadSnapshot(t *testing.T, cfg ConfigStore, src Source) (Snapshot, bool) {
	t.Helper()
	report := NewFetcher(src).FetchProfile(context.Background(), cfg)
	return report.Snapshot(), report.HasError
}
