package profilecallback

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/goliatone/go-profile/profile"
)

func TestSource_FetchCallsFunc(t *testing.T) {
	called := false
	source := NewSource(func(ctx context.Context, key string) ([]byte, error) {
		if key != "header" {
			t.Fatalf("unexpected key: %q", key)
		}
		called = true
		return []byte(`{"name":"Jane"}`), nil
	})

	data, err := source.Fetch(context.Background(), "header")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(data) != `{"name":"Jane"}` || !called {
		t.Fatalf("expected callback document, got %s", data)
	}
}

func TestSource_NilFunc(t *testing.T) {
	if _, err := NewSource(nil).Fetch(context.Background(), "header"); profile.KindFromError(err) != profile.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValues_Fetch(t *testing.T) {
	values := Values{
		"header":  profile.Header{Name: "Jane"},
		"raw":     []byte(`"text"`),
		"rawjson": json.RawMessage(`[1]`),
	}
	data, err := values.Fetch(context.Background(), "header")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	var header profile.Header
	if err := json.Unmarshal(data, &header); err != nil || header.Name != "Jane" {
		t.Fatalf("expected marshalled header, got %s", data)
	}
	if data, _ := values.Fetch(context.Background(), "raw"); string(data) != `"text"` {
		t.Fatalf("bytes must pass through, got %s", data)
	}
	if _, err := values.Fetch(context.Background(), "missing"); profile.KindFromError(err) != profile.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestChain_FallsThroughNotFound(t *testing.T) {
	primary := Values{"header": profile.Header{Name: "Primary"}}
	fallback := Values{"header": profile.Header{Name: "Fallback"}, "skills": "x"}
	chain := Chain{primary, fallback}

	data, err := chain.Fetch(context.Background(), "header")
	if err != nil || !json.Valid(data) {
		t.Fatalf("fetch: %v", err)
	}
	var header profile.Header
	_ = json.Unmarshal(data, &header)
	if header.Name != "Primary" {
		t.Fatalf("expected first source to win, got %s", header.Name)
	}
	if data, err := chain.Fetch(context.Background(), "skills"); err != nil || string(data) != `"x"` {
		t.Fatalf("expected fallback document, got %s %v", data, err)
	}
	if _, err := chain.Fetch(context.Background(), "links"); profile.KindFromError(err) != profile.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestChain_StopsOnHardFailure(t *testing.T) {
	boom := errors.New("connection refused")
	reached := false
	chain := Chain{
		NewSource(func(context.Context, string) ([]byte, error) { return nil, boom }),
		NewSource(func(context.Context, string) ([]byte, error) { reached = true; return nil, nil }),
	}
	if _, err := chain.Fetch(context.Background(), "header"); !errors.Is(err, boom) || reached {
		t.Fatalf("expected hard failure to stop the chain, got %v reached=%v", err, reached)
	}
}

func TestFromConfig_LoadsWithoutErrors(t *testing.T) {
	cfg, err := profile.DefaultConfigStore()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	agg := profile.NewAggregator(profile.NewFetcher(FromConfig(cfg)), cfg)
	res, err := agg.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.HasError || res.Snapshot.Header().Name != "Jane Doe" {
		t.Fatalf("expected a clean load of the defaults, got %+v", res)
	}
}
