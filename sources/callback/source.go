package profilecallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-profile/profile"
)

// Func returns the raw JSON document for a key.
type Func func(ctx context.Context, key string) ([]byte, error)

// Source wraps a callback function as a profile.Source.
type Source struct {
	fn Func
}

var _ profile.Source = (*Source)(nil)

// NewSource creates a callback-based source.
func NewSource(fn Func) *Source {
	return &Source{fn: fn}
}

// Fetch delegates to the configured callback.
func (s *Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	if s == nil || s.fn == nil {
		return nil, profile.NewError(profile.KindValidation, "callback source requires a function", nil)
	}
	return s.fn(ctx, key)
}

// Values serves in-memory documents. Each value is marshalled to JSON on
// fetch; []byte and json.RawMessage are served as is.
type Values map[string]any

func (v Values) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, ok := v[key]
	if !ok {
		return nil, profile.NewError(profile.KindNotFound, fmt.Sprintf("document %q not found", key), nil)
	}
	switch doc := value.(type) {
	case []byte:
		return doc, nil
	case json.RawMessage:
		return doc, nil
	}
	return json.Marshal(value)
}

// FromConfig serves the header, download and section defaults of cfg.
func FromConfig(cfg profile.ConfigStore) Values {
	values := Values{
		profile.KeyHeader:   cfg.Header,
		profile.KeyDownload: cfg.Download,
	}
	for key, info := range cfg.Sections {
		values[string(key)] = info
	}
	return values
}

// Chain asks each source in turn and returns the first document found. Only
// not_found errors fall through to the next source.
type Chain []profile.Source

func (c Chain) Fetch(ctx context.Context, key string) ([]byte, error) {
	if len(c) == 0 {
		return nil, profile.NewError(profile.KindValidation, "source chain is empty", nil)
	}
	var errs []error
	for _, src := range c {
		if src == nil {
			continue
		}
		data, err := src.Fetch(ctx, key)
		if err == nil {
			return data, nil
		}
		if profile.KindFromError(err) != profile.KindNotFound {
			return nil, err
		}
		errs = append(errs, err)
	}
	return nil, profile.NewError(profile.KindNotFound, fmt.Sprintf("document %q not found in any source", key), errors.Join(errs...))
}
