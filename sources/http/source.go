package profilehttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-profile/profile"
)

// DefaultMaxBytes caps a single section document.
const DefaultMaxBytes int64 = 4 * 1024 * 1024

// Source fetches GET <BaseURL>/<key>.json. Any non-2xx response is a failed
// retrieval.
type Source struct {
	BaseURL  string
	Client   *http.Client
	Header   http.Header
	MaxBytes int64
}

var _ profile.Source = (*Source)(nil)

// NewSource creates a source for the documents under baseURL.
func NewSource(baseURL string) *Source {
	return &Source{BaseURL: baseURL, Client: http.DefaultClient}
}

func (s *Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	if s == nil || strings.TrimSpace(s.BaseURL) == "" {
		return nil, profile.NewError(profile.KindValidation, "http source requires a base URL", nil)
	}
	if key == "" {
		return nil, profile.NewError(profile.KindValidation, "document key is required", nil)
	}

	endpoint := strings.TrimRight(s.BaseURL, "/") + "/" + url.PathEscape(key) + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, profile.NewError(profile.KindValidation, "build request for "+key, err)
	}
	for name, values := range s.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, profile.NewError(profile.KindInternal, "request "+key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		kind := profile.KindInternal
		if resp.StatusCode == http.StatusNotFound {
			kind = profile.KindNotFound
		}
		return nil, profile.NewError(kind, fmt.Sprintf("fetch %s: %s", key, resp.Status), nil)
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, profile.NewError(profile.KindInternal, "read "+key, err)
	}
	if int64(len(data)) > limit {
		return nil, profile.NewError(profile.KindValidation, fmt.Sprintf("document %s exceeds %d bytes", key, limit), nil)
	}
	return data, nil
}
