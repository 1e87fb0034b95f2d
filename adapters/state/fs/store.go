package statefs

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goliatone/go-profile/profile"
)

// Store keeps visitor flags in a single JSON object on disk. Every Set
// rewrites the file.
type Store struct {
	Path string

	mu sync.Mutex
}

var _ profile.StateStore = (*Store)(nil)

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.check(ctx, key); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	raw, ok := values[key]
	if !ok {
		return "", false, nil
	}
	return string(raw), true, nil
}

// Set stores value verbatim when it is valid JSON and as a JSON string
// otherwise.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	raw := json.RawMessage(value)
	if !json.Valid(raw) {
		quoted, err := json.Marshal(value)
		if err != nil {
			return err
		}
		raw = quoted
	}
	values[key] = raw
	return s.write(values)
}

func (s *Store) check(ctx context.Context, key string) error {
	if s == nil || s.Path == "" {
		return profile.NewError(profile.KindValidation, "state file path is required", nil)
	}
	if key == "" {
		return profile.NewError(profile.KindValidation, "state key is required", nil)
	}
	if ctx != nil {
		return ctx.Err()
	}
	return nil
}

func (s *Store) read() (map[string]json.RawMessage, error) {
	values := make(map[string]json.RawMessage)
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return values, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, profile.NewError(profile.KindValidation, "state file is not a JSON object", err)
	}
	return values, nil
}

func (s *Store) write(values map[string]json.RawMessage) error {
	payload, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(payload); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}
