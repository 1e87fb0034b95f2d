package profile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryStateStore keeps persisted flags in memory (test/dev only).
type MemoryStateStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStateStore creates an empty state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{values: make(map[string]string)}
}

// Get implements StateStore.
func (s *MemoryStateStore) Get(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

// Set implements StateStore.
func (s *MemoryStateStore) Set(ctx context.Context, key, value string) error {
	_ = ctx
	if key == "" {
		return NewError(KindValidation, "state key is required", nil)
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// MemoryArtifactStore stores artifacts in memory (test/dev only).
type MemoryArtifactStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data []byte
	meta ArtifactMeta
}

// NewMemoryArtifactStore creates an in-memory artifact store.
func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{objects: make(map[string]memoryObject)}
}

// Put stores an artifact.
func (s *MemoryArtifactStore) Put(ctx context.Context, key string, r io.Reader, meta ArtifactMeta) (ArtifactRef, error) {
	_ = ctx
	if key == "" {
		return ArtifactRef{}, NewError(KindValidation, "artifact key is required", nil)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ArtifactRef{}, err
	}
	meta.Size = int64(len(data))
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.objects[key] = memoryObject{data: data, meta: meta}
	s.mu.Unlock()

	return ArtifactRef{Key: key, Meta: meta}, nil
}

// Open reads an artifact.
func (s *MemoryArtifactStore) Open(ctx context.Context, key string) (io.ReadCloser, ArtifactMeta, error) {
	_ = ctx
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ArtifactMeta{}, NewError(KindNotFound, fmt.Sprintf("artifact %q not found", key), nil)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.meta, nil
}

// Delete removes an artifact.
func (s *MemoryArtifactStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// MemoryClipboard records the last copied text.
type MemoryClipboard struct {
	mu      sync.Mutex
	last    string
	history []string
}

// WriteText implements Clipboard.
func (c *MemoryClipboard) WriteText(ctx context.Context, text string) error {
	_ = ctx
	c.mu.Lock()
	c.last = text
	c.history = append(c.history, text)
	c.mu.Unlock()
	return nil
}

// Last returns the most recent text.
func (c *MemoryClipboard) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// History returns every write in order.
func (c *MemoryClipboard) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.history...)
}
