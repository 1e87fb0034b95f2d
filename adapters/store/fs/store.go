package storefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-profile/profile"
)

const metaSuffix = ".meta.json"

// Store keeps export artifacts on disk. Each artifact has a sidecar
// <name>.meta.json holding its profile.ArtifactMeta.
type Store struct {
	Root string
	Now  func() time.Time
}

var _ profile.ArtifactStore = (*Store)(nil)

// NewStore creates a filesystem-backed artifact store.
func NewStore(root string) *Store {
	return &Store{Root: root, Now: time.Now}
}

// Put writes the artifact atomically through a temp file in the target dir.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, meta profile.ArtifactMeta) (profile.ArtifactRef, error) {
	pathOnDisk, err := s.target(ctx, key)
	if err != nil {
		return profile.ArtifactRef{}, err
	}

	dir := filepath.Dir(pathOnDisk)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return profile.ArtifactRef{}, err
	}

	size, err := writeAtomic(dir, ".artifact-*", pathOnDisk, func(w io.Writer) (int64, error) {
		return io.Copy(w, r)
	})
	if err != nil {
		return profile.ArtifactRef{}, err
	}

	meta.Size = size
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = s.now()
	}
	if meta.ContentType == "" {
		meta.ContentType = mime.TypeByExtension(filepath.Ext(pathOnDisk))
	}
	if meta.Filename == "" {
		meta.Filename = filepath.Base(pathOnDisk)
	}

	payload, err := json.Marshal(meta)
	if err != nil {
		return profile.ArtifactRef{}, err
	}
	if _, err := writeAtomic(dir, ".meta-*", pathOnDisk+metaSuffix, func(w io.Writer) (int64, error) {
		n, err := w.Write(payload)
		return int64(n), err
	}); err != nil {
		return profile.ArtifactRef{}, err
	}

	return profile.ArtifactRef{Key: key, Meta: meta}, nil
}

// Open returns the artifact and its metadata. Missing sidecars are rebuilt
// from the file itself.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, profile.ArtifactMeta, error) {
	pathOnDisk, err := s.target(ctx, key)
	if err != nil {
		return nil, profile.ArtifactMeta{}, err
	}

	file, err := os.Open(pathOnDisk)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, profile.ArtifactMeta{}, profile.NewError(profile.KindNotFound, fmt.Sprintf("artifact %q not found", key), err)
		}
		return nil, profile.ArtifactMeta{}, err
	}

	meta := readMeta(pathOnDisk)
	if meta.ContentType == "" {
		meta.ContentType = mime.TypeByExtension(filepath.Ext(pathOnDisk))
	}
	if meta.Filename == "" {
		meta.Filename = filepath.Base(pathOnDisk)
	}
	if meta.Size == 0 {
		if info, err := file.Stat(); err == nil {
			meta.Size = info.Size()
			if meta.CreatedAt.IsZero() {
				meta.CreatedAt = info.ModTime()
			}
		}
	}
	return file, meta, nil
}

// Delete removes an artifact and its sidecar. Missing artifacts are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	pathOnDisk, err := s.target(ctx, key)
	if err != nil {
		return err
	}
	_ = os.Remove(pathOnDisk)
	_ = os.Remove(pathOnDisk + metaSuffix)
	return nil
}

// Prune deletes artifacts created before now-maxAge and returns their keys.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) ([]string, error) {
	if s == nil || s.Root == "" {
		return nil, profile.NewError(profile.KindValidation, "store root is required", nil)
	}
	if maxAge <= 0 {
		return nil, profile.NewError(profile.KindValidation, "prune age must be positive", nil)
	}
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return nil, err
	}
	cutoff := s.now().Add(-maxAge)

	var pruned []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, metaSuffix) || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		created := readMeta(p).CreatedAt
		if created.IsZero() {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			created = info.ModTime()
		}
		if !created.Before(cutoff) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		_ = os.Remove(p)
		_ = os.Remove(p + metaSuffix)
		pruned = append(pruned, filepath.ToSlash(rel))
		return nil
	})
	return pruned, err
}

func (s *Store) target(ctx context.Context, key string) (string, error) {
	if s == nil {
		return "", profile.NewError(profile.KindInternal, "store is nil", nil)
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	if s.Root == "" {
		return "", profile.NewError(profile.KindValidation, "store root is required", nil)
	}
	if key == "" {
		return "", profile.NewError(profile.KindValidation, "artifact key is required", nil)
	}
	return resolvePath(s.Root, key)
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func resolvePath(rootDir, key string) (string, error) {
	rel := strings.TrimPrefix(path.Clean("/"+key), "/")
	if rel == "" || rel == "." || strings.HasSuffix(rel, metaSuffix) {
		return "", profile.NewError(profile.KindValidation, "invalid artifact key", nil)
	}

	root, err := filepath.Abs(rootDir)
	if err != nil {
		return "", err
	}
	target := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", profile.NewError(profile.KindValidation, "artifact key escapes root", nil)
	}
	return target, nil
}

func writeAtomic(dir, pattern, dest string, write func(io.Writer) (int64, error)) (int64, error) {
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	n, err := write(tmp)
	if err != nil {
		return 0, err
	}
	if err := tmp.Sync(); err != nil {
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	return n, os.Rename(tmp.Name(), dest)
}

func readMeta(pathOnDisk string) profile.ArtifactMeta {
	var meta profile.ArtifactMeta
	data, err := os.ReadFile(pathOnDisk + metaSuffix)
	if err != nil {
		return meta
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return profile.ArtifactMeta{}
	}
	return meta
}
