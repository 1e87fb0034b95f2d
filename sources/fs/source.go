package profilefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/goliatone/go-profile/profile"
	"gopkg.in/yaml.v3"
)

// Source reads one document per key from a directory of an fs.FS. It looks
// for <key>.json first, then <key>.yaml and <key>.yml; YAML documents are
// served as JSON.
type Source struct {
	FS  fs.FS
	Dir string
}

var _ profile.Source = Source{}

// NewSource creates a source rooted at dir inside fsys.
func NewSource(fsys fs.FS, dir string) Source {
	return Source{FS: fsys, Dir: dir}
}

func (s Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	if s.FS == nil {
		return nil, profile.NewError(profile.KindValidation, "fs source requires a filesystem", nil)
	}
	if key == "" || !fs.ValidPath(key) || path.Base(key) != key {
		return nil, profile.NewError(profile.KindValidation, fmt.Sprintf("invalid document key %q", key), nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		data, err := fs.ReadFile(s.FS, path.Join(dir, key+ext))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, profile.NewError(profile.KindInternal, fmt.Sprintf("read document %q", key), err)
		}
		if ext == ".json" {
			return data, nil
		}
		return yamlToJSON(key, data)
	}
	return nil, profile.NewError(profile.KindNotFound, fmt.Sprintf("document %q not found", key), nil)
}

func yamlToJSON(key string, data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, profile.NewError(profile.KindValidation, fmt.Sprintf("document %q is not valid YAML", key), err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, profile.NewError(profile.KindValidation, fmt.Sprintf("document %q has non-JSON values", key), err)
	}
	return out, nil
}
