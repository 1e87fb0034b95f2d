package profilefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-profile/profile"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"content/header.json": {Data: []byte(`{"name":"Jane Doe","shortDesc":"Engineer"}`)},
		"content/skills.yaml": {Data: []byte("title: Skills\ninfo:\n  - label: Go\n    info: daily\n    rating: 5\n")},
		"content/broken.yml":  {Data: []byte("title: [unterminated")},
	}
}

func TestSource_FetchJSON(t *testing.T) {
	data, err := NewSource(testFS(), "content").Fetch(context.Background(), "header")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(data) != `{"name":"Jane Doe","shortDesc":"Engineer"}` {
		t.Fatalf("json must be served verbatim, got %s", data)
	}
}

func TestSource_FetchYAMLThroughFetcher(t *testing.T) {
	fetcher := profile.NewFetcher(NewSource(testFS(), "content"))
	results := profile.FetchAll(context.Background(), fetcher, []profile.FetchRequest[profile.SectionInfo]{
		{Key: "skills"},
	})
	if results[0].HasError {
		t.Fatalf("fetch: %v", results[0].Err)
	}
	info := results[0].Data.Info
	if info.Kind != profile.PayloadSkills || len(info.Skills) != 1 || info.Skills[0].Rating != 5 {
		t.Fatalf("expected legacy skills payload, got %+v", info)
	}
}

func TestSource_Errors(t *testing.T) {
	src := NewSource(testFS(), "content")
	cases := []struct {
		key  string
		kind profile.ErrorKind
	}{
		{"missing", profile.KindNotFound},
		{"broken", profile.KindValidation},
		{"../header", profile.KindValidation},
		{"", profile.KindValidation},
	}
	for _, tc := range cases {
		if _, err := src.Fetch(context.Background(), tc.key); profile.KindFromError(err) != tc.kind {
			t.Fatalf("key %q: expected %s, got %v", tc.key, tc.kind, err)
		}
	}
	if _, err := (Source{}).Fetch(context.Background(), "header"); profile.KindFromError(err) != profile.KindValidation {
		t.Fatalf("expected validation error without filesystem")
	}
}

func TestSource_DirFS(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "education.json"), []byte(`{"title":"Education","info":"BSc"}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	data, err := NewSource(os.DirFS(dir), "").Fetch(context.Background(), "education")
	if err != nil || len(data) == 0 {
		t.Fatalf("fetch from dir: %v", err)
	}
}
