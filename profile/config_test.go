package profile

import (
	"context"
	"strings"
	"testing"

	errorslib "github.com/goliatone/go-errors"
)

func TestDefaultConfigStore(t *testing.T) {
	cfg := mustDefaults(t)
	if cfg.Header.Name == "" {
		t.Fatalf("expected header name")
	}
	want := map[SectionKey]PayloadKind{
		SectionAboutMe:       PayloadText,
		SectionDetails:       PayloadDetails,
		SectionEducation:     PayloadText,
		SectionOrganizations: PayloadOrganizations,
		SectionSkills:        PayloadSkills,
		SectionExperience:    PayloadProjects,
		SectionLinks:         PayloadLinks,
	}
	for key, kind := range want {
		if got := cfg.Sections[key].Info.Kind; got != kind {
			t.Fatalf("section %s: expected %s, got %s", key, kind, got)
		}
	}
	for _, stage := range []DownloadStage{StageDownload, StageDownloading, StageDownloaded} {
		if cfg.Download[stage].Message == "" {
			t.Fatalf("missing download message for %s", stage)
		}
	}
	if cfg.PWA.Yes == "" || cfg.PWA.No == "" {
		t.Fatalf("expected pwa labels, got %+v", cfg.PWA)
	}
	if len(cfg.ErrorLines) == 0 {
		t.Fatalf("expected error lines")
	}
}

func TestLoadConfigStoreRejectsMissingSection(t *testing.T) {
	doc := `
header:
  name: A
download:
  download:
    message: Download
sections:
  about-me:
    title: About
    info: hi
`
	_, err := LoadConfigStore(strings.NewReader(doc))
	if KindFromError(err) != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadConfigStoreLegacySections(t *testing.T) {
	cfg := mustDefaults(t)
	doc := `
header:
  name: A
download:
  download:
    message: Download
sections:
  skills:
    title: Skills
    info:
      - label: Go
        info: daily
`
	for _, key := range RequiredSections {
		if key == SectionSkills {
			continue
		}
		doc += "  " + string(key) + ":\n    title: " + cfg.Sections[key].Title + "\n    info: text\n"
	}
	loaded, err := LoadConfigStore(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Sections[SectionSkills].Info.Kind != PayloadSkills {
		t.Fatalf("legacy skills should classify as skills")
	}
}

func TestAsGoErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		category errorslib.Category
		code     string
	}{
		{NewError(KindValidation, "bad input", nil), errorslib.CategoryValidation, "validation"},
		{NewError(KindNotFound, "missing", nil), errorslib.CategoryNotFound, "not_found"},
		{context.DeadlineExceeded, errorslib.CategoryOperation, "timeout"},
		{context.Canceled, errorslib.CategoryOperation, "canceled"},
		{NewError(KindNotImpl, "later", nil), errorslib.CategoryOperation, "not_implemented"},
		{NewError(KindInternal, "boom", nil), errorslib.CategoryInternal, "internal"},
	}

	for _, tc := range cases {
		mapped := AsGoError(tc.err)
		if mapped == nil {
			t.Fatalf("expected mapping for %v", tc.err)
		}
		if mapped.Category != tc.category {
			t.Fatalf("expected category %s, got %s", tc.category, mapped.Category)
		}
		if mapped.TextCode != tc.code {
			t.Fatalf("expected text code %s, got %s", tc.code, mapped.TextCode)
		}
	}
}
