package profile

import (
	"reflect"
	"testing"
)

func entries(names ...string) []SectionEntry {
	out := make([]SectionEntry, len(names))
	for i, name := range names {
		out[i] = SectionEntry{Name: name}
	}
	return out
}

func TestOrderSectionsAscending(t *testing.T) {
	got := Names(OrderSections(entries("about", "skills", "contact"), OrderConfig{
		"about":   3,
		"skills":  1,
		"contact": 2,
	}))
	want := []string{"skills", "contact", "about"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestOrderSectionsTiesKeepDeclarationOrder(t *testing.T) {
	got := Names(OrderSections(entries("a", "b", "c", "d"), OrderConfig{
		"a": 2,
		"b": 1,
		"c": 2,
		"d": 1,
	}))
	want := []string{"b", "d", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestOrderSectionsUnconfiguredLast(t *testing.T) {
	got := Names(OrderSections(entries("x", "a", "y", "b"), OrderConfig{
		"a": 5,
		"b": 1,
	}))
	want := []string{"b", "a", "x", "y"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestOrderSectionsIdempotent(t *testing.T) {
	order := OrderConfig{"about": 2, "education": 2, "skills": 1}
	first := Names(OrderSections(SectionEntries(), order))
	second := Names(OrderSections(SectionEntries(), order))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("ordering changed between calls: %v vs %v", first, second)
	}
}

func TestDefaultOrderMatchesConfig(t *testing.T) {
	cfg := mustDefaults(t)
	got := Names(OrderSections(SectionEntries(), cfg.Order))
	want := []string{
		RendererAbout,
		RendererEducation,
		RendererOrganizations,
		RendererSkills,
		RendererExperiences,
		RendererContact,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
