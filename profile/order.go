package profile

import "sort"

// OrderConfig maps renderer names to their configured position.
type OrderConfig map[string]int

// RenderFunc produces a section subtree for a render pass.
type RenderFunc func(rc RenderContext) *Node

// SectionEntry is a declared section renderer.
type SectionEntry struct {
	Name   string
	Render RenderFunc
}

// OrderedSection is a renderer with its resolved position.
type OrderedSection struct {
	Order  int
	Name   string
	Render RenderFunc
}

// OrderSections sorts entries ascending by configured order. Ties keep
// declaration order and unconfigured entries go last.
func OrderSections(entries []SectionEntry, order OrderConfig) []OrderedSection {
	out := make([]OrderedSection, len(entries))
	for i, entry := range entries {
		pos, ok := order[entry.Name]
		if !ok {
			pos = unorderedPosition
		}
		out[i] = OrderedSection{Order: pos, Name: entry.Name, Render: entry.Render}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

const unorderedPosition = int(^uint(0) >> 1)

// Names returns the ordered renderer names.
func Names(sections []OrderedSection) []string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name
	}
	return names
}
