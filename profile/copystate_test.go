package profile

import (
	"context"
	"errors"
	"testing"
)

type failingClipboard struct{}

func (failingClipboard) WriteText(context.Context, string) error {
	return errors.New("denied")
}

func newCopyFixture(variant CopyVariant) (*CopyState, *MemoryClipboard) {
	clip := &MemoryClipboard{}
	state := NewCopyState(clip, variant, []CopyField{
		{Label: "Mobile", Text: "+1-555-0100"},
		{Label: "E-mail", Text: "jane@example.com"},
	})
	return state, clip
}

func TestCopyFromIdleRejected(t *testing.T) {
	state, clip := newCopyFixture(CopyDesktop)
	err := state.Copy(context.Background(), "Mobile")
	if KindFromError(err) != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if clip.Last() != "" {
		t.Fatalf("clipboard must not be written from idle")
	}
	if state.Status("Mobile") != CopyIdle {
		t.Fatalf("expected idle")
	}
}

func TestCopyHoverCopyLeave(t *testing.T) {
	state, clip := newCopyFixture(CopyDesktop)
	ctx := context.Background()

	if err := state.Enter("Mobile"); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if state.Status("Mobile") != CopyHovered || !state.Affordance("Mobile") {
		t.Fatalf("expected hovered with affordance")
	}
	if state.Affordance("E-mail") {
		t.Fatalf("desktop affordance only for the active field")
	}
	if err := state.Copy(ctx, "Mobile"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if state.Status("Mobile") != CopyCopied || clip.Last() != "+1-555-0100" {
		t.Fatalf("expected copied text, got %s / %q", state.Status("Mobile"), clip.Last())
	}

	state.Leave("Mobile")
	if state.Status("Mobile") != CopyIdle || len(state.Entries()) != 0 {
		t.Fatalf("leave must reset to idle")
	}
}

func TestCopyLeaveFromAnyState(t *testing.T) {
	for _, steps := range [][]string{{}, {"enter"}, {"enter", "copy"}} {
		state, _ := newCopyFixture(CopyDesktop)
		for _, step := range steps {
			switch step {
			case "enter":
				_ = state.Enter("E-mail")
			case "copy":
				_ = state.Copy(context.Background(), "E-mail")
			}
		}
		state.Leave("E-mail")
		if state.Status("E-mail") != CopyIdle {
			t.Fatalf("after %v leave should be idle, got %s", steps, state.Status("E-mail"))
		}
	}
}

func TestCopyLateLeaveKeepsActiveField(t *testing.T) {
	state, _ := newCopyFixture(CopyDesktop)
	ctx := context.Background()
	_ = state.Enter("E-mail")
	_ = state.Enter("Mobile")
	if err := state.Copy(ctx, "Mobile"); err != nil {
		t.Fatalf("copy: %v", err)
	}

	state.Leave("E-mail")
	if state.Status("Mobile") != CopyCopied {
		t.Fatalf("leaving E-mail must not reset Mobile, got %s", state.Status("Mobile"))
	}
	if state.Status("E-mail") != CopyIdle {
		t.Fatalf("expected E-mail idle, got %s", state.Status("E-mail"))
	}

	state.Leave("")
	if state.Status("Mobile") != CopyIdle {
		t.Fatalf("empty leave resets the active field")
	}
}

func TestCopyAtMostOneActiveField(t *testing.T) {
	state, _ := newCopyFixture(CopyDesktop)
	ctx := context.Background()
	_ = state.Enter("Mobile")
	_ = state.Copy(ctx, "Mobile")
	_ = state.Enter("E-mail")

	entries := state.Entries()
	if len(entries) != 1 || entries["E-mail"] != CopyHovered {
		t.Fatalf("expected only E-mail hovered, got %v", entries)
	}
	if state.Status("Mobile") != CopyIdle {
		t.Fatalf("entering another field clears the copied indicator")
	}
	if err := state.Copy(ctx, "Mobile"); KindFromError(err) != KindValidation {
		t.Fatalf("copy of a non-active field must be rejected, got %v", err)
	}
}

func TestCopyMobileAffordanceAndTap(t *testing.T) {
	state, clip := newCopyFixture(CopyMobile)
	if !state.Affordance("Mobile") || !state.Affordance("E-mail") {
		t.Fatalf("mobile shows affordance persistently")
	}
	if err := state.Tap(context.Background(), "E-mail"); err != nil {
		t.Fatalf("tap: %v", err)
	}
	if clip.Last() != "jane@example.com" || state.Status("E-mail") != CopyCopied {
		t.Fatalf("tap should copy")
	}
}

func TestCopyClipboardFailureKeepsHovered(t *testing.T) {
	state := NewCopyState(failingClipboard{}, CopyDesktop, []CopyField{{Label: "Mobile", Text: "1"}})
	_ = state.Enter("Mobile")
	if err := state.Copy(context.Background(), "Mobile"); err == nil {
		t.Fatalf("expected clipboard error")
	}
	if state.Status("Mobile") != CopyHovered {
		t.Fatalf("failed copy must stay hovered")
	}
}

func TestCopyUnknownField(t *testing.T) {
	state, _ := newCopyFixture(CopyDesktop)
	if err := state.Enter("Fax"); KindFromError(err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCopyViewNeverInExport(t *testing.T) {
	view := CopyView{Variant: CopyMobile, Status: CopyIdle}
	if view.Affordance("Mobile", true, ModeExport) {
		t.Fatalf("export pass never shows copy affordance")
	}
	if view.Affordance("Location", false, ModeInteractive) {
		t.Fatalf("non copyable fields never show affordance")
	}
}

func TestCopyFieldsFromSnapshot(t *testing.T) {
	cfg := mustDefaults(t)
	snap, _ := loadSnapshot(t, cfg, newFixtureSource(t, cfg))
	fields := CopyFieldsFromSnapshot(snap)
	if len(fields) != 2 || fields[0].Label != "Mobile" || fields[1].Label != "E-mail" {
		t.Fatalf("unexpected copy fields %+v", fields)
	}
}

func TestCopyStateDrivesRenderedButton(t *testing.T) {
	cfg := mustDefaults(t)
	snap, _ := loadSnapshot(t, cfg, newFixtureSource(t, cfg))
	state := NewCopyState(&MemoryClipboard{}, CopyDesktop, CopyFieldsFromSnapshot(snap))
	_ = state.Enter("E-mail")
	_ = state.Copy(context.Background(), "E-mail")

	opts := PageOptionsFromConfig(cfg)
	opts.Width = 1200
	opts.Copy = state.View()
	page := ComposePage(snap, opts)

	buttons := page.Interactive.FindByClass("copy-btn")
	if len(buttons) != 1 || buttons[0].Attrs["data-label"] != "E-mail" || !buttons[0].HasClass("copied") {
		t.Fatalf("expected one copied button for E-mail, got %d", len(buttons))
	}
	if len(page.Export.FindByClass("copy-btn")) != 0 {
		t.Fatalf("export tree must not render copy buttons")
	}
}
