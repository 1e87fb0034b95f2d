package profile

import (
	"context"
	"fmt"
	"sync"
)

// CopyStatus is the per-field copy affordance state.
type CopyStatus string

const (
	CopyIdle    CopyStatus = "idle"
	CopyHovered CopyStatus = "hovered"
	CopyCopied  CopyStatus = "copied"
)

// CopyVariant selects which events drive the machine.
type CopyVariant string

const (
	CopyDesktop CopyVariant = "desktop"
	CopyMobile  CopyVariant = "mobile"
)

// VariantFor picks the variant for a device.
func VariantFor(device Device) CopyVariant {
	if device.IsMobile {
		return CopyMobile
	}
	return CopyDesktop
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// CopyField is a copyable detail.
type CopyField struct {
	Label string
	Text  string
}

// CopyFieldsFromSnapshot returns the copyable details of a snapshot.
func CopyFieldsFromSnapshot(s Snapshot) []CopyField {
	details, ok := s.Section(SectionDetails)
	if !ok || details.Info.Kind != PayloadDetails {
		return nil
	}
	var fields []CopyField
	for _, d := range details.Info.Details {
		if d.CanCopy {
			fields = append(fields, CopyField{Label: d.Label, Text: d.Info})
		}
	}
	return fields
}

// CopyView is a read-only copy of the machine used while rendering.
type CopyView struct {
	Variant CopyVariant `json:"variant"`
	Active  string      `json:"active,omitempty"`
	Status  CopyStatus  `json:"status"`
}

// StatusOf returns the state of one field.
func (v CopyView) StatusOf(label string) CopyStatus {
	if v.Active != "" && v.Active == label {
		return v.Status
	}
	return CopyIdle
}

// Affordance reports whether the copy control is shown for a field. The
// export pass never shows it.
func (v CopyView) Affordance(label string, canCopy bool, mode RenderMode) bool {
	if mode == ModeExport || !canCopy {
		return false
	}
	if v.Variant == CopyMobile {
		return true
	}
	return v.StatusOf(label) != CopyIdle
}

// CopyState tracks hover and copy for a set of fields. At most one field is
// active at a time.
type CopyState struct {
	Clipboard Clipboard
	Variant   CopyVariant
	Logger    Logger

	mu     sync.Mutex
	fields map[string]string
	active string
	status CopyStatus
}

// NewCopyState creates a machine for the given fields.
func NewCopyState(clipboard Clipboard, variant CopyVariant, fields []CopyField) *CopyState {
	if variant == "" {
		variant = CopyDesktop
	}
	index := make(map[string]string, len(fields))
	for _, f := range fields {
		index[f.Label] = f.Text
	}
	return &CopyState{
		Clipboard: clipboard,
		Variant:   variant,
		Logger:    NopLogger{},
		fields:    index,
		status:    CopyIdle,
	}
}

// Enter marks label hovered and resets any other field.
func (c *CopyState) Enter(label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.fields[label]; !ok {
		return KeyError(KindNotFound, label, fmt.Sprintf("copy field %q not found", label), nil)
	}
	c.active = label
	c.status = CopyHovered
	return nil
}

// Copy writes the field text and marks it copied. The field must be hovered
// or already copied.
func (c *CopyState) Copy(ctx context.Context, label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.fields[label]
	if !ok {
		return KeyError(KindNotFound, label, fmt.Sprintf("copy field %q not found", label), nil)
	}
	if c.active != label || c.status == CopyIdle {
		return NewError(KindValidation, fmt.Sprintf("copy field %q is not hovered", label), nil)
	}
	if c.Clipboard == nil {
		return NewError(KindNotImpl, "clipboard not configured", nil)
	}
	if err := c.Clipboard.WriteText(ctx, text); err != nil {
		loggerOrNop(c.Logger).Errorf("copy %s failed: %v", label, err)
		return NewError(KindInternal, "write clipboard", err)
	}
	c.status = CopyCopied
	return nil
}

// Tap is the mobile gesture: enter followed by copy.
func (c *CopyState) Tap(ctx context.Context, label string) error {
	if err := c.Enter(label); err != nil {
		return err
	}
	return c.Copy(ctx, label)
}

// Leave returns label to idle from any state. Leaving a field that is not the
// active one leaves the active field untouched; an empty label leaves
// whichever field is active.
func (c *CopyState) Leave(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if label != "" && label != c.active {
		return
	}
	c.active = ""
	c.status = CopyIdle
}

// Status returns the state of one field.
func (c *CopyState) Status(label string) CopyStatus {
	return c.View().StatusOf(label)
}

// SetVariant switches the events that drive the machine and resets it to idle.
func (c *CopyState) SetVariant(variant CopyVariant) {
	if variant == "" {
		variant = CopyDesktop
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Variant = variant
	c.active = ""
	c.status = CopyIdle
}

// View returns a copy of the current state.
func (c *CopyState) View() CopyView {
	if c == nil {
		return CopyView{Variant: CopyDesktop, Status: CopyIdle}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return CopyView{Variant: c.Variant, Active: c.active, Status: c.status}
}

// Affordance reports whether the copy control is shown for label.
func (c *CopyState) Affordance(label string) bool {
	c.mu.Lock()
	_, ok := c.fields[label]
	c.mu.Unlock()
	return c.View().Affordance(label, ok, ModeInteractive)
}

// Entries returns the non-idle fields; never more than one.
func (c *CopyState) Entries() map[string]CopyStatus {
	view := c.View()
	out := make(map[string]CopyStatus, 1)
	if view.Active != "" && view.Status != CopyIdle {
		out[view.Active] = view.Status
	}
	return out
}
