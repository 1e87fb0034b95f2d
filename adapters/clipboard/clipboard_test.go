package clipboard

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-profile/profile"
)

func TestSystem_DrivesCopyState(t *testing.T) {
	var written []string
	cb := System{Write: func(text string) error {
		written = append(written, text)
		return nil
	}}

	state := profile.NewCopyState(cb, profile.CopyDesktop, []profile.CopyField{{Label: "E-mail", Text: "jane.doe@example.com"}})
	if err := state.Enter("E-mail"); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if err := state.Copy(context.Background(), "E-mail"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if len(written) != 1 || written[0] != "jane.doe@example.com" {
		t.Fatalf("expected one clipboard write, got %v", written)
	}
	if state.Status("E-mail") != profile.CopyCopied {
		t.Fatalf("expected copied status")
	}
}

func TestSystem_WriteFailure(t *testing.T) {
	cb := System{Write: func(string) error { return errors.New("no display") }}
	err := cb.WriteText(context.Background(), "x")
	if profile.KindFromError(err) != profile.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestSystem_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := System{Write: func(string) error { called = true; return nil }}.WriteText(ctx, "x")
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected cancellation before write, got %v called=%v", err, called)
	}
}
