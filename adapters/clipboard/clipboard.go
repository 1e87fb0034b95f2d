// Package clipboard writes copied profile fields to the host clipboard.
package clipboard

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/goliatone/go-profile/profile"
)

// System writes through the operating system clipboard. It is meant for the
// CLI; the HTTP server records copies in a profile.MemoryClipboard because the
// browser owns the visitor's clipboard.
type System struct {
	// Write overrides the clipboard call, for tests.
	Write func(text string) error
}

var _ profile.Clipboard = System{}

// Available reports whether a clipboard utility was found on this host.
func Available() bool {
	return !clipboard.Unsupported
}

func (s System) WriteText(ctx context.Context, text string) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	write := s.Write
	if write == nil {
		if !Available() {
			return profile.NewError(profile.KindNotImpl, "system clipboard unavailable", nil)
		}
		write = clipboard.WriteAll
	}
	if err := write(text); err != nil {
		return profile.NewError(profile.KindInternal, "write clipboard", err)
	}
	return nil
}
