package query

import (
	"github.com/goliatone/go-errors"
)

// GetSnapshot requests the loaded profile.
type GetSnapshot struct{}

func (GetSnapshot) Type() string { return "profile:snapshot" }

func (GetSnapshot) Validate() error { return nil }

// GetBannerStatus requests the install banner state of a visitor.
type GetBannerStatus struct {
	SessionID string
}

func (GetBannerStatus) Type() string { return "profile:banner:status" }

func (msg GetBannerStatus) Validate() error {
	return requireSession(msg.SessionID)
}

// GetCopyState requests the copy affordance state of a visitor.
type GetCopyState struct {
	SessionID string
}

func (GetCopyState) Type() string { return "profile:copy:state" }

func (msg GetCopyState) Validate() error {
	return requireSession(msg.SessionID)
}

// ExportHistory requests recent export attempts.
type ExportHistory struct {
	Limit int
}

func (ExportHistory) Type() string { return "profile:export:history" }

func (msg ExportHistory) Validate() error {
	if msg.Limit < 0 {
		return errors.New("limit must not be negative", errors.CategoryValidation).
			WithTextCode("LIMIT_INVALID")
	}
	return nil
}

func requireSession(id string) error {
	if id == "" {
		return errors.New("session ID is required", errors.CategoryValidation).
			WithTextCode("SESSION_REQUIRED")
	}
	return nil
}
