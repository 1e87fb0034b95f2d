package command

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-profile/profile"
	"github.com/goliatone/go-profile/service"
)

// ExportProfile renders the export document for a visitor.
type ExportProfile struct {
	SessionID string
	Format    profile.Format
	Result    *profile.ExportResult
}

func (ExportProfile) Type() string { return "profile:export" }

func (msg ExportProfile) Validate() error {
	if msg.Format == "" {
		return errors.New("format is required", errors.CategoryValidation).
			WithTextCode("FORMAT_REQUIRED")
	}
	return nil
}

// InstallApp runs the install prompt for a visitor.
type InstallApp struct {
	SessionID string
	Result    *InstallResult
}

// InstallResult is the banner state after an install attempt.
type InstallResult struct {
	Status   service.BannerStatus
	Accepted bool
}

func (InstallApp) Type() string { return "profile:install" }

func (msg InstallApp) Validate() error {
	return requireSession(msg.SessionID)
}

// DismissBanner closes the install banner for a visitor.
type DismissBanner struct {
	SessionID string
	Result    *service.BannerStatus
}

func (DismissBanner) Type() string { return "profile:banner:dismiss" }

func (msg DismissBanner) Validate() error {
	return requireSession(msg.SessionID)
}

// CopyEvent is a copy affordance interaction.
type CopyEvent string

const (
	CopyEnter CopyEvent = "enter"
	CopyWrite CopyEvent = "copy"
	CopyLeave CopyEvent = "leave"
)

// CopyField applies a copy event to a detail.
type CopyField struct {
	SessionID string
	Label     string
	Event     CopyEvent
	Result    *profile.CopyView
}

func (CopyField) Type() string { return "profile:copy" }

func (msg CopyField) Validate() error {
	if err := requireSession(msg.SessionID); err != nil {
		return err
	}
	if msg.Label == "" {
		return errors.New("copy label is required", errors.CategoryValidation).
			WithTextCode("LABEL_REQUIRED")
	}
	switch msg.Event {
	case CopyEnter, CopyWrite, CopyLeave:
		return nil
	default:
		return errors.New("unknown copy event: "+string(msg.Event), errors.CategoryValidation).
			WithTextCode("COPY_EVENT_INVALID")
	}
}

// PruneArtifacts removes stored exports older than MaxAge.
type PruneArtifacts struct {
	MaxAge time.Duration
	Result *[]string
}

func (PruneArtifacts) Type() string { return "profile:artifacts:prune" }

func (msg PruneArtifacts) Validate() error {
	if msg.MaxAge < 0 {
		return errors.New("max age must not be negative", errors.CategoryValidation).
			WithTextCode("MAX_AGE_INVALID")
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
