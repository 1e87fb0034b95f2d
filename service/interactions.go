package service

import (
	"context"

	"github.com/goliatone/go-profile/profile"
)

// CopyEnter marks a detail hovered.
func (s *Service) CopyEnter(ctx context.Context, sessionID, label string) (profile.CopyView, error) {
	sess, err := s.Session(ctx, sessionID, 0)
	if err != nil {
		return profile.CopyView{}, err
	}
	if err := sess.Copy.Enter(label); err != nil {
		return sess.Copy.View(), err
	}
	return sess.Copy.View(), nil
}

// CopyField copies a detail to the clipboard. On mobile sessions a tap enters
// and copies in one step; on desktop the field must already be hovered.
func (s *Service) CopyField(ctx context.Context, sessionID, label string) (profile.CopyView, error) {
	sess, err := s.Session(ctx, sessionID, 0)
	if err != nil {
		return profile.CopyView{}, err
	}
	if sess.Copy.View().Variant == profile.CopyMobile {
		err = sess.Copy.Tap(ctx, label)
	} else {
		err = sess.Copy.Copy(ctx, label)
	}
	return sess.Copy.View(), err
}

// CopyLeave resets the copy state.
func (s *Service) CopyLeave(ctx context.Context, sessionID, label string) (profile.CopyView, error) {
	sess, err := s.Session(ctx, sessionID, 0)
	if err != nil {
		return profile.CopyView{}, err
	}
	sess.Copy.Leave(label)
	return sess.Copy.View(), nil
}

// CopyState returns the copy state of a session.
func (s *Service) CopyState(ctx context.Context, sessionID string) (profile.CopyView, error) {
	sess, err := s.Session(ctx, sessionID, 0)
	if err != nil {
		return profile.CopyView{}, err
	}
	return sess.Copy.View(), nil
}

// BannerStatus reports the persisted banner flags and whether the banner shows.
func (s *Service) BannerStatus(ctx context.Context, sessionID string) (BannerStatus, error) {
	sess, err := s.Session(ctx, sessionID, 0)
	if err != nil {
		return BannerStatus{}, err
	}
	return bannerStatus(sess), nil
}

// Install runs the install prompt for a session. A declined or failed prompt
// leaves the banner as it was.
func (s *Service) Install(ctx context.Context, sessionID string) (BannerStatus, bool, error) {
	sess, err := s.Session(ctx, sessionID, 0)
	if err != nil {
		return BannerStatus{}, false, err
	}
	accepted, err := sess.Banner.Install(ctx)
	return bannerStatus(sess), accepted, err
}

// Dismiss closes the banner for a session.
func (s *Service) Dismiss(ctx context.Context, sessionID string) (BannerStatus, error) {
	sess, err := s.Session(ctx, sessionID, 0)
	if err != nil {
		return BannerStatus{}, err
	}
	err = sess.Banner.Dismiss(ctx)
	return bannerStatus(sess), err
}

func bannerStatus(sess *Session) BannerStatus {
	return BannerStatus{State: sess.Banner.State(), Eligible: sess.Banner.Eligible()}
}
