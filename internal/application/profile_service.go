package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ProfileService manages the caller's profile and session wishlist.
type ProfileService struct {
	profiles ProfileRepository
	sessions SessionRepository
	logger   *slog.Logger
}

// NewProfileService constructs a profile service.
func NewProfileService(profiles ProfileRepository, sessions SessionRepository) *ProfileService {
	return NewProfileServiceWithLogger(profiles, sessions, nil)
}

// NewProfileServiceWithLogger constructs a profile service with a specified logger.
func NewProfileServiceWithLogger(profiles ProfileRepository, sessions SessionRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, sessions: sessions, logger: defaultLogger(logger)}
}

func (s *ProfileService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ProfileService", operation, attrs...)
}

// GetProfile returns the caller's profile, creating it on first access.
func (s *ProfileService) GetProfile(ctx context.Context, principal Principal) (profile Profile, err error) {
	if s == nil {
		err = fmt.Errorf("ProfileService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetProfile", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to get profile", "profile fetched")
	}()

	profile, err = ensureProfile(ctx, s.profiles, principal)
	return
}

// SaveProfile updates the supplied profile fields. Empty fields are left alone.
func (s *ProfileService) SaveProfile(ctx context.Context, principal Principal, input ProfileInput) (profile Profile, err error) {
	if s == nil {
		err = fmt.Errorf("ProfileService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SaveProfile", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to save profile", "profile saved")
	}()

	if _, err = ensureProfile(ctx, s.profiles, principal); err != nil {
		return
	}

	var size TeeShirtSize
	if strings.TrimSpace(input.TeeShirtSize) != "" {
		if size, err = ParseTeeShirtSize(input.TeeShirtSize); err != nil {
			return
		}
	}
	name := strings.TrimSpace(input.DisplayName)

	profile, err = s.profiles.UpdateProfile(ctx, principal.UserID, func(p *Profile) error {
		if name != "" {
			p.DisplayName = name
		}
		if size != "" {
			p.TeeShirtSize = size
		}
		return nil
	})
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// AddSessionToWishlist appends a session to the caller's wishlist.
func (s *ProfileService) AddSessionToWishlist(ctx context.Context, principal Principal, websafeSessionKey string) (profile Profile, err error) {
	if s == nil {
		err = fmt.Errorf("ProfileService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AddSessionToWishlist",
		"principal_id", principal.UserID,
		"session_key", websafeSessionKey,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to add session to wishlist", "session added to wishlist")
	}()

	if _, err = ensureProfile(ctx, s.profiles, principal); err != nil {
		return
	}
	if strings.TrimSpace(websafeSessionKey) == "" {
		err = &ValidationError{FieldErrors: map[string]string{"websafeSessionKey": "'websafeSessionKey' field required"}}
		return
	}

	var session Session
	if session, err = resolveSession(ctx, s.sessions, websafeSessionKey); err != nil {
		return
	}
	key := session.WebsafeKey()

	profile, err = s.profiles.UpdateProfile(ctx, principal.UserID, func(p *Profile) error {
		if containsString(p.WishlistSessionKeys, key) {
			return conflict("Session already in wishlist.")
		}
		p.WishlistSessionKeys = append(p.WishlistSessionKeys, key)
		return nil
	})
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// GetSessionsInWishlist resolves the caller's wishlist. Keys that no longer
// resolve are skipped.
func (s *ProfileService) GetSessionsInWishlist(ctx context.Context, principal Principal) (sessions []Session, err error) {
	if s == nil {
		err = fmt.Errorf("ProfileService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetSessionsInWishlist", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list wishlist sessions", "wishlist sessions listed", "result_count", len(sessions))
	}()

	var profile Profile
	if profile, err = ensureProfile(ctx, s.profiles, principal); err != nil {
		return
	}

	sessions = make([]Session, 0, len(profile.WishlistSessionKeys))
	for _, key := range profile.WishlistSessionKeys {
		session, resolveErr := resolveSession(ctx, s.sessions, key)
		if resolveErr != nil {
			if !errors.Is(resolveErr, ErrNotFound) {
				sessions = nil
				err = mapRepoError(resolveErr)
				return
			}
			logger.DebugContext(ctx, "skipping unresolved session key", "session_key", key, "error", resolveErr)
			continue
		}
		sessions = append(sessions, session)
	}
	return
}
