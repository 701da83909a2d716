package application

import (
	"context"
	"errors"
	"fmt"
)

// RegisterForConference reserves a seat at the conference for the caller.
func (s *ConferenceService) RegisterForConference(ctx context.Context, principal Principal, websafeKey string) (registered bool, err error) {
	if s == nil {
		err = fmt.Errorf("ConferenceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RegisterForConference",
		"principal_id", principal.UserID,
		"conference_key", websafeKey,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to register for conference", "registration processed", "registered", registered)
	}()

	var conference Conference
	if conference, err = s.prepareRegistration(ctx, principal, websafeKey); err != nil {
		return
	}

	_, _, err = s.profiles.UpdateRegistration(ctx, principal.UserID, conference.ID, func(p *Profile, c *Conference) error {
		key := c.WebsafeKey()
		if containsString(p.ConferenceKeysToAttend, key) {
			return conflict("You have already registered for this conference")
		}
		if c.SeatsAvailable <= 0 {
			return conflict("There are no seats available.")
		}
		p.ConferenceKeysToAttend = append(p.ConferenceKeysToAttend, key)
		c.SeatsAvailable--
		return nil
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}
	registered = true
	return
}

// UnregisterFromConference releases the caller's seat. It reports false when
// the caller was not registered.
func (s *ConferenceService) UnregisterFromConference(ctx context.Context, principal Principal, websafeKey string) (unregistered bool, err error) {
	if s == nil {
		err = fmt.Errorf("ConferenceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UnregisterFromConference",
		"principal_id", principal.UserID,
		"conference_key", websafeKey,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to unregister from conference", "unregistration processed", "unregistered", unregistered)
	}()

	var conference Conference
	if conference, err = s.prepareRegistration(ctx, principal, websafeKey); err != nil {
		return
	}

	_, _, err = s.profiles.UpdateRegistration(ctx, principal.UserID, conference.ID, func(p *Profile, c *Conference) error {
		remaining, removed := removeString(p.ConferenceKeysToAttend, c.WebsafeKey())
		if !removed {
			unregistered = false
			return nil
		}
		p.ConferenceKeysToAttend = remaining
		c.SeatsAvailable++
		unregistered = true
		return nil
	})
	if err != nil {
		unregistered = false
		err = mapRepoError(err)
	}
	return
}

// GetConferencesToAttend lists the conferences the caller registered for.
// Keys that no longer resolve are skipped.
func (s *ConferenceService) GetConferencesToAttend(ctx context.Context, principal Principal) (views []ConferenceView, err error) {
	if s == nil {
		err = fmt.Errorf("ConferenceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetConferencesToAttend", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list attended conferences", "attended conferences listed", "result_count", len(views))
	}()

	var profile Profile
	if profile, err = ensureProfile(ctx, s.profiles, principal); err != nil {
		return
	}

	conferences := make([]Conference, 0, len(profile.ConferenceKeysToAttend))
	for _, key := range profile.ConferenceKeysToAttend {
		conference, resolveErr := resolveConference(ctx, s.conferences, key)
		if resolveErr != nil {
			if !errors.Is(resolveErr, ErrNotFound) {
				err = mapRepoError(resolveErr)
				return
			}
			logger.DebugContext(ctx, "skipping unresolved conference key", "conference_key", key, "error", resolveErr)
			continue
		}
		conferences = append(conferences, conference)
	}
	views, err = withOrganizers(ctx, s.profiles, conferences)
	return
}

func (s *ConferenceService) prepareRegistration(ctx context.Context, principal Principal, websafeKey string) (Conference, error) {
	if _, err := ensureProfile(ctx, s.profiles, principal); err != nil {
		return Conference{}, err
	}
	return resolveConference(ctx, s.conferences, websafeKey)
}
