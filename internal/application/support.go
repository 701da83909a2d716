package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/conference-central/internal/keys"
)

// ensureProfile returns the caller's profile, creating it from the identity
// on first access.
func ensureProfile(ctx context.Context, profiles ProfileRepository, principal Principal) (Profile, error) {
	if !principal.Authenticated() {
		return Profile{}, unauthorized()
	}
	if profiles == nil {
		return Profile{}, fmt.Errorf("profile repository not configured")
	}
	profile, err := profiles.CreateProfileIfMissing(ctx, Profile{
		UserID:       principal.UserID,
		DisplayName:  principal.Nickname,
		MainEmail:    principal.Email,
		TeeShirtSize: TeeShirtNotSpecified,
	})
	if err != nil {
		return Profile{}, mapRepoError(err)
	}
	return profile, nil
}

// resolveConference loads the conference a websafe key points at. Keys that
// do not decode, do not resolve, or name the wrong organizer are NotFound.
func resolveConference(ctx context.Context, conferences ConferenceRepository, websafeKey string) (Conference, error) {
	missing := notFound("No conference found with key: %s", websafeKey)
	organizer, id, err := keys.ConferenceID(websafeKey)
	if err != nil {
		return Conference{}, missing
	}
	conference, err := conferences.GetConference(ctx, id)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			return Conference{}, missing
		}
		return Conference{}, err
	}
	if conference.OrganizerUserID != organizer {
		return Conference{}, missing
	}
	return conference, nil
}

// resolveSession loads the session a websafe key points at.
func resolveSession(ctx context.Context, sessions SessionRepository, websafeKey string) (Session, error) {
	missing := notFound("No session found with key: %s", websafeKey)
	key, err := keys.DecodeKind(websafeKey, keys.KindSession)
	if err != nil {
		return Session{}, missing
	}
	session, err := sessions.GetSession(ctx, key.IntID)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			return Session{}, missing
		}
		return Session{}, err
	}
	if session.ConferenceID != key.Parent.IntID || session.OrganizerUserID != key.Parent.Parent.StringID {
		return Session{}, missing
	}
	return session, nil
}

// withOrganizers attaches organizer display names, looking all organizers
// up in one batch.
func withOrganizers(ctx context.Context, profiles ProfileRepository, conferences []Conference) ([]ConferenceView, error) {
	views := make([]ConferenceView, len(conferences))
	if len(conferences) == 0 {
		return views, nil
	}

	seen := make(map[string]struct{}, len(conferences))
	var ids []string
	for _, conference := range conferences {
		if _, ok := seen[conference.OrganizerUserID]; ok {
			continue
		}
		seen[conference.OrganizerUserID] = struct{}{}
		ids = append(ids, conference.OrganizerUserID)
	}

	names := make(map[string]string, len(ids))
	if profiles != nil {
		found, err := profiles.GetProfiles(ctx, ids)
		if err != nil {
			return nil, mapRepoError(err)
		}
		for _, profile := range found {
			names[profile.UserID] = profile.DisplayName
		}
	}

	for i, conference := range conferences {
		views[i] = ConferenceView{Conference: conference, OrganizerDisplayName: names[conference.OrganizerUserID]}
	}
	return views, nil
}

// enqueueNotification schedules a confirmation task. Failures are logged and
// never returned.
func enqueueNotification(ctx context.Context, tasks TaskEnqueuer, logger *slog.Logger, url string, params map[string]string) {
	if tasks == nil {
		return
	}
	id, err := tasks.Enqueue(ctx, url, params)
	if err != nil {
		logger.WarnContext(ctx, "failed to enqueue notification", "task_url", url, "error", err)
		return
	}
	logger.DebugContext(ctx, "notification enqueued", "task_url", url, "task_id", id)
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func removeString(values []string, target string) ([]string, bool) {
	out := make([]string, 0, len(values))
	removed := false
	for _, v := range values {
		if v == target {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out, removed
}

func trimmedList(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
