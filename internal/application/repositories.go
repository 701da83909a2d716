package application

import (
	"context"
	"errors"

	"github.com/example/conference-central/internal/persistence"
)

// ConferenceRepository captures the conference persistence operations.
type ConferenceRepository interface {
	CreateConference(ctx context.Context, conference Conference) (Conference, error)
	GetConference(ctx context.Context, id int64) (Conference, error)
	GetConferences(ctx context.Context, ids []int64) ([]Conference, error)
	UpdateConference(ctx context.Context, id int64, mutate func(*Conference) error) (Conference, error)
	ListConferencesByOrganizer(ctx context.Context, userID string) ([]Conference, error)
	QueryConferences(ctx context.Context, query ConferenceQuery) ([]Conference, error)
	ListConferencesWithSeatsBetween(ctx context.Context, minSeats, maxSeats int) ([]Conference, error)
}

// SessionRepository captures the session persistence operations.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, id int64) (Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
	ListSessionsByConference(ctx context.Context, conferenceID int64, typeOfSession SessionType) ([]Session, error)
	ListSessionsBySpeakerKey(ctx context.Context, conferenceID int64, speakerKey string) ([]Session, error)
	ListSessionsBySpeakerID(ctx context.Context, speakerID int64) ([]Session, error)
	ListSessionsStartingBy(ctx context.Context, localTime string) ([]Session, error)
}

// SpeakerRepository captures the speaker persistence operations.
type SpeakerRepository interface {
	CreateSpeaker(ctx context.Context, speaker Speaker) (Speaker, error)
	GetSpeaker(ctx context.Context, id int64) (Speaker, error)
	ListSpeakers(ctx context.Context) ([]Speaker, error)
}

// ProfileRepository captures the profile persistence operations.
// UpdateRegistration must apply its mutation to both records atomically.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (Profile, error)
	GetProfiles(ctx context.Context, userIDs []string) ([]Profile, error)
	CreateProfileIfMissing(ctx context.Context, profile Profile) (Profile, error)
	UpdateProfile(ctx context.Context, userID string, mutate func(*Profile) error) (Profile, error)
	UpdateRegistration(ctx context.Context, userID string, conferenceID int64, mutate func(*Profile, *Conference) error) (Profile, Conference, error)
}

// TaskEnqueuer schedules best-effort background work.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, url string, params map[string]string) (string, error)
}

// mapRepoError translates persistence sentinels into service errors. Errors
// that already carry a service kind pass through.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return newError(ErrConflict, "record already exists")
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newError(ErrBadRequest, "request violates a data constraint")
	}
	return err
}
