package persistence

import "context"

// Conference fields accepted by ConferenceQuery filters.
const (
	FieldCity         = "city"
	FieldTopics       = "topics"
	FieldMonth        = "month"
	FieldMaxAttendees = "maxAttendees"
)

// ConferenceFilter is a single normalized predicate. Value is a string for
// city and topics and an int for month and maxAttendees.
type ConferenceFilter struct {
	Field    string
	Operator string
	Value    any
}

// ConferenceQuery narrows conference listings. Results are ordered by
// OrderBy (when set) and then by name.
type ConferenceQuery struct {
	Filters []ConferenceFilter
	OrderBy string
}

// ConferenceRepository stores conferences under their organizer.
type ConferenceRepository interface {
	CreateConference(ctx context.Context, conference Conference) (Conference, error)
	GetConference(ctx context.Context, id int64) (Conference, error)
	GetConferences(ctx context.Context, ids []int64) ([]Conference, error)
	UpdateConference(ctx context.Context, id int64, mutate func(*Conference) error) (Conference, error)
	ListConferencesByOrganizer(ctx context.Context, userID string) ([]Conference, error)
	QueryConferences(ctx context.Context, query ConferenceQuery) ([]Conference, error)
	ListConferencesWithSeatsBetween(ctx context.Context, minSeats, maxSeats int) ([]Conference, error)
}

// SessionRepository stores sessions under their conference.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, id int64) (Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
	ListSessionsByConference(ctx context.Context, conferenceID int64, typeOfSession string) ([]Session, error)
	ListSessionsBySpeakerKey(ctx context.Context, conferenceID int64, speakerKey string) ([]Session, error)
	ListSessionsBySpeakerID(ctx context.Context, speakerID int64) ([]Session, error)
	ListSessionsStartingBy(ctx context.Context, localTime string) ([]Session, error)
}

// SpeakerRepository stores speakers.
type SpeakerRepository interface {
	CreateSpeaker(ctx context.Context, speaker Speaker) (Speaker, error)
	GetSpeaker(ctx context.Context, id int64) (Speaker, error)
	ListSpeakers(ctx context.Context) ([]Speaker, error)
}

// ProfileRepository stores profiles and the registration link between a
// profile and a conference.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (Profile, error)
	GetProfiles(ctx context.Context, userIDs []string) ([]Profile, error)
	CreateProfileIfMissing(ctx context.Context, profile Profile) (Profile, error)
	UpdateProfile(ctx context.Context, userID string, mutate func(*Profile) error) (Profile, error)
	UpdateRegistration(ctx context.Context, userID string, conferenceID int64, mutate func(*Profile, *Conference) error) (Profile, Conference, error)
}
