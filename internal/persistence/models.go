package persistence

import "time"

// Profile is the per-user record keyed by the identity provider's user id.
type Profile struct {
	UserID                 string
	DisplayName            string
	MainEmail              string
	TeeShirtSize           string
	ConferenceKeysToAttend []string
	WishlistSessionKeys    []string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Conference is owned by the profile of its organizer.
type Conference struct {
	ID              int64
	OrganizerUserID string
	Name            string
	Description     string
	Topics          []string
	City            string
	StartDate       *time.Time
	EndDate         *time.Time
	Month           int
	MaxAttendees    int
	SeatsAvailable  int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Session belongs to exactly one conference. OrganizerUserID is read from the
// parent conference and ignored on writes.
type Session struct {
	ID              int64
	ConferenceID    int64
	OrganizerUserID string
	Name            string
	Highlights      []string
	Speaker         string
	SpeakerIDs      []int64
	SpeakerKeys     []string
	Duration        string
	TypeOfSession   string
	LocalDate       *time.Time
	LocalTime       string
	CreatedAt       time.Time
}

// Speaker is a top-level record with no parent.
type Speaker struct {
	ID          int64
	DisplayName string
	Bio         string
	CreatedAt   time.Time
}
