package application

import (
	"strings"
	"time"

	"github.com/example/conference-central/internal/keys"
)

// Principal represents the caller of a service method. A zero Principal is
// an anonymous caller.
type Principal struct {
	UserID   string
	Email    string
	Nickname string
}

// Authenticated reports whether the caller carried a valid identity.
func (p Principal) Authenticated() bool {
	return strings.TrimSpace(p.UserID) != ""
}

// TeeShirtSize is the shirt size stored on a profile.
type TeeShirtSize string

// Shirt sizes.
const (
	TeeShirtNotSpecified TeeShirtSize = "NOT_SPECIFIED"
	TeeShirtXSM          TeeShirtSize = "XS_M"
	TeeShirtXSW          TeeShirtSize = "XS_W"
	TeeShirtSM           TeeShirtSize = "S_M"
	TeeShirtSW           TeeShirtSize = "S_W"
	TeeShirtMM           TeeShirtSize = "M_M"
	TeeShirtMW           TeeShirtSize = "M_W"
	TeeShirtLM           TeeShirtSize = "L_M"
	TeeShirtLW           TeeShirtSize = "L_W"
	TeeShirtXLM          TeeShirtSize = "XL_M"
	TeeShirtXLW          TeeShirtSize = "XL_W"
	TeeShirtXXLM         TeeShirtSize = "XXL_M"
	TeeShirtXXLW         TeeShirtSize = "XXL_W"
	TeeShirtXXXLM        TeeShirtSize = "XXXL_M"
	TeeShirtXXXLW        TeeShirtSize = "XXXL_W"
)

var teeShirtSizes = map[TeeShirtSize]struct{}{
	TeeShirtNotSpecified: {}, TeeShirtXSM: {}, TeeShirtXSW: {}, TeeShirtSM: {}, TeeShirtSW: {},
	TeeShirtMM: {}, TeeShirtMW: {}, TeeShirtLM: {}, TeeShirtLW: {}, TeeShirtXLM: {}, TeeShirtXLW: {},
	TeeShirtXXLM: {}, TeeShirtXXLW: {}, TeeShirtXXXLM: {}, TeeShirtXXXLW: {},
}

// ParseTeeShirtSize validates value. An empty value is NOT_SPECIFIED.
func ParseTeeShirtSize(value string) (TeeShirtSize, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return TeeShirtNotSpecified, nil
	}
	size := TeeShirtSize(value)
	if _, ok := teeShirtSizes[size]; !ok {
		return "", badRequest("Invalid teeShirtSize: %s", value)
	}
	return size, nil
}

// SessionType classifies a session.
type SessionType string

// Session types.
const (
	SessionNotSpecified SessionType = "NOT_SPECIFIED"
	SessionLecture      SessionType = "LECTURE"
	SessionKeynote      SessionType = "KEYNOTE"
	SessionWorkshop     SessionType = "WORKSHOP"
)

// ParseSessionType validates value. An empty value is NOT_SPECIFIED.
func ParseSessionType(value string) (SessionType, error) {
	switch v := SessionType(strings.TrimSpace(value)); v {
	case "":
		return SessionNotSpecified, nil
	case SessionNotSpecified, SessionLecture, SessionKeynote, SessionWorkshop:
		return v, nil
	}
	return "", badRequest("Invalid typeOfSession: %s", value)
}

// Profile is the per-user record.
type Profile struct {
	UserID                 string
	DisplayName            string
	MainEmail              string
	TeeShirtSize           TeeShirtSize
	ConferenceKeysToAttend []string
	WishlistSessionKeys    []string
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

// WebsafeKey returns the opaque reference handed to clients.
func (c Conference) WebsafeKey() string {
	return keys.NewConferenceKey(c.OrganizerUserID, c.ID).Encode()
}

// ConferenceView is a conference with its organizer's display name.
type ConferenceView struct {
	Conference
	OrganizerDisplayName string
}

// Session belongs to exactly one conference.
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
	TypeOfSession   SessionType
	LocalDate       *time.Time
	LocalTime       string
}

// WebsafeKey returns the opaque reference handed to clients.
func (s Session) WebsafeKey() string {
	return keys.NewSessionKey(s.OrganizerUserID, s.ConferenceID, s.ID).Encode()
}

// WebsafeConferenceKey returns the key of the parent conference.
func (s Session) WebsafeConferenceKey() string {
	return keys.NewConferenceKey(s.OrganizerUserID, s.ConferenceID).Encode()
}

// Speaker is a top-level record.
type Speaker struct {
	ID          int64
	DisplayName string
	Bio         string
}

// WebsafeKey returns the opaque reference handed to clients.
func (s Speaker) WebsafeKey() string {
	return keys.NewSpeakerKey(s.ID).Encode()
}

// ConferenceInput carries the caller supplied conference fields. Empty
// strings, empty lists and nil pointers mean "not supplied".
type ConferenceInput struct {
	Name           string
	Description    string
	Topics         []string
	City           string
	StartDate      string
	EndDate        string
	MaxAttendees   *int
	SeatsAvailable *int
}

// SessionInput carries the caller supplied session fields.
type SessionInput struct {
	Name               string
	Highlights         []string
	Speaker            string
	SpeakerWebsafeKeys []string
	Duration           string
	TypeOfSession      string
	LocalDate          string
	LocalTime          string
}

// SpeakerInput carries the caller supplied speaker fields.
type SpeakerInput struct {
	DisplayName string
	Bio         string
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	DisplayName  string
	TeeShirtSize string
}
