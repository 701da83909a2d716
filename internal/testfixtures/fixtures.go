package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/conference-central/internal/application"
	"github.com/example/conference-central/internal/keys"
	"github.com/example/conference-central/internal/persistence"
)

var (
	profileCounter    uint64
	conferenceCounter uint64
	sessionCounter    uint64
	speakerCounter    uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// ---------------------------- Profile fixtures ----------------------------

// ProfileFixture is a deterministic user profile.
type ProfileFixture struct {
	UserID       string
	DisplayName  string
	MainEmail    string
	TeeShirtSize string
}

// ProfileOption configures the generated profile fixture.
type ProfileOption func(*ProfileFixture)

// NewProfileFixture returns a deterministic profile fixture with optional
// overrides. The email defaults to the user id at example.com.
func NewProfileFixture(opts ...ProfileOption) ProfileFixture {
	idx := atomic.AddUint64(&profileCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := ProfileFixture{
		UserID:       id,
		DisplayName:  fmt.Sprintf("User %03d", idx),
		TeeShirtSize: string(application.TeeShirtNotSpecified),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	if fixture.MainEmail == "" {
		fixture.MainEmail = fixture.UserID + "@example.com"
	}
	return fixture
}

// WithUserID overrides the generated user id.
func WithUserID(id string) ProfileOption {
	return func(f *ProfileFixture) {
		f.UserID = id
	}
}

// WithDisplayName overrides the generated display name.
func WithDisplayName(name string) ProfileOption {
	return func(f *ProfileFixture) {
		f.DisplayName = name
	}
}

// WithTeeShirtSize overrides the shirt size.
func WithTeeShirtSize(size application.TeeShirtSize) ProfileOption {
	return func(f *ProfileFixture) {
		f.TeeShirtSize = string(size)
	}
}

// Persistence converts the fixture into a storage record.
func (f ProfileFixture) Persistence() persistence.Profile {
	return persistence.Profile{
		UserID:       f.UserID,
		DisplayName:  f.DisplayName,
		MainEmail:    f.MainEmail,
		TeeShirtSize: f.TeeShirtSize,
	}
}

// Principal returns the caller identity that owns the profile.
func (f ProfileFixture) Principal() application.Principal {
	return application.Principal{UserID: f.UserID, Email: f.MainEmail, Nickname: f.DisplayName}
}

// --------------------------- Conference fixtures --------------------------

// ConferenceFixture is a deterministic conference. OrganizerUserID must name
// an existing profile before the fixture is stored.
type ConferenceFixture struct {
	OrganizerUserID string
	Name            string
	Description     string
	Topics          []string
	City            string
	StartDate       *time.Time
	EndDate         *time.Time
	MaxAttendees    int
	SeatsAvailable  int
}

// ConferenceOption configures the generated conference fixture.
type ConferenceOption func(*ConferenceFixture)

// NewConferenceFixture returns a conference owned by organizerUserID with
// every seat free.
func NewConferenceFixture(organizerUserID string, opts ...ConferenceOption) ConferenceFixture {
	idx := atomic.AddUint64(&conferenceCounter, 1)
	fixture := ConferenceFixture{
		OrganizerUserID: organizerUserID,
		Name:            fmt.Sprintf("Conference %03d", idx),
		Topics:          append([]string(nil), application.DefaultTopics...),
		City:            application.DefaultCity,
		MaxAttendees:    100,
		SeatsAvailable:  100,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithConferenceName overrides the generated name.
func WithConferenceName(name string) ConferenceOption {
	return func(f *ConferenceFixture) {
		f.Name = name
	}
}

// WithCity overrides the default city.
func WithCity(city string) ConferenceOption {
	return func(f *ConferenceFixture) {
		f.City = city
	}
}

// WithTopics overrides the default topics.
func WithTopics(topics ...string) ConferenceOption {
	return func(f *ConferenceFixture) {
		f.Topics = topics
	}
}

// WithDates sets the start and end dates.
func WithDates(start, end *time.Time) ConferenceOption {
	return func(f *ConferenceFixture) {
		f.StartDate = start
		f.EndDate = end
	}
}

// WithSeats sets the capacity and the number of free seats.
func WithSeats(maxAttendees, seatsAvailable int) ConferenceOption {
	return func(f *ConferenceFixture) {
		f.MaxAttendees = maxAttendees
		f.SeatsAvailable = seatsAvailable
	}
}

// Persistence converts the fixture into a storage record. Month follows the
// start date.
func (f ConferenceFixture) Persistence() persistence.Conference {
	month := 0
	if f.StartDate != nil {
		month = int(f.StartDate.Month())
	}
	return persistence.Conference{
		OrganizerUserID: f.OrganizerUserID,
		Name:            f.Name,
		Description:     f.Description,
		Topics:          append([]string(nil), f.Topics...),
		City:            f.City,
		StartDate:       f.StartDate,
		EndDate:         f.EndDate,
		Month:           month,
		MaxAttendees:    f.MaxAttendees,
		SeatsAvailable:  f.SeatsAvailable,
	}
}

// ---------------------------- Speaker fixtures ----------------------------

// SpeakerFixture is a deterministic speaker.
type SpeakerFixture struct {
	DisplayName string
	Bio         string
}

// NewSpeakerFixture returns a speaker with a generated name. A non-empty
// displayName overrides it.
func NewSpeakerFixture(displayName string) SpeakerFixture {
	idx := atomic.AddUint64(&speakerCounter, 1)
	if displayName == "" {
		displayName = fmt.Sprintf("Speaker %03d", idx)
	}
	return SpeakerFixture{DisplayName: displayName, Bio: fmt.Sprintf("Bio %03d", idx)}
}

// Persistence converts the fixture into a storage record.
func (f SpeakerFixture) Persistence() persistence.Speaker {
	return persistence.Speaker{DisplayName: f.DisplayName, Bio: f.Bio}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture is a deterministic session of one conference.
type SessionFixture struct {
	ConferenceID  int64
	Name          string
	Highlights    []string
	Speaker       string
	SpeakerIDs    []int64
	Duration      string
	TypeOfSession application.SessionType
	LocalDate     *time.Time
	LocalTime     string
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a one hour lecture in conferenceID.
func NewSessionFixture(conferenceID int64, opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ConferenceID:  conferenceID,
		Name:          fmt.Sprintf("Session %03d", idx),
		Highlights:    append([]string(nil), application.DefaultHighlights...),
		Duration:      application.DefaultSessionDuration,
		TypeOfSession: application.SessionLecture,
		LocalTime:     "10:00",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionName overrides the generated name.
func WithSessionName(name string) SessionOption {
	return func(f *SessionFixture) {
		f.Name = name
	}
}

// WithSessionType overrides the session type.
func WithSessionType(typeOfSession application.SessionType) SessionOption {
	return func(f *SessionFixture) {
		f.TypeOfSession = typeOfSession
	}
}

// WithLocalTime sets the HH:MM start time. An empty value clears it.
func WithLocalTime(localTime string) SessionOption {
	return func(f *SessionFixture) {
		f.LocalTime = localTime
	}
}

// WithSpeakers attaches speakers by id.
func WithSpeakers(ids ...int64) SessionOption {
	return func(f *SessionFixture) {
		f.SpeakerIDs = ids
	}
}

// Persistence converts the fixture into a storage record. Speaker keys are
// derived from the speaker ids.
func (f SessionFixture) Persistence() persistence.Session {
	speakerKeys := make([]string, 0, len(f.SpeakerIDs))
	for _, id := range f.SpeakerIDs {
		speakerKeys = append(speakerKeys, keys.NewSpeakerKey(id).Encode())
	}
	return persistence.Session{
		ConferenceID:  f.ConferenceID,
		Name:          f.Name,
		Highlights:    append([]string(nil), f.Highlights...),
		Speaker:       f.Speaker,
		SpeakerIDs:    append([]int64(nil), f.SpeakerIDs...),
		SpeakerKeys:   speakerKeys,
		Duration:      f.Duration,
		TypeOfSession: string(f.TypeOfSession),
		LocalDate:     f.LocalDate,
		LocalTime:     f.LocalTime,
	}
}
