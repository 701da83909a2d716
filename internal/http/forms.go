package http

import (
	"strconv"

	"github.com/example/conference-central/internal/application"
)

type conferenceForm struct {
	Name                 string   `json:"name,omitempty"`
	Description          string   `json:"description,omitempty"`
	OrganizerUserID      string   `json:"organizerUserId,omitempty"`
	Topics               []string `json:"topics,omitempty"`
	City                 string   `json:"city,omitempty"`
	StartDate            string   `json:"startDate,omitempty"`
	Month                int      `json:"month,omitempty"`
	MaxAttendees         *int     `json:"maxAttendees,omitempty"`
	SeatsAvailable       *int     `json:"seatsAvailable,omitempty"`
	EndDate              string   `json:"endDate,omitempty"`
	WebsafeKey           string   `json:"websafeKey,omitempty"`
	OrganizerDisplayName string   `json:"organizerDisplayName,omitempty"`
}

func (f conferenceForm) toInput() application.ConferenceInput {
	return application.ConferenceInput{
		Name:           f.Name,
		Description:    f.Description,
		Topics:         f.Topics,
		City:           f.City,
		StartDate:      f.StartDate,
		EndDate:        f.EndDate,
		MaxAttendees:   f.MaxAttendees,
		SeatsAvailable: f.SeatsAvailable,
	}
}

func toConferenceForm(view application.ConferenceView) conferenceForm {
	maxAttendees, seats := view.MaxAttendees, view.SeatsAvailable
	return conferenceForm{
		Name:                 view.Name,
		Description:          view.Description,
		OrganizerUserID:      view.OrganizerUserID,
		Topics:               view.Topics,
		City:                 view.City,
		StartDate:            application.FormatDate(view.StartDate),
		Month:                view.Month,
		MaxAttendees:         &maxAttendees,
		SeatsAvailable:       &seats,
		EndDate:              application.FormatDate(view.EndDate),
		WebsafeKey:           view.WebsafeKey(),
		OrganizerDisplayName: view.OrganizerDisplayName,
	}
}

type conferenceForms struct {
	Items []conferenceForm `json:"items"`
}

func toConferenceForms(views []application.ConferenceView) conferenceForms {
	items := make([]conferenceForm, len(views))
	for i, view := range views {
		items[i] = toConferenceForm(view)
	}
	return conferenceForms{Items: items}
}

// conferenceQueryForm accepts the filter value as a JSON string or number.
type conferenceQueryForm struct {
	Field    string     `json:"field"`
	Operator string     `json:"operator"`
	Value    queryValue `json:"value"`
}

type conferenceQueryForms struct {
	Filters []conferenceQueryForm `json:"filters"`
}

func (f conferenceQueryForms) toFilters() []application.QueryFilter {
	filters := make([]application.QueryFilter, len(f.Filters))
	for i, filter := range f.Filters {
		filters[i] = application.QueryFilter{Field: filter.Field, Operator: filter.Operator, Value: string(filter.Value)}
	}
	return filters
}

type queryValue string

func (v *queryValue) UnmarshalJSON(data []byte) error {
	if s, err := strconv.Unquote(string(data)); err == nil {
		*v = queryValue(s)
		return nil
	}
	if string(data) == "null" {
		*v = ""
		return nil
	}
	*v = queryValue(data)
	return nil
}

type sessionForm struct {
	Name                 string   `json:"name,omitempty"`
	Highlights           []string `json:"highlights,omitempty"`
	Speaker              string   `json:"speaker,omitempty"`
	Duration             string   `json:"duration,omitempty"`
	TypeOfSession        string   `json:"typeOfSession,omitempty"`
	LocalDate            string   `json:"localDate,omitempty"`
	LocalTime            string   `json:"localTime,omitempty"`
	ConferenceWebsafeKey string   `json:"conferenceWebsafeKey,omitempty"`
	SpeakerWebsafeKeys   []string `json:"speakerWebsafeKeys,omitempty"`
	WebsafeKey           string   `json:"websafeKey,omitempty"`
}

func (f sessionForm) toInput() application.SessionInput {
	return application.SessionInput{
		Name:               f.Name,
		Highlights:         f.Highlights,
		Speaker:            f.Speaker,
		SpeakerWebsafeKeys: f.SpeakerWebsafeKeys,
		Duration:           f.Duration,
		TypeOfSession:      f.TypeOfSession,
		LocalDate:          f.LocalDate,
		LocalTime:          f.LocalTime,
	}
}

func toSessionForm(session application.Session) sessionForm {
	sessionType := string(session.TypeOfSession)
	if sessionType == "" {
		sessionType = string(application.SessionNotSpecified)
	}
	return sessionForm{
		Name:                 session.Name,
		Highlights:           session.Highlights,
		Speaker:              session.Speaker,
		Duration:             session.Duration,
		TypeOfSession:        sessionType,
		LocalDate:            application.FormatDate(session.LocalDate),
		LocalTime:            session.LocalTime,
		ConferenceWebsafeKey: session.WebsafeConferenceKey(),
		SpeakerWebsafeKeys:   session.SpeakerKeys,
		WebsafeKey:           session.WebsafeKey(),
	}
}

type sessionForms struct {
	Items []sessionForm `json:"items"`
}

func toSessionForms(sessions []application.Session) sessionForms {
	items := make([]sessionForm, len(sessions))
	for i, session := range sessions {
		items[i] = toSessionForm(session)
	}
	return sessionForms{Items: items}
}

type speakerForm struct {
	DisplayName string `json:"displayName,omitempty"`
	Bio         string `json:"bio,omitempty"`
	WebsafeKey  string `json:"websafeKey,omitempty"`
}

func (f speakerForm) toInput() application.SpeakerInput {
	return application.SpeakerInput{DisplayName: f.DisplayName, Bio: f.Bio}
}

func toSpeakerForm(speaker application.Speaker) speakerForm {
	return speakerForm{DisplayName: speaker.DisplayName, Bio: speaker.Bio, WebsafeKey: speaker.WebsafeKey()}
}

type speakerForms struct {
	Items []speakerForm `json:"items"`
}

func toSpeakerForms(speakers []application.Speaker) speakerForms {
	items := make([]speakerForm, len(speakers))
	for i, speaker := range speakers {
		items[i] = toSpeakerForm(speaker)
	}
	return speakerForms{Items: items}
}

type profileForm struct {
	DisplayName            string   `json:"displayName"`
	MainEmail              string   `json:"mainEmail"`
	TeeShirtSize           string   `json:"teeShirtSize"`
	ConferenceKeysToAttend []string `json:"conferenceKeysToAttend"`
	WishlistSessionKeys    []string `json:"wishlistSessionKeys"`
}

func toProfileForm(profile application.Profile) profileForm {
	size := string(profile.TeeShirtSize)
	if size == "" {
		size = string(application.TeeShirtNotSpecified)
	}
	return profileForm{
		DisplayName:            profile.DisplayName,
		MainEmail:              profile.MainEmail,
		TeeShirtSize:           size,
		ConferenceKeysToAttend: nonNil(profile.ConferenceKeysToAttend),
		WishlistSessionKeys:    nonNil(profile.WishlistSessionKeys),
	}
}

type profileMiniForm struct {
	DisplayName  string `json:"displayName"`
	TeeShirtSize string `json:"teeShirtSize"`
}

func (f profileMiniForm) toInput() application.ProfileInput {
	return application.ProfileInput{DisplayName: f.DisplayName, TeeShirtSize: f.TeeShirtSize}
}

type wishlistRequest struct {
	WebsafeSessionKey string `json:"websafeSessionKey"`
}

type stringMessage struct {
	Data string `json:"data"`
}

type booleanMessage struct {
	Data bool `json:"data"`
}

type websafeConferenceKeyMessage struct {
	WebsafeConferenceKey string `json:"websafeConferenceKey"`
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
