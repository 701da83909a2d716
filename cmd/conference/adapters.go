package main

import (
	"context"
	"time"

	"github.com/example/conference-central/internal/application"
	"github.com/example/conference-central/internal/persistence"
)

type conferenceRepositoryAdapter struct {
	repo persistence.ConferenceRepository
}

func newConferenceRepositoryAdapter(repo persistence.ConferenceRepository) *conferenceRepositoryAdapter {
	return &conferenceRepositoryAdapter{repo: repo}
}

func (a *conferenceRepositoryAdapter) CreateConference(ctx context.Context, conference application.Conference) (application.Conference, error) {
	stored, err := a.repo.CreateConference(ctx, toPersistenceConference(conference))
	if err != nil {
		return application.Conference{}, err
	}
	return toApplicationConference(stored), nil
}

func (a *conferenceRepositoryAdapter) GetConference(ctx context.Context, id int64) (application.Conference, error) {
	stored, err := a.repo.GetConference(ctx, id)
	if err != nil {
		return application.Conference{}, err
	}
	return toApplicationConference(stored), nil
}

func (a *conferenceRepositoryAdapter) GetConferences(ctx context.Context, ids []int64) ([]application.Conference, error) {
	models, err := a.repo.GetConferences(ctx, ids)
	if err != nil {
		return nil, err
	}
	return toApplicationConferences(models), nil
}

func (a *conferenceRepositoryAdapter) UpdateConference(ctx context.Context, id int64, mutate func(*application.Conference) error) (application.Conference, error) {
	stored, err := a.repo.UpdateConference(ctx, id, func(model *persistence.Conference) error {
		conference := toApplicationConference(*model)
		if err := mutate(&conference); err != nil {
			return err
		}
		*model = toPersistenceConference(conference)
		return nil
	})
	if err != nil {
		return application.Conference{}, err
	}
	return toApplicationConference(stored), nil
}

func (a *conferenceRepositoryAdapter) ListConferencesByOrganizer(ctx context.Context, userID string) ([]application.Conference, error) {
	models, err := a.repo.ListConferencesByOrganizer(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toApplicationConferences(models), nil
}

func (a *conferenceRepositoryAdapter) QueryConferences(ctx context.Context, query application.ConferenceQuery) ([]application.Conference, error) {
	models, err := a.repo.QueryConferences(ctx, toPersistenceQuery(query))
	if err != nil {
		return nil, err
	}
	return toApplicationConferences(models), nil
}

func (a *conferenceRepositoryAdapter) ListConferencesWithSeatsBetween(ctx context.Context, minSeats, maxSeats int) ([]application.Conference, error) {
	models, err := a.repo.ListConferencesWithSeatsBetween(ctx, minSeats, maxSeats)
	if err != nil {
		return nil, err
	}
	return toApplicationConferences(models), nil
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, id int64) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, id)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) ListSessions(ctx context.Context) ([]application.Session, error) {
	models, err := a.repo.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	return toApplicationSessions(models), nil
}

func (a *sessionRepositoryAdapter) ListSessionsByConference(ctx context.Context, conferenceID int64, typeOfSession application.SessionType) ([]application.Session, error) {
	models, err := a.repo.ListSessionsByConference(ctx, conferenceID, string(typeOfSession))
	if err != nil {
		return nil, err
	}
	return toApplicationSessions(models), nil
}

func (a *sessionRepositoryAdapter) ListSessionsBySpeakerKey(ctx context.Context, conferenceID int64, speakerKey string) ([]application.Session, error) {
	models, err := a.repo.ListSessionsBySpeakerKey(ctx, conferenceID, speakerKey)
	if err != nil {
		return nil, err
	}
	return toApplicationSessions(models), nil
}

func (a *sessionRepositoryAdapter) ListSessionsBySpeakerID(ctx context.Context, speakerID int64) ([]application.Session, error) {
	models, err := a.repo.ListSessionsBySpeakerID(ctx, speakerID)
	if err != nil {
		return nil, err
	}
	return toApplicationSessions(models), nil
}

func (a *sessionRepositoryAdapter) ListSessionsStartingBy(ctx context.Context, localTime string) ([]application.Session, error) {
	models, err := a.repo.ListSessionsStartingBy(ctx, localTime)
	if err != nil {
		return nil, err
	}
	return toApplicationSessions(models), nil
}

type speakerRepositoryAdapter struct {
	repo persistence.SpeakerRepository
}

func newSpeakerRepositoryAdapter(repo persistence.SpeakerRepository) *speakerRepositoryAdapter {
	return &speakerRepositoryAdapter{repo: repo}
}

func (a *speakerRepositoryAdapter) CreateSpeaker(ctx context.Context, speaker application.Speaker) (application.Speaker, error) {
	stored, err := a.repo.CreateSpeaker(ctx, persistence.Speaker{
		ID:          speaker.ID,
		DisplayName: speaker.DisplayName,
		Bio:         speaker.Bio,
	})
	if err != nil {
		return application.Speaker{}, err
	}
	return toApplicationSpeaker(stored), nil
}

func (a *speakerRepositoryAdapter) GetSpeaker(ctx context.Context, id int64) (application.Speaker, error) {
	stored, err := a.repo.GetSpeaker(ctx, id)
	if err != nil {
		return application.Speaker{}, err
	}
	return toApplicationSpeaker(stored), nil
}

func (a *speakerRepositoryAdapter) ListSpeakers(ctx context.Context) ([]application.Speaker, error) {
	models, err := a.repo.ListSpeakers(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	speakers := make([]application.Speaker, 0, len(models))
	for _, model := range models {
		speakers = append(speakers, toApplicationSpeaker(model))
	}
	return speakers, nil
}

type profileRepositoryAdapter struct {
	repo persistence.ProfileRepository
}

func newProfileRepositoryAdapter(repo persistence.ProfileRepository) *profileRepositoryAdapter {
	return &profileRepositoryAdapter{repo: repo}
}

func (a *profileRepositoryAdapter) GetProfile(ctx context.Context, userID string) (application.Profile, error) {
	stored, err := a.repo.GetProfile(ctx, userID)
	if err != nil {
		return application.Profile{}, err
	}
	return toApplicationProfile(stored), nil
}

func (a *profileRepositoryAdapter) GetProfiles(ctx context.Context, userIDs []string) ([]application.Profile, error) {
	models, err := a.repo.GetProfiles(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	profiles := make([]application.Profile, 0, len(models))
	for _, model := range models {
		profiles = append(profiles, toApplicationProfile(model))
	}
	return profiles, nil
}

func (a *profileRepositoryAdapter) CreateProfileIfMissing(ctx context.Context, profile application.Profile) (application.Profile, error) {
	stored, err := a.repo.CreateProfileIfMissing(ctx, toPersistenceProfile(profile))
	if err != nil {
		return application.Profile{}, err
	}
	return toApplicationProfile(stored), nil
}

func (a *profileRepositoryAdapter) UpdateProfile(ctx context.Context, userID string, mutate func(*application.Profile) error) (application.Profile, error) {
	stored, err := a.repo.UpdateProfile(ctx, userID, func(model *persistence.Profile) error {
		profile := toApplicationProfile(*model)
		if err := mutate(&profile); err != nil {
			return err
		}
		*model = mergeProfile(*model, profile)
		return nil
	})
	if err != nil {
		return application.Profile{}, err
	}
	return toApplicationProfile(stored), nil
}

func (a *profileRepositoryAdapter) UpdateRegistration(ctx context.Context, userID string, conferenceID int64, mutate func(*application.Profile, *application.Conference) error) (application.Profile, application.Conference, error) {
	storedProfile, storedConference, err := a.repo.UpdateRegistration(ctx, userID, conferenceID,
		func(profileModel *persistence.Profile, conferenceModel *persistence.Conference) error {
			profile := toApplicationProfile(*profileModel)
			conference := toApplicationConference(*conferenceModel)
			if err := mutate(&profile, &conference); err != nil {
				return err
			}
			*profileModel = mergeProfile(*profileModel, profile)
			*conferenceModel = toPersistenceConference(conference)
			return nil
		})
	if err != nil {
		return application.Profile{}, application.Conference{}, err
	}
	return toApplicationProfile(storedProfile), toApplicationConference(storedConference), nil
}

func toApplicationConference(model persistence.Conference) application.Conference {
	return application.Conference{
		ID:              model.ID,
		OrganizerUserID: model.OrganizerUserID,
		Name:            model.Name,
		Description:     model.Description,
		Topics:          append([]string(nil), model.Topics...),
		City:            model.City,
		StartDate:       cloneTime(model.StartDate),
		EndDate:         cloneTime(model.EndDate),
		Month:           model.Month,
		MaxAttendees:    model.MaxAttendees,
		SeatsAvailable:  model.SeatsAvailable,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func toApplicationConferences(models []persistence.Conference) []application.Conference {
	if len(models) == 0 {
		return nil
	}
	conferences := make([]application.Conference, 0, len(models))
	for _, model := range models {
		conferences = append(conferences, toApplicationConference(model))
	}
	return conferences
}

func toPersistenceConference(conference application.Conference) persistence.Conference {
	return persistence.Conference{
		ID:              conference.ID,
		OrganizerUserID: conference.OrganizerUserID,
		Name:            conference.Name,
		Description:     conference.Description,
		Topics:          append([]string(nil), conference.Topics...),
		City:            conference.City,
		StartDate:       cloneTime(conference.StartDate),
		EndDate:         cloneTime(conference.EndDate),
		Month:           conference.Month,
		MaxAttendees:    conference.MaxAttendees,
		SeatsAvailable:  conference.SeatsAvailable,
		CreatedAt:       conference.CreatedAt,
		UpdatedAt:       conference.UpdatedAt,
	}
}

func toPersistenceQuery(query application.ConferenceQuery) persistence.ConferenceQuery {
	filters := make([]persistence.ConferenceFilter, 0, len(query.Filters))
	for _, f := range query.Filters {
		filters = append(filters, persistence.ConferenceFilter{Field: f.Field, Operator: f.Operator, Value: f.Value})
	}
	return persistence.ConferenceQuery{Filters: filters, OrderBy: query.InequalityField}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:              model.ID,
		ConferenceID:    model.ConferenceID,
		OrganizerUserID: model.OrganizerUserID,
		Name:            model.Name,
		Highlights:      append([]string(nil), model.Highlights...),
		Speaker:         model.Speaker,
		SpeakerIDs:      append([]int64(nil), model.SpeakerIDs...),
		SpeakerKeys:     append([]string(nil), model.SpeakerKeys...),
		Duration:        model.Duration,
		TypeOfSession:   application.SessionType(model.TypeOfSession),
		LocalDate:       cloneTime(model.LocalDate),
		LocalTime:       model.LocalTime,
	}
}

func toApplicationSessions(models []persistence.Session) []application.Session {
	if len(models) == 0 {
		return nil
	}
	sessions := make([]application.Session, 0, len(models))
	for _, model := range models {
		sessions = append(sessions, toApplicationSession(model))
	}
	return sessions
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:              session.ID,
		ConferenceID:    session.ConferenceID,
		OrganizerUserID: session.OrganizerUserID,
		Name:            session.Name,
		Highlights:      append([]string(nil), session.Highlights...),
		Speaker:         session.Speaker,
		SpeakerIDs:      append([]int64(nil), session.SpeakerIDs...),
		SpeakerKeys:     append([]string(nil), session.SpeakerKeys...),
		Duration:        session.Duration,
		TypeOfSession:   string(session.TypeOfSession),
		LocalDate:       cloneTime(session.LocalDate),
		LocalTime:       session.LocalTime,
	}
}

func toApplicationSpeaker(model persistence.Speaker) application.Speaker {
	return application.Speaker{
		ID:          model.ID,
		DisplayName: model.DisplayName,
		Bio:         model.Bio,
	}
}

func toApplicationProfile(model persistence.Profile) application.Profile {
	return application.Profile{
		UserID:                 model.UserID,
		DisplayName:            model.DisplayName,
		MainEmail:              model.MainEmail,
		TeeShirtSize:           application.TeeShirtSize(model.TeeShirtSize),
		ConferenceKeysToAttend: append([]string(nil), model.ConferenceKeysToAttend...),
		WishlistSessionKeys:    append([]string(nil), model.WishlistSessionKeys...),
	}
}

func toPersistenceProfile(profile application.Profile) persistence.Profile {
	return persistence.Profile{
		UserID:                 profile.UserID,
		DisplayName:            profile.DisplayName,
		MainEmail:              profile.MainEmail,
		TeeShirtSize:           string(profile.TeeShirtSize),
		ConferenceKeysToAttend: append([]string(nil), profile.ConferenceKeysToAttend...),
		WishlistSessionKeys:    append([]string(nil), profile.WishlistSessionKeys...),
	}
}

// mergeProfile keeps the stored timestamps, which the application model does
// not carry.
func mergeProfile(model persistence.Profile, profile application.Profile) persistence.Profile {
	merged := toPersistenceProfile(profile)
	merged.CreatedAt = model.CreatedAt
	merged.UpdatedAt = model.UpdatedAt
	return merged
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
