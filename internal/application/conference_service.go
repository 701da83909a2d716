package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/conference-central/internal/notify"
)

// Conference defaults applied at creation.
const (
	DefaultCity = "Default City"
)

// DefaultTopics are assigned to conferences created without topics.
var DefaultTopics = []string{"Default", "Topic"}

// ConferenceService orchestrates validation, ownership checks and persistence for conferences.
type ConferenceService struct {
	conferences ConferenceRepository
	profiles    ProfileRepository
	tasks       TaskEnqueuer
	logger      *slog.Logger
}

// NewConferenceService constructs a conference service with the provided dependencies.
func NewConferenceService(conferences ConferenceRepository, profiles ProfileRepository, tasks TaskEnqueuer) *ConferenceService {
	return NewConferenceServiceWithLogger(conferences, profiles, tasks, nil)
}

// NewConferenceServiceWithLogger constructs a conference service with a specified logger.
func NewConferenceServiceWithLogger(conferences ConferenceRepository, profiles ProfileRepository, tasks TaskEnqueuer, logger *slog.Logger) *ConferenceService {
	return &ConferenceService{
		conferences: conferences,
		profiles:    profiles,
		tasks:       tasks,
		logger:      defaultLogger(logger),
	}
}

func (s *ConferenceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ConferenceService", operation, attrs...)
}

// CreateConference validates input, applies defaults and stores a conference
// owned by the caller.
func (s *ConferenceService) CreateConference(ctx context.Context, principal Principal, input ConferenceInput) (view ConferenceView, err error) {
	if s == nil {
		err = fmt.Errorf("ConferenceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateConference", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create conference", "conference created", "conference_id", view.ID)
	}()

	if !principal.Authenticated() {
		err = unauthorized()
		return
	}
	if strings.TrimSpace(input.Name) == "" {
		err = &ValidationError{FieldErrors: map[string]string{"name": "Conference 'name' field required"}}
		return
	}

	var conference Conference
	conference, err = conferenceFromInput(input)
	if err != nil {
		return
	}
	conference.OrganizerUserID = principal.UserID

	var profile Profile
	profile, err = ensureProfile(ctx, s.profiles, principal)
	if err != nil {
		return
	}

	if s.conferences == nil {
		err = fmt.Errorf("conference repository not configured")
		return
	}
	conference, err = s.conferences.CreateConference(ctx, conference)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	enqueueNotification(ctx, s.tasks, logger, notify.ConferenceConfirmationURL, map[string]string{
		notify.ParamEmail:          principal.Email,
		notify.ParamConferenceInfo: describeConferenceInput(input),
	})

	view = ConferenceView{Conference: conference, OrganizerDisplayName: profile.DisplayName}
	return
}

// UpdateConference applies the supplied fields to a conference owned by the caller.
func (s *ConferenceService) UpdateConference(ctx context.Context, principal Principal, websafeKey string, input ConferenceInput) (view ConferenceView, err error) {
	if s == nil {
		err = fmt.Errorf("ConferenceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateConference",
		"principal_id", principal.UserID,
		"conference_key", websafeKey,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update conference", "conference updated")
	}()

	if !principal.Authenticated() {
		err = unauthorized()
		return
	}
	if _, err = ensureProfile(ctx, s.profiles, principal); err != nil {
		return
	}

	var current Conference
	current, err = resolveConference(ctx, s.conferences, websafeKey)
	if err != nil {
		return
	}

	var updated Conference
	updated, err = s.conferences.UpdateConference(ctx, current.ID, func(c *Conference) error {
		if c.OrganizerUserID != principal.UserID {
			return forbidden("Only the owner can update the conference.")
		}
		return applyConferenceInput(c, input)
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	var views []ConferenceView
	views, err = withOrganizers(ctx, s.profiles, []Conference{updated})
	if err != nil {
		return
	}
	view = views[0]
	return
}

// GetConference returns the conference a websafe key points at.
func (s *ConferenceService) GetConference(ctx context.Context, websafeKey string) (view ConferenceView, err error) {
	if s == nil {
		err = fmt.Errorf("ConferenceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetConference", "conference_key", websafeKey)
	defer func() {
		logOutcome(ctx, logger, err, "failed to get conference", "conference fetched")
	}()

	var conference Conference
	conference, err = resolveConference(ctx, s.conferences, websafeKey)
	if err != nil {
		return
	}

	var views []ConferenceView
	views, err = withOrganizers(ctx, s.profiles, []Conference{conference})
	if err != nil {
		return
	}
	view = views[0]
	return
}

// GetConferencesCreated lists the conferences organized by the caller.
func (s *ConferenceService) GetConferencesCreated(ctx context.Context, principal Principal) (views []ConferenceView, err error) {
	if s == nil {
		err = fmt.Errorf("ConferenceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetConferencesCreated", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list created conferences", "created conferences listed", "result_count", len(views))
	}()

	if !principal.Authenticated() {
		err = unauthorized()
		return
	}

	var conferences []Conference
	conferences, err = s.conferences.ListConferencesByOrganizer(ctx, principal.UserID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	views, err = withOrganizers(ctx, s.profiles, conferences)
	return
}

// QueryConferences runs a filtered conference query.
func (s *ConferenceService) QueryConferences(ctx context.Context, filters []QueryFilter) (views []ConferenceView, err error) {
	if s == nil {
		err = fmt.Errorf("ConferenceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "QueryConferences", "filter_count", len(filters))
	defer func() {
		logOutcome(ctx, logger, err, "failed to query conferences", "conferences queried", "result_count", len(views))
	}()

	var query ConferenceQuery
	query, err = BuildConferenceQuery(filters)
	if err != nil {
		return
	}
	views, err = s.runQuery(ctx, query)
	return
}

// FilterPlayground runs a fixed sample query: London conferences in June
// about Medical Innovations.
func (s *ConferenceService) FilterPlayground(ctx context.Context) (views []ConferenceView, err error) {
	if s == nil {
		err = fmt.Errorf("ConferenceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "FilterPlayground")
	defer func() {
		logOutcome(ctx, logger, err, "failed to run playground query", "playground query run", "result_count", len(views))
	}()

	views, err = s.runQuery(ctx, playgroundQuery())
	return
}

func (s *ConferenceService) runQuery(ctx context.Context, query ConferenceQuery) ([]ConferenceView, error) {
	conferences, err := s.conferences.QueryConferences(ctx, query)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return withOrganizers(ctx, s.profiles, conferences)
}

func conferenceFromInput(input ConferenceInput) (Conference, error) {
	conference := Conference{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Topics:      trimmedList(input.Topics),
		City:        strings.TrimSpace(input.City),
	}
	if len(conference.Topics) == 0 {
		conference.Topics = append([]string(nil), DefaultTopics...)
	}
	if conference.City == "" {
		conference.City = DefaultCity
	}

	var err error
	if conference.StartDate, err = parseDate(input.StartDate, "startDate"); err != nil {
		return Conference{}, err
	}
	if conference.EndDate, err = parseDate(input.EndDate, "endDate"); err != nil {
		return Conference{}, err
	}
	conference.Month = monthOf(conference.StartDate)

	if input.MaxAttendees != nil {
		if *input.MaxAttendees < 0 {
			return Conference{}, badRequest("Conference 'maxAttendees' must not be negative")
		}
		conference.MaxAttendees = *input.MaxAttendees
	}
	conference.SeatsAvailable = conference.MaxAttendees
	return conference, nil
}

// applyConferenceInput overwrites the supplied fields of c. The organizer is
// never changed.
func applyConferenceInput(c *Conference, input ConferenceInput) error {
	if name := strings.TrimSpace(input.Name); name != "" {
		c.Name = name
	}
	if input.Description != "" {
		c.Description = input.Description
	}
	if topics := trimmedList(input.Topics); len(topics) > 0 {
		c.Topics = topics
	}
	if city := strings.TrimSpace(input.City); city != "" {
		c.City = city
	}
	if input.StartDate != "" {
		start, err := parseDate(input.StartDate, "startDate")
		if err != nil {
			return err
		}
		c.StartDate = start
		c.Month = monthOf(start)
	}
	if input.EndDate != "" {
		end, err := parseDate(input.EndDate, "endDate")
		if err != nil {
			return err
		}
		c.EndDate = end
	}
	if input.MaxAttendees != nil {
		if *input.MaxAttendees < 0 {
			return badRequest("Conference 'maxAttendees' must not be negative")
		}
		c.MaxAttendees = *input.MaxAttendees
	}
	if input.SeatsAvailable != nil {
		c.SeatsAvailable = *input.SeatsAvailable
	}
	if c.SeatsAvailable < 0 || (c.MaxAttendees > 0 && c.SeatsAvailable > c.MaxAttendees) {
		return badRequest("Conference 'seatsAvailable' must be between 0 and maxAttendees")
	}
	return nil
}

func describeConferenceInput(input ConferenceInput) string {
	return fmt.Sprintf("name=%q description=%q topics=%q city=%q startDate=%q endDate=%q maxAttendees=%s",
		input.Name, input.Description, input.Topics, input.City, input.StartDate, input.EndDate, describeInt(input.MaxAttendees))
}

func describeInt(value *int) string {
	if value == nil {
		return "unset"
	}
	return fmt.Sprint(*value)
}
