package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/conference-central/internal/keys"
	"github.com/example/conference-central/internal/notify"
)

// Session defaults applied at creation.
const (
	DefaultSessionDuration = "01:00"
	// latestSessionStart bounds GetNonWorkshopsBefore7.
	latestSessionStart = "19:00"
)

// DefaultHighlights are assigned to sessions created without highlights.
var DefaultHighlights = []string{"Default", "Highlights"}

// FeaturedSpeakerUpdater refreshes the featured speaker after a session is stored.
type FeaturedSpeakerUpdater interface {
	UpdateFeaturedSpeaker(ctx context.Context, conference Conference, speakerKeys []string) (string, error)
}

// SessionService orchestrates session creation and the session queries.
type SessionService struct {
	sessions    SessionRepository
	conferences ConferenceRepository
	speakers    SpeakerRepository
	tasks       TaskEnqueuer
	featured    FeaturedSpeakerUpdater
	logger      *slog.Logger
}

// NewSessionService constructs a session service with the provided dependencies.
func NewSessionService(sessions SessionRepository, conferences ConferenceRepository, speakers SpeakerRepository, tasks TaskEnqueuer, featured FeaturedSpeakerUpdater) *SessionService {
	return NewSessionServiceWithLogger(sessions, conferences, speakers, tasks, featured, nil)
}

// NewSessionServiceWithLogger constructs a session service with a specified logger.
func NewSessionServiceWithLogger(sessions SessionRepository, conferences ConferenceRepository, speakers SpeakerRepository, tasks TaskEnqueuer, featured FeaturedSpeakerUpdater, logger *slog.Logger) *SessionService {
	return &SessionService{
		sessions:    sessions,
		conferences: conferences,
		speakers:    speakers,
		tasks:       tasks,
		featured:    featured,
		logger:      defaultLogger(logger),
	}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

// CreateSession stores a session under a conference organized by the caller.
func (s *SessionService) CreateSession(ctx context.Context, principal Principal, websafeConferenceKey string, input SessionInput) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSession",
		"principal_id", principal.UserID,
		"conference_key", websafeConferenceKey,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create session", "session created", "session_id", session.ID)
	}()

	var conference Conference
	if conference, err = resolveConference(ctx, s.conferences, websafeConferenceKey); err != nil {
		return
	}
	if !principal.Authenticated() {
		err = unauthorized()
		return
	}
	if strings.TrimSpace(input.Name) == "" {
		err = &ValidationError{FieldErrors: map[string]string{"name": "Session 'name' field required"}}
		return
	}
	if conference.OrganizerUserID != principal.UserID {
		err = badRequest("You may only create sessions if you created the conference.")
		return
	}

	var draft Session
	if draft, err = sessionFromInput(conference, input); err != nil {
		return
	}

	session, err = s.sessions.CreateSession(ctx, draft)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	enqueueNotification(ctx, s.tasks, logger, notify.SessionConfirmationURL, map[string]string{
		notify.ParamEmail:       principal.Email,
		notify.ParamSessionInfo: describeSession(session),
	})

	if s.featured != nil && len(session.SpeakerKeys) > 0 {
		if _, featureErr := s.featured.UpdateFeaturedSpeaker(ctx, conference, session.SpeakerKeys); featureErr != nil {
			logger.WarnContext(ctx, "featured speaker refresh failed", "error", featureErr)
		}
	}
	return
}

// GetConferenceSessions lists every session of a conference.
func (s *SessionService) GetConferenceSessions(ctx context.Context, websafeConferenceKey string) (sessions []Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetConferenceSessions", "conference_key", websafeConferenceKey)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list conference sessions", "conference sessions listed", "result_count", len(sessions))
	}()

	sessions, err = s.listByConference(ctx, websafeConferenceKey, "")
	return
}

// GetConferenceSessionsByType lists the sessions of a conference with the given type.
func (s *SessionService) GetConferenceSessionsByType(ctx context.Context, websafeConferenceKey, typeOfSession string) (sessions []Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetConferenceSessionsByType",
		"conference_key", websafeConferenceKey,
		"type_of_session", typeOfSession,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list conference sessions by type", "conference sessions listed", "result_count", len(sessions))
	}()

	var sessionType SessionType
	if sessionType, err = ParseSessionType(typeOfSession); err != nil {
		return
	}
	sessions, err = s.listByConference(ctx, websafeConferenceKey, sessionType)
	return
}

func (s *SessionService) listByConference(ctx context.Context, websafeConferenceKey string, sessionType SessionType) ([]Session, error) {
	conference, err := resolveConference(ctx, s.conferences, websafeConferenceKey)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListSessionsByConference(ctx, conference.ID, sessionType)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return sessions, nil
}

// GetSessionsByTopic lists sessions whose name or highlights contain topic,
// ignoring case. An empty topic matches every session.
func (s *SessionService) GetSessionsByTopic(ctx context.Context, topic string) (sessions []Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetSessionsByTopic", "topic", topic)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list sessions by topic", "sessions by topic listed", "result_count", len(sessions))
	}()

	var all []Session
	if all, err = s.sessions.ListSessions(ctx); err != nil {
		err = mapRepoError(err)
		return
	}

	needle := strings.ToLower(strings.TrimSpace(topic))
	sessions = make([]Session, 0, len(all))
	for _, session := range all {
		if matchesTopic(session, needle) {
			sessions = append(sessions, session)
		}
	}
	return
}

func matchesTopic(session Session, needle string) bool {
	if strings.Contains(strings.ToLower(session.Name), needle) {
		return true
	}
	for _, highlight := range session.Highlights {
		if strings.Contains(strings.ToLower(highlight), needle) {
			return true
		}
	}
	return false
}

// GetNonWorkshopsBefore7 lists sessions that are not workshops and start no
// later than 19:00. Sessions without a start time come first.
func (s *SessionService) GetNonWorkshopsBefore7(ctx context.Context) (sessions []Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetNonWorkshopsBefore7")
	defer func() {
		logOutcome(ctx, logger, err, "failed to list early non-workshop sessions", "early non-workshop sessions listed", "result_count", len(sessions))
	}()

	var early []Session
	if early, err = s.sessions.ListSessionsStartingBy(ctx, latestSessionStart); err != nil {
		err = mapRepoError(err)
		return
	}
	sessions = make([]Session, 0, len(early))
	for _, session := range early {
		if session.TypeOfSession == SessionWorkshop {
			continue
		}
		sessions = append(sessions, session)
	}
	return
}

// GetSessionsBySpeaker lists the sessions a speaker is booked for.
func (s *SessionService) GetSessionsBySpeaker(ctx context.Context, websafeSpeakerKey string) (sessions []Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetSessionsBySpeaker", "speaker_key", websafeSpeakerKey)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list sessions by speaker", "sessions by speaker listed", "result_count", len(sessions))
	}()

	var speaker Speaker
	if speaker, err = resolveSpeaker(ctx, s.speakers, websafeSpeakerKey); err != nil {
		return
	}
	if sessions, err = s.sessions.ListSessionsBySpeakerID(ctx, speaker.ID); err != nil {
		err = mapRepoError(err)
	}
	return
}

func resolveSpeaker(ctx context.Context, speakers SpeakerRepository, websafeKey string) (Speaker, error) {
	missing := notFound("No speaker found with key: %s", websafeKey)
	id, err := keys.SpeakerID(websafeKey)
	if err != nil {
		return Speaker{}, missing
	}
	speaker, err := speakers.GetSpeaker(ctx, id)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			return Speaker{}, missing
		}
		return Speaker{}, err
	}
	return speaker, nil
}

func sessionFromInput(conference Conference, input SessionInput) (Session, error) {
	session := Session{
		ConferenceID:    conference.ID,
		OrganizerUserID: conference.OrganizerUserID,
		Name:            strings.TrimSpace(input.Name),
		Highlights:      trimmedList(input.Highlights),
		Speaker:         strings.TrimSpace(input.Speaker),
	}
	if len(session.Highlights) == 0 {
		session.Highlights = append([]string(nil), DefaultHighlights...)
	}

	var err error
	if session.TypeOfSession, err = ParseSessionType(input.TypeOfSession); err != nil {
		return Session{}, err
	}
	if session.Duration, err = parseClock(input.Duration, "duration"); err != nil {
		return Session{}, err
	}
	if session.Duration == "" {
		session.Duration = DefaultSessionDuration
	}
	if session.LocalTime, err = parseClock(input.LocalTime, "localTime"); err != nil {
		return Session{}, err
	}
	if session.LocalDate, err = parseDate(input.LocalDate, "localDate"); err != nil {
		return Session{}, err
	}
	if session.LocalDate != nil && conference.StartDate != nil && conference.EndDate != nil {
		if session.LocalDate.Before(*conference.StartDate) || session.LocalDate.After(*conference.EndDate) {
			return Session{}, badRequest("Session 'localDate': not within conference dates.")
		}
	}

	for _, raw := range input.SpeakerWebsafeKeys {
		key, decodeErr := keys.DecodeKind(raw, keys.KindSpeaker)
		if decodeErr != nil {
			return Session{}, badRequest("Invalid speaker key: %s", raw)
		}
		session.SpeakerKeys = append(session.SpeakerKeys, key.Encode())
		session.SpeakerIDs = append(session.SpeakerIDs, key.IntID)
	}
	return session, nil
}

func describeSession(session Session) string {
	return fmt.Sprintf("name=%q highlights=%q speaker=%q speakerKeys=%q duration=%q typeOfSession=%s localDate=%q localTime=%q",
		session.Name, session.Highlights, session.Speaker, session.SpeakerKeys, session.Duration,
		session.TypeOfSession, FormatDate(session.LocalDate), session.LocalTime)
}
