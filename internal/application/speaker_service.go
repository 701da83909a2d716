package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/conference-central/internal/notify"
)

// SpeakerService manages speaker records.
type SpeakerService struct {
	speakers SpeakerRepository
	tasks    TaskEnqueuer
	logger   *slog.Logger
}

// NewSpeakerService constructs a speaker service.
func NewSpeakerService(speakers SpeakerRepository, tasks TaskEnqueuer) *SpeakerService {
	return NewSpeakerServiceWithLogger(speakers, tasks, nil)
}

// NewSpeakerServiceWithLogger constructs a speaker service with a specified logger.
func NewSpeakerServiceWithLogger(speakers SpeakerRepository, tasks TaskEnqueuer, logger *slog.Logger) *SpeakerService {
	return &SpeakerService{speakers: speakers, tasks: tasks, logger: defaultLogger(logger)}
}

func (s *SpeakerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SpeakerService", operation, attrs...)
}

// CreateSpeaker stores a new speaker.
func (s *SpeakerService) CreateSpeaker(ctx context.Context, principal Principal, input SpeakerInput) (speaker Speaker, err error) {
	if s == nil {
		err = fmt.Errorf("SpeakerService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSpeaker", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create speaker", "speaker created", "speaker_id", speaker.ID)
	}()

	if !principal.Authenticated() {
		err = unauthorized()
		return
	}
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		err = &ValidationError{FieldErrors: map[string]string{"displayName": "Speaker 'displayName' field required"}}
		return
	}

	speaker, err = s.speakers.CreateSpeaker(ctx, Speaker{DisplayName: name, Bio: input.Bio})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	enqueueNotification(ctx, s.tasks, logger, notify.SpeakerConfirmationURL, map[string]string{
		notify.ParamEmail:       principal.Email,
		notify.ParamSpeakerInfo: fmt.Sprintf("displayName=%q bio=%q", speaker.DisplayName, speaker.Bio),
	})
	return
}

// GetSpeakers lists every speaker.
func (s *SpeakerService) GetSpeakers(ctx context.Context) (speakers []Speaker, err error) {
	if s == nil {
		err = fmt.Errorf("SpeakerService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetSpeakers")
	defer func() {
		logOutcome(ctx, logger, err, "failed to list speakers", "speakers listed", "result_count", len(speakers))
	}()

	if speakers, err = s.speakers.ListSpeakers(ctx); err != nil {
		err = mapRepoError(err)
	}
	return
}
