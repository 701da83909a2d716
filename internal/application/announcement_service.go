package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/conference-central/internal/cache"
	"github.com/example/conference-central/internal/keys"
)

// Seat bounds of a nearly sold out conference.
const (
	nearlySoldOutMin = 1
	nearlySoldOutMax = 5
)

// AnnouncementService maintains the derived announcement and featured speaker slots.
type AnnouncementService struct {
	conferences ConferenceRepository
	sessions    SessionRepository
	speakers    SpeakerRepository
	cache       cache.Cache
	logger      *slog.Logger
}

// NewAnnouncementService constructs an announcement service.
func NewAnnouncementService(conferences ConferenceRepository, sessions SessionRepository, speakers SpeakerRepository, c cache.Cache) *AnnouncementService {
	return NewAnnouncementServiceWithLogger(conferences, sessions, speakers, c, nil)
}

// NewAnnouncementServiceWithLogger constructs an announcement service with a specified logger.
func NewAnnouncementServiceWithLogger(conferences ConferenceRepository, sessions SessionRepository, speakers SpeakerRepository, c cache.Cache, logger *slog.Logger) *AnnouncementService {
	return &AnnouncementService{
		conferences: conferences,
		sessions:    sessions,
		speakers:    speakers,
		cache:       c,
		logger:      defaultLogger(logger),
	}
}

func (s *AnnouncementService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AnnouncementService", operation, attrs...)
}

// RefreshAnnouncement rewrites the announcement from the conferences that
// are nearly sold out, or clears it when there are none. It returns the
// stored text.
func (s *AnnouncementService) RefreshAnnouncement(ctx context.Context) (announcement string, err error) {
	if s == nil {
		err = fmt.Errorf("AnnouncementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RefreshAnnouncement")
	defer func() {
		logOutcome(ctx, logger, err, "failed to refresh announcement", "announcement refreshed", "empty", announcement == "")
	}()

	var conferences []Conference
	conferences, err = s.conferences.ListConferencesWithSeatsBetween(ctx, nearlySoldOutMin, nearlySoldOutMax)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if len(conferences) == 0 {
		err = s.cache.Delete(ctx, cache.AnnouncementKey)
		return
	}

	names := make([]string, len(conferences))
	for i, conference := range conferences {
		names[i] = conference.Name
	}
	announcement = "Last chance to attend! The following conferences are nearly sold out: " + strings.Join(names, ", ")
	if err = s.cache.Set(ctx, cache.AnnouncementKey, announcement, 0); err != nil {
		announcement = ""
	}
	return
}

// GetAnnouncement returns the current announcement. A miss or a cache
// failure reads as the empty string.
func (s *AnnouncementService) GetAnnouncement(ctx context.Context) string {
	return s.read(ctx, "GetAnnouncement", cache.AnnouncementKey)
}

// GetFeaturedSpeaker returns the current featured speaker text. A miss or a
// cache failure reads as the empty string.
func (s *AnnouncementService) GetFeaturedSpeaker(ctx context.Context) string {
	return s.read(ctx, "GetFeaturedSpeaker", cache.FeaturedSpeakerKey)
}

func (s *AnnouncementService) read(ctx context.Context, operation, key string) string {
	if s == nil || s.cache == nil {
		return ""
	}
	value, err := cache.GetString(ctx, s.cache, key)
	if err != nil {
		s.loggerWith(ctx, operation, "cache_key", key).WarnContext(ctx, "cache read failed", "error", err)
		return ""
	}
	return value
}

// UpdateFeaturedSpeaker checks the speakers of a new session in order and
// features the first one that speaks more than once at conference. The slot
// is left untouched when no speaker qualifies.
func (s *AnnouncementService) UpdateFeaturedSpeaker(ctx context.Context, conference Conference, speakerKeys []string) (featured string, err error) {
	if s == nil {
		err = fmt.Errorf("AnnouncementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateFeaturedSpeaker",
		"conference_id", conference.ID,
		"speaker_count", len(speakerKeys),
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update featured speaker", "featured speaker checked", "featured", featured != "")
	}()

	for _, speakerKey := range speakerKeys {
		var sessions []Session
		sessions, err = s.sessions.ListSessionsBySpeakerKey(ctx, conference.ID, speakerKey)
		if err != nil {
			err = mapRepoError(err)
			return
		}
		if len(sessions) <= 1 {
			continue
		}

		speakerID, decodeErr := keys.SpeakerID(speakerKey)
		if decodeErr != nil {
			continue
		}
		speaker, getErr := s.speakers.GetSpeaker(ctx, speakerID)
		if getErr != nil {
			if getErr = mapRepoError(getErr); !errors.Is(getErr, ErrNotFound) {
				err = getErr
				return
			}
			logger.DebugContext(ctx, "skipping unresolved speaker", "speaker_key", speakerKey, "error", getErr)
			continue
		}

		featured = featuredSpeakerText(speaker.DisplayName, conference.Name, sessions)
		if err = s.cache.Set(ctx, cache.FeaturedSpeakerKey, featured, 0); err != nil {
			featured = ""
		}
		return
	}
	return
}

func featuredSpeakerText(speaker, conference string, sessions []Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is speaking a bunch at the %s conference!", speaker, conference)
	for _, session := range sessions {
		fmt.Fprintf(&b, " %s!", session.Name)
	}
	return b.String()
}
