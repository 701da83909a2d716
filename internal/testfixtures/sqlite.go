package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/conference-central/internal/persistence"
	"github.com/example/conference-central/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite storage
// instance for integration-style tests.
type SQLiteHarness struct {
	Store       *sqlite.Store
	Clock       *Clock
	Conferences persistence.ConferenceRepository
	Sessions    persistence.SessionRepository
	Speakers    persistence.SpeakerRepository
	Profiles    persistence.ProfileRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Record timestamps come from the harness Clock.
// Callers may optionally invoke Close, but the helper will also register a
// cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "conference.db")
	storage, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	clock := NewClock(ReferenceTime())
	storage.SetClock(clock.NowFunc())

	harness := &SQLiteHarness{
		Store:       storage,
		Clock:       clock,
		Conferences: storage,
		Sessions:    storage,
		Speakers:    storage,
		Profiles:    storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedProfile stores the profile fixture.
func (h *SQLiteHarness) SeedProfile(tb testing.TB, fixture ProfileFixture) persistence.Profile {
	tb.Helper()
	profile, err := h.Profiles.CreateProfileIfMissing(context.Background(), fixture.Persistence())
	if err != nil {
		tb.Fatalf("failed to seed profile %s: %v", fixture.UserID, err)
	}
	return profile
}

// SeedConference stores the conference fixture.
func (h *SQLiteHarness) SeedConference(tb testing.TB, fixture ConferenceFixture) persistence.Conference {
	tb.Helper()
	conference, err := h.Conferences.CreateConference(context.Background(), fixture.Persistence())
	if err != nil {
		tb.Fatalf("failed to seed conference %s: %v", fixture.Name, err)
	}
	return conference
}

// SeedSpeaker stores the speaker fixture.
func (h *SQLiteHarness) SeedSpeaker(tb testing.TB, fixture SpeakerFixture) persistence.Speaker {
	tb.Helper()
	speaker, err := h.Speakers.CreateSpeaker(context.Background(), fixture.Persistence())
	if err != nil {
		tb.Fatalf("failed to seed speaker %s: %v", fixture.DisplayName, err)
	}
	return speaker
}

// SeedSession stores the session fixture.
func (h *SQLiteHarness) SeedSession(tb testing.TB, fixture SessionFixture) persistence.Session {
	tb.Helper()
	session, err := h.Sessions.CreateSession(context.Background(), fixture.Persistence())
	if err != nil {
		tb.Fatalf("failed to seed session %s: %v", fixture.Name, err)
	}
	return session
}
