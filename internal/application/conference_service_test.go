package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/conference-central/internal/keys"
	"github.com/example/conference-central/internal/notify"
	"github.com/google/go-cmp/cmp"
)

func newConferenceFixture() (*ConferenceService, *memoryStore, *recordingEnqueuer) {
	store := newMemoryStore()
	tasks := &recordingEnqueuer{}
	return NewConferenceService(store, store, tasks), store, tasks
}

func TestConferenceService_CreateConference(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an identity", func(t *testing.T) {
		svc, _, _ := newConferenceFixture()
		_, err := svc.CreateConference(ctx, Principal{}, ConferenceInput{Name: "GopherCon"})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("requires a name", func(t *testing.T) {
		svc, _, _ := newConferenceFixture()
		_, err := svc.CreateConference(ctx, alice, ConferenceInput{Name: "  "})
		if !errors.Is(err, ErrBadRequest) {
			t.Fatalf("expected ErrBadRequest, got %v", err)
		}
		if err.Error() != "Conference 'name' field required" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("applies defaults and derives month and seats", func(t *testing.T) {
		svc, store, tasks := newConferenceFixture()
		view, err := svc.CreateConference(ctx, alice, ConferenceInput{
			Name:         "GopherCon",
			StartDate:    "2024-06-10T00:00:00",
			EndDate:      "2024-06-12",
			MaxAttendees: intPtr(100),
		})
		if err != nil {
			t.Fatalf("CreateConference failed: %v", err)
		}

		if view.City != DefaultCity {
			t.Errorf("expected default city, got %q", view.City)
		}
		if diff := cmp.Diff(DefaultTopics, view.Topics); diff != "" {
			t.Errorf("topics mismatch (-want +got):\n%s", diff)
		}
		if view.Month != 6 {
			t.Errorf("expected month 6, got %d", view.Month)
		}
		if view.SeatsAvailable != 100 {
			t.Errorf("expected 100 seats, got %d", view.SeatsAvailable)
		}
		if view.OrganizerUserID != "alice" || view.OrganizerDisplayName != "Alice" {
			t.Errorf("unexpected organizer %q / %q", view.OrganizerUserID, view.OrganizerDisplayName)
		}
		if FormatDate(view.StartDate) != "2024-06-10" {
			t.Errorf("unexpected start date %q", FormatDate(view.StartDate))
		}

		key, err := keys.Decode(view.WebsafeKey())
		if err != nil {
			t.Fatalf("websafe key does not decode: %v", err)
		}
		if key.Parent == nil || key.Parent.StringID != "alice" {
			t.Errorf("expected conference parented under alice, got %s", key)
		}

		if _, ok := store.profiles["alice"]; !ok {
			t.Error("expected organizer profile to be created")
		}
		if diff := cmp.Diff([]string{notify.ConferenceConfirmationURL}, tasks.urls()); diff != "" {
			t.Errorf("enqueued tasks mismatch (-want +got):\n%s", diff)
		}
		if got := tasks.tasks[0].Params[notify.ParamEmail]; got != "alice@example.com" {
			t.Errorf("unexpected task email %q", got)
		}
	})

	t.Run("zero capacity leaves zero seats", func(t *testing.T) {
		svc, _, _ := newConferenceFixture()
		view, err := svc.CreateConference(ctx, alice, ConferenceInput{Name: "Meetup"})
		if err != nil {
			t.Fatalf("CreateConference failed: %v", err)
		}
		if view.MaxAttendees != 0 || view.SeatsAvailable != 0 || view.Month != 0 {
			t.Errorf("unexpected capacity fields %+v", view.Conference)
		}
	})

	t.Run("rejects invalid dates", func(t *testing.T) {
		svc, _, _ := newConferenceFixture()
		_, err := svc.CreateConference(ctx, alice, ConferenceInput{Name: "Bad", StartDate: "June 1st"})
		if !errors.Is(err, ErrBadRequest) {
			t.Fatalf("expected ErrBadRequest, got %v", err)
		}
	})

	t.Run("enqueue failure does not fail creation", func(t *testing.T) {
		store := newMemoryStore()
		svc := NewConferenceService(store, store, &recordingEnqueuer{err: errors.New("queue full")})
		if _, err := svc.CreateConference(ctx, alice, ConferenceInput{Name: "Resilient"}); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
	})
}

func TestConferenceService_UpdateConference(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*ConferenceService, ConferenceView) {
		t.Helper()
		svc, _, _ := newConferenceFixture()
		view, err := svc.CreateConference(ctx, alice, ConferenceInput{
			Name:         "Original",
			City:         "Paris",
			StartDate:    "2024-03-01",
			MaxAttendees: intPtr(50),
		})
		if err != nil {
			t.Fatalf("CreateConference failed: %v", err)
		}
		return svc, view
	}

	t.Run("owner updates supplied fields only", func(t *testing.T) {
		svc, created := setup(t)
		updated, err := svc.UpdateConference(ctx, alice, created.WebsafeKey(), ConferenceInput{
			Name:      "Renamed",
			StartDate: "2024-09-15",
		})
		if err != nil {
			t.Fatalf("UpdateConference failed: %v", err)
		}
		if updated.Name != "Renamed" || updated.City != "Paris" {
			t.Errorf("unexpected fields name=%q city=%q", updated.Name, updated.City)
		}
		if updated.Month != 9 {
			t.Errorf("expected month to follow start date, got %d", updated.Month)
		}
		if updated.OrganizerDisplayName != "Alice" {
			t.Errorf("expected organizer display name, got %q", updated.OrganizerDisplayName)
		}
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		svc, created := setup(t)
		_, err := svc.UpdateConference(ctx, bob, created.WebsafeKey(), ConferenceInput{Name: "Hijacked"})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if err.Error() != "Only the owner can update the conference." {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("unknown key is not found", func(t *testing.T) {
		svc, _ := setup(t)
		_, err := svc.UpdateConference(ctx, alice, keys.NewConferenceKey("alice", 999).Encode(), ConferenceInput{Name: "x"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("seats above capacity are rejected", func(t *testing.T) {
		svc, created := setup(t)
		_, err := svc.UpdateConference(ctx, alice, created.WebsafeKey(), ConferenceInput{SeatsAvailable: intPtr(51)})
		if !errors.Is(err, ErrBadRequest) {
			t.Fatalf("expected ErrBadRequest, got %v", err)
		}
	})

	t.Run("anonymous caller is unauthorized", func(t *testing.T) {
		svc, created := setup(t)
		_, err := svc.UpdateConference(ctx, Principal{}, created.WebsafeKey(), ConferenceInput{Name: "x"})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestConferenceService_GetConference(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newConferenceFixture()

	created, err := svc.CreateConference(ctx, alice, ConferenceInput{Name: "Lookup"})
	if err != nil {
		t.Fatalf("CreateConference failed: %v", err)
	}

	got, err := svc.GetConference(ctx, created.WebsafeKey())
	if err != nil {
		t.Fatalf("GetConference failed: %v", err)
	}
	if got.Name != "Lookup" || got.OrganizerDisplayName != "Alice" {
		t.Errorf("unexpected view %+v", got)
	}

	for _, key := range []string{"garbage", keys.NewSpeakerKey(1).Encode(), keys.NewConferenceKey("bob", created.ID).Encode()} {
		if _, err := svc.GetConference(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetConference(%q): expected ErrNotFound, got %v", key, err)
		}
	}
}

func TestConferenceService_GetConferencesCreated(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newConferenceFixture()

	for _, p := range []struct {
		principal Principal
		name      string
	}{{alice, "B"}, {bob, "Other"}, {alice, "A"}} {
		if _, err := svc.CreateConference(ctx, p.principal, ConferenceInput{Name: p.name}); err != nil {
			t.Fatalf("CreateConference failed: %v", err)
		}
	}

	views, err := svc.GetConferencesCreated(ctx, alice)
	if err != nil {
		t.Fatalf("GetConferencesCreated failed: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B"}, viewNames(views)); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	if _, err := svc.GetConferencesCreated(ctx, Principal{}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestConferenceService_QueryConferences(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newConferenceFixture()

	seed := []ConferenceInput{
		{Name: "Zeta", City: "London", MaxAttendees: intPtr(10), Topics: []string{"Medical Innovations"}, StartDate: "2024-06-01"},
		{Name: "Alpha", City: "London", MaxAttendees: intPtr(50), Topics: []string{"Medical Innovations", "Web"}, StartDate: "2024-06-20"},
		{Name: "Beta", City: "Tokyo", MaxAttendees: intPtr(30)},
		{Name: "Gamma", City: "London", MaxAttendees: intPtr(10)},
	}
	for _, input := range seed {
		if _, err := svc.CreateConference(ctx, alice, input); err != nil {
			t.Fatalf("CreateConference(%s) failed: %v", input.Name, err)
		}
	}

	tests := []struct {
		name    string
		filters []QueryFilter
		want    []string
		wantErr error
		message string
	}{
		{name: "no filters orders by name", want: []string{"Alpha", "Beta", "Gamma", "Zeta"}},
		{
			name:    "inequality orders by field then name",
			filters: []QueryFilter{{Field: "CITY", Operator: "EQ", Value: "London"}, {Field: "MAX_ATTENDEES", Operator: "GT", Value: "5"}},
			want:    []string{"Gamma", "Zeta", "Alpha"},
		},
		{
			name:    "topic matches any element",
			filters: []QueryFilter{{Field: "topic", Operator: "eq", Value: "Web"}},
			want:    []string{"Alpha"},
		},
		{
			name:    "two inequality fields",
			filters: []QueryFilter{{Field: "CITY", Operator: "NE", Value: "Paris"}, {Field: "MONTH", Operator: "GT", Value: "1"}},
			wantErr: ErrBadRequest,
			message: "Inequality filter is allowed on only one field.",
		},
		{
			name:    "unknown operator",
			filters: []QueryFilter{{Field: "CITY", Operator: "LIKE", Value: "Lon"}},
			wantErr: ErrBadRequest,
			message: "Filter contains invalid field or operator.",
		},
		{
			name:    "non numeric month",
			filters: []QueryFilter{{Field: "MONTH", Operator: "EQ", Value: "June"}},
			wantErr: ErrBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := svc.QueryConferences(ctx, tt.filters)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if tt.message != "" && err.Error() != tt.message {
					t.Errorf("unexpected message %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("QueryConferences failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, viewNames(views)); diff != "" {
				t.Errorf("names mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("filter playground", func(t *testing.T) {
		views, err := svc.FilterPlayground(ctx)
		if err != nil {
			t.Fatalf("FilterPlayground failed: %v", err)
		}
		if diff := cmp.Diff([]string{"Alpha", "Zeta"}, viewNames(views)); diff != "" {
			t.Errorf("names mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestConferenceService_Registration(t *testing.T) {
	ctx := context.Background()

	t.Run("register decrements seats once", func(t *testing.T) {
		svc, store, _ := newConferenceFixture()
		conf, err := svc.CreateConference(ctx, alice, ConferenceInput{Name: "Small", MaxAttendees: intPtr(2)})
		if err != nil {
			t.Fatalf("CreateConference failed: %v", err)
		}

		ok, err := svc.RegisterForConference(ctx, bob, conf.WebsafeKey())
		if err != nil || !ok {
			t.Fatalf("RegisterForConference = %v, %v", ok, err)
		}

		_, err = svc.RegisterForConference(ctx, bob, conf.WebsafeKey())
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict on duplicate, got %v", err)
		}
		if err.Error() != "You have already registered for this conference" {
			t.Errorf("unexpected message %q", err.Error())
		}

		if seats := store.conferences[conf.ID].SeatsAvailable; seats != 1 {
			t.Errorf("expected 1 seat left, got %d", seats)
		}
		if diff := cmp.Diff([]string{conf.WebsafeKey()}, store.profiles["bob"].ConferenceKeysToAttend); diff != "" {
			t.Errorf("attending mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("full conference rejects registration", func(t *testing.T) {
		svc, _, _ := newConferenceFixture()
		conf, err := svc.CreateConference(ctx, alice, ConferenceInput{Name: "Tiny", MaxAttendees: intPtr(1)})
		if err != nil {
			t.Fatalf("CreateConference failed: %v", err)
		}
		if _, err := svc.RegisterForConference(ctx, alice, conf.WebsafeKey()); err != nil {
			t.Fatalf("first registration failed: %v", err)
		}
		_, err = svc.RegisterForConference(ctx, bob, conf.WebsafeKey())
		if !errors.Is(err, ErrConflict) || err.Error() != "There are no seats available." {
			t.Fatalf("expected no seats conflict, got %v", err)
		}
	})

	t.Run("unregister without registration reports false", func(t *testing.T) {
		svc, store, _ := newConferenceFixture()
		conf, err := svc.CreateConference(ctx, alice, ConferenceInput{Name: "Quiet", MaxAttendees: intPtr(3)})
		if err != nil {
			t.Fatalf("CreateConference failed: %v", err)
		}
		ok, err := svc.UnregisterFromConference(ctx, bob, conf.WebsafeKey())
		if err != nil || ok {
			t.Fatalf("UnregisterFromConference = %v, %v", ok, err)
		}
		if seats := store.conferences[conf.ID].SeatsAvailable; seats != 3 {
			t.Errorf("expected seats unchanged, got %d", seats)
		}
	})

	t.Run("unregister restores the seat", func(t *testing.T) {
		svc, store, _ := newConferenceFixture()
		conf, err := svc.CreateConference(ctx, alice, ConferenceInput{Name: "Round trip", MaxAttendees: intPtr(3)})
		if err != nil {
			t.Fatalf("CreateConference failed: %v", err)
		}
		if _, err := svc.RegisterForConference(ctx, bob, conf.WebsafeKey()); err != nil {
			t.Fatalf("RegisterForConference failed: %v", err)
		}
		ok, err := svc.UnregisterFromConference(ctx, bob, conf.WebsafeKey())
		if err != nil || !ok {
			t.Fatalf("UnregisterFromConference = %v, %v", ok, err)
		}
		if seats := store.conferences[conf.ID].SeatsAvailable; seats != 3 {
			t.Errorf("expected 3 seats, got %d", seats)
		}
		if len(store.profiles["bob"].ConferenceKeysToAttend) != 0 {
			t.Errorf("expected attending list to be empty")
		}
	})

	t.Run("unknown conference is not found", func(t *testing.T) {
		svc, _, _ := newConferenceFixture()
		_, err := svc.RegisterForConference(ctx, bob, keys.NewConferenceKey("alice", 42).Encode())
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("anonymous caller is unauthorized", func(t *testing.T) {
		svc, _, _ := newConferenceFixture()
		_, err := svc.RegisterForConference(ctx, Principal{}, "anything")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestConferenceService_GetConferencesToAttend(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newConferenceFixture()

	first, err := svc.CreateConference(ctx, alice, ConferenceInput{Name: "First", MaxAttendees: intPtr(5)})
	if err != nil {
		t.Fatalf("CreateConference failed: %v", err)
	}
	second, err := svc.CreateConference(ctx, alice, ConferenceInput{Name: "Second", MaxAttendees: intPtr(5)})
	if err != nil {
		t.Fatalf("CreateConference failed: %v", err)
	}
	for _, conf := range []ConferenceView{second, first} {
		if _, err := svc.RegisterForConference(ctx, bob, conf.WebsafeKey()); err != nil {
			t.Fatalf("RegisterForConference failed: %v", err)
		}
	}

	profile := store.profiles["bob"]
	profile.ConferenceKeysToAttend = append(profile.ConferenceKeysToAttend, keys.NewConferenceKey("alice", 404).Encode())
	store.profiles["bob"] = profile

	views, err := svc.GetConferencesToAttend(ctx, bob)
	if err != nil {
		t.Fatalf("GetConferencesToAttend failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Second", "First"}, viewNames(views)); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if views[0].OrganizerDisplayName != "Alice" {
		t.Errorf("expected organizer display name, got %q", views[0].OrganizerDisplayName)
	}

	t.Run("store failure is returned", func(t *testing.T) {
		outage := errors.New("database is unavailable")
		down := NewConferenceService(unavailableStore{memoryStore: store, err: outage}, store, nil)
		views, err := down.GetConferencesToAttend(ctx, bob)
		if !errors.Is(err, outage) {
			t.Fatalf("expected store error, got %v", err)
		}
		if len(views) != 0 {
			t.Errorf("expected no conferences, got %d", len(views))
		}
	})
}

func viewNames(views []ConferenceView) []string {
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Name
	}
	return names
}
