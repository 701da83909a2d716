package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// memoryStore is an in-memory implementation of every repository used by the
// services.
type memoryStore struct {
	mu sync.Mutex

	conferences map[int64]Conference
	sessions    map[int64]Session
	speakers    map[int64]Speaker
	profiles    map[string]Profile
	nextID      int64

	failWith error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		conferences: make(map[int64]Conference),
		sessions:    make(map[int64]Session),
		speakers:    make(map[int64]Speaker),
		profiles:    make(map[string]Profile),
	}
}

func (m *memoryStore) allocate() int64 {
	m.nextID++
	return m.nextID
}

func cloneConference(c Conference) Conference {
	c.Topics = append([]string(nil), c.Topics...)
	return c
}

func cloneSession(s Session) Session {
	s.Highlights = append([]string(nil), s.Highlights...)
	s.SpeakerKeys = append([]string(nil), s.SpeakerKeys...)
	s.SpeakerIDs = append([]int64(nil), s.SpeakerIDs...)
	return s
}

func cloneProfile(p Profile) Profile {
	p.ConferenceKeysToAttend = append([]string(nil), p.ConferenceKeysToAttend...)
	p.WishlistSessionKeys = append([]string(nil), p.WishlistSessionKeys...)
	return p
}

func (m *memoryStore) CreateConference(ctx context.Context, conference Conference) (Conference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return Conference{}, m.failWith
	}
	conference.ID = m.allocate()
	conference.CreatedAt = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	conference.UpdatedAt = conference.CreatedAt
	m.conferences[conference.ID] = cloneConference(conference)
	return cloneConference(conference), nil
}

func (m *memoryStore) GetConference(ctx context.Context, id int64) (Conference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return Conference{}, m.failWith
	}
	c, ok := m.conferences[id]
	if !ok {
		return Conference{}, ErrNotFound
	}
	return cloneConference(c), nil
}

func (m *memoryStore) GetConferences(ctx context.Context, ids []int64) ([]Conference, error) {
	var out []Conference
	for _, id := range ids {
		c, err := m.GetConference(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryStore) UpdateConference(ctx context.Context, id int64, mutate func(*Conference) error) (Conference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conferences[id]
	if !ok {
		return Conference{}, ErrNotFound
	}
	c = cloneConference(c)
	if err := mutate(&c); err != nil {
		return Conference{}, err
	}
	c.ID = id
	m.conferences[id] = cloneConference(c)
	return c, nil
}

func (m *memoryStore) ListConferencesByOrganizer(ctx context.Context, userID string) ([]Conference, error) {
	return m.filterConferences(func(c Conference) bool { return c.OrganizerUserID == userID }, nil), nil
}

func (m *memoryStore) QueryConferences(ctx context.Context, query ConferenceQuery) ([]Conference, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	match := func(c Conference) bool {
		for _, f := range query.Filters {
			if !matchesFilter(c, f) {
				return false
			}
		}
		return true
	}
	var less func(a, b Conference) bool
	switch query.InequalityField {
	case FieldCity:
		less = func(a, b Conference) bool { return a.City < b.City }
	case FieldMonth:
		less = func(a, b Conference) bool { return a.Month < b.Month }
	case FieldMaxAttendees:
		less = func(a, b Conference) bool { return a.MaxAttendees < b.MaxAttendees }
	}
	return m.filterConferences(match, less), nil
}

func matchesFilter(c Conference, f ConferenceFilter) bool {
	switch f.Field {
	case FieldCity:
		return compare(strings.Compare(c.City, f.Value.(string)), f.Operator)
	case FieldTopics:
		for _, topic := range c.Topics {
			if compare(strings.Compare(topic, f.Value.(string)), f.Operator) {
				return true
			}
		}
		return false
	case FieldMonth:
		return compare(c.Month-f.Value.(int), f.Operator)
	case FieldMaxAttendees:
		return compare(c.MaxAttendees-f.Value.(int), f.Operator)
	}
	panic(fmt.Sprintf("unknown field %q", f.Field))
}

func compare(diff int, operator string) bool {
	switch operator {
	case "=":
		return diff == 0
	case "!=":
		return diff != 0
	case ">":
		return diff > 0
	case ">=":
		return diff >= 0
	case "<":
		return diff < 0
	case "<=":
		return diff <= 0
	}
	panic(fmt.Sprintf("unknown operator %q", operator))
}

func (m *memoryStore) ListConferencesWithSeatsBetween(ctx context.Context, minSeats, maxSeats int) ([]Conference, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.filterConferences(
		func(c Conference) bool { return c.SeatsAvailable >= minSeats && c.SeatsAvailable <= maxSeats },
		func(a, b Conference) bool { return a.SeatsAvailable < b.SeatsAvailable },
	), nil
}

// filterConferences returns matching conferences ordered by less, then name, then id.
func (m *memoryStore) filterConferences(match func(Conference) bool, less func(a, b Conference) bool) []Conference {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Conference
	for _, c := range m.conferences {
		if match(c) {
			out = append(out, cloneConference(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if less != nil {
			if less(a, b) {
				return true
			}
			if less(b, a) {
				return false
			}
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return out
}

func (m *memoryStore) CreateSession(ctx context.Context, session Session) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return Session{}, m.failWith
	}
	if _, ok := m.conferences[session.ConferenceID]; !ok {
		return Session{}, ErrNotFound
	}
	session.ID = m.allocate()
	m.sessions[session.ID] = cloneSession(session)
	return cloneSession(session), nil
}

func (m *memoryStore) GetSession(ctx context.Context, id int64) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return cloneSession(s), nil
}

func (m *memoryStore) filterSessions(match func(Session) bool) []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, s := range m.sessions {
		if match(s) {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memoryStore) ListSessions(ctx context.Context) ([]Session, error) {
	return m.filterSessions(func(Session) bool { return true }), nil
}

func (m *memoryStore) ListSessionsByConference(ctx context.Context, conferenceID int64, typeOfSession SessionType) ([]Session, error) {
	return m.filterSessions(func(s Session) bool {
		return s.ConferenceID == conferenceID && (typeOfSession == "" || s.TypeOfSession == typeOfSession)
	}), nil
}

func (m *memoryStore) ListSessionsBySpeakerKey(ctx context.Context, conferenceID int64, speakerKey string) ([]Session, error) {
	return m.filterSessions(func(s Session) bool {
		return s.ConferenceID == conferenceID && containsString(s.SpeakerKeys, speakerKey)
	}), nil
}

func (m *memoryStore) ListSessionsBySpeakerID(ctx context.Context, speakerID int64) ([]Session, error) {
	return m.filterSessions(func(s Session) bool {
		for _, id := range s.SpeakerIDs {
			if id == speakerID {
				return true
			}
		}
		return false
	}), nil
}

func (m *memoryStore) ListSessionsStartingBy(ctx context.Context, localTime string) ([]Session, error) {
	out := m.filterSessions(func(s Session) bool { return s.LocalTime == "" || s.LocalTime <= localTime })
	sort.SliceStable(out, func(i, j int) bool { return out[i].LocalTime < out[j].LocalTime })
	return out, nil
}

func (m *memoryStore) CreateSpeaker(ctx context.Context, speaker Speaker) (Speaker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return Speaker{}, m.failWith
	}
	speaker.ID = m.allocate()
	m.speakers[speaker.ID] = speaker
	return speaker, nil
}

func (m *memoryStore) GetSpeaker(ctx context.Context, id int64) (Speaker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.speakers[id]
	if !ok {
		return Speaker{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) ListSpeakers(ctx context.Context) ([]Speaker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Speaker, 0, len(m.speakers))
	for _, s := range m.speakers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) GetProfile(ctx context.Context, userID string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return cloneProfile(p), nil
}

func (m *memoryStore) GetProfiles(ctx context.Context, userIDs []string) ([]Profile, error) {
	var out []Profile
	for _, id := range userIDs {
		if p, err := m.GetProfile(ctx, id); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryStore) CreateProfileIfMissing(ctx context.Context, profile Profile) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return Profile{}, m.failWith
	}
	if existing, ok := m.profiles[profile.UserID]; ok {
		return cloneProfile(existing), nil
	}
	m.profiles[profile.UserID] = cloneProfile(profile)
	return cloneProfile(profile), nil
}

func (m *memoryStore) UpdateProfile(ctx context.Context, userID string, mutate func(*Profile) error) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	p = cloneProfile(p)
	if err := mutate(&p); err != nil {
		return Profile{}, err
	}
	p.UserID = userID
	m.profiles[userID] = cloneProfile(p)
	return p, nil
}

func (m *memoryStore) UpdateRegistration(ctx context.Context, userID string, conferenceID int64, mutate func(*Profile, *Conference) error) (Profile, Conference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return Profile{}, Conference{}, ErrNotFound
	}
	c, ok := m.conferences[conferenceID]
	if !ok {
		return Profile{}, Conference{}, ErrNotFound
	}
	p, c = cloneProfile(p), cloneConference(c)
	if err := mutate(&p, &c); err != nil {
		return Profile{}, Conference{}, err
	}
	m.profiles[userID] = cloneProfile(p)
	m.conferences[conferenceID] = cloneConference(c)
	return p, c, nil
}

// unavailableStore fails single-record lookups the way a dropped database
// connection would, leaving every other method on the embedded store.
type unavailableStore struct {
	*memoryStore
	err error
}

func (u unavailableStore) GetConference(ctx context.Context, id int64) (Conference, error) {
	return Conference{}, u.err
}

func (u unavailableStore) GetSession(ctx context.Context, id int64) (Session, error) {
	return Session{}, u.err
}

func (u unavailableStore) GetSpeaker(ctx context.Context, id int64) (Speaker, error) {
	return Speaker{}, u.err
}

type enqueuedTask struct {
	URL    string
	Params map[string]string
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []enqueuedTask
	err   error
}

func (r *recordingEnqueuer) Enqueue(ctx context.Context, url string, params map[string]string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.tasks = append(r.tasks, enqueuedTask{URL: url, Params: params})
	return fmt.Sprintf("task-%d", len(r.tasks)), nil
}

func (r *recordingEnqueuer) urls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.tasks))
	for i, task := range r.tasks {
		out[i] = task.URL
	}
	return out
}

var (
	alice = Principal{UserID: "alice", Email: "alice@example.com", Nickname: "Alice"}
	bob   = Principal{UserID: "bob", Email: "bob@example.com", Nickname: "Bob"}
)

func intPtr(v int) *int { return &v }
