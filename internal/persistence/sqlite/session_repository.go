package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/conference-central/internal/persistence"
)

const sessionSelect = `
	SELECT s.id, s.conference_id, c.organizer_user_id, s.name, s.highlights, s.speaker, s.speaker_ids,
		s.speaker_keys, s.duration, s.type_of_session, s.local_date, s.local_time, s.created_at
	FROM sessions s
	JOIN conferences c ON c.id = s.conference_id`

// CreateSession inserts a session under its conference. A missing conference
// is reported as ErrConstraintViolation by the foreign key.
func (s *Store) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	highlights, err := encodeStrings(session.Highlights)
	if err != nil {
		return persistence.Session{}, err
	}
	speakerIDs, err := encodeInts(session.SpeakerIDs)
	if err != nil {
		return persistence.Session{}, err
	}
	speakerKeys, err := encodeStrings(session.SpeakerKeys)
	if err != nil {
		return persistence.Session{}, err
	}
	typeOfSession := session.TypeOfSession
	if typeOfSession == "" {
		typeOfSession = "NOT_SPECIFIED"
	}

	result, err := s.pool.DB().ExecContext(ctx, `
		INSERT INTO sessions (conference_id, name, highlights, speaker, speaker_ids, speaker_keys,
			duration, type_of_session, local_date, local_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ConferenceID,
		session.Name,
		highlights,
		session.Speaker,
		speakerIDs,
		speakerKeys,
		encodeOptional(session.Duration),
		typeOfSession,
		encodeDate(session.LocalDate),
		encodeOptional(session.LocalTime),
		s.timestamp(),
	)
	if err != nil {
		return persistence.Session{}, s.mapper.MapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to read session id: %w", err)
	}
	return s.GetSession(ctx, id)
}

// GetSession loads a session by id.
func (s *Store) GetSession(ctx context.Context, id int64) (persistence.Session, error) {
	row := s.pool.DB().QueryRowContext(ctx, sessionSelect+` WHERE s.id = ?`, id)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, s.mapper.MapError(err)
	}
	return session, nil
}

// ListSessions returns every session in storage order.
func (s *Store) ListSessions(ctx context.Context) ([]persistence.Session, error) {
	return s.listSessions(ctx, sessionSelect+` ORDER BY s.id ASC`)
}

// ListSessionsByConference returns the sessions of a conference. An empty
// typeOfSession returns every type.
func (s *Store) ListSessionsByConference(ctx context.Context, conferenceID int64, typeOfSession string) ([]persistence.Session, error) {
	if typeOfSession == "" {
		return s.listSessions(ctx, sessionSelect+` WHERE s.conference_id = ? ORDER BY s.id ASC`, conferenceID)
	}
	return s.listSessions(ctx,
		sessionSelect+` WHERE s.conference_id = ? AND s.type_of_session = ? ORDER BY s.id ASC`,
		conferenceID, typeOfSession)
}

// ListSessionsBySpeakerKey returns the sessions of a conference whose speaker
// key list contains speakerKey.
func (s *Store) ListSessionsBySpeakerKey(ctx context.Context, conferenceID int64, speakerKey string) ([]persistence.Session, error) {
	return s.listSessions(ctx, sessionSelect+`
		WHERE s.conference_id = ?
		AND EXISTS (SELECT 1 FROM json_each(s.speaker_keys) AS k WHERE k.value = ?)
		ORDER BY s.id ASC`, conferenceID, speakerKey)
}

// ListSessionsBySpeakerID returns every session whose speaker id list
// contains speakerID.
func (s *Store) ListSessionsBySpeakerID(ctx context.Context, speakerID int64) ([]persistence.Session, error) {
	return s.listSessions(ctx, sessionSelect+`
		WHERE EXISTS (SELECT 1 FROM json_each(s.speaker_ids) AS k WHERE k.value = ?)
		ORDER BY s.id ASC`, speakerID)
}

// ListSessionsStartingBy returns sessions without a start time or starting at
// or before localTime, ordered by start time with unset times first.
func (s *Store) ListSessionsStartingBy(ctx context.Context, localTime string) ([]persistence.Session, error) {
	return s.listSessions(ctx, sessionSelect+`
		WHERE s.local_time IS NULL OR s.local_time <= ?
		ORDER BY s.local_time ASC, s.id ASC`, localTime)
}

func (s *Store) listSessions(ctx context.Context, query string, args ...any) ([]persistence.Session, error) {
	rows, err := s.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var sessions []persistence.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return sessions, nil
}

func scanSession(row rowScanner) (persistence.Session, error) {
	var (
		session     persistence.Session
		highlights  string
		speakerIDs  string
		speakerKeys string
		duration    sql.NullString
		localDate   sql.NullString
		localTime   sql.NullString
		createdAt   string
	)
	if err := row.Scan(
		&session.ID,
		&session.ConferenceID,
		&session.OrganizerUserID,
		&session.Name,
		&highlights,
		&session.Speaker,
		&speakerIDs,
		&speakerKeys,
		&duration,
		&session.TypeOfSession,
		&localDate,
		&localTime,
		&createdAt,
	); err != nil {
		return persistence.Session{}, err
	}

	var err error
	if session.Highlights, err = decodeStrings(highlights); err != nil {
		return persistence.Session{}, err
	}
	if session.SpeakerIDs, err = decodeInts(speakerIDs); err != nil {
		return persistence.Session{}, err
	}
	if session.SpeakerKeys, err = decodeStrings(speakerKeys); err != nil {
		return persistence.Session{}, err
	}
	if session.LocalDate, err = decodeDate(localDate); err != nil {
		return persistence.Session{}, err
	}
	session.Duration = duration.String
	session.LocalTime = localTime.String
	session.CreatedAt = parseTimestamp(createdAt)
	return session, nil
}
