package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/conference-central/internal/persistence"
)

const conferenceColumns = `id, organizer_user_id, name, description, topics, city, start_date, end_date,
	month, max_attendees, seats_available, created_at, updated_at`

var conferenceOperators = map[string]string{
	"=":  "=",
	">":  ">",
	">=": ">=",
	"<":  "<",
	"<=": "<=",
	"!=": "!=",
}

// CreateConference inserts a conference and returns it with its allocated id.
func (s *Store) CreateConference(ctx context.Context, conference persistence.Conference) (persistence.Conference, error) {
	if strings.TrimSpace(conference.OrganizerUserID) == "" {
		return persistence.Conference{}, persistence.ErrConstraintViolation
	}
	topics, err := encodeStrings(conference.Topics)
	if err != nil {
		return persistence.Conference{}, err
	}

	stamp := s.timestamp()
	result, err := s.pool.DB().ExecContext(ctx, `
		INSERT INTO conferences (organizer_user_id, name, description, topics, city, start_date, end_date,
			month, max_attendees, seats_available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conference.OrganizerUserID,
		conference.Name,
		conference.Description,
		topics,
		conference.City,
		encodeDate(conference.StartDate),
		encodeDate(conference.EndDate),
		conference.Month,
		conference.MaxAttendees,
		conference.SeatsAvailable,
		stamp,
		stamp,
	)
	if err != nil {
		return persistence.Conference{}, s.mapper.MapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Conference{}, fmt.Errorf("failed to read conference id: %w", err)
	}
	return s.GetConference(ctx, id)
}

// GetConference loads a conference by id.
func (s *Store) GetConference(ctx context.Context, id int64) (persistence.Conference, error) {
	return getConference(ctx, s.pool.DB(), s.mapper, id)
}

// GetConferences loads the conferences with the given ids in the order of
// ids. Ids that do not resolve are skipped.
func (s *Store) GetConferences(ctx context.Context, ids []int64) ([]persistence.Conference, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	found, err := s.listConferences(ctx,
		`SELECT `+conferenceColumns+` FROM conferences WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]persistence.Conference, len(found))
	for _, conference := range found {
		byID[conference.ID] = conference
	}
	ordered := make([]persistence.Conference, 0, len(found))
	for _, id := range ids {
		if conference, ok := byID[id]; ok {
			ordered = append(ordered, conference)
		}
	}
	return ordered, nil
}

// UpdateConference applies mutate to the stored conference and writes the
// result back within one transaction. An error from mutate aborts the update
// and is returned unchanged.
func (s *Store) UpdateConference(ctx context.Context, id int64, mutate func(*persistence.Conference) error) (persistence.Conference, error) {
	var updated persistence.Conference
	err := s.inTransaction(ctx, func(tx *sql.Tx) error {
		current, err := getConference(ctx, tx, s.mapper, id)
		if err != nil {
			return err
		}
		if err := mutate(&current); err != nil {
			return err
		}
		current.ID = id
		if err := s.writeConference(ctx, tx, current); err != nil {
			return err
		}
		updated, err = getConference(ctx, tx, s.mapper, id)
		return err
	})
	if err != nil {
		return persistence.Conference{}, err
	}
	return updated, nil
}

// ListConferencesByOrganizer returns the conferences whose parent is the
// organizer's profile, ordered by name.
func (s *Store) ListConferencesByOrganizer(ctx context.Context, userID string) ([]persistence.Conference, error) {
	return s.listConferences(ctx,
		`SELECT `+conferenceColumns+` FROM conferences WHERE organizer_user_id = ? ORDER BY name ASC, id ASC`, userID)
}

// QueryConferences renders query to SQL. Filters on topics match when any
// topic satisfies the predicate.
func (s *Store) QueryConferences(ctx context.Context, query persistence.ConferenceQuery) ([]persistence.Conference, error) {
	var (
		clauses []string
		args    []any
	)
	for _, filter := range query.Filters {
		clause, err := conferenceFilterClause(filter)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, filter.Value)
	}

	order := "name ASC, id ASC"
	if query.OrderBy != "" {
		expr, err := conferenceOrderExpr(query.OrderBy)
		if err != nil {
			return nil, err
		}
		order = expr + " ASC, " + order
	}

	stmt := `SELECT ` + conferenceColumns + ` FROM conferences`
	if len(clauses) > 0 {
		stmt += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	stmt += ` ORDER BY ` + order
	return s.listConferences(ctx, stmt, args...)
}

// ListConferencesWithSeatsBetween returns conferences with
// minSeats <= seatsAvailable <= maxSeats ordered by seats and then name.
func (s *Store) ListConferencesWithSeatsBetween(ctx context.Context, minSeats, maxSeats int) ([]persistence.Conference, error) {
	return s.listConferences(ctx, `
		SELECT `+conferenceColumns+` FROM conferences
		WHERE seats_available >= ? AND seats_available <= ?
		ORDER BY seats_available ASC, name ASC, id ASC`, minSeats, maxSeats)
}

func conferenceFilterClause(filter persistence.ConferenceFilter) (string, error) {
	op, ok := conferenceOperators[filter.Operator]
	if !ok {
		return "", fmt.Errorf("%w: unsupported operator %q", persistence.ErrConstraintViolation, filter.Operator)
	}
	switch filter.Field {
	case persistence.FieldCity:
		return "city " + op + " ?", nil
	case persistence.FieldMonth:
		return "month " + op + " ?", nil
	case persistence.FieldMaxAttendees:
		return "max_attendees " + op + " ?", nil
	case persistence.FieldTopics:
		return "EXISTS (SELECT 1 FROM json_each(conferences.topics) AS topic WHERE topic.value " + op + " ?)", nil
	}
	return "", fmt.Errorf("%w: unsupported field %q", persistence.ErrConstraintViolation, filter.Field)
}

func conferenceOrderExpr(field string) (string, error) {
	switch field {
	case persistence.FieldCity:
		return "city", nil
	case persistence.FieldMonth:
		return "month", nil
	case persistence.FieldMaxAttendees:
		return "max_attendees", nil
	case persistence.FieldTopics:
		return "(SELECT MIN(topic.value) FROM json_each(conferences.topics) AS topic)", nil
	}
	return "", fmt.Errorf("%w: unsupported order field %q", persistence.ErrConstraintViolation, field)
}

func (s *Store) listConferences(ctx context.Context, query string, args ...any) ([]persistence.Conference, error) {
	rows, err := s.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var conferences []persistence.Conference
	for rows.Next() {
		conference, err := scanConference(rows)
		if err != nil {
			return nil, err
		}
		conferences = append(conferences, conference)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return conferences, nil
}

func (s *Store) writeConference(ctx context.Context, q queryer, conference persistence.Conference) error {
	topics, err := encodeStrings(conference.Topics)
	if err != nil {
		return err
	}
	result, err := q.ExecContext(ctx, `
		UPDATE conferences
		SET name = ?, description = ?, topics = ?, city = ?, start_date = ?, end_date = ?,
			month = ?, max_attendees = ?, seats_available = ?, updated_at = ?
		WHERE id = ?`,
		conference.Name,
		conference.Description,
		topics,
		conference.City,
		encodeDate(conference.StartDate),
		encodeDate(conference.EndDate),
		conference.Month,
		conference.MaxAttendees,
		conference.SeatsAvailable,
		s.timestamp(),
		conference.ID,
	)
	if err != nil {
		return s.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func getConference(ctx context.Context, q queryer, mapper *ErrorMapper, id int64) (persistence.Conference, error) {
	row := q.QueryRowContext(ctx, `SELECT `+conferenceColumns+` FROM conferences WHERE id = ?`, id)
	conference, err := scanConference(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Conference{}, persistence.ErrNotFound
		}
		return persistence.Conference{}, mapper.MapError(err)
	}
	return conference, nil
}

func scanConference(row rowScanner) (persistence.Conference, error) {
	var (
		conference persistence.Conference
		topics     string
		startDate  sql.NullString
		endDate    sql.NullString
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(
		&conference.ID,
		&conference.OrganizerUserID,
		&conference.Name,
		&conference.Description,
		&topics,
		&conference.City,
		&startDate,
		&endDate,
		&conference.Month,
		&conference.MaxAttendees,
		&conference.SeatsAvailable,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Conference{}, err
	}

	var err error
	if conference.Topics, err = decodeStrings(topics); err != nil {
		return persistence.Conference{}, err
	}
	if conference.StartDate, err = decodeDate(startDate); err != nil {
		return persistence.Conference{}, err
	}
	if conference.EndDate, err = decodeDate(endDate); err != nil {
		return persistence.Conference{}, err
	}
	conference.CreatedAt = parseTimestamp(createdAt)
	conference.UpdatedAt = parseTimestamp(updatedAt)
	return conference, nil
}
