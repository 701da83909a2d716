package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/conference-central/internal/persistence"
)

// CreateSpeaker inserts a speaker and returns it with its allocated id.
func (s *Store) CreateSpeaker(ctx context.Context, speaker persistence.Speaker) (persistence.Speaker, error) {
	result, err := s.pool.DB().ExecContext(ctx,
		`INSERT INTO speakers (display_name, bio, created_at) VALUES (?, ?, ?)`,
		speaker.DisplayName, speaker.Bio, s.timestamp())
	if err != nil {
		return persistence.Speaker{}, s.mapper.MapError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Speaker{}, fmt.Errorf("failed to read speaker id: %w", err)
	}
	return s.GetSpeaker(ctx, id)
}

// GetSpeaker loads a speaker by id.
func (s *Store) GetSpeaker(ctx context.Context, id int64) (persistence.Speaker, error) {
	row := s.pool.DB().QueryRowContext(ctx,
		`SELECT id, display_name, bio, created_at FROM speakers WHERE id = ?`, id)
	speaker, err := scanSpeaker(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Speaker{}, persistence.ErrNotFound
		}
		return persistence.Speaker{}, s.mapper.MapError(err)
	}
	return speaker, nil
}

// ListSpeakers returns every speaker in storage order.
func (s *Store) ListSpeakers(ctx context.Context) ([]persistence.Speaker, error) {
	rows, err := s.pool.DB().QueryContext(ctx,
		`SELECT id, display_name, bio, created_at FROM speakers ORDER BY id ASC`)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var speakers []persistence.Speaker
	for rows.Next() {
		speaker, err := scanSpeaker(rows)
		if err != nil {
			return nil, err
		}
		speakers = append(speakers, speaker)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return speakers, nil
}

func scanSpeaker(row rowScanner) (persistence.Speaker, error) {
	var (
		speaker   persistence.Speaker
		createdAt string
	)
	if err := row.Scan(&speaker.ID, &speaker.DisplayName, &speaker.Bio, &createdAt); err != nil {
		return persistence.Speaker{}, err
	}
	speaker.CreatedAt = parseTimestamp(createdAt)
	return speaker, nil
}
