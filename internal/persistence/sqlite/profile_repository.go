package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/example/conference-central/internal/persistence"
)

const profileColumns = `user_id, display_name, main_email, tee_shirt_size, conference_keys,
	wishlist_session_keys, created_at, updated_at`

// GetProfile loads the profile of userID.
func (s *Store) GetProfile(ctx context.Context, userID string) (persistence.Profile, error) {
	return getProfile(ctx, s.pool.DB(), s.mapper, userID)
}

// GetProfiles loads the profiles of userIDs. Unknown ids are skipped and the
// result follows the order of userIDs.
func (s *Store) GetProfiles(ctx context.Context, userIDs []string) ([]persistence.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := s.pool.DB().QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id IN (`+placeholders(len(userIDs))+`)`, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	byID := make(map[string]persistence.Profile, len(userIDs))
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		byID[profile.UserID] = profile
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}

	profiles := make([]persistence.Profile, 0, len(byID))
	seen := make(map[string]struct{}, len(byID))
	for _, id := range userIDs {
		profile, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// CreateProfileIfMissing inserts profile unless a profile for the same user
// already exists, and returns the stored profile either way.
func (s *Store) CreateProfileIfMissing(ctx context.Context, profile persistence.Profile) (persistence.Profile, error) {
	if strings.TrimSpace(profile.UserID) == "" {
		return persistence.Profile{}, persistence.ErrConstraintViolation
	}
	conferenceKeys, err := encodeStrings(profile.ConferenceKeysToAttend)
	if err != nil {
		return persistence.Profile{}, err
	}
	wishlist, err := encodeStrings(profile.WishlistSessionKeys)
	if err != nil {
		return persistence.Profile{}, err
	}
	teeShirtSize := profile.TeeShirtSize
	if teeShirtSize == "" {
		teeShirtSize = "NOT_SPECIFIED"
	}

	stamp := s.timestamp()
	if _, err := s.pool.DB().ExecContext(ctx, `
		INSERT INTO profiles (user_id, display_name, main_email, tee_shirt_size, conference_keys,
			wishlist_session_keys, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`,
		profile.UserID,
		profile.DisplayName,
		profile.MainEmail,
		teeShirtSize,
		conferenceKeys,
		wishlist,
		stamp,
		stamp,
	); err != nil {
		return persistence.Profile{}, s.mapper.MapError(err)
	}
	return s.GetProfile(ctx, profile.UserID)
}

// UpdateProfile applies mutate to the stored profile within one transaction.
func (s *Store) UpdateProfile(ctx context.Context, userID string, mutate func(*persistence.Profile) error) (persistence.Profile, error) {
	var updated persistence.Profile
	err := s.inTransaction(ctx, func(tx *sql.Tx) error {
		current, err := getProfile(ctx, tx, s.mapper, userID)
		if err != nil {
			return err
		}
		if err := mutate(&current); err != nil {
			return err
		}
		current.UserID = userID
		if err := s.writeProfile(ctx, tx, current); err != nil {
			return err
		}
		updated, err = getProfile(ctx, tx, s.mapper, userID)
		return err
	})
	if err != nil {
		return persistence.Profile{}, err
	}
	return updated, nil
}

// UpdateRegistration reads the profile and the conference, applies mutate to
// both and writes both back in one transaction. Either both writes land or
// neither does.
func (s *Store) UpdateRegistration(ctx context.Context, userID string, conferenceID int64, mutate func(*persistence.Profile, *persistence.Conference) error) (persistence.Profile, persistence.Conference, error) {
	var (
		profile    persistence.Profile
		conference persistence.Conference
	)
	err := s.inTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		if profile, err = getProfile(ctx, tx, s.mapper, userID); err != nil {
			return err
		}
		if conference, err = getConference(ctx, tx, s.mapper, conferenceID); err != nil {
			return err
		}
		if err := mutate(&profile, &conference); err != nil {
			return err
		}
		profile.UserID = userID
		conference.ID = conferenceID
		if err := s.writeProfile(ctx, tx, profile); err != nil {
			return err
		}
		if err := s.writeConference(ctx, tx, conference); err != nil {
			return err
		}
		if profile, err = getProfile(ctx, tx, s.mapper, userID); err != nil {
			return err
		}
		conference, err = getConference(ctx, tx, s.mapper, conferenceID)
		return err
	})
	if err != nil {
		return persistence.Profile{}, persistence.Conference{}, err
	}
	return profile, conference, nil
}

func (s *Store) writeProfile(ctx context.Context, q queryer, profile persistence.Profile) error {
	conferenceKeys, err := encodeStrings(profile.ConferenceKeysToAttend)
	if err != nil {
		return err
	}
	wishlist, err := encodeStrings(profile.WishlistSessionKeys)
	if err != nil {
		return err
	}
	result, err := q.ExecContext(ctx, `
		UPDATE profiles
		SET display_name = ?, main_email = ?, tee_shirt_size = ?, conference_keys = ?,
			wishlist_session_keys = ?, updated_at = ?
		WHERE user_id = ?`,
		profile.DisplayName,
		profile.MainEmail,
		profile.TeeShirtSize,
		conferenceKeys,
		wishlist,
		s.timestamp(),
		profile.UserID,
	)
	if err != nil {
		return s.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func getProfile(ctx context.Context, q queryer, mapper *ErrorMapper, userID string) (persistence.Profile, error) {
	row := q.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Profile{}, persistence.ErrNotFound
		}
		return persistence.Profile{}, mapper.MapError(err)
	}
	return profile, nil
}

func scanProfile(row rowScanner) (persistence.Profile, error) {
	var (
		profile        persistence.Profile
		conferenceKeys string
		wishlist       string
		createdAt      string
		updatedAt      string
	)
	if err := row.Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.MainEmail,
		&profile.TeeShirtSize,
		&conferenceKeys,
		&wishlist,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Profile{}, err
	}

	var err error
	if profile.ConferenceKeysToAttend, err = decodeStrings(conferenceKeys); err != nil {
		return persistence.Profile{}, err
	}
	if profile.WishlistSessionKeys, err = decodeStrings(wishlist); err != nil {
		return persistence.Profile{}, err
	}
	profile.CreatedAt = parseTimestamp(createdAt)
	profile.UpdatedAt = parseTimestamp(updatedAt)
	return profile, nil
}
