// Package cache holds the small string slots the API derives from stored
// data, such as the announcement banner and the featured speaker.
package cache

import (
	"context"
	"errors"
	"time"
)

// Well-known cache keys.
const (
	AnnouncementKey    = "RECENT_ANNOUNCEMENTS"
	FeaturedSpeakerKey = "FEATURED_SPEAKER"
)

// ErrCacheMiss is returned by Get when the key holds no value.
var ErrCacheMiss = errors.New("cache: miss")

// Cache stores string values by key. A zero ttl means the value does not
// expire.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// GetString reads key and folds a miss into the empty string. Other errors
// are returned alongside the empty string.
func GetString(ctx context.Context, c Cache, key string) (string, error) {
	value, err := c.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}
