package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is a process-local Cache. It is only consistent within a single
// process; use Redis when several instances share the derived slots.
type Memory struct {
	store *gocache.Cache
}

// NewMemory creates a process-local cache that sweeps expired entries every
// cleanupInterval.
func NewMemory(cleanupInterval time.Duration) *Memory {
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &Memory{store: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	item, found := m.store.Get(key)
	if !found {
		return "", ErrCacheMiss
	}
	value, ok := item.(string)
	if !ok {
		return "", ErrCacheMiss
	}
	return value, nil
}

func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.store.Set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.store.Delete(key)
	return nil
}
