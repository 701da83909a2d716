package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	pool := &redis.Pool{
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", server.Addr())
		},
	}
	t.Cleanup(func() { _ = pool.Close() })
	return NewRedis(pool, "test:"), server
}

func TestBackends(t *testing.T) {
	backends := map[string]func(t *testing.T) Cache{
		"memory": func(t *testing.T) Cache { return NewMemory(time.Minute) },
		"redis": func(t *testing.T) Cache {
			r, _ := newTestRedis(t)
			return r
		},
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			c := build(t)
			ctx := context.Background()

			if _, err := c.Get(ctx, AnnouncementKey); !errors.Is(err, ErrCacheMiss) {
				t.Fatalf("expected ErrCacheMiss on empty cache, got %v", err)
			}

			if err := c.Set(ctx, AnnouncementKey, "Last chance", 0); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, err := c.Get(ctx, AnnouncementKey)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got != "Last chance" {
				t.Errorf("expected 'Last chance', got %q", got)
			}

			if err := c.Set(ctx, AnnouncementKey, "Overwritten", 0); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if got, _ := c.Get(ctx, AnnouncementKey); got != "Overwritten" {
				t.Errorf("expected overwrite, got %q", got)
			}

			if err := c.Delete(ctx, AnnouncementKey); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, err := c.Get(ctx, AnnouncementKey); !errors.Is(err, ErrCacheMiss) {
				t.Errorf("expected ErrCacheMiss after delete, got %v", err)
			}

			if err := c.Delete(ctx, FeaturedSpeakerKey); err != nil {
				t.Errorf("deleting a missing key should succeed, got %v", err)
			}
		})
	}
}

func TestRedis_PrefixAndTTL(t *testing.T) {
	c, server := newTestRedis(t)
	ctx := context.Background()

	if err := c.Set(ctx, FeaturedSpeakerKey, "Ada", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	raw, err := server.Get("test:" + FeaturedSpeakerKey)
	if err != nil {
		t.Fatalf("expected prefixed key in server: %v", err)
	}
	if raw != "Ada" {
		t.Errorf("expected 'Ada', got %q", raw)
	}

	server.FastForward(2 * time.Minute)
	if _, err := c.Get(ctx, FeaturedSpeakerKey); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected expiry to produce a miss, got %v", err)
	}
}

func TestRedis_ServerFailure(t *testing.T) {
	c, server := newTestRedis(t)
	server.Close()

	_, err := c.Get(context.Background(), AnnouncementKey)
	if err == nil || errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected a transport error, got %v", err)
	}
}

func TestGetString(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	got, err := GetString(ctx, c, AnnouncementKey)
	if err != nil || got != "" {
		t.Errorf("expected empty string for a miss, got %q, %v", got, err)
	}

	_ = c.Set(ctx, AnnouncementKey, "hello", 0)
	got, err = GetString(ctx, c, AnnouncementKey)
	if err != nil || got != "hello" {
		t.Errorf("expected 'hello', got %q, %v", got, err)
	}
}

func TestInstrumented(t *testing.T) {
	ctx := context.Background()
	var seen []string
	c := NewInstrumented(NewMemory(time.Minute), func(op, outcome string) {
		seen = append(seen, op+":"+outcome)
	})

	_, _ = c.Get(ctx, "k")
	_ = c.Set(ctx, "k", "v", 0)
	_, _ = c.Get(ctx, "k")
	_ = c.Delete(ctx, "k")

	want := []string{"get:miss", "set:ok", "get:hit", "delete:ok"}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("observation %d: expected %s, got %s", i, want[i], seen[i])
		}
	}
}
