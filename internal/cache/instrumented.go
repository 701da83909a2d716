package cache

import (
	"context"
	"errors"
	"time"
)

// Operation outcomes reported to an Observer.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Observer receives one call per cache operation.
type Observer func(op, outcome string)

// Instrumented reports every operation of the wrapped Cache to an Observer.
type Instrumented struct {
	next    Cache
	observe Observer
}

// NewInstrumented wraps next. A nil observe disables reporting.
func NewInstrumented(next Cache, observe Observer) *Instrumented {
	if observe == nil {
		observe = func(string, string) {}
	}
	return &Instrumented{next: next, observe: observe}
}

func (c *Instrumented) Get(ctx context.Context, key string) (string, error) {
	value, err := c.next.Get(ctx, key)
	switch {
	case err == nil:
		c.observe("get", OutcomeHit)
	case errors.Is(err, ErrCacheMiss):
		c.observe("get", OutcomeMiss)
	default:
		c.observe("get", OutcomeError)
	}
	return value, err
}

func (c *Instrumented) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	err := c.next.Set(ctx, key, value, ttl)
	c.observe("set", outcome(err))
	return err
}

func (c *Instrumented) Delete(ctx context.Context, key string) error {
	err := c.next.Delete(ctx, key)
	c.observe("delete", outcome(err))
	return err
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
