package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestScheduler_RunsJobOnSchedule(t *testing.T) {
	ran := make(chan struct{}, 4)
	s := NewScheduler(nil, nil)
	if err := s.Add("@every 1s", "tick", func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := NewScheduler(nil, nil)
	if err := s.Add("every hour please", "bad", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected an error for an unparsable schedule")
	}
}

func TestScheduler_RunNowReportsOutcome(t *testing.T) {
	var (
		mu    sync.Mutex
		names []string
		errs  []error
	)
	s := NewScheduler(nil, func(name string, err error, _ time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		names = append(names, name)
		errs = append(errs, err)
	})

	boom := errors.New("boom")
	if err := s.RunNow(context.Background(), "ok", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("RunNow failed: %v", err)
	}
	if err := s.RunNow(context.Background(), "failing", func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected job error, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(names) != 2 || names[0] != "ok" || names[1] != "failing" {
		t.Errorf("unexpected observations: %v", names)
	}
	if errs[0] != nil || !errors.Is(errs[1], boom) {
		t.Errorf("unexpected errors: %v", errs)
	}
}
