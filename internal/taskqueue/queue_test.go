package taskqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recorder) observe(url, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.outcomes...)
}

func startQueue(t *testing.T, q *Queue) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func TestQueue_DeliversTask(t *testing.T) {
	q := New(Options{Workers: 2, Size: 4})
	received := make(chan Task, 1)
	q.Handle("/tasks/echo", HandlerFunc(func(ctx context.Context, task Task) error {
		received <- task
		return nil
	}))
	stop := startQueue(t, q)
	defer stop()

	params := map[string]string{"email": "a@example.com"}
	id, err := q.Enqueue(context.Background(), "/tasks/echo", params)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	params["email"] = "mutated"

	select {
	case task := <-received:
		if task.ID != id {
			t.Errorf("expected id %s, got %s", id, task.ID)
		}
		if task.Params["email"] != "a@example.com" {
			t.Errorf("expected params to be copied, got %q", task.Params["email"])
		}
		if task.Attempt != 1 {
			t.Errorf("expected first attempt, got %d", task.Attempt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task was not delivered")
	}
}

func TestQueue_RetriesUntilSuccess(t *testing.T) {
	rec := &recorder{}
	q := New(Options{Workers: 1, MaxAttempts: 3, RetryDelay: time.Millisecond, Observer: rec.observe})

	var (
		mu       sync.Mutex
		attempts []int
	)
	done := make(chan struct{})
	q.Handle("/tasks/flaky", HandlerFunc(func(ctx context.Context, task Task) error {
		mu.Lock()
		attempts = append(attempts, task.Attempt)
		mu.Unlock()
		if task.Attempt < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}))
	stop := startQueue(t, q)

	if _, err := q.Enqueue(context.Background(), "/tasks/flaky", nil); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never succeeded")
	}
	stop()

	mu.Lock()
	defer mu.Unlock()
	if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
		t.Errorf("unexpected attempts: %v", attempts)
	}
	outcomes := rec.snapshot()
	want := []string{OutcomeRetried, OutcomeRetried, OutcomeSucceeded}
	if len(outcomes) != len(want) {
		t.Fatalf("expected outcomes %v, got %v", want, outcomes)
	}
	for i := range want {
		if outcomes[i] != want[i] {
			t.Errorf("outcome %d: expected %s, got %s", i, want[i], outcomes[i])
		}
	}
}

func TestQueue_GivesUpAfterMaxAttempts(t *testing.T) {
	rec := &recorder{}
	q := New(Options{Workers: 1, MaxAttempts: 2, RetryDelay: time.Millisecond, Observer: rec.observe})
	calls := make(chan struct{}, 4)
	q.Handle("/tasks/broken", HandlerFunc(func(ctx context.Context, task Task) error {
		calls <- struct{}{}
		panic("boom")
	}))
	stop := startQueue(t, q)

	if _, err := q.Enqueue(context.Background(), "/tasks/broken", nil); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("attempt %d never ran", i+1)
		}
	}
	stop()

	outcomes := rec.snapshot()
	if len(outcomes) != 2 || outcomes[1] != OutcomeFailed {
		t.Errorf("expected retried then failed, got %v", outcomes)
	}
}

func TestQueue_EnqueueErrors(t *testing.T) {
	rec := &recorder{}
	q := New(Options{Workers: 1, Size: 1, Observer: rec.observe})
	block := make(chan struct{})
	q.Handle("/tasks/slow", HandlerFunc(func(ctx context.Context, task Task) error {
		<-block
		return nil
	}))

	if _, err := q.Enqueue(context.Background(), "/tasks/unknown", nil); !errors.Is(err, ErrNoHandler) {
		t.Errorf("expected ErrNoHandler, got %v", err)
	}

	// Workers are not running yet, so the single slot fills up.
	if _, err := q.Enqueue(context.Background(), "/tasks/slow", nil); err != nil {
		t.Fatalf("first Enqueue failed: %v", err)
	}
	if _, err := q.Enqueue(context.Background(), "/tasks/slow", nil); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if got := rec.snapshot(); len(got) != 1 || got[0] != OutcomeDropped {
		t.Errorf("expected a dropped observation, got %v", got)
	}

	stop := startQueue(t, q)
	close(block)
	stop()

	if _, err := q.Enqueue(context.Background(), "/tasks/slow", nil); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped after shutdown, got %v", err)
	}
}

func TestQueue_DrainsOnShutdown(t *testing.T) {
	q := New(Options{Workers: 1, Size: 8})
	var (
		mu    sync.Mutex
		count int
	)
	q.Handle("/tasks/count", HandlerFunc(func(ctx context.Context, task Task) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}))
	for i := 0; i < 5; i++ {
		if _, err := q.Enqueue(context.Background(), "/tasks/count", nil); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 5 {
		t.Errorf("expected all 5 buffered tasks to run, got %d", count)
	}
}
