// Package taskqueue runs best-effort background tasks addressed by URL, the
// way a push queue delivers them to "/tasks/..." endpoints. Tasks live in
// memory only and are lost on shutdown once the drain deadline passes.
package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrQueueFull is returned by Enqueue when the buffer is at capacity.
	ErrQueueFull = errors.New("taskqueue: queue full")
	// ErrNoHandler is returned by Enqueue for a URL nobody handles.
	ErrNoHandler = errors.New("taskqueue: no handler for url")
	// ErrStopped is returned by Enqueue after Run has returned.
	ErrStopped = errors.New("taskqueue: stopped")
)

// Task is one unit of work.
type Task struct {
	ID       string
	URL      string
	Params   map[string]string
	Attempt  int
	Enqueued time.Time
}

// Handler processes a task. A returned error schedules a retry until
// MaxAttempts is reached.
type Handler interface {
	HandleTask(ctx context.Context, task Task) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, task Task) error

// HandleTask calls f.
func (f HandlerFunc) HandleTask(ctx context.Context, task Task) error {
	return f(ctx, task)
}

// Outcomes reported to an Observer.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRetried   = "retried"
	OutcomeFailed    = "failed"
	OutcomeDropped   = "dropped"
)

// Observer is told about every enqueue and task attempt.
type Observer func(url, outcome string)

// Options configures a Queue.
type Options struct {
	Workers      int
	Size         int
	MaxAttempts  int
	RetryDelay   time.Duration
	DrainTimeout time.Duration
	Logger       *slog.Logger
	Observer     Observer
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Size <= 0 {
		o.Size = 256
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 500 * time.Millisecond
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Observer == nil {
		o.Observer = func(string, string) {}
	}
	return o
}

// Queue is an in-process task queue with a fixed worker pool.
type Queue struct {
	opts     Options
	tasks    chan Task
	now      func() time.Time
	mu       sync.RWMutex
	handlers map[string]Handler
	stopped  bool
}

// New creates a queue. Register handlers with Handle before calling Run.
func New(opts Options) *Queue {
	opts = opts.withDefaults()
	return &Queue{
		opts:     opts,
		tasks:    make(chan Task, opts.Size),
		now:      time.Now,
		handlers: make(map[string]Handler),
	}
}

// Handle registers h for tasks addressed to url.
func (q *Queue) Handle(url string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[url] = h
}

// Enqueue schedules a task for url without blocking and returns its id.
func (q *Queue) Enqueue(ctx context.Context, url string, params map[string]string) (string, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stopped {
		return "", ErrStopped
	}
	if _, ok := q.handlers[url]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNoHandler, url)
	}

	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}
	task := Task{
		ID:       uuid.NewString(),
		URL:      url,
		Params:   copied,
		Attempt:  1,
		Enqueued: q.now(),
	}

	select {
	case q.tasks <- task:
		return task.ID, nil
	default:
		q.opts.Observer(url, OutcomeDropped)
		return "", ErrQueueFull
	}
}

// Len reports the number of buffered tasks.
func (q *Queue) Len() int {
	return len(q.tasks)
}

// Run starts the workers and blocks until ctx is cancelled. Buffered tasks
// are then drained for up to DrainTimeout.
func (q *Queue) Run(ctx context.Context) error {
	logger := q.opts.Logger.With("component", "taskqueue")
	logger.InfoContext(ctx, "task queue started", "workers", q.opts.Workers, "size", q.opts.Size)

	drainCtx, cancelDrain := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelDrain()

	var wg sync.WaitGroup
	for i := 0; i < q.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.work(drainCtx, logger)
		}()
	}

	<-ctx.Done()

	q.mu.Lock()
	q.stopped = true
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.InfoContext(drainCtx, "task queue drained")
	case <-time.After(q.opts.DrainTimeout):
		cancelDrain()
		<-done
		logger.WarnContext(drainCtx, "task queue drain timed out")
	}
	return nil
}

func (q *Queue) work(ctx context.Context, logger *slog.Logger) {
	for task := range q.tasks {
		q.process(ctx, logger, task)
	}
}

func (q *Queue) process(ctx context.Context, logger *slog.Logger, task Task) {
	q.mu.RLock()
	handler := q.handlers[task.URL]
	q.mu.RUnlock()

	taskLogger := logger.With("task_id", task.ID, "url", task.URL)
	for {
		if ctx.Err() != nil {
			taskLogger.WarnContext(ctx, "task abandoned", "attempt", task.Attempt)
			q.opts.Observer(task.URL, OutcomeFailed)
			return
		}

		err := q.invoke(ctx, handler, task)
		if err == nil {
			taskLogger.DebugContext(ctx, "task succeeded", "attempt", task.Attempt)
			q.opts.Observer(task.URL, OutcomeSucceeded)
			return
		}

		if task.Attempt >= q.opts.MaxAttempts {
			taskLogger.ErrorContext(ctx, "task failed", "attempt", task.Attempt, "error", err)
			q.opts.Observer(task.URL, OutcomeFailed)
			return
		}

		taskLogger.WarnContext(ctx, "task attempt failed", "attempt", task.Attempt, "error", err)
		q.opts.Observer(task.URL, OutcomeRetried)
		task.Attempt++

		timer := time.NewTimer(q.opts.RetryDelay * time.Duration(task.Attempt-1))
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (q *Queue) invoke(ctx context.Context, handler Handler, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return handler.HandleTask(ctx, task)
}
