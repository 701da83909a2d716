package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/example/conference-central/internal/application"
	"github.com/example/conference-central/internal/cache"
	"github.com/example/conference-central/internal/config"
	httptransport "github.com/example/conference-central/internal/http"
	"github.com/example/conference-central/internal/identity"
	"github.com/example/conference-central/internal/jobs"
	"github.com/example/conference-central/internal/logging"
	"github.com/example/conference-central/internal/metrics"
	"github.com/example/conference-central/internal/notify"
	"github.com/example/conference-central/internal/persistence/sqlite"
	"github.com/example/conference-central/internal/taskqueue"
)

const (
	announcementJob = "set_announcement"
	shutdownTimeout = 10 * time.Second
)

func main() {
	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		bootstrap.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("conference API stopped with error", "error", err)
		os.Exit(1)
	}
}

// run serves the API until ctx is cancelled.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.scheduler.RunNow(ctx, announcementJob, a.refreshAnnouncement); err != nil {
		logger.Warn("initial announcement refresh failed", "error", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.queue.Run(gctx)
	})
	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("conference API listening", "addr", server.Addr, "base_path", cfg.APIBasePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// app holds the wired components of the service.
type app struct {
	handler       http.Handler
	queue         *taskqueue.Queue
	scheduler     *jobs.Scheduler
	announcements *application.AnnouncementService
	closers       []func() error
	logger        *slog.Logger
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	storage, err := sqlite.OpenWithLogger(cfg.SQLiteDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.closers = append(a.closers, storage.Close)
	if err := storage.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	m := metrics.New()

	backend, err := a.openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	announcementCache := cache.NewInstrumented(backend, m.ObserveCache)

	a.queue = taskqueue.New(taskqueue.Options{
		Workers:  cfg.TaskWorkers,
		Size:     cfg.TaskQueueSize,
		Logger:   logger,
		Observer: m.ObserveTask,
	})
	notify.RegisterConfirmationHandlers(a.queue, notify.NewLogMailer(logger), cfg.MailSender, logger)

	verifier, err := identity.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return nil, err
	}

	conferenceRepo := newConferenceRepositoryAdapter(storage)
	sessionRepo := newSessionRepositoryAdapter(storage)
	speakerRepo := newSpeakerRepositoryAdapter(storage)
	profileRepo := newProfileRepositoryAdapter(storage)

	a.announcements = application.NewAnnouncementServiceWithLogger(conferenceRepo, sessionRepo, speakerRepo, announcementCache, logger)
	conferenceService := application.NewConferenceServiceWithLogger(conferenceRepo, profileRepo, a.queue, logger)
	sessionService := application.NewSessionServiceWithLogger(sessionRepo, conferenceRepo, speakerRepo, a.queue, a.announcements, logger)
	speakerService := application.NewSpeakerServiceWithLogger(speakerRepo, a.queue, logger)
	profileService := application.NewProfileServiceWithLogger(profileRepo, sessionRepo, logger)

	a.scheduler = jobs.NewScheduler(logger, m.ObserveJob)
	if err := a.scheduler.Add(cfg.AnnouncementSchedule, announcementJob, a.refreshAnnouncement); err != nil {
		return nil, err
	}

	middleware := []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)}
	if cfg.RateLimitRPS > 0 {
		middleware = append(middleware, httptransport.RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst), logger))
	}
	middleware = append(middleware, httptransport.Authenticate(verifier, logger))

	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		BasePath:      cfg.APIBasePath,
		Conferences:   httptransport.NewConferenceHandler(conferenceService, logger),
		Sessions:      httptransport.NewSessionHandler(sessionService, logger),
		Speakers:      httptransport.NewSpeakerHandler(speakerService, logger),
		Profiles:      httptransport.NewProfileHandler(profileService, logger),
		Announcements: httptransport.NewAnnouncementHandler(a.announcements, logger),
		Metrics:       m.Handler(),
		Health: func(w http.ResponseWriter, r *http.Request) {
			if err := storage.Ping(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		},
		Observer:   m,
		Middleware: middleware,
	})
	return a, nil
}

func (a *app) openCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if cfg.CacheBackend != config.CacheBackendRedis {
		return cache.NewMemory(time.Minute), nil
	}
	pool := cache.NewRedisPool(cfg.RedisAddr)
	a.closers = append(a.closers, pool.Close)
	backend := cache.NewRedis(pool, cfg.RedisPrefix)
	if err := backend.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	return backend, nil
}

func (a *app) refreshAnnouncement(ctx context.Context) error {
	_, err := a.announcements.RefreshAnnouncement(ctx)
	return err
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to release resource", "error", err)
		}
	}
	a.closers = nil
}
