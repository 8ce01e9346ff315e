package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/session-lifecycle-service/internal/config"
	"github.com/sandeepkv93/session-lifecycle-service/internal/health"
	"github.com/sandeepkv93/session-lifecycle-service/internal/observability"
	"github.com/sandeepkv93/session-lifecycle-service/internal/session"
)

// App owns process lifecycle: it serves HTTP until a shutdown signal, then
// drains in stages so in-flight requests, the expiry sweeper, and telemetry
// exporters each get a bounded window to finish.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	Sweeper       *session.Sweeper
	Redis         redis.UniversalClient
	Readiness     *health.ProbeRunner

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	// StopBackgroundTasks halts anything started outside App's own fields.
	// Always non-nil.
	StopBackgroundTasks func()
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	sweeper *session.Sweeper,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
	stopBackgroundTasks func(),
) *App {
	if stopBackgroundTasks == nil {
		stopBackgroundTasks = func() {}
	}
	return &App{
		Config:                       cfg,
		Logger:                       logger,
		Server:                       server,
		Observability:                runtime,
		Sweeper:                      sweeper,
		Redis:                        redisClient,
		Readiness:                    readiness,
		ShutdownTimeout:              cfg.ShutdownTimeout,
		ShutdownHTTPDrainTimeout:     cfg.ShutdownHTTPDrainTimeout,
		ShutdownObservabilityTimeout: cfg.ShutdownObservabilityTimeout,
		StopBackgroundTasks:          stopBackgroundTasks,
	}
}

// Run blocks until the context is cancelled or the server fails, then runs
// the shutdown sequence. SIGINT and SIGTERM cancel the context.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.Sweeper != nil {
		a.Sweeper.Start()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("http server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown()
	})
	return g.Wait()
}

// shutdown drains HTTP first so requests stop arriving, then stops the
// sweeper and other background work, then flushes telemetry. Each stage has
// its own deadline inside the overall ShutdownTimeout.
func (a *App) shutdown() error {
	a.Logger.Info("shutting down",
		"overall_timeout", a.ShutdownTimeout,
		"http_drain_timeout", a.ShutdownHTTPDrainTimeout,
		"observability_timeout", a.ShutdownObservabilityTimeout,
	)
	ctx, cancel := context.WithTimeout(context.Background(), a.ShutdownTimeout)
	defer cancel()

	var errs []error

	drainCtx, drainCancel := context.WithTimeout(ctx, a.ShutdownHTTPDrainTimeout)
	if err := a.Server.Shutdown(drainCtx); err != nil {
		errs = append(errs, err)
		a.Logger.Warn("http drain did not complete cleanly", "error", err)
	}
	drainCancel()

	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}
	a.StopBackgroundTasks()

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if a.Observability != nil {
		obsCtx, obsCancel := context.WithTimeout(ctx, a.ShutdownObservabilityTimeout)
		if err := a.Observability.Shutdown(obsCtx); err != nil {
			errs = append(errs, err)
			a.Logger.Warn("observability shutdown incomplete", "error", err)
		}
		obsCancel()
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.Logger.Info("shutdown complete")
	return nil
}
