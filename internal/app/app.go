// Package app initializes and holds the long-lived application
// services, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fedreg/ecfr-tracker/internal/api"
	"github.com/fedreg/ecfr-tracker/internal/clock/system"
	"github.com/fedreg/ecfr-tracker/internal/config"
	"github.com/fedreg/ecfr-tracker/internal/coordinator"
	"github.com/fedreg/ecfr-tracker/internal/fetcher/ecfr"
	"github.com/fedreg/ecfr-tracker/internal/metrics"
	"github.com/fedreg/ecfr-tracker/internal/scheduler"
	filestore "github.com/fedreg/ecfr-tracker/internal/storage/file"
	"github.com/fedreg/ecfr-tracker/internal/tracker"
)

// App holds all the shared, long-lived services for the application.
// It is initialized once at startup and owns their lifecycle.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	store     tracker.SnapshotStore
	coord     *coordinator.Coordinator
	scheduler *scheduler.Scheduler
	apiServer *api.Server
}

// New wires the service graph: clock, store, client, coordinator,
// scheduler, and HTTP server. It fails fast if the snapshot store
// cannot be opened.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.Init()
	clk := system.New()

	store, err := filestore.New(cfg.Storage.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize snapshot store: %w", err)
	}

	client := ecfr.New(ecfr.Config{
		BaseURL:      cfg.ECFR.BaseURL,
		UserAgent:    cfg.ECFR.UserAgent,
		ListTimeout:  cfg.ListTimeout(),
		FetchTimeout: cfg.FetchTimeout(),
	}, clk, logger)

	coord := coordinator.New(client, store, clk, coordinator.Config{
		Concurrency: cfg.Fetch.Concurrency,
		CycleBudget: cfg.CycleBudget(),
	}, logger)

	sched := scheduler.New(coord, clk, scheduler.Config{
		Hour:   cfg.Schedule.Hour,
		Minute: cfg.Schedule.Minute,
	}, logger)

	server := api.NewServer(store, sched, clk, logger)

	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		coord:     coord,
		scheduler: sched,
		apiServer: server,
	}, nil
}

// Coordinator exposes the fetch coordinator for one-shot commands.
func (a *App) Coordinator() *coordinator.Coordinator {
	return a.coord
}

// Store exposes the snapshot store.
func (a *App) Store() tracker.SnapshotStore {
	return a.store
}

// Run starts the scheduler and HTTP server and blocks until the context
// is canceled or a signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.scheduler.Run(ctx)

	// First boot with no snapshot: kick off an initial fetch without
	// delaying server start.
	if _, ok := a.store.Current(); !ok {
		a.logger.Info("no snapshot found, triggering initial data fetch")
		a.scheduler.Trigger()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	a.logger.Info("shutdown complete")
	_ = a.logger.Sync()
	return nil
}
