// Package app provides the application lifecycle of the maintenance backend.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	httpapi "github.com/bakeryops/bakery-maint/internal/api/http"
	"github.com/bakeryops/bakery-maint/internal/config"
	"github.com/bakeryops/bakery-maint/internal/db"
	"github.com/bakeryops/bakery-maint/internal/logging"
	"github.com/bakeryops/bakery-maint/internal/observability"
	"github.com/bakeryops/bakery-maint/internal/repository"
	"github.com/bakeryops/bakery-maint/internal/server"
)

// App owns the database connection, the HTTP server and the background
// loops, and tears them down in reverse order.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	flushLogs func()

	db       *db.Database
	monitor  *db.Monitor
	stats    *observability.UpdateStats
	shutdown *server.ShutdownManager
	handler  http.Handler
	server   *http.Server

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	serveCh chan error
}

// New creates a new App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, flush := logging.Setup(cfg.Logging)
	return &App{
		cfg:       cfg,
		logger:    logger,
		flushLogs: flush,
	}, nil
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Handler returns the HTTP handler. It is nil before Start.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Start connects to the database, checks its schema and starts serving.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.shutdown = server.NewShutdownManager(server.ShutdownConfig{
		ShutdownTimeout: a.cfg.HTTP.ShutdownTimeout,
		Logger:          a.logger,
	})
	a.shutdown.RegisterCloser("logging", server.CloserFunc(func() error {
		a.flushLogs()
		return nil
	}))

	if err := a.initDatabase(ctx); err != nil {
		a.cleanup()
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	a.initStats(ctx)
	a.handler = a.buildHandler()

	if err := a.startHTTP(); err != nil {
		a.cleanup()
		return fmt.Errorf("failed to start http server: %w", err)
	}

	a.logger.Info("bakery maintenance backend started",
		"addr", a.cfg.HTTP.Addr, "driver", a.cfg.Database.Driver)
	return nil
}

// initDatabase opens the connection, optionally creates the tables and
// compares the live schema with the registry.
func (a *App) initDatabase(ctx context.Context) error {
	dbCfg := a.cfg.Database
	if dbCfg.Driver == db.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dbCfg.Path), 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}

	d, err := db.Open(ctx, dbCfg)
	if err != nil {
		return err
	}
	a.db = d
	a.shutdown.RegisterCloser("database", d)

	if dbCfg.Bootstrap {
		if err := db.Bootstrap(ctx, d); err != nil {
			return err
		}
		a.logger.Info("database tables bootstrapped")
	}

	if err := a.verifySchema(ctx); err != nil {
		return err
	}

	a.monitor = db.NewMonitor(d, dbCfg.HealthInterval, a.logger.With("component", "db-monitor"))
	if err := a.monitor.Start(ctx); err != nil {
		return err
	}
	a.shutdown.RegisterCloser("db monitor", server.CloserFunc(func() error {
		a.monitor.Stop()
		return nil
	}))
	return nil
}

func (a *App) verifySchema(ctx context.Context) error {
	mode := a.cfg.Database.VerifySchema
	if mode == config.VerifyOff {
		return nil
	}

	drift, err := db.VerifySchema(ctx, a.db)
	if err != nil {
		return err
	}

	blocking := 0
	for _, d := range drift {
		if d.Blocking() {
			blocking++
			a.logger.Warn("schema drift", "table", d.Table, "column", d.Column, "problem", d.Problem,
				"expected", d.Expected, "actual", d.Actual)
		} else {
			a.logger.Debug("schema drift", "table", d.Table, "column", d.Column, "problem", d.Problem)
		}
	}
	if blocking > 0 && mode == config.VerifyStrict {
		return fmt.Errorf("schema verification found %d blocking differences", blocking)
	}
	return nil
}

// initStats creates the update statistics and prunes idle counters once
// per window.
func (a *App) initStats(ctx context.Context) {
	a.stats = observability.NewUpdateStats(a.cfg.Stats.Window)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.cfg.Stats.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.stats.Prune()
			}
		}
	}()
}

func (a *App) buildHandler() http.Handler {
	opts := repository.Options{Stats: a.stats, Logger: a.logger}

	return httpapi.NewRouter(httpapi.Deps{
		Stores:            repository.NewStores(a.db, opts),
		Products:          repository.NewProducts(a.db, opts),
		Adjustments:       repository.NewAdjustments(a.db, opts),
		RegionUplifts:     repository.NewRegionUplifts(a.db, opts),
		Profiles:          repository.NewProfiles(a.db, opts),
		ManualAdjustments: repository.NewManualAdjustments(a.db, opts),
		Database:          a.db,
		Stats:             a.stats,
		Logger:            a.logger,
		StripAuditFields:  a.cfg.API.StripAuditFields,
		StatsTopN:         a.cfg.Stats.TopN,
		Middleware:        []func(http.Handler) http.Handler{server.ShutdownMiddleware(a.shutdown)},
	})
}

func (a *App) startHTTP() error {
	a.server = &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      a.handler,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}

	graceful := server.NewGracefulHTTPServer(a.server, a.shutdown)
	a.serveCh = make(chan error, 1)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		err := graceful.ListenAndServe()
		if err != nil {
			a.logger.Error("http server failed", "error", err)
		}
		a.serveCh <- err
	}()

	// Give the listener a moment to fail on a bad address.
	select {
	case err := <-a.serveCh:
		if err == nil {
			err = errors.New("http server exited")
		}
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop gracefully stops serving and releases all resources.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	err := a.shutdown.Shutdown(ctx, "stop requested")
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	return err
}

// cleanup releases whatever a failed Start had already acquired.
func (a *App) cleanup() {
	if a.shutdown != nil {
		a.shutdown.Shutdown(context.Background(), "startup failed")
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
}

// WaitForShutdown blocks until a shutdown signal arrives or the HTTP
// server fails, then shuts down.
func (a *App) WaitForShutdown(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case err := <-a.serveCh:
			if err != nil {
				cancel()
			}
		case <-ctx.Done():
		}
	}()

	err := a.shutdown.ListenForSignals(ctx)
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
	return err
}
