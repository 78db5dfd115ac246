package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/okian/bullpen/internal/adapters/http/api"
	"github.com/okian/bullpen/internal/adapters/http/swagger"
	"github.com/okian/bullpen/internal/adapters/repository"
	app "github.com/okian/bullpen/internal/app"
	"github.com/okian/bullpen/internal/config"
	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/pkg/logger"
	"github.com/okian/bullpen/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// runServe restores the latest outputs and serves them until ctx ends.
func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addr := fs.String("addr", cfg.Addr, "listen address")
	limit := fs.Int("max-limit", api.DefaultMaxLimit, "largest /projections limit")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	d, err := build(ctx, cfg, buildOptions{offline: false})
	if err != nil {
		return err
	}
	defer d.Close()

	if err := restore(ctx, cfg, d); err != nil {
		return err
	}

	srv := newServer(ctx, *addr, d.svc, *limit)
	loggerInstance := logger.Get()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	errCh := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", *addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
		close(errCh)
	}()

	// Wait for shutdown signal
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return nil
}

// newServer mounts the docs and API routes.
func newServer(ctx context.Context, addr string, svc *app.Service, limit int) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, limit).Register(ctx, mux)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// restore loads snapshots and projections from the CSV outputs, falling back
// to the latest Postgres run for projections. Missing outputs leave the
// store empty.
func restore(ctx context.Context, cfg *config.Config, d *deps) error {
	var (
		snapshots   []model.TeamSnapshot
		projections []model.Projection
		err         error
	)
	if path := cfg.Path(cfg.SnapshotsFile); exists(path) {
		if snapshots, err = repository.LoadFile(path, repository.ReadSnapshots); err != nil {
			return err
		}
	}
	if path := cfg.Path(cfg.ProjectionsFile); exists(path) {
		if projections, err = repository.LoadFile(path, repository.ReadProjections); err != nil {
			return err
		}
	} else if d.postgres != nil {
		_, _, projections, err = d.postgres.LatestProjections(ctx)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	if len(snapshots) == 0 && len(projections) == 0 {
		logger.Get().Warn(ctx, "no outputs to serve; run features and simulate first")
		return nil
	}
	return d.svc.Restore(ctx, snapshots, projections)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
