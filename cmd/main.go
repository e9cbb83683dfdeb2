package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/teamforge/crew/internal/adapters/http/api"
	"github.com/teamforge/crew/internal/adapters/repository"
	app "github.com/teamforge/crew/internal/app"
	"github.com/teamforge/crew/internal/config"
	"github.com/teamforge/crew/internal/domain/profile"
	"github.com/teamforge/crew/pkg/logger"
	"github.com/teamforge/crew/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Backing store, optionally seeded from a JSON fixture.
	store := repository.NewMemStore()
	if cfg.SeedFile != "" {
		if err := seedStore(store, cfg.SeedFile); err != nil {
			loggerInstance.Error(ctx, "failed to seed store", logger.String("seed_file", cfg.SeedFile), logger.Error(err))
			return
		}
		loggerInstance.Info(ctx, "store seeded", logger.String("seed_file", cfg.SeedFile))
	}

	// Create and start the service with configuration options
	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithProfileStore(store),
		app.WithContestStore(store.Contests()),
		app.WithFetchLimit(cfg.FetchLimit),
		app.WithResultLimits(cfg.DefaultLimit, cfg.MaxLimit),
		app.WithRecommendationTTL(time.Duration(cfg.RecommendationTTLHours)*time.Hour),
		app.WithEntityTTL(time.Duration(cfg.EntityTTLMinutes)*time.Minute),
		app.WithLoaderTuning(cfg.LoaderBatchSize, time.Duration(cfg.LoaderDebounceMS)*time.Millisecond),
		app.WithChunking(cfg.ChunkSize, cfg.Concurrency),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// seedFixture is the JSON shape of a seed file.
type seedFixture struct {
	Profiles []*profile.Profile    `json:"profiles"`
	Contests []*repository.Contest `json:"contests"`
}

// seedStore loads profiles and contests from a JSON fixture into the store.
func seedStore(store *repository.MemStore, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fixture seedFixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return err
	}
	for _, p := range fixture.Profiles {
		store.PutProfile(p)
	}
	for _, c := range fixture.Contests {
		store.PutContest(c)
	}
	return nil
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
}
