package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/groundsegment/sattrack/internal/api"
	"github.com/groundsegment/sattrack/internal/celestrak"
	"github.com/groundsegment/sattrack/internal/config"
	"github.com/groundsegment/sattrack/internal/logging"
	"github.com/groundsegment/sattrack/internal/observability"
	"github.com/groundsegment/sattrack/orbit"
	"github.com/groundsegment/sattrack/registry"
	"github.com/groundsegment/sattrack/tracker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracking daemon",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	apiCollector, err := observability.NewAPICollector(nil)
	if err != nil {
		return fmt.Errorf("initializing API metrics: %w", err)
	}
	trackingCollector, err := observability.NewTrackingCollector(nil)
	if err != nil {
		return fmt.Errorf("initializing tracking metrics: %w", err)
	}

	store, err := registry.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if n, err := store.Count(ctx); err == nil {
		apiCollector.SetCatalogCount(n)
	}
	unsubscribe := store.Subscribe(func(registry.Event) {
		if n, err := store.Count(context.Background()); err == nil {
			apiCollector.SetCatalogCount(n)
		}
	})
	defer unsubscribe()

	fetcher := celestrak.NewClient(cfg.Celestrak.BaseURL,
		celestrak.WithTimeout(cfg.Celestrak.Timeout),
		celestrak.WithCache(celestrak.NewTLECache(cfg.Celestrak.CacheTTL)),
		celestrak.WithMetricsRecorder(trackingCollector),
	)

	engine := orbit.NewEngine(
		orbit.WithWorkers(cfg.Engine.Workers),
		orbit.WithMetricsRecorder(trackingCollector),
	)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []api.Option{
		api.WithFetcher(fetcher),
		api.WithMetrics(apiCollector),
	}
	var trackerDone <-chan struct{}
	if cfg.Tracker.Enabled {
		trk, err := buildTracker(cfg.Tracker, store, engine, trackingCollector)
		if err != nil {
			return err
		}
		trackerDone = trk.Start(runCtx)
		opts = append(opts, api.WithTracker(trk))
		log.Info(ctx, "tracker running",
			logging.Duration("interval", cfg.Tracker.Interval),
			logging.String("mode", cfg.Tracker.Mode),
		)
	}

	srv := api.NewServer(store, engine, log, opts...)
	httpSrv := &http.Server{
		Addr:    cfg.API.Addr,
		Handler: srv.Router(),
	}
	metricsSrv := serveMetrics(cfg.Metrics.Addr, apiCollector, log)

	log.Info(ctx, "starting API server", logging.String("addr", cfg.API.Addr))
	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server: %w", err)
	case <-runCtx.Done():
	}

	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "API server shutdown", logging.Err(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	if trackerDone != nil {
		<-trackerDone
	}
	return nil
}

func buildTracker(cfg config.TrackerConfig, store *registry.Store, engine *orbit.Engine, rec tracker.MetricsRecorder) (*tracker.Tracker, error) {
	opts := []tracker.Option{
		tracker.WithInterval(cfg.Interval),
		tracker.WithMetricsRecorder(rec),
	}
	if cfg.Mode == "accelerated" {
		opts = append(opts,
			tracker.WithMode(tracker.Accelerated),
			tracker.WithTimeScale(cfg.TimeScale),
		)
	}
	if cfg.StartTime != "" {
		start, err := time.Parse(time.RFC3339, cfg.StartTime)
		if err != nil {
			return nil, fmt.Errorf("parsing tracker start_time: %w", err)
		}
		opts = append(opts, tracker.WithStartTime(start))
	}
	return tracker.NewTracker(store, engine, opts...), nil
}

func serveMetrics(addr string, collector *observability.APICollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
