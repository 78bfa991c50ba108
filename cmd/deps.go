package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/periplus/internal/geo"
	"github.com/UnknownOlympus/periplus/internal/geocoding"
	"github.com/UnknownOlympus/periplus/internal/metrics"
	"github.com/UnknownOlympus/periplus/internal/repository"
	"github.com/UnknownOlympus/periplus/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache driver names accepted in the configuration.
const (
	cacheSQLite   = "sqlite"
	cachePostgres = "postgres"
	cacheOff      = "off"
)

// initCache builds the geocode cache selected by the configuration.
func initCache(ctx context.Context) (repository.Interface, error) {
	switch cfg.Cache.Driver {
	case cacheSQLite:
		cache, err := repository.NewSQLite(cfg.Cache.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
		}

		return cache, nil
	case cachePostgres:
		pool, err := repository.NewDatabase(
			ctx,
			cfg.Cache.Postgres.Host, cfg.Cache.Postgres.Port,
			cfg.Cache.Postgres.User, cfg.Cache.Postgres.Password, cfg.Cache.Postgres.Name,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres cache: %w", err)
		}

		cache := repository.NewPostgres(pool, logger)
		if err := cache.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate postgres cache: %w", err)
		}

		return cache, nil
	case cacheOff:
		return repository.NewNoop(), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}

// initPipeline wires the geocoding provider, cache and metrics into the
// pipeline service.
func initPipeline(ctx context.Context, cache repository.Interface) (*service.Pipeline, *prometheus.Registry, error) {
	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	providerConfig := geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.Geocoder.Provider),
		APIKey:    cfg.Geocoder.APIKey,
		RateLimit: cfg.Geocoder.RateLimit,
		Logger:    logger,
	}

	provider, err := geocoding.NewProvider(providerConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create geocoding provider: %w", err)
	}

	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.Geocoder.Provider)

	cached := geocoding.NewCachedProvider(provider, cache, appMetrics, logger)

	pipeline := service.NewPipeline(
		logger,
		cached,
		cfg.Geocoder.Provider, // Provider name for metrics
		appMetrics,
		cfg.Geocoder.Workers,
		geo.MatcherKind(cfg.Matcher),
	)

	return pipeline, reg, nil
}

// startMonitoring starts the monitoring server when a listen address is
// configured.
func startMonitoring(ctx context.Context, reg *prometheus.Registry, cache repository.Interface) {
	if cfg.Metrics.Addr == "" {
		return
	}

	go startMonitoringServer(ctx, logger, reg, cache, cfg.Metrics.Addr)
}

// startMonitoringServer starts an HTTP server that provides health check and metrics endpoints.
// It listens on the specified address and logs the server's status and any errors encountered.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	cache repository.Interface,
	addr string,
) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if err := cache.Ping(ctx); err != nil {
			status, body = http.StatusServiceUnavailable, "cache ping failed"
		}
		writer.WriteHeader(status)
		_, err := writer.Write([]byte(body))
		if err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "addr", addr)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}
