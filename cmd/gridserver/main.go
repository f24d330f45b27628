package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/nxny-map-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/nxny-map-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/nxny-map-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/nxny-map-etl/internal/config"
	"github.com/couchcryptid/nxny-map-etl/internal/domain"
	"github.com/couchcryptid/nxny-map-etl/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Geocoding fallback is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	catalog := httpadapter.NewCatalog(metrics)
	if err := loadMap(catalog, cfg.OutputPath, logger); err != nil {
		logger.Error("failed to load region map", "path", cfg.OutputPath, "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, catalog, geocoder, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// SIGHUP reloads the map after a new extraction run.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for done := false; !done; {
		select {
		case <-hup:
			if err := loadMap(catalog, cfg.OutputPath, logger); err != nil {
				logger.Error("reload failed, keeping previous map", "path", cfg.OutputPath, "error", err)
			}
		case <-ctx.Done():
			done = true
		}
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

func loadMap(catalog *httpadapter.Catalog, path string, logger *slog.Logger) error {
	m, err := jsonfile.Load(path)
	if err != nil {
		return err
	}
	catalog.Replace(m)
	logger.Info("region map loaded", "path", path, "entries", m.Len())
	return nil
}
