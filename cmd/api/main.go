package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ShivanshCoding36/alert-aid/internal/adapter/firms"
	"github.com/ShivanshCoding36/alert-aid/internal/adapter/gdacs"
	"github.com/ShivanshCoding36/alert-aid/internal/adapter/httpapi"
	"github.com/ShivanshCoding36/alert-aid/internal/adapter/kafkaout"
	"github.com/ShivanshCoding36/alert-aid/internal/adapter/openmeteo"
	"github.com/ShivanshCoding36/alert-aid/internal/adapter/openweather"
	"github.com/ShivanshCoding36/alert-aid/internal/adapter/overpass"
	"github.com/ShivanshCoding36/alert-aid/internal/adapter/usgs"
	"github.com/ShivanshCoding36/alert-aid/internal/aggregate"
	"github.com/ShivanshCoding36/alert-aid/internal/alerts"
	"github.com/ShivanshCoding36/alert-aid/internal/cache"
	"github.com/ShivanshCoding36/alert-aid/internal/config"
	"github.com/ShivanshCoding36/alert-aid/internal/domain"
	"github.com/ShivanshCoding36/alert-aid/internal/flood"
	"github.com/ShivanshCoding36/alert-aid/internal/hazard"
	"github.com/ShivanshCoding36/alert-aid/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Upstream adapters, each with its own TTL cache.
	weather := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.UpstreamTimeout,
		cache.New[openweather.Observation]("openweathermap", cfg.CacheSize, cfg.CacheTTL, metrics),
		logger, metrics)
	quakes := usgs.NewClient(cfg.UpstreamTimeout,
		cache.New[[]domain.Earthquake]("usgs", cfg.CacheSize, cfg.CacheTTL, metrics),
		logger, metrics)
	gdacsFeed := gdacs.NewClient(cfg.UpstreamTimeout,
		cache.New[[]domain.GDACSAlert]("gdacs", cfg.CacheSize, cfg.CacheTTL, metrics),
		logger, metrics)
	fires := firms.NewClient(cfg.FIRMSMapKey, cfg.UpstreamTimeout,
		cache.New[[]domain.FireHotspot]("nasa_firms", cfg.CacheSize, cfg.CacheTTL, metrics),
		logger, metrics)
	discharge := openmeteo.NewClient(cfg.UpstreamTimeout,
		cache.New[float64]("open_meteo", cfg.CacheSize, cfg.CacheTTL, metrics),
		logger, metrics)
	facilities := overpass.NewClient(cfg.UpstreamTimeout,
		cache.New[[]domain.Facility]("overpass", cfg.CacheSize, cfg.CacheTTL, metrics),
		logger, metrics)

	// Alert history store is best-effort. The engine runs without it.
	var store alerts.Store
	sqlStore, err := alerts.OpenStore(cfg.AlertsDBPath)
	if err != nil {
		logger.Warn("alert history store unavailable", "path", cfg.AlertsDBPath, "error", err)
	} else {
		store = sqlStore
		defer sqlStore.Close()
	}

	// Kafka publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher alerts.Publisher
	var writer *kafkaout.Writer
	if cfg.KafkaEnabled {
		writer = kafkaout.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka alert publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertTopic)
	} else {
		logger.Info("kafka alert publishing disabled")
	}

	hazards, err := hazard.NewService(logger)
	if err != nil {
		logger.Error("failed to load hazard regions", "error", err)
		os.Exit(1)
	}

	predictor := flood.NewPredictor(logger, metrics)
	detector := flood.NewDetector()
	engine := alerts.NewEngine(logger, metrics, store, publisher)
	agg := aggregate.NewService(quakes, gdacsFeed, fires, weather, logger)

	deps := httpapi.Deps{
		Weather:    weather,
		Quakes:     quakes,
		GDACS:      gdacsFeed,
		Fires:      fires,
		Discharge:  discharge,
		Facilities: facilities,
		Predictor:  predictor,
		Detector:   detector,
		Engine:     engine,
		Hazards:    hazards,
		Aggregate:  agg,
	}
	if sqlStore != nil {
		deps.History = sqlStore
	}
	srv := httpapi.NewServer(cfg.HTTPAddr, deps, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
