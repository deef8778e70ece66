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

	httpadapter "github.com/couchcryptid/weather-watch/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-watch/internal/adapter/kafka"
	"github.com/couchcryptid/weather-watch/internal/adapter/ollama"
	"github.com/couchcryptid/weather-watch/internal/adapter/postgres"
	"github.com/couchcryptid/weather-watch/internal/adapter/weatherapi"
	"github.com/couchcryptid/weather-watch/internal/cache"
	"github.com/couchcryptid/weather-watch/internal/config"
	"github.com/couchcryptid/weather-watch/internal/domain"
	"github.com/couchcryptid/weather-watch/internal/observability"
	"github.com/couchcryptid/weather-watch/internal/pipeline"
	"github.com/couchcryptid/weather-watch/internal/scheduler"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		logger.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	registry := postgres.NewLocationStore(pool)
	history := postgres.NewObservationStore(pool)
	events := postgres.NewEventStore(pool)

	var provider domain.WeatherProvider = weatherapi.NewClient(cfg.WeatherAPIKey, cfg.WeatherAPITimeout, logger)
	provider = weatherapi.NewRateLimited(provider, cfg.WeatherAPIRPS, cfg.WeatherAPIBurst)

	// Inference is feature-flagged via OLLAMA_URL / OLLAMA_ENABLED.
	var inference domain.InferenceClient
	if cfg.OllamaEnabled {
		inference = ollama.NewClient(cfg.OllamaURL, cfg.OllamaModel, cfg.OllamaTimeout, logger)
		logger.Info("inference enabled", "model", cfg.OllamaModel, "timeout", cfg.OllamaTimeout)
	} else {
		logger.Info("inference disabled, threshold rules only")
	}

	// Alert publishing is optional; without brokers events are stored only.
	var publisher domain.EventPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger)
		publisher = kafkaPublisher
		logger.Info("alert publishing enabled", "topic", cfg.KafkaAlertTopic)
	} else {
		logger.Info("alert publishing disabled")
	}

	obsCache := cache.New(cfg.CacheTTL, nil)
	detector := domain.NewDetector(inference, domain.DetectorConfig{
		Lookback:        cfg.DetectorLookback,
		MinObservations: cfg.DetectorMinObs,
	}, logger)

	ingestor := pipeline.NewIngestor(registry, obsCache, provider, history, logger, metrics, cfg.Workers)
	analyzer := pipeline.NewAnalyzer(registry, history, events, detector, publisher, logger, metrics, cfg.Workers)

	ready := httpadapter.ReadinessFunc(pool.Ping)
	srv := httpadapter.NewServer(cfg.HTTPAddr, cfg.AdminSecret, ingestor, analyzer, ready, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	if cfg.SchedulerOn() {
		jobs := []scheduler.Job{
			{
				Name:     "ingestion",
				Interval: cfg.IngestionInterval,
				Run: func(ctx context.Context) error {
					_, err := ingestor.Run(ctx)
					return err
				},
			},
			{
				Name:     "analysis",
				Interval: cfg.AnalysisInterval,
				Run: func(ctx context.Context) error {
					_, err := analyzer.Run(ctx)
					return err
				},
			},
		}
		sched := scheduler.New(jobs, nil, logger, metrics)
		go func() {
			if err := sched.Run(ctx); err != nil {
				logger.Error("scheduler error", "error", err)
			}
		}()
	} else {
		logger.Info("scheduler disabled, admin endpoints only")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
