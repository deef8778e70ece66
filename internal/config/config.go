package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseURL     string
	HTTPAddr        string
	AdminSecret     string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Weather provider.
	WeatherAPIKey     string
	WeatherAPITimeout time.Duration
	WeatherAPIRPS     float64
	WeatherAPIBurst   int

	CacheTTL time.Duration

	// Inference (feature-flagged: enabled when OLLAMA_URL is set).
	OllamaURL     string
	OllamaModel   string
	OllamaTimeout time.Duration
	OllamaEnabled bool

	// Alert publishing (enabled when brokers are set).
	KafkaBrokers    []string
	KafkaAlertTopic string

	// Detection window.
	DetectorLookback int
	DetectorMinObs   int

	// Pipeline concurrency.
	Workers int

	// Scheduler (disabled when SCHEDULER_ENABLED=false; runs can still be
	// triggered over HTTP).
	SchedulerEnabled  string
	IngestionInterval time.Duration
	AnalysisInterval  time.Duration
}

// SchedulerOn reports whether the interval scheduler should run.
func (c *Config) SchedulerOn() bool {
	return c.SchedulerEnabled != "false"
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := envDuration("WEATHER_API_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := envDuration("CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	ollamaTimeout, err := envDuration("OLLAMA_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	ingestionInterval, err := envDuration("INGESTION_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	analysisInterval, err := envDuration("ANALYSIS_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	ollamaURL := os.Getenv("OLLAMA_URL")
	ollamaEnabled := ollamaURL != ""
	if v := os.Getenv("OLLAMA_ENABLED"); v != "" {
		ollamaEnabled = v == "true"
	}

	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		AdminSecret:     os.Getenv("ADMIN_SECRET"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WeatherAPIKey:     os.Getenv("WEATHER_API_KEY"),
		WeatherAPITimeout: weatherTimeout,
		WeatherAPIRPS:     envFloat("WEATHER_API_RPS", 5),
		WeatherAPIBurst:   envInt("WEATHER_API_BURST", 5),

		CacheTTL: cacheTTL,

		OllamaURL:     ollamaURL,
		OllamaModel:   envOrDefault("OLLAMA_MODEL", "gemma3"),
		OllamaTimeout: ollamaTimeout,
		OllamaEnabled: ollamaEnabled,

		KafkaBrokers:    parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaAlertTopic: envOrDefault("KAFKA_ALERT_TOPIC", "extreme-weather-alerts"),

		DetectorLookback: envInt("DETECTOR_LOOKBACK", 14),
		DetectorMinObs:   envInt("DETECTOR_MIN_OBSERVATIONS", 14),

		Workers: envInt("PIPELINE_WORKERS", 3),

		SchedulerEnabled:  envOrDefault("SCHEDULER_ENABLED", "true"),
		IngestionInterval: ingestionInterval,
		AnalysisInterval:  analysisInterval,
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.AdminSecret == "" {
		return nil, errors.New("ADMIN_SECRET is required")
	}
	if cfg.WeatherAPIKey == "" {
		return nil, errors.New("WEATHER_API_KEY is required")
	}
	if cfg.CacheTTL <= 0 {
		return nil, errors.New("CACHE_TTL must be positive")
	}
	if cfg.Workers <= 0 {
		return nil, errors.New("PIPELINE_WORKERS must be positive")
	}
	if cfg.OllamaEnabled && cfg.OllamaURL == "" {
		return nil, errors.New("OLLAMA_ENABLED is true but OLLAMA_URL is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
