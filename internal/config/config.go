package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream API configuration.
	UpstreamTimeout   time.Duration
	OpenWeatherAPIKey string
	FIRMSMapKey       string

	// Response cache for outbound API calls.
	CacheTTL  time.Duration
	CacheSize int

	// Alert history persistence (SQLite DSN).
	AlertsDBPath string

	// Optional Kafka alert sink.
	KafkaBrokers    []string
	KafkaAlertTopic string
	KafkaEnabled    bool
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first,
// best-effort.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	upstreamTimeout, err := parseDuration("UPSTREAM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("CACHE_SIZE", 512)
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		UpstreamTimeout:   upstreamTimeout,
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		FIRMSMapKey:       os.Getenv("FIRMS_MAP_KEY"),

		CacheTTL:  cacheTTL,
		CacheSize: cacheSize,

		AlertsDBPath: envOrDefault("ALERTS_DB_PATH", "file::memory:?cache=shared"),

		KafkaBrokers:    brokers,
		KafkaAlertTopic: envOrDefault("KAFKA_ALERT_TOPIC", "disaster-alerts"),
		KafkaEnabled:    kafkaEnabled,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// envOrDefault returns the environment variable value, or the default when
// unset or empty.
func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

// parseBrokers splits a comma-separated broker list, dropping empty entries.
func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
