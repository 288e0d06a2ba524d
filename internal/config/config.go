package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	DomainsFile string
	ArchivePath string

	DatasetCacheTTL time.Duration
	FetchTimeout    time.Duration
	FetchMaxBytes   int64
	SQLQueryTimeout time.Duration

	SessionIdleTTL time.Duration
	SessionMax     int

	APIRateLimitRPS     float64
	APIRateLimitBurst   int
	APIMaxInFlight      int
	APIBackpressureWait time.Duration

	NATSURL     string
	NATSSubject string

	ResilienceRetryMaxAttempts    int
	ResilienceBreakerEnabled      bool
	ResilienceBreakerOpenTimeout  time.Duration
	ResilienceBreakerMinRequests  int
	ResilienceBreakerFailureRatio float64
	ResilienceImageTripFailures   int
	ResilienceImageOpenTimeout    time.Duration
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		DomainsFile: mustEnv("DOMAINS_FILE", ""),
		ArchivePath: mustEnv("ARCHIVE_PATH", ""),

		DatasetCacheTTL: time.Duration(mustEnvInt("DATASET_CACHE_TTL_SECONDS", 3600)) * time.Second,
		FetchTimeout:    time.Duration(mustEnvInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		FetchMaxBytes:   int64(mustEnvInt("FETCH_MAX_BYTES", 32<<20)),
		SQLQueryTimeout: time.Duration(mustEnvInt("SQL_QUERY_TIMEOUT_SECONDS", 15)) * time.Second,

		SessionIdleTTL: time.Duration(mustEnvInt("SESSION_IDLE_TTL_SECONDS", 7200)) * time.Second,
		SessionMax:     mustEnvInt("SESSION_MAX", 10000),

		APIRateLimitRPS:     mustEnvFloat("API_RATE_LIMIT_RPS", 20),
		APIRateLimitBurst:   mustEnvInt("API_RATE_LIMIT_BURST", 40),
		APIMaxInFlight:      mustEnvInt("API_MAX_IN_FLIGHT", 64),
		APIBackpressureWait: time.Duration(mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250)) * time.Millisecond,

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "tce.search"),

		ResilienceRetryMaxAttempts:    mustEnvInt("RESILIENCE_RETRY_MAX_ATTEMPTS", 3),
		ResilienceBreakerEnabled:      mustEnvBool("RESILIENCE_BREAKER_ENABLED", true),
		ResilienceBreakerOpenTimeout:  time.Duration(mustEnvInt("RESILIENCE_BREAKER_OPEN_TIMEOUT_SECONDS", 30)) * time.Second,
		ResilienceBreakerMinRequests:  mustEnvInt("RESILIENCE_BREAKER_MIN_REQUESTS", 10),
		ResilienceBreakerFailureRatio: mustEnvFloat("RESILIENCE_BREAKER_FAILURE_RATIO", 0.5),
		ResilienceImageTripFailures:   mustEnvInt("RESILIENCE_IMAGE_BREAKER_TRIP_FAILURES", 5),
		ResilienceImageOpenTimeout:    time.Duration(mustEnvInt("RESILIENCE_IMAGE_BREAKER_OPEN_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
