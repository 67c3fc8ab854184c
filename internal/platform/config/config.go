package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	// Ocean Engine open API.
	PlatformBaseURL string
	PlatformAppID   string
	PlatformSecret  string
	PlatformTimeout time.Duration

	// Credential encryption key (16/24/32 bytes after trimming).
	CredentialKey string

	// Risk control ceilings, major currency units.
	MaxSingleAmount  decimal.Decimal
	SystemDailyLimit decimal.Decimal
	DefaultMaxRetry  int

	// Scheduling.
	ExecutorInterval    time.Duration
	ExecutorBatchSize   int
	RefreshInterval     time.Duration
	RefreshInitialDelay time.Duration
	RemoteCallsPerSec   float64
	SyncWorkers         int64
	SyncPageSize        int
	ReportWindowDays    int
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "adboost"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	baseURL := strings.TrimSpace(os.Getenv("PLATFORM_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.oceanengine.com"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		PlatformBaseURL: baseURL,
		PlatformAppID:   os.Getenv("PLATFORM_APP_ID"),
		PlatformSecret:  os.Getenv("PLATFORM_APP_SECRET"),
		PlatformTimeout: envDuration("PLATFORM_TIMEOUT", 15*time.Second),

		CredentialKey: os.Getenv("CREDENTIAL_KEY"),

		MaxSingleAmount:  envDecimal("RISK_MAX_SINGLE_AMOUNT", decimal.NewFromInt(5000)),
		SystemDailyLimit: envDecimal("RISK_SYSTEM_DAILY_LIMIT", decimal.NewFromInt(10000)),
		DefaultMaxRetry:  envInt("TASK_MAX_RETRY", 3),

		ExecutorInterval:    envDuration("EXECUTOR_INTERVAL", 5*time.Second),
		ExecutorBatchSize:   envInt("EXECUTOR_BATCH_SIZE", 10),
		RefreshInterval:     envDuration("TOKEN_REFRESH_INTERVAL", 6*time.Hour),
		RefreshInitialDelay: envDuration("TOKEN_REFRESH_INITIAL_DELAY", time.Minute),
		RemoteCallsPerSec:   envFloat("REMOTE_CALLS_PER_SEC", 1),
		SyncWorkers:         int64(envInt("SYNC_WORKERS", 2)),
		SyncPageSize:        envInt("SYNC_PAGE_SIZE", 50),
		ReportWindowDays:    envInt("SYNC_REPORT_WINDOW_DAYS", 90),
	}, nil
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDecimal(name string, fallback decimal.Decimal) decimal.Decimal {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return fallback
	}
	return value
}
