package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/security"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string

	// Database. An empty DatabaseURL selects local SQLite mode.
	DatabaseURL    string
	DatabaseDriver string
	SQLitePath     string
	DBMaxConns     int
	LocalMode      bool

	// HTTP
	HTTPAddr string

	// Redis timeline cache. Empty URL selects the in-memory cache.
	RedisURL             string
	TimelineCacheTTL     time.Duration
	CacheBreakerFailures int
	CacheBreakerTimeout  time.Duration

	// RabbitMQ. Empty URL selects the in-process event bus.
	RabbitMQURL      string
	RabbitMQExchange string
	RabbitMQQueue    string

	// Outbox
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxRetries   int
	OutboxRetention    time.Duration
	OutboxMaxLag       time.Duration

	// CalDAV publishing of schedule windows. Empty URL disables it.
	CalDAVURL          string
	CalDAVUsername     string
	CalDAVPassword     string
	CalDAVCalendarPath string

	// Timeline
	TimelinePolicyFile string
	TimelinePolicy     TimelinePolicy
}

// TimelinePolicy overrides the number of buckets per view mode. Zero
// fields keep the built-in defaults.
type TimelinePolicy struct {
	DayCalendarDays int `yaml:"day_calendar_days"`
	Weeks           int `yaml:"weeks"`
	Months          int `yaml:"months"`
	Quarters        int `yaml:"quarters"`
	HalfYears       int `yaml:"half_years"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DatabaseDriver: getEnv("DATABASE_DRIVER", ""),
		SQLitePath:     getEnv("SQLITE_PATH", ""),
		DBMaxConns:     getIntEnv("DB_MAX_CONNS", 10),

		HTTPAddr: getEnv("HTTP_ADDR", "127.0.0.1:8080"),

		RedisURL:             getEnv("REDIS_URL", ""),
		TimelineCacheTTL:     getDurationEnv("TIMELINE_CACHE_TTL", 5*time.Minute),
		CacheBreakerFailures: getIntEnv("CACHE_BREAKER_FAILURES", 3),
		CacheBreakerTimeout:  getDurationEnv("CACHE_BREAKER_TIMEOUT", 30*time.Second),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "layoutrack.domain.events"),
		RabbitMQQueue:    getEnv("RABBITMQ_QUEUE", ""),

		OutboxPollInterval: getDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		OutboxBatchSize:    getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:   getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetention:    getDurationEnv("OUTBOX_RETENTION", 7*24*time.Hour),
		OutboxMaxLag:       getDurationEnv("OUTBOX_MAX_LAG", 5*time.Minute),

		CalDAVURL:          getEnv("CALDAV_URL", ""),
		CalDAVUsername:     getEnv("CALDAV_USERNAME", ""),
		CalDAVPassword:     getEnv("CALDAV_PASSWORD", ""),
		CalDAVCalendarPath: getEnv("CALDAV_CALENDAR_PATH", ""),

		TimelinePolicyFile: getEnv("TIMELINE_POLICY_FILE", ""),
	}

	if cfg.DatabaseDriver == "" {
		if cfg.DatabaseURL == "" {
			cfg.DatabaseDriver = "sqlite"
		} else {
			cfg.DatabaseDriver = "auto"
		}
	}
	cfg.LocalMode = cfg.DatabaseDriver == "sqlite" && cfg.DatabaseURL == ""

	if cfg.TimelinePolicyFile != "" {
		policy, err := LoadTimelinePolicy(cfg.TimelinePolicyFile)
		if err != nil {
			return nil, err
		}
		cfg.TimelinePolicy = policy
	}

	return cfg, nil
}

// LoadTimelinePolicy reads a YAML policy file.
func LoadTimelinePolicy(path string) (TimelinePolicy, error) {
	data, err := security.SafeReadFile(path)
	if err != nil {
		return TimelinePolicy{}, fmt.Errorf("read timeline policy: %w", err)
	}
	var p TimelinePolicy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return TimelinePolicy{}, fmt.Errorf("parse timeline policy %s: %w", path, err)
	}
	for name, v := range map[string]int{
		"day_calendar_days": p.DayCalendarDays,
		"weeks":             p.Weeks,
		"months":            p.Months,
		"quarters":          p.Quarters,
		"half_years":        p.HalfYears,
	} {
		if v < 0 {
			return TimelinePolicy{}, fmt.Errorf("timeline policy %s: %s must not be negative", path, name)
		}
	}
	return p, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
