package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort   string
	ServerHost   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Dataset sources (published spreadsheet CSV exports)
	DoctorsURL  string
	PatientsURL string

	// Polling / fetching
	PollInterval  time.Duration
	FetchTimeout  time.Duration
	FetchRetries  int
	MinRowRatio   float64
	CatalogPath   string
	PollOnStartup bool

	// Redis (snapshot cache)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheEnabled  bool
	CacheTTL      time.Duration

	// Postgres (refresh audit log)
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	AuditEnabled     bool

	// Kafka (refresh events)
	KafkaBrokers  []string
	KafkaTopic    string
	EventsEnabled bool

	// Rate limiting
	RateLimitRPS   int
	RateLimitBurst int
}

func Load() *Config {
	return &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ServerHost:   getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),

		DoctorsURL:  getEnv("DOCTORS_CSV_URL", ""),
		PatientsURL: getEnv("PATIENTS_CSV_URL", ""),

		PollInterval:  getDuration("POLL_INTERVAL", 30*time.Second),
		FetchTimeout:  getDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchRetries:  getIntEnv("FETCH_RETRIES", 3),
		MinRowRatio:   getFloatEnv("MIN_ROW_RATIO", 0.7),
		CatalogPath:   getEnv("SCHEMA_CATALOG_PATH", ""),
		PollOnStartup: getBoolEnv("POLL_ON_STARTUP", true),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		CacheEnabled:  getBoolEnv("SNAPSHOT_CACHE_ENABLED", false),
		CacheTTL:      getDuration("SNAPSHOT_CACHE_TTL", 10*time.Minute),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "careview"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "careview123"),
		PostgresDB:       getEnv("POSTGRES_DB", "careview"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		AuditEnabled:     getBoolEnv("REFRESH_AUDIT_ENABLED", false),

		KafkaBrokers:  getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "dataset-refreshes"),
		EventsEnabled: getBoolEnv("REFRESH_EVENTS_ENABLED", false),

		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
