package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application. It is resolved once at
// startup and never mutated.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	PagBank  PagBankConfig
	Sweep    SweepConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// PagBankConfig holds PagBank gateway configuration. Each key resolves from
// its PAGBANK_* variable first, then the legacy PAGSEGURO_* name:
//
//	Token           PAGBANK_TOKEN            PAGSEGURO_TOKEN            ""
//	Email           PAGBANK_EMAIL            PAGSEGURO_EMAIL            ""
//	Environment     PAGBANK_ENVIRONMENT      PAGSEGURO_ENVIRONMENT      sandbox
//	NotificationURL PAGBANK_NOTIFICATION_URL PAGSEGURO_NOTIFICATION_URL ""
type PagBankConfig struct {
	Email           string
	Token           string
	Environment     string
	NotificationURL string
}

// SweepConfig holds configuration for the orphaned-payment sweeper.
type SweepConfig struct {
	Enabled    bool
	Interval   time.Duration
	PendingAge time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "payments"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "pagbank-payment-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		PagBank: PagBankConfig{
			Email:           getFallbackEnv("PAGBANK_EMAIL", "PAGSEGURO_EMAIL", ""),
			Token:           getFallbackEnv("PAGBANK_TOKEN", "PAGSEGURO_TOKEN", ""),
			Environment:     getFallbackEnv("PAGBANK_ENVIRONMENT", "PAGSEGURO_ENVIRONMENT", "sandbox"),
			NotificationURL: getFallbackEnv("PAGBANK_NOTIFICATION_URL", "PAGSEGURO_NOTIFICATION_URL", ""),
		},
		Sweep: SweepConfig{
			Enabled:    getBoolEnv("SWEEP_ENABLED", true),
			Interval:   getDurationEnv("SWEEP_INTERVAL", 15*time.Minute),
			PendingAge: getDurationEnv("SWEEP_PENDING_AGE", 1*time.Hour),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getFallbackEnv reads the primary key, then the legacy key, then the default.
func getFallbackEnv(key, legacyKey, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value := os.Getenv(legacyKey); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
