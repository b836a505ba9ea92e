package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ArchiveIDRegenerate = "regenerate"
	ArchiveIDPreserve   = "preserve"
)

type Config struct {
	ServerPort         string
	FirebaseProject    string
	ServiceAccountJSON string
	ServiceAccountPath string
	StorageBucket      string
	Environment        string
	LogLevel           string

	// Store behaviour
	UseTransactions    bool
	ArchiveIDStrategy  string
	ResubscribeBackoff time.Duration

	DashboardTimezone string

	ReportRateLimit float64 // requests per second per client IP
	ReportRateBurst int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", "./firebase-adminsdk.json"),
		StorageBucket:      getEnv("STORAGE_BUCKET", ""),
		Environment:        getEnv("ENVIRONMENT", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		UseTransactions:    getEnvAsBool("STORE_TRANSACTIONS", true),
		ArchiveIDStrategy:  strings.ToLower(getEnv("ARCHIVE_ID_STRATEGY", ArchiveIDRegenerate)),
		ResubscribeBackoff: getEnvAsDuration("RESUBSCRIBE_BACKOFF", 5*time.Second),
		DashboardTimezone:  getEnv("DASHBOARD_TIMEZONE", "Asia/Jakarta"),
		ReportRateLimit:    getEnvAsFloat("REPORT_RATE_LIMIT", 0.2), // 12 per minute
		ReportRateBurst:    int(getEnvAsInt64("REPORT_RATE_BURST", 5)),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.FirebaseProject == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}
	switch c.ArchiveIDStrategy {
	case ArchiveIDRegenerate, ArchiveIDPreserve:
	default:
		return fmt.Errorf("ARCHIVE_ID_STRATEGY must be %q or %q, got %q", ArchiveIDRegenerate, ArchiveIDPreserve, c.ArchiveIDStrategy)
	}
	if _, err := time.LoadLocation(c.DashboardTimezone); err != nil {
		return fmt.Errorf("invalid DASHBOARD_TIMEZONE %q: %w", c.DashboardTimezone, err)
	}
	if c.ReportRateLimit <= 0 || c.ReportRateBurst <= 0 {
		return fmt.Errorf("REPORT_RATE_LIMIT and REPORT_RATE_BURST must be positive")
	}
	return nil
}

// Location returns the dashboard time zone. validate already checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DashboardTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) PreserveArchiveIDs() bool {
	return c.ArchiveIDStrategy == ArchiveIDPreserve
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		floatValue, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
