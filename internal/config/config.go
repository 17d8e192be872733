package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Host string
	Port int

	// Database configuration
	DatabasePath string

	// GitHub API configuration
	GitHubToken string

	// Shared secret for trigger endpoints
	CronSecret string

	// Badge award collaborator (optional; empty disables notification)
	BadgeAwardURL string

	// Bulk refresh pacing
	RefreshBatchSize         int
	RefreshInterBatchDelay   time.Duration
	RefreshInterRequestDelay time.Duration

	// Scheduler configuration
	ScheduleEnabled bool
	ScheduleHourUTC int

	// Metrics configuration
	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int

	// Logging configuration
	LogLevel string
}

// Load reads configuration from the environment, with a best-effort .env
// file load first. It fails fast if required variables are missing.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments use actual env vars
	_ = godotenv.Load()

	cfg := &Config{
		// Optional values with defaults
		Host:                     getEnv("HOST", "localhost"),
		Port:                     getEnvInt("PORT", 4200),
		DatabasePath:             getEnv("DATABASE_PATH", "./gitaura.db"),
		BadgeAwardURL:            getEnv("BADGE_AWARD_URL", ""),
		RefreshBatchSize:         getEnvInt("REFRESH_BATCH_SIZE", 10),
		RefreshInterBatchDelay:   getEnvDuration("REFRESH_INTER_BATCH_DELAY", 2*time.Second),
		RefreshInterRequestDelay: getEnvDuration("REFRESH_INTER_REQUEST_DELAY", 500*time.Millisecond),
		ScheduleEnabled:          getEnvBool("SCHEDULE_ENABLED", false),
		ScheduleHourUTC:          getEnvInt("SCHEDULE_HOUR_UTC", 2),
		MetricsEnabled:           getEnvBool("METRICS_ENABLED", false),
		MetricsHost:              getEnv("METRICS_HOST", "localhost"),
		MetricsPort:              getEnvInt("METRICS_PORT", 4201),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
	}

	// Required values
	var missingVars []string

	cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	if cfg.GitHubToken == "" {
		missingVars = append(missingVars, "GITHUB_TOKEN")
	}

	cfg.CronSecret = os.Getenv("CRON_SECRET")
	if cfg.CronSecret == "" {
		missingVars = append(missingVars, "CRON_SECRET")
	}

	if len(missingVars) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvDuration gets a duration environment variable (e.g. "500ms", "2s")
// or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
