// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses file storage if not set)

	// Data locations
	DataDir       string // directory of daily raw snapshot files (YYYY-MM-DD.csv)
	ProcessedPath string // engineered dataset file written by cmd/derive
	ModelPath     string // model artifact bundle (classifier + encoders)

	// Scoring settings
	TopSuspiciousN int   // default size of the top-suspicious listing
	MaxUploadBytes int64 // cap on batch CSV uploads

	// Observability
	RateLimitRPS int
	OTLPEndpoint string // OTel collector endpoint (optional)
}

const (
	DefaultPort           = "8080"
	DefaultEnv            = "development"
	DefaultLogLevel       = "info"
	DefaultDataDir        = "data"
	DefaultProcessedPath  = "processed/feature_engineered.csv"
	DefaultModelPath      = "models/fraud_detection_model.json"
	DefaultTopSuspiciousN = 5
	DefaultRateLimit      = 100
	DefaultMaxUploadBytes = 10 << 20 // 10MB
)

// Load reads configuration from environment variables.
// It loads .env file if present (for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", DefaultPort),
		Env:            getEnv("ENV", DefaultEnv),
		LogLevel:       getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:    os.Getenv("DATABASE_URL"), // Optional, uses file storage if not set
		DataDir:        getEnv("DATA_DIR", DefaultDataDir),
		ProcessedPath:  getEnv("PROCESSED_PATH", DefaultProcessedPath),
		ModelPath:      getEnv("MODEL_PATH", DefaultModelPath),
		TopSuspiciousN: int(getEnvInt64("TOP_SUSPICIOUS_N", DefaultTopSuspiciousN)),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		RateLimitRPS:   int(getEnvInt64("RATE_LIMIT_RPS", DefaultRateLimit)),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("MODEL_PATH is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.TopSuspiciousN < 1 {
		return fmt.Errorf("TOP_SUSPICIOUS_N must be at least 1")
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
