package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Analysis AnalysisConfig
	Jobs     JobsConfig
	Ingest   IngestConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	Environment     string
	CORSAllowOrigin string
	MaxUploadMB     int
}

// AnalysisConfig holds configuration for the external document-intelligence service
type AnalysisConfig struct {
	Endpoint     string
	Key          string
	ModelID      string
	APIVersion   string
	HTTPTimeout  time.Duration
	PollInterval time.Duration
	PollAttempts int
}

// JobsConfig holds job store configuration
type JobsConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
	HistoryDB     string
}

// IngestConfig holds watch-folder configuration
type IngestConfig struct {
	Roots       []string
	ReportDir   string
	Debounce    time.Duration
	InitialScan bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":" + getEnv("PORT", "8000"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			CORSAllowOrigin: getEnv("CORS_ALLOW_ORIGIN", "*"),
			MaxUploadMB:     getEnvAsInt("MAX_UPLOAD_MB", 128),
		},
		Analysis: AnalysisConfig{
			Endpoint:     getEnv("DOCINTEL_ENDPOINT", ""),
			Key:          getEnv("DOCINTEL_KEY", ""),
			ModelID:      getEnv("DOCINTEL_MODEL_ID", "prebuilt-layout"),
			APIVersion:   getEnv("DOCINTEL_API_VERSION", "2024-02-29-preview"),
			HTTPTimeout:  getEnvAsDuration("DOCINTEL_HTTP_TIMEOUT", 60*time.Second),
			PollInterval: getEnvAsDuration("DOCINTEL_POLL_INTERVAL", 2*time.Second),
			PollAttempts: getEnvAsInt("DOCINTEL_POLL_ATTEMPTS", 120),
		},
		Jobs: JobsConfig{
			RedisAddr:     getEnv("JOBS_REDIS_ADDR", ""),
			RedisPassword: getEnv("JOBS_REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("JOBS_REDIS_DB", 0),
			RedisTTL:      getEnvAsDuration("JOBS_REDIS_TTL", 24*time.Hour),
			HistoryDB:     getEnv("JOBS_HISTORY_DB", ""),
		},
		Ingest: IngestConfig{
			Roots:       splitList(getEnv("INGEST_ROOTS", "")),
			ReportDir:   getEnv("INGEST_REPORT_DIR", ""),
			Debounce:    getEnvAsDuration("INGEST_DEBOUNCE", 500*time.Millisecond),
			InitialScan: getEnv("INGEST_INITIAL_SCAN", "") == "1",
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Analysis.Endpoint == "" {
		return NewAppError("CONFIG_ERROR", "DOCINTEL_ENDPOINT is required", ErrInvalidInput)
	}
	if c.Analysis.Key == "" {
		return NewAppError("CONFIG_ERROR", "DOCINTEL_KEY is required", ErrInvalidInput)
	}
	if c.Server.Addr == ":" {
		return NewAppError("CONFIG_ERROR", "PORT is required", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
