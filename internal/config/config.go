package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	API        APIConfig
	Credential CredentialConfig
	History    HistoryConfig
	MongoDB    MongoDBConfig
	Redis      RedisConfig
	S3         S3Config
	OTEL       OTELConfig
	Log        LogConfig
	DevServer  DevServerConfig
}

// APIConfig holds the analysis backend settings
type APIConfig struct {
	BaseURL          string
	Timeout          time.Duration // 0 means no timeout
	RequireToken     bool          // fail locally instead of sending "Bearer " with no token
	BatchConcurrency int
}

// CredentialConfig selects where the bearer token is kept
type CredentialConfig struct {
	Backend string // "keyring" or "file"
	File    string
}

// HistoryConfig selects where upload results are recorded
type HistoryConfig struct {
	Backend string // "none", "redis" or "mongo"
	Limit   int
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
}

// S3Config holds settings for s3:// file locations
type S3Config struct {
	Endpoint  string // empty uses AWS
	Region    string
	AccessKey string
	SecretKey string
}

// OTELConfig holds OpenTelemetry settings
type OTELConfig struct {
	Enabled        bool
	Endpoint       string
	ServiceName    string
	ServiceVersion string
	Environment    string
	Authorization  string // sent as the Authorization header to the collector
	Insecure       bool
}

// LogConfig holds logging settings
type LogConfig struct {
	File string // the TUI writes its log here since it owns the terminal
}

// DevServerConfig holds settings for the local stand-in backend
type DevServerConfig struct {
	Port            string
	JWTSecret       string
	TokenExpiry     time.Duration
	MaxUploadSizeMB int64
	AccountStore    string // "memory" or "mongo"
}

// Load reads configuration from environment variables
// It attempts to load from .env file first, then falls back to system env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := FromEnv()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDevServer reads configuration for the stand-in backend, which does not need API_URL
func LoadDevServer() (*Config, error) {
	_ = godotenv.Load()

	cfg := FromEnv()
	if err := cfg.ValidateDevServer(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// FromEnv builds a Config from the current environment without validating it
func FromEnv() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:          strings.TrimRight(getEnv("API_URL", ""), "/"),
			Timeout:          getEnvAsDuration("HTTP_TIMEOUT", 0),
			RequireToken:     getEnvAsBool("UPLOAD_REQUIRE_TOKEN", false),
			BatchConcurrency: getEnvAsInt("BATCH_CONCURRENCY", 3),
		},
		Credential: CredentialConfig{
			Backend: getEnv("CREDENTIAL_BACKEND", "keyring"),
			File:    getEnv("CREDENTIAL_FILE", defaultCredentialFile()),
		},
		History: HistoryConfig{
			Backend: getEnv("HISTORY_BACKEND", "none"),
			Limit:   getEnvAsInt("HISTORY_LIMIT", 20),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "mobipent"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Region:    getEnv("S3_REGION", "us-east-1"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		OTEL: OTELConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:       getEnv("OTEL_ENDPOINT", "localhost:4318"),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "mobipent-client"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    getEnv("OTEL_ENVIRONMENT", "development"),
			Authorization:  getEnv("OTEL_AUTHORIZATION", ""),
			Insecure:       getEnvAsBool("OTEL_INSECURE", true),
		},
		Log: LogConfig{
			File: getEnv("LOG_FILE", "mobipent.log"),
		},
		DevServer: DevServerConfig{
			Port:            getEnv("DEV_PORT", "8000"),
			JWTSecret:       getEnv("DEV_JWT_SECRET", "SUPER_SECRET_KEY"),
			TokenExpiry:     getEnvAsDuration("DEV_TOKEN_EXPIRY", time.Hour),
			MaxUploadSizeMB: getEnvAsInt64("DEV_MAX_UPLOAD_MB", 200),
			AccountStore:    getEnv("DEV_ACCOUNT_STORE", "memory"),
		},
	}
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_URL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_URL must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT must not be negative")
	}
	if c.API.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be at least 1")
	}
	switch c.Credential.Backend {
	case "keyring", "file":
	default:
		return fmt.Errorf("CREDENTIAL_BACKEND must be keyring or file, got %q", c.Credential.Backend)
	}
	switch c.History.Backend {
	case "none", "redis", "mongo":
	default:
		return fmt.Errorf("HISTORY_BACKEND must be none, redis or mongo, got %q", c.History.Backend)
	}
	if c.History.Limit < 1 {
		return fmt.Errorf("HISTORY_LIMIT must be at least 1")
	}
	return nil
}

// ValidateDevServer checks the settings the stand-in backend needs
func (c *Config) ValidateDevServer() error {
	if c.DevServer.JWTSecret == "" {
		return fmt.Errorf("DEV_JWT_SECRET is required")
	}
	if c.DevServer.MaxUploadSizeMB < 1 {
		return fmt.Errorf("DEV_MAX_UPLOAD_MB must be at least 1")
	}
	switch c.DevServer.AccountStore {
	case "memory", "mongo":
	default:
		return fmt.Errorf("DEV_ACCOUNT_STORE must be memory or mongo, got %q", c.DevServer.AccountStore)
	}
	return nil
}

func defaultCredentialFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".mobipent", "credentials.json")
	}
	return filepath.Join(home, ".mobipent", "credentials.json")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	return int(getEnvAsInt64(key, int64(defaultValue)))
}

func getEnvAsBool(key string, defaultValue bool) bool {
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
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
