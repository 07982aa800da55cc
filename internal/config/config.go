package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Bokun API configuration
	Bokun BokunConfig

	// Redis availability cache
	Redis RedisConfig

	// NATS event bus
	NATS NATSConfig

	// Cart session configuration
	Cart CartConfig

	// Request log retention
	RequestLog RequestLogConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// BokunConfig holds the signed client settings
type BokunConfig struct {
	BaseURL       string
	AccessKey     string
	SecretKey     string // never logged
	Timeout       time.Duration
	MaxGetRetries int
	Timezone      string // vendor timezone used for availability dates
	VendorID      int64
}

// RedisConfig holds the availability cache settings. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// NATSConfig holds the event bus settings. An empty URL disables publishing.
type NATSConfig struct {
	URL string
}

// CartConfig holds cart session token and registry settings
type CartConfig struct {
	TokenSecret    string
	TokenExpiry    time.Duration
	SessionIdleTTL time.Duration
	EvictSchedule  string // cron expression for idle session eviction
}

// RequestLogConfig holds request log retention settings
type RequestLogConfig struct {
	Retention     time.Duration // 0 keeps logs forever
	PurgeSchedule string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    getEnvAsSeconds("DATABASE_CONN_MAX_LIFETIME", 300),
		},
		Bokun: BokunConfig{
			BaseURL:       getEnv("BOKUN_API_URL", "https://api.bokun.is"),
			AccessKey:     getEnv("BOKUN_ACCESS_KEY", ""),
			SecretKey:     getEnv("BOKUN_SECRET_KEY", ""),
			Timeout:       getEnvAsSeconds("BOKUN_TIMEOUT_SECONDS", 30),
			MaxGetRetries: getEnvAsInt("BOKUN_GET_RETRIES", 1),
			Timezone:      getEnv("BOKUN_TIMEZONE", "UTC"),
			VendorID:      int64(getEnvAsInt("BOKUN_VENDOR_ID", 0)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsSeconds("AVAILABILITY_CACHE_TTL_SECONDS", 600),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Cart: CartConfig{
			TokenSecret:    getEnv("CART_TOKEN_SECRET", ""),
			TokenExpiry:    getEnvAsSeconds("CART_TOKEN_EXPIRY_SECONDS", 7200),
			SessionIdleTTL: getEnvAsSeconds("CART_SESSION_IDLE_TTL_SECONDS", 1800),
			EvictSchedule:  getEnv("CART_EVICT_SCHEDULE", "@every 1m"),
		},
		RequestLog: RequestLogConfig{
			Retention:     time.Duration(getEnvAsInt("REQUEST_LOG_RETENTION_DAYS", 90)) * 24 * time.Hour,
			PurgeSchedule: getEnv("REQUEST_LOG_PURGE_SCHEDULE", "0 0 4 * * *"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Cart-Token"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Bokun.AccessKey == "" {
		return fmt.Errorf("BOKUN_ACCESS_KEY is required")
	}

	if c.Bokun.SecretKey == "" {
		return fmt.Errorf("BOKUN_SECRET_KEY is required")
	}

	if c.Cart.TokenSecret == "" {
		return fmt.Errorf("CART_TOKEN_SECRET is required")
	}

	if _, err := time.LoadLocation(c.Bokun.Timezone); err != nil {
		return fmt.Errorf("invalid BOKUN_TIMEZONE %q: %w", c.Bokun.Timezone, err)
	}

	if c.Bokun.MaxGetRetries < 0 {
		return fmt.Errorf("BOKUN_GET_RETRIES cannot be negative")
	}

	if c.RequestLog.Retention < 0 {
		return fmt.Errorf("REQUEST_LOG_RETENTION_DAYS cannot be negative")
	}

	return nil
}

// Location returns the vendor timezone
func (c BokunConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
