package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	APIBaseURL       string
	AuthBasePath     string
	AuthFallbackPath string // empty disables the legacy path fallback
	StateDBPath      string
	StateSecret      string
	MetricsAddr      string
	LogLevel         string
	LogFormat        string
	Environment      string // development, staging, production
}

// Load loads configuration from environment variables and validates for production
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		APIBaseURL:       getEnv("API_BASE_URL", "http://localhost:8080"),
		AuthBasePath:     getEnv("AUTH_BASE_PATH", "/api/auth"),
		AuthFallbackPath: getEnv("AUTH_FALLBACK_PATH", ""),
		StateDBPath:      getEnv("STATE_DB_PATH", defaultStateDBPath()),
		StateSecret:      getEnv("STATE_SECRET", ""),
		MetricsAddr:      getEnv("METRICS_ADDR", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		Environment:      getEnv("ENVIRONMENT", "development"),
	}

	// Validate production configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

// Validate checks configuration for security and correctness
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL must not be empty")
	}

	// Production environment requires a strong state secret: the
	// persisted token is encrypted at rest with a key derived from it
	if c.IsProduction() {
		if c.StateSecret == "" || c.StateSecret == "change-this-in-production" {
			return fmt.Errorf("STATE_SECRET must be set to a strong random value in production")
		}

		if len(c.StateSecret) < 32 {
			return fmt.Errorf("STATE_SECRET must be at least 32 characters in production (got %d)", len(c.StateSecret))
		}
	} else if c.StateSecret == "" {
		// Development/staging: provide default if not set
		c.StateSecret = "dev-secret-not-for-production"
		log.Println("Using default STATE_SECRET for development")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == ""
}

func defaultStateDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "banking-client.db"
	}
	return filepath.Join(home, ".banking-client", "state.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
