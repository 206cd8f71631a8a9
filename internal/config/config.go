// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MinJWTSecretLength is the shortest signing secret the server accepts.
const MinJWTSecretLength = 16

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration
	CORSOrigin      string
	CookieSecure    bool

	// Database
	DBDriver    string
	DBPath      string
	DatabaseURL string

	// Sessions
	JWTSecret string
	TokenTTL  time.Duration

	// Analytics
	AnalyticsWindowMonths int

	// AMQP; publishing is disabled when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads a .env file if one exists, then builds a Config from the
// environment. Variables already set in the environment win over .env.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		Port:            getEnv("PORT", "5000"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		CORSOrigin:      getEnv("CORS_ORIGIN", "http://localhost:5173"),
		CookieSecure:    getEnvBool("COOKIE_SECURE", false),

		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		DBPath:      getEnv("DB_PATH", "./data/fintrack.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  getEnvDuration("TOKEN_TTL", time.Hour),

		AnalyticsWindowMonths: getEnvInt("ANALYTICS_WINDOW_MONTHS", 1),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			errors = append(errors, "DB_PATH cannot be empty when using the sqlite driver")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using the postgres driver")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of [sqlite postgres]", c.DBDriver))
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < MinJWTSecretLength {
		errors = append(errors, fmt.Sprintf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength))
	}

	if c.TokenTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be positive", c.TokenTTL))
	}

	if c.AnalyticsWindowMonths < 1 {
		errors = append(errors, fmt.Sprintf("invalid analytics window %d: must be at least 1 month", c.AnalyticsWindowMonths))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
