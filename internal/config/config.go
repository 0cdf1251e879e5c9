package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout  int    `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds, per fetch
	RequestsPerSec  int    `env:"REQUESTS_PER_SEC" envDefault:"5"`
	MaxRetryTimeout int    `env:"MAX_RETRY_TIMEOUT" envDefault:"10"` // seconds
	HTTPAddr        string `env:"HTTP_ADDR" envDefault:":8080"`

	PrimarySource   string `env:"PRIMARY_SOURCE" envDefault:"yahoo"`
	SecondarySource string `env:"SECONDARY_SOURCE" envDefault:"tiingo"`

	YahooBaseURL    string `env:"YAHOO_BASE_URL"`
	TiingoAPIKey    string `env:"TIINGO_API_KEY"`
	TiingoBaseURL   string `env:"TIINGO_BASE_URL"`
	TwelveAPIKey    string `env:"TWELVE_API_KEY"`
	TwelveBaseURL   string `env:"TWELVE_BASE_URL"`
	AlpacaAPIKey    string `env:"ALPACA_API_KEY"`
	AlpacaSecretKey string `env:"ALPACA_SECRET_KEY"`
	AlpacaBaseURL   string `env:"ALPACA_DATA_URL"`

	DefaultThreshold float64 `env:"DEFAULT_THRESHOLD" envDefault:"20"`
	DefaultCapital   float64 `env:"DEFAULT_CAPITAL" envDefault:"10000"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	return FromEnv(), nil
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	var cfg Config

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.MaxRetryTimeout = getEnvIntWithDefault("MAX_RETRY_TIMEOUT", 10)
	cfg.HTTPAddr = getEnvWithDefault("HTTP_ADDR", ":8080")

	cfg.PrimarySource = getEnvWithDefault("PRIMARY_SOURCE", "yahoo")
	cfg.SecondarySource = getEnvWithDefault("SECONDARY_SOURCE", "tiingo")

	cfg.YahooBaseURL = os.Getenv("YAHOO_BASE_URL")
	cfg.TiingoAPIKey = os.Getenv("TIINGO_API_KEY")
	cfg.TiingoBaseURL = os.Getenv("TIINGO_BASE_URL")
	cfg.TwelveAPIKey = os.Getenv("TWELVE_API_KEY")
	cfg.TwelveBaseURL = os.Getenv("TWELVE_BASE_URL")
	cfg.AlpacaAPIKey = os.Getenv("ALPACA_API_KEY")
	cfg.AlpacaSecretKey = os.Getenv("ALPACA_SECRET_KEY")
	cfg.AlpacaBaseURL = os.Getenv("ALPACA_DATA_URL")

	cfg.DefaultThreshold = getEnvFloatWithDefault("DEFAULT_THRESHOLD", 20)
	cfg.DefaultCapital = getEnvFloatWithDefault("DEFAULT_CAPITAL", 10000)

	return &cfg
}

// FetchTimeout is the bound applied to every remote price fetch.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// RetryWindow caps how long a single fetch keeps retrying.
func (c *Config) RetryWindow() time.Duration {
	return time.Duration(c.MaxRetryTimeout) * time.Second
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
