// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// NATS settings; an empty URL disables the event stream
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret string

	// LLM settings
	AnthropicAPIKey      string
	OpenAIAPIKey         string
	DefaultLLM           string
	LLMModel             string
	ExtractionTimeout    time.Duration
	ClarificationTimeout time.Duration

	// Catalog settings
	CatalogFile    string
	CatalogURL     string
	CatalogTimeout time.Duration

	// Order rules
	FuzzyHighThreshold    int
	FuzzyLowThreshold     int
	TaxRateBasisPoints    int64
	DeliveryFee           int64
	FreeDeliveryThreshold int64
	MaxItemQuantity       int

	// Sessions
	SessionIdleTTL       time.Duration
	SessionSweepInterval time.Duration

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// LLM
		AnthropicAPIKey:      getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		DefaultLLM:           getEnv("DEFAULT_LLM", "anthropic"),
		LLMModel:             getEnv("LLM_MODEL", ""),
		ExtractionTimeout:    getDurationEnv("EXTRACTION_TIMEOUT", 10*time.Second),
		ClarificationTimeout: getDurationEnv("CLARIFICATION_TIMEOUT", 10*time.Second),

		// Catalog
		CatalogFile:    getEnv("CATALOG_FILE", ""),
		CatalogURL:     getEnv("CATALOG_URL", ""),
		CatalogTimeout: getDurationEnv("CATALOG_TIMEOUT", 15*time.Second),

		// Order rules
		FuzzyHighThreshold:    getIntEnv("FUZZY_HIGH_THRESHOLD", 96),
		FuzzyLowThreshold:     getIntEnv("FUZZY_LOW_THRESHOLD", 80),
		TaxRateBasisPoints:    getInt64Env("TAX_RATE_BASIS_POINTS", 500),
		DeliveryFee:           getInt64Env("DELIVERY_FEE", 40),
		FreeDeliveryThreshold: getInt64Env("FREE_DELIVERY_THRESHOLD", 1000),
		MaxItemQuantity:       getIntEnv("MAX_ITEM_QUANTITY", 100),

		// Sessions
		SessionIdleTTL:       getDurationEnv("SESSION_IDLE_TTL", 2*time.Hour),
		SessionSweepInterval: getDurationEnv("SESSION_SWEEP_INTERVAL", 5*time.Minute),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
