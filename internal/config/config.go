package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	HTTPPort        string
	PublicBaseURL   string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// Backend
	BackendBaseURL     string
	BackendTimeout     time.Duration
	BreakerEnabled     bool
	BreakerFailures    int
	BreakerOpenTimeout time.Duration

	// Gateway
	GatewayKey             string
	GatewayName            string
	GatewayCurrency        string
	GatewayScriptURL       string
	GatewayCallbackTimeout time.Duration

	// Session and cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CartCacheTTL  time.Duration

	// Journal and reconciliation
	JournalPath     string
	KafkaBrokers    []string
	KafkaTopic      string
	OutboxBatchSize int
	OutboxInterval  time.Duration

	// Logging
	LogLevel string
	LogJSON  bool
}

// Load reads an optional .env file, then the environment.
func Load() *Config {
	_ = godotenv.Load()
	return New()
}

func New() *Config {
	c := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8090"),
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		BackendBaseURL:     strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:8080"), "/"),
		BackendTimeout:     getEnvAsDuration("BACKEND_TIMEOUT", 0),
		BreakerEnabled:     getEnvAsBool("BREAKER_ENABLED", false),
		BreakerFailures:    getEnvAsInt("BREAKER_FAILURES", 5),
		BreakerOpenTimeout: getEnvAsDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),

		GatewayKey:             getEnv("GATEWAY_KEY", ""),
		GatewayName:            getEnv("GATEWAY_MERCHANT_NAME", "Bazzario"),
		GatewayCurrency:        getEnv("GATEWAY_CURRENCY", "INR"),
		GatewayScriptURL:       getEnv("GATEWAY_SCRIPT_URL", "https://checkout.razorpay.com/v1/checkout.js"),
		GatewayCallbackTimeout: getEnvAsDuration("GATEWAY_CALLBACK_TIMEOUT", 15*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		CartCacheTTL:  getEnvAsDuration("CART_CACHE_TTL", 5*time.Minute),

		JournalPath:     getEnv("JOURNAL_PATH", "./storefront-journal.db"),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "payment-reconciliation"),
		OutboxBatchSize: getEnvAsInt("OUTBOX_BATCH_SIZE", 100),
		OutboxInterval:  getEnvAsDuration("OUTBOX_INTERVAL", 5*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvAsBool("LOG_JSON", false),
	}

	c.PublicBaseURL = strings.TrimRight(getEnv("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%s", c.HTTPPort)), "/")
	return c
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return valueStr == "true" || valueStr == "1"
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
