package config

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port           string
	Environment    string
	ClientURL      string
	RequestTimeout time.Duration

	// Storage
	StoreDriver       string // "mongo" or "memory"
	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool

	// Redis (optional; enables cross-process locks and event publishing)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EventsChannel string

	// Identity
	FirebaseServiceKey string // base64 encoded service account JSON
	JWTSecret          string
	JWTIssuer          string

	// Payments
	StripeSecretKey string
	Currency        string
	ReceiptSecret   string
}

// DefaultReceiptSecret only suits development; Validate rejects it in production.
const DefaultReceiptSecret = "change-me"

// Load reads .env when present and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found; using system environment")
	}

	return &Config{
		Port:           getEnv("PORT", "3000"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		ClientURL:      strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:5173"), "/"),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", "10s"),

		StoreDriver:       getEnv("STORE_DRIVER", "mongo"),
		MongoURI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGODB_DATABASE", "ticketBariDB"),
		MongoTransactions: getEnvAsBool("MONGO_TRANSACTIONS", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		EventsChannel: getEnv("EVENTS_CHANNEL", "ticketbari-events"),

		FirebaseServiceKey: getEnv("FB_SERVICE_KEY", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", ""),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		Currency:        strings.ToLower(getEnv("CURRENCY", "usd")),
		ReceiptSecret:   getEnv("RECEIPT_SECRET", DefaultReceiptSecret),
	}
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// FirebaseCredentials decodes FB_SERVICE_KEY. It returns nil when unset.
func (c *Config) FirebaseCredentials() ([]byte, error) {
	if c.FirebaseServiceKey == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(c.FirebaseServiceKey)
	if err != nil {
		return nil, fmt.Errorf("decode FB_SERVICE_KEY: %w", err)
	}
	return raw, nil
}

// AllowedOrigins is the CORS allow list: the local dev client plus CLIENT_URL.
func (c *Config) AllowedOrigins() []string {
	origins := []string{"http://localhost:5173"}
	if c.ClientURL != "" && c.ClientURL != origins[0] {
		origins = append(origins, c.ClientURL)
	}
	return origins
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q (supported: mongo, memory)", c.StoreDriver)
	}
	if c.FirebaseServiceKey == "" && c.JWTSecret == "" {
		return fmt.Errorf("either FB_SERVICE_KEY or JWT_SECRET must be set")
	}
	if c.IsProduction() && c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required in production")
	}
	if c.IsProduction() && (c.ReceiptSecret == "" || c.ReceiptSecret == DefaultReceiptSecret) {
		return fmt.Errorf("RECEIPT_SECRET must be set to a private value in production")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
