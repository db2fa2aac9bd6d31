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

// Storage drivers.
const (
	DriverJSON     = "json"
	DriverPostgres = "postgres"
)

type Config struct {
	ServerPort string
	ServiceID  string

	DataDir       string
	StorageDriver string
	DatabaseURL   string
	CatalogSeed   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OrderRateLimit int
	APIRateLimit   int

	BotToken    string
	AdminChatID int64

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	EmailFrom string

	KafkaBrokers []string
	KafkaTopic   string

	ConsulAddr string

	AdminUsername     string
	AdminPasswordHash string
	JWTSecret         string

	NotifyTimeout   time.Duration
	MaxLineQuantity int

	TracesExporter     string
	CORSAllowedOrigins []string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg := &Config{
		ServerPort:         getEnv("APP_PORT", "8080"),
		ServiceID:          getEnv("SERVICE_ID", "cardshop-api"),
		DataDir:            getEnv("DATA_DIR", "data"),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", DriverJSON)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		CatalogSeed:        os.Getenv("CATALOG_SEED"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		OrderRateLimit:     getEnvInt("ORDER_RATE_LIMIT", 10),
		APIRateLimit:       getEnvInt("API_RATE_LIMIT", 100),
		BotToken:           os.Getenv("BOT_TOKEN"),
		AdminChatID:        int64(getEnvInt("ADMIN_CHAT_ID", 0)),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           getEnvInt("SMTP_PORT", 465),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPass:           os.Getenv("SMTP_PASS"),
		EmailFrom:          getEnv("EMAIL_FROM", "noreply@psshop.com"),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "order-events"),
		ConsulAddr:         os.Getenv("CONSUL_ADDR"),
		AdminUsername:      getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash:  os.Getenv("ADMIN_PASSWORD_HASH"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		NotifyTimeout:      getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		MaxLineQuantity:    getEnvInt("MAX_LINE_QUANTITY", 50),
		TracesExporter:     strings.ToLower(getEnv("OTEL_TRACES_EXPORTER", "none")),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("APP_PORT is required")
	}
	switch c.StorageDriver {
	case DriverJSON:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the json storage driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want json or postgres)", c.StorageDriver)
	}
	if c.OrderRateLimit <= 0 || c.APIRateLimit <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be a positive duration")
	}
	if c.MaxLineQuantity <= 0 {
		return fmt.Errorf("MAX_LINE_QUANTITY must be positive")
	}
	if c.AdminPasswordHash != "" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}
	return nil
}

// AdminEnabled reports whether the operator API can issue tokens.
func (c *Config) AdminEnabled() bool {
	return c.AdminPasswordHash != "" && c.JWTSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Warning: %s=%q is not an integer, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: %s=%q is not a duration, using %s", key, value, defaultValue)
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
