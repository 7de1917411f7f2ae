package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, read from the environment with a
// .env file as an optional source. A missing .env is not an error.
type Config struct {
	Port string

	// Persistence
	StoreBackend string // "sqlite" (default) or "json"
	DatabaseDSN  string // sqlite path or postgres:// URL
	StoreFile    string // flat-file document path

	// Notification
	InvoiceEmail string // billing recipient
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string

	// HTTP limits
	AllowedOrigins  string
	BodyLimitBytes  int
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads the configuration. Defaults match the reference deployment.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		StoreBackend: getEnv("STORE_BACKEND", "sqlite"),
		DatabaseDSN:  getEnv("DATABASE_DSN", ""),
		StoreFile:    getEnv("STORE_FILE", ""),

		InvoiceEmail: getEnv("INVOICE_EMAIL", "billing@example.com"),
		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     envInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPass:     getEnv("SMTP_PASS", ""),

		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "*"),
		RateLimitMax:    envInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow: time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	// PDFs ride base64-encoded in the request body, so the limit is worth a
	// dedicated knob. BODY_LIMIT_BYTES wins over BODY_LIMIT_MB.
	cfg.BodyLimitBytes = envInt("BODY_LIMIT_BYTES", 0)
	if cfg.BodyLimitBytes <= 0 {
		cfg.BodyLimitBytes = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	return cfg
}

// SMTPConfigured reports whether outbound mail can be dialed; without
// credentials the service falls back to log-only notifications.
func (c Config) SMTPConfigured() bool {
	return c.SMTPUser != "" && c.SMTPPass != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
