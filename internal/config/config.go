package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTSecret is used when JWT_SECRET is unset. Validate refuses it
// unless LOG_LEVEL is debug.
const DefaultJWTSecret = "leads-default-dev-secret-change-me"

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Storage
	DatabaseURL      string // postgres DSN; empty selects SQLite
	SQLitePath       string
	DBMaxOpenConns   int
	DBConnectRetries int
	DBInitialBackoff time.Duration
	StoreTimeout     time.Duration

	// CORS
	CORSAllowedOrigins []string
	CORSOriginPattern  string

	// Proxies whose X-Forwarded-For / X-Real-IP headers are believed (IPs or CIDRs)
	TrustedProxies []string

	// JWT / admin auth
	JWTSecret         string
	JWTAccessTTL      time.Duration
	AdminUsername     string
	AdminPasswordHash string

	// Lead intake
	LeadRateLimit  int
	LeadRateWindow time.Duration
	IdempotencyTTL time.Duration
	NotifyTimeout  time.Duration

	// Optional adapters
	RedisURL string
	AMQPURL  string

	// Ops mail
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	LeadNotifyFrom string
	LeadNotifyTo   []string

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 3001),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SQLitePath:       getEnv("SQLITE_PATH", "leads.db"),
		DBMaxOpenConns:   getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBConnectRetries: getEnvInt("DB_CONNECT_RETRIES", 5),
		DBInitialBackoff: getEnvDuration("DB_INITIAL_BACKOFF", 500*time.Millisecond),
		StoreTimeout:     getEnvDuration("STORE_TIMEOUT", 5*time.Second),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5000", "http://127.0.0.1:5000"}),
		CORSOriginPattern:  getEnv("CORS_ORIGIN_PATTERN", `\.repl\.co$`),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES", nil),

		JWTSecret:         getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTAccessTTL:      getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		LeadRateLimit:  getEnvInt("LEAD_RATE_LIMIT", 10),
		LeadRateWindow: getEnvDuration("LEAD_RATE_WINDOW", time.Minute),
		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		NotifyTimeout:  getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),

		RedisURL: getEnv("REDIS_URL", ""),
		AMQPURL:  getEnv("AMQP_URL", ""),

		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPass:       getEnv("SMTP_PASS", ""),
		LeadNotifyFrom: getEnv("LEAD_NOTIFY_FROM", "leads@hoclconnect.com"),
		LeadNotifyTo:   getEnvList("LEAD_NOTIFY_TO", nil),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// Validate checks values that would make the server misbehave at runtime.
// It returns warnings for settings that are legal but unsafe.
func (c *Config) Validate() (warnings []string, err error) {
	if c.Port <= 0 || c.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.CORSOriginPattern != "" {
		if _, err := regexp.Compile(c.CORSOriginPattern); err != nil {
			return nil, fmt.Errorf("invalid CORS_ORIGIN_PATTERN: %w", err)
		}
	}
	if c.LeadRateLimit <= 0 || c.LeadRateWindow <= 0 {
		return nil, fmt.Errorf("LEAD_RATE_LIMIT and LEAD_RATE_WINDOW must be positive")
	}
	if c.JWTSecret == DefaultJWTSecret {
		if c.LogLevel != "debug" {
			return nil, fmt.Errorf("JWT_SECRET is unset: the built-in default is only allowed with LOG_LEVEL=debug")
		}
		warnings = append(warnings, "JWT_SECRET is the built-in default; admin tokens can be forged")
	}
	for _, p := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(p); err != nil && net.ParseIP(p) == nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q", p)
		}
	}
	if c.AdminPasswordHash == "" {
		warnings = append(warnings, "ADMIN_PASSWORD_HASH is empty; POST /api/auth/token will reject every login")
	}
	return warnings, nil
}

// UsePostgres reports whether DATABASE_URL selects the postgres dialect.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// MailEnabled reports whether enough SMTP settings exist to send ops mail.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && len(c.LeadNotifyTo) > 0
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
