package config

import (
	"os"
	"strconv"
	"strings"
)

// Config captures process-level configuration read once at startup.
type Config struct {
	Addr          string
	Environment   string // DEV | PROD; DEV echoes issued OTP codes in responses
	PostgresURL   string // empty means in-memory stores
	RedisURL      string // empty means the OTP store follows PostgresURL/memory
	KafkaBrokers  []string
	JWTSigningKey string
	OTPProvider   string // MOCK | SMTP
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SMTPFrom      string
	AdminEmail    string // seeded at startup when no account exists yet
	AdminPassword string
}

// IsDev reports whether the process runs in DEV mode. Only DEV responses may
// echo generated OTP codes.
func (c Config) IsDev() bool { return c.Environment == "DEV" }

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("VERICRED_ADDR", ":8080"),
		Environment:   envOr("ENVIRONMENT", "PROD"),
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		OTPProvider:   envOr("OTP_PROVIDER", "MOCK"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      587,
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:      os.Getenv("SMTP_FROM"),
		AdminEmail:    envOr("ADMIN_EMAIL", "admin@vericred.gov"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
	if port, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && port > 0 {
		cfg.SMTPPort = port
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if cfg.JWTSigningKey == "" {
		// Development default; must be overridden in production.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
