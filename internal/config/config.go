// Package config reads server settings from .env and the process environment.
package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port              string
	BaseURL           string
	AllowRegistration bool
	CORSOrigins       []string

	DBDriver       string
	DBDSN          string
	DBMaxOpenConns int
	DBMaxIdleConns int

	JWTSecret string
	TokenTTL  time.Duration

	CheckoutTimeout time.Duration

	LogLevel  string
	LogFormat string
	LogFile   string

	KafkaBrokers   []string
	KafkaTopic     string
	OutboxInterval time.Duration

	RedisAddr      string
	TenantCacheTTL time.Duration

	GeminiAPIKey string
}

// Load reads .env (if present) then the environment. Only DB_DSN and
// JWT_SECRET are mandatory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using process environment")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("ALLOW_REGISTRATION", false)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("CHECKOUT_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("KAFKA_TOPIC", "pos.orders")
	v.SetDefault("OUTBOX_INTERVAL", "2s")
	v.SetDefault("TENANT_CACHE_TTL", "10m")
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:              v.GetString("PORT"),
		BaseURL:           v.GetString("BASE_URL"),
		AllowRegistration: v.GetBool("ALLOW_REGISTRATION"),
		CORSOrigins:       splitCSV(v.GetString("CORS_ORIGINS")),
		DBDriver:          strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:             v.GetString("DB_DSN"),
		DBMaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		TokenTTL:          v.GetDuration("TOKEN_TTL"),
		CheckoutTimeout:   v.GetDuration("CHECKOUT_TIMEOUT"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		LogFile:           v.GetString("LOG_FILE"),
		KafkaBrokers:      splitCSV(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:        v.GetString("KAFKA_TOPIC"),
		OutboxInterval:    v.GetDuration("OUTBOX_INTERVAL"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		TenantCacheTTL:    v.GetDuration("TENANT_CACHE_TTL"),
		GeminiAPIKey:      v.GetString("GEMINI_API_KEY"),
	}

	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN not set. Please configure your database")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET not set")
	}
	switch cfg.DBDriver {
	case "mysql", "postgres":
	default:
		return nil, errors.New("DB_DRIVER must be mysql or postgres")
	}
	if cfg.CheckoutTimeout <= 0 {
		return nil, errors.New("CHECKOUT_TIMEOUT must be positive")
	}
	return cfg, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
