package config

import (
	"os"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Gateway  GatewayConfig
	Engine   EngineConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// GatewayConfig for the external payment gateway (order creation + webhook callback).
type GatewayConfig struct {
	BaseURL        string
	KeyID          string
	KeySecret      string
	WebhookBaseURL string // e.g. https://yourdomain.com - callback will be WebhookBaseURL + /api/v1/webhooks/payment
}

// EngineConfig tunes the payment transaction engine.
type EngineConfig struct {
	// LockWait bounds how long an operation waits for a wallet lock before
	// giving up with a concurrency conflict.
	LockWait time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         envOr("PORT", "8088"),
			Env:          envOr("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             envOr("DATABASE_DSN", "worklink:worklink@tcp(localhost:3306)/worklink?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  envOr("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: envOr("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "worklink",
		},
		Gateway: GatewayConfig{
			BaseURL:        envOr("GATEWAY_BASE_URL", "https://api.razorpay.com"),
			KeyID:          os.Getenv("GATEWAY_KEY_ID"),
			KeySecret:      os.Getenv("GATEWAY_KEY_SECRET"),
			WebhookBaseURL: envOr("GATEWAY_WEBHOOK_BASE_URL", "https://api.worklink.app"),
		},
		Engine: EngineConfig{
			LockWait: 5 * time.Second,
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
