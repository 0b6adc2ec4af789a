package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV"       envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT"      envDefault:"8080"  validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"  validate:"oneof=debug info warn error"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	BackendURL   string `env:"BACKEND_URL"    envDefault:"http://localhost:8000"          validate:"required,url"`
	MethodAPIURL string `env:"METHOD_API_URL" envDefault:"https://production.methodfi.com" validate:"required,url"`
	MethodAPIKey string `env:"METHOD_API_KEY" validate:"required_if=Env production,required_if=Env staging"`

	SessionSecret      string        `env:"SESSION_SECRET,required" validate:"required,min=32"`
	SessionMaxAge      time.Duration `env:"SESSION_MAX_AGE"      envDefault:"720h" validate:"min=1m"`
	SessionRotateAfter time.Duration `env:"SESSION_ROTATE_AFTER" envDefault:"24h"`
	CookieSecure       bool          `env:"COOKIE_SECURE"        envDefault:"false"`
	ProvisionTimeout   time.Duration `env:"PROVISION_TIMEOUT"    envDefault:"10s" validate:"min=1s,max=1m"`

	DatabaseURL string `env:"DATABASE_URL" validate:"required_if=Env production,required_if=Env staging"`
	RedisURL    string `env:"REDIS_URL"    validate:"required_if=Env production,required_if=Env staging"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET" validate:"required_with=GoogleClientID"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"  validate:"required_with=GoogleClientID"`

	AuthRatePerMin int `env:"AUTH_RATE_PER_MIN" envDefault:"20" validate:"min=1,max=1000"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GoogleEnabled reports whether external sign-in through Google is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}
