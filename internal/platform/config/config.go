// Package config provides environment-based configuration for the gateway.
//
// Loads from .env file (godotenv), maps to Config struct via go-simpler/env
// struct tags and validates required fields.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv string `env:"APP_ENV" default:"development"`
	Port   string `env:"PORT" default:"8080"`

	// Fleet API the dashboard talks to.
	APIBaseURL string `env:"API_BASE_URL"`

	// Identity provider parameters handed to the dashboard via /api/config.
	Auth0Domain      string `env:"AUTH0_DOMAIN"`
	Auth0ClientID    string `env:"AUTH0_CLIENT_ID"`
	Auth0RedirectURI string `env:"AUTH0_REDIRECT_URI"`
	Auth0Audience    string `env:"AUTH0_AUDIENCE"`

	// Comma-separated device labels hidden from the dashboard.
	ExcludedLabels string `env:"DASHBOARD_EXCLUDED_LABELS" default:""`

	// Machine credentials for server-side calls against the fleet API.
	Auth0ClientSecret string `env:"AUTH0_CLIENT_SECRET"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// Rate limiting of the gateway HTTP surface.
	RateLimit      float64       `env:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" default:"40"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" default:"10s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"API_BASE_URL":        cfg.APIBaseURL,
		"AUTH0_DOMAIN":        cfg.Auth0Domain,
		"AUTH0_CLIENT_ID":     cfg.Auth0ClientID,
		"AUTH0_REDIRECT_URI":  cfg.Auth0RedirectURI,
		"AUTH0_AUDIENCE":      cfg.Auth0Audience,
		"AUTH0_CLIENT_SECRET": cfg.Auth0ClientSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
		return fmt.Errorf("API_BASE_URL must be a valid URL: %w", err)
	}

	if cfg.RateLimit <= 0 || cfg.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}
