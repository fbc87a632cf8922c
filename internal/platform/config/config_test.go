package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("AUTH0_DOMAIN", "example.eu.auth0.com")
	t.Setenv("AUTH0_CLIENT_ID", "test-client-id")
	t.Setenv("AUTH0_REDIRECT_URI", "http://localhost:8080/callback")
	t.Setenv("AUTH0_AUDIENCE", "https://api.example.com")
	t.Setenv("AUTH0_CLIENT_SECRET", "test-client-secret")
}

func TestLoad_AllRequiredVarsSet(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, "example.eu.auth0.com", cfg.Auth0Domain)
	assert.Equal(t, "test-client-id", cfg.Auth0ClientID)
	assert.Equal(t, "http://localhost:8080/callback", cfg.Auth0RedirectURI)
	assert.Equal(t, "https://api.example.com", cfg.Auth0Audience)
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		skipEnv string
		wantErr string
	}{
		{"missing API_BASE_URL", "API_BASE_URL", "API_BASE_URL is required"},
		{"missing AUTH0_DOMAIN", "AUTH0_DOMAIN", "AUTH0_DOMAIN is required"},
		{"missing AUTH0_CLIENT_ID", "AUTH0_CLIENT_ID", "AUTH0_CLIENT_ID is required"},
		{"missing AUTH0_REDIRECT_URI", "AUTH0_REDIRECT_URI", "AUTH0_REDIRECT_URI is required"},
		{"missing AUTH0_AUDIENCE", "AUTH0_AUDIENCE", "AUTH0_AUDIENCE is required"},
		{"missing AUTH0_CLIENT_SECRET", "AUTH0_CLIENT_SECRET", "AUTH0_CLIENT_SECRET is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.skipEnv, "")

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 20.0, cfg.RateLimit)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Empty(t, cfg.ExcludedLabels)
}

func TestLoad_InvalidBaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_BASE_URL", "not a url")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_BASE_URL must be a valid URL")
}

func TestLoad_InvalidRateLimit(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RATE_LIMIT_RPS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}
