package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Teton-ai/smith-sub002/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const configLoadTimeout = 10 * time.Second

// Config is the remote service configuration the dashboard boots from.
// A value is created by exactly one successful load and never mutated after.
type Config struct {
	OriginURL      string
	IdentityDomain string
	ClientID       string
	RedirectURI    string
	Audience       string
	ExcludedLabels string
}

// ConfigResult is delivered to Watch subscribers once the pending load settles.
type ConfigResult struct {
	Config *Config
	Err    error
}

// ConfigLoader fetches and caches the remote configuration exactly once.
// Concurrent first-time callers coalesce onto a single in-flight request;
// a failed load is never cached, so the next call starts fresh.
// Safe for concurrent use.
type ConfigLoader struct {
	configURL  string
	httpClient *http.Client
	group      singleflight.Group
	cached     atomic.Pointer[Config]
}

// NewConfigLoader creates a loader that fetches configuration from configURL
// (typically "<gateway>/api/config").
func NewConfigLoader(configURL string) *ConfigLoader {
	return &ConfigLoader{
		configURL:  configURL,
		httpClient: &http.Client{Timeout: configLoadTimeout},
	}
}

// Get returns the cached configuration, or loads it if no value is cached yet.
// All callers that arrive while a load is in flight wait for that same load and
// observe the same result. Failure is delivered only to the waiters of the
// failed attempt; the cache is never poisoned.
func (l *ConfigLoader) Get(ctx context.Context) (*Config, error) {
	if cfg := l.cached.Load(); cfg != nil {
		return cfg, nil
	}

	v, err, shared := l.group.Do("config", func() (any, error) {
		// A load that settled between the cache check and Do wins here.
		if cfg := l.cached.Load(); cfg != nil {
			return cfg, nil
		}

		// The load is shared by every coalesced waiter, so one caller
		// abandoning it must not cancel it for the rest. The HTTP client's
		// own timeout bounds the request instead.
		cfg, err := l.fetch(context.WithoutCancel(ctx))
		if err != nil {
			metrics.ConfigLoadsTotal.WithLabelValues("error").Inc()
			return nil, err
		}

		metrics.ConfigLoadsTotal.WithLabelValues("success").Inc()
		l.cached.Store(cfg)
		return cfg, nil
	})
	if shared {
		metrics.ConfigLoadWaiters.Inc()
	}
	if err != nil {
		return nil, err
	}
	return v.(*Config), nil
}

// Cached returns the resolved configuration without triggering I/O,
// or (nil, false) if no load has succeeded yet.
func (l *ConfigLoader) Cached() (*Config, bool) {
	cfg := l.cached.Load()
	return cfg, cfg != nil
}

// Watch returns a channel that delivers exactly one ConfigResult and is then
// closed. If a value is already cached it is delivered immediately with no
// further I/O; otherwise the subscriber observes the resolution of the
// in-flight (or newly started) load.
func (l *ConfigLoader) Watch(ctx context.Context) <-chan ConfigResult {
	ch := make(chan ConfigResult, 1)

	if cfg := l.cached.Load(); cfg != nil {
		ch <- ConfigResult{Config: cfg}
		close(ch)
		return ch
	}

	go func() {
		defer close(ch)
		cfg, err := l.Get(ctx)
		ch <- ConfigResult{Config: cfg, Err: err}
	}()

	return ch
}

// configEnvelope is the wire shape of the configuration endpoint.
type configEnvelope struct {
	Env struct {
		APIBaseURL       string `json:"API_BASE_URL"`
		Auth0Domain      string `json:"AUTH0_DOMAIN"`
		Auth0ClientID    string `json:"AUTH0_CLIENT_ID"`
		Auth0RedirectURI string `json:"AUTH0_REDIRECT_URI"`
		Auth0Audience    string `json:"AUTH0_AUDIENCE"`
		ExcludedLabels   string `json:"DASHBOARD_EXCLUDED_LABELS"`
	} `json:"env"`
}

func (l *ConfigLoader) fetch(ctx context.Context) (*Config, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.configURL, nil)
	if err != nil {
		return nil, ConfigError("failed to build config request", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, ConfigError("config request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ConfigError(fmt.Sprintf("config endpoint returned status %d", resp.StatusCode), nil)
	}

	var envelope configEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, ConfigError("failed to decode config response", err)
	}

	cfg := &Config{
		OriginURL:      envelope.Env.APIBaseURL,
		IdentityDomain: envelope.Env.Auth0Domain,
		ClientID:       envelope.Env.Auth0ClientID,
		RedirectURI:    envelope.Env.Auth0RedirectURI,
		Audience:       envelope.Env.Auth0Audience,
		ExcludedLabels: envelope.Env.ExcludedLabels,
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateConfig rejects responses missing required fields at the boundary
// instead of letting a malformed configuration propagate.
func validateConfig(cfg *Config) error {
	required := map[string]string{
		"API_BASE_URL":       cfg.OriginURL,
		"AUTH0_DOMAIN":       cfg.IdentityDomain,
		"AUTH0_CLIENT_ID":    cfg.ClientID,
		"AUTH0_REDIRECT_URI": cfg.RedirectURI,
		"AUTH0_AUDIENCE":     cfg.Audience,
	}
	for name, value := range required {
		if value == "" {
			return ConfigError(fmt.Sprintf("config response is missing %s", name), nil)
		}
	}
	return nil
}
