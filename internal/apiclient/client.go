package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Teton-ai/smith-sub002/internal/metrics"
)

// FallbackOrigin is used to resolve relative paths when the remote
// configuration is unavailable. Requests stay well-defined before the first
// successful configuration load.
const FallbackOrigin = "http://localhost:8080"

const requestTimeout = 30 * time.Second

// TokenSource is the identity-provider collaborator surface. Token may block
// on I/O and may fail; it is consulted once per outbound request so every
// request carries a freshly obtained credential.
type TokenSource interface {
	IsAuthenticated() bool
	Token(ctx context.Context) (string, error)
}

// ConfigSource resolves the remote configuration. *ConfigLoader satisfies it.
type ConfigSource interface {
	Get(ctx context.Context) (*Config, error)
}

// Request describes a single outbound call. Path may be origin-relative or a
// full URL; a full URL is used verbatim. Body, when non-nil, is JSON-encoded.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

// Client issues token-authenticated requests against the fleet API. It
// resolves relative paths against the configured origin, attaches a fresh
// bearer token per call and classifies every failure as an *Error.
// Safe for concurrent use.
type Client struct {
	tokens     TokenSource
	configs    ConfigSource
	httpClient *http.Client
}

// NewClient creates a client backed by the given token and config sources.
func NewClient(tokens TokenSource, configs ConfigSource) *Client {
	return &Client{
		tokens:     tokens,
		configs:    configs,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Send performs one authenticated request and returns the raw JSON body of a
// success response (nil for an empty body). Every failure is an *Error whose
// Kind follows the taxonomy in errors.go.
func (c *Client) Send(ctx context.Context, r Request) (json.RawMessage, error) {
	if !c.tokens.IsAuthenticated() {
		return nil, AuthRequiredError()
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(r.Method, string(KindTokenAcquisition)).Inc()
		return nil, TokenError(err)
	}

	target := c.resolveTarget(ctx, r.Path)

	req, err := c.buildRequest(ctx, r, target, token)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APIRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(r.Method, string(KindNetwork)).Inc()
		slog.WarnContext(ctx, "Fleet API request failed", "method", r.Method, "target", target, "error", err)
		return nil, NetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(r.Method, string(KindNetwork)).Inc()
		return nil, &Error{Kind: KindNetwork, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.APIRequestsTotal.WithLabelValues(r.Method, string(KindAPI)).Inc()
		return nil, APIError(resp.StatusCode, extractMessage(body, resp.StatusCode))
	}

	metrics.APIRequestsTotal.WithLabelValues(r.Method, "success").Inc()
	if len(body) == 0 {
		return nil, nil
	}
	return json.RawMessage(body), nil
}

// SendJSON performs Send and decodes the response body into out when out is
// non-nil and the body is non-empty.
func (c *Client) SendJSON(ctx context.Context, r Request, out any) error {
	payload, err := c.Send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &Error{Kind: KindNetwork, Message: "failed to decode response body", Cause: err}
	}
	return nil
}

// resolveTarget builds the request URL. Absolute URLs pass through unchanged;
// relative paths are prefixed with the configured origin, or FallbackOrigin
// when no configuration is available. The path is concatenated as supplied,
// with no separator added or removed.
func (c *Client) resolveTarget(ctx context.Context, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	origin := FallbackOrigin
	if cfg, err := c.configs.Get(ctx); err == nil {
		origin = cfg.OriginURL
	} else {
		slog.WarnContext(ctx, "Configuration unavailable, using fallback origin", "error", err)
	}
	return origin + path
}

func (c *Client) buildRequest(ctx context.Context, r Request, target, token string) (*http.Request, error) {
	var reader io.Reader
	if r.Body != nil {
		encoded, err := json.Marshal(r.Body)
		if err != nil {
			return nil, &Error{Kind: KindNetwork, Message: "failed to encode request body", Cause: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, reader)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "failed to build request", Cause: err}
	}

	for name, values := range r.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if r.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	// Always the freshly acquired token, regardless of caller headers.
	req.Header.Set("Authorization", "Bearer "+token)

	return req, nil
}

// extractMessage pulls the service's own message out of an error body when one
// is present, falling back to a status-derived string.
func extractMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fmt.Sprintf("request failed with status %d", status)
}
