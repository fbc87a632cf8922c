package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Teton-ai/smith-sub002/internal/metrics"
	"github.com/jonboulle/clockwork"
)

const (
	tokenRequestTimeout = 10 * time.Second

	// expiryLeeway refreshes tokens slightly before they expire so a token
	// handed out is still valid when the request it authorizes lands.
	expiryLeeway = 60 * time.Second
)

// ClientCredentials obtains short-lived bearer tokens from an Auth0-style
// /oauth/token endpoint using the client-credentials grant. A token is cached
// until shortly before expiry; a fresh request for every API call would hit
// the provider's rate limits immediately. Safe for concurrent use.
type ClientCredentials struct {
	tokenURL     string
	clientID     string
	clientSecret string
	audience     string
	httpClient   *http.Client
	clock        clockwork.Clock

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewClientCredentials creates a token source for the given provider domain,
// e.g. "example.eu.auth0.com".
func NewClientCredentials(domain, clientID, clientSecret, audience string) *ClientCredentials {
	return &ClientCredentials{
		tokenURL:     fmt.Sprintf("https://%s/oauth/token", domain),
		clientID:     clientID,
		clientSecret: clientSecret,
		audience:     audience,
		httpClient:   &http.Client{Timeout: tokenRequestTimeout},
		clock:        clockwork.NewRealClock(),
	}
}

// IsAuthenticated reports whether machine credentials are configured.
func (p *ClientCredentials) IsAuthenticated() bool {
	return p.clientID != "" && p.clientSecret != ""
}

// Token returns a valid access token, requesting a new one from the provider
// when the cached token is absent or about to expire.
func (p *ClientCredentials) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.clock.Now().Add(expiryLeeway).Before(p.expires) {
		return p.token, nil
	}

	token, expiresIn, err := p.requestToken(ctx)
	if err != nil {
		metrics.TokenRequestsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.TokenRequestsTotal.WithLabelValues("success").Inc()
	p.token = token
	p.expires = p.clock.Now().Add(time.Duration(expiresIn) * time.Second)
	return token, nil
}

func (p *ClientCredentials) requestToken(ctx context.Context) (token string, expiresIn int, err error) {
	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", p.clientID)
	data.Set("client_secret", p.clientSecret)
	data.Set("audience", p.audience)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", 0, &TokenRequestError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", 0, &TokenRequestError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, &TokenRequestError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		rejected := resp.StatusCode == http.StatusBadRequest ||
			resp.StatusCode == http.StatusUnauthorized ||
			resp.StatusCode == http.StatusForbidden
		return "", 0, &TokenRequestError{
			Rejected: rejected,
			Err:      fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", 0, &TokenRequestError{Err: err}
	}
	if result.AccessToken == "" {
		return "", 0, &TokenRequestError{Err: fmt.Errorf("token endpoint returned no access_token")}
	}

	return result.AccessToken, result.ExpiresIn, nil
}
