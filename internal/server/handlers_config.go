package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// configPayload is the bootstrap document the dashboard loads before anything
// else. Field names mirror the environment variables they originate from.
type configPayload struct {
	Env configEnv `json:"env"`
}

type configEnv struct {
	APIBaseURL       string `json:"API_BASE_URL"`
	Auth0Domain      string `json:"AUTH0_DOMAIN"`
	Auth0ClientID    string `json:"AUTH0_CLIENT_ID"`
	Auth0RedirectURI string `json:"AUTH0_REDIRECT_URI"`
	Auth0Audience    string `json:"AUTH0_AUDIENCE"`
	ExcludedLabels   string `json:"DASHBOARD_EXCLUDED_LABELS,omitempty"`
}

func (s *Server) handleConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, configPayload{
		Env: configEnv{
			APIBaseURL:       s.config.APIBaseURL,
			Auth0Domain:      s.config.Auth0Domain,
			Auth0ClientID:    s.config.Auth0ClientID,
			Auth0RedirectURI: s.config.Auth0RedirectURI,
			Auth0Audience:    s.config.Auth0Audience,
			ExcludedLabels:   s.config.ExcludedLabels,
		},
	})
}
