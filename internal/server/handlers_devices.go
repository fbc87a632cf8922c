package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type updateLabelsRequest struct {
	Labels []string `json:"labels"`
}

func (s *Server) handleListDevices(c echo.Context) error {
	devices, ok := s.devices.List(c.Request().Context())
	if !ok {
		return s.callFailed(c)
	}
	return c.JSON(http.StatusOK, devices)
}

func (s *Server) handleGetDevice(c echo.Context) error {
	device, ok := s.devices.Get(c.Request().Context(), c.Param("serial"))
	if !ok {
		return s.callFailed(c)
	}
	return c.JSON(http.StatusOK, device)
}

func (s *Server) handleUpdateLabels(c echo.Context) error {
	var req updateLabelsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if !s.devices.UpdateLabels(c.Request().Context(), c.Param("serial"), req.Labels) {
		return s.callFailed(c)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCallState(c echo.Context) error {
	state := s.coord.State()
	return c.JSON(http.StatusOK, map[string]any{
		"loading": state.Loading,
		"error":   errOrNil(state.Error),
	})
}

// callFailed translates the coordinator's absorbed failure into a gateway
// response. The upstream detail is in the call state, not in a Go error.
func (s *Server) callFailed(c echo.Context) error {
	state := s.coord.State()
	message := state.Error
	if message == "" {
		message = "upstream call failed"
	}
	return c.JSON(http.StatusBadGateway, map[string]string{"error": message})
}

func errOrNil(message string) any {
	if message == "" {
		return nil
	}
	return message
}
