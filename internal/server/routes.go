package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Configuration bootstrap for the dashboard
	s.echo.GET("/api/config", s.handleConfig)

	// Device fleet API
	s.echo.GET("/api/devices", s.handleListDevices)
	s.echo.GET("/api/devices/:serial", s.handleGetDevice)
	s.echo.PATCH("/api/devices/:serial/labels", s.handleUpdateLabels)

	// Call-state snapshot observed by the dashboard shell
	s.echo.GET("/api/state", s.handleCallState)
}
