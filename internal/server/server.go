// Package server implements the dashboard gateway HTTP surface using Echo.
//
// Routes: configuration bootstrap (/api/config), device API (/api/devices),
// call state (/api/state), health, version and Prometheus metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Teton-ai/smith-sub002/internal/apiclient"
	"github.com/Teton-ai/smith-sub002/internal/fleet"
	"github.com/Teton-ai/smith-sub002/internal/metrics"
	"github.com/Teton-ai/smith-sub002/internal/platform/config"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const rateLimiterExpiry = 3 * time.Minute

type Server struct {
	echo    *echo.Echo
	config  *config.Config
	loader  *apiclient.ConfigLoader
	devices *fleet.Service
	coord   *apiclient.Coordinator

	startTime time.Time
}

// NewServer wires the gateway routes around the given client layer.
func NewServer(cfg *config.Config, loader *apiclient.ConfigLoader, coord *apiclient.Coordinator, devices *fleet.Service) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.RateLimit),
			Burst:     cfg.RateLimitBurst,
			ExpiresIn: rateLimiterExpiry,
		},
	)))
	e.Use(requestMetrics)

	srv := &Server{
		echo:      e,
		config:    cfg,
		loader:    loader,
		devices:   devices,
		coord:     coord,
		startTime: time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting gateway", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// requestMetrics records per-route request counts on the default registry.
func requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		status := c.Response().Status
		if err != nil {
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()

		return err
	}
}
