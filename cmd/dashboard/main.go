package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Teton-ai/smith-sub002/internal/apiclient"
	"github.com/Teton-ai/smith-sub002/internal/fleet"
	"github.com/Teton-ai/smith-sub002/internal/identity"
	"github.com/Teton-ai/smith-sub002/internal/platform/config"
	"github.com/Teton-ai/smith-sub002/internal/platform/logging"
	"github.com/Teton-ai/smith-sub002/internal/platform/version"
	"github.com/Teton-ai/smith-sub002/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *server.Server, cfg *config.Config) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	cfg := setupConfig()
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	info := version.Get()
	slog.Info("Starting smith dashboard gateway",
		"version", info.Version, "commit", info.Commit, "env", cfg.AppEnv)

	// The loader resolves against the gateway's own configuration endpoint so
	// the dashboard and the server-side client boot from the same document.
	loader := apiclient.NewConfigLoader(fmt.Sprintf("http://127.0.0.1:%s/api/config", cfg.Port))

	tokens := identity.NewClientCredentials(cfg.Auth0Domain, cfg.Auth0ClientID, cfg.Auth0ClientSecret, cfg.Auth0Audience)
	client := apiclient.NewClient(tokens, loader)
	coord := apiclient.NewCoordinator(client, tokens)
	devices := fleet.NewService(coord, loader)

	srv := server.NewServer(cfg, loader, coord, devices)
	done := runGracefulShutdown(srv, cfg)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Shutdown complete")
}
