// Package main is the entry point for the rivachat relay server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rivachat/config"
	"rivachat/internal/logging"
	"rivachat/internal/relay"
	"rivachat/internal/server"
	"rivachat/internal/upstream"

	// Import backend packages to trigger their init() registration
	_ "rivachat/internal/upstream/anthropic"
	_ "rivachat/internal/upstream/bedrock"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	flag.Parse()

	if *versionFlag {
		fmt.Println("rivachat " + Version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging)
	logger.Info("starting rivachat", "version", Version, "backend", cfg.Relay.Backend)

	up, err := upstream.New(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to initialize upstream backend", "error", err)
		os.Exit(1)
	}
	logger.Info("upstream backend initialized", "backend", up.Name())

	r := relay.New(up, cfg.Relay.Bounds(), logger)

	serverCfg := &server.Config{
		HeartbeatInterval: cfg.Relay.HeartbeatInterval,
		MetricsEnabled:    cfg.Metrics.Enabled,
		MetricsEndpoint:   cfg.Metrics.Endpoint,
		BodySizeLimit:     cfg.Server.BodySizeLimit,
		CORSOrigins:       cfg.Server.CORSOrigins,
	}
	srv := server.New(r, serverCfg)

	// Handle graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	logger.Info("starting server", "address", addr)

	if err := srv.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("server stopped gracefully")
		} else {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}
}
