// Package main provides the HTTP dashboard server for staffdash.
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

	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/staffdash/internal/config"
	"github.com/raphaelgruber/staffdash/internal/gateway"
	"github.com/raphaelgruber/staffdash/internal/metrics"
	"github.com/raphaelgruber/staffdash/internal/server"
	"github.com/raphaelgruber/staffdash/internal/service"
	"github.com/raphaelgruber/staffdash/internal/telemetry"
)

// version is set at build time.
var version = "0.1.0"

func main() {
	// Parse flags
	warm := flag.Bool("warm", false, "load the session's default dashboard on startup")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	logger, closeLog := config.SetupLogger(cfg.Logging("staffdash-server"))
	defer closeLog()
	slog.SetDefault(logger)
	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := telemetry.InitTracing("staffdash-server", cfg.TraceExporter)
	if err != nil {
		slog.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Error("failed to flush traces", "error", err)
		}
	}()

	session, err := gateway.NewSession(cfg.Token, cfg.UserID, gateway.Role(cfg.Role), cfg.OwnerID)
	if err != nil {
		slog.Error("failed to start session", "error", err)
		os.Exit(1)
	}
	defer session.Close()

	collector := metrics.NewCollector()
	gw := gateway.New(cfg.GatewayURL, session,
		gateway.WithTimeout(cfg.Timeout),
		gateway.WithCollector(collector),
		gateway.WithLogger(logger),
	)
	manager := service.NewManager(gw, service.Options{
		PageSize:     cfg.PageSize,
		FanOutLimit:  cfg.FanOutLimit,
		FanOutWarn:   cfg.FanOutWarn,
		ExpiryWindow: cfg.ExpiryWindow,
		Logger:       logger,
		Collector:    collector,
	})

	slog.Info("starting staffdash-server", "port", cfg.ServerPort, "gateway", cfg.GatewayURL)

	if *warm {
		scope := service.ScopeFor(session)
		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Timeout)
		if d, err := manager.Dashboard(scope); err != nil {
			slog.Warn("warm-up skipped", "scope", scope.String(), "error", err)
		} else if _, err := d.Refresh(ctx); err != nil {
			slog.Warn("warm-up refresh failed", "scope", scope.String(), "error", err)
		}
		cancel()
	}

	srv := server.New(version, manager, collector, logger)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2*cfg.Timeout + 5*time.Second, // first loads wait for the gateway
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("dashboard API available", "url", fmt.Sprintf("http://localhost%s/api/v1/admin/dashboard", addr))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
