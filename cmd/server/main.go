// Package main provides the entry point for the clipdesk local UI server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maauso/clipdesk/internal/bootstrap"
	"github.com/maauso/clipdesk/internal/config"
	"github.com/maauso/clipdesk/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting clipdesk",
		slog.Int("port", cfg.Port),
		slog.String("backend_url", cfg.BackendURL),
		slog.Duration("request_timeout", cfg.RequestTimeout),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.String("temp_dir", cfg.TempDir),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
	)

	// Results go to the bucket when one is configured; otherwise the page
	// opens the backend URL itself.
	deliver := cfg.S3Enabled()
	deps, err := bootstrap.NewDependencies(cfg, logger, deliver)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	hub := server.NewHub(logger)
	handlers := server.NewHandlers(deps.Session, hub, logger, server.WithStoredResults(deliver))
	router := server.NewRouter(handlers, logger, server.DefaultConfig())

	// Create HTTP server
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     router,
		ReadTimeout: 10 * time.Minute, // Large video uploads
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown handling
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-shutdownCh:
		logger.Info("received shutdown signal",
			slog.String("signal", sig.String()),
		)
	case err := <-errCh:
		return err
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := deps.Session.Close(ctx); err != nil {
		logger.Warn("failed to remove staged copy", slog.String("error", err.Error()))
	}

	logger.Info("server stopped gracefully")
	return nil
}
