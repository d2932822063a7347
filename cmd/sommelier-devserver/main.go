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

	"github.com/five82/sommelier/internal/devserver"
)

func main() {
	os.Exit(run())
}

func run() int {
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment (optional)")
	flag.Parse()

	cfg, err := devserver.LoadConfig(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sommelier-devserver: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var registry devserver.Registry = devserver.NewMemoryRegistry(nil)
	if cfg.RedisURL != "" {
		redisRegistry, err := devserver.NewRedisRegistry(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			return 1
		}
		defer redisRegistry.Close()
		registry = redisRegistry
		logger.Info("using redis session registry")
	} else {
		logger.Info("using in-memory session registry")
	}

	srv := devserver.NewServer(
		devserver.SeedDirectory(nil),
		registry,
		devserver.NewTokens(cfg.JWTSecret, nil),
		cfg.SessionTTL(),
		logger,
	)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "session_ttl", cfg.SessionTTL())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			return 1
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		return 1
	}
	return 0
}
