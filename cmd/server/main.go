package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	sloghttp "github.com/samber/slog-http"

	"github.com/lestrix/serverless-todo/internal/config"
	"github.com/lestrix/serverless-todo/internal/repository"
	"github.com/lestrix/serverless-todo/internal/routes"
	"github.com/lestrix/serverless-todo/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, "Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	repo, err := repository.New(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "Repository init failed", "error", err, "backend", cfg.Backend)
		os.Exit(1)
	}

	handler := sloghttp.New(logger.Default())(routes.Router(repo))

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort, "backend", cfg.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown error", "error", err)
	}
	logger.Info(ctx, "Server stopped")
}
