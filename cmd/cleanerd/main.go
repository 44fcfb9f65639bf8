// Package main Phone Cleaner local API
//
// @title           Phone Cleaner API
// @version         1.0
// @description     Локальный API квот удаления, подписки и групп дубликатов
//
// @host      127.0.0.1:8080
// @BasePath  /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the local API token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/phone-cleaner/internal/app/cleanerd"
	"github.com/magabrotheeeer/phone-cleaner/internal/config"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.Setup(cfg.Env)

	logger.Info("starting cleanerd", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := cleanerd.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("cleanerd stopped gracefully")
}
