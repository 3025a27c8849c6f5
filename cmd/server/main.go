package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jun/cloudbridge/internal/app"
	"github.com/jun/cloudbridge/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	application, err := app.NewApp(context.Background())
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg.DevMode)
	logger.Info("starting local server", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, newProxyHandler(application.HandleRequest, logger)); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
