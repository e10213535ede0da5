package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"go.uber.org/zap"

	_ "popupforge/docs" // Import generated docs
	"popupforge/internal/app"
	"popupforge/internal/config"
	"popupforge/internal/lifecycle"
	"popupforge/pkg/logger"
)

// @title           PopupForge API
// @version         1.0
// @description     Promotional message targeting and display scheduling with Redis & PostgreSQL.
// @host            localhost:8080
// @BasePath        /
func main() {
	// 1. Config & logging
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Service:     cfg.AppName,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := lifecycle.SignalContext(context.Background())
	defer stop()

	// 2. Infra & layers
	a, err := app.Build(ctx, cfg, zapLogger, app.Options{})
	if err != nil {
		zapLogger.Fatal("startup failed", zap.Error(err))
	}

	var invalidator Invalidator
	if a.Cache != nil {
		invalidator = a.Cache
	}
	handler := NewHandler(a.Service, a, invalidator, zapLogger)

	// 3. Server
	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newRouter(handler, cfg.Context.RequestTimeout, zapLogger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	a.Lifecycle.Register("http_server", server.Shutdown)

	go func() {
		zapLogger.Info("popupforge listening",
			zap.String("address", cfg.Address()),
			zap.String("store", cfg.StoreDriver),
			zap.Bool("cache", a.Cache != nil))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("server crashed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	if err := a.Lifecycle.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
