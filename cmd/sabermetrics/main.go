package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortuna/sabermetrics/internal/api/rest"
	"github.com/fortuna/sabermetrics/internal/api/websocket"
	"github.com/fortuna/sabermetrics/internal/app"
	"github.com/fortuna/sabermetrics/internal/config"
	"github.com/fortuna/sabermetrics/pkg/logger"
	"github.com/fortuna/sabermetrics/pkg/metrics"
)

const (
	serviceName    = "sabermetrics"
	serviceVersion = "1.0.0"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	log := logger.Named(serviceName)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Error(ctx, "loading config", logger.Error(err))
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "ignoring log level", logger.String("level", cfg.LogLevel), logger.Error(err))
	}

	log.Info(ctx, "starting",
		logger.String("version", serviceVersion),
		logger.String("fetcher", cfg.Fetcher),
		logger.String("fip_constant_source", cfg.FIPConstantSource))

	m := metrics.NewManager()

	a, err := app.New(ctx, cfg, log, m)
	if err != nil {
		log.Error(ctx, "assembling service", logger.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	restServer := rest.NewServer(cfg.RESTPort, a.Service, log.Named("rest"), m)
	go func() {
		log.Info(ctx, "REST API listening", logger.String("port", cfg.RESTPort))
		if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "REST server error", logger.Error(err))
		}
	}()

	wsServer := websocket.NewServer(cfg.WSPort, a.Service, log.Named("websocket"))
	go func() {
		if err := wsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "WebSocket server error", logger.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info(ctx, "shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "REST server shutdown", logger.Error(err))
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "WebSocket server shutdown", logger.Error(err))
	}

	log.Info(ctx, "shutdown complete")
}
