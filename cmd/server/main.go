package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/churbro/backend/config"
	httpDelivery "github.com/churbro/backend/internal/delivery/http"
	"github.com/churbro/backend/internal/infrastructure/cache"
	"github.com/churbro/backend/internal/infrastructure/publish"
	"github.com/churbro/backend/internal/usecase"
	"github.com/shopspring/decimal"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	decimal.MarshalJSONWithoutQuotes = true

	logger.Info("starting churbro backend",
		"version", httpDelivery.Version,
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"data_dir", cfg.Output.Dir)

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache(cfg.Cache.SweepInterval)
	defer memoryCache.Close()
	published := publish.NewDir(cfg.Output.Dir, cfg.Output.IndentJSON, logger)

	// Initialize usecase layer
	datasets := usecase.NewDatasetService(published, memoryCache, usecase.DatasetServiceConfig{
		CacheTTL: cfg.Cache.TTL,
	}, logger)

	handler := httpDelivery.NewHandler(datasets)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SIGHUP after a publish drops the cached dataset
	hangups := make(chan os.Signal, 1)
	signal.Notify(hangups, syscall.SIGHUP)
	defer signal.Stop(hangups)
	go reloadOnSignal(ctx, hangups, datasets, logger)

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
