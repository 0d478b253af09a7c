package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marketlens/backend/config"
	httpDelivery "github.com/marketlens/backend/internal/delivery/http"
	"github.com/marketlens/backend/internal/infrastructure/cache"
	"github.com/marketlens/backend/internal/infrastructure/htmlnode"
	"github.com/marketlens/backend/internal/infrastructure/logging"
	"github.com/marketlens/backend/internal/infrastructure/marketplace"
	"github.com/marketlens/backend/internal/usecase"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Encoding:    cfg.Log.Encoding,
		Development: cfg.Log.Development,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting MarketLens backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("default_layout", cfg.Extraction.DefaultLayout),
		zap.Float64("approximate_uplift", cfg.Extraction.ApproximateUplift))

	// Infrastructure
	memoryCache := cache.NewMemoryCache()
	defer memoryCache.Close()

	fetcher := marketplace.NewClient(marketplace.ClientConfig{
		UserAgent:      cfg.Fetch.UserAgent,
		AcceptLanguage: cfg.Fetch.AcceptLanguage,
		Timeout:        cfg.Fetch.Timeout,
		RatePerSecond:  cfg.Fetch.RatePerSecond,
		Burst:          cfg.Fetch.Burst,
	}, logger)
	if cfg.Server.Environment == "development" {
		fetcher.SetDebug(true)
	}

	// Usecases
	extractionService := usecase.NewExtractionService(
		htmlnode.Parser{},
		usecase.ExtractionServiceConfig{
			ApproximateUplift: cfg.Extraction.ApproximateUplift,
			MaxSalesUnits:     cfg.Extraction.MaxSalesUnits,
			DefaultLayout:     cfg.Extraction.DefaultLayout,
		},
		logger,
	)
	enrichmentService := usecase.NewEnrichmentService(
		extractionService,
		fetcher,
		memoryCache,
		usecase.EnrichmentServiceConfig{
			CacheTTL:      cfg.Cache.TTL,
			MaxConcurrent: cfg.Fetch.MaxConcurrent,
		},
		logger,
	)

	handler := httpDelivery.NewHandler(extractionService, enrichmentService, httpDelivery.HandlerConfig{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		MaxBatch:     cfg.Fetch.MaxBatch,
	}, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
