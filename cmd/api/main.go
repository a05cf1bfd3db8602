// Package main is the entry point for the order capture API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/order-capture/internal/catalog"
	"github.com/capitalize-ai/order-capture/internal/config"
	"github.com/capitalize-ai/order-capture/internal/fuzzy"
	"github.com/capitalize-ai/order-capture/internal/handler"
	"github.com/capitalize-ai/order-capture/internal/llm"
	natsclient "github.com/capitalize-ai/order-capture/internal/nats"
	"github.com/capitalize-ai/order-capture/internal/orchestrator"
	"github.com/capitalize-ai/order-capture/internal/pricing"
	"github.com/capitalize-ai/order-capture/internal/service"
	"github.com/capitalize-ai/order-capture/pkg/logger"
	"github.com/capitalize-ai/order-capture/pkg/tracing"
)

const streamStatsInterval = 30 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting order capture server")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize tracing if enabled
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "order-capture", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	// Load the catalog. A missing catalog degrades pricing instead of
	// stopping the server.
	index := catalog.NewIndex(nil)
	var source catalog.Source
	switch {
	case cfg.CatalogFile != "":
		source = catalog.FileSource{Path: cfg.CatalogFile}
	case cfg.CatalogURL != "":
		source = catalog.NewHTTPSource(cfg.CatalogURL, cfg.CatalogTimeout)
	}
	catalogSvc := service.NewCatalogService(index, source, log)
	if source == nil {
		log.Warn("no catalog source configured, orders will be priced at zero")
	} else if _, err := catalogSvc.Refresh(ctx); err != nil {
		log.Warn("failed to load catalog", zap.Error(err))
	}

	// Initialize LLM client
	llmClient, err := llm.FromKeys(llm.Provider(cfg.DefaultLLM), cfg.AnthropicAPIKey, cfg.OpenAIAPIKey, cfg.LLMModel)
	if err != nil {
		log.Fatal("failed to create LLM client", zap.Error(err))
	}
	log.Info("LLM client ready", zap.String("provider", llmClient.Name()))
	assistant := llm.NewAssistant(llmClient, cfg.LLMModel, log)

	// Order pipeline
	resolver := fuzzy.NewResolver(index, fuzzy.WithThresholds(cfg.FuzzyHighThreshold, cfg.FuzzyLowThreshold))
	calc := pricing.NewCalculator(index, resolver, pricing.Rates{
		TaxBasisPoints:        cfg.TaxRateBasisPoints,
		DeliveryFee:           cfg.DeliveryFee,
		FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
	})
	orchCfg := orchestrator.DefaultConfig()
	orchCfg.ExtractionTimeout = cfg.ExtractionTimeout
	orchCfg.ClarificationTimeout = cfg.ClarificationTimeout
	orchCfg.Limits.MaxQuantity = cfg.MaxItemQuantity
	orch := orchestrator.New(assistant, assistant, index, resolver, calc, orchCfg, log)

	// Connect to NATS when configured
	var (
		natsClient *natsclient.Client
		events     service.EventStore
	)
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		// Ensure JetStream stream exists
		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		events = streamManager
		go reportStreamStats(ctx, streamManager, log)
	} else {
		log.Warn("NATS_URL not set, order events will not be recorded")
	}

	// Initialize services
	sessions := service.NewSessionStore(service.WithIdleTTL(cfg.SessionIdleTTL))
	go sessions.RunSweeper(ctx, cfg.SessionSweepInterval)
	orderSvc := service.NewOrderService(sessions, orch, events, log)

	// Create router
	router := handler.NewRouter(handler.RouterConfig{
		JWTSecret:         cfg.JWTSecret,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		Logger:            log,
		Health:            handler.NewHealthHandler(index, natsClient),
		Sessions:          handler.NewSessionHandler(orderSvc, log),
		Stream:            handler.NewStreamHandler(orderSvc, log),
		Catalog:           handler.NewCatalogHandler(catalogSvc, log),
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func reportStreamStats(ctx context.Context, m *natsclient.StreamManager, log *logger.Logger) {
	ticker := time.NewTicker(streamStatsInterval)
	defer ticker.Stop()
	for {
		if err := m.RecordStats(ctx); err != nil && ctx.Err() == nil {
			log.Debug("failed to read stream stats", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
