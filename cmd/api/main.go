package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/api/handlers"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/api/middleware"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/api/router"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/alphavantage"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/cache"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/database/postgres"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/iexcloud"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/pkg/auth"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/pkg/config"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/pkg/logger"
	iposervice "github.com/Mohammad-Azeem/catalyst-markets/internal/service/ipo"
	portfolioservice "github.com/Mohammad-Azeem/catalyst-markets/internal/service/portfolio"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/service/quotes"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/service/stream"
	watchlistservice "github.com/Mohammad-Azeem/catalyst-markets/internal/service/watchlist"
)

const (
	serviceName    = "catalyst-markets-api"
	serviceVersion = "1.0.0"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging, serviceName, serviceVersion); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("version", serviceVersion).
		Msg("🚀 Starting Catalyst Markets API Server...")

	// Context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	dbPool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	log.Info().Msg("✅ Database connected")

	// Initialize Redis cache
	quoteCache, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer quoteCache.Close()

	log.Info().Msg("✅ Redis connected")

	// Initialize repositories
	stockRepo := postgres.NewStockRepository(dbPool)
	watchlistRepo := postgres.NewWatchlistRepository(dbPool)
	portfolioRepo := postgres.NewPortfolioRepository(dbPool)
	ipoRepo := postgres.NewIPORepository(dbPool)

	// Initialize quote providers
	iexClient := iexcloud.NewClient(cfg.IEX, quoteCache)
	avClient := alphavantage.NewClient(cfg.AlphaVantage, quoteCache)

	// Initialize services
	quoteService := quotes.NewService(iexClient, avClient, cfg.Stream.BatchLimit)
	watchlistService := watchlistservice.NewService(watchlistRepo, stockRepo, quoteCache)
	portfolioService := portfolioservice.NewService(portfolioRepo, stockRepo, quoteService)
	ipoService := iposervice.NewService(ipoRepo, quoteCache)

	// Initialize price stream
	hub := stream.NewHub()
	broadcaster := stream.NewBroadcaster(hub, stream.SourceFunc(quoteService.GetQuote), stockRepo, stream.BroadcasterConfig{
		TickInterval:  cfg.Stream.TickInterval,
		SymbolDelay:   cfg.Stream.SymbolDelay,
		UniverseLimit: cfg.Stream.UniverseLimit,
	})
	go broadcaster.Run(ctx)

	log.Info().
		Dur("tick_interval", cfg.Stream.TickInterval).
		Int("universe_limit", cfg.Stream.UniverseLimit).
		Msg("✅ Price broadcaster started")

	// Bearer token verification for user-scoped routes
	verifier, err := auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token verifier")
	}

	// Initialize handlers
	clientCfg := stream.ClientConfig{
		WriteWait:      cfg.Stream.WriteWait,
		PongWait:       cfg.Stream.PongWait,
		SendBufferSize: cfg.Stream.SendBufferSize,
	}
	accessLogger := logger.NewAccessLogger(cfg.Logging)

	handler := router.New(&router.Config{
		StocksHandler:    handlers.NewStocksHandler(stockRepo, quoteService, quoteCache),
		WatchlistHandler: handlers.NewWatchlistHandler(watchlistService),
		PortfolioHandler: handlers.NewPortfolioHandler(portfolioService),
		IPOHandler:       handlers.NewIPOHandler(ipoService),
		StreamHandler:    handlers.NewStreamHandler(hub, broadcaster, clientCfg),
		HealthHandler:    handlers.NewHealthHandler(dbPool, quoteCache, serviceVersion),
		Verifier:         verifier,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AccessLogging: middleware.LoggingConfig{
			AccessLogger: &accessLogger,
			SkipPaths:    []string{"/health", "/health/live"},
		},
	})

	// Create HTTP server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", addr).
			Msg("🎯 API Server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("🛑 Shutdown signal received, stopping server...")

	// Stop ticking before the HTTP listener drains
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	hub.Close()

	log.Info().Msg("👋 Catalyst Markets API Server stopped")
}
