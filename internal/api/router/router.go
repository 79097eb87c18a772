package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/api/handlers"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/api/middleware"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/pkg/auth"
)

// Config holds router configuration
type Config struct {
	StocksHandler    *handlers.StocksHandler
	WatchlistHandler *handlers.WatchlistHandler
	PortfolioHandler *handlers.PortfolioHandler
	IPOHandler       *handlers.IPOHandler
	StreamHandler    *handlers.StreamHandler
	HealthHandler    *handlers.HealthHandler

	Verifier       auth.Verifier
	AllowedOrigins []string
	AccessLogging  middleware.LoggingConfig
}

// New creates the HTTP router with the full middleware chain.
// User-scoped routes (watchlists, portfolios) require a bearer token;
// the catalog, quote, IPO, stream, and health routes are public.
func New(cfg *Config) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(cfg.AccessLogging))
	r.Use(middleware.Recovery)

	// Health
	r.HandleFunc("/health", cfg.HealthHandler.Health).Methods(http.MethodGet)
	r.HandleFunc("/health/live", cfg.HealthHandler.Live).Methods(http.MethodGet)

	// Price stream
	r.HandleFunc("/ws", cfg.StreamHandler.Serve).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Stocks
	api.HandleFunc("/stocks", cfg.StocksHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/stocks/batch-prices", cfg.StocksHandler.BatchPrices).Methods(http.MethodPost)
	api.HandleFunc("/stocks/search", cfg.StocksHandler.Search).Methods(http.MethodPost)
	api.HandleFunc("/stocks/{symbol}", cfg.StocksHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{symbol}/price", cfg.StocksHandler.Price).Methods(http.MethodGet)

	// IPOs
	api.HandleFunc("/ipos", cfg.IPOHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/ipos/upcoming", cfg.IPOHandler.Upcoming).Methods(http.MethodGet)
	api.HandleFunc("/ipos/open", cfg.IPOHandler.Open).Methods(http.MethodGet)
	api.HandleFunc("/ipos/{id}", cfg.IPOHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/ipos/{id}/advice", cfg.IPOHandler.Advice).Methods(http.MethodGet)
	api.HandleFunc("/ipos/{id}/metrics", cfg.IPOHandler.UpdateMetrics).Methods(http.MethodPut)

	// Watchlists (authenticated)
	watchlists := api.PathPrefix("/watchlists").Subrouter()
	watchlists.Use(middleware.Auth(cfg.Verifier))
	watchlists.HandleFunc("", cfg.WatchlistHandler.List).Methods(http.MethodGet)
	watchlists.HandleFunc("", cfg.WatchlistHandler.Create).Methods(http.MethodPost)
	watchlists.HandleFunc("/{id}", cfg.WatchlistHandler.Get).Methods(http.MethodGet)
	watchlists.HandleFunc("/{id}", cfg.WatchlistHandler.Delete).Methods(http.MethodDelete)
	watchlists.HandleFunc("/{id}/stocks", cfg.WatchlistHandler.AddStock).Methods(http.MethodPost)
	watchlists.HandleFunc("/{id}/stocks/{symbol}", cfg.WatchlistHandler.RemoveStock).Methods(http.MethodDelete)

	// Portfolios (authenticated)
	portfolios := api.PathPrefix("/portfolios").Subrouter()
	portfolios.Use(middleware.Auth(cfg.Verifier))
	portfolios.HandleFunc("", cfg.PortfolioHandler.List).Methods(http.MethodGet)
	portfolios.HandleFunc("", cfg.PortfolioHandler.Create).Methods(http.MethodPost)
	portfolios.HandleFunc("/{id}", cfg.PortfolioHandler.Get).Methods(http.MethodGet)
	portfolios.HandleFunc("/{id}", cfg.PortfolioHandler.Delete).Methods(http.MethodDelete)
	portfolios.HandleFunc("/{id}/holdings", cfg.PortfolioHandler.SetHolding).Methods(http.MethodPut)
	portfolios.HandleFunc("/{id}/holdings/{holdingID}", cfg.PortfolioHandler.RemoveHolding).Methods(http.MethodDelete)
	portfolios.HandleFunc("/{id}/value", cfg.PortfolioHandler.Value).Methods(http.MethodGet)

	return middleware.CORS(cfg.AllowedOrigins)(r)
}
