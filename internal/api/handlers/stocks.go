package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/api/response"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/quote"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/stock"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/cache"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/service/quotes"
)

const (
	stockListTTL   = 60 * time.Second
	stockSearchTTL = 300 * time.Second

	// Budget for the fire-and-forget price write-back after a fresh resolve.
	priceWriteBackWait = 5 * time.Second
)

// StocksHandler serves the stock catalog and quote endpoints.
type StocksHandler struct {
	stocks stock.Repository
	quotes *quotes.Service
	cache  *cache.Cache
}

// NewStocksHandler creates a new StocksHandler
func NewStocksHandler(stocks stock.Repository, q *quotes.Service, c *cache.Cache) *StocksHandler {
	return &StocksHandler{
		stocks: stocks,
		quotes: q,
		cache:  c,
	}
}

// List handles GET /api/v1/stocks
func (h *StocksHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := stock.ListFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Sort:   r.URL.Query().Get("sort"),
		Order:  r.URL.Query().Get("order"),
	}
	if v := r.URL.Query().Get("exchange"); v != "" {
		filter.Exchange = &v
	}
	if v := r.URL.Query().Get("sector"); v != "" {
		filter.Sector = &v
	}
	filter.Page, filter.Limit = response.GetPaginationParams(r)

	if err := filter.Normalize(); err != nil {
		response.BadRequest(w, r, "invalid list parameters", err.Error())
		return
	}

	cacheKey := fmt.Sprintf("stocks:list:%s:%s:%s:%s:%s:%d:%d",
		deref(filter.Exchange), deref(filter.Sector), filter.Search,
		filter.Sort, filter.Order, filter.Page, filter.Limit)

	var result stock.ListResult
	if !h.cache.GetJSON(r.Context(), cacheKey, &result) {
		fresh, err := h.stocks.List(r.Context(), filter)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list stocks")
			response.InternalError(w, r, "failed to list stocks")
			return
		}
		result = *fresh
		h.cache.SetJSON(r.Context(), cacheKey, result, stockListTTL)
	}

	response.SuccessWithPagination(w, r, result.Stocks,
		response.NewPagination(result.Page, result.Limit, result.TotalCount))
}

// Get handles GET /api/v1/stocks/{symbol}. A symbol missing from the
// catalog is resolved through the quote providers and, when a usable
// quote comes back, inserted so the next read is a plain row hit.
func (h *StocksHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := quote.NormalizeSymbol(mux.Vars(r)["symbol"])
	if !quote.ValidateSymbol(symbol) {
		response.BadRequest(w, r, "invalid symbol", symbol)
		return
	}

	st, err := h.stocks.GetBySymbol(r.Context(), symbol)
	if err == nil {
		response.Success(w, r, st)
		return
	}
	if !errors.Is(err, stock.ErrStockNotFound) {
		log.Error().Err(err).Str("symbol", symbol).Msg("Failed to load stock")
		response.InternalError(w, r, "failed to load stock")
		return
	}

	q, err := h.quotes.GetQuote(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, quote.ErrQuoteUnavailable) {
			response.NotFound(w, r, "stock not found")
			return
		}
		response.UpstreamFailed(w, r, "quote providers unavailable")
		return
	}

	created, err := h.stocks.Create(r.Context(), stockFromQuote(q))
	if err != nil {
		if errors.Is(err, stock.ErrStockExists) {
			// Lost a create race; the row is there now.
			if st, err := h.stocks.GetBySymbol(r.Context(), symbol); err == nil {
				response.Success(w, r, st)
				return
			}
		}
		log.Error().Err(err).Str("symbol", symbol).Msg("Failed to create stock from quote")
		response.InternalError(w, r, "failed to create stock")
		return
	}

	response.Success(w, r, created)
}

// Price handles GET /api/v1/stocks/{symbol}/price. Serves the cached
// quote unless realtime=true forces a fresh resolve.
func (h *StocksHandler) Price(w http.ResponseWriter, r *http.Request) {
	symbol := quote.NormalizeSymbol(mux.Vars(r)["symbol"])
	if !quote.ValidateSymbol(symbol) {
		response.BadRequest(w, r, "invalid symbol", symbol)
		return
	}

	realtime := r.URL.Query().Get("realtime") == "true"
	if !realtime {
		if q, ok := h.quotes.GetCachedQuote(r.Context(), symbol); ok {
			response.Success(w, r, q)
			return
		}
	}

	q, err := h.quotes.GetQuote(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, quote.ErrQuoteUnavailable) {
			response.NotFound(w, r, "price not available")
			return
		}
		if errors.Is(err, quote.ErrInvalidSymbol) {
			response.BadRequest(w, r, "invalid symbol", symbol)
			return
		}
		response.UpstreamFailed(w, r, "quote providers unavailable")
		return
	}

	go h.writeBackPrice(*q)

	response.Success(w, r, q)
}

// writeBackPrice persists a freshly resolved quote without holding up
// the response. Uses a background context so the HTTP request ending
// does not cancel the write.
func (h *StocksHandler) writeBackPrice(q quote.Quote) {
	ctx, cancel := context.WithTimeout(context.Background(), priceWriteBackWait)
	defer cancel()

	err := h.stocks.UpdatePrice(ctx, stock.PriceUpdate{
		Symbol:     q.Symbol,
		Price:      q.Price,
		Change:     q.Change,
		ChangePct:  q.ChangePercent,
		Week52High: q.Week52High,
		Week52Low:  q.Week52Low,
		PERatio:    q.PERatio,
		ObservedTS: q.Timestamp,
	})
	if err != nil && !errors.Is(err, stock.ErrStockNotFound) {
		log.Warn().Err(err).Str("symbol", q.Symbol).Msg("Price write-back failed")
	}
}

type batchPricesRequest struct {
	Symbols []string `json:"symbols"`
}

// BatchPrices handles POST /api/v1/stocks/batch-prices
func (h *StocksHandler) BatchPrices(w http.ResponseWriter, r *http.Request) {
	var req batchPricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", err.Error())
		return
	}
	if len(req.Symbols) == 0 {
		response.BadRequest(w, r, "symbols is required", "")
		return
	}

	result, err := h.quotes.GetMultipleQuotes(r.Context(), req.Symbols)
	if err != nil {
		if errors.Is(err, quote.ErrTooManySymbols) {
			response.BadRequest(w, r, "too many symbols", "at most 50 symbols per request")
			return
		}
		if errors.Is(err, quote.ErrInvalidSymbol) {
			response.BadRequest(w, r, "invalid symbol in request", err.Error())
			return
		}
		response.InternalError(w, r, "batch price lookup failed")
		return
	}

	response.SuccessWithMeta(w, r, result.Quotes, map[string]interface{}{
		"requested":     result.Requested,
		"successful":    result.Successful,
		"failed":        result.Failed,
		"failedSymbols": result.FailedSymbols,
	})
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// Search handles POST /api/v1/stocks/search
func (h *StocksHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", err.Error())
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		response.BadRequest(w, r, "query is required", "")
		return
	}
	if req.Limit < 1 {
		req.Limit = 20
	}

	cacheKey := fmt.Sprintf("stocks:search:%s:%d", strings.ToLower(req.Query), req.Limit)

	var results []stock.Stock
	if !h.cache.GetJSON(r.Context(), cacheKey, &results) {
		var err error
		results, err = h.stocks.Search(r.Context(), req.Query, req.Limit)
		if err != nil {
			log.Error().Err(err).Str("query", req.Query).Msg("Stock search failed")
			response.InternalError(w, r, "search failed")
			return
		}
		h.cache.SetJSON(r.Context(), cacheKey, results, stockSearchTTL)
	}

	response.SuccessList(w, r, results, len(results))
}

func stockFromQuote(q *quote.Quote) *stock.Stock {
	name := q.CompanyName
	if name == "" {
		name = q.Symbol
	}
	price := q.Price
	change := q.Change
	ts := q.Timestamp

	return &stock.Stock{
		Symbol:         q.Symbol,
		Name:           name,
		Exchange:       exchangeFromSymbol(q.Symbol),
		MarketCap:      q.MarketCap,
		CurrentPrice:   &price,
		DayChange:      &change,
		DayChangePct:   &q.ChangePercent,
		Week52High:     q.Week52High,
		Week52Low:      q.Week52Low,
		PERatio:        q.PERatio,
		PriceUpdatedTS: &ts,
	}
}

// exchangeFromSymbol infers the exchange from the symbol suffix.
// Unsuffixed symbols default to NASDAQ, matching provider coverage.
func exchangeFromSymbol(symbol string) string {
	switch {
	case strings.HasSuffix(symbol, ".NS"):
		return "NSE"
	case strings.HasSuffix(symbol, ".BO"):
		return "BSE"
	default:
		return "NASDAQ"
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
