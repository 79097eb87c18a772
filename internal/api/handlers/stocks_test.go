package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/quote"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/stock"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/cache"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/service/quotes"
)

type stubAdapter struct {
	name   quote.Source
	quotes map[string]*quote.Quote
	cached map[string]*quote.Quote
	calls  int
}

func (s *stubAdapter) Name() quote.Source { return s.name }

func (s *stubAdapter) FetchQuote(_ context.Context, symbol string) (*quote.Quote, error) {
	s.calls++
	return s.quotes[symbol], nil
}

func (s *stubAdapter) FetchMany(ctx context.Context, symbols []string) ([]quote.Quote, []string) {
	var out []quote.Quote
	var failed []string
	for _, sym := range symbols {
		q, _ := s.FetchQuote(ctx, sym)
		if q == nil {
			failed = append(failed, sym)
			continue
		}
		out = append(out, *q)
	}
	return out, failed
}

func (s *stubAdapter) CachedQuote(_ context.Context, symbol string) (*quote.Quote, bool) {
	q, ok := s.cached[symbol]
	return q, ok
}

type stubStockRepo struct {
	bySymbol map[string]*stock.Stock
	updates  []stock.PriceUpdate
}

func (s *stubStockRepo) List(_ context.Context, f stock.ListFilter) (*stock.ListResult, error) {
	return &stock.ListResult{Stocks: []stock.Stock{}, Page: f.Page, Limit: f.Limit}, nil
}

func (s *stubStockRepo) Search(_ context.Context, _ string, _ int) ([]stock.Stock, error) {
	return []stock.Stock{}, nil
}

func (s *stubStockRepo) GetBySymbol(_ context.Context, symbol string) (*stock.Stock, error) {
	st, ok := s.bySymbol[symbol]
	if !ok {
		return nil, stock.ErrStockNotFound
	}
	return st, nil
}

func (s *stubStockRepo) Create(_ context.Context, st *stock.Stock) (*stock.Stock, error) {
	s.bySymbol[st.Symbol] = st
	return st, nil
}

func (s *stubStockRepo) UpdatePrice(_ context.Context, u stock.PriceUpdate) error {
	s.updates = append(s.updates, u)
	return nil
}

func (s *stubStockRepo) ListTracked(_ context.Context, _ int) ([]stock.Stock, error) {
	return nil, nil
}

func newStocksRouter(t *testing.T, primary, secondary *stubAdapter, repo *stubStockRepo) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	h := NewStocksHandler(repo, quotes.NewService(primary, secondary, 50), c)

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/stocks/batch-prices", h.BatchPrices).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/stocks/search", h.Search).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/stocks/{symbol}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/stocks/{symbol}/price", h.Price).Methods(http.MethodGet)
	return r
}

func emptyAdapter(name quote.Source) *stubAdapter {
	return &stubAdapter{name: name, quotes: map[string]*quote.Quote{}, cached: map[string]*quote.Quote{}}
}

func priced(symbol string, price float64, source quote.Source) *quote.Quote {
	return &quote.Quote{Symbol: symbol, Price: decimal.NewFromFloat(price), Source: source}
}

func TestPriceServesCachedQuote(t *testing.T) {
	primary := emptyAdapter(quote.SourceIEX)
	primary.cached["AAPL"] = priced("AAPL", 178.5, quote.SourceIEX)
	repo := &stubStockRepo{bySymbol: map[string]*stock.Stock{}}

	router := newStocksRouter(t, primary, emptyAdapter(quote.SourceAlphaVantage), repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stocks/AAPL/price", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	// Cached path does not hit the provider.
	assert.Zero(t, primary.calls)
}

func TestPriceRealtimeForcesResolve(t *testing.T) {
	primary := emptyAdapter(quote.SourceIEX)
	primary.cached["AAPL"] = priced("AAPL", 170, quote.SourceIEX)
	primary.quotes["AAPL"] = priced("AAPL", 178.5, quote.SourceIEX)
	repo := &stubStockRepo{bySymbol: map[string]*stock.Stock{}}

	router := newStocksRouter(t, primary, emptyAdapter(quote.SourceAlphaVantage), repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stocks/AAPL/price?realtime=true", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, primary.calls)

	var body struct {
		Data quote.Quote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Price.Equal(decimal.NewFromFloat(178.5)))
}

func TestPriceUnresolvableReturns404(t *testing.T) {
	repo := &stubStockRepo{bySymbol: map[string]*stock.Stock{}}
	router := newStocksRouter(t, emptyAdapter(quote.SourceIEX), emptyAdapter(quote.SourceAlphaVantage), repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stocks/GHOST/price", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCreatesRowFromQuote(t *testing.T) {
	primary := emptyAdapter(quote.SourceIEX)
	primary.quotes["AAPL"] = priced("AAPL", 178.5, quote.SourceIEX)
	repo := &stubStockRepo{bySymbol: map[string]*stock.Stock{}}

	router := newStocksRouter(t, primary, emptyAdapter(quote.SourceAlphaVantage), repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stocks/AAPL", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, repo.bySymbol, "AAPL")
	assert.Equal(t, "NASDAQ", repo.bySymbol["AAPL"].Exchange)
}

func TestBatchPricesRejectsOversizedRequest(t *testing.T) {
	repo := &stubStockRepo{bySymbol: map[string]*stock.Stock{}}
	router := newStocksRouter(t, emptyAdapter(quote.SourceIEX), emptyAdapter(quote.SourceAlphaVantage), repo)

	symbols := make([]string, 51)
	for i := range symbols {
		symbols[i] = "SYM" + string(rune('A'+i%26)) + string(rune('A'+i/26))
	}
	body, _ := json.Marshal(map[string][]string{"symbols": symbols})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/stocks/batch-prices", strings.NewReader(string(body))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchPricesReportsPartialFailure(t *testing.T) {
	primary := emptyAdapter(quote.SourceIEX)
	primary.quotes["AAPL"] = priced("AAPL", 178.5, quote.SourceIEX)
	repo := &stubStockRepo{bySymbol: map[string]*stock.Stock{}}

	router := newStocksRouter(t, primary, emptyAdapter(quote.SourceAlphaVantage), repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/stocks/batch-prices",
		strings.NewReader(`{"symbols":["AAPL","GHOST"]}`)))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Meta struct {
			Requested     int      `json:"requested"`
			Successful    int      `json:"successful"`
			Failed        int      `json:"failed"`
			FailedSymbols []string `json:"failedSymbols"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Meta.Requested)
	assert.Equal(t, 1, body.Meta.Successful)
	assert.Equal(t, 1, body.Meta.Failed)
	assert.Equal(t, []string{"GHOST"}, body.Meta.FailedSymbols)
}

func TestSearchRequiresQuery(t *testing.T) {
	repo := &stubStockRepo{bySymbol: map[string]*stock.Stock{}}
	router := newStocksRouter(t, emptyAdapter(quote.SourceIEX), emptyAdapter(quote.SourceAlphaVantage), repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/stocks/search", strings.NewReader(`{"query":"  "}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
