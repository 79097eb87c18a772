package iexcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/quote"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/cache"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/pkg/config"
)

const (
	cachePrefix    = "quote:iexcloud:"
	bulkFetchLimit = 5
	bulkFetchDelay = 100 * time.Millisecond
)

// Client handles IEX Cloud quote requests. It is the primary source;
// its cache namespace carries the shortest TTL.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *cache.Cache
	cacheTTL   time.Duration
}

// NewClient creates a new IEX Cloud client
func NewClient(cfg config.IEXConfig, c *cache.Cache) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 8 * time.Second},
		cache:      c,
		cacheTTL:   cfg.CacheTTL,
	}
}

// Name identifies the adapter in quote source tags and logs.
func (c *Client) Name() quote.Source {
	return quote.SourceIEX
}

// quoteResponse represents the IEX /stock/{symbol}/quote payload
type quoteResponse struct {
	Symbol        string   `json:"symbol"`
	CompanyName   string   `json:"companyName"`
	LatestPrice   *float64 `json:"latestPrice"`
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"changePercent"` // fraction, e.g. 0.0123
	LatestVolume  *int64   `json:"latestVolume"`
	MarketCap     *int64   `json:"marketCap"`
	Week52High    *float64 `json:"week52High"`
	Week52Low     *float64 `json:"week52Low"`
	PERatio       *float64 `json:"peRatio"`
	LatestUpdate  int64    `json:"latestUpdate"` // ms epoch
}

// FetchQuote resolves a single symbol. Returns (nil, nil) when the
// provider has no usable quote: unknown symbol, rate limit, or a
// response that fails shape validation. Only transport-level failures
// surface as errors.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*quote.Quote, error) {
	if q, ok := c.CachedQuote(ctx, symbol); ok {
		return q, nil
	}

	reqURL := fmt.Sprintf("%s/stock/%s/quote?token=%s", c.baseURL, url.PathEscape(symbol), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to parsing
	case http.StatusNotFound:
		// unknown symbol, nothing to retry
		return nil, nil
	case http.StatusTooManyRequests:
		log.Warn().Str("symbol", symbol).Msg("IEX rate limit reached")
		return nil, nil
	default:
		return nil, fmt.Errorf("IEX API error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var qr quoteResponse
	if err := json.Unmarshal(respBody, &qr); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("IEX response failed validation")
		return nil, nil
	}

	q := convertQuote(symbol, qr)
	if !q.Usable() {
		return nil, nil
	}

	c.cache.SetJSON(ctx, cachePrefix+symbol, q, c.cacheTTL)
	return q, nil
}

// FetchMany resolves symbols with bounded concurrency. One failed
// symbol never aborts the rest; failures come back in the second
// return value.
func (c *Client) FetchMany(ctx context.Context, symbols []string) ([]quote.Quote, []string) {
	var (
		mu      sync.Mutex
		quotes  []quote.Quote
		failing []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkFetchLimit)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			q, err := c.FetchQuote(gctx, symbol)

			mu.Lock()
			if err != nil || q == nil {
				if err != nil {
					log.Warn().Err(err).Str("symbol", symbol).Msg("IEX bulk fetch failed")
				}
				failing = append(failing, symbol)
			} else {
				quotes = append(quotes, *q)
			}
			mu.Unlock()

			// keeps request starts spaced out within each slot
			select {
			case <-gctx.Done():
			case <-time.After(bulkFetchDelay):
			}
			return nil
		})
	}

	// errors are collected per symbol, Wait never fails
	_ = g.Wait()

	return quotes, failing
}

// CachedQuote reads this adapter's cache namespace only. Hits are
// retagged so callers can tell cached data from a fresh fetch.
func (c *Client) CachedQuote(ctx context.Context, symbol string) (*quote.Quote, bool) {
	var q quote.Quote
	if !c.cache.GetJSON(ctx, cachePrefix+symbol, &q) {
		return nil, false
	}
	q.Source = quote.SourceCache
	return &q, true
}

// convertQuote maps the provider payload to the canonical quote
func convertQuote(symbol string, qr quoteResponse) *quote.Quote {
	q := &quote.Quote{
		Symbol:      symbol,
		CompanyName: qr.CompanyName,
		Source:      quote.SourceIEX,
		Timestamp:   time.Now(),
	}

	if qr.LatestUpdate > 0 {
		q.Timestamp = time.UnixMilli(qr.LatestUpdate)
	}
	if qr.LatestPrice != nil {
		q.Price = decimal.NewFromFloat(*qr.LatestPrice)
	}
	if qr.Change != nil {
		q.Change = decimal.NewFromFloat(*qr.Change)
	}
	if qr.ChangePercent != nil {
		q.ChangePercent = *qr.ChangePercent * 100
	}
	if qr.LatestVolume != nil {
		q.Volume = *qr.LatestVolume
	}
	q.MarketCap = qr.MarketCap
	q.Week52High = qr.Week52High
	q.Week52Low = qr.Week52Low
	q.PERatio = qr.PERatio

	return q
}
