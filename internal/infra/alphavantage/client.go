package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
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
	cachePrefix    = "quote:alphavantage:"
	bulkFetchLimit = 5
	bulkFetchDelay = 100 * time.Millisecond
)

// Client handles Alpha Vantage GLOBAL_QUOTE requests. It is the
// fallback source; slower refresh, so its cache namespace carries a
// longer TTL than the primary's.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *cache.Cache
	cacheTTL   time.Duration
}

// NewClient creates a new Alpha Vantage client
func NewClient(cfg config.AlphaVantageConfig, c *cache.Cache) *Client {
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
	return quote.SourceAlphaVantage
}

// globalQuoteResponse represents the GLOBAL_QUOTE payload. All numeric
// fields arrive as strings. Error Message and Note are mutually
// exclusive with Global Quote.
type globalQuoteResponse struct {
	GlobalQuote *struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		LatestDay     string `json:"07. latest trading day"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"` // "1.2345%"
	} `json:"Global Quote"`
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
}

// FetchQuote resolves a single symbol. Returns (nil, nil) when the
// provider has no usable quote; only transport-level failures surface
// as errors.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*quote.Quote, error) {
	if q, ok := c.CachedQuote(ctx, symbol); ok {
		return q, nil
	}

	reqURL := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))

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

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Alpha Vantage API error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var gr globalQuoteResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("Alpha Vantage response failed validation")
		return nil, nil
	}

	// the API reports problems inside a 200 body
	if gr.ErrorMessage != "" {
		return nil, nil
	}
	if gr.Note != "" {
		log.Warn().Str("symbol", symbol).Msg("Alpha Vantage rate limit reached")
		return nil, nil
	}
	if gr.GlobalQuote == nil || gr.GlobalQuote.Price == "" {
		return nil, nil
	}

	q, err := convertQuote(symbol, gr)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("Alpha Vantage response failed validation")
		return nil, nil
	}
	if !q.Usable() {
		return nil, nil
	}

	c.cache.SetJSON(ctx, cachePrefix+symbol, q, c.cacheTTL)
	return q, nil
}

// FetchMany resolves symbols with bounded concurrency, collecting
// failures instead of aborting.
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
					log.Warn().Err(err).Str("symbol", symbol).Msg("Alpha Vantage bulk fetch failed")
				}
				failing = append(failing, symbol)
			} else {
				quotes = append(quotes, *q)
			}
			mu.Unlock()

			select {
			case <-gctx.Done():
			case <-time.After(bulkFetchDelay):
			}
			return nil
		})
	}

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

// convertQuote parses the string-typed payload into the canonical quote
func convertQuote(symbol string, gr globalQuoteResponse) (*quote.Quote, error) {
	gq := gr.GlobalQuote

	price, err := decimal.NewFromString(gq.Price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", gq.Price, err)
	}

	q := &quote.Quote{
		Symbol:    symbol,
		Price:     price,
		Source:    quote.SourceAlphaVantage,
		Timestamp: time.Now(),
	}

	if gq.Change != "" {
		if change, err := decimal.NewFromString(gq.Change); err == nil {
			q.Change = change
		}
	}
	if gq.ChangePercent != "" {
		pctStr := strings.TrimSuffix(gq.ChangePercent, "%")
		if pct, err := strconv.ParseFloat(pctStr, 64); err == nil {
			q.ChangePercent = pct
		}
	}
	if gq.Volume != "" {
		if vol, err := strconv.ParseInt(gq.Volume, 10, 64); err == nil {
			q.Volume = vol
		}
	}
	if gq.LatestDay != "" {
		if day, err := time.Parse("2006-01-02", gq.LatestDay); err == nil {
			q.Timestamp = day
		}
	}

	return q, nil
}
