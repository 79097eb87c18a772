package quotes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/quote"
)

// Adapter is a quote provider with its own cache namespace.
type Adapter interface {
	Name() quote.Source
	FetchQuote(ctx context.Context, symbol string) (*quote.Quote, error)
	FetchMany(ctx context.Context, symbols []string) ([]quote.Quote, []string)
	CachedQuote(ctx context.Context, symbol string) (*quote.Quote, bool)
}

// Service resolves quotes through a fixed provider chain: primary
// first, fallback second, never round-robin. Identical in-flight
// lookups are deduplicated.
type Service struct {
	primary    Adapter
	secondary  Adapter
	batchLimit int
	group      singleflight.Group
}

// NewService creates a new quote resolution service
func NewService(primary, secondary Adapter, batchLimit int) *Service {
	if batchLimit <= 0 {
		batchLimit = 50
	}
	return &Service{
		primary:    primary,
		secondary:  secondary,
		batchLimit: batchLimit,
	}
}

// GetQuote resolves a single symbol through the provider chain.
// Returns quote.ErrQuoteUnavailable when no source has a usable price.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*quote.Quote, error) {
	symbol = quote.NormalizeSymbol(symbol)
	if !quote.ValidateSymbol(symbol) {
		return nil, quote.ErrInvalidSymbol
	}

	v, err, _ := s.group.Do(symbol, func() (interface{}, error) {
		return s.resolve(ctx, symbol), nil
	})
	if err != nil {
		return nil, err
	}

	q, _ := v.(*quote.Quote)
	if q == nil {
		return nil, quote.ErrQuoteUnavailable
	}
	return q, nil
}

// resolve walks the provider chain. Provider errors degrade to the
// next source; only the final absence is reported to callers.
func (s *Service) resolve(ctx context.Context, symbol string) *quote.Quote {
	q, err := s.primary.FetchQuote(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).
			Str("symbol", symbol).
			Str("source", string(s.primary.Name())).
			Msg("Primary quote fetch failed, trying fallback")
	}
	if q.Usable() {
		return q
	}

	q, err = s.secondary.FetchQuote(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).
			Str("symbol", symbol).
			Str("source", string(s.secondary.Name())).
			Msg("Fallback quote fetch failed")
	}
	if q.Usable() {
		return q
	}

	return nil
}

// GetMultipleQuotes resolves a batch: one bulk pass on the primary,
// then a fallback pass over whatever failed. The result always
// accounts for every requested symbol.
func (s *Service) GetMultipleQuotes(ctx context.Context, symbols []string) (*quote.BatchResult, error) {
	if len(symbols) == 0 {
		return &quote.BatchResult{Quotes: []quote.Quote{}, FailedSymbols: []string{}}, nil
	}
	if len(symbols) > s.batchLimit {
		return nil, fmt.Errorf("%w: got %d, limit %d", quote.ErrTooManySymbols, len(symbols), s.batchLimit)
	}

	normalized := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		sym = quote.NormalizeSymbol(sym)
		if !quote.ValidateSymbol(sym) {
			return nil, fmt.Errorf("%w: %q", quote.ErrInvalidSymbol, sym)
		}
		if !seen[sym] {
			seen[sym] = true
			normalized = append(normalized, sym)
		}
	}

	quotes, failed := s.primary.FetchMany(ctx, normalized)

	if len(failed) > 0 {
		recovered, stillFailed := s.secondary.FetchMany(ctx, failed)
		quotes = append(quotes, recovered...)
		failed = stillFailed
	}

	if len(failed) > 0 {
		log.Warn().
			Int("requested", len(normalized)).
			Strs("failed_symbols", failed).
			Msg("Batch quote resolution incomplete")
	}

	if failed == nil {
		failed = []string{}
	}
	return &quote.BatchResult{
		Quotes:        quotes,
		Requested:     len(normalized),
		Successful:    len(quotes),
		Failed:        len(failed),
		FailedSymbols: failed,
	}, nil
}

// GetCachedQuote reads both cache namespaces without touching any
// provider, primary namespace first.
func (s *Service) GetCachedQuote(ctx context.Context, symbol string) (*quote.Quote, bool) {
	symbol = quote.NormalizeSymbol(symbol)
	if q, ok := s.primary.CachedQuote(ctx, symbol); ok && q.Usable() {
		return q, true
	}
	if q, ok := s.secondary.CachedQuote(ctx, symbol); ok && q.Usable() {
		return q, true
	}
	return nil, false
}
