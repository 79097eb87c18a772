package quotes

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/quote"
)

// fakeAdapter is a scriptable Adapter for service tests.
type fakeAdapter struct {
	mu     sync.Mutex
	name   quote.Source
	quotes map[string]*quote.Quote
	errs   map[string]error
	cached map[string]*quote.Quote
	calls  []string
}

func newFakeAdapter(name quote.Source) *fakeAdapter {
	return &fakeAdapter{
		name:   name,
		quotes: map[string]*quote.Quote{},
		errs:   map[string]error{},
		cached: map[string]*quote.Quote{},
	}
}

func (f *fakeAdapter) Name() quote.Source { return f.name }

func (f *fakeAdapter) FetchQuote(_ context.Context, symbol string) (*quote.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, symbol)
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.quotes[symbol], nil
}

func (f *fakeAdapter) FetchMany(ctx context.Context, symbols []string) ([]quote.Quote, []string) {
	var out []quote.Quote
	var failed []string
	for _, sym := range symbols {
		q, err := f.FetchQuote(ctx, sym)
		if err != nil || q == nil {
			failed = append(failed, sym)
			continue
		}
		out = append(out, *q)
	}
	return out, failed
}

func (f *fakeAdapter) CachedQuote(_ context.Context, symbol string) (*quote.Quote, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.cached[symbol]
	if !ok {
		return nil, false
	}
	hit := *q
	hit.Source = quote.SourceCache
	return &hit, true
}

func (f *fakeAdapter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testQuote(symbol string, price float64, source quote.Source) *quote.Quote {
	return &quote.Quote{
		Symbol: symbol,
		Price:  decimal.NewFromFloat(price),
		Source: source,
	}
}

func TestGetQuote_PrimaryWins(t *testing.T) {
	primary := newFakeAdapter(quote.SourceIEX)
	secondary := newFakeAdapter(quote.SourceAlphaVantage)
	primary.quotes["AAPL"] = testQuote("AAPL", 178.5, quote.SourceIEX)
	secondary.quotes["AAPL"] = testQuote("AAPL", 178.4, quote.SourceAlphaVantage)

	svc := NewService(primary, secondary, 50)

	q, err := svc.GetQuote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, quote.SourceIEX, q.Source)
	assert.Equal(t, 0, secondary.callCount(), "fallback must not be consulted when primary succeeds")
}

func TestGetQuote_FallbackOnPrimaryError(t *testing.T) {
	primary := newFakeAdapter(quote.SourceIEX)
	secondary := newFakeAdapter(quote.SourceAlphaVantage)
	primary.errs["TCS.NS"] = errors.New("connection refused")
	secondary.quotes["TCS.NS"] = testQuote("TCS.NS", 4120.0, quote.SourceAlphaVantage)

	svc := NewService(primary, secondary, 50)

	q, err := svc.GetQuote(context.Background(), "TCS.NS")
	require.NoError(t, err)
	assert.Equal(t, quote.SourceAlphaVantage, q.Source)
}

func TestGetQuote_FallbackOnPrimaryAbsent(t *testing.T) {
	primary := newFakeAdapter(quote.SourceIEX)
	secondary := newFakeAdapter(quote.SourceAlphaVantage)
	secondary.quotes["INFY.NS"] = testQuote("INFY.NS", 1530.0, quote.SourceAlphaVantage)

	svc := NewService(primary, secondary, 50)

	q, err := svc.GetQuote(context.Background(), "INFY.NS")
	require.NoError(t, err)
	assert.Equal(t, quote.SourceAlphaVantage, q.Source)
}

func TestGetQuote_AllSourcesFail(t *testing.T) {
	primary := newFakeAdapter(quote.SourceIEX)
	secondary := newFakeAdapter(quote.SourceAlphaVantage)

	svc := NewService(primary, secondary, 50)

	_, err := svc.GetQuote(context.Background(), "GHOST")
	assert.ErrorIs(t, err, quote.ErrQuoteUnavailable)
}

func TestGetQuote_ZeroPriceTreatedAsAbsent(t *testing.T) {
	primary := newFakeAdapter(quote.SourceIEX)
	secondary := newFakeAdapter(quote.SourceAlphaVantage)
	primary.quotes["HALT"] = testQuote("HALT", 0, quote.SourceIEX)

	svc := NewService(primary, secondary, 50)

	_, err := svc.GetQuote(context.Background(), "HALT")
	assert.ErrorIs(t, err, quote.ErrQuoteUnavailable)
	assert.Equal(t, 1, secondary.callCount(), "zero price must fall through to the fallback")
}

func TestGetQuote_InvalidSymbol(t *testing.T) {
	svc := NewService(newFakeAdapter(quote.SourceIEX), newFakeAdapter(quote.SourceAlphaVantage), 50)

	_, err := svc.GetQuote(context.Background(), "not a symbol!")
	assert.ErrorIs(t, err, quote.ErrInvalidSymbol)
}

func TestGetMultipleQuotes_PartialFailure(t *testing.T) {
	primary := newFakeAdapter(quote.SourceIEX)
	secondary := newFakeAdapter(quote.SourceAlphaVantage)

	symbols := []string{"S1", "S2", "S3", "S4", "S5", "S6", "S7", "F1", "F2", "F3"}
	for _, sym := range symbols[:7] {
		primary.quotes[sym] = testQuote(sym, 100, quote.SourceIEX)
	}

	svc := NewService(primary, secondary, 50)

	result, err := svc.GetMultipleQuotes(context.Background(), symbols)
	require.NoError(t, err)
	assert.Equal(t, 10, result.Requested)
	assert.Equal(t, 7, result.Successful)
	assert.Equal(t, 3, result.Failed)
	assert.ElementsMatch(t, []string{"F1", "F2", "F3"}, result.FailedSymbols)
	assert.Len(t, result.Quotes, 7)
}

func TestGetMultipleQuotes_SecondaryRecoversFailures(t *testing.T) {
	primary := newFakeAdapter(quote.SourceIEX)
	secondary := newFakeAdapter(quote.SourceAlphaVantage)
	primary.quotes["S1"] = testQuote("S1", 100, quote.SourceIEX)
	secondary.quotes["S2"] = testQuote("S2", 200, quote.SourceAlphaVantage)

	svc := NewService(primary, secondary, 50)

	result, err := svc.GetMultipleQuotes(context.Background(), []string{"S1", "S2"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.FailedSymbols)
}

func TestGetMultipleQuotes_BatchLimit(t *testing.T) {
	svc := NewService(newFakeAdapter(quote.SourceIEX), newFakeAdapter(quote.SourceAlphaVantage), 50)

	symbols := make([]string, 51)
	for i := range symbols {
		symbols[i] = "S" + string(rune('A'+i%26)) + string(rune('A'+i/26))
	}

	_, err := svc.GetMultipleQuotes(context.Background(), symbols)
	assert.ErrorIs(t, err, quote.ErrTooManySymbols)
}

func TestGetCachedQuote_PrimaryNamespaceFirst(t *testing.T) {
	primary := newFakeAdapter(quote.SourceIEX)
	secondary := newFakeAdapter(quote.SourceAlphaVantage)
	primary.cached["AAPL"] = testQuote("AAPL", 178.5, quote.SourceIEX)
	secondary.cached["AAPL"] = testQuote("AAPL", 178.1, quote.SourceAlphaVantage)

	svc := NewService(primary, secondary, 50)

	q, ok := svc.GetCachedQuote(context.Background(), "AAPL")
	require.True(t, ok)
	assert.Equal(t, quote.SourceCache, q.Source)
	assert.True(t, decimal.NewFromFloat(178.5).Equal(q.Price))
}

func TestGetCachedQuote_FallsToSecondaryNamespace(t *testing.T) {
	primary := newFakeAdapter(quote.SourceIEX)
	secondary := newFakeAdapter(quote.SourceAlphaVantage)
	secondary.cached["TCS.NS"] = testQuote("TCS.NS", 4120.0, quote.SourceAlphaVantage)

	svc := NewService(primary, secondary, 50)

	q, ok := svc.GetCachedQuote(context.Background(), "TCS.NS")
	require.True(t, ok)
	assert.Equal(t, quote.SourceCache, q.Source)
	assert.True(t, decimal.NewFromFloat(4120.0).Equal(q.Price))

	_, ok = svc.GetCachedQuote(context.Background(), "GHOST")
	assert.False(t, ok)
}
