package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/quote"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/stock"
)

// fakeSource scripts per-symbol resolution for broadcaster tests.
type fakeSource struct {
	mu     sync.Mutex
	quotes map[string]*quote.Quote
	errs   map[string]error
	calls  int
	block  chan struct{} // when set, FetchQuote waits until closed
}

func (f *fakeSource) FetchQuote(_ context.Context, symbol string) (*quote.Quote, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	q := f.quotes[symbol]
	err := f.errs[symbol]
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return q, err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeStockStore serves a fixed universe and records price writes.
type fakeStockStore struct {
	mu       sync.Mutex
	universe []stock.Stock
	writes   []stock.PriceUpdate
	listErr  error
}

func (f *fakeStockStore) ListTracked(_ context.Context, limit int) ([]stock.Stock, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.universe) > limit {
		return f.universe[:limit], nil
	}
	return f.universe, nil
}

func (f *fakeStockStore) UpdatePrice(_ context.Context, update stock.PriceUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, update)
	return nil
}

func (f *fakeStockStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func trackedStock(symbol string) stock.Stock {
	return stock.Stock{Symbol: symbol, Tracked: true}
}

func usableQuote(symbol string, price float64) *quote.Quote {
	return &quote.Quote{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(price),
		Source:    quote.SourceIEX,
		Timestamp: time.Now(),
	}
}

func newTestBroadcaster(src *fakeSource, store *fakeStockStore) (*Broadcaster, *Hub) {
	h := NewHub()
	b := NewBroadcaster(h, src, store, BroadcasterConfig{
		TickInterval:  time.Hour, // ticks are driven manually
		SymbolDelay:   0,
		UniverseLimit: 25,
		PersistWait:   time.Second,
	})
	return b, h
}

func TestTick_SkipsWhenNoSubscribers(t *testing.T) {
	src := &fakeSource{quotes: map[string]*quote.Quote{"AAPL": usableQuote("AAPL", 178.5)}}
	store := &fakeStockStore{universe: []stock.Stock{trackedStock("AAPL")}}
	b, _ := newTestBroadcaster(src, store)

	b.Tick(context.Background())

	assert.Equal(t, 0, src.callCount(), "idle hub must cost zero provider calls")
}

func TestTick_BroadcastsSingleBatch(t *testing.T) {
	src := &fakeSource{quotes: map[string]*quote.Quote{
		"AAPL": usableQuote("AAPL", 178.5),
		"TSLA": usableQuote("TSLA", 251.3),
	}}
	store := &fakeStockStore{universe: []stock.Stock{trackedStock("AAPL"), trackedStock("TSLA")}}
	b, h := newTestBroadcaster(src, store)

	c := testClient(t, h, 4)
	h.Register(c)

	b.Tick(context.Background())

	assert.Equal(t, 2, src.callCount())
	require.Len(t, c.send, 1, "exactly one frame per tick")
	env := drainOne(t, c)
	assert.Equal(t, TypePriceUpdate, env.Type)
}

func TestTick_FailedSymbolsOmitted(t *testing.T) {
	src := &fakeSource{
		quotes: map[string]*quote.Quote{"AAPL": usableQuote("AAPL", 178.5)},
		errs:   map[string]error{"DEAD": errors.New("provider down")},
	}
	store := &fakeStockStore{universe: []stock.Stock{
		trackedStock("AAPL"), trackedStock("DEAD"), trackedStock("HALT"),
	}}
	b, h := newTestBroadcaster(src, store)
	c := testClient(t, h, 4)
	h.Register(c)

	b.Tick(context.Background())

	env := drainOne(t, c)
	raw, _ := json.Marshal(env.Data)
	var got []quote.Delta
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Symbol)
}

func TestTick_AllSymbolsFailedMeansNoFrame(t *testing.T) {
	src := &fakeSource{errs: map[string]error{"DEAD": errors.New("provider down")}}
	store := &fakeStockStore{universe: []stock.Stock{trackedStock("DEAD")}}
	b, h := newTestBroadcaster(src, store)
	c := testClient(t, h, 4)
	h.Register(c)

	b.Tick(context.Background())

	assert.Len(t, c.send, 0)
}

func TestTick_OverlapGuard(t *testing.T) {
	block := make(chan struct{})
	src := &fakeSource{
		quotes: map[string]*quote.Quote{"AAPL": usableQuote("AAPL", 178.5)},
		block:  block,
	}
	store := &fakeStockStore{universe: []stock.Stock{trackedStock("AAPL")}}
	b, h := newTestBroadcaster(src, store)
	h.Register(testClient(t, h, 4))

	done := make(chan struct{})
	go func() {
		b.Tick(context.Background())
		close(done)
	}()

	// wait until the first tick is inside the provider call
	require.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, time.Millisecond)

	b.Tick(context.Background()) // must skip, not run concurrently

	_, skipped := b.Stats()
	assert.Equal(t, int64(1), skipped)
	assert.Equal(t, 1, src.callCount())

	close(block)
	<-done
}

func TestTick_PersistsResolvedQuotes(t *testing.T) {
	src := &fakeSource{quotes: map[string]*quote.Quote{"AAPL": usableQuote("AAPL", 178.5)}}
	store := &fakeStockStore{universe: []stock.Stock{trackedStock("AAPL")}}
	b, h := newTestBroadcaster(src, store)
	h.Register(testClient(t, h, 4))

	b.Tick(context.Background())

	// persistence is fire-and-forget
	require.Eventually(t, func() bool { return store.writeCount() == 1 }, time.Second, time.Millisecond)
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, "AAPL", store.writes[0].Symbol)
	assert.Equal(t, "178.5", store.writes[0].Price.String())
}

func TestSnapshot_SeedsFromStoreWhenLoopHasNothing(t *testing.T) {
	price := decimal.NewFromFloat(2845.6)
	pct := -0.43
	store := &fakeStockStore{universe: []stock.Stock{
		{Symbol: "RELIANCE.NS", Tracked: true, CurrentPrice: &price, DayChangePct: &pct},
		{Symbol: "NEVERSEEN.NS", Tracked: true}, // no stored price either
	}}
	b, _ := newTestBroadcaster(&fakeSource{}, store)

	deltas := b.Snapshot(context.Background())

	require.Len(t, deltas, 1)
	assert.Equal(t, "RELIANCE.NS", deltas[0].Symbol)
	assert.InDelta(t, 2845.6, deltas[0].Price, 0.0001)
}

func TestSnapshot_PrefersLiveDeltaOverStored(t *testing.T) {
	price := decimal.NewFromFloat(100)
	store := &fakeStockStore{universe: []stock.Stock{
		{Symbol: "AAPL", Tracked: true, CurrentPrice: &price},
	}}
	src := &fakeSource{quotes: map[string]*quote.Quote{"AAPL": usableQuote("AAPL", 178.5)}}
	b, h := newTestBroadcaster(src, store)
	h.Register(testClient(t, h, 4))

	b.Tick(context.Background())

	deltas := b.Snapshot(context.Background())
	require.Len(t, deltas, 1)
	assert.InDelta(t, 178.5, deltas[0].Price, 0.0001)
}
