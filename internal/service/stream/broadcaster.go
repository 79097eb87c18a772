package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/quote"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/stock"
)

// ==============================================================================
// Broadcaster - periodic quote scan feeding the hub
// ==============================================================================

// Source resolves one symbol per tick. The production wiring points
// this at the quote resolver; tests substitute their own.
type Source interface {
	FetchQuote(ctx context.Context, symbol string) (*quote.Quote, error)
}

// SourceFunc adapts a resolve function to the Source interface.
type SourceFunc func(ctx context.Context, symbol string) (*quote.Quote, error)

// FetchQuote calls f.
func (f SourceFunc) FetchQuote(ctx context.Context, symbol string) (*quote.Quote, error) {
	return f(ctx, symbol)
}

// StockStore is the slice of the stock repository the broadcaster
// needs: the tracked universe, lazy snapshot seeding, and price
// write-back.
type StockStore interface {
	ListTracked(ctx context.Context, limit int) ([]stock.Stock, error)
	UpdatePrice(ctx context.Context, update stock.PriceUpdate) error
}

// BroadcasterConfig holds tick loop settings
type BroadcasterConfig struct {
	TickInterval  time.Duration
	SymbolDelay   time.Duration // spacing between per-symbol resolves
	UniverseLimit int           // tracked symbols per tick, max 25
	PersistWait   time.Duration // budget for one fire-and-forget write
}

// DefaultBroadcasterConfig returns default configuration
func DefaultBroadcasterConfig() BroadcasterConfig {
	return BroadcasterConfig{
		TickInterval:  10 * time.Second,
		SymbolDelay:   200 * time.Millisecond,
		UniverseLimit: 25,
		PersistWait:   5 * time.Second,
	}
}

// Broadcaster drives the tick loop: resolve the tracked universe
// through the pluggable source, persist opportunistically, and push a
// single batch frame per tick.
type Broadcaster struct {
	hub    *Hub
	source Source
	stocks StockStore
	cfg    BroadcasterConfig

	// a tick in flight makes later timer firings skip, never overlap
	ticking atomic.Bool

	mu   sync.RWMutex
	last map[string]quote.Delta // most recent delta per symbol

	// Metrics
	ticks   int64
	skipped int64
}

// NewBroadcaster creates a new broadcaster
func NewBroadcaster(hub *Hub, source Source, stocks StockStore, cfg BroadcasterConfig) *Broadcaster {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 10 * time.Second
	}
	if cfg.UniverseLimit <= 0 || cfg.UniverseLimit > 25 {
		cfg.UniverseLimit = 25
	}
	if cfg.PersistWait <= 0 {
		cfg.PersistWait = 5 * time.Second
	}
	return &Broadcaster{
		hub:    hub,
		source: source,
		stocks: stocks,
		cfg:    cfg,
		last:   make(map[string]quote.Delta),
	}
}

// Run drives the tick loop until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.TickInterval)
	defer ticker.Stop()

	log.Info().
		Dur("interval", b.cfg.TickInterval).
		Int("universe_limit", b.cfg.UniverseLimit).
		Msg("Broadcaster started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Broadcaster stopped")
			return
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}

// Tick runs one scan-and-broadcast cycle. A cycle already in flight
// makes this call a no-op.
func (b *Broadcaster) Tick(ctx context.Context) {
	if b.hub.ClientCount() == 0 {
		log.Debug().Msg("Broadcaster: no subscribers, skipping tick")
		return
	}

	if !b.ticking.CompareAndSwap(false, true) {
		atomic.AddInt64(&b.skipped, 1)
		log.Warn().Msg("Broadcaster: previous tick still running, skipping")
		return
	}
	defer b.ticking.Store(false)

	atomic.AddInt64(&b.ticks, 1)

	universe, err := b.stocks.ListTracked(ctx, b.cfg.UniverseLimit)
	if err != nil {
		log.Error().Err(err).Msg("Broadcaster: tracked universe load failed")
		return
	}
	if len(universe) == 0 {
		return
	}

	deltas := make([]quote.Delta, 0, len(universe))
	for i, st := range universe {
		q, err := b.source.FetchQuote(ctx, st.Symbol)
		if err != nil {
			log.Warn().Err(err).Str("symbol", st.Symbol).Msg("Broadcaster: quote resolve failed")
		}
		if q.Usable() {
			delta := q.ToDelta()
			deltas = append(deltas, delta)
			b.remember(delta)
			go b.persist(*q)
		}

		// spacing between provider calls; last symbol needs none
		if i < len(universe)-1 && b.cfg.SymbolDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(b.cfg.SymbolDelay):
			}
		}
	}

	// one frame per tick; failed symbols are simply absent from it
	if len(deltas) > 0 {
		b.hub.BroadcastDeltas(deltas)
	}

	log.Debug().
		Int("universe", len(universe)).
		Int("resolved", len(deltas)).
		Int("clients", b.hub.ClientCount()).
		Msg("Broadcaster: tick complete")
}

// remember keeps the latest delta for snapshot serving.
func (b *Broadcaster) remember(d quote.Delta) {
	b.mu.Lock()
	b.last[d.Symbol] = d
	b.mu.Unlock()
}

// persist writes one resolved price back to storage. Best effort: a
// failure is logged and the tick never waits on it.
func (b *Broadcaster) persist(q quote.Quote) {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.PersistWait)
	defer cancel()

	err := b.stocks.UpdatePrice(ctx, stock.PriceUpdate{
		Symbol:     q.Symbol,
		Price:      q.Price,
		Change:     q.Change,
		ChangePct:  q.ChangePercent,
		Week52High: q.Week52High,
		Week52Low:  q.Week52Low,
		PERatio:    q.PERatio,
		ObservedTS: q.Timestamp,
	})
	if err != nil {
		log.Warn().Err(err).Str("symbol", q.Symbol).Msg("Broadcaster: price persist failed")
	}
}

// Snapshot builds the INITIAL_DATA payload for a new subscriber.
// Symbols the loop has not resolved yet are seeded from the last
// persisted price.
func (b *Broadcaster) Snapshot(ctx context.Context) []quote.Delta {
	universe, err := b.stocks.ListTracked(ctx, b.cfg.UniverseLimit)
	if err != nil {
		log.Warn().Err(err).Msg("Broadcaster: snapshot universe load failed")
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	deltas := make([]quote.Delta, 0, len(universe))
	for _, st := range universe {
		if d, ok := b.last[st.Symbol]; ok {
			deltas = append(deltas, d)
			continue
		}
		if st.CurrentPrice == nil {
			continue
		}
		d := quote.Delta{
			Symbol: st.Symbol,
			Price:  st.CurrentPrice.InexactFloat64(),
		}
		if st.DayChange != nil {
			d.Change = st.DayChange.InexactFloat64()
		}
		if st.DayChangePct != nil {
			d.ChangePercent = *st.DayChangePct
		}
		if st.PriceUpdatedTS != nil {
			d.Timestamp = st.PriceUpdatedTS.UnixMilli()
		}
		deltas = append(deltas, d)
	}
	return deltas
}

// Stats returns tick counters.
func (b *Broadcaster) Stats() (ticks, skipped int64) {
	return atomic.LoadInt64(&b.ticks), atomic.LoadInt64(&b.skipped)
}
