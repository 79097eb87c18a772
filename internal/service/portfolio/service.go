package portfolio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/portfolio"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/quote"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/stock"
)

// QuoteCache is the staleness-tolerant price lookup valuation uses.
// Valuation never triggers provider fetches; a slightly old price
// beats a slow response.
type QuoteCache interface {
	GetCachedQuote(ctx context.Context, symbol string) (*quote.Quote, bool)
}

// Service manages portfolios and values them at current prices.
type Service struct {
	repo   portfolio.Repository
	stocks stock.Repository
	prices QuoteCache
}

// NewService creates a new portfolio service
func NewService(repo portfolio.Repository, stocks stock.Repository, prices QuoteCache) *Service {
	return &Service{repo: repo, stocks: stocks, prices: prices}
}

// ListForUser returns the user's portfolios.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]portfolio.Portfolio, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns one portfolio, enforcing ownership.
func (s *Service) Get(ctx context.Context, userID string, id int64) (*portfolio.Portfolio, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, portfolio.ErrNotOwner
	}
	return p, nil
}

// Create adds a new portfolio for the user.
func (s *Service) Create(ctx context.Context, userID, name string) (*portfolio.Portfolio, error) {
	name = strings.TrimSpace(name)
	if len(name) == 0 || len(name) > 100 {
		return nil, portfolio.ErrInvalidName
	}
	return s.repo.Create(ctx, userID, name)
}

// Delete removes a portfolio, enforcing ownership.
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// SetHolding creates or replaces a position, enforcing ownership.
func (s *Service) SetHolding(ctx context.Context, userID string, id int64, symbol string, quantity, avgPrice decimal.Decimal) (*portfolio.Holding, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := portfolio.ValidateHolding(quantity, avgPrice); err != nil {
		return nil, err
	}

	st, err := s.stocks.GetBySymbol(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return nil, err
	}

	return s.repo.UpsertHolding(ctx, id, st.ID, quantity, avgPrice)
}

// RemoveHolding deletes a position, enforcing ownership.
func (s *Service) RemoveHolding(ctx context.Context, userID string, portfolioID, holdingID int64) error {
	if _, err := s.Get(ctx, userID, portfolioID); err != nil {
		return err
	}
	return s.repo.DeleteHolding(ctx, portfolioID, holdingID)
}

// Value prices every holding of a portfolio. Cached quotes win; the
// last persisted stock price is the fallback. Holdings with no price
// anywhere are reported unpriced and left out of the totals.
func (s *Service) Value(ctx context.Context, userID string, id int64) (*portfolio.Valuation, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}

	holdings, err := s.repo.ListHoldings(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}

	v := &portfolio.Valuation{
		PortfolioID: id,
		Holdings:    make([]portfolio.HoldingValuation, 0, len(holdings)),
		AsOf:        time.Now(),
	}

	for _, h := range holdings {
		price, source, ok := s.resolvePrice(ctx, h.Symbol)
		if !ok {
			v.Unpriced = append(v.Unpriced, h.Symbol)
			continue
		}

		invested := h.InvestedValue()
		current := h.Quantity.Mul(price)
		gain := current.Sub(invested)

		hv := portfolio.HoldingValuation{
			Holding:       h,
			CurrentPrice:  price,
			PriceSource:   source,
			InvestedValue: invested,
			CurrentValue:  current,
			GainLoss:      gain,
		}
		if invested.IsPositive() {
			hv.GainLossPct = gain.Div(invested).InexactFloat64() * 100
		}

		v.Holdings = append(v.Holdings, hv)
		v.InvestedValue = v.InvestedValue.Add(invested)
		v.CurrentValue = v.CurrentValue.Add(current)
	}

	v.GainLoss = v.CurrentValue.Sub(v.InvestedValue)
	if v.InvestedValue.IsPositive() {
		v.GainLossPct = v.GainLoss.Div(v.InvestedValue).InexactFloat64() * 100
	}

	return v, nil
}

// resolvePrice tries the cache namespaces, then the stock row.
func (s *Service) resolvePrice(ctx context.Context, symbol string) (decimal.Decimal, string, bool) {
	if q, ok := s.prices.GetCachedQuote(ctx, symbol); ok {
		return q.Price, string(q.Source), true
	}

	st, err := s.stocks.GetBySymbol(ctx, symbol)
	if err == nil && st.CurrentPrice != nil && st.CurrentPrice.IsPositive() {
		return *st.CurrentPrice, string(quote.SourceDatabase), true
	}

	return decimal.Zero, "", false
}
