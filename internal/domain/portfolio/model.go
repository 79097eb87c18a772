package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio represents a user's holdings container.
// Maps to the portfolios table.
type Portfolio struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedTS time.Time `json:"created_ts" db:"created_ts"`
	UpdatedTS time.Time `json:"updated_ts" db:"updated_ts"`
}

// Holding represents one position inside a portfolio.
// Maps to the holdings table.
type Holding struct {
	ID          int64           `json:"id" db:"id"`
	PortfolioID int64           `json:"portfolio_id" db:"portfolio_id"`
	StockID     int64           `json:"stock_id" db:"stock_id"`
	Symbol      string          `json:"symbol" db:"symbol"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	AvgPrice    decimal.Decimal `json:"avg_price" db:"avg_price"` // average acquisition price
	CreatedTS   time.Time       `json:"created_ts" db:"created_ts"`
	UpdatedTS   time.Time       `json:"updated_ts" db:"updated_ts"`
}

// InvestedValue returns quantity * average price.
func (h *Holding) InvestedValue() decimal.Decimal {
	return h.Quantity.Mul(h.AvgPrice)
}

// HoldingValuation is a holding priced at the latest known quote.
type HoldingValuation struct {
	Holding       Holding         `json:"holding"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	PriceSource   string          `json:"priceSource"`
	InvestedValue decimal.Decimal `json:"investedValue"`
	CurrentValue  decimal.Decimal `json:"currentValue"`
	GainLoss      decimal.Decimal `json:"gainLoss"`
	GainLossPct   float64         `json:"gainLossPct"`
}

// Valuation aggregates a full portfolio at current prices.
// Holdings with no resolvable price are listed in Unpriced and
// excluded from the totals.
type Valuation struct {
	PortfolioID   int64              `json:"portfolioId"`
	InvestedValue decimal.Decimal    `json:"investedValue"`
	CurrentValue  decimal.Decimal    `json:"currentValue"`
	GainLoss      decimal.Decimal    `json:"gainLoss"`
	GainLossPct   float64            `json:"gainLossPct"`
	Holdings      []HoldingValuation `json:"holdings"`
	Unpriced      []string           `json:"unpriced,omitempty"`
	AsOf          time.Time          `json:"asOf"`
}

// ValidateHolding validates holding input values
func ValidateHolding(quantity, avgPrice decimal.Decimal) error {
	if !quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if !avgPrice.IsPositive() {
		return ErrInvalidAvgPrice
	}
	return nil
}
