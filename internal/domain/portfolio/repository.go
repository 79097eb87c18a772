package portfolio

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for portfolio data access
type Repository interface {
	// ListByUser returns all portfolios of a user
	ListByUser(ctx context.Context, userID string) ([]Portfolio, error)

	// GetByID returns a portfolio by id
	GetByID(ctx context.Context, id int64) (*Portfolio, error)

	// Create inserts a new portfolio
	Create(ctx context.Context, userID, name string) (*Portfolio, error)

	// Delete removes a portfolio and its holdings
	Delete(ctx context.Context, id int64) error

	// ListHoldings returns all holdings of a portfolio
	ListHoldings(ctx context.Context, portfolioID int64) ([]Holding, error)

	// UpsertHolding inserts a holding or replaces quantity and average
	// price of an existing one
	UpsertHolding(ctx context.Context, portfolioID, stockID int64, quantity, avgPrice decimal.Decimal) (*Holding, error)

	// DeleteHolding removes a holding
	DeleteHolding(ctx context.Context, portfolioID, holdingID int64) error
}
