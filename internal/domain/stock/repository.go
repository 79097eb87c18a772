package stock

import "context"

// Repository defines the interface for stock data access
type Repository interface {
	// List returns paginated stocks with filters
	List(ctx context.Context, filter ListFilter) (*ListResult, error)

	// Search returns stocks matching a name or symbol fragment
	Search(ctx context.Context, query string, limit int) ([]Stock, error)

	// GetBySymbol returns a stock by symbol
	GetBySymbol(ctx context.Context, symbol string) (*Stock, error)

	// Create inserts a new stock row
	Create(ctx context.Context, s *Stock) (*Stock, error)

	// UpdatePrice updates only the price fields of a stock
	UpdatePrice(ctx context.Context, update PriceUpdate) error

	// ListTracked returns the symbols of the stream universe,
	// symbol-ordered, capped at limit
	ListTracked(ctx context.Context, limit int) ([]Stock, error)
}
