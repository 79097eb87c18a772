package watchlist

import "context"

// Repository defines the interface for watchlist data access
type Repository interface {
	// ListByUser returns all watchlists of a user, without membership
	ListByUser(ctx context.Context, userID string) ([]Watchlist, error)

	// GetByID returns a watchlist with its stocks populated
	GetByID(ctx context.Context, id int64) (*Watchlist, error)

	// Create inserts a new watchlist
	Create(ctx context.Context, userID, name string) (*Watchlist, error)

	// Delete removes a watchlist and its memberships
	Delete(ctx context.Context, id int64) error

	// AddStock adds a stock to a watchlist
	AddStock(ctx context.Context, watchlistID, stockID int64) error

	// RemoveStock removes a stock from a watchlist
	RemoveStock(ctx context.Context, watchlistID, stockID int64) error
}
