package watchlist

import (
	"strings"
	"time"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/stock"
)

// Watchlist represents a named collection of stocks owned by a user.
// Maps to the watchlists table; membership lives in watchlist_stocks.
type Watchlist struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedTS time.Time `json:"created_ts" db:"created_ts"`
	UpdatedTS time.Time `json:"updated_ts" db:"updated_ts"`

	// Populated on detail reads only
	Stocks []stock.Stock `json:"stocks,omitempty" db:"-"`
}

// ValidateName validates a watchlist name
func ValidateName(name string) bool {
	name = strings.TrimSpace(name)
	return len(name) >= 1 && len(name) <= 100
}
