package stock

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock represents a listed company tracked by the platform.
// Maps to the stocks table.
type Stock struct {
	ID             int64            `json:"id" db:"id"`
	Symbol         string           `json:"symbol" db:"symbol"` // exchange-qualified, e.g. RELIANCE.NS
	Name           string           `json:"name" db:"name"`
	Exchange       string           `json:"exchange" db:"exchange"` // NSE | BSE | NYSE | NASDAQ
	Sector         *string          `json:"sector" db:"sector"`
	Industry       *string          `json:"industry" db:"industry"`
	MarketCap      *int64           `json:"market_cap" db:"market_cap"`
	CurrentPrice   *decimal.Decimal `json:"current_price" db:"current_price"`
	DayChange      *decimal.Decimal `json:"day_change" db:"day_change"`
	DayChangePct   *float64         `json:"day_change_pct" db:"day_change_pct"`
	Week52High     *float64         `json:"week_52_high" db:"week_52_high"`
	Week52Low      *float64         `json:"week_52_low" db:"week_52_low"`
	PERatio        *float64         `json:"pe_ratio" db:"pe_ratio"`
	Tracked        bool             `json:"tracked" db:"tracked"` // part of the stream universe
	PriceUpdatedTS *time.Time       `json:"price_updated_ts" db:"price_updated_ts"`
	CreatedTS      time.Time        `json:"created_ts" db:"created_ts"`
	UpdatedTS      time.Time        `json:"updated_ts" db:"updated_ts"`
}

// PriceUpdate carries the price fields written back after a quote resolve.
type PriceUpdate struct {
	Symbol     string
	Price      decimal.Decimal
	Change     decimal.Decimal
	ChangePct  float64
	Week52High *float64
	Week52Low  *float64
	PERatio    *float64
	ObservedTS time.Time
}

// ListFilter represents filter options for listing stocks
type ListFilter struct {
	Exchange *string // NSE, BSE, NYSE, NASDAQ
	Sector   *string
	Search   string // name or symbol, partial match
	Sort     string // symbol, name, market_cap (default: market_cap)
	Order    string // asc, desc (default: desc)
	Page     int    // 1-based
	Limit    int    // default 20, max 100
}

// ListResult represents paginated list result
type ListResult struct {
	Stocks     []Stock `json:"stocks"`
	TotalCount int     `json:"totalCount"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}

// ValidateExchange validates exchange value
func ValidateExchange(exchange string) bool {
	return exchange == "NSE" || exchange == "BSE" || exchange == "NYSE" || exchange == "NASDAQ"
}

// ValidateSort validates sort field
func ValidateSort(sort string) bool {
	return sort == "symbol" || sort == "name" || sort == "market_cap"
}

// ValidateOrder validates order direction
func ValidateOrder(order string) bool {
	return order == "asc" || order == "desc"
}

// Normalize normalizes and validates ListFilter
func (f *ListFilter) Normalize() error {
	if f.Exchange != nil && !ValidateExchange(*f.Exchange) {
		return ErrInvalidExchange
	}

	if f.Sort == "" {
		f.Sort = "market_cap"
	}
	if !ValidateSort(f.Sort) {
		return ErrInvalidSort
	}

	if f.Order == "" {
		f.Order = "desc"
	}
	if !ValidateOrder(f.Order) {
		return ErrInvalidOrder
	}

	if f.Page < 1 {
		f.Page = 1
	}

	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	return nil
}
