package quote

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source represents the provider a quote was resolved from
type Source string

const (
	SourceIEX          Source = "iexcloud"     // IEX Cloud (primary, freshest)
	SourceAlphaVantage Source = "alphavantage" // Alpha Vantage (fallback)
	SourceCache        Source = "cache"        // served from a cache namespace
	SourceDatabase     Source = "database"     // last persisted price
)

// IsValid checks if source is valid
func (s Source) IsValid() bool {
	switch s {
	case SourceIEX, SourceAlphaVantage, SourceCache, SourceDatabase:
		return true
	default:
		return false
	}
}

// Quote represents a resolved market quote for a single symbol
type Quote struct {
	Symbol        string          `json:"symbol"`
	CompanyName   string          `json:"companyName,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent float64         `json:"changePercent"`
	Volume        int64           `json:"volume"`
	MarketCap     *int64          `json:"marketCap,omitempty"`
	Week52High    *float64        `json:"week52High,omitempty"`
	Week52Low     *float64        `json:"week52Low,omitempty"`
	PERatio       *float64        `json:"peRatio,omitempty"`
	Source        Source          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Usable reports whether the quote carries a tradable price.
// A zero or negative price means the provider had nothing for the
// symbol; such quotes are never cached or broadcast.
func (q *Quote) Usable() bool {
	return q != nil && q.Price.IsPositive()
}

// Delta is the wire-format price update pushed to stream subscribers.
type Delta struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Timestamp     int64   `json:"timestamp"`
}

// ToDelta converts a quote to its stream wire format.
func (q *Quote) ToDelta() Delta {
	return Delta{
		Symbol:        q.Symbol,
		Price:         q.Price.InexactFloat64(),
		Change:        q.Change.InexactFloat64(),
		ChangePercent: q.ChangePercent,
		Timestamp:     q.Timestamp.UnixMilli(),
	}
}

// NormalizeSymbol canonicalizes a user-supplied symbol. Symbols are
// upper-case with an optional exchange suffix (e.g. RELIANCE.NS).
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidateSymbol validates symbol format: 1-20 chars, alphanumeric
// plus '.' and '-'.
func ValidateSymbol(symbol string) bool {
	if len(symbol) == 0 || len(symbol) > 20 {
		return false
	}
	for _, c := range symbol {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '-':
		default:
			return false
		}
	}
	return true
}

// BatchResult represents the outcome of a multi-symbol lookup.
// Failed symbols are reported, never silently dropped.
type BatchResult struct {
	Quotes        []Quote  `json:"quotes"`
	Requested     int      `json:"requested"`
	Successful    int      `json:"successful"`
	Failed        int      `json:"failed"`
	FailedSymbols []string `json:"failedSymbols"`
}
