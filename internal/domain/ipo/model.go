package ipo

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents where an IPO sits in its lifecycle
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOpen     Status = "open"
	StatusClosed   Status = "closed"
	StatusListed   Status = "listed"
)

// IsValid checks if status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusOpen, StatusClosed, StatusListed:
		return true
	default:
		return false
	}
}

// Verdict is the advisor's recommendation for an IPO
type Verdict string

const (
	VerdictApply   Verdict = "APPLY"
	VerdictNeutral Verdict = "NEUTRAL"
	VerdictAvoid   Verdict = "AVOID"
)

// IPO represents a public offering and its advisory inputs.
// Maps to the ipos table.
type IPO struct {
	ID            int64            `json:"id" db:"id"`
	CompanyName   string           `json:"company_name" db:"company_name"`
	Symbol        *string          `json:"symbol" db:"symbol"` // assigned at listing
	PriceBandLow  *decimal.Decimal `json:"price_band_low" db:"price_band_low"`
	PriceBandHigh *decimal.Decimal `json:"price_band_high" db:"price_band_high"`
	LotSize       *int             `json:"lot_size" db:"lot_size"`
	OpenDate      *time.Time       `json:"open_date" db:"open_date"`
	CloseDate     *time.Time       `json:"close_date" db:"close_date"`
	ListingDate   *time.Time       `json:"listing_date" db:"listing_date"`
	Status        Status           `json:"status" db:"status"`

	// Advisory inputs
	GMPPercent      *float64 `json:"gmp_percent" db:"gmp_percent"` // grey market premium over band high
	SubscriptionQIB *float64 `json:"subscription_qib" db:"subscription_qib"`
	SubscriptionNII *float64 `json:"subscription_nii" db:"subscription_nii"`
	SubscriptionRet *float64 `json:"subscription_retail" db:"subscription_retail"`
	RevenueCAGR     *float64 `json:"revenue_cagr" db:"revenue_cagr"`
	ProfitMargin    *float64 `json:"profit_margin" db:"profit_margin"`
	DebtToEquity    *float64 `json:"debt_to_equity" db:"debt_to_equity"`
	PromoterHolding *float64 `json:"promoter_holding" db:"promoter_holding"`

	// Advisory output
	Verdict   *Verdict   `json:"verdict" db:"verdict"`
	Score     *int       `json:"score" db:"score"`
	Reasons   []string   `json:"reasons" db:"reasons"`
	Risks     []string   `json:"risks" db:"risks"`
	AdvisedTS *time.Time `json:"advised_ts" db:"advised_ts"`

	CreatedTS time.Time `json:"created_ts" db:"created_ts"`
	UpdatedTS time.Time `json:"updated_ts" db:"updated_ts"`
}

// Advice is the result of scoring an IPO.
type Advice struct {
	Verdict Verdict  `json:"verdict"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
	Risks   []string `json:"risks"`
}

// MetricsUpdate carries refreshed grey-market and subscription numbers.
type MetricsUpdate struct {
	ID              int64
	GMPPercent      *float64
	SubscriptionQIB *float64
	SubscriptionNII *float64
	SubscriptionRet *float64
}
