package ipo

import "context"

// Repository defines the interface for IPO data access
type Repository interface {
	// List returns IPOs, optionally filtered by status, open-date ordered
	List(ctx context.Context, status *Status) ([]IPO, error)

	// GetByID returns an IPO by id
	GetByID(ctx context.Context, id int64) (*IPO, error)

	// UpdateMetrics updates grey-market and subscription numbers
	UpdateMetrics(ctx context.Context, update MetricsUpdate) error

	// UpdateAdvice persists an advisor verdict
	UpdateAdvice(ctx context.Context, id int64, advice Advice) error
}
