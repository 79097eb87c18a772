package stock

import "errors"

var (
	// Validation errors
	ErrInvalidSymbol   = errors.New("invalid stock symbol format")
	ErrInvalidExchange = errors.New("invalid exchange value")
	ErrInvalidSort     = errors.New("invalid sort field")
	ErrInvalidOrder    = errors.New("invalid order direction")

	// Data errors
	ErrStockNotFound = errors.New("stock not found")
	ErrStockExists   = errors.New("stock already exists")
)
