package portfolio

import "errors"

var (
	ErrInvalidName       = errors.New("invalid portfolio name")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidAvgPrice   = errors.New("average price must be positive")
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrHoldingNotFound   = errors.New("holding not found")
	ErrNotOwner          = errors.New("portfolio does not belong to user")
)
