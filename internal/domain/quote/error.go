package quote

import "errors"

var (
	// Validation errors
	ErrInvalidSymbol  = errors.New("invalid symbol format")
	ErrTooManySymbols = errors.New("too many symbols in batch request")

	// Resolution errors
	ErrQuoteUnavailable = errors.New("quote not available from any source")
)
