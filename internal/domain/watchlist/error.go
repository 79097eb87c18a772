package watchlist

import "errors"

var (
	ErrInvalidName       = errors.New("invalid watchlist name")
	ErrWatchlistNotFound = errors.New("watchlist not found")
	ErrNotOwner          = errors.New("watchlist does not belong to user")
	ErrAlreadyWatched    = errors.New("stock already in watchlist")
	ErrNotWatched        = errors.New("stock not in watchlist")
)
