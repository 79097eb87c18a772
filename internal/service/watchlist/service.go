package watchlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/stock"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/watchlist"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/cache"
)

const (
	listCachePrefix = "watchlists:"
	listCacheTTL    = 60 * time.Second
)

// Service manages user watchlists with a short-lived list cache.
// Every mutation invalidates the owner's cache entry.
type Service struct {
	repo   watchlist.Repository
	stocks stock.Repository
	cache  *cache.Cache
}

// NewService creates a new watchlist service
func NewService(repo watchlist.Repository, stocks stock.Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, stocks: stocks, cache: c}
}

// ListForUser returns the user's watchlists.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]watchlist.Watchlist, error) {
	cacheKey := listCachePrefix + userID

	var cached []watchlist.Watchlist
	if s.cache.GetJSON(ctx, cacheKey, &cached) {
		return cached, nil
	}

	lists, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list watchlists: %w", err)
	}

	s.cache.SetJSON(ctx, cacheKey, lists, listCacheTTL)
	return lists, nil
}

// Get returns one watchlist with its stocks, enforcing ownership.
func (s *Service) Get(ctx context.Context, userID string, id int64) (*watchlist.Watchlist, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, watchlist.ErrNotOwner
	}
	return w, nil
}

// Create adds a new watchlist for the user.
func (s *Service) Create(ctx context.Context, userID, name string) (*watchlist.Watchlist, error) {
	name = strings.TrimSpace(name)
	if !watchlist.ValidateName(name) {
		return nil, watchlist.ErrInvalidName
	}

	w, err := s.repo.Create(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("create watchlist: %w", err)
	}

	s.cache.Delete(ctx, listCachePrefix+userID)
	log.Info().Str("user_id", userID).Int64("watchlist_id", w.ID).Msg("Watchlist created")
	return w, nil
}

// Delete removes a watchlist, enforcing ownership.
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(ctx, listCachePrefix+userID)
	return nil
}

// AddStock adds a symbol to a watchlist, enforcing ownership. The
// symbol must already exist as a stock row.
func (s *Service) AddStock(ctx context.Context, userID string, id int64, symbol string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	st, err := s.stocks.GetBySymbol(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return err
	}

	if err := s.repo.AddStock(ctx, id, st.ID); err != nil {
		return err
	}
	s.cache.Delete(ctx, listCachePrefix+userID)
	return nil
}

// RemoveStock removes a symbol from a watchlist, enforcing ownership.
func (s *Service) RemoveStock(ctx context.Context, userID string, id int64, symbol string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	st, err := s.stocks.GetBySymbol(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return err
	}

	if err := s.repo.RemoveStock(ctx, id, st.ID); err != nil {
		return err
	}
	s.cache.Delete(ctx, listCachePrefix+userID)
	return nil
}
