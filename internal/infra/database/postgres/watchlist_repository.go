package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/stock"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/watchlist"
)

// WatchlistRepository implements watchlist.Repository using PostgreSQL
type WatchlistRepository struct {
	pool *Pool
}

// NewWatchlistRepository creates a new WatchlistRepository
func NewWatchlistRepository(pool *Pool) *WatchlistRepository {
	return &WatchlistRepository{pool: pool}
}

// ListByUser returns all watchlists of a user, without membership
func (r *WatchlistRepository) ListByUser(ctx context.Context, userID string) ([]watchlist.Watchlist, error) {
	query := `
		SELECT id, user_id, name, created_ts, updated_ts
		FROM watchlists
		WHERE user_id = $1
		ORDER BY created_ts ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlists: %w", err)
	}
	defer rows.Close()

	lists := []watchlist.Watchlist{}
	for rows.Next() {
		var w watchlist.Watchlist
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedTS, &w.UpdatedTS); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist: %w", err)
		}
		lists = append(lists, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlists: %w", err)
	}
	return lists, nil
}

// GetByID returns a watchlist with its stocks populated
func (r *WatchlistRepository) GetByID(ctx context.Context, id int64) (*watchlist.Watchlist, error) {
	var w watchlist.Watchlist
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, created_ts, updated_ts
		FROM watchlists
		WHERE id = $1
	`, id).Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedTS, &w.UpdatedTS)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, watchlist.ErrWatchlistNotFound
		}
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM stocks s
		JOIN watchlist_stocks ws ON ws.stock_id = s.id
		WHERE ws.watchlist_id = $1
		ORDER BY s.symbol ASC
	`, prefixedStockColumns("s"))

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist stocks: %w", err)
	}
	defer rows.Close()

	w.Stocks = []stock.Stock{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist stock: %w", err)
		}
		w.Stocks = append(w.Stocks, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist stocks: %w", err)
	}
	return &w, nil
}

// Create inserts a new watchlist
func (r *WatchlistRepository) Create(ctx context.Context, userID, name string) (*watchlist.Watchlist, error) {
	var w watchlist.Watchlist
	err := r.pool.QueryRow(ctx, `
		INSERT INTO watchlists (user_id, name, created_ts, updated_ts)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, user_id, name, created_ts, updated_ts
	`, userID, name).Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedTS, &w.UpdatedTS)
	if err != nil {
		return nil, fmt.Errorf("failed to create watchlist: %w", err)
	}
	return &w, nil
}

// Delete removes a watchlist and its memberships
func (r *WatchlistRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM watchlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return watchlist.ErrWatchlistNotFound
	}
	return nil
}

// AddStock adds a stock to a watchlist
func (r *WatchlistRepository) AddStock(ctx context.Context, watchlistID, stockID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO watchlist_stocks (watchlist_id, stock_id, created_ts)
		VALUES ($1, $2, NOW())
	`, watchlistID, stockID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return watchlist.ErrAlreadyWatched
		}
		return fmt.Errorf("failed to add stock to watchlist: %w", err)
	}
	return nil
}

// RemoveStock removes a stock from a watchlist
func (r *WatchlistRepository) RemoveStock(ctx context.Context, watchlistID, stockID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM watchlist_stocks
		WHERE watchlist_id = $1 AND stock_id = $2
	`, watchlistID, stockID)
	if err != nil {
		return fmt.Errorf("failed to remove stock from watchlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return watchlist.ErrNotWatched
	}
	return nil
}
