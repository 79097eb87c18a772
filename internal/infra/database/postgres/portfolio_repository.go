package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/portfolio"
)

// PortfolioRepository implements portfolio.Repository using PostgreSQL
type PortfolioRepository struct {
	pool *Pool
}

// NewPortfolioRepository creates a new PortfolioRepository
func NewPortfolioRepository(pool *Pool) *PortfolioRepository {
	return &PortfolioRepository{pool: pool}
}

// ListByUser returns all portfolios of a user
func (r *PortfolioRepository) ListByUser(ctx context.Context, userID string) ([]portfolio.Portfolio, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, created_ts, updated_ts
		FROM portfolios
		WHERE user_id = $1
		ORDER BY created_ts ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	portfolios := []portfolio.Portfolio{}
	for rows.Next() {
		var p portfolio.Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedTS, &p.UpdatedTS); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}
	return portfolios, nil
}

// GetByID returns a portfolio by id
func (r *PortfolioRepository) GetByID(ctx context.Context, id int64) (*portfolio.Portfolio, error) {
	var p portfolio.Portfolio
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, created_ts, updated_ts
		FROM portfolios
		WHERE id = $1
	`, id).Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedTS, &p.UpdatedTS)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, portfolio.ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return &p, nil
}

// Create inserts a new portfolio
func (r *PortfolioRepository) Create(ctx context.Context, userID, name string) (*portfolio.Portfolio, error) {
	var p portfolio.Portfolio
	err := r.pool.QueryRow(ctx, `
		INSERT INTO portfolios (user_id, name, created_ts, updated_ts)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, user_id, name, created_ts, updated_ts
	`, userID, name).Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedTS, &p.UpdatedTS)
	if err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}
	return &p, nil
}

// Delete removes a portfolio and its holdings
func (r *PortfolioRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return portfolio.ErrPortfolioNotFound
	}
	return nil
}

// ListHoldings returns all holdings of a portfolio
func (r *PortfolioRepository) ListHoldings(ctx context.Context, portfolioID int64) ([]portfolio.Holding, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT h.id, h.portfolio_id, h.stock_id, s.symbol,
		       h.quantity, h.avg_price, h.created_ts, h.updated_ts
		FROM holdings h
		JOIN stocks s ON s.id = h.stock_id
		WHERE h.portfolio_id = $1
		ORDER BY s.symbol ASC
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := []portfolio.Holding{}
	for rows.Next() {
		var h portfolio.Holding
		err := rows.Scan(&h.ID, &h.PortfolioID, &h.StockID, &h.Symbol,
			&h.Quantity, &h.AvgPrice, &h.CreatedTS, &h.UpdatedTS)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}
	return holdings, nil
}

// UpsertHolding inserts a holding or replaces quantity and average
// price of an existing one
func (r *PortfolioRepository) UpsertHolding(ctx context.Context, portfolioID, stockID int64, quantity, avgPrice decimal.Decimal) (*portfolio.Holding, error) {
	var h portfolio.Holding
	err := r.pool.QueryRow(ctx, `
		INSERT INTO holdings (portfolio_id, stock_id, quantity, avg_price, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (portfolio_id, stock_id)
		DO UPDATE SET quantity = EXCLUDED.quantity,
		              avg_price = EXCLUDED.avg_price,
		              updated_ts = NOW()
		RETURNING id, portfolio_id, stock_id, quantity, avg_price, created_ts, updated_ts
	`, portfolioID, stockID, quantity, avgPrice).Scan(
		&h.ID, &h.PortfolioID, &h.StockID, &h.Quantity, &h.AvgPrice, &h.CreatedTS, &h.UpdatedTS)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert holding: %w", err)
	}

	if err := r.pool.QueryRow(ctx, `SELECT symbol FROM stocks WHERE id = $1`, stockID).Scan(&h.Symbol); err != nil {
		return nil, fmt.Errorf("failed to resolve holding symbol: %w", err)
	}
	return &h, nil
}

// DeleteHolding removes a holding
func (r *PortfolioRepository) DeleteHolding(ctx context.Context, portfolioID, holdingID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM holdings
		WHERE id = $1 AND portfolio_id = $2
	`, holdingID, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return portfolio.ErrHoldingNotFound
	}
	return nil
}
