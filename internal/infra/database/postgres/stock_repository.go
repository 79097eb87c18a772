package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/stock"
)

// StockRepository implements stock.Repository using PostgreSQL
type StockRepository struct {
	pool *Pool
}

// NewStockRepository creates a new StockRepository
func NewStockRepository(pool *Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

const stockColumns = `id, symbol, name, exchange, sector, industry, market_cap,
       current_price, day_change, day_change_pct,
       week_52_high, week_52_low, pe_ratio, tracked,
       price_updated_ts, created_ts, updated_ts`

// prefixedStockColumns qualifies the column list for joined queries.
func prefixedStockColumns(alias string) string {
	cols := strings.Split(stockColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func scanStock(row pgx.Row) (*stock.Stock, error) {
	var s stock.Stock
	err := row.Scan(
		&s.ID, &s.Symbol, &s.Name, &s.Exchange, &s.Sector, &s.Industry, &s.MarketCap,
		&s.CurrentPrice, &s.DayChange, &s.DayChangePct,
		&s.Week52High, &s.Week52Low, &s.PERatio, &s.Tracked,
		&s.PriceUpdatedTS, &s.CreatedTS, &s.UpdatedTS,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns paginated stocks with filters
func (r *StockRepository) List(ctx context.Context, filter stock.ListFilter) (*stock.ListResult, error) {
	whereClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Exchange != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("exchange = $%d", argIndex))
		args = append(args, *filter.Exchange)
		argIndex++
	}

	if filter.Sector != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("sector = $%d", argIndex))
		args = append(args, *filter.Sector)
		argIndex++
	}

	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		whereClauses = append(whereClauses, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(symbol) LIKE $%d)", argIndex, argIndex))
		args = append(args, searchPattern)
		argIndex++
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM stocks %s", whereClause)
	var totalCount int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count stocks: %w", err)
	}

	orderByClause := fmt.Sprintf("ORDER BY %s %s", filter.Sort, strings.ToUpper(filter.Order))
	if filter.Sort == "market_cap" {
		// NULL market caps sort last either way
		orderByClause = fmt.Sprintf("ORDER BY market_cap %s NULLS LAST", strings.ToUpper(filter.Order))
	}

	offset := (filter.Page - 1) * filter.Limit

	query := fmt.Sprintf(`
		SELECT %s
		FROM stocks
		%s
		%s
		LIMIT $%d OFFSET $%d
	`, stockColumns, whereClause, orderByClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	stocks := []stock.Stock{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stocks: %w", err)
	}

	return &stock.ListResult{
		Stocks:     stocks,
		TotalCount: totalCount,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// Search returns stocks matching a name or symbol fragment
func (r *StockRepository) Search(ctx context.Context, query string, limit int) ([]stock.Stock, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	sql := fmt.Sprintf(`
		SELECT %s
		FROM stocks
		WHERE LOWER(name) LIKE $1 OR LOWER(symbol) LIKE $1
		ORDER BY market_cap DESC NULLS LAST
		LIMIT $2
	`, stockColumns)

	rows, err := r.pool.Query(ctx, sql, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search stocks: %w", err)
	}
	defer rows.Close()

	stocks := []stock.Stock{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stocks: %w", err)
	}
	return stocks, nil
}

// GetBySymbol returns a stock by symbol
func (r *StockRepository) GetBySymbol(ctx context.Context, symbol string) (*stock.Stock, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM stocks
		WHERE symbol = $1
	`, stockColumns)

	s, err := scanStock(r.pool.QueryRow(ctx, query, symbol))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, stock.ErrStockNotFound
		}
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return s, nil
}

// Create inserts a new stock row
func (r *StockRepository) Create(ctx context.Context, s *stock.Stock) (*stock.Stock, error) {
	query := fmt.Sprintf(`
		INSERT INTO stocks (symbol, name, exchange, sector, industry, market_cap,
		                    current_price, day_change, day_change_pct,
		                    week_52_high, week_52_low, pe_ratio, tracked,
		                    price_updated_ts, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		ON CONFLICT (symbol) DO NOTHING
		RETURNING %s
	`, stockColumns)

	created, err := scanStock(r.pool.QueryRow(ctx, query,
		s.Symbol, s.Name, s.Exchange, s.Sector, s.Industry, s.MarketCap,
		s.CurrentPrice, s.DayChange, s.DayChangePct,
		s.Week52High, s.Week52Low, s.PERatio, s.Tracked,
		s.PriceUpdatedTS,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, stock.ErrStockExists
		}
		return nil, fmt.Errorf("failed to create stock: %w", err)
	}
	return created, nil
}

// UpdatePrice updates only the price fields of a stock
func (r *StockRepository) UpdatePrice(ctx context.Context, update stock.PriceUpdate) error {
	query := `
		UPDATE stocks
		SET current_price    = $2,
		    day_change       = $3,
		    day_change_pct   = $4,
		    week_52_high     = COALESCE($5, week_52_high),
		    week_52_low      = COALESCE($6, week_52_low),
		    pe_ratio         = COALESCE($7, pe_ratio),
		    price_updated_ts = $8,
		    updated_ts       = NOW()
		WHERE symbol = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		update.Symbol, update.Price, update.Change, update.ChangePct,
		update.Week52High, update.Week52Low, update.PERatio, update.ObservedTS,
	)
	if err != nil {
		return fmt.Errorf("failed to update stock price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return stock.ErrStockNotFound
	}
	return nil
}

// ListTracked returns the stream universe, symbol-ordered
func (r *StockRepository) ListTracked(ctx context.Context, limit int) ([]stock.Stock, error) {
	if limit <= 0 || limit > 25 {
		limit = 25
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM stocks
		WHERE tracked = TRUE
		ORDER BY symbol ASC
		LIMIT $1
	`, stockColumns)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked stocks: %w", err)
	}
	defer rows.Close()

	stocks := []stock.Stock{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stocks: %w", err)
	}
	return stocks, nil
}
