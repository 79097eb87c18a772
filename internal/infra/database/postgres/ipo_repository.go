package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/ipo"
)

// IPORepository implements ipo.Repository using PostgreSQL
type IPORepository struct {
	pool *Pool
}

// NewIPORepository creates a new IPORepository
func NewIPORepository(pool *Pool) *IPORepository {
	return &IPORepository{pool: pool}
}

const ipoColumns = `id, company_name, symbol, price_band_low, price_band_high, lot_size,
       open_date, close_date, listing_date, status,
       gmp_percent, subscription_qib, subscription_nii, subscription_retail,
       revenue_cagr, profit_margin, debt_to_equity, promoter_holding,
       verdict, score, reasons, risks, advised_ts, created_ts, updated_ts`

func scanIPO(row pgx.Row) (*ipo.IPO, error) {
	var i ipo.IPO
	err := row.Scan(
		&i.ID, &i.CompanyName, &i.Symbol, &i.PriceBandLow, &i.PriceBandHigh, &i.LotSize,
		&i.OpenDate, &i.CloseDate, &i.ListingDate, &i.Status,
		&i.GMPPercent, &i.SubscriptionQIB, &i.SubscriptionNII, &i.SubscriptionRet,
		&i.RevenueCAGR, &i.ProfitMargin, &i.DebtToEquity, &i.PromoterHolding,
		&i.Verdict, &i.Score, &i.Reasons, &i.Risks, &i.AdvisedTS, &i.CreatedTS, &i.UpdatedTS,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// List returns IPOs, optionally filtered by status, open-date ordered
func (r *IPORepository) List(ctx context.Context, status *ipo.Status) ([]ipo.IPO, error) {
	query := fmt.Sprintf(`SELECT %s FROM ipos`, ipoColumns)
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY open_date ASC NULLS LAST`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ipos: %w", err)
	}
	defer rows.Close()

	ipos := []ipo.IPO{}
	for rows.Next() {
		i, err := scanIPO(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ipo: %w", err)
		}
		ipos = append(ipos, *i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ipos: %w", err)
	}
	return ipos, nil
}

// GetByID returns an IPO by id
func (r *IPORepository) GetByID(ctx context.Context, id int64) (*ipo.IPO, error) {
	query := fmt.Sprintf(`SELECT %s FROM ipos WHERE id = $1`, ipoColumns)

	i, err := scanIPO(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ipo.ErrIPONotFound
		}
		return nil, fmt.Errorf("failed to get ipo: %w", err)
	}
	return i, nil
}

// UpdateMetrics updates grey-market and subscription numbers
func (r *IPORepository) UpdateMetrics(ctx context.Context, update ipo.MetricsUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ipos
		SET gmp_percent         = COALESCE($2, gmp_percent),
		    subscription_qib    = COALESCE($3, subscription_qib),
		    subscription_nii    = COALESCE($4, subscription_nii),
		    subscription_retail = COALESCE($5, subscription_retail),
		    updated_ts          = NOW()
		WHERE id = $1
	`, update.ID, update.GMPPercent, update.SubscriptionQIB, update.SubscriptionNII, update.SubscriptionRet)
	if err != nil {
		return fmt.Errorf("failed to update ipo metrics: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ipo.ErrIPONotFound
	}
	return nil
}

// UpdateAdvice persists an advisor verdict
func (r *IPORepository) UpdateAdvice(ctx context.Context, id int64, advice ipo.Advice) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ipos
		SET verdict    = $2,
		    score      = $3,
		    reasons    = $4,
		    risks      = $5,
		    advised_ts = NOW(),
		    updated_ts = NOW()
		WHERE id = $1
	`, id, advice.Verdict, advice.Score, advice.Reasons, advice.Risks)
	if err != nil {
		return fmt.Errorf("failed to update ipo advice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ipo.ErrIPONotFound
	}
	return nil
}
