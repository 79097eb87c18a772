package ipo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/ipo"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/cache"
)

const (
	listCacheKey    = "ipos:all"
	listCachePrefix = "ipos:status:"
	listCacheTTL    = 300 * time.Second
)

// Advisor thresholds. Each satisfied signal moves the score; the
// final verdict is a plain cut on the sum.
const (
	gmpStrongPct       = 20.0
	qibStrongSub       = 3.0
	cagrStrongPct      = 25.0
	promoterStrongPct  = 60.0
	debtHeavyRatio     = 2.0
	marginThinPct      = 5.0
	applyScoreCutoff   = 4
	neutralScoreCutoff = 2
)

// Service manages IPO listings and the advisory verdict.
type Service struct {
	repo  ipo.Repository
	cache *cache.Cache
}

// NewService creates a new IPO service
func NewService(repo ipo.Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

// List returns IPOs, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *ipo.Status) ([]ipo.IPO, error) {
	if status != nil && !status.IsValid() {
		return nil, ipo.ErrInvalidStatus
	}

	cacheKey := listCacheKey
	if status != nil {
		cacheKey = listCachePrefix + string(*status)
	}

	var cached []ipo.IPO
	if s.cache.GetJSON(ctx, cacheKey, &cached) {
		return cached, nil
	}

	ipos, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list ipos: %w", err)
	}

	s.cache.SetJSON(ctx, cacheKey, ipos, listCacheTTL)
	return ipos, nil
}

// Get returns one IPO by id.
func (s *Service) Get(ctx context.Context, id int64) (*ipo.IPO, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateMetrics stores refreshed grey-market and subscription numbers
// and recomputes the verdict from the new inputs.
func (s *Service) UpdateMetrics(ctx context.Context, update ipo.MetricsUpdate) (*ipo.IPO, error) {
	if err := s.repo.UpdateMetrics(ctx, update); err != nil {
		return nil, err
	}

	i, err := s.repo.GetByID(ctx, update.ID)
	if err != nil {
		return nil, err
	}

	advice := Advise(i)
	if err := s.repo.UpdateAdvice(ctx, i.ID, advice); err != nil {
		return nil, err
	}
	i.Verdict = &advice.Verdict
	i.Score = &advice.Score
	i.Reasons = advice.Reasons
	i.Risks = advice.Risks

	s.invalidate(ctx)
	return i, nil
}

// ReviseAll recomputes verdicts for every IPO. Used by the ops CLI.
func (s *Service) ReviseAll(ctx context.Context) (int, error) {
	ipos, err := s.repo.List(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("list ipos: %w", err)
	}

	revised := 0
	for idx := range ipos {
		i := &ipos[idx]
		advice := Advise(i)
		if err := s.repo.UpdateAdvice(ctx, i.ID, advice); err != nil {
			log.Warn().Err(err).Int64("ipo_id", i.ID).Msg("IPO advice update failed")
			continue
		}
		revised++
	}

	s.invalidate(ctx)
	return revised, nil
}

func (s *Service) invalidate(ctx context.Context) {
	s.cache.Delete(ctx, listCacheKey)
	s.cache.DeletePattern(ctx, listCachePrefix+"*")
}

// Advise scores an IPO from its advisory inputs. Signals with missing
// inputs contribute nothing either way.
func Advise(i *ipo.IPO) ipo.Advice {
	score := 0
	var reasons, risks []string

	if i.GMPPercent != nil {
		if *i.GMPPercent > gmpStrongPct {
			score += 2
			reasons = append(reasons, fmt.Sprintf("Strong grey market premium of %.1f%%", *i.GMPPercent))
		} else if *i.GMPPercent < 0 {
			risks = append(risks, "Grey market premium is negative")
		}
	}

	if i.SubscriptionQIB != nil {
		if *i.SubscriptionQIB > qibStrongSub {
			score += 2
			reasons = append(reasons, fmt.Sprintf("QIB portion subscribed %.1fx", *i.SubscriptionQIB))
		} else if *i.SubscriptionQIB < 1 {
			risks = append(risks, "QIB portion undersubscribed")
		}
	}

	if i.RevenueCAGR != nil && *i.RevenueCAGR > cagrStrongPct {
		score++
		reasons = append(reasons, fmt.Sprintf("Revenue growing at %.1f%% CAGR", *i.RevenueCAGR))
	}

	if i.PromoterHolding != nil && *i.PromoterHolding > promoterStrongPct {
		score++
		reasons = append(reasons, fmt.Sprintf("High promoter holding of %.1f%%", *i.PromoterHolding))
	}

	if i.DebtToEquity != nil && *i.DebtToEquity > debtHeavyRatio {
		score -= 2
		risks = append(risks, fmt.Sprintf("Debt-to-equity ratio of %.2f is high", *i.DebtToEquity))
	}

	if i.ProfitMargin != nil && *i.ProfitMargin < marginThinPct {
		score--
		risks = append(risks, fmt.Sprintf("Thin profit margin of %.1f%%", *i.ProfitMargin))
	}

	verdict := ipo.VerdictAvoid
	switch {
	case score >= applyScoreCutoff:
		verdict = ipo.VerdictApply
	case score >= neutralScoreCutoff:
		verdict = ipo.VerdictNeutral
	}

	return ipo.Advice{
		Verdict: verdict,
		Score:   score,
		Reasons: reasons,
		Risks:   risks,
	}
}
