package growth

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

// GrowthService computes period-over-period KPIs from portfolio snapshots
type GrowthService struct {
	PortfolioRepo domain.PortfolioRepository
	SnapshotRepo  domain.SnapshotRepository
	Logger        *zap.Logger

	now func() time.Time
}

// NewGrowthService creates a new GrowthService instance
func NewGrowthService(portfolioRepo domain.PortfolioRepository, snapshotRepo domain.SnapshotRepository, logger *zap.Logger) *GrowthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GrowthService{
		PortfolioRepo: portfolioRepo,
		SnapshotRepo:  snapshotRepo,
		Logger:        logger,
		now:           time.Now,
	}
}

// MonthStart returns 00:00 UTC on the first day of t's month
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthlyGrowth returns the growth of the scope's total value since the start of the
// current month, as a fraction rounded to 4 decimals.
// Logic:
//   - current = Σ latest snapshot of every portfolio in scope
//   - start   = Σ latest snapshot taken at or before MonthStart(now)
//   - growth  = current/start - 1
//
// Returns nil when either side has no snapshots or sums to zero, and when the
// repositories fail.
func (s *GrowthService) MonthlyGrowth(ctx context.Context, scope domain.Scope) *float64 {
	now := s.now().UTC()
	monthStart := MonthStart(now)

	ids, err := s.PortfolioRepo.ListIDs(ctx, scope)
	if err != nil {
		s.Logger.Error("failed to list portfolios for monthly growth", zap.String("scope", scope.Key()), zap.Error(err))
		return nil
	}

	current := decimal.Zero
	start := decimal.Zero
	hasCurrent, hasStart := false, false
	for _, id := range ids {
		latest, err := s.SnapshotRepo.LatestBefore(ctx, id, now)
		if err != nil {
			s.Logger.Error("failed to load latest snapshot", zap.String("portfolio_id", id.String()), zap.Error(err))
			return nil
		}
		if latest != nil {
			current = current.Add(latest.Value)
			hasCurrent = true
		}

		opening, err := s.SnapshotRepo.LatestBefore(ctx, id, monthStart)
		if err != nil {
			s.Logger.Error("failed to load month-start snapshot", zap.String("portfolio_id", id.String()), zap.Error(err))
			return nil
		}
		if opening != nil {
			start = start.Add(opening.Value)
			hasStart = true
		}
	}

	if !hasCurrent || !hasStart || current.IsZero() || start.IsZero() {
		s.Logger.Debug("insufficient snapshot history for monthly growth", zap.String("scope", scope.Key()))
		return nil
	}

	ratio, _ := current.Div(start).Float64()
	growth := math.Round((ratio-1)*1e4) / 1e4
	return &growth
}
