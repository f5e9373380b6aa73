package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

// DefaultCacheTTL is how long a computed summary is served from the cache
const DefaultCacheTTL = 5 * time.Minute

// GrowthCalculator computes the month-to-date growth of a scope
type GrowthCalculator interface {
	MonthlyGrowth(ctx context.Context, scope domain.Scope) *float64
}

// Summary represents the headline KPIs of a scope
type Summary struct {
	PortfolioCount int
	AUM            decimal.Decimal
	MonthlyGrowth  *float64 // nil when history is insufficient
	GeneratedAt    time.Time
}

// cachedSummary is the msgpack form of a Summary
type cachedSummary struct {
	PortfolioCount int      `msgpack:"portfolio_count"`
	AUM            string   `msgpack:"aum"`
	MonthlyGrowth  *float64 `msgpack:"monthly_growth"`
	GeneratedAt    int64    `msgpack:"generated_at"`
}

// DashboardService handles dashboard-related operations
type DashboardService struct {
	PortfolioRepo domain.PortfolioRepository
	SnapshotRepo  domain.SnapshotRepository
	Growth        GrowthCalculator
	Cache         domain.CacheStore
	CacheTTL      time.Duration
	Logger        *zap.Logger

	now func() time.Time
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(
	portfolioRepo domain.PortfolioRepository,
	snapshotRepo domain.SnapshotRepository,
	growth GrowthCalculator,
	cache domain.CacheStore,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &DashboardService{
		PortfolioRepo: portfolioRepo,
		SnapshotRepo:  snapshotRepo,
		Growth:        growth,
		Cache:         cache,
		CacheTTL:      cacheTTL,
		Logger:        logger,
		now:           time.Now,
	}
}

// Summary returns the dashboard KPIs of a scope
// Logic:
//   - PortfolioCount: number of portfolios in scope
//   - AUM: sum of each portfolio's latest snapshot value (portfolios never snapshotted count as 0)
//   - MonthlyGrowth: growth since the start of the month, nil when unknown
//
// Results are cached per scope for CacheTTL. Cache failures never fail the call.
func (s *DashboardService) Summary(ctx context.Context, scope domain.Scope) (*Summary, error) {
	key := "dashboard:summary:" + scope.Key()

	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	ids, err := s.PortfolioRepo.ListIDs(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	now := s.now().UTC()
	aum := decimal.Zero
	for _, id := range ids {
		latest, err := s.SnapshotRepo.LatestBefore(ctx, id, now)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest snapshot for portfolio %s: %w", id, err)
		}
		if latest == nil {
			continue
		}
		aum = aum.Add(latest.Value)
	}

	summary := &Summary{
		PortfolioCount: len(ids),
		AUM:            aum.Round(2),
		MonthlyGrowth:  s.Growth.MonthlyGrowth(ctx, scope),
		GeneratedAt:    now,
	}

	s.toCache(ctx, key, summary)
	return summary, nil
}

func (s *DashboardService) fromCache(ctx context.Context, key string) *Summary {
	raw, found, err := s.Cache.Get(ctx, key)
	if err != nil {
		s.Logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}

	var c cachedSummary
	if err := msgpack.Unmarshal(raw, &c); err != nil {
		s.Logger.Warn("discarding unreadable dashboard cache entry", zap.String("key", key), zap.Error(err))
		return nil
	}
	aum, err := decimal.NewFromString(c.AUM)
	if err != nil {
		s.Logger.Warn("discarding unreadable dashboard cache entry", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &Summary{
		PortfolioCount: c.PortfolioCount,
		AUM:            aum,
		MonthlyGrowth:  c.MonthlyGrowth,
		GeneratedAt:    time.Unix(c.GeneratedAt, 0).UTC(),
	}
}

func (s *DashboardService) toCache(ctx context.Context, key string, summary *Summary) {
	raw, err := msgpack.Marshal(&cachedSummary{
		PortfolioCount: summary.PortfolioCount,
		AUM:            summary.AUM.String(),
		MonthlyGrowth:  summary.MonthlyGrowth,
		GeneratedAt:    summary.GeneratedAt.Unix(),
	})
	if err != nil {
		s.Logger.Warn("dashboard cache encode failed", zap.Error(err))
		return
	}
	if err := s.Cache.Set(ctx, key, raw, s.CacheTTL); err != nil {
		s.Logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
