package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

const (
	// DefaultHistoryLimit is used when History is called with a non-positive limit
	DefaultHistoryLimit = 30
	// MaxHistoryLimit caps a single History page
	MaxHistoryLimit = 1000
)

// Valuator computes a live portfolio valuation
type Valuator interface {
	Valuate(ctx context.Context, portfolioID uuid.UUID) (*domain.PortfolioValuation, error)
}

// RecordAllResult summarises a bulk snapshot run
type RecordAllResult struct {
	Recorded int
	Failed   int
}

// SnapshotService records and reads the portfolio value time series
type SnapshotService struct {
	Valuator      Valuator
	SnapshotRepo  domain.SnapshotRepository
	PortfolioRepo domain.PortfolioRepository
	Notifier      domain.Notifier
	Logger        *zap.Logger

	now func() time.Time
}

// NewSnapshotService creates a new SnapshotService instance.
// notifier may be nil, in which case no notification is sent.
func NewSnapshotService(
	valuator Valuator,
	snapshotRepo domain.SnapshotRepository,
	portfolioRepo domain.PortfolioRepository,
	notifier domain.Notifier,
	logger *zap.Logger,
) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{
		Valuator:      valuator,
		SnapshotRepo:  snapshotRepo,
		PortfolioRepo: portfolioRepo,
		Notifier:      notifier,
		Logger:        logger,
		now:           time.Now,
	}
}

// Record values a portfolio and appends the result to its snapshot series.
// Nothing is written when the valuation fails.
func (s *SnapshotService) Record(ctx context.Context, portfolioID uuid.UUID) (*domain.PortfolioSnapshot, error) {
	valuation, err := s.Valuator.Valuate(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to valuate portfolio %s: %w", portfolioID, err)
	}

	snapshot := &domain.PortfolioSnapshot{
		ID:          uuid.New(),
		PortfolioID: portfolioID,
		Value:       valuation.TotalValue,
		Timestamp:   s.now().UTC(),
	}
	if err := s.SnapshotRepo.Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	s.Logger.Info("portfolio snapshot recorded",
		zap.String("portfolio_id", portfolioID.String()),
		zap.String("value", snapshot.Value.String()),
	)

	s.notifyOwner(ctx, valuation, snapshot)
	return snapshot, nil
}

// notifyOwner tells the portfolio owner about a new snapshot.
// Failures are logged and never surface to the caller.
func (s *SnapshotService) notifyOwner(ctx context.Context, valuation *domain.PortfolioValuation, snapshot *domain.PortfolioSnapshot) {
	if s.Notifier == nil || valuation.OwnerID == uuid.Nil {
		return
	}

	name := valuation.PortfolioName
	if name == "" {
		name = snapshot.PortfolioID.String()
	}
	n := domain.Notification{
		UserID:    valuation.OwnerID,
		Message:   fmt.Sprintf("New snapshot for portfolio %s: value %s", name, snapshot.Value.StringFixed(2)),
		CreatedAt: snapshot.Timestamp,
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		s.Logger.Warn("failed to notify snapshot owner",
			zap.String("portfolio_id", snapshot.PortfolioID.String()),
			zap.String("user_id", valuation.OwnerID.String()),
			zap.Error(err),
		)
	}
}

// History returns up to limit snapshots of a portfolio, newest first
func (s *SnapshotService) History(ctx context.Context, portfolioID uuid.UUID, limit int) ([]*domain.PortfolioSnapshot, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	snapshots, err := s.SnapshotRepo.ListByPortfolio(ctx, portfolioID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// AUMHistory returns total assets under management per calendar date over the last
// days days, oldest first. Repository failures yield an empty series.
func (s *SnapshotService) AUMHistory(ctx context.Context, days int, scope domain.Scope) []domain.AUMPoint {
	if days <= 0 {
		return []domain.AUMPoint{}
	}

	points, err := s.SnapshotRepo.AggregateByDate(ctx, scope, days)
	if err != nil {
		s.Logger.Error("failed to aggregate AUM history",
			zap.String("scope", scope.Key()),
			zap.Int("days", days),
			zap.Error(err),
		)
		return []domain.AUMPoint{}
	}
	if points == nil {
		return []domain.AUMPoint{}
	}
	return points
}

// RecordAll records a snapshot for every portfolio in scope.
// Individual failures are logged and counted; only listing the portfolios can fail the run.
func (s *SnapshotService) RecordAll(ctx context.Context, scope domain.Scope) (RecordAllResult, error) {
	var result RecordAllResult

	ids, err := s.PortfolioRepo.ListIDs(ctx, scope)
	if err != nil {
		return result, fmt.Errorf("failed to list portfolios: %w", err)
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if _, err := s.Record(ctx, id); err != nil {
			result.Failed++
			s.Logger.Warn("failed to record snapshot",
				zap.String("portfolio_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		result.Recorded++
	}

	s.Logger.Info("snapshot run completed",
		zap.String("scope", scope.Key()),
		zap.Int("recorded", result.Recorded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}
