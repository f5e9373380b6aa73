package cronrunner

import (
	"context"

	"go.uber.org/zap"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
	"github.com/cactuswealth/wealth-analytics/internal/usecase/snapshot"
)

// SnapshotRecorder records a snapshot of every portfolio in a scope
type SnapshotRecorder interface {
	RecordAll(ctx context.Context, scope domain.Scope) (snapshot.RecordAllResult, error)
}

// SnapshotJob returns a job capturing a snapshot of every portfolio
func SnapshotJob(recorder SnapshotRecorder, logger *zap.Logger) func(context.Context) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context) {
		result, err := recorder.RecordAll(ctx, domain.AllPortfolios)
		if err != nil {
			logger.Error("scheduled snapshot run failed", zap.Error(err))
			return
		}
		if result.Failed > 0 {
			logger.Warn("scheduled snapshot run had failures",
				zap.Int("recorded", result.Recorded),
				zap.Int("failed", result.Failed),
			)
		}
	}
}
