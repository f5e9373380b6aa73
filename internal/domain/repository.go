package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PortfolioRepository defines the read operations the analytics core needs on portfolios
type PortfolioRepository interface {
	// GetWithPositions retrieves a portfolio with its positions and their assets.
	// Returns an error wrapping ErrNotFound if the portfolio does not exist
	GetWithPositions(ctx context.Context, id uuid.UUID) (*Portfolio, error)

	// ListIDs returns the IDs of every portfolio visible in scope
	ListIDs(ctx context.Context, scope Scope) ([]uuid.UUID, error)
}

// SnapshotRepository defines the interface for portfolio snapshot persistence operations
type SnapshotRepository interface {
	// Create appends a new snapshot
	Create(ctx context.Context, snapshot *PortfolioSnapshot) error

	// LatestBefore retrieves the newest snapshot of a portfolio taken at or before cutoff.
	// Returns nil, nil when no such snapshot exists
	LatestBefore(ctx context.Context, portfolioID uuid.UUID, cutoff time.Time) (*PortfolioSnapshot, error)

	// ListByPortfolio retrieves up to limit snapshots of a portfolio, newest first
	ListByPortfolio(ctx context.Context, portfolioID uuid.UUID, limit int) ([]*PortfolioSnapshot, error)

	// AggregateByDate sums snapshot values per calendar date over the last windowDays days,
	// ordered chronologically
	AggregateByDate(ctx context.Context, scope Scope, windowDays int) ([]AUMPoint, error)
}

// MarketDataGateway supplies current and historical market data for a ticker.
type MarketDataGateway interface {
	// GetCurrentPrice returns the most recent close. Fails with ErrNotFound when the
	// ticker has no recent data and ErrUnavailable for transient errors.
	GetCurrentPrice(ctx context.Context, ticker string) (float64, error)

	// GetHistory returns daily close prices over period. Fails with ErrUnavailable
	// when no data exists for the period.
	GetHistory(ctx context.Context, ticker string, period Period) (Series, error)

	// GetDividends returns the dividend history of ticker, possibly empty.
	GetDividends(ctx context.Context, ticker string) (Series, error)
}

// CacheStore is a best-effort key/value store with per-entry TTL.
// Callers must treat every error as a cache miss.
type CacheStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Notifier enqueues outbound notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
