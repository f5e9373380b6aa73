package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PortfolioSnapshot is a persisted point-in-time valuation of a portfolio.
// Snapshots are append-only; several per portfolio form a time series.
type PortfolioSnapshot struct {
	ID          uuid.UUID
	PortfolioID uuid.UUID
	Value       decimal.Decimal
	Timestamp   time.Time
}

// AUMPoint is the aggregate snapshot value of a scope on one calendar date.
type AUMPoint struct {
	Date  time.Time
	Value decimal.Decimal
}
