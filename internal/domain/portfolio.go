package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Asset is a tradable instrument referenced by positions.
type Asset struct {
	ID           uuid.UUID
	TickerSymbol string
	Name         string
}

// Position is a holding of a single asset inside a portfolio.
// Quantity is never negative; PurchasePrice is the unit cost basis.
type Position struct {
	ID            uuid.UUID
	PortfolioID   uuid.UUID
	Asset         Asset
	Quantity      decimal.Decimal
	PurchasePrice decimal.Decimal
}

// Portfolio represents a client portfolio with its positions loaded.
type Portfolio struct {
	ID        uuid.UUID
	Name      string
	ClientID  uuid.UUID
	OwnerID   uuid.UUID // advisor owning the client
	Positions []Position
}

// PricedPosition is a position valued against a current market price.
// Values are computed once at construction and never mutated.
type PricedPosition struct {
	Asset        Asset
	Quantity     decimal.Decimal
	CostBasis    decimal.Decimal // unit cost
	CurrentPrice decimal.Decimal
}

// NewPricedPosition prices a position at the given current price.
func NewPricedPosition(p Position, currentPrice decimal.Decimal) PricedPosition {
	return PricedPosition{
		Asset:        p.Asset,
		Quantity:     p.Quantity,
		CostBasis:    p.PurchasePrice,
		CurrentPrice: currentPrice,
	}
}

// MarketValue returns quantity x current price.
func (pp PricedPosition) MarketValue() decimal.Decimal {
	return pp.Quantity.Mul(pp.CurrentPrice)
}

// TotalCost returns quantity x unit cost basis.
func (pp PricedPosition) TotalCost() decimal.Decimal {
	return pp.Quantity.Mul(pp.CostBasis)
}

// PortfolioValuation is the live valuation of a portfolio.
// It is derived on every request and never cached.
type PortfolioValuation struct {
	PortfolioID        uuid.UUID
	PortfolioName      string
	OwnerID            uuid.UUID
	TotalValue         decimal.Decimal
	TotalCostBasis     decimal.Decimal
	TotalPnL           decimal.Decimal
	TotalPnLPercentage decimal.Decimal
	PositionsCount     int
	Positions          []PricedPosition
	LastUpdated        time.Time
}

// Scope restricts aggregate queries to the portfolios visible to an advisor.
// A nil AdvisorID means every portfolio.
type Scope struct {
	AdvisorID *uuid.UUID
}

// AllPortfolios is the unrestricted scope.
var AllPortfolios = Scope{}

// ScopeForAdvisor returns the scope of portfolios whose clients are owned by advisorID.
func ScopeForAdvisor(advisorID uuid.UUID) Scope {
	return Scope{AdvisorID: &advisorID}
}

// Key returns a stable identifier for the scope, used in cache keys.
func (s Scope) Key() string {
	if s.AdvisorID == nil {
		return "all"
	}
	return s.AdvisorID.String()
}
