package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// ValuationService prices a portfolio's positions against current market data
type ValuationService struct {
	PortfolioRepo domain.PortfolioRepository
	MarketData    domain.MarketDataGateway
	Logger        *zap.Logger

	now func() time.Time
}

// NewValuationService creates a new ValuationService instance
func NewValuationService(portfolioRepo domain.PortfolioRepository, marketData domain.MarketDataGateway, logger *zap.Logger) *ValuationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValuationService{
		PortfolioRepo: portfolioRepo,
		MarketData:    marketData,
		Logger:        logger,
		now:           time.Now,
	}
}

// Valuate computes the live valuation of a portfolio
// Logic:
//   - TotalValue = Σ(quantity × current price)
//   - TotalCostBasis = Σ(quantity × purchase price)
//   - TotalPnL = TotalValue - TotalCostBasis
//   - TotalPnLPercentage = TotalPnL / TotalCostBasis × 100 (0 when the cost basis is 0)
//
// A single failed price lookup aborts the whole valuation with a *domain.DataUnavailableError.
func (s *ValuationService) Valuate(ctx context.Context, portfolioID uuid.UUID) (*domain.PortfolioValuation, error) {
	portfolio, err := s.PortfolioRepo.GetWithPositions(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	result := &domain.PortfolioValuation{
		PortfolioID:        portfolio.ID,
		PortfolioName:      portfolio.Name,
		OwnerID:            portfolio.OwnerID,
		TotalValue:         decimal.Zero,
		TotalCostBasis:     decimal.Zero,
		TotalPnL:           decimal.Zero,
		TotalPnLPercentage: decimal.Zero,
		Positions:          []domain.PricedPosition{},
		LastUpdated:        s.now().UTC(),
	}

	if len(portfolio.Positions) == 0 {
		s.Logger.Warn("portfolio has no positions", zap.String("portfolio_id", portfolioID.String()))
		return result, nil
	}

	totalValue := decimal.Zero
	totalCost := decimal.Zero
	for _, position := range portfolio.Positions {
		ticker := position.Asset.TickerSymbol

		price, err := s.MarketData.GetCurrentPrice(ctx, ticker)
		if err != nil {
			s.Logger.Error("failed to price position",
				zap.String("portfolio_id", portfolioID.String()),
				zap.String("ticker", ticker),
				zap.Error(err),
			)
			return nil, &domain.DataUnavailableError{
				Tickers: []string{ticker},
				Err:     fmt.Errorf("failed to valuate position %s: %w", ticker, err),
			}
		}

		priced := domain.NewPricedPosition(position, decimal.NewFromFloat(price))
		totalValue = totalValue.Add(priced.MarketValue())
		totalCost = totalCost.Add(priced.TotalCost())
		result.Positions = append(result.Positions, priced)
	}

	pnl := totalValue.Sub(totalCost)
	pnlPct := decimal.Zero
	if totalCost.IsPositive() {
		pnlPct = pnl.Div(totalCost).Mul(hundred)
	}

	result.TotalValue = totalValue.Round(2)
	result.TotalCostBasis = totalCost.Round(2)
	result.TotalPnL = pnl.Round(2)
	result.TotalPnLPercentage = pnlPct.Round(2)
	result.PositionsCount = len(result.Positions)

	s.Logger.Info("portfolio valuation completed",
		zap.String("portfolio_id", portfolioID.String()),
		zap.String("total_value", result.TotalValue.String()),
		zap.String("total_pnl", result.TotalPnL.String()),
		zap.Int("positions_valued", result.PositionsCount),
	)

	return result, nil
}
