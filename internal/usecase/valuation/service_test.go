package valuation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

// MockPortfolioRepository is a mock implementation of PortfolioRepository for testing
type MockPortfolioRepository struct {
	mock.Mock
}

func (m *MockPortfolioRepository) GetWithPositions(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Portfolio), args.Error(1)
}

func (m *MockPortfolioRepository) ListIDs(ctx context.Context, scope domain.Scope) ([]uuid.UUID, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockMarketData is a mock implementation of MarketDataGateway for testing
type MockMarketData struct {
	mock.Mock
}

func (m *MockMarketData) GetCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockMarketData) GetHistory(ctx context.Context, ticker string, period domain.Period) (domain.Series, error) {
	args := m.Called(ctx, ticker, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Series), args.Error(1)
}

func (m *MockMarketData) GetDividends(ctx context.Context, ticker string) (domain.Series, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Series), args.Error(1)
}

func position(ticker string, qty, cost string) domain.Position {
	return domain.Position{
		ID:            uuid.New(),
		Asset:         domain.Asset{ID: uuid.New(), TickerSymbol: ticker},
		Quantity:      decimal.RequireFromString(qty),
		PurchasePrice: decimal.RequireFromString(cost),
	}
}

func newService(repo *MockPortfolioRepository, md *MockMarketData) *ValuationService {
	s := NewValuationService(repo, md, nil)
	s.now = func() time.Time { return time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestValuate_ProfitScenario(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPortfolioRepository)
	md := new(MockMarketData)
	service := newService(repo, md)

	portfolioID := uuid.New()
	repo.On("GetWithPositions", ctx, portfolioID).Return(&domain.Portfolio{
		ID:   portfolioID,
		Name: "Growth",
		Positions: []domain.Position{
			position("AAPL", "10", "150"),
			position("MSFT", "5", "300"),
		},
	}, nil)
	md.On("GetCurrentPrice", ctx, "AAPL").Return(180.0, nil)
	md.On("GetCurrentPrice", ctx, "MSFT").Return(330.0, nil)

	result, err := service.Valuate(ctx, portfolioID)

	require.NoError(t, err)
	// value = 10*180 + 5*330 = 3450; cost = 10*150 + 5*300 = 3000
	assert.True(t, decimal.NewFromInt(3450).Equal(result.TotalValue))
	assert.True(t, decimal.NewFromInt(3000).Equal(result.TotalCostBasis))
	assert.True(t, decimal.NewFromInt(450).Equal(result.TotalPnL))
	assert.True(t, decimal.NewFromInt(15).Equal(result.TotalPnLPercentage))
	assert.Equal(t, 2, result.PositionsCount)
	assert.Equal(t, "Growth", result.PortfolioName)
	require.Len(t, result.Positions, 2)
	assert.True(t, decimal.NewFromInt(1800).Equal(result.Positions[0].MarketValue()))
	assert.Equal(t, time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC), result.LastUpdated)

	repo.AssertExpectations(t)
	md.AssertExpectations(t)
}

func TestValuate_LossScenarioRoundsToCents(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPortfolioRepository)
	md := new(MockMarketData)
	service := newService(repo, md)

	portfolioID := uuid.New()
	repo.On("GetWithPositions", ctx, portfolioID).Return(&domain.Portfolio{
		ID:        portfolioID,
		Positions: []domain.Position{position("VTI", "3", "100")},
	}, nil)
	md.On("GetCurrentPrice", ctx, "VTI").Return(90.333, nil)

	result, err := service.Valuate(ctx, portfolioID)

	require.NoError(t, err)
	assert.Equal(t, "271", result.TotalValue.String())
	assert.Equal(t, "-29", result.TotalPnL.String())
	assert.Equal(t, "-9.67", result.TotalPnLPercentage.String())
}

func TestValuate_NoPositionsReturnsZero(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPortfolioRepository)
	md := new(MockMarketData)
	service := newService(repo, md)

	portfolioID := uuid.New()
	repo.On("GetWithPositions", ctx, portfolioID).Return(&domain.Portfolio{ID: portfolioID}, nil)

	result, err := service.Valuate(ctx, portfolioID)

	require.NoError(t, err)
	assert.True(t, result.TotalValue.IsZero())
	assert.True(t, result.TotalPnLPercentage.IsZero())
	assert.Equal(t, 0, result.PositionsCount)
	md.AssertNotCalled(t, "GetCurrentPrice", mock.Anything, mock.Anything)
}

func TestValuate_ZeroCostBasis(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPortfolioRepository)
	md := new(MockMarketData)
	service := newService(repo, md)

	portfolioID := uuid.New()
	repo.On("GetWithPositions", ctx, portfolioID).Return(&domain.Portfolio{
		ID:        portfolioID,
		Positions: []domain.Position{position("GIFT", "4", "0")},
	}, nil)
	md.On("GetCurrentPrice", ctx, "GIFT").Return(25.0, nil)

	result, err := service.Valuate(ctx, portfolioID)

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(result.TotalPnL))
	assert.True(t, result.TotalPnLPercentage.IsZero())
}

func TestValuate_FailsFastOnPriceError(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPortfolioRepository)
	md := new(MockMarketData)
	service := newService(repo, md)

	portfolioID := uuid.New()
	repo.On("GetWithPositions", ctx, portfolioID).Return(&domain.Portfolio{
		ID: portfolioID,
		Positions: []domain.Position{
			position("AAPL", "1", "1"),
			position("DEAD", "1", "1"),
			position("MSFT", "1", "1"),
		},
	}, nil)
	md.On("GetCurrentPrice", ctx, "AAPL").Return(10.0, nil)
	md.On("GetCurrentPrice", ctx, "DEAD").Return(0.0, domain.ErrNotFound)

	result, err := service.Valuate(ctx, portfolioID)

	assert.Nil(t, result)
	var dataErr *domain.DataUnavailableError
	require.True(t, errors.As(err, &dataErr))
	assert.Equal(t, []string{"DEAD"}, dataErr.Tickers)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	md.AssertNotCalled(t, "GetCurrentPrice", ctx, "MSFT")
}

func TestValuate_PortfolioNotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPortfolioRepository)
	md := new(MockMarketData)
	service := newService(repo, md)

	portfolioID := uuid.New()
	repo.On("GetWithPositions", ctx, portfolioID).Return(nil, domain.ErrNotFound)

	_, err := service.Valuate(ctx, portfolioID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
