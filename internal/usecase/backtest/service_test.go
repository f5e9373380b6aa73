package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cactuswealth/wealth-analytics/internal/adapter/cache"
	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

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

// failingCache fails every operation
type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache offline")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache offline")
}

var testNow = time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func series(start int, values ...float64) domain.Series {
	s := make(domain.Series, 0, len(values))
	for i, v := range values {
		s = append(s, domain.Observation{Date: day(start + i), Value: v})
	}
	return s
}

func newService(md domain.MarketDataGateway, store domain.CacheStore) *BacktestService {
	s := NewBacktestService(md, store, nil, Options{FetchTimeout: time.Second, MaxConcurrency: 2})
	s.now = func() time.Time { return testNow }
	return s
}

func sampleRequest() Request {
	return Request{
		Composition: domain.Composition{
			{Ticker: "aapl", Weight: 0.6},
			{Ticker: "MSFT", Weight: 0.4},
		},
		Benchmarks: []string{"SPY"},
		Period:     "1Y",
	}
}

func mockSampleHistory(md *MockMarketData) {
	md.On("GetHistory", mock.Anything, "AAPL", domain.Period1Y).Return(series(4, 100, 110, 99, 108.9), nil)
	md.On("GetHistory", mock.Anything, "MSFT", domain.Period1Y).Return(series(4, 200, 200, 220, 220), nil)
	md.On("GetHistory", mock.Anything, "SPY", domain.Period1Y).Return(domain.Series{
		{Date: day(4), Value: 50},
		{Date: day(5), Value: 55},
		{Date: day(7), Value: 50},
		{Date: day(8), Value: 60},
	}, nil)
}

func TestRun_AlignsAndComputes(t *testing.T) {
	md := new(MockMarketData)
	mockSampleHistory(md)
	md.On("GetDividends", mock.Anything, mock.Anything).Return(domain.Series{}, nil)
	service := newService(md, cache.NewMemoryStore())

	result, err := service.Run(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, domain.Period1Y, result.Period)
	assert.Equal(t, day(4), result.StartDate)
	assert.Equal(t, day(7), result.EndDate)
	assert.Equal(t, []string{"SPY"}, result.Benchmarks)

	require.Len(t, result.DataPoints, 3)
	assert.InDelta(t, 100, result.DataPoints[0].PortfolioValue, 1e-9)
	assert.InDelta(t, 106, result.DataPoints[1].PortfolioValue, 1e-9)
	assert.InDelta(t, 109.604, result.DataPoints[2].PortfolioValue, 1e-9)
	assert.InDelta(t, 110, result.DataPoints[1].BenchmarkValues["SPY"], 1e-9)
	assert.Empty(t, result.DataPoints[1].DividendEvents)

	assert.Equal(t, 3, result.Metrics.TradingDays)
	assert.InDelta(t, 0.09604, result.Metrics.TotalReturn, 1e-9)
	assert.InDelta(t, 0.09604, result.Metrics.Benchmarks["SPY"].VsBenchmark, 1e-9)
	assert.InDelta(t, 109.604, result.Metrics.EndValue, 1e-9)
}

func TestRun_ValidationBeforeAnyIO(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{
			name:  "unknown period",
			req:   Request{Composition: domain.Composition{{Ticker: "VTI", Weight: 1}}, Period: "7y"},
			field: "period",
		},
		{
			name:  "weights do not sum to one",
			req:   Request{Composition: domain.Composition{{Ticker: "VTI", Weight: 0.5}, {Ticker: "BND", Weight: 0.4}}, Period: "1y"},
			field: "composition",
		},
		{
			name:  "empty composition",
			req:   Request{Period: "1y", Benchmarks: []string{"SPY"}},
			field: "composition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := new(MockMarketData)
			store := cache.NewMemoryStore()
			service := newService(md, store)

			_, err := service.Run(context.Background(), tt.req)

			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
			md.AssertNotCalled(t, "GetHistory", mock.Anything, mock.Anything, mock.Anything)
			assert.Zero(t, store.Len())
		})
	}
}

func TestRun_WeightSumMessageCarriesActualSum(t *testing.T) {
	service := newService(new(MockMarketData), cache.NewMemoryStore())

	_, err := service.Run(context.Background(), Request{
		Composition: domain.Composition{{Ticker: "VTI", Weight: 0.5}, {Ticker: "BND", Weight: 0.4}},
		Period:      "1y",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 0.9")
}

func TestRun_CacheRoundTripAvoidsSecondFetch(t *testing.T) {
	md := new(MockMarketData)
	mockSampleHistory(md)
	md.On("GetDividends", mock.Anything, mock.Anything).Return(domain.Series{}, nil)
	store := cache.NewMemoryStore()
	service := newService(md, store)

	first, err := service.Run(context.Background(), sampleRequest())
	require.NoError(t, err)
	second, err := service.Run(context.Background(), sampleRequest())
	require.NoError(t, err)

	md.AssertNumberOfCalls(t, "GetHistory", 3)
	md.AssertNumberOfCalls(t, "GetDividends", 3)
	assert.Equal(t, 6, store.Len())
	assert.Equal(t, first.DataPoints, second.DataPoints)
	assert.Equal(t, first.Metrics, second.Metrics)
}

func TestRun_CacheFailuresDoNotAffectResult(t *testing.T) {
	md := new(MockMarketData)
	mockSampleHistory(md)
	md.On("GetDividends", mock.Anything, mock.Anything).Return(domain.Series{}, nil)

	result, err := newService(md, failingCache{}).Run(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.InDelta(t, 0.09604, result.Metrics.TotalReturn, 1e-9)
}

func TestRun_MissingTickerFailsWholeBacktest(t *testing.T) {
	md := new(MockMarketData)
	md.On("GetHistory", mock.Anything, "VTI", domain.Period1Y).Return(series(4, 10, 11, 12), nil)
	md.On("GetHistory", mock.Anything, "ZZZZ", domain.Period1Y).Return(nil, domain.ErrNotFound)
	store := cache.NewMemoryStore()

	_, err := newService(md, store).Run(context.Background(), Request{
		Composition: domain.Composition{{Ticker: "VTI", Weight: 0.5}, {Ticker: "ZZZZ", Weight: 0.5}},
		Period:      "1y",
	})

	var dataErr *domain.DataUnavailableError
	require.True(t, errors.As(err, &dataErr))
	assert.Equal(t, []string{"ZZZZ"}, dataErr.Tickers)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	md.AssertNotCalled(t, "GetDividends", mock.Anything, mock.Anything)
	// the healthy series is still cached
	assert.Equal(t, 1, store.Len())
}

func TestRun_EmptyHistoryIsUnavailable(t *testing.T) {
	md := new(MockMarketData)
	md.On("GetHistory", mock.Anything, "VTI", domain.Period1M).Return(domain.Series{}, nil)

	_, err := newService(md, cache.NewMemoryStore()).Run(context.Background(), Request{
		Composition: domain.Composition{{Ticker: "VTI", Weight: 1}},
		Period:      "1mo",
	})

	var dataErr *domain.DataUnavailableError
	require.True(t, errors.As(err, &dataErr))
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestRun_InsufficientAlignedRows(t *testing.T) {
	md := new(MockMarketData)
	md.On("GetHistory", mock.Anything, "VTI", domain.Period5D).Return(series(4, 10, 11), nil)
	md.On("GetHistory", mock.Anything, "SPY", domain.Period5D).Return(series(5, 20, 21), nil)
	md.On("GetDividends", mock.Anything, mock.Anything).Return(domain.Series{}, nil)

	_, err := newService(md, cache.NewMemoryStore()).Run(context.Background(), Request{
		Composition: domain.Composition{{Ticker: "VTI", Weight: 1}},
		Benchmarks:  []string{"SPY"},
		Period:      "5d",
	})

	var dataErr *domain.DataUnavailableError
	require.True(t, errors.As(err, &dataErr))
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestRun_UnorderedIndexIsAContractViolation(t *testing.T) {
	md := new(MockMarketData)
	md.On("GetHistory", mock.Anything, "VTI", domain.Period1Y).Return(domain.Series{
		{Date: day(5), Value: 11},
		{Date: day(4), Value: 10},
		{Date: day(6), Value: 12},
	}, nil)
	md.On("GetDividends", mock.Anything, mock.Anything).Return(domain.Series{}, nil)

	_, err := newService(md, cache.NewMemoryStore()).Run(context.Background(), Request{
		Composition: domain.Composition{{Ticker: "VTI", Weight: 1}},
		Period:      "1y",
	})

	assert.ErrorIs(t, err, domain.ErrIndexOrder)
}

func TestRun_DividendFailureDegrades(t *testing.T) {
	md := new(MockMarketData)
	md.On("GetHistory", mock.Anything, "VTI", domain.Period1Y).Return(series(4, 10, 11, 12), nil)
	md.On("GetDividends", mock.Anything, "VTI").Return(nil, domain.ErrUnavailable)

	result, err := newService(md, cache.NewMemoryStore()).Run(context.Background(), Request{
		Composition: domain.Composition{{Ticker: "VTI", Weight: 1}},
		Period:      "1y",
	})

	require.NoError(t, err)
	for _, p := range result.DataPoints {
		assert.Empty(t, p.DividendEvents)
	}
}

func TestRun_DividendsMatchOnCalendarDate(t *testing.T) {
	newYork := time.FixedZone("EST", -5*3600)
	paris := time.FixedZone("CET", 3600)

	md := new(MockMarketData)
	md.On("GetHistory", mock.Anything, "VTI", domain.Period1Y).Return(series(4, 10, 11, 12), nil)
	md.On("GetDividends", mock.Anything, "VTI").Return(domain.Series{
		{Date: time.Date(2023, 1, 5, 0, 0, 0, 0, newYork), Value: 9.99}, // before the period
		{Date: time.Date(2024, 3, 5, 0, 0, 0, 0, newYork), Value: 0.50},
		{Date: time.Date(2024, 3, 5, 16, 0, 0, 0, newYork), Value: 0.70},
		{Date: time.Date(2024, 3, 6, 0, 30, 0, 0, paris), Value: 0.25},
	}, nil)
	store := cache.NewMemoryStore()
	service := newService(md, store)
	req := Request{
		Composition: domain.Composition{{Ticker: "VTI", Weight: 1}},
		Period:      "1y",
	}

	for _, run := range []string{"fresh", "cached"} {
		t.Run(run, func(t *testing.T) {
			result, err := service.Run(context.Background(), req)

			require.NoError(t, err)
			require.Len(t, result.DataPoints, 3)
			assert.Empty(t, result.DataPoints[0].DividendEvents)
			assert.Equal(t, []domain.DividendEvent{{Ticker: "VTI", Amount: 0.50}}, result.DataPoints[1].DividendEvents)
			assert.Equal(t, []domain.DividendEvent{{Ticker: "VTI", Amount: 0.25}}, result.DataPoints[2].DividendEvents)
		})
	}
	md.AssertNumberOfCalls(t, "GetDividends", 1)
}

func TestFetchDividends_KeepsPeriodWindow(t *testing.T) {
	md := new(MockMarketData)
	md.On("GetDividends", mock.Anything, "KO").Return(domain.Series{
		{Date: time.Date(2022, 12, 1, 0, 0, 0, 0, time.UTC), Value: 0.44},
		{Date: time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC), Value: 0.46},
		{Date: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), Value: 0.485},
	}, nil)
	service := newService(md, cache.NewMemoryStore())

	got := service.fetchDividends(context.Background(), []string{"KO"}, domain.Period1Y)
	require.Len(t, got["KO"], 2)
	assert.Equal(t, 0.46, got["KO"][0].Value)

	got = service.fetchDividends(context.Background(), []string{"KO"}, domain.PeriodMax)
	assert.Len(t, got["KO"], 3)
}

// slowMarketData blocks until the request context ends
type slowMarketData struct {
	MockMarketData
}

func (s *slowMarketData) GetHistory(ctx context.Context, _ string, _ domain.Period) (domain.Series, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRun_FetchTimeout(t *testing.T) {
	service := NewBacktestService(&slowMarketData{}, cache.NewMemoryStore(), nil, Options{FetchTimeout: 20 * time.Millisecond})

	_, err := service.Run(context.Background(), Request{
		Composition: domain.Composition{{Ticker: "VTI", Weight: 0.5}, {Ticker: "BND", Weight: 0.5}},
		Period:      "1y",
	})

	var dataErr *domain.DataUnavailableError
	require.True(t, errors.As(err, &dataErr))
	assert.Equal(t, []string{"BND", "VTI"}, dataErr.Tickers)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCacheKey(t *testing.T) {
	k := cacheKey(kindPrices, "AAPL", domain.Period1Y)
	assert.Len(t, k, len(cacheKeyPrefix)+64)
	assert.Equal(t, k, cacheKey(kindPrices, "AAPL", domain.Period1Y))
	assert.NotEqual(t, k, cacheKey(kindDividends, "AAPL", domain.Period1Y))
	assert.NotEqual(t, k, cacheKey(kindPrices, "AAPL", domain.Period5Y))
}

func TestSeriesCodec(t *testing.T) {
	in := domain.Series{
		{Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.FixedZone("EST", -5*3600)), Value: 0.5},
		{Date: day(6), Value: 101.25},
	}

	raw, err := encodeSeries(in)
	require.NoError(t, err)
	out, err := decodeSeries(raw)
	require.NoError(t, err)

	assert.Equal(t, domain.Series{{Date: day(5), Value: 0.5}, {Date: day(6), Value: 101.25}}, out)

	_, err = decodeSeries([]byte("not msgpack"))
	assert.Error(t, err)
}
