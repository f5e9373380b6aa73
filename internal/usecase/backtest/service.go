package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

const (
	DefaultFetchTimeout   = 30 * time.Second
	DefaultMaxConcurrency = 8
	DefaultCacheTTL       = 24 * time.Hour
)

// Request describes a hypothetical portfolio to replay over a look-back period
type Request struct {
	Composition domain.Composition
	Benchmarks  []string
	Period      string
}

// Options tunes data retrieval. Zero values fall back to the defaults.
type Options struct {
	FetchTimeout   time.Duration
	MaxConcurrency int
	CacheTTL       time.Duration
}

// BacktestService replays a weighted composition over historical prices
type BacktestService struct {
	MarketData     domain.MarketDataGateway
	Cache          domain.CacheStore
	Logger         *zap.Logger
	FetchTimeout   time.Duration
	MaxConcurrency int
	CacheTTL       time.Duration

	now func() time.Time
}

// NewBacktestService creates a new BacktestService instance
func NewBacktestService(marketData domain.MarketDataGateway, cache domain.CacheStore, logger *zap.Logger, opts Options) *BacktestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	return &BacktestService{
		MarketData:     marketData,
		Cache:          cache,
		Logger:         logger,
		FetchTimeout:   opts.FetchTimeout,
		MaxConcurrency: opts.MaxConcurrency,
		CacheTTL:       opts.CacheTTL,
		now:            time.Now,
	}
}

// Run performs a backtest.
// Logic:
//  1. Validate period and composition before any I/O
//  2. Fetch prices for composition and benchmark tickers concurrently (fatal on failure)
//  3. Fetch dividends concurrently (degrades to empty on failure)
//  4. Inner-join prices on date, derive daily, cumulative and benchmark series
//  5. Compute metrics and chart data points
func (s *BacktestService) Run(ctx context.Context, req Request) (*domain.BacktestResult, error) {
	period, err := domain.ParsePeriod(req.Period)
	if err != nil {
		return nil, err
	}
	if err := req.Composition.Validate(); err != nil {
		return nil, err
	}

	assets := req.Composition.Tickers()
	benchmarks := domain.UniqueTickers(req.Benchmarks)
	tickers := domain.UniqueTickers(assets, benchmarks)

	log := s.Logger.With(zap.String("period", string(period)), zap.Strings("tickers", tickers))
	log.Info("starting backtest")
	started := s.now()

	prices, err := s.fetchPrices(ctx, tickers, period)
	if err != nil {
		return nil, err
	}
	dividends := s.fetchDividends(ctx, tickers, period)

	table, err := alignPrices(prices, tickers)
	if err != nil {
		return nil, err
	}
	if table.Len() < 2 {
		return nil, &domain.DataUnavailableError{
			Tickers: tickers,
			Err:     fmt.Errorf("%d aligned trading days: %w", table.Len(), domain.ErrInsufficientData),
		}
	}

	daily := portfolioReturns(table, req.Composition.Weights())
	benchCum := make(map[string][]float64, len(benchmarks))
	for _, b := range benchmarks {
		benchCum[b] = cumulative(pctChange(table.Columns[b]), StartValue)
	}

	metrics, err := computeMetrics(daily, benchCum)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientData) {
			return nil, &domain.DataUnavailableError{Tickers: tickers, Err: err}
		}
		return nil, fmt.Errorf("failed to compute metrics: %w", err)
	}

	result := &domain.BacktestResult{
		StartDate:   table.Dates[0],
		EndDate:     table.Dates[table.Len()-1],
		Period:      period,
		Composition: req.Composition,
		Benchmarks:  benchmarks,
		DataPoints:  buildDataPoints(table.Dates, cumulative(daily, StartValue), benchCum, tickers, dividends),
		Metrics:     metrics,
	}

	log.Info("backtest completed",
		zap.Int("trading_days", metrics.TradingDays),
		zap.Float64("total_return", metrics.TotalReturn),
		zap.Duration("elapsed", s.now().Sub(started)),
	)
	return result, nil
}
