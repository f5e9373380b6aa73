package backtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

type fetchFunc func(ctx context.Context, ticker string) (domain.Series, error)

// wave runs fetch once per ticker with bounded concurrency and a per-task timeout.
// It returns only after every task has finished.
func (s *BacktestService) wave(ctx context.Context, tickers []string, fetch fetchFunc) (map[string]domain.Series, map[string]error) {
	var (
		mu     sync.Mutex
		series = make(map[string]domain.Series, len(tickers))
		failed = make(map[string]error)
	)

	var g errgroup.Group
	g.SetLimit(s.MaxConcurrency)
	for _, ticker := range tickers {
		g.Go(func() error {
			taskCtx, cancel := context.WithTimeout(ctx, s.FetchTimeout)
			defer cancel()

			result, err := fetch(taskCtx, ticker)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[ticker] = err
				return nil
			}
			series[ticker] = result
			return nil
		})
	}
	_ = g.Wait()

	return series, failed
}

// fetchPrices retrieves the close-price history of every ticker.
// Any failure fails the whole retrieval with a DataUnavailableError naming every failed ticker.
func (s *BacktestService) fetchPrices(ctx context.Context, tickers []string, period domain.Period) (map[string]domain.Series, error) {
	prices, failed := s.wave(ctx, tickers, func(ctx context.Context, ticker string) (domain.Series, error) {
		return s.cachedFetch(ctx, kindPrices, ticker, period, func(ctx context.Context) (domain.Series, error) {
			history, err := s.MarketData.GetHistory(ctx, ticker, period)
			if err != nil {
				return nil, err
			}
			if len(history) == 0 {
				return nil, fmt.Errorf("no price history for %s over %s: %w", ticker, period, domain.ErrUnavailable)
			}
			return history, nil
		})
	})

	if len(failed) == 0 {
		return prices, nil
	}

	missing := make([]string, 0, len(failed))
	for ticker, err := range failed {
		missing = append(missing, ticker)
		s.Logger.Error("failed to retrieve price history", zap.String("ticker", ticker), zap.Error(err))
	}
	sort.Strings(missing)

	return nil, &domain.DataUnavailableError{
		Tickers: missing,
		Err:     fmt.Errorf("failed to retrieve price history: %w", failed[missing[0]]),
	}
}

// fetchDividends retrieves the dividend history of every ticker since the period start.
// Failures degrade to an empty series.
func (s *BacktestService) fetchDividends(ctx context.Context, tickers []string, period domain.Period) map[string]domain.Series {
	start := period.Start(s.now())

	dividends, failed := s.wave(ctx, tickers, func(ctx context.Context, ticker string) (domain.Series, error) {
		return s.cachedFetch(ctx, kindDividends, ticker, period, func(ctx context.Context) (domain.Series, error) {
			all, err := s.MarketData.GetDividends(ctx, ticker)
			if err != nil {
				return nil, err
			}
			return all.Between(start, time.Time{}), nil
		})
	})

	for ticker, err := range failed {
		s.Logger.Warn("could not retrieve dividends, continuing without them", zap.String("ticker", ticker), zap.Error(err))
		dividends[ticker] = domain.Series{}
	}
	return dividends
}
