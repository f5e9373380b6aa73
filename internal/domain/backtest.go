package domain

import "time"

// DividendEvent is a dividend paid by a ticker on a data point's date.
type DividendEvent struct {
	Ticker string
	Amount float64
}

// BacktestDataPoint is one chart row of a backtest.
type BacktestDataPoint struct {
	Date            time.Time
	PortfolioValue  float64
	BenchmarkValues map[string]float64
	DividendEvents  []DividendEvent
}

// BenchmarkMetrics compares the portfolio against a single benchmark.
type BenchmarkMetrics struct {
	TotalReturn float64
	VsBenchmark float64 // portfolio total return minus benchmark total return
	Alpha       float64 // difference of annualized returns
}

// PerformanceMetrics are the risk/return statistics of a backtest.
type PerformanceMetrics struct {
	TotalReturn            float64
	AnnualizedReturn       float64
	AnnualizedVolatility   float64
	SharpeRatio            float64
	MaxDrawdown            float64
	StartValue             float64
	EndValue               float64
	TradingDays            int
	RiskFreeRateAssumption float64
	Benchmarks             map[string]BenchmarkMetrics
}

// BacktestResult is the complete, presentation-agnostic output of a backtest.
type BacktestResult struct {
	StartDate   time.Time
	EndDate     time.Time
	Period      Period
	Composition Composition
	Benchmarks  []string
	DataPoints  []BacktestDataPoint
	Metrics     PerformanceMetrics
}
