package backtest

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

const (
	// TradingDaysPerYear annualizes daily statistics
	TradingDaysPerYear = 252.0
	// RiskFreeRate is the annual risk-free rate assumed by the Sharpe ratio
	RiskFreeRate = 0.02
	// StartValue is the base of the charted cumulative series
	StartValue = 100.0
)

// pctChange returns the simple returns of prices; the first return is 0
func pctChange(prices []float64) []float64 {
	returns := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		returns[i] = prices[i]/prices[i-1] - 1
	}
	return returns
}

// portfolioReturns weights each asset's daily returns into the portfolio's daily returns
func portfolioReturns(table *priceTable, weights map[string]float64) []float64 {
	out := make([]float64, table.Len())
	for ticker, w := range weights {
		floats.AddScaled(out, w, pctChange(table.Columns[ticker]))
	}
	return out
}

// cumulative compounds daily returns starting from base
func cumulative(returns []float64, base float64) []float64 {
	growth := make([]float64, len(returns))
	for i, r := range returns {
		growth[i] = 1 + r
	}
	floats.CumProd(growth, growth)
	floats.Scale(base, growth)
	return growth
}

// totalReturn is Π(1+r) - 1
func totalReturn(returns []float64) float64 {
	growth := make([]float64, len(returns))
	for i, r := range returns {
		growth[i] = 1 + r
	}
	return floats.Prod(growth) - 1
}

// annualize converts a total return earned over years into a yearly rate
func annualize(total, years float64) float64 {
	if years <= 0 {
		return 0
	}
	return math.Pow(1+total, 1/years) - 1
}

// annualizedVolatility is the sample standard deviation of daily returns × √252
func annualizedVolatility(returns []float64) float64 {
	return stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear)
}

// sharpeRatio is mean(r - rf/252) × 252 / vol, or 0 when vol is 0
func sharpeRatio(returns []float64, volatility float64) float64 {
	if volatility <= 0 || math.IsNaN(volatility) {
		return 0
	}
	excess := make([]float64, len(returns))
	copy(excess, returns)
	floats.AddConst(-RiskFreeRate/TradingDaysPerYear, excess)
	return stat.Mean(excess, nil) * TradingDaysPerYear / volatility
}

// maxDrawdown is the most negative (c - runmax)/runmax over a cumulative series
func maxDrawdown(cum []float64) float64 {
	worst := 0.0
	peak := math.Inf(-1)
	for _, c := range cum {
		peak = math.Max(peak, c)
		if dd := (c - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

// computeMetrics derives the performance statistics of a daily return series.
// benchmarks maps each benchmark to its cumulative series based at StartValue.
func computeMetrics(returns []float64, benchmarks map[string][]float64) (domain.PerformanceMetrics, error) {
	if len(returns) < 2 {
		return domain.PerformanceMetrics{}, domain.ErrInsufficientData
	}

	tr := totalReturn(returns)
	days := len(returns)
	years := float64(days) / TradingDaysPerYear
	annual := annualize(tr, years)
	vol := annualizedVolatility(returns)

	m := domain.PerformanceMetrics{
		TotalReturn:            tr,
		AnnualizedReturn:       annual,
		AnnualizedVolatility:   vol,
		SharpeRatio:            sharpeRatio(returns, vol),
		MaxDrawdown:            maxDrawdown(cumulative(returns, 1)),
		StartValue:             StartValue,
		EndValue:               StartValue * (1 + tr),
		TradingDays:            days,
		RiskFreeRateAssumption: RiskFreeRate,
		Benchmarks:             make(map[string]domain.BenchmarkMetrics, len(benchmarks)),
	}

	for name, cum := range benchmarks {
		if len(cum) < 2 {
			continue
		}
		benchTR := totalReturn(pctChange(cum)[1:])
		m.Benchmarks[name] = domain.BenchmarkMetrics{
			TotalReturn: benchTR,
			VsBenchmark: tr - benchTR,
			Alpha:       annual - annualize(benchTR, years),
		}
	}

	return m, nil
}
