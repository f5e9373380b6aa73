package backtest

import (
	"time"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

// buildDataPoints produces one chart row per aligned date.
// Dividends match on calendar date; only the first amount of a ticker on a date is kept.
func buildDataPoints(
	dates []time.Time,
	portfolio []float64,
	benchmarks map[string][]float64,
	dividendTickers []string,
	dividends map[string]domain.Series,
) []domain.BacktestDataPoint {
	byDate := make(map[time.Time][]domain.DividendEvent)
	for _, ticker := range dividendTickers {
		seen := make(map[time.Time]bool)
		for _, o := range dividends[ticker] {
			d := domain.CalendarDate(o.Date)
			if seen[d] {
				continue
			}
			seen[d] = true
			byDate[d] = append(byDate[d], domain.DividendEvent{Ticker: ticker, Amount: o.Value})
		}
	}

	points := make([]domain.BacktestDataPoint, len(dates))
	for i, date := range dates {
		values := make(map[string]float64, len(benchmarks))
		for name, cum := range benchmarks {
			if i < len(cum) {
				values[name] = cum[i]
			}
		}
		events := byDate[date]
		if events == nil {
			events = []domain.DividendEvent{}
		}
		points[i] = domain.BacktestDataPoint{
			Date:            date,
			PortfolioValue:  portfolio[i],
			BenchmarkValues: values,
			DividendEvents:  events,
		}
	}
	return points
}
