package backtest

import (
	"fmt"
	"time"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

// priceTable is a set of price columns aligned on a common, strictly increasing date index
type priceTable struct {
	Dates   []time.Time
	Columns map[string][]float64
}

// alignPrices inner-joins the price series of tickers on calendar date.
// Every input series must already be in strictly increasing date order.
func alignPrices(prices map[string]domain.Series, tickers []string) (*priceTable, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers to align: %w", domain.ErrInsufficientData)
	}

	byTicker := make(map[string]map[time.Time]float64, len(tickers))
	for _, ticker := range tickers {
		series, ok := prices[ticker]
		if !ok {
			return nil, &domain.DataUnavailableError{
				Tickers: []string{ticker},
				Err:     fmt.Errorf("missing price data: %w", domain.ErrUnavailable),
			}
		}
		if err := checkIndex(series); err != nil {
			return nil, fmt.Errorf("price series of %s: %w", ticker, err)
		}
		values := make(map[time.Time]float64, len(series))
		for _, o := range series {
			values[domain.CalendarDate(o.Date)] = o.Value
		}
		byTicker[ticker] = values
	}

	table := &priceTable{Columns: make(map[string][]float64, len(tickers))}
	for _, o := range prices[tickers[0]] {
		date := domain.CalendarDate(o.Date)
		if !presentInAll(byTicker, tickers, date) {
			continue
		}
		table.Dates = append(table.Dates, date)
		for _, ticker := range tickers {
			table.Columns[ticker] = append(table.Columns[ticker], byTicker[ticker][date])
		}
	}

	if err := checkDates(table.Dates); err != nil {
		return nil, err
	}
	return table, nil
}

func presentInAll(byTicker map[string]map[time.Time]float64, tickers []string, date time.Time) bool {
	for _, ticker := range tickers {
		if _, ok := byTicker[ticker][date]; !ok {
			return false
		}
	}
	return true
}

func checkIndex(s domain.Series) error {
	dates := make([]time.Time, len(s))
	for i, o := range s {
		dates[i] = domain.CalendarDate(o.Date)
	}
	return checkDates(dates)
}

// checkDates asserts dates are strictly increasing
func checkDates(dates []time.Time) error {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return fmt.Errorf("%w: %s follows %s",
				domain.ErrIndexOrder,
				dates[i].Format(time.DateOnly),
				dates[i-1].Format(time.DateOnly),
			)
		}
	}
	return nil
}

// Len returns the number of aligned rows
func (t *priceTable) Len() int {
	return len(t.Dates)
}
