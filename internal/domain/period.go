package domain

import (
	"strings"
	"time"
)

// Period is a look-back window token understood by market data providers.
type Period string

const (
	Period1D  Period = "1d"
	Period5D  Period = "5d"
	Period1M  Period = "1mo"
	Period3M  Period = "3mo"
	Period6M  Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
	Period10Y Period = "10y"
	PeriodYTD Period = "ytd"
	PeriodMax Period = "max"
)

// Periods lists every accepted period token in ascending length.
var Periods = []Period{
	Period1D, Period5D, Period1M, Period3M, Period6M,
	Period1Y, Period2Y, Period5Y, Period10Y, PeriodYTD, PeriodMax,
}

// ParsePeriod validates a period token.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	valid := make([]string, len(Periods))
	for i, known := range Periods {
		valid[i] = string(known)
	}
	return "", &ValidationError{
		Field:   "period",
		Message: "got " + s + ", valid options: " + strings.Join(valid, ", "),
	}
}

// Start returns the first calendar date covered by the period ending at now.
// The zero time is returned for PeriodMax.
func (p Period) Start(now time.Time) time.Time {
	today := CalendarDate(now)
	switch p {
	case Period1D:
		return today.AddDate(0, 0, -1)
	case Period5D:
		return today.AddDate(0, 0, -5)
	case Period1M:
		return today.AddDate(0, -1, 0)
	case Period3M:
		return today.AddDate(0, -3, 0)
	case Period6M:
		return today.AddDate(0, -6, 0)
	case Period1Y:
		return today.AddDate(-1, 0, 0)
	case Period2Y:
		return today.AddDate(-2, 0, 0)
	case Period5Y:
		return today.AddDate(-5, 0, 0)
	case Period10Y:
		return today.AddDate(-10, 0, 0)
	case PeriodYTD:
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}
