package domain

import (
	"fmt"
	"math"
	"strings"
)

// WeightTolerance is the accepted deviation of a composition's weight sum from 1.0.
const WeightTolerance = 0.001

// CompositionItem is one asset allocation of a hypothetical portfolio.
type CompositionItem struct {
	Ticker string
	Weight float64 // fraction in [0, 1]
}

// Composition is the ordered target allocation used for backtesting.
type Composition []CompositionItem

// Validate ensures the composition is non-empty, every weight is in [0, 1]
// and the weights sum to 1.0 within WeightTolerance.
func (c Composition) Validate() error {
	if len(c) == 0 {
		return &ValidationError{Field: "composition", Message: "composition must have at least one item"}
	}

	total := 0.0
	for _, item := range c {
		if strings.TrimSpace(item.Ticker) == "" {
			return &ValidationError{Field: "composition", Message: "ticker cannot be empty"}
		}
		if math.IsNaN(item.Weight) || item.Weight < 0 || item.Weight > 1 {
			return &ValidationError{
				Field:   "composition",
				Message: fmt.Sprintf("weight for %s must be between 0 and 1, got %v", item.Ticker, item.Weight),
			}
		}
		total += item.Weight
	}

	if math.Abs(total-1.0) > WeightTolerance {
		return &ValidationError{
			Field:   "composition",
			Message: fmt.Sprintf("portfolio weights must sum to 1.0, got %v", total),
		}
	}

	return nil
}

// Weights returns the weight per normalized ticker. Repeated tickers accumulate.
func (c Composition) Weights() map[string]float64 {
	weights := make(map[string]float64, len(c))
	for _, item := range c {
		weights[NormalizeTicker(item.Ticker)] += item.Weight
	}
	return weights
}

// Tickers returns the normalized tickers in composition order, without duplicates.
func (c Composition) Tickers() []string {
	tickers := make([]string, 0, len(c))
	for _, item := range c {
		tickers = append(tickers, item.Ticker)
	}
	return UniqueTickers(tickers)
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// UniqueTickers normalizes tickers and drops blanks and duplicates, keeping first-seen order.
func UniqueTickers(groups ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range groups {
		for _, t := range group {
			t = NormalizeTicker(t)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
