package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposition_Validate(t *testing.T) {
	tests := []struct {
		name        string
		composition Composition
		wantErr     bool
		errMsg      string
	}{
		{
			name:        "single asset at full weight",
			composition: Composition{{Ticker: "SPY", Weight: 1.0}},
			wantErr:     false,
		},
		{
			name: "three assets summing to one",
			composition: Composition{
				{Ticker: "AAPL", Weight: 0.5},
				{Ticker: "MSFT", Weight: 0.3},
				{Ticker: "GOOG", Weight: 0.2},
			},
			wantErr: false,
		},
		{
			name: "sum within tolerance above one",
			composition: Composition{
				{Ticker: "AAPL", Weight: 0.6005},
				{Ticker: "MSFT", Weight: 0.4},
			},
			wantErr: false,
		},
		{
			name: "sum within tolerance below one",
			composition: Composition{
				{Ticker: "AAPL", Weight: 0.3335},
				{Ticker: "MSFT", Weight: 0.333},
				{Ticker: "GOOG", Weight: 0.333},
			},
			wantErr: false,
		},
		{
			name:        "empty composition",
			composition: Composition{},
			wantErr:     true,
			errMsg:      "at least one item",
		},
		{
			name: "sum below tolerance",
			composition: Composition{
				{Ticker: "AAPL", Weight: 0.5},
				{Ticker: "MSFT", Weight: 0.4},
			},
			wantErr: true,
			errMsg:  "got 0.9",
		},
		{
			name: "sum above tolerance",
			composition: Composition{
				{Ticker: "AAPL", Weight: 0.7},
				{Ticker: "MSFT", Weight: 0.35},
			},
			wantErr: true,
			errMsg:  "must sum to 1.0",
		},
		{
			name: "negative weight",
			composition: Composition{
				{Ticker: "AAPL", Weight: 1.2},
				{Ticker: "MSFT", Weight: -0.2},
			},
			wantErr: true,
			errMsg:  "between 0 and 1",
		},
		{
			name:        "blank ticker",
			composition: Composition{{Ticker: "  ", Weight: 1.0}},
			wantErr:     true,
			errMsg:      "ticker cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.composition.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr), "expected a ValidationError")
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestComposition_TickersAndWeights(t *testing.T) {
	c := Composition{
		{Ticker: "aapl", Weight: 0.4},
		{Ticker: " MSFT ", Weight: 0.4},
		{Ticker: "AAPL", Weight: 0.2},
	}

	assert.Equal(t, []string{"AAPL", "MSFT"}, c.Tickers())
	weights := c.Weights()
	assert.InDelta(t, 0.6, weights["AAPL"], 1e-12)
	assert.InDelta(t, 0.4, weights["MSFT"], 1e-12)
}

func TestUniqueTickers(t *testing.T) {
	got := UniqueTickers([]string{"aapl", "msft"}, []string{"SPY", "AAPL", ""})
	assert.Equal(t, []string{"AAPL", "MSFT", "SPY"}, got)
}
