package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a portfolio, asset or ticker does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is returned by market data providers for transient failures
	// or when no data exists for the requested window.
	ErrUnavailable = errors.New("market data unavailable")

	// ErrInsufficientData is returned when an aligned series is too short to analyse.
	ErrInsufficientData = errors.New("insufficient data points")

	// ErrIndexOrder signals a date index that is not strictly chronological.
	// It is a programming contract violation, never a data problem.
	ErrIndexOrder = errors.New("date index is not strictly increasing")
)

// ValidationError is returned for malformed requests. It is always raised
// before any network or cache access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// DataUnavailableError reports tickers without usable market data.
// Valuation and backtests abort entirely when it occurs.
type DataUnavailableError struct {
	Tickers []string
	Err     error
}

func (e *DataUnavailableError) Error() string {
	msg := "data unavailable for " + strings.Join(e.Tickers, ", ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}
