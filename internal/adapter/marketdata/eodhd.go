package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

// EODHDClient implements domain.MarketDataGateway on top of the EODHD REST API.
//
// Tickers are passed through as EODHD symbols ("AAPL.US"); a bare symbol is
// suffixed with DefaultExchange.
type EODHDClient struct {
	BaseURL         string
	APIKey          string
	DefaultExchange string
	HTTP            *http.Client
	Logger          *zap.Logger

	now func() time.Time
}

// NewEODHDClient returns a client with its own http.Client bounded by timeout.
func NewEODHDClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *EODHDClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EODHDClient{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		APIKey:          apiKey,
		DefaultExchange: "US",
		HTTP:            &http.Client{Timeout: timeout},
		Logger:          logger,
		now:             time.Now,
	}
}

// GetCurrentPrice returns the latest close from the real-time endpoint.
func (c *EODHDClient) GetCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	// https://eodhd.com/api/real-time/AAPL.US?api_token=demo&fmt=json
	// {"code":"AAPL.US","timestamp":1715371200,"close":183.05,"previousClose":184.57,...}
	// unknown symbols answer "NA" in every numeric field
	var payload struct {
		Code  string          `json:"code"`
		Close json.RawMessage `json:"close"`
	}
	if err := c.get(ctx, "real-time/"+c.symbol(ticker), nil, &payload); err != nil {
		return 0, err
	}

	var price float64
	if err := json.Unmarshal(payload.Close, &price); err != nil || price <= 0 {
		return 0, fmt.Errorf("ticker %s has no valid recent price: %w", ticker, domain.ErrNotFound)
	}
	c.Logger.Debug("retrieved current price", zap.String("ticker", ticker), zap.Float64("price", price))
	return price, nil
}

// GetHistory returns adjusted daily closes for period.
func (c *EODHDClient) GetHistory(ctx context.Context, ticker string, period domain.Period) (domain.Series, error) {
	// https://eodhd.com/api/eod/AAPL.US?api_token=demo&fmt=json&from=2024-01-01&period=d
	// [{"date":"2024-01-02","open":187.15,"high":188.44,"low":183.88,"close":185.64,"adjusted_close":184.94,"volume":82488700}]
	query := url.Values{"period": {"d"}}
	if from := period.Start(c.now()); !from.IsZero() {
		query.Set("from", from.Format(time.DateOnly))
	}

	var rows []struct {
		Date          string  `json:"date"`
		Close         float64 `json:"close"`
		AdjustedClose float64 `json:"adjusted_close"`
	}
	if err := c.get(ctx, "eod/"+c.symbol(ticker), query, &rows); err != nil {
		return nil, err
	}

	series := make(domain.Series, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(time.DateOnly, row.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q for %s: %w", row.Date, ticker, domain.ErrUnavailable)
		}
		value := row.AdjustedClose
		if value == 0 {
			value = row.Close
		}
		series = append(series, domain.Observation{Date: date, Value: value})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no price history for %s over %s: %w", ticker, period, domain.ErrUnavailable)
	}
	return series.Normalize(), nil
}

// GetDividends returns the full dividend history of ticker.
func (c *EODHDClient) GetDividends(ctx context.Context, ticker string) (domain.Series, error) {
	// https://eodhd.com/api/div/AAPL.US?api_token=demo&fmt=json
	// [{"date":"2024-02-09","declarationDate":"2024-02-01","value":0.24,"unadjustedValue":0.24,"currency":"USD"}]
	var rows []struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	}
	if err := c.get(ctx, "div/"+c.symbol(ticker), nil, &rows); err != nil {
		return nil, err
	}

	series := make(domain.Series, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(time.DateOnly, row.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid dividend date %q for %s: %w", row.Date, ticker, domain.ErrUnavailable)
		}
		series = append(series, domain.Observation{Date: date, Value: row.Value})
	}
	return series.Normalize(), nil
}

func (c *EODHDClient) symbol(ticker string) string {
	ticker = domain.NormalizeTicker(ticker)
	if strings.Contains(ticker, ".") || c.DefaultExchange == "" {
		return ticker
	}
	return ticker + "." + c.DefaultExchange
}

// get performs a GET on path and decodes the JSON body into data.
// 404 maps to domain.ErrNotFound, every other failure to domain.ErrUnavailable.
func (c *EODHDClient) get(ctx context.Context, path string, query url.Values, data any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", c.APIKey)
	query.Set("fmt", "json")
	addr := c.BaseURL + "/" + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, redact(err))
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		err = redact(err)
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("GET %s: %w", path, err)
		}
		return fmt.Errorf("GET %s: %v: %w", path, err, domain.ErrUnavailable)
	}
	defer resp.Body.Close()

	c.Logger.Debug("marketdata request", zap.String("path", path), zap.Int("status", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("GET %s: %s: %w", path, resp.Status, domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("GET %s: %s: %w", path, resp.Status, domain.ErrUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s: %v: %w", path, err, domain.ErrUnavailable)
	}
	if err := json.Unmarshal(body, data); err != nil {
		return fmt.Errorf("failed to decode %s: %v: %w", path, err, domain.ErrUnavailable)
	}
	return nil
}

// redact drops the request URL, which carries the api token, from transport errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
