package backtest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

// seriesKind distinguishes cached price and dividend series of the same ticker
type seriesKind string

const (
	kindPrices    seriesKind = "prices"
	kindDividends seriesKind = "dividends"
)

const (
	cacheKeyPrefix = "marketdata:"
	cacheDateFmt   = "2006-01-02"
)

// cacheKey derives the store key of a series: prefix + hex(sha256("kind:ticker:period"))
func cacheKey(kind seriesKind, ticker string, period domain.Period) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", kind, ticker, period)))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// cachedSeries is the wire form of a series in the cache
type cachedSeries struct {
	Dates  []string  `msgpack:"dates"`
	Values []float64 `msgpack:"values"`
}

func encodeSeries(s domain.Series) ([]byte, error) {
	c := cachedSeries{
		Dates:  make([]string, len(s)),
		Values: make([]float64, len(s)),
	}
	for i, o := range s {
		c.Dates[i] = o.Date.Format(cacheDateFmt)
		c.Values[i] = o.Value
	}
	return msgpack.Marshal(&c)
}

func decodeSeries(b []byte) (domain.Series, error) {
	var c cachedSeries
	if err := msgpack.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cached series: %w", err)
	}
	if len(c.Dates) != len(c.Values) {
		return nil, fmt.Errorf("cached series has %d dates and %d values", len(c.Dates), len(c.Values))
	}
	s := make(domain.Series, len(c.Dates))
	for i, d := range c.Dates {
		date, err := time.Parse(cacheDateFmt, d)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cached date %q: %w", d, err)
		}
		s[i] = domain.Observation{Date: date, Value: c.Values[i]}
	}
	return s, nil
}

// cachedFetch serves a series from the cache when present, otherwise loads it and
// writes it back. Cache failures of any kind are logged and treated as a miss.
func (s *BacktestService) cachedFetch(
	ctx context.Context,
	kind seriesKind,
	ticker string,
	period domain.Period,
	load func(ctx context.Context) (domain.Series, error),
) (domain.Series, error) {
	key := cacheKey(kind, ticker, period)
	log := s.Logger.With(zap.String("ticker", ticker), zap.String("kind", string(kind)))

	raw, found, err := s.Cache.Get(ctx, key)
	switch {
	case err != nil:
		log.Warn("cache read failed", zap.Error(err))
	case found:
		series, err := decodeSeries(raw)
		if err == nil {
			log.Debug("cache hit")
			return series, nil
		}
		log.Warn("discarding unreadable cache entry", zap.Error(err))
	}

	series, err := load(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeSeries(series)
	if err != nil {
		log.Warn("cache encode failed", zap.Error(err))
		return series, nil
	}
	if err := s.Cache.Set(ctx, key, encoded, s.CacheTTL); err != nil {
		log.Warn("cache write failed", zap.Error(err))
	}
	return series, nil
}
