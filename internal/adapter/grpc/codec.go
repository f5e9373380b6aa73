package grpc

import (
	"math"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
	"github.com/cactuswealth/wealth-analytics/internal/usecase/backtest"
	"github.com/cactuswealth/wealth-analytics/internal/usecase/dashboard"
)

const dateLayout = "2006-01-02"

func field(req *structpb.Struct, name string) *structpb.Value {
	if req == nil {
		return nil
	}
	return req.GetFields()[name]
}

func stringField(req *structpb.Struct, name string) string {
	return field(req, name).GetStringValue()
}

// requiredUUID parses a mandatory id field
func requiredUUID(req *structpb.Struct, name string) (uuid.UUID, error) {
	raw := stringField(req, name)
	if raw == "" {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", name, err)
	}
	return id, nil
}

// intField reads an integral number field, falling back to def when absent
func intField(req *structpb.Struct, name string, def int) (int, error) {
	v := field(req, name)
	if v == nil {
		return def, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
	if math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s is out of range", name)
	}
	return int(n.NumberValue), nil
}

// scopeFromRequest reads the optional advisor_id restricting aggregate queries
func scopeFromRequest(req *structpb.Struct) (domain.Scope, error) {
	if stringField(req, "advisor_id") == "" {
		return domain.AllPortfolios, nil
	}
	id, err := requiredUUID(req, "advisor_id")
	if err != nil {
		return domain.Scope{}, err
	}
	return domain.ScopeForAdvisor(id), nil
}

// backtestRequestFromStruct decodes {composition: [{ticker, weight}], benchmarks: [...], period}
func backtestRequestFromStruct(req *structpb.Struct) (backtest.Request, error) {
	out := backtest.Request{Period: stringField(req, "period")}

	for i, item := range field(req, "composition").GetListValue().GetValues() {
		s := item.GetStructValue()
		if s == nil {
			return backtest.Request{}, status.Errorf(codes.InvalidArgument, "composition[%d] must be an object", i)
		}
		weight, ok := field(s, "weight").GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return backtest.Request{}, status.Errorf(codes.InvalidArgument, "composition[%d].weight must be a number", i)
		}
		out.Composition = append(out.Composition, domain.CompositionItem{
			Ticker: stringField(s, "ticker"),
			Weight: weight.NumberValue,
		})
	}

	for _, b := range field(req, "benchmarks").GetListValue().GetValues() {
		out.Benchmarks = append(out.Benchmarks, b.GetStringValue())
	}
	return out, nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func valuationToMap(v *domain.PortfolioValuation) map[string]any {
	positions := make([]any, 0, len(v.Positions))
	for _, p := range v.Positions {
		positions = append(positions, map[string]any{
			"ticker":        p.Asset.TickerSymbol,
			"asset_name":    p.Asset.Name,
			"quantity":      p.Quantity.String(),
			"cost_basis":    p.CostBasis.String(),
			"current_price": p.CurrentPrice.String(),
			"market_value":  p.MarketValue().StringFixed(2),
		})
	}
	return map[string]any{
		"portfolio_id":         v.PortfolioID.String(),
		"portfolio_name":       v.PortfolioName,
		"total_value":          v.TotalValue.StringFixed(2),
		"total_cost_basis":     v.TotalCostBasis.StringFixed(2),
		"total_pnl":            v.TotalPnL.StringFixed(2),
		"total_pnl_percentage": v.TotalPnLPercentage.StringFixed(2),
		"positions_count":      v.PositionsCount,
		"positions":            positions,
		"last_updated":         timestamp(v.LastUpdated),
	}
}

func snapshotToMap(s *domain.PortfolioSnapshot) map[string]any {
	return map[string]any{
		"id":           s.ID.String(),
		"portfolio_id": s.PortfolioID.String(),
		"value":        s.Value.StringFixed(2),
		"timestamp":    timestamp(s.Timestamp),
	}
}

func aumToList(points []domain.AUMPoint) []any {
	out := make([]any, 0, len(points))
	for _, p := range points {
		out = append(out, map[string]any{
			"date":  p.Date.Format(dateLayout),
			"value": p.Value.StringFixed(2),
		})
	}
	return out
}

// optionalFloat maps a nil pointer to a JSON null
func optionalFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func summaryToMap(s *dashboard.Summary) map[string]any {
	return map[string]any{
		"portfolio_count": s.PortfolioCount,
		"aum":             s.AUM.StringFixed(2),
		"monthly_growth":  optionalFloat(s.MonthlyGrowth),
		"generated_at":    timestamp(s.GeneratedAt),
	}
}

func backtestToMap(r *domain.BacktestResult) map[string]any {
	composition := make([]any, 0, len(r.Composition))
	for _, c := range r.Composition {
		composition = append(composition, map[string]any{"ticker": c.Ticker, "weight": c.Weight})
	}

	benchmarks := make([]any, 0, len(r.Benchmarks))
	for _, b := range r.Benchmarks {
		benchmarks = append(benchmarks, b)
	}

	points := make([]any, 0, len(r.DataPoints))
	for _, p := range r.DataPoints {
		values := make(map[string]any, len(p.BenchmarkValues))
		for k, v := range p.BenchmarkValues {
			values[k] = v
		}
		events := make([]any, 0, len(p.DividendEvents))
		for _, e := range p.DividendEvents {
			events = append(events, map[string]any{"ticker": e.Ticker, "amount": e.Amount})
		}
		points = append(points, map[string]any{
			"date":             p.Date.Format(dateLayout),
			"portfolio_value":  p.PortfolioValue,
			"benchmark_values": values,
			"dividend_events":  events,
		})
	}

	m := r.Metrics
	benchMetrics := make(map[string]any, len(m.Benchmarks))
	for name, b := range m.Benchmarks {
		benchMetrics[name] = map[string]any{
			"total_return": b.TotalReturn,
			"vs":           b.VsBenchmark,
			"alpha":        b.Alpha,
		}
	}

	return map[string]any{
		"start_date":            r.StartDate.Format(dateLayout),
		"end_date":              r.EndDate.Format(dateLayout),
		"period":                string(r.Period),
		"portfolio_composition": composition,
		"benchmarks":            benchmarks,
		"data_points":           points,
		"performance_metrics": map[string]any{
			"total_return":              m.TotalReturn,
			"annualized_return":         m.AnnualizedReturn,
			"annualized_volatility":     m.AnnualizedVolatility,
			"sharpe_ratio":              m.SharpeRatio,
			"max_drawdown":              m.MaxDrawdown,
			"start_value":               m.StartValue,
			"end_value":                 m.EndValue,
			"trading_days":              m.TradingDays,
			"risk_free_rate_assumption": m.RiskFreeRateAssumption,
			"benchmarks":                benchMetrics,
		},
	}
}

// toStruct converts a response map into a protobuf Struct
func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return s, nil
}
