package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
	"github.com/cactuswealth/wealth-analytics/internal/usecase/backtest"
	"github.com/cactuswealth/wealth-analytics/internal/usecase/dashboard"
)

// Valuator values a portfolio
type Valuator interface {
	Valuate(ctx context.Context, portfolioID uuid.UUID) (*domain.PortfolioValuation, error)
}

// SnapshotRecorder records and reads portfolio snapshots
type SnapshotRecorder interface {
	Record(ctx context.Context, portfolioID uuid.UUID) (*domain.PortfolioSnapshot, error)
	History(ctx context.Context, portfolioID uuid.UUID, limit int) ([]*domain.PortfolioSnapshot, error)
	AUMHistory(ctx context.Context, days int, scope domain.Scope) []domain.AUMPoint
}

// GrowthCalculator computes month-to-date growth
type GrowthCalculator interface {
	MonthlyGrowth(ctx context.Context, scope domain.Scope) *float64
}

// DashboardProvider computes the dashboard summary
type DashboardProvider interface {
	Summary(ctx context.Context, scope domain.Scope) (*dashboard.Summary, error)
}

// Backtester runs backtests
type Backtester interface {
	Run(ctx context.Context, req backtest.Request) (*domain.BacktestResult, error)
}

// DefaultAUMDays is the AUM history window when the request omits days
const DefaultAUMDays = 30

// Server implements the AnalyticsService gRPC server
type Server struct {
	ValuationService Valuator
	SnapshotService  SnapshotRecorder
	GrowthService    GrowthCalculator
	DashboardService DashboardProvider
	BacktestService  Backtester
}

var _ AnalyticsServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(
	valuationService Valuator,
	snapshotService SnapshotRecorder,
	growthService GrowthCalculator,
	dashboardService DashboardProvider,
	backtestService Backtester,
) *Server {
	return &Server{
		ValuationService: valuationService,
		SnapshotService:  snapshotService,
		GrowthService:    growthService,
		DashboardService: dashboardService,
		BacktestService:  backtestService,
	}
}

// GetValuation handles the GetValuation RPC
func (s *Server) GetValuation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	portfolioID, err := requiredUUID(req, "portfolio_id")
	if err != nil {
		return nil, err
	}

	valuation, err := s.ValuationService.Valuate(ctx, portfolioID)
	if err != nil {
		return nil, mapError(err)
	}

	return toStruct(valuationToMap(valuation))
}

// RecordSnapshot handles the RecordSnapshot RPC
func (s *Server) RecordSnapshot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	portfolioID, err := requiredUUID(req, "portfolio_id")
	if err != nil {
		return nil, err
	}

	snapshot, err := s.SnapshotService.Record(ctx, portfolioID)
	if err != nil {
		return nil, mapError(err)
	}

	return toStruct(snapshotToMap(snapshot))
}

// ListSnapshots handles the ListSnapshots RPC
func (s *Server) ListSnapshots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	portfolioID, err := requiredUUID(req, "portfolio_id")
	if err != nil {
		return nil, err
	}
	limit, err := intField(req, "limit", 0)
	if err != nil {
		return nil, err
	}

	snapshots, err := s.SnapshotService.History(ctx, portfolioID, limit)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]any, 0, len(snapshots))
	for _, snap := range snapshots {
		items = append(items, snapshotToMap(snap))
	}
	return toStruct(map[string]any{"snapshots": items})
}

// GetAUMHistory handles the GetAUMHistory RPC
func (s *Server) GetAUMHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope, err := scopeFromRequest(req)
	if err != nil {
		return nil, err
	}
	days, err := intField(req, "days", DefaultAUMDays)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		return nil, status.Error(codes.InvalidArgument, "days must be positive")
	}

	points := s.SnapshotService.AUMHistory(ctx, days, scope)
	return toStruct(map[string]any{"points": aumToList(points)})
}

// GetMonthlyGrowth handles the GetMonthlyGrowth RPC
func (s *Server) GetMonthlyGrowth(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope, err := scopeFromRequest(req)
	if err != nil {
		return nil, err
	}

	growth := s.GrowthService.MonthlyGrowth(ctx, scope)
	return toStruct(map[string]any{"monthly_growth": optionalFloat(growth)})
}

// GetDashboardSummary handles the GetDashboardSummary RPC
func (s *Server) GetDashboardSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope, err := scopeFromRequest(req)
	if err != nil {
		return nil, err
	}

	summary, err := s.DashboardService.Summary(ctx, scope)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(summaryToMap(summary))
}

// RunBacktest handles the RunBacktest RPC
func (s *Server) RunBacktest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := backtestRequestFromStruct(req)
	if err != nil {
		return nil, err
	}

	result, err := s.BacktestService.Run(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(backtestToMap(result))
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var validationErr *domain.ValidationError
	var dataErr *domain.DataUnavailableError
	switch {
	case errors.As(err, &validationErr):
		return status.Errorf(codes.InvalidArgument, "%s", err.Error())
	case errors.As(err, &dataErr):
		return status.Errorf(codes.FailedPrecondition, "%s", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s", err.Error())
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s", err.Error())
	default:
		return status.Errorf(codes.Internal, "%s", err.Error())
	}
}
