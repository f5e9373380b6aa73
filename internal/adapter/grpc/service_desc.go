package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name
const ServiceName = "cactus.analytics.v1.AnalyticsService"

// AnalyticsServer is the server API for AnalyticsService.
// Every method exchanges google.protobuf.Struct messages.
type AnalyticsServer interface {
	GetValuation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSnapshots(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAUMHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMonthlyGrowth(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDashboardSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RunBacktest(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(AnalyticsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AnalyticsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(name),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AnalyticsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FullMethod returns the full RPC path of a method
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// AnalyticsServiceDesc is the grpc.ServiceDesc for AnalyticsService
var AnalyticsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalyticsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetValuation", Handler: unaryHandler("GetValuation", AnalyticsServer.GetValuation)},
		{MethodName: "RecordSnapshot", Handler: unaryHandler("RecordSnapshot", AnalyticsServer.RecordSnapshot)},
		{MethodName: "ListSnapshots", Handler: unaryHandler("ListSnapshots", AnalyticsServer.ListSnapshots)},
		{MethodName: "GetAUMHistory", Handler: unaryHandler("GetAUMHistory", AnalyticsServer.GetAUMHistory)},
		{MethodName: "GetMonthlyGrowth", Handler: unaryHandler("GetMonthlyGrowth", AnalyticsServer.GetMonthlyGrowth)},
		{MethodName: "GetDashboardSummary", Handler: unaryHandler("GetDashboardSummary", AnalyticsServer.GetDashboardSummary)},
		{MethodName: "RunBacktest", Handler: unaryHandler("RunBacktest", AnalyticsServer.RunBacktest)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cactus/analytics/v1/analytics.proto",
}

// RegisterAnalyticsServer registers srv on s
func RegisterAnalyticsServer(s grpc.ServiceRegistrar, srv AnalyticsServer) {
	s.RegisterService(&AnalyticsServiceDesc, srv)
}

// AnalyticsClient calls AnalyticsService methods by name
type AnalyticsClient struct {
	cc grpc.ClientConnInterface
}

func NewAnalyticsClient(cc grpc.ClientConnInterface) *AnalyticsClient {
	return &AnalyticsClient{cc: cc}
}

// Call invokes method with in and returns the decoded response
func (c *AnalyticsClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
