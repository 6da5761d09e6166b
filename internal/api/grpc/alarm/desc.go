package alarm

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "alarm.v1.AlarmScheduler"

	// ScheduleMethod creates a notification alarm.
	ScheduleMethod = "/" + ServiceName + "/Schedule"
	// CancelMethod cancels a pending alarm.
	CancelMethod = "/" + ServiceName + "/Cancel"
	// RescheduleMethod re-arms an alarm.
	RescheduleMethod = "/" + ServiceName + "/Reschedule"
	// StatsMethod returns a scheduler stats snapshot.
	StatsMethod = "/" + ServiceName + "/Stats"
)

// SchedulerServer is the server API of alarm.v1.AlarmScheduler.
type SchedulerServer interface {
	Schedule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Cancel(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	Reschedule(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	Stats(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterSchedulerServer registers srv on the gRPC server.
func RegisterSchedulerServer(registrar grpc.ServiceRegistrar, srv SchedulerServer) {
	registrar.RegisterService(&serviceDesc, srv)
}

//nolint:gochecknoglobals // Service descriptors are registered by address, like generated code does.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Schedule",
			Handler:    unary[structpb.Struct](ScheduleMethod, SchedulerServer.Schedule),
		},
		{
			MethodName: "Cancel",
			Handler:    unary[wrapperspb.StringValue](CancelMethod, SchedulerServer.Cancel),
		},
		{
			MethodName: "Reschedule",
			Handler:    unary[structpb.Struct](RescheduleMethod, SchedulerServer.Reschedule),
		},
		{
			MethodName: "Stats",
			Handler:    unary[emptypb.Empty](StatsMethod, SchedulerServer.Stats),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alarm/v1/scheduler.proto",
}

// unary builds a gRPC method handler that decodes a Req and dispatches to call,
// honouring the server's unary interceptor chain.
func unary[Req any, PReq interface{ *Req }, Resp any](
	fullMethod string,
	call func(SchedulerServer, context.Context, PReq) (Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}

		server := srv.(SchedulerServer) //nolint:forcetypeassert // HandlerType guarantees the type.
		if interceptor == nil {
			out, err := call(server, ctx, in)

			return out, err
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			out, err := call(server, ctx, req.(PReq)) //nolint:forcetypeassert // Request was decoded above.

			return out, err
		}

		return interceptor(ctx, in, info, handler)
	}
}

// SchedulerClient is the client API of alarm.v1.AlarmScheduler.
type SchedulerClient struct {
	// cc is the connection calls are made on.
	cc grpc.ClientConnInterface
}

// NewSchedulerClient creates a client bound to cc.
func NewSchedulerClient(cc grpc.ClientConnInterface) *SchedulerClient {
	return &SchedulerClient{
		cc: cc,
	}
}

// Schedule calls alarm.v1.AlarmScheduler/Schedule.
func (c *SchedulerClient) Schedule(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ScheduleMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Cancel calls alarm.v1.AlarmScheduler/Cancel.
func (c *SchedulerClient) Cancel(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, CancelMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Reschedule calls alarm.v1.AlarmScheduler/Reschedule.
func (c *SchedulerClient) Reschedule(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, RescheduleMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Stats calls alarm.v1.AlarmScheduler/Stats.
func (c *SchedulerClient) Stats(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, StatsMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
