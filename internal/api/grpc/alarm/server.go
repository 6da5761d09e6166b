package alarm

import (
	"context"
	"errors"
	"math"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	statsrepo "github.com/oshokin/alarm-scheduler/internal/repository/stats"
	"github.com/oshokin/alarm-scheduler/internal/scheduler"
)

const (
	// FieldID carries an alarm id.
	FieldID = "id"
	// FieldDelayMillis carries a delay in milliseconds.
	FieldDelayMillis = "delay_ms"
	// FieldMessage carries the notification text of a scheduled alarm.
	FieldMessage = "message"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Schedule(ctx context.Context, delay time.Duration, message string) (string, error)
	Cancel(ctx context.Context, id string) (bool, error)
	// Reschedule re-arms the alarm; a nil delay reuses the latest one.
	Reschedule(ctx context.Context, id string, delay *time.Duration) error
	Stats(ctx context.Context) *domain.Stats
}

// Server implements the alarm.v1.AlarmScheduler gRPC API.
type Server struct {
	// service provides the business logic for alarm operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// Schedule creates a notification alarm and returns its id.
func (s *Server) Schedule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	delay, ok, err := delayField(req)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, status.Error(codes.InvalidArgument, FieldDelayMillis+" is required")
	}

	id, err := s.service.Schedule(ctx, delay, req.GetFields()[FieldMessage].GetStringValue())
	if err != nil {
		return nil, toStatus(err)
	}

	response, err := structpb.NewStruct(map[string]any{FieldID: id})
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to build response")
	}

	return response, nil
}

// Cancel cancels a pending alarm and reports whether anything was cancelled.
func (s *Server) Cancel(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "alarm id is required")
	}

	cancelled, err := s.service.Cancel(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	return wrapperspb.Bool(cancelled), nil
}

// Reschedule re-arms an alarm with the given or the latest delay.
func (s *Server) Reschedule(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	id := req.GetFields()[FieldID].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "alarm id is required")
	}

	delay, ok, err := delayField(req)
	if err != nil {
		return nil, err
	}

	var requested *time.Duration
	if ok {
		requested = &delay
	}

	if err := s.service.Reschedule(ctx, id, requested); err != nil {
		return nil, toStatus(err)
	}

	return new(emptypb.Empty), nil
}

// Stats returns the current scheduler stats snapshot.
func (s *Server) Stats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	response, err := statsrepo.ToStruct(s.service.Stats(ctx))
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to build response")
	}

	return response, nil
}

// delayField extracts the optional delay_ms field.
func delayField(req *structpb.Struct) (time.Duration, bool, error) {
	value, ok := req.GetFields()[FieldDelayMillis]
	if !ok {
		return 0, false, nil
	}

	number, isNumber := value.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, false, status.Error(codes.InvalidArgument, FieldDelayMillis+" must be a number")
	}

	millis := number.NumberValue
	if math.IsNaN(millis) || math.IsInf(millis, 0) || millis > float64(math.MaxInt64/int64(time.Millisecond)) {
		return 0, false, status.Error(codes.InvalidArgument, FieldDelayMillis+" is out of range")
	}

	if millis < 0 {
		return 0, false, status.Error(codes.InvalidArgument, FieldDelayMillis+" must not be negative")
	}

	return time.Duration(millis * float64(time.Millisecond)), true, nil
}

// toStatus maps business errors to gRPC status errors.
func toStatus(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrUnknownAlarm):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, "unable to process alarm request")
	}
}
