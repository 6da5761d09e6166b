// Package alarm implements the gRPC admin API of the alarm scheduler.
//
// The alarm.v1.AlarmScheduler service is described by hand with a
// grpc.ServiceDesc and exchanges protobuf well-known types (Struct,
// StringValue, BoolValue, Empty), so it works with the default proto codec
// and needs no generated code. Server adapts the service to a business
// Service interface; SchedulerClient is the matching typed client.
package alarm
