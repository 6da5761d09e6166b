package logger

import (
	"context"

	"go.uber.org/zap"
)

// Field keys shared by the scheduler and the services, so one alarm can be
// followed across log lines.
const (
	AlarmIDKey    = "alarm_id"
	CallbackKey   = "callback"
	GenerationKey = "generation"
)

type contextKey struct{}

// ToContext returns a copy of ctx carrying l.
func ToContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx or the global one.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*zap.SugaredLogger); ok && l != nil {
			return l
		}
	}

	return global
}

// WithName appends name to the logger name, e.g. "alarm-server.scheduler".
func WithName(ctx context.Context, name string) context.Context {
	return ToContext(ctx, FromContext(ctx).Named(name))
}

// WithKV returns a context whose logger always carries key=value.
func WithKV(ctx context.Context, key string, value any) context.Context {
	return ToContext(ctx, FromContext(ctx).With(key, value))
}

// WithAlarm tags every line logged through the returned context with the
// alarm id and, when known, the callback name.
func WithAlarm(ctx context.Context, id, callback string) context.Context {
	kvs := []any{AlarmIDKey, id}
	if callback != "" {
		kvs = append(kvs, CallbackKey, callback)
	}

	return ToContext(ctx, FromContext(ctx).With(kvs...))
}
