package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	//nolint:gochecknoglobals // Shared by every context without its own logger.
	global *zap.SugaredLogger
	//nolint:gochecknoglobals // Switched at runtime from log_level in the settings.
	level = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() { //nolint:gochecknoinits // Packages log before main configures anything.
	SetLogger(New(level))
}

// consoleEncoder prints "time, LEVEL, scheduler.alarm, caller, message, {fields}".
func consoleEncoder() zapcore.Encoder {
	//nolint:exhaustruct // Unset keys are intentionally omitted from output.
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		MessageKey:       "message",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalColorLevelEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: ", ",
	})
}

// New builds a console logger on stdout. A nil enabler uses the shared level,
// so SetLevel affects it.
func New(enabler zapcore.LevelEnabler, options ...zap.Option) *zap.SugaredLogger {
	if enabler == nil {
		enabler = level
	}

	core := zapcore.NewCore(consoleEncoder(), zapcore.Lock(os.Stdout), enabler)

	return zap.New(core, options...).Sugar()
}

// ParseLogLevel accepts the levels allowed in the settings file, in any case.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	var parsed zapcore.Level

	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" || parsed.UnmarshalText([]byte(name)) != nil {
		return zapcore.InfoLevel, false
	}

	if parsed < zapcore.DebugLevel || parsed > zapcore.ErrorLevel {
		return zapcore.InfoLevel, false
	}

	return parsed, true
}

// Level returns the shared level.
func Level() zapcore.Level {
	return level.Level()
}

// Logger returns the global logger.
func Logger() *zap.SugaredLogger {
	return global
}

// SetLogger replaces the global logger. Not safe for concurrent use.
func SetLogger(l *zap.SugaredLogger) {
	global = l
}

// SetLevel switches the shared level.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// Debug logs args at debug level through the context logger.
func Debug(ctx context.Context, args ...any) {
	FromContext(ctx).Debug(args...)
}

// Info logs args at info level through the context logger.
func Info(ctx context.Context, args ...any) {
	FromContext(ctx).Info(args...)
}

// DebugKV logs message with key-value pairs at debug level.
func DebugKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Debugw(message, kvs...)
}

// InfoKV logs message with key-value pairs at info level.
func InfoKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Infow(message, kvs...)
}

// WarnKV logs message with key-value pairs at warn level.
func WarnKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Warnw(message, kvs...)
}

// ErrorKV logs message with key-value pairs at error level.
func ErrorKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Errorw(message, kvs...)
}
