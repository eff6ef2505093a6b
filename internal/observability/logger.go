// internal/observability/logger.go
package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// SLogger is a wrapper for a zap sugared logger with OpenTelemetry integration
type SLogger struct {
	*zap.SugaredLogger
}

const (
	traceIDKey = "trace_id"
	spanIDKey  = "span_id"
)

// NewLogger constructs a new sugared logger with OpenTelemetry integration
func NewLogger(level zapcore.Level, options ...zap.Option) (*SLogger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	baseLogger, err := config.Build(options...)
	if err != nil {
		return nil, err
	}

	logger := newSLogger(baseLogger)
	logger.Info("Initialized Logger level:" + config.Level.String())

	return logger, nil
}

func newSLogger(logger *zap.Logger) *SLogger {
	return &SLogger{
		SugaredLogger: logger.Sugar(),
	}
}

// getTraceInfo gets the trace and span metadata from context
func getTraceInfo(ctx context.Context) (trace.TraceID, trace.SpanID, bool) {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return trace.TraceID{}, trace.SpanID{}, false
	}

	return span.SpanContext().TraceID(), span.SpanContext().SpanID(), true
}

// InfoCtx logs a message with trace context
func (l *SLogger) InfoCtx(ctx context.Context, msg string) {
	traceID, spanID, ok := getTraceInfo(ctx)
	if !ok {
		l.Info(msg)
		return
	}

	l.Infow(msg, traceIDKey, traceID.String(), spanIDKey, spanID.String())
}

// ErrorCtx logs an error with trace context
func (l *SLogger) ErrorCtx(ctx context.Context, err error) {
	traceID, spanID, ok := getTraceInfo(ctx)
	if !ok {
		l.Error(err)
		return
	}

	l.Errorw(err.Error(), traceIDKey, traceID.String(), spanIDKey, spanID.String())
}

// GetTraceID returns the trace ID from context
func GetTraceID(ctx context.Context) (string, bool) {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return "", false
	}
	return span.SpanContext().TraceID().String(), true
}

// NewTestLogger creates a logger for testing
func NewTestLogger() (*SLogger, *observer.ObservedLogs, error) {
	core, observedLogs := observer.New(zapcore.DebugLevel)
	observedOpt := zap.WrapCore(func(zapcore.Core) zapcore.Core {
		return core
	})

	baseLogger, err := zap.NewDevelopment(observedOpt)
	if err != nil {
		return nil, nil, err
	}

	return newSLogger(baseLogger), observedLogs, nil
}
