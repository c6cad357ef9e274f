package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	identityKey  contextKey = "identity"
)

// Identity is the authenticated caller attached to a request context.
// UserID is empty for configured administrators.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// WithContext attaches a logger to ctx.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger attached to ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request id and tags the context logger with it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("request_id", requestID)))
}

// GetRequestID returns the request id stored in ctx.
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}

// WithIdentity stores the caller and tags the context logger with it.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, identityKey, id)
	return WithContext(ctx, FromContext(ctx).With(id.fields()...))
}

// IdentityFrom returns the caller stored in ctx.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func (id Identity) fields() []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if id.UserID != "" {
		fields = append(fields, zap.String("user_id", id.UserID))
	}
	if id.Email != "" {
		fields = append(fields, zap.String("email", id.Email))
	}
	if id.Role != "" {
		fields = append(fields, zap.String("role", id.Role))
	}
	return fields
}

// TraceFields returns trace_id and span_id for the active span, if any.
func TraceFields(ctx context.Context) []zap.Field {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	}
}

// L returns the context logger correlated with the active span.
//
//	logger.L(ctx).Info("invoice issued", zap.String("invoice_id", id))
func L(ctx context.Context) *zap.Logger {
	logger := FromContext(ctx)
	if fields := TraceFields(ctx); fields != nil {
		return logger.With(fields...)
	}
	return logger
}
