package traceutil

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type traceIDKey struct{}

// SetTraceID sets the traceID into the context.
func SetTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceID returns the traceID from the context.
func TraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey{}).(string); ok {
		return traceID
	}
	return ""
}

// EnsureTraceID returns a context carrying traceID.
// A random one is generated if traceID is empty.
func EnsureTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = uuid.NewString()
	}
	return SetTraceID(ctx, traceID)
}

// TraceLogField returns a zap.Field for logging.
// It returns zap.Skip() if the traceID is not found in the context.
func TraceLogField(ctx context.Context) zap.Field {
	if traceID, ok := ctx.Value(traceIDKey{}).(string); ok {
		return zap.String("trace-id", traceID)
	}
	return zap.Skip()
}
