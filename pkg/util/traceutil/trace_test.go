package traceutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTraceID(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	ctx := context.Background()
	re.Equal("", TraceID(ctx))

	tCtx1 := SetTraceID(ctx, "test1")
	re.Equal("test1", TraceID(tCtx1))

	tCtx2 := SetTraceID(ctx, "")
	re.Equal("", TraceID(tCtx2))

	tCtx3 := SetTraceID(ctx, "test3")
	re.Equal("test3", TraceID(tCtx3))
}

func TestEnsureTraceID(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	ctx := EnsureTraceID(context.Background(), "req-1")
	re.Equal("req-1", TraceID(ctx))

	ctx = EnsureTraceID(context.Background(), "")
	_, err := uuid.Parse(TraceID(ctx))
	re.NoError(err)
}

func TestTraceLogField(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	re.Equal(zap.Skip(), TraceLogField(context.Background()))
	re.Equal(zap.String("trace-id", "test"), TraceLogField(SetTraceID(context.Background(), "test")))
}
