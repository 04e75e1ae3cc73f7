package id

import (
	"context"

	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/util/traceutil"
)

type LogAble interface {
	Allocator
	Logger() *zap.Logger
}

// Logger is a wrapper of Allocator that logs all operations.
type Logger struct {
	LogAble
}

func (l Logger) Alloc(ctx context.Context) (id uint64, err error) {
	id, err = l.LogAble.Alloc(ctx)

	logger := l.logger()
	if logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.With(traceutil.TraceLogField(ctx))
		logger.Debug("alloc id", zap.Uint64("id", id), zap.Error(err))
	}
	return
}

func (l Logger) Create(ctx context.Context, f func(id uint64) ([]byte, error)) (id uint64, err error) {
	id, err = l.LogAble.Create(ctx, f)

	logger := l.logger()
	if logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.With(traceutil.TraceLogField(ctx))
		logger.Debug("create record with id", zap.Uint64("id", id), zap.Error(err))
	}
	return
}

func (l Logger) CreateIf(ctx context.Context, cond Cond, f func(id uint64) ([]byte, error)) (id uint64, err error) {
	id, err = l.LogAble.CreateIf(ctx, cond, f)

	logger := l.logger()
	if logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.With(traceutil.TraceLogField(ctx))
		logger.Debug("create record with id if cond holds", zap.Uint64("id", id), zap.Error(err))
	}
	return
}

func (l Logger) logger() *zap.Logger {
	if l.LogAble.Logger() != nil {
		return l.LogAble.Logger()
	}
	return zap.NewNop()
}
