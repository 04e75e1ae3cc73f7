package kv

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/util/traceutil"
)

type LogAble interface {
	KV
	Logger() *zap.Logger
}

// Logger is a wrapper of KV that logs all operations.
type Logger struct {
	LogAble
}

func (l Logger) Get(ctx context.Context, k []byte) (v []byte, err error) {
	logger := l.logger(ctx)
	v, err = l.LogAble.Get(ctx, k)
	if logger.Core().Enabled(zap.DebugLevel) {
		logger.Debug("kv get", zap.ByteString("key", k), zap.Binary("value", v), zap.Error(err))
	}
	return
}

func (l Logger) BatchGet(ctx context.Context, keys [][]byte, inTxn bool) (kvs []KeyValue, err error) {
	logger := l.logger(ctx)
	kvs, err = l.LogAble.BatchGet(ctx, keys, inTxn)
	if logger.Core().Enabled(zap.DebugLevel) {
		fields := []zap.Field{
			zap.Bool("in-txn", inTxn),
			zap.Error(err),
		}
		for i, k := range keys {
			fields = append(fields, zap.ByteString(fmt.Sprintf("key-%d", i), k))
		}
		fields = append(fields, kvsFields(kvs)...)
		logger.Debug("kv batch get", fields...)
	}
	return
}

func (l Logger) GetByRange(ctx context.Context, r Range, rev int64, limit int64, desc bool) (kvs []KeyValue, revision int64, more bool, err error) {
	logger := l.logger(ctx)
	kvs, revision, more, err = l.LogAble.GetByRange(ctx, r, rev, limit, desc)
	if logger.Core().Enabled(zap.DebugLevel) {
		fields := []zap.Field{
			zap.ByteString("start-key", r.StartKey),
			zap.ByteString("end-key", r.EndKey),
			zap.Int64("revision", rev),
			zap.Int64("limit", limit),
			zap.Bool("desc", desc),
			zap.Int64("returned-revision", revision),
			zap.Bool("more", more),
			zap.Error(err),
		}
		fields = append(fields, kvsFields(kvs)...)
		logger.Debug("kv get by range", fields...)
	}
	return
}

func (l Logger) Put(ctx context.Context, k, v []byte, prevKV bool) (prevV []byte, err error) {
	logger := l.logger(ctx)
	prevV, err = l.LogAble.Put(ctx, k, v, prevKV)
	if logger.Core().Enabled(zap.DebugLevel) {
		logger.Debug("kv put", zap.ByteString("key", k), zap.Binary("value", v), zap.Bool("prev-kv", prevKV), zap.Binary("prev-value", prevV), zap.Error(err))
	}
	return
}

func (l Logger) PutIfAbsent(ctx context.Context, k, v []byte) (ok bool, err error) {
	logger := l.logger(ctx)
	ok, err = l.LogAble.PutIfAbsent(ctx, k, v)
	if logger.Core().Enabled(zap.DebugLevel) {
		logger.Debug("kv put if absent", zap.ByteString("key", k), zap.Binary("value", v), zap.Bool("put", ok), zap.Error(err))
	}
	return
}

func (l Logger) PutWithTTL(ctx context.Context, k, v []byte, ttl time.Duration) (err error) {
	logger := l.logger(ctx)
	err = l.LogAble.PutWithTTL(ctx, k, v, ttl)
	if logger.Core().Enabled(zap.DebugLevel) {
		logger.Debug("kv put with ttl", zap.ByteString("key", k), zap.Binary("value", v), zap.Duration("ttl", ttl), zap.Error(err))
	}
	return
}

func (l Logger) Delete(ctx context.Context, k []byte, prevKV bool) (prevV []byte, err error) {
	logger := l.logger(ctx)
	prevV, err = l.LogAble.Delete(ctx, k, prevKV)
	if logger.Core().Enabled(zap.DebugLevel) {
		logger.Debug("kv delete", zap.ByteString("key", k), zap.Bool("prev-kv", prevKV), zap.Binary("prev-value", prevV), zap.Error(err))
	}
	return
}

func (l Logger) ExecInTxn(ctx context.Context, f func(kv BasicKV) error) (err error) {
	logger := l.logger(ctx)
	err = l.LogAble.ExecInTxn(ctx, f)
	if logger.Core().Enabled(zap.DebugLevel) {
		logger.Debug("kv exec in txn", zap.Error(err))
	}
	return
}

func (l Logger) ExecInTxnUntilCommitted(ctx context.Context, f func(kv BasicKV) error) (err error) {
	logger := l.logger(ctx)
	err = l.LogAble.ExecInTxnUntilCommitted(ctx, f)
	if logger.Core().Enabled(zap.DebugLevel) {
		logger.Debug("kv exec in txn until committed", zap.Error(err))
	}
	return
}

func (l Logger) logger(ctx context.Context) *zap.Logger {
	return l.LogAble.Logger().With(traceutil.TraceLogField(ctx))
}

func kvsFields(kvs []KeyValue) []zap.Field {
	fields := make([]zap.Field, 0, 2*len(kvs))
	for i, kv := range kvs {
		fields = append(fields, zap.ByteString(fmt.Sprintf("kv-%d-key", i), kv.Key), zap.Binary(fmt.Sprintf("kv-%d-value", i), kv.Value))
	}
	return fields
}
