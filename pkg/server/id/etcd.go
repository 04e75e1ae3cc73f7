// Copyright 2016 TiKV Project Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package id

import (
	"context"
	"sync"

	"github.com/bytedance/gopkg/lang/mcache"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/model"
	"github.com/hotelbook/booking-server/pkg/server/storage/kv"
	"github.com/hotelbook/booking-server/pkg/util/traceutil"
	"github.com/hotelbook/booking-server/pkg/util/typeutil"
)

const (
	_defaultListLimit = 1e4
)

// EtcdAllocator is an allocator based on etcd.
type EtcdAllocator struct {
	// mu serializes allocations in ModeSerialized.
	mu sync.Mutex

	kv              kv.KV
	ns              Namespace
	mode            Mode
	detectCollision bool
	listLimit       int64

	lg *zap.Logger
}

// EtcdAllocatorParam is the parameter for creating a new etcd allocator.
type EtcdAllocatorParam struct {
	KV        kv.KV
	Namespace Namespace
	// Mode is the way to handle concurrent allocations. If Mode is empty, it will be set to ModeRelaxed.
	Mode Mode
	// DetectCollision makes Create in ModeRelaxed fail with model.ErrIDCollision instead of overwriting an existing record.
	DetectCollision bool
	// ListLimit is the max number of records read in one request when listing used ids.
	// If ListLimit is 0, it will be set to _defaultListLimit.
	ListLimit int64
}

// NewEtcdAllocator creates a new etcd allocator.
func NewEtcdAllocator(param *EtcdAllocatorParam, lg *zap.Logger) *EtcdAllocator {
	e := &EtcdAllocator{
		kv:              param.KV,
		ns:              param.Namespace,
		mode:            param.Mode,
		detectCollision: param.DetectCollision,
		listLimit:       param.ListLimit,
		lg:              lg.With(zap.String("namespace", param.Namespace.Name), zap.String("mode", string(param.Mode))),
	}

	if e.mode == "" {
		e.mode = ModeRelaxed
	}
	if e.listLimit <= 0 {
		e.listLimit = _defaultListLimit
	}
	return e
}

func (e *EtcdAllocator) Alloc(ctx context.Context) (uint64, error) {
	if e.mode == ModeSerialized {
		return e.allocSerialized(ctx, nil, nil)
	}

	id, grow, err := e.lowest(ctx, e.kv)
	if err != nil {
		return 0, err
	}
	if !grow {
		return id, nil
	}
	return e.grow(ctx)
}

func (e *EtcdAllocator) Create(ctx context.Context, f func(id uint64) ([]byte, error)) (uint64, error) {
	return e.CreateIf(ctx, nil, f)
}

func (e *EtcdAllocator) CreateIf(ctx context.Context, cond Cond, f func(id uint64) ([]byte, error)) (uint64, error) {
	if e.mode == ModeSerialized {
		return e.allocSerialized(ctx, cond, f)
	}

	logger := e.lg.With(traceutil.TraceLogField(ctx))

	id, err := e.Alloc(ctx)
	if err != nil {
		return 0, err
	}
	record, err := f(id)
	if err != nil {
		return 0, err
	}
	defer mcache.Free(record)

	key := e.ns.RecordKey(id)
	if cond != nil {
		err = e.kv.ExecInTxnUntilCommitted(ctx, func(basicKV kv.BasicKV) error {
			if err := cond(ctx, basicKV); err != nil {
				return err
			}
			if e.detectCollision {
				v, err := basicKV.Get(ctx, key)
				if err != nil {
					return errors.Wrap(err, "get record")
				}
				if v != nil {
					return errors.WithMessagef(model.ErrIDCollision, "id %d in %s", id, e.ns.Name)
				}
			}
			_, _ = basicKV.Put(ctx, key, record, false)
			return nil
		})
		if err != nil {
			logger.Warn("failed to create record", zap.Uint64("id", id), zap.Error(err))
			return 0, errors.WithMessagef(err, "create record %d", id)
		}
		return id, nil
	}

	if !e.detectCollision {
		_, err = e.kv.Put(ctx, key, record, false)
		if err != nil {
			logger.Error("failed to create record", zap.Uint64("id", id), zap.Error(err))
			return 0, errors.Wrapf(err, "create record %d", id)
		}
		return id, nil
	}

	ok, err := e.kv.PutIfAbsent(ctx, key, record)
	if err != nil {
		logger.Error("failed to create record", zap.Uint64("id", id), zap.Error(err))
		return 0, errors.Wrapf(err, "create record %d", id)
	}
	if !ok {
		logger.Warn("id already taken by another record", zap.Uint64("id", id))
		return 0, errors.WithMessagef(model.ErrIDCollision, "id %d in %s", id, e.ns.Name)
	}
	return id, nil
}

// allocSerialized picks an id and writes the record built by f (if any) in one transaction.
// The transaction is retried until it commits or ctx is done.
func (e *EtcdAllocator) allocSerialized(ctx context.Context, cond Cond, f func(id uint64) ([]byte, error)) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger := e.lg.With(traceutil.TraceLogField(ctx))

	var id uint64
	err := e.kv.ExecInTxnUntilCommitted(ctx, func(basicKV kv.BasicKV) error {
		if cond != nil {
			if err := cond(ctx, basicKV); err != nil {
				return err
			}
		}
		var grow bool
		var err error
		id, grow, err = e.lowest(ctx, basicKV)
		if err != nil {
			return err
		}
		if grow {
			_, _ = basicKV.Put(ctx, e.ns.CounterKey(), typeutil.Uint64ToBytes(id), false)
		}
		if f == nil {
			return nil
		}

		record, err := f(id)
		if err != nil {
			return err
		}
		_, _ = basicKV.Put(ctx, e.ns.RecordKey(id), record, false)
		mcache.Free(record)
		return nil
	})
	if err != nil {
		logger.Error("failed to allocate id", zap.Error(err))
		return 0, errors.Wrapf(err, "allocate id in %s", e.ns.Name)
	}
	return id, nil
}

// grow increases the counter by one and returns the new value.
// It retries until it wins the compare-and-swap or ctx is done.
func (e *EtcdAllocator) grow(ctx context.Context) (uint64, error) {
	logger := e.lg.With(traceutil.TraceLogField(ctx))

	var next uint64
	err := e.kv.ExecInTxnUntilCommitted(ctx, func(basicKV kv.BasicKV) error {
		counter, err := e.counter(ctx, basicKV)
		if err != nil {
			return err
		}
		next = counter + 1
		_, _ = basicKV.Put(ctx, e.ns.CounterKey(), typeutil.Uint64ToBytes(next), false)
		return nil
	})
	if err != nil {
		logger.Error("failed to grow id counter", zap.Error(err))
		return 0, errors.Wrapf(err, "grow counter %s", e.ns.Name)
	}
	return next, nil
}

func (e *EtcdAllocator) lowest(ctx context.Context, basicKV kv.BasicKV) (uint64, bool, error) {
	used, err := e.usedIDs(ctx, basicKV)
	if err != nil {
		return 0, false, err
	}
	counter, err := e.counter(ctx, basicKV)
	if err != nil {
		return 0, false, err
	}
	id, grow := Lowest(used, counter)
	return id, grow, nil
}

// usedIDs lists the ids of all records in the namespace at one revision.
func (e *EtcdAllocator) usedIDs(ctx context.Context, basicKV kv.BasicKV) (mapset.Set[uint64], error) {
	logger := e.lg.With(traceutil.TraceLogField(ctx))

	used := mapset.NewThreadUnsafeSet[uint64]()
	startKey := []byte(e.ns.Prefix)
	endKey := e.kv.GetPrefixRangeEnd(startKey)
	var rev int64
	for {
		kvs, revision, more, err := basicKV.GetByRange(ctx, kv.Range{StartKey: startKey, EndKey: endKey}, rev, e.listLimit, false)
		if err != nil {
			logger.Error("failed to list records", zap.ByteString("start", startKey), zap.Int64("revision", rev), zap.Error(err))
			return nil, errors.Wrap(err, "list records")
		}
		rev = revision
		for _, keyValue := range kvs {
			if id, ok := e.ns.ParseRecordKey(keyValue.Key); ok {
				used.Add(id)
			}
		}
		if !more || len(kvs) == 0 {
			break
		}
		lastKey := kvs[len(kvs)-1].Key
		startKey = append(append(make([]byte, 0, len(lastKey)+1), lastKey...), 0)
	}
	return used, nil
}

// counter returns 0 if the counter does not exist.
func (e *EtcdAllocator) counter(ctx context.Context, basicKV kv.BasicKV) (uint64, error) {
	v, err := basicKV.Get(ctx, e.ns.CounterKey())
	if err != nil {
		return 0, errors.Wrap(err, "read counter")
	}
	if v == nil {
		return 0, nil
	}
	counter, err := typeutil.BytesToUint64(v)
	if err != nil {
		return 0, errors.WithMessagef(model.ErrInvalidCounter, "counter %s: %s", e.ns.Name, err.Error())
	}
	return counter, nil
}

func (e *EtcdAllocator) Logger() *zap.Logger {
	return e.lg
}
