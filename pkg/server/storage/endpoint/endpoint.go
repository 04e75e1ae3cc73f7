// Copyright 2022 TiKV Project Authors.
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

package endpoint

import (
	"context"

	"github.com/bytedance/gopkg/lang/mcache"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/id"
	"github.com/hotelbook/booking-server/pkg/server/storage/kv"
	"github.com/hotelbook/booking-server/pkg/util/jsonutil"
)

const (
	_defaultListLimit = 1e4
)

// Param is the parameter of an endpoint.
type Param struct {
	// AllocatorMode is the mode of id allocators. If AllocatorMode is empty, it will be set to id.ModeRelaxed.
	AllocatorMode id.Mode
	// DetectCollision makes id allocators in id.ModeRelaxed refuse to overwrite an existing record.
	DetectCollision bool
	// ListLimit is the max number of records read in one request.
	// If ListLimit is 0, it will be set to _defaultListLimit.
	ListLimit int64
}

// Endpoint is the base underlying storage endpoint for all other upper
// specific storage backends. It should define some common storage interfaces and operations,
// which provides the default implementations for all kinds of storages.
type Endpoint struct {
	kv.KV

	// allocators is a map of namespace name to id allocator.
	allocators cmap.ConcurrentMap[string, id.Allocator]
	param      Param

	lg *zap.Logger
}

// NewEndpoint creates a new base storage endpoint with the given KV.
// It should be embedded inside a storage backend.
func NewEndpoint(kv2 kv.KV, param Param, logger *zap.Logger) *Endpoint {
	if param.AllocatorMode == "" {
		param.AllocatorMode = id.ModeRelaxed
	}
	if param.ListLimit <= 0 {
		param.ListLimit = _defaultListLimit
	}
	return &Endpoint{
		KV:         kv2,
		allocators: cmap.New[id.Allocator](),
		param:      param,
		lg:         logger,
	}
}

// Allocator returns the id allocator of the namespace. Allocators are created on first use and shared afterwards.
func (e *Endpoint) Allocator(ns id.Namespace) id.Allocator {
	return e.allocators.Upsert(ns.Name, nil, func(exist bool, valueInMap id.Allocator, _ id.Allocator) id.Allocator {
		if exist {
			return valueInMap
		}
		return id.Logger{LogAble: id.NewEtcdAllocator(&id.EtcdAllocatorParam{
			KV:              e.KV,
			Namespace:       ns,
			Mode:            e.param.AllocatorMode,
			DetectCollision: e.param.DetectCollision,
			ListLimit:       e.param.ListLimit,
		}, e.lg)}
	})
}

// forEach calls f for every key-value whose key starts with prefix, in ascending key order.
// All pages are read at the same revision.
func (e *Endpoint) forEach(ctx context.Context, basicKV kv.BasicKV, prefix []byte, f func(keyValue kv.KeyValue) error) error {
	startKey := prefix
	endKey := e.KV.GetPrefixRangeEnd(prefix)
	var rev int64
	for {
		kvs, revision, more, err := basicKV.GetByRange(ctx, kv.Range{StartKey: startKey, EndKey: endKey}, rev, e.param.ListLimit, false)
		if err != nil {
			return errors.WithMessagef(err, "range %s", prefix)
		}
		rev = revision
		for _, keyValue := range kvs {
			if err := f(keyValue); err != nil {
				return err
			}
		}
		if !more || len(kvs) == 0 {
			return nil
		}
		lastKey := kvs[len(kvs)-1].Key
		startKey = append(append(make([]byte, 0, len(lastKey)+1), lastKey...), 0)
	}
}

// list returns all records whose key starts with prefix.
func list[T any](ctx context.Context, e *Endpoint, prefix []byte) ([]*T, error) {
	res := make([]*T, 0)
	err := e.forEach(ctx, e.KV, prefix, func(keyValue kv.KeyValue) error {
		t, err := unmarshal[T](keyValue.Value)
		if err != nil {
			return errors.WithMessagef(err, "key %s", keyValue.Key)
		}
		res = append(res, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// get returns nil and no error if the key does not exist.
func get[T any](ctx context.Context, basicKV kv.BasicKV, key []byte) (*T, error) {
	v, err := basicKV.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return unmarshal[T](v)
}

func put(ctx context.Context, basicKV kv.BasicKV, key []byte, v any) error {
	value, err := jsonutil.Marshal(v)
	if err != nil {
		return err
	}
	_, err = basicKV.Put(ctx, key, value, false)
	mcache.Free(value)
	return err
}

func unmarshal[T any](v []byte) (*T, error) {
	t := new(T)
	if err := jsonutil.Unmarshal(v, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (e *Endpoint) putIfAbsent(ctx context.Context, key []byte, v any) (bool, error) {
	value, err := jsonutil.Marshal(v)
	if err != nil {
		return false, err
	}
	ok, err := e.KV.PutIfAbsent(ctx, key, value)
	mcache.Free(value)
	return ok, err
}
