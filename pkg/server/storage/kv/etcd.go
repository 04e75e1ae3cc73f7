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

package kv

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	etcdrpc "go.etcd.io/etcd/api/v3/v3rpc/rpctypes"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/server/v3/embed"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/model"
	"github.com/hotelbook/booking-server/pkg/util/etcdutil"
	"github.com/hotelbook/booking-server/pkg/util/traceutil"
)

const (
	// The default max retry count when txn commit failed with model.ErrKVDataModified.
	_defaultTxnMaxRetry = 3
)

// Etcd is a kv based on etcd.
type Etcd struct {
	rootPath    []byte
	newTxnFunc  func(ctx context.Context) clientv3.Txn // WARNING: do not call `If` on the returned txn.
	maxTxnOps   uint
	maxTxnRetry uint

	lease clientv3.Lease

	lg *zap.Logger
}

// EtcdParam is used to create a new etcd kv.
type EtcdParam struct {
	KV clientv3.KV
	// Lease grants the leases of the keys put by PutWithTTL. If Lease is nil, these keys never expire.
	Lease clientv3.Lease
	// RootPath is the prefix of all keys in etcd.
	RootPath string
	// CmpFunc is used to create a transaction. If CmpFunc is nil, the transaction will not have any condition.
	CmpFunc func() clientv3.Cmp
	// MaxTxnOps is the max number of operations in a transaction. It is an etcd server configuration.
	// If MaxTxnOps is 0, it will use the default value (128).
	MaxTxnOps uint
	// MaxTxnRetry is the max number of attempts of ExecInTxn when the data read is modified by others.
	// If MaxTxnRetry is 0, it will use the default value (3).
	MaxTxnRetry uint
}

// NewEtcd creates a new etcd kv.
func NewEtcd(param EtcdParam, lg *zap.Logger) *Etcd {
	logger := lg.With(zap.String("root-path", param.RootPath))
	e := &Etcd{
		rootPath:    []byte(param.RootPath),
		maxTxnOps:   param.MaxTxnOps,
		maxTxnRetry: param.MaxTxnRetry,
		lease:       param.Lease,
		lg:          logger,
	}

	if e.maxTxnOps == 0 {
		e.maxTxnOps = embed.DefaultMaxTxnOps
	}
	if e.maxTxnRetry == 0 {
		e.maxTxnRetry = _defaultTxnMaxRetry
	}

	if param.CmpFunc != nil {
		e.newTxnFunc = func(ctx context.Context) clientv3.Txn {
			// cmpFunc should be evaluated lazily.
			return etcdutil.NewTxn(ctx, param.KV, logger.With(traceutil.TraceLogField(ctx))).If(param.CmpFunc())
		}
	} else {
		e.newTxnFunc = func(ctx context.Context) clientv3.Txn {
			return etcdutil.NewTxn(ctx, param.KV, logger.With(traceutil.TraceLogField(ctx)))
		}
	}

	return e
}

// Get returns model.ErrKVTxnFailed if EtcdParam.CmpFunc evaluates to false.
func (e *Etcd) Get(ctx context.Context, k []byte) ([]byte, error) {
	if len(k) == 0 {
		return nil, nil
	}

	kvs, err := e.BatchGet(ctx, [][]byte{k}, false)
	if err != nil {
		return nil, errors.WithMessage(err, "kv get")
	}

	for _, kv := range kvs {
		if bytes.Equal(kv.Key, k) {
			return kv.Value, nil
		}
	}
	return nil, nil
}

// BatchGet returns model.ErrKVTxnFailed if EtcdParam.CmpFunc evaluates to false.
// If inTxn is true, BatchGet returns model.ErrKVTooManyTxnOps if the number of keys exceeds EtcdParam.MaxTxnOps.
func (e *Etcd) BatchGet(ctx context.Context, keys [][]byte, inTxn bool) ([]KeyValue, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	batchSize := int(e.maxTxnOps)
	if inTxn && len(keys) > batchSize {
		return nil, errors.WithMessage(model.ErrKVTooManyTxnOps, "kv batch get")
	}

	kvs := make([]KeyValue, 0, len(keys))

	for i := 0; i < len(keys); i += batchSize {
		end := i + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		batchKeys := keys[i:end]

		ops := make([]clientv3.Op, 0, len(batchKeys))
		for _, k := range batchKeys {
			if len(k) == 0 {
				continue
			}
			key := e.addPrefix(k)
			ops = append(ops, clientv3.OpGet(string(key)))
		}
		if len(ops) == 0 {
			continue
		}

		resp, err := e.newTxnFunc(ctx).Then(ops...).Commit()
		if err != nil {
			return nil, errors.WithMessage(err, "kv batch get")
		}
		if !resp.Succeeded {
			return nil, errors.WithMessage(model.ErrKVTxnFailed, "kv batch get")
		}

		for _, resp := range resp.Responses {
			rangeResp := resp.GetResponseRange()
			if rangeResp == nil {
				continue
			}
			for _, kv := range rangeResp.Kvs {
				if !e.hasPrefix(kv.Key) {
					continue
				}
				kvs = append(kvs, KeyValue{
					Key:   e.trimPrefix(kv.Key),
					Value: kv.Value,
				})
			}
		}
	}

	return kvs, nil
}

// GetByRange returns model.ErrKVTxnFailed if EtcdParam.CmpFunc evaluates to false.
// It returns model.ErrKVCompacted if the requested revision has been compacted.
func (e *Etcd) GetByRange(ctx context.Context, r Range, rev int64, limit int64, desc bool) ([]KeyValue, int64, bool, error) {
	if len(r.StartKey) == 0 || len(r.EndKey) == 0 {
		return nil, 0, false, nil
	}

	startKey := e.addPrefix(r.StartKey)
	endKey := e.addPrefix(r.EndKey)

	opts := []clientv3.OpOption{clientv3.WithRange(string(endKey))}
	if rev > 0 {
		opts = append(opts, clientv3.WithRev(rev))
	}
	if limit > 0 {
		opts = append(opts, clientv3.WithLimit(limit))
	}
	if desc {
		opts = append(opts, clientv3.WithSort(clientv3.SortByKey, clientv3.SortDescend))
	}

	resp, err := e.newTxnFunc(ctx).Then(clientv3.OpGet(string(startKey), opts...)).Commit()
	if err != nil {
		if errors.Is(err, etcdrpc.ErrCompacted) {
			return nil, 0, false, errors.WithMessagef(model.ErrKVCompacted, "kv get by range, revision %d", rev)
		}
		return nil, 0, false, errors.WithMessage(err, "kv get by range")
	}
	if !resp.Succeeded {
		return nil, 0, false, errors.WithMessage(model.ErrKVTxnFailed, "kv get by range")
	}

	// When the transaction succeeds, the number of responses is always 1 and is always a range response.
	rangeResp := resp.Responses[0].GetResponseRange()

	kvs := make([]KeyValue, 0, len(rangeResp.Kvs))
	for _, kv := range rangeResp.Kvs {
		if !e.hasPrefix(kv.Key) {
			continue
		}
		kvs = append(kvs, KeyValue{
			Key:   e.trimPrefix(kv.Key),
			Value: kv.Value,
		})
	}

	returnedRV := rev
	if returnedRV <= 0 {
		returnedRV = rangeResp.Header.Revision
	}

	return kvs, returnedRV, rangeResp.More, nil
}

// Put returns model.ErrKVTxnFailed if EtcdParam.CmpFunc evaluates to false.
func (e *Etcd) Put(ctx context.Context, k, v []byte, prevKV bool) ([]byte, error) {
	if len(k) == 0 {
		return nil, nil
	}

	var opts []clientv3.OpOption
	if prevKV {
		opts = append(opts, clientv3.WithPrevKV())
	}
	op := clientv3.OpPut(string(e.addPrefix(k)), string(v), opts...)

	resp, err := e.newTxnFunc(ctx).Then(op).Commit()
	if err != nil {
		return nil, errors.WithMessage(err, "kv put")
	}
	if !resp.Succeeded {
		return nil, errors.WithMessage(model.ErrKVTxnFailed, "kv put")
	}

	if !prevKV {
		return nil, nil
	}
	// When the transaction succeeds, the number of responses is always 1 and is always a put response.
	putResp := resp.Responses[0].GetResponsePut()
	if putResp.PrevKv == nil || !e.hasPrefix(putResp.PrevKv.Key) {
		return nil, nil
	}
	return putResp.PrevKv.Value, nil
}

// PutWithTTL returns model.ErrKVTxnFailed if EtcdParam.CmpFunc evaluates to false.
// The ttl is rounded up to whole seconds, and etcd may extend it to its minimum lease ttl.
func (e *Etcd) PutWithTTL(ctx context.Context, k, v []byte, ttl time.Duration) error {
	if len(k) == 0 {
		return nil
	}

	var opts []clientv3.OpOption
	if e.lease != nil && ttl > 0 {
		leaseID, err := e.grantLease(ctx, int64(math.Ceil(ttl.Seconds())))
		if err != nil {
			return errors.WithMessage(err, "kv put with ttl")
		}
		opts = append(opts, clientv3.WithLease(leaseID))
	}
	op := clientv3.OpPut(string(e.addPrefix(k)), string(v), opts...)

	resp, err := e.newTxnFunc(ctx).Then(op).Commit()
	if err != nil {
		return errors.WithMessage(err, "kv put with ttl")
	}
	if !resp.Succeeded {
		return errors.WithMessage(model.ErrKVTxnFailed, "kv put with ttl")
	}
	return nil
}

func (e *Etcd) grantLease(ctx context.Context, ttl int64) (clientv3.LeaseID, error) {
	resp, err := e.lease.Grant(ctx, ttl)
	if err != nil {
		return 0, errors.WithMessagef(err, "grant lease with ttl %d", ttl)
	}
	return resp.ID, nil
}

// PutIfAbsent returns model.ErrKVTxnFailed if EtcdParam.CmpFunc evaluates to false.
func (e *Etcd) PutIfAbsent(ctx context.Context, k, v []byte) (bool, error) {
	if len(k) == 0 {
		return false, nil
	}

	key := string(e.addPrefix(k))
	cmp := clientv3.Compare(clientv3.CreateRevision(key), "=", 0)
	op := clientv3.OpTxn([]clientv3.Cmp{cmp}, []clientv3.Op{clientv3.OpPut(key, string(v))}, nil)

	resp, err := e.newTxnFunc(ctx).Then(op).Commit()
	if err != nil {
		return false, errors.WithMessage(err, "kv put if absent")
	}
	if !resp.Succeeded {
		return false, errors.WithMessage(model.ErrKVTxnFailed, "kv put if absent")
	}

	// When the transaction succeeds, the number of responses is always 1 and is always a txn response.
	return resp.Responses[0].GetResponseTxn().Succeeded, nil
}

// Delete returns model.ErrKVTxnFailed if EtcdParam.CmpFunc evaluates to false.
func (e *Etcd) Delete(ctx context.Context, k []byte, prevKV bool) ([]byte, error) {
	if len(k) == 0 {
		return nil, nil
	}

	var opts []clientv3.OpOption
	if prevKV {
		opts = append(opts, clientv3.WithPrevKV())
	}
	op := clientv3.OpDelete(string(e.addPrefix(k)), opts...)

	resp, err := e.newTxnFunc(ctx).Then(op).Commit()
	if err != nil {
		return nil, errors.WithMessage(err, "kv delete")
	}
	if !resp.Succeeded {
		return nil, errors.WithMessage(model.ErrKVTxnFailed, "kv delete")
	}

	if !prevKV {
		return nil, nil
	}
	// When the transaction succeeds, the number of responses is always 1 and is always a delete response.
	deleteResp := resp.Responses[0].GetResponseDeleteRange()
	for _, kv := range deleteResp.PrevKvs {
		if e.hasPrefix(kv.Key) && bytes.Equal(e.trimPrefix(kv.Key), k) {
			return kv.Value, nil
		}
	}
	return nil, nil
}

// ExecInTxn returns model.ErrKVTxnFailed if EtcdParam.CmpFunc evaluates to false.
// It returns model.ErrKVDataModified if any key is modified by others in every attempt.
func (e *Etcd) ExecInTxn(ctx context.Context, f func(kv BasicKV) error) error {
	return e.execInTxn(ctx, f, e.maxTxnRetry)
}

// ExecInTxnUntilCommitted returns model.ErrKVTxnFailed if EtcdParam.CmpFunc evaluates to false.
// It returns the error of ctx if ctx is done before the transaction is committed.
func (e *Etcd) ExecInTxnUntilCommitted(ctx context.Context, f func(kv BasicKV) error) error {
	return e.execInTxn(ctx, f, 0)
}

// execInTxn retries without limit if maxRetry is 0.
func (e *Etcd) execInTxn(ctx context.Context, f func(kv BasicKV) error, maxRetry uint) (err error) {
	for i := uint(0); maxRetry == 0 || i < maxRetry; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.WithMessage(ctxErr, "kv exec in txn")
		}

		txn := e.newEtcdTxn(ctx)
		err = f(txn)
		if err != nil {
			return
		}

		err = txn.Commit()
		if err == nil {
			return
		}
		if !errors.Is(err, model.ErrKVDataModified) {
			return
		}
		txn.lg.Debug("data read in txn has been modified, retry", zap.Uint("attempt", i+1))
	}
	return
}

func (e *Etcd) GetPrefixRangeEnd(p []byte) []byte {
	prefix := e.addPrefix(p)
	end := []byte(clientv3.GetPrefixRangeEnd(string(prefix)))
	return e.trimPrefix(end)
}

func (e *Etcd) Logger() *zap.Logger {
	return e.lg
}

type prefixHandler interface {
	addPrefix(k []byte) []byte
	trimPrefix(k []byte) []byte
}

func (e *Etcd) addPrefix(k []byte) []byte {
	return bytes.Join([][]byte{e.rootPath, k}, []byte(KeySeparator))
}

func (e *Etcd) trimPrefix(k []byte) []byte {
	return k[len(e.rootPath)+len(KeySeparator):]
}

func (e *Etcd) hasPrefix(k []byte) bool {
	return len(k) >= len(e.rootPath)+len(KeySeparator) &&
		bytes.Equal(k[:len(e.rootPath)], e.rootPath) &&
		string(k[len(e.rootPath):len(e.rootPath)+len(KeySeparator)]) == KeySeparator
}

func (e *Etcd) newEtcdTxn(ctx context.Context) *etcdTxn {
	logger := e.lg.With(traceutil.TraceLogField(ctx))
	return &etcdTxn{
		prefixHandler: e,
		kv:            e,
		txn:           e.newTxnFunc(ctx),
		lg:            logger,
	}
}

// etcdTxn is a wrapper of BasicKV.
// It stores the results of all read operations in cs.
// It stores requests for all write operations in ops.
// When Commit is called, cs and ops are wrapped and executed within the same transaction.
// In other words, write operations are only executed if the data read remains unmodified.
type etcdTxn struct {
	prefixHandler
	kv BasicKV

	txn clientv3.Txn
	cs  []clientv3.Cmp
	ops []clientv3.Op

	lg *zap.Logger
}

func (et *etcdTxn) Get(ctx context.Context, k []byte) ([]byte, error) {
	if len(k) == 0 {
		return nil, nil
	}

	v, err := et.kv.Get(ctx, k)
	if err != nil {
		return nil, err
	}

	var c clientv3.Cmp
	if v == nil {
		// key does not exist
		c = clientv3.Compare(clientv3.CreateRevision(string(et.addPrefix(k))), "=", 0)
	} else {
		c = clientv3.Compare(clientv3.Value(string(et.addPrefix(k))), "=", string(v))
	}
	et.cs = append(et.cs, c)

	return v, nil
}

// GetByRange records that no key in the range is created or modified after the revision read.
// Deletions in the range are not detected.
func (et *etcdTxn) GetByRange(ctx context.Context, r Range, rev int64, limit int64, desc bool) ([]KeyValue, int64, bool, error) {
	kvs, revision, more, err := et.kv.GetByRange(ctx, r, rev, limit, desc)
	if err != nil {
		return nil, 0, false, err
	}
	if len(r.StartKey) == 0 || len(r.EndKey) == 0 {
		return kvs, revision, more, nil
	}

	c := clientv3.Compare(clientv3.ModRevision(string(et.addPrefix(r.StartKey))), "<", revision+1).
		WithRange(string(et.addPrefix(r.EndKey)))
	et.cs = append(et.cs, c)

	return kvs, revision, more, nil
}

func (et *etcdTxn) Put(_ context.Context, k, v []byte, _ bool) ([]byte, error) {
	if len(k) == 0 {
		return nil, nil
	}

	op := clientv3.OpPut(string(et.addPrefix(k)), string(v))
	et.ops = append(et.ops, op)

	return nil, nil
}

func (et *etcdTxn) Delete(_ context.Context, k []byte, _ bool) ([]byte, error) {
	if len(k) == 0 {
		return nil, nil
	}

	op := clientv3.OpDelete(string(et.addPrefix(k)))
	et.ops = append(et.ops, op)

	return nil, nil
}

func (et *etcdTxn) Commit() error {
	if len(et.ops) == 0 {
		return nil
	}

	txn := et.txn.Then(clientv3.OpTxn(et.cs, et.ops, nil))
	resp, err := txn.Commit()
	if err == nil {
		if !resp.Succeeded {
			// Not leader now
			err = model.ErrKVTxnFailed
		} else if !resp.Responses[0].GetResponseTxn().Succeeded {
			// When the transaction succeeds, the number of responses is always 1 and is always a txn response.
			// The data read has been modified
			err = model.ErrKVDataModified
		}
	}

	logger := et.lg
	if logger.Core().Enabled(zap.DebugLevel) {
		var fields []zap.Field
		for i, c := range et.cs {
			fields = append(fields,
				zap.ByteString(fmt.Sprintf("cmp-%d-key", i), c.KeyBytes()),
				zap.ByteString(fmt.Sprintf("cmp-%d-range-end", i), c.RangeEnd),
				zap.Binary(fmt.Sprintf("cmp-%d-value", i), c.ValueBytes()),
			)
		}
		for i, op := range et.ops {
			fields = append(fields, opFields(op, i)...)
		}
		fields = append(fields, zap.Error(err))
		logger.Debug("commit etcd txn", fields...)
	}

	return err
}

func opFields(op clientv3.Op, index int) []zap.Field {
	switch {
	case op.IsPut():
		return []zap.Field{
			zap.String(fmt.Sprintf("op-%d-type", index), "PUT"),
			zap.ByteString(fmt.Sprintf("op-%d-key", index), op.KeyBytes()),
			zap.Binary(fmt.Sprintf("op-%d-value", index), op.ValueBytes()),
		}
	case op.IsDelete():
		return []zap.Field{
			zap.String(fmt.Sprintf("op-%d-type", index), "DELETE"),
			zap.ByteString(fmt.Sprintf("op-%d-key", index), op.KeyBytes()),
		}
	default:
		return []zap.Field{
			zap.String(fmt.Sprintf("op-%d-type", index), "unknown"),
		}
	}
}
