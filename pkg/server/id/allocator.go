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
	"fmt"
	"strconv"
	"strings"

	"github.com/hotelbook/booking-server/pkg/server/storage/kv"
)

const (
	_counterPrefix = "counters/"
	_idFormat      = "%020d"
	_idLen         = 20
)

// Allocator allocates ids for the records in a namespace.
// An id is the smallest positive integer not used by any record in the namespace, if one exists below the counter.
// Otherwise, the counter of the namespace grows by one and its new value is the id.
type Allocator interface {
	// Alloc allocates an id which is not used by any record at the time of the call.
	// It does not reserve the id; a following Alloc may return the same id if no record is written under it.
	Alloc(ctx context.Context) (uint64, error)

	// Create allocates an id and writes the record returned by f under Namespace.RecordKey(id).
	// f may be called more than once if the allocation is retried. The record is freed by mcache.Free after written.
	Create(ctx context.Context, f func(id uint64) ([]byte, error)) (uint64, error)

	// CreateIf is like Create, but the record is written only if cond returns no error.
	// The record is not written if anything cond reads is modified by others before the write;
	// cond is called again instead.
	CreateIf(ctx context.Context, cond Cond, f func(id uint64) ([]byte, error)) (uint64, error)
}

// Cond checks the precondition of a record write through the given kv.
type Cond func(ctx context.Context, kv kv.BasicKV) error

// Mode is the way an allocator handles concurrent allocations.
type Mode string

const (
	// ModeRelaxed reads the used ids and the counter without locking. Only the counter increment is atomic.
	// Concurrent allocations may pick the same hole, and the later record write overwrites the earlier one.
	ModeRelaxed Mode = "relaxed"
	// ModeSerialized allocates the id and writes the record in one transaction,
	// which fails and retries if any record or the counter is modified by others.
	ModeSerialized Mode = "serialized"
)

// Valid reports whether the mode is a known one.
func (m Mode) Valid() bool {
	return m == ModeRelaxed || m == ModeSerialized
}

// Namespace identifies a collection of records sharing one id sequence.
type Namespace struct {
	// Name is the name of the counter, e.g. "discount".
	Name string
	// Prefix is the key prefix of the records, e.g. "discounts/".
	Prefix string
}

// CounterKey returns the key of the counter.
func (n Namespace) CounterKey() []byte {
	return []byte(_counterPrefix + n.Name)
}

// RecordKey returns the key of the record with the given id.
func (n Namespace) RecordKey(id uint64) []byte {
	res := make([]byte, 0, len(n.Prefix)+_idLen)
	res = append(res, n.Prefix...)
	return fmt.Appendf(res, _idFormat, id)
}

// ParseRecordKey returns the id in the key of a record.
// It returns false if the key does not belong to the namespace or does not end with a positive id.
func (n Namespace) ParseRecordKey(key []byte) (uint64, bool) {
	s := string(key)
	if !strings.HasPrefix(s, n.Prefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(s[len(n.Prefix):], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
