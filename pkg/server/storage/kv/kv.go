// Copyright 2017 TiKV Project Authors.
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
	"context"
	"time"
)

const (
	// KeySeparator is the separator in keys
	KeySeparator = "/"
)

// Range represents a range of keys.
type Range struct {
	StartKey []byte
	EndKey   []byte
}

// KeyValue represents a key-value pair.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// BasicKV represents the basic interface for a key-value store.
type BasicKV interface {
	// Get retrieves the value associated with the given key.
	// If the key does not exist, Get returns nil and no error.
	// If the key is empty, Get returns nil and no error.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// GetByRange retrieves a list of key-value pairs whose keys fall within the given range (r)
	// and limits the number of results returned to "limit".
	// If the Range.StartKey is empty, GetByRange returns nil and no error.
	// If rev is less than or equal to 0, GetByRange gets the key-value pairs at the latest revision, and returns the revision.
	// If rev is greater than 0, GetByRange gets the key-value pairs at the given revision, and returns the same revision.
	// If limit is 0, GetByRange will return all key-value pairs whose keys fall within the given range (r).
	// If limit is greater than 0, GetByRange will return at most "limit" key-value pairs whose keys fall within the given range (r),
	// and a boolean value indicating whether there are more keys in the range.
	// If desc is true, GetByRange returns the key-value pairs in descending order.
	GetByRange(ctx context.Context, r Range, rev int64, limit int64, desc bool) (kvs []KeyValue, revision int64, more bool, err error)

	// Put sets the value for the given key.
	// IF the key is empty, Put does nothing and returns no error.
	// If the key already exists, Put overwrites the existing value.
	// If prevKV is true, the old value (if any) will be returned.
	Put(ctx context.Context, key, value []byte, prevKV bool) ([]byte, error)

	// Delete removes the key-value pair associated with the given key.
	// If the key is empty, Delete does nothing and returns no error.
	// If the key does not exist, Delete does nothing and returns no error.
	// If prevKV is true, the old value (if any) will be returned.
	Delete(ctx context.Context, key []byte, prevKV bool) ([]byte, error)
}

// KV represents a key-value store.
type KV interface {
	BasicKV

	// BatchGet retrieves the values associated with the given keys.
	// If the key does not exist, BatchGet returns no error.
	// Any empty key will be ignored.
	// If inTxn is true, BatchGet will try to get all keys in a single transaction.
	BatchGet(ctx context.Context, keys [][]byte, inTxn bool) ([]KeyValue, error)

	// PutIfAbsent sets the value for the given key only if the key does not exist.
	// It returns false and leaves the existing value untouched if the key already exists.
	// If the key is empty, PutIfAbsent does nothing and returns false and no error.
	PutIfAbsent(ctx context.Context, key, value []byte) (bool, error)

	// PutWithTTL sets the value for the given key, and the key is deleted by the store after ttl.
	// A later put of the same key replaces both the value and the ttl.
	// If the key is empty, PutWithTTL does nothing and returns no error.
	PutWithTTL(ctx context.Context, key, value []byte, ttl time.Duration) error

	// ExecInTxn executes the given function in a single transaction.
	// It prioritizes returning the error returned by the function, and then the error occurred within the transaction.
	// If and only if the function returns no error, the transaction will be committed.
	//
	// Note:
	// * Write operations on KV will not take effect immediately,
	//   i.e., you cannot read modifications made in the same transaction.
	// * Every read in the function becomes a condition of the commit. If any key or range read
	//   is modified by others before the commit, the function is executed again from scratch.
	// * The kv passed to the function is not thread-safe. DO NOT use it in multiple goroutines.
	// * The flag `prevKV` in Put and Delete will not take effect; Put and Delete will always return nils.
	ExecInTxn(ctx context.Context, f func(kv BasicKV) error) error

	// ExecInTxnUntilCommitted is like ExecInTxn, but it executes the function again as many times as needed
	// until the transaction is committed or ctx is done.
	// As every attempt either commits or loses to a committed writer, some caller always makes progress.
	ExecInTxnUntilCommitted(ctx context.Context, f func(kv BasicKV) error) error

	// GetPrefixRangeEnd returns the end key for a prefix range query.
	GetPrefixRangeEnd(prefix []byte) []byte
}
