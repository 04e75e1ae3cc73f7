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

package storage

import (
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/storage/endpoint"
	"github.com/hotelbook/booking-server/pkg/server/storage/kv"
)

// Storage defines all operations on the records of the booking server.
type Storage interface {
	endpoint.DiscountEndpoint
	endpoint.IssueEndpoint
	endpoint.RoomTypeEndpoint
	endpoint.HotelEndpoint
	endpoint.BookingEndpoint
	endpoint.UserEndpoint
	endpoint.CredentialEndpoint
}

// Etcd is a storage based on etcd.
type Etcd struct {
	*endpoint.Endpoint
}

// EtcdParam is used to create a new etcd storage.
type EtcdParam struct {
	KV clientv3.KV
	// Lease expires the verification codes. If Lease is nil, expired codes are only rejected, not removed.
	Lease    clientv3.Lease
	RootPath string
	// CmpFunc is evaluated before every request. Requests fail if it is false.
	CmpFunc func() clientv3.Cmp
	// MaxTxnOps is the max number of operations in a transaction. It should be consistent with the etcd server.
	MaxTxnOps uint
	Endpoint  endpoint.Param
}

// NewEtcd creates a new etcd storage.
func NewEtcd(param EtcdParam, lg *zap.Logger) *Etcd {
	storageLg := lg.With(zap.String("etcd-storage-root-path", param.RootPath))
	kvLg := lg.With(zap.String("etcd-kv-root-path", param.RootPath))
	etcdKV := kv.NewEtcd(kv.EtcdParam{
		KV:        param.KV,
		Lease:     param.Lease,
		RootPath:  param.RootPath,
		CmpFunc:   param.CmpFunc,
		MaxTxnOps: param.MaxTxnOps,
	}, kvLg)
	return &Etcd{
		endpoint.NewEndpoint(kv.Logger{LogAble: etcdKV}, param.Endpoint, storageLg),
	}
}
