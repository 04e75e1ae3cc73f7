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
package cluster

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/cluster/cache"
	"github.com/hotelbook/booking-server/pkg/server/storage"
)

const (
	_defaultSessionTTL = time.Hour
	_defaultCodeTTL    = 15 * time.Minute
)

// Cluster serves the requests of the booking server on top of the storage.
type Cluster struct {
	starting atomic.Bool
	running  atomic.Bool

	storage storage.Storage
	cache   *cache.Cache
	auth    AuthParam

	lg *zap.Logger
}

// AuthParam is used to issue and verify tokens.
type AuthParam struct {
	// SessionSecret signs the session tokens issued by Login.
	SessionSecret []byte
	// ProviderSecret verifies the id tokens issued by the identity provider.
	ProviderSecret []byte
	// SessionTTL is the lifetime of a session token. If SessionTTL is 0, it will be set to _defaultSessionTTL.
	SessionTTL time.Duration
	// CodeTTL is the lifetime of a verification code. If CodeTTL is 0, it will be set to _defaultCodeTTL.
	CodeTTL time.Duration
	// Mailer sends the verification codes. If Mailer is nil, a LogMailer is used.
	Mailer Mailer
}

func NewCluster(storage storage.Storage, auth AuthParam, logger *zap.Logger) *Cluster {
	if auth.SessionTTL <= 0 {
		auth.SessionTTL = _defaultSessionTTL
	}
	if auth.CodeTTL <= 0 {
		auth.CodeTTL = _defaultCodeTTL
	}
	if auth.Mailer == nil {
		auth.Mailer = NewLogMailer(logger)
	}
	return &Cluster{
		storage: storage,
		cache:   cache.NewCache(),
		auth:    auth,
		lg:      logger,
	}
}

func (c *Cluster) Start() error {
	logger := c.lg
	if c.IsRunning() {
		logger.Warn("cluster is already running")
		return nil
	}
	if c.starting.Swap(true) {
		logger.Warn("cluster is starting")
		return nil
	}
	defer c.starting.Store(false)

	logger.Info("start cluster")

	c.cache.Reset()

	if c.running.Swap(true) {
		logger.Warn("cluster is already running")
		return nil
	}
	return nil
}

func (c *Cluster) Stop() error {
	logger := c.lg
	if !c.running.Swap(false) {
		logger.Warn("cluster has already been stopped")
		return nil
	}

	logger.Info("stopping cluster")
	c.cache.Reset()
	logger.Info("cluster stopped")
	return nil
}

func (c *Cluster) IsRunning() bool {
	return c.running.Load()
}
