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

package server

import (
	"context"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/etcd/client/pkg/v3/types"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/server/v3/embed"
	"go.etcd.io/etcd/server/v3/etcdserver"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/cluster"
	"github.com/hotelbook/booking-server/pkg/server/config"
	"github.com/hotelbook/booking-server/pkg/server/handler"
	"github.com/hotelbook/booking-server/pkg/server/id"
	"github.com/hotelbook/booking-server/pkg/server/storage"
	"github.com/hotelbook/booking-server/pkg/server/storage/endpoint"
	"github.com/hotelbook/booking-server/pkg/util/etcdutil"
	"github.com/hotelbook/booking-server/pkg/util/logutil"
	"github.com/hotelbook/booking-server/pkg/util/randutil"
	"github.com/hotelbook/booking-server/pkg/util/typeutil"
)

const (
	_etcdStartTimeout         = time.Minute * 5 // timeout when start etcd
	_shutdownAPIServerTimeout = time.Second * 5 // timeout when shutdown api server
	_apiReadHeaderTimeout     = time.Second * 5 // timeout for reading request headers

	_clusterIDPath = "/booking-server/cluster_id" // path of Server.clusterID
)

// Server serves the booking api on top of an embedded or an external etcd cluster.
type Server struct {
	started atomic.Bool // server status, true for started

	cfg *config.Config // Server configuration

	ctx context.Context // main context

	etcd      *embed.Etcd      // nil if an external etcd cluster is used
	client    *clientv3.Client // etcd client
	clusterID uint64           // booking cluster id
	rootPath  string           // root path in etcd

	storage   storage.Storage
	cluster   *cluster.Cluster
	apiServer *http.Server
	apiAddr   string
	apiWg     sync.WaitGroup

	lg *zap.Logger // logger
}

// NewServer creates the UNINITIALIZED server with given configuration.
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg: cfg,
		ctx: ctx,
		lg:  logger,
	}
	return s, nil
}

// Start starts the server. Anything started is released if it fails.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			s.release()
		}
	}()

	if err := s.startEtcd(s.ctx); err != nil {
		return errors.Wrap(err, "start etcd")
	}
	if err := s.startServer(); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func (s *Server) startEtcd(ctx context.Context) error {
	logger := s.lg

	if endpoints := s.cfg.Endpoints(); len(endpoints) > 0 {
		client, err := etcdutil.NewClient(endpoints, logger.With(zap.Namespace("etcd-client")))
		if err != nil {
			return errors.Wrap(err, "new client")
		}
		logger.Info("use external etcd", zap.Strings("endpoints", endpoints))
		s.client = client
		return nil
	}

	startTimeoutCtx, cancel := context.WithTimeout(ctx, _etcdStartTimeout)
	defer cancel()

	etcd, err := embed.StartEtcd(s.cfg.Etcd)
	if err != nil && strings.Contains(err.Error(), "has already been bootstrapped") {
		logger.Warn("member has been bootstrapped, set ClusterState = \"existing\" and try again")
		s.cfg.Etcd.ClusterState = embed.ClusterStateFlagExisting
		etcd, err = embed.StartEtcd(s.cfg.Etcd)
	}
	if err != nil {
		return errors.Wrap(err, "start etcd by config")
	}
	s.etcd = etcd

	// Check cluster ID
	urlMap, err := types.NewURLsMap(s.cfg.InitialCluster)
	if err != nil {
		logger.Error("failed to parse urls map from config", zap.String("config-initial-cluster", s.cfg.InitialCluster), zap.Error(err))
		return errors.Wrap(err, "parse urlMap from config")
	}
	err = checkClusterID(etcd.Server.Cluster().ID(), urlMap, logger)
	if err != nil {
		return errors.Wrap(err, "check cluster ID")
	}

	// wait until etcd is ready or timeout
	select {
	case <-etcd.Server.ReadyNotify():
	case <-startTimeoutCtx.Done():
		return errors.New("failed to start etcd: timeout")
	}
	logger.Info("etcd started")

	// init client
	endpoints := make([]string, 0, len(s.cfg.Etcd.ACUrls))
	for _, u := range s.cfg.Etcd.ACUrls {
		endpoints = append(endpoints, u.String())
	}
	client, err := etcdutil.NewClient(endpoints, logger.With(zap.Namespace("etcd-client")))
	if err != nil {
		return errors.Wrap(err, "new client")
	}
	logger.Info("new etcd client", zap.Strings("endpoints", endpoints))
	s.client = client

	return nil
}

func (s *Server) startServer() error {
	// init cluster id
	if err := s.initClusterID(); err != nil {
		return errors.Wrap(err, "init cluster ID")
	}

	logger := s.lg.With(zap.Uint64("cluster-id", s.clusterID))
	logger.Info("init cluster ID")

	s.rootPath = path.Join(s.cfg.RootPath, strconv.FormatUint(s.clusterID, 10))
	s.storage = storage.NewEtcd(storage.EtcdParam{
		KV:       s.client,
		Lease:    s.client,
		RootPath: s.rootPath,
		CmpFunc:  s.clusterIDCmp,
		Endpoint: endpoint.Param{
			AllocatorMode:   id.Mode(s.cfg.Allocator.Mode),
			DetectCollision: s.cfg.Allocator.DetectCollision,
			ListLimit:       s.cfg.Allocator.ListLimit,
		},
	}, logger)

	s.cluster = cluster.NewCluster(s.storage, cluster.AuthParam{
		SessionSecret:  []byte(s.cfg.Auth.SessionSecret),
		ProviderSecret: []byte(s.cfg.Auth.ProviderSecret),
		SessionTTL:     s.cfg.Auth.SessionTTL,
		CodeTTL:        s.cfg.Auth.CodeTTL,
	}, logger)
	if err := s.cluster.Start(); err != nil {
		return errors.Wrap(err, "start cluster")
	}

	listener, err := net.Listen("tcp", s.cfg.APIAddr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.APIAddr)
	}
	s.apiAddr = listener.Addr().String()
	s.apiServer = &http.Server{
		Handler:           handler.NewHandler(s.cluster, logger).Router(),
		ReadHeaderTimeout: _apiReadHeaderTimeout,
		ErrorLog:          zap.NewStdLog(logger),
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}
	s.apiWg.Add(1)
	go s.serveAPI(listener)

	if s.started.Swap(true) {
		logger.Warn("server already started")
	}
	return nil
}

func (s *Server) serveAPI(listener net.Listener) {
	logger := s.lg.With(zap.String("listener-addr", listener.Addr().String()))
	defer logutil.LogPanicAndExit(logger)
	defer s.apiWg.Done()

	logger.Info("api server started")
	if err := s.apiServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		logger.Error("api server failed", zap.Error(err))
	}
}

func (s *Server) initClusterID() error {
	logger := s.lg

	// query any existing ID in etcd
	kv, err := etcdutil.GetOne(s.ctx, s.client, []byte(_clusterIDPath), logger)
	if err != nil {
		logger.Error("failed to query cluster id", zap.String("cluster-id-path", _clusterIDPath), zap.Error(err))
		return errors.Wrap(err, "get value from etcd")
	}

	// use an existed ID
	if kv != nil {
		s.clusterID, err = typeutil.BytesToUint64(kv.Value)
		logger.Info("use an existing cluster id", zap.Uint64("cluster-id", s.clusterID))
		return errors.Wrap(err, "convert bytes to uint64")
	}

	// new an ID
	s.clusterID, err = initOrGetClusterID(s.client, _clusterIDPath)
	if err != nil {
		return errors.Wrap(err, "new an ID")
	}
	logger.Info("use a new cluster id", zap.Uint64("cluster-id", s.clusterID))
	return nil
}

// ClusterID returns the id of the cluster the server belongs to.
func (s *Server) ClusterID() uint64 {
	return s.clusterID
}

// APIAddr returns the address the api server listens on.
func (s *Server) APIAddr() string {
	return s.apiAddr
}

// Context returns the context of server.
func (s *Server) Context() context.Context {
	return s.ctx
}

func (s *Server) Storage() storage.Storage {
	return s.storage
}

// IsClosed checks whether server is closed or not.
func (s *Server) IsClosed() bool {
	return !s.started.Load()
}

// Close closes the server.
func (s *Server) Close() {
	if !s.started.Swap(false) {
		// server is already closed
		return
	}

	logger := s.lg
	logger.Info("closing server")
	s.release()
	logger.Info("server closed")
}

// release stops the api server and the cluster, and closes the etcd client and the embedded etcd, if any.
func (s *Server) release() {
	logger := s.lg

	if s.apiServer != nil {
		s.stopAPIServer()
		s.apiServer = nil
	}
	if s.cluster != nil {
		_ = s.cluster.Stop()
	}

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.Error("failed to close etcd client", zap.Error(err))
		}
		s.client = nil
	}

	if s.etcd != nil {
		s.etcd.Close()
		s.etcd = nil
	}
}

func (s *Server) stopAPIServer() {
	ctx, cancel := context.WithTimeout(context.Background(), _shutdownAPIServerTimeout)
	defer cancel()
	if err := s.apiServer.Shutdown(ctx); err != nil {
		s.lg.Warn("failed to shutdown api server gracefully", zap.Error(err))
	}
	s.apiWg.Wait()
}

// clusterIDCmp returns a cmp guaranteeing that the transaction is executed
// only if the etcd cluster still belongs to this booking cluster.
func (s *Server) clusterIDCmp() clientv3.Cmp {
	return clientv3.Compare(clientv3.Value(_clusterIDPath), "=", string(typeutil.Uint64ToBytes(s.clusterID)))
}

// checkClusterID checks etcd cluster ID, returns an error if mismatched.
// This function will never block even quorum is not satisfied.
func checkClusterID(localClusterID types.ID, um types.URLsMap, logger *zap.Logger) error {
	if len(um) == 0 {
		return nil
	}

	for _, u := range um.URLs() {
		trp := &http.Transport{}
		remoteCluster, err := etcdserver.GetClusterFromRemotePeers(nil, []string{u}, trp)
		trp.CloseIdleConnections()
		if err != nil {
			// Do not return error, because other members may be not ready.
			logger.Warn("failed to get cluster from remote", zap.Error(err))
			continue
		}

		if remoteClusterID := remoteCluster.ID(); remoteClusterID != localClusterID {
			logger.Error("invalid cluster id", zap.Uint64("expected", uint64(localClusterID)), zap.Uint64("got", uint64(remoteClusterID)))
			return errors.Errorf("Etcd cluster ID mismatch, expected %d, got %d", localClusterID, remoteClusterID)
		}
	}
	return nil
}

func initOrGetClusterID(c *clientv3.Client, key string) (uint64, error) {
	ctx, cancel := context.WithTimeout(c.Ctx(), etcdutil.DefaultRequestTimeout)
	defer cancel()

	// Generate a random cluster ID.
	ts := uint64(time.Now().Unix())
	rd, err := randutil.Uint64()
	if err != nil {
		return 0, errors.Wrap(err, "generate random int64")
	}
	ID := (ts << 32) + rd
	value := typeutil.Uint64ToBytes(ID)

	// Multiple servers may try to init the cluster ID at the same time.
	// Only one can commit this transaction, then the others get the committed cluster ID.
	resp, err := c.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, string(value))).
		Else(clientv3.OpGet(key)).
		Commit()
	if err != nil {
		return 0, errors.Wrap(err, "init cluster ID by etcd transaction")
	}

	// Txn commits ok, return the generated cluster ID.
	if resp.Succeeded {
		return ID, nil
	}

	// Otherwise, parse the committed cluster ID.
	if len(resp.Responses) == 0 {
		return 0, errors.New("etcd transaction failed, conflicted and rolled back")
	}
	response := resp.Responses[0].GetResponseRange()
	if response == nil || len(response.Kvs) != 1 {
		return 0, errors.New("etcd transaction failed, conflicted and rolled back")
	}
	return typeutil.BytesToUint64(response.Kvs[0].Value)
}
