package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/config"
	"github.com/hotelbook/booking-server/pkg/util/jsonutil"
	"github.com/hotelbook/booking-server/pkg/util/testutil"
	tempurl "github.com/hotelbook/booking-server/pkg/util/testutil/url"
)

func newTestConfig(tb testing.TB, dataDir string, arguments ...string) *config.Config {
	re := require.New(tb)

	cfg, err := config.NewConfig(append([]string{
		"--name=test-booking",
		"--data-dir=" + dataDir,
		"--peer-urls=" + tempurl.Alloc(tb),
		"--client-urls=" + tempurl.Alloc(tb),
		"--api-addr=" + tempurl.AllocAddr(tb),
		"--etcd-log-level=error",
		"--log-level=error",
	}, arguments...), io.Discard)
	re.NoError(err)
	re.NoError(cfg.Adjust())
	re.NoError(cfg.Validate())
	return cfg
}

func startServer(tb testing.TB, cfg *config.Config) *Server {
	re := require.New(tb)

	svr, err := NewServer(context.Background(), cfg, zap.NewNop())
	re.NoError(err)
	re.NoError(svr.Start())
	re.False(svr.IsClosed())
	return svr
}

func request(tb testing.TB, svr *Server, method, path, body string) (int, map[string]any) {
	re := require.New(tb)

	req, err := http.NewRequest(method, "http://"+svr.APIAddr()+path, strings.NewReader(body))
	re.NoError(err)
	resp, err := http.DefaultClient.Do(req)
	re.NoError(err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	re.NoError(err)
	var result map[string]any
	re.NoError(jsonutil.Unmarshal(data, &result))
	return resp.StatusCode, result
}

func TestStartSingleServer(t *testing.T) {
	re := require.New(t)
	cfg := newTestConfig(t, t.TempDir())

	svr := startServer(t, cfg)
	clusterID := svr.ClusterID()
	re.NotZero(clusterID)

	code, body := request(t, svr, http.MethodGet, "/", "")
	re.Equal(http.StatusOK, code)
	re.Equal("Hello from booking server", body["message"])

	code, body = request(t, svr, http.MethodPost, "/discounts", `{"name":"d1","amount":10,"condition":"c1"}`)
	re.Equal(http.StatusCreated, code)
	re.Equal(1.0, body["discount"].(map[string]any)["discountID"])

	svr.Close()
	re.True(svr.IsClosed())
	svr.Close()

	// restart on the same data dir
	svr = startServer(t, cfg)
	defer svr.Close()
	re.Equal(clusterID, svr.ClusterID())

	code, body = request(t, svr, http.MethodGet, "/discounts", "")
	re.Equal(http.StatusOK, code)
	re.Len(body["discounts"], 1)
}

func TestStartWithExternalEtcd(t *testing.T) {
	re := require.New(t)

	etcd, client, closeFunc := testutil.StartEtcd(t, nil)
	defer closeFunc()

	svr := startServer(t, newTestConfig(t, t.TempDir(), "--etcd-endpoints="+etcd.Config().ACUrls[0].String(), "--allocator-mode=serialized"))
	code, _ := request(t, svr, http.MethodPost, "/issues", `{"description":"leak","status":"open","image":"i"}`)
	re.Equal(http.StatusCreated, code)
	svr.Close()

	// data is kept in the external etcd under the root path
	resp, err := client.Get(context.Background(), "/booking/", clientv3.WithPrefix())
	re.NoError(err)
	re.NotZero(resp.Count)

	// a second server joins the same cluster
	svr = startServer(t, newTestConfig(t, t.TempDir(), "--etcd-endpoints="+etcd.Config().ACUrls[0].String()))
	defer svr.Close()
	code, body := request(t, svr, http.MethodGet, "/issues", "")
	re.Equal(http.StatusOK, code)
	re.Len(body["issues"], 1)
}

func TestStartFailureReleasesEtcd(t *testing.T) {
	re := require.New(t)
	cfg := newTestConfig(t, t.TempDir())

	// the api address is taken
	listener, err := net.Listen("tcp", cfg.APIAddr)
	re.NoError(err)
	svr, err := NewServer(context.Background(), cfg, zap.NewNop())
	re.NoError(err)
	re.Error(svr.Start())
	re.True(svr.IsClosed())
	svr.Close()
	re.NoError(listener.Close())

	// the embedded etcd is closed, so its ports and data dir can be used again
	svr = startServer(t, cfg)
	defer svr.Close()
	code, _ := request(t, svr, http.MethodGet, "/", "")
	re.Equal(http.StatusOK, code)
}
