package url

import (
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlloc(t *testing.T) {
	re := require.New(t)

	seen := make(map[string]struct{})
	for i := 0; i < 8; i++ {
		u := Alloc(t)
		re.True(strings.HasPrefix(u, "http://127.0.0.1:"))
		seen[u] = struct{}{}
	}
	re.Len(seen, 8)
}

func TestAllocAddrIsFree(t *testing.T) {
	re := require.New(t)

	addr := AllocAddr(t)
	l, err := net.Listen("tcp", addr)
	re.NoError(err)
	re.NoError(l.Close())
}
