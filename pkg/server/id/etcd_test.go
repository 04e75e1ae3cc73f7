package id

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/model"
	"github.com/hotelbook/booking-server/pkg/server/storage/kv"
	"github.com/hotelbook/booking-server/pkg/util/testutil"
	"github.com/hotelbook/booking-server/pkg/util/typeutil"
)

const (
	_testRootPath = "/test"
)

var _testNamespace = Namespace{Name: "discount", Prefix: "discounts/"}

type preset struct {
	ids     []uint64
	counter uint64
}

func newTestEtcdAllocator(client *clientv3.Client, param EtcdAllocatorParam) *EtcdAllocator {
	param.KV = kv.Logger{LogAble: kv.NewEtcd(kv.EtcdParam{KV: client, RootPath: _testRootPath}, zap.NewNop())}
	param.Namespace = _testNamespace
	return NewEtcdAllocator(&param, zap.NewNop())
}

func newTestAllocator(client *clientv3.Client, param EtcdAllocatorParam) Logger {
	return Logger{newTestEtcdAllocator(client, param)}
}

func recordKey(id uint64) string {
	return _testRootPath + kv.KeySeparator + string(_testNamespace.RecordKey(id))
}

func counterKey() string {
	return _testRootPath + kv.KeySeparator + string(_testNamespace.CounterKey())
}

func record(id uint64) []byte {
	return []byte(fmt.Sprintf("record-%d", id))
}

func prepare(tb testing.TB, client *clientv3.Client, p preset) {
	re := require.New(tb)
	for _, id := range p.ids {
		_, err := client.Put(context.Background(), recordKey(id), string(record(id)))
		re.NoError(err)
	}
	if p.counter > 0 {
		_, err := client.Put(context.Background(), counterKey(), string(typeutil.Uint64ToBytes(p.counter)))
		re.NoError(err)
	}
}

func getCounter(tb testing.TB, client *clientv3.Client) uint64 {
	re := require.New(tb)
	resp, err := client.Get(context.Background(), counterKey())
	re.NoError(err)
	if len(resp.Kvs) == 0 {
		return 0
	}
	counter, err := typeutil.BytesToUint64(resp.Kvs[0].Value)
	re.NoError(err)
	return counter
}

func getRecord(tb testing.TB, client *clientv3.Client, id uint64) []byte {
	re := require.New(tb)
	resp, err := client.Get(context.Background(), recordKey(id))
	re.NoError(err)
	if len(resp.Kvs) == 0 {
		return nil
	}
	return resp.Kvs[0].Value
}

func deleteRecord(tb testing.TB, client *clientv3.Client, id uint64) {
	_, err := client.Delete(context.Background(), recordKey(id))
	require.NoError(tb, err)
}

func TestEtcdAllocator_Create(t *testing.T) {
	type fields struct {
		listLimit int64
	}
	type want struct {
		id      uint64
		counter uint64
	}
	tests := []struct {
		name   string
		fields fields
		preset preset
		want   want
	}{
		{
			name: "cold start",
			want: want{id: 1, counter: 1},
		},
		{
			name:   "dense",
			preset: preset{ids: []uint64{1, 2, 3}, counter: 3},
			want:   want{id: 4, counter: 4},
		},
		{
			name:   "hole at the beginning",
			preset: preset{ids: []uint64{2, 3}, counter: 3},
			want:   want{id: 1, counter: 3},
		},
		{
			name:   "hole in the middle",
			preset: preset{ids: []uint64{1, 3}, counter: 3},
			want:   want{id: 2, counter: 3},
		},
		{
			name:   "multiple holes",
			preset: preset{ids: []uint64{1, 4, 5}, counter: 5},
			want:   want{id: 2, counter: 5},
		},
		{
			name:   "all deleted",
			preset: preset{counter: 5},
			want:   want{id: 1, counter: 5},
		},
		{
			name:   "dense in pages",
			fields: fields{listLimit: 2},
			preset: preset{ids: []uint64{1, 2, 3, 4, 5}, counter: 5},
			want:   want{id: 6, counter: 6},
		},
		{
			name:   "hole in the last page",
			fields: fields{listLimit: 1},
			preset: preset{ids: []uint64{1, 2, 4, 5}, counter: 5},
			want:   want{id: 3, counter: 5},
		},
	}
	for _, mode := range []Mode{ModeRelaxed, ModeSerialized} {
		for _, tt := range tests {
			mode := mode
			tt := tt
			t.Run(fmt.Sprintf("%s/%s", mode, tt.name), func(t *testing.T) {
				t.Parallel()
				re := require.New(t)
				_, client, closeFunc := testutil.StartEtcd(t, nil)
				defer closeFunc()

				allocator := newTestAllocator(client, EtcdAllocatorParam{Mode: mode, ListLimit: tt.fields.listLimit})
				prepare(t, client, tt.preset)
				// records in other namespaces are ignored
				_, err := client.Put(context.Background(), _testRootPath+"/issues/00000000000000000001", "issue")
				re.NoError(err)

				id, err := allocator.Create(context.Background(), func(id uint64) ([]byte, error) {
					return record(id), nil
				})
				re.NoError(err)
				re.Equal(tt.want.id, id)
				re.Equal(tt.want.counter, getCounter(t, client))
				re.Equal(record(id), getRecord(t, client, id))
			})
		}
	}
}

func TestEtcdAllocator_Alloc(t *testing.T) {
	for _, mode := range []Mode{ModeRelaxed, ModeSerialized} {
		mode := mode
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()
			re := require.New(t)
			_, client, closeFunc := testutil.StartEtcd(t, nil)
			defer closeFunc()

			allocator := newTestAllocator(client, EtcdAllocatorParam{Mode: mode})
			prepare(t, client, preset{ids: []uint64{1, 3}, counter: 3})

			// a hole does not touch the counter and is not reserved
			id, err := allocator.Alloc(context.Background())
			re.NoError(err)
			re.Equal(uint64(2), id)
			id, err = allocator.Alloc(context.Background())
			re.NoError(err)
			re.Equal(uint64(2), id)
			re.Equal(uint64(3), getCounter(t, client))
			re.Nil(getRecord(t, client, 2))

			// the counter grows when there is no hole
			prepare(t, client, preset{ids: []uint64{2}})
			id, err = allocator.Alloc(context.Background())
			re.NoError(err)
			re.Equal(uint64(4), id)
			re.Equal(uint64(4), getCounter(t, client))
		})
	}
}

func TestEtcdAllocator_Sequential(t *testing.T) {
	for _, mode := range []Mode{ModeRelaxed, ModeSerialized} {
		mode := mode
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()
			re := require.New(t)
			_, client, closeFunc := testutil.StartEtcd(t, nil)
			defer closeFunc()

			allocator := newTestAllocator(client, EtcdAllocatorParam{Mode: mode})

			var last uint64
			for i := 0; i < 5; i++ {
				id, err := allocator.Create(context.Background(), func(id uint64) ([]byte, error) {
					return record(id), nil
				})
				re.NoError(err)
				re.Greater(id, last)
				last = id
			}
			re.Equal(uint64(5), last)
			re.Equal(uint64(5), getCounter(t, client))
		})
	}
}

func TestEtcdAllocator_ReuseAfterDelete(t *testing.T) {
	for _, mode := range []Mode{ModeRelaxed, ModeSerialized} {
		mode := mode
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()
			re := require.New(t)
			_, client, closeFunc := testutil.StartEtcd(t, nil)
			defer closeFunc()

			allocator := newTestAllocator(client, EtcdAllocatorParam{Mode: mode})
			prepare(t, client, preset{ids: []uint64{1, 2, 3}, counter: 3})
			deleteRecord(t, client, 2)

			create := func() uint64 {
				id, err := allocator.Create(context.Background(), func(id uint64) ([]byte, error) {
					return record(id), nil
				})
				re.NoError(err)
				return id
			}

			re.Equal(uint64(2), create())
			re.Equal(uint64(3), getCounter(t, client))
			re.Equal(uint64(4), create())
			re.Equal(uint64(4), getCounter(t, client))
		})
	}
}

func TestEtcdAllocator_InvalidCounter(t *testing.T) {
	for _, mode := range []Mode{ModeRelaxed, ModeSerialized} {
		mode := mode
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()
			re := require.New(t)
			_, client, closeFunc := testutil.StartEtcd(t, nil)
			defer closeFunc()

			allocator := newTestAllocator(client, EtcdAllocatorParam{Mode: mode})
			_, err := client.Put(context.Background(), counterKey(), "abc")
			re.NoError(err)

			_, err = allocator.Create(context.Background(), func(id uint64) ([]byte, error) {
				return record(id), nil
			})
			re.ErrorIs(err, model.ErrInvalidCounter)
		})
	}
}

func TestEtcdAllocator_RecordError(t *testing.T) {
	for _, mode := range []Mode{ModeRelaxed, ModeSerialized} {
		mode := mode
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()
			re := require.New(t)
			_, client, closeFunc := testutil.StartEtcd(t, nil)
			defer closeFunc()

			allocator := newTestAllocator(client, EtcdAllocatorParam{Mode: mode})
			prepare(t, client, preset{ids: []uint64{1}, counter: 2})

			_, err := allocator.Create(context.Background(), func(id uint64) ([]byte, error) {
				return nil, model.ErrInvalidArgument
			})
			re.ErrorIs(err, model.ErrInvalidArgument)
			re.Nil(getRecord(t, client, 2))
		})
	}
}

func TestEtcdAllocator_Collision(t *testing.T) {
	tests := []struct {
		name            string
		detectCollision bool
		wantErr         bool
		want            []byte
	}{
		{
			name: "overwrite",
			want: record(2),
		},
		{
			name:            "detect collision",
			detectCollision: true,
			wantErr:         true,
			want:            []byte("other"),
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re := require.New(t)
			_, client, closeFunc := testutil.StartEtcd(t, nil)
			defer closeFunc()

			allocator := newTestAllocator(client, EtcdAllocatorParam{Mode: ModeRelaxed, DetectCollision: tt.detectCollision})
			prepare(t, client, preset{ids: []uint64{1, 3}, counter: 3})

			_, err := allocator.Create(context.Background(), func(id uint64) ([]byte, error) {
				// another writer takes the same id
				_, err := client.Put(context.Background(), recordKey(id), "other")
				re.NoError(err)
				return record(id), nil
			})
			if tt.wantErr {
				re.ErrorIs(err, model.ErrIDCollision)
			} else {
				re.NoError(err)
			}
			re.Equal(tt.want, getRecord(t, client, 2))
			re.Equal(uint64(3), getCounter(t, client))
		})
	}
}

func TestEtcdAllocator_SerializedRetry(t *testing.T) {
	re := require.New(t)
	_, client, closeFunc := testutil.StartEtcd(t, nil)
	defer closeFunc()

	allocator := newTestAllocator(client, EtcdAllocatorParam{Mode: ModeSerialized})
	prepare(t, client, preset{ids: []uint64{1, 3}, counter: 3})

	first := true
	id, err := allocator.Create(context.Background(), func(id uint64) ([]byte, error) {
		if first {
			// another writer takes the hole before the commit
			first = false
			_, err := client.Put(context.Background(), recordKey(id), "other")
			re.NoError(err)
		}
		return record(id), nil
	})
	re.NoError(err)
	re.Equal(uint64(4), id)
	re.Equal([]byte("other"), getRecord(t, client, 2))
	re.Equal(record(4), getRecord(t, client, 4))
	re.Equal(uint64(4), getCounter(t, client))
}

func TestEtcdAllocator_Concurrent(t *testing.T) {
	type result struct {
		id  uint64
		err error
	}
	create := func(allocators []Logger, n int) []result {
		var wg sync.WaitGroup
		results := make([]result, n)
		for i := 0; i < n; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				id, err := allocators[i%len(allocators)].Create(context.Background(), func(id uint64) ([]byte, error) {
					return record(id), nil
				})
				results[i] = result{id: id, err: err}
			}()
		}
		wg.Wait()
		return results
	}

	t.Run("serialized on dense namespace", func(t *testing.T) {
		t.Parallel()
		re := require.New(t)
		_, client, closeFunc := testutil.StartEtcd(t, nil)
		defer closeFunc()

		// allocators do not share a lock, like servers on the same etcd
		allocators := make([]Logger, 8)
		for i := range allocators {
			allocators[i] = newTestAllocator(client, EtcdAllocatorParam{Mode: ModeSerialized})
		}
		prepare(t, client, preset{ids: []uint64{1, 2, 3}, counter: 3})

		results := create(allocators, 8)
		ids := make([]uint64, 0, len(results))
		for _, r := range results {
			re.NoError(r.err)
			ids = append(ids, r.id)
		}
		re.ElementsMatch([]uint64{4, 5, 6, 7, 8, 9, 10, 11}, ids)
		re.Equal(uint64(11), getCounter(t, client))
	})

	t.Run("relaxed growers on dense namespace", func(t *testing.T) {
		t.Parallel()
		re := require.New(t)
		_, client, closeFunc := testutil.StartEtcd(t, nil)
		defer closeFunc()

		prepare(t, client, preset{ids: []uint64{1, 2, 3}, counter: 3})

		const n = 16
		var wg sync.WaitGroup
		results := make([]result, n)
		for i := 0; i < n; i++ {
			i := i
			allocator := newTestEtcdAllocator(client, EtcdAllocatorParam{Mode: ModeRelaxed})
			wg.Add(1)
			go func() {
				defer wg.Done()
				id, err := allocator.grow(context.Background())
				results[i] = result{id: id, err: err}
			}()
		}
		wg.Wait()

		ids := make([]uint64, 0, n)
		for _, r := range results {
			re.NoError(r.err)
			ids = append(ids, r.id)
		}
		want := make([]uint64, 0, n)
		for id := uint64(4); id < 4+n; id++ {
			want = append(want, id)
		}
		re.ElementsMatch(want, ids)
		re.Equal(uint64(3+n), getCounter(t, client))
	})

	t.Run("relaxed creates on dense namespace", func(t *testing.T) {
		t.Parallel()
		re := require.New(t)
		_, client, closeFunc := testutil.StartEtcd(t, nil)
		defer closeFunc()

		allocators := make([]Logger, 8)
		for i := range allocators {
			allocators[i] = newTestAllocator(client, EtcdAllocatorParam{Mode: ModeRelaxed})
		}
		prepare(t, client, preset{ids: []uint64{1, 2, 3}, counter: 3})

		// a caller may see an id granted to another one but not written yet as a hole,
		// so ids may repeat, but no create fails and the counter covers every id
		const n = 16
		results := create(allocators, n)
		counter := getCounter(t, client)
		re.LessOrEqual(counter, uint64(3+n))
		for _, r := range results {
			re.NoError(r.err)
			re.Greater(r.id, uint64(3))
			re.LessOrEqual(r.id, counter)
			re.Equal(record(r.id), getRecord(t, client, r.id))
		}
	})

	t.Run("serialized in one allocator", func(t *testing.T) {
		t.Parallel()
		re := require.New(t)
		_, client, closeFunc := testutil.StartEtcd(t, nil)
		defer closeFunc()

		allocators := []Logger{newTestAllocator(client, EtcdAllocatorParam{Mode: ModeSerialized})}
		prepare(t, client, preset{ids: []uint64{2, 4}, counter: 4})

		results := create(allocators, 8)
		ids := make([]uint64, 0, len(results))
		for _, r := range results {
			re.NoError(r.err)
			ids = append(ids, r.id)
		}
		re.ElementsMatch([]uint64{1, 3, 5, 6, 7, 8, 9, 10}, ids)
		re.Equal(uint64(10), getCounter(t, client))
	})

	t.Run("relaxed with collision detection", func(t *testing.T) {
		t.Parallel()
		re := require.New(t)
		_, client, closeFunc := testutil.StartEtcd(t, nil)
		defer closeFunc()

		allocators := []Logger{
			newTestAllocator(client, EtcdAllocatorParam{Mode: ModeRelaxed, DetectCollision: true}),
			newTestAllocator(client, EtcdAllocatorParam{Mode: ModeRelaxed, DetectCollision: true}),
		}
		prepare(t, client, preset{ids: []uint64{1, 3}, counter: 3})

		// a duplicated id never succeeds twice
		results := create(allocators, 2)
		succeeded := make(map[uint64]bool)
		for _, r := range results {
			if r.err != nil {
				re.ErrorIs(r.err, model.ErrIDCollision)
				continue
			}
			re.False(succeeded[r.id])
			succeeded[r.id] = true
		}
		re.NotEmpty(succeeded)
	})
}
