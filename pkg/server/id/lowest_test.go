package id

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/require"
)

func TestLowest(t *testing.T) {
	type args struct {
		used    []uint64
		counter uint64
	}
	type want struct {
		id   uint64
		grow bool
	}
	tests := []struct {
		name string
		args args
		want want
	}{
		{
			name: "cold start",
			args: args{},
			want: want{id: 1, grow: true},
		},
		{
			name: "dense",
			args: args{used: []uint64{1, 2, 3}, counter: 3},
			want: want{id: 4, grow: true},
		},
		{
			name: "hole at the beginning",
			args: args{used: []uint64{2, 3}, counter: 3},
			want: want{id: 1, grow: false},
		},
		{
			name: "hole in the middle",
			args: args{used: []uint64{1, 3}, counter: 3},
			want: want{id: 2, grow: false},
		},
		{
			name: "hole at the end",
			args: args{used: []uint64{1, 2}, counter: 3},
			want: want{id: 3, grow: false},
		},
		{
			name: "multiple holes",
			args: args{used: []uint64{1, 4}, counter: 5},
			want: want{id: 2, grow: false},
		},
		{
			name: "all deleted",
			args: args{used: []uint64{}, counter: 5},
			want: want{id: 1, grow: false},
		},
		{
			name: "ids above counter",
			args: args{used: []uint64{1, 2, 3, 7}, counter: 3},
			want: want{id: 4, grow: true},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re := require.New(t)

			id, grow := Lowest(mapset.NewThreadUnsafeSet(tt.args.used...), tt.args.counter)
			re.Equal(tt.want, want{id: id, grow: grow})
		})
	}
}

func TestLowestNilSet(t *testing.T) {
	re := require.New(t)

	id, grow := Lowest(nil, 2)
	re.Equal(uint64(1), id)
	re.False(grow)

	id, grow = Lowest(nil, 0)
	re.Equal(uint64(1), id)
	re.True(grow)
}

func TestLowestSingleHole(t *testing.T) {
	re := require.New(t)

	for counter := uint64(1); counter <= 32; counter++ {
		for k := uint64(1); k <= counter; k++ {
			used := mapset.NewThreadUnsafeSet[uint64]()
			for i := uint64(1); i <= counter; i++ {
				if i != k {
					used.Add(i)
				}
			}
			id, grow := Lowest(used, counter)
			re.Equal(k, id, "counter %d, hole %d", counter, k)
			re.False(grow)
		}
	}
}

func TestLowestNeverUsed(t *testing.T) {
	re := require.New(t)

	used := mapset.NewThreadUnsafeSet[uint64]()
	var counter uint64
	for i := 0; i < 64; i++ {
		id, grow := Lowest(used, counter)
		re.NotZero(id)
		re.False(used.Contains(id))
		if grow {
			re.Equal(counter+1, id)
			counter = id
		} else {
			re.LessOrEqual(id, counter)
		}
		used.Add(id)
		// delete every third id
		if i%3 == 2 {
			used.Remove(id / 2)
		}
	}
}

func TestNamespace(t *testing.T) {
	re := require.New(t)
	ns := Namespace{Name: "discount", Prefix: "discounts/"}

	re.Equal([]byte("counters/discount"), ns.CounterKey())
	re.Equal([]byte("discounts/00000000000000000042"), ns.RecordKey(42))

	id, ok := ns.ParseRecordKey(ns.RecordKey(42))
	re.True(ok)
	re.Equal(uint64(42), id)

	for _, key := range []string{"discounts/", "discounts/abc", "discounts/00000000000000000000", "issues/00000000000000000001"} {
		_, ok = ns.ParseRecordKey([]byte(key))
		re.False(ok, key)
	}
}
