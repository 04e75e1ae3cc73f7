package typeutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBytesToUint64(t *testing.T) {
	type args struct {
		b []byte
	}
	tests := []struct {
		name    string
		args    args
		want    uint64
		wantErr bool
	}{
		{
			name: "zero",
			args: args{
				b: []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			},
			want: 0,
		},
		{
			name: "one",
			args: args{
				b: []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01},
			},
			want: 1,
		},
		{
			name: "a random number",
			args: args{
				b: []byte{0x11, 0x22, 0x10, 0xF4, 0x7D, 0xE9, 0x81, 0x15},
			},
			want: 1234567890123456789,
		},
		{
			name: "error when too short",
			args: args{
				b: []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			},
			wantErr: true,
		},
		{
			name: "error when too long",
			args: args{
				b: []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			},
			wantErr: true,
		},
		{
			name:    "error when empty",
			args:    args{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re := require.New(t)

			got, err := BytesToUint64(tt.args.b)

			if tt.wantErr {
				re.Error(err)
			} else {
				re.NoError(err)
				re.Equal(tt.want, got)
			}
		})
	}
}

func TestUint64ToBytes(t *testing.T) {
	tests := []struct {
		name string
		v    uint64
		want []byte
	}{
		{
			name: "zero",
			v:    0,
			want: []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name: "a random number",
			v:    1234567890123456789,
			want: []byte{0x11, 0x22, 0x10, 0xF4, 0x7D, 0xE9, 0x81, 0x15},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re := require.New(t)

			got := Uint64ToBytes(tt.v)
			re.Equal(tt.want, got)

			back, err := BytesToUint64(got)
			re.NoError(err)
			re.Equal(tt.v, back)
		})
	}
}
