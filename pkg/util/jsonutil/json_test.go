package jsonutil

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/bytedance/gopkg/lang/mcache"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type record struct {
	ID      uint64   `json:"id"`
	Name    string   `json:"name"`
	Amount  float64  `json:"amount"`
	Tags    []string `json:"tags"`
	Pointer *float64 `json:"pointer,omitempty"`
}

func TestMarshal(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	var r record
	re.NoError(gofakeit.New(1).Struct(&r))

	b, err := Marshal(&r)
	re.NoError(err)
	defer mcache.Free(b)

	var got record
	re.NoError(Unmarshal(b, &got))
	re.Equal(r, got)
}

func TestMarshalFieldNames(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	b, err := Marshal(record{ID: 1, Name: "a"})
	re.NoError(err)
	defer mcache.Free(b)

	re.JSONEq(`{"id":1,"name":"a","amount":0,"tags":null}`, string(b))
}

func TestMarshalError(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	_, err := Marshal(func() {})
	re.Error(err)
}

func TestUnmarshalError(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	var r record
	re.Error(Unmarshal([]byte(`{"id":"not a number"}`), &r))
	re.Error(Unmarshal([]byte(`{`), &r))
}
