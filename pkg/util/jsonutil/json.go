package jsonutil

import (
	"github.com/bytedance/gopkg/lang/mcache"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// API is the json codec shared by storage and transport.
var API = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal encodes v into a byte slice.
// The returned byte slice should be freed with mcache.Free after use.
func Marshal(v any) ([]byte, error) {
	stream := API.BorrowStream(nil)
	defer API.ReturnStream(stream)

	stream.WriteVal(v)
	if stream.Error != nil {
		return nil, errors.Wrap(stream.Error, "json marshal")
	}
	bytes := stream.Buffer()

	result := mcache.Malloc(len(bytes))
	copy(result, bytes)
	return result, nil
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	if err := API.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "json unmarshal")
	}
	return nil
}
