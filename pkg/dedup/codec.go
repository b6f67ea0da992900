package dedup

import "encoding/json"

// Codec converts results to and from the opaque blobs held by the shared
// store. A value that cannot be encoded is a hard error: caching a result we
// cannot round-trip would silently defeat the cache contract.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default codec.
var JSONCodec Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
