// Package serializer provides serialization interfaces and implementations for converting
// Go values to and from byte slices. Stage results are serialized before they are stored
// in a result backend, and stage tables before they are exported.
//
// The package includes a default JSON serializer implementation that uses the goccy/go-json
// library, a msgpack serializer backed by shamaton/msgpack and a CBOR serializer backed by
// ugorji/go/codec.
package serializer

import (
	"github.com/goccy/go-json"

	"github.com/hyp3rd/ewrap"
)

// DefaultJSONSerializer leverages `go-json` to serialize values.
type DefaultJSONSerializer struct{}

// Marshal serializes the given value into a byte slice.
func (*DefaultJSONSerializer) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to marshal json")
	}

	return data, nil
}

// Unmarshal deserializes the given byte slice into the value pointed to by v.
func (*DefaultJSONSerializer) Unmarshal(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err != nil {
		return ewrap.Wrap(err, "failed to unmarshal json")
	}

	return nil
}
