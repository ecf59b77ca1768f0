package serializer

import (
	"github.com/hyp3rd/ewrap"
	"github.com/ugorji/go/codec"
)

// CBORSerializer encodes values as CBOR through `ugorji/go/codec`.
type CBORSerializer struct {
	handle codec.CborHandle
}

// Marshal serializes the given value into a byte slice.
func (s *CBORSerializer) Marshal(v any) ([]byte, error) {
	var out []byte

	err := codec.NewEncoderBytes(&out, &s.handle).Encode(v)
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to marshal cbor")
	}

	return out, nil
}

// Unmarshal deserializes the given byte slice into the value pointed to by v.
func (s *CBORSerializer) Unmarshal(data []byte, v any) error {
	err := codec.NewDecoderBytes(data, &s.handle).Decode(v)
	if err != nil {
		return ewrap.Wrap(err, "failed to unmarshal cbor")
	}

	return nil
}
