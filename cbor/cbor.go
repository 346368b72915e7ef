// Package cbor provides the deterministic CBOR codec used throughout the
// ledger packages. It wraps github.com/fxamacker/cbor/v2, configured for
// canonical (RFC 8949 core deterministic) encoding: shortest-form integers,
// definite-length arrays and maps, and lexicographic map-key ordering.
package cbor

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeUnix
	// Marshalers may return cached wire bytes or chunked Plutus byte strings
	// that contain indefinite-length items.
	encOpts.IndefLength = cbor.IndefLengthAllowed
	var err error
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor: failed to build encode mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
		TimeTag:     cbor.DecTagIgnored,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cbor: failed to build decode mode: %v", err))
	}
}

// Marshaler is implemented by types with custom CBOR encoding.
type Marshaler = cbor.Marshaler

// Unmarshaler is implemented by types with custom CBOR decoding.
type Unmarshaler = cbor.Unmarshaler

// RawMessage holds an undecoded chunk of CBOR, for deferred or pass-through decoding.
type RawMessage = cbor.RawMessage

// StructAsArray, embedded with a `cbor:",toarray"` tag on the embed site,
// forces that struct to encode as a CBOR definite-length array of its
// exported fields in declaration order instead of a map:
//
//	struct {
//		cbor.StructAsArray `cbor:",toarray"`
//		Foo int
//		Bar string
//	}
type StructAsArray struct{}

// Encode serializes v using the canonical/deterministic encoding rules:
// shortest-form integers, definite-length containers, sorted map keys.
func Encode(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cbor encode: %w", err)
	}
	return data, nil
}

// Decode parses data strictly into v. Trailing bytes are an error; duplicate
// map keys are an error.
func Decode(data []byte, v any) error {
	rest, err := decMode.UnmarshalFirst(data, v)
	if err != nil {
		return fmt.Errorf("cbor decode: %w", err)
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrTrailingData, len(rest))
	}
	return nil
}

// DecodeAny decodes data into a generic any (map[any]any / []any / scalars),
// useful for inspecting sparse-map wire shapes before full typed decode.
func DecodeAny(data []byte) (any, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("cbor decode: %w", err)
	}
	return v, nil
}

// Tag is a CBOR major-type-6 tagged value: a tag number plus its content item.
type Tag struct {
	Number  uint64
	Content any
}

// MarshalCBOR encodes the tag in canonical form.
func (t Tag) MarshalCBOR() ([]byte, error) {
	raw := cbor.Tag{Number: t.Number, Content: t.Content}
	return encMode.Marshal(raw)
}

// UnmarshalCBOR decodes a tagged value into t.
func (t *Tag) UnmarshalCBOR(data []byte) error {
	var raw cbor.RawTag
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cbor: decode tag: %w", err)
	}
	t.Number = raw.Number
	var content any
	if err := decMode.Unmarshal(raw.Content, &content); err != nil {
		return fmt.Errorf("cbor: decode tag content: %w", err)
	}
	t.Content = content
	return nil
}
