package common

import (
	"math/big"
	"sort"

	"github.com/go-cardano/ctxbuilder/cbor"
)

// MultiAssetTypeOutput is the quantity type used for native assets sitting
// in a transaction output: always non-negative by ledger rule, though
// represented as *big.Int like mint quantities so the same MultiAsset
// machinery serves both.
type MultiAssetTypeOutput = *big.Int

// MultiAssetTypeMint is the quantity type used for the mint/burn field:
// signed, since burning is a negative quantity.
type MultiAssetTypeMint = *big.Int

// MultiAsset maps policy ID -> asset name -> quantity. The type parameter
// exists to keep output-context and mint-context multi-assets distinct at
// the type level even though both currently resolve to *big.Int.
type MultiAsset[T any] struct {
	data map[Blake2b224]map[cbor.ByteString]T
}

// NewMultiAsset wraps a policy/asset/quantity map as a MultiAsset. The map
// is not copied; callers that need isolation should clone first.
func NewMultiAsset[T any](data map[Blake2b224]map[cbor.ByteString]T) MultiAsset[T] {
	if data == nil {
		data = map[Blake2b224]map[cbor.ByteString]T{}
	}
	return MultiAsset[T]{data: data}
}

// Policies returns the policy IDs present, sorted ascending by byte value
// for deterministic iteration.
func (m *MultiAsset[T]) Policies() []Blake2b224 {
	if m == nil {
		return nil
	}
	out := make([]Blake2b224, 0, len(m.data))
	for p := range m.data {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i][:]) < string(out[j][:])
	})
	return out
}

// Assets returns the asset names under policyId, sorted ascending by bytes.
func (m *MultiAsset[T]) Assets(policyId Blake2b224) [][]byte {
	if m == nil {
		return nil
	}
	names, ok := m.data[policyId]
	if !ok {
		return nil
	}
	out := make([][]byte, 0, len(names))
	for name := range names {
		out = append(out, name.Bytes())
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i]) < string(out[j])
	})
	return out
}

// Asset returns the quantity for policyId/assetName, or the zero value of T
// (nil for *big.Int) if absent.
func (m *MultiAsset[T]) Asset(policyId Blake2b224, assetName []byte) T {
	var zero T
	if m == nil {
		return zero
	}
	names, ok := m.data[policyId]
	if !ok {
		return zero
	}
	v, ok := names[cbor.NewByteString(assetName)]
	if !ok {
		return zero
	}
	return v
}

// Add merges other into m in place. Quantities for matching policy/asset
// pairs are summed; this works for both non-negative output assets and
// signed mint quantities as long as T is *big.Int.
func (m *MultiAsset[T]) Add(other *MultiAsset[T]) {
	if other == nil {
		return
	}
	if m.data == nil {
		m.data = map[Blake2b224]map[cbor.ByteString]T{}
	}
	for policyId, names := range other.data {
		existing, ok := m.data[policyId]
		if !ok {
			existing = map[cbor.ByteString]T{}
			m.data[policyId] = existing
		}
		for name, qty := range names {
			switch v := any(qty).(type) {
			case *big.Int:
				if cur, ok := any(existing[name]).(*big.Int); ok && cur != nil {
					existing[name] = any(new(big.Int).Add(cur, v)).(T)
				} else {
					existing[name] = any(new(big.Int).Set(v)).(T)
				}
			default:
				existing[name] = qty
			}
		}
	}
}

// MarshalCBOR encodes the multi-asset map. fxamacker/cbor's canonical mode
// sorts map keys by their encoded bytes at every nesting level, so the
// policy and asset orderings come out deterministic without extra work here.
func (m MultiAsset[T]) MarshalCBOR() ([]byte, error) {
	return cbor.Encode(m.data)
}

// UnmarshalCBOR decodes a policy/asset/quantity map into m.
func (m *MultiAsset[T]) UnmarshalCBOR(data []byte) error {
	var raw map[Blake2b224]map[cbor.ByteString]T
	if err := cbor.Decode(data, &raw); err != nil {
		return err
	}
	m.data = raw
	return nil
}
