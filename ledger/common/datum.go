package common

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/blinklabs-io/plutigo/data"

	"github.com/go-cardano/ctxbuilder/cbor"
)

// Datum wraps a plutigo Plutus Data value for inline datums, datum hashes,
// and redeemers. It owns the CBOR encoding rules the Plutus Data format
// specifies (constructor tagging, indefinite-length bytestring chunking for
// data over 64 bytes) since plutigo supplies the AST, not a CBOR codec.
type Datum struct {
	cbor.DecodeStoreCbor
	Value data.PlutusData
}

// NewDatum wraps an already-built Plutus Data value.
func NewDatum(v data.PlutusData) *Datum {
	return &Datum{Value: v}
}

// Hash returns the Blake2b-256 hash of the datum's canonical CBOR encoding,
// i.e. the datum hash the ledger uses in a DatumOption or UTxO.
func (d *Datum) Hash() (Blake2b256, error) {
	raw, err := cbor.Encode(d)
	if err != nil {
		return Blake2b256{}, fmt.Errorf("datum hash: %w", err)
	}
	return Blake2b256Hash(raw), nil
}

// MarshalCBOR encodes the wrapped Plutus Data value. If this Datum was
// decoded from the wire, the original bytes are re-emitted verbatim so a
// counterparty's non-canonical (but valid) encoding doesn't silently change
// the datum's hash.
func (d Datum) MarshalCBOR() ([]byte, error) {
	if d.HasCbor() {
		return d.Cbor(), nil
	}
	return encodePlutusData(d.Value)
}

// UnmarshalCBOR decodes a Plutus Data item into d and caches the original
// bytes for byte-preserving re-encoding.
func (d *Datum) UnmarshalCBOR(raw []byte) error {
	v, err := decodePlutusData(raw)
	if err != nil {
		return fmt.Errorf("datum: %w", err)
	}
	d.Value = v
	d.SetCbor(raw)
	return nil
}

// constructor tag ranges per the Plutus Data CBOR encoding (CIP-0054 /
// Plutus.V1.Ledger.Api): alternatives 0-6 use tags 121-127, alternatives
// 7-127 use tags 1280-1400, anything beyond that falls back to tag 102
// wrapping [altTag, fields].
const (
	constrTagBase0    = 121
	constrTagBase1    = 1280
	constrTagBase1Max = 1400
	constrTagFallback = 102
)

func constrCborTag(alt uint64) (uint64, bool) {
	switch {
	case alt <= 6:
		return constrTagBase0 + alt, true
	case alt <= 127:
		return constrTagBase1 + (alt - 7), true
	default:
		return 0, false
	}
}

func encodePlutusData(v data.PlutusData) ([]byte, error) {
	switch pd := v.(type) {
	case *data.Constr:
		fields, err := encodePlutusItems(pd.Fields)
		if err != nil {
			return nil, err
		}
		if tag, ok := constrCborTag(uint64(pd.Tag)); ok {
			return cbor.Encode(cbor.Tag{Number: tag, Content: fields})
		}
		return cbor.Encode(cbor.Tag{Number: constrTagFallback, Content: []any{pd.Tag, fields}})
	case *data.Map:
		return encodePlutusMap(pd.Pairs)
	case *data.List:
		items, err := encodePlutusItems(pd.Items)
		if err != nil {
			return nil, err
		}
		return cbor.Encode(items)
	case *data.Integer:
		return cbor.Encode(pd.Inner)
	case *data.ByteString:
		return encodePlutusBytes(pd.Inner)
	case nil:
		return nil, fmt.Errorf("datum: nil plutus data value")
	default:
		return nil, fmt.Errorf("datum: unsupported plutus data type %T", v)
	}
}

// encodePlutusItems encodes each element individually and wraps the results
// as raw CBOR so the surrounding array/tag encode step emits them verbatim
// instead of trying (and failing) to reflect over the PlutusData interface.
func encodePlutusItems(items []data.PlutusData) ([]cbor.RawMessage, error) {
	out := make([]cbor.RawMessage, 0, len(items))
	for _, item := range items {
		b, err := encodePlutusData(item)
		if err != nil {
			return nil, err
		}
		out = append(out, cbor.RawMessage(b))
	}
	return out, nil
}

// encodePlutusBytes mirrors the ledger's rule that byte strings over 64
// bytes are chunked into an indefinite-length sequence of <=64-byte chunks.
func encodePlutusBytes(b []byte) ([]byte, error) {
	if len(b) <= 64 {
		return cbor.Encode(b)
	}
	out := []byte{0x5f} // major type 2 (byte string), indefinite length
	for i := 0; i < len(b); i += 64 {
		end := i + 64
		if end > len(b) {
			end = len(b)
		}
		chunk, err := cbor.Encode(b[i:end])
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	out = append(out, 0xff) // break
	return out, nil
}

// encodePlutusMap emits a genuine CBOR major-type-5 map, keys sorted by
// their own encoded bytes per canonical CBOR ordering. data.Map's pairs
// can't round-trip through a native Go map (keys may be non-comparable
// Plutus Data), so the header and entries are written directly.
func encodePlutusMap(pairs [][2]data.PlutusData) ([]byte, error) {
	type entry struct{ key, value []byte }
	entries := make([]entry, 0, len(pairs))
	for _, p := range pairs {
		k, err := encodePlutusData(p[0])
		if err != nil {
			return nil, err
		}
		v, err := encodePlutusData(p[1])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: k, value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})
	out := cborMapHeader(uint64(len(entries)))
	for _, e := range entries {
		out = append(out, e.key...)
		out = append(out, e.value...)
	}
	return out, nil
}

// cborMapHeader writes a definite-length major-type-5 (map) header for n
// key/value pairs, per the RFC 8949 initial-byte/length-argument rules.
func cborMapHeader(n uint64) []byte {
	const major = 5 << 5
	switch {
	case n < 24:
		return []byte{byte(major | n)}
	case n <= 0xff:
		return []byte{byte(major | 24), byte(n)}
	case n <= 0xffff:
		return []byte{byte(major | 25), byte(n >> 8), byte(n)}
	case n <= 0xffffffff:
		return []byte{byte(major | 26), byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	default:
		return []byte{
			byte(major | 27),
			byte(n >> 56), byte(n >> 48), byte(n >> 40), byte(n >> 32),
			byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n),
		}
	}
}

func decodePlutusData(raw []byte) (data.PlutusData, error) {
	var tag cbor.Tag
	if err := cbor.Decode(raw, &tag); err == nil {
		return decodeTaggedPlutusData(tag)
	}

	v, err := cbor.DecodeAny(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cbor.ErrUnsupportedMajorType, err)
	}

	switch val := v.(type) {
	case []byte:
		return data.NewByteString(val), nil
	case *big.Int:
		return data.NewInteger(val), nil
	case int64:
		return data.NewInteger(big.NewInt(val)), nil
	case uint64:
		return data.NewInteger(new(big.Int).SetUint64(val)), nil
	case []any:
		fields := make([]data.PlutusData, 0, len(val))
		for _, item := range val {
			pd, err := reencodeAndDecode(item)
			if err != nil {
				return nil, err
			}
			fields = append(fields, pd)
		}
		return data.NewList(fields...), nil
	case map[any]any:
		pairs := make([][2]data.PlutusData, 0, len(val))
		for k, mv := range val {
			kd, err := reencodeAndDecode(k)
			if err != nil {
				return nil, err
			}
			vd, err := reencodeAndDecode(mv)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, [2]data.PlutusData{kd, vd})
		}
		return data.NewMap(pairs), nil
	default:
		return nil, fmt.Errorf("%w: unrecognized plutus data shape %T", cbor.ErrUnsupportedMajorType, v)
	}
}

func reencodeAndDecode(v any) (data.PlutusData, error) {
	raw, err := cbor.Encode(v)
	if err != nil {
		return nil, err
	}
	return decodePlutusData(raw)
}

func decodeTaggedPlutusData(tag cbor.Tag) (data.PlutusData, error) {
	switch {
	case tag.Number >= constrTagBase0 && tag.Number < constrTagBase0+7:
		alt := uint(tag.Number - constrTagBase0)
		fields, err := decodeFieldList(tag.Content)
		if err != nil {
			return nil, err
		}
		return data.NewConstr(alt, fields...), nil
	case tag.Number >= constrTagBase1 && tag.Number <= constrTagBase1Max:
		alt := uint(tag.Number-constrTagBase1) + 7
		fields, err := decodeFieldList(tag.Content)
		if err != nil {
			return nil, err
		}
		return data.NewConstr(alt, fields...), nil
	case tag.Number == constrTagFallback:
		pair, ok := tag.Content.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%w: malformed tag-102 constructor", cbor.ErrUnsupportedMajorType)
		}
		altAny, ok := pair[0].(uint64)
		if !ok {
			return nil, fmt.Errorf("%w: tag-102 alt is not an integer", cbor.ErrUnsupportedMajorType)
		}
		fieldsAny, ok := pair[1].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: tag-102 fields is not an array", cbor.ErrUnsupportedMajorType)
		}
		fields := make([]data.PlutusData, 0, len(fieldsAny))
		for _, f := range fieldsAny {
			pd, err := reencodeAndDecode(f)
			if err != nil {
				return nil, err
			}
			fields = append(fields, pd)
		}
		return data.NewConstr(uint(altAny), fields...), nil
	default:
		return nil, fmt.Errorf("%w: unrecognized plutus data tag %d", cbor.ErrUnsupportedMajorType, tag.Number)
	}
}

func decodeFieldList(content any) ([]data.PlutusData, error) {
	items, ok := content.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: constructor fields is not an array", cbor.ErrUnsupportedMajorType)
	}
	fields := make([]data.PlutusData, 0, len(items))
	for _, item := range items {
		pd, err := reencodeAndDecode(item)
		if err != nil {
			return nil, err
		}
		fields = append(fields, pd)
	}
	return fields, nil
}
