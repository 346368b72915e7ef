package common

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/go-cardano/ctxbuilder/cbor"
)

// TransactionMetadatum is implemented by every value that can appear in
// auxiliary transaction metadata: integers, text, bytes, lists, and maps,
// recursively.
type TransactionMetadatum interface {
	isTransactionMetadatum()
}

// MetaInt is an arbitrary-precision integer metadatum.
type MetaInt struct{ Value *big.Int }

func (MetaInt) isTransactionMetadatum() {}
func (m MetaInt) MarshalCBOR() ([]byte, error) { return cbor.Encode(m.Value) }
func (m *MetaInt) UnmarshalCBOR(raw []byte) error {
	var v big.Int
	if err := cbor.Decode(raw, &v); err != nil {
		return err
	}
	m.Value = &v
	return nil
}

// MetaText is a UTF-8 text metadatum (<=64 bytes per chunk on the wire;
// the ledger concatenates oversized text across multiple chunks, which
// fxamacker's definite/indefinite text-string decode already handles).
type MetaText struct{ Value string }

func (MetaText) isTransactionMetadatum() {}
func (m MetaText) MarshalCBOR() ([]byte, error) { return cbor.Encode(m.Value) }
func (m *MetaText) UnmarshalCBOR(raw []byte) error {
	return cbor.Decode(raw, &m.Value)
}

// MetaBytes is a byte-string metadatum.
type MetaBytes struct{ Value []byte }

func (MetaBytes) isTransactionMetadatum() {}
func (m MetaBytes) MarshalCBOR() ([]byte, error) { return cbor.Encode(m.Value) }
func (m *MetaBytes) UnmarshalCBOR(raw []byte) error {
	return cbor.Decode(raw, &m.Value)
}

// MetaList is an ordered list of metadatums.
type MetaList struct{ Items []TransactionMetadatum }

func (MetaList) isTransactionMetadatum() {}
func (m MetaList) MarshalCBOR() ([]byte, error) {
	items := make([]cbor.RawMessage, 0, len(m.Items))
	for _, item := range m.Items {
		b, err := cbor.Encode(item)
		if err != nil {
			return nil, err
		}
		items = append(items, cbor.RawMessage(b))
	}
	return cbor.Encode(items)
}
func (m *MetaList) UnmarshalCBOR(raw []byte) error {
	var raws []cbor.RawMessage
	if err := cbor.Decode(raw, &raws); err != nil {
		return err
	}
	items := make([]TransactionMetadatum, 0, len(raws))
	for _, r := range raws {
		v, err := decodeMetadatum(r)
		if err != nil {
			return err
		}
		items = append(items, v)
	}
	m.Items = items
	return nil
}

// MetaPair is a single key/value entry in a MetaMap.
type MetaPair struct {
	Key   TransactionMetadatum
	Value TransactionMetadatum
}

// MetaMap is a metadatum map. It keeps its entries as an ordered slice of
// pairs (rather than a Go map) since metadatum keys aren't necessarily
// comparable Go values (a key can itself be a list or map).
type MetaMap struct{ Pairs []MetaPair }

func (MetaMap) isTransactionMetadatum() {}
func (m MetaMap) MarshalCBOR() ([]byte, error) {
	type entry struct{ key, value []byte }
	entries := make([]entry, 0, len(m.Pairs))
	for _, p := range m.Pairs {
		k, err := cbor.Encode(p.Key)
		if err != nil {
			return nil, err
		}
		v, err := cbor.Encode(p.Value)
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

func (m *MetaMap) UnmarshalCBOR(raw []byte) error {
	v, err := cbor.DecodeAny(raw)
	if err != nil {
		return fmt.Errorf("metadata map: %w", err)
	}
	generic, ok := v.(map[any]any)
	if !ok {
		return fmt.Errorf("metadata map: expected a CBOR map, got %T", v)
	}
	pairs := make([]MetaPair, 0, len(generic))
	for k, val := range generic {
		kb, err := cbor.Encode(k)
		if err != nil {
			return err
		}
		kd, err := decodeMetadatum(kb)
		if err != nil {
			return err
		}
		vb, err := cbor.Encode(val)
		if err != nil {
			return err
		}
		vd, err := decodeMetadatum(vb)
		if err != nil {
			return err
		}
		pairs = append(pairs, MetaPair{Key: kd, Value: vd})
	}
	m.Pairs = pairs
	return nil
}

func decodeMetadatum(raw []byte) (TransactionMetadatum, error) {
	v, err := cbor.DecodeAny(raw)
	if err != nil {
		return nil, fmt.Errorf("metadatum: %w", err)
	}
	switch val := v.(type) {
	case *big.Int:
		return &MetaInt{Value: val}, nil
	case int64:
		return &MetaInt{Value: big.NewInt(val)}, nil
	case uint64:
		return &MetaInt{Value: new(big.Int).SetUint64(val)}, nil
	case string:
		return &MetaText{Value: val}, nil
	case []byte:
		return &MetaBytes{Value: val}, nil
	case []any:
		var list MetaList
		if err := list.UnmarshalCBOR(raw); err != nil {
			return nil, err
		}
		return &list, nil
	case map[any]any:
		var m MetaMap
		if err := m.UnmarshalCBOR(raw); err != nil {
			return nil, err
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("metadatum: unsupported shape %T", v)
	}
}
