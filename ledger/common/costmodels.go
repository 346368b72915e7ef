package common

import (
	"bytes"
	"sort"

	"github.com/go-cardano/ctxbuilder/cbor"
)

// EncodeLangViews builds the "language views" map fed into the script-data
// hash (Alonzo CDDL): one entry per Plutus language version present among
// the transaction's scripts, keyed by the int-wrapped language tag and
// valued by its cost-model parameter list.
//
// PlutusV1 carries a historical quirk the other two languages don't: its
// map key is the CBOR byte-string encoding of the single byte 0x00 rather
// than the plain integer 0, and its cost-model value is an indefinite-length
// array rather than a definite one. Both V2 and V3 use the plain encoding.
func EncodeLangViews(usedVersions map[uint]struct{}, numericCostModels map[uint][]int64) ([]byte, error) {
	type entry struct{ key, value []byte }
	entries := make([]entry, 0, len(usedVersions))

	for version := range usedVersions {
		costs := numericCostModels[version]
		var keyBytes, valueBytes []byte
		var err error
		if version == 0 {
			keyBytes, err = cbor.Encode([]byte{0x00})
			if err != nil {
				return nil, err
			}
			valueBytes, err = encodeIndefiniteIntArray(costs)
			if err != nil {
				return nil, err
			}
		} else {
			keyBytes, err = cbor.Encode(version)
			if err != nil {
				return nil, err
			}
			valueBytes, err = cbor.Encode(costs)
			if err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry{key: keyBytes, value: valueBytes})
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

// encodeIndefiniteIntArray encodes ints as an indefinite-length CBOR array
// (major type 4, additional info 31), used only for the PlutusV1 language
// view's cost-model value.
func encodeIndefiniteIntArray(values []int64) ([]byte, error) {
	out := []byte{0x9f}
	for _, v := range values {
		b, err := cbor.Encode(v)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	out = append(out, 0xff)
	return out, nil
}
