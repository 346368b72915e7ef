// Package babbage provides the transaction-output shape introduced in the
// Babbage era (a sparse map keyed by field index, carrying inline datums
// and reference scripts), reused unchanged by Conway.
package babbage

import (
	"fmt"

	"github.com/go-cardano/ctxbuilder/cbor"
	"github.com/go-cardano/ctxbuilder/ledger/common"
	"github.com/go-cardano/ctxbuilder/ledger/mary"
)

// BabbageTransactionOutputDatumOption is the [0, datum_hash] or
// [1, tag(24, datum_cbor)] pair attached to an output, selecting between a
// hash-only commitment and a full inline datum.
type BabbageTransactionOutputDatumOption struct {
	DatumType uint
	Hash      *common.Blake2b256
	Inline    *common.Datum
}

func (d BabbageTransactionOutputDatumOption) MarshalCBOR() ([]byte, error) {
	switch d.DatumType {
	case 0:
		return cbor.Encode([]any{uint(0), d.Hash})
	case 1:
		datumBytes, err := cbor.Encode(d.Inline)
		if err != nil {
			return nil, err
		}
		tagged := cbor.Tag{Number: 24, Content: datumBytes}
		return cbor.Encode([]any{uint(1), tagged})
	default:
		return nil, fmt.Errorf("datum option: unknown type %d", d.DatumType)
	}
}

func (d *BabbageTransactionOutputDatumOption) UnmarshalCBOR(raw []byte) error {
	var items []cbor.RawMessage
	if err := cbor.Decode(raw, &items); err != nil {
		return fmt.Errorf("datum option: %w", err)
	}
	if len(items) != 2 {
		return fmt.Errorf("datum option: expected 2 elements, got %d", len(items))
	}
	var typ uint
	if err := cbor.Decode(items[0], &typ); err != nil {
		return fmt.Errorf("datum option: type: %w", err)
	}
	d.DatumType = typ
	switch typ {
	case 0:
		var hash common.Blake2b256
		if err := cbor.Decode(items[1], &hash); err != nil {
			return fmt.Errorf("datum option: hash: %w", err)
		}
		d.Hash = &hash
	case 1:
		var tag cbor.Tag
		if err := cbor.Decode(items[1], &tag); err != nil {
			return fmt.Errorf("datum option: inline tag: %w", err)
		}
		inner, ok := tag.Content.([]byte)
		if !ok {
			return fmt.Errorf("datum option: inline content is not bytes")
		}
		var datum common.Datum
		if err := cbor.Decode(inner, &datum); err != nil {
			return fmt.Errorf("datum option: inline datum: %w", err)
		}
		d.Inline = &datum
	default:
		return fmt.Errorf("datum option: unknown type %d", typ)
	}
	return nil
}

// BabbageTransactionOutput is a transaction output, encoded as a sparse
// map keyed 0 (address) / 1 (value) / 2 (datum option) / 3 (script ref,
// itself tag(24, bytes .cbor script_ref)).
type BabbageTransactionOutput struct {
	cbor.DecodeStoreCbor
	OutputAddress  common.Address
	OutputAmount   mary.MaryTransactionOutputValue
	DatumOption    *BabbageTransactionOutputDatumOption
	TxOutScriptRef *common.ScriptRef
}

// Address implements common.TransactionOutput.
func (o BabbageTransactionOutput) Address() common.Address { return o.OutputAddress }

// Amount implements common.TransactionOutput.
func (o BabbageTransactionOutput) Amount() uint64 { return o.OutputAmount.Amount }

// Assets implements common.TransactionOutput.
func (o BabbageTransactionOutput) Assets() *common.MultiAsset[common.MultiAssetTypeOutput] {
	return o.OutputAmount.Assets
}

func (o BabbageTransactionOutput) MarshalCBOR() ([]byte, error) {
	if o.HasCbor() {
		return o.Cbor(), nil
	}
	m := map[uint]any{
		0: o.OutputAddress,
		1: o.OutputAmount,
	}
	if o.DatumOption != nil {
		m[2] = o.DatumOption
	}
	if o.TxOutScriptRef != nil {
		m[3] = o.TxOutScriptRef
	}
	return cbor.Encode(m)
}

func (o *BabbageTransactionOutput) UnmarshalCBOR(raw []byte) error {
	var m map[uint]cbor.RawMessage
	if err := cbor.Decode(raw, &m); err != nil {
		return fmt.Errorf("babbage output: %w", err)
	}
	addrRaw, ok := m[0]
	if !ok {
		return fmt.Errorf("babbage output: missing address field")
	}
	if err := cbor.Decode(addrRaw, &o.OutputAddress); err != nil {
		return fmt.Errorf("babbage output: address: %w", err)
	}
	amountRaw, ok := m[1]
	if !ok {
		return fmt.Errorf("babbage output: missing amount field")
	}
	if err := cbor.Decode(amountRaw, &o.OutputAmount); err != nil {
		return fmt.Errorf("babbage output: amount: %w", err)
	}
	if datumRaw, ok := m[2]; ok {
		var opt BabbageTransactionOutputDatumOption
		if err := cbor.Decode(datumRaw, &opt); err != nil {
			return fmt.Errorf("babbage output: datum option: %w", err)
		}
		o.DatumOption = &opt
	}
	if refRaw, ok := m[3]; ok {
		var ref common.ScriptRef
		if err := cbor.Decode(refRaw, &ref); err != nil {
			return fmt.Errorf("babbage output: script ref: %w", err)
		}
		o.TxOutScriptRef = &ref
	}
	o.SetCbor(raw)
	return nil
}
