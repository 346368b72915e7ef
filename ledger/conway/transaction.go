package conway

import (
	"fmt"

	"github.com/go-cardano/ctxbuilder/cbor"
	"github.com/go-cardano/ctxbuilder/ledger/common"
)

// ConwayTransaction is the full transaction envelope: a 4-element array of
// [body, witness_set, is_valid, auxiliary_data], where auxiliary_data is
// null when the transaction carries no metadata.
type ConwayTransaction struct {
	cbor.DecodeStoreCbor

	Body       ConwayTransactionBody
	WitnessSet ConwayTransactionWitnessSet
	TxIsValid  bool
	TxMetadata *common.MetaMap
}

// Id returns the transaction id, delegating to the body (the witness set
// and validity flag don't contribute to it).
func (t *ConwayTransaction) Id() common.Blake2b256 {
	return t.Body.Id()
}

func (t ConwayTransaction) MarshalCBOR() ([]byte, error) {
	if t.HasCbor() {
		return t.Cbor(), nil
	}
	var metadata any
	if t.TxMetadata != nil {
		metadata = t.TxMetadata
	}
	return cbor.Encode([]any{t.Body, t.WitnessSet, t.TxIsValid, metadata})
}

func (t *ConwayTransaction) UnmarshalCBOR(raw []byte) error {
	var items []cbor.RawMessage
	if err := cbor.Decode(raw, &items); err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	if len(items) != 4 {
		return fmt.Errorf("transaction: expected 4 elements, got %d", len(items))
	}
	if err := cbor.Decode(items[0], &t.Body); err != nil {
		return fmt.Errorf("transaction: body: %w", err)
	}
	if err := cbor.Decode(items[1], &t.WitnessSet); err != nil {
		return fmt.Errorf("transaction: witness set: %w", err)
	}
	if err := cbor.Decode(items[2], &t.TxIsValid); err != nil {
		return fmt.Errorf("transaction: is valid: %w", err)
	}
	var metaAny any
	if err := cbor.Decode(items[3], &metaAny); err != nil {
		return fmt.Errorf("transaction: auxiliary data: %w", err)
	}
	if metaAny != nil {
		var meta common.MetaMap
		if err := cbor.Decode(items[3], &meta); err != nil {
			return fmt.Errorf("transaction: auxiliary data: %w", err)
		}
		t.TxMetadata = &meta
	}
	t.SetCbor(raw)
	return nil
}
