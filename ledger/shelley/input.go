// Package shelley provides the ledger types that have been stable since
// the Shelley era and never changed shape afterward: the transaction
// input reference.
package shelley

import (
	"github.com/go-cardano/ctxbuilder/cbor"
	"github.com/go-cardano/ctxbuilder/ledger/common"
)

// ShelleyTransactionInput is a [transaction_id, index] pair identifying a
// previous output being spent. Every later era reuses this shape verbatim,
// so it isn't duplicated per-era the way outputs are.
type ShelleyTransactionInput struct {
	TxId        common.Blake2b256
	OutputIndex uint32
}

// NewShelleyTransactionInput builds an input reference.
func NewShelleyTransactionInput(txId common.Blake2b256, index uint32) ShelleyTransactionInput {
	return ShelleyTransactionInput{TxId: txId, OutputIndex: index}
}

func (i ShelleyTransactionInput) Id() common.Blake2b256 { return i.TxId }
func (i ShelleyTransactionInput) Index() uint32         { return i.OutputIndex }

func (i ShelleyTransactionInput) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{i.TxId, i.OutputIndex})
}

func (i *ShelleyTransactionInput) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		TxId               common.Blake2b256
		OutputIndex        uint32
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	i.TxId, i.OutputIndex = parts.TxId, parts.OutputIndex
	return nil
}
