// Package mary provides the transaction-output value shape introduced in
// the Mary era (lovelace plus optional native assets), reused unchanged by
// every later era including Conway.
package mary

import (
	"fmt"

	"github.com/go-cardano/ctxbuilder/cbor"
	"github.com/go-cardano/ctxbuilder/ledger/common"
)

// MaryTransactionOutputValue is a transaction output's amount: coin-only
// when Assets is nil, or [coin, multiasset] when native assets are present.
type MaryTransactionOutputValue struct {
	Amount uint64
	Assets *common.MultiAsset[common.MultiAssetTypeOutput]
}

func (v MaryTransactionOutputValue) MarshalCBOR() ([]byte, error) {
	if v.Assets == nil {
		return cbor.Encode(v.Amount)
	}
	return cbor.Encode([]any{v.Amount, v.Assets})
}

func (v *MaryTransactionOutputValue) UnmarshalCBOR(raw []byte) error {
	var coinOnly uint64
	if err := cbor.Decode(raw, &coinOnly); err == nil {
		v.Amount = coinOnly
		v.Assets = nil
		return nil
	}

	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Amount             uint64
		Assets             common.MultiAsset[common.MultiAssetTypeOutput]
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return fmt.Errorf("mary value: %w", err)
	}
	v.Amount = parts.Amount
	v.Assets = &parts.Assets
	return nil
}
