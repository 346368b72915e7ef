package apollo

import (
	"fmt"

	"github.com/go-cardano/ctxbuilder/ledger/common"
)

// bech32Addr parses a bech32 address string, wrapping the error with
// context for whichever convenience method called it.
func bech32Addr(bech32 string) (common.Address, error) {
	addr, err := common.NewAddress(bech32)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid bech32 address: %w", err)
	}
	return addr, nil
}

// AddInputAddressFromBech32 accepts the input address as a bech32 string
// instead of a decoded common.Address.
func (a *Apollo) AddInputAddressFromBech32(bech32 string) (*Apollo, error) {
	addr, err := bech32Addr(bech32)
	if err != nil {
		return a, err
	}
	a.inputAddresses = append(a.inputAddresses, addr)
	return a, nil
}

// PayToAddressBech32 is PayToAddress taking the destination as bech32 text.
func (a *Apollo) PayToAddressBech32(bech32 string, lovelace int64, units ...AssetUnit) (*Apollo, error) {
	addr, err := bech32Addr(bech32)
	if err != nil {
		return a, err
	}
	a.PayToAddress(addr, lovelace, units...)
	return a, nil
}

// SetChangeAddressBech32 is SetChangeAddress taking bech32 text instead of
// a decoded common.Address.
func (a *Apollo) SetChangeAddressBech32(bech32 string) (*Apollo, error) {
	addr, err := bech32Addr(bech32)
	if err != nil {
		return a, err
	}
	a.SetChangeAddress(addr)
	return a, nil
}

// PayToContractAsHash creates a payment to a script address carrying only a
// pre-computed datum hash. Unlike PayToContractWithDatumHash, the datum
// itself is never added to the witness set, so a counterparty must supply
// it (or it must already be visible on chain) for a spending script to see it.
func (a *Apollo) PayToContractAsHash(addr common.Address, datumHash []byte, lovelace int64, units ...AssetUnit) *Apollo {
	a.payments = append(a.payments, &OutputRequest{
		Address:   addr,
		Coin:      lovelace,
		Assets:    units,
		DatumHash: datumHash,
	})
	return a
}
