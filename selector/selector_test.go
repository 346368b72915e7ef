package selector

import (
	"math/big"
	"testing"

	"github.com/go-cardano/ctxbuilder/cbor"
	"github.com/go-cardano/ctxbuilder/ledger/babbage"
	"github.com/go-cardano/ctxbuilder/ledger/common"
	"github.com/go-cardano/ctxbuilder/ledger/mary"
	"github.com/go-cardano/ctxbuilder/ledger/shelley"
)

func testAddress(t *testing.T) common.Address {
	t.Helper()
	var raw [29]byte
	raw[0] = 0x61 // enterprise address, mainnet
	addr, err := common.NewAddressFromBytes(raw[:])
	if err != nil {
		t.Fatalf("building test address: %v", err)
	}
	return addr
}

func utxoWithCoin(t *testing.T, idByte byte, index uint32, lovelace uint64) common.Utxo {
	t.Helper()
	var hash common.Blake2b256
	hash[0] = idByte
	return common.Utxo{
		Id: shelley.ShelleyTransactionInput{TxId: hash, OutputIndex: index},
		Output: &babbage.BabbageTransactionOutput{
			OutputAddress: testAddress(t),
			OutputAmount:  mary.MaryTransactionOutputValue{Amount: lovelace},
		},
	}
}

func utxoWithAsset(t *testing.T, idByte byte, lovelace uint64, policyByte byte, assetName string, qty int64) common.Utxo {
	t.Helper()
	var hash common.Blake2b256
	hash[0] = idByte
	var policy common.Blake2b224
	policy[0] = policyByte
	data := map[common.Blake2b224]map[cbor.ByteString]*big.Int{
		policy: {cbor.NewByteString([]byte(assetName)): big.NewInt(qty)},
	}
	assets := common.NewMultiAsset[common.MultiAssetTypeOutput](data)
	return common.Utxo{
		Id: shelley.ShelleyTransactionInput{TxId: hash, OutputIndex: 0},
		Output: &babbage.BabbageTransactionOutput{
			OutputAddress: testAddress(t),
			OutputAmount:  mary.MaryTransactionOutputValue{Amount: lovelace, Assets: &assets},
		},
	}
}

func TestLargeFirstSelectsDescendingCoin(t *testing.T) {
	available := []common.Utxo{
		utxoWithCoin(t, 1, 0, 18_000_000),
		utxoWithCoin(t, 2, 0, 235_000_000),
		utxoWithCoin(t, 3, 0, 40_000_000),
	}

	sel := LargeFirst{}
	selected, change, err := sel.Select(available, nil, Value{Coin: 15_000_000}, Value{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 1 {
		t.Fatalf("expected 1 utxo selected, got %d", len(selected))
	}
	if selected[0].Output.Amount() != 235_000_000 {
		t.Errorf("expected the largest utxo (235 ADA) to be selected first, got %d", selected[0].Output.Amount())
	}
	if change.Coin != 235_000_000-15_000_000 {
		t.Errorf("unexpected change: %d", change.Coin)
	}
}

func TestLargeFirstBringsInAssetHolder(t *testing.T) {
	plain := utxoWithCoin(t, 1, 0, 5_000_000)
	withToken := utxoWithAsset(t, 2, 3_000_000, 0xAA, "token", 100)
	available := []common.Utxo{plain, withToken}

	var policy common.Blake2b224
	policy[0] = 0xAA
	data := map[common.Blake2b224]map[cbor.ByteString]*big.Int{
		policy: {cbor.NewByteString([]byte("token")): big.NewInt(50)},
	}
	targetAssets := common.NewMultiAsset[common.MultiAssetTypeOutput](data)

	sel := LargeFirst{}
	selected, change, err := sel.Select(available, nil, Value{Coin: 1_000_000, Assets: &targetAssets}, Value{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, u := range selected {
		if u.Output.Amount() == 3_000_000 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the utxo carrying the target asset to be selected")
	}
	if change.Assets == nil || change.Assets.Asset(policy, []byte("token")).Cmp(big.NewInt(50)) != 0 {
		t.Error("expected 50 residual token units in change")
	}
}

func TestLargeFirstInsufficientFunds(t *testing.T) {
	available := []common.Utxo{utxoWithCoin(t, 1, 0, 1_000_000)}
	sel := LargeFirst{}
	_, _, err := sel.Select(available, nil, Value{Coin: 2_000_000}, Value{})
	if err == nil {
		t.Fatal("expected InsufficientFundsError")
	}
	if _, ok := err.(*InsufficientFundsError); !ok {
		t.Errorf("expected *InsufficientFundsError, got %T", err)
	}
}

func TestLargeFirstRespectsPreSelected(t *testing.T) {
	pre := utxoWithCoin(t, 1, 0, 10_000_000)
	available := []common.Utxo{pre, utxoWithCoin(t, 2, 0, 50_000_000)}

	sel := LargeFirst{}
	selected, change, err := sel.Select(available, []common.Utxo{pre}, Value{Coin: 9_000_000}, Value{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 0 {
		t.Fatalf("expected no additional selection, pre-selected already covers target, got %d", len(selected))
	}
	if change.Coin != 1_000_000 {
		t.Errorf("expected change of 1_000_000, got %d", change.Coin)
	}
}

func TestLargeFirstImplicitValueOffsetsTarget(t *testing.T) {
	available := []common.Utxo{
		utxoWithCoin(t, 1, 0, 2_000_000),
		utxoWithCoin(t, 2, 0, 100_000_000),
	}
	sel := LargeFirst{}
	// A 3 ADA withdrawal covers part of a 5 ADA target, leaving a 2 ADA
	// shortfall; large-first still reaches for the biggest coin in the pool
	// to close it, not the smallest one that would suffice.
	selected, change, err := sel.Select(available, nil, Value{Coin: 5_000_000}, Value{Coin: 3_000_000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 1 || selected[0].Output.Amount() != 100_000_000 {
		t.Fatalf("expected the 100 ADA utxo to be selected, got %d utxos", len(selected))
	}
	if change.Coin != 98_000_000 {
		t.Errorf("expected change of 98_000_000, got %d", change.Coin)
	}
}
