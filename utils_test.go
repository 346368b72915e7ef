package apollo

import (
	"testing"

	"github.com/go-cardano/ctxbuilder/ledger/babbage"
	"github.com/go-cardano/ctxbuilder/ledger/common"
	"github.com/go-cardano/ctxbuilder/ledger/mary"
	"github.com/go-cardano/ctxbuilder/ledger/shelley"
)

func makeTestUtxo(t *testing.T, txHash common.Blake2b256, index uint32, lovelace uint64) common.Utxo {
	t.Helper()
	addr := testAddress(t)
	input := shelley.ShelleyTransactionInput{
		TxId:        txHash,
		OutputIndex: index,
	}
	output := babbage.BabbageTransactionOutput{
		OutputAddress: addr,
		OutputAmount: mary.MaryTransactionOutputValue{
			Amount: lovelace,
		},
	}
	return common.Utxo{
		Id:     input,
		Output: &output,
	}
}

func TestSortUtxos(t *testing.T) {
	var hash1, hash2, hash3 common.Blake2b256
	hash1[0] = 1
	hash2[0] = 2
	hash3[0] = 3

	utxos := []common.Utxo{
		makeTestUtxo(t, hash1, 0, 1_000_000),
		makeTestUtxo(t, hash2, 0, 5_000_000),
		makeTestUtxo(t, hash3, 0, 3_000_000),
	}

	sorted := SortUtxos(utxos)
	if len(sorted) != 3 {
		t.Fatalf("expected 3 utxos, got %d", len(sorted))
	}

	// descending by amount among the ADA-only group
	amt0 := sorted[0].Output.Amount()
	amt1 := sorted[1].Output.Amount()
	if amt0 < amt1 {
		t.Error("expected descending order")
	}
}

func TestSortUtxosWithAssets(t *testing.T) {
	var hash1, hash2 common.Blake2b256
	hash1[0] = 1
	hash2[0] = 2

	addr := testAddress(t)

	// ADA only
	utxo1 := makeTestUtxo(t, hash1, 0, 2_000_000)

	// carries a native asset
	ma := testMultiAsset(1, "token", 100)
	output2 := babbage.BabbageTransactionOutput{
		OutputAddress: addr,
		OutputAmount: mary.MaryTransactionOutputValue{
			Amount: 3_000_000,
			Assets: ma,
		},
	}
	utxo2 := common.Utxo{
		Id: shelley.ShelleyTransactionInput{
			TxId:        hash2,
			OutputIndex: 0,
		},
		Output: &output2,
	}

	sorted := SortUtxos([]common.Utxo{utxo2, utxo1})
	// ADA-only entries sort ahead of anything carrying assets
	if sorted[0].Output.Assets() != nil {
		t.Error("expected ADA-only UTxO first")
	}
	if sorted[1].Output.Assets() == nil {
		t.Error("expected carries a native asset second")
	}
}

func TestSortInputs(t *testing.T) {
	var hash1, hash2 common.Blake2b256
	hash1[0] = 0xff
	hash2[0] = 0x01

	utxos := []common.Utxo{
		makeTestUtxo(t, hash1, 0, 1_000_000),
		makeTestUtxo(t, hash2, 0, 2_000_000),
	}

	sorted := SortInputs(utxos)
	if len(sorted) != 2 {
		t.Fatalf("expected 2, got %d", len(sorted))
	}
	// lower transaction ID hex sorts first
	firstAmt := sorted[0].Output.Amount()
	if firstAmt != 2_000_000 {
		t.Error("expected hash2 utxo first (lower tx hash)")
	}
}

func TestSortInputsSameHash(t *testing.T) {
	var hash common.Blake2b256
	hash[0] = 0x01

	utxos := []common.Utxo{
		makeTestUtxo(t, hash, 5, 1_000_000),
		makeTestUtxo(t, hash, 1, 2_000_000),
	}

	sorted := SortInputs(utxos)
	// lower output index wins when transaction IDs match
	if sorted[0].Id.Index() != 1 {
		t.Errorf("expected index 1 first, got %d", sorted[0].Id.Index())
	}
}
