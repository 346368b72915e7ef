package apollo

import (
	"encoding/hex"
	"sort"

	"github.com/go-cardano/ctxbuilder/ledger/common"
)

// SortUtxos orders utxos with ADA-only entries first (largest amount first),
// followed by anything carrying native assets.
func SortUtxos(utxos []common.Utxo) []common.Utxo {
	res := make([]common.Utxo, len(utxos))
	copy(res, utxos)
	sort.Slice(res, func(i, j int) bool {
		iHasAssets := res[i].Output.Assets() != nil
		jHasAssets := res[j].Output.Assets() != nil
		if iHasAssets == jHasAssets {
			return res[i].Output.Amount() > res[j].Output.Amount()
		}
		return jHasAssets
	})
	return res
}

// SortInputs orders inputs by transaction ID then output index, the ordering
// the ledger requires for canonical input sets.
func SortInputs(inputs []common.Utxo) []common.Utxo {
	sorted := make([]common.Utxo, len(inputs))
	copy(sorted, inputs)
	sort.Slice(sorted, func(i, j int) bool {
		iId := hex.EncodeToString(sorted[i].Id.Id().Bytes())
		jId := hex.EncodeToString(sorted[j].Id.Id().Bytes())
		if iId != jId {
			return iId < jId
		}
		return sorted[i].Id.Index() < sorted[j].Id.Index()
	})
	return sorted
}
