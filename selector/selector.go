// Package selector implements coin selection: picking UTxOs from an
// available pool to cover a target value, given value already committed by
// the caller (pre-selected inputs) and value entering or leaving the
// transaction outside of inputs/outputs (withdrawals, deposits, mint).
package selector

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"

	"github.com/go-cardano/ctxbuilder/cbor"
	"github.com/go-cardano/ctxbuilder/ledger/common"
)

// Value is a coin-selection-local view of an amount: lovelace plus native
// assets. It mirrors the root package's Value type but lives here so this
// package has no dependency on it.
type Value struct {
	Coin   uint64
	Assets *common.MultiAsset[common.MultiAssetTypeOutput]
}

// CoinSelector picks UTxOs from available to cover target, given preSelected
// UTxOs already committed and implicit value (positive: entering the
// transaction from outside inputs/outputs; negative: leaving it) that offsets
// the target. It returns the newly selected UTxOs (preSelected is not
// repeated in the result) and the resulting change value.
type CoinSelector interface {
	Select(available, preSelected []common.Utxo, target, implicit Value) (selected []common.Utxo, change Value, err error)
}

// InsufficientFundsError reports that no combination of available UTxOs
// could cover a deficit, naming the asset (or "lovelace") that ran short.
type InsufficientFundsError struct {
	Asset string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %s", e.Asset)
}

// LargeFirst selects UTxOs by picking, for each asset with an outstanding
// deficit (coin settled last), the largest holders of that asset first.
// Selection and the underlying sorts are deterministic: ties break on
// ascending tx id then ascending output index, so identical inputs always
// produce identical output.
type LargeFirst struct{}

func (LargeFirst) Select(available, preSelected []common.Utxo, target, implicit Value) ([]common.Utxo, Value, error) {
	committed := addValue(sumUtxos(preSelected), implicit)
	deficit := subValueSaturating(target, committed)

	used := make(map[string]bool, len(preSelected))
	for _, u := range preSelected {
		used[utxoKey(u)] = true
	}
	pool := excludeUsed(available, used)

	var selected []common.Utxo

	for _, policyId := range assetPolicies(deficit.Assets) {
		for _, assetName := range assetNames(deficit.Assets, policyId) {
			want := assetQty(deficit.Assets, policyId, assetName)
			if want.Sign() <= 0 {
				continue
			}
			var err error
			pool, selected, err = fillAssetDeficit(pool, selected, policyId, assetName, want)
			if err != nil {
				return nil, Value{}, err
			}
		}
	}

	// Coin is settled last: assets already brought in above may have
	// supplied some or all of the required coin incidentally.
	haveNow := addValue(committed, sumUtxos(selected))
	if haveNow.Coin < target.Coin {
		need := target.Coin - haveNow.Coin
		sortByCoinDesc(pool)
		for _, u := range pool {
			if need == 0 {
				break
			}
			selected = append(selected, u)
			amt := u.Output.Amount()
			if amt >= need {
				need = 0
			} else {
				need -= amt
			}
			pool = removeUtxo(pool, u)
		}
		if need > 0 {
			return nil, Value{}, &InsufficientFundsError{Asset: "lovelace"}
		}
	}

	final := addValue(committed, sumUtxos(selected))
	change, err := subValue(final, target)
	if err != nil {
		return nil, Value{}, err
	}
	return selected, change, nil
}

// fillAssetDeficit adds UTxOs holding the given asset, largest-first, until
// want is met or the pool is exhausted.
func fillAssetDeficit(pool, selected []common.Utxo, policyId common.Blake2b224, assetName []byte, want *big.Int) ([]common.Utxo, []common.Utxo, error) {
	remaining := new(big.Int).Set(want)
	candidates := make([]common.Utxo, len(pool))
	copy(candidates, pool)
	sortByAssetDesc(candidates, policyId, assetName)

	for _, u := range candidates {
		if remaining.Sign() <= 0 {
			break
		}
		assets := u.Output.Assets()
		if assets == nil {
			continue
		}
		qty := assets.Asset(policyId, assetName)
		if qty == nil || qty.Sign() <= 0 {
			continue
		}
		selected = append(selected, u)
		pool = removeUtxo(pool, u)
		remaining.Sub(remaining, qty)
	}
	if remaining.Sign() > 0 {
		name := string(assetName)
		if !isPrintable(name) {
			name = hex.EncodeToString(assetName)
		}
		return nil, nil, &InsufficientFundsError{Asset: policyId.String() + "." + name}
	}
	return pool, selected, nil
}

func isPrintable(s string) bool {
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return len(s) > 0
}

func utxoKey(u common.Utxo) string {
	return hex.EncodeToString(u.Id.Id().Bytes()) + fmt.Sprintf("#%d", u.Id.Index())
}

func excludeUsed(pool []common.Utxo, used map[string]bool) []common.Utxo {
	out := make([]common.Utxo, 0, len(pool))
	for _, u := range pool {
		if !used[utxoKey(u)] {
			out = append(out, u)
		}
	}
	return out
}

func removeUtxo(pool []common.Utxo, target common.Utxo) []common.Utxo {
	key := utxoKey(target)
	out := make([]common.Utxo, 0, len(pool))
	for _, u := range pool {
		if utxoKey(u) != key {
			out = append(out, u)
		}
	}
	return out
}

func sortByCoinDesc(pool []common.Utxo) {
	sort.SliceStable(pool, func(i, j int) bool {
		ai, aj := pool[i].Output.Amount(), pool[j].Output.Amount()
		if ai != aj {
			return ai > aj
		}
		return utxoLess(pool[i], pool[j])
	})
}

func sortByAssetDesc(pool []common.Utxo, policyId common.Blake2b224, assetName []byte) {
	sort.SliceStable(pool, func(i, j int) bool {
		qi := qtyOf(pool[i], policyId, assetName)
		qj := qtyOf(pool[j], policyId, assetName)
		c := qi.Cmp(qj)
		if c != 0 {
			return c > 0
		}
		return utxoLess(pool[i], pool[j])
	})
}

func qtyOf(u common.Utxo, policyId common.Blake2b224, assetName []byte) *big.Int {
	assets := u.Output.Assets()
	if assets == nil {
		return big.NewInt(0)
	}
	qty := assets.Asset(policyId, assetName)
	if qty == nil {
		return big.NewInt(0)
	}
	return qty
}

func utxoLess(a, b common.Utxo) bool {
	ai, bi := hex.EncodeToString(a.Id.Id().Bytes()), hex.EncodeToString(b.Id.Id().Bytes())
	if ai != bi {
		return ai < bi
	}
	return a.Id.Index() < b.Id.Index()
}

func sumUtxos(utxos []common.Utxo) Value {
	var v Value
	for _, u := range utxos {
		v.Coin += u.Output.Amount()
		if assets := u.Output.Assets(); assets != nil {
			v.Assets = mergeAssets(v.Assets, assets, 1)
		}
	}
	return v
}

func addValue(a, b Value) Value {
	return Value{
		Coin:   a.Coin + b.Coin,
		Assets: mergeAssets(a.Assets, b.Assets, 1),
	}
}

// subValue returns a-b, failing if any component of b exceeds a.
func subValue(a, b Value) (Value, error) {
	if b.Coin > a.Coin {
		return Value{}, fmt.Errorf("coin underflow: have %d, need %d", a.Coin, b.Coin)
	}
	result := Value{Coin: a.Coin - b.Coin}
	result.Assets = mergeAssets(a.Assets, b.Assets, -1)
	for _, policyId := range assetPolicies(result.Assets) {
		for _, name := range assetNames(result.Assets, policyId) {
			if assetQty(result.Assets, policyId, name).Sign() < 0 {
				return Value{}, fmt.Errorf("asset underflow for policy %s", policyId.String())
			}
		}
	}
	return result, nil
}

// subValueSaturating returns max(a-b, 0) componentwise, never erroring.
func subValueSaturating(a, b Value) Value {
	result := Value{}
	if a.Coin > b.Coin {
		result.Coin = a.Coin - b.Coin
	}
	diff := mergeAssets(a.Assets, b.Assets, -1)
	for _, policyId := range assetPolicies(diff) {
		for _, name := range assetNames(diff, policyId) {
			if assetQty(diff, policyId, name).Sign() < 0 {
				setAsset(diff, policyId, name, big.NewInt(0))
			}
		}
	}
	result.Assets = diff
	return result
}

func assetPolicies(m *common.MultiAsset[common.MultiAssetTypeOutput]) []common.Blake2b224 {
	if m == nil {
		return nil
	}
	return m.Policies()
}

func assetNames(m *common.MultiAsset[common.MultiAssetTypeOutput], policyId common.Blake2b224) [][]byte {
	if m == nil {
		return nil
	}
	return m.Assets(policyId)
}

func assetQty(m *common.MultiAsset[common.MultiAssetTypeOutput], policyId common.Blake2b224, name []byte) *big.Int {
	if m == nil {
		return big.NewInt(0)
	}
	qty := m.Asset(policyId, name)
	if qty == nil {
		return big.NewInt(0)
	}
	return qty
}

func setAsset(m *common.MultiAsset[common.MultiAssetTypeOutput], policyId common.Blake2b224, name []byte, qty *big.Int) {
	if m == nil {
		return
	}
	// A MultiAsset only exposes Add, so overwrite by first clearing the
	// target via a negative delta then adding the desired absolute value.
	cur := assetQty(m, policyId, name)
	delta := new(big.Int).Sub(qty, cur)
	m.Add(singleAsset(policyId, name, delta))
}

func singleAsset(policyId common.Blake2b224, name []byte, qty *big.Int) *common.MultiAsset[common.MultiAssetTypeOutput] {
	data := map[common.Blake2b224]map[cbor.ByteString]*big.Int{
		policyId: {cbor.NewByteString(name): qty},
	}
	ma := common.NewMultiAsset[common.MultiAssetTypeOutput](data)
	return &ma
}

// mergeAssets combines a and b into a new MultiAsset, scaling b by sign
// (+1 to add, -1 to subtract) before merging. Returns nil if both are empty.
func mergeAssets(a, b *common.MultiAsset[common.MultiAssetTypeOutput], sign int64) *common.MultiAsset[common.MultiAssetTypeOutput] {
	if a == nil && b == nil {
		return nil
	}
	data := map[common.Blake2b224]map[cbor.ByteString]*big.Int{}
	for _, policyId := range assetPolicies(a) {
		for _, name := range assetNames(a, policyId) {
			qty := assetQty(a, policyId, name)
			addToMap(data, policyId, name, new(big.Int).Set(qty))
		}
	}
	for _, policyId := range assetPolicies(b) {
		for _, name := range assetNames(b, policyId) {
			qty := new(big.Int).Mul(assetQty(b, policyId, name), big.NewInt(sign))
			addToMap(data, policyId, name, qty)
		}
	}
	if len(data) == 0 {
		return nil
	}
	ma := common.NewMultiAsset[common.MultiAssetTypeOutput](data)
	return &ma
}

func addToMap(data map[common.Blake2b224]map[cbor.ByteString]*big.Int, policyId common.Blake2b224, name []byte, qty *big.Int) {
	names, ok := data[policyId]
	if !ok {
		names = map[cbor.ByteString]*big.Int{}
		data[policyId] = names
	}
	key := cbor.NewByteString(name)
	if cur, ok := names[key]; ok {
		names[key] = new(big.Int).Add(cur, qty)
	} else {
		names[key] = qty
	}
}
