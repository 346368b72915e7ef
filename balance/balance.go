// Package balance holds the pure arithmetic the balancing engine repeats on
// every iteration: minimum-fee, minimum-UTxO, and reference-script-fee
// formulas. None of it touches transaction state; callers feed in sizes and
// protocol-parameter values and get lovelace amounts back.
package balance

import "math"

// MinUtxoOverheadBytes is the constant the ledger adds to an output's
// serialized size before pricing it, accounting for the implicit overhead
// of a UTxO entry in the ledger's internal representation.
const MinUtxoOverheadBytes = 160

// ReferenceScriptSlabBytes is the size of one pricing tier for reference
// scripts; the per-byte cost increases by one step for every full slab of
// reference-script bytes a transaction carries.
const ReferenceScriptSlabBytes = 25_600

// MinUtxoLovelace returns the minimum lovelace an output of the given
// serialized size must carry, per `min_utxo = ada_per_utxo_byte * (n_bytes + 160)`.
func MinUtxoLovelace(outputSizeBytes int, adaPerUtxoByte int64) int64 {
	return adaPerUtxoByte * int64(outputSizeBytes+MinUtxoOverheadBytes)
}

// MinFee returns the base transaction fee: `min_fee_a * tx_size + min_fee_b`.
func MinFee(txSizeBytes int, minFeeCoefficient, minFeeConstant int64) int64 {
	return int64(txSizeBytes)*minFeeCoefficient + minFeeConstant
}

// ScriptExecutionFee prices Plutus execution units:
// `ceil(mem_price * total_mem) + ceil(step_price * total_steps)`.
func ScriptExecutionFee(totalMem, totalSteps int64, priceMem, priceStep float64) int64 {
	memFee := int64(math.Ceil(priceMem * float64(totalMem)))
	stepFee := int64(math.Ceil(priceStep * float64(totalSteps)))
	return memFee + stepFee
}

// ReferenceScriptTierMultiplier returns the pricing multiplier, expressed in
// basis points (100 = 1.0x), for the tier that starts at slabIndex full
// ReferenceScriptSlabBytes slabs already consumed (0-based). The schedule is
// 1.0, 1.2, 1.4, ... — each additional slab adds 0.2x to the multiplier.
func ReferenceScriptTierMultiplier(slabIndex int) int64 {
	return 100 + int64(slabIndex)*20
}

// ReferenceScriptFee prices totalRefScriptBytes of reference scripts
// attached to (or referenced by) a transaction against the tiered slab
// schedule: every full ReferenceScriptSlabBytes consumed raises the
// per-byte multiplier by one step.
func ReferenceScriptFee(totalRefScriptBytes int, costPerByte int64) int64 {
	if totalRefScriptBytes <= 0 || costPerByte <= 0 {
		return 0
	}
	var fee int64
	remaining := totalRefScriptBytes
	slab := 0
	for remaining > 0 {
		bytesInSlab := remaining
		if bytesInSlab > ReferenceScriptSlabBytes {
			bytesInSlab = ReferenceScriptSlabBytes
		}
		multiplier := ReferenceScriptTierMultiplier(slab)
		fee += int64(math.Ceil(float64(bytesInSlab) * float64(costPerByte) * float64(multiplier) / 100))
		remaining -= bytesInSlab
		slab++
	}
	return fee
}

// TotalFee sums every fee component the balancing engine's step 5 computes.
func TotalFee(txSizeBytes int, minFeeCoefficient, minFeeConstant int64, totalMem, totalSteps int64, priceMem, priceStep float64, totalRefScriptBytes int, refScriptCostPerByte int64) int64 {
	fee := MinFee(txSizeBytes, minFeeCoefficient, minFeeConstant)
	fee += ScriptExecutionFee(totalMem, totalSteps, priceMem, priceStep)
	fee += ReferenceScriptFee(totalRefScriptBytes, refScriptCostPerByte)
	return fee
}

// ReconcileChange implements balancing step 6's fee/change interplay in
// isolation: given what's been selected+implicit-in, what's owed in
// outputs+fee+implicit-out, and whether the residual carries non-coin
// assets, it reports the new change amount and whether it must be folded
// into the fee instead of paid out as a change output.
func ReconcileChange(haveCoin, oweCoin uint64, changeHasAssets bool, minUtxoForChange int64) (change int64, foldIntoFee bool, negative bool) {
	diff := int64(haveCoin) - int64(oweCoin)
	if diff < 0 {
		return diff, false, true
	}
	if diff == 0 {
		return 0, false, false
	}
	if diff < minUtxoForChange {
		if changeHasAssets {
			// Can't fold non-coin change into the fee; caller must select more.
			return diff, false, false
		}
		return 0, true, false
	}
	return diff, false, false
}
