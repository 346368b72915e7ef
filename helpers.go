package apollo

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"math/big"

	"github.com/go-cardano/ctxbuilder/balance"
	"github.com/go-cardano/ctxbuilder/cbor"
	"github.com/go-cardano/ctxbuilder/ledger/babbage"
	"github.com/go-cardano/ctxbuilder/ledger/common"
	"github.com/go-cardano/ctxbuilder/ledger/mary"
)

// Value pairs a lovelace amount with an optional native-asset bundle; it is
// the currency this builder balances transactions in.
type Value struct {
	Coin   uint64
	Assets *common.MultiAsset[common.MultiAssetTypeOutput]
}

// NewValue builds a Value from a coin amount and an asset bundle (nil for none).
func NewValue(coin uint64, assets *common.MultiAsset[common.MultiAssetTypeOutput]) Value {
	return Value{Coin: coin, Assets: assets}
}

// NewSimpleValue builds a coin-only Value.
func NewSimpleValue(coin uint64) Value {
	return Value{Coin: coin}
}

// Add returns v + other as a new Value, erroring on coin overflow.
func (v Value) Add(other Value) (Value, error) {
	sum := v.Coin + other.Coin
	if sum < v.Coin {
		return Value{}, errors.New("coin overflow")
	}
	result := Value{Coin: sum}
	switch {
	case v.Assets != nil && other.Assets != nil:
		result.Assets = CloneMultiAsset(v.Assets)
		result.Assets.Add(other.Assets)
	case v.Assets != nil:
		result.Assets = CloneMultiAsset(v.Assets)
	case other.Assets != nil:
		result.Assets = CloneMultiAsset(other.Assets)
	}
	return result, nil
}

// Sub returns v - other as a new Value, erroring if coin or any asset
// quantity would go negative.
func (v Value) Sub(other Value) (Value, error) {
	if other.Coin > v.Coin {
		return Value{}, errors.New("coin underflow")
	}
	result := Value{Coin: v.Coin - other.Coin}
	if v.Assets != nil {
		result.Assets = CloneMultiAsset(v.Assets)
		if other.Assets != nil {
			if err := SubMultiAsset(result.Assets, other.Assets); err != nil {
				return Value{}, err
			}
		}
	} else if other.Assets != nil && !MultiAssetIsEmpty(other.Assets) {
		return Value{}, errors.New("asset underflow: no assets to subtract from")
	}
	return result, nil
}

// GreaterOrEqual reports whether v covers other: at least as much coin, and
// at least as much of every asset other carries. v may hold extra assets
// other doesn't mention.
func (v Value) GreaterOrEqual(other Value) bool {
	if v.Coin < other.Coin {
		return false
	}
	if other.Assets == nil {
		return true
	}
	if v.Assets == nil {
		return MultiAssetIsEmpty(other.Assets)
	}
	// Every positive-quantity asset in other must be matched or exceeded in v.
	for _, policyId := range other.Assets.Policies() {
		for _, assetName := range other.Assets.Assets(policyId) {
			otherQty := other.Assets.Asset(policyId, assetName)
			if otherQty == nil || otherQty.Sign() <= 0 {
				continue
			}
			myQty := v.Assets.Asset(policyId, assetName)
			if myQty == nil || myQty.Cmp(otherQty) < 0 {
				return false
			}
		}
	}
	return true
}

// GetCoin returns the lovelace component.
func (v Value) GetCoin() uint64 {
	return v.Coin
}

// HasAssets reports whether the Value carries any native assets.
func (v Value) HasAssets() bool {
	return v.Assets != nil && !MultiAssetIsEmpty(v.Assets)
}

// Clone deep-copies the Value, including its asset bundle.
func (v Value) Clone() Value {
	result := Value{Coin: v.Coin}
	if v.Assets != nil {
		result.Assets = CloneMultiAsset(v.Assets)
	}
	return result
}

// ToMaryValue renders the Value as a MaryTransactionOutputValue for embedding
// in a BabbageTransactionOutput; assets are cloned so the output doesn't
// alias this Value's internal map.
func (v Value) ToMaryValue() mary.MaryTransactionOutputValue {
	return mary.MaryTransactionOutputValue{
		Amount: v.Coin,
		Assets: CloneMultiAsset(v.Assets),
	}
}

// ValueFromMaryValue is the inverse of ToMaryValue, cloning assets so the
// resulting Value doesn't alias the source output's map.
func ValueFromMaryValue(mv mary.MaryTransactionOutputValue) Value {
	return Value{
		Coin:   mv.Amount,
		Assets: CloneMultiAsset(mv.Assets),
	}
}

// CloneMultiAsset deep-copies a MultiAsset, including every quantity big.Int.
func CloneMultiAsset(m *common.MultiAsset[common.MultiAssetTypeOutput]) *common.MultiAsset[common.MultiAssetTypeOutput] {
	if m == nil {
		return nil
	}
	policies := m.Policies()
	data := make(map[common.Blake2b224]map[cbor.ByteString]common.MultiAssetTypeOutput, len(policies))
	for _, policyId := range policies {
		assetNames := m.Assets(policyId)
		assetMap := make(map[cbor.ByteString]common.MultiAssetTypeOutput, len(assetNames))
		for _, name := range assetNames {
			val := m.Asset(policyId, name)
			assetMap[cbor.NewByteString(name)] = new(big.Int).Set(val)
		}
		data[policyId] = assetMap
	}
	result := common.NewMultiAsset[common.MultiAssetTypeOutput](data)
	return &result
}

// SubMultiAsset subtracts other from m in place, failing if any resulting
// quantity would go negative.
func SubMultiAsset(m *common.MultiAsset[common.MultiAssetTypeOutput], other *common.MultiAsset[common.MultiAssetTypeOutput]) error {
	if other == nil || m == nil {
		return nil
	}
	for _, policyId := range other.Policies() {
		for _, assetName := range other.Assets(policyId) {
			otherQty := other.Asset(policyId, assetName)
			if otherQty == nil {
				continue
			}
			myQty := m.Asset(policyId, assetName)
			if myQty == nil {
				myQty = big.NewInt(0)
			}
			if otherQty.Cmp(myQty) > 0 {
				return fmt.Errorf("asset underflow for policy %s", policyId.String())
			}
		}
	}
	// Negate other wholesale and add it, rather than subtracting entry by entry.
	policies := other.Policies()
	negData := make(map[common.Blake2b224]map[cbor.ByteString]common.MultiAssetTypeOutput, len(policies))
	for _, policyId := range policies {
		assetNames := other.Assets(policyId)
		assetMap := make(map[cbor.ByteString]common.MultiAssetTypeOutput, len(assetNames))
		for _, name := range assetNames {
			val := other.Asset(policyId, name)
			if val == nil {
				continue
			}
			neg := new(big.Int).Neg(val)
			assetMap[cbor.NewByteString(name)] = neg
		}
		negData[policyId] = assetMap
	}
	negAssets := common.NewMultiAsset[common.MultiAssetTypeOutput](negData)
	m.Add(&negAssets)
	return nil
}

// MultiAssetIsEmpty reports whether m carries nothing worth keeping: nil,
// no policies, or every quantity zero or negative.
func MultiAssetIsEmpty(m *common.MultiAsset[common.MultiAssetTypeOutput]) bool {
	if m == nil {
		return true
	}
	for _, policyId := range m.Policies() {
		for _, assetName := range m.Assets(policyId) {
			qty := m.Asset(policyId, assetName)
			if qty != nil && qty.Sign() > 0 {
				return false
			}
		}
	}
	return true
}

// NewDatumOptionHash wraps a datum hash as a BabbageTransactionOutputDatumOption.
func NewDatumOptionHash(hash common.Blake2b256) (*babbage.BabbageTransactionOutputDatumOption, error) {
	cborBytes, err := cbor.Encode([]any{0, hash})
	if err != nil {
		return nil, fmt.Errorf("failed to encode datum option hash: %w", err)
	}
	var opt babbage.BabbageTransactionOutputDatumOption
	if err := opt.UnmarshalCBOR(cborBytes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal datum option: %w", err)
	}
	return &opt, nil
}

// NewDatumOptionInline wraps a whole datum (not just its hash) as a
// BabbageTransactionOutputDatumOption.
func NewDatumOptionInline(datum *common.Datum) (*babbage.BabbageTransactionOutputDatumOption, error) {
	if datum == nil {
		return nil, errors.New("datum cannot be nil")
	}
	datumCbor, err := cbor.Encode(datum)
	if err != nil {
		return nil, fmt.Errorf("failed to encode datum: %w", err)
	}
	tagged := cbor.Tag{Number: 24, Content: datumCbor}
	cborBytes, err := cbor.Encode([]any{1, tagged})
	if err != nil {
		return nil, fmt.Errorf("failed to encode datum option inline: %w", err)
	}
	var opt babbage.BabbageTransactionOutputDatumOption
	if err := opt.UnmarshalCBOR(cborBytes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal datum option: %w", err)
	}
	return &opt, nil
}

// NewBabbageOutputSimple builds a coin-only output: no assets, datum, or
// reference script.
func NewBabbageOutputSimple(addr common.Address, coin uint64) babbage.BabbageTransactionOutput {
	return babbage.BabbageTransactionOutput{
		OutputAddress: addr,
		OutputAmount: mary.MaryTransactionOutputValue{
			Amount: coin,
		},
	}
}

// NewBabbageOutput builds an output with a full Value plus optional datum
// option and reference script.
func NewBabbageOutput(
	addr common.Address,
	value Value,
	datumOpt *babbage.BabbageTransactionOutputDatumOption,
	scriptRef *common.ScriptRef,
) babbage.BabbageTransactionOutput {
	return babbage.BabbageTransactionOutput{
		OutputAddress:  addr,
		OutputAmount:   value.ToMaryValue(),
		DatumOption:    datumOpt,
		TxOutScriptRef: scriptRef,
	}
}

// NewNativeScriptPubkey builds a NativeScript satisfied by one key's signature.
func NewNativeScriptPubkey(keyHash common.Blake2b224) (common.NativeScript, error) {
	inner := struct {
		cbor.StructAsArray
		Type uint
		Hash []byte
	}{Type: 0, Hash: keyHash.Bytes()}
	return nativeScriptFromInner(&inner)
}

// NewNativeScriptAll builds a NativeScript requiring every sub-script to pass.
func NewNativeScriptAll(scripts []common.NativeScript) (common.NativeScript, error) {
	inner := struct {
		cbor.StructAsArray
		Type    uint
		Scripts []common.NativeScript
	}{Type: 1, Scripts: scripts}
	return nativeScriptFromInner(&inner)
}

// NewNativeScriptAny builds a NativeScript satisfied by any one sub-script.
func NewNativeScriptAny(scripts []common.NativeScript) (common.NativeScript, error) {
	inner := struct {
		cbor.StructAsArray
		Type    uint
		Scripts []common.NativeScript
	}{Type: 2, Scripts: scripts}
	return nativeScriptFromInner(&inner)
}

// NewNativeScriptNofK builds a NativeScript satisfied once n of the given
// sub-scripts pass.
func NewNativeScriptNofK(n uint, scripts []common.NativeScript) (common.NativeScript, error) {
	if len(scripts) == 0 {
		return common.NativeScript{}, errors.New("scripts list cannot be empty")
	}
	if n == 0 {
		return common.NativeScript{}, errors.New("n must be at least 1")
	}
	if n > uint(len(scripts)) {
		return common.NativeScript{}, fmt.Errorf("n (%d) exceeds number of scripts (%d)", n, len(scripts))
	}
	inner := struct {
		cbor.StructAsArray
		Type    uint
		N       uint
		Scripts []common.NativeScript
	}{Type: 3, N: n, Scripts: scripts}
	return nativeScriptFromInner(&inner)
}

// NewNativeScriptInvalidBefore builds a NativeScript that only becomes valid
// at or after slot.
func NewNativeScriptInvalidBefore(slot uint64) (common.NativeScript, error) {
	inner := struct {
		cbor.StructAsArray
		Type uint
		Slot uint64
	}{Type: 4, Slot: slot}
	return nativeScriptFromInner(&inner)
}

// NewNativeScriptInvalidHereafter builds a NativeScript that stops being
// valid at slot.
func NewNativeScriptInvalidHereafter(slot uint64) (common.NativeScript, error) {
	inner := struct {
		cbor.StructAsArray
		Type uint
		Slot uint64
	}{Type: 5, Slot: slot}
	return nativeScriptFromInner(&inner)
}

func nativeScriptFromInner(inner any) (common.NativeScript, error) {
	cborBytes, err := cbor.Encode(inner)
	if err != nil {
		return common.NativeScript{}, err
	}
	var ns common.NativeScript
	if err := ns.UnmarshalCBOR(cborBytes); err != nil {
		return common.NativeScript{}, err
	}
	return ns, nil
}

// SignMessage signs message with an ordinary (non-extended) Ed25519 key.
// privateKey may be a 32-byte raw seed, or a 64-byte crypto/ed25519.PrivateKey
// (seed || public key), of which only the first 32 bytes are used.
//
// Do not pass a Cardano BIP32-Ed25519 extended key derived
// hierarchically — those must be used without re-hashing, which this
// function does not account for.
func SignMessage(privateKey []byte, message []byte) ([]byte, error) {
	var seed []byte
	switch len(privateKey) {
	case 64:
		seed = privateKey[:32]
	case 32:
		seed = privateKey
	default:
		return nil, fmt.Errorf("invalid private key length %d: must be 32 or 64 bytes", len(privateKey))
	}
	edKey := ed25519.NewKeyFromSeed(seed)
	return ed25519.Sign(edKey, message), nil
}

// ComputeScriptDataHash hashes redeemers, datums, and cost models together
// per the Alonzo script-data-hash construction.
func ComputeScriptDataHash(
	redeemers map[common.RedeemerKey]common.RedeemerValue,
	datums []common.Datum,
	costModels map[string][]int64,
) (*common.Blake2b256, error) {
	if len(redeemers) == 0 && len(datums) == 0 {
		return nil, nil
	}

	var redeemerBytes []byte
	var err error
	if len(redeemers) > 0 {
		redeemerBytes, err = cbor.Encode(redeemers)
	} else {
		redeemerBytes, err = cbor.Encode(map[common.RedeemerKey]common.RedeemerValue{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode redeemers: %w", err)
	}

	var datumBytes []byte
	if len(datums) > 0 {
		datumBytes, err = cbor.Encode(datums)
	} else {
		datumBytes, err = cbor.Encode([]common.Datum{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode datums: %w", err)
	}

	// The ledger library's cost-model view encoder already accounts for
	// PlutusV1's special-cased wire format (indefinite-length list, a
	// double-serialized language tag, bytestring wrapping); defer to it.
	usedVersions := make(map[uint]struct{})
	numericCostModels := make(map[uint][]int64)
	for lang, costs := range costModels {
		var version uint
		switch lang {
		case "PlutusV1":
			version = 0
		case "PlutusV2":
			version = 1
		case "PlutusV3":
			version = 2
		default:
			return nil, fmt.Errorf("unsupported cost model language: %q", lang)
		}
		usedVersions[version] = struct{}{}
		numericCostModels[version] = costs
	}
	var costModelBytes []byte
	if len(usedVersions) > 0 {
		costModelBytes, err = common.EncodeLangViews(usedVersions, numericCostModels)
	} else {
		costModelBytes, err = cbor.Encode(map[uint][]int64{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode cost models: %w", err)
	}

	combined := make([]byte, 0, len(redeemerBytes)+len(datumBytes)+len(costModelBytes))
	combined = append(combined, redeemerBytes...)
	combined = append(combined, datumBytes...)
	combined = append(combined, costModelBytes...)

	hash := common.Blake2b256Hash(combined)
	return &hash, nil
}

// OutputCborSize measures the CBOR-encoded byte size of output.
func OutputCborSize(output *babbage.BabbageTransactionOutput) (int, error) {
	cborBytes, err := cbor.Encode(output)
	if err != nil {
		return 0, err
	}
	return len(cborBytes), nil
}

// MinLovelacePostAlonzo returns the minimum lovelace output must carry, given
// its encoded size and the protocol's per-byte UTxO cost.
func MinLovelacePostAlonzo(output *babbage.BabbageTransactionOutput, coinsPerUtxoByte int64) (int64, error) {
	outputSize, err := OutputCborSize(output)
	if err != nil {
		return 0, err
	}
	return balance.MinUtxoLovelace(outputSize, coinsPerUtxoByte), nil
}

// --- Reference script wrapping ---

// NewScriptRef wraps script as a ScriptRef, inferring the wire type tag from
// its Go type (NativeScript, PlutusV1Script, PlutusV2Script, or PlutusV3Script).
func NewScriptRef(script common.Script) (*common.ScriptRef, error) {
	var scriptType uint
	switch script.(type) {
	case common.NativeScript:
		scriptType = 0
	case common.PlutusV1Script:
		scriptType = 1
	case common.PlutusV2Script:
		scriptType = 2
	case common.PlutusV3Script:
		scriptType = 3
	default:
		return nil, fmt.Errorf("unsupported script type: %T", script)
	}
	return &common.ScriptRef{Type: scriptType, Script: script}, nil
}

// GetStakeCredentialFromAddress pulls the staking credential out of addr's
// payload, erroring if addr has no staking component.
func GetStakeCredentialFromAddress(addr common.Address) (common.Credential, error) {
	sp := addr.StakingPayload()
	if sp == nil {
		return common.Credential{}, errors.New("address has no staking component")
	}
	switch v := sp.(type) {
	case common.AddressPayloadKeyHash:
		return common.Credential{
			CredType:   common.CredentialTypeAddrKeyHash,
			Credential: v.Hash,
		}, nil
	case common.AddressPayloadScriptHash:
		return common.Credential{
			CredType:   common.CredentialTypeScriptHash,
			Credential: v.Hash,
		}, nil
	default:
		return common.Credential{}, errors.New("unsupported staking payload type")
	}
}

// MultiAssetFromMap builds a MultiAsset directly from a policy->asset->quantity map.
func MultiAssetFromMap(data map[common.Blake2b224]map[cbor.ByteString]*big.Int) *common.MultiAsset[common.MultiAssetTypeOutput] {
	if len(data) == 0 {
		return nil
	}
	result := common.NewMultiAsset[common.MultiAssetTypeOutput](data)
	return &result
}
