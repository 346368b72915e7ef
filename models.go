package apollo

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"

	"github.com/go-cardano/ctxbuilder/cbor"
	"github.com/go-cardano/ctxbuilder/ledger/babbage"
	"github.com/go-cardano/ctxbuilder/ledger/common"

	"github.com/go-cardano/ctxbuilder/backend"
	"github.com/go-cardano/ctxbuilder/constants"
)

// AssetUnit names one native-asset holding: a policy and asset name, both
// hex-encoded, with a signed amount (positive for a payment or mint,
// negative for a burn).
type AssetUnit struct {
	PolicyHex string
	NameHex   string
	Amount    int64
}

// NewAssetUnit builds an AssetUnit. Pass "" or "lovelace" as policyHex for
// a plain-ADA unit.
func NewAssetUnit(policyHex, nameHex string, amount int64) AssetUnit {
	return AssetUnit{PolicyHex: policyHex, NameHex: nameHex, Amount: amount}
}

func (u AssetUnit) isLovelace() bool {
	return u.PolicyHex == "" || u.PolicyHex == "lovelace"
}

// ToValue converts the unit to a Value: coin-only for a lovelace unit, a
// single-entry asset Value otherwise.
func (u AssetUnit) ToValue() (Value, error) {
	if u.isLovelace() {
		if u.Amount < 0 {
			return Value{}, fmt.Errorf("negative lovelace amount: %d", u.Amount)
		}
		return NewSimpleValue(uint64(u.Amount)), nil //nolint:gosec // validated non-negative above
	}
	policyId, err := parsePolicyHex(u.PolicyHex)
	if err != nil {
		return Value{}, err
	}
	nameBytes, err := hex.DecodeString(u.NameHex)
	if err != nil {
		return Value{}, fmt.Errorf("invalid asset name hex %q: %w (asset names must be hex-encoded)", u.NameHex, err)
	}
	assets := singleEntryAssets(policyId, nameBytes, big.NewInt(u.Amount))
	return NewValue(0, &assets), nil
}

func parsePolicyHex(policyHex string) (common.Blake2b224, error) {
	var policyId common.Blake2b224
	raw, err := hex.DecodeString(policyHex)
	if err != nil {
		return policyId, fmt.Errorf("invalid policy ID hex %q: %w", policyHex, err)
	}
	if len(raw) != common.Blake2b224Size {
		return policyId, fmt.Errorf("invalid policy ID length: expected %d bytes, got %d", common.Blake2b224Size, len(raw))
	}
	copy(policyId[:], raw)
	return policyId, nil
}

func singleEntryAssets(policyId common.Blake2b224, name []byte, qty *big.Int) common.MultiAsset[common.MultiAssetTypeOutput] {
	data := map[common.Blake2b224]map[cbor.ByteString]common.MultiAssetTypeOutput{
		policyId: {cbor.NewByteString(name): qty},
	}
	return common.NewMultiAsset[common.MultiAssetTypeOutput](data)
}

// assetUnitsOf flattens a MultiAsset into hex-keyed AssetUnits, saturating
// any quantity too large for int64 rather than truncating it silently.
func assetUnitsOf(assets *common.MultiAsset[common.MultiAssetTypeOutput]) []AssetUnit {
	if assets == nil {
		return nil
	}
	var units []AssetUnit
	for _, policyId := range assets.Policies() {
		for _, assetName := range assets.Assets(policyId) {
			qty := assets.Asset(policyId, assetName)
			amt := qty.Int64()
			if !qty.IsInt64() {
				amt = math.MaxInt64
			}
			units = append(units, AssetUnit{
				PolicyHex: hex.EncodeToString(policyId.Bytes()),
				NameHex:   hex.EncodeToString(assetName),
				Amount:    amt,
			})
		}
	}
	return units
}

// OutputRequester is anything that can resolve to a transaction output: a
// value to carry, and a way to build the concrete wire output from it.
type OutputRequester interface {
	EnsureMinUTXO(cc backend.ChainContext) error
	ToTxOut() (*babbage.BabbageTransactionOutput, error)
	ToValue() (Value, error)
}

// OutputRequest describes an output the builder still owes: where it goes,
// how much ADA and which assets it carries, and an optional datum or
// reference script to attach.
type OutputRequest struct {
	Coin      int64
	Address   common.Address
	Assets    []AssetUnit
	Datum     *common.Datum
	DatumHash []byte
	Inline    bool
	ScriptRef *common.ScriptRef
}

// NewOutputRequest builds an OutputRequest paying to a bech32 address.
func NewOutputRequest(receiver string, coin int64, assets []AssetUnit) (*OutputRequest, error) {
	addr, err := common.NewAddress(receiver)
	if err != nil {
		return nil, fmt.Errorf("invalid receiver address: %w", err)
	}
	return &OutputRequest{Coin: coin, Address: addr, Assets: assets}, nil
}

// NewOutputRequestFromValue builds an OutputRequest that reproduces value
// exactly, splitting its MultiAsset back out into individual units.
func NewOutputRequestFromValue(receiver common.Address, value Value) *OutputRequest {
	return &OutputRequest{
		Address: receiver,
		Coin:    int64(value.Coin), //nolint:gosec // ADA supply fits in int64
		Assets:  assetUnitsOf(value.Assets),
	}
}

// OutputRequestFromTxOut recovers an OutputRequest from an already-built
// wire output, the inverse of ToTxOut for the fields it can represent.
func OutputRequestFromTxOut(txOut *babbage.BabbageTransactionOutput) *OutputRequest {
	return &OutputRequest{
		Address: txOut.OutputAddress,
		Coin:    int64(txOut.OutputAmount.Amount), //nolint:gosec // ADA supply fits in int64
		Assets:  assetUnitsOf(txOut.OutputAmount.Assets),
	}
}

// ToValue sums the request's coin and assets into a single Value.
func (o *OutputRequest) ToValue() (Value, error) {
	if o.Coin < 0 {
		return Value{}, fmt.Errorf("negative lovelace amount: %d", o.Coin)
	}
	total := NewSimpleValue(uint64(o.Coin)) //nolint:gosec // validated non-negative above
	for _, unit := range o.Assets {
		if unit.Amount < 0 {
			return Value{}, fmt.Errorf("negative asset amount %d for policy %s", unit.Amount, unit.PolicyHex)
		}
		uv, err := unit.ToValue()
		if err != nil {
			return Value{}, fmt.Errorf("invalid unit %s: %w", unit.PolicyHex, err)
		}
		total, err = total.Add(uv)
		if err != nil {
			return Value{}, err
		}
	}
	return total, nil
}

// EnsureMinUTXO raises Coin until the output clears the minimum-UTxO
// requirement for its own encoded size. Raising Coin can grow the CBOR
// encoding, which can raise the requirement again, so this iterates rather
// than computing it once; it converges in at most a couple of rounds for
// any output shape this builder produces.
func (o *OutputRequest) EnsureMinUTXO(cc backend.ChainContext) error {
	if len(o.Assets) == 0 && o.Coin >= constants.MinLovelace && o.Datum == nil && len(o.DatumHash) == 0 && o.ScriptRef == nil {
		return nil
	}
	pp, err := cc.ProtocolParams()
	if err != nil {
		return fmt.Errorf("failed to get protocol params: %w", err)
	}
	const maxRounds = 3
	for round := 0; round < maxRounds; round++ {
		txOut, err := o.ToTxOut()
		if err != nil {
			return fmt.Errorf("failed to build tx output: %w", err)
		}
		required, err := MinLovelacePostAlonzo(txOut, pp.CoinsPerUtxoByteValue())
		if err != nil {
			return fmt.Errorf("failed to compute min UTxO: %w", err)
		}
		if o.Coin >= required {
			return nil
		}
		o.Coin = required
	}
	txOut, err := o.ToTxOut()
	if err != nil {
		return fmt.Errorf("failed to build tx output: %w", err)
	}
	required, err := MinLovelacePostAlonzo(txOut, pp.CoinsPerUtxoByteValue())
	if err != nil {
		return fmt.Errorf("failed to compute min UTxO: %w", err)
	}
	if o.Coin < required {
		return fmt.Errorf("min UTxO did not converge after %d rounds: need %d, have %d", maxRounds, required, o.Coin)
	}
	return nil
}

// ToTxOut builds the wire-level output this request describes.
func (o *OutputRequest) ToTxOut() (*babbage.BabbageTransactionOutput, error) {
	val, err := o.ToValue()
	if err != nil {
		return nil, fmt.Errorf("failed to compute output value: %w", err)
	}
	out := NewBabbageOutput(o.Address, val, nil, o.ScriptRef)

	switch {
	case o.Inline && o.Datum != nil:
		datumOpt, err := NewDatumOptionInline(o.Datum)
		if err != nil {
			return nil, fmt.Errorf("failed to create inline datum: %w", err)
		}
		out.DatumOption = datumOpt
	case len(o.DatumHash) > 0:
		if len(o.DatumHash) != common.Blake2b256Size {
			return nil, fmt.Errorf("invalid datum hash length: expected %d bytes, got %d", common.Blake2b256Size, len(o.DatumHash))
		}
		var hash common.Blake2b256
		copy(hash[:], o.DatumHash)
		datumOpt, err := NewDatumOptionHash(hash)
		if err != nil {
			return nil, fmt.Errorf("failed to create datum hash: %w", err)
		}
		out.DatumOption = datumOpt
	}
	return &out, nil
}
