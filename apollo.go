package apollo

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"math"
	"math/big"
	"slices"
	"sort"
	"strconv"

	"github.com/go-cardano/ctxbuilder/balance"
	"github.com/go-cardano/ctxbuilder/cbor"
	"github.com/go-cardano/ctxbuilder/ledger/babbage"
	"github.com/go-cardano/ctxbuilder/ledger/common"
	"github.com/go-cardano/ctxbuilder/ledger/conway"
	"github.com/go-cardano/ctxbuilder/ledger/shelley"
	"github.com/go-cardano/ctxbuilder/selector"

	"github.com/go-cardano/ctxbuilder/backend"
)

const (
	ExMemoryBuffer = 0.2
	ExStepBuffer   = 0.2
	StakeDeposit   = 2_000_000
)

// Apollo accumulates transaction-building state (outputs, inputs, certificates,
// mints, withdrawals) until Complete() resolves it into a balanced, signable
// Conway-era transaction.
type Apollo struct {
	Context            backend.ChainContext
	payments           []OutputRequester
	isEstimateRequired bool
	utxos              []common.Utxo
	preselectedUtxos   []common.Utxo
	inputAddresses     []common.Address
	tx                 *conway.ConwayTransaction
	datums             []common.Datum
	requiredSigners    []common.Blake2b224
	v1scripts          []common.PlutusV1Script
	v2scripts          []common.PlutusV2Script
	v3scripts          []common.PlutusV3Script
	redeemers          map[string]redeemerEntry // keyed by UTxO ref string
	stakeRedeemers     map[string]redeemerEntry
	mintRedeemers      map[string]redeemerEntry
	mint               []AssetUnit
	collaterals        []common.Utxo
	Fee                int64
	FeePadding         int64
	Ttl                int64
	ValidityStart      int64
	totalCollateral    int64
	referenceInputs    []shelley.ShelleyTransactionInput
	collateralReturn   *babbage.BabbageTransactionOutput
	nativescripts      []common.NativeScript
	usedUtxos          []string
	wallet             Wallet
	certificates       []common.CertificateWrapper
	withdrawals        map[string]withdrawalEntry
	auxiliaryData      *auxData
	collateralAmount   int64
	scriptHashes       []string
	changeAddress      *common.Address
	estimateExUnits    bool
	forceFee           bool
}

type redeemerEntry struct {
	Tag     common.RedeemerTag
	Data    common.Datum
	ExUnits common.ExUnits
}

type withdrawalEntry struct {
	Address common.Address
	Amount  uint64
}

type auxData struct {
	metadata map[uint64]any
}

// New starts an empty builder bound to the given chain context; ExUnit
// estimation is on by default.
func New(cc backend.ChainContext) *Apollo {
	return &Apollo{
		Context:         cc,
		redeemers:       make(map[string]redeemerEntry),
		stakeRedeemers:  make(map[string]redeemerEntry),
		mintRedeemers:   make(map[string]redeemerEntry),
		withdrawals:     make(map[string]withdrawalEntry),
		estimateExUnits: true,
	}
}

// SetWallet attaches a signer/address source the builder will fall back to
// for change, collateral, and credential resolution.
func (a *Apollo) SetWallet(w Wallet) *Apollo {
	a.wallet = w
	return a
}

// SetWalletFromKey wraps a raw Ed25519 payment key in a KeyPairWallet and
// attaches it. Key derivation (mnemonic, hardware wallet, or otherwise) is
// the caller's concern; this method only takes the resulting keypair.
func (a *Apollo) SetWalletFromKey(addr common.Address, paymentKey ed25519.PrivateKey) *Apollo {
	a.wallet = NewKeyPairWallet(addr, paymentKey)
	return a
}

// AddPayment queues an already-built output request for the transaction.
func (a *Apollo) AddPayment(payment OutputRequester) *Apollo {
	a.payments = append(a.payments, payment)
	return a
}

// AddLoadedUTxOs seeds the candidate pool coin selection draws from.
func (a *Apollo) AddLoadedUTxOs(utxos ...common.Utxo) *Apollo {
	a.utxos = append(a.utxos, utxos...)
	return a
}

// AddInput pins a specific UTxO as an input, bypassing coin selection for it.
func (a *Apollo) AddInput(utxo common.Utxo) *Apollo {
	a.preselectedUtxos = append(a.preselectedUtxos, utxo)
	return a
}

// AddInputAddress registers an address whose UTxOs Complete() should load
// and consider during coin selection.
func (a *Apollo) AddInputAddress(addr common.Address) *Apollo {
	a.inputAddresses = append(a.inputAddresses, addr)
	return a
}

// AddRequiredSigner records a key hash that must countersign the transaction.
func (a *Apollo) AddRequiredSigner(pkh common.Blake2b224) *Apollo {
	a.requiredSigners = append(a.requiredSigners, pkh)
	return a
}

// AddRequiredSignerPaymentKey pulls the payment key hash out of addr and
// records it as a required signer.
func (a *Apollo) AddRequiredSignerPaymentKey(addr common.Address) *Apollo {
	a.requiredSigners = append(a.requiredSigners, addr.PaymentKeyHash())
	return a
}

// AddRequiredSignerStakeKey pulls the staking key hash out of addr, if any,
// and records it as a required signer.
func (a *Apollo) AddRequiredSignerStakeKey(addr common.Address) *Apollo {
	skh := addr.StakeKeyHash()
	if skh != (common.Blake2b224{}) {
		a.requiredSigners = append(a.requiredSigners, skh)
	}
	return a
}

// SetTtl sets the slot after which the transaction is no longer valid.
func (a *Apollo) SetTtl(ttl int64) *Apollo {
	a.Ttl = ttl
	return a
}

// SetValidityStart sets the slot before which the transaction is not valid.
func (a *Apollo) SetValidityStart(start int64) *Apollo {
	a.ValidityStart = start
	return a
}

// SetFee overrides the estimated fee with an explicit amount.
func (a *Apollo) SetFee(fee int64) *Apollo {
	a.Fee = fee
	return a
}

// SetFeePadding adds a safety margin on top of whatever fee gets estimated.
func (a *Apollo) SetFeePadding(padding int64) *Apollo {
	a.FeePadding = padding
	return a
}

// ForceFee pins the fee to an exact value and skips estimation entirely.
func (a *Apollo) ForceFee(fee int64) *Apollo {
	a.Fee = fee
	a.forceFee = true
	return a
}

// SetChangeAddress designates where leftover value should go; absent a
// wallet, this is the only source of a change address.
func (a *Apollo) SetChangeAddress(addr common.Address) *Apollo {
	a.changeAddress = &addr
	return a
}

// AddCollateral pins a UTxO as collateral, required whenever Plutus scripts run.
func (a *Apollo) AddCollateral(utxo common.Utxo) *Apollo {
	a.collaterals = append(a.collaterals, utxo)
	return a
}

// AddDatum places a datum in the witness set so a script can look it up by hash.
func (a *Apollo) AddDatum(datum *common.Datum) *Apollo {
	if datum != nil {
		a.datums = append(a.datums, *datum)
	}
	return a
}

// AddReferenceInput names a UTxO the transaction reads without spending.
func (a *Apollo) AddReferenceInput(txHash string, index int) (*Apollo, error) {
	hashBytes, err := hex.DecodeString(txHash)
	if err != nil {
		return a, fmt.Errorf("invalid tx hash hex: %w", err)
	}
	if len(hashBytes) != common.Blake2b256Size {
		return a, fmt.Errorf("invalid tx hash length: expected %d bytes, got %d", common.Blake2b256Size, len(hashBytes))
	}
	if index < 0 || index > math.MaxUint32 {
		return a, fmt.Errorf("index must be 0-%d, got %d", math.MaxUint32, index)
	}
	var hash common.Blake2b256
	copy(hash[:], hashBytes)
	input := shelley.ShelleyTransactionInput{
		TxId:        hash,
		OutputIndex: uint32(index),
	}
	a.referenceInputs = append(a.referenceInputs, input)
	return a, nil
}

// Mint queues a native-asset mint or burn. A non-nil redeemer marks the
// mint as script-driven; omit exUnits to have Complete() estimate them.
func (a *Apollo) Mint(unit AssetUnit, redeemer *common.Datum, exUnits *common.ExUnits) *Apollo {
	a.mint = append(a.mint, unit)
	if redeemer != nil {
		eu := common.ExUnits{}
		if exUnits != nil {
			eu = *exUnits
		}
		a.mintRedeemers[unit.PolicyHex] = redeemerEntry{
			Tag:     common.RedeemerTagMint,
			Data:    *redeemer,
			ExUnits: eu,
		}
		a.isEstimateRequired = true
	}
	return a
}

// AttachScript adds script to the witness set, skipping it if its hash is
// already present. Any of PlutusV1Script, PlutusV2Script, PlutusV3Script, or
// NativeScript is accepted.
func (a *Apollo) AttachScript(script common.Script) *Apollo {
	hash := script.Hash().String()
	if a.hasScriptHash(hash) {
		return a
	}
	a.scriptHashes = append(a.scriptHashes, hash)
	switch s := script.(type) {
	case common.PlutusV1Script:
		a.v1scripts = append(a.v1scripts, s)
	case common.PlutusV2Script:
		a.v2scripts = append(a.v2scripts, s)
	case common.PlutusV3Script:
		a.v3scripts = append(a.v3scripts, s)
	case common.NativeScript:
		a.nativescripts = append(a.nativescripts, s)
	}
	return a
}

// DisableExecutionUnitsEstimation turns off the automatic evaluate-and-buffer
// step Complete() otherwise runs for script redeemers.
func (a *Apollo) DisableExecutionUnitsEstimation() *Apollo {
	a.estimateExUnits = false
	return a
}

// --- Script interaction ---

// CollectFrom spends a script-locked UTxO, attaching the redeemer and
// execution units that authorize it.
func (a *Apollo) CollectFrom(utxo common.Utxo, redeemer common.Datum, exUnits common.ExUnits) *Apollo {
	a.isEstimateRequired = true
	a.preselectedUtxos = append(a.preselectedUtxos, utxo)
	ref := utxoRef(utxo)
	a.redeemers[ref] = redeemerEntry{
		Tag:     common.RedeemerTagSpend,
		Data:    redeemer,
		ExUnits: exUnits,
	}
	return a
}

// PayToContract queues an output at a script address carrying datum inline.
func (a *Apollo) PayToContract(addr common.Address, datum *common.Datum, lovelace int64, units ...AssetUnit) *Apollo {
	p := &OutputRequest{
		Address: addr,
		Coin:    lovelace,
		Assets:  units,
		Datum:   datum,
		Inline:  true,
	}
	a.payments = append(a.payments, p)
	return a
}

// PayToContractWithDatumHash queues an output at a script address that
// references datum by hash; the datum itself is added to the witness set so
// a spending script can still recover it.
func (a *Apollo) PayToContractWithDatumHash(addr common.Address, datum *common.Datum, lovelace int64, units ...AssetUnit) (*Apollo, error) {
	p := &OutputRequest{
		Address: addr,
		Coin:    lovelace,
		Assets:  units,
	}
	if datum != nil {
		datumCbor, err := cbor.Encode(datum)
		if err != nil {
			return a, fmt.Errorf("failed to encode datum: %w", err)
		}
		hash := common.Blake2b256Hash(datumCbor)
		p.DatumHash = hash.Bytes()
		a.datums = append(a.datums, *datum)
	}
	a.payments = append(a.payments, p)
	return a, nil
}

// resolveCredential normalizes the assorted shapes certificate methods accept
// down to a single common.Credential: a pointer or value credential is used
// as-is, an address or bech32 string has its staking credential extracted,
// and nil falls back to the attached wallet's address.
func (a *Apollo) resolveCredential(v any) (common.Credential, error) {
	switch val := v.(type) {
	case *common.Credential:
		if val != nil {
			return *val, nil
		}
		return a.GetStakeCredentialFromWallet()
	case common.Credential:
		return val, nil
	case common.Address:
		return GetStakeCredentialFromAddress(val)
	case string:
		addr, err := common.NewAddress(val)
		if err != nil {
			return common.Credential{}, fmt.Errorf("invalid bech32 address: %w", err)
		}
		return GetStakeCredentialFromAddress(addr)
	case nil:
		return a.GetStakeCredentialFromWallet()
	default:
		return common.Credential{}, fmt.Errorf("unsupported credential type: %T", v)
	}
}

func (a *Apollo) hasScriptHash(hash string) bool {
	return slices.Contains(a.scriptHashes, hash)
}

// --- Output construction ---

// PayToAddress queues a plain ADA-plus-assets output at addr.
func (a *Apollo) PayToAddress(addr common.Address, lovelace int64, units ...AssetUnit) *Apollo {
	p := &OutputRequest{
		Address: addr,
		Coin:    lovelace,
		Assets:  units,
	}
	a.payments = append(a.payments, p)
	return a
}

// PayToAddressWithReferenceScript queues an output at addr that carries script
// as a reference script, available for other transactions to point at
// instead of re-attaching it in their own witness sets. The script's
// concrete type is inferred from its Go type.
func (a *Apollo) PayToAddressWithReferenceScript(addr common.Address, lovelace int64, script common.Script, units ...AssetUnit) (*Apollo, error) {
	ref, err := NewScriptRef(script)
	if err != nil {
		return a, fmt.Errorf("failed to create script ref: %w", err)
	}
	p := &OutputRequest{Address: addr, Coin: lovelace, Assets: units, ScriptRef: ref}
	a.payments = append(a.payments, p)
	return a, nil
}

// PayToContractWithReferenceScript deploys a reference script at a script
// address that also carries an inline datum, combining what PayToContract
// and PayToAddressWithReferenceScript do separately into one output.
func (a *Apollo) PayToContractWithReferenceScript(addr common.Address, datum *common.Datum, lovelace int64, script common.Script, units ...AssetUnit) (*Apollo, error) {
	ref, err := NewScriptRef(script)
	if err != nil {
		return a, fmt.Errorf("failed to create script ref: %w", err)
	}
	p := &OutputRequest{
		Address:   addr,
		Coin:      lovelace,
		Assets:    units,
		Datum:     datum,
		Inline:    datum != nil,
		ScriptRef: ref,
	}
	a.payments = append(a.payments, p)
	return a, nil
}

// --- UTxO consumption ---

// ConsumeUTxO spends utxo as an input, assigns payments against its value,
// and routes whatever is left over back to the wallet as an extra output.
func (a *Apollo) ConsumeUTxO(utxo common.Utxo, payments ...OutputRequester) (*Apollo, error) {
	utxoVal := a.utxoValue(utxo)
	totalPayments := Value{}
	for _, p := range payments {
		pv, err := p.ToValue()
		if err != nil {
			return a, fmt.Errorf("failed to compute payment value: %w", err)
		}
		totalPayments, err = totalPayments.Add(pv)
		if err != nil {
			return a, fmt.Errorf("payment value overflow: %w", err)
		}
	}

	remainder, err := utxoVal.Sub(totalPayments)
	if err != nil {
		return a, fmt.Errorf("UTxO value insufficient for payments: %w", err)
	}
	if remainder.Coin > 0 || remainder.HasAssets() {
		if a.wallet == nil {
			return a, errors.New("wallet required to receive UTxO remainder")
		}
	}

	// Only touch builder state once every check above has passed.
	a.preselectedUtxos = append(a.preselectedUtxos, utxo)
	a.payments = append(a.payments, payments...)
	if remainder.Coin > 0 || remainder.HasAssets() {
		remainderPayment := NewOutputRequestFromValue(a.wallet.Address(), remainder)
		a.payments = append(a.payments, remainderPayment)
	}
	return a, nil
}

func (a *Apollo) utxoValue(utxo common.Utxo) Value {
	v := Value{Coin: utxo.Output.Amount()}
	if utxo.Output.Assets() != nil {
		v.Assets = CloneMultiAsset(utxo.Output.Assets())
	}
	return v
}

// --- Staking support ---

// GetStakeCredentialFromWallet derives a staking credential from the
// attached wallet's address.
func (a *Apollo) GetStakeCredentialFromWallet() (common.Credential, error) {
	if a.wallet == nil {
		return common.Credential{}, errors.New("no wallet set")
	}
	return GetStakeCredentialFromAddress(a.wallet.Address())
}

// SetCertificates replaces the transaction's certificate list wholesale.
func (a *Apollo) SetCertificates(certs []common.CertificateWrapper) *Apollo {
	a.certificates = certs
	return a
}

// --- Stake (de)registration ---

// RegisterStake queues a stake-key registration certificate.
// credOrAddr accepts a *common.Credential, common.Credential, common.Address,
// bech32 string, or nil to fall back to the attached wallet.
func (a *Apollo) RegisterStake(credOrAddr any) (*Apollo, error) {
	cred, err := a.resolveCredential(credOrAddr)
	if err != nil {
		return a, err
	}
	cert := common.StakeRegistrationCertificate{
		CertType:        uint(common.CertificateTypeStakeRegistration),
		StakeCredential: cred,
	}
	a.certificates = append(a.certificates, common.CertificateWrapper{
		Type:        uint(common.CertificateTypeStakeRegistration),
		Certificate: &cert,
	})
	return a, nil
}

// DeregisterStake queues a stake-key deregistration certificate, refunding
// its deposit.
// credOrAddr accepts a *common.Credential, common.Credential, common.Address,
// bech32 string, or nil to fall back to the attached wallet.
func (a *Apollo) DeregisterStake(credOrAddr any) (*Apollo, error) {
	cred, err := a.resolveCredential(credOrAddr)
	if err != nil {
		return a, err
	}
	cert := common.StakeDeregistrationCertificate{
		CertType:        uint(common.CertificateTypeStakeDeregistration),
		StakeCredential: cred,
	}
	a.certificates = append(a.certificates, common.CertificateWrapper{
		Type:        uint(common.CertificateTypeStakeDeregistration),
		Certificate: &cert,
	})
	return a, nil
}

// --- Stake delegation ---

// DelegateStake queues a certificate delegating stake to poolHash.
// credOrAddr accepts a *common.Credential, common.Credential, common.Address,
// bech32 string, or nil to fall back to the attached wallet.
func (a *Apollo) DelegateStake(credOrAddr any, poolHash common.Blake2b224) (*Apollo, error) {
	cred, err := a.resolveCredential(credOrAddr)
	if err != nil {
		return a, err
	}
	cert := common.StakeDelegationCertificate{
		CertType:        uint(common.CertificateTypeStakeDelegation),
		StakeCredential: &cred,
		PoolKeyHash:     poolHash,
	}
	a.certificates = append(a.certificates, common.CertificateWrapper{
		Type:        uint(common.CertificateTypeStakeDelegation),
		Certificate: &cert,
	})
	return a, nil
}

// RegisterAndDelegateStake queues one certificate that both registers and
// delegates a stake credential, depositing coin.
// credOrAddr accepts a *common.Credential, common.Credential, common.Address,
// bech32 string, or nil to fall back to the attached wallet.
func (a *Apollo) RegisterAndDelegateStake(credOrAddr any, poolHash common.Blake2b224, coin int64) (*Apollo, error) {
	cred, err := a.resolveCredential(credOrAddr)
	if err != nil {
		return a, err
	}
	cert := common.StakeRegistrationDelegationCertificate{
		CertType:        uint(common.CertificateTypeStakeRegistrationDelegation),
		StakeCredential: cred,
		PoolKeyHash:     poolHash,
		Amount:          coin,
	}
	a.certificates = append(a.certificates, common.CertificateWrapper{
		Type:        uint(common.CertificateTypeStakeRegistrationDelegation),
		Certificate: &cert,
	})
	return a, nil
}

// --- Vote delegation ---

// DelegateVote queues a certificate delegating governance votes to drep.
// credOrAddr accepts a *common.Credential, common.Credential, common.Address,
// bech32 string, or nil to fall back to the attached wallet.
func (a *Apollo) DelegateVote(credOrAddr any, drep common.Drep) (*Apollo, error) {
	cred, err := a.resolveCredential(credOrAddr)
	if err != nil {
		return a, err
	}
	cert := common.VoteDelegationCertificate{
		CertType:        uint(common.CertificateTypeVoteDelegation),
		StakeCredential: cred,
		Drep:            drep,
	}
	a.certificates = append(a.certificates, common.CertificateWrapper{
		Type:        uint(common.CertificateTypeVoteDelegation),
		Certificate: &cert,
	})
	return a, nil
}

// DelegateStakeAndVote queues one certificate delegating both stake and
// governance votes in a single action.
// credOrAddr accepts a *common.Credential, common.Credential, common.Address,
// bech32 string, or nil to fall back to the attached wallet.
func (a *Apollo) DelegateStakeAndVote(credOrAddr any, poolHash common.Blake2b224, drep common.Drep) (*Apollo, error) {
	cred, err := a.resolveCredential(credOrAddr)
	if err != nil {
		return a, err
	}
	cert := common.StakeVoteDelegationCertificate{
		CertType:        uint(common.CertificateTypeStakeVoteDelegation),
		StakeCredential: cred,
		PoolKeyHash:     poolHash,
		Drep:            drep,
	}
	a.certificates = append(a.certificates, common.CertificateWrapper{
		Type:        uint(common.CertificateTypeStakeVoteDelegation),
		Certificate: &cert,
	})
	return a, nil
}

// RegisterAndDelegateVote queues one certificate that registers a stake
// credential and delegates its vote in the same action, depositing coin.
// credOrAddr accepts a *common.Credential, common.Credential, common.Address,
// bech32 string, or nil to fall back to the attached wallet.
func (a *Apollo) RegisterAndDelegateVote(credOrAddr any, drep common.Drep, coin int64) (*Apollo, error) {
	cred, err := a.resolveCredential(credOrAddr)
	if err != nil {
		return a, err
	}
	cert := common.VoteRegistrationDelegationCertificate{
		CertType:        uint(common.CertificateTypeVoteRegistrationDelegation),
		StakeCredential: cred,
		Drep:            drep,
		Amount:          coin,
	}
	a.certificates = append(a.certificates, common.CertificateWrapper{
		Type:        uint(common.CertificateTypeVoteRegistrationDelegation),
		Certificate: &cert,
	})
	return a, nil
}

// RegisterAndDelegateStakeAndVote queues a single certificate that
// registers a stake credential and delegates both its stake and its vote,
// depositing coin.
// credOrAddr accepts a *common.Credential, common.Credential, common.Address,
// bech32 string, or nil to fall back to the attached wallet.
func (a *Apollo) RegisterAndDelegateStakeAndVote(credOrAddr any, poolHash common.Blake2b224, drep common.Drep, coin int64) (*Apollo, error) {
	cred, err := a.resolveCredential(credOrAddr)
	if err != nil {
		return a, err
	}
	cert := common.StakeVoteRegistrationDelegationCertificate{
		CertType:        uint(common.CertificateTypeStakeVoteRegistrationDelegation),
		StakeCredential: cred,
		PoolKeyHash:     poolHash,
		Drep:            drep,
		Amount:          coin,
	}
	a.certificates = append(a.certificates, common.CertificateWrapper{
		Type:        uint(common.CertificateTypeStakeVoteRegistrationDelegation),
		Certificate: &cert,
	})
	return a, nil
}

// --- Pool operations ---

// RegisterPool queues a stake pool registration certificate.
func (a *Apollo) RegisterPool(params common.PoolRegistrationCertificate) *Apollo {
	params.CertType = uint(common.CertificateTypePoolRegistration)
	a.certificates = append(a.certificates, common.CertificateWrapper{
		Type:        uint(common.CertificateTypePoolRegistration),
		Certificate: &params,
	})
	return a
}

// DeregisterPool queues a certificate retiring a pool at the given epoch.
func (a *Apollo) DeregisterPool(poolHash common.Blake2b224, epoch uint64) *Apollo {
	cert := common.PoolRetirementCertificate{
		CertType:    uint(common.CertificateTypePoolRetirement),
		PoolKeyHash: poolHash,
		Epoch:       epoch,
	}
	a.certificates = append(a.certificates, common.CertificateWrapper{
		Type:        uint(common.CertificateTypePoolRetirement),
		Certificate: &cert,
	})
	return a
}

// --- Reward withdrawals ---

// AddWithdrawal queues a reward withdrawal from address's staking account.
// Pass redeemerData (and optionally exUnits) when the withdrawal is
// authorized by a script rather than a key signature.
func (a *Apollo) AddWithdrawal(address common.Address, amount uint64, redeemerData *common.Datum, exUnits *common.ExUnits) *Apollo {
	a.withdrawals[address.String()] = withdrawalEntry{Address: address, Amount: amount}
	if redeemerData != nil {
		skh := address.StakeKeyHash()
		key := hex.EncodeToString(skh.Bytes())
		entry := redeemerEntry{
			Tag:  common.RedeemerTagReward,
			Data: *redeemerData,
		}
		if exUnits != nil {
			entry.ExUnits = *exUnits
		}
		a.stakeRedeemers[key] = entry
		a.isEstimateRequired = true
	}
	return a
}

// --- Auxiliary metadata ---

// SetShelleyMetadata attaches auxiliary metadata keyed by metadata label.
func (a *Apollo) SetShelleyMetadata(metadata map[uint64]any) *Apollo {
	a.auxiliaryData = &auxData{metadata: metadata}
	return a
}

// --- Signing and witnesses ---

// AddVerificationKeyWitness appends an already-produced VKey witness to the
// built transaction.
func (a *Apollo) AddVerificationKeyWitness(witness common.VkeyWitness) (*Apollo, error) {
	if a.tx == nil {
		return a, errors.New("transaction not built - call Complete() first")
	}
	var witnesses []common.VkeyWitness
	if existing := a.tx.WitnessSet.VkeyWitnesses.Items(); existing != nil {
		witnesses = existing
	}
	witnesses = append(witnesses, witness)
	a.tx.WitnessSet.VkeyWitnesses = cbor.NewSetType(witnesses, true)
	return a, nil
}

// SignWithSkey signs the built transaction's body hash with a raw Ed25519
// seed, deriving (and using) the matching public key itself.
func (a *Apollo) SignWithSkey(vkey, skey []byte) (*Apollo, error) {
	if a.tx == nil {
		return a, errors.New("transaction not built - call Complete() first")
	}
	bodyCbor, err := cbor.Encode(&a.tx.Body)
	if err != nil {
		return a, fmt.Errorf("failed to encode tx body: %w", err)
	}
	a.tx.Body.SetCbor(bodyCbor)
	txHash := a.tx.Body.Id()

	if len(skey) < 32 {
		return a, errors.New("skey must be at least 32 bytes")
	}
	edKey := ed25519.NewKeyFromSeed(skey[:32])
	signature := ed25519.Sign(edKey, txHash.Bytes())

	// Derive the public key straight from the seed rather than trusting the
	// caller-supplied vkey, which could otherwise mismatch the signature.
	derivedVkey := edKey.Public().(ed25519.PublicKey)
	witness := common.VkeyWitness{
		Vkey:      derivedVkey,
		Signature: signature,
	}
	return a.AddVerificationKeyWitness(witness)
}

// --- Collateral sizing ---

// SetCollateralAmount overrides the lovelace amount auto-collateral
// selection aims to cover.
func (a *Apollo) SetCollateralAmount(amount int64) *Apollo {
	a.collateralAmount = amount
	return a
}

// --- Loading and inspection ---

// LoadTxCbor replaces the builder's transaction with one decoded from
// hex-encoded CBOR, e.g. to resume signing a transaction built elsewhere.
func (a *Apollo) LoadTxCbor(txCbor string) (*Apollo, error) {
	txBytes, err := hex.DecodeString(txCbor)
	if err != nil {
		return a, fmt.Errorf("invalid hex: %w", err)
	}
	var tx conway.ConwayTransaction
	if err := cbor.Decode(txBytes, &tx); err != nil {
		return a, fmt.Errorf("failed to decode transaction: %w", err)
	}
	a.tx = &tx
	return a, nil
}

// Clone returns an independent copy of the builder, safe to mutate without
// affecting the original.
func (a *Apollo) Clone() *Apollo {
	clone := &Apollo{
		Context:            a.Context,
		isEstimateRequired: a.isEstimateRequired,
		Fee:                a.Fee,
		FeePadding:         a.FeePadding,
		Ttl:                a.Ttl,
		ValidityStart:      a.ValidityStart,
		totalCollateral:    a.totalCollateral,
		collateralAmount:   a.collateralAmount,
		estimateExUnits:    a.estimateExUnits,
		wallet:             a.wallet,
		redeemers:          make(map[string]redeemerEntry),
		stakeRedeemers:     make(map[string]redeemerEntry),
		mintRedeemers:      make(map[string]redeemerEntry),
		withdrawals:        make(map[string]withdrawalEntry),
	}
	for _, p := range a.payments {
		if pp, ok := p.(*OutputRequest); ok {
			cp := *pp
			clone.payments = append(clone.payments, &cp)
		} else {
			clone.payments = append(clone.payments, p)
		}
	}
	clone.utxos = append(clone.utxos, a.utxos...)
	clone.preselectedUtxos = append(clone.preselectedUtxos, a.preselectedUtxos...)
	clone.inputAddresses = append(clone.inputAddresses, a.inputAddresses...)
	clone.datums = append(clone.datums, a.datums...)
	clone.requiredSigners = append(clone.requiredSigners, a.requiredSigners...)
	clone.v1scripts = append(clone.v1scripts, a.v1scripts...)
	clone.v2scripts = append(clone.v2scripts, a.v2scripts...)
	clone.v3scripts = append(clone.v3scripts, a.v3scripts...)
	clone.mint = append(clone.mint, a.mint...)
	clone.collaterals = append(clone.collaterals, a.collaterals...)
	clone.referenceInputs = append(clone.referenceInputs, a.referenceInputs...)
	clone.nativescripts = append(clone.nativescripts, a.nativescripts...)
	clone.usedUtxos = append(clone.usedUtxos, a.usedUtxos...)
	clone.certificates = append(clone.certificates, a.certificates...)
	clone.scriptHashes = append(clone.scriptHashes, a.scriptHashes...)
	maps.Copy(clone.redeemers, a.redeemers)
	maps.Copy(clone.stakeRedeemers, a.stakeRedeemers)
	maps.Copy(clone.mintRedeemers, a.mintRedeemers)
	maps.Copy(clone.withdrawals, a.withdrawals)
	if a.changeAddress != nil {
		addr := *a.changeAddress
		clone.changeAddress = &addr
	}
	if a.collateralReturn != nil {
		cr := *a.collateralReturn
		clone.collateralReturn = &cr
	}
	if a.auxiliaryData != nil {
		clonedMeta := make(map[uint64]any, len(a.auxiliaryData.metadata))
		maps.Copy(clonedMeta, a.auxiliaryData.metadata)
		clone.auxiliaryData = &auxData{metadata: clonedMeta}
	}
	if a.tx != nil {
		txBytes, err := cbor.Encode(a.tx)
		if err == nil {
			var txCopy conway.ConwayTransaction
			if err := cbor.Decode(txBytes, &txCopy); err == nil {
				clone.tx = &txCopy
			}
		}
		// A failed round-trip still leaves a usable (if shallow) copy.
		if clone.tx == nil {
			txCopy := *a.tx
			clone.tx = &txCopy
		}
	}
	return clone
}

// UtxoFromRef resolves a UTxO from the chain context by its hash and index.
func (a *Apollo) UtxoFromRef(txHash string, txIndex int) (*common.Utxo, error) {
	hashBytes, err := hex.DecodeString(txHash)
	if err != nil {
		return nil, fmt.Errorf("invalid tx hash hex: %w", err)
	}
	if len(hashBytes) != common.Blake2b256Size {
		return nil, fmt.Errorf("invalid tx hash length: expected %d bytes, got %d", common.Blake2b256Size, len(hashBytes))
	}
	if txIndex < 0 || txIndex > math.MaxUint32 {
		return nil, fmt.Errorf("tx index must be 0-%d, got %d", math.MaxUint32, txIndex)
	}
	var hash common.Blake2b256
	copy(hash[:], hashBytes)
	return a.Context.UtxoByRef(hash, uint32(txIndex))
}

// GetUsedUTxOs returns the UTxO references coin selection has already consumed.
func (a *Apollo) GetUsedUTxOs() []string {
	result := make([]string, len(a.usedUtxos))
	copy(result, a.usedUtxos)
	return result
}

// GetBurns returns the net minted-or-burned value queued so far.
func (a *Apollo) GetBurns() (Value, error) {
	return a.mintValue()
}

// GetWallet returns the wallet currently attached to the builder.
func (a *Apollo) GetWallet() Wallet {
	return a.wallet
}

// Complete runs coin selection, estimates execution units and fee, builds
// change, and assembles the final transaction body and witness set. It may
// only be called once per builder.
func (a *Apollo) Complete() (*Apollo, error) {
	if a.tx != nil {
		return a, errors.New("transaction already built - call Complete() only once")
	}
	if a.wallet == nil {
		return a, errors.New("wallet is required to complete transaction")
	}

	// Resolve registered input addresses into concrete UTxOs before collateral runs.
	if err := a.loadUtxos(); err != nil {
		return a, err
	}

	// Now that UTxOs are loaded, pick collateral automatically if none was pinned.
	a.setCollateral()

	// Turn queued output requests into wire-level outputs.
	outputs, err := a.buildOutputs()
	if err != nil {
		return a, err
	}

	// Sum what every output demands.
	totalRequired, err := a.totalOutputValue(outputs)
	if err != nil {
		return a, err
	}

	// Fold in net certificate deposits, using the chain's current key deposit.
	stakeDeposit := int64(StakeDeposit) // fallback
	if pp, ppErr := a.Context.ProtocolParams(); ppErr == nil {
		if d, dErr := strconv.ParseInt(pp.KeyDeposits, 10, 64); dErr == nil && d > 0 {
			stakeDeposit = d
		}
	}
	totalRequired = a.adjustForCertificateDeposits(totalRequired, stakeDeposit)

	// Start from preselected UTxOs, then add value the ledger treats as implicit input.
	totalInput := a.totalPreselectedValue()
	if len(a.withdrawals) > 0 {
		totalInput, err = totalInput.Add(a.totalWithdrawalValue())
		if err != nil {
			return a, fmt.Errorf("withdrawal value overflow: %w", err)
		}
	}
	if a.hasMint() {
		mv, err := a.mintValue()
		if err != nil {
			return a, err
		}
		totalInput, err = totalInput.Add(mv)
		if err != nil {
			return a, fmt.Errorf("mint value overflow: %w", err)
		}
	}
	// Deregistration refunds count as implicit input value too.
	refundValue := a.certificateRefundValue(stakeDeposit)
	if refundValue.Coin > 0 {
		totalInput, err = totalInput.Add(refundValue)
		if err != nil {
			return a, fmt.Errorf("refund value overflow: %w", err)
		}
	}

	// Coin selection runs before any fee has been computed, so pad the selection
	// target with the protocol's worst-case max fee so selection doesn't come up short.
	maxFee, feeErr := a.Context.MaxTxFee()
	if feeErr != nil {
		return a, fmt.Errorf("failed to compute max tx fee for coin selection: %w", feeErr)
	}
	prelimFee := int64(maxFee) //nolint:gosec // MaxTxFee fits in int64
	selectionTarget, err := totalRequired.Add(NewSimpleValue(uint64(prelimFee)))
	if err != nil {
		return a, fmt.Errorf("selection target overflow: %w", err)
	}

	// Pick UTxOs to cover the selection target.
	selectedUtxos, err := a.selectCoins(selectionTarget, totalInput)
	if err != nil {
		return a, fmt.Errorf("coin selection failed: %w", err)
	}

	// Combine preselected and newly-selected UTxOs into the final input set.
	allInputUtxos := make([]common.Utxo, 0, len(a.preselectedUtxos)+len(selectedUtxos))
	allInputUtxos = append(allInputUtxos, a.preselectedUtxos...)
	allInputUtxos = append(allInputUtxos, selectedUtxos...)
	allInputUtxos = SortInputs(allInputUtxos)

	// If any redeemer still needs execution units, evaluate the draft transaction.
	if a.isEstimateRequired && a.estimateExUnits {
		if err := a.estimateExecutionUnits(allInputUtxos, outputs); err != nil {
			return a, fmt.Errorf("ExUnit estimation failed: %w", err)
		}
	}

	// Fee and change are mutually dependent: the fee estimate below excludes a
	// change output, but adding one changes the encoded size and therefore the
	// fee. Iterate estimate-fee -> build-change -> re-estimate-fee until the
	// fee stops growing; this settles within a couple of rounds in practice.
	const maxFeeIterations = 3
	baseOutputs := make([]babbage.BabbageTransactionOutput, len(outputs))
	copy(baseOutputs, outputs)

	var fee int64
	if a.forceFee {
		fee = a.Fee
	} else {
		fee, err = a.estimateFee(allInputUtxos, outputs)
		if err != nil {
			return a, fmt.Errorf("fee estimation failed: %w", err)
		}
		if a.Fee > 0 {
			fee = a.Fee
		}
	}
	fee += a.FeePadding
	if fee < 0 {
		fee = 0
	}

	// totalInput is fixed across the iterations below; compute it once.
	totalInput = a.sumUtxoValues(allInputUtxos)
	if a.hasMint() {
		mv, err := a.mintValue()
		if err != nil {
			return a, err
		}
		totalInput, err = totalInput.Add(mv)
		if err != nil {
			return a, err
		}
	}
	// Withdrawn rewards are implicit input value under the ledger's balance rule.
	if len(a.withdrawals) > 0 {
		totalInput, err = totalInput.Add(a.totalWithdrawalValue())
		if err != nil {
			return a, fmt.Errorf("withdrawal value overflow: %w", err)
		}
	}
	// Deregistration refunds count as implicit input value too.
	if refundValue.Coin > 0 {
		totalInput, err = totalInput.Add(refundValue)
		if err != nil {
			return a, fmt.Errorf("refund value overflow: %w", err)
		}
	}

	changeAddr := a.getChangeAddress()

	for range maxFeeIterations {
		// Start each iteration from the pre-change output set.
		outputs = make([]babbage.BabbageTransactionOutput, len(baseOutputs))
		copy(outputs, baseOutputs)

		// totalRequired already folds in deposits and totalInput already folds in refunds.
		feeValue := NewSimpleValue(uint64(fee))
		totalNeeded, err := totalRequired.Add(feeValue)
		if err != nil {
			return a, fmt.Errorf("required value overflow: %w", err)
		}
		changeValue, err := totalInput.Sub(totalNeeded)
		if err != nil {
			return a, fmt.Errorf("insufficient funds: %w", err)
		}

		if changeValue.Coin > 0 || changeValue.HasAssets() {
			changeOutput := NewBabbageOutput(changeAddr, changeValue, nil, nil)
			pp, err := a.Context.ProtocolParams()
			if err != nil {
				return a, fmt.Errorf("failed to get protocol params for change output: %w", err)
			}
			minChange, err := MinLovelacePostAlonzo(&changeOutput, pp.CoinsPerUtxoByteValue())
			if err != nil {
				return a, fmt.Errorf("failed to compute min UTxO for change output: %w", err)
			}
			if int64(changeValue.Coin) >= minChange {
				outputs = append(outputs, changeOutput)
			} else if changeValue.HasAssets() {
				// Assets without enough accompanying ADA: raise the change output's coin
				// to the minimum and make up the difference from input value.
				shortfall := uint64(minChange) - changeValue.Coin
				changeValue.Coin = uint64(minChange)
				changeOutput = NewBabbageOutput(changeAddr, changeValue, nil, nil)
				actualMin, err := MinLovelacePostAlonzo(&changeOutput, pp.CoinsPerUtxoByteValue())
				if err != nil {
					return a, fmt.Errorf("failed to compute actual min UTxO for change output: %w", err)
				}
				if actualMin > minChange {
					shortfall += uint64(actualMin) - uint64(minChange)
					changeValue.Coin = uint64(actualMin)
					changeOutput = NewBabbageOutput(changeAddr, changeValue, nil, nil)
				}
				// Confirm the raised change amount is actually affordable: totalInput
				// already includes refunds, so compare against outputs plus deposits.
				totalInputCoin := totalInput.Coin
				totalOutputCoin := uint64(0)
				for _, out := range outputs {
					totalOutputCoin += out.OutputAmount.Amount
				}
				totalOutputCoin += changeValue.Coin + uint64(fee)
				depositAdj := a.certificateDepositAdjustment(stakeDeposit)
				if depositAdj > 0 {
					totalOutputCoin += uint64(depositAdj)
				}
				if totalOutputCoin > totalInputCoin {
					return a, fmt.Errorf("insufficient funds: need %d more lovelace for change output min UTxO", totalOutputCoin-totalInputCoin)
				}
				_ = shortfall // verified via balance check above
				outputs = append(outputs, changeOutput)
			} else if !a.forceFee {
				// An ADA-only remainder below the minimum UTxO threshold, with no assets
				// to preserve, is folded into the fee rather than output.
				fee += int64(changeValue.Coin)
			}
		}

		// An explicit fee short-circuits re-estimation; otherwise price the
		// output set now that change is included.
		if a.Fee > 0 {
			break
		}
		newFee, err := a.estimateFee(allInputUtxos, outputs)
		if err != nil {
			return a, fmt.Errorf("fee re-estimation failed: %w", err)
		}
		newFee += a.FeePadding
		if newFee < 0 {
			newFee = 0
		}
		if newFee <= fee {
			// No further growth in the fee estimate, so this round's value stands.
			break
		}
		fee = newFee
	}

	// Assemble the transaction body from inputs, outputs, and fee.
	body, err := a.buildBody(allInputUtxos, outputs, uint64(fee))
	if err != nil {
		return a, err
	}

	// Assemble the witness set from scripts, datums, and redeemers collected so far.
	witnessSet := a.buildWitnessSet(allInputUtxos)

	// Wrap body and witness set into the final transaction value.
	a.tx = &conway.ConwayTransaction{
		Body:       body,
		WitnessSet: witnessSet,
		TxIsValid:  true,
	}

	// Attach auxiliary metadata, if any was set.
	if a.auxiliaryData != nil {
		md, mdErr := a.buildMetadata()
		if mdErr != nil {
			return a, fmt.Errorf("failed to build metadata: %w", mdErr)
		}
		if md != nil {
			a.tx.TxMetadata = md
		}
	}

	return a, nil
}

// Sign produces a VKey witness from the attached wallet and appends it.
func (a *Apollo) Sign() (*Apollo, error) {
	if a.tx == nil {
		return a, errors.New("transaction not built - call Complete() first")
	}
	if a.wallet == nil {
		return a, errors.New("no wallet set")
	}

	// Id() needs the body's own CBOR bytes cached before it can hash them.
	bodyCbor, err := cbor.Encode(&a.tx.Body)
	if err != nil {
		return a, fmt.Errorf("failed to encode tx body: %w", err)
	}
	a.tx.Body.SetCbor(bodyCbor)

	txHash := a.tx.Body.Id()

	witness, err := a.wallet.SignTxBody(txHash)
	if err != nil {
		return a, fmt.Errorf("signing failed: %w", err)
	}

	var witnesses []common.VkeyWitness
	if existing := a.tx.WitnessSet.VkeyWitnesses.Items(); existing != nil {
		witnesses = existing
	}
	witnesses = append(witnesses, witness)
	a.tx.WitnessSet.VkeyWitnesses = cbor.NewSetType(witnesses, true)
	return a, nil
}

// GetTx returns the transaction built by Complete(), or nil before it runs.
func (a *Apollo) GetTx() *conway.ConwayTransaction {
	return a.tx
}

// GetTxCbor CBOR-encodes the built transaction.
func (a *Apollo) GetTxCbor() ([]byte, error) {
	if a.tx == nil {
		return nil, errors.New("no transaction built")
	}
	return cbor.Encode(a.tx)
}

// Submit encodes and sends the built transaction to the chain context.
func (a *Apollo) Submit() (common.Blake2b256, error) {
	txCbor, err := a.GetTxCbor()
	if err != nil {
		return common.Blake2b256{}, err
	}
	return a.Context.SubmitTx(txCbor)
}

// --- internal plumbing ---

func (a *Apollo) loadUtxos() error {
	for _, addr := range a.inputAddresses {
		utxos, err := a.Context.Utxos(addr)
		if err != nil {
			return fmt.Errorf("failed to load UTxOs for %s: %w", addr.String(), err)
		}
		a.utxos = append(a.utxos, utxos...)
	}
	// With nothing pinned or preselected, fall back to the wallet's own UTxOs.
	if len(a.utxos) == 0 && len(a.preselectedUtxos) == 0 && a.wallet != nil {
		utxos, err := a.Context.Utxos(a.wallet.Address())
		if err != nil {
			return fmt.Errorf("failed to load wallet UTxOs: %w", err)
		}
		a.utxos = utxos
	}
	return nil
}

func (a *Apollo) buildOutputs() ([]babbage.BabbageTransactionOutput, error) {
	outputs := make([]babbage.BabbageTransactionOutput, 0, len(a.payments))
	for _, payment := range a.payments {
		if err := payment.EnsureMinUTXO(a.Context); err != nil {
			return nil, fmt.Errorf("failed to ensure min UTxO: %w", err)
		}
		txOut, err := payment.ToTxOut()
		if err != nil {
			return nil, fmt.Errorf("failed to build payment output: %w", err)
		}
		outputs = append(outputs, *txOut)
	}
	return outputs, nil
}

func (a *Apollo) totalOutputValue(outputs []babbage.BabbageTransactionOutput) (Value, error) {
	total := Value{}
	for _, out := range outputs {
		var err error
		total, err = total.Add(ValueFromMaryValue(out.OutputAmount))
		if err != nil {
			return Value{}, fmt.Errorf("output value overflow: %w", err)
		}
	}
	return total, nil
}

func (a *Apollo) totalPreselectedValue() Value {
	return a.sumUtxoValues(a.preselectedUtxos)
}

func (a *Apollo) sumUtxoValues(utxos []common.Utxo) Value {
	total := Value{}
	for _, utxo := range utxos {
		amt := utxo.Output.Amount()
		sum := total.Coin + amt
		if sum < total.Coin {
			// Saturate instead of wrapping past max uint64.
			total.Coin = math.MaxUint64
		} else {
			total.Coin = sum
		}
		if utxo.Output.Assets() != nil {
			if total.Assets == nil {
				total.Assets = CloneMultiAsset(utxo.Output.Assets())
			} else {
				total.Assets.Add(utxo.Output.Assets())
			}
		}
	}
	return total
}

// selectCoins delegates to the large-first coin selector: currentInput
// (already-committed coin + assets from preselected/consumed UTxOs) is
// passed as the selector's implicit value rather than as UTxO objects,
// since by this point it is already folded into a single Value.
func (a *Apollo) selectCoins(required, currentInput Value) ([]common.Utxo, error) {
	available := make([]common.Utxo, 0, len(a.utxos))
	for _, utxo := range a.utxos {
		if !a.isUsed(utxoRef(utxo)) {
			available = append(available, utxo)
		}
	}

	sel := selector.LargeFirst{}
	selected, _, err := sel.Select(available, nil, toSelectorValue(required), toSelectorValue(currentInput))
	if err != nil {
		var insufficient *selector.InsufficientFundsError
		if errors.As(err, &insufficient) {
			return nil, fmt.Errorf("insufficient UTxOs to cover required value: %s", insufficient.Asset)
		}
		return nil, err
	}

	selectedRefs := make([]string, len(selected))
	for i, utxo := range selected {
		selectedRefs[i] = utxoRef(utxo)
	}
	a.usedUtxos = append(a.usedUtxos, selectedRefs...)
	return selected, nil
}

func toSelectorValue(v Value) selector.Value {
	return selector.Value{Coin: v.Coin, Assets: v.Assets}
}

func (a *Apollo) estimateFee(inputs []common.Utxo, outputs []babbage.BabbageTransactionOutput) (int64, error) {
	pp, err := a.Context.ProtocolParams()
	if err != nil {
		return 0, err
	}

	// A throwaway transaction stands in for size measurement.
	body, err := a.buildBody(inputs, outputs, 0)
	if err != nil {
		return 0, err
	}
	ws := a.buildWitnessSet(inputs)
	// Placeholder witnesses stand in for the wallet's and each required
	// signer's real ones so the size estimate accounts for them. A caller
	// adding extra signers after Complete() should cover the gap with
	// SetFeePadding().
	witnessCount := 1 + len(a.requiredSigners)
	fakeWitnesses := make([]common.VkeyWitness, witnessCount)
	for i := range fakeWitnesses {
		fakeWitnesses[i] = common.VkeyWitness{
			Vkey:      make([]byte, 32),
			Signature: make([]byte, 64),
		}
	}
	ws.VkeyWitnesses = cbor.NewSetType(fakeWitnesses, true)

	dummyTx := conway.ConwayTransaction{
		Body:       body,
		WitnessSet: ws,
		TxIsValid:  true,
	}
	if a.auxiliaryData != nil {
		md, mdErr := a.buildMetadata()
		if mdErr != nil {
			return 0, mdErr
		}
		if md != nil {
			dummyTx.TxMetadata = md
		}
	}

	txBytes, err := cbor.Encode(&dummyTx)
	if err != nil {
		return 0, fmt.Errorf("failed to encode dummy tx: %w", err)
	}

	var totalMem, totalSteps int64
	redeemerMap := a.buildRedeemerMap(inputs)
	for _, rv := range redeemerMap {
		totalMem += rv.ExUnits.Memory
		totalSteps += rv.ExUnits.Steps
	}

	refScriptBytes := a.referenceScriptBytes(outputs)

	fee := balance.TotalFee(
		len(txBytes), pp.MinFeeCoefficient, pp.MinFeeConstant,
		totalMem, totalSteps, pp.PriceMem, pp.PriceStep,
		refScriptBytes, int64(pp.MinFeeReferenceScriptsBase),
	)
	return fee, nil
}

// referenceScriptBytes sums the CBOR-encoded size of every reference script
// this transaction carries: scripts attached to its own outputs, plus
// scripts already sitting on UTxOs it names as reference inputs.
func (a *Apollo) referenceScriptBytes(outputs []babbage.BabbageTransactionOutput) int {
	total := 0
	for i := range outputs {
		total += scriptRefSize(outputs[i].TxOutScriptRef)
	}
	for _, ref := range a.referenceInputs {
		want := common.TransactionInput{TxId: ref.TxId, OutputIndex: ref.OutputIndex}
		for _, utxo := range a.utxos {
			if utxo.Id == want {
				if out, ok := utxo.Output.(*babbage.BabbageTransactionOutput); ok {
					total += scriptRefSize(out.TxOutScriptRef)
				}
			}
		}
	}
	return total
}

func scriptRefSize(ref *common.ScriptRef) int {
	if ref == nil {
		return 0
	}
	raw, err := cbor.Encode(ref)
	if err != nil {
		return 0
	}
	return len(raw)
}

// estimateExecutionUnits builds a draft transaction and evaluates it
// so the chain context can return real execution units for script redeemers.
// The returned ExUnits are padded above the raw evaluator numbers.
func (a *Apollo) estimateExecutionUnits(inputs []common.Utxo, outputs []babbage.BabbageTransactionOutput) error {
	// Evaluate against a draft built with whatever ExUnits are currently set.
	body, err := a.buildBody(inputs, outputs, 0)
	if err != nil {
		return fmt.Errorf("failed to build preliminary tx body: %w", err)
	}
	ws := a.buildWitnessSet(inputs)

	// Placeholder witnesses round out the draft so evaluation sees a realistic size.
	witnessCount := 1 + len(a.requiredSigners)
	fakeWitnesses := make([]common.VkeyWitness, witnessCount)
	for i := range fakeWitnesses {
		fakeWitnesses[i] = common.VkeyWitness{
			Vkey:      make([]byte, 32),
			Signature: make([]byte, 64),
		}
	}
	ws.VkeyWitnesses = cbor.NewSetType(fakeWitnesses, true)

	prelimTx := conway.ConwayTransaction{
		Body:       body,
		WitnessSet: ws,
		TxIsValid:  true,
	}
	if a.auxiliaryData != nil {
		md, mdErr := a.buildMetadata()
		if mdErr != nil {
			return mdErr
		}
		if md != nil {
			prelimTx.TxMetadata = md
		}
	}
	txBytes, err := cbor.Encode(&prelimTx)
	if err != nil {
		return fmt.Errorf("failed to encode preliminary tx: %w", err)
	}

	evalResult, err := a.Context.EvaluateTx(txBytes)
	if err != nil {
		return fmt.Errorf("EvaluateTx failed: %w", err)
	}

	// Write the evaluator's numbers back onto the matching redeemer, padded for safety.
	for evalKey, evalUnits := range evalResult {
		bufferedUnits := common.ExUnits{
			Memory: int64(float64(evalUnits.Memory) * (1 + ExMemoryBuffer)),
			Steps:  int64(float64(evalUnits.Steps) * (1 + ExStepBuffer)),
		}
		switch evalKey.Tag {
		case common.RedeemerTagSpend:
			// Match the evaluated index back to the input it redeems.
			if int(evalKey.Index) < len(inputs) {
				ref := utxoRef(inputs[evalKey.Index])
				if entry, ok := a.redeemers[ref]; ok {
					entry.ExUnits = bufferedUnits
					a.redeemers[ref] = entry
				}
			}
		case common.RedeemerTagMint:
			sortedPolicies := a.sortedMintPolicyIds()
			if int(evalKey.Index) < len(sortedPolicies) {
				policyHex := sortedPolicies[evalKey.Index]
				if entry, ok := a.mintRedeemers[policyHex]; ok {
					entry.ExUnits = bufferedUnits
					a.mintRedeemers[policyHex] = entry
				}
			}
		case common.RedeemerTagReward:
			sortedWdAddrs := a.sortedWithdrawalKeys()
			if int(evalKey.Index) < len(sortedWdAddrs) {
				addrKey := sortedWdAddrs[evalKey.Index]
				wd := a.withdrawals[addrKey]
				skhHex := hex.EncodeToString(wd.Address.StakeKeyHash().Bytes())
				if entry, ok := a.stakeRedeemers[skhHex]; ok {
					entry.ExUnits = bufferedUnits
					a.stakeRedeemers[skhHex] = entry
				}
			}
		}
	}

	return nil
}

func (a *Apollo) buildBody(
	inputs []common.Utxo,
	outputs []babbage.BabbageTransactionOutput,
	fee uint64,
) (conway.ConwayTransactionBody, error) {
	// Assemble the sorted transaction input set.
	txInputs := make([]shelley.ShelleyTransactionInput, 0, len(inputs))
	for _, utxo := range inputs {
		txId := utxo.Id.Id()
		idx := utxo.Id.Index()
		input := shelley.ShelleyTransactionInput{
			TxId:        txId,
			OutputIndex: idx,
		}
		txInputs = append(txInputs, input)
	}

	inputSet := conway.NewConwayTransactionInputSet(txInputs)

	body := conway.ConwayTransactionBody{
		TxInputs:  inputSet,
		TxOutputs: outputs,
		TxFee:     fee,
	}

	if a.Ttl > 0 {
		body.Ttl = uint64(a.Ttl)
	}
	if a.ValidityStart > 0 {
		body.TxValidityIntervalStart = uint64(a.ValidityStart)
	}

	// Attach the mint asset map, if any.
	if a.hasMint() {
		mintAsset, err := a.buildMintAsset()
		if err != nil {
			return body, err
		}
		body.TxMint = mintAsset
	}

	// Attach the required-signer set, if any.
	if len(a.requiredSigners) > 0 {
		body.TxRequiredSigners = cbor.NewSetType(a.requiredSigners, true)
	}

	// Attach reference inputs, if any.
	if len(a.referenceInputs) > 0 {
		body.TxReferenceInputs = cbor.NewSetType(a.referenceInputs, true)
	}

	// Attach certificates, if any.
	if len(a.certificates) > 0 {
		body.TxCertificates = a.certificates
	}

	// Attach reward withdrawals, if any.
	if len(a.withdrawals) > 0 {
		wdMap := make(map[*common.Address]uint64, len(a.withdrawals))
		for _, wd := range a.withdrawals {
			addr := wd.Address
			wdMap[&addr] = wd.Amount
		}
		body.TxWithdrawals = wdMap
	}

	// Hash auxiliary data, if present.
	if a.auxiliaryData != nil {
		auxHash, auxErr := a.computeAuxDataHash()
		if auxErr != nil {
			return body, fmt.Errorf("failed to compute aux data hash: %w", auxErr)
		}
		body.TxAuxDataHash = auxHash
	}

	// Attach collateral inputs and return output, if any.
	if len(a.collaterals) > 0 {
		collInputs := make([]shelley.ShelleyTransactionInput, 0, len(a.collaterals))
		for _, utxo := range a.collaterals {
			txId := utxo.Id.Id()
			idx := utxo.Id.Index()
			collInputs = append(collInputs, shelley.ShelleyTransactionInput{
				TxId:        txId,
				OutputIndex: idx,
			})
		}
		body.TxCollateral = cbor.NewSetType(collInputs, true)
		if a.totalCollateral > 0 {
			body.TxTotalCollateral = uint64(a.totalCollateral)
		}
		if a.collateralReturn != nil {
			body.TxCollateralReturn = a.collateralReturn
		}
	}

	// Compute and attach the script data hash.
	if len(a.redeemers) > 0 || len(a.mintRedeemers) > 0 || len(a.stakeRedeemers) > 0 || len(a.datums) > 0 {
		pp, err := a.Context.ProtocolParams()
		if err != nil {
			return body, err
		}
		redeemerMap := a.buildRedeemerMap(inputs)
		hash, err := ComputeScriptDataHash(redeemerMap, a.datums, pp.CostModels)
		if err != nil {
			return body, err
		}
		body.TxScriptDataHash = hash
	}

	// Tag the body with the network ID.
	netId := a.Context.NetworkId()
	body.TxNetworkId = &netId

	return body, nil
}

func (a *Apollo) buildWitnessSet(inputs []common.Utxo) conway.ConwayTransactionWitnessSet {
	ws := conway.ConwayTransactionWitnessSet{}

	if len(a.v1scripts) > 0 {
		ws.WsPlutusV1Scripts = cbor.NewSetType(a.v1scripts, true)
	}
	if len(a.v2scripts) > 0 {
		ws.WsPlutusV2Scripts = cbor.NewSetType(a.v2scripts, true)
	}
	if len(a.v3scripts) > 0 {
		ws.WsPlutusV3Scripts = cbor.NewSetType(a.v3scripts, true)
	}
	if len(a.nativescripts) > 0 {
		ws.WsNativeScripts = cbor.NewSetType(a.nativescripts, true)
	}
	if len(a.datums) > 0 {
		ws.WsPlutusData = cbor.NewSetType(a.datums, true)
	}

	redeemerMap := a.buildRedeemerMap(inputs)
	if len(redeemerMap) > 0 {
		ws.WsRedeemers = conway.ConwayRedeemers{
			Redeemers: redeemerMap,
		}
	}

	return ws
}

func (a *Apollo) buildRedeemerMap(inputs []common.Utxo) map[common.RedeemerKey]common.RedeemerValue {
	result := make(map[common.RedeemerKey]common.RedeemerValue)

	// Spend redeemer indices follow sorted input position.
	for ref, entry := range a.redeemers {
		found := false
		idx := uint32(0)
		for i, utxo := range inputs {
			if utxoRef(utxo) == ref {
				idx = uint32(i)
				found = true
				break
			}
		}
		if !found {
			continue
		}
		key := common.RedeemerKey{Tag: entry.Tag, Index: idx}
		result[key] = common.RedeemerValue{Data: entry.Data, ExUnits: entry.ExUnits}
	}

	// Mint redeemer indices follow sorted policy-ID order within the mint field.
	if len(a.mintRedeemers) > 0 {
		sortedPolicies := a.sortedMintPolicyIds()
		for policyHex, entry := range a.mintRedeemers {
			found := false
			idx := uint32(0)
			for i, p := range sortedPolicies {
				if p == policyHex {
					idx = uint32(i)
					found = true
					break
				}
			}
			if !found {
				continue
			}
			key := common.RedeemerKey{Tag: common.RedeemerTagMint, Index: idx}
			result[key] = common.RedeemerValue{Data: entry.Data, ExUnits: entry.ExUnits}
		}
	}

	// Reward redeemer indices follow sorted withdrawal-address order.
	if len(a.stakeRedeemers) > 0 {
		sortedWdAddrs := a.sortedWithdrawalKeys()
		for skhHex, entry := range a.stakeRedeemers {
			found := false
			idx := uint32(0)
			for i, addrKey := range sortedWdAddrs {
				wd := a.withdrawals[addrKey]
				addrSKH := hex.EncodeToString(wd.Address.StakeKeyHash().Bytes())
				if addrSKH == skhHex {
					idx = uint32(i)
					found = true
					break
				}
			}
			if !found {
				continue
			}
			key := common.RedeemerKey{Tag: common.RedeemerTagReward, Index: idx}
			result[key] = common.RedeemerValue{Data: entry.Data, ExUnits: entry.ExUnits}
		}
	}

	return result
}

// sortedMintPolicyIds returns the distinct mint policy IDs in sorted order.
func (a *Apollo) sortedMintPolicyIds() []string {
	seen := make(map[string]bool)
	var policies []string
	for _, unit := range a.mint {
		if !seen[unit.PolicyHex] {
			seen[unit.PolicyHex] = true
			policies = append(policies, unit.PolicyHex)
		}
	}
	sort.Strings(policies)
	return policies
}

// totalWithdrawalValue sums the lovelace from every queued withdrawal.
func (a *Apollo) totalWithdrawalValue() Value {
	var total uint64
	for _, wd := range a.withdrawals {
		sum := total + wd.Amount
		if sum < total {
			// Saturate instead of wrapping past max uint64.
			total = math.MaxUint64
			break
		}
		total = sum
	}
	return NewSimpleValue(total)
}

// sortedWithdrawalKeys orders the withdrawal map's keys by raw address bytes.
// Ordering must match the ledger's CBOR canonical order, since redeemers
// reference inputs/withdrawals by sorted position.
func (a *Apollo) sortedWithdrawalKeys() []string {
	type entry struct {
		key       string
		addrBytes []byte
	}
	entries := make([]entry, 0, len(a.withdrawals))
	for k, wd := range a.withdrawals {
		b, err := wd.Address.Bytes()
		if err != nil {
			// An address that fails to encode still needs a stable sort key; empty
			// bytes keep the ordering deterministic.
			b = nil
		}
		entries = append(entries, entry{key: k, addrBytes: b})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].addrBytes, entries[j].addrBytes) < 0
	})
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys
}

func (a *Apollo) hasMint() bool {
	return len(a.mint) > 0
}

func (a *Apollo) mintValue() (Value, error) {
	total := Value{}
	for _, unit := range a.mint {
		uv, err := unit.ToValue()
		if err != nil {
			return Value{}, fmt.Errorf("invalid mint unit %s: %w", unit.PolicyHex, err)
		}
		total, err = total.Add(uv)
		if err != nil {
			return Value{}, fmt.Errorf("mint value overflow: %w", err)
		}
	}
	return total, nil
}

// GetMints returns the net queued mint/burn value, positive and negative
// quantities combined.
func (a *Apollo) GetMints() (Value, error) {
	return a.mintValue()
}

func (a *Apollo) buildMintAsset() (*common.MultiAsset[common.MultiAssetTypeMint], error) {
	data := make(map[common.Blake2b224]map[cbor.ByteString]*big.Int)
	for _, unit := range a.mint {
		policyBytes, err := hex.DecodeString(unit.PolicyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid mint policy ID hex %q: %w", unit.PolicyHex, err)
		}
		if len(policyBytes) != common.Blake2b224Size {
			return nil, fmt.Errorf("invalid policy ID length for %q: expected %d bytes, got %d", unit.PolicyHex, common.Blake2b224Size, len(policyBytes))
		}
		var policyId common.Blake2b224
		copy(policyId[:], policyBytes)

		nameBytes, err := hex.DecodeString(unit.NameHex)
		if err != nil {
			return nil, fmt.Errorf("invalid asset name hex %q: %w (asset names must be hex-encoded)", unit.NameHex, err)
		}

		if _, ok := data[policyId]; !ok {
			data[policyId] = make(map[cbor.ByteString]*big.Int)
		}
		key := cbor.NewByteString(nameBytes)
		if existing, ok := data[policyId][key]; ok {
			data[policyId][key] = new(big.Int).Add(existing, big.NewInt(unit.Amount))
		} else {
			data[policyId][key] = big.NewInt(unit.Amount)
		}
	}
	result := common.NewMultiAsset[common.MultiAssetTypeMint](data)
	return &result, nil
}

func (a *Apollo) isUsed(ref string) bool {
	if slices.Contains(a.usedUtxos, ref) {
		return true
	}
	// Preselected UTxOs count as used too.
	for _, utxo := range a.preselectedUtxos {
		if utxoRef(utxo) == ref {
			return true
		}
	}
	return false
}

func utxoRef(utxo common.Utxo) string {
	return hex.EncodeToString(utxo.Id.Id().Bytes()) + "#" + strconv.Itoa(int(utxo.Id.Index()))
}

// getChangeAddress prefers an explicitly set address, falling back to the wallet's.
func (a *Apollo) getChangeAddress() common.Address {
	if a.changeAddress != nil {
		return *a.changeAddress
	}
	return a.wallet.Address()
}

// hasScripts reports whether the transaction involves script execution
// (either attached directly or referenced via reference scripts).
func (a *Apollo) hasScripts() bool {
	return len(a.v1scripts) > 0 || len(a.v2scripts) > 0 || len(a.v3scripts) > 0 ||
		len(a.redeemers) > 0 || len(a.mintRedeemers) > 0 || len(a.stakeRedeemers) > 0
}

// setCollateral picks collateral UTxOs automatically when none were pinned.
func (a *Apollo) setCollateral() {
	if len(a.collaterals) > 0 || !a.hasScripts() {
		return
	}
	// Derive the target from protocol parameters when one wasn't set explicitly.
	// Target collateral as maxFee scaled by the protocol's collateral percentage.
	minCollateral := int64(5_000_000) // conservative fallback
	if a.collateralAmount > 0 {
		minCollateral = a.collateralAmount
	} else if pp, err := a.Context.ProtocolParams(); err == nil {
		if maxFee, err := a.Context.MaxTxFee(); err == nil && pp.CollateralPercent > 0 {
			computed := int64(maxFee) * int64(pp.CollateralPercent) / 100
			if computed > 0 {
				minCollateral = computed
			}
		}
	}

	candidates := a.utxos
	if len(candidates) == 0 && a.wallet != nil {
		loaded, err := a.Context.Utxos(a.wallet.Address())
		if err == nil {
			candidates = loaded
		}
	}

	for _, utxo := range candidates {
		if a.isUsed(utxoRef(utxo)) {
			continue
		}
		if utxo.Output.Assets() != nil {
			continue
		}
		amt := utxo.Output.Amount()
		if amt > math.MaxInt64 {
			continue
		}
		lovelace := int64(amt)
		if lovelace >= minCollateral {
			a.collaterals = append(a.collaterals, utxo)
			a.usedUtxos = append(a.usedUtxos, utxoRef(utxo))
			a.totalCollateral = minCollateral
			// Route leftover collateral value back via a collateral return output.
			remainder := lovelace - minCollateral
			if remainder > 0 {
				returnVal := Value{Coin: uint64(remainder)}
				ret := NewBabbageOutput(a.getChangeAddress(), returnVal, nil, nil)
				a.collateralReturn = &ret
			}
			return
		}
	}
}

// adjustForCertificateDeposits folds net certificate deposit cost into required.
func (a *Apollo) adjustForCertificateDeposits(required Value, depositPerCert int64) Value {
	adj := a.certificateDepositAdjustment(depositPerCert)
	if adj > 0 {
		required.Coin += uint64(adj)
	}
	return required
}

// certificateRefundValue sums the deposit refunded by deregistration certificates.
// Deregistration refunds count as implicit input value under the ledger's balance rule.
func (a *Apollo) certificateRefundValue(depositPerCert int64) Value {
	adj := a.certificateDepositAdjustment(depositPerCert)
	if adj < 0 {
		return NewSimpleValue(uint64(-adj))
	}
	return NewSimpleValue(0)
}

// certificateDepositAdjustment nets registration deposits against deregistration refunds.
// A positive result means net deposits owed; negative means net refunds.
func (a *Apollo) certificateDepositAdjustment(depositPerCert int64) int64 {
	var adjustment int64
	for _, cert := range a.certificates {
		switch cert.Type {
		case uint(common.CertificateTypeStakeRegistration),
			uint(common.CertificateTypeRegistration),
			uint(common.CertificateTypeStakeRegistrationDelegation),
			uint(common.CertificateTypeVoteRegistrationDelegation),
			uint(common.CertificateTypeStakeVoteRegistrationDelegation):
			adjustment += depositPerCert
		case uint(common.CertificateTypeStakeDeregistration),
			uint(common.CertificateTypeDeregistration):
			adjustment -= depositPerCert
		}
	}
	return adjustment
}

// computeAuxDataHash blake2b-256-hashes the CBOR encoding of the auxiliary data.
// It must produce the same MetaMap shape used in the transaction body, or
// the hash here won't match the one that gets signed.
func (a *Apollo) computeAuxDataHash() (*common.Blake2b256, error) {
	if a.auxiliaryData == nil {
		return nil, nil
	}
	md, err := a.buildMetadata()
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata: %w", err)
	}
	if md == nil {
		return nil, nil
	}
	mdBytes, err := cbor.Encode(md)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	hash := common.Blake2b256Hash(mdBytes)
	return &hash, nil
}

// buildMetadata turns the auxiliary data map into a MetaMap with stable key order.
func (a *Apollo) buildMetadata() (*common.MetaMap, error) {
	if a.auxiliaryData == nil {
		return nil, nil
	}
	// Sorted keys keep the CBOR encoding — and therefore the hash — deterministic.
	keys := make([]uint64, 0, len(a.auxiliaryData.metadata))
	for k := range a.auxiliaryData.metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]common.MetaPair, 0, len(a.auxiliaryData.metadata))
	for _, k := range keys {
		v := a.auxiliaryData.metadata[k]
		key := common.MetaInt{Value: new(big.Int).SetUint64(k)}
		val, err := toMetadatum(v)
		if err != nil {
			return nil, fmt.Errorf("metadata key %d: %w", k, err)
		}
		pairs = append(pairs, common.MetaPair{Key: key, Value: val})
	}
	return &common.MetaMap{Pairs: pairs}, nil
}

// toMetadatum converts one Go value into a TransactionMetadatum.
// Scalars (string, int, int64, uint64, []byte), nested maps, and lists all convert.
func toMetadatum(v any) (common.TransactionMetadatum, error) {
	switch tv := v.(type) {
	case common.TransactionMetadatum:
		return tv, nil
	case string:
		return common.MetaText{Value: tv}, nil
	case int:
		return common.MetaInt{Value: big.NewInt(int64(tv))}, nil
	case int64:
		return common.MetaInt{Value: big.NewInt(tv)}, nil
	case uint64:
		return common.MetaInt{Value: new(big.Int).SetUint64(tv)}, nil
	case []byte:
		return common.MetaBytes{Value: tv}, nil
	case map[string]any:
		sortedKeys := make([]string, 0, len(tv))
		for mk := range tv {
			sortedKeys = append(sortedKeys, mk)
		}
		sort.Strings(sortedKeys)
		pairs := make([]common.MetaPair, 0, len(tv))
		for _, mk := range sortedKeys {
			val, err := toMetadatum(tv[mk])
			if err != nil {
				return nil, fmt.Errorf("map key %q: %w", mk, err)
			}
			pairs = append(pairs, common.MetaPair{
				Key:   common.MetaText{Value: mk},
				Value: val,
			})
		}
		return common.MetaMap{Pairs: pairs}, nil
	case map[uint64]any:
		sortedKeys := make([]uint64, 0, len(tv))
		for mk := range tv {
			sortedKeys = append(sortedKeys, mk)
		}
		slices.Sort(sortedKeys)
		pairs := make([]common.MetaPair, 0, len(tv))
		for _, mk := range sortedKeys {
			val, err := toMetadatum(tv[mk])
			if err != nil {
				return nil, fmt.Errorf("map key %d: %w", mk, err)
			}
			pairs = append(pairs, common.MetaPair{
				Key:   common.MetaInt{Value: new(big.Int).SetUint64(mk)},
				Value: val,
			})
		}
		return common.MetaMap{Pairs: pairs}, nil
	case []any:
		items := make([]common.TransactionMetadatum, 0, len(tv))
		for i, item := range tv {
			m, err := toMetadatum(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			items = append(items, m)
		}
		return common.MetaList{Items: items}, nil
	default:
		return nil, fmt.Errorf("unsupported metadata value type %T", v)
	}
}
