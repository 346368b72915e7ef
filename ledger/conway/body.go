// Package conway implements the transaction body, witness set, and
// transaction envelope for the Conway era — the only era this builder
// constructs, regardless of which network era a caller declares, since
// every Cardano mainnet/testnet network has been Conway-era since early
// 2025.
package conway

import (
	"fmt"

	"github.com/go-cardano/ctxbuilder/cbor"
	"github.com/go-cardano/ctxbuilder/ledger/babbage"
	"github.com/go-cardano/ctxbuilder/ledger/common"
	"github.com/go-cardano/ctxbuilder/ledger/shelley"
)

// ConwayTransactionBody is the transaction_body map from the Conway CDDL.
// It's encoded as a sparse int-keyed map: only fields that are actually
// set get an entry, so an optional-field-free transaction stays small.
type ConwayTransactionBody struct {
	cbor.DecodeStoreCbor

	TxInputs                *cbor.Set[shelley.ShelleyTransactionInput]
	TxOutputs               []babbage.BabbageTransactionOutput
	TxFee                   uint64
	Ttl                     uint64
	TxCertificates          []common.CertificateWrapper
	TxWithdrawals           map[*common.Address]uint64
	TxAuxDataHash           *common.Blake2b256
	TxValidityIntervalStart uint64
	TxMint                  *common.MultiAsset[common.MultiAssetTypeMint]
	TxScriptDataHash        *common.Blake2b256
	TxCollateral            *cbor.Set[shelley.ShelleyTransactionInput]
	TxRequiredSigners       *cbor.Set[common.Blake2b224]
	TxNetworkId             *uint
	TxCollateralReturn      *babbage.BabbageTransactionOutput
	TxTotalCollateral       uint64
	TxReferenceInputs       *cbor.Set[shelley.ShelleyTransactionInput]
	TxVotingProcedures      common.VotingProcedures
	TxProposalProcedures    []common.ProposalProcedure
	TxCurrentTreasuryValue  uint64
	TxDonation              uint64
}

// Id computes the transaction id: the Blake2b-256 hash of the body's own
// canonical CBOR encoding. Re-encoding a body decoded from the wire reuses
// the cached original bytes, so the id is stable across a decode/re-encode
// round trip even if this codec's canonical form differs from the
// encoder that originally produced the bytes.
func (b *ConwayTransactionBody) Id() common.Blake2b256 {
	raw, err := cbor.Encode(b)
	if err != nil {
		return common.Blake2b256{}
	}
	return common.Blake2b256Hash(raw)
}

const (
	bodyKeyInputs                = 0
	bodyKeyOutputs               = 1
	bodyKeyFee                   = 2
	bodyKeyTtl                   = 3
	bodyKeyCertificates          = 4
	bodyKeyWithdrawals           = 5
	bodyKeyAuxDataHash           = 7
	bodyKeyValidityIntervalStart = 8
	bodyKeyMint                  = 9
	bodyKeyScriptDataHash        = 11
	bodyKeyCollateral            = 13
	bodyKeyRequiredSigners       = 14
	bodyKeyNetworkId             = 15
	bodyKeyCollateralReturn      = 16
	bodyKeyTotalCollateral       = 17
	bodyKeyReferenceInputs       = 18
	bodyKeyVotingProcedures      = 19
	bodyKeyProposalProcedures    = 20
	bodyKeyCurrentTreasuryValue  = 21
	bodyKeyDonation              = 22
)

func (b ConwayTransactionBody) MarshalCBOR() ([]byte, error) {
	if b.HasCbor() {
		return b.Cbor(), nil
	}
	m := map[uint]any{
		bodyKeyInputs:  b.TxInputs,
		bodyKeyOutputs: b.TxOutputs,
		bodyKeyFee:     b.TxFee,
	}
	if b.Ttl != 0 {
		m[bodyKeyTtl] = b.Ttl
	}
	if len(b.TxCertificates) > 0 {
		m[bodyKeyCertificates] = b.TxCertificates
	}
	if len(b.TxWithdrawals) > 0 {
		m[bodyKeyWithdrawals] = b.TxWithdrawals
	}
	if b.TxAuxDataHash != nil {
		m[bodyKeyAuxDataHash] = *b.TxAuxDataHash
	}
	if b.TxValidityIntervalStart != 0 {
		m[bodyKeyValidityIntervalStart] = b.TxValidityIntervalStart
	}
	if b.TxMint != nil {
		m[bodyKeyMint] = b.TxMint
	}
	if b.TxScriptDataHash != nil {
		m[bodyKeyScriptDataHash] = *b.TxScriptDataHash
	}
	if b.TxCollateral != nil {
		m[bodyKeyCollateral] = b.TxCollateral
	}
	if b.TxRequiredSigners != nil {
		m[bodyKeyRequiredSigners] = b.TxRequiredSigners
	}
	if b.TxNetworkId != nil {
		m[bodyKeyNetworkId] = *b.TxNetworkId
	}
	if b.TxCollateralReturn != nil {
		m[bodyKeyCollateralReturn] = b.TxCollateralReturn
	}
	if b.TxTotalCollateral != 0 {
		m[bodyKeyTotalCollateral] = b.TxTotalCollateral
	}
	if b.TxReferenceInputs != nil {
		m[bodyKeyReferenceInputs] = b.TxReferenceInputs
	}
	if len(b.TxVotingProcedures) > 0 {
		m[bodyKeyVotingProcedures] = b.TxVotingProcedures
	}
	if len(b.TxProposalProcedures) > 0 {
		m[bodyKeyProposalProcedures] = b.TxProposalProcedures
	}
	if b.TxCurrentTreasuryValue != 0 {
		m[bodyKeyCurrentTreasuryValue] = b.TxCurrentTreasuryValue
	}
	if b.TxDonation != 0 {
		m[bodyKeyDonation] = b.TxDonation
	}
	return cbor.Encode(m)
}

func (b *ConwayTransactionBody) UnmarshalCBOR(raw []byte) error {
	var m map[uint]cbor.RawMessage
	if err := cbor.Decode(raw, &m); err != nil {
		return fmt.Errorf("transaction body: %w", err)
	}

	if v, ok := m[bodyKeyInputs]; ok {
		var inputs cbor.Set[shelley.ShelleyTransactionInput]
		if err := cbor.Decode(v, &inputs); err != nil {
			return fmt.Errorf("transaction body: inputs: %w", err)
		}
		b.TxInputs = &inputs
	}
	if v, ok := m[bodyKeyOutputs]; ok {
		if err := cbor.Decode(v, &b.TxOutputs); err != nil {
			return fmt.Errorf("transaction body: outputs: %w", err)
		}
	}
	if v, ok := m[bodyKeyFee]; ok {
		if err := cbor.Decode(v, &b.TxFee); err != nil {
			return fmt.Errorf("transaction body: fee: %w", err)
		}
	}
	if v, ok := m[bodyKeyTtl]; ok {
		if err := cbor.Decode(v, &b.Ttl); err != nil {
			return fmt.Errorf("transaction body: ttl: %w", err)
		}
	}
	if v, ok := m[bodyKeyCertificates]; ok {
		if err := cbor.Decode(v, &b.TxCertificates); err != nil {
			return fmt.Errorf("transaction body: certificates: %w", err)
		}
	}
	if v, ok := m[bodyKeyWithdrawals]; ok {
		if err := cbor.Decode(v, &b.TxWithdrawals); err != nil {
			return fmt.Errorf("transaction body: withdrawals: %w", err)
		}
	}
	if v, ok := m[bodyKeyAuxDataHash]; ok {
		var hash common.Blake2b256
		if err := cbor.Decode(v, &hash); err != nil {
			return fmt.Errorf("transaction body: aux data hash: %w", err)
		}
		b.TxAuxDataHash = &hash
	}
	if v, ok := m[bodyKeyValidityIntervalStart]; ok {
		if err := cbor.Decode(v, &b.TxValidityIntervalStart); err != nil {
			return fmt.Errorf("transaction body: validity interval start: %w", err)
		}
	}
	if v, ok := m[bodyKeyMint]; ok {
		var mint common.MultiAsset[common.MultiAssetTypeMint]
		if err := cbor.Decode(v, &mint); err != nil {
			return fmt.Errorf("transaction body: mint: %w", err)
		}
		b.TxMint = &mint
	}
	if v, ok := m[bodyKeyScriptDataHash]; ok {
		var hash common.Blake2b256
		if err := cbor.Decode(v, &hash); err != nil {
			return fmt.Errorf("transaction body: script data hash: %w", err)
		}
		b.TxScriptDataHash = &hash
	}
	if v, ok := m[bodyKeyCollateral]; ok {
		var collateral cbor.Set[shelley.ShelleyTransactionInput]
		if err := cbor.Decode(v, &collateral); err != nil {
			return fmt.Errorf("transaction body: collateral: %w", err)
		}
		b.TxCollateral = &collateral
	}
	if v, ok := m[bodyKeyRequiredSigners]; ok {
		var signers cbor.Set[common.Blake2b224]
		if err := cbor.Decode(v, &signers); err != nil {
			return fmt.Errorf("transaction body: required signers: %w", err)
		}
		b.TxRequiredSigners = &signers
	}
	if v, ok := m[bodyKeyNetworkId]; ok {
		var netId uint
		if err := cbor.Decode(v, &netId); err != nil {
			return fmt.Errorf("transaction body: network id: %w", err)
		}
		b.TxNetworkId = &netId
	}
	if v, ok := m[bodyKeyCollateralReturn]; ok {
		var out babbage.BabbageTransactionOutput
		if err := cbor.Decode(v, &out); err != nil {
			return fmt.Errorf("transaction body: collateral return: %w", err)
		}
		b.TxCollateralReturn = &out
	}
	if v, ok := m[bodyKeyTotalCollateral]; ok {
		if err := cbor.Decode(v, &b.TxTotalCollateral); err != nil {
			return fmt.Errorf("transaction body: total collateral: %w", err)
		}
	}
	if v, ok := m[bodyKeyReferenceInputs]; ok {
		var refs cbor.Set[shelley.ShelleyTransactionInput]
		if err := cbor.Decode(v, &refs); err != nil {
			return fmt.Errorf("transaction body: reference inputs: %w", err)
		}
		b.TxReferenceInputs = &refs
	}
	if v, ok := m[bodyKeyVotingProcedures]; ok {
		if err := cbor.Decode(v, &b.TxVotingProcedures); err != nil {
			return fmt.Errorf("transaction body: voting procedures: %w", err)
		}
	}
	if v, ok := m[bodyKeyProposalProcedures]; ok {
		if err := cbor.Decode(v, &b.TxProposalProcedures); err != nil {
			return fmt.Errorf("transaction body: proposal procedures: %w", err)
		}
	}
	if v, ok := m[bodyKeyCurrentTreasuryValue]; ok {
		if err := cbor.Decode(v, &b.TxCurrentTreasuryValue); err != nil {
			return fmt.Errorf("transaction body: current treasury value: %w", err)
		}
	}
	if v, ok := m[bodyKeyDonation]; ok {
		if err := cbor.Decode(v, &b.TxDonation); err != nil {
			return fmt.Errorf("transaction body: donation: %w", err)
		}
	}

	b.SetCbor(raw)
	return nil
}

// NewConwayTransactionInputSet wraps inputs as a tagged CBOR set, matching
// how every other input-bearing field (collateral, reference inputs) is
// encoded.
func NewConwayTransactionInputSet(inputs []shelley.ShelleyTransactionInput) *cbor.Set[shelley.ShelleyTransactionInput] {
	return cbor.NewSetType(inputs, true)
}
