package conway

import (
	"fmt"

	"github.com/go-cardano/ctxbuilder/cbor"
	"github.com/go-cardano/ctxbuilder/ledger/common"
)

// ConwayRedeemers is the redeemers component of the witness set. The Conway
// CDDL allows either the legacy array-of-entries shape or a map keyed by
// [tag, index]; this builder only ever emits the map form, which every node
// since Conway accepts.
type ConwayRedeemers struct {
	Redeemers map[common.RedeemerKey]common.RedeemerValue
}

func (r ConwayRedeemers) MarshalCBOR() ([]byte, error) {
	return cbor.Encode(r.Redeemers)
}

func (r *ConwayRedeemers) UnmarshalCBOR(raw []byte) error {
	m := make(map[common.RedeemerKey]common.RedeemerValue)
	if err := cbor.Decode(raw, &m); err != nil {
		return fmt.Errorf("redeemers: %w", err)
	}
	r.Redeemers = m
	return nil
}

const (
	witnessKeyVkeyWitnesses      = 0
	witnessKeyNativeScripts      = 1
	witnessKeyBootstrapWitnesses = 2
	witnessKeyPlutusV1Scripts    = 3
	witnessKeyPlutusData         = 4
	witnessKeyRedeemers          = 5
	witnessKeyPlutusV2Scripts    = 6
	witnessKeyPlutusV3Scripts    = 7
)

// ConwayTransactionWitnessSet is the witness_set map from the Conway CDDL,
// encoded sparsely: only the categories of witness actually present get an
// entry. Each witness category is a tagged CBOR set rather than a plain
// array, matching how the ledger itself distinguishes sets from lists.
type ConwayTransactionWitnessSet struct {
	cbor.DecodeStoreCbor

	VkeyWitnesses        *cbor.Set[common.VkeyWitness]
	WsNativeScripts      *cbor.Set[common.NativeScript]
	WsBootstrapWitnesses *cbor.Set[common.BootstrapWitness]
	WsPlutusV1Scripts    *cbor.Set[common.PlutusV1Script]
	WsPlutusData         *cbor.Set[common.Datum]
	WsRedeemers          ConwayRedeemers
	WsPlutusV2Scripts    *cbor.Set[common.PlutusV2Script]
	WsPlutusV3Scripts    *cbor.Set[common.PlutusV3Script]
}

func (w ConwayTransactionWitnessSet) MarshalCBOR() ([]byte, error) {
	if w.HasCbor() {
		return w.Cbor(), nil
	}
	m := map[uint]any{}
	if w.VkeyWitnesses.Len() > 0 {
		m[witnessKeyVkeyWitnesses] = w.VkeyWitnesses
	}
	if w.WsNativeScripts.Len() > 0 {
		m[witnessKeyNativeScripts] = w.WsNativeScripts
	}
	if w.WsBootstrapWitnesses.Len() > 0 {
		m[witnessKeyBootstrapWitnesses] = w.WsBootstrapWitnesses
	}
	if w.WsPlutusV1Scripts.Len() > 0 {
		m[witnessKeyPlutusV1Scripts] = w.WsPlutusV1Scripts
	}
	if w.WsPlutusData.Len() > 0 {
		m[witnessKeyPlutusData] = w.WsPlutusData
	}
	if len(w.WsRedeemers.Redeemers) > 0 {
		m[witnessKeyRedeemers] = w.WsRedeemers
	}
	if w.WsPlutusV2Scripts.Len() > 0 {
		m[witnessKeyPlutusV2Scripts] = w.WsPlutusV2Scripts
	}
	if w.WsPlutusV3Scripts.Len() > 0 {
		m[witnessKeyPlutusV3Scripts] = w.WsPlutusV3Scripts
	}
	return cbor.Encode(m)
}

func (w *ConwayTransactionWitnessSet) UnmarshalCBOR(raw []byte) error {
	var m map[uint]cbor.RawMessage
	if err := cbor.Decode(raw, &m); err != nil {
		return fmt.Errorf("witness set: %w", err)
	}
	if v, ok := m[witnessKeyVkeyWitnesses]; ok {
		var s cbor.Set[common.VkeyWitness]
		if err := cbor.Decode(v, &s); err != nil {
			return fmt.Errorf("witness set: vkey witnesses: %w", err)
		}
		w.VkeyWitnesses = &s
	}
	if v, ok := m[witnessKeyNativeScripts]; ok {
		var s cbor.Set[common.NativeScript]
		if err := cbor.Decode(v, &s); err != nil {
			return fmt.Errorf("witness set: native scripts: %w", err)
		}
		w.WsNativeScripts = &s
	}
	if v, ok := m[witnessKeyBootstrapWitnesses]; ok {
		var s cbor.Set[common.BootstrapWitness]
		if err := cbor.Decode(v, &s); err != nil {
			return fmt.Errorf("witness set: bootstrap witnesses: %w", err)
		}
		w.WsBootstrapWitnesses = &s
	}
	if v, ok := m[witnessKeyPlutusV1Scripts]; ok {
		var s cbor.Set[common.PlutusV1Script]
		if err := cbor.Decode(v, &s); err != nil {
			return fmt.Errorf("witness set: plutus v1 scripts: %w", err)
		}
		w.WsPlutusV1Scripts = &s
	}
	if v, ok := m[witnessKeyPlutusData]; ok {
		var s cbor.Set[common.Datum]
		if err := cbor.Decode(v, &s); err != nil {
			return fmt.Errorf("witness set: plutus data: %w", err)
		}
		w.WsPlutusData = &s
	}
	if v, ok := m[witnessKeyRedeemers]; ok {
		var r ConwayRedeemers
		if err := cbor.Decode(v, &r); err != nil {
			return fmt.Errorf("witness set: redeemers: %w", err)
		}
		w.WsRedeemers = r
	}
	if v, ok := m[witnessKeyPlutusV2Scripts]; ok {
		var s cbor.Set[common.PlutusV2Script]
		if err := cbor.Decode(v, &s); err != nil {
			return fmt.Errorf("witness set: plutus v2 scripts: %w", err)
		}
		w.WsPlutusV2Scripts = &s
	}
	if v, ok := m[witnessKeyPlutusV3Scripts]; ok {
		var s cbor.Set[common.PlutusV3Script]
		if err := cbor.Decode(v, &s); err != nil {
			return fmt.Errorf("witness set: plutus v3 scripts: %w", err)
		}
		w.WsPlutusV3Scripts = &s
	}
	w.SetCbor(raw)
	return nil
}
