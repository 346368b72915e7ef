package common

import (
	"fmt"

	"github.com/go-cardano/ctxbuilder/cbor"
)

// ExUnits is the Plutus execution-unit budget (memory, CPU steps) attached
// to a redeemer.
type ExUnits struct {
	Memory int64
	Steps  int64
}

// MarshalCBOR encodes ExUnits as the 2-element array [mem, steps].
func (e ExUnits) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]int64{e.Memory, e.Steps})
}

// UnmarshalCBOR decodes a [mem, steps] array into e.
func (e *ExUnits) UnmarshalCBOR(data []byte) error {
	var pair [2]int64
	if err := cbor.Decode(data, &pair); err != nil {
		return fmt.Errorf("exunits: %w", err)
	}
	e.Memory, e.Steps = pair[0], pair[1]
	return nil
}

// RedeemerTag identifies which ledger purpose a redeemer authorizes.
type RedeemerTag uint

const (
	RedeemerTagSpend     RedeemerTag = 0
	RedeemerTagMint      RedeemerTag = 1
	RedeemerTagCert      RedeemerTag = 2
	RedeemerTagReward    RedeemerTag = 3
	RedeemerTagVoting    RedeemerTag = 4
	RedeemerTagProposing RedeemerTag = 5
)

// RedeemerKey is the (tag, index) pair identifying which item in the
// corresponding sorted list (inputs, mint policies, certificates,
// withdrawals, votes) a redeemer applies to. It is both a Go map key (so it
// must stay plain and comparable) and a CBOR map key (so it carries its own
// [tag, index] array encoding).
type RedeemerKey struct {
	Tag   RedeemerTag
	Index uint32
}

// MarshalCBOR encodes the key as the 2-element array [tag, index].
func (k RedeemerKey) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]uint{uint(k.Tag), uint(k.Index)})
}

// UnmarshalCBOR decodes a [tag, index] array into k.
func (k *RedeemerKey) UnmarshalCBOR(data []byte) error {
	var pair [2]uint
	if err := cbor.Decode(data, &pair); err != nil {
		return fmt.Errorf("redeemer key: %w", err)
	}
	k.Tag = RedeemerTag(pair[0])
	k.Index = uint32(pair[1])
	return nil
}

// RedeemerValue is the datum + execution-unit budget half of a redeemer
// entry.
type RedeemerValue struct {
	Data    Datum
	ExUnits ExUnits
}

// MarshalCBOR encodes the value as the 2-element array [data, ex_units].
func (v RedeemerValue) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{v.Data, v.ExUnits})
}

// UnmarshalCBOR decodes a [data, ex_units] array into v.
func (v *RedeemerValue) UnmarshalCBOR(data []byte) error {
	var raw []cbor.RawMessage
	if err := cbor.Decode(data, &raw); err != nil {
		return fmt.Errorf("redeemer value: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("redeemer value: expected 2 elements, got %d", len(raw))
	}
	if err := cbor.Decode(raw[0], &v.Data); err != nil {
		return fmt.Errorf("redeemer value data: %w", err)
	}
	if err := cbor.Decode(raw[1], &v.ExUnits); err != nil {
		return fmt.Errorf("redeemer value exunits: %w", err)
	}
	return nil
}

// UnitInterval is a ratio in [0, 1], e.g. a pool margin or decentralization
// parameter, wire-encoded as CBOR tag 30.
type UnitInterval = cbor.Rat
