package common

import (
	"fmt"

	"github.com/go-cardano/ctxbuilder/cbor"
)

// Script is implemented by every script type that can sit in a witness set,
// a ScriptRef, or a script-hash credential: native scripts and the three
// Plutus script versions.
type Script interface {
	Hash() Blake2b224
}

// NativeScriptType identifies a native-script alternative.
type NativeScriptType uint

const (
	NativeScriptPubkey           NativeScriptType = 0
	NativeScriptAll              NativeScriptType = 1
	NativeScriptAny              NativeScriptType = 2
	NativeScriptNofK             NativeScriptType = 3
	NativeScriptInvalidBefore    NativeScriptType = 4
	NativeScriptInvalidHereafter NativeScriptType = 5
)

// NativeScript is a tagged union over the six native-script alternatives.
// Unlike the Plutus script types it carries its own recursive CBOR shape
// (a [type, ...] array whose tail depends on type), so it stores the
// decoded fields directly rather than deferring to a generic byte wrapper.
type NativeScript struct {
	cbor.DecodeStoreCbor
	Type    NativeScriptType
	KeyHash Blake2b224
	N       uint
	Slot    uint64
	Scripts []NativeScript
}

// NewNativeScriptPubkey requires a signature from keyHash.
func NewNativeScriptPubkey(keyHash Blake2b224) NativeScript {
	return NativeScript{Type: NativeScriptPubkey, KeyHash: keyHash}
}

// NewNativeScriptAll requires every sub-script to succeed.
func NewNativeScriptAll(scripts []NativeScript) NativeScript {
	return NativeScript{Type: NativeScriptAll, Scripts: scripts}
}

// NewNativeScriptAny requires at least one sub-script to succeed.
func NewNativeScriptAny(scripts []NativeScript) NativeScript {
	return NativeScript{Type: NativeScriptAny, Scripts: scripts}
}

// NewNativeScriptNofK requires n of the given sub-scripts to succeed.
func NewNativeScriptNofK(n uint, scripts []NativeScript) (NativeScript, error) {
	if len(scripts) == 0 {
		return NativeScript{}, fmt.Errorf("%w: n-of-k script needs at least one sub-script", ErrInvalidCredential)
	}
	if n == 0 || n > uint(len(scripts)) {
		return NativeScript{}, fmt.Errorf("%w: n (%d) out of range for %d sub-scripts", ErrInvalidCredential, n, len(scripts))
	}
	return NativeScript{Type: NativeScriptNofK, N: n, Scripts: scripts}, nil
}

// NewNativeScriptInvalidBefore is valid only at or after slot.
func NewNativeScriptInvalidBefore(slot uint64) NativeScript {
	return NativeScript{Type: NativeScriptInvalidBefore, Slot: slot}
}

// NewNativeScriptInvalidHereafter is valid only before slot.
func NewNativeScriptInvalidHereafter(slot uint64) NativeScript {
	return NativeScript{Type: NativeScriptInvalidHereafter, Slot: slot}
}

// Hash computes the script hash: Blake2b-224 of a 0x00 tag byte followed by
// the script's canonical CBOR encoding, per the Cardano script-hash scheme
// (the leading byte distinguishes native scripts from Plutus V1/V2/V3).
func (ns NativeScript) Hash() Blake2b224 {
	body, err := cbor.Encode(ns)
	if err != nil {
		return Blake2b224{}
	}
	return Blake2b224Hash(append([]byte{0x00}, body...))
}

func (ns NativeScript) MarshalCBOR() ([]byte, error) {
	if ns.HasCbor() {
		return ns.Cbor(), nil
	}
	switch ns.Type {
	case NativeScriptPubkey:
		return cbor.Encode([]any{uint(ns.Type), ns.KeyHash})
	case NativeScriptAll, NativeScriptAny:
		return cbor.Encode([]any{uint(ns.Type), ns.Scripts})
	case NativeScriptNofK:
		return cbor.Encode([]any{uint(ns.Type), ns.N, ns.Scripts})
	case NativeScriptInvalidBefore, NativeScriptInvalidHereafter:
		return cbor.Encode([]any{uint(ns.Type), ns.Slot})
	default:
		return nil, fmt.Errorf("native script: unknown type %d", ns.Type)
	}
}

func (ns *NativeScript) UnmarshalCBOR(raw []byte) error {
	var items []cbor.RawMessage
	if err := cbor.Decode(raw, &items); err != nil {
		return fmt.Errorf("native script: %w", err)
	}
	if len(items) == 0 {
		return fmt.Errorf("native script: empty array")
	}
	var typ uint
	if err := cbor.Decode(items[0], &typ); err != nil {
		return fmt.Errorf("native script: type: %w", err)
	}
	ns.Type = NativeScriptType(typ)
	switch ns.Type {
	case NativeScriptPubkey:
		if len(items) != 2 {
			return fmt.Errorf("native script: pubkey wants 2 elements, got %d", len(items))
		}
		if err := cbor.Decode(items[1], &ns.KeyHash); err != nil {
			return fmt.Errorf("native script: key hash: %w", err)
		}
	case NativeScriptAll, NativeScriptAny:
		if len(items) != 2 {
			return fmt.Errorf("native script: all/any wants 2 elements, got %d", len(items))
		}
		if err := cbor.Decode(items[1], &ns.Scripts); err != nil {
			return fmt.Errorf("native script: sub-scripts: %w", err)
		}
	case NativeScriptNofK:
		if len(items) != 3 {
			return fmt.Errorf("native script: n-of-k wants 3 elements, got %d", len(items))
		}
		if err := cbor.Decode(items[1], &ns.N); err != nil {
			return fmt.Errorf("native script: n: %w", err)
		}
		if err := cbor.Decode(items[2], &ns.Scripts); err != nil {
			return fmt.Errorf("native script: sub-scripts: %w", err)
		}
	case NativeScriptInvalidBefore, NativeScriptInvalidHereafter:
		if len(items) != 2 {
			return fmt.Errorf("native script: time-lock wants 2 elements, got %d", len(items))
		}
		if err := cbor.Decode(items[1], &ns.Slot); err != nil {
			return fmt.Errorf("native script: slot: %w", err)
		}
	default:
		return fmt.Errorf("native script: unknown type %d", ns.Type)
	}
	ns.SetCbor(raw)
	return nil
}

// PlutusV1Script, PlutusV2Script, PlutusV3Script wrap the raw compiled
// script bytes for each Plutus language version. They're kept as distinct
// Go types (rather than one Script{Version,Bytes} struct) so a type switch
// can route a script to the right witness-set bucket and the right
// language-view entry in ComputeScriptDataHash.
type PlutusV1Script []byte
type PlutusV2Script []byte
type PlutusV3Script []byte

func (s PlutusV1Script) Hash() Blake2b224 { return Blake2b224Hash(append([]byte{0x01}, s...)) }
func (s PlutusV2Script) Hash() Blake2b224 { return Blake2b224Hash(append([]byte{0x02}, s...)) }
func (s PlutusV3Script) Hash() Blake2b224 { return Blake2b224Hash(append([]byte{0x03}, s...)) }

// ScriptRef is a reference script attached to a transaction output, wrapped
// per CDDL as tag(24, bytes .cbor script) where script = [type, script]: the
// native script's own array for type 0, the script bytes for Plutus types.
type ScriptRef struct {
	Type   uint
	Script Script
}

func (r ScriptRef) MarshalCBOR() ([]byte, error) {
	var scriptBytes []byte
	var err error
	switch s := r.Script.(type) {
	case NativeScript:
		scriptBytes, err = cbor.Encode(s)
	case PlutusV1Script:
		scriptBytes, err = cbor.Encode([]byte(s))
	case PlutusV2Script:
		scriptBytes, err = cbor.Encode([]byte(s))
	case PlutusV3Script:
		scriptBytes, err = cbor.Encode([]byte(s))
	default:
		return nil, fmt.Errorf("script ref: unsupported script type %T", r.Script)
	}
	if err != nil {
		return nil, err
	}
	inner, err := cbor.Encode([]cbor.RawMessage{mustEncode(r.Type), scriptBytes})
	if err != nil {
		return nil, err
	}
	return cbor.Encode(cbor.Tag{Number: 24, Content: inner})
}

func mustEncode(v any) cbor.RawMessage {
	b, err := cbor.Encode(v)
	if err != nil {
		panic(err)
	}
	return cbor.RawMessage(b)
}

func (r *ScriptRef) UnmarshalCBOR(raw []byte) error {
	var tag cbor.Tag
	if err := cbor.Decode(raw, &tag); err != nil {
		return fmt.Errorf("script ref: %w", err)
	}
	inner, ok := tag.Content.([]byte)
	if !ok {
		return fmt.Errorf("script ref: tag content is not bytes")
	}
	var parts []cbor.RawMessage
	if err := cbor.Decode(inner, &parts); err != nil {
		return fmt.Errorf("script ref: inner array: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("script ref: expected [type, bytes], got %d elements", len(parts))
	}
	if err := cbor.Decode(parts[0], &r.Type); err != nil {
		return fmt.Errorf("script ref: type: %w", err)
	}
	var raw2 []byte
	if r.Type != 0 {
		if err := cbor.Decode(parts[1], &raw2); err != nil {
			return fmt.Errorf("script ref: script bytes: %w", err)
		}
	}
	switch r.Type {
	case 0:
		var ns NativeScript
		if err := cbor.Decode(parts[1], &ns); err != nil {
			return fmt.Errorf("script ref: native script: %w", err)
		}
		r.Script = ns
	case 1:
		r.Script = PlutusV1Script(raw2)
	case 2:
		r.Script = PlutusV2Script(raw2)
	case 3:
		r.Script = PlutusV3Script(raw2)
	default:
		return fmt.Errorf("script ref: unknown script type %d", r.Type)
	}
	return nil
}
