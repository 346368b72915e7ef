package common

import (
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/btcsuite/btcutil/bech32"

	"github.com/go-cardano/ctxbuilder/cbor"
)

// NetworkId distinguishes mainnet from the various test networks. The
// ledger only distinguishes "mainnet" (1) from "not mainnet" (0) at the
// address-header level; anything finer (preview/preprod/testnet magic) is a
// backend.GenesisParameters concern, not an address-encoding one.
type NetworkId uint8

const (
	NetworkTestnet NetworkId = 0
	NetworkMainnet NetworkId = 1
)

// AddressType is the 4-bit discriminant in an address header byte.
type AddressType uint8

const (
	AddressTypeBasePaymentKeyStakeKey       AddressType = 0
	AddressTypeBaseScriptKeyStakeKey        AddressType = 1
	AddressTypeBasePaymentKeyStakeScript    AddressType = 2
	AddressTypeBaseScriptKeyStakeScript     AddressType = 3
	AddressTypePointerPaymentKey            AddressType = 4
	AddressTypePointerScriptKey             AddressType = 5
	AddressTypeEnterprisePaymentKey         AddressType = 6
	AddressTypeEnterpriseScriptKey          AddressType = 7
	AddressTypeByron                        AddressType = 8
	AddressTypeRewardStakeKey               AddressType = 14
	AddressTypeRewardScriptKey              AddressType = 15
)

// AddressPayloadKeyHash is returned by StakingPayload when the staking
// credential is a plain verification-key hash.
type AddressPayloadKeyHash struct{ Hash Blake2b224 }

// AddressPayloadScriptHash is returned by StakingPayload when the staking
// credential is a script hash.
type AddressPayloadScriptHash struct{ Hash Blake2b224 }

// StakePointer identifies a stake credential indirectly, by the chain
// position of the registration certificate that introduced it.
type StakePointer struct {
	Slot      uint64
	TxIndex   uint64
	CertIndex uint64
}

// Address is a decoded Cardano address: a 4-bit type tag, a network id, a
// payment credential (key or script hash, absent for reward addresses), and
// either a staking credential, a stake pointer, or neither.
type Address struct {
	addrType  AddressType
	network   NetworkId
	isByron   bool
	byronRaw  []byte // full original byron payload, preserved byte for byte
	payment   *Blake2b224
	paymentIsScript bool
	staking   *Blake2b224
	stakingIsScript bool
	pointer   *StakePointer
}

// NewBaseAddress builds a base address (payment + staking credential).
func NewBaseAddress(network NetworkId, payment, staking Credential) Address {
	a := Address{network: network}
	p := payment.Credential
	a.payment = &p
	a.paymentIsScript = payment.IsScriptHash()
	s := staking.Credential
	a.staking = &s
	a.stakingIsScript = staking.IsScriptHash()
	a.addrType = baseAddressType(a.paymentIsScript, a.stakingIsScript)
	return a
}

// NewEnterpriseAddress builds an address with a payment credential only.
func NewEnterpriseAddress(network NetworkId, payment Credential) Address {
	a := Address{network: network}
	p := payment.Credential
	a.payment = &p
	a.paymentIsScript = payment.IsScriptHash()
	if a.paymentIsScript {
		a.addrType = AddressTypeEnterpriseScriptKey
	} else {
		a.addrType = AddressTypeEnterprisePaymentKey
	}
	return a
}

// NewRewardAddress builds a stake/reward address from a staking credential.
func NewRewardAddress(network NetworkId, staking Credential) Address {
	a := Address{network: network}
	s := staking.Credential
	a.staking = &s
	a.stakingIsScript = staking.IsScriptHash()
	if a.stakingIsScript {
		a.addrType = AddressTypeRewardScriptKey
	} else {
		a.addrType = AddressTypeRewardStakeKey
	}
	return a
}

// NewPointerAddress builds an address whose staking credential is resolved
// indirectly via a stake pointer to a registration certificate.
func NewPointerAddress(network NetworkId, payment Credential, ptr StakePointer) Address {
	a := Address{network: network}
	p := payment.Credential
	a.payment = &p
	a.paymentIsScript = payment.IsScriptHash()
	a.pointer = &ptr
	if a.paymentIsScript {
		a.addrType = AddressTypePointerScriptKey
	} else {
		a.addrType = AddressTypePointerPaymentKey
	}
	return a
}

func baseAddressType(paymentIsScript, stakingIsScript bool) AddressType {
	switch {
	case !paymentIsScript && !stakingIsScript:
		return AddressTypeBasePaymentKeyStakeKey
	case paymentIsScript && !stakingIsScript:
		return AddressTypeBaseScriptKeyStakeKey
	case !paymentIsScript && stakingIsScript:
		return AddressTypeBasePaymentKeyStakeScript
	default:
		return AddressTypeBaseScriptKeyStakeScript
	}
}

// NewAddress parses a textual address: Bech32 ("addr1...", "addr_test1...",
// "stake1...", "stake_test1...") or Base58 (legacy Byron).
func NewAddress(text string) (Address, error) {
	if looksBase58Byron(text) {
		raw, err := decodeByronBase58(text)
		if err == nil {
			return Address{addrType: AddressTypeByron, isByron: true, byronRaw: raw}, nil
		}
	}
	hrp, data, err := bech32.Decode(text)
	if err != nil {
		// Base58 text may contain a '1' too, so retry it as a Byron address.
		if raw, bErr := decodeByronBase58(text); bErr == nil {
			return Address{addrType: AddressTypeByron, isByron: true, byronRaw: raw}, nil
		}
		return Address{}, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, text, err)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("%w: bech32 bit conversion: %v", ErrInvalidAddress, err)
	}
	_ = hrp
	return DecodeAddressBytes(raw)
}

// looksBase58Byron is a cheap first guess: Bech32 addresses always contain a
// "1" separator, so text without one is tried as Base58 first. Base58 text
// can contain "1" as well; NewAddress falls back to Base58 for those.
func looksBase58Byron(text string) bool {
	for _, r := range text {
		if r == '1' {
			return false
		}
	}
	return true
}

func decodeByronBase58(text string) ([]byte, error) {
	raw := base58.Decode(text)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty base58 decode", ErrInvalidAddress)
	}
	return raw, nil
}

// DecodeAddressBytes parses the raw binary (post-bech32/base58) address
// payload: a header byte followed by credential/pointer bytes.
func DecodeAddressBytes(raw []byte) (Address, error) {
	if len(raw) == 0 {
		return Address{}, fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	header := raw[0]
	addrType := AddressType(header >> 4)
	network := NetworkId(header & 0x0F)
	body := raw[1:]

	a := Address{addrType: addrType, network: network}
	switch addrType {
	case AddressTypeBasePaymentKeyStakeKey, AddressTypeBaseScriptKeyStakeKey,
		AddressTypeBasePaymentKeyStakeScript, AddressTypeBaseScriptKeyStakeScript:
		if len(body) != 2*Blake2b224Size {
			return Address{}, fmt.Errorf("%w: base address body length %d", ErrInvalidAddress, len(body))
		}
		p, _ := NewBlake2b224(body[:Blake2b224Size])
		s, _ := NewBlake2b224(body[Blake2b224Size:])
		a.payment = &p
		a.staking = &s
		a.paymentIsScript = addrType == AddressTypeBaseScriptKeyStakeKey || addrType == AddressTypeBaseScriptKeyStakeScript
		a.stakingIsScript = addrType == AddressTypeBasePaymentKeyStakeScript || addrType == AddressTypeBaseScriptKeyStakeScript
	case AddressTypeEnterprisePaymentKey, AddressTypeEnterpriseScriptKey:
		if len(body) != Blake2b224Size {
			return Address{}, fmt.Errorf("%w: enterprise address body length %d", ErrInvalidAddress, len(body))
		}
		p, _ := NewBlake2b224(body)
		a.payment = &p
		a.paymentIsScript = addrType == AddressTypeEnterpriseScriptKey
	case AddressTypeRewardStakeKey, AddressTypeRewardScriptKey:
		if len(body) != Blake2b224Size {
			return Address{}, fmt.Errorf("%w: reward address body length %d", ErrInvalidAddress, len(body))
		}
		s, _ := NewBlake2b224(body)
		a.staking = &s
		a.stakingIsScript = addrType == AddressTypeRewardScriptKey
	case AddressTypePointerPaymentKey, AddressTypePointerScriptKey:
		if len(body) < Blake2b224Size {
			return Address{}, fmt.Errorf("%w: pointer address too short", ErrInvalidAddress)
		}
		p, _ := NewBlake2b224(body[:Blake2b224Size])
		a.payment = &p
		a.paymentIsScript = addrType == AddressTypePointerScriptKey
		ptr, _, err := decodePointer(body[Blake2b224Size:])
		if err != nil {
			return Address{}, fmt.Errorf("pointer address: %w", err)
		}
		a.pointer = &ptr
	case AddressTypeByron:
		a.isByron = true
		a.byronRaw = append([]byte(nil), raw...)
	default:
		return Address{}, fmt.Errorf("%w: address type %d", ErrUnsupportedAddressType, addrType)
	}
	return a, nil
}

// Bytes returns the raw binary address payload (header byte + credentials).
func (a Address) Bytes() ([]byte, error) {
	if a.isByron {
		return append([]byte(nil), a.byronRaw...), nil
	}
	header := byte(a.addrType)<<4 | byte(a.network&0x0F)
	out := []byte{header}
	switch a.addrType {
	case AddressTypeBasePaymentKeyStakeKey, AddressTypeBaseScriptKeyStakeKey,
		AddressTypeBasePaymentKeyStakeScript, AddressTypeBaseScriptKeyStakeScript:
		if a.payment == nil || a.staking == nil {
			return nil, fmt.Errorf("%w: base address missing credential", ErrInvalidAddress)
		}
		out = append(out, a.payment.Bytes()...)
		out = append(out, a.staking.Bytes()...)
	case AddressTypeEnterprisePaymentKey, AddressTypeEnterpriseScriptKey:
		if a.payment == nil {
			return nil, fmt.Errorf("%w: enterprise address missing credential", ErrInvalidAddress)
		}
		out = append(out, a.payment.Bytes()...)
	case AddressTypeRewardStakeKey, AddressTypeRewardScriptKey:
		if a.staking == nil {
			return nil, fmt.Errorf("%w: reward address missing credential", ErrInvalidAddress)
		}
		out = append(out, a.staking.Bytes()...)
	case AddressTypePointerPaymentKey, AddressTypePointerScriptKey:
		if a.payment == nil || a.pointer == nil {
			return nil, fmt.Errorf("%w: pointer address missing fields", ErrInvalidAddress)
		}
		out = append(out, a.payment.Bytes()...)
		out = append(out, encodePointer(*a.pointer)...)
	default:
		return nil, fmt.Errorf("%w: address type %d", ErrUnsupportedAddressType, a.addrType)
	}
	return out, nil
}

// String renders the address in its canonical textual form: Base58 for
// Byron, Bech32 otherwise.
func (a Address) String() string {
	raw, err := a.Bytes()
	if err != nil {
		return ""
	}
	if a.isByron {
		return base58.Encode(raw)
	}
	hrp := "addr"
	if a.addrType == AddressTypeRewardStakeKey || a.addrType == AddressTypeRewardScriptKey {
		hrp = "stake"
	}
	if a.network != NetworkMainnet {
		hrp += "_test"
	}
	data, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return ""
	}
	text, err := bech32.Encode(hrp, data)
	if err != nil {
		return ""
	}
	return text
}

// NetworkId returns the address's network discriminant.
func (a Address) NetworkId() uint8 { return uint8(a.network) }

// IsByron reports whether this is a legacy Byron-era address.
func (a Address) IsByron() bool { return a.isByron }

// PaymentKeyHash returns the payment credential's key hash, or the zero
// hash if the address has no payment part or its payment part is a script.
func (a Address) PaymentKeyHash() Blake2b224 {
	if a.payment == nil || a.paymentIsScript {
		return Blake2b224{}
	}
	return *a.payment
}

// PaymentScriptHash returns the payment credential's script hash, or the
// zero hash if absent or key-based.
func (a Address) PaymentScriptHash() Blake2b224 {
	if a.payment == nil || !a.paymentIsScript {
		return Blake2b224{}
	}
	return *a.payment
}

// StakeKeyHash returns the staking credential's key hash, or the zero hash
// if absent, pointer-based, or script-based.
func (a Address) StakeKeyHash() Blake2b224 {
	if a.staking == nil || a.stakingIsScript {
		return Blake2b224{}
	}
	return *a.staking
}

// StakingPayload returns the decoded staking component: an
// AddressPayloadKeyHash, AddressPayloadScriptHash, a StakePointer, or nil if
// the address has no staking component at all.
func (a Address) StakingPayload() any {
	switch {
	case a.pointer != nil:
		return *a.pointer
	case a.staking != nil && a.stakingIsScript:
		return AddressPayloadScriptHash{Hash: *a.staking}
	case a.staking != nil:
		return AddressPayloadKeyHash{Hash: *a.staking}
	default:
		return nil
	}
}

// PaymentCredential reconstructs the payment Credential, if any.
func (a Address) PaymentCredential() (Credential, bool) {
	if a.payment == nil {
		return Credential{}, false
	}
	if a.paymentIsScript {
		return NewScriptHashCredential(*a.payment), true
	}
	return NewKeyHashCredential(*a.payment), true
}

// MarshalCBOR encodes the address as a CBOR byte string of its binary form,
// matching how the ledger embeds addresses inside transaction outputs.
func (a Address) MarshalCBOR() ([]byte, error) {
	raw, err := a.Bytes()
	if err != nil {
		return nil, err
	}
	return cbor.Encode(raw)
}

// UnmarshalCBOR decodes a CBOR byte string into the address's binary form.
func (a *Address) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Decode(data, &raw); err != nil {
		return fmt.Errorf("address: %w", err)
	}
	decoded, err := DecodeAddressBytes(raw)
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

// encodePointer writes slot, tx index, and cert index as successive
// variable-length naturals (7 bits per byte, big-endian, continuation bit
// set on all but the last byte of each field).
func encodePointer(p StakePointer) []byte {
	var out []byte
	out = append(out, encodeVarNatural(p.Slot)...)
	out = append(out, encodeVarNatural(p.TxIndex)...)
	out = append(out, encodeVarNatural(p.CertIndex)...)
	return out
}

func encodeVarNatural(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	var groups []byte
	for v > 0 {
		groups = append([]byte{byte(v & 0x7F)}, groups...)
		v >>= 7
	}
	for i := 0; i < len(groups)-1; i++ {
		groups[i] |= 0x80
	}
	return groups
}

func decodePointer(data []byte) (StakePointer, int, error) {
	slot, n1, err := decodeVarNatural(data)
	if err != nil {
		return StakePointer{}, 0, err
	}
	txIndex, n2, err := decodeVarNatural(data[n1:])
	if err != nil {
		return StakePointer{}, 0, err
	}
	certIndex, n3, err := decodeVarNatural(data[n1+n2:])
	if err != nil {
		return StakePointer{}, 0, err
	}
	return StakePointer{Slot: slot, TxIndex: txIndex, CertIndex: certIndex}, n1 + n2 + n3, nil
}

func decodeVarNatural(data []byte) (uint64, int, error) {
	var v uint64
	for i, b := range data {
		v = (v << 7) | uint64(b&0x7F)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: truncated variable-length natural", ErrInvalidAddress)
}
