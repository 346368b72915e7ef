package common

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/go-cardano/ctxbuilder/cbor"
)

// Blake2b224Size and Blake2b256Size are the digest sizes for the two hash
// widths used throughout the Cardano ledger (credentials/script hashes use
// 224 bits, transaction/block/datum hashes use 256 bits).
const (
	Blake2b224Size = 28
	Blake2b256Size = 32
)

// Blake2b224 is a 28-byte Blake2b digest, used for key hashes, script
// hashes, and policy IDs.
type Blake2b224 [Blake2b224Size]byte

// Blake2b256 is a 32-byte Blake2b digest, used for transaction IDs, datum
// hashes, and auxiliary-data/script-data hashes.
type Blake2b256 [Blake2b256Size]byte

// NewBlake2b224 copies b into a Blake2b224, erroring if the length is wrong.
func NewBlake2b224(b []byte) (Blake2b224, error) {
	var h Blake2b224
	if len(b) != Blake2b224Size {
		return h, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidHashLength, Blake2b224Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// NewBlake2b256 copies b into a Blake2b256, erroring if the length is wrong.
func NewBlake2b256(b []byte) (Blake2b256, error) {
	var h Blake2b256
	if len(b) != Blake2b256Size {
		return h, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidHashLength, Blake2b256Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Bytes returns the digest bytes.
func (h Blake2b224) Bytes() []byte { return h[:] }

// Bytes returns the digest bytes.
func (h Blake2b256) Bytes() []byte { return h[:] }

// String returns the lowercase hex encoding of the digest.
func (h Blake2b224) String() string { return hex.EncodeToString(h[:]) }

// String returns the lowercase hex encoding of the digest.
func (h Blake2b256) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether h is the all-zero hash (used as a sentinel for
// "no staking key" in wallet implementations).
func (h Blake2b224) IsZero() bool { return h == Blake2b224{} }

// Blake2b224Hash hashes data with a 28-byte-digest Blake2b.
func Blake2b224Hash(data []byte) Blake2b224 {
	h, err := blake2b.New(Blake2b224Size, nil)
	if err != nil {
		panic(fmt.Sprintf("common: blake2b-224 init: %v", err))
	}
	h.Write(data)
	var out Blake2b224
	copy(out[:], h.Sum(nil))
	return out
}

// Blake2b256Hash hashes data with standard 32-byte Blake2b.
func Blake2b256Hash(data []byte) Blake2b256 {
	return Blake2b256(blake2b.Sum256(data))
}

// MarshalCBOR encodes the hash as a CBOR byte string. Explicit rather than
// relying on fxamacker/cbor's implicit [N]byte handling, since this type
// also needs to serve as a Go map key (policy ID) where implicit behavior
// can't be relied on for round-trip fidelity.
func (h Blake2b224) MarshalCBOR() ([]byte, error) { return cbor.Encode(h[:]) }

// UnmarshalCBOR decodes a CBOR byte string into h.
func (h *Blake2b224) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Decode(data, &raw); err != nil {
		return err
	}
	decoded, err := NewBlake2b224(raw)
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}

// MarshalCBOR encodes the hash as a CBOR byte string.
func (h Blake2b256) MarshalCBOR() ([]byte, error) { return cbor.Encode(h[:]) }

// UnmarshalCBOR decodes a CBOR byte string into h.
func (h *Blake2b256) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Decode(data, &raw); err != nil {
		return err
	}
	decoded, err := NewBlake2b256(raw)
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}

// VKey is a raw Ed25519 verification (public) key.
type VKey [32]byte

// Bytes returns the key bytes.
func (k VKey) Bytes() []byte { return k[:] }

// Signature is a raw Ed25519 signature.
type Signature [64]byte

// Bytes returns the signature bytes.
func (s Signature) Bytes() []byte { return s[:] }
