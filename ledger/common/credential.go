package common

import (
	"bytes"
	"fmt"

	"github.com/go-cardano/ctxbuilder/cbor"
)

// CredentialType discriminates a Credential's underlying hash kind.
type CredentialType uint

const (
	CredentialTypeAddrKeyHash CredentialType = 0
	CredentialTypeScriptHash  CredentialType = 1
)

// Credential is a tagged key-hash-or-script-hash, used for staking
// credentials, DRep credentials, and committee credentials alike.
type Credential struct {
	CredType   CredentialType
	Credential Blake2b224
}

// NewKeyHashCredential builds a payment/staking credential from a key hash.
func NewKeyHashCredential(hash Blake2b224) Credential {
	return Credential{CredType: CredentialTypeAddrKeyHash, Credential: hash}
}

// NewScriptHashCredential builds a credential from a script hash.
func NewScriptHashCredential(hash Blake2b224) Credential {
	return Credential{CredType: CredentialTypeScriptHash, Credential: hash}
}

// IsScriptHash reports whether this credential is backed by a script.
func (c Credential) IsScriptHash() bool {
	return c.CredType == CredentialTypeScriptHash
}

// Compare gives Credential a total order: key hashes sort before script
// hashes, then by hash bytes. Used for deterministic certificate/witness
// ordering wherever the ledger CDDL doesn't otherwise fix an order.
func (c Credential) Compare(other Credential) int {
	if c.CredType != other.CredType {
		if c.CredType < other.CredType {
			return -1
		}
		return 1
	}
	return bytes.Compare(c.Credential[:], other.Credential[:])
}

// MarshalCBOR encodes the credential as the 2-element array
// [type, hash-bytes] the ledger CDDL specifies.
func (c Credential) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(c.CredType), c.Credential.Bytes()})
}

// UnmarshalCBOR decodes a [type, hash-bytes] array into c.
func (c *Credential) UnmarshalCBOR(data []byte) error {
	var raw []cbor.RawMessage
	if err := cbor.Decode(data, &raw); err != nil {
		return fmt.Errorf("credential: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("%w: credential array must have 2 elements, got %d", ErrInvalidCredential, len(raw))
	}
	var credType uint
	if err := cbor.Decode(raw[0], &credType); err != nil {
		return fmt.Errorf("credential type: %w", err)
	}
	var hashBytes []byte
	if err := cbor.Decode(raw[1], &hashBytes); err != nil {
		return fmt.Errorf("credential hash: %w", err)
	}
	hash, err := NewBlake2b224(hashBytes)
	if err != nil {
		return fmt.Errorf("credential hash: %w", err)
	}
	c.CredType = CredentialType(credType)
	c.Credential = hash
	return nil
}
